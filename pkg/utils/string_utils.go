package utils

import "strings"

// TrimSpaceSlice trims whitespace from all strings in a slice and filters out empty strings
func TrimSpaceSlice(items []string) []string {
	var result []string
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// UniqueStrings trims items and drops empty values and repeats, keeping first occurrences in order
func UniqueStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range TrimSpaceSlice(items) {
		if seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}
	return result
}
