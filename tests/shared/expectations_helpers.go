// Package shared contains common test utilities used across different test packages
package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// LoadExpectations loads test expectations from a YAML file
func LoadExpectations(expectationPath string) (*TestExpectation, error) {
	if expectationPath == "" || strings.Contains(expectationPath, "..") {
		return nil, fmt.Errorf("invalid expectation path")
	}
	expectationData, err := os.ReadFile(expectationPath) // #nosec G304 - controlled path for test expectations
	if err != nil {
		return nil, err
	}

	var expectations TestExpectation
	if err := yaml.Unmarshal(expectationData, &expectations); err != nil {
		return nil, err
	}
	return &expectations, nil
}

// ReadCallGraph parses a callgraph.json report
func ReadCallGraph(path string) ([]CallGraphEntry, error) {
	var entries []CallGraphEntry
	return entries, readJSON(path, &entries)
}

// ReadCallersReport parses one caller report
func ReadCallersReport(path string) (*CallersReport, error) {
	var report CallersReport
	return &report, readJSON(path, &report)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path) // #nosec G304 - report written by the test run
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// HasSuffixName reports whether a reported function name ends in the
// expected name at a path boundary
func HasSuffixName(name, want string) bool {
	return name == want || strings.HasSuffix(name, "/"+want) || strings.HasSuffix(name, "."+want)
}
