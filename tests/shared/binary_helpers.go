// Package shared contains common test utilities used across different test packages
package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// BinaryName is the file name of the generator binary at the project root
const BinaryName = "golang-callgraph-generator"

// GetBinaryPath returns the path to the pre-built binary.
// Build it with 'go build -o golang-callgraph-generator .' before running tests.
func GetBinaryPath(t *testing.T) string {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		t.Fatalf("Failed to find project root: %v", err)
	}

	binaryPath := filepath.Join(projectRoot, BinaryName)
	if _, err := os.Stat(binaryPath); err != nil {
		t.Skipf("Binary not found at %s. Run 'go build -o %s .' in the project root first.", binaryPath, BinaryName)
	}

	return binaryPath
}

// FindProjectRoot walks up the directory tree to the module that owns main.go
func FindProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModData, err := os.ReadFile(filepath.Join(currentDir, "go.mod")) // #nosec G304 - walking up from the test directory
		if err == nil {
			if _, err := os.Stat(filepath.Join(currentDir, "main.go")); err == nil &&
				strings.Contains(GetModuleName(goModData), BinaryName) {
				return currentDir, nil
			}
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			return "", fmt.Errorf("no %s module above the working directory", BinaryName)
		}
		currentDir = parent
	}
}

// GetModuleName extracts the module path from go.mod contents
func GetModuleName(goModData []byte) string {
	for _, line := range strings.Split(string(goModData), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module "))
		}
	}
	return ""
}
