package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SafeCreateFile creates a file with path validation to prevent directory traversal attacks.
// Missing parent directories are created.
func SafeCreateFile(filename string) (*os.File, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}

	file, err := os.Create(filename) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", filename, err)
	}

	return file, nil
}

// validateFilePath validates a file path to prevent directory traversal attacks
func validateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	cleanPath := filepath.Clean(path)

	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return fmt.Errorf("path contains directory traversal patterns: %s", path)
		}
	}

	if filepath.IsAbs(cleanPath) {
		sensitiveDirectories := []string{
			"/etc", "/proc", "/sys", "/dev", "/boot",
			"/usr/bin", "/usr/sbin", "/bin", "/sbin",
		}

		for _, sensitive := range sensitiveDirectories {
			if cleanPath == sensitive || strings.HasPrefix(cleanPath, sensitive+"/") {
				return fmt.Errorf("path points to sensitive system directory: %s", path)
			}
		}
	}

	dir := filepath.Dir(cleanPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DirectoryExists checks if a directory exists at the given path
func DirectoryExists(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
