// Package pathutil validates user-supplied paths before tyr reads or writes
// them.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// cleanAbs rejects traversal segments and returns the absolute form of path.
func cleanAbs(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is empty")
	}
	for _, part := range strings.FieldsFunc(path, isSeparator) {
		if part == ".." {
			return "", fmt.Errorf("path contains directory traversal pattern: %s", path)
		}
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	return abs, nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == filepath.Separator
}

// ValidateConfigPath validates a YAML configuration file path.
func ValidateConfigPath(path string) (string, error) {
	abs, err := cleanAbs(path)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(abs))
	if ext != ".yaml" && ext != ".yml" {
		return "", fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}
	return abs, nil
}

// ValidateInputPath checks that path names an existing regular file.
func ValidateInputPath(path string) (string, error) {
	abs, err := cleanAbs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("input is not a regular file: %s", path)
	}
	return abs, nil
}

// ValidateOutputPath validates a report destination. The parent directory
// must exist and the path itself must not be a directory.
func ValidateOutputPath(path string) (string, error) {
	abs, err := cleanAbs(path)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(abs)
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return "", fmt.Errorf("parent directory does not exist: %s", dir)
	}
	if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
		return "", fmt.Errorf("output path is a directory: %s", path)
	}
	return abs, nil
}

// JoinAndValidate joins elems onto baseDir and checks the result stays
// inside baseDir.
func JoinAndValidate(baseDir string, elems ...string) (string, error) {
	for _, elem := range elems {
		if strings.Contains(elem, "..") {
			return "", fmt.Errorf("path element contains directory traversal: %s", elem)
		}
	}

	joined, err := filepath.Abs(filepath.Join(append([]string{baseDir}, elems...)...))
	if err != nil {
		return "", fmt.Errorf("getting absolute joined path: %w", err)
	}
	ok, err := IsWithinDirectory(joined, baseDir)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("joined path %s is not within base directory %s", joined, baseDir)
	}
	return joined, nil
}

// IsWithinDirectory reports whether path is dir or lies beneath it.
func IsWithinDirectory(path, dir string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	if absPath == absDir {
		return true, nil
	}
	return strings.HasPrefix(absPath, strings.TrimSuffix(absDir, string(filepath.Separator))+string(filepath.Separator)), nil
}
