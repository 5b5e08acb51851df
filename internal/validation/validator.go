package validation

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	ErrPathTraversal     = errors.New("path traversal detected")
	ErrInvalidCharacters = errors.New("invalid characters in input")
)

// ValidateLabelValue rejects values that would break a quoted label in the
// exposition format, since label values are written without escaping.
func ValidateLabelValue(value string) error {
	if value == "" {
		return ErrInvalidCharacters
	}

	if !utf8.ValidString(value) {
		return ErrInvalidCharacters
	}

	if strings.ContainsAny(value, "\"\\\n\r") {
		return ErrInvalidCharacters
	}

	return nil
}

// SanitizeCgroupPath joins a cgroup path read from /proc onto basePath and
// makes sure the result does not escape it.
func SanitizeCgroupPath(basePath, cgroupPath string) (string, error) {
	fullPath := filepath.Join(basePath, cgroupPath)
	cleanPath := filepath.Clean(fullPath)

	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return "", err
	}

	absFullPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return "", err
	}

	relPath, err := filepath.Rel(absBasePath, absFullPath)
	if err != nil {
		return "", ErrPathTraversal
	}

	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	return cleanPath, nil
}
