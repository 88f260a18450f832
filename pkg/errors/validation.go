package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateCategoryName validates a category name for safety and correctness.
// Category names come from annotation exports and from URL path parameters,
// so the rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences
//   - Maximum length of 128 characters
func ValidateCategoryName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidCategory, "category name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidCategory, "category name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCategory, "category name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidCategory, "category name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// heatsetIDRegex matches heatset run IDs: UUIDs and plain slugs. File-backed
// stores use the ID as a filename, so anything path-like is rejected.
var heatsetIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateHeatsetID validates a heatset run ID.
func ValidateHeatsetID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "heatset id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "heatset id too long (max 128 characters)")
	}

	if strings.Contains(id, "..") || !heatsetIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid heatset id: %q", id)
	}

	return nil
}

// ValidatePath validates a user-supplied file path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}
