package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidatePath checks that a command-line path is usable.
//
// Validation rules:
//   - Path cannot be empty or blank
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters: %q", path)
		}
	}

	return nil
}

// ValidateTheme checks that a theme name can be passed to the render
// context. Any text is accepted, since the page receives it as a value and
// interprets it itself; only bytes that are not UTF-8 are rejected because
// they would be altered in transit. Empty means the library default.
func ValidateTheme(theme string) error {
	if !utf8.ValidString(theme) {
		return New(ErrCodeInvalidInput, "theme is not valid UTF-8: %q", theme)
	}
	return nil
}
