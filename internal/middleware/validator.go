package middleware

import (
	"path/filepath"
	"strings"
)

// UploadName reduces a client-supplied file name to its base name, without
// path or control characters. Empty input becomes "upload.csv".
func UploadName(name string) string {
	name = SanitizeString(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return "upload.csv"
	}
	return name
}

// IsCSVName reports whether the name carries the .csv extension the picker
// hints at. Nothing rejects other names.
func IsCSVName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 && r != 127 || r == '\t' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
