package utils

import (
	"path/filepath"
	"strings"
)

// SanitizeFilename reduces an uploaded filename to a safe basename: path
// separators and control characters are dropped, anything outside a small
// allowed set becomes '_'. Returns a fallback name if nothing survives.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.', r == ' ':
			b.WriteRune(r)
		case r > 127:
			// Keep non-ASCII letters; lecture files are often named in Japanese.
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	sanitized := strings.Trim(b.String(), ". ")
	if sanitized == "" {
		return "uploaded_file"
	}
	return sanitized
}
