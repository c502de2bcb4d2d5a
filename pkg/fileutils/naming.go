package fileutils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the byte limit for a single sanitized path segment.
const MaxNameLength = 200

var (
	doubleQuotes = regexp.MustCompile(`[“”]`)
	singleQuotes = regexp.MustCompile(`[‘’]`)
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// SanitizeName turns free-text metadata (a category, an author) into a single
// safe folder name. An empty result falls back to def.
func SanitizeName(name, def string) string {
	name = sanitizeForFilename(name)
	if name == "" {
		return def
	}
	return name
}

// sanitizeForFilename removes or replaces characters that are not safe for filenames.
func sanitizeForFilename(name string) string {
	name = doubleQuotes.ReplaceAllString(name, `"`)
	name = singleQuotes.ReplaceAllString(name, `'`)

	// Traversal sequences go before separators so "../" can't reassemble.
	name = strings.ReplaceAll(name, "..", "")
	name = invalidChars.ReplaceAllString(name, "")

	name = whitespace.ReplaceAllString(name, " ")

	// Windows doesn't like trailing dots.
	name = strings.Trim(name, " .")

	if len(name) > MaxNameLength {
		name = truncateRunes(name, MaxNameLength)
		name = strings.Trim(name, " .")
	}

	return name
}

// truncateRunes cuts s to at most n bytes without splitting a multi-byte rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// SplitNames splits a comma or semicolon separated list, trimming whitespace
// and dropping empty entries. Used for book tags.
func SplitNames(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	for _, segment := range strings.Split(s, ";") {
		for _, part := range strings.Split(segment, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
	}
	return parts
}
