package fileutils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain name",
			input:    "History",
			expected: "History",
		},
		{
			name:     "traversal removed",
			input:    "../../etc",
			expected: "etc",
		},
		{
			name:     "separators removed",
			input:    `Sci/Fi\Fantasy`,
			expected: "SciFiFantasy",
		},
		{
			name:     "reserved characters removed",
			input:    `a<b>c:d"e|f?g*h`,
			expected: "abcdefgh",
		},
		{
			name:     "control characters removed",
			input:    "Jane\x00 Doe\x1f",
			expected: "Jane Doe",
		},
		{
			name:     "whitespace collapsed",
			input:    "  Jane \t  Doe  ",
			expected: "Jane Doe",
		},
		{
			name:     "trailing dots trimmed",
			input:    "Dr. Who...",
			expected: "Dr. Who",
		},
		{
			name:     "smart quotes normalized then stripped",
			input:    "“Quoted” ‘name’",
			expected: "Quoted 'name'",
		},
		{
			name:     "arabic kept",
			input:    "تاريخ",
			expected: "تاريخ",
		},
		{
			name:     "empty falls back",
			input:    "",
			expected: "Unknown",
		},
		{
			name:     "only invalid falls back",
			input:    `..//..`,
			expected: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeName(tt.input, "Unknown"))
		})
	}
}

func TestSanitizeName_TruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("ع", 150) // 300 bytes
	result := SanitizeName(long, "Unknown")
	assert.LessOrEqual(t, len(result), MaxNameLength)
	assert.True(t, utf8.ValidString(result))
	assert.Equal(t, 100, utf8.RuneCountInString(result))
}

func TestSplitNames(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single tag",
			input:    "history",
			expected: []string{"history"},
		},
		{
			name:     "comma separated",
			input:    "history, philosophy",
			expected: []string{"history", "philosophy"},
		},
		{
			name:     "mixed comma and semicolon",
			input:    "history, philosophy; poetry",
			expected: []string{"history", "philosophy", "poetry"},
		},
		{
			name:     "empty parts filtered",
			input:    "history,,philosophy;;",
			expected: []string{"history", "philosophy"},
		},
		{
			name:     "only delimiters",
			input:    ",;,;",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitNames(tt.input))
		})
	}
}
