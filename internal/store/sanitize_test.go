package store

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "uuid unchanged",
			input:    "4b1c2a9e-2f44-4f5e-9a77-1b0c3d2e5f60",
			expected: "4b1c2a9e-2f44-4f5e-9a77-1b0c3d2e5f60",
		},
		{
			name:     "email user id keeps at sign",
			input:    "marketing@pharma.example",
			expected: "marketing@pharma.example",
		},
		{
			name:     "path traversal neutralized",
			input:    "../../etc/passwd",
			expected: "etc_passwd",
		},
		{
			name:     "dot dot alone",
			input:    "..",
			expected: "unnamed",
		},
		{
			name:     "backslash separators",
			input:    `team\alice`,
			expected: "team_alice",
		},
		{
			name:     "windows reserved characters collapsed",
			input:    `auth0|user:42*`,
			expected: "auth0_user_42",
		},
		{
			name:     "control characters dropped",
			input:    "user\x00\x1fone",
			expected: "userone",
		},
		{
			name:     "surrounding spaces and dots trimmed",
			input:    "  .user.  ",
			expected: "user",
		},
		{
			name:     "empty",
			input:    "",
			expected: "unnamed",
		},
		{
			name:     "only reserved characters",
			input:    "|||",
			expected: "unnamed",
		},
		{
			name:     "unicode preserved",
			input:    "दवा-विक्रेता",
			expected: "दवा-विक्रेता",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename_LongInput(t *testing.T) {
	result := SanitizeFilename(strings.Repeat("a", 300))
	if len(result) != maxComponentLength {
		t.Errorf("expected %d bytes, got %d", maxComponentLength, len(result))
	}
}

func TestSanitizeFilename_NeverContainsSeparator(t *testing.T) {
	for _, in := range []string{"a/b", `a\b`, "/", "a/../b", "\x00/"} {
		result := SanitizeFilename(in)
		if strings.ContainsAny(result, `/\`) || result == "." || result == ".." {
			t.Errorf("SanitizeFilename(%q) = %q is not a single path component", in, result)
		}
		if !utf8.ValidString(result) {
			t.Errorf("SanitizeFilename(%q) produced invalid UTF-8", in)
		}
	}
}
