package strings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world this is a long string", 15, "hello world ..."},
		{"newlines collapsed", "line one\nline two\r\n\tthree", 60, "line one line two three"},
		{"multibyte runes kept whole", "課題の詳細を取得します", 6, "課題の..."},
		{"tiny limit clamped", "abcdefgh", 1, "a..."},
		{"empty", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.maxLen))
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "abc... (3 more bytes)", Excerpt("abcdef", 3))

	// "é" is two bytes; a cut inside it backs up to the rune start.
	assert.Equal(t, "a... (3 more bytes)", Excerpt("aéb", 2))

	long := strings.Repeat("x", 1000)
	assert.Equal(t, strings.Repeat("x", 200)+"... (800 more bytes)", Excerpt(long, 200))
}
