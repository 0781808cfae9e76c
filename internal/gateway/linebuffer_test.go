package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, b *LineBuffer, chunks ...string) []string {
	t.Helper()
	var out []string
	for _, c := range chunks {
		lines, err := b.Feed([]byte(c))
		require.NoError(t, err)
		out = append(out, lines...)
	}
	return out
}

func TestLineBuffer_SplitAcrossChunks(t *testing.T) {
	b := NewLineBuffer(0)

	lines := feedAll(t, b, "{\"a\":1}\n{\"b\":", "2}\n")

	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, lines)
	assert.Zero(t, b.Pending())
}

func TestLineBuffer_AnyChunkBoundary(t *testing.T) {
	stream := "{\"a\":1}\r\n{\"b\":2}\n\n{\"c\":3}\n"
	want := []string{`{"a":1}`, `{"b":2}`, `{"c":3}`}

	for size := 1; size <= len(stream); size++ {
		b := NewLineBuffer(0)
		var chunks []string
		for i := 0; i < len(stream); i += size {
			end := min(i+size, len(stream))
			chunks = append(chunks, stream[i:end])
		}
		assert.Equal(t, want, feedAll(t, b, chunks...), "chunk size %d", size)
	}
}

func TestLineBuffer_HoldsTrailingFragment(t *testing.T) {
	b := NewLineBuffer(0)

	lines := feedAll(t, b, "{\"a\":1}\n{\"partial")

	assert.Equal(t, []string{`{"a":1}`}, lines)
	assert.Equal(t, len(`{"partial`), b.Pending())
}

func TestLineBuffer_StripsCarriageReturn(t *testing.T) {
	b := NewLineBuffer(0)

	lines := feedAll(t, b, "one\r\ntwo\r", "\n")

	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestLineBuffer_SkipsBlankLines(t *testing.T) {
	b := NewLineBuffer(0)

	lines := feedAll(t, b, "\n  \n\r\nx\n")

	assert.Equal(t, []string{"x"}, lines)
}

func TestLineBuffer_OverlongLineIsDiscarded(t *testing.T) {
	b := NewLineBuffer(8)

	lines, err := b.Feed([]byte("ok\n" + strings.Repeat("x", 20)))
	assert.ErrorIs(t, err, ErrLineTooLong)
	assert.Equal(t, []string{"ok"}, lines)
	assert.Zero(t, b.Pending())

	lines, err = b.Feed([]byte(strings.Repeat("y", 5) + "\nnext\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"next"}, lines)
}

func TestLineBuffer_OverlongCompleteLine(t *testing.T) {
	b := NewLineBuffer(4)

	lines, err := b.Feed([]byte("abc\n123456789\ndef\n"))

	assert.ErrorIs(t, err, ErrLineTooLong)
	assert.Equal(t, []string{"abc", "def"}, lines)
}
