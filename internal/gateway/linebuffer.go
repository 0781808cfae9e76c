package gateway

import (
	"bytes"
	"errors"
)

// ErrLineTooLong reports a worker line that outgrew the buffer cap. The
// offending line is discarded up to its terminating newline.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// LineBuffer splits a byte stream into newline-delimited lines. A trailing
// fragment without newline is held until a later chunk completes it.
// It is not safe for concurrent use; each session feeds its own buffer from
// a single goroutine.
type LineBuffer struct {
	buf        []byte
	max        int
	discarding bool
}

// NewLineBuffer creates a buffer whose held fragment may grow to max bytes.
// A max of zero or less disables the cap.
func NewLineBuffer(max int) *LineBuffer {
	return &LineBuffer{max: max}
}

// Feed appends chunk and returns the lines it completed, in order, with a
// trailing "\r" removed. Blank lines are skipped. When a line exceeds the cap
// the lines completed so far are still returned alongside ErrLineTooLong.
func (b *LineBuffer) Feed(chunk []byte) ([]string, error) {
	var (
		lines    []string
		overflow error
	)

	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			if !b.discarding {
				b.buf = append(b.buf, chunk...)
				if b.tooLong(len(b.buf)) {
					b.reset()
					b.discarding = true
					overflow = ErrLineTooLong
				}
			}
			break
		}

		segment := chunk[:i]
		chunk = chunk[i+1:]

		if b.discarding {
			b.discarding = false
			continue
		}

		line := segment
		if len(b.buf) > 0 {
			b.buf = append(b.buf, segment...)
			line = b.buf
		}
		if b.tooLong(len(line)) {
			b.reset()
			overflow = ErrLineTooLong
			continue
		}

		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(bytes.TrimSpace(line)) > 0 {
			lines = append(lines, string(line))
		}
		b.reset()
	}

	return lines, overflow
}

// Pending returns the number of bytes held for the next chunk.
func (b *LineBuffer) Pending() int {
	return len(b.buf)
}

func (b *LineBuffer) tooLong(n int) bool {
	return b.max > 0 && n > b.max
}

func (b *LineBuffer) reset() {
	b.buf = b.buf[:0]
}
