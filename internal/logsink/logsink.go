// Package logsink captures formatted log lines for the presentation shell.
package logsink

import (
	"bytes"
	"sync"
)

// DefaultMaxLines bounds the buffer; the oldest lines are dropped first.
const DefaultMaxLines = 2000

// Buffer is a bounded, mutex-guarded ring of log lines. It implements
// io.Writer so stdlib loggers can tee into it via io.MultiWriter.
type Buffer struct {
	mu       sync.Mutex
	lines    []string
	maxLines int
	partial  bytes.Buffer
}

func New(maxLines int) *Buffer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Buffer{maxLines: maxLines}
}

// Record appends one formatted line.
func (b *Buffer) Record(line string) {
	b.mu.Lock()
	b.append(line)
	b.mu.Unlock()
}

func (b *Buffer) append(line string) {
	b.lines = append(b.lines, line)
	if len(b.lines) > b.maxLines {
		drop := len(b.lines) - b.maxLines
		b.lines = append(b.lines[:0], b.lines[drop:]...)
	}
}

// Write splits p on newlines and records each complete line. A trailing
// fragment is held until its newline arrives.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.partial.Write(p)
	for {
		data := b.partial.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		b.append(string(data[:i]))
		b.partial.Next(i + 1)
	}
	return len(p), nil
}

// Lines returns a copy of the retained lines.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// DrainAndClear copies the buffer out and clears it; called at the start of
// each UI-driven question.
func (b *Buffer) DrainAndClear() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.lines
	b.lines = nil
	return out
}
