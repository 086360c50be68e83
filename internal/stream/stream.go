// Package stream delivers a finished text to an HTTP client in small,
// individually flushed pieces.
package stream

import (
	"context"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

const (
	DefaultChunkSize  = 100
	DefaultChunkDelay = 50 * time.Millisecond
)

// Chunker yields consecutive pieces of text of at most size runes.
type Chunker struct {
	text string
	size int
	pos  int
}

func NewChunker(text string, size int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Chunker{text: text, size: size}
}

// Next returns the next chunk, or false once the text is exhausted.
func (c *Chunker) Next() (string, bool) {
	if c.pos >= len(c.text) {
		return "", false
	}
	end := c.pos
	for n := 0; n < c.size && end < len(c.text); n++ {
		_, w := utf8.DecodeRuneInString(c.text[end:])
		end += w
	}
	chunk := c.text[c.pos:end]
	c.pos = end
	return chunk, true
}

// Pump writes every chunk to w, flushing after each and pausing delay
// between them. It returns ctx.Err() as soon as ctx is done, or the first
// write error. The number of chunks written is returned either way.
func Pump(ctx context.Context, w io.Writer, c *Chunker, delay time.Duration) (int, error) {
	flusher, _ := w.(http.Flusher)

	var timer *time.Timer
	if delay > 0 {
		timer = time.NewTimer(delay)
		timer.Stop()
		defer timer.Stop()
	}

	written := 0
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		chunk, ok := c.Next()
		if !ok {
			return written, nil
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return written, err
		}
		if flusher != nil {
			flusher.Flush()
		}
		written++

		if timer == nil || c.pos >= len(c.text) {
			continue
		}
		timer.Reset(delay)
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		case <-timer.C:
		}
	}
}
