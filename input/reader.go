// Package input turns a line-oriented stream, normally the terminal, into a
// sequence of query texts.
package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// maxLineLength bounds a single query line
const maxLineLength = 64 * 1024

// LineReader emits every line read from its source as a new query text
type LineReader struct {
	src     io.Reader
	queries chan string

	mu  sync.Mutex
	err error
}

// NewLineReader creates a reader over src
func NewLineReader(src io.Reader) *LineReader {
	return &LineReader{
		src:     src,
		queries: make(chan string),
	}
}

// Queries returns the channel of query texts. It is closed when the source
// is exhausted, fails, or the context passed to Start is done.
func (r *LineReader) Queries() <-chan string {
	return r.queries
}

// Err returns the read error that ended the stream, if any. EOF is not an error.
func (r *LineReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Start begins reading in the background. A blocked read on the source is
// not interrupted by ctx; the channel is closed as soon as ctx is done.
func (r *LineReader) Start(ctx context.Context) {
	lines := make(chan string)
	go r.scan(ctx, lines)

	go func() {
		defer close(r.queries)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					return
				}
				select {
				case r.queries <- line:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *LineReader) scan(ctx context.Context, lines chan<- string) {
	defer close(lines)

	scanner := bufio.NewScanner(r.src)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		select {
		case lines <- strings.TrimRight(scanner.Text(), "\r"):
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		r.mu.Lock()
		r.err = fmt.Errorf("reading query input: %w", err)
		r.mu.Unlock()
	}
}

// Pump starts r and hands every query text to set until the stream ends.
// It returns the read error, if any, or ctx.Err() when cancelled first.
func Pump(ctx context.Context, r *LineReader, set func(string)) error {
	r.Start(ctx)
	for query := range r.Queries() {
		set(query)
	}
	if err := r.Err(); err != nil {
		return err
	}
	return ctx.Err()
}
