package transport

import (
	"context"
	"io"
	"sync"
)

// DefaultChunkSize is the read size used when none is given.
const DefaultChunkSize = 32 * 1024

// ReaderSource reads chunks from an io.Reader such as an HTTP response body.
type ReaderSource struct {
	r    io.Reader
	size int

	closeOnce sync.Once
	closeErr  error
}

// NewReaderSource creates a source that reads up to chunkSize bytes per chunk.
// A chunkSize of zero or less selects DefaultChunkSize.
func NewReaderSource(r io.Reader, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ReaderSource{r: r, size: chunkSize}
}

// Next returns the bytes of one Read call. The slice is never reused.
func (s *ReaderSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, s.size)
	n, err := s.r.Read(buf)
	if err != nil && err != io.EOF {
		// A body read aborted by cancellation reports the cause.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return buf[:n], ctxErr
		}
	}
	return buf[:n], err
}

// Close closes the underlying reader if it is an io.Closer.
func (s *ReaderSource) Close() error {
	s.closeOnce.Do(func() {
		if c, ok := s.r.(io.Closer); ok {
			s.closeErr = c.Close()
		}
	})
	return s.closeErr
}
