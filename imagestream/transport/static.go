package transport

import (
	"context"
	"io"
)

// StaticSource replays a fixed list of chunks, then reports io.EOF.
type StaticSource struct {
	chunks [][]byte
	closed bool
}

// NewStaticSource creates a source over chunks. The chunks are not copied.
func NewStaticSource(chunks ...[]byte) *StaticSource {
	return &StaticSource{chunks: chunks}
}

// Next returns the next chunk.
func (s *StaticSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed || len(s.chunks) == 0 {
		return nil, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

// Close drops the remaining chunks.
func (s *StaticSource) Close() error {
	s.closed = true
	s.chunks = nil
	return nil
}

// SplitAt cuts data at the given offsets. Offsets outside the data or not
// beyond the previous one are ignored.
func SplitAt(data []byte, offsets ...int) [][]byte {
	var out [][]byte
	prev := 0
	for _, off := range offsets {
		if off <= prev || off >= len(data) {
			continue
		}
		out = append(out, data[prev:off])
		prev = off
	}
	return append(out, data[prev:])
}

// SplitEvery cuts data into chunks of n bytes; the last chunk may be shorter.
func SplitEvery(data []byte, n int) [][]byte {
	if n <= 0 || len(data) <= n {
		return [][]byte{data}
	}
	out := make([][]byte, 0, (len(data)+n-1)/n)
	for len(data) > n {
		out = append(out, data[:n])
		data = data[n:]
	}
	return append(out, data)
}
