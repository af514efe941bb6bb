package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

type testFrame struct {
	headers []string
	payload []byte
}

// buildStream renders frames in the wire format, ending with a bare closing boundary.
func buildStream(boundary string, frames ...testFrame) []byte {
	var b bytes.Buffer
	for _, f := range frames {
		b.WriteString(boundary)
		b.WriteString("\r\n")
		for _, h := range f.headers {
			b.WriteString(h)
			b.WriteString("\r\n")
		}
		b.WriteString("\r\n")
		b.Write(f.payload)
		b.WriteString("\r\n")
	}
	b.WriteString(boundary)
	return b.Bytes()
}

func withID(id int, payload []byte) testFrame {
	return testFrame{headers: []string{fmt.Sprintf("Content-ID: %d", id)}, payload: payload}
}

// chunkSource replays fixed chunks and records how it was used.
type chunkSource struct {
	chunks [][]byte
	err    error // returned instead of io.EOF once chunks run out
	reads  int
	closed int
}

func newChunkSource(chunks ...[]byte) *chunkSource {
	return &chunkSource{chunks: chunks}
}

func (s *chunkSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed > 0 {
		return nil, errors.New("read after close")
	}
	s.reads++
	if len(s.chunks) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

func (s *chunkSource) Close() error {
	s.closed++
	return nil
}

// splitAt cuts data at the given ascending offsets.
func splitAt(data []byte, offsets ...int) [][]byte {
	var out [][]byte
	prev := 0
	for _, off := range offsets {
		out = append(out, data[prev:off])
		prev = off
	}
	return append(out, data[prev:])
}

// splitEvery cuts data into chunks of n bytes.
func splitEvery(data []byte, n int) [][]byte {
	var out [][]byte
	for len(data) > n {
		out = append(out, data[:n])
		data = data[n:]
	}
	return append(out, data)
}
