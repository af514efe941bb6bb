package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamBufferFind(t *testing.T) {
	buf := NewStreamBuffer(0)
	buf.Append([]byte{0x00, '-', '-', 'f'})
	buf.Append([]byte("rame\xff--frame"))

	tests := []struct {
		name   string
		needle string
		from   int
		want   int
	}{
		{name: "first match across appends", needle: "--frame", from: 0, want: 1},
		{name: "second match", needle: "--frame", from: 2, want: 9},
		{name: "no match after last", needle: "--frame", from: 10, want: -1},
		{name: "from beyond length", needle: "--frame", from: 100, want: -1},
		{name: "negative from clamps", needle: "\x00", from: -5, want: 0},
		{name: "non-utf8 byte", needle: "\xff", from: 0, want: 8},
		{name: "empty needle", needle: "", from: 0, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buf.Find([]byte(tt.needle), tt.from))
		})
	}
}

func TestStreamBufferConsume(t *testing.T) {
	buf := NewStreamBuffer(4)
	buf.Append([]byte("abcdef"))

	buf.Consume(2)
	assert.Equal(t, "cdef", string(buf.Bytes()))
	assert.Equal(t, 0, buf.Find([]byte("c"), 0), "indices are relative to the new start")
	assert.Equal(t, -1, buf.Find([]byte("ab"), 0), "consumed bytes are unreachable")
	assert.EqualValues(t, 2, buf.Consumed())

	buf.Consume(0)
	assert.Equal(t, 4, buf.Len())

	buf.Append([]byte("gh"))
	assert.Equal(t, "cdefgh", string(buf.Bytes()))

	buf.Consume(100)
	assert.Equal(t, 0, buf.Len())
	assert.EqualValues(t, 8, buf.Consumed())
}

func TestStreamBufferSliceIsCopy(t *testing.T) {
	buf := NewStreamBuffer(0)
	buf.Append([]byte("hello world"))

	s := buf.Slice(0, 5)
	require.Equal(t, "hello", string(s))

	buf.Consume(6)
	buf.Append([]byte("XXXXXX"))
	assert.Equal(t, "hello", string(s), "slice must not alias the buffer")

	assert.Empty(t, buf.Slice(3, 2))
	assert.Equal(t, "XX", string(buf.Slice(9, 50)))
}
