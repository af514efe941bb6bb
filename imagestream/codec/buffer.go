package codec

import "bytes"

// StreamBuffer accumulates stream bytes and discards them once parsed.
//
// Indices passed to Find, Slice and Consume are relative to the first
// unconsumed byte. Consumed bytes are never visible again.
type StreamBuffer struct {
	buf      []byte
	consumed int64
}

// NewStreamBuffer creates an empty buffer with the given initial capacity.
func NewStreamBuffer(capacity int) *StreamBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &StreamBuffer{buf: make([]byte, 0, capacity)}
}

// Append adds chunk to the logical tail. The chunk is copied.
func (b *StreamBuffer) Append(chunk []byte) {
	b.buf = append(b.buf, chunk...)
}

// Find returns the index of the first occurrence of needle at or after from,
// or -1 when there is none.
func (b *StreamBuffer) Find(needle []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if len(needle) == 0 || from > len(b.buf)-len(needle) {
		return -1
	}
	i := bytes.Index(b.buf[from:], needle)
	if i < 0 {
		return -1
	}
	return from + i
}

// Consume discards every byte before upto.
func (b *StreamBuffer) Consume(upto int) {
	if upto <= 0 {
		return
	}
	if upto >= len(b.buf) {
		b.consumed += int64(len(b.buf))
		b.buf = b.buf[:0]
		return
	}
	// Compact in place so the backing array never holds a parsed prefix.
	n := copy(b.buf, b.buf[upto:])
	b.buf = b.buf[:n]
	b.consumed += int64(upto)
}

// Len returns the number of unconsumed bytes.
func (b *StreamBuffer) Len() int {
	return len(b.buf)
}

// Bytes returns the unconsumed bytes. The slice is only valid until the next
// Append or Consume and must not be modified.
func (b *StreamBuffer) Bytes() []byte {
	return b.buf
}

// Slice returns a copy of the bytes in [start, end).
func (b *StreamBuffer) Slice(start, end int) []byte {
	if start < 0 {
		start = 0
	}
	if end > len(b.buf) {
		end = len(b.buf)
	}
	if start >= end {
		return []byte{}
	}
	out := make([]byte, end-start)
	copy(out, b.buf[start:end])
	return out
}

// Consumed returns the total number of bytes discarded so far.
func (b *StreamBuffer) Consumed() int64 {
	return b.consumed
}
