package sink

import (
	"context"
	"sync"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
)

// Blob is an image held in memory.
type Blob struct {
	id          int
	data        []byte
	contentType string
	owner       *MemorySink

	mu       sync.Mutex
	released bool
}

// ID returns the frame id.
func (b *Blob) ID() int { return b.id }

// Bytes returns the image data, or nil once released.
func (b *Blob) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// ContentType returns the media type of the image.
func (b *Blob) ContentType() string { return b.contentType }

// Release drops the image data.
func (b *Blob) Release() error {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return nil
	}
	b.released = true
	n := int64(len(b.data))
	b.data = nil
	b.mu.Unlock()

	b.owner.mu.Lock()
	b.owner.live--
	b.owner.liveBytes -= n
	b.owner.mu.Unlock()
	return nil
}

// MemorySink keeps each frame's payload in memory as a Blob.
type MemorySink struct {
	mu        sync.Mutex
	live      int
	liveBytes int64
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Put stores the frame and returns its *Blob.
func (m *MemorySink) Put(ctx context.Context, frame codec.Frame) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := &Blob{
		id:          frame.ID,
		data:        frame.Payload,
		contentType: ContentType(frame),
		owner:       m,
	}
	m.mu.Lock()
	m.live++
	m.liveBytes += int64(len(frame.Payload))
	m.mu.Unlock()
	return b, nil
}

// Live returns the number of unreleased blobs and their total size.
func (m *MemorySink) Live() (int, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live, m.liveBytes
}
