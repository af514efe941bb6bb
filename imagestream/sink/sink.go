// Package sink turns decoded frames into displayable resources.
//
// A Sink creates one resource per frame (an in-memory blob, a file, a cache
// entry, a published message) and returns a Handle to it. Resources are not
// reclaimed automatically: whoever holds a Handle must Release it once the
// image is no longer shown.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
)

// HeaderContentType is the optional per-frame media type header.
const HeaderContentType = "Content-Type"

// Handle refers to one resource created by a Sink.
type Handle interface {
	// ID is the frame id the resource was created for.
	ID() int
	// Release frees the resource. Releasing twice is a no-op.
	Release() error
}

// Sink creates a resource for each frame.
type Sink interface {
	Put(ctx context.Context, frame codec.Frame) (Handle, error)
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, frame codec.Frame) (Handle, error)

// Put calls f(ctx, frame)
func (f Func) Put(ctx context.Context, frame codec.Frame) (Handle, error) {
	return f(ctx, frame)
}

// ContentType returns the frame's declared Content-Type, or the type
// detected from the payload bytes when none was sent.
func ContentType(frame codec.Frame) string {
	if ct := frame.Headers.Get(HeaderContentType); ct != "" {
		return ct
	}
	return mimetype.Detect(frame.Payload).String()
}

// Extension returns the file extension, including the dot, for the
// payload's detected type.
func Extension(frame codec.Frame) string {
	if ct := frame.Headers.Get(HeaderContentType); ct != "" {
		if m := mimetype.Lookup(ct); m != nil {
			return m.Extension()
		}
	}
	return mimetype.Detect(frame.Payload).Extension()
}

// Drain puts every frame from dec into s and returns the handles in arrival
// order. Handles created before a failure are returned alongside the error
// and remain owned by the caller.
func Drain(ctx context.Context, dec *codec.Decoder, s Sink) ([]Handle, error) {
	var handles []Handle
	for frame, err := range dec.Frames(ctx) {
		if err != nil {
			return handles, err
		}
		h, err := s.Put(ctx, frame)
		if err != nil {
			dec.Close()
			return handles, fmt.Errorf("sink put frame %d: %w", frame.ID, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// ReleaseAll releases every handle and joins the errors.
func ReleaseAll(handles []Handle) error {
	var errs []error
	for _, h := range handles {
		if h == nil {
			continue
		}
		if err := h.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release %d: %w", h.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Tee puts each frame into every sink. The returned handle releases all of
// the per-sink resources. If one sink fails the resources already created
// for that frame are released.
func Tee(sinks ...Sink) Sink {
	return Func(func(ctx context.Context, frame codec.Frame) (Handle, error) {
		hs := make([]Handle, 0, len(sinks))
		for _, s := range sinks {
			h, err := s.Put(ctx, frame)
			if err != nil {
				return nil, errors.Join(err, ReleaseAll(hs))
			}
			hs = append(hs, h)
		}
		return &multiHandle{id: frame.ID, handles: hs}, nil
	})
}

type multiHandle struct {
	id      int
	handles []Handle
}

func (m *multiHandle) ID() int { return m.id }

func (m *multiHandle) Release() error {
	hs := m.handles
	m.handles = nil
	return ReleaseAll(hs)
}

// noopHandle is returned by sinks whose resources need no cleanup.
type noopHandle int

func (h noopHandle) ID() int        { return int(h) }
func (h noopHandle) Release() error { return nil }
