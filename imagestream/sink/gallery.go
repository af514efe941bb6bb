package sink

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
)

// Item is one image currently shown by a Gallery.
type Item struct {
	ID int
	// Handle removes the item from the gallery when released.
	Handle Handle
	// Resource is the handle created by the gallery's sink, e.g. a *Blob.
	Resource Handle
}

// Gallery is the ordered set of images on display for one article.
//
// Images appear in arrival order. A frame whose id is already displayed
// replaces that image in place and the old resource is released. Frames
// with the sentinel id are never treated as duplicates of each other.
// A Gallery is safe for concurrent use.
type Gallery struct {
	next Sink
	log  logrus.FieldLogger

	mu    sync.RWMutex
	items []*galleryHandle
}

// NewGallery creates a gallery whose resources are created by next.
func NewGallery(next Sink, logger logrus.FieldLogger) *Gallery {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Gallery{next: next, log: logger.WithField("component", "gallery")}
}

// Put creates the resource for frame and shows it.
func (g *Gallery) Put(ctx context.Context, frame codec.Frame) (Handle, error) {
	h, err := g.next.Put(ctx, frame)
	if err != nil {
		return nil, err
	}
	gh := &galleryHandle{g: g, inner: h}

	g.mu.Lock()
	var superseded Handle
	if frame.ID != codec.SentinelID {
		for i, it := range g.items {
			if it.inner.ID() == frame.ID {
				superseded = it.inner
				g.items[i] = gh
				break
			}
		}
	}
	if superseded == nil {
		g.items = append(g.items, gh)
	}
	g.mu.Unlock()

	if superseded != nil {
		g.log.WithField("id", frame.ID).Debug("image superseded")
		if err := superseded.Release(); err != nil {
			g.log.WithError(err).WithField("id", frame.ID).Warn("releasing superseded image")
		}
	}
	return gh, nil
}

// Items returns the images on display in order.
func (g *Gallery) Items() []Item {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Item, len(g.items))
	for i, it := range g.items {
		out[i] = Item{ID: it.inner.ID(), Handle: it, Resource: it.inner}
	}
	return out
}

// Len returns the number of images on display.
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.items)
}

// Reset releases every image, e.g. when the viewer moves to another article.
func (g *Gallery) Reset() error {
	g.mu.Lock()
	items := g.items
	g.items = nil
	g.mu.Unlock()

	var errs []error
	for _, it := range items {
		if err := it.inner.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// galleryHandle removes the image from the gallery when released.
type galleryHandle struct {
	g     *Gallery
	inner Handle
}

func (h *galleryHandle) ID() int { return h.inner.ID() }

func (h *galleryHandle) Release() error {
	h.g.mu.Lock()
	for i, it := range h.g.items {
		if it == h {
			h.g.items = append(h.g.items[:i], h.g.items[i+1:]...)
			break
		}
	}
	h.g.mu.Unlock()
	return h.inner.Release()
}
