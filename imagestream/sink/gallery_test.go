package sink

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
)

func galleryIDs(g *Gallery) []int {
	var ids []int
	for _, it := range g.Items() {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestGalleryOrderAndSupersede(t *testing.T) {
	mem := NewMemorySink()
	g := NewGallery(mem, nil)
	ctx := context.Background()

	_, err := g.Put(ctx, frame(5, []byte("five")))
	require.NoError(t, err)
	_, err = g.Put(ctx, frame(6, []byte("six")))
	require.NoError(t, err)
	old := g.Items()[0].Resource.(*Blob)

	_, err = g.Put(ctx, frame(5, []byte("five again")))
	require.NoError(t, err)

	assert.Equal(t, []int{5, 6}, galleryIDs(g))
	assert.Nil(t, old.Bytes(), "superseded image is released")
	assert.Equal(t, "five again", string(g.Items()[0].Resource.(*Blob).Bytes()))

	live, _ := mem.Live()
	assert.Equal(t, 2, live)
}

func TestGallerySentinelIDsAccumulate(t *testing.T) {
	g := NewGallery(NewMemorySink(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := g.Put(ctx, frame(codec.SentinelID, []byte{byte(i)}))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, g.Len())
}

func TestGalleryReleaseAndReset(t *testing.T) {
	mem := NewMemorySink()
	g := NewGallery(mem, nil)
	ctx := context.Background()

	h1, err := g.Put(ctx, frame(1, []byte("a")))
	require.NoError(t, err)
	_, err = g.Put(ctx, frame(2, []byte("b")))
	require.NoError(t, err)

	require.NoError(t, h1.Release())
	assert.Equal(t, []int{2}, galleryIDs(g))

	require.NoError(t, g.Reset())
	assert.Zero(t, g.Len())
	live, _ := mem.Live()
	assert.Zero(t, live)
}

func TestGalleryConcurrentReaders(t *testing.T) {
	g := NewGallery(NewMemorySink(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = g.Items()
			}
		}()
	}
	for i := 1; i <= 100; i++ {
		_, err := g.Put(ctx, frame(i%10+1, []byte{byte(i)}))
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, 10, g.Len())
}

func TestGalleryItemHandleRemovesEntry(t *testing.T) {
	mem := NewMemorySink()
	g := NewGallery(mem, nil)
	ctx := context.Background()

	_, err := g.Put(ctx, frame(1, []byte("a")))
	require.NoError(t, err)
	_, err = g.Put(ctx, frame(2, []byte("b")))
	require.NoError(t, err)

	item := g.Items()[0]
	require.NoError(t, item.Handle.Release())

	assert.Equal(t, []int{2}, galleryIDs(g))
	assert.Nil(t, item.Resource.(*Blob).Bytes())
	live, _ := mem.Live()
	assert.Equal(t, 1, live)
}
