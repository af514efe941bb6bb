package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
	"github.com/yhonda-ohishi/articlefeed/imagestream/sink"
)

// streamHandler writes the stream in small flushed pieces.
func streamHandler(t *testing.T, contentType, stream string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feed/article_images", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("article_id"))
		w.Header().Set("Content-Type", contentType)
		flusher := w.(http.Flusher)
		for i := 0; i < len(stream); i += 5 {
			end := i + 5
			if end > len(stream) {
				end = len(stream)
			}
			w.Write([]byte(stream[i:end]))
			flusher.Flush()
		}
	}
}

const imageStream = "--frame\r\nContent-ID: 5\r\n\r\nabc\r\n--frame\r\nContent-ID: 6\r\n\r\nwxyz\r\n--frame"

func TestOpenArticleImages(t *testing.T) {
	c := newTestClient(t, "opaque", streamHandler(t, "multipart/x-mixed-replace; boundary=frame", imageStream))

	dec, err := c.OpenArticleImages(context.Background(), 42, 0)
	require.NoError(t, err)

	var ids []int
	var payloads []string
	for f, err := range dec.Frames(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, f.ID)
		payloads = append(payloads, string(f.Payload))
	}
	assert.Equal(t, []int{5, 6}, ids)
	assert.Equal(t, []string{"abc", "wxyz"}, payloads)
}

func TestOpenArticleImagesAnnouncedBoundary(t *testing.T) {
	stream := "--img\r\nContent-ID: 1\r\n\r\nx\r\n--img"
	c := newTestClient(t, "opaque", streamHandler(t, "multipart/mixed; boundary=img", stream))

	dec, err := c.OpenArticleImages(context.Background(), 42, 0)
	require.NoError(t, err)
	f, err := dec.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.ID)
}

func TestBoundaryFor(t *testing.T) {
	c, err := New(Config{BaseURL: "http://localhost"})
	require.NoError(t, err)

	assert.Equal(t, "--frame", c.boundaryFor(""))
	assert.Equal(t, "--frame", c.boundaryFor("application/octet-stream"))
	assert.Equal(t, "--abc", c.boundaryFor(`multipart/x-mixed-replace; boundary="abc"`))
	assert.Equal(t, "--frame", c.boundaryFor("multipart/mixed; boundary"))
}

func TestFetchArticleImagesMaxAmount(t *testing.T) {
	c := newTestClient(t, "opaque", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("max_amount"))
		// The server ignores the limit; the client still stops after one image.
		streamHandler(t, "application/octet-stream", imageStream)(w, r)
	}))

	g := sink.NewGallery(sink.NewMemorySink(), nil)
	handles, err := c.FetchArticleImages(context.Background(), 42, 1, g)
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.Equal(t, 5, handles[0].ID())
	assert.Equal(t, 1, g.Len())
	require.NoError(t, g.Reset())
}

func TestFetchArticleImagesTruncated(t *testing.T) {
	c := newTestClient(t, "opaque", streamHandler(t, "application/octet-stream", imageStream[:50]))

	mem := sink.NewMemorySink()
	handles, err := c.FetchArticleImages(context.Background(), 42, 0, mem)
	assert.ErrorIs(t, err, codec.ErrTruncated)
	assert.Len(t, handles, 1)
	require.NoError(t, sink.ReleaseAll(handles))
}

func TestFetchArticleImagesCancel(t *testing.T) {
	c := newTestClient(t, "opaque", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(imageStream[:40]))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	handles, err := c.FetchArticleImages(ctx, 42, 0, sink.NewMemorySink())
	assert.Len(t, handles, 1)
	assert.ErrorIs(t, err, codec.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUploadAndRemoveImages(t *testing.T) {
	var uploaded, removed map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/add_images", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&uploaded))
	})
	mux.HandleFunc("/feed/remove_images", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&removed))
	})
	c := newTestClient(t, "opaque", mux)
	ctx := context.Background()

	require.NoError(t, c.UploadImages(ctx, 42, []string{"data:image/png;base64,AAAA"}))
	assert.Equal(t, map[string]interface{}{
		"article_id": float64(42),
		"images":     []interface{}{"data:image/png;base64,AAAA"},
	}, uploaded)

	require.NoError(t, c.RemoveImages(ctx, []int{3, 4}))
	assert.Equal(t, map[string]interface{}{"image_ids": []interface{}{float64(3), float64(4)}}, removed)

	require.NoError(t, c.RemoveImages(ctx, nil), "nothing to remove")
}
