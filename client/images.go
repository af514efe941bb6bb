package client

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
	"github.com/yhonda-ohishi/articlefeed/imagestream/sink"
	"github.com/yhonda-ohishi/articlefeed/imagestream/transport"
)

// OpenArticleImages requests an article's images and returns a decoder over
// the response stream. A maxAmount above zero asks the server for at most
// that many images and caps the decoder at the same number.
//
// The decoder owns the response body: it is closed when decoding ends or
// the decoder is closed.
func (c *Client) OpenArticleImages(ctx context.Context, articleID, maxAmount int) (*codec.Decoder, error) {
	q := url.Values{"article_id": {strconv.Itoa(articleID)}}
	if maxAmount > 0 {
		q.Set("max_amount", strconv.Itoa(maxAmount))
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/feed/article_images", q, nil, true)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	boundary := c.boundaryFor(resp.Header.Get("Content-Type"))
	log := c.log.WithFields(logrus.Fields{"article_id": articleID, "max_amount": maxAmount})
	log.WithField("boundary", boundary).Debug("image stream opened")

	dec, err := codec.NewDecoder(transport.NewReaderSource(resp.Body, c.cfg.ChunkSize), codec.Options{
		Boundary:  []byte(boundary),
		MaxFrames: maxAmount,
		Logger:    log,
	})
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	return dec, nil
}

// boundaryFor returns the marker announced by a multipart Content-Type,
// or the configured one.
func (c *Client) boundaryFor(contentType string) string {
	if contentType == "" {
		return c.cfg.Boundary
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["boundary"] == "" {
		return c.cfg.Boundary
	}
	return "--" + params["boundary"]
}

// FetchArticleImages streams an article's images into s and returns the
// handles in arrival order. On error the handles already created are
// returned too and must still be released.
func (c *Client) FetchArticleImages(ctx context.Context, articleID, maxAmount int, s sink.Sink) ([]sink.Handle, error) {
	dec, err := c.OpenArticleImages(ctx, articleID, maxAmount)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	handles, err := sink.Drain(ctx, dec, s)
	stats := dec.Stats()
	c.log.WithFields(logrus.Fields{
		"article_id":      articleID,
		"frames":          stats.Frames,
		"bytes":           stats.PayloadBytes,
		"chunks":          stats.Chunks,
		"missing_ids":     stats.MissingFrameIDs,
		"malformed_lines": stats.MalformedHeaderLines,
	}).Debug("image stream finished")
	return handles, err
}

type addImagesRequest struct {
	ArticleID int      `json:"article_id"`
	Images    []string `json:"images"`
}

// UploadImages attaches images to an article. Each image is an encoded
// string as produced by the upload form, typically a data URL.
func (c *Client) UploadImages(ctx context.Context, articleID int, images []string) error {
	if len(images) == 0 {
		return nil
	}
	return c.doJSON(ctx, http.MethodPut, "/feed/add_images", nil, addImagesRequest{ArticleID: articleID, Images: images}, nil, true)
}

type removeImagesRequest struct {
	ImageIDs []int `json:"image_ids"`
}

// RemoveImages deletes images by id.
func (c *Client) RemoveImages(ctx context.Context, imageIDs []int) error {
	if len(imageIDs) == 0 {
		return nil
	}
	return c.doJSON(ctx, http.MethodDelete, "/feed/remove_images", nil, removeImagesRequest{ImageIDs: imageIDs}, nil, true)
}
