package imagestream_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhonda-ohishi/articlefeed/imagestream"
)

const twoImages = "--frame\r\nContent-ID: 5\r\n\r\nabc\r\n--frame\r\nContent-ID: 6\r\n\r\nwxyz\r\n--frame"

func TestDecodeReaderDefaults(t *testing.T) {
	dec, err := imagestream.DecodeReader(strings.NewReader(twoImages), imagestream.Options{})
	require.NoError(t, err)
	defer dec.Close()

	var ids []int
	for frame, err := range dec.Frames(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, frame.ID)
	}
	assert.Equal(t, []int{5, 6}, ids)
	assert.Equal(t, 2, dec.Stats().Frames)
}

func TestDecodeReaderCustomBoundary(t *testing.T) {
	stream := strings.ReplaceAll(twoImages, "--frame", "--img")
	dec, err := imagestream.DecodeReader(strings.NewReader(stream), imagestream.Options{Boundary: []byte("--img"), MaxFrames: 1})
	require.NoError(t, err)

	frame, err := dec.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), frame.Payload)
	assert.Equal(t, "5", frame.Headers.Get("Content-ID"))
}

func TestDecodeReaderTruncated(t *testing.T) {
	dec, err := imagestream.DecodeReader(strings.NewReader(twoImages[:45]), imagestream.Options{})
	require.NoError(t, err)

	var n int
	var last error
	for _, err := range dec.Frames(context.Background()) {
		if err != nil {
			last = err
			break
		}
		n++
	}
	assert.Equal(t, 1, n)
	assert.True(t, errors.Is(last, imagestream.ErrTruncated))

	var de *imagestream.DecodeError
	assert.True(t, errors.As(last, &de))
}

func TestDecodeDataChannelClose(t *testing.T) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	defer pc.Close()

	dc, err := pc.CreateDataChannel("images", nil)
	require.NoError(t, err)

	dec, err := imagestream.DecodeDataChannel(dc, imagestream.Options{})
	require.NoError(t, err)
	require.NoError(t, dec.Close())

	_, err = dec.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}
