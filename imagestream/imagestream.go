// Package imagestream decodes boundary-delimited image streams.
//
// An image stream is a sequence of frames, each introduced by a boundary
// line, followed by "key: value" header lines, a blank line and the raw
// image bytes:
//
//	--frame\r\n
//	Content-ID: 5\r\n
//	\r\n
//	<jpeg bytes>\r\n
//	--frame\r\n
//	...
//	--frame
//
// Frames are emitted as soon as they are complete, whatever the chunking of
// the underlying transport.
//
// # Quick Start
//
//	dec, err := imagestream.DecodeReader(resp.Body, imagestream.Options{})
//	if err != nil {
//	    return err
//	}
//	defer dec.Close()
//
//	for frame, err := range dec.Frames(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    show(frame.ID, frame.Payload)
//	}
//
// # Subpackages
//
//   - codec: buffer, header parser, frame scanner and pull decoder
//   - transport: chunk sources over io.Reader, WebSocket and WebRTC DataChannel
//   - sink: where decoded images go (memory, gallery, files, journal, NATS, Redis)
//
// For most use cases, use the re-exported types from this package.
package imagestream

import (
	"io"

	"github.com/pion/webrtc/v4"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
	"github.com/yhonda-ohishi/articlefeed/imagestream/transport"
)

// Re-export codec types
type (
	// Frame is one decoded image
	Frame = codec.Frame
	// Headers holds a frame's header lines
	Headers = codec.Headers
	// Decoder pulls frames from a ChunkSource
	Decoder = codec.Decoder
	// Options configures a Decoder
	Options = codec.Options
	// Stats counts what a Decoder has seen
	Stats = codec.Stats
	// ChunkSource yields raw stream bytes
	ChunkSource = codec.ChunkSource
	// DecodeError is the terminal error of a decode
	DecodeError = codec.DecodeError
)

// Re-export codec constants
const (
	DefaultBoundary = codec.DefaultBoundary
	SentinelID      = codec.SentinelID
)

// Re-export codec errors
var (
	ErrTransport           = codec.ErrTransport
	ErrTruncated           = codec.ErrTruncated
	ErrMalformedHeaderLine = codec.ErrMalformedHeaderLine
	ErrMissingFrameID      = codec.ErrMissingFrameID
)

// Re-export codec functions
var (
	NewDecoder   = codec.NewDecoder
	Decode       = codec.Decode
	ParseHeaders = codec.ParseHeaders
)

// DecodeReader returns a decoder reading r in transport.DefaultChunkSize
// reads. An empty boundary selects DefaultBoundary. The decoder closes r
// if it is an io.Closer.
func DecodeReader(r io.Reader, opts Options) (*Decoder, error) {
	return NewDecoder(transport.NewReaderSource(r, 0), withDefaults(opts))
}

// DecodeDataChannel returns a decoder over the messages of dc. Call it
// before the channel opens so that no message is missed.
func DecodeDataChannel(dc *webrtc.DataChannel, opts Options) (*Decoder, error) {
	return NewDecoder(transport.NewDataChannelSource(dc, transport.DefaultQueueSize, opts.Logger), withDefaults(opts))
}

func withDefaults(opts Options) Options {
	if len(opts.Boundary) == 0 {
		opts.Boundary = []byte(DefaultBoundary)
	}
	return opts
}
