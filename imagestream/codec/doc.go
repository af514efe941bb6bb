// Package codec implements incremental decoding of boundary-delimited image streams.
//
// The article image endpoint answers with a single chunked HTTP response whose
// total size and frame count are unknown in advance:
//
//	--frame\r\n
//	Content-ID: 5\r\n
//	\r\n
//	<payload bytes>\r\n
//	--frame\r\n
//	...
//	--frame
//
// This package provides the pieces needed to reconstruct the payloads as they
// arrive, regardless of how the transport slices the byte stream:
//   - StreamBuffer: append-only byte accumulator with consume-on-progress semantics
//   - ParseHeaders / FrameID: header block parsing
//   - Scanner: the boundary/header/body framing state machine
//   - Decoder: pulls chunks from a ChunkSource and emits complete frames
//
// Example usage:
//
//	dec, err := codec.NewDecoder(src, codec.Options{Boundary: []byte("--frame")})
//	if err != nil {
//	    return err
//	}
//	for frame, err := range dec.Frames(ctx) {
//	    if err != nil {
//	        return err // frames seen so far remain valid
//	    }
//	    // hand frame.ID and frame.Payload to a sink
//	}
//
// All boundary and terminator searches are byte comparisons; only the isolated
// header block is ever converted to text. Payload bytes that happen to contain
// the boundary marker will be mis-framed: the wire format has no escaping.
package codec
