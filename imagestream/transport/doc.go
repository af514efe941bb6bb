// Package transport provides codec.ChunkSource implementations for the
// carriers an image stream can arrive on.
//
// Each source hands the decoder chunks exactly as the carrier delivered
// them: one Read, one WebSocket message or one DataChannel message per
// chunk. Chunk boundaries carry no meaning, the decoder reassembles
// frames regardless of how the stream was cut.
//
// All sources implement io.Closer and are closed by the decoder when it
// stops, so a caller that hands a source to codec.NewDecoder does not need
// to close it separately.
package transport
