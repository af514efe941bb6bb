package codec

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/sirupsen/logrus"
)

// DefaultBoundary is the boundary marker used by the article image endpoint.
const DefaultBoundary = "--frame"

// ChunkSource delivers the raw bytes of a stream in arrival order.
//
// Next blocks until a chunk is available and returns io.EOF once the stream
// has ended. A chunk may be returned together with io.EOF. Sources that also
// implement io.Closer are closed when decoding stops for any reason.
type ChunkSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// ChunkSourceFunc adapts a function to ChunkSource.
type ChunkSourceFunc func(ctx context.Context) ([]byte, error)

// Next calls f(ctx)
func (f ChunkSourceFunc) Next(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// Options configures a Decoder.
type Options struct {
	// Boundary is the marker separating frames, e.g. "--frame". Required.
	Boundary []byte
	// MaxFrames stops decoding after this many frames. Zero means no limit.
	MaxFrames int
	// InitialBufferSize preallocates the stream buffer.
	InitialBufferSize int
	// Logger receives debug output. Defaults to a discarding logger.
	Logger logrus.FieldLogger
}

// Stats describes the progress of one decode.
type Stats struct {
	Chunks               int
	Frames               int
	PayloadBytes         int64
	MalformedHeaderLines int
	MissingFrameIDs      int
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// Decoder pulls chunks from a ChunkSource and emits complete frames.
//
// A Decoder is single-use and not safe for concurrent use: one goroutine
// drives it from the first Next call until it reports io.EOF or an error.
type Decoder struct {
	src     ChunkSource
	buf     *StreamBuffer
	scanner *Scanner
	max     int
	log     logrus.FieldLogger

	pending []Frame
	emitted int
	stats   Stats

	eof      bool
	failure  error
	finished bool
	final    error
	closed   bool
}

// NewDecoder creates a decoder reading from src.
func NewDecoder(src ChunkSource, opts Options) (*Decoder, error) {
	if len(opts.Boundary) == 0 {
		return nil, ErrEmptyBoundary
	}
	if opts.MaxFrames < 0 {
		return nil, ErrNegativeMaxFrame
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}

	d := &Decoder{
		src: src,
		buf: NewStreamBuffer(opts.InitialBufferSize),
		max: opts.MaxFrames,
		log: logger.WithField("boundary", string(opts.Boundary)),
	}
	d.scanner = NewScanner(d.buf, opts.Boundary)
	d.scanner.OnAnomaly = d.onAnomaly
	return d, nil
}

// Next returns the next complete frame.
//
// It returns io.EOF when the stream closed cleanly or the frame cap was
// reached. Any other error is terminal and is returned again on later calls;
// frames returned before it remain valid.
func (d *Decoder) Next(ctx context.Context) (Frame, error) {
	for {
		if len(d.pending) > 0 {
			return d.emit(), nil
		}
		if d.finished {
			return Frame{}, d.final
		}
		if d.failure != nil {
			d.finish(d.failure)
			continue
		}
		if d.eof {
			d.finish(d.scanner.Finish())
			continue
		}
		if err := ctx.Err(); err != nil {
			d.finish(transportError(err))
			continue
		}

		chunk, err := d.src.Next(ctx)
		if len(chunk) > 0 {
			d.feed(chunk)
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			d.eof = true
		default:
			d.failure = transportError(err)
		}
	}
}

// Frames returns the decoded frames as a lazy, forward-only sequence.
//
// The sequence ends after the last frame on a clean close or when the cap is
// reached. A terminal error is yielded once as the final element. Stopping
// the iteration early closes the chunk source.
func (d *Decoder) Frames(ctx context.Context) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			frame, err := d.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Frame{}, err)
				return
			}
			if !yield(frame, nil) {
				d.Close()
				return
			}
		}
	}
}

// Close stops decoding and releases the chunk source. Frames still buffered
// are discarded. Close is safe to call more than once.
func (d *Decoder) Close() error {
	if !d.finished {
		d.pending = nil
		d.finished = true
		d.final = io.EOF
	}
	return d.closeSource()
}

// Stats returns counters for the decode so far.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Buffered returns the number of received bytes not yet consumed by a frame.
func (d *Decoder) Buffered() int {
	return d.buf.Len()
}

// State returns the scanner state.
func (d *Decoder) State() ScanState {
	return d.scanner.State()
}

// feed appends a chunk and drains every frame it completes.
func (d *Decoder) feed(chunk []byte) {
	d.stats.Chunks++
	d.buf.Append(chunk)
	for {
		if d.max > 0 && d.emitted+len(d.pending) >= d.max {
			return
		}
		frame, ok := d.scanner.Next()
		if !ok {
			return
		}
		d.pending = append(d.pending, frame)
	}
}

func (d *Decoder) emit() Frame {
	frame := d.pending[0]
	d.pending[0] = Frame{}
	d.pending = d.pending[1:]
	d.emitted++
	d.stats.Frames++
	d.stats.PayloadBytes += int64(len(frame.Payload))

	d.log.WithFields(logrus.Fields{
		"id":    frame.ID,
		"bytes": len(frame.Payload),
		"seq":   d.emitted,
	}).Debug("frame decoded")

	if d.max > 0 && d.emitted >= d.max {
		d.log.WithField("max_frames", d.max).Debug("frame cap reached")
		d.pending = nil
		d.finish(nil)
	}
	return frame
}

func (d *Decoder) finish(err error) {
	if d.finished {
		return
	}
	d.finished = true
	if err == nil {
		d.final = io.EOF
	} else {
		d.final = err
		d.log.WithError(err).WithField("frames", d.emitted).Debug("decode stopped")
	}
	if cerr := d.closeSource(); cerr != nil {
		d.log.WithError(cerr).Debug("closing chunk source")
	}
}

func (d *Decoder) closeSource() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if c, ok := d.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (d *Decoder) onAnomaly(err *DecodeError) {
	switch err.Kind {
	case KindMalformedHeaderLine:
		d.stats.MalformedHeaderLines++
	case KindMissingFrameID:
		d.stats.MissingFrameIDs++
	}
	d.log.WithField("kind", err.Kind.String()).Debug(err.Detail)
}

// Decode reads src to the end and returns every frame.
// On error the frames decoded before it are returned alongside.
func Decode(ctx context.Context, src ChunkSource, opts Options) ([]Frame, error) {
	d, err := NewDecoder(src, opts)
	if err != nil {
		return nil, err
	}
	var frames []Frame
	for {
		frame, err := d.Next(ctx)
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}
