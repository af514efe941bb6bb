package codec

import (
	"bytes"
	"fmt"
)

// ScanState is the position of the Scanner within the framing grammar.
type ScanState int

const (
	// AwaitingBoundary searches for the next boundary marker.
	AwaitingBoundary ScanState = iota
	// AwaitingHeaderTerminator has a boundary and waits for the end of the header block.
	AwaitingHeaderTerminator
	// AwaitingBodyTerminator has a header block and waits for the boundary closing the body.
	AwaitingBodyTerminator
)

// String returns the state name
func (s ScanState) String() string {
	switch s {
	case AwaitingBoundary:
		return "AwaitingBoundary"
	case AwaitingHeaderTerminator:
		return "AwaitingHeaderTerminator"
	case AwaitingBodyTerminator:
		return "AwaitingBodyTerminator"
	default:
		return fmt.Sprintf("ScanState(%d)", int(s))
	}
}

// Frame is one complete header block plus payload.
type Frame struct {
	ID      int
	Payload []byte
	Headers Headers
}

// Scanner extracts frames from a StreamBuffer.
//
// The scanner consumes the buffer only when a frame is complete (and drops
// any preamble before the first boundary), so a suspended scan resumes at the
// same boundary once more bytes are appended.
type Scanner struct {
	buf      *StreamBuffer
	boundary []byte
	state    ScanState

	// searchFrom is where the pending search resumes. Everything before it
	// is already known not to start a match.
	searchFrom int
	bodyStart  int
	headers    Headers
	id         int

	// OnAnomaly, if set, is called for recovered per-frame anomalies
	// (KindMalformedHeaderLine, KindMissingFrameID).
	OnAnomaly func(*DecodeError)
}

// NewScanner creates a scanner over buf using the given boundary marker.
func NewScanner(buf *StreamBuffer, boundary []byte) *Scanner {
	b := make([]byte, len(boundary))
	copy(b, boundary)
	return &Scanner{
		buf:      buf,
		boundary: b,
		state:    AwaitingBoundary,
	}
}

// State returns the current scan state.
func (s *Scanner) State() ScanState {
	return s.state
}

// Next advances the state machine as far as the buffered bytes allow.
// It returns the next complete frame, or false when more data is needed.
func (s *Scanner) Next() (Frame, bool) {
	for {
		switch s.state {
		case AwaitingBoundary:
			i := s.buf.Find(s.boundary, s.searchFrom)
			if i < 0 {
				s.searchFrom = resumeAt(s.buf.Len(), len(s.boundary), 0)
				return Frame{}, false
			}
			// Drop the preamble so the boundary sits at index 0.
			s.buf.Consume(i)
			s.state = AwaitingHeaderTerminator
			s.searchFrom = len(s.boundary)

		case AwaitingHeaderTerminator:
			headerStart := len(s.boundary)
			j := s.buf.Find(doubleCRLF, s.searchFrom)
			if j < 0 {
				s.searchFrom = resumeAt(s.buf.Len(), len(doubleCRLF), headerStart)
				return Frame{}, false
			}
			s.readHeaders(s.buf.Bytes()[headerStart:j])
			s.bodyStart = j + len(doubleCRLF)
			s.state = AwaitingBodyTerminator
			s.searchFrom = s.bodyStart

		case AwaitingBodyTerminator:
			k := s.buf.Find(s.boundary, s.searchFrom)
			if k < 0 {
				s.searchFrom = resumeAt(s.buf.Len(), len(s.boundary), s.bodyStart)
				return Frame{}, false
			}
			// The CRLF before a boundary belongs to the framing.
			end := k - len(crlf)
			if end < s.bodyStart {
				end = s.bodyStart
			}
			frame := Frame{
				ID:      s.id,
				Payload: s.buf.Slice(s.bodyStart, end),
				Headers: s.headers,
			}
			s.buf.Consume(k)
			s.reset()
			return frame, true
		}
	}
}

// Finish reports whether the buffered remainder is a valid end of stream:
// nothing at all, or only the closing boundary optionally followed by "--"
// and/or CRLF. Any other remainder is an incomplete frame.
func (s *Scanner) Finish() error {
	rest := s.buf.Bytes()
	if len(rest) == 0 {
		return nil
	}
	if bytes.HasPrefix(rest, s.boundary) && isCloseTail(rest[len(s.boundary):]) {
		return nil
	}
	return truncatedError(s.state, len(rest))
}

func (s *Scanner) readHeaders(block []byte) {
	headers, malformed := ParseHeaders(block)
	if malformed > 0 {
		s.anomaly(KindMalformedHeaderLine, fmt.Sprintf("skipped %d header line(s) without ':'", malformed))
	}
	id, ok := FrameID(headers)
	if !ok {
		s.anomaly(KindMissingFrameID, fmt.Sprintf("no usable %s header, using %d", HeaderContentID, SentinelID))
	}
	s.headers = headers
	s.id = id
}

func (s *Scanner) anomaly(kind ErrorKind, detail string) {
	if s.OnAnomaly != nil {
		s.OnAnomaly(&DecodeError{Kind: kind, Detail: detail})
	}
}

func (s *Scanner) reset() {
	s.state = AwaitingBoundary
	s.searchFrom = 0
	s.bodyStart = 0
	s.headers = nil
	s.id = SentinelID
}

// resumeAt returns the first offset where a needle of length n could still
// start once more bytes arrive, but never before floor.
func resumeAt(length, n, floor int) int {
	at := length - n + 1
	if at < floor {
		return floor
	}
	return at
}

func isCloseTail(tail []byte) bool {
	tail = bytes.TrimPrefix(tail, []byte("--"))
	tail = bytes.TrimPrefix(tail, crlf)
	return len(tail) == 0
}
