package codec

import (
	"errors"
	"fmt"
)

// ErrorKind classifies decode failures.
type ErrorKind int

const (
	// KindTransport means the chunk source failed to deliver data.
	KindTransport ErrorKind = iota + 1
	// KindTruncated means the stream ended inside a frame.
	KindTruncated
	// KindMalformedHeaderLine marks a header line without a separator.
	// It is recovered by skipping the line and is never returned by the Decoder.
	KindMalformedHeaderLine
	// KindMissingFrameID marks a header block without Content-ID.
	// It is recovered with the sentinel id and is never returned by the Decoder.
	KindMissingFrameID
)

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrTransport           = errors.New("codec: transport error")
	ErrTruncated           = errors.New("codec: stream truncated")
	ErrMalformedHeaderLine = errors.New("codec: malformed header line")
	ErrMissingFrameID      = errors.New("codec: missing frame id")
)

// Configuration errors returned by NewDecoder.
var (
	ErrEmptyBoundary    = errors.New("codec: boundary marker must not be empty")
	ErrNegativeMaxFrame = errors.New("codec: max frames must not be negative")
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "TransportError"
	case KindTruncated:
		return "Truncated"
	case KindMalformedHeaderLine:
		return "MalformedHeaderLine"
	case KindMissingFrameID:
		return "MissingFrameId"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindTruncated:
		return ErrTruncated
	case KindMalformedHeaderLine:
		return ErrMalformedHeaderLine
	case KindMissingFrameID:
		return ErrMissingFrameID
	default:
		return nil
	}
}

// DecodeError describes a stream-level decode failure.
type DecodeError struct {
	Kind   ErrorKind
	Detail string
	Err    error // underlying cause, if any
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("codec: %s", e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the same kind.
func (e *DecodeError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func transportError(err error) *DecodeError {
	return &DecodeError{Kind: KindTransport, Detail: "chunk read failed", Err: err}
}

func truncatedError(state ScanState, pending int) *DecodeError {
	return &DecodeError{
		Kind:   KindTruncated,
		Detail: fmt.Sprintf("stream ended in state %s with %d unconsumed bytes", state, pending),
	}
}
