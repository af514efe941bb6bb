package sink

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yhonda-ohishi/articlefeed/imagestream/codec"
)

// Journal record fields.
const (
	journalFieldID      protowire.Number = 1
	journalFieldPayload protowire.Number = 2
	journalFieldMime    protowire.Number = 3
)

// maxJournalRecord bounds a single record when reading.
const maxJournalRecord = 64 << 20

// ErrCorruptJournal is returned when a journal record cannot be parsed.
var ErrCorruptJournal = errors.New("sink: corrupt journal")

// Record is one frame stored in a journal.
type Record struct {
	ID       int
	MimeType string
	Payload  []byte
}

// Frame rebuilds the frame the record was written from.
func (r Record) Frame() codec.Frame {
	headers := codec.Headers{codec.HeaderContentID: strconv.Itoa(r.ID)}
	if r.MimeType != "" {
		headers[HeaderContentType] = r.MimeType
	}
	return codec.Frame{ID: r.ID, Payload: r.Payload, Headers: headers}
}

// Journal appends every frame to a length-delimited protobuf record log.
// Journal entries are permanent, so their handles release nothing.
type Journal struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	count  int
}

// NewJournal writes records to w.
func NewJournal(w io.Writer) *Journal {
	j := &Journal{w: w}
	if c, ok := w.(io.Closer); ok {
		j.closer = c
	}
	return j
}

// OpenJournal opens path for appending, creating it if needed.
func OpenJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return NewJournal(f), nil
}

// Put appends the frame as one record.
func (j *Journal) Put(ctx context.Context, frame codec.Frame) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := marshalRecord(Record{ID: frame.ID, MimeType: ContentType(frame), Payload: frame.Payload})
	out := protowire.AppendVarint(make([]byte, 0, len(rec)+binary.MaxVarintLen64), uint64(len(rec)))
	out = append(out, rec...)

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(out); err != nil {
		return nil, fmt.Errorf("append journal: %w", err)
	}
	j.count++
	return noopHandle(frame.ID), nil
}

// Count returns the number of records written by this Journal.
func (j *Journal) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// Close closes the underlying writer if it is an io.Closer.
func (j *Journal) Close() error {
	if j.closer == nil {
		return nil
	}
	return j.closer.Close()
}

func marshalRecord(r Record) []byte {
	var b []byte
	b = protowire.AppendTag(b, journalFieldID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(r.ID)))
	b = protowire.AppendTag(b, journalFieldPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Payload)
	if r.MimeType != "" {
		b = protowire.AppendTag(b, journalFieldMime, protowire.BytesType)
		b = protowire.AppendString(b, r.MimeType)
	}
	return b
}

func unmarshalRecord(b []byte) (Record, error) {
	var r Record
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, fmt.Errorf("%w: %v", ErrCorruptJournal, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == journalFieldID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return r, fmt.Errorf("%w: id: %v", ErrCorruptJournal, protowire.ParseError(n))
			}
			r.ID = int(int64(v))
			b = b[n:]
		case num == journalFieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return r, fmt.Errorf("%w: payload: %v", ErrCorruptJournal, protowire.ParseError(n))
			}
			r.Payload = append([]byte{}, v...)
			b = b[n:]
		case num == journalFieldMime && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return r, fmt.Errorf("%w: mime: %v", ErrCorruptJournal, protowire.ParseError(n))
			}
			r.MimeType = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return r, fmt.Errorf("%w: field %d: %v", ErrCorruptJournal, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return r, nil
}

// ReadJournal replays every record in r, calling fn for each in order.
// A record cut short at the end of r is reported as ErrCorruptJournal.
func ReadJournal(r io.Reader, fn func(Record) error) error {
	br := bufio.NewReader(r)
	for i := 0; ; i++ {
		size, err := binary.ReadUvarint(br)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: record %d length: %v", ErrCorruptJournal, i, err)
		}
		if size > maxJournalRecord {
			return fmt.Errorf("%w: record %d too large (%d bytes)", ErrCorruptJournal, i, size)
		}
		buf := make([]byte, size)
		if _, err := io.ReadFull(br, buf); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrCorruptJournal, i, err)
		}
		rec, err := unmarshalRecord(buf)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// ReadJournalFile replays the journal stored at path.
func ReadJournalFile(path string, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	return ReadJournal(f, fn)
}
