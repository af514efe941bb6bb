package sink

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestJournalReplay(t *testing.T) {
	var buf bytes.Buffer
	j := NewJournal(&buf)
	ctx := context.Background()

	_, err := j.Put(ctx, frame(5, jpegBytes))
	require.NoError(t, err)
	_, err = j.Put(ctx, frame(-2, []byte{}))
	require.NoError(t, err)
	assert.Equal(t, 2, j.Count())

	var got []Record
	require.NoError(t, ReadJournal(&buf, func(r Record) error {
		got = append(got, r)
		return nil
	}))
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].ID)
	assert.Equal(t, "image/jpeg", got[0].MimeType)
	assert.Equal(t, jpegBytes, got[0].Payload)
	assert.Equal(t, -2, got[1].ID)
	assert.Empty(t, got[1].Payload)
}

func TestJournalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.journal")

	for _, id := range []int{1, 2} {
		j, err := OpenJournal(path)
		require.NoError(t, err)
		_, err = j.Put(context.Background(), frame(id, pngBytes))
		require.NoError(t, err)
		require.NoError(t, j.Close())
	}

	var ids []int
	require.NoError(t, ReadJournalFile(path, func(r Record) error {
		ids = append(ids, r.ID)
		return nil
	}))
	assert.Equal(t, []int{1, 2}, ids, "reopening appends")
}

func TestReadJournalSkipsUnknownFields(t *testing.T) {
	var rec []byte
	rec = protowire.AppendTag(rec, 9, protowire.BytesType)
	rec = protowire.AppendString(rec, "future")
	rec = protowire.AppendTag(rec, journalFieldID, protowire.VarintType)
	rec = protowire.AppendVarint(rec, 4)

	stream := protowire.AppendVarint(nil, uint64(len(rec)))
	stream = append(stream, rec...)

	var got []Record
	require.NoError(t, ReadJournal(bytes.NewReader(stream), func(r Record) error {
		got = append(got, r)
		return nil
	}))
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].ID)
}

func TestReadJournalTruncated(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewJournal(&buf).Put(context.Background(), frame(1, jpegBytes))
	require.NoError(t, err)

	cut := buf.Bytes()[:buf.Len()-3]
	err = ReadJournal(bytes.NewReader(cut), func(Record) error { return nil })
	assert.ErrorIs(t, err, ErrCorruptJournal)
}

func TestRecordFrame(t *testing.T) {
	f := Record{ID: 7, MimeType: "image/png", Payload: pngBytes}.Frame()
	assert.Equal(t, 7, f.ID)
	assert.Equal(t, pngBytes, f.Payload)
	assert.Equal(t, "7", f.Headers.Get("Content-ID"))
	assert.Equal(t, "image/png", ContentType(f))

	assert.NotContains(t, Record{ID: 1}.Frame().Headers, HeaderContentType)
}
