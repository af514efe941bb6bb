package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerTwoFrames(t *testing.T) {
	stream := buildStream(DefaultBoundary,
		withID(5, []byte{0xFF, 0xD8, 0xFF}),
		withID(6, []byte{0x89, 'P', 'N', 'G'}),
	)
	buf := NewStreamBuffer(0)
	buf.Append(stream)
	s := NewScanner(buf, []byte(DefaultBoundary))

	f, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, 5, f.ID)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, f.Payload)

	f, ok = s.Next()
	require.True(t, ok)
	assert.Equal(t, 6, f.ID)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, f.Payload)

	_, ok = s.Next()
	assert.False(t, ok)
	assert.Equal(t, DefaultBoundary, string(buf.Bytes()), "closing boundary stays buffered")
	assert.NoError(t, s.Finish())
}

func TestScannerSuspendKeepsBoundary(t *testing.T) {
	buf := NewStreamBuffer(0)
	s := NewScanner(buf, []byte("--frame"))

	buf.Append([]byte("--frame\r\nContent-ID: 1\r\n"))
	_, ok := s.Next()
	assert.False(t, ok)
	assert.Equal(t, AwaitingHeaderTerminator, s.State())
	assert.Equal(t, 24, buf.Len(), "nothing consumed while the header is incomplete")

	buf.Append([]byte("\r\nab"))
	_, ok = s.Next()
	assert.False(t, ok)
	assert.Equal(t, AwaitingBodyTerminator, s.State())
	assert.Equal(t, "--frame", string(buf.Bytes()[:7]))

	buf.Append([]byte("\r\n--fr"))
	_, ok = s.Next()
	assert.False(t, ok, "partial boundary does not close the body")

	buf.Append([]byte("ame"))
	f, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, 1, f.ID)
	assert.Equal(t, "ab", string(f.Payload))
	assert.Equal(t, AwaitingBoundary, s.State())
	assert.Equal(t, "--frame", string(buf.Bytes()))
}

func TestScannerPreambleAndMissingID(t *testing.T) {
	buf := NewStreamBuffer(0)
	buf.Append([]byte("junk--frame\r\n\r\nx\r\n--frame"))
	s := NewScanner(buf, []byte("--frame"))

	var anomalies []*DecodeError
	s.OnAnomaly = func(err *DecodeError) { anomalies = append(anomalies, err) }

	f, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, SentinelID, f.ID)
	assert.Equal(t, "x", string(f.Payload))

	require.Len(t, anomalies, 1)
	assert.Equal(t, KindMissingFrameID, anomalies[0].Kind)
	assert.True(t, errors.Is(anomalies[0], ErrMissingFrameID))
}

func TestScannerMalformedHeaderLine(t *testing.T) {
	buf := NewStreamBuffer(0)
	buf.Append([]byte("--frame\r\nnot a header\r\nContent-ID: 3\r\n\r\nabc\r\n--frame"))
	s := NewScanner(buf, []byte("--frame"))

	var kinds []ErrorKind
	s.OnAnomaly = func(err *DecodeError) { kinds = append(kinds, err.Kind) }

	f, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, 3, f.ID)
	assert.Equal(t, "abc", string(f.Payload))
	assert.Equal(t, []ErrorKind{KindMalformedHeaderLine}, kinds)
}

func TestScannerPayloadEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "empty", payload: []byte{}},
		{name: "embedded CRLF", payload: []byte("a\r\nb")},
		{name: "embedded header terminator", payload: []byte("\r\n\r\n")},
		{name: "binary", payload: []byte{0x00, 0xFF, 0x0D, 0x0A, 0x2D}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewStreamBuffer(0)
			buf.Append(buildStream("--frame", withID(2, tt.payload)))
			s := NewScanner(buf, []byte("--frame"))

			f, ok := s.Next()
			require.True(t, ok)
			assert.Equal(t, 2, f.ID)
			assert.Equal(t, tt.payload, f.Payload)
		})
	}
}

func TestScannerFinish(t *testing.T) {
	tests := []struct {
		name      string
		remainder string
		wantErr   bool
	}{
		{name: "empty", remainder: ""},
		{name: "closing boundary", remainder: "--frame"},
		{name: "closing boundary with CRLF", remainder: "--frame\r\n"},
		{name: "close delimiter", remainder: "--frame--"},
		{name: "close delimiter with CRLF", remainder: "--frame--\r\n"},
		{name: "mid header", remainder: "--frame\r\nContent-ID: 1", wantErr: true},
		{name: "mid body", remainder: "--frame\r\nContent-ID: 1\r\n\r\nab", wantErr: true},
		{name: "no boundary", remainder: "garbage", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewStreamBuffer(0)
			buf.Append([]byte(tt.remainder))
			s := NewScanner(buf, []byte("--frame"))
			_, ok := s.Next()
			require.False(t, ok)

			err := s.Finish()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrTruncated)
			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, KindTruncated, decErr.Kind)
		})
	}
}
