package codec

import (
	"strconv"
	"strings"
)

const (
	// HeaderContentID is the header carrying the frame identifier.
	HeaderContentID = "Content-ID"
	// SentinelID is the frame id used when Content-ID is absent or unparsable.
	SentinelID = 0
)

var (
	crlf       = []byte("\r\n")
	doubleCRLF = []byte("\r\n\r\n")
)

// Headers holds the parsed header lines of one frame. Keys are case-sensitive.
type Headers map[string]string

// Get returns the value for key, or "" when absent.
func (h Headers) Get(key string) string {
	return h[key]
}

// ParseHeaders parses a delimited header block in "key: value\r\n" format.
// It returns the headers and the number of lines skipped for lacking a colon.
// Later duplicates of a key replace earlier ones.
func ParseHeaders(block []byte) (Headers, int) {
	headers := make(Headers)
	malformed := 0

	// Split by CRLF
	lines := strings.Split(string(block), "\r\n")

	for _, line := range lines {
		// Skip empty lines
		if strings.TrimSpace(line) == "" {
			continue
		}

		colonIndex := strings.IndexByte(line, ':')
		if colonIndex == -1 {
			malformed++
			continue
		}

		key := strings.TrimSpace(line[:colonIndex])
		value := strings.TrimSpace(line[colonIndex+1:])
		headers[key] = value
	}

	return headers, malformed
}

// FrameID extracts the Content-ID value as a base-10 integer.
// ok is false when the header is absent or not a valid integer, in which case
// id is SentinelID.
func FrameID(h Headers) (id int, ok bool) {
	raw, present := h[HeaderContentID]
	if !present {
		return SentinelID, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return SentinelID, false
	}
	return n, true
}
