package network

import (
	"strings"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

// FrameReader splits a byte stream into CRLF-terminated frames, carrying a
// partial trailing frame over to the next chunk. It is not safe for
// concurrent use; only the receive goroutine feeds it.
type FrameReader struct {
	partial string
}

// NewFrameReader creates an empty frame reader
func NewFrameReader() *FrameReader {
	return &FrameReader{}
}

// Feed appends a chunk and returns the complete frames it finished, in
// arrival order, without terminators. Empty frames are dropped.
func (r *FrameReader) Feed(chunk string) []string {
	chunk = strings.TrimSuffix(chunk, "\x00")
	data := r.partial + chunk
	r.partial = ""

	parts := strings.Split(data, protocol.FSD_PACKET_DELIMITER)
	last := len(parts) - 1
	if parts[last] != "" {
		r.partial = parts[last]
	}

	frames := make([]string, 0, last)
	for _, p := range parts[:last] {
		if p != "" {
			frames = append(frames, p)
		}
	}
	return frames
}

// Pending returns the buffered partial frame
func (r *FrameReader) Pending() string {
	return r.partial
}

// Reset discards any buffered partial frame
func (r *FrameReader) Reset() {
	r.partial = ""
}
