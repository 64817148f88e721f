package network

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Wire text is Windows-1252
var wireCharmap = charmap.Windows1252

// EncodeWire converts a frame to its wire bytes. Characters outside the
// code page are sent as '?'.
func EncodeWire(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := wireCharmap.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// DecodeWire converts wire bytes to text
func DecodeWire(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(wireCharmap.DecodeByte(c))
	}
	return sb.String()
}
