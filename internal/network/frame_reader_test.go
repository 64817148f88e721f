package network

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameReaderFeed(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []string
		want    []string
		pending string
	}{
		{
			name:   "single frame",
			chunks: []string{"$DISERVER:CLIENT:VATSIM FSD V3.43:abc\r\n"},
			want:   []string{"$DISERVER:CLIENT:VATSIM FSD V3.43:abc"},
		},
		{
			name:   "two frames one chunk",
			chunks: []string{"#TMA:B:hi\r\n#TMA:B:there\r\n"},
			want:   []string{"#TMA:B:hi", "#TMA:B:there"},
		},
		{
			name:    "partial carried over",
			chunks:  []string{"#TMA:B:h", "i\r\n#TMA:", "B:x\r\n#TM"},
			want:    []string{"#TMA:B:hi", "#TMA:B:x"},
			pending: "#TM",
		},
		{
			name:   "terminator split across chunks",
			chunks: []string{"#TMA:B:hi\r", "\n"},
			want:   []string{"#TMA:B:hi"},
		},
		{
			name:   "trailing nul stripped",
			chunks: []string{"#TMA:B:hi\r\n\x00"},
			want:   []string{"#TMA:B:hi"},
		},
		{
			name:   "empty frames dropped",
			chunks: []string{"\r\n\r\n#TMA:B:hi\r\n\r\n"},
			want:   []string{"#TMA:B:hi"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewFrameReader()
			var got []string
			for _, c := range tt.chunks {
				got = append(got, r.Feed(c)...)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.pending, r.Pending())
		})
	}
}

func TestFrameReaderArbitrarySplits(t *testing.T) {
	stream := "@N:DAL123:1200:1:42.0:-71.0:3500:250:0:0\r\n%BOS_TWR:18500:4:40:3:42.36000:-71.00000:0\r\n#TMA:B:a:b:c\r\n"
	want := []string{
		"@N:DAL123:1200:1:42.0:-71.0:3500:250:0:0",
		"%BOS_TWR:18500:4:40:3:42.36000:-71.00000:0",
		"#TMA:B:a:b:c",
	}
	for size := 1; size <= len(stream); size++ {
		r := NewFrameReader()
		var got []string
		for i := 0; i < len(stream); i += size {
			end := min(i+size, len(stream))
			got = append(got, r.Feed(stream[i:end])...)
		}
		assert.Equal(t, want, got, "chunk size %d", size)
		assert.Empty(t, r.Pending())
	}
}

func TestFrameReaderReset(t *testing.T) {
	r := NewFrameReader()
	assert.Empty(t, r.Feed("#TMA:B:half"))
	r.Reset()
	assert.Equal(t, []string{"#TMA:B:new"}, r.Feed("#TMA:B:new\r\n"))
}

func TestWireEncoding(t *testing.T) {
	assert.Equal(t, []byte{'c', 'a', 'f', 0xE9}, EncodeWire("café"))
	assert.Equal(t, []byte{0x80}, EncodeWire("€"))
	assert.Equal(t, []byte("plane ?"), EncodeWire("plane ✈"))

	assert.Equal(t, "café €", DecodeWire([]byte{'c', 'a', 'f', 0xE9, ' ', 0x80}))
	text := "KBOS ATIS INFO A 1254Z"
	assert.Equal(t, text, DecodeWire(EncodeWire(text)))
	assert.True(t, strings.HasSuffix(DecodeWire(EncodeWire("x\r\n")), "\r\n"))
}
