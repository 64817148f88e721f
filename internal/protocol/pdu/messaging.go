package pdu

import (
	"strconv"
	"strings"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

// messageTail rejoins the free-text fields; message text may itself
// contain the delimiter
func messageTail(fields []string) string {
	return strings.Join(fields[2:], protocol.FSD_DELIMITER)
}

func serializeText(from, to, message string) string {
	return newBuilder("#TM").add(from).add(to).add(message).String()
}

// TextMessage is a private message between two stations
type TextMessage struct {
	Base
	Message string
}

func (p *TextMessage) Serialize() string { return serializeText(p.From, p.To, p.Message) }

// ParseTextMessage decodes a private #TM frame
func ParseTextMessage(fields []string) (*TextMessage, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &TextMessage{Base: Base{From: fields[0], To: fields[1]}, Message: messageTail(fields)}, nil
}

// RadioMessage is a message transmitted on one or more frequencies
type RadioMessage struct {
	Base
	Frequencies []int
	Message     string
}

func (p *RadioMessage) Serialize() string {
	freqs := make([]string, len(p.Frequencies))
	for i, f := range p.Frequencies {
		freqs[i] = "@" + strconv.Itoa(f)
	}
	return serializeText(p.From, strings.Join(freqs, "&"), p.Message)
}

// ParseRadioMessage decodes a #TM frame addressed to @freq[&@freq...]
func ParseRadioMessage(fields []string) (*RadioMessage, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	freqs, err := parseFrequencyList(fields[1], "&", "@")
	if err != nil {
		return nil, parseError(fields, err)
	}
	return &RadioMessage{Base: Base{From: fields[0]}, Frequencies: freqs, Message: messageTail(fields)}, nil
}

// BroadcastMessage is addressed to every station
type BroadcastMessage struct {
	Base
	Message string
}

func (p *BroadcastMessage) Serialize() string {
	return serializeText(p.From, protocol.BROADCAST_RECIPIENT, p.Message)
}

// ParseBroadcastMessage decodes a #TM frame addressed to *
func ParseBroadcastMessage(fields []string) (*BroadcastMessage, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &BroadcastMessage{
		Base:    Base{From: fields[0], To: protocol.BROADCAST_RECIPIENT},
		Message: messageTail(fields),
	}, nil
}

// Wallop is addressed to on-line supervisors
type Wallop struct {
	Base
	Message string
}

func (p *Wallop) Serialize() string {
	return serializeText(p.From, protocol.WALLOP_RECIPIENT, p.Message)
}

// ParseWallop decodes a #TM frame addressed to *S
func ParseWallop(fields []string) (*Wallop, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &Wallop{
		Base:    Base{From: fields[0], To: protocol.WALLOP_RECIPIENT},
		Message: messageTail(fields),
	}, nil
}

// ATCMessage is addressed to the controller-only channel
type ATCMessage struct {
	Base
	Message string
}

func (p *ATCMessage) Serialize() string {
	return serializeText(p.From, protocol.ATC_MESSAGE_RECIPIENT, p.Message)
}

// ParseATCMessage decodes a #TM frame addressed to @49999
func ParseATCMessage(fields []string) (*ATCMessage, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &ATCMessage{
		Base:    Base{From: fields[0], To: protocol.ATC_MESSAGE_RECIPIENT},
		Message: messageTail(fields),
	}, nil
}
