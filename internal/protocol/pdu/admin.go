package pdu

import (
	"fmt"
	"strings"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

// AuthChallenge ($ZC) carries a challenge in either direction
type AuthChallenge struct {
	Base
	Challenge string
}

func (p *AuthChallenge) Serialize() string {
	return newBuilder("$ZC").add(p.From).add(p.To).add(p.Challenge).String()
}

// ParseAuthChallenge decodes a $ZC frame
func ParseAuthChallenge(fields []string) (*AuthChallenge, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &AuthChallenge{Base: Base{From: fields[0], To: fields[1]}, Challenge: fields[2]}, nil
}

// AuthResponse ($ZR) answers an AuthChallenge
type AuthResponse struct {
	Base
	Response string
}

func (p *AuthResponse) Serialize() string {
	return newBuilder("$ZR").add(p.From).add(p.To).add(p.Response).String()
}

// ParseAuthResponse decodes a $ZR frame
func ParseAuthResponse(fields []string) (*AuthResponse, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &AuthResponse{Base: Base{From: fields[0], To: fields[1]}, Response: fields[2]}, nil
}

// KillRequest ($!!) removes a station from the network
type KillRequest struct {
	Base
	Reason string
}

func (p *KillRequest) Serialize() string {
	return newBuilder("$!!").add(p.From).add(p.To).add(p.Reason).String()
}

// ParseKillRequest decodes a $!! frame; the reason is optional
func ParseKillRequest(fields []string) (*KillRequest, error) {
	if len(fields) < 2 {
		return nil, fieldCountError(fields)
	}
	p := &KillRequest{Base: Base{From: fields[0], To: fields[1]}}
	if len(fields) > 2 {
		p.Reason = strings.Join(fields[2:], protocol.FSD_DELIMITER)
	}
	return p, nil
}

// ProtocolError ($ER) reports a server-side error. Fatal is derived from the
// error code.
type ProtocolError struct {
	Base
	ErrorType protocol.NetworkError
	Param     string
	Message   string
	Fatal     bool
}

func (p *ProtocolError) Serialize() string {
	return newBuilder("$ER").
		add(p.From).
		add(p.To).
		add(fmt.Sprintf("%03d", int(p.ErrorType))).
		add(p.Param).
		add(p.Message).
		String()
}

// ParseProtocolError decodes a $ER frame
func ParseProtocolError(fields []string) (*ProtocolError, error) {
	if len(fields) < 5 {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	code := protocol.NetworkError(fp.integer(2))
	if err := fp.done(); err != nil {
		return nil, err
	}
	return &ProtocolError{
		Base:      Base{From: fields[0], To: fields[1]},
		ErrorType: code,
		Param:     fields[3],
		Message:   strings.Join(fields[4:], protocol.FSD_DELIMITER),
		Fatal:     code.IsFatal(),
	}, nil
}

// Ping ($PI) asks the peer to echo a timestamp
type Ping struct {
	Base
	TimeStamp string
}

func (p *Ping) Serialize() string {
	return newBuilder("$PI").add(p.From).add(p.To).add(p.TimeStamp).String()
}

// ParsePing decodes a $PI frame
func ParsePing(fields []string) (*Ping, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &Ping{Base: Base{From: fields[0], To: fields[1]}, TimeStamp: fields[2]}, nil
}

// Pong ($PO) echoes a Ping timestamp
type Pong struct {
	Base
	TimeStamp string
}

func (p *Pong) Serialize() string {
	return newBuilder("$PO").add(p.From).add(p.To).add(p.TimeStamp).String()
}

// ParsePong decodes a $PO frame
func ParsePong(fields []string) (*Pong, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &Pong{Base: Base{From: fields[0], To: fields[1]}, TimeStamp: fields[2]}, nil
}

// SendFastPositions ($SF) toggles fast position updates for a pilot
type SendFastPositions struct {
	Base
	Send bool
}

func (p *SendFastPositions) Serialize() string {
	return newBuilder("$SF").add(p.From).add(p.To).addFlag(p.Send).String()
}

// ParseSendFastPositions decodes a $SF frame
func ParseSendFastPositions(fields []string) (*SendFastPositions, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &SendFastPositions{Base: Base{From: fields[0], To: fields[1]}, Send: fields[2] == "1"}, nil
}

// Mute (#MU) mutes or unmutes a station
type Mute struct {
	Base
	Mute bool
}

func (p *Mute) Serialize() string {
	return newBuilder("#MU").add(p.From).add(p.To).addFlag(p.Mute).String()
}

// ParseMute decodes a #MU frame
func ParseMute(fields []string) (*Mute, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &Mute{Base: Base{From: fields[0], To: fields[1]}, Mute: fields[2] == "1"}, nil
}

// ChangeServer ($XX) tells the client to reconnect elsewhere
type ChangeServer struct {
	Base
	NewServer string
}

func (p *ChangeServer) Serialize() string {
	return newBuilder("$XX").add(p.From).add(p.To).add(p.NewServer).String()
}

// ParseChangeServer decodes a $XX frame
func ParseChangeServer(fields []string) (*ChangeServer, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &ChangeServer{Base: Base{From: fields[0], To: fields[1]}, NewServer: fields[2]}, nil
}

// ClientQuery ($CQ) asks a station for information
type ClientQuery struct {
	Base
	QueryType protocol.ClientQueryType
	RawType   string // wire token when QueryType is QueryUnknown
	Payload   []string
}

func (p *ClientQuery) Serialize() string {
	return serializeQuery("$CQ", p.Base, p.QueryType, p.RawType, p.Payload)
}

// ParseClientQuery decodes a $CQ frame
func ParseClientQuery(fields []string) (*ClientQuery, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	q := protocol.ParseClientQueryType(fields[2])
	return &ClientQuery{
		Base:      Base{From: fields[0], To: fields[1]},
		QueryType: q,
		RawType:   rawQueryType(q, fields[2]),
		Payload:   queryPayload(fields),
	}, nil
}

// ClientQueryResponse ($CR) answers a ClientQuery
type ClientQueryResponse struct {
	Base
	QueryType protocol.ClientQueryType
	RawType   string // wire token when QueryType is QueryUnknown
	Payload   []string
}

func (p *ClientQueryResponse) Serialize() string {
	return serializeQuery("$CR", p.Base, p.QueryType, p.RawType, p.Payload)
}

// ParseClientQueryResponse decodes a $CR frame
func ParseClientQueryResponse(fields []string) (*ClientQueryResponse, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	q := protocol.ParseClientQueryType(fields[2])
	return &ClientQueryResponse{
		Base:      Base{From: fields[0], To: fields[1]},
		QueryType: q,
		RawType:   rawQueryType(q, fields[2]),
		Payload:   queryPayload(fields),
	}, nil
}

func serializeQuery(tag string, base Base, q protocol.ClientQueryType, raw string, payload []string) string {
	token := q.Token()
	if token == "" {
		token = raw
	}
	b := newBuilder(tag).add(base.From).add(base.To).add(token)
	for _, item := range payload {
		b.add(item)
	}
	return b.String()
}

func rawQueryType(q protocol.ClientQueryType, token string) string {
	if q == protocol.QueryUnknown {
		return token
	}
	return ""
}

func queryPayload(fields []string) []string {
	payload := make([]string, 0, len(fields)-3)
	return append(payload, fields[3:]...)
}
