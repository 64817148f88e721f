package pdu

import (
	"fmt"
	"strings"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

func sb(base Base, sub ...string) *builder {
	b := newBuilder("#SB").add(base.From).add(base.To)
	for _, s := range sub {
		b.add(s)
	}
	return b
}

// PlaneInfoRequest (#SB PIR) asks a pilot client for its aircraft model
type PlaneInfoRequest struct {
	Base
}

func (p *PlaneInfoRequest) Serialize() string {
	return sb(p.Base, protocol.PLANE_INFO_REQUEST).String()
}

// ParsePlaneInfoRequest decodes a #SB PIR frame
func ParsePlaneInfoRequest(fields []string) (*PlaneInfoRequest, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &PlaneInfoRequest{Base: Base{From: fields[0], To: fields[1]}}, nil
}

// PlaneInfoResponse (#SB PI GEN) describes the aircraft model as key=value
// pairs
type PlaneInfoResponse struct {
	Base
	Equipment string
	Airline   string
	Livery    string
	CSL       string
}

func (p *PlaneInfoResponse) Serialize() string {
	b := sb(p.Base, protocol.PLANE_INFO_RESPONSE, protocol.PLANE_INFO_GENERIC).add("EQUIPMENT=" + p.Equipment)
	if p.Airline != "" {
		b.add("AIRLINE=" + p.Airline)
	}
	if p.Livery != "" {
		b.add("LIVERY=" + p.Livery)
	}
	if p.CSL != "" {
		b.add("CSL=" + p.CSL)
	}
	return b.String()
}

// ParsePlaneInfoResponse decodes a #SB PI GEN frame
func ParsePlaneInfoResponse(fields []string) (*PlaneInfoResponse, error) {
	if len(fields) < 5 {
		return nil, fieldCountError(fields)
	}
	return &PlaneInfoResponse{
		Base:      Base{From: fields[0], To: fields[1]},
		Equipment: findValue(fields[4:], "EQUIPMENT"),
		Airline:   findValue(fields[4:], "AIRLINE"),
		Livery:    findValue(fields[4:], "LIVERY"),
		CSL:       findValue(fields[4:], "CSL"),
	}, nil
}

// findValue returns the value of the first key=value field matching key,
// compared case-insensitively
func findValue(fields []string, key string) string {
	prefix := key + "="
	for _, f := range fields {
		if hasPrefixFold(f, prefix) {
			return f[len(prefix):]
		}
	}
	return ""
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// LegacyPlaneInfoResponse (#SB PI X) is the pre-generic aircraft model
// response
type LegacyPlaneInfoResponse struct {
	Base
	EngineType protocol.EngineType
	CSL        string
}

func (p *LegacyPlaneInfoResponse) Serialize() string {
	return sb(p.Base, protocol.PLANE_INFO_RESPONSE, protocol.PLANE_INFO_LEGACY, "0").
		addInt(int(p.EngineType)).
		add("CSL=" + p.CSL).
		String()
}

// ParseLegacyPlaneInfoResponse decodes a #SB PI X frame
func ParseLegacyPlaneInfoResponse(fields []string) (*LegacyPlaneInfoResponse, error) {
	if len(fields) < 7 {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	engine := protocol.EngineType(fp.integer(5))
	if err := fp.done(); err != nil {
		return nil, err
	}
	if engine < protocol.EnginePiston || engine > protocol.EngineHelo {
		return nil, parseError(fields, fmt.Errorf("unknown engine type %d", engine))
	}
	csl := fields[6]
	if hasPrefixFold(csl, "CSL=") {
		csl = csl[len("CSL="):]
	}
	return &LegacyPlaneInfoResponse{
		Base:       Base{From: fields[0], To: fields[1]},
		EngineType: engine,
		CSL:        csl,
	}, nil
}
