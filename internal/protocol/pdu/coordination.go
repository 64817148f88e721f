package pdu

import (
	"fmt"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

// Handoff ($HO) offers a track to another controller
type Handoff struct {
	Base
	Target string
}

func (p *Handoff) Serialize() string {
	return newBuilder("$HO").add(p.From).add(p.To).add(p.Target).String()
}

// ParseHandoff decodes a $HO frame
func ParseHandoff(fields []string) (*Handoff, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &Handoff{Base: Base{From: fields[0], To: fields[1]}, Target: fields[2]}, nil
}

// HandoffAccept ($HA) accepts an offered track
type HandoffAccept struct {
	Base
	Target string
}

func (p *HandoffAccept) Serialize() string {
	return newBuilder("$HA").add(p.From).add(p.To).add(p.Target).String()
}

// ParseHandoffAccept decodes a $HA frame
func ParseHandoffAccept(fields []string) (*HandoffAccept, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &HandoffAccept{Base: Base{From: fields[0], To: fields[1]}, Target: fields[2]}, nil
}

// ccp starts a compound-command frame
func ccp(base Base, sub string) *builder {
	return newBuilder("#PC").add(base.From).add(base.To).add(protocol.CCP_MARKER).add(sub)
}

// VersionRequest (#PC CCP:VER) asks a client for its version
type VersionRequest struct {
	Base
}

func (p *VersionRequest) Serialize() string { return ccp(p.Base, "VER").String() }

// ParseVersionRequest decodes a #PC VER frame
func ParseVersionRequest(fields []string) (*VersionRequest, error) {
	if len(fields) < 4 {
		return nil, fieldCountError(fields)
	}
	return &VersionRequest{Base: Base{From: fields[0], To: fields[1]}}, nil
}

// ModernClientCheck (#PC CCP:ID) announces a modern client. Inbound
// occurrences are ignored.
type ModernClientCheck struct {
	Base
}

func (p *ModernClientCheck) Serialize() string { return ccp(p.Base, "ID").String() }

// parseTargeted reads the layout shared by #PC sub-kinds naming one aircraft
func parseTargeted(fields []string) (Base, string, error) {
	if len(fields) < 5 {
		return Base{}, "", fieldCountError(fields)
	}
	return Base{From: fields[0], To: fields[1]}, fields[4], nil
}

// HandoffCancelled (#PC CCP:HC) withdraws a pending handoff
type HandoffCancelled struct {
	Base
	Target string
}

func (p *HandoffCancelled) Serialize() string { return ccp(p.Base, "HC").add(p.Target).String() }

// ParseHandoffCancelled decodes a #PC HC frame
func ParseHandoffCancelled(fields []string) (*HandoffCancelled, error) {
	base, target, err := parseTargeted(fields)
	if err != nil {
		return nil, err
	}
	return &HandoffCancelled{Base: base, Target: target}, nil
}

// PointOut (#PC CCP:PT) points an aircraft out to another controller
type PointOut struct {
	Base
	Target string
}

func (p *PointOut) Serialize() string { return ccp(p.Base, "PT").add(p.Target).String() }

// ParsePointOut decodes a #PC PT frame
func ParsePointOut(fields []string) (*PointOut, error) {
	base, target, err := parseTargeted(fields)
	if err != nil {
		return nil, err
	}
	return &PointOut{Base: base, Target: target}, nil
}

// PushToDepartureList (#PC CCP:DP) pushes a flight onto the departure list
type PushToDepartureList struct {
	Base
	Target string
}

func (p *PushToDepartureList) Serialize() string { return ccp(p.Base, "DP").add(p.Target).String() }

// ParsePushToDepartureList decodes a #PC DP frame
func ParsePushToDepartureList(fields []string) (*PushToDepartureList, error) {
	base, target, err := parseTargeted(fields)
	if err != nil {
		return nil, err
	}
	return &PushToDepartureList{Base: base, Target: target}, nil
}

// IHaveTarget (#PC CCP:IH) claims a target
type IHaveTarget struct {
	Base
	Target string
}

func (p *IHaveTarget) Serialize() string { return ccp(p.Base, "IH").add(p.Target).String() }

// ParseIHaveTarget decodes a #PC IH frame
func ParseIHaveTarget(fields []string) (*IHaveTarget, error) {
	base, target, err := parseTargeted(fields)
	if err != nil {
		return nil, err
	}
	return &IHaveTarget{Base: base, Target: target}, nil
}

// FlightStrip (#PC CCP:ST) pushes a flight strip, optionally with a format
// and annotations
type FlightStrip struct {
	Base
	Target      string
	FormatID    string
	Annotations []string
}

func (p *FlightStrip) Serialize() string {
	b := ccp(p.Base, "ST").add(p.Target)
	if p.FormatID != "" || len(p.Annotations) > 0 {
		b.add(p.FormatID)
		for _, a := range p.Annotations {
			b.add(a)
		}
	}
	return b.String()
}

// ParseFlightStrip decodes a #PC ST frame
func ParseFlightStrip(fields []string) (*FlightStrip, error) {
	base, target, err := parseTargeted(fields)
	if err != nil {
		return nil, err
	}
	p := &FlightStrip{Base: base, Target: target}
	if len(fields) > 5 {
		p.FormatID = fields[5]
		if len(fields) > 6 {
			p.Annotations = append([]string(nil), fields[6:]...)
		}
	}
	return p, nil
}

// SharedState (#PC CCP:SC|BC|VT|TA|GD) synchronises a controller-side value
type SharedState struct {
	Base
	SharedStateType protocol.SharedStateType
	Target          string
	Value           string
}

func (p *SharedState) Serialize() string {
	return ccp(p.Base, p.SharedStateType.Token()).add(p.Target).add(p.Value).String()
}

// ParseSharedState decodes a shared-state #PC frame
func ParseSharedState(fields []string) (*SharedState, error) {
	if len(fields) < 6 {
		return nil, fieldCountError(fields)
	}
	kind, ok := protocol.ParseSharedStateType(fields[3])
	if !ok {
		return nil, parseError(fields, fmt.Errorf("unknown shared state type %q", fields[3]))
	}
	return &SharedState{
		Base:            Base{From: fields[0], To: fields[1]},
		SharedStateType: kind,
		Target:          fields[4],
		Value:           fields[5],
	}, nil
}

// LandLineCommand (#PC CCP:IC..EM) drives an intercom, override or monitor
// line. IP and Port are only carried by requests and approvals.
type LandLineCommand struct {
	Base
	Line protocol.LandLine
	IP   string
	Port int
}

func (p *LandLineCommand) Serialize() string {
	b := ccp(p.Base, p.Line.Token())
	if p.Line.CarriesEndpoint() {
		b.add(p.IP).addInt(p.Port)
	}
	return b.String()
}

// ParseLandLineCommand decodes a land-line #PC frame
func ParseLandLineCommand(fields []string) (*LandLineCommand, error) {
	if len(fields) < 4 {
		return nil, fieldCountError(fields)
	}
	line, ok := protocol.ParseLandLine(fields[3])
	if !ok {
		return nil, &FormatError{
			Message:    fmt.Sprintf("Unknown land line command type: %s", fields[3]),
			RawMessage: Reassemble(fields),
		}
	}
	p := &LandLineCommand{Base: Base{From: fields[0], To: fields[1]}, Line: line}
	if len(fields) >= 6 {
		fp := newFieldParser(fields)
		p.IP = fields[4]
		p.Port = fp.integer(5)
		if err := fp.done(); err != nil {
			return nil, err
		}
	}
	return p, nil
}
