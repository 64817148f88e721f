package pdu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

// PilotPosition is the standard pilot position report (@)
type PilotPosition struct {
	Base
	SquawkCode       int
	IsSquawkingModeC bool
	IsIdenting       bool
	Rating           protocol.NetworkRating
	Lat              float64
	Lon              float64
	TrueAltitude     int
	PressureAltitude int
	GroundSpeed      int
	Pitch            float64
	Bank             float64
	Heading          float64
}

func (p *PilotPosition) transponderMode() string {
	switch {
	case p.IsIdenting:
		return "Y"
	case p.IsSquawkingModeC:
		return "N"
	default:
		return "S"
	}
}

// Serialize encodes the report. Pressure altitude travels as an offset from
// true altitude.
func (p *PilotPosition) Serialize() string {
	return newBuilder("@").
		add(p.transponderMode()).
		add(p.From).
		add(fmt.Sprintf("%04d", p.SquawkCode)).
		addInt(int(p.Rating)).
		addFloat(p.Lat, 7).
		addFloat(p.Lon, 7).
		addInt(p.TrueAltitude).
		addInt(p.GroundSpeed).
		add(strconv.FormatUint(uint64(PackPitchBankHeading(p.Pitch, p.Bank, p.Heading)), 10)).
		addInt(p.PressureAltitude - p.TrueAltitude).
		String()
}

// ParsePilotPosition decodes an @ frame. Identing implies mode C.
func ParsePilotPosition(fields []string) (*PilotPosition, error) {
	if len(fields) < 10 {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	p := &PilotPosition{Base: Base{From: fields[1]}}
	switch strings.ToUpper(fields[0]) {
	case "N":
		p.IsSquawkingModeC = true
	case "Y":
		p.IsSquawkingModeC = true
		p.IsIdenting = true
	}
	p.SquawkCode = fp.integer(2)
	p.Rating = protocol.NetworkRating(fp.integer(3))
	p.Lat = fp.coordinate(4)
	p.Lon = fp.coordinate(5)
	trueAlt := fp.decimal(6)
	p.TrueAltitude = fp.rounded(6)
	p.GroundSpeed = fp.rounded(7)
	pbh := fp.unsigned(8)
	offset := fp.decimal(9)
	if err := fp.done(); err != nil {
		return nil, err
	}
	p.PressureAltitude = roundHalfEven(trueAlt + offset)
	p.Pitch, p.Bank, p.Heading = UnpackPitchBankHeading(pbh)
	return p, nil
}

// FastPositionType distinguishes the fast position sub-kinds
type FastPositionType int

const (
	FastPositionFast FastPositionType = iota
	FastPositionSlow
	FastPositionStopped
)

// Prefix returns the routing tag of the sub-kind
func (t FastPositionType) Prefix() string {
	switch t {
	case FastPositionSlow:
		return "#SL"
	case FastPositionStopped:
		return "#ST"
	default:
		return "^"
	}
}

// FieldCount returns the minimum field count of the sub-kind
func (t FastPositionType) FieldCount() int {
	if t == FastPositionStopped {
		return 6
	}
	return 12
}

// FastPilotPosition is the high-rate velocity-carrying pilot update
type FastPilotPosition struct {
	Base
	Type              FastPositionType
	Lat               float64
	Lon               float64
	AltitudeTrue      float64
	AltitudeAgl       float64
	Pitch             float64
	Bank              float64
	Heading           float64
	VelocityLongitude float64
	VelocityAltitude  float64
	VelocityLatitude  float64
	VelocityPitch     float64
	VelocityHeading   float64
	VelocityBank      float64
	NoseGearAngle     float64
}

func (p *FastPilotPosition) Serialize() string {
	b := newBuilder(p.Type.Prefix()).
		add(p.From).
		addFloat(p.Lat, 7).
		addFloat(p.Lon, 7).
		addFloat(p.AltitudeTrue, 2).
		addFloat(p.AltitudeAgl, 2).
		add(strconv.FormatUint(uint64(PackPitchBankHeading(p.Pitch, p.Bank, p.Heading)), 10))
	if p.Type != FastPositionStopped {
		b.addFloat(p.VelocityLongitude, 4).
			addFloat(p.VelocityAltitude, 4).
			addFloat(p.VelocityLatitude, 4).
			addFloat(p.VelocityPitch, 4).
			addFloat(p.VelocityHeading, 4).
			addFloat(p.VelocityBank, 4)
	}
	return b.addFloat(p.NoseGearAngle, 2).String()
}

// ParseFastPilotPosition decodes ^, #SL and #ST frames. The nose gear angle
// is optional.
func ParseFastPilotPosition(t FastPositionType, fields []string) (*FastPilotPosition, error) {
	if len(fields) < t.FieldCount() {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	p := &FastPilotPosition{Base: Base{From: fields[0]}, Type: t}
	p.Lat = fp.coordinate(1)
	p.Lon = fp.coordinate(2)
	p.AltitudeTrue = fp.decimal(3)
	p.AltitudeAgl = fp.decimal(4)
	pbh := fp.unsigned(5)
	noseGear := 6
	if t != FastPositionStopped {
		p.VelocityLongitude = fp.decimal(6)
		p.VelocityAltitude = fp.decimal(7)
		p.VelocityLatitude = fp.decimal(8)
		p.VelocityPitch = fp.decimal(9)
		p.VelocityHeading = fp.decimal(10)
		p.VelocityBank = fp.decimal(11)
		noseGear = 12
	}
	if len(fields) > noseGear {
		p.NoseGearAngle = fp.decimal(noseGear)
	}
	if err := fp.done(); err != nil {
		return nil, err
	}
	p.Pitch, p.Bank, p.Heading = UnpackPitchBankHeading(pbh)
	return p, nil
}

// ATCPosition is the controller position report (%)
type ATCPosition struct {
	Base
	Frequencies     []int
	Facility        protocol.NetworkFacility
	VisibilityRange int
	Rating          protocol.NetworkRating
	Lat             float64
	Lon             float64
}

// Frequency returns the primary frequency, or 0 when none is set
func (p *ATCPosition) Frequency() int {
	if len(p.Frequencies) == 0 {
		return 0
	}
	return p.Frequencies[0]
}

func (p *ATCPosition) Serialize() string {
	freqs := make([]string, len(p.Frequencies))
	for i, f := range p.Frequencies {
		freqs[i] = strconv.Itoa(f)
	}
	return newBuilder("%").
		add(p.From).
		add(strings.Join(freqs, "&")).
		addInt(int(p.Facility)).
		addInt(p.VisibilityRange).
		addInt(int(p.Rating)).
		addFloat(p.Lat, 5).
		addFloat(p.Lon, 5).
		add("0").
		String()
}

// ParseATCPosition decodes a % frame
func ParseATCPosition(fields []string) (*ATCPosition, error) {
	if len(fields) < 7 {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	p := &ATCPosition{Base: Base{From: fields[0]}}
	freqs, err := parseFrequencyList(fields[1], "&", "")
	if err != nil {
		return nil, parseError(fields, err)
	}
	p.Frequencies = freqs
	p.Facility = protocol.NetworkFacility(fp.integer(2))
	p.VisibilityRange = fp.integer(3)
	p.Rating = protocol.NetworkRating(fp.integer(4))
	p.Lat = fp.coordinate(5)
	p.Lon = fp.coordinate(6)
	if err := fp.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// SecondaryVisCenter is an additional visibility center of a controller (')
type SecondaryVisCenter struct {
	Base
	Index int
	Lat   float64
	Lon   float64
}

func (p *SecondaryVisCenter) Serialize() string {
	return newBuilder("'").
		add(p.From).
		addInt(p.Index).
		addFloat(p.Lat, 5).
		addFloat(p.Lon, 5).
		String()
}

// ParseSecondaryVisCenter decodes a ' frame
func ParseSecondaryVisCenter(fields []string) (*SecondaryVisCenter, error) {
	if len(fields) < 4 {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	p := &SecondaryVisCenter{Base: Base{From: fields[0]}}
	p.Index = fp.integer(1)
	p.Lat = fp.coordinate(2)
	p.Lon = fp.coordinate(3)
	if err := fp.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// parseFrequencyList splits a sep-joined frequency list, removing prefix
// from each element
func parseFrequencyList(s, sep, prefix string) ([]int, error) {
	parts := strings.Split(s, sep)
	freqs := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimPrefix(strings.TrimSpace(part), prefix)
		if part == "" {
			continue
		}
		f, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid frequency %q: %w", part, err)
		}
		freqs = append(freqs, f)
	}
	return freqs, nil
}
