package pdu

import (
	"fmt"
	"strconv"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

// ClientIdentification ($ID) answers the server identification
type ClientIdentification struct {
	Base
	ClientID         uint16
	ClientName       string
	MajorVersion     int
	MinorVersion     int
	CID              string
	SysUID           string
	InitialChallenge string
}

func (p *ClientIdentification) Serialize() string {
	b := newBuilder("$ID").
		add(p.From).
		add(protocol.SERVER_CALLSIGN).
		add(fmt.Sprintf("%04x", p.ClientID)).
		add(p.ClientName).
		addInt(p.MajorVersion).
		addInt(p.MinorVersion).
		add(p.CID).
		add(p.SysUID)
	if p.InitialChallenge != "" {
		b.add(p.InitialChallenge)
	}
	return b.String()
}

// ParseClientIdentification decodes a $ID frame
func ParseClientIdentification(fields []string) (*ClientIdentification, error) {
	if len(fields) < 8 {
		return nil, fieldCountError(fields)
	}
	id, err := strconv.ParseUint(fields[2], 16, 16)
	if err != nil {
		return nil, parseError(fields, err)
	}
	fp := newFieldParser(fields)
	p := &ClientIdentification{
		Base:       Base{From: fields[0], To: protocol.SERVER_CALLSIGN},
		ClientID:   uint16(id),
		ClientName: fields[3],
		CID:        fields[6],
		SysUID:     fields[7],
	}
	p.MajorVersion = fp.integer(4)
	p.MinorVersion = fp.integer(5)
	if len(fields) > 8 {
		p.InitialChallenge = fields[8]
	}
	if err := fp.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// ServerIdentification ($DI) opens every session
type ServerIdentification struct {
	Base
	Version          string
	InitialChallenge string
}

func (p *ServerIdentification) Serialize() string {
	return newBuilder("$DI").add(p.From).add(p.To).add(p.Version).add(p.InitialChallenge).String()
}

// ParseServerIdentification decodes a $DI frame
func ParseServerIdentification(fields []string) (*ServerIdentification, error) {
	if len(fields) < 4 {
		return nil, fieldCountError(fields)
	}
	return &ServerIdentification{
		Base:             Base{From: fields[0], To: fields[1]},
		Version:          fields[2],
		InitialChallenge: fields[3],
	}, nil
}

// AddATC (#AA) registers a controller
type AddATC struct {
	Base
	RealName         string
	CID              string
	Password         string
	Rating           protocol.NetworkRating
	ProtocolRevision protocol.ProtocolRevision
}

func (p *AddATC) Serialize() string {
	return newBuilder("#AA").
		add(p.From).
		add(protocol.SERVER_CALLSIGN).
		add(p.RealName).
		add(p.CID).
		add(p.Password).
		addInt(int(p.Rating)).
		addInt(int(p.ProtocolRevision)).
		String()
}

// ParseAddATC decodes an #AA frame. Servers relay it without password or
// revision, so both are optional.
func ParseAddATC(fields []string) (*AddATC, error) {
	if len(fields) < 6 {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	p := &AddATC{
		Base:     Base{From: fields[0], To: fields[1]},
		RealName: fields[2],
		CID:      fields[3],
		Password: fields[4],
	}
	p.Rating = protocol.NetworkRating(fp.integer(5))
	if len(fields) > 6 && fields[6] != "" {
		p.ProtocolRevision = protocol.ProtocolRevision(fp.integer(6))
	}
	if err := fp.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// AddPilot (#AP) registers a pilot
type AddPilot struct {
	Base
	CID              string
	Password         string
	Rating           protocol.NetworkRating
	ProtocolRevision protocol.ProtocolRevision
	SimulatorType    protocol.SimulatorType
	RealName         string
}

func (p *AddPilot) Serialize() string {
	return newBuilder("#AP").
		add(p.From).
		add(protocol.SERVER_CALLSIGN).
		add(p.CID).
		add(p.Password).
		addInt(int(p.Rating)).
		addInt(int(p.ProtocolRevision)).
		addInt(int(p.SimulatorType)).
		add(p.RealName).
		String()
}

// ParseAddPilot decodes an #AP frame
func ParseAddPilot(fields []string) (*AddPilot, error) {
	if len(fields) < 8 {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	p := &AddPilot{
		Base:     Base{From: fields[0], To: fields[1]},
		CID:      fields[2],
		Password: fields[3],
		RealName: fields[7],
	}
	p.Rating = protocol.NetworkRating(fp.integer(4))
	p.ProtocolRevision = protocol.ProtocolRevision(fp.integer(5))
	p.SimulatorType = protocol.SimulatorType(fp.integer(6))
	if err := fp.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteATC (#DA) announces a controller leaving
type DeleteATC struct {
	Base
	CID string
}

func (p *DeleteATC) Serialize() string {
	return newBuilder("#DA").add(p.From).add(p.CID).String()
}

// ParseDeleteATC decodes a #DA frame
func ParseDeleteATC(fields []string) (*DeleteATC, error) {
	if len(fields) < 1 {
		return nil, fieldCountError(fields)
	}
	p := &DeleteATC{Base: Base{From: fields[0]}}
	if len(fields) > 1 {
		p.CID = fields[1]
	}
	return p, nil
}

// DeletePilot (#DP) announces a pilot leaving
type DeletePilot struct {
	Base
	CID string
}

func (p *DeletePilot) Serialize() string {
	return newBuilder("#DP").add(p.From).add(p.CID).String()
}

// ParseDeletePilot decodes a #DP frame
func ParseDeletePilot(fields []string) (*DeletePilot, error) {
	if len(fields) < 1 {
		return nil, fieldCountError(fields)
	}
	p := &DeletePilot{Base: Base{From: fields[0]}}
	if len(fields) > 1 {
		p.CID = fields[1]
	}
	return p, nil
}
