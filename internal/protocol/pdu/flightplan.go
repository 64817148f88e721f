package pdu

import (
	"strings"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

// FlightPlan ($FP) is a filed flight plan. Times, speeds and altitudes are
// carried verbatim as the pilot entered them.
type FlightPlan struct {
	Base
	Rules            protocol.FlightRules
	Equipment        string
	TAS              string
	DepAirport       string
	EstimatedDepTime string
	ActualDepTime    string
	CruiseAlt        string
	DestAirport      string
	HoursEnroute     string
	MinutesEnroute   string
	FuelAvailHours   string
	FuelAvailMinutes string
	AltAirport       string
	Remarks          string
	Route            string
}

// flattenText replaces the delimiter inside free text
func flattenText(s string) string {
	return strings.ReplaceAll(s, protocol.FSD_DELIMITER, " ")
}

func (p *FlightPlan) appendFields(b *builder) *builder {
	return b.add(p.Rules.Token()).
		add(p.Equipment).
		add(p.TAS).
		add(p.DepAirport).
		add(p.EstimatedDepTime).
		add(p.ActualDepTime).
		add(p.CruiseAlt).
		add(p.DestAirport).
		add(p.HoursEnroute).
		add(p.MinutesEnroute).
		add(p.FuelAvailHours).
		add(p.FuelAvailMinutes).
		add(p.AltAirport).
		add(flattenText(p.Remarks)).
		add(flattenText(p.Route))
}

func (p *FlightPlan) Serialize() string {
	return p.appendFields(newBuilder("$FP").add(p.From).add(p.To)).String()
}

// readPlanFields fills the plan body from fields starting at offset
func readPlanFields(fields []string, offset int) (FlightPlan, error) {
	rules, err := protocol.ParseFlightRules(fields[offset])
	if err != nil {
		return FlightPlan{}, parseError(fields, err)
	}
	f := fields[offset:]
	return FlightPlan{
		Base:             Base{From: fields[0], To: fields[1]},
		Rules:            rules,
		Equipment:        f[1],
		TAS:              f[2],
		DepAirport:       f[3],
		EstimatedDepTime: f[4],
		ActualDepTime:    f[5],
		CruiseAlt:        f[6],
		DestAirport:      f[7],
		HoursEnroute:     f[8],
		MinutesEnroute:   f[9],
		FuelAvailHours:   f[10],
		FuelAvailMinutes: f[11],
		AltAirport:       f[12],
		Remarks:          f[13],
		Route:            strings.Join(f[14:], " "),
	}, nil
}

// ParseFlightPlan decodes a $FP frame
func ParseFlightPlan(fields []string) (*FlightPlan, error) {
	if len(fields) < 17 {
		return nil, fieldCountError(fields)
	}
	fp, err := readPlanFields(fields, 2)
	if err != nil {
		return nil, err
	}
	return &fp, nil
}

// FlightPlanAmendment ($AM) is a controller's edit of another station's
// flight plan
type FlightPlanAmendment struct {
	FlightPlan
	Callsign string
}

func (p *FlightPlanAmendment) Serialize() string {
	return p.appendFields(newBuilder("$AM").add(p.From).add(p.To).add(p.Callsign)).String()
}

// ParseFlightPlanAmendment decodes a $AM frame
func ParseFlightPlanAmendment(fields []string) (*FlightPlanAmendment, error) {
	if len(fields) < 18 {
		return nil, fieldCountError(fields)
	}
	fp, err := readPlanFields(fields, 3)
	if err != nil {
		return nil, err
	}
	return &FlightPlanAmendment{FlightPlan: fp, Callsign: fields[2]}, nil
}
