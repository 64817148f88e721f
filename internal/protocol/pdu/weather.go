package pdu

import (
	"strings"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

const metarToken = "METAR"

// WeatherProfileRequest (#WX) asks the server for a weather profile
type WeatherProfileRequest struct {
	Base
	Station string
}

func (p *WeatherProfileRequest) Serialize() string {
	return newBuilder("#WX").add(p.From).add(protocol.SERVER_CALLSIGN).add(p.Station).String()
}

// ParseWeatherProfileRequest decodes a #WX frame
func ParseWeatherProfileRequest(fields []string) (*WeatherProfileRequest, error) {
	if len(fields) < 3 {
		return nil, fieldCountError(fields)
	}
	return &WeatherProfileRequest{
		Base:    Base{From: fields[0], To: protocol.SERVER_CALLSIGN},
		Station: fields[2],
	}, nil
}

// WindLayer is one layer of a wind profile
type WindLayer struct {
	Ceiling    int
	Floor      int
	Direction  int
	Speed      int
	Gusting    bool
	Turbulence int
}

// WindData (#WD) carries four wind layers
type WindData struct {
	Base
	Layers [4]WindLayer
}

func (p *WindData) Serialize() string {
	b := newBuilder("#WD").add(p.From).add(p.To)
	for _, l := range p.Layers {
		b.addInt(l.Ceiling).addInt(l.Floor).addInt(l.Direction).addInt(l.Speed).addFlag(l.Gusting).addInt(l.Turbulence)
	}
	return b.String()
}

// ParseWindData decodes a #WD frame
func ParseWindData(fields []string) (*WindData, error) {
	if len(fields) < 26 {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	p := &WindData{Base: Base{From: fields[0], To: fields[1]}}
	for i := range p.Layers {
		o := 2 + i*6
		p.Layers[i] = WindLayer{
			Ceiling:    fp.integer(o),
			Floor:      fp.integer(o + 1),
			Direction:  fp.integer(o + 2),
			Speed:      fp.integer(o + 3),
			Gusting:    fp.flag(o + 4),
			Turbulence: fp.integer(o + 5),
		}
	}
	if err := fp.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// TemperatureLayer is one layer of a temperature profile
type TemperatureLayer struct {
	Ceiling     int
	Temperature int
}

// TemperatureData (#TD) carries four temperature layers and the pressure
type TemperatureData struct {
	Base
	Layers   [4]TemperatureLayer
	Pressure int
}

func (p *TemperatureData) Serialize() string {
	b := newBuilder("#TD").add(p.From).add(p.To)
	for _, l := range p.Layers {
		b.addInt(l.Ceiling).addInt(l.Temperature)
	}
	return b.addInt(p.Pressure).String()
}

// ParseTemperatureData decodes a #TD frame
func ParseTemperatureData(fields []string) (*TemperatureData, error) {
	if len(fields) < 11 {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	p := &TemperatureData{Base: Base{From: fields[0], To: fields[1]}}
	for i := range p.Layers {
		o := 2 + i*2
		p.Layers[i] = TemperatureLayer{Ceiling: fp.integer(o), Temperature: fp.integer(o + 1)}
	}
	p.Pressure = fp.integer(10)
	if err := fp.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// CloudLayer is one cloud layer
type CloudLayer struct {
	Ceiling    int
	Floor      int
	Coverage   int
	Icing      bool
	Turbulence int
}

// StormLayer is the thunderstorm layer of a cloud profile
type StormLayer struct {
	Ceiling    int
	Floor      int
	Deviation  int
	Coverage   int
	Turbulence int
}

// CloudData (#CD) carries two cloud layers and a storm layer
type CloudData struct {
	Base
	Layers [2]CloudLayer
	Storm  StormLayer
}

func (p *CloudData) Serialize() string {
	b := newBuilder("#CD").add(p.From).add(p.To)
	for _, l := range p.Layers {
		b.addInt(l.Ceiling).addInt(l.Floor).addInt(l.Coverage).addFlag(l.Icing).addInt(l.Turbulence)
	}
	s := p.Storm
	return b.addInt(s.Ceiling).addInt(s.Floor).addInt(s.Deviation).addInt(s.Coverage).addInt(s.Turbulence).String()
}

// ParseCloudData decodes a #CD frame
func ParseCloudData(fields []string) (*CloudData, error) {
	if len(fields) < 17 {
		return nil, fieldCountError(fields)
	}
	fp := newFieldParser(fields)
	p := &CloudData{Base: Base{From: fields[0], To: fields[1]}}
	for i := range p.Layers {
		o := 2 + i*5
		p.Layers[i] = CloudLayer{
			Ceiling:    fp.integer(o),
			Floor:      fp.integer(o + 1),
			Coverage:   fp.integer(o + 2),
			Icing:      fp.flag(o + 3),
			Turbulence: fp.integer(o + 4),
		}
	}
	p.Storm = StormLayer{
		Ceiling:    fp.integer(12),
		Floor:      fp.integer(13),
		Deviation:  fp.integer(14),
		Coverage:   fp.integer(15),
		Turbulence: fp.integer(16),
	}
	if err := fp.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// MetarRequest ($AX) asks the server for a station's METAR
type MetarRequest struct {
	Base
	Station string
}

func (p *MetarRequest) Serialize() string {
	return newBuilder("$AX").add(p.From).add(protocol.SERVER_CALLSIGN).add(metarToken).add(p.Station).String()
}

// ParseMetarRequest decodes a $AX frame
func ParseMetarRequest(fields []string) (*MetarRequest, error) {
	if len(fields) < 4 {
		return nil, fieldCountError(fields)
	}
	return &MetarRequest{
		Base:    Base{From: fields[0], To: protocol.SERVER_CALLSIGN},
		Station: fields[3],
	}, nil
}

// MetarResponse ($AR) is the server's METAR answer
type MetarResponse struct {
	Base
	Metar string
}

func (p *MetarResponse) Serialize() string {
	return newBuilder("$AR").add(protocol.SERVER_CALLSIGN).add(p.To).add(metarToken).add(p.Metar).String()
}

// ParseMetarResponse decodes a $AR frame
func ParseMetarResponse(fields []string) (*MetarResponse, error) {
	if len(fields) < 4 {
		return nil, fieldCountError(fields)
	}
	return &MetarResponse{
		Base:  Base{From: protocol.SERVER_CALLSIGN, To: fields[1]},
		Metar: strings.Join(fields[3:], protocol.FSD_DELIMITER),
	}, nil
}
