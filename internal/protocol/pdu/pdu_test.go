package pdu

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

// splitFrame strips the routing tag and splits the remaining fields
func splitFrame(wire, tag string) []string {
	return strings.Split(strings.TrimPrefix(wire, tag), protocol.FSD_DELIMITER)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		tag   string
		pdu   Pdu
		parse func([]string) (Pdu, error)
	}{
		{
			name: "pilot position",
			tag:  "@",
			pdu: &PilotPosition{
				Base: Base{From: "DAL123"}, SquawkCode: 1200, IsSquawkingModeC: true,
				Rating: protocol.RatingOBS, Lat: 42.3601234, Lon: -71.0101234,
				TrueAltitude: 3500, PressureAltitude: 3450, GroundSpeed: 180,
				Pitch: -45, Bank: 90, Heading: 270,
			},
			parse: func(f []string) (Pdu, error) { return ParsePilotPosition(f) },
		},
		{
			name: "fast pilot position",
			tag:  "^",
			pdu: &FastPilotPosition{
				Base: Base{From: "DAL123"}, Type: FastPositionFast, Lat: 42.5, Lon: -71.25,
				AltitudeTrue: 3500.25, AltitudeAgl: 120.5, Pitch: 0, Bank: 0, Heading: 180,
				VelocityLongitude: 1.2345, VelocityAltitude: -0.5, VelocityLatitude: 2.25,
				VelocityPitch: 0.01, VelocityHeading: -0.125, VelocityBank: 0.0625, NoseGearAngle: 1.5,
			},
			parse: func(f []string) (Pdu, error) { return ParseFastPilotPosition(FastPositionFast, f) },
		},
		{
			name: "slow pilot position",
			tag:  "#SL",
			pdu: &FastPilotPosition{
				Base: Base{From: "DAL123"}, Type: FastPositionSlow, Lat: 1, Lon: 2,
				AltitudeTrue: 10, AltitudeAgl: 5, Heading: 90, VelocityLongitude: 0.5,
			},
			parse: func(f []string) (Pdu, error) { return ParseFastPilotPosition(FastPositionSlow, f) },
		},
		{
			name: "stopped pilot position",
			tag:  "#ST",
			pdu: &FastPilotPosition{
				Base: Base{From: "DAL123"}, Type: FastPositionStopped, Lat: 1, Lon: 2,
				AltitudeTrue: 10, AltitudeAgl: 0, Heading: 45, NoseGearAngle: -12.5,
			},
			parse: func(f []string) (Pdu, error) { return ParseFastPilotPosition(FastPositionStopped, f) },
		},
		{
			name: "atc position",
			tag:  "%",
			pdu: &ATCPosition{
				Base: Base{From: "BOS_TWR"}, Frequencies: []int{18500, 28050},
				Facility: protocol.FacilityTWR, VisibilityRange: 40, Rating: protocol.RatingS3,
				Lat: 42.36, Lon: -71.00001,
			},
			parse: func(f []string) (Pdu, error) { return ParseATCPosition(f) },
		},
		{
			name:  "secondary vis center",
			tag:   "'",
			pdu:   &SecondaryVisCenter{Base: Base{From: "BOS_CTR"}, Index: 1, Lat: 41.5, Lon: -70.25},
			parse: func(f []string) (Pdu, error) { return ParseSecondaryVisCenter(f) },
		},
		{
			name: "client identification",
			tag:  "$ID",
			pdu: &ClientIdentification{
				Base: Base{From: "BOS_ATIS", To: protocol.SERVER_CALLSIGN}, ClientID: 0x579f,
				ClientName: "fsdclient", MajorVersion: 4, MinorVersion: 1, CID: "1234567",
				SysUID: "abc", InitialChallenge: "deadbeef",
			},
			parse: func(f []string) (Pdu, error) { return ParseClientIdentification(f) },
		},
		{
			name:  "server identification",
			tag:   "$DI",
			pdu:   &ServerIdentification{Base: Base{From: "SERVER", To: "CLIENT"}, Version: "VATSIM FSD V3.43", InitialChallenge: "66a5e3a5"},
			parse: func(f []string) (Pdu, error) { return ParseServerIdentification(f) },
		},
		{
			name: "add atc",
			tag:  "#AA",
			pdu: &AddATC{
				Base: Base{From: "BOS_ATIS", To: protocol.SERVER_CALLSIGN}, RealName: "Jane Doe",
				CID: "1234567", Password: "token", Rating: protocol.RatingC1,
				ProtocolRevision: protocol.ProtocolRevisionVatsimAuth,
			},
			parse: func(f []string) (Pdu, error) { return ParseAddATC(f) },
		},
		{
			name: "add pilot",
			tag:  "#AP",
			pdu: &AddPilot{
				Base: Base{From: "DAL123", To: protocol.SERVER_CALLSIGN}, CID: "1234567", Password: "pw",
				Rating: protocol.RatingOBS, ProtocolRevision: protocol.ProtocolRevisionVatsim2022,
				SimulatorType: protocol.SimulatorXPlane, RealName: "John Doe KBOS",
			},
			parse: func(f []string) (Pdu, error) { return ParseAddPilot(f) },
		},
		{
			name:  "delete atc",
			tag:   "#DA",
			pdu:   &DeleteATC{Base: Base{From: "BOS_ATIS"}, CID: "1234567"},
			parse: func(f []string) (Pdu, error) { return ParseDeleteATC(f) },
		},
		{
			name:  "delete pilot",
			tag:   "#DP",
			pdu:   &DeletePilot{Base: Base{From: "DAL123"}, CID: "1234567"},
			parse: func(f []string) (Pdu, error) { return ParseDeletePilot(f) },
		},
		{
			name:  "text message",
			tag:   "#TM",
			pdu:   &TextMessage{Base: Base{From: "BOS_TWR", To: "DAL123"}, Message: "contact 121.9: good day"},
			parse: func(f []string) (Pdu, error) { return ParseTextMessage(f) },
		},
		{
			name:  "radio message",
			tag:   "#TM",
			pdu:   &RadioMessage{Base: Base{From: "BOS_TWR"}, Frequencies: []int{18500, 19100}, Message: "wind 270 at 10"},
			parse: func(f []string) (Pdu, error) { return ParseRadioMessage(f) },
		},
		{
			name:  "broadcast message",
			tag:   "#TM",
			pdu:   &BroadcastMessage{Base: Base{From: "SUP", To: "*"}, Message: "server restart at 12:00z"},
			parse: func(f []string) (Pdu, error) { return ParseBroadcastMessage(f) },
		},
		{
			name:  "wallop",
			tag:   "#TM",
			pdu:   &Wallop{Base: Base{From: "DAL123", To: "*S"}, Message: "help"},
			parse: func(f []string) (Pdu, error) { return ParseWallop(f) },
		},
		{
			name:  "atc message",
			tag:   "#TM",
			pdu:   &ATCMessage{Base: Base{From: "BOS_TWR", To: "@49999"}, Message: "going offline"},
			parse: func(f []string) (Pdu, error) { return ParseATCMessage(f) },
		},
		{
			name:  "weather profile request",
			tag:   "#WX",
			pdu:   &WeatherProfileRequest{Base: Base{From: "DAL123", To: "SERVER"}, Station: "KBOS"},
			parse: func(f []string) (Pdu, error) { return ParseWeatherProfileRequest(f) },
		},
		{
			name: "wind data",
			tag:  "#WD",
			pdu: &WindData{Base: Base{From: "SERVER", To: "DAL123"}, Layers: [4]WindLayer{
				{Ceiling: 10400, Floor: 2500, Direction: 270, Speed: 12, Gusting: true, Turbulence: 1},
				{Ceiling: 22600, Floor: 10400, Direction: 280, Speed: 30},
				{Ceiling: 90000, Floor: 22600, Direction: 290, Speed: 65, Turbulence: 2},
				{Ceiling: 2500, Floor: 0, Direction: 260, Speed: 8, Gusting: true},
			}},
			parse: func(f []string) (Pdu, error) { return ParseWindData(f) },
		},
		{
			name: "temperature data",
			tag:  "#TD",
			pdu: &TemperatureData{Base: Base{From: "SERVER", To: "DAL123"}, Layers: [4]TemperatureLayer{
				{100, 15}, {10000, -5}, {18000, -21}, {35000, -54},
			}, Pressure: 2992},
			parse: func(f []string) (Pdu, error) { return ParseTemperatureData(f) },
		},
		{
			name: "cloud data",
			tag:  "#CD",
			pdu: &CloudData{Base: Base{From: "SERVER", To: "DAL123"}, Layers: [2]CloudLayer{
				{Ceiling: 6000, Floor: 4000, Coverage: 4, Icing: true, Turbulence: 1},
				{Ceiling: 12000, Floor: 10000, Coverage: 8},
			}, Storm: StormLayer{Ceiling: 30000, Floor: 2000, Deviation: 5, Coverage: 2, Turbulence: 3}},
			parse: func(f []string) (Pdu, error) { return ParseCloudData(f) },
		},
		{
			name:  "metar request",
			tag:   "$AX",
			pdu:   &MetarRequest{Base: Base{From: "BOS_ATIS", To: "SERVER"}, Station: "KBOS"},
			parse: func(f []string) (Pdu, error) { return ParseMetarRequest(f) },
		},
		{
			name:  "metar response",
			tag:   "$AR",
			pdu:   &MetarResponse{Base: Base{From: "SERVER", To: "BOS_ATIS"}, Metar: "KBOS 141254Z 27010KT 10SM FEW050 18/08 A3001"},
			parse: func(f []string) (Pdu, error) { return ParseMetarResponse(f) },
		},
		{
			name:  "auth challenge",
			tag:   "$ZC",
			pdu:   &AuthChallenge{Base: Base{From: "SERVER", To: "BOS_ATIS"}, Challenge: "abc123"},
			parse: func(f []string) (Pdu, error) { return ParseAuthChallenge(f) },
		},
		{
			name:  "auth response",
			tag:   "$ZR",
			pdu:   &AuthResponse{Base: Base{From: "BOS_ATIS", To: "SERVER"}, Response: "0f1e2d"},
			parse: func(f []string) (Pdu, error) { return ParseAuthResponse(f) },
		},
		{
			name:  "kill request",
			tag:   "$!!",
			pdu:   &KillRequest{Base: Base{From: "SUP", To: "DAL123"}, Reason: "unauthorized: see rules"},
			parse: func(f []string) (Pdu, error) { return ParseKillRequest(f) },
		},
		{
			name: "protocol error",
			tag:  "$ER",
			pdu: &ProtocolError{
				Base: Base{From: "SERVER", To: "BOS_ATIS"}, ErrorType: protocol.ErrorCallsignInUse,
				Param: "BOS_ATIS", Message: "Callsign in use", Fatal: true,
			},
			parse: func(f []string) (Pdu, error) { return ParseProtocolError(f) },
		},
		{
			name:  "ping",
			tag:   "$PI",
			pdu:   &Ping{Base: Base{From: "SERVER", To: "BOS_ATIS"}, TimeStamp: "1697200000"},
			parse: func(f []string) (Pdu, error) { return ParsePing(f) },
		},
		{
			name:  "pong",
			tag:   "$PO",
			pdu:   &Pong{Base: Base{From: "BOS_ATIS", To: "SERVER"}, TimeStamp: "1697200000"},
			parse: func(f []string) (Pdu, error) { return ParsePong(f) },
		},
		{
			name:  "send fast positions",
			tag:   "$SF",
			pdu:   &SendFastPositions{Base: Base{From: "SERVER", To: "DAL123"}, Send: true},
			parse: func(f []string) (Pdu, error) { return ParseSendFastPositions(f) },
		},
		{
			name:  "mute",
			tag:   "#MU",
			pdu:   &Mute{Base: Base{From: "SERVER", To: "DAL123"}, Mute: false},
			parse: func(f []string) (Pdu, error) { return ParseMute(f) },
		},
		{
			name:  "change server",
			tag:   "$XX",
			pdu:   &ChangeServer{Base: Base{From: "SERVER", To: "DAL123"}, NewServer: "USA-EAST"},
			parse: func(f []string) (Pdu, error) { return ParseChangeServer(f) },
		},
		{
			name: "client query",
			tag:  "$CQ",
			pdu: &ClientQuery{
				Base: Base{From: "BOS_ATIS", To: "@94835"}, QueryType: protocol.QueryNewATIS,
				Payload: []string{"A", "27010KT A3001"},
			},
			parse: func(f []string) (Pdu, error) { return ParseClientQuery(f) },
		},
		{
			name: "client query response",
			tag:  "$CR",
			pdu: &ClientQueryResponse{
				Base: Base{From: "BOS_ATIS", To: "DAL123"}, QueryType: protocol.QueryCapabilities,
				Payload: []string{"VERSION=1", "ATCINFO=1"},
			},
			parse: func(f []string) (Pdu, error) { return ParseClientQueryResponse(f) },
		},
		{
			name: "client query with unlisted token",
			tag:  "$CQ",
			pdu: &ClientQuery{
				Base: Base{From: "BOS_APP", To: "BOS_TWR"}, RawType: "WX",
				Payload: []string{"KBOS"},
			},
			parse: func(f []string) (Pdu, error) { return ParseClientQuery(f) },
		},
		{
			name: "client query response with unlisted token",
			tag:  "$CR",
			pdu: &ClientQueryResponse{
				Base: Base{From: "BOS_TWR", To: "BOS_APP"}, RawType: "WX",
				Payload: []string{"KBOS", "27010KT"},
			},
			parse: func(f []string) (Pdu, error) { return ParseClientQueryResponse(f) },
		},
		{
			name:  "handoff",
			tag:   "$HO",
			pdu:   &Handoff{Base: Base{From: "BOS_APP", To: "BOS_TWR"}, Target: "DAL123"},
			parse: func(f []string) (Pdu, error) { return ParseHandoff(f) },
		},
		{
			name:  "handoff accept",
			tag:   "$HA",
			pdu:   &HandoffAccept{Base: Base{From: "BOS_TWR", To: "BOS_APP"}, Target: "DAL123"},
			parse: func(f []string) (Pdu, error) { return ParseHandoffAccept(f) },
		},
		{
			name:  "version request",
			tag:   "#PC",
			pdu:   &VersionRequest{Base: Base{From: "BOS_TWR", To: "BOS_APP"}},
			parse: func(f []string) (Pdu, error) { return ParseVersionRequest(f) },
		},
		{
			name:  "handoff cancelled",
			tag:   "#PC",
			pdu:   &HandoffCancelled{Base: Base{From: "BOS_APP", To: "BOS_TWR"}, Target: "DAL123"},
			parse: func(f []string) (Pdu, error) { return ParseHandoffCancelled(f) },
		},
		{
			name:  "point out",
			tag:   "#PC",
			pdu:   &PointOut{Base: Base{From: "BOS_APP", To: "BOS_TWR"}, Target: "DAL123"},
			parse: func(f []string) (Pdu, error) { return ParsePointOut(f) },
		},
		{
			name:  "push to departure list",
			tag:   "#PC",
			pdu:   &PushToDepartureList{Base: Base{From: "BOS_DEL", To: "BOS_TWR"}, Target: "DAL123"},
			parse: func(f []string) (Pdu, error) { return ParsePushToDepartureList(f) },
		},
		{
			name:  "i have target",
			tag:   "#PC",
			pdu:   &IHaveTarget{Base: Base{From: "BOS_APP", To: "BOS_CTR"}, Target: "DAL123"},
			parse: func(f []string) (Pdu, error) { return ParseIHaveTarget(f) },
		},
		{
			name:  "flight strip bare",
			tag:   "#PC",
			pdu:   &FlightStrip{Base: Base{From: "BOS_APP", To: "BOS_TWR"}, Target: "DAL123"},
			parse: func(f []string) (Pdu, error) { return ParseFlightStrip(f) },
		},
		{
			name: "flight strip annotated",
			tag:  "#PC",
			pdu: &FlightStrip{
				Base: Base{From: "BOS_APP", To: "BOS_TWR"}, Target: "DAL123", FormatID: "1",
				Annotations: []string{"RWY 27", "", "HOLD"},
			},
			parse: func(f []string) (Pdu, error) { return ParseFlightStrip(f) },
		},
		{
			name: "shared state",
			tag:  "#PC",
			pdu: &SharedState{
				Base: Base{From: "BOS_APP", To: "BOS_TWR"}, SharedStateType: protocol.SharedStateScratchpad,
				Target: "DAL123", Value: "RNAV",
			},
			parse: func(f []string) (Pdu, error) { return ParseSharedState(f) },
		},
		{
			name: "land line request",
			tag:  "#PC",
			pdu: &LandLineCommand{
				Base: Base{From: "BOS_APP", To: "BOS_TWR"},
				Line: protocol.LandLine{Type: protocol.LandLineOverride, Command: protocol.LandLineRequest},
				IP:   "10.0.0.1", Port: 3290,
			},
			parse: func(f []string) (Pdu, error) { return ParseLandLineCommand(f) },
		},
		{
			name: "land line end",
			tag:  "#PC",
			pdu: &LandLineCommand{
				Base: Base{From: "BOS_APP", To: "BOS_TWR"},
				Line: protocol.LandLine{Type: protocol.LandLineMonitor, Command: protocol.LandLineEnd},
			},
			parse: func(f []string) (Pdu, error) { return ParseLandLineCommand(f) },
		},
		{
			name:  "plane info request",
			tag:   "#SB",
			pdu:   &PlaneInfoRequest{Base: Base{From: "BOS_TWR", To: "DAL123"}},
			parse: func(f []string) (Pdu, error) { return ParsePlaneInfoRequest(f) },
		},
		{
			name: "plane info response",
			tag:  "#SB",
			pdu: &PlaneInfoResponse{
				Base: Base{From: "DAL123", To: "BOS_TWR"}, Equipment: "B738", Airline: "DAL", Livery: "NC",
			},
			parse: func(f []string) (Pdu, error) { return ParsePlaneInfoResponse(f) },
		},
		{
			name: "legacy plane info response",
			tag:  "#SB",
			pdu: &LegacyPlaneInfoResponse{
				Base: Base{From: "DAL123", To: "BOS_TWR"}, EngineType: protocol.EngineJet, CSL: "B738_DAL",
			},
			parse: func(f []string) (Pdu, error) { return ParseLegacyPlaneInfoResponse(f) },
		},
		{
			name: "flight plan",
			tag:  "$FP",
			pdu: &FlightPlan{
				Base: Base{From: "DAL123", To: "*A"}, Rules: protocol.FlightRulesIFR, Equipment: "H/B738/L",
				TAS: "450", DepAirport: "KBOS", EstimatedDepTime: "1300", ActualDepTime: "0",
				CruiseAlt: "FL350", DestAirport: "KATL", HoursEnroute: "2", MinutesEnroute: "30",
				FuelAvailHours: "4", FuelAvailMinutes: "0", AltAirport: "KCLT",
				Remarks: "/V/ PBN/A1B1", Route: "SSOXS5 SSOXS BUZRD SEY",
			},
			parse: func(f []string) (Pdu, error) { return ParseFlightPlan(f) },
		},
		{
			name: "flight plan amendment",
			tag:  "$AM",
			pdu: &FlightPlanAmendment{
				FlightPlan: FlightPlan{
					Base: Base{From: "BOS_DEL", To: "SERVER"}, Rules: protocol.FlightRulesVFR, Equipment: "C172",
					TAS: "110", DepAirport: "KBED", CruiseAlt: "4500", DestAirport: "KORH",
					Remarks: "/V/", Route: "DCT",
				},
				Callsign: "N12345",
			},
			parse: func(f []string) (Pdu, error) { return ParseFlightPlanAmendment(f) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := tt.pdu.Serialize()
			require.True(t, strings.HasPrefix(wire, tt.tag), "wire %q missing tag %q", wire, tt.tag)

			got, err := tt.parse(splitFrame(wire, tt.tag))
			require.NoError(t, err)
			assert.Equal(t, tt.pdu, got)
			assert.Equal(t, wire, got.Serialize())
		})
	}
}

func TestSerializeWireForms(t *testing.T) {
	tests := []struct {
		name string
		pdu  Pdu
		want string
	}{
		{
			name: "atc position",
			pdu: &ATCPosition{
				Base: Base{From: "BOS_TWR"}, Frequencies: []int{18500}, Facility: protocol.FacilityTWR,
				VisibilityRange: 40, Rating: protocol.RatingS2, Lat: 42.36, Lon: -71,
			},
			want: "%BOS_TWR:18500:4:40:3:42.36000:-71.00000:0",
		},
		{
			name: "pilot position identing",
			pdu: &PilotPosition{
				Base: Base{From: "N1"}, SquawkCode: 7, IsIdenting: true, Rating: protocol.RatingOBS,
				TrueAltitude: 100, PressureAltitude: 90, GroundSpeed: 0,
			},
			want: "@Y:N1:0007:1:0.0000000:0.0000000:100:0:0:-10",
		},
		{
			name: "client identification hex id",
			pdu: &ClientIdentification{
				Base: Base{From: "A"}, ClientID: 0xab, ClientName: "n", MajorVersion: 1, CID: "2", SysUID: "u",
			},
			want: "$IDA:SERVER:00ab:n:1:0:2:u",
		},
		{
			name: "protocol error",
			pdu:  &ProtocolError{Base: Base{From: "SERVER", To: "A"}, ErrorType: protocol.ErrorServerFull, Param: "", Message: "full"},
			want: "$ERSERVER:A:012::full",
		},
		{
			name: "land line reject omits endpoint",
			pdu: &LandLineCommand{
				Base: Base{From: "A", To: "B"},
				Line: protocol.LandLine{Type: protocol.LandLineIntercom, Command: protocol.LandLineReject},
				IP:   "1.2.3.4", Port: 1,
			},
			want: "#PCA:B:CCP:IB",
		},
		{
			name: "metar request",
			pdu:  &MetarRequest{Base: Base{From: "A"}, Station: "KBOS"},
			want: "$AXA:SERVER:METAR:KBOS",
		},
		{
			name: "flight plan flattens delimiters",
			pdu: &FlightPlan{
				Base: Base{From: "A", To: "B"}, Rules: protocol.FlightRulesSVFR,
				Remarks: "RMK:X", Route: "A:B",
			},
			want: "$FPA:B:S:::::::::::::RMK X:A B",
		},
		{
			name: "modern client check",
			pdu:  &ModernClientCheck{Base: Base{From: "A", To: "B"}},
			want: "#PCA:B:CCP:ID",
		},
		{
			name: "unlisted query token kept",
			pdu:  &ClientQuery{Base: Base{From: "A", To: "B"}, RawType: "WX", Payload: []string{"KBOS"}},
			want: "$CQA:B:WX:KBOS",
		},
		{
			name: "client query without payload",
			pdu:  &ClientQuery{Base: Base{From: "A", To: "SERVER"}, QueryType: protocol.QueryPublicIP},
			want: "$CQA:SERVER:IP",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pdu.Serialize())
		})
	}
}

func TestParseATCPositionEndToEndExample(t *testing.T) {
	p, err := ParseATCPosition(splitFrame("%BOS_TWR:118500:4:40:3:42.36000:-71.00000:0", "%"))
	require.NoError(t, err)
	assert.Equal(t, "BOS_TWR", p.From)
	assert.Equal(t, 118500, p.Frequency())
	assert.Equal(t, protocol.FacilityTWR, p.Facility)
	assert.Equal(t, protocol.RatingS2, p.Rating)
	assert.Equal(t, 40, p.VisibilityRange)
	assert.InDelta(t, 42.36, p.Lat, 1e-9)
	assert.InDelta(t, -71.0, p.Lon, 1e-9)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		parse   func([]string) error
		message string
	}{
		{
			name:    "pilot position short",
			fields:  []string{"N", "DAL123", "1200"},
			parse:   func(f []string) error { _, err := ParsePilotPosition(f); return err },
			message: "Invalid field count.",
		},
		{
			name:    "pilot position nan latitude",
			fields:  []string{"N", "DAL123", "1200", "1", "NaN", "0", "0", "0", "0", "0"},
			parse:   func(f []string) error { _, err := ParsePilotPosition(f); return err },
			message: "Parse error.",
		},
		{
			name:    "atc position nan longitude",
			fields:  []string{"BOS_TWR", "18500", "4", "40", "3", "42.0", "nan"},
			parse:   func(f []string) error { _, err := ParseATCPosition(f); return err },
			message: "Parse error.",
		},
		{
			name:    "atc position bad frequency",
			fields:  []string{"BOS_TWR", "18x", "4", "40", "3", "42.0", "-71"},
			parse:   func(f []string) error { _, err := ParseATCPosition(f); return err },
			message: "Parse error.",
		},
		{
			name:    "client identification bad hex",
			fields:  []string{"A", "SERVER", "zz", "n", "1", "0", "2", "u"},
			parse:   func(f []string) error { _, err := ParseClientIdentification(f); return err },
			message: "Parse error.",
		},
		{
			name:    "wind data short",
			fields:  []string{"SERVER", "A", "1"},
			parse:   func(f []string) error { _, err := ParseWindData(f); return err },
			message: "Invalid field count.",
		},
		{
			name:    "flight plan bad rules",
			fields:  append([]string{"A", "B", "Q"}, make([]string, 14)...),
			parse:   func(f []string) error { _, err := ParseFlightPlan(f); return err },
			message: "Parse error.",
		},
		{
			name:    "land line unknown",
			fields:  []string{"A", "B", "CCP", "ZZ"},
			parse:   func(f []string) error { _, err := ParseLandLineCommand(f); return err },
			message: "Unknown land line command type: ZZ",
		},
		{
			name:    "legacy plane info short",
			fields:  []string{"A", "B", "PI", "X", "0", "1"},
			parse:   func(f []string) error { _, err := ParseLegacyPlaneInfoResponse(f); return err },
			message: "Invalid field count.",
		},
		{
			name:    "protocol error bad code",
			fields:  []string{"SERVER", "A", "x", "", "msg"},
			parse:   func(f []string) error { _, err := ParseProtocolError(f); return err },
			message: "Parse error.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse(tt.fields)
			require.Error(t, err)
			var fe *FormatError
			require.True(t, errors.As(err, &fe), "error %T is not a FormatError", err)
			assert.Equal(t, tt.message, fe.Message)
			assert.Equal(t, Reassemble(tt.fields), fe.RawMessage)
			assert.Contains(t, err.Error(), "(Raw packet: ")
		})
	}
}

func TestParseFormatErrorWrapsCause(t *testing.T) {
	_, err := ParseSecondaryVisCenter([]string{"A", "x", "1", "2"})
	require.Error(t, err)
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestTextMessageKeepsDelimiters(t *testing.T) {
	fields := splitFrame("#TMBOS_TWR:DAL123:hello: there:", "#TM")
	m, err := ParseTextMessage(fields)
	require.NoError(t, err)
	assert.Equal(t, "hello: there:", m.Message)
}

func TestPilotPositionPressureAltitude(t *testing.T) {
	p, err := ParsePilotPosition(splitFrame("@S:N1:2000:1:1.0:2.0:5000.4:120:0:-150.4", "@"))
	require.NoError(t, err)
	assert.Equal(t, 5000, p.TrueAltitude)
	assert.Equal(t, 4850, p.PressureAltitude)
	assert.False(t, p.IsSquawkingModeC)
	assert.False(t, p.IsIdenting)
}

func TestFastPositionOptionalNoseGear(t *testing.T) {
	p, err := ParseFastPilotPosition(FastPositionStopped, []string{"N1", "1", "2", "3", "4", "0"})
	require.NoError(t, err)
	assert.Zero(t, p.NoseGearAngle)

	_, err = ParseFastPilotPosition(FastPositionFast, []string{"N1", "1", "2", "3", "4", "0"})
	assert.Error(t, err)
}

func TestPlaneInfoResponseCaseInsensitiveKeys(t *testing.T) {
	p, err := ParsePlaneInfoResponse([]string{"DAL123", "BOS_TWR", "PI", "GEN", "equipment=A320", "Livery=XYZ"})
	require.NoError(t, err)
	assert.Equal(t, "A320", p.Equipment)
	assert.Equal(t, "XYZ", p.Livery)
	assert.Empty(t, p.Airline)
}

func TestAngleCodec(t *testing.T) {
	resolution := 360.0 / 1024.0
	tests := []struct {
		pitch, bank, heading float64
	}{
		{0, 0, 0},
		{-10, 25, 359.9},
		{89.9, -89.9, 180},
		{-179.5, 179.5, 0.2},
		{45, -45, 90},
		{360, -360, 720},
	}
	for _, tt := range tests {
		p, b, h := UnpackPitchBankHeading(PackPitchBankHeading(tt.pitch, tt.bank, tt.heading))
		assert.Greater(t, p, -180.0)
		assert.LessOrEqual(t, p, 180.0)
		assert.Greater(t, b, -180.0)
		assert.LessOrEqual(t, b, 180.0)
		assert.GreaterOrEqual(t, h, 0.0)
		assert.Less(t, h, 360.0)
		assert.LessOrEqual(t, angleDiff(p, tt.pitch), resolution, "pitch %v -> %v", tt.pitch, p)
		assert.LessOrEqual(t, angleDiff(b, tt.bank), resolution, "bank %v -> %v", tt.bank, b)
		assert.LessOrEqual(t, angleDiff(h, tt.heading), resolution, "heading %v -> %v", tt.heading, h)
	}
}

func TestAngleCodecBitLayout(t *testing.T) {
	pbh := PackPitchBankHeading(0, 0, 90)
	assert.Equal(t, uint32(256<<2), pbh)

	pbh = PackPitchBankHeading(-90, 0, 0)
	assert.Equal(t, uint32(768)<<22, pbh)
}

// angleDiff is the absolute difference of two angles on the circle
func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
