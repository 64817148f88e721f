package network

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dbehnke/fsdclient/internal/protocol"
	"github.com/dbehnke/fsdclient/internal/protocol/pdu"
)

type parseFunc func(fields []string) (pdu.Pdu, error)

// parser adapts a typed parse function to the routing table
func parser[T pdu.Pdu](fn func([]string) (T, error)) parseFunc {
	return func(fields []string) (pdu.Pdu, error) {
		v, err := fn(fields)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func fastParser(t pdu.FastPositionType) parseFunc {
	return func(fields []string) (pdu.Pdu, error) {
		v, err := pdu.ParseFastPilotPosition(t, fields)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Single-character tags
var prefixRoutes = map[byte]parseFunc{
	'@':  parser(pdu.ParsePilotPosition),
	'^':  fastParser(pdu.FastPositionFast),
	'%':  parser(pdu.ParseATCPosition),
	'\'': parser(pdu.ParseSecondaryVisCenter),
}

// Three-character tags with no further sub-routing
var tagRoutes = map[string]parseFunc{
	"$ID": parser(pdu.ParseClientIdentification),
	"#AA": parser(pdu.ParseAddATC),
	"#DA": parser(pdu.ParseDeleteATC),
	"#AP": parser(pdu.ParseAddPilot),
	"#DP": parser(pdu.ParseDeletePilot),
	"#WX": parser(pdu.ParseWeatherProfileRequest),
	"#WD": parser(pdu.ParseWindData),
	"#TD": parser(pdu.ParseTemperatureData),
	"#CD": parser(pdu.ParseCloudData),
	"$AM": parser(pdu.ParseFlightPlanAmendment),
	"$PI": parser(pdu.ParsePing),
	"$PO": parser(pdu.ParsePong),
	"$HO": parser(pdu.ParseHandoff),
	"$HA": parser(pdu.ParseHandoffAccept),
	"$AX": parser(pdu.ParseMetarRequest),
	"$AR": parser(pdu.ParseMetarResponse),
	"$CQ": parser(pdu.ParseClientQuery),
	"$CR": parser(pdu.ParseClientQueryResponse),
	"$!!": parser(pdu.ParseKillRequest),
	"$ER": parser(pdu.ParseProtocolError),
	"$SF": parser(pdu.ParseSendFastPositions),
	"#SL": fastParser(pdu.FastPositionSlow),
	"#ST": fastParser(pdu.FastPositionStopped),
	"$XX": parser(pdu.ParseChangeServer),
	"#MU": parser(pdu.ParseMute),
}

// #PC CCP sub-tags. Land-line codes are resolved through the token table.
var compoundRoutes = map[string]parseFunc{
	"VER": parser(pdu.ParseVersionRequest),
	"HC":  parser(pdu.ParseHandoffCancelled),
	"ST":  parser(pdu.ParseFlightStrip),
	"DP":  parser(pdu.ParsePushToDepartureList),
	"PT":  parser(pdu.ParsePointOut),
	"IH":  parser(pdu.ParseIHaveTarget),
	"SC":  parser(pdu.ParseSharedState),
	"BC":  parser(pdu.ParseSharedState),
	"VT":  parser(pdu.ParseSharedState),
	"TA":  parser(pdu.ParseSharedState),
	"GD":  parser(pdu.ParseSharedState),
}

// inboundAuth intercepts the authentication PDUs before they are published
type inboundAuth interface {
	serverIdentified(p *pdu.ServerIdentification)
	challengeReceived(p *pdu.AuthChallenge) bool
	responseReceived(p *pdu.AuthResponse) bool
}

// Router decodes frames and publishes the resulting PDUs. Decode failures
// are published as NetworkError; nothing is returned to the caller.
type Router struct {
	events        *Events
	log           zerolog.Logger
	ignoreUnknown bool
	auth          inboundAuth
}

// NewRouter creates a router publishing to events. With ignoreUnknown set,
// unrecognised tags and sub-tags are dropped silently.
func NewRouter(events *Events, log zerolog.Logger, ignoreUnknown bool) *Router {
	return &Router{events: events, log: log, ignoreUnknown: ignoreUnknown}
}

// Route decodes one frame without its terminator
func (r *Router) Route(frame string) {
	if frame == "" {
		return
	}
	p, err := r.decode(frame)
	if err != nil {
		if r.ignoreUnknown && errors.Is(err, errUnknown) {
			return
		}
		r.log.Debug().Err(err).Msg("dropped frame")
		r.events.Publish(NetworkError{Message: err.Error()})
		return
	}
	if p != nil {
		r.events.Publish(p)
	}
}

// errUnknown marks routing misses so lenient mode can drop them
var errUnknown = errors.New("unknown packet")

func unknownPacket(message, frame string) error {
	return &pdu.FormatError{Message: message, RawMessage: frame, Err: errUnknown}
}

// decode returns a nil PDU with a nil error for frames that are consumed
// internally or deliberately ignored
func (r *Router) decode(frame string) (pdu.Pdu, error) {
	fields := strings.Split(frame, protocol.FSD_DELIMITER)
	head := fields[0]
	if head == "" {
		return nil, unknownPacket("Unknown PDU prefix: ", frame)
	}

	if parse, ok := prefixRoutes[head[0]]; ok {
		fields[0] = head[1:]
		return parse(fields)
	}
	if head[0] != '#' && head[0] != '$' {
		return nil, unknownPacket(fmt.Sprintf("Unknown PDU prefix: %c", head[0]), frame)
	}
	if len(head) < 3 {
		return nil, &pdu.FormatError{Message: "Invalid PDU type.", RawMessage: frame}
	}
	tag := head[:3]
	fields[0] = head[3:]

	if parse, ok := tagRoutes[tag]; ok {
		return parse(fields)
	}
	switch tag {
	case "#DL":
		return nil, nil
	case "#TM":
		return decodeText(fields)
	case "#PC":
		return decodeCompound(fields, frame)
	case "#SB":
		return decodeSquawkBox(fields, frame)
	case "$FP":
		fp, err := pdu.ParseFlightPlan(fields)
		if err != nil {
			// servers emit malformed flight plans; these are not errors
			r.log.Debug().Err(err).Msg("ignoring malformed flight plan")
			return nil, nil
		}
		return fp, nil
	case "$DI":
		di, err := pdu.ParseServerIdentification(fields)
		if err != nil {
			return nil, err
		}
		if r.auth != nil {
			r.auth.serverIdentified(di)
		}
		return di, nil
	case "$ZC":
		zc, err := pdu.ParseAuthChallenge(fields)
		if err != nil {
			return nil, err
		}
		if r.auth != nil && r.auth.challengeReceived(zc) {
			return nil, nil
		}
		return zc, nil
	case "$ZR":
		zr, err := pdu.ParseAuthResponse(fields)
		if err != nil {
			return nil, err
		}
		if r.auth != nil && r.auth.responseReceived(zr) {
			return nil, nil
		}
		return zr, nil
	}
	return nil, unknownPacket("Unknown PDU type: "+tag, frame)
}

// decodeText routes #TM on its recipient. The message may contain the
// delimiter, so the tail is rejoined by the parse functions.
func decodeText(fields []string) (pdu.Pdu, error) {
	if len(fields) < 3 {
		return parser(pdu.ParseTextMessage)(fields)
	}
	to := fields[1]
	switch {
	case to == protocol.BROADCAST_RECIPIENT:
		return parser(pdu.ParseBroadcastMessage)(fields)
	case to == protocol.WALLOP_RECIPIENT:
		return parser(pdu.ParseWallop)(fields)
	case to == protocol.ATC_MESSAGE_RECIPIENT:
		return parser(pdu.ParseATCMessage)(fields)
	case strings.HasPrefix(to, "@"):
		return parser(pdu.ParseRadioMessage)(fields)
	default:
		return parser(pdu.ParseTextMessage)(fields)
	}
}

func decodeCompound(fields []string, frame string) (pdu.Pdu, error) {
	if len(fields) < 4 {
		return nil, unknownPacket("Too few fields in #PC packet.", frame)
	}
	if fields[2] != protocol.CCP_MARKER {
		return nil, unknownPacket("Unknown #PC packet type.", frame)
	}
	sub := fields[3]
	if sub == "ID" || sub == "DI" {
		return nil, nil
	}
	if parse, ok := compoundRoutes[sub]; ok {
		return parse(fields)
	}
	if _, ok := protocol.ParseLandLine(sub); ok {
		return parser(pdu.ParseLandLineCommand)(fields)
	}
	return nil, unknownPacket("Unknown #PC packet subtype.", frame)
}

func decodeSquawkBox(fields []string, frame string) (pdu.Pdu, error) {
	if len(fields) < 3 {
		return nil, unknownPacket("Too few fields in #SB packet.", frame)
	}
	switch fields[2] {
	case protocol.PLANE_INFO_REQUEST:
		return parser(pdu.ParsePlaneInfoRequest)(fields)
	case protocol.PLANE_INFO_RESPONSE:
		if len(fields) < 4 {
			return nil, unknownPacket("Too few fields in #SB packet.", frame)
		}
		switch fields[3] {
		case protocol.PLANE_INFO_LEGACY:
			return parser(pdu.ParseLegacyPlaneInfoResponse)(fields)
		case protocol.PLANE_INFO_GENERIC:
			return parser(pdu.ParsePlaneInfoResponse)(fields)
		}
		return nil, unknownPacket("Unknown #SB packet subtype.", frame)
	}
	return nil, unknownPacket("Unknown #SB packet type.", frame)
}
