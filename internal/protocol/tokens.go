package protocol

import (
	"fmt"
	"strings"
)

// tokenPair binds a semantic kind to its compact wire token
type tokenPair[T comparable] struct {
	Kind  T
	Token string
}

// tokenTable is a bidirectional kind/token mapping built from one pair list,
// so encode and decode cannot drift apart.
type tokenTable[T comparable] struct {
	pairs     []tokenPair[T]
	toToken   map[T]string
	fromToken map[string]T
}

func newTokenTable[T comparable](pairs []tokenPair[T]) *tokenTable[T] {
	t := &tokenTable[T]{
		pairs:     pairs,
		toToken:   make(map[T]string, len(pairs)),
		fromToken: make(map[string]T, len(pairs)),
	}
	for _, p := range pairs {
		if _, dup := t.toToken[p.Kind]; dup {
			panic(fmt.Sprintf("protocol: duplicate kind %v in token table", p.Kind))
		}
		if _, dup := t.fromToken[p.Token]; dup {
			panic(fmt.Sprintf("protocol: duplicate token %q in token table", p.Token))
		}
		t.toToken[p.Kind] = p.Token
		t.fromToken[p.Token] = p.Kind
	}
	return t
}

func (t *tokenTable[T]) token(kind T) (string, bool) {
	s, ok := t.toToken[kind]
	return s, ok
}

func (t *tokenTable[T]) kind(token string) (T, bool) {
	k, ok := t.fromToken[token]
	return k, ok
}

// ClientQueryType is the kind of a $CQ / $CR exchange
type ClientQueryType int

const (
	QueryUnknown ClientQueryType = iota
	QueryIsValidATC
	QueryCapabilities
	QueryCOM1Freq
	QueryRealName
	QueryServer
	QueryATIS
	QueryPublicIP
	QueryINF
	QueryFlightPlan
	QueryIPC
	QueryRequestRelief
	QueryCancelRequestRelief
	QueryRequestHelp
	QueryCancelRequestHelp
	QueryWhoHas
	QueryInitiateTrack
	QueryAcceptHandoff
	QueryDropTrack
	QuerySetFinalAltitude
	QuerySetTempAltitude
	QuerySetBeaconCode
	QuerySetScratchpad
	QuerySetVoiceType
	QueryAircraftConfiguration
	QueryNewInfo
	QueryNewATIS
	QueryEstimate
	QuerySetGlobalData
)

var clientQueryTokens = newTokenTable([]tokenPair[ClientQueryType]{
	{QueryIsValidATC, "ATC"},
	{QueryCapabilities, "CAPS"},
	{QueryCOM1Freq, "C?"},
	{QueryRealName, "RN"},
	{QueryServer, "SV"},
	{QueryATIS, "ATIS"},
	{QueryPublicIP, "IP"},
	{QueryINF, "INF"},
	{QueryFlightPlan, "FP"},
	{QueryIPC, "IPC"},
	{QueryRequestRelief, "BY"},
	{QueryCancelRequestRelief, "HI"},
	{QueryRequestHelp, "HLP"},
	{QueryCancelRequestHelp, "NOHLP"},
	{QueryWhoHas, "WH"},
	{QueryInitiateTrack, "IT"},
	{QueryAcceptHandoff, "HT"},
	{QueryDropTrack, "DR"},
	{QuerySetFinalAltitude, "FA"},
	{QuerySetTempAltitude, "TA"},
	{QuerySetBeaconCode, "BC"},
	{QuerySetScratchpad, "SC"},
	{QuerySetVoiceType, "VT"},
	{QueryAircraftConfiguration, "ACC"},
	{QueryNewInfo, "NEWINFO"},
	{QueryNewATIS, "NEWATIS"},
	{QueryEstimate, "EST"},
	{QuerySetGlobalData, "GD"},
})

// Token returns the wire token, or "" for QueryUnknown
func (q ClientQueryType) Token() string {
	s, _ := clientQueryTokens.token(q)
	return s
}

func (q ClientQueryType) String() string {
	if s := q.Token(); s != "" {
		return s
	}
	return "UNKNOWN"
}

// ParseClientQueryType maps a wire token case-insensitively; unknown tokens
// yield QueryUnknown.
func ParseClientQueryType(token string) ClientQueryType {
	q, ok := clientQueryTokens.kind(strings.ToUpper(token))
	if !ok {
		return QueryUnknown
	}
	return q
}

// SharedStateType is the #PC shared-state sub-kind
type SharedStateType int

const (
	SharedStateUnknown SharedStateType = iota
	SharedStateScratchpad
	SharedStateBeaconCode
	SharedStateVoiceType
	SharedStateTempAlt
	SharedStateGlobalData
)

var sharedStateTokens = newTokenTable([]tokenPair[SharedStateType]{
	{SharedStateScratchpad, "SC"},
	{SharedStateBeaconCode, "BC"},
	{SharedStateVoiceType, "VT"},
	{SharedStateTempAlt, "TA"},
	{SharedStateGlobalData, "GD"},
})

// Token returns the #PC sub-tag
func (s SharedStateType) Token() string {
	t, _ := sharedStateTokens.token(s)
	return t
}

// ParseSharedStateType maps a #PC sub-tag to its shared-state kind
func ParseSharedStateType(token string) (SharedStateType, bool) {
	return sharedStateTokens.kind(token)
}

// LandLineType is the kind of land line
type LandLineType int

const (
	LandLineIntercom LandLineType = iota
	LandLineOverride
	LandLineMonitor
)

// LandLineCommand is the step in a land-line exchange
type LandLineCommand int

const (
	LandLineRequest LandLineCommand = iota
	LandLineApprove
	LandLineReject
	LandLineEnd
)

// LandLine identifies one land-line sub-tag
type LandLine struct {
	Type    LandLineType
	Command LandLineCommand
}

var landLineTokens = newTokenTable([]tokenPair[LandLine]{
	{LandLine{LandLineIntercom, LandLineRequest}, "IC"},
	{LandLine{LandLineIntercom, LandLineApprove}, "IK"},
	{LandLine{LandLineIntercom, LandLineReject}, "IB"},
	{LandLine{LandLineIntercom, LandLineEnd}, "EC"},
	{LandLine{LandLineOverride, LandLineRequest}, "OV"},
	{LandLine{LandLineOverride, LandLineApprove}, "OK"},
	{LandLine{LandLineOverride, LandLineReject}, "OB"},
	{LandLine{LandLineOverride, LandLineEnd}, "EO"},
	{LandLine{LandLineMonitor, LandLineRequest}, "MN"},
	{LandLine{LandLineMonitor, LandLineApprove}, "MK"},
	{LandLine{LandLineMonitor, LandLineReject}, "MB"},
	{LandLine{LandLineMonitor, LandLineEnd}, "EM"},
})

// Token returns the #PC sub-tag for this land line
func (l LandLine) Token() string {
	t, _ := landLineTokens.token(l)
	return t
}

// CarriesEndpoint reports whether the command includes IP and port
func (l LandLine) CarriesEndpoint() bool {
	return l.Command == LandLineRequest || l.Command == LandLineApprove
}

// ParseLandLine maps a #PC sub-tag to its land-line type and command
func ParseLandLine(token string) (LandLine, bool) {
	return landLineTokens.kind(token)
}
