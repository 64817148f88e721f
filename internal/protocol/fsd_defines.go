package protocol

import (
	"fmt"
	"strings"
	"time"
)

// FSD wire constants

const (
	// Framing
	FSD_DELIMITER        = ":"    // Field separator
	FSD_PACKET_DELIMITER = "\r\n" // Frame terminator
	FSD_RECEIVE_BUFFER   = 1024   // Bytes per socket read
	FSD_DEFAULT_PORT     = 6809   // Default server port

	// Reserved recipients
	SERVER_CALLSIGN                         = "SERVER"
	CLIENT_QUERY_BROADCAST_RECIPIENT        = "@94835" // All clients
	CLIENT_QUERY_BROADCAST_RECIPIENT_PILOTS = "@94836" // All pilots
	ATC_MESSAGE_RECIPIENT                   = "@49999" // ATC-only channel
	BROADCAST_RECIPIENT                     = "*"
	WALLOP_RECIPIENT                        = "*S" // Supervisors

	// Compound command and sim-broadcast markers
	CCP_MARKER          = "CCP"
	PLANE_INFO_REQUEST  = "PIR"
	PLANE_INFO_RESPONSE = "PI"
	PLANE_INFO_GENERIC  = "GEN"
	PLANE_INFO_LEGACY   = "X"
)

// Authentication timing
const (
	AUTH_CHALLENGE_INTERVAL        = 60 * time.Second // Keep-alive re-challenge
	AUTH_CHALLENGE_RESPONSE_WINDOW = 30 * time.Second // Time the server has to answer
)

// ProtocolRevision is the FSD protocol revision declared at registration
type ProtocolRevision int

const (
	ProtocolRevisionUnknown      ProtocolRevision = 0
	ProtocolRevisionClassic      ProtocolRevision = 9
	ProtocolRevisionVatsimNoAuth ProtocolRevision = 10
	ProtocolRevisionVatsimAuth   ProtocolRevision = 100
	ProtocolRevisionVatsim2022   ProtocolRevision = 101
)

// NetworkRating is a controller or pilot network rating
type NetworkRating int

const (
	RatingOBS NetworkRating = iota + 1
	RatingS1
	RatingS2
	RatingS3
	RatingC1
	RatingC2
	RatingC3
	RatingI1
	RatingI2
	RatingI3
	RatingSUP
	RatingADM
)

var ratingNames = [...]string{"", "OBS", "S1", "S2", "S3", "C1", "C2", "C3", "I1", "I2", "I3", "SUP", "ADM"}

func (r NetworkRating) String() string {
	if r >= RatingOBS && r <= RatingADM {
		return ratingNames[r]
	}
	return fmt.Sprintf("NetworkRating(%d)", int(r))
}

// ParseNetworkRating accepts a rating name ("C1") or its number
func ParseNetworkRating(s string) (NetworkRating, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i := RatingOBS; i <= RatingADM; i++ {
		if ratingNames[i] == s || fmt.Sprint(int(i)) == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown network rating %q", s)
}

// NetworkFacility is the controller position type
type NetworkFacility int

const (
	FacilityOBS NetworkFacility = iota
	FacilityFSS
	FacilityDEL
	FacilityGND
	FacilityTWR
	FacilityAPP
	FacilityCTR
)

var facilityNames = [...]string{"OBS", "FSS", "DEL", "GND", "TWR", "APP", "CTR"}

func (f NetworkFacility) String() string {
	if f >= FacilityOBS && f <= FacilityCTR {
		return facilityNames[f]
	}
	return fmt.Sprintf("NetworkFacility(%d)", int(f))
}

// ParseNetworkFacility accepts a facility name ("TWR") or its number
func ParseNetworkFacility(s string) (NetworkFacility, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i := FacilityOBS; i <= FacilityCTR; i++ {
		if facilityNames[i] == s || fmt.Sprint(int(i)) == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown network facility %q", s)
}

// SimulatorType identifies the pilot's simulator
type SimulatorType int

const (
	SimulatorUnknown SimulatorType = iota
	SimulatorMSFS95
	SimulatorMSFS98
	SimulatorMSCFS
	SimulatorAS2
	SimulatorPS1
	SimulatorXPlane
)

// EngineType is carried by the legacy plane info response
type EngineType int

const (
	EnginePiston EngineType = iota
	EngineJet
	EngineNone
	EngineHelo
)

// NetworkError is the server error code carried by $ER
type NetworkError int

const (
	ErrorOk NetworkError = iota
	ErrorCallsignInUse
	ErrorCallsignInvalid
	ErrorAlreadyRegistered
	ErrorSyntaxError
	ErrorPDUSourceInvalid
	ErrorInvalidLogon
	ErrorNoSuchCallsign
	ErrorNoFlightPlan
	ErrorNoWeatherProfile
	ErrorInvalidProtocolRevision
	ErrorRequestedLevelTooHigh
	ErrorServerFull
	ErrorCertificateSuspended
	ErrorInvalidControl
	ErrorInvalidPositionForRating
	ErrorUnauthorizedSoftware
	ErrorAuthenticationResponseTimeout
	ErrorInvalidClientVersion
)

var fatalErrors = map[NetworkError]bool{
	ErrorCallsignInUse:                 true,
	ErrorCallsignInvalid:               true,
	ErrorAlreadyRegistered:             true,
	ErrorInvalidLogon:                  true,
	ErrorInvalidProtocolRevision:       true,
	ErrorRequestedLevelTooHigh:         true,
	ErrorServerFull:                    true,
	ErrorCertificateSuspended:          true,
	ErrorInvalidPositionForRating:      true,
	ErrorUnauthorizedSoftware:          true,
	ErrorAuthenticationResponseTimeout: true,
	ErrorInvalidClientVersion:          true,
}

// IsFatal reports whether the server drops the connection after this error
func (e NetworkError) IsFatal() bool {
	return fatalErrors[e]
}

// FlightRules of a filed flight plan
type FlightRules int

const (
	FlightRulesIFR FlightRules = iota
	FlightRulesVFR
	FlightRulesDVFR
	FlightRulesSVFR
)

var flightRulesNames = [...]string{"IFR", "VFR", "DVFR", "SVFR"}

func (r FlightRules) String() string {
	if r >= FlightRulesIFR && r <= FlightRulesSVFR {
		return flightRulesNames[r]
	}
	return fmt.Sprintf("FlightRules(%d)", int(r))
}

// Token returns the single-letter wire form
func (r FlightRules) Token() string {
	return r.String()[:1]
}

// ParseFlightRules accepts the single-letter or full form, case-insensitive
func ParseFlightRules(s string) (FlightRules, error) {
	switch strings.ToUpper(s) {
	case "I", "IFR":
		return FlightRulesIFR, nil
	case "V", "VFR":
		return FlightRulesVFR, nil
	case "D", "DVFR":
		return FlightRulesDVFR, nil
	case "S", "SVFR":
		return FlightRulesSVFR, nil
	}
	return 0, fmt.Errorf("unknown flight rules: %s", s)
}
