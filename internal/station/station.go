// Package station runs an ATIS station on top of an FSD session: it
// registers on server identification, keeps its position fresh, answers
// client queries and notifies subscribers of ATIS changes.
package station

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dbehnke/fsdclient/internal/config"
	"github.com/dbehnke/fsdclient/internal/network"
	"github.com/dbehnke/fsdclient/internal/protocol"
	"github.com/dbehnke/fsdclient/internal/protocol/pdu"
)

const coordinationCapability = "ONGOINGCOORD=1"

var atisLinePattern = regexp.MustCompile(`(.{1,64})(?:\s|$)`)

// Session is the part of a network session a station drives
type Session interface {
	Events() *network.Events
	Connect(ctx context.Context, address string, port int, challengeServer bool) error
	Disconnect()
	SendPdu(p pdu.Pdu) error
}

// Notifications published on the session's events
type (
	// Killed is raised when the server removes the station
	Killed struct{ Reason string }
	// ServerChange is raised when the server asks the station to move
	ServerChange struct{ NewServer string }
	// Alert reports a server error worth showing to the operator
	Alert struct {
		Message string
		Fatal   bool
	}
)

// Config describes the station and the client it identifies as
type Config struct {
	Ident            string
	Type             config.StationType
	RealName         string
	CID              string
	Password         string
	Rating           protocol.NetworkRating
	Facility         protocol.NetworkFacility
	FrequencyHz      int
	Lat              float64
	Lon              float64
	VisRange         int
	PositionInterval time.Duration
	ATISText         string
	ATISLetter       string

	ClientID     uint16
	ClientName   string
	VersionMajor int
	VersionMinor int
	SysUID       string
}

// ConfigFromFile builds a station Config from the loaded configuration
func ConfigFromFile(cfg *config.Config, sysUID string) Config {
	return Config{
		Ident:            cfg.GetIdent(),
		Type:             cfg.GetStationType(),
		RealName:         cfg.GetRealName(),
		CID:              cfg.GetCID(),
		Password:         cfg.GetPassword(),
		Rating:           cfg.GetRating(),
		Facility:         cfg.GetFacility(),
		FrequencyHz:      cfg.GetFrequencyHz(),
		Lat:              cfg.GetLatitude(),
		Lon:              cfg.GetLongitude(),
		VisRange:         cfg.GetVisRange(),
		PositionInterval: cfg.GetPositionInterval(),
		ATISText:         cfg.GetATISText(),
		ATISLetter:       cfg.GetATISLetter(),
		ClientID:         cfg.GetClientID(),
		ClientName:       cfg.GetClientName(),
		VersionMajor:     cfg.GetVersionMajor(),
		VersionMinor:     cfg.GetVersionMinor(),
		SysUID:           sysUID,
	}
}

// Option configures a Station
type Option func(*Station)

// WithLogger sets the station logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Station) { s.log = log }
}

// WithClock replaces the clock driving position updates
func WithClock(c network.Clock) Option {
	return func(s *Station) { s.clock = c }
}

// Station is safe for concurrent use
type Station struct {
	session  Session
	cfg      Config
	callsign string
	log      zerolog.Logger
	clock    network.Clock
	subs     []*network.Subscription

	mu           sync.Mutex
	atisText     string
	atisLetter   string
	publicIP     string
	capabilities map[string]bool
	subscribers  []string
	coordination []string
	ticker       network.Timer
	generation   uint64
}

// New wires a station onto session
func New(session Session, cfg Config, opts ...Option) *Station {
	if cfg.PositionInterval <= 0 {
		cfg.PositionInterval = 15 * time.Second
	}
	if cfg.VisRange == 0 {
		cfg.VisRange = 50
	}
	if cfg.ATISLetter == "" {
		cfg.ATISLetter = "A"
	}
	s := &Station{
		session:      session,
		cfg:          cfg,
		callsign:     strings.ToUpper(cfg.Ident) + cfg.Type.Suffix(),
		log:          zerolog.Nop(),
		clock:        network.SystemClock{},
		atisText:     cfg.ATISText,
		atisLetter:   cfg.ATISLetter,
		capabilities: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("callsign", s.callsign).Logger()

	e := session.Events()
	s.subs = []*network.Subscription{
		network.On(e, s.onServerIdentification),
		network.On(e, s.onClientQuery),
		network.On(e, s.onClientQueryResponse),
		network.On(e, s.onATCPosition),
		network.On(e, s.onDeleteATC),
		network.On(e, s.onTextMessage),
		network.On(e, s.onKillRequest),
		network.On(e, s.onChangeServer),
		network.On(e, s.onProtocolError),
		network.On(e, func(network.Disconnected) { s.stopTicker() }),
	}
	return s
}

// Callsign returns the station callsign
func (s *Station) Callsign() string {
	return s.callsign
}

// Connect starts the session connection; registration follows the
// server identification
func (s *Station) Connect(ctx context.Context, address string, port int, challengeServer bool) error {
	return s.session.Connect(ctx, address, port, challengeServer)
}

// Disconnect signs off and closes the session
func (s *Station) Disconnect() {
	_ = s.session.SendPdu(&pdu.DeleteATC{Base: pdu.Base{From: s.callsign}, CID: strings.TrimSpace(s.cfg.CID)})
	s.session.Disconnect()
	s.stopTicker()

	s.mu.Lock()
	s.capabilities = make(map[string]bool)
	s.subscribers = nil
	s.coordination = nil
	s.mu.Unlock()
}

// Close detaches the station from the session's events
func (s *Station) Close() {
	s.stopTicker()
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}

// SetATIS replaces the served ATIS text and letter
func (s *Station) SetATIS(letter, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.atisLetter = strings.ToUpper(letter)
	s.atisText = text
}

// PublicIP returns the address the server reported for this client
func (s *Station) PublicIP() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicIP
}

// Subscribers returns the stations receiving update notifications
func (s *Station) Subscribers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.subscribers)
}

// CoordinationSubscribers returns the stations that advertised ongoing
// coordination support
func (s *Station) CoordinationSubscribers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.coordination)
}

// Notify tells subscribers and the network that the ATIS changed
func (s *Station) Notify(letter, wind, pressure string) {
	letter = strings.ToUpper(letter)
	wind = strings.TrimSpace(wind)
	pressure = strings.TrimSpace(pressure)

	s.mu.Lock()
	s.atisLetter = letter
	subscribers := slices.Clone(s.subscribers)
	coordination := slices.Clone(s.coordination)
	s.mu.Unlock()

	ident := strings.ToUpper(s.cfg.Ident)
	for _, to := range subscribers {
		s.text(to, fmt.Sprintf("***%s ATIS UPDATE: %s %s - %s", ident, letter, wind, pressure))
	}
	for _, to := range coordination {
		s.text(to, fmt.Sprintf("ATIS info:%s:%s:", ident, letter))
	}
	s.send(&pdu.ClientQuery{
		Base:      pdu.Base{From: s.callsign, To: protocol.CLIENT_QUERY_BROADCAST_RECIPIENT},
		QueryType: protocol.QueryNewATIS,
		Payload:   []string{fmt.Sprintf("%s:%s %s", letter, wind, pressure)},
	})
}

func (s *Station) send(p pdu.Pdu) {
	if err := s.session.SendPdu(p); err != nil {
		s.log.Debug().Err(err).Msg("send skipped")
	}
}

func (s *Station) text(to, message string) {
	s.send(&pdu.TextMessage{Base: pdu.Base{From: s.callsign, To: to}, Message: message})
}

// fsdFrequency encodes Hz as the position frequency field
func (s *Station) fsdFrequency() int {
	return s.cfg.FrequencyHz/1000 - 100000
}

func (s *Station) sendPosition() {
	s.send(&pdu.ATCPosition{
		Base:            pdu.Base{From: s.callsign},
		Frequencies:     []int{s.fsdFrequency()},
		Facility:        s.cfg.Facility,
		VisibilityRange: s.cfg.VisRange,
		Rating:          s.cfg.Rating,
		Lat:             s.cfg.Lat,
		Lon:             s.cfg.Lon,
	})
}

func (s *Station) startTicker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.generation++
	gen := s.generation
	s.ticker = s.clock.AfterFunc(s.cfg.PositionInterval, func() { s.tick(gen) })
}

func (s *Station) tick(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.ticker == nil {
		s.mu.Unlock()
		return
	}
	s.ticker.Reset(s.cfg.PositionInterval)
	s.mu.Unlock()
	s.sendPosition()
}

func (s *Station) stopTicker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.generation++
}

func (s *Station) onServerIdentification(*pdu.ServerIdentification) {
	s.log.Info().Msg("server identified, registering")
	s.send(&pdu.ClientIdentification{
		Base:         pdu.Base{From: s.callsign},
		ClientID:     s.cfg.ClientID,
		ClientName:   s.cfg.ClientName,
		MajorVersion: s.cfg.VersionMajor,
		MinorVersion: s.cfg.VersionMinor,
		CID:          strings.TrimSpace(s.cfg.CID),
		SysUID:       s.cfg.SysUID,
	})
	s.send(&pdu.AddATC{
		Base:             pdu.Base{From: s.callsign},
		RealName:         s.cfg.RealName,
		CID:              strings.TrimSpace(s.cfg.CID),
		Password:         s.cfg.Password,
		Rating:           s.cfg.Rating,
		ProtocolRevision: protocol.ProtocolRevisionVatsimAuth,
	})
	s.send(&pdu.ClientQuery{
		Base:      pdu.Base{From: s.callsign, To: protocol.SERVER_CALLSIGN},
		QueryType: protocol.QueryPublicIP,
	})
	s.sendPosition()
	s.startTicker()
}

func (s *Station) respond(to string, q protocol.ClientQueryType, payload ...string) {
	s.send(&pdu.ClientQueryResponse{
		Base:      pdu.Base{From: s.callsign, To: to},
		QueryType: q,
		Payload:   payload,
	})
}

func (s *Station) onClientQuery(p *pdu.ClientQuery) {
	switch p.QueryType {
	case protocol.QueryCapabilities:
		s.respond(p.From, protocol.QueryCapabilities, "VERSION=1", "ATCINFO=1")
	case protocol.QueryRealName:
		s.respond(p.From, protocol.QueryRealName,
			s.cfg.RealName,
			s.cfg.ClientName+" Connection "+s.cfg.Ident,
			strconv.Itoa(int(s.cfg.Rating)))
	case protocol.QueryATIS:
		s.sendATIS(p.From)
	case protocol.QueryINF:
		msg := s.infoLine()
		s.text(p.From, msg)
		s.respond(p.From, protocol.QueryINF, msg)
	}
}

// ATISLines splits text into upper-cased lines of at most 64 characters
// broken on whitespace, with delimiters removed
func ATISLines(text string) []string {
	var lines []string
	for _, m := range atisLinePattern.FindAllStringSubmatch(text, -1) {
		lines = append(lines, strings.ToUpper(strings.ReplaceAll(m[1], protocol.FSD_DELIMITER, "")))
	}
	return lines
}

func (s *Station) sendATIS(to string) {
	s.mu.Lock()
	text, letter := s.atisText, s.atisLetter
	s.mu.Unlock()

	lines := ATISLines(text)
	for _, line := range lines {
		s.respond(to, protocol.QueryATIS, "T", line)
	}
	s.respond(to, protocol.QueryATIS, "E", strconv.Itoa(len(lines)+1))
	s.respond(to, protocol.QueryATIS, "A", letter)
}

func (s *Station) infoLine() string {
	s.mu.Lock()
	ip := s.publicIP
	s.mu.Unlock()
	return fmt.Sprintf("CID=%s %s %d.%d IP=%s SYS_UID=%s FSVER=N/A LT=%s LO=%s AL=0 %s",
		strings.TrimSpace(s.cfg.CID),
		s.cfg.ClientName,
		s.cfg.VersionMajor, s.cfg.VersionMinor,
		ip,
		s.cfg.SysUID,
		strconv.FormatFloat(s.cfg.Lat, 'f', -1, 64),
		strconv.FormatFloat(s.cfg.Lon, 'f', -1, 64),
		s.cfg.RealName)
}

func (s *Station) onClientQueryResponse(p *pdu.ClientQueryResponse) {
	switch p.QueryType {
	case protocol.QueryPublicIP:
		ip := ""
		if len(p.Payload) > 0 {
			ip = p.Payload[0]
		}
		s.mu.Lock()
		s.publicIP = ip
		s.mu.Unlock()
	case protocol.QueryCapabilities:
		s.mu.Lock()
		s.capabilities[p.From] = true
		if slices.Contains(p.Payload, coordinationCapability) && !slices.Contains(s.coordination, p.From) {
			s.coordination = append(s.coordination, p.From)
		}
		s.mu.Unlock()
	}
}

func (s *Station) onATCPosition(p *pdu.ATCPosition) {
	if strings.EqualFold(p.From, s.callsign) {
		return
	}
	s.mu.Lock()
	known := s.capabilities[p.From]
	s.mu.Unlock()
	if !known {
		s.send(&pdu.ClientQuery{
			Base:      pdu.Base{From: s.callsign, To: p.From},
			QueryType: protocol.QueryCapabilities,
		})
	}
}

func (s *Station) onDeleteATC(p *pdu.DeleteATC) {
	from := strings.ToUpper(p.From)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = slices.DeleteFunc(s.subscribers, func(c string) bool { return c == from })
	s.coordination = slices.DeleteFunc(s.coordination, func(c string) bool { return strings.ToUpper(c) == from })
}

func (s *Station) onTextMessage(p *pdu.TextMessage) {
	from := strings.ToUpper(p.From)
	switch strings.ToUpper(strings.TrimSpace(p.Message)) {
	case "SUBSCRIBE":
		s.mu.Lock()
		already := slices.Contains(s.subscribers, from)
		if !already {
			s.subscribers = append(s.subscribers, from)
		}
		s.mu.Unlock()
		if already {
			s.text(from, fmt.Sprintf("You are already subscribed to %[1]s update notifications. To stop receiving these notifications, reply or send a private message to %[1]s with the message UNSUBSCRIBE.", s.callsign))
		} else {
			s.text(from, fmt.Sprintf("You are now subscribed to receive %[1]s update notifications. To stop receiving these notifications, reply or send a private message to %[1]s with the message UNSUBSCRIBE.", s.callsign))
		}
	case "UNSUBSCRIBE":
		s.mu.Lock()
		was := slices.Contains(s.subscribers, from)
		s.subscribers = slices.DeleteFunc(s.subscribers, func(c string) bool { return c == from })
		s.mu.Unlock()
		if was {
			s.text(from, fmt.Sprintf("You have been unsubscribed from %[1]s update notifications. You may subscribe again by sending a private message to %[1]s with the message SUBSCRIBE.", s.callsign))
		}
	}
}

func (s *Station) onKillRequest(p *pdu.KillRequest) {
	s.log.Warn().Str("reason", p.Reason).Msg("removed from the network")
	s.session.Events().Publish(Killed{Reason: p.Reason})
	s.Disconnect()
}

func (s *Station) onChangeServer(p *pdu.ChangeServer) {
	s.log.Info().Str("server", p.NewServer).Msg("server change requested")
	s.session.Events().Publish(ServerChange{NewServer: p.NewServer})
}

var errorMessages = map[protocol.NetworkError]string{
	protocol.ErrorCallsignInUse:         "ATIS callsign already in use.",
	protocol.ErrorUnauthorizedSoftware:  "Unauthorized client software.",
	protocol.ErrorInvalidLogon:          "Invalid User ID or Password. Please try again.",
	protocol.ErrorCertificateSuspended:  "User suspended.",
	protocol.ErrorRequestedLevelTooHigh: "Invalid Network Rating for User ID.",
}

func (s *Station) onProtocolError(p *pdu.ProtocolError) {
	msg, ok := errorMessages[p.ErrorType]
	if !ok {
		if !p.Fatal {
			s.log.Debug().Int("code", int(p.ErrorType)).Str("message", p.Message).Msg("server error")
			return
		}
		msg = p.Message
	}
	s.log.Error().Int("code", int(p.ErrorType)).Msg(msg)
	s.session.Events().Publish(Alert{Message: msg, Fatal: p.Fatal})
}
