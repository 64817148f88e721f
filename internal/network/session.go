package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dbehnke/fsdclient/internal/protocol"
	"github.com/dbehnke/fsdclient/internal/protocol/pdu"
)

var (
	ErrNotConnected     = errors.New("session is not connected")
	ErrAlreadyConnected = errors.New("session is already connected or connecting")
)

// State is the lifecycle state of a Session
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithDispatcher marshals notifications through d
func WithDispatcher(d Dispatcher) Option {
	return func(s *Session) { s.dispatcher = d }
}

// WithIgnoreUnknownPackets drops unrecognised frames instead of reporting them
func WithIgnoreUnknownPackets(ignore bool) Option {
	return func(s *Session) { s.ignoreUnknown = ignore }
}

// WithClock replaces the clock driving the authentication timers
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithResolver replaces the resolver used for hostnames
func WithResolver(r *net.Resolver) Option {
	return func(s *Session) { s.resolver = r }
}

// link is one open connection. Its reader and writer goroutines exit once
// done is closed. The outbox is unbounded so queueing never waits on the
// socket.
type link struct {
	conn   net.Conn
	done   chan struct{}
	once   sync.Once
	reader *FrameReader

	mu      sync.Mutex
	pending []string
	wake    chan struct{}
}

func newLink(conn net.Conn) *link {
	return &link{
		conn:   conn,
		done:   make(chan struct{}),
		reader: NewFrameReader(),
		wake:   make(chan struct{}, 1),
	}
}

func (l *link) close() {
	l.once.Do(func() {
		close(l.done)
		_ = l.conn.Close()
	})
}

// enqueue appends frame to the outbox. It reports false once the link is
// closed.
func (l *link) enqueue(frame string) bool {
	if l.closed() {
		return false
	}
	l.mu.Lock()
	l.pending = append(l.pending, frame)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// take removes and returns every queued frame in order
func (l *link) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.pending
	l.pending = nil
	return batch
}

func (l *link) closed() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Session is an FSD client connection. Connect and SendPdu return at once;
// outcomes arrive as notifications on Events.
type Session struct {
	log           zerolog.Logger
	dispatcher    Dispatcher
	ignoreUnknown bool
	clock         Clock
	resolver      *net.Resolver

	events *Events
	router *Router
	auth   *authCoordinator

	mu         sync.Mutex
	state      State
	link       *link
	cancelDial context.CancelFunc
	attempt    uint64 // bumped by every Connect and Disconnect
}

// NewSession creates a disconnected session authenticating with auth
func NewSession(auth ClientAuth, opts ...Option) *Session {
	s := &Session{
		log:      zerolog.Nop(),
		clock:    SystemClock{},
		resolver: net.DefaultResolver,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = NewEvents(s.dispatcher)
	s.router = NewRouter(s.events, s.log, s.ignoreUnknown)
	s.auth = newAuthCoordinator(auth, s.clock, func(p pdu.Pdu) { _ = s.SendPdu(p) }, s.fatal)
	s.router.auth = s.auth
	return s
}

// Events returns the notification registry
func (s *Session) Events() *Events {
	return s.events
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect starts connecting to address:port in the background. A literal
// IPv4 address is dialed directly; a hostname is resolved first and its
// first IPv4 address used.
func (s *Session) Connect(ctx context.Context, address string, port int, challengeServer bool) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	dialCtx, cancel := context.WithCancel(ctx)
	s.attempt++
	attempt := s.attempt
	s.state = StateConnecting
	s.cancelDial = cancel
	s.mu.Unlock()

	s.auth.begin(challengeServer)
	s.log.Info().Str("address", address).Int("port", port).Msg("connecting")

	go s.dial(dialCtx, cancel, attempt, address, port)
	return nil
}

func (s *Session) resolve(ctx context.Context, address string) (net.IP, error) {
	if ip := net.ParseIP(address); ip != nil && ip.To4() != nil {
		return ip, nil
	}
	addrs, err := s.resolver.LookupIPAddr(ctx, address)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("no IPv4 address found for %s", address)
}

// dial runs one connection attempt. It only touches session state while
// attempt is still the current one.
func (s *Session) dial(ctx context.Context, cancel context.CancelFunc, attempt uint64, address string, port int) {
	defer cancel()
	ip, err := s.resolve(ctx, address)
	var conn net.Conn
	if err == nil {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp4", net.JoinHostPort(ip.String(), strconv.Itoa(port)))
	}
	if err != nil {
		s.mu.Lock()
		if s.attempt != attempt {
			s.mu.Unlock()
			return
		}
		s.state = StateDisconnected
		s.cancelDial = nil
		s.mu.Unlock()
		s.log.Warn().Err(err).Msg("connection failed")
		s.events.Publish(NetworkError{Message: "Connection failed: " + err.Error()})
		s.events.Publish(ConnectionFailed{})
		return
	}

	l := newLink(conn)
	s.mu.Lock()
	if s.attempt != attempt {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.state = StateConnected
	s.link = l
	s.cancelDial = nil
	s.mu.Unlock()

	s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("connected")
	go s.writeLoop(l)
	s.events.Publish(Connected{})
	go s.readLoop(l)
}

// Disconnect closes the connection. It is idempotent and safe from any
// goroutine, including notification handlers.
func (s *Session) Disconnect() {
	s.auth.reset()

	s.mu.Lock()
	l := s.link
	cancel := s.cancelDial
	s.link = nil
	s.cancelDial = nil
	s.state = StateDisconnected
	s.attempt++
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if l == nil {
		return
	}
	l.close()
	s.log.Info().Msg("disconnected")
	s.events.Publish(Disconnected{})
}

// drop disconnects only if l is still the current link
func (s *Session) drop(l *link) {
	s.mu.Lock()
	current := s.link == l
	s.mu.Unlock()
	if current {
		s.Disconnect()
	}
}

func (s *Session) fatal(message string) {
	s.log.Error().Msg(message)
	s.events.Publish(NetworkError{Message: message, Fatal: true})
	s.Disconnect()
}

// SendPdu queues p for transmission. It returns ErrNotConnected when there
// is no open connection; write failures arrive as notifications.
func (s *Session) SendPdu(p pdu.Pdu) error {
	s.mu.Lock()
	l := s.link
	s.mu.Unlock()
	if l == nil {
		return ErrNotConnected
	}

	s.auth.outbound(p)
	if !l.enqueue(p.Serialize() + protocol.FSD_PACKET_DELIMITER) {
		return ErrNotConnected
	}
	return nil
}

// isResetError reports errors meaning the peer or the local side has torn
// the connection down
func isResetError(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}

func (s *Session) writeLoop(l *link) {
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}
		for _, frame := range l.take() {
			if l.closed() {
				return
			}
			if _, err := l.conn.Write(EncodeWire(frame)); err != nil {
				if l.closed() {
					return
				}
				if isResetError(err) {
					s.drop(l)
					return
				}
				s.log.Warn().Err(err).Msg("send failed")
				s.events.Publish(NetworkError{Message: "Send failed: " + err.Error()})
				continue
			}
			s.log.Debug().Msgf(">> %s", trimFrame(frame))
			s.events.Publish(RawDataSent{Data: frame})
		}
	}
}

func (s *Session) readLoop(l *link) {
	buf := make([]byte, protocol.FSD_RECEIVE_BUFFER)
	for {
		n, err := l.conn.Read(buf)
		if n > 0 && !l.closed() {
			for _, frame := range l.reader.Feed(DecodeWire(buf[:n])) {
				if l.closed() {
					break
				}
				s.log.Debug().Msgf("<< %s", frame)
				s.events.Publish(RawDataReceived{Data: frame + protocol.FSD_PACKET_DELIMITER})
				s.router.Route(frame)
			}
		}
		if err == nil {
			continue
		}
		switch {
		case l.closed():
		case errors.Is(err, io.EOF), isResetError(err):
			s.drop(l)
		default:
			s.log.Warn().Err(err).Msg("receive failed")
			s.events.Publish(NetworkError{Message: "Receive failed: " + err.Error()})
			s.drop(l)
		}
		return
	}
}

func trimFrame(frame string) string {
	if n := len(frame) - len(protocol.FSD_PACKET_DELIMITER); n >= 0 {
		return frame[:n]
	}
	return frame
}
