package network

import (
	"crypto/md5"
	"encoding/hex"
	"sync"

	"github.com/dbehnke/fsdclient/internal/protocol"
	"github.com/dbehnke/fsdclient/internal/protocol/pdu"
)

const (
	errServerAuthTimeout  = "The server has failed to respond to the authentication challenge."
	errServerAuthMismatch = "The server has failed to respond correctly to the authentication challenge."
)

// ClientAuth is the keyed-hash capability behind the challenge exchange.
// A ClientID of 0 means the client holds no registered identity.
type ClientAuth interface {
	ClientID() uint16
	GenerateChallenge() string
	// GenerateResponse hashes challenge with key; an empty key means the
	// private key alone
	GenerateResponse(challenge, key string) string
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// authCoordinator runs both challenge roles of a session. It answers server
// challenges and, when enabled, challenges the server on a timer.
type authCoordinator struct {
	auth  ClientAuth
	clock Clock
	send  func(pdu.Pdu)
	fail  func(message string)

	mu sync.Mutex

	challengeServer bool
	callsign        string

	// responding to the server
	clientSessionKey   string
	clientChallengeKey string

	// challenging the server
	serverSessionKey    string
	serverChallengeKey  string
	lastServerChallenge string
	timer               Timer
	generation          uint64
}

func newAuthCoordinator(auth ClientAuth, clock Clock, send func(pdu.Pdu), fail func(string)) *authCoordinator {
	return &authCoordinator{auth: auth, clock: clock, send: send, fail: fail}
}

// begin prepares a fresh connection
func (a *authCoordinator) begin(challengeServer bool) {
	a.reset()
	a.mu.Lock()
	a.challengeServer = challengeServer
	a.mu.Unlock()
}

// reset stops the timer, then clears every key. Callbacks of the stopped
// timer that are already running become no-ops.
func (a *authCoordinator) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.generation++
	a.challengeServer = false
	a.callsign = ""
	a.clientSessionKey = ""
	a.clientChallengeKey = ""
	a.serverSessionKey = ""
	a.serverChallengeKey = ""
	a.lastServerChallenge = ""
}

// outbound inspects a PDU about to be sent. It fills in the initial
// challenge of $ID and arms the server challenge timer on registration.
func (a *authCoordinator) outbound(p pdu.Pdu) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.challengeServer {
		return
	}
	switch v := p.(type) {
	case *pdu.ClientIdentification:
		if v.InitialChallenge == "" {
			challenge := a.auth.GenerateChallenge()
			a.serverSessionKey = a.auth.GenerateResponse(challenge, "")
			v.InitialChallenge = challenge
		}
	case *pdu.AddPilot:
		if v.ProtocolRevision >= protocol.ProtocolRevisionVatsimAuth {
			a.armLocked(v.From)
		}
	case *pdu.AddATC:
		if v.ProtocolRevision >= protocol.ProtocolRevisionVatsimAuth {
			a.armLocked(v.From)
		}
	}
}

func (a *authCoordinator) armLocked(callsign string) {
	a.callsign = callsign
	if a.timer != nil {
		a.timer.Stop()
	}
	gen := a.generation
	a.timer = a.clock.AfterFunc(protocol.AUTH_CHALLENGE_RESPONSE_WINDOW, func() { a.fire(gen) })
}

// fire handles the challenge timer
func (a *authCoordinator) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.generation || a.timer == nil {
		a.mu.Unlock()
		return
	}
	if a.serverChallengeKey == "" {
		a.serverChallengeKey = a.serverSessionKey
		challenge := a.challengeLocked()
		a.mu.Unlock()
		a.send(challenge)
		return
	}
	if a.lastServerChallenge != "" {
		a.mu.Unlock()
		a.fail(errServerAuthTimeout)
		return
	}
	challenge := a.challengeLocked()
	a.mu.Unlock()
	a.send(challenge)
}

func (a *authCoordinator) challengeLocked() *pdu.AuthChallenge {
	a.lastServerChallenge = a.auth.GenerateChallenge()
	a.timer.Reset(protocol.AUTH_CHALLENGE_RESPONSE_WINDOW)
	return &pdu.AuthChallenge{
		Base:      pdu.Base{From: a.callsign, To: protocol.SERVER_CALLSIGN},
		Challenge: a.lastServerChallenge,
	}
}

// serverIdentified derives the client session key from $DI
func (a *authCoordinator) serverIdentified(p *pdu.ServerIdentification) {
	if a.auth.ClientID() == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clientSessionKey = a.auth.GenerateResponse(p.InitialChallenge, "")
	a.clientChallengeKey = a.clientSessionKey
}

// challengeReceived answers a server $ZC. It returns false when the client
// has no registered identity and the challenge should be published instead.
func (a *authCoordinator) challengeReceived(p *pdu.AuthChallenge) bool {
	if a.auth.ClientID() == 0 {
		return false
	}
	a.mu.Lock()
	response := a.auth.GenerateResponse(p.Challenge, a.clientChallengeKey)
	a.clientChallengeKey = md5Hex(a.clientSessionKey + response)
	a.mu.Unlock()

	a.send(&pdu.AuthResponse{
		Base:     pdu.Base{From: p.To, To: p.From},
		Response: response,
	})
	return true
}

// responseReceived verifies a server $ZR. It returns false when no server
// challenge is outstanding and the response should be published instead.
func (a *authCoordinator) responseReceived(p *pdu.AuthResponse) bool {
	a.mu.Lock()
	if !a.challengeServer || a.auth.ClientID() == 0 || a.serverChallengeKey == "" || a.lastServerChallenge == "" {
		a.mu.Unlock()
		return false
	}
	if a.timer == nil {
		a.mu.Unlock()
		return true
	}
	expected := a.auth.GenerateResponse(a.lastServerChallenge, a.serverChallengeKey)
	if p.Response != expected {
		a.mu.Unlock()
		a.fail(errServerAuthMismatch)
		return true
	}
	a.lastServerChallenge = ""
	a.serverChallengeKey = md5Hex(a.serverSessionKey + p.Response)
	a.timer.Reset(protocol.AUTH_CHALLENGE_INTERVAL)
	a.mu.Unlock()
	return true
}
