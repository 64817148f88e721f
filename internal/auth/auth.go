// Package auth provides the keyed-hash client authentication used by the
// FSD challenge exchange.
package auth

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// SharedKey authenticates with a private key issued alongside a client id
type SharedKey struct {
	ID  uint16
	Key string
}

// None is an unregistered client. Its zero id disables the challenge
// exchange.
var None = SharedKey{}

// NewSharedKey returns a SharedKey for a registered client
func NewSharedKey(id uint16, key string) SharedKey {
	return SharedKey{ID: id, Key: key}
}

func (k SharedKey) ClientID() uint16 { return k.ID }

// GenerateChallenge returns a fresh random hex challenge
func (k SharedKey) GenerateChallenge() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:16]
}

// GenerateResponse hashes challenge. With an empty key the private key
// seeds the hash; otherwise key chains from an earlier response.
func (k SharedKey) GenerateResponse(challenge, key string) string {
	if key == "" {
		return md5Hex(k.Key + challenge)
	}
	return md5Hex(key + challenge)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
