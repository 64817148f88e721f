package auth

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateResponse(t *testing.T) {
	k := NewSharedKey(0x1234, "secret")
	sum := md5.Sum([]byte("secretabc"))
	assert.Equal(t, hex.EncodeToString(sum[:]), k.GenerateResponse("abc", ""))

	sum = md5.Sum([]byte("chainabc"))
	assert.Equal(t, hex.EncodeToString(sum[:]), k.GenerateResponse("abc", "chain"))

	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", None.GenerateResponse("abc", ""))
}

func TestGenerateChallenge(t *testing.T) {
	k := NewSharedKey(1, "k")
	hexPattern := regexp.MustCompile(`^[0-9a-f]{16}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		c := k.GenerateChallenge()
		assert.Regexp(t, hexPattern, c)
		assert.False(t, seen[c], "duplicate challenge %s", c)
		seen[c] = true
	}
}

func TestClientID(t *testing.T) {
	assert.Equal(t, uint16(0), None.ClientID())
	assert.Equal(t, uint16(0xb1d3), NewSharedKey(0xb1d3, "k").ClientID())
}
