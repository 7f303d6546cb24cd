package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

// KeyGenerator produces opaque bearer tokens: session keys and password
// reset tokens. Keys must be cryptographically random, not merely unique.
type KeyGenerator interface {
	NewKey(size int) (string, error)
}

type RandomKeyGenerator struct{}

func NewRandomKeyGenerator() *RandomKeyGenerator {
	return &RandomKeyGenerator{}
}

func (g *RandomKeyGenerator) NewKey(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
