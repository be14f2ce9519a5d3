package id

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/cockroachdb/errors"
)

// Generator creates opaque IDs, used for reconciliation run ids and provider event keys.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct {
	prefix string
}

// NewRandomGenerator returns 16 random bytes hex encoded, after an optional prefix such as "run_".
func NewRandomGenerator(prefix string) *RandomGenerator {
	return &RandomGenerator{prefix: prefix}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	return g.prefix + hex.EncodeToString(buf), nil
}
