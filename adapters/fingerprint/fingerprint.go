// Package fingerprint derives one-way lookup fingerprints of API
// tokens. Unlike a password hash, the derivation must be
// deterministic (the fingerprint column carries a unique index and is
// the lookup key), so a salted scheme like bcrypt cannot serve here.
package fingerprint

import (
	"encoding/hex"

	"github.com/rankgate/rankgate/ports"
	"golang.org/x/crypto/blake2b"
)

// Blake2b fingerprints tokens with BLAKE2b-256.
type Blake2b struct{}

// New creates the default fingerprinter.
func New() Blake2b {
	return Blake2b{}
}

// Fingerprint returns the hex-encoded BLAKE2b-256 digest of token.
func (Blake2b) Fingerprint(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Ensure interface compliance.
var _ ports.Fingerprinter = Blake2b{}
