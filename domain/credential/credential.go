// Package credential provides API credential value types and pure
// token functions. This package has NO dependencies on I/O.
package credential

import (
	"encoding/hex"
	"time"

	"github.com/rankgate/rankgate/domain/plan"
)

// Token layout: 4-byte hex prefix, a dash, 16-byte hex suffix.
// The suffix alone carries 128 bits of entropy; the prefix is
// non-secret and stored for display and audit.
const (
	PrefixBytes = 4
	SuffixBytes = 16
)

// Credential represents one issued API key record (immutable value
// type). It never contains the secret token, only its fingerprint.
type Credential struct {
	ID          string
	AccountID   string
	Fingerprint string // one-way hash of the full token, unique
	Prefix      string // non-secret display prefix
	Tier        plan.Tier
	Active      bool
	CreatedAt   time.Time
}

// Info is what Resolve returns for an active credential whose owning
// account is also active.
type Info struct {
	CredentialID string
	AccountID    string
	Tier         plan.Tier
}

// Assemble joins random prefix and suffix bytes into the presented
// token form and its display prefix.
func Assemble(prefixRand, suffixRand []byte) (token, displayPrefix string) {
	displayPrefix = hex.EncodeToString(prefixRand)
	return displayPrefix + "-" + hex.EncodeToString(suffixRand), displayPrefix
}

// Resolvable reports whether a stored credential and its account's
// active flag permit resolution. Both checks run unconditionally so
// an inactive credential takes the same path as an inactive account.
func Resolvable(c Credential, accountActive bool) bool {
	credentialOK := c.Active
	accountOK := accountActive
	return credentialOK && accountOK
}
