// Package commitment binds a message, a public key and a timestamp into one
// field element, H(message, publicKey, timestamp), and checks such bindings
// against a replay window.
package commitment

import (
	"math/big"

	"zkmsg/internal/cryptographic/field"
	"zkmsg/internal/cryptographic/poseidon"
	"zkmsg/internal/errs"
)

const (
	// ReplayWindow is the maximum age of a commitment, in seconds. A message
	// exactly ReplayWindow old still verifies.
	ReplayWindow int64 = 86400

	// MaxClockSkew is how far in the future a timestamp may lie.
	MaxClockSkew int64 = 300
)

type Scheme struct {
	hasher *poseidon.Hasher
	window int64
	skew   int64
}

func New(h *poseidon.Hasher) *Scheme {
	return &Scheme{
		hasher: h,
		window: ReplayWindow,
		skew:   MaxClockSkew,
	}
}

// Commit returns the decimal commitment over message, publicKey and timestamp.
func (s *Scheme) Commit(message, publicKey string, timestamp int64) (string, error) {
	c, err := s.commit(message, publicKey, timestamp)
	if err != nil {
		return "", err
	}
	return field.ToDecimal(c), nil
}

// Verify recomputes the commitment and checks the replay window. Stale,
// future-dated and mismatching commitments return false; only malformed
// input returns an error. Timestamps more than MaxClockSkew ahead of now are
// rejected too, which is stricter than an age-only window: a commitment from
// a sender whose clock runs fast fails here even though it is not stale.
func (s *Scheme) Verify(message, publicKey, commitment string, timestamp, now int64) (bool, error) {
	want, err := field.ParseDecimal(commitment)
	if err != nil {
		return false, err
	}
	got, err := s.commit(message, publicKey, timestamp)
	if err != nil {
		return false, err
	}

	if !s.InWindow(timestamp, now) {
		return false, nil
	}
	return got.Cmp(want) == 0, nil
}

// InWindow reports whether timestamp is at most window seconds old and at
// most skew seconds ahead of now.
func (s *Scheme) InWindow(timestamp, now int64) bool {
	age := now - timestamp
	return age <= s.window && age >= -s.skew
}

func (s *Scheme) commit(message, publicKey string, timestamp int64) (*big.Int, error) {
	if timestamp < 0 {
		return nil, errs.Validation("negative timestamp %d", timestamp)
	}
	pk, err := field.ScalarFromHex(publicKey)
	if err != nil {
		return nil, err
	}
	m := field.ScalarFromString(message)
	return s.hasher.Hash(m, pk, big.NewInt(timestamp)), nil
}
