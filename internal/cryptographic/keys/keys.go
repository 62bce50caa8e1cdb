package keys

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"zkmsg/internal/cryptographic/field"
	"zkmsg/internal/cryptographic/poseidon"
	"zkmsg/internal/errs"
	"zkmsg/internal/model"
)

// PrivateKeySize is the entropy drawn for a secret scalar, in bytes.
const PrivateKeySize = 32

// GenerateKeyPair draws a fresh secret scalar and derives its public scalar.
// An entropy failure is returned as is; it is not retried.
func GenerateKeyPair(h *poseidon.Hasher) (*model.KeyPair, error) {
	var priv [PrivateKeySize]byte
	if _, err := rand.Read(priv[:]); err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	privHex := hex.EncodeToString(priv[:])
	pub, err := DerivePublicKey(h, privHex)
	if err != nil {
		return nil, err
	}

	return &model.KeyPair{
		PublicKey:  pub,
		PrivateKey: privHex,
	}, nil
}

// PrivateScalar parses a hex private key and reduces it into the field.
func PrivateScalar(privateKey string) (*big.Int, error) {
	v, err := field.ScalarFromHex(privateKey)
	if err != nil {
		return nil, err
	}
	if v.Sign() == 0 {
		return nil, errs.Validation("private key is empty or zero")
	}
	return field.Reduce(v), nil
}

// DerivePublicKey returns H(privateKey mod p) as 0x-prefixed hex.
func DerivePublicKey(h *poseidon.Hasher, privateKey string) (string, error) {
	k, err := PrivateScalar(privateKey)
	if err != nil {
		return "", err
	}
	return field.ToHex(h.Hash(k)), nil
}

// Matches reports whether publicKey is the key derived from privateKey. Both
// sides are compared as field elements so hex formatting does not matter.
func Matches(h *poseidon.Hasher, publicKey, privateKey string) (bool, error) {
	want, err := field.ScalarFromHex(publicKey)
	if err != nil {
		return false, err
	}
	k, err := PrivateScalar(privateKey)
	if err != nil {
		return false, err
	}
	return h.Hash(k).Cmp(want) == 0, nil
}
