package dh

import (
	"bytes"
	"crypto/rand"
	"fmt"

	"zkmsg/internal/errs"

	"golang.org/x/crypto/curve25519"
)

const KeySize = curve25519.ScalarSize

// NewX25519KeyPair generates an X25519 exchange key pair.
func NewX25519KeyPair() (priv, pub [KeySize]byte, err error) {
	_, err = rand.Read(priv[:])
	if err != nil {
		return priv, pub, fmt.Errorf("failed to generate private key: %w", err)
	}
	curve25519.ScalarBaseMult(&pub, &priv)
	return priv, pub, nil
}

// PublicKey returns the X25519 public key for priv.
func PublicKey(priv [KeySize]byte) [KeySize]byte {
	var pub [KeySize]byte
	curve25519.ScalarBaseMult(&pub, &priv)
	return pub
}

// X25519SharedSecret computes priv * pub. Low-order peer keys are rejected.
func X25519SharedSecret(priv, pub [KeySize]byte) ([]byte, error) {
	return curve25519.X25519(priv[:], pub[:])
}

// ToKey copies b into a fixed-size key, rejecting wrong lengths and all-zero keys.
func ToKey(b []byte) ([KeySize]byte, error) {
	var k [KeySize]byte
	if len(b) != KeySize {
		return k, errs.Validation("x25519 key must be %d bytes, got %d", KeySize, len(b))
	}
	if bytes.Equal(b, make([]byte, KeySize)) {
		return k, errs.Validation("x25519 key is all zero")
	}
	copy(k[:], b)
	return k, nil
}
