package kdf

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2Iterations is fixed by the wire format; changing it breaks
	// decryption of every stored payload.
	PBKDF2Iterations = 1000
	KeySize          = 32
)

// HKDF fills buffer from HKDF-SHA256(secret, salt, info).
func HKDF(secret, salt, info, buffer []byte) (int, error) {
	h := hkdf.New(sha256.New, secret, salt, info)
	return io.ReadFull(h, buffer)
}

// PBKDF2 stretches a password-like secret into a KeySize master key.
func PBKDF2(secret, salt []byte) []byte {
	return pbkdf2.Key(secret, salt, PBKDF2Iterations, KeySize, sha256.New)
}

// SplitKeys expands a master key into independent encryption and MAC keys.
func SplitKeys(master, salt []byte) (encKey, macKey []byte, err error) {
	buffer := make([]byte, 2*KeySize)
	if _, err := HKDF(master, salt, []byte("zkmsg payload keys"), buffer); err != nil {
		return nil, nil, err
	}
	return buffer[:KeySize], buffer[KeySize:], nil
}
