// Package seal encrypts a message's ephemeral secret to the recipient's X25519
// exchange key, so the index can hold it without being able to read it.
package seal

import (
	"fmt"

	"zkmsg/internal/cryptographic/dh"
	"zkmsg/internal/cryptographic/encryption"
	"zkmsg/internal/cryptographic/kdf"
	"zkmsg/internal/model"
)

var info = []byte("zkmsg sealed secret")

// Seal encrypts secret to recipientPub. aad binds the box to its message; the
// ephemeral public key of the message is what callers pass.
func Seal(recipientPub [dh.KeySize]byte, secret, aad []byte) (*model.SealedSecret, error) {
	ekPriv, ekPub, err := dh.NewX25519KeyPair()
	if err != nil {
		return nil, err
	}

	shared, err := dh.X25519SharedSecret(ekPriv, recipientPub)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}

	key, err := sealKey(shared, ekPub, recipientPub)
	if err != nil {
		return nil, err
	}

	ct, err := encryption.AEADEncrypt(key, secret, aad)
	if err != nil {
		return nil, err
	}

	return &model.SealedSecret{
		EphemeralKey: ekPub[:],
		Ciphertext:   ct,
	}, nil
}

// Open recovers the secret with the recipient's exchange private key.
func Open(recipientPriv [dh.KeySize]byte, s *model.SealedSecret, aad []byte) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("open: no sealed secret")
	}
	ekPub, err := dh.ToKey(s.EphemeralKey)
	if err != nil {
		return nil, err
	}

	shared, err := dh.X25519SharedSecret(recipientPriv, ekPub)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	key, err := sealKey(shared, ekPub, dh.PublicKey(recipientPriv))
	if err != nil {
		return nil, err
	}
	return encryption.AEADDecrypt(key, s.Ciphertext, aad)
}

// sealKey derives the box key from the DH output, salted with both public
// keys so a box cannot be replayed to another recipient.
func sealKey(shared []byte, ekPub, recipientPub [dh.KeySize]byte) ([]byte, error) {
	salt := make([]byte, 0, 2*dh.KeySize)
	salt = append(salt, ekPub[:]...)
	salt = append(salt, recipientPub[:]...)

	key := make([]byte, kdf.KeySize)
	if _, err := kdf.HKDF(shared, salt, info, key); err != nil {
		return nil, err
	}
	return key, nil
}
