package app

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"zkmsg/internal/cryptographic/dh"
	"zkmsg/internal/cryptographic/signature"
	"zkmsg/internal/model"
	"zkmsg/internal/protocol/seal"
)

// Identity is a participant's long-term key material. It lives only on the
// participant's machine; the server sees the public halves.
type Identity struct {
	Name        string `json:"name"`
	IdentityKey []byte `json:"identityKey"`
	ExchangeKey []byte `json:"exchangeKey"`
}

// LoadOrCreateIdentity reads the identity at path, generating and saving a new
// one for name if the file does not exist.
func LoadOrCreateIdentity(path, name string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var id Identity
		if err := json.Unmarshal(data, &id); err != nil {
			return nil, fmt.Errorf("identity %s: %w", path, err)
		}
		if id.Name != name {
			return nil, fmt.Errorf("identity %s belongs to %q, not %q", path, id.Name, name)
		}
		if len(id.IdentityKey) != ed25519.PrivateKeySize || len(id.ExchangeKey) != dh.KeySize {
			return nil, fmt.Errorf("identity %s: bad key sizes", path)
		}
		return &id, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	_, ikPriv, err := signature.NewEd25519Keypair()
	if err != nil {
		return nil, err
	}
	xPriv, _, err := dh.NewX25519KeyPair()
	if err != nil {
		return nil, err
	}
	id := &Identity{Name: name, IdentityKey: ikPriv, ExchangeKey: xPriv[:]}

	data, err = json.MarshalIndent(id, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, err
	}
	return id, nil
}

// Keys returns the public bundle to register with the server.
func (id *Identity) Keys() model.ParticipantKeys {
	xPub := dh.PublicKey([dh.KeySize]byte(id.ExchangeKey))
	return model.ParticipantKeys{
		IdentityKey: ed25519.PrivateKey(id.IdentityKey).Public().(ed25519.PublicKey),
		ExchangeKey: xPub[:],
		Signature:   signature.ED25519Sign(id.IdentityKey, xPub[:]),
	}
}

// OpenSecret recovers the ephemeral secret sealed to this identity.
func (id *Identity) OpenSecret(n *model.Notification) (string, error) {
	if n.SealedSecret == nil {
		return "", fmt.Errorf("message %s carries no sealed secret", n.ID)
	}
	secret, err := seal.Open([dh.KeySize]byte(id.ExchangeKey), n.SealedSecret, []byte(n.EphemeralPublicKey))
	if err != nil {
		return "", fmt.Errorf("open secret for %s: %w", n.ID, err)
	}
	return string(secret), nil
}
