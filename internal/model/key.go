package model

import "time"

type (
	// KeyPair is an ephemeral protocol key pair. PrivateKey is 64 hex chars,
	// PublicKey is the 0x-prefixed hex of H(PrivateKey).
	KeyPair struct {
		PublicKey  string `json:"publicKey"`
		PrivateKey string `json:"privateKey"`
	}

	// ParticipantKeys is what a participant publishes so senders can seal
	// ephemeral secrets to it. Signature is IdentityKey's ed25519 signature
	// over ExchangeKey.
	ParticipantKeys struct {
		IdentityKey []byte `json:"identityKey" bson:"identity_key"`
		ExchangeKey []byte `json:"exchangeKey" bson:"exchange_key"`
		Signature   []byte `json:"signature" bson:"signature"`
	}

	Participant struct {
		Name      string          `json:"name" bson:"_id"`
		Keys      ParticipantKeys `json:"keys" bson:"keys"`
		CreatedAt time.Time       `json:"createdAt" bson:"created_at"`
		UpdatedAt time.Time       `json:"updatedAt" bson:"updated_at"`
	}
)
