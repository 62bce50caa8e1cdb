package model

import "time"

type (
	// EncryptedPayload is one symmetric encryption of a message. Salt and IV
	// are fresh per encryption; MAC covers salt, IV and ciphertext.
	EncryptedPayload struct {
		Salt       []byte `json:"salt"`
		IV         []byte `json:"iv"`
		Ciphertext []byte `json:"ciphertext"`
		MAC        []byte `json:"mac"`
	}

	// Proof is a Groth16 proof over BN254 with affine coordinates as decimal
	// strings. It is immutable once produced.
	Proof struct {
		PiA      [2]string    `json:"pi_a"`
		PiB      [2][2]string `json:"pi_b"`
		PiC      [2]string    `json:"pi_c"`
		Protocol string       `json:"protocol"`
		Curve    string       `json:"curve"`
	}

	// PublicSignals are the circuit's public inputs in circuit order:
	// message hash, public key, timestamp.
	PublicSignals []string

	// Envelope is what gets written to the blob store. It never carries the
	// ephemeral private key.
	Envelope struct {
		OrderID            string            `json:"orderId"`
		Sender             string            `json:"sender"`
		Recipient          string            `json:"recipient"`
		EncryptedMessage   *EncryptedPayload `json:"encryptedMessage"`
		Proof              *Proof            `json:"proof"`
		PublicSignals      PublicSignals     `json:"publicSignals"`
		Commitment         string            `json:"commitment"`
		EphemeralPublicKey string            `json:"ephemeralPublicKey"`
		Timestamp          int64             `json:"timestamp"`
		Status             Status            `json:"status"`
	}

	// SealedSecret is an ephemeral secret encrypted to the recipient's
	// exchange key.
	SealedSecret struct {
		EphemeralKey []byte `json:"ephemeralKey" bson:"ephemeral_key"`
		Ciphertext   []byte `json:"ciphertext" bson:"ciphertext"`
	}

	// MessageRecord is the index entry for one message. A single record serves
	// both the sender's and the recipient's view.
	MessageRecord struct {
		ID                 string        `json:"id" bson:"_id"`
		OrderID            string        `json:"orderId" bson:"order_id"`
		Sender             string        `json:"sender" bson:"sender"`
		Recipient          string        `json:"recipient" bson:"recipient"`
		BlobID             string        `json:"blobId" bson:"blob_id"`
		EphemeralPublicKey string        `json:"ephemeralPublicKey" bson:"ephemeral_public_key"`
		Timestamp          int64         `json:"timestamp" bson:"timestamp"`
		Status             Status        `json:"status" bson:"status"`
		SealedSecret       *SealedSecret `json:"sealedSecret,omitempty" bson:"sealed_secret,omitempty"`
		CreatedAt          time.Time     `json:"createdAt" bson:"created_at"`
		UpdatedAt          time.Time     `json:"updatedAt" bson:"updated_at"`
	}

	// Notification is pushed to a recipient when a message for it is indexed.
	Notification struct {
		Type               string        `json:"type"`
		ID                 string        `json:"id"`
		OrderID            string        `json:"orderId"`
		Sender             string        `json:"sender"`
		Recipient          string        `json:"recipient"`
		BlobID             string        `json:"blobId"`
		EphemeralPublicKey string        `json:"ephemeralPublicKey"`
		Timestamp          int64         `json:"timestamp"`
		SealedSecret       *SealedSecret `json:"sealedSecret,omitempty"`
	}
)
