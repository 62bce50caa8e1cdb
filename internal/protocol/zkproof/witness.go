package zkproof

import (
	"fmt"
	"math/big"
	"strconv"

	"zkmsg/internal/cryptographic/field"
	"zkmsg/internal/cryptographic/keys"
	"zkmsg/internal/cryptographic/poseidon"
	"zkmsg/internal/errs"
	"zkmsg/internal/model"
)

// Witness is the full prover input. Every field is a canonical decimal
// field element; this textual form is part of the circuit contract.
type Witness struct {
	Message     string `json:"message"`
	PublicKey   string `json:"publicKey"`
	PrivateKey  string `json:"privateKey"`
	MessageHash string `json:"messageHash"`
	Timestamp   string `json:"timestamp"`
}

// BuildWitness encodes the inputs and checks they satisfy the circuit
// relations, so a bad key pair is reported as a validation error rather than
// an opaque prover failure.
func BuildWitness(h *poseidon.Hasher, message, publicKey, privateKey string, timestamp int64) (*Witness, error) {
	if message == "" {
		return nil, errs.Validation("message is empty")
	}
	if timestamp < 0 {
		return nil, errs.Validation("negative timestamp %d", timestamp)
	}

	pk, err := field.ScalarFromHex(publicKey)
	if err != nil {
		return nil, err
	}
	if !field.IsCanonical(pk) {
		return nil, errs.Validation("public key is not a field element")
	}

	sk, err := keys.PrivateScalar(privateKey)
	if err != nil {
		return nil, err
	}
	if h.Hash(sk).Cmp(pk) != 0 {
		return nil, errs.Validation("public key does not match private key")
	}

	m := field.ScalarFromString(message)

	return &Witness{
		Message:     field.ToDecimal(m),
		PublicKey:   field.ToDecimal(pk),
		PrivateKey:  field.ToDecimal(sk),
		MessageHash: field.ToDecimal(h.Hash(m)),
		Timestamp:   strconv.FormatInt(timestamp, 10),
	}, nil
}

// PublicSignals returns the public inputs in circuit order.
func (w *Witness) PublicSignals() model.PublicSignals {
	return model.PublicSignals{w.MessageHash, w.PublicKey, w.Timestamp}
}

// Assignment converts the witness into a full circuit assignment.
func (w *Witness) Assignment() (*MessageCircuit, error) {
	values := make([]*big.Int, 5)
	for i, s := range []string{w.MessageHash, w.PublicKey, w.Timestamp, w.Message, w.PrivateKey} {
		v, err := field.ParseDecimal(s)
		if err != nil {
			return nil, fmt.Errorf("witness field %d: %w", i, err)
		}
		values[i] = v
	}
	return &MessageCircuit{
		MessageHash: values[0],
		PublicKey:   values[1],
		Timestamp:   values[2],
		Message:     values[3],
		PrivateKey:  values[4],
	}, nil
}

// publicAssignment parses public signals into a public-only assignment.
func publicAssignment(signals model.PublicSignals) (*MessageCircuit, error) {
	if len(signals) != NumPublic {
		return nil, fmt.Errorf("%w: expected %d public signals, got %d", errs.ErrProofFormat, NumPublic, len(signals))
	}
	values := make([]*big.Int, NumPublic)
	for i, s := range signals {
		v, err := field.ParseDecimal(s)
		if err != nil {
			return nil, fmt.Errorf("%w: public signal %d: %v", errs.ErrProofFormat, i, err)
		}
		values[i] = v
	}
	return &MessageCircuit{
		MessageHash: values[0],
		PublicKey:   values[1],
		Timestamp:   values[2],
	}, nil
}
