package zkproof

import (
	"bytes"
	"encoding/json"
	"fmt"

	"zkmsg/internal/errs"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
)

const vkeyVersion = 1

// VerificationKey is the JSON verification-key artifact. Key holds gnark's
// binary encoding; the other fields let readers reject a foreign key early.
type VerificationKey struct {
	Version  int    `json:"version"`
	Protocol string `json:"protocol"`
	Curve    string `json:"curve"`
	NPublic  int    `json:"nPublic"`
	Key      []byte `json:"key"`

	vk groth16.VerifyingKey
}

func NewVerificationKey(vk groth16.VerifyingKey) (*VerificationKey, error) {
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize verifying key: %w", err)
	}
	return &VerificationKey{
		Version:  vkeyVersion,
		Protocol: ProtocolGroth16,
		Curve:    CurveBN254,
		NPublic:  vk.NbPublicWitness(),
		Key:      buf.Bytes(),
		vk:       vk,
	}, nil
}

// ParseVerificationKey decodes and validates a JSON artifact.
func ParseVerificationKey(data []byte) (*VerificationKey, error) {
	var v VerificationKey
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: verification key: %v", errs.ErrProofFormat, err)
	}
	if err := v.load(); err != nil {
		return nil, err
	}
	return &v, nil
}

func (v *VerificationKey) load() error {
	if v.Version != vkeyVersion || v.Protocol != ProtocolGroth16 || v.Curve != CurveBN254 {
		return fmt.Errorf("%w: unsupported verification key v%d %s/%s", errs.ErrProofFormat, v.Version, v.Protocol, v.Curve)
	}
	if v.NPublic != NumPublic {
		return fmt.Errorf("%w: verification key expects %d public inputs", errs.ErrProofFormat, v.NPublic)
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(v.Key)); err != nil {
		return fmt.Errorf("%w: verification key: %v", errs.ErrProofFormat, err)
	}
	if vk.NbPublicWitness() != v.NPublic {
		return fmt.Errorf("%w: verification key header disagrees with key", errs.ErrProofFormat)
	}
	v.vk = vk
	return nil
}

func (v *VerificationKey) groth16() (groth16.VerifyingKey, error) {
	if v == nil || v.vk == nil {
		return nil, fmt.Errorf("%w: verification key not loaded", errs.ErrProofFormat)
	}
	return v.vk, nil
}
