package zkproof

import (
	"fmt"
	"math/big"

	"zkmsg/internal/errs"
	"zkmsg/internal/model"

	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

const (
	ProtocolGroth16 = "groth16"
	CurveBN254      = "bn254"
)

var baseModulus = fp.Modulus()

func encodeProof(p groth16.Proof) (*model.Proof, error) {
	bp, ok := p.(*groth16bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("unexpected proof type %T", p)
	}
	if len(bp.Commitments) != 0 {
		return nil, fmt.Errorf("proofs with commitments are not supported")
	}

	return &model.Proof{
		PiA: [2]string{fpString(&bp.Ar.X), fpString(&bp.Ar.Y)},
		PiB: [2][2]string{
			{fpString(&bp.Bs.X.A0), fpString(&bp.Bs.X.A1)},
			{fpString(&bp.Bs.Y.A0), fpString(&bp.Bs.Y.A1)},
		},
		PiC:      [2]string{fpString(&bp.Krs.X), fpString(&bp.Krs.Y)},
		Protocol: ProtocolGroth16,
		Curve:    CurveBN254,
	}, nil
}

// decodeProof rebuilds the gnark proof, rejecting non-canonical coordinates
// and points off the curve or outside the prime-order subgroup.
func decodeProof(p *model.Proof) (*groth16bn254.Proof, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil proof", errs.ErrProofFormat)
	}
	if p.Protocol != ProtocolGroth16 || p.Curve != CurveBN254 {
		return nil, fmt.Errorf("%w: unsupported protocol %q on curve %q", errs.ErrProofFormat, p.Protocol, p.Curve)
	}

	var out groth16bn254.Proof
	coords := []struct {
		dst *fp.Element
		src string
	}{
		{&out.Ar.X, p.PiA[0]}, {&out.Ar.Y, p.PiA[1]},
		{&out.Bs.X.A0, p.PiB[0][0]}, {&out.Bs.X.A1, p.PiB[0][1]},
		{&out.Bs.Y.A0, p.PiB[1][0]}, {&out.Bs.Y.A1, p.PiB[1][1]},
		{&out.Krs.X, p.PiC[0]}, {&out.Krs.Y, p.PiC[1]},
	}
	for i, c := range coords {
		if err := parseFp(c.dst, c.src); err != nil {
			return nil, fmt.Errorf("%w: coordinate %d: %v", errs.ErrProofFormat, i, err)
		}
	}

	if !out.Ar.IsOnCurve() || !out.Ar.IsInSubGroup() {
		return nil, fmt.Errorf("%w: pi_a is not a valid G1 point", errs.ErrProofFormat)
	}
	if !out.Bs.IsOnCurve() || !out.Bs.IsInSubGroup() {
		return nil, fmt.Errorf("%w: pi_b is not a valid G2 point", errs.ErrProofFormat)
	}
	if !out.Krs.IsOnCurve() || !out.Krs.IsInSubGroup() {
		return nil, fmt.Errorf("%w: pi_c is not a valid G1 point", errs.ErrProofFormat)
	}
	return &out, nil
}

func fpString(e *fp.Element) string {
	return e.BigInt(new(big.Int)).String()
}

func parseFp(dst *fp.Element, s string) error {
	if s == "" {
		return fmt.Errorf("empty coordinate")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("non-decimal coordinate %q", s)
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Cmp(baseModulus) >= 0 {
		return fmt.Errorf("coordinate out of range")
	}
	dst.SetBigInt(v)
	return nil
}
