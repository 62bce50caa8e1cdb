package zkproof

import (
	"fmt"
	"math/big"

	"zkmsg/internal/errs"
	"zkmsg/internal/metrics"
	"zkmsg/internal/model"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
)

// VerifyProof checks proof against signals under vk. It depends on nothing
// but its arguments. Malformed input is an ErrProofFormat error; a well-formed
// proof that does not verify returns false with a nil error.
func VerifyProof(proof *model.Proof, signals model.PublicSignals, vk *VerificationKey) (bool, error) {
	key, err := vk.groth16()
	if err != nil {
		return false, err
	}
	p, err := decodeProof(proof)
	if err != nil {
		return false, err
	}
	assignment, err := publicAssignment(signals)
	if err != nil {
		return false, err
	}
	public, err := newPublicWitness(assignment)
	if err != nil {
		return false, err
	}

	if err := groth16.Verify(p, key, public); err != nil {
		metrics.ProofsVerified.WithLabelValues("invalid").Inc()
		return false, nil
	}
	metrics.ProofsVerified.WithLabelValues("valid").Inc()
	return true, nil
}

// newPublicWitness builds the verifier's public witness. Every failure is an
// ErrProofFormat.
func newPublicWitness(assignment *MessageCircuit) (witness.Witness, error) {
	if assignment == nil {
		return nil, fmt.Errorf("%w: no public assignment", errs.ErrProofFormat)
	}
	for i, v := range []frontend.Variable{assignment.MessageHash, assignment.PublicKey, assignment.Timestamp} {
		if x, ok := v.(*big.Int); !ok || x == nil {
			return nil, fmt.Errorf("%w: public input %d is not assigned", errs.ErrProofFormat, i)
		}
	}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: public witness: %v", errs.ErrProofFormat, err)
	}
	return w, nil
}
