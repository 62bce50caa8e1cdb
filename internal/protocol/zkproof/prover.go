package zkproof

import (
	"context"

	"zkmsg/internal/errs"
	"zkmsg/internal/model"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// Prover turns a witness into a proof and its public signals.
type Prover interface {
	Prove(ctx context.Context, w *Witness) (*model.Proof, model.PublicSignals, error)
}

type Groth16Prover struct {
	cs   constraint.ConstraintSystem
	pk   groth16.ProvingKey
	pool *Pool
}

func NewGroth16Prover(a *Artifacts, pool *Pool) *Groth16Prover {
	quietGnark()
	return &Groth16Prover{cs: a.CS, pk: a.PK, pool: pool}
}

func (p *Groth16Prover) Prove(ctx context.Context, w *Witness) (*model.Proof, model.PublicSignals, error) {
	assignment, err := w.Assignment()
	if err != nil {
		return nil, nil, err
	}
	full, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrProofGeneration, err, "build witness")
	}

	var proof groth16.Proof
	err = p.pool.Do(ctx, func() error {
		var perr error
		proof, perr = groth16.Prove(p.cs, p.pk, full)
		return perr
	})
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrProofGeneration, err, "groth16 prove")
	}

	encoded, err := encodeProof(proof)
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrProofGeneration, err, "encode proof")
	}
	return encoded, w.PublicSignals(), nil
}
