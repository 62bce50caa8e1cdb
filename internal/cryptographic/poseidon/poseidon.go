// Package poseidon provides the algebraic hash used for public keys, message
// hashes and commitments: Poseidon2 in Merkle-Damgard mode over the BN254
// scalar field. zkproof.MessageCircuit builds the same hasher in-circuit.
package poseidon

import (
	"fmt"
	"hash"
	"math/big"
	"sync"

	"zkmsg/internal/cryptographic/field"
	"zkmsg/internal/errs"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
)

// Hasher is built once at process start and shared by reference. It holds no
// mutable state visible to callers and is safe for concurrent use.
type Hasher struct {
	pool sync.Pool
}

// New builds the hasher and checks it produces canonical, input-sensitive
// output. Any failure is an ErrInitialization.
func New() (h *Hasher, err error) {
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, errs.Wrap(errs.ErrInitialization, fmt.Errorf("%v", r), "poseidon2 setup")
		}
	}()

	h = &Hasher{}
	h.pool.New = func() any {
		return poseidon2.NewMerkleDamgardHasher()
	}

	zero, one := h.Hash(big.NewInt(0)), h.Hash(big.NewInt(1))
	if !field.IsCanonical(zero) || !field.IsCanonical(one) {
		return nil, errs.Wrap(errs.ErrInitialization, nil, "poseidon2 output not canonical")
	}
	if zero.Cmp(one) == 0 || zero.Cmp(h.Hash(big.NewInt(0))) != 0 {
		return nil, errs.Wrap(errs.ErrInitialization, nil, "poseidon2 self-check failed")
	}
	return h, nil
}

// Once returns a process-wide hasher built on first use, for callers that
// cannot have one passed in.
var Once = sync.OnceValues(New)

// Hash reduces each input mod p and returns H(inputs...) as a canonical element.
func (h *Hasher) Hash(inputs ...*big.Int) *big.Int {
	md := h.pool.Get().(hash.Hash)
	md.Reset()
	defer h.pool.Put(md)

	for _, in := range inputs {
		b := field.Bytes32(in)
		md.Write(b[:])
	}
	return new(big.Int).SetBytes(md.Sum(nil))
}
