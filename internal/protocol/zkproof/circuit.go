package zkproof

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	poseidon2perm "github.com/consensys/gnark/std/permutation/poseidon2"
)

// NumPublic is the number of public inputs of MessageCircuit.
const NumPublic = 3

// Poseidon2 parameters of gnark-crypto's BN254 default hasher. gnark only
// ships in-circuit defaults for BLS12-377, so BN254 must name them.
const (
	poseidonWidth         = 2
	poseidonFullRounds    = 6
	poseidonPartialRounds = 50
)

// MessageCircuit proves knowledge of PrivateKey and Message such that
// H(PrivateKey) = PublicKey and H(Message) = MessageHash. Public inputs are
// declared in the order verifiers supply them: MessageHash, PublicKey,
// Timestamp. Reordering fields changes the verification key.
type MessageCircuit struct {
	MessageHash frontend.Variable `gnark:",public"`
	PublicKey   frontend.Variable `gnark:",public"`
	Timestamp   frontend.Variable `gnark:",public"`

	Message    frontend.Variable
	PrivateKey frontend.Variable
}

func (c *MessageCircuit) Define(api frontend.API) error {
	keyHasher, err := newHasher(api)
	if err != nil {
		return err
	}
	keyHasher.Write(c.PrivateKey)
	api.AssertIsEqual(keyHasher.Sum(), c.PublicKey)

	msgHasher, err := newHasher(api)
	if err != nil {
		return err
	}
	msgHasher.Write(c.Message)
	api.AssertIsEqual(msgHasher.Sum(), c.MessageHash)

	// unix seconds; also keeps Timestamp constrained
	api.ToBinary(c.Timestamp, 64)
	return nil
}

// newHasher is the in-circuit twin of poseidon.Hasher: Poseidon2 Merkle-Damgard
// with a zero IV.
func newHasher(api frontend.API) (hash.FieldHasher, error) {
	perm, err := poseidon2perm.NewPoseidon2FromParameters(api, poseidonWidth, poseidonFullRounds, poseidonPartialRounds)
	if err != nil {
		return nil, err
	}
	return hash.NewMerkleDamgardHasher(api, perm, 0), nil
}
