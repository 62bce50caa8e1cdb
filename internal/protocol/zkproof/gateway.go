package zkproof

import (
	"context"
	"time"

	"zkmsg/internal/cryptographic/poseidon"
	"zkmsg/internal/metrics"
	"zkmsg/internal/model"
	"zkmsg/internal/protocol/commitment"
)

// ProofData is the product of GenerateProof. Commitment and PublicSignals are
// computed over the same message, key and Timestamp.
type ProofData struct {
	Proof         *model.Proof        `json:"proof"`
	PublicSignals model.PublicSignals `json:"publicSignals"`
	Commitment    string              `json:"commitment"`
	Timestamp     int64               `json:"timestamp"`
}

type Gateway struct {
	hasher      *poseidon.Hasher
	commitments *commitment.Scheme
	prover      Prover
	vk          *VerificationKey
	now         func() time.Time
}

func NewGateway(h *poseidon.Hasher, commitments *commitment.Scheme, prover Prover, vk *VerificationKey) *Gateway {
	return &Gateway{
		hasher:      h,
		commitments: commitments,
		prover:      prover,
		vk:          vk,
		now:         time.Now,
	}
}

// GenerateProof proves knowledge of privateKey and message at the current
// time. A key mismatch or empty message is a validation error; any prover
// failure, including ctx expiry, is ErrProofGeneration.
func (g *Gateway) GenerateProof(ctx context.Context, message, publicKey, privateKey string) (*ProofData, error) {
	ts := g.now().Unix()

	w, err := BuildWitness(g.hasher, message, publicKey, privateKey, ts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	proof, signals, err := g.prover.Prove(ctx, w)
	metrics.ProofDuration.Observe(time.Since(start).Seconds())
	metrics.ProofsGenerated.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	c, err := g.commitments.Commit(message, publicKey, ts)
	if err != nil {
		return nil, err
	}

	return &ProofData{
		Proof:         proof,
		PublicSignals: signals,
		Commitment:    c,
		Timestamp:     ts,
	}, nil
}

func (g *Gateway) VerifyProof(proof *model.Proof, signals model.PublicSignals) (bool, error) {
	return VerifyProof(proof, signals, g.vk)
}

func (g *Gateway) Commitments() *commitment.Scheme {
	return g.commitments
}

func (g *Gateway) Hasher() *poseidon.Hasher {
	return g.hasher
}
