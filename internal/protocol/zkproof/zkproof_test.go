package zkproof

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"
	"time"

	"zkmsg/internal/cryptographic/field"
	"zkmsg/internal/cryptographic/keys"
	"zkmsg/internal/cryptographic/poseidon"
	"zkmsg/internal/errs"
	"zkmsg/internal/model"
	"zkmsg/internal/protocol/commitment"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	setupOnce sync.Once
	shared    *Artifacts
	setupErr  error
)

func artifacts(t *testing.T) *Artifacts {
	t.Helper()
	setupOnce.Do(func() {
		shared, setupErr = Setup()
	})
	require.NoError(t, setupErr)
	return shared
}

func hasher(t *testing.T) *poseidon.Hasher {
	t.Helper()
	h, err := poseidon.New()
	require.NoError(t, err)
	return h
}

func newGateway(t *testing.T) (*Gateway, *model.KeyPair) {
	t.Helper()
	h := hasher(t)
	a := artifacts(t)
	kp, err := keys.GenerateKeyPair(h)
	require.NoError(t, err)
	return NewGateway(h, commitment.New(h), NewGroth16Prover(a, NewPool(2)), a.VK), kp
}

func TestCircuitSolved(t *testing.T) {
	h := hasher(t)
	kp, err := keys.GenerateKeyPair(h)
	require.NoError(t, err)

	w, err := BuildWitness(h, "hello", kp.PublicKey, kp.PrivateKey, 1700000000)
	require.NoError(t, err)
	good, err := w.Assignment()
	require.NoError(t, err)
	assert.NoError(t, test.IsSolved(&MessageCircuit{}, good, ecc.BN254.ScalarField()))

	bad, err := w.Assignment()
	require.NoError(t, err)
	bad.Message = field.ScalarFromString("hellO")
	assert.Error(t, test.IsSolved(&MessageCircuit{}, bad, ecc.BN254.ScalarField()))

	other, err := keys.GenerateKeyPair(h)
	require.NoError(t, err)
	bad, err = w.Assignment()
	require.NoError(t, err)
	bad.PrivateKey, _ = keys.PrivateScalar(other.PrivateKey)
	assert.Error(t, test.IsSolved(&MessageCircuit{}, bad, ecc.BN254.ScalarField()))

	bad, err = w.Assignment()
	require.NoError(t, err)
	bad.Timestamp = new(big.Int).Lsh(big.NewInt(1), 64)
	assert.Error(t, test.IsSolved(&MessageCircuit{}, bad, ecc.BN254.ScalarField()))
}

func TestBuildWitness(t *testing.T) {
	h := hasher(t)
	kp, err := keys.GenerateKeyPair(h)
	require.NoError(t, err)

	w, err := BuildWitness(h, "hi", kp.PublicKey, kp.PrivateKey, 42)
	require.NoError(t, err)
	assert.Equal(t, "26729", w.Message)
	assert.Equal(t, "42", w.Timestamp)
	assert.Equal(t, field.ToDecimal(h.Hash(big.NewInt(26729))), w.MessageHash)
	assert.Equal(t, model.PublicSignals{w.MessageHash, w.PublicKey, "42"}, w.PublicSignals())

	other, err := keys.GenerateKeyPair(h)
	require.NoError(t, err)
	_, err = BuildWitness(h, "hi", other.PublicKey, kp.PrivateKey, 42)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = BuildWitness(h, "", kp.PublicKey, kp.PrivateKey, 42)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = BuildWitness(h, "hi", kp.PublicKey, kp.PrivateKey, -1)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestGenerateAndVerify(t *testing.T) {
	g, kp := newGateway(t)
	now := time.Unix(1700000000, 0)
	g.now = func() time.Time { return now }

	pd, err := g.GenerateProof(context.Background(), "hello", kp.PublicKey, kp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), pd.Timestamp)
	require.Len(t, pd.PublicSignals, NumPublic)
	assert.Equal(t, "1700000000", pd.PublicSignals[2])
	assert.Equal(t, ProtocolGroth16, pd.Proof.Protocol)

	ok, err := g.VerifyProof(pd.Proof, pd.PublicSignals)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Commitments().Verify("hello", kp.PublicKey, pd.Commitment, pd.Timestamp, pd.Timestamp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsAlteredSignals(t *testing.T) {
	g, kp := newGateway(t)
	pd, err := g.GenerateProof(context.Background(), "hi", kp.PublicKey, kp.PrivateKey)
	require.NoError(t, err)

	for i := range pd.PublicSignals {
		altered := append(model.PublicSignals(nil), pd.PublicSignals...)
		v, err := field.ParseDecimal(altered[i])
		require.NoError(t, err)
		altered[i] = field.ToDecimal(field.Reduce(v.Add(v, big.NewInt(1))))

		ok, err := g.VerifyProof(pd.Proof, altered)
		require.NoError(t, err, "signal %d", i)
		assert.False(t, ok, "signal %d", i)
	}

	// another sender's valid proof does not verify against these signals
	g2, kp2 := newGateway(t)
	other, err := g2.GenerateProof(context.Background(), "hi", kp2.PublicKey, kp2.PrivateKey)
	require.NoError(t, err)
	ok, err := g.VerifyProof(other.Proof, pd.PublicSignals)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyFormatErrors(t *testing.T) {
	g, kp := newGateway(t)
	pd, err := g.GenerateProof(context.Background(), "hi", kp.PublicKey, kp.PrivateKey)
	require.NoError(t, err)

	mutate := func(f func(p *model.Proof)) *model.Proof {
		cp := *pd.Proof
		f(&cp)
		return &cp
	}

	proofs := map[string]*model.Proof{
		"nil":          nil,
		"protocol":     mutate(func(p *model.Proof) { p.Protocol = "plonk" }),
		"curve":        mutate(func(p *model.Proof) { p.Curve = "bls12-381" }),
		"non-decimal":  mutate(func(p *model.Proof) { p.PiA[0] = "0x12" }),
		"empty":        mutate(func(p *model.Proof) { p.PiC[1] = "" }),
		"out of range": mutate(func(p *model.Proof) { p.PiB[0][0] = baseModulus.String() }),
		"off curve":    mutate(func(p *model.Proof) { p.PiA[1] = "1" }),
	}
	for name, p := range proofs {
		_, err := g.VerifyProof(p, pd.PublicSignals)
		assert.ErrorIs(t, err, errs.ErrProofFormat, name)
	}

	signals := map[string]model.PublicSignals{
		"short":       pd.PublicSignals[:2],
		"long":        append(append(model.PublicSignals(nil), pd.PublicSignals...), "1"),
		"non-decimal": {pd.PublicSignals[0], "abc", pd.PublicSignals[2]},
		"negative":    {pd.PublicSignals[0], pd.PublicSignals[1], "-1"},
		"unreduced":   {field.Modulus().String(), pd.PublicSignals[1], pd.PublicSignals[2]},
	}
	for name, s := range signals {
		_, err := g.VerifyProof(pd.Proof, s)
		assert.ErrorIs(t, err, errs.ErrProofFormat, name)
	}

	_, err = VerifyProof(pd.Proof, pd.PublicSignals, nil)
	assert.ErrorIs(t, err, errs.ErrProofFormat)
}

func TestPublicWitnessErrors(t *testing.T) {
	_, err := newPublicWitness(nil)
	assert.ErrorIs(t, err, errs.ErrProofFormat)

	_, err = newPublicWitness(&MessageCircuit{MessageHash: big.NewInt(1), PublicKey: big.NewInt(2)})
	assert.ErrorIs(t, err, errs.ErrProofFormat)

	var nilInt *big.Int
	_, err = newPublicWitness(&MessageCircuit{MessageHash: big.NewInt(1), PublicKey: nilInt, Timestamp: big.NewInt(3)})
	assert.ErrorIs(t, err, errs.ErrProofFormat)

	w, err := newPublicWitness(&MessageCircuit{MessageHash: big.NewInt(1), PublicKey: big.NewInt(2), Timestamp: big.NewInt(3)})
	require.NoError(t, err)
	assert.NotNil(t, w)
}

func TestCompileBN254(t *testing.T) {
	cs, err := Compile()
	require.NoError(t, err)
	assert.Equal(t, NumPublic, cs.GetNbPublicVariables()-1)
}

func TestGenerateProofErrors(t *testing.T) {
	g, kp := newGateway(t)

	other, err := keys.GenerateKeyPair(g.Hasher())
	require.NoError(t, err)
	_, err = g.GenerateProof(context.Background(), "hi", other.PublicKey, kp.PrivateKey)
	assert.ErrorIs(t, err, errs.ErrValidation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.GenerateProof(ctx, "hi", kp.PublicKey, kp.PrivateKey)
	assert.ErrorIs(t, err, errs.ErrProofGeneration)
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArtifactsRoundTrip(t *testing.T) {
	a := artifacts(t)
	dir := t.TempDir()
	require.NoError(t, a.Save(dir))

	loaded, err := LoadArtifacts(dir)
	require.NoError(t, err)
	assert.Equal(t, NumPublic, loaded.VK.NPublic)

	h := hasher(t)
	kp, err := keys.GenerateKeyPair(h)
	require.NoError(t, err)

	// prove with the loaded key, verify with the original and the reverse
	g := NewGateway(h, commitment.New(h), NewGroth16Prover(loaded, NewPool(1)), a.VK)
	pd, err := g.GenerateProof(context.Background(), "hi", kp.PublicKey, kp.PrivateKey)
	require.NoError(t, err)

	for _, vk := range []*VerificationKey{a.VK, loaded.VK} {
		ok, err := VerifyProof(pd.Proof, pd.PublicSignals, vk)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestParseVerificationKey(t *testing.T) {
	a := artifacts(t)
	data, err := json.Marshal(a.VK)
	require.NoError(t, err)

	vk, err := ParseVerificationKey(data)
	require.NoError(t, err)
	assert.Equal(t, a.VK.Key, vk.Key)

	_, err = ParseVerificationKey([]byte("{"))
	assert.ErrorIs(t, err, errs.ErrProofFormat)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["nPublic"] = 4
	bad, err := json.Marshal(raw)
	require.NoError(t, err)
	_, err = ParseVerificationKey(bad)
	assert.ErrorIs(t, err, errs.ErrProofFormat)

	raw["nPublic"] = NumPublic
	raw["key"] = []byte{1, 2, 3}
	bad, err = json.Marshal(raw)
	require.NoError(t, err)
	_, err = ParseVerificationKey(bad)
	assert.ErrorIs(t, err, errs.ErrProofFormat)
}

func TestPool(t *testing.T) {
	p := NewPool(1)

	release := make(chan struct{})
	started := make(chan struct{})
	go p.Do(context.Background(), func() error {
		close(started)
		<-release
		return nil
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	assert.NoError(t, p.Do(context.Background(), func() error { return nil }))

	err = p.Do(context.Background(), func() error { panic("boom") })
	assert.ErrorContains(t, err, "boom")
}
