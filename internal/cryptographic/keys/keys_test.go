package keys

import (
	"strings"
	"testing"

	"zkmsg/internal/cryptographic/field"
	"zkmsg/internal/cryptographic/poseidon"
	"zkmsg/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHasher(t *testing.T) *poseidon.Hasher {
	t.Helper()
	h, err := poseidon.New()
	require.NoError(t, err)
	return h
}

func TestGenerateKeyPair(t *testing.T) {
	h := newHasher(t)

	kp, err := GenerateKeyPair(h)
	require.NoError(t, err)
	assert.Len(t, kp.PrivateKey, 2*PrivateKeySize)
	assert.True(t, strings.HasPrefix(kp.PublicKey, "0x"))

	pub, err := field.ScalarFromHex(kp.PublicKey)
	require.NoError(t, err)
	assert.True(t, field.IsCanonical(pub))

	other, err := GenerateKeyPair(h)
	require.NoError(t, err)
	assert.NotEqual(t, kp.PrivateKey, other.PrivateKey)
}

func TestDerivePublicKeyDeterministic(t *testing.T) {
	h := newHasher(t)
	kp, err := GenerateKeyPair(h)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		pub, err := DerivePublicKey(h, kp.PrivateKey)
		require.NoError(t, err)
		assert.Equal(t, kp.PublicKey, pub)
	}

	// a second, independently built hasher agrees
	pub, err := DerivePublicKey(newHasher(t), "0x"+kp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, pub)
}

func TestDerivePublicKeyRejectsBadInput(t *testing.T) {
	h := newHasher(t)
	for _, bad := range []string{"", "0x", "00", "not-hex"} {
		_, err := DerivePublicKey(h, bad)
		assert.ErrorIs(t, err, errs.ErrValidation, bad)
	}
}

func TestMatches(t *testing.T) {
	h := newHasher(t)
	kp, err := GenerateKeyPair(h)
	require.NoError(t, err)
	other, err := GenerateKeyPair(h)
	require.NoError(t, err)

	ok, err := Matches(h, kp.PublicKey, kp.PrivateKey)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches(h, strings.ToUpper(strings.TrimPrefix(kp.PublicKey, "0x")), kp.PrivateKey)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches(h, kp.PublicKey, other.PrivateKey)
	require.NoError(t, err)
	assert.False(t, ok)
}
