package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	pub, priv, err := NewEd25519Keypair()
	require.NoError(t, err)

	sig := ED25519Sign(priv, []byte("exchange key"))
	assert.True(t, ED25519Verify(pub, []byte("exchange key"), sig))
	assert.False(t, ED25519Verify(pub, []byte("other key"), sig))
}

func TestVerifyRejectsBadSizes(t *testing.T) {
	assert.False(t, ED25519Verify([]byte{1, 2, 3}, []byte("m"), make([]byte, 64)))
	assert.False(t, ED25519Verify(make([]byte, 32), []byte("m"), []byte{1}))
}
