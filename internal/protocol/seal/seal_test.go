package seal

import (
	"testing"

	"zkmsg/internal/cryptographic/dh"
	"zkmsg/internal/errs"
	"zkmsg/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	priv, pub, err := dh.NewX25519KeyPair()
	require.NoError(t, err)

	aad := []byte("0x1234")
	box, err := Seal(pub, []byte("ephemeral-secret"), aad)
	require.NoError(t, err)
	assert.Len(t, box.EphemeralKey, dh.KeySize)

	got, err := Open(priv, box, aad)
	require.NoError(t, err)
	assert.Equal(t, []byte("ephemeral-secret"), got)
}

func TestOpenWithWrongKeyOrAAD(t *testing.T) {
	_, pub, err := dh.NewX25519KeyPair()
	require.NoError(t, err)
	otherPriv, _, err := dh.NewX25519KeyPair()
	require.NoError(t, err)

	box, err := Seal(pub, []byte("s"), []byte("a"))
	require.NoError(t, err)

	_, err = Open(otherPriv, box, []byte("a"))
	assert.ErrorIs(t, err, errs.ErrDecryption)
}

func TestOpenRejectsWrongAAD(t *testing.T) {
	priv, pub, err := dh.NewX25519KeyPair()
	require.NoError(t, err)

	box, err := Seal(pub, []byte("s"), []byte("message-a"))
	require.NoError(t, err)

	_, err = Open(priv, box, []byte("message-b"))
	assert.ErrorIs(t, err, errs.ErrDecryption)
}

func TestOpenRejectsMalformedBox(t *testing.T) {
	priv, _, err := dh.NewX25519KeyPair()
	require.NoError(t, err)

	_, err = Open(priv, nil, nil)
	assert.Error(t, err)

	_, err = Open(priv, &model.SealedSecret{EphemeralKey: []byte{1, 2}}, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)
}
