package commitment

import (
	"testing"

	"zkmsg/internal/cryptographic/keys"
	"zkmsg/internal/cryptographic/poseidon"
	"zkmsg/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ts int64 = 1700000000

func newScheme(t *testing.T) (*Scheme, string) {
	t.Helper()
	h, err := poseidon.New()
	require.NoError(t, err)
	kp, err := keys.GenerateKeyPair(h)
	require.NoError(t, err)
	return New(h), kp.PublicKey
}

func TestCommitDeterministic(t *testing.T) {
	s, pub := newScheme(t)

	a, err := s.Commit("hi", pub, ts)
	require.NoError(t, err)
	b, err := s.Commit("hi", pub, ts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Regexp(t, `^[0-9]+$`, a)
}

func TestCommitBindsEveryInput(t *testing.T) {
	s, pub := newScheme(t)
	_, other := newScheme(t)

	base, err := s.Commit("hi", pub, ts)
	require.NoError(t, err)

	for _, c := range []struct {
		msg string
		pk  string
		t   int64
	}{
		{"ho", pub, ts},
		{"hi", other, ts},
		{"hi", pub, ts + 1},
	} {
		got, err := s.Commit(c.msg, c.pk, c.t)
		require.NoError(t, err)
		assert.NotEqual(t, base, got)
	}
}

func TestVerifyWindowBoundaries(t *testing.T) {
	s, pub := newScheme(t)
	c, err := s.Commit("hi", pub, ts)
	require.NoError(t, err)

	for _, age := range []int64{0, 1, 3600, 86399, 86400} {
		ok, err := s.Verify("hi", pub, c, ts, ts+age)
		require.NoError(t, err)
		assert.True(t, ok, "age %d", age)
	}

	for _, age := range []int64{86401, 172800} {
		ok, err := s.Verify("hi", pub, c, ts, ts+age)
		require.NoError(t, err)
		assert.False(t, ok, "age %d", age)
	}
}

func TestVerifyFutureTimestamp(t *testing.T) {
	s, pub := newScheme(t)
	c, err := s.Commit("hi", pub, ts)
	require.NoError(t, err)

	ok, err := s.Verify("hi", pub, c, ts, ts-MaxClockSkew)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify("hi", pub, c, ts, ts-MaxClockSkew-1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyMismatch(t *testing.T) {
	s, pub := newScheme(t)
	c, err := s.Commit("hi", pub, ts)
	require.NoError(t, err)

	ok, err := s.Verify("hello", pub, c, ts, ts)
	require.NoError(t, err)
	assert.False(t, ok)

	// a valid commitment presented with another timestamp does not verify
	ok, err = s.Verify("hi", pub, c, ts+5, ts+5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMalformedInput(t *testing.T) {
	s, pub := newScheme(t)

	_, err := s.Commit("hi", "0xnothex", ts)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.Commit("hi", pub, -1)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.Verify("hi", pub, "12ab", ts, ts)
	assert.ErrorIs(t, err, errs.ErrValidation)
}
