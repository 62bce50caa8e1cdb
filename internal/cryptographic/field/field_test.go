package field

import (
	"math/big"
	"testing"

	"zkmsg/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bn254Prime = "21888242871839275222246405745257275088548364400416034343698204186575808495617"

func TestModulus(t *testing.T) {
	assert.Equal(t, bn254Prime, Modulus().String())

	// callers must not be able to mutate p
	m := Modulus()
	m.SetInt64(7)
	assert.Equal(t, bn254Prime, Modulus().String())
}

func TestScalarFromHex(t *testing.T) {
	cases := map[string]string{
		"":     "0",
		"0x":   "0",
		"0x0f": "15",
		"ff":   "255",
		"0XfF": "255",
	}
	for in, want := range cases {
		v, err := ScalarFromHex(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, v.String(), in)
	}

	for _, bad := range []string{"0xzz", "-1", "12 34", "0x+1"} {
		_, err := ScalarFromHex(bad)
		assert.ErrorIs(t, err, errs.ErrValidation, bad)
	}
}

func TestScalarFromHexDoesNotReduce(t *testing.T) {
	above := new(big.Int).Add(Modulus(), big.NewInt(5))
	v, err := ScalarFromHex(above.Text(16))
	require.NoError(t, err)
	assert.Equal(t, 0, v.Cmp(above))
	assert.False(t, IsCanonical(v))
}

func TestScalarFromBytesCollidesModP(t *testing.T) {
	x := big.NewInt(0x68656c6c6f) // "hello"
	xp := new(big.Int).Add(x, Modulus())

	a := x.Bytes()
	b := xp.Bytes()
	require.NotEqual(t, a, b)

	ea := ScalarFromBytes(a)
	eb := ScalarFromBytes(b)
	assert.Equal(t, 0, ea.Cmp(eb), "values differing by p must encode identically")
	assert.Equal(t, "448378203247", ea.String())
}

func TestScalarFromStringIsBigEndianUTF8(t *testing.T) {
	assert.Equal(t, "26729", ScalarFromString("hi").String()) // 0x6869
	assert.Equal(t, "0", ScalarFromString("").String())
	assert.True(t, IsCanonical(ScalarFromString(string(make([]byte, 200)) + "x")))
}

func TestParseDecimal(t *testing.T) {
	v, err := ParseDecimal("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())

	for _, bad := range []string{"", "-1", "+1", "0x10", "1e3", bn254Prime} {
		_, err := ParseDecimal(bad)
		assert.ErrorIs(t, err, errs.ErrValidation, bad)
	}
}

func TestBytes32(t *testing.T) {
	b := Bytes32(big.NewInt(258))
	assert.Equal(t, byte(1), b[Bytes-2])
	assert.Equal(t, byte(2), b[Bytes-1])

	wrapped := Bytes32(new(big.Int).Add(Modulus(), big.NewInt(258)))
	assert.Equal(t, b, wrapped)
}

func TestToHex(t *testing.T) {
	assert.Equal(t, "0xff", ToHex(big.NewInt(255)))
	assert.Equal(t, "0x0", ToHex(new(big.Int)))
}
