// Package field maps strings and byte sequences onto canonical elements of the
// BN254 scalar field, the native value type of the proving system.
//
// ScalarFromBytes is lossy: inputs whose big-endian values are congruent
// modulo p map to the same element. The circuit relies on exactly this
// encoding, so it must not be changed to a collision-free one.
package field

import (
	"math/big"
	"strings"

	"zkmsg/internal/errs"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Bytes is the size of a canonical big-endian element encoding.
const Bytes = fr.Bytes

var modulus = fr.Modulus()

// Modulus returns a copy of p.
func Modulus() *big.Int {
	return new(big.Int).Set(modulus)
}

// ScalarFromHex parses an unsigned hex string with an optional 0x prefix.
// The empty string maps to zero. No reduction is applied.
func ScalarFromHex(s string) (*big.Int, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if clean == "" {
		return new(big.Int), nil
	}
	if strings.ContainsAny(clean, "+-_ ") {
		return nil, errs.Validation("malformed hex scalar %q", s)
	}
	v, ok := new(big.Int).SetString(clean, 16)
	if !ok {
		return nil, errs.Validation("malformed hex scalar %q", s)
	}
	return v, nil
}

// ScalarFromBytes reads b as a big-endian unsigned integer reduced mod p.
func ScalarFromBytes(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	return v.Mod(v, modulus)
}

// ScalarFromString encodes the UTF-8 bytes of s.
func ScalarFromString(s string) *big.Int {
	return ScalarFromBytes([]byte(s))
}

func Reduce(x *big.Int) *big.Int {
	return new(big.Int).Mod(x, modulus)
}

func IsCanonical(x *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(modulus) < 0
}

// ToDecimal renders x in base 10, the textual form the circuit witness uses.
func ToDecimal(x *big.Int) string {
	return x.Text(10)
}

// ParseDecimal parses a canonical decimal element: digits only, value < p.
func ParseDecimal(s string) (*big.Int, error) {
	if s == "" {
		return nil, errs.Validation("empty field element")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return nil, errs.Validation("non-decimal field element %q", s)
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || !IsCanonical(v) {
		return nil, errs.Validation("field element %q out of range", s)
	}
	return v, nil
}

// ToHex renders x as 0x-prefixed lowercase hex.
func ToHex(x *big.Int) string {
	return "0x" + x.Text(16)
}

// Bytes32 returns the big-endian encoding of x mod p, left-padded to Bytes.
func Bytes32(x *big.Int) [Bytes]byte {
	var out [Bytes]byte
	Reduce(x).FillBytes(out[:])
	return out
}
