// Package field implements non-negative residues modulo the BN254 scalar
// field prime, the only numeric type the commitment circuit understands.
package field

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Bytes is the big-endian width of an element.
const Bytes = fr.Bytes

// ErrInvalidElement is returned when text cannot be parsed as an element.
var ErrInvalidElement = errors.New("invalid field element")

// Element is a canonical residue in [0, PRIME). The zero value is 0.
type Element struct {
	v fr.Element
}

// Modulus returns a copy of the field prime.
func Modulus() *big.Int {
	return fr.Modulus()
}

// Zero returns the additive identity.
func Zero() Element {
	return Element{}
}

// FromInt64 maps v into the field; negative values become v + PRIME.
func FromInt64(v int64) Element {
	var e Element
	e.v.SetInt64(v)
	return e
}

// FromUint64 maps v into the field.
func FromUint64(v uint64) Element {
	var e Element
	e.v.SetUint64(v)
	return e
}

// FromBigInt reduces v modulo PRIME, normalising negative values.
func FromBigInt(v *big.Int) Element {
	var e Element
	e.v.SetBigInt(v)
	return e
}

// FromBytes interprets b as a big-endian integer reduced modulo PRIME.
func FromBytes(b []byte) Element {
	var e Element
	e.v.SetBytes(b)
	return e
}

// FromHex parses a hexadecimal string with an optional 0x prefix.
func FromHex(s string) (Element, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return Element{}, fmt.Errorf("%w: empty hex", ErrInvalidElement)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Element{}, fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	if len(b) > Bytes {
		return Element{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidElement, len(b), Bytes)
	}
	return FromBytes(b), nil
}

// Parse reads a decimal integer (optionally negative) or a 0x-prefixed hex string.
func Parse(s string) (Element, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return FromHex(s)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Element{}, fmt.Errorf("%w: %q", ErrInvalidElement, s)
	}
	return FromBigInt(v), nil
}

// MustParse is Parse for constants; it panics on error.
func MustParse(s string) Element {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

// BigInt returns the canonical value.
func (e Element) BigInt() *big.Int {
	return e.v.BigInt(new(big.Int))
}

// Bytes returns the canonical big-endian encoding.
func (e Element) Bytes() [Bytes]byte {
	return e.v.Bytes()
}

// String returns the canonical non-negative decimal form.
func (e Element) String() string {
	return e.BigInt().String()
}

// Hex returns the 0x-prefixed hexadecimal form without leading zeros.
func (e Element) Hex() string {
	return "0x" + e.BigInt().Text(16)
}

// IsZero reports whether e is 0.
func (e Element) IsZero() bool {
	return e.v.IsZero()
}

// Equal reports whether e and o are the same residue.
func (e Element) Equal(o Element) bool {
	return e.v.Equal(&o.v)
}

// Signed interprets residues above PRIME/2 as negative numbers. It inverts
// the normalisation applied to negative inputs.
func (e Element) Signed() *big.Int {
	v := e.BigInt()
	half := new(big.Int).Rsh(Modulus(), 1)
	if v.Cmp(half) > 0 {
		v.Sub(v, Modulus())
	}
	return v
}

// Fr exposes the underlying gnark-crypto element.
func (e Element) Fr() fr.Element {
	return e.v
}

// MarshalText encodes e as canonical decimal.
func (e Element) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText accepts anything Parse accepts.
func (e *Element) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Strings renders elements as canonical decimal strings.
func Strings(elems []Element) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = e.String()
	}
	return out
}
