package field

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const primeText = "21888242871839275222246405745257275088548364400416034343698204186575808495617"

func TestModulus(t *testing.T) {
	assert.Equal(t, primeText, Modulus().String())
}

func TestFromInt64_NormalisesNegatives(t *testing.T) {
	prime, _ := new(big.Int).SetString(primeText, 10)

	tests := []struct {
		in   int64
		want *big.Int
	}{
		{0, big.NewInt(0)},
		{42, big.NewInt(42)},
		{-1, new(big.Int).Sub(prime, big.NewInt(1))},
		{-500, new(big.Int).Sub(prime, big.NewInt(500))},
	}

	for _, tt := range tests {
		got := FromInt64(tt.in)
		assert.Equal(t, tt.want.String(), got.String(), "FromInt64(%d)", tt.in)
		assert.Equal(t, tt.in, got.Signed().Int64(), "Signed round trip of %d", tt.in)
	}
}

func TestString_NeverNegative(t *testing.T) {
	e := FromInt64(-5)
	assert.NotContains(t, e.String(), "-")
	assert.Equal(t, "-5", e.Signed().String())
}

func TestFromBigInt_Reduces(t *testing.T) {
	prime, _ := new(big.Int).SetString(primeText, 10)
	over := new(big.Int).Add(prime, big.NewInt(7))
	assert.True(t, FromBigInt(over).Equal(FromUint64(7)))
	assert.True(t, FromBigInt(prime).IsZero())
}

func TestFromHex(t *testing.T) {
	e, err := FromHex("0x550e8400e29b41d4")
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("550e8400e29b41d4", 16)
	assert.Equal(t, want.String(), e.String())
	assert.Equal(t, "0x550e8400e29b41d4", e.Hex())

	_, err = FromHex("0x")
	assert.ErrorIs(t, err, ErrInvalidElement)
	_, err = FromHex("zz")
	assert.ErrorIs(t, err, ErrInvalidElement)
}

func TestParse(t *testing.T) {
	e, err := Parse("123456")
	require.NoError(t, err)
	assert.Equal(t, "123456", e.String())

	e, err = Parse("-1")
	require.NoError(t, err)
	assert.Equal(t, "-1", e.Signed().String())

	_, err = Parse("12a")
	assert.ErrorIs(t, err, ErrInvalidElement)
}

func TestJSONRoundTrip(t *testing.T) {
	in := []Element{FromInt64(-3), FromUint64(99)}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "-")

	var out []Element
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 2)
	assert.True(t, in[0].Equal(out[0]))
	assert.True(t, in[1].Equal(out[1]))
}

func TestScaleDecimal_Truncates(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"45000", 4500000},
		{"1.0", 100},
		{"0.29", 29},
		{"0.999", 99},
		{"-0.5", -50},
	}
	for _, tt := range tests {
		got := ScaleDecimal(decimal.RequireFromString(tt.in), 100)
		assert.Equal(t, tt.want, got.Signed().Int64(), "ScaleDecimal(%s)", tt.in)
	}
}

func TestScaleFloat(t *testing.T) {
	e, err := ScaleFloat(-0.5, 1e9)
	require.NoError(t, err)
	assert.Equal(t, int64(-500000000), e.Signed().Int64())

	_, err = ScaleFloat(math.Inf(1), 100)
	assert.ErrorIs(t, err, ErrInvalidElement)
	_, err = ScaleFloat(math.NaN(), 100)
	assert.ErrorIs(t, err, ErrInvalidElement)
}
