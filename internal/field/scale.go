package field

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// ScaleDecimal multiplies d by factor, truncates toward zero and maps the
// integer into the field.
func ScaleDecimal(d decimal.Decimal, factor int64) Element {
	scaled := d.Mul(decimal.NewFromInt(factor)).Truncate(0)
	return FromBigInt(scaled.BigInt())
}

// ScaleFloat multiplies v by factor in float64 arithmetic and truncates
// toward zero, the way fixed-point circuit inputs are prepared. Non-finite
// values cannot be represented and are rejected.
func ScaleFloat(v, factor float64) (Element, error) {
	i, err := ScaleFloatInt(v, factor)
	if err != nil {
		return Element{}, err
	}
	return FromBigInt(i), nil
}

// ScaleFloatInt is ScaleFloat before field reduction.
func ScaleFloatInt(v, factor float64) (*big.Int, error) {
	p := math.Trunc(v * factor)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return nil, fmt.Errorf("%w: cannot scale %v by %v", ErrInvalidElement, v, factor)
	}
	i, _ := new(big.Float).SetFloat64(p).Int(nil)
	return i, nil
}
