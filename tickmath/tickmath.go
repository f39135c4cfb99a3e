// Package tickmath implements the bijection between a discrete tick and the
// collateral-to-debt ratio it represents: ratio = 1.0015^t. The vault engine
// (package vault) indexes every debt position by tick so that walking the
// liquidation cascade top-down reduces to an integer decrement guided by the
// tick-has-debt bitmap.
//
// Ratios are computed to RatioPrecision decimal digits using a precomputed
// table of powers-of-two steps — 1.0015^(2^i) for i in [0, numPowBits) — and
// bit-decomposing the exponent against that table, the same table-driven
// precomputation style the teacher uses for its interest curves.
package tickmath

import (
	"errors"
	"math/big"
)

// TickMin and TickMax bound the tick range symmetrically at 322,500. Both
// are exported as variables, not consts, so tests can shrink the range.
var (
	TickMin = 322500
	TickMax = 322500
)

var (
	// ErrTickOutOfRange is returned when a tick falls outside [-TickMin, TickMax].
	ErrTickOutOfRange = errors.New("tickmath: tick out of range")
	// ErrRatioOutOfRange is returned when a ratio cannot be represented by any
	// tick in [-TickMin, TickMax].
	ErrRatioOutOfRange = errors.New("tickmath: ratio out of range")
	// ErrInvalidRatio is returned for a nil or non-positive ratio.
	ErrInvalidRatio = errors.New("tickmath: ratio must be positive")
)

// RatioPrecision is the fixed-point scale every ratio is represented in:
// ratio_from_tick(0) == RatioPrecision exactly.
var RatioPrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)

const tickBase = 1.0015

// numPowBits bounds the bit-decomposition table: 2^18 = 262144 < 322500 <
// 524288 = 2^19, so 19 doubling steps cover the full tick range.
const numPowBits = 19

const floatPrec = 256

var powTable = buildPowTable()

func buildPowTable() []*big.Float {
	table := make([]*big.Float, numPowBits)
	table[0] = new(big.Float).SetPrec(floatPrec).SetFloat64(tickBase)
	for i := 1; i < numPowBits; i++ {
		table[i] = new(big.Float).SetPrec(floatPrec).Mul(table[i-1], table[i-1])
	}
	return table
}

// RatioFromTick returns ratio_from_tick(t), scaled by RatioPrecision,
// rounding ties down (truncating toward zero, which for a positive ratio is
// a floor).
func RatioFromTick(t int) (*big.Int, error) {
	if t < -TickMin || t > TickMax {
		return nil, ErrTickOutOfRange
	}
	abs := t
	neg := false
	if abs < 0 {
		abs = -abs
		neg = true
	}
	result := new(big.Float).SetPrec(floatPrec).SetInt64(1)
	for i := 0; abs != 0; i++ {
		if abs&1 == 1 {
			result.Mul(result, powTable[i])
		}
		abs >>= 1
	}
	if neg {
		one := new(big.Float).SetPrec(floatPrec).SetInt64(1)
		result = one.Quo(one, result)
	}
	precisionF := new(big.Float).SetPrec(floatPrec).SetInt(RatioPrecision)
	scaled := new(big.Float).SetPrec(floatPrec).Mul(result, precisionF)
	out, _ := scaled.Int(nil)
	return out, nil
}

// TickFromRatio returns the largest tick t such that ratio_from_tick(t) <= r
// (ties round down), the exact inverse of RatioFromTick modulo rounding.
func TickFromRatio(r *big.Int) (int, error) {
	if r == nil || r.Sign() <= 0 {
		return 0, ErrInvalidRatio
	}
	lowRatio, err := RatioFromTick(-TickMin)
	if err != nil {
		return 0, err
	}
	highRatio, err := RatioFromTick(TickMax)
	if err != nil {
		return 0, err
	}
	if r.Cmp(lowRatio) < 0 || r.Cmp(highRatio) > 0 {
		return 0, ErrRatioOutOfRange
	}

	lo, hi := -TickMin, TickMax
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		ratio, err := RatioFromTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(r) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}
