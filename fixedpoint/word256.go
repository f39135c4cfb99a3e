package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// MulDivDown computes floor(a*b/c) using a 256-bit intermediate product so
// that a*b never overflows even when a and b are each close to the 128-bit
// range (e.g. raw balance * exchange price conversions at the largest
// configured caps). c must be non-zero, and a, b and c must each be
// non-negative and fit in 256 bits (else ErrOverflow). When a*b itself
// overflows 256 bits the quotient is computed in arbitrary precision and may
// exceed 256 bits.
func MulDivDown(a, b, c *big.Int) (*big.Int, error) {
	if c.Sign() == 0 {
		return nil, ErrDivByZero
	}
	ua, err := toUint256(a)
	if err != nil {
		return nil, err
	}
	ub, err := toUint256(b)
	if err != nil {
		return nil, err
	}
	uc, err := toUint256(c)
	if err != nil {
		return nil, err
	}

	product := new(uint256.Int)
	if product.MulOverflow(ua, ub) {
		return mulDivBig(a, b, c), nil
	}
	q := new(uint256.Int).Div(product, uc)
	return q.ToBig(), nil
}

// MulDivUp computes ceil(a*b/c) with the same 256-bit intermediate strategy
// as MulDivDown.
func MulDivUp(a, b, c *big.Int) (*big.Int, error) {
	floor, err := MulDivDown(a, b, c)
	if err != nil {
		return nil, err
	}
	product := new(big.Int).Mul(a, b)
	rem := new(big.Int).Mod(product, c)
	if rem.Sign() != 0 {
		floor = new(big.Int).Add(floor, big.NewInt(1))
	}
	return floor, nil
}

func toUint256(v *big.Int) (*uint256.Int, error) {
	if v.Sign() < 0 {
		return nil, ErrOverflow
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return u, nil
}

// mulDivBig is the arbitrary-precision fallback used only when the 256-bit
// fast path would itself overflow (values are expected to stay well within
// uint256 range for every quantity this protocol tracks).
func mulDivBig(a, b, c *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return new(big.Int).Quo(product, c)
}
