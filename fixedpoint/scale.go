package fixedpoint

import "math/big"

// CanonicalDecimals is the number of decimals every scaled-space balance is
// normalised to, per spec.md §3.
const CanonicalDecimals uint8 = 9

// MaxTokenDecimals bounds the decimals ScaleAmount will accept.
const MaxTokenDecimals uint8 = 9

var tenPow = func() [MaxTokenDecimals + 1]*big.Int {
	var table [MaxTokenDecimals + 1]*big.Int
	for i := range table {
		table[i] = new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(i)), nil)
	}
	return table
}()

func scaleFactor(decimals uint8) (*big.Int, error) {
	if decimals > MaxTokenDecimals {
		return nil, ErrInvalidDecimals
	}
	return tenPow[MaxTokenDecimals-decimals], nil
}

// ScaleAmount converts an amount expressed with the token's native decimals
// into the canonical 9-decimal scaled space:
// scale_amounts(amount, decimals) = amount * 10^(9-decimals).
func ScaleAmount(amount *big.Int, decimals uint8) (*big.Int, error) {
	factor, err := scaleFactor(decimals)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(amount, factor), nil
}

// UnscaleAmountDown converts a canonical scaled-space amount back to the
// token's native decimals, rounding toward zero (floor for non-negative
// amounts) — used for amounts paid out to users.
func UnscaleAmountDown(amount *big.Int, decimals uint8) (*big.Int, error) {
	factor, err := scaleFactor(decimals)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Quo(amount, factor), nil
}

// UnscaleAmountUp converts a canonical scaled-space amount back to the
// token's native decimals, rounding away from zero for positive amounts —
// used when the unscaled value feeds a minimum/limit check so the limit is
// never under-enforced by truncation.
func UnscaleAmountUp(amount *big.Int, decimals uint8) (*big.Int, error) {
	factor, err := scaleFactor(decimals)
	if err != nil {
		return nil, err
	}
	return CeilDiv(amount, factor)
}
