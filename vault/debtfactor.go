package vault

import "math/big"

// MantissaBits and ExponentBits give DebtFactor its 50-bit packed layout:
// 35 mantissa bits | 15 exponent bits, matching spec.md §3's "Tick" field
// and original_source's INITIAL_BRANCH_DEBT_FACTOR = (X35 << 15) | (1 << 14).
const (
	MantissaBits = 35
	ExponentBits = 15
	// ExponentBias centers the exponent range so repeated dilution
	// (exponent decreasing) and renormalisation (exponent increasing) both
	// stay representable in 15 bits.
	ExponentBias = 1 << (ExponentBits - 1)
)

var mantissaMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), MantissaBits), big.NewInt(1))

// DebtFactor is the packed coefficient tracking cumulative dilution of a
// tick or branch's collateral through liquidations. Its represented value
// is mantissa × 2^(exponent − ExponentBias − MantissaBits); IdentityDebtFactor
// represents ≈1.0 (no dilution yet).
type DebtFactor uint64

// PackDebtFactor builds a DebtFactor from its mantissa (must fit in
// MantissaBits) and exponent (must fit in ExponentBits).
func PackDebtFactor(mantissa uint64, exponent int) DebtFactor {
	return DebtFactor((mantissa << ExponentBits) | uint64(exponent))
}

// Mantissa returns the 35-bit mantissa field.
func (d DebtFactor) Mantissa() uint64 {
	return uint64(d) >> ExponentBits
}

// Exponent returns the 15-bit exponent field.
func (d DebtFactor) Exponent() int {
	return int(uint64(d) & ((1 << ExponentBits) - 1))
}

// IdentityDebtFactor is the initial, undiluted coefficient every new
// branch/tick starts with.
var IdentityDebtFactor = PackDebtFactor(uint64(mantissaMask.Int64()), ExponentBias)

// Mul composes two debt factors (e.g. folding a newly-closed branch's
// dilution into its parent), renormalising the product back into
// MantissaBits so precision is preserved across many multiplications.
func (d DebtFactor) Mul(other DebtFactor) (DebtFactor, error) {
	product := new(big.Int).Mul(big.NewInt(int64(d.Mantissa())), big.NewInt(int64(other.Mantissa())))
	exponent := d.Exponent() + other.Exponent() - ExponentBias - MantissaBits

	if product.Sign() == 0 {
		return PackDebtFactor(0, 0), nil
	}
	shift := product.BitLen() - MantissaBits
	if shift > 0 {
		product.Rsh(product, uint(shift))
		exponent += shift
	} else if shift < 0 {
		product.Lsh(product, uint(-shift))
		exponent += shift
	}
	if exponent < 0 || exponent > (1<<ExponentBits)-1 {
		return 0, ErrDebtFactorExponentRange
	}
	return PackDebtFactor(product.Uint64(), exponent), nil
}

// Apply scales a raw balance by the debt factor's represented value,
// flooring the result (the dilution a surviving position's collateral or
// debt suffers when resolved against a liquidated tick/branch chain).
func (d DebtFactor) Apply(raw *big.Int) *big.Int {
	if raw.Sign() == 0 || d.Mantissa() == 0 {
		return new(big.Int)
	}
	shift := d.Exponent() - ExponentBias - MantissaBits
	result := new(big.Int).Mul(raw, big.NewInt(int64(d.Mantissa())))
	if shift >= 0 {
		return result.Lsh(result, uint(shift))
	}
	return result.Rsh(result, uint(-shift))
}

// FractionRemaining builds the DebtFactor representing (1 − fractionLiquidatedBps/10000),
// the per-liquidation dilution applied to the active branch's running
// debt_factor each time a tick is fully or partially absorbed.
func FractionRemaining(fractionLiquidatedBps int64) (DebtFactor, error) {
	remainingBps := FourDecimals - fractionLiquidatedBps
	if remainingBps < 0 || remainingBps > FourDecimals {
		return 0, ErrDebtFactorExponentRange
	}
	// represent remainingBps/10000 directly as a mantissa/exponent pair,
	// scaled up to MantissaBits of precision before renormalising.
	mantissa := new(big.Int).Lsh(big.NewInt(remainingBps), MantissaBits)
	mantissa.Quo(mantissa, big.NewInt(FourDecimals))
	exponent := ExponentBias
	shift := mantissa.BitLen() - MantissaBits
	if shift > 0 {
		mantissa.Rsh(mantissa, uint(shift))
		exponent += shift
	} else if shift < 0 {
		mantissa.Lsh(mantissa, uint(-shift))
		exponent += shift
	}
	if exponent < 0 || exponent > (1<<ExponentBits)-1 {
		return 0, ErrDebtFactorExponentRange
	}
	return PackDebtFactor(mantissa.Uint64(), exponent), nil
}
