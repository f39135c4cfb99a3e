// Package vault implements the CDP tick/branch liquidation engine (C4): the
// paper's central contribution. Debt positions are indexed by a discrete
// tick; liquidations cascade down ticks in O(log n) via a hierarchy of
// branches carrying accumulated debt-factor coefficients.
package vault

import "math/big"

// FourDecimals is the fixed-point scale every percentage field on
// VaultConfig uses: 10_000 == 100%.
const FourDecimals = 10_000

// MinOperateAmount and MaxOperateAmount are original_source's
// MIN_OPERATE/MAX_OPERATE delta bounds, in scaled 9-decimal space.
// Vault.Operate does not check its deltas against them.
var (
	MinOperateAmount = big.NewInt(1_000)
	MaxOperateAmount = big.NewInt(9_223_372_036_854_775_807) // i64::MAX
)

// MinimumBranchDebt is the floor below which an active branch is closed and
// a new one spawned with parent_branch_id set to the closed branch.
var MinimumBranchDebt = big.NewInt(100)

// MinimumTickDebt is the tick debt floor ErrTickDebtTooLow names. No vault
// code compares against it: TickHasDebtArray bookkeeping clears a tick's bit
// only once its raw debt reaches zero.
var MinimumTickDebt = big.NewInt(100)

// MinimumDebt is the floor a position's total debt must clear once
// non-zero.
var MinimumDebt = big.NewInt(1_000)

// MaxLiquidationPenaltyBps caps the liquidation_penalty config field.
const MaxLiquidationPenaltyBps = 9_970

// MaxLiquidationRoundingDiff bounds the acceptable drift between the
// liquidator's declared debt_amount and the actual debt absorbed.
var MaxLiquidationRoundingDiff = big.NewInt(100)
