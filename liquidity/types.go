// Package liquidity implements the shared liquidity reserve (C3): the
// per-token pool every vault (C4) and fToken (C5) draws from through a
// two-phase, reentrancy-guarded operate call.
package liquidity

import (
	"errors"
	"math/big"

	"vaultcore/fixedpoint"
	"vaultcore/pubkey"
)

// BpsPrecision is the fixed-point scale used for percentage fields
// throughout this package: 10_000 == 100%.
const BpsPrecision = 10_000

// ExchangePricesPrecision is the fixed-point scale exchange prices are
// carried at — 1e12. fToken (C5) carries its token exchange price, which
// holds the rewards factor, at the same scale.
var ExchangePricesPrecision = big.NewInt(1_000_000_000_000)

// SecondsPerYear is the annualisation denominator for the rate curves,
// matching the teacher's own 365-day blocksPerYear convention.
const SecondsPerYear = 31_536_000

// MinOperateAmount is the smallest non-zero scaled delta operate() accepts.
const MinOperateAmount = 10

// MaxInputAmountExcessBps bounds how far a realised transfer may deviate
// from its declared amount before operate() rejects it.
const MaxInputAmountExcessBps = 100

var (
	ErrNilReserve               = errors.New("liquidity: reserve not configured")
	ErrInvalidAmount            = errors.New("liquidity: amount must be positive")
	ErrInvalidTimestamp         = errors.New("liquidity: timestamp moved backwards")
	ErrForbiddenOperateCall     = errors.New("liquidity: pre_operate already in flight")
	ErrOperateWithoutPreOperate = errors.New("liquidity: operate called without a matching pre_operate")
	ErrMintMismatch             = errors.New("liquidity: operate mint does not match pre_operate mint")
	ErrProtocolMismatch         = errors.New("liquidity: operate caller does not match pre_operate caller")
	ErrTransferAmountOutOfBounds = errors.New("liquidity: realised transfer outside declared tolerance band")
	ErrOperateAmountTooSmall    = errors.New("liquidity: operate amount below MinOperateAmount")
	ErrOperateAmountTooBig      = errors.New("liquidity: operate amount exceeds OperateAmountTooBig bound")
	ErrMaxUtilizationReached    = errors.New("liquidity: max utilization reached")
	ErrWithdrawalLimitReached   = errors.New("liquidity: withdrawal limit reached")
	ErrBorrowLimitReached       = errors.New("liquidity: borrow limit reached")
	ErrInvalidUserClaim         = errors.New("liquidity: user claim mint or owner mismatch")
	ErrUserPaused               = errors.New("liquidity: user class paused")
	ErrInvalidDeveloperFeeBps   = errors.New("liquidity: developer fee bps exceeds 10000")
	ErrInsufficientFees         = errors.New("liquidity: withdrawal exceeds accrued fee balance")
)

// TransferType selects how operate() delivers a positive (outbound) amount
// to the caller.
type TransferType int

const (
	// TransferDirect delivers the amount immediately to withdrawTo/borrowTo.
	TransferDirect TransferType = iota
	// TransferClaim credits a UserClaim account instead, to be drained later
	// by Claim — avoiding a second reentrant transfer mid-composition.
	TransferClaim
)

// UserClaim is the zero-copy account fields from spec.md §3 "Claim
// accounts" ("FlashloanAdmin" sibling record), ported field-for-field.
type UserClaim struct {
	User   pubkey.Pubkey
	Mint   pubkey.Pubkey
	Amount *big.Int
}

// OperateResult reports the state Operate produced, for the caller to act
// on (e.g. issue a real token transfer, or confirm a claim credit).
type OperateResult struct {
	SupplyExchangePrice *big.Int
	BorrowExchangePrice *big.Int
	WithdrawnAmount     *big.Int
	BorrowedAmount      *big.Int
	Claimed             bool
}

func requirePositive(v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func mulDivDown(a, b, c *big.Int) (*big.Int, error) {
	return fixedpoint.MulDivDown(a, b, c)
}

func mulDivUp(a, b, c *big.Int) (*big.Int, error) {
	return fixedpoint.MulDivUp(a, b, c)
}
