package vault

import "errors"

// Error kinds ported from original_source/programs/vaults/src/errors.rs,
// scoped to the operations this module actually implements.
var (
	ErrNilState                          = errors.New("vault: state not configured")
	ErrInvalidDecimals                   = errors.New("vault: invalid decimals")
	ErrInvalidOperateAmount              = errors.New("vault: invalid operate amount")
	ErrTickIsEmpty                       = errors.New("vault: tick has no debt")
	ErrPositionAboveCF                   = errors.New("vault: position exceeds collateral factor")
	ErrTopTickDoesNotExist               = errors.New("vault: vault has no active tick")
	ErrExcessSlippageLiquidation         = errors.New("vault: liquidation output below caller minimum")
	ErrNotRebalancer                     = errors.New("vault: caller is not the configured rebalancer")
	ErrUserCollateralDebtExceed          = errors.New("vault: resulting collateral/debt would be negative")
	ErrExcessCollateralWithdrawal        = errors.New("vault: withdrawal exceeds position collateral")
	ErrExcessDebtPayback                 = errors.New("vault: payback exceeds position debt")
	ErrInvalidLiquidationAmount          = errors.New("vault: liquidation amount must be positive")
	ErrBranchDebtTooLow                  = errors.New("vault: branch total borrow below MinimumBranchDebt")
	ErrTickDebtTooLow                    = errors.New("vault: tick raw debt below MinimumTickDebt")
	ErrUserDebtTooLow                    = errors.New("vault: position debt below MinimumDebt")
	ErrInvalidPaybackOrDeposit           = errors.New("vault: payback/deposit delta sign mismatch")
	ErrNothingToRebalance                = errors.New("vault: no exchange-price drift to rebalance")
	ErrBranchNotFound                    = errors.New("vault: branch not found")
	ErrTickNotFound                      = errors.New("vault: tick not found")
	ErrTickMismatch                      = errors.New("vault: tick mismatch")
	ErrInvalidPositionID                 = errors.New("vault: invalid position id")
	ErrPositionNotEmpty                  = errors.New("vault: position still has collateral or debt")
	ErrInvalidTick                       = errors.New("vault: tick out of configured range")
	ErrPositionAboveLiquidationThreshold = errors.New("vault: position exceeds liquidation threshold")
	ErrInvalidPositionAuthority          = errors.New("vault: caller does not own the position")
	ErrDebtFactorExponentRange           = errors.New("vault: debt factor exponent out of representable range")
	ErrTickHasDebtOutOfRange             = errors.New("vault: tick outside TickHasDebtArray bounds")
	ErrCollateralRoutingBps              = errors.New("vault: collateral routing exceeds 10000 bps")
	ErrDeveloperCollateralTarget         = errors.New("vault: developer collateral share configured without a developer target")
	ErrProtocolCollateralTarget          = errors.New("vault: protocol collateral share configured without a protocol target")
)
