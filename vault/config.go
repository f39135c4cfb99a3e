package vault

import (
	"math/big"

	"vaultcore/pubkey"
)

// VaultConfig holds the immutable-after-init parameters for a single vault,
// ported field-for-field from
// original_source/programs/vaults/src/state/vault_config.rs.
type VaultConfig struct {
	VaultID uint16

	SupplyToken      pubkey.Pubkey
	BorrowToken      pubkey.Pubkey
	Oracle           pubkey.Pubkey
	LiquidityProgram pubkey.Pubkey
	Rebalancer       pubkey.Pubkey

	// CollateralFactorBps (CF), LiquidationThresholdBps (LT),
	// LiquidationMaxLimitBps (LML), WithdrawGapBps, LiquidationPenaltyBps,
	// BorrowFeeBps are all FourDecimals fixed point (10_000 == 100%).
	CollateralFactorBps     uint16
	LiquidationThresholdBps uint16
	LiquidationMaxLimitBps  uint16
	WithdrawGapBps          uint16
	LiquidationPenaltyBps   uint16
	BorrowFeeBps            uint16

	SupplyRateMagnifierBps int16
	BorrowRateMagnifierBps int16

	// CollateralRouting optionally diverts a share of every liquidate()
	// call's released collateral to a developer and/or protocol target.
	// The zero value routes the entire release to the liquidator.
	CollateralRouting CollateralRouting
}

// Validate rejects a VaultConfig whose percentage fields are internally
// inconsistent: CF must sit strictly below LT, which must sit at or below
// LML, and the liquidation penalty must not exceed the configured maximum.
func (c *VaultConfig) Validate() error {
	if c.CollateralFactorBps == 0 || c.CollateralFactorBps >= c.LiquidationThresholdBps {
		return ErrInvalidTick
	}
	if c.LiquidationThresholdBps > c.LiquidationMaxLimitBps {
		return ErrInvalidTick
	}
	if c.LiquidationPenaltyBps > MaxLiquidationPenaltyBps {
		return ErrInvalidTick
	}
	if err := c.CollateralRouting.Validate(); err != nil {
		return err
	}
	return nil
}

// VaultState is the mutable per-vault state, ported from spec.md §3.
type VaultState struct {
	TopTick    int32
	TopTickSet bool

	TotalSupplyVault *big.Int
	TotalBorrowVault *big.Int

	VaultSupplyExchangePrice *big.Int
	VaultBorrowExchangePrice *big.Int

	LiquiditySupplyExchangePrice *big.Int
	LiquidityBorrowExchangePrice *big.Int

	CurrentBranchID uint32
	TotalBranchID   uint32
	NextPositionID  uint32
}

// NewVaultState constructs a fresh, empty vault state with both exchange
// price tracks initialised to identity (1.0 in scaled space).
func NewVaultState(precision *big.Int) *VaultState {
	return &VaultState{
		TotalSupplyVault:             new(big.Int),
		TotalBorrowVault:             new(big.Int),
		VaultSupplyExchangePrice:     new(big.Int).Set(precision),
		VaultBorrowExchangePrice:     new(big.Int).Set(precision),
		LiquiditySupplyExchangePrice: new(big.Int).Set(precision),
		LiquidityBorrowExchangePrice: new(big.Int).Set(precision),
	}
}
