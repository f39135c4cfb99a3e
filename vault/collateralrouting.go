package vault

import (
	"math/big"

	"vaultcore/fixedpoint"
	"vaultcore/pubkey"
)

// CollateralRouting splits a liquidate() call's released collateral between
// the liquidator, a developer fee target, and a protocol fee target, ported
// from the teacher's lending engine's collateral distribution. The zero
// value routes the entire release to the liquidator, preserving the base
// liquidate() behaviour.
type CollateralRouting struct {
	LiquidatorBps   uint64
	DeveloperBps    uint64
	DeveloperTarget pubkey.Pubkey
	ProtocolBps     uint64
	ProtocolTarget  pubkey.Pubkey
}

// Validate rejects a routing whose shares sum past 100%.
func (r CollateralRouting) Validate() error {
	if r.LiquidatorBps+r.DeveloperBps+r.ProtocolBps > FourDecimals {
		return ErrCollateralRoutingBps
	}
	return nil
}

// CollateralSplit reports how a single liquidate() call's total released
// collateral was divided.
type CollateralSplit struct {
	LiquidatorShare *big.Int
	DeveloperShare  *big.Int
	ProtocolShare   *big.Int
}

// computeShare floors amount*bps/10000, matching the teacher's
// computeShare closure.
func computeShare(amount *big.Int, bps uint64) (*big.Int, error) {
	if amount.Sign() == 0 || bps == 0 {
		return new(big.Int), nil
	}
	share, err := fixedpoint.MulDivDown(amount, new(big.Int).SetUint64(bps), big.NewInt(FourDecimals))
	if err != nil {
		return nil, err
	}
	if share.Sign() < 0 {
		return new(big.Int), nil
	}
	return share, nil
}

// Split divides colReleased according to r, crediting any rounding
// remainder back to the liquidator so the three shares always sum to
// colReleased exactly.
func (r CollateralRouting) Split(colReleased *big.Int) (*CollateralSplit, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	developerShare, err := computeShare(colReleased, r.DeveloperBps)
	if err != nil {
		return nil, err
	}
	if developerShare.Sign() > 0 && r.DeveloperTarget.IsZero() {
		return nil, ErrDeveloperCollateralTarget
	}

	protocolShare, err := computeShare(colReleased, r.ProtocolBps)
	if err != nil {
		return nil, err
	}
	if protocolShare.Sign() > 0 && r.ProtocolTarget.IsZero() {
		return nil, ErrProtocolCollateralTarget
	}

	liquidatorShare := new(big.Int).Sub(colReleased, developerShare)
	liquidatorShare.Sub(liquidatorShare, protocolShare)
	if liquidatorShare.Sign() < 0 {
		liquidatorShare = new(big.Int)
	}

	allocated := new(big.Int).Add(liquidatorShare, developerShare)
	allocated.Add(allocated, protocolShare)
	if allocated.Cmp(colReleased) < 0 {
		liquidatorShare = new(big.Int).Add(liquidatorShare, new(big.Int).Sub(colReleased, allocated))
	}

	return &CollateralSplit{LiquidatorShare: liquidatorShare, DeveloperShare: developerShare, ProtocolShare: protocolShare}, nil
}
