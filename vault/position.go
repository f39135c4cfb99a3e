package vault

import "math/big"

// Position is a user's CDP, keyed by the position-NFT mint. Owned by the
// holder of the position NFT; mint authority is stripped after minting
// (a host-runtime concern, out of scope here).
type Position struct {
	PositionID    uint32
	Tick          int32
	TickID        uint32
	RawCollateral *big.Int
	RawDebt       *big.Int
	BranchID      uint32
}

// NewPosition constructs an empty position at the given id.
func NewPosition(positionID uint32) *Position {
	return &Position{
		PositionID:    positionID,
		RawCollateral: new(big.Int),
		RawDebt:       new(big.Int),
	}
}

// IsEmpty reports whether both sides of the position have been fully wound
// down — the condition close_position requires.
func (p *Position) IsEmpty() bool {
	return p.RawCollateral.Sign() == 0 && p.RawDebt.Sign() == 0
}
