package vault

import "math/big"

// BranchStatus enumerates a Branch's lifecycle state.
type BranchStatus uint8

const (
	BranchActive BranchStatus = iota
	BranchLiquidated
	BranchMergedClosed
	BranchMergedRedeemed
)

// Tick is the aggregate debt bucket for every position sharing the same
// debt/collateral ratio, ported field-for-field from
// original_source/programs/vaults/src/state/tick.rs.
type Tick struct {
	VaultID             uint16
	Tick                int32
	IsLiquidated         bool
	TotalIDs             uint32
	RawDebt              *big.Int
	IsFullyLiquidated    bool
	LiquidationBranchID  uint32
	DebtFactor           DebtFactor
}

// NewTick constructs an empty tick record.
func NewTick(vaultID uint16, tick int32) *Tick {
	return &Tick{VaultID: vaultID, Tick: tick, RawDebt: new(big.Int)}
}

// SetLiquidated records this tick's liquidation outcome and zeroes its raw
// debt — it no longer carries live debt once liquidated.
func (t *Tick) SetLiquidated(branchID uint32, factor DebtFactor) {
	t.RawDebt = new(big.Int)
	t.IsLiquidated = true
	t.DebtFactor = factor
	t.LiquidationBranchID = branchID
}

// SetFullyLiquidated marks the tick fully absorbed by branchID.
func (t *Tick) SetFullyLiquidated(branchID uint32) {
	t.SetLiquidated(branchID, 0)
	t.IsFullyLiquidated = true
}

// TickIdLiquidation is the three-slot ring, indexed by tick_id mod 3,
// capturing what happened at each partial liquidation of a tick so a later
// position can reconstruct its share. Ported field-for-field from
// original_source/programs/vaults/src/state/tick_id_liquidation.rs.
type TickIdLiquidation struct {
	VaultID uint16
	Tick    int32
	TickMap uint32

	slots [3]tickIDSlot
}

type tickIDSlot struct {
	IsFullyLiquidated   bool
	LiquidationBranchID uint32
	DebtFactor          DebtFactor
}

// RingSlot is the exported snapshot of a single ring slot, used by the
// layout package to pack/unpack TickIdLiquidation without exposing the
// private slots array itself.
type RingSlot struct {
	IsFullyLiquidated   bool
	LiquidationBranchID uint32
	DebtFactor          DebtFactor
}

// Slots returns a snapshot of all three ring slots in storage order.
func (r *TickIdLiquidation) Slots() [3]RingSlot {
	var out [3]RingSlot
	for i, s := range r.slots {
		out[i] = RingSlot{IsFullyLiquidated: s.IsFullyLiquidated, LiquidationBranchID: s.LiquidationBranchID, DebtFactor: s.DebtFactor}
	}
	return out
}

// SetSlots restores all three ring slots from a snapshot produced by Slots.
func (r *TickIdLiquidation) SetSlots(slots [3]RingSlot) {
	for i, s := range slots {
		r.slots[i] = tickIDSlot{IsFullyLiquidated: s.IsFullyLiquidated, LiquidationBranchID: s.LiquidationBranchID, DebtFactor: s.DebtFactor}
	}
}

func ringIndex(tickID uint32) uint32 {
	return (tickID + 2) % 3
}

// SetTickStatus records the liquidation snapshot for tickID.
func (r *TickIdLiquidation) SetTickStatus(tickID uint32, fullyLiquidated bool, branchID uint32, factor DebtFactor) {
	r.slots[ringIndex(tickID)] = tickIDSlot{
		IsFullyLiquidated:   fullyLiquidated,
		LiquidationBranchID: branchID,
		DebtFactor:          factor,
	}
	r.TickMap = (tickID + 2) / 3
}

// GetTickStatus returns the liquidation snapshot recorded for tickID.
func (r *TickIdLiquidation) GetTickStatus(tickID uint32) (bool, uint32, DebtFactor) {
	slot := r.slots[ringIndex(tickID)]
	return slot.IsFullyLiquidated, slot.LiquidationBranchID, slot.DebtFactor
}

// Validate checks this ring belongs to the given tick/tick_id pair, mirroring
// tick_id_liquidation.rs's own validate().
func (r *TickIdLiquidation) Validate(tick int32, tickID uint32) error {
	if r.Tick != tick || r.TickMap != (tickID+2)/3 {
		return ErrTickMismatch
	}
	return nil
}

// Branch is a node in the liquidation branch tree: branches form a tree
// rooted at the active branch, and liquidating "closes" a branch, spawning a
// new one with parent_branch_id set to the closed branch's id.
type Branch struct {
	BranchID       uint32
	Status         BranchStatus
	MinimaTick     int32
	DebtFactor     DebtFactor
	Partials       uint32
	TotalBorrow    *big.Int
	TotalSupply    *big.Int
	ParentBranchID uint32
}

// NewRootBranch constructs branch 0, the vault's initial active branch.
func NewRootBranch(minimaTick int32) *Branch {
	return &Branch{
		BranchID:    0,
		Status:      BranchActive,
		MinimaTick:  minimaTick,
		DebtFactor:  IdentityDebtFactor,
		TotalBorrow: new(big.Int),
		TotalSupply: new(big.Int),
	}
}
