package vault

import (
	"github.com/bits-and-blooms/bitset"

	"vaultcore/tickmath"
)

// TickHasDebtArray is the bitmap over tick space spec.md §3 describes: bit i
// set iff tick i currently carries non-zero raw debt. Liquidation walks it
// top-down via NextNonEmptyTickBelow to find the next tick to absorb.
type TickHasDebtArray struct {
	bits *bitset.BitSet
}

// NewTickHasDebtArray allocates a bitmap spanning the full configured tick
// range [-tickmath.TickMin, tickmath.TickMax].
func NewTickHasDebtArray() *TickHasDebtArray {
	span := uint(tickmath.TickMin + tickmath.TickMax + 1)
	return &TickHasDebtArray{bits: bitset.New(span)}
}

func (a *TickHasDebtArray) index(tick int) (uint, error) {
	if tick < -tickmath.TickMin || tick > tickmath.TickMax {
		return 0, ErrTickHasDebtOutOfRange
	}
	return uint(tick + tickmath.TickMin), nil
}

// Set marks tick as carrying debt.
func (a *TickHasDebtArray) Set(tick int) error {
	idx, err := a.index(tick)
	if err != nil {
		return err
	}
	a.bits.Set(idx)
	return nil
}

// Clear marks tick as empty.
func (a *TickHasDebtArray) Clear(tick int) error {
	idx, err := a.index(tick)
	if err != nil {
		return err
	}
	a.bits.Clear(idx)
	return nil
}

// Has reports whether tick currently carries debt.
func (a *TickHasDebtArray) Has(tick int) (bool, error) {
	idx, err := a.index(tick)
	if err != nil {
		return false, err
	}
	return a.bits.Test(idx), nil
}

// NextNonEmptyTickBelow returns the highest tick <= t that carries debt, and
// false if none exists — the primitive the liquidation cascade uses to walk
// ticks top-down, scanning the bitmap one 64-bit word at a time.
func (a *TickHasDebtArray) NextNonEmptyTickBelow(t int) (int, bool, error) {
	idx, err := a.index(t)
	if err != nil {
		return 0, false, err
	}
	found, ok := a.bits.PreviousSet(idx)
	if !ok {
		return 0, false, nil
	}
	return int(found) - tickmath.TickMin, true, nil
}

// TopTick returns the highest tick carrying debt in the entire array, and
// false if the array is empty.
func (a *TickHasDebtArray) TopTick() (int, bool) {
	found, ok := a.bits.PreviousSet(uint(tickmath.TickMin + tickmath.TickMax))
	if !ok {
		return 0, false
	}
	return int(found) - tickmath.TickMin, true
}

// MarshalBinary delegates to the underlying bitset's own binary codec, so
// the layout package can pack/unpack a TickHasDebtArray account without
// reaching into its private bits field.
func (a *TickHasDebtArray) MarshalBinary() ([]byte, error) {
	return a.bits.MarshalBinary()
}

// UnmarshalBinary restores a TickHasDebtArray previously packed with
// MarshalBinary.
func (a *TickHasDebtArray) UnmarshalBinary(data []byte) error {
	if a.bits == nil {
		a.bits = bitset.New(0)
	}
	return a.bits.UnmarshalBinary(data)
}
