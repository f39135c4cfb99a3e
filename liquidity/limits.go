package liquidity

import "math/big"

// ExpandShrinkLimit implements the expand-shrink soft-cap rule spec.md §4.3
// describes for both reserve-level and per-user withdrawal/borrow limits: a
// withdrawal (or borrow) pushes the limit's floor up to
// totalAfter × (1 − expandPercent), and that floor then regenerates
// (decays) linearly back down toward BaseLimit over expandDuration,
// widening the available headroom back out as time passes.
type ExpandShrinkLimit struct {
	Current               *big.Int
	BaseLimit              *big.Int
	MaxLimit               *big.Int
	ExpandPercentBps       uint64
	ExpandDurationSeconds  int64
	LastUpdateTimestamp    int64
}

func (l *ExpandShrinkLimit) base() *big.Int {
	if l.BaseLimit != nil {
		return l.BaseLimit
	}
	return big.NewInt(0)
}

// regenerated returns the limit's floor at now, having decayed linearly back
// down toward BaseLimit since LastUpdateTimestamp, without mutating the
// receiver. A limit whose Current floor was never set (the zero value)
// starts already fully regenerated, at BaseLimit.
func (l *ExpandShrinkLimit) regenerated(now int64) (*big.Int, error) {
	if now < l.LastUpdateTimestamp {
		return nil, ErrInvalidTimestamp
	}
	base := l.base()
	current := l.Current
	if current == nil {
		return new(big.Int).Set(base), nil
	}
	if current.Cmp(base) <= 0 {
		return base, nil
	}
	dt := now - l.LastUpdateTimestamp
	if dt <= 0 || l.ExpandDurationSeconds <= 0 {
		return current, nil
	}
	surplus := new(big.Int).Sub(current, base)
	decayed, err := mulDivDown(surplus, big.NewInt(dt), big.NewInt(l.ExpandDurationSeconds))
	if err != nil {
		return nil, err
	}
	next := new(big.Int).Sub(current, decayed)
	if next.Cmp(base) < 0 {
		return base, nil
	}
	return next, nil
}

// Available returns how much of total may still be drawn down (withdrawn or
// borrowed) before the limit is hit, at time now.
func (l *ExpandShrinkLimit) Available(now int64, total *big.Int) (*big.Int, error) {
	floor, err := l.regenerated(now)
	if err != nil {
		return nil, err
	}
	avail := new(big.Int).Sub(total, floor)
	if avail.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return avail, nil
}

// Touch records a draw-down that brings the tracked total to totalAfter,
// pushing the limit's floor up to totalAfter × (1 − expandPercent) (floored
// at BaseLimit, capped at MaxLimit when configured) unless the floor left
// over from a still-regenerating prior draw-down is already tighter.
func (l *ExpandShrinkLimit) Touch(now int64, totalAfter *big.Int) error {
	floor, err := l.regenerated(now)
	if err != nil {
		return err
	}
	shrunk, err := mulDivDown(totalAfter, big.NewInt(int64(BpsPrecision-l.ExpandPercentBps)), big.NewInt(BpsPrecision))
	if err != nil {
		return err
	}
	base := l.base()
	if shrunk.Cmp(base) < 0 {
		shrunk = base
	}
	if l.MaxLimit != nil && l.MaxLimit.Sign() > 0 && shrunk.Cmp(l.MaxLimit) > 0 {
		shrunk = l.MaxLimit
	}
	if shrunk.Cmp(floor) > 0 {
		l.Current = shrunk
	} else {
		l.Current = floor
	}
	l.LastUpdateTimestamp = now
	return nil
}
