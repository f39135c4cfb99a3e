package liquidity

import (
	"math/big"
	"testing"
)

func TestExpandShrinkLimitTouchShrinksThenRegenerates(t *testing.T) {
	l := &ExpandShrinkLimit{
		BaseLimit:             big.NewInt(0),
		ExpandPercentBps:       2000, // 20%
		ExpandDurationSeconds:  100,
		LastUpdateTimestamp:    0,
	}
	total := big.NewInt(1_000_000)
	if err := l.Touch(0, total); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := big.NewInt(800_000) // 1_000_000 * (1 - 0.2)
	if l.Current.Cmp(want) != 0 {
		t.Fatalf("after touch, current = %s, want %s", l.Current, want)
	}

	avail, err := l.Available(50, total)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// halfway through expand_duration, the floor has decayed halfway back
	// down toward BaseLimit (0): floor ~ 400_000, available ~ 600_000.
	if avail.Cmp(big.NewInt(500_000)) <= 0 || avail.Cmp(total) >= 0 {
		t.Fatalf("available at t=50 looks wrong: %s", avail)
	}

	availFull, err := l.Available(1000, total)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if availFull.Cmp(total) != 0 {
		t.Fatalf("fully regenerated limit (BaseLimit 0) should leave the whole total available, got %s", availFull)
	}
}

func TestExpandShrinkLimitRespectsBaseAndMax(t *testing.T) {
	l := &ExpandShrinkLimit{
		BaseLimit:             big.NewInt(900_000),
		MaxLimit:              big.NewInt(950_000),
		ExpandPercentBps:       5000,
		ExpandDurationSeconds:  10,
		LastUpdateTimestamp:    0,
	}
	total := big.NewInt(1_000_000)
	if err := l.Touch(0, total); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Current.Cmp(l.BaseLimit) != 0 {
		t.Fatalf("shrink below BaseLimit must floor at BaseLimit: got %s", l.Current)
	}

	capped := &ExpandShrinkLimit{MaxLimit: big.NewInt(100_000), ExpandPercentBps: 5000, ExpandDurationSeconds: 10}
	if err := capped.Touch(0, total); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capped.Current.Cmp(capped.MaxLimit) != 0 {
		t.Fatalf("a floor pushed above MaxLimit must cap at MaxLimit: got %s", capped.Current)
	}
}

func TestExpandShrinkLimitGenesisHasFullHeadroom(t *testing.T) {
	l := &ExpandShrinkLimit{ExpandPercentBps: 2000, ExpandDurationSeconds: 100}
	total := big.NewInt(1_000_000)
	avail, err := l.Available(0, total)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.Cmp(total) != 0 {
		t.Fatalf("a fresh limit with no configured BaseLimit should report the whole total available, got %s", avail)
	}
	if err := l.Touch(0, total); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.Available(0, big.NewInt(500_000)); err != nil {
		t.Fatalf("unexpected error after first withdrawal: %v", err)
	}
}

func TestExpandShrinkLimitRejectsBackwardsTime(t *testing.T) {
	l := &ExpandShrinkLimit{LastUpdateTimestamp: 100}
	if _, err := l.Available(50, big.NewInt(1)); err != ErrInvalidTimestamp {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}
