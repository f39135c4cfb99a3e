package oracle

import (
	"math/big"
	"testing"
)

func TestStaticReadPrice(t *testing.T) {
	s := &Static{Price: big.NewInt(2_000_000_000)}
	got, err := s.ReadPrice(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(s.Price) != 0 {
		t.Fatalf("got %s, want %s", got, s.Price)
	}
}

func TestStaticRejectsZeroPrice(t *testing.T) {
	s := &Static{Price: big.NewInt(0)}
	if _, err := s.ReadPrice(0); err != ErrInvalidPrice {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestCacheRejectsExcessiveDeviation(t *testing.T) {
	src := &Static{Price: big.NewInt(1_000_000_000)}
	c := &Cache{Source: src, MaxDeviationBps: 500} // 5%
	if _, err := c.ReadPrice(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src.Price = big.NewInt(1_200_000_000) // 20% jump
	if _, err := c.ReadPrice(1); err != ErrPriceDeviation {
		t.Fatalf("expected ErrPriceDeviation, got %v", err)
	}
}

func TestCacheAllowsDeviationWithinBound(t *testing.T) {
	src := &Static{Price: big.NewInt(1_000_000_000)}
	c := &Cache{Source: src, MaxDeviationBps: 500}
	if _, err := c.ReadPrice(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src.Price = big.NewInt(1_030_000_000) // 3% move
	if _, err := c.ReadPrice(1); err != nil {
		t.Fatalf("unexpected error within bound: %v", err)
	}
}

func TestCacheLastObservedStaleness(t *testing.T) {
	src := &Static{Price: big.NewInt(1_000_000_000)}
	c := &Cache{Source: src, MaxAgeSeconds: 60}
	if _, err := c.ReadPrice(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.LastObserved(30); err != nil {
		t.Fatalf("unexpected error within age bound: %v", err)
	}
	if _, err := c.LastObserved(120); err != ErrStalePrice {
		t.Fatalf("expected ErrStalePrice, got %v", err)
	}
}
