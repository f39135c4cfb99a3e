package fixedpoint

import "testing"

func TestScaleAmountExpandsToCanonicalDecimals(t *testing.T) {
	got, err := ScaleAmount(b(1), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != 1000 { // 10^(9-6)
		t.Fatalf("ScaleAmount(1, 6) = %d, want 1000", got.Int64())
	}
}

func TestScaleAmountRejectsTooManyDecimals(t *testing.T) {
	if _, err := ScaleAmount(b(1), MaxTokenDecimals+1); err != ErrInvalidDecimals {
		t.Fatalf("expected ErrInvalidDecimals, got %v", err)
	}
}

func TestUnscaleRoundTripDown(t *testing.T) {
	scaled, err := ScaleAmount(b(5), 6)
	if err != nil {
		t.Fatalf("scale: %v", err)
	}
	back, err := UnscaleAmountDown(scaled, 6)
	if err != nil {
		t.Fatalf("unscale: %v", err)
	}
	if back.Int64() != 5 {
		t.Fatalf("round trip = %d, want 5", back.Int64())
	}
}

func TestUnscaleDownTruncatesRemainder(t *testing.T) {
	// 1 unit of canonical precision below a whole native unit should floor to zero.
	got, err := UnscaleAmountDown(b(999), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("UnscaleAmountDown(999, 6) = %d, want 0", got.Int64())
	}
}

func TestUnscaleUpRoundsAwayFromZero(t *testing.T) {
	got, err := UnscaleAmountUp(b(999), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != 1 {
		t.Fatalf("UnscaleAmountUp(999, 6) = %d, want 1", got.Int64())
	}
}

func TestUnscaleUpExactDivisionDoesNotRoundUp(t *testing.T) {
	scaled, err := ScaleAmount(b(4), 6)
	if err != nil {
		t.Fatalf("scale: %v", err)
	}
	got, err := UnscaleAmountUp(scaled, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != 4 {
		t.Fatalf("UnscaleAmountUp exact = %d, want 4", got.Int64())
	}
}
