package fixedpoint

import (
	"math/big"
	"testing"
)

func TestMulDivDownBasic(t *testing.T) {
	got, err := MulDivDown(b(10), b(3), b(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != 7 { // floor(30/4) = 7
		t.Fatalf("MulDivDown(10,3,4) = %d, want 7", got.Int64())
	}
}

func TestMulDivUpBasic(t *testing.T) {
	got, err := MulDivUp(b(10), b(3), b(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != 8 { // ceil(30/4) = 8
		t.Fatalf("MulDivUp(10,3,4) = %d, want 8", got.Int64())
	}
}

func TestMulDivDownByZero(t *testing.T) {
	if _, err := MulDivDown(b(1), b(1), b(0)); err != ErrDivByZero {
		t.Fatalf("expected ErrDivByZero, got %v", err)
	}
}

func TestMulDivDownRejectsNegative(t *testing.T) {
	if _, err := MulDivDown(b(-1), b(1), b(1)); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow for negative operand, got %v", err)
	}
}

func TestMulDivDownExceedingUint256FallsBackToBigIntPath(t *testing.T) {
	// two values whose product overflows 256 bits individually fit within it,
	// exercising the uint256 fast path's own overflow detection and the
	// arbitrary-precision fallback together.
	big128 := new(big.Int).Lsh(big.NewInt(1), 200)
	got, err := MulDivDown(big128, big128, big.NewInt(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(big.Int).Mul(big128, big128)
	if got.Cmp(want) != 0 {
		t.Fatalf("MulDivDown overflow fallback mismatch: got %s want %s", got, want)
	}
}
