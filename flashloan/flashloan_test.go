package flashloan

import (
	"encoding/binary"
	"math/big"
	"testing"

	"vaultcore/pubkey"
	"vaultcore/txctx"
)

func testAdmin(t *testing.T) *FlashloanAdmin {
	t.Helper()
	authority := pubkey.MustNew(pubkey.UserPrefix, make([]byte, 32))
	liquidityProgram := pubkey.MustNew(pubkey.ProgramPrefix, bytesOf(1))
	a, err := NewFlashloanAdmin(authority, liquidityProgram, 30, 1)
	if err != nil {
		t.Fatalf("NewFlashloanAdmin: %v", err)
	}
	return a
}

func bytesOf(b byte) []byte {
	out := make([]byte, 32)
	for i := range out {
		out[i] = b
	}
	return out
}

func paybackInstruction(programID pubkey.Pubkey, accounts []pubkey.Pubkey, amount uint64) txctx.Instruction {
	data := make([]byte, 16)
	copy(data[:8], PaybackDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:], amount)
	return txctx.Instruction{ProgramID: programID, Accounts: accounts, Data: data}
}

// TestValidateFlashloanFindsPaybackSuffix exercises scenario S5: a payback
// instruction placed after the borrow, scanning in reverse across an
// unrelated sibling instruction in between.
func TestValidateFlashloanFindsPaybackSuffix(t *testing.T) {
	a := testAdmin(t)
	programID := pubkey.MustNew(pubkey.ProgramPrefix, bytesOf(2))
	accounts := []pubkey.Pubkey{pubkey.MustNew(pubkey.UserPrefix, bytesOf(3))}
	amount := big.NewInt(5_000)

	sched := &txctx.StaticSchedule{
		Current: 0,
		Instructions: []txctx.Instruction{
			{ProgramID: programID},
			{ProgramID: pubkey.MustNew(pubkey.ProgramPrefix, bytesOf(9))}, // unrelated sibling
			paybackInstruction(programID, accounts, 5_000),
		},
	}

	if err := a.ValidateFlashloan(programID, accounts, amount, 1, sched); err != nil {
		t.Fatalf("ValidateFlashloan: %v", err)
	}
	if !a.IsFlashloanActive || a.ActiveFlashloanAmount.Cmp(amount) != 0 {
		t.Fatalf("expected flashloan marked active at %s", amount)
	}
}

func TestValidateFlashloanRejectsMissingPayback(t *testing.T) {
	a := testAdmin(t)
	programID := pubkey.MustNew(pubkey.ProgramPrefix, bytesOf(2))
	accounts := []pubkey.Pubkey{pubkey.MustNew(pubkey.UserPrefix, bytesOf(3))}

	sched := &txctx.StaticSchedule{
		Current:      0,
		Instructions: []txctx.Instruction{{ProgramID: programID}},
	}

	err := a.ValidateFlashloan(programID, accounts, big.NewInt(5_000), 1, sched)
	if err != ErrPaybackNotFound {
		t.Fatalf("expected ErrPaybackNotFound, got %v", err)
	}
}

func TestValidateFlashloanRejectsMultiplePaybacks(t *testing.T) {
	a := testAdmin(t)
	programID := pubkey.MustNew(pubkey.ProgramPrefix, bytesOf(2))
	accounts := []pubkey.Pubkey{pubkey.MustNew(pubkey.UserPrefix, bytesOf(3))}

	sched := &txctx.StaticSchedule{
		Current: 0,
		Instructions: []txctx.Instruction{
			{ProgramID: programID},
			paybackInstruction(programID, accounts, 5_000),
			paybackInstruction(programID, accounts, 5_000),
		},
	}

	err := a.ValidateFlashloan(programID, accounts, big.NewInt(5_000), 1, sched)
	if err != ErrMultiplePaybacksFound {
		t.Fatalf("expected ErrMultiplePaybacksFound, got %v", err)
	}
}

// TestValidateFlashloanRejectsMismatchedSameProgramInstruction exercises the
// "decode failure on a same-program instruction is a hard error, not a
// skip" rule: a same-program instruction with the wrong amount must reject
// the whole call rather than being ignored in favour of a later valid one.
func TestValidateFlashloanRejectsMismatchedSameProgramInstruction(t *testing.T) {
	a := testAdmin(t)
	programID := pubkey.MustNew(pubkey.ProgramPrefix, bytesOf(2))
	accounts := []pubkey.Pubkey{pubkey.MustNew(pubkey.UserPrefix, bytesOf(3))}

	sched := &txctx.StaticSchedule{
		Current: 0,
		Instructions: []txctx.Instruction{
			{ProgramID: programID},
			paybackInstruction(programID, accounts, 999), // same program, wrong amount
		},
	}

	err := a.ValidateFlashloan(programID, accounts, big.NewInt(5_000), 1, sched)
	if err != ErrInvalidInstruction {
		t.Fatalf("expected ErrInvalidInstruction, got %v", err)
	}
}

func TestValidateFlashloanRejectsCPIWrapping(t *testing.T) {
	a := testAdmin(t)
	programID := pubkey.MustNew(pubkey.ProgramPrefix, bytesOf(2))
	accounts := []pubkey.Pubkey{pubkey.MustNew(pubkey.UserPrefix, bytesOf(3))}

	sched := &txctx.StaticSchedule{
		Current: 0,
		Height:  2,
		Instructions: []txctx.Instruction{
			{ProgramID: programID},
			paybackInstruction(programID, accounts, 5_000),
		},
	}

	err := a.ValidateFlashloan(programID, accounts, big.NewInt(5_000), 1, sched)
	if err != ErrCPICallNotAllowed {
		t.Fatalf("expected ErrCPICallNotAllowed, got %v", err)
	}
}

func TestValidateFlashloanRejectsWhenPaused(t *testing.T) {
	a := testAdmin(t)
	if err := a.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	programID := pubkey.MustNew(pubkey.ProgramPrefix, bytesOf(2))
	sched := &txctx.StaticSchedule{Current: 0, Instructions: []txctx.Instruction{{ProgramID: programID}}}
	err := a.ValidateFlashloan(programID, nil, big.NewInt(5_000), 1, sched)
	if err != ErrPaused {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
}

func TestPaybackAmountRoundTrip(t *testing.T) {
	a := testAdmin(t)
	programID := pubkey.MustNew(pubkey.ProgramPrefix, bytesOf(2))
	accounts := []pubkey.Pubkey{pubkey.MustNew(pubkey.UserPrefix, bytesOf(3))}
	sched := &txctx.StaticSchedule{
		Current: 0,
		Instructions: []txctx.Instruction{
			{ProgramID: programID},
			paybackInstruction(programID, accounts, 5_000),
		},
	}
	if err := a.ValidateFlashloan(programID, accounts, big.NewInt(5_000), 1, sched); err != nil {
		t.Fatalf("ValidateFlashloan: %v", err)
	}
	if err := a.ValidatePaybackAmount(big.NewInt(5_000), 1); err != nil {
		t.Fatalf("ValidatePaybackAmount: %v", err)
	}
	if a.IsFlashloanActive {
		t.Fatal("expected flashloan cleared after payback")
	}
}

func TestPaybackAmountRejectsMismatch(t *testing.T) {
	a := testAdmin(t)
	programID := pubkey.MustNew(pubkey.ProgramPrefix, bytesOf(2))
	accounts := []pubkey.Pubkey{pubkey.MustNew(pubkey.UserPrefix, bytesOf(3))}
	sched := &txctx.StaticSchedule{
		Current: 0,
		Instructions: []txctx.Instruction{
			{ProgramID: programID},
			paybackInstruction(programID, accounts, 5_000),
		},
	}
	if err := a.ValidateFlashloan(programID, accounts, big.NewInt(5_000), 1, sched); err != nil {
		t.Fatalf("ValidateFlashloan: %v", err)
	}
	err := a.ValidatePaybackAmount(big.NewInt(4_999), 1)
	if err != ErrInvalidParams {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestFeeRoundsUpAndCapsAtMax(t *testing.T) {
	a := testAdmin(t)
	fee, err := a.Fee(big.NewInt(1_000))
	if err != nil {
		t.Fatalf("Fee: %v", err)
	}
	if fee.Cmp(big.NewInt(3)) != 0 { // 1000 * 30bps / 10000 = 3 exactly
		t.Fatalf("expected fee 3, got %s", fee)
	}
	fee, err = a.Fee(big.NewInt(1_001))
	if err != nil {
		t.Fatalf("Fee: %v", err)
	}
	if fee.Cmp(big.NewInt(4)) != 0 { // 1001 * 30bps / 10000 = 3.003, rounded up to 4
		t.Fatalf("expected fee 4, got %s", fee)
	}
	if err := a.SetFee(FlashloanFeeMaxBps + 1); err != ErrFeeTooHigh {
		t.Fatalf("expected ErrFeeTooHigh, got %v", err)
	}
}
