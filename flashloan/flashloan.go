// Package flashloan implements the flashloan guard (C6): a single-slot
// active-loan tracker plus the instruction-sysvar scan that proves a
// payback instruction is present later in the same transaction before the
// borrow is allowed to proceed.
package flashloan

import (
	"encoding/binary"
	"errors"
	"math/big"

	"vaultcore/fixedpoint"
	"vaultcore/pubkey"
	"vaultcore/txctx"
)

// MinFlashloanAmount is the smallest amount flashloan()/flashloan_payback()
// accept, ported from original_source/programs/flashloan/src/constants.rs.
const MinFlashloanAmount = 1_000

// FlashloanFeeMaxBps caps FlashloanAdmin.FlashloanFeeBps at 0.5%.
const FlashloanFeeMaxBps = 50

// FlashloanStackHeight is the maximum CPI stack depth a flashloan
// instruction may execute at: no CPI call is allowed into this guard.
const FlashloanStackHeight = 1

// FourDecimals is the bps fixed-point scale (10_000 == 100%).
const FourDecimals = 10_000

var (
	ErrInvalidParams        = errors.New("flashloan: invalid parameters")
	ErrFeeTooHigh           = errors.New("flashloan: fee exceeds FlashloanFeeMaxBps")
	ErrAlreadyActive        = errors.New("flashloan: a flashloan is already active")
	ErrAlreadyInactive      = errors.New("flashloan: no flashloan is currently active")
	ErrCPICallNotAllowed    = errors.New("flashloan: cpi call not allowed at this stack height")
	ErrPaybackNotFound      = errors.New("flashloan: no matching payback instruction found")
	ErrInvalidInstruction   = errors.New("flashloan: same-program instruction does not match the payback shape")
	ErrMultiplePaybacksFound = errors.New("flashloan: more than one matching payback instruction found")
	ErrPaused               = errors.New("flashloan: protocol paused")
)

// PaybackDiscriminator identifies a flashloan_payback instruction by its
// first 8 data bytes, matching spec.md's "8-byte discriminator (first 8
// bytes of a domain-separated hash of the instruction name)".
var PaybackDiscriminator = pubkey.Discriminator("flashloan", "flashloan_payback")

// FlashloanAdmin is the guard's persisted state, ported field-for-field from
// original_source/programs/flashloan/src/state/state.rs's FlashloanAdmin.
type FlashloanAdmin struct {
	Authority              pubkey.Pubkey
	LiquidityProgram       pubkey.Pubkey
	Status                 bool
	FlashloanFeeBps        uint16
	FlashloanTimestamp     int64
	IsFlashloanActive      bool
	ActiveFlashloanAmount  *big.Int
	Bump                   uint8
}

// NewFlashloanAdmin constructs the guard's genesis state, active by default.
func NewFlashloanAdmin(authority, liquidityProgram pubkey.Pubkey, feeBps uint16, bump uint8) (*FlashloanAdmin, error) {
	if feeBps > FlashloanFeeMaxBps {
		return nil, ErrFeeTooHigh
	}
	if authority.IsZero() || liquidityProgram.IsZero() {
		return nil, ErrInvalidParams
	}
	return &FlashloanAdmin{
		Authority:             authority,
		LiquidityProgram:      liquidityProgram,
		Status:                true,
		FlashloanFeeBps:       feeBps,
		ActiveFlashloanAmount: new(big.Int),
		Bump:                  bump,
	}, nil
}

// Pause idles the guard; every outstanding flashloan() call is still
// rejected at entry once paused.
func (a *FlashloanAdmin) Pause() error {
	if !a.Status {
		return ErrInvalidParams
	}
	a.Status = false
	return nil
}

// Activate un-idles the guard.
func (a *FlashloanAdmin) Activate() error {
	if a.Status {
		return ErrInvalidParams
	}
	a.Status = true
	return nil
}

// IsPaused reports the guard's idle state.
func (a *FlashloanAdmin) IsPaused() bool {
	return !a.Status
}

// SetFee updates the flashloan fee, bounded by FlashloanFeeMaxBps.
func (a *FlashloanAdmin) SetFee(feeBps uint16) error {
	if feeBps > FlashloanFeeMaxBps {
		return ErrFeeTooHigh
	}
	a.FlashloanFeeBps = feeBps
	return nil
}

// Fee computes the rounded-up fee owed on a flashloan of amount.
func (a *FlashloanAdmin) Fee(amount *big.Int) (*big.Int, error) {
	return fixedpoint.MulDivUp(amount, big.NewInt(int64(a.FlashloanFeeBps)), big.NewInt(FourDecimals))
}

// ExpectedPaybackAmount is the principal plus fee the payback instruction
// must repay.
func (a *FlashloanAdmin) ExpectedPaybackAmount(amount *big.Int) (*big.Int, error) {
	fee, err := a.Fee(amount)
	if err != nil {
		return nil, err
	}
	return fixedpoint.CheckedAdd(amount, fee, fixedpoint.Width128)
}

// setActive records amount as the outstanding flashloan, rejecting reentry.
func (a *FlashloanAdmin) setActive(amount *big.Int, now int64) error {
	if a.IsFlashloanActive {
		return ErrAlreadyActive
	}
	a.FlashloanTimestamp = now
	a.IsFlashloanActive = true
	a.ActiveFlashloanAmount = new(big.Int).Set(amount)
	return nil
}

// setInactive clears the outstanding flashloan once its payback is applied.
func (a *FlashloanAdmin) setInactive() error {
	if !a.IsFlashloanActive {
		return ErrAlreadyInactive
	}
	a.IsFlashloanActive = false
	a.ActiveFlashloanAmount = new(big.Int)
	return nil
}

// ValidateFlashloan implements spec.md §4.6 flashloan(amount): the minimum
// amount floor, the pause gate, confirming the currently-executing
// instruction belongs to programID (no CPI wrapping this call), the
// no-further-CPI stack-height guard, and that a matching payback
// instruction exists later in the same transaction. On success it marks the
// loan active.
func (a *FlashloanAdmin) ValidateFlashloan(programID pubkey.Pubkey, accounts []pubkey.Pubkey, amount *big.Int, now int64, sched txctx.Schedule) error {
	if amount == nil || amount.Cmp(big.NewInt(MinFlashloanAmount)) < 0 {
		return ErrInvalidParams
	}
	if a.IsPaused() {
		return ErrPaused
	}
	current, err := sched.InstructionAt(sched.CurrentIndex())
	if err != nil {
		return err
	}
	if !current.ProgramID.Equal(programID) {
		return ErrInvalidParams
	}
	if sched.StackHeight() > FlashloanStackHeight {
		return ErrCPICallNotAllowed
	}
	if err := validatePaybackExists(programID, accounts, amount, sched); err != nil {
		return err
	}
	return a.setActive(amount, now)
}

// validatePaybackExists ports
// original_source/programs/flashloan/src/validate.rs's
// validate_payback_instruction_exists: scan the entire suffix after the
// current instruction, in reverse. Every same-program instruction is a
// payback candidate; one that doesn't decode as a valid matching payback is
// a hard error (not skipped); a valid match keeps scanning, so a second
// valid match is ErrMultiplePaybacksFound.
func validatePaybackExists(programID pubkey.Pubkey, accounts []pubkey.Pubkey, amount *big.Int, sched txctx.Schedule) error {
	total := sched.InstructionCount()
	start := sched.CurrentIndex() + 1
	found := false
	for i := total - 1; i >= start; i-- {
		ix, err := sched.InstructionAt(i)
		if err != nil {
			return ErrPaybackNotFound
		}
		if !ix.ProgramID.Equal(programID) {
			continue
		}
		ok, err := isPaybackInstruction(ix, accounts, amount)
		if err != nil {
			return ErrPaybackNotFound
		}
		if !ok {
			return ErrInvalidInstruction
		}
		if found {
			return ErrMultiplePaybacksFound
		}
		found = true
	}
	if !found {
		return ErrPaybackNotFound
	}
	return nil
}

// isPaybackInstruction mirrors is_flashloan_payback_instruction: a payback
// instruction is exactly an 8-byte discriminator followed by an 8-byte
// little-endian amount, addressed to the same account list as the
// flashloan call, in the same order.
func isPaybackInstruction(ix txctx.Instruction, accounts []pubkey.Pubkey, expectedAmount *big.Int) (bool, error) {
	if len(ix.Data) != 16 {
		return false, nil
	}
	if len(ix.Accounts) != len(accounts) {
		return false, nil
	}
	for i, acc := range accounts {
		if !ix.Accounts[i].Equal(acc) {
			return false, nil
		}
	}
	var discriminator [8]byte
	copy(discriminator[:], ix.Data[:8])
	if discriminator != PaybackDiscriminator {
		return false, nil
	}
	instructionAmount := new(big.Int).SetUint64(binary.LittleEndian.Uint64(ix.Data[8:16]))
	if instructionAmount.Cmp(expectedAmount) != 0 {
		return false, nil
	}
	return true, nil
}

// ValidatePaybackAmount implements spec.md §4.6 flashloan_payback(amount):
// the repaid amount must exactly match the outstanding flashloan, and the
// same no-further-CPI stack-height guard applies. On success it clears the
// active flashloan.
func (a *FlashloanAdmin) ValidatePaybackAmount(amount *big.Int, stackHeight int) error {
	if amount == nil || amount.Cmp(big.NewInt(MinFlashloanAmount)) < 0 {
		return ErrInvalidParams
	}
	if !a.IsFlashloanActive || amount.Cmp(a.ActiveFlashloanAmount) != 0 {
		return ErrInvalidParams
	}
	if stackHeight > FlashloanStackHeight {
		return ErrCPICallNotAllowed
	}
	return a.setInactive()
}
