// Package txctx models the seam package flashloan's guard needs: a way to
// look at sibling instructions elsewhere in the current transaction. On a
// real host runtime this is the instructions sysvar
// (load_current_index_checked/load_instruction_at_checked); here it is a
// pluggable Schedule interface with a StaticSchedule test double.
package txctx

import (
	"errors"

	"vaultcore/pubkey"
)

// ErrInstructionIndexOutOfRange is returned by InstructionAt for an index
// outside [0, InstructionCount()).
var ErrInstructionIndexOutOfRange = errors.New("txctx: instruction index out of range")

// Instruction is one entry in a transaction's instruction list: the program
// it targets, the accounts it references in order, and its opaque data
// (an 8-byte discriminator followed by packed arguments, matching
// package layout's encoding).
type Instruction struct {
	ProgramID pubkey.Pubkey
	Accounts  []pubkey.Pubkey
	Data      []byte
}

// Schedule exposes the current transaction's instruction list the way a
// guard needs to inspect it: which instruction is executing now, how many
// total instructions there are, random access to any of them, and the
// current CPI stack depth.
type Schedule interface {
	CurrentIndex() int
	InstructionCount() int
	InstructionAt(i int) (Instruction, error)
	StackHeight() int
}

// StaticSchedule is a fixed, in-memory Schedule: the stand-in for a live
// instructions sysvar, used in tests and by any caller that has already
// assembled the transaction's instruction list up front.
type StaticSchedule struct {
	Current      int
	Instructions []Instruction
	Height       int
}

func (s *StaticSchedule) CurrentIndex() int { return s.Current }

func (s *StaticSchedule) InstructionCount() int { return len(s.Instructions) }

func (s *StaticSchedule) InstructionAt(i int) (Instruction, error) {
	if i < 0 || i >= len(s.Instructions) {
		return Instruction{}, ErrInstructionIndexOutOfRange
	}
	return s.Instructions[i], nil
}

func (s *StaticSchedule) StackHeight() int { return s.Height }
