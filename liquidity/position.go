package liquidity

import (
	"math/big"

	"vaultcore/pubkey"
)

// UserPosition is the per-user, per-token, per-side accounting record: the
// generalisation of the teacher's single NHB/ZNHB UserAccount to an
// arbitrary token and an arbitrary caller protocol's supply/borrow raw
// balance, each with its own finer-grained expand-shrink limit.
type UserPosition struct {
	User             pubkey.Pubkey
	Mint             pubkey.Pubkey
	UserClass        string
	SupplyRaw        *big.Int
	BorrowRaw        *big.Int
	WithdrawalLimit  *ExpandShrinkLimit
	BorrowLimit      *ExpandShrinkLimit
}

// NewUserPosition constructs a zeroed position for user/mint.
func NewUserPosition(user, mint pubkey.Pubkey, userClass string) *UserPosition {
	return &UserPosition{
		User:      user,
		Mint:      mint,
		UserClass: userClass,
		SupplyRaw: new(big.Int),
		BorrowRaw: new(big.Int),
	}
}
