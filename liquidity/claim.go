package liquidity

import (
	"math/big"

	"vaultcore/pubkey"
)

// ClaimStore persists UserClaim accounts on behalf of a Reserve. Borrowed or
// withdrawn amounts routed through TransferClaim are credited here instead
// of transferred immediately, so a composed multi-leg transaction can avoid
// a second reentrant transfer and drain everything in one later Claim call.
type ClaimStore interface {
	Credit(user, mint pubkey.Pubkey, amount *big.Int) error
	Claim(user, mint pubkey.Pubkey) (*big.Int, error)
}

// MemoryClaimStore is an in-memory ClaimStore for tests and harness use.
type MemoryClaimStore struct {
	claims map[pubkey.Pubkey]*UserClaim
}

// NewMemoryClaimStore constructs an empty MemoryClaimStore.
func NewMemoryClaimStore() *MemoryClaimStore {
	return &MemoryClaimStore{claims: make(map[pubkey.Pubkey]*UserClaim)}
}

// Credit adds amount to the user's outstanding claim for mint.
func (s *MemoryClaimStore) Credit(user, mint pubkey.Pubkey, amount *big.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	claim, ok := s.claims[user]
	if !ok {
		claim = &UserClaim{User: user, Mint: mint, Amount: new(big.Int)}
		s.claims[user] = claim
	}
	if !claim.Mint.Equal(mint) {
		return ErrInvalidUserClaim
	}
	claim.Amount = new(big.Int).Add(claim.Amount, amount)
	return nil
}

// Claim drains and returns the user's outstanding claimed amount for mint,
// resetting it to zero. ErrInvalidUserClaim is returned if the stored
// claim's mint does not match the requested mint.
func (s *MemoryClaimStore) Claim(user, mint pubkey.Pubkey) (*big.Int, error) {
	claim, ok := s.claims[user]
	if !ok {
		return big.NewInt(0), nil
	}
	if !claim.Mint.Equal(mint) {
		return nil, ErrInvalidUserClaim
	}
	amount := claim.Amount
	claim.Amount = new(big.Int)
	return amount, nil
}
