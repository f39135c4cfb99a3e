package liquidity

import (
	"math/big"

	"vaultcore/pubkey"
)

// inFlightOperate is the record PreOperate stashes until the matching
// Operate call consumes it — the defence against a reentrant second
// pre_operate/operate pair mid-transaction.
type inFlightOperate struct {
	Protocol   pubkey.Pubkey
	Mint       pubkey.Pubkey
	PreBalance *big.Int
}

// PauseView reports whether a user class is currently paused, matching the
// teacher's native/common.PauseView seam so a single governance-owned pause
// registry (package admin) can gate every engine uniformly.
type PauseView interface {
	IsPaused(userClass string) bool
}

// Reserve is the shared liquidity pool for a single token, drawn from by
// every vault (C4) and fToken (C5) position through PreOperate/Operate.
type Reserve struct {
	Mint     pubkey.Pubkey
	Decimals uint8

	TotalSupplyRaw *big.Int
	TotalBorrowRaw *big.Int

	SupplyExchangePrice *big.Int
	BorrowExchangePrice *big.Int
	LastUpdateTimestamp int64

	RateData          RateData
	MaxUtilizationBps uint64
	RevenueFeeBps     uint64

	// DeveloperFeeBps splits accrued revenue between Fees.DeveloperFeesRaw
	// and Fees.ProtocolFeesRaw; the remainder of every revenue delta not
	// claimed by the developer share goes to the protocol bucket.
	DeveloperFeeBps uint64
	Fees            FeeAccrual

	WithdrawalLimit *ExpandShrinkLimit
	BorrowLimit     *ExpandShrinkLimit

	Pauses PauseView

	inFlight *inFlightOperate
}

// NewReserve constructs a Reserve at genesis: both exchange prices start at
// ExchangePricesPrecision (1.0 in scaled space).
func NewReserve(mint pubkey.Pubkey, decimals uint8, rateData RateData, now int64) *Reserve {
	return &Reserve{
		Mint:                mint,
		Decimals:            decimals,
		TotalSupplyRaw:      new(big.Int),
		TotalBorrowRaw:      new(big.Int),
		SupplyExchangePrice: new(big.Int).Set(ExchangePricesPrecision),
		BorrowExchangePrice: new(big.Int).Set(ExchangePricesPrecision),
		LastUpdateTimestamp: now,
		RateData:            rateData,
		Fees:                newFeeAccrual(),
	}
}

func (r *Reserve) actualSupply() (*big.Int, error) {
	return mulDivDown(r.TotalSupplyRaw, r.SupplyExchangePrice, ExchangePricesPrecision)
}

func (r *Reserve) actualBorrow() (*big.Int, error) {
	return mulDivDown(r.TotalBorrowRaw, r.BorrowExchangePrice, ExchangePricesPrecision)
}

func utilizationBps(borrowActual, supplyActual *big.Int) (*big.Int, error) {
	if supplyActual.Sign() == 0 {
		return big.NewInt(0), nil
	}
	return mulDivDown(borrowActual, big.NewInt(BpsPrecision), supplyActual)
}

// UpdateExchangePrices implements spec.md §4.3's accrual formula exactly:
// it is a no-op if called again within the same timestamp (idempotent
// within a slot, Testable Property 7).
func (r *Reserve) UpdateExchangePrices(now int64) error {
	if now < r.LastUpdateTimestamp {
		return ErrInvalidTimestamp
	}
	dt := now - r.LastUpdateTimestamp
	if dt == 0 {
		return nil
	}

	supplyActual, err := r.actualSupply()
	if err != nil {
		return err
	}
	borrowActual, err := r.actualBorrow()
	if err != nil {
		return err
	}
	utilBps, err := utilizationBps(borrowActual, supplyActual)
	if err != nil {
		return err
	}
	borrowRateBps, err := r.RateData.BorrowRateBps(utilBps)
	if err != nil {
		return err
	}

	// supply_rate = borrow_rate × utilization × (1 − revenue_fee)
	supplyRateBps, err := mulDivDown(borrowRateBps, utilBps, big.NewInt(BpsPrecision))
	if err != nil {
		return err
	}
	supplyRateBps, err = mulDivDown(supplyRateBps, big.NewInt(int64(BpsPrecision-r.RevenueFeeBps)), big.NewInt(BpsPrecision))
	if err != nil {
		return err
	}

	denom := new(big.Int).Mul(big.NewInt(BpsPrecision), big.NewInt(SecondsPerYear))

	borrowGrowth, err := accrueGrowth(r.BorrowExchangePrice, borrowRateBps, dt, denom)
	if err != nil {
		return err
	}
	supplyGrowth, err := accrueGrowth(r.SupplyExchangePrice, supplyRateBps, dt, denom)
	if err != nil {
		return err
	}

	r.BorrowExchangePrice = new(big.Int).Add(r.BorrowExchangePrice, borrowGrowth)
	r.SupplyExchangePrice = new(big.Int).Add(r.SupplyExchangePrice, supplyGrowth)

	// revenue += (borrow_rate − supply_rate × utilization) × borrow_actual × dt / seconds_per_year
	supplyRateWeighted, err := mulDivDown(supplyRateBps, utilBps, big.NewInt(BpsPrecision))
	if err != nil {
		return err
	}
	spreadBps := new(big.Int).Sub(borrowRateBps, supplyRateWeighted)
	if spreadBps.Sign() > 0 {
		if r.DeveloperFeeBps > BpsPrecision {
			return ErrInvalidDeveloperFeeBps
		}
		revenueDelta, err := mulDivDown(spreadBps, new(big.Int).Mul(borrowActual, big.NewInt(dt)), denom)
		if err != nil {
			return err
		}
		if err := r.Fees.accrue(revenueDelta, r.DeveloperFeeBps); err != nil {
			return err
		}
	}

	r.LastUpdateTimestamp = now
	return nil
}

func accrueGrowth(exchangePrice, rateBps *big.Int, dt int64, denom *big.Int) (*big.Int, error) {
	numerator := new(big.Int).Mul(exchangePrice, rateBps)
	numerator = numerator.Mul(numerator, big.NewInt(dt))
	return mulDivDown(numerator, big.NewInt(1), denom)
}

// PreOperate records the calling protocol's declared mint and pre-transfer
// vault balance, opening the reentrancy-guarded window Operate must close.
func (r *Reserve) PreOperate(protocol, mint pubkey.Pubkey, preBalance *big.Int) error {
	if r.inFlight != nil {
		return ErrForbiddenOperateCall
	}
	if !mint.Equal(r.Mint) {
		return ErrMintMismatch
	}
	r.inFlight = &inFlightOperate{Protocol: protocol, Mint: mint, PreBalance: new(big.Int).Set(preBalance)}
	return nil
}

// OperateParams bundles an Operate call's declared deltas and the realised
// balance movement observed in the vault, so Operate can enforce the
// TransferAmountOutOfBounds tolerance band.
type OperateParams struct {
	Now                   int64
	Protocol              pubkey.Pubkey
	UserClass             string
	SupplyDeltaRaw        *big.Int // positive: deposit; negative: withdrawal
	BorrowDeltaRaw        *big.Int // positive: borrow; negative: payback
	DeclaredInboundAmount *big.Int // sum of deposit/payback legs expected to arrive
	RealizedInboundAmount *big.Int // what actually arrived, observed post-transfer
	WithdrawTo            pubkey.Pubkey
	BorrowTo              pubkey.Pubkey
	TransferType          TransferType
	Claims                ClaimStore
	UserWithdrawalLimit   *ExpandShrinkLimit
	UserBorrowLimit       *ExpandShrinkLimit
	UserSupplyAfterRaw    *big.Int // user's own raw supply balance after this delta; required when UserWithdrawalLimit is set
	UserBorrowAfterRaw    *big.Int // user's own raw borrow balance after this delta; required when UserBorrowLimit is set
}

// Operate performs the accounting step of the two-phase CPI protocol. It
// must be preceded by a matching PreOperate in the same transaction.
func (r *Reserve) Operate(p OperateParams) (*OperateResult, error) {
	if r.inFlight == nil {
		return nil, ErrOperateWithoutPreOperate
	}
	inFlight := r.inFlight
	r.inFlight = nil
	if !p.Protocol.IsZero() && !inFlight.Protocol.IsZero() && !p.Protocol.Equal(inFlight.Protocol) {
		return nil, ErrProtocolMismatch
	}

	if r.Pauses != nil && p.UserClass != "" && r.Pauses.IsPaused(p.UserClass) {
		return nil, ErrUserPaused
	}

	if err := checkOperateAmount(p.SupplyDeltaRaw); err != nil {
		return nil, err
	}
	if err := checkOperateAmount(p.BorrowDeltaRaw); err != nil {
		return nil, err
	}

	if p.DeclaredInboundAmount != nil && p.DeclaredInboundAmount.Sign() > 0 {
		if p.RealizedInboundAmount == nil {
			return nil, ErrTransferAmountOutOfBounds
		}
		tolerance, err := mulDivUp(p.DeclaredInboundAmount, big.NewInt(MaxInputAmountExcessBps), big.NewInt(BpsPrecision))
		if err != nil {
			return nil, err
		}
		diff := new(big.Int).Sub(p.RealizedInboundAmount, p.DeclaredInboundAmount)
		diff.Abs(diff)
		if diff.Cmp(tolerance) > 0 {
			return nil, ErrTransferAmountOutOfBounds
		}
	}

	if err := r.UpdateExchangePrices(p.Now); err != nil {
		return nil, err
	}

	r.TotalSupplyRaw = new(big.Int).Add(r.TotalSupplyRaw, p.SupplyDeltaRaw)
	if r.TotalSupplyRaw.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	r.TotalBorrowRaw = new(big.Int).Add(r.TotalBorrowRaw, p.BorrowDeltaRaw)
	if r.TotalBorrowRaw.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	supplyActual, err := r.actualSupply()
	if err != nil {
		return nil, err
	}
	borrowActual, err := r.actualBorrow()
	if err != nil {
		return nil, err
	}
	utilBps, err := utilizationBps(borrowActual, supplyActual)
	if err != nil {
		return nil, err
	}
	if r.MaxUtilizationBps > 0 && utilBps.Cmp(big.NewInt(int64(r.MaxUtilizationBps))) > 0 {
		return nil, ErrMaxUtilizationReached
	}

	result := &OperateResult{
		SupplyExchangePrice: r.SupplyExchangePrice,
		BorrowExchangePrice: r.BorrowExchangePrice,
		WithdrawnAmount:     big.NewInt(0),
		BorrowedAmount:      big.NewInt(0),
	}

	if p.SupplyDeltaRaw.Sign() < 0 {
		withdrawAmt := new(big.Int).Neg(p.SupplyDeltaRaw)
		if r.WithdrawalLimit != nil {
			avail, err := r.WithdrawalLimit.Available(p.Now, supplyActual)
			if err != nil {
				return nil, err
			}
			if withdrawAmt.Cmp(avail) > 0 {
				return nil, ErrWithdrawalLimitReached
			}
			if err := r.WithdrawalLimit.Touch(p.Now, supplyActual); err != nil {
				return nil, err
			}
		}
		if p.UserWithdrawalLimit != nil {
			userTotal := p.UserSupplyAfterRaw
			if userTotal == nil {
				userTotal = supplyActual
			}
			avail, err := p.UserWithdrawalLimit.Available(p.Now, userTotal)
			if err != nil {
				return nil, err
			}
			if withdrawAmt.Cmp(avail) > 0 {
				return nil, ErrWithdrawalLimitReached
			}
			if err := p.UserWithdrawalLimit.Touch(p.Now, userTotal); err != nil {
				return nil, err
			}
		}
		result.WithdrawnAmount = withdrawAmt
		if err := r.deliver(p.TransferType, p.Claims, p.WithdrawTo, withdrawAmt); err != nil {
			return nil, err
		}
		if p.TransferType == TransferClaim {
			result.Claimed = true
		}
	}

	if p.BorrowDeltaRaw.Sign() > 0 {
		borrowAmt := p.BorrowDeltaRaw
		if r.BorrowLimit != nil {
			avail, err := r.BorrowLimit.Available(p.Now, borrowActual)
			if err != nil {
				return nil, err
			}
			if borrowAmt.Cmp(avail) > 0 {
				return nil, ErrBorrowLimitReached
			}
			if err := r.BorrowLimit.Touch(p.Now, borrowActual); err != nil {
				return nil, err
			}
		}
		if p.UserBorrowLimit != nil {
			userTotal := p.UserBorrowAfterRaw
			if userTotal == nil {
				userTotal = borrowActual
			}
			avail, err := p.UserBorrowLimit.Available(p.Now, userTotal)
			if err != nil {
				return nil, err
			}
			if borrowAmt.Cmp(avail) > 0 {
				return nil, ErrBorrowLimitReached
			}
			if err := p.UserBorrowLimit.Touch(p.Now, userTotal); err != nil {
				return nil, err
			}
		}
		result.BorrowedAmount = borrowAmt
		if err := r.deliver(p.TransferType, p.Claims, p.BorrowTo, borrowAmt); err != nil {
			return nil, err
		}
		if p.TransferType == TransferClaim {
			result.Claimed = true
		}
	}

	return result, nil
}

func (r *Reserve) deliver(transferType TransferType, claims ClaimStore, to pubkey.Pubkey, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if transferType != TransferClaim {
		return nil
	}
	if claims == nil {
		return ErrInvalidUserClaim
	}
	return claims.Credit(to, r.Mint, amount)
}

func checkOperateAmount(delta *big.Int) error {
	if delta == nil {
		return nil
	}
	abs := new(big.Int).Abs(delta)
	if abs.Sign() == 0 {
		return nil
	}
	if abs.Cmp(big.NewInt(MinOperateAmount)) < 0 {
		return ErrOperateAmountTooSmall
	}
	if !abs.IsInt64() {
		return ErrOperateAmountTooBig
	}
	return nil
}
