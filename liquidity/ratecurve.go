package liquidity

import (
	"errors"
	"math/big"
)

// ErrInvalidUtilization is returned for a utilization value outside [0, BpsPrecision].
var ErrInvalidUtilization = errors.New("liquidity: utilization out of range")

// RateData selects the borrow-rate curve a Reserve accrues against: v1 is
// the teacher's own two-slope kinked curve, v2 generalises it with a second
// kink for the steeper post-max-utilization segment this protocol's rate
// model adds.
type RateData interface {
	// BorrowRateBps returns the annualised borrow rate, in bps, for the
	// given utilization (also in bps, 10_000 == 100%).
	BorrowRateBps(utilizationBps *big.Int) (*big.Int, error)
}

func checkUtilization(u *big.Int) error {
	if u == nil || u.Sign() < 0 || u.Cmp(big.NewInt(BpsPrecision)) > 0 {
		return ErrInvalidUtilization
	}
	return nil
}

// RateDataV1 is the classic two-slope kinked curve: a linear ramp up to
// Kink, then a steeper linear ramp beyond it. Mirrors the teacher's
// InterestModel (BaseRate/Slope1/Slope2/Kink), generalised from big.Rat to
// checked bps integer math.
type RateDataV1 struct {
	BaseRateBps *big.Int
	Slope1Bps   *big.Int
	Slope2Bps   *big.Int
	KinkBps     *big.Int
}

// BorrowRateBps implements RateData for the two-slope curve.
func (r *RateDataV1) BorrowRateBps(u *big.Int) (*big.Int, error) {
	if err := checkUtilization(u); err != nil {
		return nil, err
	}
	if r.KinkBps.Sign() == 0 || u.Cmp(r.KinkBps) <= 0 {
		term, err := mulDivDown(r.Slope1Bps, u, big.NewInt(BpsPrecision))
		if err != nil {
			return nil, err
		}
		return new(big.Int).Add(r.BaseRateBps, term), nil
	}
	return r.rateAtOrBeyondKink(u)
}

func (r *RateDataV1) rateAtOrBeyondKink(u *big.Int) (*big.Int, error) {
	atKinkTerm, err := mulDivDown(r.Slope1Bps, r.KinkBps, big.NewInt(BpsPrecision))
	if err != nil {
		return nil, err
	}
	atKink := new(big.Int).Add(r.BaseRateBps, atKinkTerm)
	remaining := new(big.Int).Sub(big.NewInt(BpsPrecision), r.KinkBps)
	if remaining.Sign() == 0 {
		return atKink, nil
	}
	excess := new(big.Int).Sub(u, r.KinkBps)
	excessTerm, err := mulDivDown(r.Slope2Bps, excess, remaining)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(atKink, excessTerm), nil
}

// RateDataV2 extends RateDataV1 with a third, steeper segment beyond Kink2,
// for reserves whose governance wants a harder utilization ceiling than the
// two-slope curve can express.
type RateDataV2 struct {
	RateDataV1
	Slope3Bps *big.Int
	Kink2Bps  *big.Int
}

// BorrowRateBps implements RateData for the three-slope curve.
func (r *RateDataV2) BorrowRateBps(u *big.Int) (*big.Int, error) {
	if err := checkUtilization(u); err != nil {
		return nil, err
	}
	if u.Cmp(r.Kink2Bps) <= 0 {
		return r.RateDataV1.BorrowRateBps(u)
	}
	atKink2, err := r.RateDataV1.BorrowRateBps(r.Kink2Bps)
	if err != nil {
		return nil, err
	}
	remaining := new(big.Int).Sub(big.NewInt(BpsPrecision), r.Kink2Bps)
	if remaining.Sign() == 0 {
		return atKink2, nil
	}
	excess := new(big.Int).Sub(u, r.Kink2Bps)
	excessTerm, err := mulDivDown(r.Slope3Bps, excess, remaining)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(atKink2, excessTerm), nil
}
