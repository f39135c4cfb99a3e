package liquidity

import "math/big"

// FeeAccrual splits a Reserve's accrued revenue between the protocol
// treasury and a developer collector, generalised from the teacher's
// native/lending.FeeAccrual (ProtocolFeesWei/DeveloperFeesWei).
type FeeAccrual struct {
	ProtocolFeesRaw  *big.Int
	DeveloperFeesRaw *big.Int
}

func newFeeAccrual() FeeAccrual {
	return FeeAccrual{ProtocolFeesRaw: new(big.Int), DeveloperFeesRaw: new(big.Int)}
}

// accrue splits revenueDelta between developer and protocol buckets
// according to developerFeeBps, crediting any leftover (bps not owned by
// the developer) entirely to the protocol.
func (f *FeeAccrual) accrue(revenueDelta *big.Int, developerFeeBps uint64) error {
	if f.ProtocolFeesRaw == nil {
		f.ProtocolFeesRaw = new(big.Int)
	}
	if f.DeveloperFeesRaw == nil {
		f.DeveloperFeesRaw = new(big.Int)
	}
	developerShare, err := computeFeeShare(revenueDelta, developerFeeBps)
	if err != nil {
		return err
	}
	protocolShare := new(big.Int).Sub(revenueDelta, developerShare)
	f.DeveloperFeesRaw = new(big.Int).Add(f.DeveloperFeesRaw, developerShare)
	f.ProtocolFeesRaw = new(big.Int).Add(f.ProtocolFeesRaw, protocolShare)
	return nil
}

func computeFeeShare(amount *big.Int, bps uint64) (*big.Int, error) {
	if bps == 0 || amount.Sign() == 0 {
		return new(big.Int), nil
	}
	return mulDivDown(amount, big.NewInt(int64(bps)), big.NewInt(BpsPrecision))
}

// Total reports the sum of both fee buckets, the amount originally tracked
// by Reserve's single undifferentiated Revenue field.
func (f FeeAccrual) Total() *big.Int {
	total := new(big.Int)
	if f.ProtocolFeesRaw != nil {
		total.Add(total, f.ProtocolFeesRaw)
	}
	if f.DeveloperFeesRaw != nil {
		total.Add(total, f.DeveloperFeesRaw)
	}
	return total
}

// CollectRevenue withdraws amount from the protocol or developer fee
// bucket, generalising the teacher's WithdrawProtocolFees/
// WithdrawDeveloperFees pair into a single bucket-selecting call. It
// performs only the bookkeeping deduction; delivering the withdrawn amount
// to a recipient is the caller's concern, same as Reserve.Operate.
func (r *Reserve) CollectRevenue(protocol bool, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	bucket := r.Fees.ProtocolFeesRaw
	if !protocol {
		bucket = r.Fees.DeveloperFeesRaw
	}
	if bucket == nil || bucket.Cmp(amount) < 0 {
		return nil, ErrInsufficientFees
	}
	if protocol {
		r.Fees.ProtocolFeesRaw = new(big.Int).Sub(bucket, amount)
	} else {
		r.Fees.DeveloperFeesRaw = new(big.Int).Sub(bucket, amount)
	}
	return new(big.Int).Set(amount), nil
}
