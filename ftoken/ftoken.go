// Package ftoken implements the ERC-4626-style share vault (C5): a single
// fToken wraps one liquidity.Reserve supply position, minting/burning shares
// against an exchange price that compounds the reserve's own
// supply_exchange_price growth with an additive rewards-rate track.
package ftoken

import (
	"errors"
	"math/big"

	"vaultcore/fixedpoint"
	"vaultcore/liquidity"
	"vaultcore/pubkey"
)

var (
	ErrInvalidAmount         = errors.New("ftoken: amount must be positive")
	ErrInvalidTimestamp      = errors.New("ftoken: timestamp moved backwards")
	ErrInvalidExchangePrice  = errors.New("ftoken: exchange price must be positive")
	ErrDepositInsignificant  = errors.New("ftoken: deposit too small to mint a share")
	ErrWithdrawInsignificant = errors.New("ftoken: withdrawal too small to burn a share")
	ErrInsufficientShares    = errors.New("ftoken: insufficient shares outstanding")
	ErrSlippage              = errors.New("ftoken: result outside caller's bound")
)

// RateSegment is the rewards curve a RewardsRateModel reports for the
// current total_assets: an APR good until End (0 meaning open-ended), plus a
// look-ahead to the segment that takes over once End elapses, so update_rates
// can split an accrual window that straddles a scheduled rate change.
type RateSegment struct {
	APRbps     uint64
	End        int64
	NextStart  int64
	NextEnd    int64
	NextAPRbps uint64
}

// RewardsRateModel supplies the additive rewards APR layered on top of the
// underlying liquidity exchange price, keyed by how much this fToken
// currently has deposited.
type RewardsRateModel interface {
	GetRate(totalAssets *big.Int) RateSegment
}

// StaticModel is a fixed-rate RewardsRateModel: the reference implementation
// used before a protocol wires a usage-scaled curve, and in tests.
type StaticModel struct {
	Segment RateSegment
}

func (m *StaticModel) GetRate(totalAssets *big.Int) RateSegment {
	return m.Segment
}

// FToken is the share vault's persisted state, field-for-field the same
// shape as the teacher's own LP-share bookkeeping in native/lending
// generalised with the rewards track spec.md §4.5 adds.
type FToken struct {
	Mint                   pubkey.Pubkey
	FTokenMint             pubkey.Pubkey
	LiquidityExchangePrice *big.Int
	TokenExchangePrice     *big.Int
	LastUpdateTimestamp    int64
	RewardsModel           RewardsRateModel
	SupplyPositionRaw      *big.Int
	TokenReservesLiquidity pubkey.Pubkey
	Bump                   uint8

	TotalShares *big.Int
}

// NewFToken constructs an fToken at genesis: both exchange price tracks
// start at 1.0 in liquidity.ExchangePricesPrecision-scaled space, the same
// scale the underlying reserve carries its own prices at.
func NewFToken(mint, fTokenMint, reserveID pubkey.Pubkey, model RewardsRateModel, now int64) *FToken {
	return &FToken{
		Mint:                   mint,
		FTokenMint:             fTokenMint,
		LiquidityExchangePrice: new(big.Int).Set(liquidity.ExchangePricesPrecision),
		TokenExchangePrice:     new(big.Int).Set(liquidity.ExchangePricesPrecision),
		LastUpdateTimestamp:    now,
		RewardsModel:           model,
		SupplyPositionRaw:      new(big.Int),
		TokenReservesLiquidity: reserveID,
		TotalShares:            new(big.Int),
	}
}

func (f *FToken) totalAssets(reserve *liquidity.Reserve) (*big.Int, error) {
	return fixedpoint.MulDivDown(f.SupplyPositionRaw, reserve.SupplyExchangePrice, liquidity.ExchangePricesPrecision)
}

// UpdateRates implements spec.md §4.5's exchange-price accrual: the token
// exchange price compounds the underlying liquidity exchange price's own
// growth since the last touch with an additive rewards factor sourced from
// RewardsModel, splitting the accrual window in two when a scheduled rate
// change (RateSegment.End/NextStart) falls inside it. A no-op when called
// again within the same timestamp at an unchanged liquidity price.
func (f *FToken) UpdateRates(newLiqPx, totalAssets *big.Int, now int64) error {
	if newLiqPx == nil || newLiqPx.Sign() <= 0 {
		return ErrInvalidExchangePrice
	}
	if now < f.LastUpdateTimestamp {
		return ErrInvalidTimestamp
	}
	if now == f.LastUpdateTimestamp && newLiqPx.Cmp(f.LiquidityExchangePrice) == 0 {
		return nil
	}

	liqRatioed, err := fixedpoint.MulDivDown(f.TokenExchangePrice, newLiqPx, f.LiquidityExchangePrice)
	if err != nil {
		return err
	}

	seg := f.RewardsModel.GetRate(totalAssets)
	newPx, err := f.accrueRewards(liqRatioed, seg, now)
	if err != nil {
		return err
	}

	f.TokenExchangePrice = newPx
	f.LiquidityExchangePrice = new(big.Int).Set(newLiqPx)
	f.LastUpdateTimestamp = now
	return nil
}

// accrueRewards applies seg's rate across [last_update, now], splitting into
// a second leg at seg.NextAPRbps when now has run past seg.End and a
// follow-on segment is scheduled.
func (f *FToken) accrueRewards(basePx *big.Int, seg RateSegment, now int64) (*big.Int, error) {
	firstEnd := now
	if seg.End > 0 && seg.End < firstEnd {
		firstEnd = seg.End
	}
	px, err := applyRewardsFactor(basePx, seg.APRbps, f.LastUpdateTimestamp, firstEnd)
	if err != nil {
		return nil, err
	}
	if seg.End > 0 && now > seg.End && seg.NextStart > 0 {
		secondStart := seg.NextStart
		if secondStart < seg.End {
			secondStart = seg.End
		}
		secondEnd := now
		if seg.NextEnd > 0 && seg.NextEnd < secondEnd {
			secondEnd = seg.NextEnd
		}
		px, err = applyRewardsFactor(px, seg.NextAPRbps, secondStart, secondEnd)
		if err != nil {
			return nil, err
		}
	}
	return px, nil
}

// applyRewardsFactor compounds exchangePx by (1 + apr_bps/10000 × dt/year).
func applyRewardsFactor(exchangePx *big.Int, aprBps uint64, from, to int64) (*big.Int, error) {
	dt := to - from
	if dt <= 0 || aprBps == 0 {
		return exchangePx, nil
	}
	numerator := new(big.Int).Mul(big.NewInt(int64(aprBps)), big.NewInt(dt))
	denom := new(big.Int).Mul(big.NewInt(liquidity.BpsPrecision), big.NewInt(liquidity.SecondsPerYear))
	growth, err := fixedpoint.MulDivDown(exchangePx, numerator, denom)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(exchangePx, growth), nil
}

func sharesFromAssets(assets, tokenPx *big.Int, roundUp bool) (*big.Int, error) {
	if roundUp {
		return fixedpoint.MulDivUp(assets, liquidity.ExchangePricesPrecision, tokenPx)
	}
	return fixedpoint.MulDivDown(assets, liquidity.ExchangePricesPrecision, tokenPx)
}

func assetsFromShares(shares, tokenPx *big.Int, roundUp bool) (*big.Int, error) {
	if roundUp {
		return fixedpoint.MulDivUp(shares, tokenPx, liquidity.ExchangePricesPrecision)
	}
	return fixedpoint.MulDivDown(shares, tokenPx, liquidity.ExchangePricesPrecision)
}

// refreshRates runs step (a) of every public operation: pull the reserve's
// own accrual current, compute this fToken's total_assets against it, and
// fold the rewards factor into TokenExchangePrice.
func (f *FToken) refreshRates(reserve *liquidity.Reserve, now int64) error {
	if err := reserve.UpdateExchangePrices(now); err != nil {
		return err
	}
	totalAssets, err := f.totalAssets(reserve)
	if err != nil {
		return err
	}
	return f.UpdateRates(reserve.SupplyExchangePrice, totalAssets, now)
}

// operateSupply performs step (c): the CPI into the reserve's two-phase
// PreOperate/Operate protocol for a signed raw-supply delta. When userPos is
// non-nil, its own SupplyRaw balance and WithdrawalLimit are carried through
// to the reserve so a withdrawal is gated by this depositor's own expand-
// shrink limit (spec.md line 50's finer-granularity rule), not just the
// reserve-wide one, and userPos.SupplyRaw is kept in sync with the delta.
func (f *FToken) operateSupply(reserve *liquidity.Reserve, protocol pubkey.Pubkey, rawDelta *big.Int, now int64, userPos *liquidity.UserPosition) error {
	if err := reserve.PreOperate(protocol, reserve.Mint, new(big.Int)); err != nil {
		return err
	}
	params := liquidity.OperateParams{
		Now:            now,
		Protocol:       protocol,
		SupplyDeltaRaw: rawDelta,
		BorrowDeltaRaw: big.NewInt(0),
	}
	if rawDelta.Sign() > 0 {
		params.DeclaredInboundAmount = new(big.Int).Set(rawDelta)
		params.RealizedInboundAmount = new(big.Int).Set(rawDelta)
	}
	if userPos != nil {
		params.UserWithdrawalLimit = userPos.WithdrawalLimit
		params.UserSupplyAfterRaw = new(big.Int).Add(userPos.SupplyRaw, rawDelta)
	}
	if _, err := reserve.Operate(params); err != nil {
		return err
	}
	if userPos != nil {
		userPos.SupplyRaw = new(big.Int).Add(userPos.SupplyRaw, rawDelta)
	}
	return nil
}

// Deposit implements spec.md §4.5 deposit(assets): mint the floor number of
// shares assets buys at the current token exchange price. userPos, when
// non-nil, is the depositor's own per-user accounting record (spec.md line
// 50); Deposit keeps its SupplyRaw balance in sync so a later Withdraw/Redeem
// can gate against this depositor's own expand-shrink limit.
func (f *FToken) Deposit(reserve *liquidity.Reserve, protocol pubkey.Pubkey, assets *big.Int, now int64, userPos *liquidity.UserPosition) (*big.Int, error) {
	if assets == nil || assets.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := f.refreshRates(reserve, now); err != nil {
		return nil, err
	}
	shares, err := sharesFromAssets(assets, f.TokenExchangePrice, false)
	if err != nil {
		return nil, err
	}
	if shares.Sign() == 0 {
		return nil, ErrDepositInsignificant
	}
	if err := f.operateSupply(reserve, protocol, assets, now, userPos); err != nil {
		return nil, err
	}
	f.SupplyPositionRaw = new(big.Int).Add(f.SupplyPositionRaw, assets)
	f.TotalShares = new(big.Int).Add(f.TotalShares, shares)
	return shares, nil
}

// DepositWithMin is Deposit guarded by a caller-supplied minimum shares-out.
func (f *FToken) DepositWithMin(reserve *liquidity.Reserve, protocol pubkey.Pubkey, assets, minSharesOut *big.Int, now int64, userPos *liquidity.UserPosition) (*big.Int, error) {
	shares, err := f.Deposit(reserve, protocol, assets, now, userPos)
	if err != nil {
		return nil, err
	}
	if minSharesOut != nil && shares.Cmp(minSharesOut) < 0 {
		return nil, ErrSlippage
	}
	return shares, nil
}

// Mint implements spec.md §4.5 mint(shares): pull in the ceiling assets
// amount shares costs at the current token exchange price.
func (f *FToken) Mint(reserve *liquidity.Reserve, protocol pubkey.Pubkey, shares *big.Int, now int64, userPos *liquidity.UserPosition) (*big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := f.refreshRates(reserve, now); err != nil {
		return nil, err
	}
	assets, err := assetsFromShares(shares, f.TokenExchangePrice, true)
	if err != nil {
		return nil, err
	}
	if assets.Sign() == 0 {
		return nil, ErrDepositInsignificant
	}
	if err := f.operateSupply(reserve, protocol, assets, now, userPos); err != nil {
		return nil, err
	}
	f.SupplyPositionRaw = new(big.Int).Add(f.SupplyPositionRaw, assets)
	f.TotalShares = new(big.Int).Add(f.TotalShares, shares)
	return assets, nil
}

// MintWithMax is Mint guarded by a caller-supplied maximum assets-in.
func (f *FToken) MintWithMax(reserve *liquidity.Reserve, protocol pubkey.Pubkey, shares, maxAssetsIn *big.Int, now int64, userPos *liquidity.UserPosition) (*big.Int, error) {
	assets, err := f.Mint(reserve, protocol, shares, now, userPos)
	if err != nil {
		return nil, err
	}
	if maxAssetsIn != nil && assets.Cmp(maxAssetsIn) > 0 {
		return nil, ErrSlippage
	}
	return assets, nil
}

// Withdraw implements spec.md §4.5 withdraw(assets): burn the ceiling number
// of shares assets costs, so the vault never pays out more than it burns
// for. userPos, when non-nil, gates this withdrawal against the depositor's
// own expand-shrink limit on top of the reserve-wide one.
func (f *FToken) Withdraw(reserve *liquidity.Reserve, protocol pubkey.Pubkey, assets *big.Int, now int64, userPos *liquidity.UserPosition) (*big.Int, error) {
	if assets == nil || assets.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := f.refreshRates(reserve, now); err != nil {
		return nil, err
	}
	shares, err := sharesFromAssets(assets, f.TokenExchangePrice, true)
	if err != nil {
		return nil, err
	}
	if shares.Sign() == 0 {
		return nil, ErrWithdrawInsignificant
	}
	if shares.Cmp(f.TotalShares) > 0 {
		return nil, ErrInsufficientShares
	}
	if err := f.operateSupply(reserve, protocol, new(big.Int).Neg(assets), now, userPos); err != nil {
		return nil, err
	}
	f.SupplyPositionRaw = new(big.Int).Sub(f.SupplyPositionRaw, assets)
	f.TotalShares = new(big.Int).Sub(f.TotalShares, shares)
	return shares, nil
}

// WithdrawWithMax is Withdraw guarded by a caller-supplied maximum shares-in.
func (f *FToken) WithdrawWithMax(reserve *liquidity.Reserve, protocol pubkey.Pubkey, assets, maxSharesIn *big.Int, now int64, userPos *liquidity.UserPosition) (*big.Int, error) {
	shares, err := f.Withdraw(reserve, protocol, assets, now, userPos)
	if err != nil {
		return nil, err
	}
	if maxSharesIn != nil && shares.Cmp(maxSharesIn) > 0 {
		return nil, ErrSlippage
	}
	return shares, nil
}

// Redeem implements spec.md §4.5 redeem(shares): pay out the floor assets
// amount shares are worth. userPos, when non-nil, gates this withdrawal
// against the depositor's own expand-shrink limit on top of the
// reserve-wide one.
func (f *FToken) Redeem(reserve *liquidity.Reserve, protocol pubkey.Pubkey, shares *big.Int, now int64, userPos *liquidity.UserPosition) (*big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if shares.Cmp(f.TotalShares) > 0 {
		return nil, ErrInsufficientShares
	}
	if err := f.refreshRates(reserve, now); err != nil {
		return nil, err
	}
	assets, err := assetsFromShares(shares, f.TokenExchangePrice, false)
	if err != nil {
		return nil, err
	}
	if assets.Sign() == 0 {
		return nil, ErrWithdrawInsignificant
	}
	if err := f.operateSupply(reserve, protocol, new(big.Int).Neg(assets), now, userPos); err != nil {
		return nil, err
	}
	f.SupplyPositionRaw = new(big.Int).Sub(f.SupplyPositionRaw, assets)
	f.TotalShares = new(big.Int).Sub(f.TotalShares, shares)
	return assets, nil
}

// RedeemWithMin is Redeem guarded by a caller-supplied minimum assets-out.
func (f *FToken) RedeemWithMin(reserve *liquidity.Reserve, protocol pubkey.Pubkey, shares, minAssetsOut *big.Int, now int64, userPos *liquidity.UserPosition) (*big.Int, error) {
	assets, err := f.Redeem(reserve, protocol, shares, now, userPos)
	if err != nil {
		return nil, err
	}
	if minAssetsOut != nil && assets.Cmp(minAssetsOut) < 0 {
		return nil, ErrSlippage
	}
	return assets, nil
}
