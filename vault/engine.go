package vault

import (
	"math/big"

	"vaultcore/fixedpoint"
	"vaultcore/oracle"
	"vaultcore/pubkey"
	"vaultcore/tickmath"
)

// ExchangePricePrecision is the fixed-point scale the vault's own
// supply/borrow exchange-price tracks use, matching liquidity.Reserve's
// precision so the two sides compare directly without rescaling.
var ExchangePricePrecision = big.NewInt(1_000_000_000_000)

// Vault bundles a single vault's config, mutable state, and tick/branch
// storage. Ticks, the liquidation ring, and branches are held in plain maps
// here; a persistence layer (package store) wraps the same zero-copy
// layouts (package layout) for on-disk accounts.
type Vault struct {
	Config *VaultConfig
	State  *VaultState

	Ticks     map[int32]*Tick
	Rings     map[int32]*TickIdLiquidation
	Branches  map[uint32]*Branch
	HasDebt   *TickHasDebtArray
	Positions map[uint32]*Position

	Oracle oracle.PriceReader
}

// NewVault constructs an empty vault rooted at branch 0, with minimaTick as
// branch 0's floor.
func NewVault(config *VaultConfig, minimaTick int32, reader oracle.PriceReader) (*Vault, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	root := NewRootBranch(minimaTick)
	return &Vault{
		Config:    config,
		State:     NewVaultState(ExchangePricePrecision),
		Ticks:     make(map[int32]*Tick),
		Rings:     make(map[int32]*TickIdLiquidation),
		Branches:  map[uint32]*Branch{0: root},
		HasDebt:   NewTickHasDebtArray(),
		Positions: make(map[uint32]*Position),
		Oracle:    reader,
	}, nil
}

func (v *Vault) tick(t int32) *Tick {
	tk, ok := v.Ticks[t]
	if !ok {
		tk = NewTick(v.Config.VaultID, t)
		v.Ticks[t] = tk
	}
	return tk
}

// resolvePosition replays any liquidation(s) the position's tick suffered
// since it was last touched, per spec.md §4.4 "Position resolution": a
// single-hop lookup against the tick's TickIdLiquidation ring when it is
// still fresh, or a walk up the branch parent chain when the ring has been
// overwritten by later liquidations at the same tick.
func (v *Vault) resolvePosition(p *Position) error {
	tk, ok := v.Ticks[p.Tick]
	if !ok {
		return ErrTickNotFound
	}
	if !tk.IsLiquidated && !tk.IsFullyLiquidated {
		return nil
	}

	ring, hasRing := v.Rings[p.Tick]
	if hasRing && ring.Validate(p.Tick, p.TickID) == nil {
		fullyLiquidated, branchID, factor := ring.GetTickStatus(p.TickID)
		return v.applyResolution(p, fullyLiquidated, branchID, factor)
	}

	// Ring slot overflowed (more than 2 intervening liquidations at this
	// tick): replay the branch chain from the tick's current liquidation
	// branch back to the position's own branch.
	chainFactor, err := v.branchFactorChain(tk.LiquidationBranchID, p.BranchID)
	if err != nil {
		return err
	}
	return v.applyResolution(p, tk.IsFullyLiquidated, tk.LiquidationBranchID, chainFactor)
}

func (v *Vault) applyResolution(p *Position, fullyLiquidated bool, branchID uint32, factor DebtFactor) error {
	if fullyLiquidated {
		p.RawCollateral = new(big.Int)
		p.RawDebt = new(big.Int)
		p.BranchID = branchID
		return nil
	}
	p.RawCollateral = factor.Apply(p.RawCollateral)
	p.RawDebt = factor.Apply(p.RawDebt)
	p.BranchID = branchID
	return nil
}

// branchFactorChain multiplies every branch's own DebtFactor walking from
// fromBranchID back through ParentBranchID until reaching toBranchID,
// replaying the cumulative dilution a position suffered across however many
// branch closures happened since its last touch.
func (v *Vault) branchFactorChain(fromBranchID, toBranchID uint32) (DebtFactor, error) {
	if fromBranchID == toBranchID {
		return IdentityDebtFactor, nil
	}
	product := IdentityDebtFactor
	current := fromBranchID
	for i := 0; i <= len(v.Branches); i++ {
		branch, ok := v.Branches[current]
		if !ok {
			return 0, ErrBranchNotFound
		}
		var err error
		product, err = product.Mul(branch.DebtFactor)
		if err != nil {
			return 0, err
		}
		if current == toBranchID {
			return product, nil
		}
		if branch.BranchID == 0 {
			return 0, ErrBranchNotFound
		}
		current = branch.ParentBranchID
	}
	return 0, ErrBranchNotFound
}

// removeFromTick decrements a tick's raw debt, clearing its TickHasDebtArray
// bit (and recomputing top_tick if needed) when the tick becomes empty.
func (v *Vault) removeFromTick(t int32, debt *big.Int) error {
	tk := v.tick(t)
	tk.RawDebt = new(big.Int).Sub(tk.RawDebt, debt)
	if tk.RawDebt.Sign() < 0 {
		return ErrUserCollateralDebtExceed
	}
	if tk.RawDebt.Sign() == 0 {
		if err := v.HasDebt.Clear(t); err != nil {
			return err
		}
		if v.State.TopTickSet && v.State.TopTick == t {
			v.recomputeTopTick()
		}
	}
	return nil
}

func (v *Vault) insertIntoTick(t int32, debt *big.Int) error {
	tk := v.tick(t)
	tk.RawDebt = new(big.Int).Add(tk.RawDebt, debt)
	if debt.Sign() > 0 {
		if err := v.HasDebt.Set(t); err != nil {
			return err
		}
		if !v.State.TopTickSet || t > v.State.TopTick {
			v.State.TopTick = t
			v.State.TopTickSet = true
		}
	}
	return nil
}

func (v *Vault) recomputeTopTick() {
	top, ok := v.HasDebt.TopTick()
	v.State.TopTickSet = ok
	if ok {
		v.State.TopTick = int32(top)
	}
}

// OperateParams bundles a single operate() call's inputs.
type OperateParams struct {
	PositionID      uint32 // 0 opens a new position
	Owner           pubkey.Pubkey
	CollateralDelta *big.Int // signed: positive supplies, negative withdraws
	DebtDelta       *big.Int // signed: positive borrows, negative pays back
	Now             int64
}

// OperateResult reports the position's new tick placement after Operate.
type OperateResult struct {
	Position *Position
	NewTick  int32
}

// Operate implements spec.md §4.4's operate(): it does not perform the CPI
// to the liquidity reserve itself (that is the caller's job, composing this
// package with package liquidity's two-phase PreOperate/Operate) — it
// updates the position, its tick placement, and the vault aggregate.
func (v *Vault) Operate(p OperateParams) (*OperateResult, error) {
	if p.CollateralDelta == nil || p.DebtDelta == nil {
		return nil, ErrInvalidOperateAmount
	}
	if _, err := v.Oracle.ReadPrice(p.Now); err != nil {
		return nil, err
	}

	var pos *Position
	if p.PositionID == 0 {
		v.State.NextPositionID++
		pos = NewPosition(v.State.NextPositionID)
		pos.BranchID = v.State.CurrentBranchID
	} else {
		existing, ok := v.Positions[p.PositionID]
		if !ok {
			return nil, ErrInvalidPositionID
		}
		pos = existing
		if err := v.resolvePosition(pos); err != nil {
			return nil, err
		}
		if err := v.removeFromTick(pos.Tick, pos.RawDebt); err != nil {
			return nil, err
		}
	}

	newCollateral, err := fixedpoint.CheckedAdd(pos.RawCollateral, p.CollateralDelta, fixedpoint.Width128)
	if err != nil {
		return nil, err
	}
	newDebt, err := fixedpoint.CheckedAdd(pos.RawDebt, p.DebtDelta, fixedpoint.Width128)
	if err != nil {
		return nil, err
	}
	if newCollateral.Sign() < 0 || newDebt.Sign() < 0 {
		return nil, ErrUserCollateralDebtExceed
	}
	if newDebt.Sign() > 0 && newDebt.Cmp(MinimumDebt) < 0 {
		return nil, ErrUserDebtTooLow
	}

	var newTick int32
	if newDebt.Sign() == 0 {
		newTick = v.Branches[0].MinimaTick
	} else {
		ratio, err := positionRatio(newCollateral, newDebt)
		if err != nil {
			return nil, err
		}
		t, err := tickmath.TickFromRatio(ratio)
		if err != nil {
			return nil, err
		}
		newTick = int32(t)
		riskIncreasing := p.CollateralDelta.Sign() < 0 || p.DebtDelta.Sign() > 0
		if err := v.checkPositionHealth(t, riskIncreasing); err != nil {
			return nil, err
		}
	}

	pos.RawCollateral = newCollateral
	pos.RawDebt = newDebt
	pos.Tick = newTick
	pos.BranchID = v.State.CurrentBranchID
	if err := v.insertIntoTick(newTick, newDebt); err != nil {
		return nil, err
	}

	v.Positions[pos.PositionID] = pos
	v.State.TotalSupplyVault = new(big.Int).Add(v.State.TotalSupplyVault, p.CollateralDelta)
	v.State.TotalBorrowVault = new(big.Int).Add(v.State.TotalBorrowVault, p.DebtDelta)

	return &OperateResult{Position: pos, NewTick: newTick}, nil
}

// positionRatio returns the collateral/debt ratio in tickmath.RatioPrecision
// scaled space, which TickFromRatio then buckets into a tick.
func positionRatio(collateral, debt *big.Int) (*big.Int, error) {
	if debt.Sign() == 0 {
		return nil, ErrUserDebtTooLow
	}
	return fixedpoint.MulDivDown(collateral, tickmath.RatioPrecision, debt)
}

func (v *Vault) ring(t int32) *TickIdLiquidation {
	r, ok := v.Rings[t]
	if !ok {
		r = &TickIdLiquidation{VaultID: v.Config.VaultID, Tick: t}
		v.Rings[t] = r
	}
	return r
}

// LiquidateParams bundles a single liquidate() call's inputs.
type LiquidateParams struct {
	DebtAmountIn    *big.Int
	ColAmountOutMin *big.Int
	Now             int64
}

// LiquidateResult reports how much debt was absorbed and collateral
// released across the whole cascade. Split reports how ColReleased divides
// across the liquidator/developer/protocol targets configured on
// VaultConfig.CollateralRouting (LiquidatorShare equals ColReleased in full
// under the zero-value routing).
type LiquidateResult struct {
	DebtAbsorbed    *big.Int
	ColReleased     *big.Int
	TicksLiquidated []int32
	Split           *CollateralSplit
}

// Liquidate implements spec.md §4.4's liquidate(): walk ticks top-down,
// absorbing debt_amount_in worth of debt (at each tick's ratio plus the
// configured liquidation penalty) until either the target is reached or the
// walk falls below liquidation_max_limit's floor ratio.
func (v *Vault) Liquidate(p LiquidateParams) (*LiquidateResult, error) {
	if p.DebtAmountIn == nil || p.DebtAmountIn.Sign() <= 0 {
		return nil, ErrInvalidLiquidationAmount
	}
	if !v.State.TopTickSet {
		return nil, ErrTopTickDoesNotExist
	}
	minRatio, err := fixedpoint.MulDivDown(tickmath.RatioPrecision, big.NewInt(FourDecimals), big.NewInt(int64(v.Config.LiquidationMaxLimitBps)))
	if err != nil {
		return nil, err
	}
	penaltyMul := big.NewInt(int64(FourDecimals) + int64(v.Config.LiquidationPenaltyBps))

	branch, ok := v.Branches[v.State.CurrentBranchID]
	if !ok {
		return nil, ErrBranchNotFound
	}

	// liquidationStep is a planned absorption of one tick's debt. The whole
	// cascade is planned read-only first and only committed once the
	// caller's slippage floor and the collateral routing split are
	// confirmed, so a rejected liquidate() never
	// leaves ticks or the branch partially mutated.
	type liquidationStep struct {
		tick              int32
		tk                *Tick
		tickDebtBefore    *big.Int
		absorbedHere      *big.Int
		colHere           *big.Int
		fullyAbsorbed     bool
		branchFractionBps int64
		tickFractionBps   int64
		oldTickID         uint32
	}

	debtAbsorbed := new(big.Int)
	colReleased := new(big.Int)
	var liquidated []int32
	var steps []liquidationStep
	currentTick := int(v.State.TopTick)
	runningBranchBorrow := new(big.Int).Set(branch.TotalBorrow)

	for debtAbsorbed.Cmp(p.DebtAmountIn) < 0 {
		t, found, err := v.HasDebt.NextNonEmptyTickBelow(currentTick)
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		ratio, err := tickmath.RatioFromTick(t)
		if err != nil {
			return nil, err
		}
		if ratio.Cmp(minRatio) < 0 {
			break
		}

		tk := v.tick(int32(t))
		tickDebtBefore := new(big.Int).Set(tk.RawDebt)
		if tickDebtBefore.Sign() == 0 {
			currentTick = t - 1
			continue
		}
		remaining := new(big.Int).Sub(p.DebtAmountIn, debtAbsorbed)
		fullyAbsorbed := tickDebtBefore.Cmp(remaining) <= 0

		var absorbedHere *big.Int
		if fullyAbsorbed {
			absorbedHere = tickDebtBefore
		} else {
			absorbedHere = remaining
		}

		colHere, err := fixedpoint.MulDivDown(absorbedHere, ratio, tickmath.RatioPrecision)
		if err != nil {
			return nil, err
		}
		colHere, err = fixedpoint.MulDivDown(colHere, penaltyMul, big.NewInt(FourDecimals))
		if err != nil {
			return nil, err
		}

		var branchFractionBps int64
		if runningBranchBorrow.Sign() > 0 {
			fb := new(big.Int).Mul(absorbedHere, big.NewInt(FourDecimals))
			fb.Quo(fb, runningBranchBorrow)
			if fb.Cmp(big.NewInt(FourDecimals)) > 0 {
				fb = big.NewInt(FourDecimals)
			}
			branchFractionBps = fb.Int64()
		}
		runningBranchBorrow = new(big.Int).Sub(runningBranchBorrow, absorbedHere)

		var tickFractionBps int64
		if !fullyAbsorbed {
			tfb := new(big.Int).Mul(absorbedHere, big.NewInt(FourDecimals))
			tfb.Quo(tfb, tickDebtBefore)
			tickFractionBps = tfb.Int64()
		}

		steps = append(steps, liquidationStep{
			tick:              int32(t),
			tk:                tk,
			tickDebtBefore:    tickDebtBefore,
			absorbedHere:      absorbedHere,
			colHere:           colHere,
			fullyAbsorbed:     fullyAbsorbed,
			branchFractionBps: branchFractionBps,
			tickFractionBps:   tickFractionBps,
			oldTickID:         tk.TotalIDs,
		})

		debtAbsorbed.Add(debtAbsorbed, absorbedHere)
		colReleased.Add(colReleased, colHere)
		liquidated = append(liquidated, int32(t))
		currentTick = t - 1
	}

	if debtAbsorbed.Sign() == 0 {
		return nil, ErrInvalidLiquidationAmount
	}
	if p.ColAmountOutMin != nil && colReleased.Cmp(p.ColAmountOutMin) < 0 {
		return nil, ErrExcessSlippageLiquidation
	}
	split, err := v.Config.CollateralRouting.Split(colReleased)
	if err != nil {
		return nil, err
	}

	for _, s := range steps {
		if s.branchFractionBps > 0 {
			stepFactor, err := FractionRemaining(s.branchFractionBps)
			if err != nil {
				return nil, err
			}
			branch.DebtFactor, err = branch.DebtFactor.Mul(stepFactor)
			if err != nil {
				return nil, err
			}
		}
		branch.TotalBorrow = new(big.Int).Sub(branch.TotalBorrow, s.absorbedHere)
		branch.TotalSupply = new(big.Int).Sub(branch.TotalSupply, s.colHere)
		branch.Partials++

		ring := v.ring(s.tick)
		if s.fullyAbsorbed {
			ring.SetTickStatus(s.oldTickID, true, branch.BranchID, 0)
			s.tk.TotalIDs++
			s.tk.SetFullyLiquidated(branch.BranchID)
			if err := v.HasDebt.Clear(int(s.tick)); err != nil {
				return nil, err
			}
			if v.State.TopTickSet && s.tick == v.State.TopTick {
				v.recomputeTopTick()
			}
		} else {
			tickFactor, err := FractionRemaining(s.tickFractionBps)
			if err != nil {
				return nil, err
			}
			ring.SetTickStatus(s.oldTickID, false, branch.BranchID, tickFactor)
			s.tk.TotalIDs++
			s.tk.RawDebt = new(big.Int).Sub(s.tickDebtBefore, s.absorbedHere)
			s.tk.IsLiquidated = true
			s.tk.LiquidationBranchID = branch.BranchID
			s.tk.DebtFactor = tickFactor
		}
	}

	if branch.Partials > 0 && branch.TotalBorrow.Cmp(MinimumBranchDebt) < 0 {
		branch.Status = BranchLiquidated
		v.State.TotalBranchID++
		newBranch := &Branch{
			BranchID:       v.State.TotalBranchID,
			Status:         BranchActive,
			MinimaTick:     branch.MinimaTick,
			DebtFactor:     IdentityDebtFactor,
			TotalBorrow:    new(big.Int),
			TotalSupply:    new(big.Int),
			ParentBranchID: branch.BranchID,
		}
		v.Branches[newBranch.BranchID] = newBranch
		v.State.CurrentBranchID = newBranch.BranchID
	}

	v.State.TotalBorrowVault = new(big.Int).Sub(v.State.TotalBorrowVault, debtAbsorbed)
	v.State.TotalSupplyVault = new(big.Int).Sub(v.State.TotalSupplyVault, colReleased)

	return &LiquidateResult{DebtAbsorbed: debtAbsorbed, ColReleased: colReleased, TicksLiquidated: liquidated, Split: split}, nil
}

// Rebalance reconciles drift between the vault's own exchange-price tracks
// and the liquidity reserve's, after interest accrues on the reserve side.
// Only the configured rebalancer may call it.
func (v *Vault) Rebalance(caller pubkey.Pubkey, liquiditySupplyPrice, liquidityBorrowPrice *big.Int) error {
	if !caller.Equal(v.Config.Rebalancer) {
		return ErrNotRebalancer
	}
	supplyDrift := liquiditySupplyPrice.Cmp(v.State.LiquiditySupplyExchangePrice) != 0
	borrowDrift := liquidityBorrowPrice.Cmp(v.State.LiquidityBorrowExchangePrice) != 0
	if !supplyDrift && !borrowDrift {
		return ErrNothingToRebalance
	}
	v.State.LiquiditySupplyExchangePrice = new(big.Int).Set(liquiditySupplyPrice)
	v.State.LiquidityBorrowExchangePrice = new(big.Int).Set(liquidityBorrowPrice)
	return nil
}

// checkPositionHealth enforces spec.md §4.4 step 4's col'/debt' >= 1/LT
// invariant, gated on one of two thresholds depending on which direction
// operate()'s deltas moved the position: an action that increases risk
// (withdraws collateral and/or borrows more) must clear the stricter
// CollateralFactorBps bound, failing PositionAboveCF, since it is opening
// new risk and must land within the limit new debt is allowed to reach. An
// action that only reduces risk (deposits collateral and/or repays debt)
// only has to clear the looser LiquidationThresholdBps bound, failing
// PositionAboveLiquidationThreshold, so repairing an already-borderline
// position is never blocked by the tighter CF bound it did not itself push
// past.
func (v *Vault) checkPositionHealth(tick int, riskIncreasing bool) error {
	thresholdBps := v.Config.LiquidationThresholdBps
	failure := ErrPositionAboveLiquidationThreshold
	if riskIncreasing {
		thresholdBps = v.Config.CollateralFactorBps
		failure = ErrPositionAboveCF
	}
	minRatio, err := fixedpoint.MulDivDown(tickmath.RatioPrecision, big.NewInt(FourDecimals), big.NewInt(int64(thresholdBps)))
	if err != nil {
		return err
	}
	ratio, err := tickmath.RatioFromTick(tick)
	if err != nil {
		return err
	}
	if ratio.Cmp(minRatio) < 0 {
		return failure
	}
	return nil
}
