package layout

import (
	"vaultcore/admin"
	"vaultcore/flashloan"
	"vaultcore/ftoken"
	"vaultcore/liquidity"
	"vaultcore/pubkey"
	"vaultcore/vault"
)

var (
	discVaultConfig        = pubkey.Discriminator("account", "VaultConfig")
	discVaultState         = pubkey.Discriminator("account", "VaultState")
	discTick               = pubkey.Discriminator("account", "Tick")
	discTickIdLiquidation  = pubkey.Discriminator("account", "TickIdLiquidation")
	discBranch             = pubkey.Discriminator("account", "Branch")
	discTickHasDebtArray   = pubkey.Discriminator("account", "TickHasDebtArray")
	discPosition           = pubkey.Discriminator("account", "Position")
	discUserClaim          = pubkey.Discriminator("account", "UserClaim")
	discFlashloanAdmin     = pubkey.Discriminator("account", "FlashloanAdmin")
	discAuthorizationList  = pubkey.Discriminator("account", "AuthorizationList")
	discReserve            = pubkey.Discriminator("account", "Reserve")
	discFToken             = pubkey.Discriminator("account", "FToken")
)

const (
	rateDataV1Tag uint8 = 1
	rateDataV2Tag uint8 = 2
)

// EncodeVaultConfig packs a VaultConfig account.
func EncodeVaultConfig(c *vault.VaultConfig) []byte {
	w := newWriter(discVaultConfig)
	w.putU16(c.VaultID)
	w.putPubkey(c.SupplyToken)
	w.putPubkey(c.BorrowToken)
	w.putPubkey(c.Oracle)
	w.putPubkey(c.LiquidityProgram)
	w.putPubkey(c.Rebalancer)
	w.putU16(c.CollateralFactorBps)
	w.putU16(c.LiquidationThresholdBps)
	w.putU16(c.LiquidationMaxLimitBps)
	w.putU16(c.WithdrawGapBps)
	w.putU16(c.LiquidationPenaltyBps)
	w.putU16(c.BorrowFeeBps)
	w.putI16(c.SupplyRateMagnifierBps)
	w.putI16(c.BorrowRateMagnifierBps)
	return w.bytes()
}

// DecodeVaultConfig unpacks a VaultConfig account previously produced by
// EncodeVaultConfig.
func DecodeVaultConfig(data []byte) (*vault.VaultConfig, error) {
	r, err := newReader(data, discVaultConfig)
	if err != nil {
		return nil, err
	}
	c := &vault.VaultConfig{}
	if c.VaultID, err = r.getU16(); err != nil {
		return nil, err
	}
	if c.SupplyToken, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if c.BorrowToken, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if c.Oracle, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if c.LiquidityProgram, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if c.Rebalancer, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if c.CollateralFactorBps, err = r.getU16(); err != nil {
		return nil, err
	}
	if c.LiquidationThresholdBps, err = r.getU16(); err != nil {
		return nil, err
	}
	if c.LiquidationMaxLimitBps, err = r.getU16(); err != nil {
		return nil, err
	}
	if c.WithdrawGapBps, err = r.getU16(); err != nil {
		return nil, err
	}
	if c.LiquidationPenaltyBps, err = r.getU16(); err != nil {
		return nil, err
	}
	if c.BorrowFeeBps, err = r.getU16(); err != nil {
		return nil, err
	}
	if c.SupplyRateMagnifierBps, err = r.getI16(); err != nil {
		return nil, err
	}
	if c.BorrowRateMagnifierBps, err = r.getI16(); err != nil {
		return nil, err
	}
	return c, nil
}

// EncodeVaultState packs a VaultState account.
func EncodeVaultState(s *vault.VaultState) ([]byte, error) {
	w := newWriter(discVaultState)
	w.putI32(s.TopTick)
	w.putBool(s.TopTickSet)
	if err := w.putU128(s.TotalSupplyVault); err != nil {
		return nil, err
	}
	if err := w.putU128(s.TotalBorrowVault); err != nil {
		return nil, err
	}
	if err := w.putU128(s.VaultSupplyExchangePrice); err != nil {
		return nil, err
	}
	if err := w.putU128(s.VaultBorrowExchangePrice); err != nil {
		return nil, err
	}
	if err := w.putU128(s.LiquiditySupplyExchangePrice); err != nil {
		return nil, err
	}
	if err := w.putU128(s.LiquidityBorrowExchangePrice); err != nil {
		return nil, err
	}
	w.putU32(s.CurrentBranchID)
	w.putU32(s.TotalBranchID)
	w.putU32(s.NextPositionID)
	return w.bytes(), nil
}

// DecodeVaultState unpacks a VaultState account.
func DecodeVaultState(data []byte) (*vault.VaultState, error) {
	r, err := newReader(data, discVaultState)
	if err != nil {
		return nil, err
	}
	s := &vault.VaultState{}
	if s.TopTick, err = r.getI32(); err != nil {
		return nil, err
	}
	if s.TopTickSet, err = r.getBool(); err != nil {
		return nil, err
	}
	if s.TotalSupplyVault, err = r.getU128(); err != nil {
		return nil, err
	}
	if s.TotalBorrowVault, err = r.getU128(); err != nil {
		return nil, err
	}
	if s.VaultSupplyExchangePrice, err = r.getU128(); err != nil {
		return nil, err
	}
	if s.VaultBorrowExchangePrice, err = r.getU128(); err != nil {
		return nil, err
	}
	if s.LiquiditySupplyExchangePrice, err = r.getU128(); err != nil {
		return nil, err
	}
	if s.LiquidityBorrowExchangePrice, err = r.getU128(); err != nil {
		return nil, err
	}
	if s.CurrentBranchID, err = r.getU32(); err != nil {
		return nil, err
	}
	if s.TotalBranchID, err = r.getU32(); err != nil {
		return nil, err
	}
	if s.NextPositionID, err = r.getU32(); err != nil {
		return nil, err
	}
	return s, nil
}

// EncodeTick packs a Tick account.
func EncodeTick(t *vault.Tick) ([]byte, error) {
	w := newWriter(discTick)
	w.putU16(t.VaultID)
	w.putI32(t.Tick)
	w.putBool(t.IsLiquidated)
	w.putU32(t.TotalIDs)
	if err := w.putU128(t.RawDebt); err != nil {
		return nil, err
	}
	w.putBool(t.IsFullyLiquidated)
	w.putU32(t.LiquidationBranchID)
	w.putU64(uint64(t.DebtFactor))
	return w.bytes(), nil
}

// DecodeTick unpacks a Tick account.
func DecodeTick(data []byte) (*vault.Tick, error) {
	r, err := newReader(data, discTick)
	if err != nil {
		return nil, err
	}
	t := &vault.Tick{}
	if t.VaultID, err = r.getU16(); err != nil {
		return nil, err
	}
	if t.Tick, err = r.getI32(); err != nil {
		return nil, err
	}
	if t.IsLiquidated, err = r.getBool(); err != nil {
		return nil, err
	}
	if t.TotalIDs, err = r.getU32(); err != nil {
		return nil, err
	}
	if t.RawDebt, err = r.getU128(); err != nil {
		return nil, err
	}
	if t.IsFullyLiquidated, err = r.getBool(); err != nil {
		return nil, err
	}
	if t.LiquidationBranchID, err = r.getU32(); err != nil {
		return nil, err
	}
	df, err := r.getU64()
	if err != nil {
		return nil, err
	}
	t.DebtFactor = vault.DebtFactor(df)
	return t, nil
}

// EncodeTickIdLiquidation packs a TickIdLiquidation ring account.
func EncodeTickIdLiquidation(rg *vault.TickIdLiquidation) []byte {
	w := newWriter(discTickIdLiquidation)
	w.putU16(rg.VaultID)
	w.putI32(rg.Tick)
	w.putU32(rg.TickMap)
	for _, s := range rg.Slots() {
		w.putBool(s.IsFullyLiquidated)
		w.putU32(s.LiquidationBranchID)
		w.putU64(uint64(s.DebtFactor))
	}
	return w.bytes()
}

// DecodeTickIdLiquidation unpacks a TickIdLiquidation ring account.
func DecodeTickIdLiquidation(data []byte) (*vault.TickIdLiquidation, error) {
	r, err := newReader(data, discTickIdLiquidation)
	if err != nil {
		return nil, err
	}
	rg := &vault.TickIdLiquidation{}
	if rg.VaultID, err = r.getU16(); err != nil {
		return nil, err
	}
	if rg.Tick, err = r.getI32(); err != nil {
		return nil, err
	}
	if rg.TickMap, err = r.getU32(); err != nil {
		return nil, err
	}
	var slots [3]vault.RingSlot
	for i := range slots {
		if slots[i].IsFullyLiquidated, err = r.getBool(); err != nil {
			return nil, err
		}
		if slots[i].LiquidationBranchID, err = r.getU32(); err != nil {
			return nil, err
		}
		df, err := r.getU64()
		if err != nil {
			return nil, err
		}
		slots[i].DebtFactor = vault.DebtFactor(df)
	}
	rg.SetSlots(slots)
	return rg, nil
}

// EncodeBranch packs a Branch account.
func EncodeBranch(b *vault.Branch) ([]byte, error) {
	w := newWriter(discBranch)
	w.putU32(b.BranchID)
	w.putU8(uint8(b.Status))
	w.putI32(b.MinimaTick)
	w.putU64(uint64(b.DebtFactor))
	w.putU32(b.Partials)
	if err := w.putU128(b.TotalBorrow); err != nil {
		return nil, err
	}
	if err := w.putU128(b.TotalSupply); err != nil {
		return nil, err
	}
	w.putU32(b.ParentBranchID)
	return w.bytes(), nil
}

// DecodeBranch unpacks a Branch account.
func DecodeBranch(data []byte) (*vault.Branch, error) {
	r, err := newReader(data, discBranch)
	if err != nil {
		return nil, err
	}
	b := &vault.Branch{}
	if b.BranchID, err = r.getU32(); err != nil {
		return nil, err
	}
	status, err := r.getU8()
	if err != nil {
		return nil, err
	}
	b.Status = vault.BranchStatus(status)
	if b.MinimaTick, err = r.getI32(); err != nil {
		return nil, err
	}
	df, err := r.getU64()
	if err != nil {
		return nil, err
	}
	b.DebtFactor = vault.DebtFactor(df)
	if b.Partials, err = r.getU32(); err != nil {
		return nil, err
	}
	if b.TotalBorrow, err = r.getU128(); err != nil {
		return nil, err
	}
	if b.TotalSupply, err = r.getU128(); err != nil {
		return nil, err
	}
	if b.ParentBranchID, err = r.getU32(); err != nil {
		return nil, err
	}
	return b, nil
}

// EncodeTickHasDebtArray packs the vault-wide debt bitmap. The bitset's own
// binary codec supplies the payload; this function only adds the account
// discriminator prefix.
func EncodeTickHasDebtArray(a *vault.TickHasDebtArray) ([]byte, error) {
	payload, err := a.MarshalBinary()
	if err != nil {
		return nil, err
	}
	w := newWriter(discTickHasDebtArray)
	w.putBytes(payload)
	return w.bytes(), nil
}

// DecodeTickHasDebtArray unpacks the vault-wide debt bitmap into dst.
func DecodeTickHasDebtArray(data []byte, dst *vault.TickHasDebtArray) error {
	r, err := newReader(data, discTickHasDebtArray)
	if err != nil {
		return err
	}
	payload, err := r.getBytes()
	if err != nil {
		return err
	}
	return dst.UnmarshalBinary(payload)
}

// EncodePosition packs a Position account.
func EncodePosition(p *vault.Position) ([]byte, error) {
	w := newWriter(discPosition)
	w.putU32(p.PositionID)
	w.putI32(p.Tick)
	w.putU32(p.TickID)
	if err := w.putU128(p.RawCollateral); err != nil {
		return nil, err
	}
	if err := w.putU128(p.RawDebt); err != nil {
		return nil, err
	}
	w.putU32(p.BranchID)
	return w.bytes(), nil
}

// DecodePosition unpacks a Position account.
func DecodePosition(data []byte) (*vault.Position, error) {
	r, err := newReader(data, discPosition)
	if err != nil {
		return nil, err
	}
	p := &vault.Position{}
	if p.PositionID, err = r.getU32(); err != nil {
		return nil, err
	}
	if p.Tick, err = r.getI32(); err != nil {
		return nil, err
	}
	if p.TickID, err = r.getU32(); err != nil {
		return nil, err
	}
	if p.RawCollateral, err = r.getU128(); err != nil {
		return nil, err
	}
	if p.RawDebt, err = r.getU128(); err != nil {
		return nil, err
	}
	if p.BranchID, err = r.getU32(); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeUserClaim packs a UserClaim account.
func EncodeUserClaim(c *liquidity.UserClaim) ([]byte, error) {
	w := newWriter(discUserClaim)
	w.putPubkey(c.User)
	w.putPubkey(c.Mint)
	if err := w.putU128(c.Amount); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

// DecodeUserClaim unpacks a UserClaim account.
func DecodeUserClaim(data []byte) (*liquidity.UserClaim, error) {
	r, err := newReader(data, discUserClaim)
	if err != nil {
		return nil, err
	}
	c := &liquidity.UserClaim{}
	if c.User, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if c.Mint, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if c.Amount, err = r.getU128(); err != nil {
		return nil, err
	}
	return c, nil
}

// EncodeFlashloanAdmin packs a FlashloanAdmin account.
func EncodeFlashloanAdmin(a *flashloan.FlashloanAdmin) ([]byte, error) {
	w := newWriter(discFlashloanAdmin)
	w.putPubkey(a.Authority)
	w.putPubkey(a.LiquidityProgram)
	w.putBool(a.Status)
	w.putU16(a.FlashloanFeeBps)
	w.putI64(a.FlashloanTimestamp)
	w.putBool(a.IsFlashloanActive)
	if err := w.putU128(a.ActiveFlashloanAmount); err != nil {
		return nil, err
	}
	w.putU8(a.Bump)
	return w.bytes(), nil
}

// DecodeFlashloanAdmin unpacks a FlashloanAdmin account.
func DecodeFlashloanAdmin(data []byte) (*flashloan.FlashloanAdmin, error) {
	r, err := newReader(data, discFlashloanAdmin)
	if err != nil {
		return nil, err
	}
	a := &flashloan.FlashloanAdmin{}
	if a.Authority, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if a.LiquidityProgram, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if a.Status, err = r.getBool(); err != nil {
		return nil, err
	}
	if a.FlashloanFeeBps, err = r.getU16(); err != nil {
		return nil, err
	}
	if a.FlashloanTimestamp, err = r.getI64(); err != nil {
		return nil, err
	}
	if a.IsFlashloanActive, err = r.getBool(); err != nil {
		return nil, err
	}
	if a.ActiveFlashloanAmount, err = r.getU128(); err != nil {
		return nil, err
	}
	if a.Bump, err = r.getU8(); err != nil {
		return nil, err
	}
	return a, nil
}

// EncodeAuthorizationList packs an AuthorizationList account. Its
// variable-length key lists are written length-prefixed, unlike the
// fixed-width zero-copy accounts above — matching spec.md's note that
// AuthorizationList is not itself in the zero-copy set.
func EncodeAuthorizationList(a *admin.AuthorizationList) []byte {
	w := newWriter(discAuthorizationList)
	w.putPubkey(a.Governance)
	w.putU32(uint32(len(a.AuthUsers)))
	for _, k := range a.AuthUsers {
		w.putPubkey(k)
	}
	w.putU32(uint32(len(a.Guardians)))
	for _, k := range a.Guardians {
		w.putPubkey(k)
	}
	w.putU32(uint32(len(a.UserClasses)))
	for _, uc := range a.UserClasses {
		w.putBytes([]byte(uc.Class))
		w.putBool(uc.Paused)
	}
	return w.bytes()
}

// DecodeAuthorizationList unpacks an AuthorizationList account.
func DecodeAuthorizationList(data []byte) (*admin.AuthorizationList, error) {
	r, err := newReader(data, discAuthorizationList)
	if err != nil {
		return nil, err
	}
	a := &admin.AuthorizationList{}
	if a.Governance, err = r.getPubkey(); err != nil {
		return nil, err
	}
	n, err := r.getU32()
	if err != nil {
		return nil, err
	}
	a.AuthUsers = make([]pubkey.Pubkey, n)
	for i := range a.AuthUsers {
		if a.AuthUsers[i], err = r.getPubkey(); err != nil {
			return nil, err
		}
	}
	n, err = r.getU32()
	if err != nil {
		return nil, err
	}
	a.Guardians = make([]pubkey.Pubkey, n)
	for i := range a.Guardians {
		if a.Guardians[i], err = r.getPubkey(); err != nil {
			return nil, err
		}
	}
	n, err = r.getU32()
	if err != nil {
		return nil, err
	}
	a.UserClasses = make([]admin.UserClassState, n)
	for i := range a.UserClasses {
		class, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		a.UserClasses[i].Class = string(class)
		if a.UserClasses[i].Paused, err = r.getBool(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func putRateData(w *writer, rd liquidity.RateData) error {
	switch v := rd.(type) {
	case *liquidity.RateDataV1:
		w.putU8(rateDataV1Tag)
		return putRateDataV1Fields(w, v)
	case *liquidity.RateDataV2:
		w.putU8(rateDataV2Tag)
		if err := putRateDataV1Fields(w, &v.RateDataV1); err != nil {
			return err
		}
		if err := w.putU128(v.Slope3Bps); err != nil {
			return err
		}
		return w.putU128(v.Kink2Bps)
	default:
		return ErrUnknownRateDataVariant
	}
}

func putRateDataV1Fields(w *writer, v *liquidity.RateDataV1) error {
	if err := w.putU128(v.BaseRateBps); err != nil {
		return err
	}
	if err := w.putU128(v.Slope1Bps); err != nil {
		return err
	}
	if err := w.putU128(v.Slope2Bps); err != nil {
		return err
	}
	return w.putU128(v.KinkBps)
}

func getRateData(r *reader) (liquidity.RateData, error) {
	tag, err := r.getU8()
	if err != nil {
		return nil, err
	}
	v1, err := getRateDataV1Fields(r)
	if err != nil {
		return nil, err
	}
	switch tag {
	case rateDataV1Tag:
		return v1, nil
	case rateDataV2Tag:
		slope3, err := r.getU128()
		if err != nil {
			return nil, err
		}
		kink2, err := r.getU128()
		if err != nil {
			return nil, err
		}
		return &liquidity.RateDataV2{RateDataV1: *v1, Slope3Bps: slope3, Kink2Bps: kink2}, nil
	default:
		return nil, ErrDiscriminatorMismatch
	}
}

func getRateDataV1Fields(r *reader) (*liquidity.RateDataV1, error) {
	v := &liquidity.RateDataV1{}
	var err error
	if v.BaseRateBps, err = r.getU128(); err != nil {
		return nil, err
	}
	if v.Slope1Bps, err = r.getU128(); err != nil {
		return nil, err
	}
	if v.Slope2Bps, err = r.getU128(); err != nil {
		return nil, err
	}
	if v.KinkBps, err = r.getU128(); err != nil {
		return nil, err
	}
	return v, nil
}

func putLimit(w *writer, l *liquidity.ExpandShrinkLimit) error {
	if l == nil {
		w.putBool(false)
		return nil
	}
	w.putBool(true)
	if err := w.putU128(l.Current); err != nil {
		return err
	}
	if err := w.putU128(l.BaseLimit); err != nil {
		return err
	}
	if err := w.putU128(l.MaxLimit); err != nil {
		return err
	}
	w.putU64(l.ExpandPercentBps)
	w.putI64(l.ExpandDurationSeconds)
	w.putI64(l.LastUpdateTimestamp)
	return nil
}

func getLimit(r *reader) (*liquidity.ExpandShrinkLimit, error) {
	present, err := r.getBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	l := &liquidity.ExpandShrinkLimit{}
	if l.Current, err = r.getU128(); err != nil {
		return nil, err
	}
	if l.BaseLimit, err = r.getU128(); err != nil {
		return nil, err
	}
	if l.MaxLimit, err = r.getU128(); err != nil {
		return nil, err
	}
	if l.ExpandPercentBps, err = r.getU64(); err != nil {
		return nil, err
	}
	if l.ExpandDurationSeconds, err = r.getI64(); err != nil {
		return nil, err
	}
	if l.LastUpdateTimestamp, err = r.getI64(); err != nil {
		return nil, err
	}
	return l, nil
}

// EncodeReserve packs the plain-old-data subset of a liquidity.Reserve
// account, including its withdrawal/borrow limits and its split
// protocol/developer fee accrual. Pauses (an AuthorizationList, packed
// separately as its own account) and any ClaimStore a deployment wires in
// are runtime collaborators, not bytes on this account.
func EncodeReserve(res *liquidity.Reserve) ([]byte, error) {
	w := newWriter(discReserve)
	w.putPubkey(res.Mint)
	w.putU8(res.Decimals)
	if err := w.putU128(res.TotalSupplyRaw); err != nil {
		return nil, err
	}
	if err := w.putU128(res.TotalBorrowRaw); err != nil {
		return nil, err
	}
	if err := w.putU128(res.SupplyExchangePrice); err != nil {
		return nil, err
	}
	if err := w.putU128(res.BorrowExchangePrice); err != nil {
		return nil, err
	}
	w.putI64(res.LastUpdateTimestamp)
	if err := putRateData(w, res.RateData); err != nil {
		return nil, err
	}
	w.putU64(res.MaxUtilizationBps)
	w.putU64(res.RevenueFeeBps)
	w.putU64(res.DeveloperFeeBps)
	if err := w.putU128(res.Fees.ProtocolFeesRaw); err != nil {
		return nil, err
	}
	if err := w.putU128(res.Fees.DeveloperFeesRaw); err != nil {
		return nil, err
	}
	if err := putLimit(w, res.WithdrawalLimit); err != nil {
		return nil, err
	}
	if err := putLimit(w, res.BorrowLimit); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

// DecodeReserve unpacks the POD subset of a Reserve account, including its
// withdrawal/borrow limits and fee accrual. Callers must re-wire Pauses (and
// any ClaimStore) themselves: those are runtime collaborators, not packed
// bytes.
func DecodeReserve(data []byte) (*liquidity.Reserve, error) {
	r, err := newReader(data, discReserve)
	if err != nil {
		return nil, err
	}
	res := &liquidity.Reserve{}
	if res.Mint, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if res.Decimals, err = r.getU8(); err != nil {
		return nil, err
	}
	if res.TotalSupplyRaw, err = r.getU128(); err != nil {
		return nil, err
	}
	if res.TotalBorrowRaw, err = r.getU128(); err != nil {
		return nil, err
	}
	if res.SupplyExchangePrice, err = r.getU128(); err != nil {
		return nil, err
	}
	if res.BorrowExchangePrice, err = r.getU128(); err != nil {
		return nil, err
	}
	if res.LastUpdateTimestamp, err = r.getI64(); err != nil {
		return nil, err
	}
	if res.RateData, err = getRateData(r); err != nil {
		return nil, err
	}
	if res.MaxUtilizationBps, err = r.getU64(); err != nil {
		return nil, err
	}
	if res.RevenueFeeBps, err = r.getU64(); err != nil {
		return nil, err
	}
	if res.DeveloperFeeBps, err = r.getU64(); err != nil {
		return nil, err
	}
	if res.Fees.ProtocolFeesRaw, err = r.getU128(); err != nil {
		return nil, err
	}
	if res.Fees.DeveloperFeesRaw, err = r.getU128(); err != nil {
		return nil, err
	}
	if res.WithdrawalLimit, err = getLimit(r); err != nil {
		return nil, err
	}
	if res.BorrowLimit, err = getLimit(r); err != nil {
		return nil, err
	}
	return res, nil
}

// EncodeFToken packs the POD subset of an FToken account. RewardsModel is a
// runtime collaborator (the rate schedule a deployment configures), not a
// packed field.
func EncodeFToken(f *ftoken.FToken) ([]byte, error) {
	w := newWriter(discFToken)
	w.putPubkey(f.Mint)
	w.putPubkey(f.FTokenMint)
	if err := w.putU128(f.LiquidityExchangePrice); err != nil {
		return nil, err
	}
	if err := w.putU128(f.TokenExchangePrice); err != nil {
		return nil, err
	}
	w.putI64(f.LastUpdateTimestamp)
	if err := w.putU128(f.SupplyPositionRaw); err != nil {
		return nil, err
	}
	w.putPubkey(f.TokenReservesLiquidity)
	w.putU8(f.Bump)
	if err := w.putU128(f.TotalShares); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

// DecodeFToken unpacks the POD subset of an FToken account. Callers must
// re-wire RewardsModel themselves after decoding.
func DecodeFToken(data []byte) (*ftoken.FToken, error) {
	r, err := newReader(data, discFToken)
	if err != nil {
		return nil, err
	}
	f := &ftoken.FToken{}
	if f.Mint, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if f.FTokenMint, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if f.LiquidityExchangePrice, err = r.getU128(); err != nil {
		return nil, err
	}
	if f.TokenExchangePrice, err = r.getU128(); err != nil {
		return nil, err
	}
	if f.LastUpdateTimestamp, err = r.getI64(); err != nil {
		return nil, err
	}
	if f.SupplyPositionRaw, err = r.getU128(); err != nil {
		return nil, err
	}
	if f.TokenReservesLiquidity, err = r.getPubkey(); err != nil {
		return nil, err
	}
	if f.Bump, err = r.getU8(); err != nil {
		return nil, err
	}
	if f.TotalShares, err = r.getU128(); err != nil {
		return nil, err
	}
	return f, nil
}
