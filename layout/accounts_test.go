package layout

import (
	"math/big"
	"testing"

	"vaultcore/admin"
	"vaultcore/flashloan"
	"vaultcore/ftoken"
	"vaultcore/liquidity"
	"vaultcore/pubkey"
	"vaultcore/vault"
)

func testKey(prefix pubkey.Prefix, b byte) pubkey.Pubkey {
	buf := make([]byte, 32)
	buf[0] = b
	return pubkey.MustNew(prefix, buf)
}

func TestVaultConfigRoundTrip(t *testing.T) {
	c := &vault.VaultConfig{
		VaultID:                 7,
		SupplyToken:             testKey(pubkey.MintPrefix, 1),
		BorrowToken:             testKey(pubkey.MintPrefix, 2),
		Oracle:                  testKey(pubkey.ProgramPrefix, 3),
		LiquidityProgram:        testKey(pubkey.ProgramPrefix, 4),
		Rebalancer:              testKey(pubkey.UserPrefix, 5),
		CollateralFactorBps:     8000,
		LiquidationThresholdBps: 8500,
		LiquidationMaxLimitBps:  9000,
		WithdrawGapBps:          100,
		LiquidationPenaltyBps:   500,
		BorrowFeeBps:            10,
		SupplyRateMagnifierBps:  -50,
		BorrowRateMagnifierBps:  25,
	}
	got, err := DecodeVaultConfig(EncodeVaultConfig(c))
	if err != nil {
		t.Fatalf("DecodeVaultConfig: %v", err)
	}
	if *got != *c {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, c)
	}
}

func TestVaultStateRoundTrip(t *testing.T) {
	s := vault.NewVaultState(big.NewInt(1_000_000_000_000))
	s.TopTick = -42
	s.TopTickSet = true
	s.TotalSupplyVault = big.NewInt(12345)
	s.CurrentBranchID = 3

	encoded, err := EncodeVaultState(s)
	if err != nil {
		t.Fatalf("EncodeVaultState: %v", err)
	}
	got, err := DecodeVaultState(encoded)
	if err != nil {
		t.Fatalf("DecodeVaultState: %v", err)
	}
	if got.TopTick != s.TopTick || !got.TopTickSet || got.CurrentBranchID != s.CurrentBranchID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.TotalSupplyVault.Cmp(s.TotalSupplyVault) != 0 {
		t.Fatalf("TotalSupplyVault mismatch: got %s want %s", got.TotalSupplyVault, s.TotalSupplyVault)
	}
	if got.VaultSupplyExchangePrice.Cmp(s.VaultSupplyExchangePrice) != 0 {
		t.Fatalf("VaultSupplyExchangePrice mismatch")
	}
}

func TestTickRoundTrip(t *testing.T) {
	tk := vault.NewTick(1, -17)
	tk.RawDebt = big.NewInt(555)
	tk.TotalIDs = 2
	tk.SetFullyLiquidated(9)

	encoded, err := EncodeTick(tk)
	if err != nil {
		t.Fatalf("EncodeTick: %v", err)
	}
	got, err := DecodeTick(encoded)
	if err != nil {
		t.Fatalf("DecodeTick: %v", err)
	}
	if got.Tick != tk.Tick || got.IsFullyLiquidated != tk.IsFullyLiquidated || got.LiquidationBranchID != tk.LiquidationBranchID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.RawDebt.Sign() != 0 {
		t.Fatalf("expected zeroed debt after full liquidation, got %s", got.RawDebt)
	}
}

func TestTickIdLiquidationRoundTrip(t *testing.T) {
	rg := &vault.TickIdLiquidation{VaultID: 1, Tick: 5}
	rg.SetTickStatus(7, true, 3, vault.PackDebtFactor(1, 2))

	encoded := EncodeTickIdLiquidation(rg)
	got, err := DecodeTickIdLiquidation(encoded)
	if err != nil {
		t.Fatalf("DecodeTickIdLiquidation: %v", err)
	}
	fullyLiq, branchID, factor := got.GetTickStatus(7)
	if !fullyLiq || branchID != 3 || factor != vault.PackDebtFactor(1, 2) {
		t.Fatalf("ring slot mismatch: fullyLiq=%v branchID=%d factor=%d", fullyLiq, branchID, factor)
	}
	if err := got.Validate(5, 7); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBranchRoundTrip(t *testing.T) {
	b := vault.NewRootBranch(-100)
	b.TotalBorrow = big.NewInt(42)
	b.TotalSupply = big.NewInt(84)
	b.Status = vault.BranchLiquidated
	b.ParentBranchID = 0
	b.Partials = 4

	encoded, err := EncodeBranch(b)
	if err != nil {
		t.Fatalf("EncodeBranch: %v", err)
	}
	got, err := DecodeBranch(encoded)
	if err != nil {
		t.Fatalf("DecodeBranch: %v", err)
	}
	if got.Status != b.Status || got.MinimaTick != b.MinimaTick || got.Partials != b.Partials {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.TotalBorrow.Cmp(b.TotalBorrow) != 0 || got.TotalSupply.Cmp(b.TotalSupply) != 0 {
		t.Fatalf("amount mismatch: %+v", got)
	}
}

func TestTickHasDebtArrayRoundTrip(t *testing.T) {
	a := vault.NewTickHasDebtArray()
	if err := a.Set(100); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := a.Set(-50); err != nil {
		t.Fatalf("Set: %v", err)
	}

	encoded, err := EncodeTickHasDebtArray(a)
	if err != nil {
		t.Fatalf("EncodeTickHasDebtArray: %v", err)
	}
	dst := vault.NewTickHasDebtArray()
	if err := DecodeTickHasDebtArray(encoded, dst); err != nil {
		t.Fatalf("DecodeTickHasDebtArray: %v", err)
	}
	has, err := dst.Has(100)
	if err != nil || !has {
		t.Fatalf("expected tick 100 to carry debt after round trip, err=%v", err)
	}
	has, err = dst.Has(-50)
	if err != nil || !has {
		t.Fatalf("expected tick -50 to carry debt after round trip, err=%v", err)
	}
	has, err = dst.Has(1)
	if err != nil || has {
		t.Fatalf("expected tick 1 to be clear, err=%v", err)
	}
}

func TestPositionRoundTrip(t *testing.T) {
	p := vault.NewPosition(9)
	p.RawCollateral = big.NewInt(1000)
	p.RawDebt = big.NewInt(400)
	p.Tick = -3
	p.BranchID = 2

	encoded, err := EncodePosition(p)
	if err != nil {
		t.Fatalf("EncodePosition: %v", err)
	}
	got, err := DecodePosition(encoded)
	if err != nil {
		t.Fatalf("DecodePosition: %v", err)
	}
	if got.PositionID != p.PositionID || got.Tick != p.Tick || got.BranchID != p.BranchID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.RawCollateral.Cmp(p.RawCollateral) != 0 || got.RawDebt.Cmp(p.RawDebt) != 0 {
		t.Fatalf("amount mismatch: %+v", got)
	}
}

func TestUserClaimRoundTrip(t *testing.T) {
	c := &liquidity.UserClaim{
		User:   testKey(pubkey.UserPrefix, 1),
		Mint:   testKey(pubkey.MintPrefix, 2),
		Amount: big.NewInt(777),
	}
	encoded, err := EncodeUserClaim(c)
	if err != nil {
		t.Fatalf("EncodeUserClaim: %v", err)
	}
	got, err := DecodeUserClaim(encoded)
	if err != nil {
		t.Fatalf("DecodeUserClaim: %v", err)
	}
	if !got.User.Equal(c.User) || !got.Mint.Equal(c.Mint) || got.Amount.Cmp(c.Amount) != 0 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestFlashloanAdminRoundTrip(t *testing.T) {
	a, err := flashloan.NewFlashloanAdmin(testKey(pubkey.UserPrefix, 1), testKey(pubkey.ProgramPrefix, 2), 30, 5)
	if err != nil {
		t.Fatalf("NewFlashloanAdmin: %v", err)
	}

	encoded, err := EncodeFlashloanAdmin(a)
	if err != nil {
		t.Fatalf("EncodeFlashloanAdmin: %v", err)
	}
	got, err := DecodeFlashloanAdmin(encoded)
	if err != nil {
		t.Fatalf("DecodeFlashloanAdmin: %v", err)
	}
	if !got.Authority.Equal(a.Authority) || got.FlashloanFeeBps != a.FlashloanFeeBps || got.Bump != a.Bump {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestAuthorizationListRoundTrip(t *testing.T) {
	governance := testKey(pubkey.UserPrefix, 1)
	a := admin.NewAuthorizationList(governance, testKey(pubkey.UserPrefix, 2))
	if err := a.Pause(testKey(pubkey.UserPrefix, 2), "borrow"); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	encoded := EncodeAuthorizationList(a)
	got, err := DecodeAuthorizationList(encoded)
	if err != nil {
		t.Fatalf("DecodeAuthorizationList: %v", err)
	}
	if !got.Governance.Equal(governance) || len(got.AuthUsers) != len(a.AuthUsers) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.IsPaused("borrow") {
		t.Fatal("expected borrow class paused after round trip")
	}
}

func TestReserveRoundTrip(t *testing.T) {
	rateData := &liquidity.RateDataV1{
		BaseRateBps: big.NewInt(0),
		Slope1Bps:   big.NewInt(500),
		Slope2Bps:   big.NewInt(2000),
		KinkBps:     big.NewInt(8000),
	}
	res := liquidity.NewReserve(testKey(pubkey.MintPrefix, 1), 6, rateData, 1000)
	res.TotalSupplyRaw = big.NewInt(100_000)
	res.DeveloperFeeBps = 1000
	res.Fees.ProtocolFeesRaw = big.NewInt(700)
	res.Fees.DeveloperFeesRaw = big.NewInt(300)
	res.WithdrawalLimit = &liquidity.ExpandShrinkLimit{
		Current:               big.NewInt(1),
		BaseLimit:             big.NewInt(2),
		MaxLimit:              big.NewInt(3),
		ExpandPercentBps:      2500,
		ExpandDurationSeconds: 3600,
		LastUpdateTimestamp:   1000,
	}

	encoded, err := EncodeReserve(res)
	if err != nil {
		t.Fatalf("EncodeReserve: %v", err)
	}
	got, err := DecodeReserve(encoded)
	if err != nil {
		t.Fatalf("DecodeReserve: %v", err)
	}
	if !got.Mint.Equal(res.Mint) || got.Decimals != res.Decimals {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.TotalSupplyRaw.Cmp(res.TotalSupplyRaw) != 0 {
		t.Fatalf("TotalSupplyRaw mismatch")
	}
	gotRate, ok := got.RateData.(*liquidity.RateDataV1)
	if !ok {
		t.Fatalf("expected RateDataV1, got %T", got.RateData)
	}
	if gotRate.Slope2Bps.Cmp(rateData.Slope2Bps) != 0 {
		t.Fatalf("Slope2Bps mismatch")
	}
	if got.WithdrawalLimit == nil || got.WithdrawalLimit.ExpandDurationSeconds != 3600 {
		t.Fatalf("WithdrawalLimit mismatch: %+v", got.WithdrawalLimit)
	}
	if got.BorrowLimit != nil {
		t.Fatalf("expected nil BorrowLimit, got %+v", got.BorrowLimit)
	}
	if got.DeveloperFeeBps != 1000 {
		t.Fatalf("DeveloperFeeBps mismatch: %d", got.DeveloperFeeBps)
	}
	if got.Fees.ProtocolFeesRaw.Cmp(big.NewInt(700)) != 0 || got.Fees.DeveloperFeesRaw.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("Fees mismatch: %+v", got.Fees)
	}
}

func TestFTokenRoundTrip(t *testing.T) {
	f := ftoken.NewFToken(testKey(pubkey.MintPrefix, 1), testKey(pubkey.MintPrefix, 2), testKey(pubkey.ProgramPrefix, 3), &ftoken.StaticModel{}, 500)
	f.TotalShares = big.NewInt(952)
	f.SupplyPositionRaw = big.NewInt(1000)

	encoded, err := EncodeFToken(f)
	if err != nil {
		t.Fatalf("EncodeFToken: %v", err)
	}
	got, err := DecodeFToken(encoded)
	if err != nil {
		t.Fatalf("DecodeFToken: %v", err)
	}
	if !got.Mint.Equal(f.Mint) || !got.FTokenMint.Equal(f.FTokenMint) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.TotalShares.Cmp(f.TotalShares) != 0 || got.SupplyPositionRaw.Cmp(f.SupplyPositionRaw) != 0 {
		t.Fatalf("amount mismatch: %+v", got)
	}
}

func TestDecodeRejectsWrongDiscriminator(t *testing.T) {
	tk := vault.NewTick(1, 1)
	encoded, err := EncodeTick(tk)
	if err != nil {
		t.Fatalf("EncodeTick: %v", err)
	}
	if _, err := DecodeBranch(encoded); err != ErrDiscriminatorMismatch {
		t.Fatalf("expected ErrDiscriminatorMismatch, got %v", err)
	}
}
