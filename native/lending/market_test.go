package lending

import (
	"testing"

	"autara/interestrate"
	"autara/lendingerr"
	afixed "autara/math"
	"autara/oracle"
)

func zeroConfRate(t *testing.T, price string) oracle.Rate {
	t.Helper()
	return oracle.NewRate(afixed.MustParse(price), afixed.Zero())
}

func noCheckUnchecked(rate oracle.Rate, publishTime int64) oracle.Unchecked {
	return oracle.NewUnchecked(rate, publishTime)
}

// newTestMarket builds a market at supply decimals 6 / collateral
// decimals 8, matching every concrete scenario in this package's tests.
func newTestMarket(t *testing.T, maxLTV, unhealthyLTV, bonus, maxUtil string, curve interestrate.Curve) *Market {
	t.Helper()
	ltv := LtvConfig{
		MaxLTV:           afixed.MustParse(maxLTV),
		UnhealthyLTV:     afixed.MustParse(unhealthyLTV),
		LiquidationBonus: afixed.MustParse(bonus),
	}
	m, err := CreateMarket(
		0, PublicKey{1},
		PublicKey{2}, PublicKey{3},
		6, 8,
		PublicKey{4}, PublicKey{5},
		PublicKey{6}, PublicKey{7},
		oracle.ValidationConfig{}, oracle.ValidationConfig{},
		curve,
		ltv,
		afixed.MustParse(maxUtil),
		1<<62,
		500,
		1000,
	)
	if err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}
	return &m
}

func mustWrap(t *testing.T, m *Market, supplyPrice, collateralPrice string, now int64) *MarketWrapper {
	t.Helper()
	w, err := NewMarketWrapper(
		PublicKey{9}, m,
		noCheckUnchecked(zeroConfRate(t, supplyPrice), now),
		noCheckUnchecked(zeroConfRate(t, collateralPrice), now),
		now,
	)
	if err != nil {
		t.Fatalf("NewMarketWrapper failed: %v", err)
	}
	return w
}

func TestLendThenWithdrawAllReturnsExactAtomsWithNoClockAdvance(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", interestrate.NewFixedCurve(interestrate.ConstFromAPR(afixed.MustParse("0.1"))))

	w := mustWrap(t, m, "1", "100000", 0)
	pos := &SupplyPosition{}
	if _, err := w.Lend(pos, PublicKey{10}, 1_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}

	w2 := mustWrap(t, m, "1", "100000", 0)
	ev, err := w2.WithdrawAll(pos, PublicKey{10})
	if err != nil {
		t.Fatalf("WithdrawAll failed: %v", err)
	}
	if ev.Atoms != 1_000_000 {
		t.Fatalf("expected exactly 1_000_000 atoms back with no clock advance, got %d", ev.Atoms)
	}
	if !pos.Shares.IsZero() {
		t.Fatalf("position should hold no shares after withdrawing all")
	}
}

func TestSyncClockInterestIsMonotonicForNonNegativeRate(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", interestrate.NewFixedCurve(interestrate.ConstFromAPR(afixed.MustParse("0.1"))))

	w1 := mustWrap(t, m, "1", "100000", 1000)
	pos := &SupplyPosition{}
	if _, err := w1.Lend(pos, PublicKey{10}, 1_000_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	borrower := &BorrowPosition{}
	if _, err := w1.DepositCollateral(borrower, PublicKey{11}, 10_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}
	if _, err := w1.Borrow(borrower, PublicKey{11}, 500_000_000); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}

	rateAfterT1 := m.Supply.Supply.AtomsPerShare
	if err := m.SyncClock(2000); err != nil {
		t.Fatalf("SyncClock(2000) failed: %v", err)
	}
	rateAfterT2 := m.Supply.Supply.AtomsPerShare
	if rateAfterT2.Less(rateAfterT1) {
		t.Fatalf("atoms_per_share must never decrease under a non-negative rate: %v -> %v", rateAfterT1.ToFloat(), rateAfterT2.ToFloat())
	}
	if err := m.SyncClock(5000); err != nil {
		t.Fatalf("SyncClock(5000) failed: %v", err)
	}
	rateAfterT3 := m.Supply.Supply.AtomsPerShare
	if rateAfterT3.Less(rateAfterT2) {
		t.Fatalf("atoms_per_share must never decrease across a later sync: %v -> %v", rateAfterT2.ToFloat(), rateAfterT3.ToFloat())
	}
}

func TestCreateMarketRejectsUnsupportedDecimals(t *testing.T) {
	ltv := LtvConfig{MaxLTV: afixed.MustParse("0.8"), UnhealthyLTV: afixed.MustParse("0.9"), LiquidationBonus: afixed.MustParse("0.05")}
	_, err := CreateMarket(
		0, PublicKey{1}, PublicKey{2}, PublicKey{3},
		19, 8,
		PublicKey{4}, PublicKey{5}, PublicKey{6}, PublicKey{7},
		oracle.ValidationConfig{}, oracle.ValidationConfig{},
		interestrate.NewFixedCurve(interestrate.ConstFromAPR(afixed.Zero())),
		ltv, afixed.MustParse("0.9"), 1<<62, 500, 1000,
	)
	kind, ok := lendingerr.KindOf(err)
	if !ok {
		t.Fatalf("expected a lendingerr.Error, got %v", err)
	}
	if kind.String() != "UnsupportedMintDecimals" {
		t.Fatalf("expected UnsupportedMintDecimals, got %v", kind)
	}
}
