package lending

import (
	"testing"

	"autara/interestrate"
	"autara/lendingerr"
	afixed "autara/math"
)

func zeroRateCurve() interestrate.Curve {
	return interestrate.NewFixedCurve(interestrate.ConstFromAPR(afixed.Zero()))
}

// TestScenarioBasicSupplyBorrowRepay is S1 from the concrete end-to-end
// scenarios: a plain supply/borrow well inside every policy limit.
func TestScenarioBasicSupplyBorrowRepay(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", zeroRateCurve())
	w := mustWrap(t, m, "1", "100000", 0)

	supplier := &SupplyPosition{}
	if _, err := w.Lend(supplier, PublicKey{10}, 1_000_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}

	borrower := &BorrowPosition{}
	if _, err := w.DepositCollateral(borrower, PublicKey{11}, 10_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}
	if borrower.CollateralDepositedAtoms != 10_000_000 {
		t.Fatalf("expected 10_000_000 collateral atoms, got %d", borrower.CollateralDepositedAtoms)
	}

	if _, err := w.Borrow(borrower, PublicKey{11}, 100_000); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}
	borrowedAtoms, err := m.Supply.Borrow.SharesToAtoms(borrower.BorrowedShares, afixed.RoundUp)
	if err != nil {
		t.Fatalf("SharesToAtoms failed: %v", err)
	}
	atoms, err := borrowedAtoms.ToU64(afixed.RoundUp)
	if err != nil {
		t.Fatalf("ToU64 failed: %v", err)
	}
	if atoms < 100_000 || atoms > 100_001 {
		t.Fatalf("expected borrowed_atoms in [100_000, 100_001], got %d", atoms)
	}

	if _, err := w.Repay(borrower, PublicKey{11}, atoms); err != nil {
		t.Fatalf("Repay failed: %v", err)
	}
	if !borrower.BorrowedShares.IsZero() {
		t.Fatalf("expected debt fully repaid, got shares %v", borrower.BorrowedShares.ToFloat())
	}
}

// TestScenarioMaxLtvGate is S2: a borrow that would blow through max_ltv
// must fail with MaxLtvReached, and the position must be left untouched.
func TestScenarioMaxLtvGate(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", zeroRateCurve())
	w := mustWrap(t, m, "1", "100000", 0)

	supplier := &SupplyPosition{}
	if _, err := w.Lend(supplier, PublicKey{10}, 1_000_000_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	borrower := &BorrowPosition{}
	if _, err := w.DepositCollateral(borrower, PublicKey{11}, 100_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}

	_, err := w.Borrow(borrower, PublicKey{11}, 100_000_000_000_000)
	if kind, ok := lendingerr.KindOf(err); !ok || kind != lendingerr.MaxLtvReached {
		t.Fatalf("expected MaxLtvReached, got %v", err)
	}
	if !borrower.BorrowedShares.IsZero() {
		t.Fatalf("a failed borrow must not mutate the position, got shares %v", borrower.BorrowedShares.ToFloat())
	}
}

// TestScenarioMaxUtilisationGate is S3: a borrow within max_ltv but
// beyond max_utilisation_rate must fail with MaxUtilisationRateReached.
func TestScenarioMaxUtilisationGate(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", zeroRateCurve())
	w := mustWrap(t, m, "1", "100000", 0)

	supplier := &SupplyPosition{}
	if _, err := w.Lend(supplier, PublicKey{10}, 1_000_000_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	borrower := &BorrowPosition{}
	if _, err := w.DepositCollateral(borrower, PublicKey{11}, 1_000_000_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}

	_, err := w.Borrow(borrower, PublicKey{11}, 999_999_999_999)
	if kind, ok := lendingerr.KindOf(err); !ok || kind != lendingerr.MaxUtilisationRateReached {
		t.Fatalf("expected MaxUtilisationRateReached, got %v", err)
	}
}

func TestWithdrawCollateralRejectsWhenItWouldBreachMaxLtv(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", zeroRateCurve())
	w := mustWrap(t, m, "1", "100000", 0)

	supplier := &SupplyPosition{}
	if _, err := w.Lend(supplier, PublicKey{10}, 1_000_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	borrower := &BorrowPosition{}
	if _, err := w.DepositCollateral(borrower, PublicKey{11}, 10_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}
	if _, err := w.Borrow(borrower, PublicKey{11}, 700_000); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}

	_, err := w.WithdrawCollateral(borrower, PublicKey{11}, 9_999_500)
	if kind, ok := lendingerr.KindOf(err); !ok || kind != lendingerr.MaxLtvReached {
		t.Fatalf("expected MaxLtvReached, got %v", err)
	}
}

func TestBorrowDepositCommitsFirstLegEvenIfCallbackFails(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", zeroRateCurve())
	w := mustWrap(t, m, "1", "100000", 0)

	supplier := &SupplyPosition{}
	if _, err := w.Lend(supplier, PublicKey{10}, 1_000_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	borrower := &BorrowPosition{}
	if _, err := w.DepositCollateral(borrower, PublicKey{11}, 10_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}

	failingCallback := func(*MarketWrapper) error {
		return lendingerr.WithContext(lendingerr.InvalidMarketAuthority)
	}
	_, err := w.BorrowDeposit(borrower, PublicKey{11}, 100_000, 1_000_000, failingCallback)
	if err == nil {
		t.Fatalf("expected the composite operation to surface the callback's error")
	}
	if borrower.BorrowedShares.IsZero() {
		t.Fatalf("the borrow leg must remain committed even though the callback failed")
	}
	if borrower.CollateralDepositedAtoms != 10_000_000 {
		t.Fatalf("the deposit leg must be skipped when the callback fails, got %d", borrower.CollateralDepositedAtoms)
	}
}

func TestRedeemCuratorAndProtocolFeesBurnPendingShares(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", interestrate.NewFixedCurve(interestrate.ConstFromAPR(afixed.MustParse("0.2"))))
	w := mustWrap(t, m, "1", "100000", 0)

	supplier := &SupplyPosition{}
	if _, err := w.Lend(supplier, PublicKey{10}, 1_000_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	borrower := &BorrowPosition{}
	if _, err := w.DepositCollateral(borrower, PublicKey{11}, 10_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}
	if _, err := w.Borrow(borrower, PublicKey{11}, 500_000_000); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}
	if err := m.SyncClock(3600 * 24 * 30); err != nil {
		t.Fatalf("SyncClock failed: %v", err)
	}
	if m.Supply.PendingProtocolFeeShares.IsZero() && m.Supply.PendingCuratorFeeShares.IsZero() {
		t.Fatalf("expected some fee shares to accrue over a month at 20%% APR and 50%% utilisation")
	}

	w2 := mustWrap(t, m, "1", "100000", 3600*24*30)
	if !m.Supply.PendingCuratorFeeShares.IsZero() {
		if _, err := w2.RedeemCuratorFees(PublicKey{1}); err != nil {
			t.Fatalf("RedeemCuratorFees failed: %v", err)
		}
		if !m.Supply.PendingCuratorFeeShares.IsZero() {
			t.Fatalf("expected pending curator fee shares to be zeroed after redemption")
		}
	}
	if !m.Supply.PendingProtocolFeeShares.IsZero() {
		if _, err := w2.RedeemProtocolFees(PublicKey{1}); err != nil {
			t.Fatalf("RedeemProtocolFees failed: %v", err)
		}
		if !m.Supply.PendingProtocolFeeShares.IsZero() {
			t.Fatalf("expected pending protocol fee shares to be zeroed after redemption")
		}
	}
}
