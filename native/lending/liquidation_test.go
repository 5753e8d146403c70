package lending

import (
	"testing"

	"autara/lendingerr"
	afixed "autara/math"
)

// TestScenarioPartialLiquidation is S4: a position pushed into
// (unhealthy_ltv, 1) by a collateral price drop is partially liquidated,
// its LTV strictly decreases, and the liquidator earns a non-zero bonus.
func TestScenarioPartialLiquidation(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", zeroRateCurve())
	w := mustWrap(t, m, "1", "100000", 0)

	supplier := &SupplyPosition{}
	if _, err := w.Lend(supplier, PublicKey{10}, 100_000_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	borrower := &BorrowPosition{}
	if _, err := w.DepositCollateral(borrower, PublicKey{11}, 10_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}
	if _, err := w.Borrow(borrower, PublicKey{11}, 5_000_000_000); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}

	w2 := mustWrap(t, m, "1", "55000", 0)
	healthBefore, _, err := w2.positionHealth(borrower)
	if err != nil {
		t.Fatalf("positionHealth failed: %v", err)
	}
	if !healthBefore.LTV.Greater(afixed.MustParse("0.9")) || !healthBefore.LTV.Less(afixed.One()) {
		t.Fatalf("expected ltv in (0.9, 1), got %v", healthBefore.LTV.ToFloat())
	}

	result, _, err := w2.Liquidate(borrower, PublicKey{12}, 5_000_000_000)
	if err != nil {
		t.Fatalf("Liquidate failed: %v", err)
	}
	if result.BonusAtoms == 0 {
		t.Fatalf("expected a non-zero liquidation bonus for a sub-100%% LTV position")
	}
	if result.SeizeAtoms == 0 || result.RepayAtoms == 0 {
		t.Fatalf("expected a non-zero repay/seize, got %+v", result)
	}
	if !result.HealthAfter.LTV.Less(result.HealthBefore.LTV) {
		t.Fatalf("liquidation must strictly decrease ltv: before=%v after=%v",
			result.HealthBefore.LTV.ToFloat(), result.HealthAfter.LTV.ToFloat())
	}
}

// TestScenarioFullLiquidationAtLtvAboveOne is S5: once the position's
// ltv reaches or exceeds 100%, the bad-debt path seizes the entire
// remaining collateral with zero bonus, leaving ltv at zero.
func TestScenarioFullLiquidationAtLtvAboveOne(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", zeroRateCurve())
	w := mustWrap(t, m, "1", "100000", 0)

	supplier := &SupplyPosition{}
	if _, err := w.Lend(supplier, PublicKey{10}, 100_000_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	borrower := &BorrowPosition{}
	if _, err := w.DepositCollateral(borrower, PublicKey{11}, 10_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}
	if _, err := w.Borrow(borrower, PublicKey{11}, 5_000_000_000); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}

	w2 := mustWrap(t, m, "1", "1", 0)
	result, _, err := w2.Liquidate(borrower, PublicKey{12}, 5_000_000_000)
	if err != nil {
		t.Fatalf("Liquidate failed: %v", err)
	}
	if result.BonusAtoms != 0 {
		t.Fatalf("expected zero bonus on the bad-debt path, got %d", result.BonusAtoms)
	}
	if borrower.CollateralDepositedAtoms != 0 {
		t.Fatalf("expected the entire 10_000_000 collateral atoms seized, %d remain", borrower.CollateralDepositedAtoms)
	}
	if !result.HealthAfter.LTV.IsZero() {
		t.Fatalf("expected ltv == 0 after a full liquidation, got %v", result.HealthAfter.LTV.ToFloat())
	}
}

// TestScenarioHealthyPositionCannotBeLiquidated guards the PositionIsHealthy
// gate ahead of S4/S5: a position below unhealthy_ltv must reject Liquidate.
func TestScenarioHealthyPositionCannotBeLiquidated(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", zeroRateCurve())
	w := mustWrap(t, m, "1", "100000", 0)

	supplier := &SupplyPosition{}
	if _, err := w.Lend(supplier, PublicKey{10}, 100_000_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	borrower := &BorrowPosition{}
	if _, err := w.DepositCollateral(borrower, PublicKey{11}, 10_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}
	if _, err := w.Borrow(borrower, PublicKey{11}, 5_000_000_000); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}

	_, _, err := w.Liquidate(borrower, PublicKey{12}, 5_000_000_000)
	if kind, ok := lendingerr.KindOf(err); !ok || kind != lendingerr.PositionIsHealthy {
		t.Fatalf("expected PositionIsHealthy, got %v", err)
	}
}

// TestScenarioSocializeThenDonate is S6: socializing a bad debt marks
// down every supplier's share price, and a subsequent donation can
// repair it so a withdrawer recovers close to their original principal.
func TestScenarioSocializeThenDonate(t *testing.T) {
	m := newTestMarket(t, "0.8", "0.9", "0.05", "0.9", zeroRateCurve())
	w := mustWrap(t, m, "1", "100", 0)

	supplier := &SupplyPosition{}
	if _, err := w.Lend(supplier, PublicKey{10}, 100_000_000); err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	borrower := &BorrowPosition{}
	if _, err := w.DepositCollateral(borrower, PublicKey{11}, 1_000_000); err != nil {
		t.Fatalf("DepositCollateral failed: %v", err)
	}
	if _, err := w.Borrow(borrower, PublicKey{11}, 10_000); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}

	// Crater the supply asset's value against the collateral so ltv blows
	// past 1 without needing an implausibly small collateral price.
	w2 := mustWrap(t, m, "10000000000", "100", 0)

	socResult, _, err := w2.SocializeLoss(borrower, PublicKey{1})
	if err != nil {
		t.Fatalf("SocializeLoss failed: %v", err)
	}
	if socResult.DebtAtoms == 0 {
		t.Fatalf("expected a non-zero socialized debt")
	}
	if !borrower.BorrowedShares.IsZero() || borrower.CollateralDepositedAtoms != 0 {
		t.Fatalf("socialize_loss must clear the position's debt and collateral")
	}

	shrunkAtomsPerShare := m.Supply.Supply.AtomsPerShare
	if !shrunkAtomsPerShare.Less(afixed.One()) {
		t.Fatalf("expected socialize_loss to mark the share price down below 1, got %v", shrunkAtomsPerShare.ToFloat())
	}

	// A curator donation covering exactly the socialized debt restores
	// the share price, letting the original supplier recover its full
	// principal: donate repairs what socialize wrote down.
	w3 := mustWrap(t, m, "1", "100", 0)
	if _, err := w3.DonateSupply(PublicKey{1}, socResult.DebtAtoms); err != nil {
		t.Fatalf("DonateSupply failed: %v", err)
	}
	if m.Supply.Supply.AtomsPerShare.Less(afixed.One()) {
		t.Fatalf("expected the donation to restore atoms_per_share to at least 1, got %v", m.Supply.Supply.AtomsPerShare.ToFloat())
	}

	w4 := mustWrap(t, m, "1", "100", 0)
	ev, err := w4.WithdrawAll(supplier, PublicKey{10})
	if err != nil {
		t.Fatalf("WithdrawAll failed: %v", err)
	}
	if ev.Atoms != 100_000_000 {
		t.Fatalf("expected the donation to exactly repair the socialized loss and return the full principal, got %d", ev.Atoms)
	}
}
