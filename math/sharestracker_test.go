package math

import "testing"

func TestSharesTrackerDepositWithdrawRoundTrip(t *testing.T) {
	s := NewSharesTracker()
	shares, err := s.DepositAtoms(UFromU64(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !shares.Equal(UFromU64(1000)) {
		t.Fatalf("first deposit should mint 1:1, got %v", shares.ToFloat())
	}
	atoms, err := s.WithdrawShares(shares, RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !atoms.Equal(UFromU64(1000)) {
		t.Fatalf("withdrawing all shares should return all atoms, got %v", atoms.ToFloat())
	}
	if !s.TotalShares.IsZero() {
		t.Fatalf("pool should be empty after full withdrawal")
	}
}

func TestSharesTrackerInterestGrowsExchangeRate(t *testing.T) {
	s := NewSharesTracker()
	if _, err := s.DepositAtoms(UFromU64(1000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tenPercent, err := UFromU64(110).SafeDiv(UFromU64(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.ApplyInterestRate(tenPercent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	atoms, err := s.TotalAtoms(RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1.1 has no exact Q64.64 form, so the total lands within rounding
	// dust of 1100 rather than on it.
	if d := atoms.ToFloat() - 1100; d < -1e-9 || d > 1e-9 {
		t.Fatalf("1000 atoms at 10%% growth should be 1100, got %v", atoms.ToFloat())
	}
}

func TestSharesTrackerFeeMintsSharesWithoutChangingTotalAtomsClaim(t *testing.T) {
	s := NewSharesTracker()
	if _, err := s.DepositAtoms(UFromU64(1000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tenPercent, err := FromRatio(10, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	half, err := UFromU64(1).SafeDiv(UFromU64(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feeShares, err := s.ApplyInterestRateWithFee(tenPercent, half)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feeShares.IsZero() {
		t.Fatalf("expected non-zero fee shares minted for the fee receiver")
	}
	totalAtoms, err := s.TotalAtoms(RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.1 has no exact Q80.48 form, so the total lands within rounding
	// dust of 1100 rather than on it.
	if d := totalAtoms.ToFloat() - 1100; d < -1e-9 || d > 1e-9 {
		t.Fatalf("fee accrual should not change the pool's total atoms claim (interest net of fee plus fee shares still price to the same atoms), got %v", totalAtoms.ToFloat())
	}
}

// TestSharesTrackerFeeOnFiftyPercentInterest checks the accrual a 50%
// interest rate and 10% fee produce against a billion-atom pool: total
// atoms should land at 1,500,000,000 up to fixed-point rounding dust, and
// the minted fee shares should redeem for a tenth of the accrued interest
// up to the same dust.
func TestSharesTrackerFeeOnFiftyPercentInterest(t *testing.T) {
	s := NewSharesTracker()
	const initialAtoms = 1_000_000_000
	if _, err := s.DepositAtoms(UFromU64(initialAtoms)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fiftyPercent, err := FromRatio(1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tenPercentFee, err := UFromRatio(1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feeShares, err := s.ApplyInterestRateWithFee(fiftyPercent, tenPercentFee)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	totalAtoms, err := s.TotalAtoms(RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	atoms, err := totalAtoms.ToU64(RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const wantAtoms = 1_500_000_000
	if atoms > wantAtoms || atoms < wantAtoms-10 {
		t.Fatalf("expected total atoms near %d, got %d", wantAtoms, atoms)
	}
	withdrawnFees, err := s.WithdrawShares(feeShares, RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withdrawnAtoms, err := withdrawnFees.ToU64(RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	accrued := atoms - initialAtoms
	wantFees := accrued / 10
	if withdrawnAtoms > wantFees || withdrawnAtoms < wantFees-10 {
		t.Fatalf("expected withdrawn fees near %d, got %d", wantFees, withdrawnAtoms)
	}
}

// TestSharesTrackerNegativeInterestRateReportsButStillApplies mirrors the
// source's negative-rate path: the markdown still lands on AtomsPerShare
// (there is no fee to carve out of a loss), but the call reports
// NegativeInterestRate so the caller knows to treat the sync as failed.
func TestSharesTrackerNegativeInterestRateReportsButStillApplies(t *testing.T) {
	s := NewSharesTracker()
	if _, err := s.DepositAtoms(UFromU64(1_000_000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	negTenPercent, err := FromRatio(1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	negTenPercent = negTenPercent.Neg()
	half, err := UFromU64(1).SafeDiv(UFromU64(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feeShares, err := s.ApplyInterestRateWithFee(negTenPercent, half)
	if err == nil {
		t.Fatalf("expected NegativeInterestRate to be reported")
	}
	if !feeShares.IsZero() {
		t.Fatalf("a negative rate must never mint fee shares")
	}
	totalAtoms, err := s.TotalAtoms(RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	atoms, err := totalAtoms.ToU64(RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const wantAtoms = 900_000
	if atoms > wantAtoms || atoms < wantAtoms-10 {
		t.Fatalf("expected the markdown to still apply in full near %d, got %d", wantAtoms, atoms)
	}
}

func TestSharesTrackerDonateGrowsRateWithoutMinting(t *testing.T) {
	s := NewSharesTracker()
	shares, err := s.DepositAtoms(UFromU64(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.DonateAtoms(UFromU64(500)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.TotalShares.Equal(shares) {
		t.Fatalf("donation must not mint shares")
	}
	atoms, err := s.TotalAtoms(RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !atoms.Equal(UFromU64(1500)) {
		t.Fatalf("donated atoms should be reflected in total atoms, got %v", atoms.ToFloat())
	}
}

func TestSharesTrackerSocializeLossShrinksRate(t *testing.T) {
	s := NewSharesTracker()
	if _, err := s.DepositAtoms(UFromU64(1000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := s.AtomsPerShare
	if err := s.SocializeLossAtoms(UFromU64(200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.AtomsPerShare.Less(before) {
		t.Fatalf("socializing a loss must decrease AtomsPerShare")
	}
	atoms, err := s.TotalAtoms(RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 200/1000 has no exact Q64.64 form, so the total lands within
	// rounding dust of 800 rather than on it.
	if d := atoms.ToFloat() - 800; d < -1e-9 || d > 1e-9 {
		t.Fatalf("socializing 200 of 1000 atoms should leave 800, got %v", atoms.ToFloat())
	}
}

func TestSharesTrackerWithdrawAtomsCappedClipsToMax(t *testing.T) {
	s := NewSharesTracker()
	shares, err := s.DepositAtoms(UFromU64(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	half, err := shares.SafeDiv(UFromU64(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	atomsOut, sharesOut, err := s.WithdrawAtomsCapped(UFromU64(1000), half, RoundDown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sharesOut.Equal(half) {
		t.Fatalf("requesting more than maxShares should clip to maxShares, got %v", sharesOut.ToFloat())
	}
	if !atomsOut.Equal(UFromU64(500)) {
		t.Fatalf("clipped withdrawal should return 500 atoms, got %v", atomsOut.ToFloat())
	}
}

func TestSharesTrackerAtomsToSharesFailsWhenEmpty(t *testing.T) {
	s := NewSharesTracker()
	s.AtomsPerShare = ZeroU()
	if _, err := s.AtomsToShares(UFromU64(1), RoundDown); err == nil {
		t.Fatalf("expected CantModifySharePriceIfZeroShares")
	}
}
