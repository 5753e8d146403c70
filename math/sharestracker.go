package math

import "autara/lendingerr"

// SharesTracker is the shares<->atoms accounting primitive shared by
// every vault: a pool of atoms represented as a total share count plus
// an exchange rate, so interest, fees, donations, and socialized losses
// can all be expressed as mutations of AtomsPerShare or TotalShares
// without ever touching an individual position. It is the Go analogue
// of the source's SharesTracker POD struct.
type SharesTracker struct {
	TotalShares   UFixed
	AtomsPerShare UFixed
}

// NewSharesTracker returns the starting state of an empty pool: zero
// shares outstanding, one atom per share.
func NewSharesTracker() SharesTracker {
	return SharesTracker{TotalShares: ZeroU(), AtomsPerShare: OneU()}
}

// TotalAtoms returns TotalShares*AtomsPerShare under the given rounding.
func (s SharesTracker) TotalAtoms(mode RoundingMode) (UFixed, error) {
	return s.SharesToAtoms(s.TotalShares, mode)
}

// SharesToAtoms converts a share amount to atoms at the tracker's
// current exchange rate.
func (s SharesTracker) SharesToAtoms(shares UFixed, mode RoundingMode) (UFixed, error) {
	atoms, err := shares.SafeMulRound(s.AtomsPerShare, mode)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	return atoms, nil
}

// AtomsToShares converts an atom amount to shares at the tracker's
// current exchange rate, failing with CantModifySharePriceIfZeroShares
// if AtomsPerShare is zero, leaving no share price to divide by.
func (s SharesTracker) AtomsToShares(atoms UFixed, mode RoundingMode) (UFixed, error) {
	if s.AtomsPerShare.IsZero() {
		return UFixed{}, lendingerr.WithContext(lendingerr.CantModifySharePriceIfZeroShares)
	}
	shares, err := atoms.SafeDivRound(s.AtomsPerShare, mode)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	return shares, nil
}

// DepositAtoms credits atoms into the pool and mints the corresponding
// shares at the current exchange rate, rounding the minted shares down
// so the depositor never receives a claim worth more than what they put
// in. Returns the minted share amount.
func (s *SharesTracker) DepositAtoms(atoms UFixed) (UFixed, error) {
	shares, err := s.AtomsToShares(atoms, RoundDown)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	total, err := s.TotalShares.SafeAdd(shares)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	s.TotalShares = total
	return shares, nil
}

// WithdrawShares burns shares out of the pool and returns the atoms they
// were worth, under the given rounding. It fails with SharesOverflow if
// shares exceeds TotalShares.
func (s *SharesTracker) WithdrawShares(shares UFixed, mode RoundingMode) (UFixed, error) {
	if shares.Greater(s.TotalShares) {
		return UFixed{}, lendingerr.WithContext(lendingerr.SharesOverflow)
	}
	total, err := s.TotalShares.SafeSub(shares)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	atoms, err := s.SharesToAtoms(shares, mode)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	s.TotalShares = total
	return atoms, nil
}

// WithdrawAtoms burns however many shares are worth exactly atoms,
// rounding the burned shares up so the pool never pays out more atoms
// than it debits shares for.
func (s *SharesTracker) WithdrawAtoms(atoms UFixed) (UFixed, error) {
	shares, err := s.AtomsToShares(atoms, RoundUp)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	total, err := s.TotalShares.SafeSub(shares)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	s.TotalShares = total
	return shares, nil
}

// WithdrawAtomsCapped behaves like WithdrawAtoms but clips the burned
// shares to maxShares, returning the actually-withdrawn atoms alongside
// the burned shares. It is the vault-level primitive behind repay_atoms
// and repay_atoms_capped, letting a caller offer an atom amount without
// knowing the exact share/atom exchange rate in advance.
func (s *SharesTracker) WithdrawAtomsCapped(atoms UFixed, maxShares UFixed, mode RoundingMode) (atomsOut UFixed, sharesOut UFixed, err error) {
	shares, err := s.AtomsToShares(atoms, RoundUp)
	if err != nil {
		return UFixed{}, UFixed{}, lendingerr.Track(err)
	}
	if shares.Greater(maxShares) {
		shares = maxShares
	}
	atomsOut, err = s.SharesToAtoms(shares, mode)
	if err != nil {
		return UFixed{}, UFixed{}, lendingerr.Track(err)
	}
	total, err := s.TotalShares.SafeSub(shares)
	if err != nil {
		return UFixed{}, UFixed{}, lendingerr.Track(err)
	}
	s.TotalShares = total
	return atomsOut, shares, nil
}

// ApplyInterestRate compounds rate (a per-period multiplicative growth
// factor, e.g. the output of CheckedExp on an integrated rate) into
// AtomsPerShare, growing every share's claim uniformly without minting
// or burning any shares. With no shares outstanding it leaves
// AtomsPerShare unchanged.
func (s *SharesTracker) ApplyInterestRate(rate UFixed) error {
	if s.TotalShares.IsZero() {
		return nil
	}
	grown, err := s.AtomsPerShare.SafeMul(rate)
	if err != nil {
		return lendingerr.Track(err)
	}
	s.AtomsPerShare = grown
	return nil
}

// ApplyInterestRateWithFee applies delta, a per-period interest delta
// (e.g. 0.05 for 5% growth, possibly negative), to the pool's accrued
// atoms, but carves feeFraction of the accrued interest out as newly
// minted shares credited to the fee receiver instead of letting it
// dilute into AtomsPerShare alongside everyone else's claim. Returns the
// minted fee shares.
//
// A negative delta carries no interest to carve a fee out of: it is
// applied in full via ApplyInterestRate, and the call still reports
// lendingerr.NegativeInterestRate so the caller can react to the
// unexpected markdown.
func (s *SharesTracker) ApplyInterestRateWithFee(delta IFixed, feeFraction UFixed) (UFixed, error) {
	atomsBefore, err := s.TotalAtoms(RoundDown)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	if atomsBefore.IsZero() {
		return ZeroU(), nil
	}
	if delta.IsNegative() {
		factor, ferr := delta.SafeAdd(One())
		if ferr != nil {
			return UFixed{}, lendingerr.Track(ferr)
		}
		factorU, uerr := factor.ToUFixed()
		if uerr != nil {
			return UFixed{}, lendingerr.Track(uerr)
		}
		if err := s.ApplyInterestRate(factorU); err != nil {
			return UFixed{}, lendingerr.Track(err)
		}
		return ZeroU(), lendingerr.WithContext(lendingerr.NegativeInterestRate)
	}
	deltaU, err := delta.ToUFixed()
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	interestAtoms, err := atomsBefore.SafeMul(deltaU)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	feeAtoms, err := interestAtoms.SafeMul(feeFraction)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	netInterestAtoms, err := interestAtoms.SafeSub(feeAtoms)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	netInterestRate, err := netInterestAtoms.SafeDiv(atomsBefore)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	netInterestAtomsPerShare, err := netInterestRate.SafeMul(s.AtomsPerShare)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	grown, err := s.AtomsPerShare.SafeAdd(netInterestAtomsPerShare)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	s.AtomsPerShare = grown
	if feeAtoms.IsZero() {
		return ZeroU(), nil
	}
	feeShares, err := s.AtomsToShares(feeAtoms, RoundDown)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	total, err := s.TotalShares.SafeAdd(feeShares)
	if err != nil {
		return UFixed{}, lendingerr.Track(err)
	}
	s.TotalShares = total
	return feeShares, nil
}

// DonateAtoms increases AtomsPerShare to reflect atoms added to the pool
// without any shares being minted against them, growing every existing
// share's claim. Fails with CantModifySharePriceIfZeroShares if there is
// no outstanding share to donate into.
func (s *SharesTracker) DonateAtoms(atoms UFixed) error {
	if s.TotalShares.IsZero() {
		return lendingerr.WithContext(lendingerr.CantModifySharePriceIfZeroShares)
	}
	perShare, err := atoms.SafeDiv(s.TotalShares)
	if err != nil {
		return lendingerr.Track(err)
	}
	grown, err := s.AtomsPerShare.SafeAdd(perShare)
	if err != nil {
		return lendingerr.Track(err)
	}
	s.AtomsPerShare = grown
	return nil
}

// SocializeLossAtoms marks down every remaining share's claim to reflect
// atoms that have been irrecoverably lost (a bad-debt write-off). Besides
// a negative delta passed to ApplyInterestRateWithFee, it is the only
// operation that decreases AtomsPerShare.
func (s *SharesTracker) SocializeLossAtoms(atoms UFixed) error {
	if s.TotalShares.IsZero() {
		return lendingerr.WithContext(lendingerr.CantModifySharePriceIfZeroShares)
	}
	perShare, err := atoms.SafeDiv(s.TotalShares)
	if err != nil {
		return lendingerr.Track(err)
	}
	shrunk, err := s.AtomsPerShare.SafeSub(perShare)
	if err != nil {
		return lendingerr.Track(err)
	}
	s.AtomsPerShare = shrunk
	return nil
}
