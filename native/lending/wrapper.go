package lending

import (
	"autara/lendingerr"
	afixed "autara/math"
	"autara/oracle"
)

// MarketWrapper is the ephemeral view every LTV-sensitive mutation runs
// through: a Market plus two oracle rates validated once, at
// construction, against the current unix timestamp. It must not
// outlive the oracle accounts that backed it, and a fresh one is built
// for every operation.
type MarketWrapper struct {
	marketID PublicKey
	market   *Market

	supplyOracle     oracle.Rate
	collateralOracle oracle.Rate
	now              int64
}

// NewMarketWrapper validates both oracle accounts against market's
// configured tolerances as of now, then advances market's interest
// clock. marketID is the identifier attached to every Event this
// wrapper produces; the core never needs it for anything but event
// labelling.
func NewMarketWrapper(
	marketID PublicKey,
	market *Market,
	supplyUnchecked oracle.Unchecked,
	collateralUnchecked oracle.Unchecked,
	now int64,
) (*MarketWrapper, error) {
	supplyRate, err := supplyUnchecked.Validate(market.Supply.OracleConfig, now)
	if err != nil {
		return nil, lendingerr.Track(err)
	}
	collateralRate, err := collateralUnchecked.Validate(market.Collateral.OracleConfig, now)
	if err != nil {
		return nil, lendingerr.Track(err)
	}
	if err := market.SyncClock(now); err != nil {
		return nil, lendingerr.Track(err)
	}
	return &MarketWrapper{
		marketID:         marketID,
		market:           market,
		supplyOracle:     supplyRate,
		collateralOracle: collateralRate,
		now:              now,
	}, nil
}

// Market exposes the wrapper's bound Market for read-only queries.
func (w *MarketWrapper) Market() *Market { return w.market }

func (w *MarketWrapper) healthOf(market *Market, borrowedAtoms, collateralAtoms uint64) (Health, error) {
	return health(
		borrowedAtoms, collateralAtoms,
		market.Supply.MintDecimals, market.Collateral.MintDecimals,
		w.supplyOracle, w.collateralOracle,
	)
}

// positionHealthOf computes a BorrowPosition's health against an
// explicit market snapshot, so callers mid-clone-mutate-commit can
// validate a scratch copy before ever touching w.market.
func (w *MarketWrapper) positionHealthOf(market *Market, p *BorrowPosition) (Health, uint64, error) {
	borrowedAtoms, err := market.Supply.Borrow.SharesToAtoms(p.BorrowedShares, afixed.RoundUp)
	if err != nil {
		return Health{}, 0, lendingerr.Track(err)
	}
	borrowedU64, err := borrowedAtoms.ToU64(afixed.RoundUp)
	if err != nil {
		return Health{}, 0, lendingerr.Track(err)
	}
	h, err := w.healthOf(market, borrowedU64, p.CollateralDepositedAtoms)
	if err != nil {
		return Health{}, 0, lendingerr.Track(err)
	}
	return h, borrowedU64, nil
}

func (w *MarketWrapper) positionHealth(p *BorrowPosition) (Health, uint64, error) {
	return w.positionHealthOf(w.market, p)
}

// PositionHealth exposes positionHealth for read-only health queries
// (the gRPC GetHealth surface) that never intend to mutate p.
func (w *MarketWrapper) PositionHealth(p *BorrowPosition) (Health, uint64, error) {
	return w.positionHealth(p)
}

// checkReservesOf fails with WithdrawalExceedsReserves if market's
// borrowed atoms exceed its supplied atoms.
func checkReservesOf(market *Market) error {
	borrowed, err := market.Supply.Borrow.TotalAtoms(afixed.RoundUp)
	if err != nil {
		return lendingerr.Track(err)
	}
	supplied, err := market.Supply.Supply.TotalAtoms(afixed.RoundDown)
	if err != nil {
		return lendingerr.Track(err)
	}
	if borrowed.Greater(supplied) {
		return lendingerr.WithContext(lendingerr.WithdrawalExceedsReserves)
	}
	return nil
}

// Lend credits atoms of supply into position, minting shares at the
// vault's current exchange rate (rounded down). Clones the market and
// commits only once every check has passed.
func (w *MarketWrapper) Lend(position *SupplyPosition, authority PublicKey, atoms uint64) (Event, error) {
	market := w.market.Clone()
	pos := *position

	shares, err := market.Supply.Supply.DepositAtoms(afixed.UFromU64(atoms))
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	totalAtoms, err := market.Supply.Supply.TotalAtoms(afixed.RoundDown)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	totalU64, err := totalAtoms.ToU64(afixed.RoundDown)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	if totalU64 > market.Config.MaxSupplyAtoms {
		return Event{}, lendingerr.WithContext(lendingerr.MaxSupplyReached)
	}
	newShares, err := pos.Shares.SafeAdd(shares)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	pos.Shares = newShares
	pos.DepositedAtoms += atoms

	*w.market = market
	*position = pos
	return w.newEvent(EventSupply, authority, atoms, shares), nil
}

// Withdraw burns however many shares are worth atoms out of position,
// rounding the burned shares up.
func (w *MarketWrapper) Withdraw(position *SupplyPosition, authority PublicKey, atoms uint64) (Event, error) {
	market := w.market.Clone()
	pos := *position

	requestedShares, err := market.Supply.Supply.AtomsToShares(afixed.UFromU64(atoms), afixed.RoundUp)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	if requestedShares.Greater(pos.Shares) {
		return Event{}, lendingerr.WithContext(lendingerr.WithdrawalExceedsDeposited)
	}
	burnedShares, err := market.Supply.Supply.WithdrawAtoms(afixed.UFromU64(atoms))
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	if err := checkReservesOf(&market); err != nil {
		return Event{}, lendingerr.Track(err)
	}
	remaining, err := pos.Shares.SafeSub(burnedShares)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	pos.Shares = remaining

	*w.market = market
	*position = pos
	return w.newEvent(EventWithdraw, authority, atoms, burnedShares), nil
}

// WithdrawAll burns every share position holds and returns the atoms
// they were worth, rounded down.
func (w *MarketWrapper) WithdrawAll(position *SupplyPosition, authority PublicKey) (Event, error) {
	market := w.market.Clone()
	shares := position.Shares

	atoms, err := market.Supply.Supply.WithdrawShares(shares, afixed.RoundDown)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	if err := checkReservesOf(&market); err != nil {
		return Event{}, lendingerr.Track(err)
	}
	atomsU64, err := atoms.ToU64(afixed.RoundDown)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}

	*w.market = market
	position.Shares = afixed.ZeroU()
	position.DepositedAtoms = 0
	return w.newEvent(EventWithdraw, authority, atomsU64, shares), nil
}

// DepositCollateral credits atoms into both position's counter and the
// vault's total. Always succeeds: depositing collateral can only
// improve a position's health.
func (w *MarketWrapper) DepositCollateral(position *BorrowPosition, authority PublicKey, atoms uint64) (Event, error) {
	market := w.market.Clone()
	market.Collateral.TotalCollateralAtoms += atoms

	*w.market = market
	position.CollateralDepositedAtoms += atoms
	return w.newEvent(EventDepositCollateral, authority, atoms, afixed.ZeroU()), nil
}

// WithdrawCollateral debits atoms from both position and the vault,
// then checks the position remains within its configured max LTV.
func (w *MarketWrapper) WithdrawCollateral(position *BorrowPosition, authority PublicKey, atoms uint64) (Event, error) {
	if atoms > position.CollateralDepositedAtoms {
		return Event{}, lendingerr.WithContext(lendingerr.WithdrawalExceedsDeposited)
	}
	market := w.market.Clone()
	pos := *position

	pos.CollateralDepositedAtoms -= atoms
	market.Collateral.TotalCollateralAtoms -= atoms

	if !pos.BorrowedShares.IsZero() && pos.CollateralDepositedAtoms == 0 {
		return Event{}, lendingerr.WithContext(lendingerr.MaxLtvReached)
	}
	h, _, err := w.positionHealthOf(&market, &pos)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	if h.LTV.Greater(market.Config.Ltv.MaxLTV) {
		return Event{}, lendingerr.WithContext(lendingerr.MaxLtvReached)
	}

	*w.market = market
	*position = pos
	return w.newEvent(EventWithdrawCollateral, authority, atoms, afixed.ZeroU()), nil
}

// Borrow credits borrow shares to position and checks the resulting
// LTV and market utilisation both stay within their configured caps.
func (w *MarketWrapper) Borrow(position *BorrowPosition, authority PublicKey, atoms uint64) (Event, error) {
	market := w.market.Clone()
	pos := *position

	shares, err := market.Supply.Borrow.DepositAtoms(afixed.UFromU64(atoms))
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	newShares, err := pos.BorrowedShares.SafeAdd(shares)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	pos.BorrowedShares = newShares
	pos.InitialBorrowedAtoms += atoms

	h, _, err := w.positionHealthOf(&market, &pos)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	if h.LTV.Greater(market.Config.Ltv.MaxLTV) {
		return Event{}, lendingerr.WithContext(lendingerr.MaxLtvReached)
	}
	util, err := market.Utilisation()
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	if util.Greater(market.Config.MaxUtilisationRate) {
		return Event{}, lendingerr.WithContext(lendingerr.MaxUtilisationRateReached)
	}

	*w.market = market
	*position = pos
	return w.newEvent(EventBorrow, authority, atoms, shares), nil
}

// Repay burns however many shares are worth atoms out of position's
// debt, rounding the burned shares up to favor the pool.
func (w *MarketWrapper) Repay(position *BorrowPosition, authority PublicKey, atoms uint64) (Event, error) {
	market := w.market.Clone()
	pos := *position

	requestedShares, err := market.Supply.Borrow.AtomsToShares(afixed.UFromU64(atoms), afixed.RoundUp)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	if requestedShares.Greater(pos.BorrowedShares) {
		return Event{}, lendingerr.WithContext(lendingerr.RepayExceedsBorrowed)
	}
	burnedShares, err := market.Supply.Borrow.WithdrawAtoms(afixed.UFromU64(atoms))
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	remaining, err := pos.BorrowedShares.SafeSub(burnedShares)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	pos.BorrowedShares = remaining
	if remaining.IsZero() {
		pos.InitialBorrowedAtoms = 0
	} else if atoms < pos.InitialBorrowedAtoms {
		pos.InitialBorrowedAtoms -= atoms
	} else {
		pos.InitialBorrowedAtoms = 0
	}

	*w.market = market
	*position = pos
	return w.newEvent(EventRepay, authority, atoms, burnedShares), nil
}

// RepayAll burns every borrow share position holds.
func (w *MarketWrapper) RepayAll(position *BorrowPosition, authority PublicKey) (Event, error) {
	market := w.market.Clone()
	shares := position.BorrowedShares

	atoms, err := market.Supply.Borrow.WithdrawShares(shares, afixed.RoundUp)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	atomsU64, err := atoms.ToU64(afixed.RoundUp)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}

	*w.market = market
	position.BorrowedShares = afixed.ZeroU()
	position.InitialBorrowedAtoms = 0
	return w.newEvent(EventRepay, authority, atomsU64, shares), nil
}

// SocializeResult is the outcome of a SocializeLoss call: the debt
// erased and the collateral swept to the curator.
type SocializeResult struct {
	DebtAtoms       uint64
	CollateralAtoms uint64
}

// SocializeLoss erases position's entire debt, writing the loss down
// across every supplier's share price, and sweeps its collateral out to
// the curator to settle off-chain.
func (w *MarketWrapper) SocializeLoss(position *BorrowPosition, authority PublicKey) (SocializeResult, Event, error) {
	h, _, err := w.positionHealth(position)
	if err != nil {
		return SocializeResult{}, Event{}, lendingerr.Track(err)
	}
	if h.LTV.Less(afixed.One()) {
		return SocializeResult{}, Event{}, lendingerr.WithContext(lendingerr.CannotSocializeDebtForHealthyPosition)
	}

	market := w.market.Clone()
	pos := *position

	debtAtoms, err := market.Supply.Borrow.SharesToAtoms(pos.BorrowedShares, afixed.RoundUp)
	if err != nil {
		return SocializeResult{}, Event{}, lendingerr.Track(err)
	}
	if _, err := market.Supply.Borrow.WithdrawShares(pos.BorrowedShares, afixed.RoundDown); err != nil {
		return SocializeResult{}, Event{}, lendingerr.Track(err)
	}
	if err := market.Supply.Supply.SocializeLossAtoms(debtAtoms); err != nil {
		return SocializeResult{}, Event{}, lendingerr.Track(err)
	}

	collateralAtoms := pos.CollateralDepositedAtoms
	market.Collateral.TotalCollateralAtoms -= collateralAtoms

	pos.BorrowedShares = afixed.ZeroU()
	pos.InitialBorrowedAtoms = 0
	pos.CollateralDepositedAtoms = 0

	debtAtomsU64, err := debtAtoms.ToU64(afixed.RoundUp)
	if err != nil {
		return SocializeResult{}, Event{}, lendingerr.Track(err)
	}

	*w.market = market
	*position = pos
	ev := w.newEvent(EventSocializeLoss, authority, collateralAtoms, afixed.ZeroU())
	return SocializeResult{DebtAtoms: debtAtomsU64, CollateralAtoms: collateralAtoms}, ev, nil
}

// DonateSupply donates atoms into the supply tracker, growing every
// outstanding share's claim without minting any new shares.
func (w *MarketWrapper) DonateSupply(authority PublicKey, atoms uint64) (Event, error) {
	market := w.market.Clone()
	if err := market.Supply.Supply.DonateAtoms(afixed.UFromU64(atoms)); err != nil {
		return Event{}, lendingerr.Track(err)
	}
	*w.market = market
	return w.newEvent(EventDonateSupply, authority, atoms, afixed.ZeroU()), nil
}

// RedeemCuratorFees burns the market's pending curator fee shares.
func (w *MarketWrapper) RedeemCuratorFees(authority PublicKey) (Event, error) {
	market := w.market.Clone()
	shares := market.Supply.PendingCuratorFeeShares

	atoms, err := market.Supply.Supply.WithdrawShares(shares, afixed.RoundDown)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	if err := checkReservesOf(&market); err != nil {
		return Event{}, lendingerr.Track(err)
	}
	market.Supply.PendingCuratorFeeShares = afixed.ZeroU()
	atomsU64, err := atoms.ToU64(afixed.RoundDown)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}

	*w.market = market
	return w.newEvent(EventRedeemCuratorFees, authority, atomsU64, shares), nil
}

// RedeemProtocolFees burns the market's pending protocol fee shares.
func (w *MarketWrapper) RedeemProtocolFees(authority PublicKey) (Event, error) {
	market := w.market.Clone()
	shares := market.Supply.PendingProtocolFeeShares

	atoms, err := market.Supply.Supply.WithdrawShares(shares, afixed.RoundDown)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}
	if err := checkReservesOf(&market); err != nil {
		return Event{}, lendingerr.Track(err)
	}
	market.Supply.PendingProtocolFeeShares = afixed.ZeroU()
	atomsU64, err := atoms.ToU64(afixed.RoundDown)
	if err != nil {
		return Event{}, lendingerr.Track(err)
	}

	*w.market = market
	return w.newEvent(EventRedeemProtocolFees, authority, atomsU64, shares), nil
}

// BorrowDeposit borrows borrowAtoms, invokes the optional callback
// (e.g. to swap the borrowed asset into more collateral), then deposits
// depositAtoms of collateral. The borrow leg's own invariants are
// checked before the callback ever runs, so a callback cannot be used
// to bypass MaxLtv on the borrow leg itself; if the callback errors the
// deposit leg is skipped and the borrow leg's effects remain committed.
func (w *MarketWrapper) BorrowDeposit(
	position *BorrowPosition,
	authority PublicKey,
	borrowAtoms, depositAtoms uint64,
	callback func(*MarketWrapper) error,
) ([]Event, error) {
	first, err := w.Borrow(position, authority, borrowAtoms)
	if err != nil {
		return nil, lendingerr.Track(err)
	}
	events := []Event{first}
	if callback != nil {
		if err := callback(w); err != nil {
			return events, &CompositeLegError{Leg: "callback", Err: err}
		}
	}
	second, err := w.DepositCollateral(position, authority, depositAtoms)
	if err != nil {
		return events, &CompositeLegError{Leg: "deposit_collateral", Err: err}
	}
	events = append(events, second)
	events[0].Kind = EventBorrowAndDeposit
	return events, nil
}

// WithdrawRepay withdraws withdrawAtoms of collateral, invokes the
// optional callback (e.g. to swap withdrawn collateral into the repay
// asset), then repays repayAtoms of debt. Same commit semantics as
// BorrowDeposit.
func (w *MarketWrapper) WithdrawRepay(
	position *BorrowPosition,
	authority PublicKey,
	withdrawAtoms, repayAtoms uint64,
	callback func(*MarketWrapper) error,
) ([]Event, error) {
	first, err := w.WithdrawCollateral(position, authority, withdrawAtoms)
	if err != nil {
		return nil, lendingerr.Track(err)
	}
	events := []Event{first}
	if callback != nil {
		if err := callback(w); err != nil {
			return events, &CompositeLegError{Leg: "callback", Err: err}
		}
	}
	second, err := w.Repay(position, authority, repayAtoms)
	if err != nil {
		return events, &CompositeLegError{Leg: "repay", Err: err}
	}
	events = append(events, second)
	events[0].Kind = EventWithdrawAndRepay
	return events, nil
}
