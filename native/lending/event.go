package lending

import (
	"fmt"

	"autara/interestrate"
	afixed "autara/math"
	"autara/oracle"
)

// EventKind tags which mutating operation produced an Event.
type EventKind uint8

const (
	EventSupply EventKind = iota
	EventWithdraw
	EventDepositCollateral
	EventWithdrawCollateral
	EventBorrow
	EventRepay
	EventLiquidate
	EventSocializeLoss
	EventDonateSupply
	EventRedeemProtocolFees
	EventRedeemCuratorFees
	EventBorrowAndDeposit
	EventWithdrawAndRepay
)

var eventKindNames = map[EventKind]string{
	EventSupply:             "Supply",
	EventWithdraw:           "Withdraw",
	EventDepositCollateral:  "DepositCollateral",
	EventWithdrawCollateral: "WithdrawCollateral",
	EventBorrow:             "Borrow",
	EventRepay:              "Repay",
	EventLiquidate:          "Liquidate",
	EventSocializeLoss:      "SocializeLoss",
	EventDonateSupply:       "DonateSupply",
	EventRedeemProtocolFees: "RedeemProtocolFees",
	EventRedeemCuratorFees:  "RedeemCuratorFees",
	EventBorrowAndDeposit:   "BorrowAndDeposit",
	EventWithdrawAndRepay:   "WithdrawAndRepay",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// MarketSummary is a point-in-time snapshot of a market's vaults,
// attached to every Event so a caller reconstructing state from an
// event log never needs to re-read the live Market.
type MarketSummary struct {
	SupplyTotalShares     afixed.UFixed
	SupplyAtomsPerShare   afixed.UFixed
	BorrowTotalShares     afixed.UFixed
	BorrowAtomsPerShare   afixed.UFixed
	TotalCollateralAtoms  uint64
	LastBorrowInterestRate interestrate.RatePerSecond
}

func snapshotMarket(m *Market) MarketSummary {
	return MarketSummary{
		SupplyTotalShares:      m.Supply.Supply.TotalShares,
		SupplyAtomsPerShare:    m.Supply.Supply.AtomsPerShare,
		BorrowTotalShares:      m.Supply.Borrow.TotalShares,
		BorrowAtomsPerShare:    m.Supply.Borrow.AtomsPerShare,
		TotalCollateralAtoms:   m.Collateral.TotalCollateralAtoms,
		LastBorrowInterestRate: m.Supply.LastBorrowInterestRate,
	}
}

// Event is the tagged record every mutating operation produces: the
// principal identifiers, the atoms/shares moved, and a snapshot of the
// market and oracle rates at the moment the operation committed.
type Event struct {
	Kind      EventKind
	Authority PublicKey
	Market    PublicKey

	Atoms  uint64
	Shares afixed.UFixed

	Summary          MarketSummary
	SupplyOracle     oracle.Rate
	CollateralOracle oracle.Rate
	UnixTimestamp    int64
}

func (w *MarketWrapper) newEvent(kind EventKind, authority PublicKey, atoms uint64, shares afixed.UFixed) Event {
	return Event{
		Kind:             kind,
		Authority:        authority,
		Market:           w.marketID,
		Atoms:            atoms,
		Shares:           shares,
		Summary:          snapshotMarket(w.market),
		SupplyOracle:     w.supplyOracle,
		CollateralOracle: w.collateralOracle,
		UnixTimestamp:    w.now,
	}
}

// CompositeLegError wraps the error produced by a callback invoked
// between the two legs of a composite operation, naming which leg
// failed so the caller's logs can tell a callback failure apart from a
// second-leg validation failure.
type CompositeLegError struct {
	Leg string
	Err error
}

func (e *CompositeLegError) Error() string {
	return fmt.Sprintf("composite leg %q failed: %v", e.Leg, e.Err)
}

func (e *CompositeLegError) Unwrap() error { return e.Err }
