// Package lendingv1 is the engine's wire contract: service definition,
// request/response messages, and client/server stubs in the shape
// protoc-gen-go-grpc would emit from a .proto source. No .proto exists
// in this tree, so the messages are plain Go structs carried over the
// codec in codec.go instead of generated protobuf types; see the
// package-level grounding note in codec.go for why.
package lendingv1

// MarketView is a market's full policy and accounting state, with every
// fixed-point and large-integer field carried as a decimal string so
// the wire codec never has to reason about precision loss.
type MarketView struct {
	ID                     string
	Curator                string
	SupplyMint             string
	CollateralMint         string
	SupplyDecimals         uint32
	CollateralDecimals     uint32
	MaxLTV                 string
	UnhealthyLTV           string
	LiquidationBonus       string
	MaxUtilisationRate     string
	MaxSupplyAtoms         uint64
	LendingMarketFeeBps    uint32
	ProtocolFeeShareBps    uint32
	TotalSupplyShares      string
	SupplyAtomsPerShare    string
	TotalBorrowShares      string
	BorrowAtomsPerShare    string
	TotalCollateralAtoms   uint64
	LastBorrowRatePerSecond string
	LastUpdateUnixTimestamp int64
	Checksum                string
}

// SupplyPositionView is one authority's claim on a market's supply vault.
type SupplyPositionView struct {
	DepositedAtoms uint64
	Shares         string
}

// BorrowPositionView is one authority's debt and collateral on a market.
type BorrowPositionView struct {
	CollateralDepositedAtoms uint64
	InitialBorrowedAtoms     uint64
	BorrowedShares           string
}

// PositionView combines both sides of an authority's exposure to a
// market; either half is nil if the authority holds no such position.
type PositionView struct {
	MarketID  string
	Authority string
	Supply    *SupplyPositionView
	Borrow    *BorrowPositionView
}

// HealthView is a position's LTV snapshot.
type HealthView struct {
	LTV             string
	BorrowValue     string
	CollateralValue string
}

// EventView is the wire form of native/lending.Event.
type EventView struct {
	Kind                  string
	MarketID              string
	Authority             string
	Atoms                 uint64
	Shares                string
	SupplyOraclePrice     string
	CollateralOraclePrice string
	UnixTimestamp         int64
}

// LiquidationResultView is the wire form of native/lending.LiquidationResult.
type LiquidationResultView struct {
	RepayAtoms   uint64
	SeizeAtoms   uint64
	BonusAtoms   uint64
	HealthBefore *HealthView
	HealthAfter  *HealthView
}

// SocializeResultView is the wire form of native/lending.SocializeResult.
type SocializeResultView struct {
	DebtAtoms       uint64
	CollateralAtoms uint64
}

// MarketConfigPatchView mirrors native/lending.MarketConfigPatch: every
// field is optional, identified by a non-nil pointer.
type MarketConfigPatchView struct {
	MaxLTV              *string
	UnhealthyLTV        *string
	LiquidationBonus    *string
	MaxUtilisationRate  *string
	MaxSupplyAtoms      *uint64
	LendingMarketFeeBps *uint32
}

// GlobalConfigView is the wire form of native/lending.GlobalConfig.
type GlobalConfigView struct {
	Admin               string
	NominatedAdmin      string
	FeeReceiver         string
	ProtocolFeeShareBps uint32
}

// GlobalConfigPatchView mirrors native/lending.GlobalConfigPatch.
type GlobalConfigPatchView struct {
	FeeReceiver         *string
	ProtocolFeeShareBps *uint32
}

type GetMarketRequest struct{ MarketID string }
type GetMarketResponse struct{ Market *MarketView }

type ListMarketsRequest struct{}
type ListMarketsResponse struct{ Markets []*MarketView }

type GetPositionRequest struct {
	MarketID  string
	Authority string
}
type GetPositionResponse struct{ Position *PositionView }

type GetHealthRequest struct {
	MarketID  string
	Authority string
}
type GetHealthResponse struct{ Health *HealthView }

type SupplyRequest struct {
	MarketID  string
	Authority string
	Atoms     uint64
}
type SupplyResponse struct{ Event *EventView }

type WithdrawRequest struct {
	MarketID  string
	Authority string
	Atoms     uint64
	All       bool
}
type WithdrawResponse struct{ Event *EventView }

type DepositCollateralRequest struct {
	MarketID  string
	Authority string
	Atoms     uint64
}
type DepositCollateralResponse struct{ Event *EventView }

type WithdrawCollateralRequest struct {
	MarketID  string
	Authority string
	Atoms     uint64
}
type WithdrawCollateralResponse struct{ Event *EventView }

type BorrowRequest struct {
	MarketID  string
	Authority string
	Atoms     uint64
}
type BorrowResponse struct{ Event *EventView }

type RepayRequest struct {
	MarketID  string
	Authority string
	Atoms     uint64
	All       bool
}
type RepayResponse struct{ Event *EventView }

// LiquidateRequest's Authority is the liquidator; Target is the
// borrower whose position is being liquidated.
type LiquidateRequest struct {
	MarketID      string
	Authority     string
	Target        string
	MaxRepayAtoms uint64
}
type LiquidateResponse struct {
	Result *LiquidationResultView
	Event  *EventView
}

type SocializeLossRequest struct {
	MarketID string
	Target   string
}
type SocializeLossResponse struct {
	Result *SocializeResultView
	Event  *EventView
}

// UpdateMarketConfigRequest's ExpectedChecksum is optional; when set, the
// update is rejected unless it matches the market's current MarketView.Checksum.
type UpdateMarketConfigRequest struct {
	MarketID         string
	Patch            *MarketConfigPatchView
	ExpectedChecksum string
}
type UpdateMarketConfigResponse struct{ Market *MarketView }

type UpdateGlobalConfigRequest struct {
	Patch *GlobalConfigPatchView
}
type UpdateGlobalConfigResponse struct{ Config *GlobalConfigView }
