// Package engine defines the lending gRPC surface's domain contract and
// its in-process implementation: the view types every RPC handler
// marshals, and the Engine interface that server.Service calls into.
package engine

import (
	"context"

	"autara/native/lending"
)

// Engine describes every operation the lending gRPC surface exposes:
// the read-only market/position/health queries, the eight mutating
// position operations, liquidation, loss socialization, and the two
// admin config-update operations gated separately by JWT (see
// server/auth.go).
type Engine interface {
	GetMarket(ctx context.Context, marketID lending.PublicKey) (Market, error)
	ListMarkets(ctx context.Context) ([]Market, error)
	GetPosition(ctx context.Context, marketID, authority lending.PublicKey) (Position, error)
	GetHealth(ctx context.Context, marketID, authority lending.PublicKey) (Health, error)

	Supply(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (Event, error)
	Withdraw(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64, all bool) (Event, error)
	DepositCollateral(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (Event, error)
	WithdrawCollateral(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (Event, error)
	Borrow(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (Event, error)
	Repay(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64, all bool) (Event, error)
	Liquidate(ctx context.Context, marketID, liquidator, borrower lending.PublicKey, maxRepayAtoms uint64) (LiquidationResult, Event, error)
	SocializeLoss(ctx context.Context, marketID, borrower lending.PublicKey) (SocializeResult, Event, error)

	// UpdateMarketConfig applies patch to marketID. When expectedChecksum
	// is non-empty, the update is rejected with ErrStaleMarket unless it
	// matches the market's current Market.Checksum, giving callers that
	// polled GetMarket an optimistic-concurrency guard against applying
	// a patch computed against a copy another caller has since mutated.
	UpdateMarketConfig(ctx context.Context, marketID, caller lending.PublicKey, patch lending.MarketConfigPatch, expectedChecksum string) (Market, error)
	UpdateGlobalConfig(ctx context.Context, caller lending.PublicKey, patch lending.GlobalConfigPatch) (GlobalConfig, error)
}

// Market is a market's policy plus its live vault accounting.
type Market struct {
	ID                      lending.PublicKey
	Curator                 lending.PublicKey
	SupplyMint              lending.PublicKey
	CollateralMint          lending.PublicKey
	SupplyDecimals          uint8
	CollateralDecimals      uint8
	MaxLTV                  string
	UnhealthyLTV            string
	LiquidationBonus        string
	MaxUtilisationRate      string
	MaxSupplyAtoms          uint64
	LendingMarketFeeBps     uint16
	ProtocolFeeShareBps     uint16
	TotalSupplyShares       string
	SupplyAtomsPerShare     string
	TotalBorrowShares       string
	BorrowAtomsPerShare     string
	TotalCollateralAtoms    uint64
	LastBorrowRatePerSecond string
	LastUpdateUnixTimestamp int64
	Checksum                string
}

// SupplyPosition is one authority's claim on a market's supply vault.
type SupplyPosition struct {
	DepositedAtoms uint64
	Shares         string
}

// BorrowPosition is one authority's debt and collateral on a market.
type BorrowPosition struct {
	CollateralDepositedAtoms uint64
	InitialBorrowedAtoms     uint64
	BorrowedShares           string
}

// Position combines both sides of an authority's exposure to a market.
type Position struct {
	MarketID  lending.PublicKey
	Authority lending.PublicKey
	Supply    *SupplyPosition
	Borrow    *BorrowPosition
}

// Health is a position's LTV snapshot.
type Health struct {
	LTV             string
	BorrowValue     string
	CollateralValue string
}

// Event is the view of native/lending.Event returned to RPC callers.
type Event struct {
	Kind                  string
	MarketID              lending.PublicKey
	Authority             lending.PublicKey
	Atoms                 uint64
	Shares                string
	SupplyOraclePrice     string
	CollateralOraclePrice string
	UnixTimestamp         int64
}

// LiquidationResult is the view of native/lending.LiquidationResult.
type LiquidationResult struct {
	RepayAtoms   uint64
	SeizeAtoms   uint64
	BonusAtoms   uint64
	HealthBefore Health
	HealthAfter  Health
}

// SocializeResult is the view of native/lending.SocializeResult.
type SocializeResult struct {
	DebtAtoms       uint64
	CollateralAtoms uint64
}

// GlobalConfig is the view of native/lending.GlobalConfig.
type GlobalConfig struct {
	Admin               lending.PublicKey
	NominatedAdmin      *lending.PublicKey
	FeeReceiver         lending.PublicKey
	ProtocolFeeShareBps uint16
}
