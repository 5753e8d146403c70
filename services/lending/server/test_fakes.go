package server

import (
	"context"

	"autara/native/lending"
	"autara/services/lending/engine"
)

type fakeEngine struct {
	getMarketFn           func(ctx context.Context, marketID lending.PublicKey) (engine.Market, error)
	listMarketsFn         func(ctx context.Context) ([]engine.Market, error)
	getPositionFn         func(ctx context.Context, marketID, authority lending.PublicKey) (engine.Position, error)
	getHealthFn           func(ctx context.Context, marketID, authority lending.PublicKey) (engine.Health, error)
	supplyFn              func(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error)
	withdrawFn            func(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64, all bool) (engine.Event, error)
	depositCollateralFn   func(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error)
	withdrawCollateralFn  func(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error)
	borrowFn              func(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error)
	repayFn               func(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64, all bool) (engine.Event, error)
	liquidateFn           func(ctx context.Context, marketID, liquidator, borrower lending.PublicKey, maxRepayAtoms uint64) (engine.LiquidationResult, engine.Event, error)
	socializeLossFn       func(ctx context.Context, marketID, borrower lending.PublicKey) (engine.SocializeResult, engine.Event, error)
	updateMarketConfigFn  func(ctx context.Context, marketID, caller lending.PublicKey, patch lending.MarketConfigPatch, expectedChecksum string) (engine.Market, error)
	updateGlobalConfigFn  func(ctx context.Context, caller lending.PublicKey, patch lending.GlobalConfigPatch) (engine.GlobalConfig, error)
}

func (f *fakeEngine) GetMarket(ctx context.Context, marketID lending.PublicKey) (engine.Market, error) {
	if f != nil && f.getMarketFn != nil {
		return f.getMarketFn(ctx, marketID)
	}
	return engine.Market{}, nil
}

func (f *fakeEngine) ListMarkets(ctx context.Context) ([]engine.Market, error) {
	if f != nil && f.listMarketsFn != nil {
		return f.listMarketsFn(ctx)
	}
	return nil, nil
}

func (f *fakeEngine) GetPosition(ctx context.Context, marketID, authority lending.PublicKey) (engine.Position, error) {
	if f != nil && f.getPositionFn != nil {
		return f.getPositionFn(ctx, marketID, authority)
	}
	return engine.Position{}, nil
}

func (f *fakeEngine) GetHealth(ctx context.Context, marketID, authority lending.PublicKey) (engine.Health, error) {
	if f != nil && f.getHealthFn != nil {
		return f.getHealthFn(ctx, marketID, authority)
	}
	return engine.Health{}, nil
}

func (f *fakeEngine) Supply(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error) {
	if f != nil && f.supplyFn != nil {
		return f.supplyFn(ctx, marketID, authority, atoms)
	}
	return engine.Event{}, nil
}

func (f *fakeEngine) Withdraw(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64, all bool) (engine.Event, error) {
	if f != nil && f.withdrawFn != nil {
		return f.withdrawFn(ctx, marketID, authority, atoms, all)
	}
	return engine.Event{}, nil
}

func (f *fakeEngine) DepositCollateral(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error) {
	if f != nil && f.depositCollateralFn != nil {
		return f.depositCollateralFn(ctx, marketID, authority, atoms)
	}
	return engine.Event{}, nil
}

func (f *fakeEngine) WithdrawCollateral(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error) {
	if f != nil && f.withdrawCollateralFn != nil {
		return f.withdrawCollateralFn(ctx, marketID, authority, atoms)
	}
	return engine.Event{}, nil
}

func (f *fakeEngine) Borrow(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error) {
	if f != nil && f.borrowFn != nil {
		return f.borrowFn(ctx, marketID, authority, atoms)
	}
	return engine.Event{}, nil
}

func (f *fakeEngine) Repay(ctx context.Context, marketID, authority lending.PublicKey, atoms uint64, all bool) (engine.Event, error) {
	if f != nil && f.repayFn != nil {
		return f.repayFn(ctx, marketID, authority, atoms, all)
	}
	return engine.Event{}, nil
}

func (f *fakeEngine) Liquidate(ctx context.Context, marketID, liquidator, borrower lending.PublicKey, maxRepayAtoms uint64) (engine.LiquidationResult, engine.Event, error) {
	if f != nil && f.liquidateFn != nil {
		return f.liquidateFn(ctx, marketID, liquidator, borrower, maxRepayAtoms)
	}
	return engine.LiquidationResult{}, engine.Event{}, nil
}

func (f *fakeEngine) SocializeLoss(ctx context.Context, marketID, borrower lending.PublicKey) (engine.SocializeResult, engine.Event, error) {
	if f != nil && f.socializeLossFn != nil {
		return f.socializeLossFn(ctx, marketID, borrower)
	}
	return engine.SocializeResult{}, engine.Event{}, nil
}

func (f *fakeEngine) UpdateMarketConfig(ctx context.Context, marketID, caller lending.PublicKey, patch lending.MarketConfigPatch, expectedChecksum string) (engine.Market, error) {
	if f != nil && f.updateMarketConfigFn != nil {
		return f.updateMarketConfigFn(ctx, marketID, caller, patch, expectedChecksum)
	}
	return engine.Market{}, nil
}

func (f *fakeEngine) UpdateGlobalConfig(ctx context.Context, caller lending.PublicKey, patch lending.GlobalConfigPatch) (engine.GlobalConfig, error) {
	if f != nil && f.updateGlobalConfigFn != nil {
		return f.updateGlobalConfigFn(ctx, caller, patch)
	}
	return engine.GlobalConfig{}, nil
}

type fakeAuthorizer struct {
	called bool
	err    error
}

func (f *fakeAuthorizer) Authorize(ctx context.Context) error {
	f.called = true
	if f.err != nil {
		return f.err
	}
	return nil
}
