package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"autara/native/lending"
	afixed "autara/math"
	lendingv1 "autara/services/lending/rpc/lendingv1"
	"autara/services/lending/engine"
)

// Service implements lendingv1.LendingServiceServer by translating wire
// requests (decimal strings, hex-encoded PublicKeys) into calls against
// an engine.Engine and the resulting views back onto the wire.
type Service struct {
	lendingv1.UnimplementedLendingServiceServer

	engine engine.Engine
	logger *slog.Logger
	auth   Authorizer
}

// Authorizer evaluates whether an incoming request is permitted.
type Authorizer interface {
	Authorize(context.Context) error
}

type interceptorAuthorizer struct{}

// NewInterceptorAuthorizer constructs an Authorizer that trusts the
// authentication context installed by the gRPC interceptors.
func NewInterceptorAuthorizer() Authorizer {
	return interceptorAuthorizer{}
}

func (interceptorAuthorizer) Authorize(ctx context.Context) error {
	if isAuthenticated(ctx) {
		return nil
	}
	return status.Error(codes.Unauthenticated, "authentication required")
}

// New constructs a new lending service instance.
func New(eng engine.Engine, logger *slog.Logger, auth Authorizer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{engine: eng, logger: logger, auth: auth}
}

func (s *Service) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func (s *Service) ensureEngine() error {
	if s == nil || s.engine == nil {
		return status.Error(codes.FailedPrecondition, "lending engine unavailable")
	}
	return nil
}

func (s *Service) authorize(ctx context.Context) error {
	if s == nil {
		return status.Error(codes.Internal, "service not initialised")
	}
	if s.auth == nil {
		return nil
	}
	return s.auth.Authorize(ctx)
}

func (s *Service) translateEngineError(action string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	stErr := toStatus(err)
	if status.Code(stErr) == codes.Internal {
		s.log().Error("lending engine error", "action", action, "error", err)
	}
	return stErr
}

func pk(s string) (lending.PublicKey, error) {
	key, err := lending.ParsePublicKey(s)
	if err != nil {
		return lending.PublicKey{}, status.Error(codes.InvalidArgument, err.Error())
	}
	return key, nil
}

// GetMarket returns the current snapshot for the requested market.
func (s *Service) GetMarket(ctx context.Context, req *lendingv1.GetMarketRequest) (*lendingv1.GetMarketResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	market, err := s.engine.GetMarket(ctx, marketID)
	if err != nil {
		return nil, s.translateEngineError("get_market", err)
	}
	return &lendingv1.GetMarketResponse{Market: toMarketView(market)}, nil
}

// ListMarkets enumerates every registered market.
func (s *Service) ListMarkets(ctx context.Context, _ *lendingv1.ListMarketsRequest) (*lendingv1.ListMarketsResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	markets, err := s.engine.ListMarkets(ctx)
	if err != nil {
		return nil, s.translateEngineError("list_markets", err)
	}
	out := make([]*lendingv1.MarketView, 0, len(markets))
	for _, m := range markets {
		out = append(out, toMarketView(m))
	}
	return &lendingv1.ListMarketsResponse{Markets: out}, nil
}

// GetPosition fetches the recorded supply/borrow position for an authority.
func (s *Service) GetPosition(ctx context.Context, req *lendingv1.GetPositionRequest) (*lendingv1.GetPositionResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	authority, err := pk(req.Authority)
	if err != nil {
		return nil, err
	}
	pos, err := s.engine.GetPosition(ctx, marketID, authority)
	if err != nil {
		return nil, s.translateEngineError("get_position", err)
	}
	return &lendingv1.GetPositionResponse{Position: toPositionView(pos)}, nil
}

// GetHealth reports an authority's current LTV against a market.
func (s *Service) GetHealth(ctx context.Context, req *lendingv1.GetHealthRequest) (*lendingv1.GetHealthResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	authority, err := pk(req.Authority)
	if err != nil {
		return nil, err
	}
	h, err := s.engine.GetHealth(ctx, marketID, authority)
	if err != nil {
		return nil, s.translateEngineError("get_health", err)
	}
	return &lendingv1.GetHealthResponse{Health: toHealthView(h)}, nil
}

// Supply credits atoms of the market's supply asset on behalf of authority.
func (s *Service) Supply(ctx context.Context, req *lendingv1.SupplyRequest) (*lendingv1.SupplyResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	authority, err := pk(req.Authority)
	if err != nil {
		return nil, err
	}
	ev, err := s.engine.Supply(ctx, marketID, authority, req.Atoms)
	if err != nil {
		return nil, s.translateEngineError("supply", err)
	}
	return &lendingv1.SupplyResponse{Event: toEventView(ev)}, nil
}

// Withdraw burns supply shares back into atoms for authority.
func (s *Service) Withdraw(ctx context.Context, req *lendingv1.WithdrawRequest) (*lendingv1.WithdrawResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	authority, err := pk(req.Authority)
	if err != nil {
		return nil, err
	}
	ev, err := s.engine.Withdraw(ctx, marketID, authority, req.Atoms, req.All)
	if err != nil {
		return nil, s.translateEngineError("withdraw", err)
	}
	return &lendingv1.WithdrawResponse{Event: toEventView(ev)}, nil
}

// DepositCollateral credits atoms of the market's collateral asset.
func (s *Service) DepositCollateral(ctx context.Context, req *lendingv1.DepositCollateralRequest) (*lendingv1.DepositCollateralResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	authority, err := pk(req.Authority)
	if err != nil {
		return nil, err
	}
	ev, err := s.engine.DepositCollateral(ctx, marketID, authority, req.Atoms)
	if err != nil {
		return nil, s.translateEngineError("deposit_collateral", err)
	}
	return &lendingv1.DepositCollateralResponse{Event: toEventView(ev)}, nil
}

// WithdrawCollateral debits atoms of collateral, gated on the resulting LTV.
func (s *Service) WithdrawCollateral(ctx context.Context, req *lendingv1.WithdrawCollateralRequest) (*lendingv1.WithdrawCollateralResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	authority, err := pk(req.Authority)
	if err != nil {
		return nil, err
	}
	ev, err := s.engine.WithdrawCollateral(ctx, marketID, authority, req.Atoms)
	if err != nil {
		return nil, s.translateEngineError("withdraw_collateral", err)
	}
	return &lendingv1.WithdrawCollateralResponse{Event: toEventView(ev)}, nil
}

// Borrow credits borrow shares, gated on max LTV and max utilisation.
func (s *Service) Borrow(ctx context.Context, req *lendingv1.BorrowRequest) (*lendingv1.BorrowResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	authority, err := pk(req.Authority)
	if err != nil {
		return nil, err
	}
	ev, err := s.engine.Borrow(ctx, marketID, authority, req.Atoms)
	if err != nil {
		return nil, s.translateEngineError("borrow", err)
	}
	return &lendingv1.BorrowResponse{Event: toEventView(ev)}, nil
}

// Repay burns borrow shares on behalf of authority.
func (s *Service) Repay(ctx context.Context, req *lendingv1.RepayRequest) (*lendingv1.RepayResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	authority, err := pk(req.Authority)
	if err != nil {
		return nil, err
	}
	ev, err := s.engine.Repay(ctx, marketID, authority, req.Atoms, req.All)
	if err != nil {
		return nil, s.translateEngineError("repay", err)
	}
	return &lendingv1.RepayResponse{Event: toEventView(ev)}, nil
}

// Liquidate repays part of an unhealthy position's debt and seizes
// collateral plus a bonus on behalf of the caller.
func (s *Service) Liquidate(ctx context.Context, req *lendingv1.LiquidateRequest) (*lendingv1.LiquidateResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	liquidator, err := pk(req.Authority)
	if err != nil {
		return nil, err
	}
	target, err := pk(req.Target)
	if err != nil {
		return nil, err
	}
	result, ev, err := s.engine.Liquidate(ctx, marketID, liquidator, target, req.MaxRepayAtoms)
	if err != nil {
		return nil, s.translateEngineError("liquidate", err)
	}
	return &lendingv1.LiquidateResponse{Result: toLiquidationResultView(result), Event: toEventView(ev)}, nil
}

// SocializeLoss writes a bad-debt position's remaining debt down across
// the supply side and sweeps its collateral to the curator.
func (s *Service) SocializeLoss(ctx context.Context, req *lendingv1.SocializeLossRequest) (*lendingv1.SocializeLossResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	target, err := pk(req.Target)
	if err != nil {
		return nil, err
	}
	result, ev, err := s.engine.SocializeLoss(ctx, marketID, target)
	if err != nil {
		return nil, s.translateEngineError("socialize_loss", err)
	}
	return &lendingv1.SocializeLossResponse{
		Result: &lendingv1.SocializeResultView{DebtAtoms: result.DebtAtoms, CollateralAtoms: result.CollateralAtoms},
		Event:  toEventView(ev),
	}, nil
}

// UpdateMarketConfig applies a partial update to a market's curator-owned
// risk parameters. Gated on an admin JWT by the auth interceptor chain
// (see auth.go); s.authorize only checks the generic authentication layer.
func (s *Service) UpdateMarketConfig(ctx context.Context, req *lendingv1.UpdateMarketConfigRequest) (*lendingv1.UpdateMarketConfigResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	marketID, err := pk(req.MarketID)
	if err != nil {
		return nil, err
	}
	caller, err := adminFromContext(ctx)
	if err != nil {
		return nil, err
	}
	patch, err := fromMarketConfigPatchView(req.Patch)
	if err != nil {
		return nil, err
	}
	market, err := s.engine.UpdateMarketConfig(ctx, marketID, caller, patch, req.ExpectedChecksum)
	if err != nil {
		return nil, s.translateEngineError("update_market_config", err)
	}
	return &lendingv1.UpdateMarketConfigResponse{Market: toMarketView(market)}, nil
}

// UpdateGlobalConfig applies a partial update to the protocol-wide config.
func (s *Service) UpdateGlobalConfig(ctx context.Context, req *lendingv1.UpdateGlobalConfigRequest) (*lendingv1.UpdateGlobalConfigResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	caller, err := adminFromContext(ctx)
	if err != nil {
		return nil, err
	}
	patch, err := fromGlobalConfigPatchView(req.Patch)
	if err != nil {
		return nil, err
	}
	cfg, err := s.engine.UpdateGlobalConfig(ctx, caller, patch)
	if err != nil {
		return nil, s.translateEngineError("update_global_config", err)
	}
	return &lendingv1.UpdateGlobalConfigResponse{Config: toGlobalConfigView(cfg)}, nil
}

func toMarketView(m engine.Market) *lendingv1.MarketView {
	return &lendingv1.MarketView{
		ID:                      m.ID.String(),
		Curator:                 m.Curator.String(),
		SupplyMint:              m.SupplyMint.String(),
		CollateralMint:          m.CollateralMint.String(),
		SupplyDecimals:          uint32(m.SupplyDecimals),
		CollateralDecimals:      uint32(m.CollateralDecimals),
		MaxLTV:                  m.MaxLTV,
		UnhealthyLTV:            m.UnhealthyLTV,
		LiquidationBonus:        m.LiquidationBonus,
		MaxUtilisationRate:      m.MaxUtilisationRate,
		MaxSupplyAtoms:          m.MaxSupplyAtoms,
		LendingMarketFeeBps:     uint32(m.LendingMarketFeeBps),
		ProtocolFeeShareBps:     uint32(m.ProtocolFeeShareBps),
		TotalSupplyShares:       m.TotalSupplyShares,
		SupplyAtomsPerShare:     m.SupplyAtomsPerShare,
		TotalBorrowShares:       m.TotalBorrowShares,
		BorrowAtomsPerShare:     m.BorrowAtomsPerShare,
		TotalCollateralAtoms:    m.TotalCollateralAtoms,
		LastBorrowRatePerSecond: m.LastBorrowRatePerSecond,
		LastUpdateUnixTimestamp: m.LastUpdateUnixTimestamp,
		Checksum:                m.Checksum,
	}
}

func toPositionView(pos engine.Position) *lendingv1.PositionView {
	view := &lendingv1.PositionView{
		MarketID:  pos.MarketID.String(),
		Authority: pos.Authority.String(),
	}
	if pos.Supply != nil {
		view.Supply = &lendingv1.SupplyPositionView{DepositedAtoms: pos.Supply.DepositedAtoms, Shares: pos.Supply.Shares}
	}
	if pos.Borrow != nil {
		view.Borrow = &lendingv1.BorrowPositionView{
			CollateralDepositedAtoms: pos.Borrow.CollateralDepositedAtoms,
			InitialBorrowedAtoms:     pos.Borrow.InitialBorrowedAtoms,
			BorrowedShares:           pos.Borrow.BorrowedShares,
		}
	}
	return view
}

func toHealthView(h engine.Health) *lendingv1.HealthView {
	return &lendingv1.HealthView{LTV: h.LTV, BorrowValue: h.BorrowValue, CollateralValue: h.CollateralValue}
}

func toEventView(ev engine.Event) *lendingv1.EventView {
	return &lendingv1.EventView{
		Kind:                  ev.Kind,
		MarketID:              ev.MarketID.String(),
		Authority:             ev.Authority.String(),
		Atoms:                 ev.Atoms,
		Shares:                ev.Shares,
		SupplyOraclePrice:     ev.SupplyOraclePrice,
		CollateralOraclePrice: ev.CollateralOraclePrice,
		UnixTimestamp:         ev.UnixTimestamp,
	}
}

func toLiquidationResultView(r engine.LiquidationResult) *lendingv1.LiquidationResultView {
	return &lendingv1.LiquidationResultView{
		RepayAtoms:   r.RepayAtoms,
		SeizeAtoms:   r.SeizeAtoms,
		BonusAtoms:   r.BonusAtoms,
		HealthBefore: toHealthView(r.HealthBefore),
		HealthAfter:  toHealthView(r.HealthAfter),
	}
}

func toGlobalConfigView(g engine.GlobalConfig) *lendingv1.GlobalConfigView {
	view := &lendingv1.GlobalConfigView{
		Admin:               g.Admin.String(),
		FeeReceiver:         g.FeeReceiver.String(),
		ProtocolFeeShareBps: uint32(g.ProtocolFeeShareBps),
	}
	if g.NominatedAdmin != nil {
		view.NominatedAdmin = g.NominatedAdmin.String()
	}
	return view
}

func fromMarketConfigPatchView(v *lendingv1.MarketConfigPatchView) (lending.MarketConfigPatch, error) {
	var patch lending.MarketConfigPatch
	if v == nil {
		return patch, nil
	}
	var err error
	if patch.MaxLTV, err = parseIFixedField(v.MaxLTV); err != nil {
		return patch, err
	}
	if patch.UnhealthyLTV, err = parseIFixedField(v.UnhealthyLTV); err != nil {
		return patch, err
	}
	if patch.LiquidationBonus, err = parseIFixedField(v.LiquidationBonus); err != nil {
		return patch, err
	}
	if patch.MaxUtilisationRate, err = parseIFixedField(v.MaxUtilisationRate); err != nil {
		return patch, err
	}
	patch.MaxSupplyAtoms = v.MaxSupplyAtoms
	if v.LendingMarketFeeBps != nil {
		bps := uint16(*v.LendingMarketFeeBps)
		patch.LendingMarketFeeBps = &bps
	}
	return patch, nil
}

func parseIFixedField(s *string) (*afixed.IFixed, error) {
	if s == nil {
		return nil, nil
	}
	v, err := afixed.Parse(*s)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid decimal literal %q: %v", *s, err)
	}
	return &v, nil
}

func fromGlobalConfigPatchView(v *lendingv1.GlobalConfigPatchView) (lending.GlobalConfigPatch, error) {
	var patch lending.GlobalConfigPatch
	if v == nil {
		return patch, nil
	}
	if v.FeeReceiver != nil {
		receiver, err := pk(*v.FeeReceiver)
		if err != nil {
			return patch, err
		}
		patch.FeeReceiver = &receiver
	}
	if v.ProtocolFeeShareBps != nil {
		bps := uint16(*v.ProtocolFeeShareBps)
		patch.ProtocolFeeShareBps = &bps
	}
	return patch, nil
}
