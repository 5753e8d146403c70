package server

import (
	"context"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"autara/native/lending"
	"autara/services/lending/engine"
	lendingv1 "autara/services/lending/rpc/lendingv1"
)

var sentinelErrorCases = []struct {
	name string
	err  error
	code codes.Code
	msg  string
}{
	{name: "not found", err: engine.ErrNotFound, code: codes.NotFound, msg: "resource not found"},
	{name: "paused", err: engine.ErrPaused, code: codes.Unavailable, msg: "operation paused"},
	{name: "unauthorized", err: engine.ErrUnauthorized, code: codes.PermissionDenied, msg: "unauthorized"},
	{name: "invalid amount", err: engine.ErrInvalidAmount, code: codes.InvalidArgument, msg: "invalid amount"},
	{name: "insufficient collateral", err: engine.ErrInsufficientCollateral, code: codes.ResourceExhausted, msg: "insufficient collateral"},
	{name: "internal", err: engine.ErrInternal, code: codes.Internal, msg: "internal error"},
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("wrap: %w", err)
}

var testMarketID = lending.PublicKey{0x01}
var testAuthority = lending.PublicKey{0x02}

func TestService_Supply(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	req := &lendingv1.SupplyRequest{MarketID: testMarketID.String(), Authority: testAuthority.String(), Atoms: 1000}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		auth := &fakeAuthorizer{}
		eng := &fakeEngine{
			supplyFn: func(_ context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error) {
				if marketID != testMarketID || authority != testAuthority || atoms != 1000 {
					t.Fatalf("unexpected call: %v %v %d", marketID, authority, atoms)
				}
				return engine.Event{Kind: "supply"}, nil
			},
		}
		svc := New(eng, nil, auth)

		resp, err := svc.Supply(ctx, req)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if resp.Event.Kind != "supply" {
			t.Fatalf("unexpected event: %+v", resp.Event)
		}
		if !auth.called {
			t.Fatalf("expected authorizer to be called")
		}
	})

	for _, tc := range sentinelErrorCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			eng := &fakeEngine{
				supplyFn: func(context.Context, lending.PublicKey, lending.PublicKey, uint64) (engine.Event, error) {
					return engine.Event{}, wrapError(tc.err)
				},
			}
			svc := New(eng, nil, &fakeAuthorizer{})

			_, err := svc.Supply(ctx, req)
			st := status.Convert(err)
			if st.Code() != tc.code || st.Message() != tc.msg {
				t.Fatalf("expected %s/%q, got %s/%q", tc.code, tc.msg, st.Code(), st.Message())
			}
		})
	}

	t.Run("authorization error", func(t *testing.T) {
		t.Parallel()
		auth := &fakeAuthorizer{err: status.Error(codes.PermissionDenied, "nope")}
		svc := New(&fakeEngine{}, nil, auth)
		_, err := svc.Supply(ctx, req)
		if status.Code(err) != codes.PermissionDenied {
			t.Fatalf("expected permission denied, got %v", err)
		}
	})
}

func TestService_Borrow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	req := &lendingv1.BorrowRequest{MarketID: testMarketID.String(), Authority: testAuthority.String(), Atoms: 42}

	eng := &fakeEngine{
		borrowFn: func(_ context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error) {
			if atoms != 42 {
				t.Fatalf("unexpected atoms: %d", atoms)
			}
			return engine.Event{Kind: "borrow"}, nil
		},
	}
	svc := New(eng, nil, &fakeAuthorizer{})
	resp, err := svc.Borrow(ctx, req)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.Event.Kind != "borrow" {
		t.Fatalf("unexpected event: %+v", resp.Event)
	}
}

func TestService_Liquidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	target := lending.PublicKey{0x03}
	req := &lendingv1.LiquidateRequest{
		MarketID:      testMarketID.String(),
		Authority:     testAuthority.String(),
		Target:        target.String(),
		MaxRepayAtoms: 500,
	}

	eng := &fakeEngine{
		liquidateFn: func(_ context.Context, marketID, liquidator, borrower lending.PublicKey, maxRepayAtoms uint64) (engine.LiquidationResult, engine.Event, error) {
			if liquidator != testAuthority || borrower != target || maxRepayAtoms != 500 {
				t.Fatalf("unexpected call: %v %v %d", liquidator, borrower, maxRepayAtoms)
			}
			return engine.LiquidationResult{RepayAtoms: 500, SeizeAtoms: 520}, engine.Event{Kind: "liquidate"}, nil
		},
	}
	svc := New(eng, nil, &fakeAuthorizer{})
	resp, err := svc.Liquidate(ctx, req)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.Result.RepayAtoms != 500 || resp.Result.SeizeAtoms != 520 {
		t.Fatalf("unexpected result: %+v", resp.Result)
	}
}

func TestService_GetMarket(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		var captured lending.PublicKey
		eng := &fakeEngine{
			getMarketFn: func(_ context.Context, marketID lending.PublicKey) (engine.Market, error) {
				captured = marketID
				return engine.Market{ID: marketID, MaxLTV: "0.8", MaxSupplyAtoms: 100}, nil
			},
		}
		svc := New(eng, nil, nil)

		resp, err := svc.GetMarket(ctx, &lendingv1.GetMarketRequest{MarketID: testMarketID.String()})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if captured != testMarketID {
			t.Fatalf("unexpected marketID: %v", captured)
		}
		if resp.Market.MaxLTV != "0.8" || resp.Market.MaxSupplyAtoms != 100 {
			t.Fatalf("unexpected market view: %+v", resp.Market)
		}
	})

	t.Run("bad market id", func(t *testing.T) {
		t.Parallel()
		svc := New(&fakeEngine{}, nil, nil)
		_, err := svc.GetMarket(ctx, &lendingv1.GetMarketRequest{MarketID: "not-hex"})
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("expected invalid argument, got %v", err)
		}
	})

	for _, tc := range sentinelErrorCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := New(&fakeEngine{getMarketFn: func(context.Context, lending.PublicKey) (engine.Market, error) {
				return engine.Market{}, wrapError(tc.err)
			}}, nil, nil)

			_, err := svc.GetMarket(ctx, &lendingv1.GetMarketRequest{MarketID: testMarketID.String()})
			st := status.Convert(err)
			if st.Code() != tc.code || st.Message() != tc.msg {
				t.Fatalf("expected %s/%q, got %s/%q", tc.code, tc.msg, st.Code(), st.Message())
			}
		})
	}
}

func TestService_ListMarkets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := New(&fakeEngine{listMarketsFn: func(context.Context) ([]engine.Market, error) {
		return []engine.Market{{ID: testMarketID, MaxLTV: "0.75"}}, nil
	}}, nil, nil)

	resp, err := svc.ListMarkets(ctx, &lendingv1.ListMarketsRequest{})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(resp.Markets) != 1 || resp.Markets[0].MaxLTV != "0.75" {
		t.Fatalf("unexpected markets: %+v", resp.Markets)
	}
}

func TestService_GetPosition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("bad authority", func(t *testing.T) {
		t.Parallel()
		svc := New(&fakeEngine{}, nil, nil)
		_, err := svc.GetPosition(ctx, &lendingv1.GetPositionRequest{MarketID: testMarketID.String(), Authority: "nope"})
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("expected invalid argument, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		svc := New(&fakeEngine{getPositionFn: func(_ context.Context, marketID, authority lending.PublicKey) (engine.Position, error) {
			return engine.Position{
				MarketID:  marketID,
				Authority: authority,
				Supply:    &engine.SupplyPosition{DepositedAtoms: 10, Shares: "10"},
			}, nil
		}}, nil, nil)

		resp, err := svc.GetPosition(ctx, &lendingv1.GetPositionRequest{MarketID: testMarketID.String(), Authority: testAuthority.String()})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if resp.Position.Supply == nil || resp.Position.Supply.DepositedAtoms != 10 {
			t.Fatalf("unexpected position: %+v", resp.Position)
		}
		if resp.Position.Borrow != nil {
			t.Fatalf("expected nil borrow side, got %+v", resp.Position.Borrow)
		}
	})
}

func TestService_UpdateMarketConfig(t *testing.T) {
	t.Parallel()
	ctx := withAdmin(context.Background(), lending.PublicKey{0xAA})
	maxLTV := "0.7"

	var capturedPatch lending.MarketConfigPatch
	eng := &fakeEngine{
		updateMarketConfigFn: func(_ context.Context, marketID, caller lending.PublicKey, patch lending.MarketConfigPatch, _ string) (engine.Market, error) {
			capturedPatch = patch
			return engine.Market{ID: marketID, MaxLTV: maxLTV}, nil
		},
	}
	svc := New(eng, nil, &fakeAuthorizer{})

	resp, err := svc.UpdateMarketConfig(ctx, &lendingv1.UpdateMarketConfigRequest{
		MarketID: testMarketID.String(),
		Patch:    &lendingv1.MarketConfigPatchView{MaxLTV: &maxLTV},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.Market.MaxLTV != maxLTV {
		t.Fatalf("unexpected market: %+v", resp.Market)
	}
	if capturedPatch.MaxLTV == nil {
		t.Fatalf("expected MaxLTV patch to be set")
	}
}

func TestService_EnsureEngine(t *testing.T) {
	t.Parallel()

	if err := (&Service{}).ensureEngine(); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected failed precondition, got %v", err)
	}
	if err := (&Service{engine: &fakeEngine{}}).ensureEngine(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
