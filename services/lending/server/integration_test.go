package server

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"autara/native/lending"
	"autara/services/lending/engine"
	lendingv1 "autara/services/lending/rpc/lendingv1"
)

const bufSize = 1024 * 1024

func TestIntegration_LendingService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	market := lending.PublicKey{0x10}
	alice := lending.PublicKey{0x11}
	var supplyCalled, borrowCalled bool

	eng := &fakeEngine{
		getMarketFn: func(_ context.Context, marketID lending.PublicKey) (engine.Market, error) {
			if marketID != market {
				t.Fatalf("unexpected market lookup: %v", marketID)
			}
			return engine.Market{ID: marketID, MaxLTV: "0.75", TotalSupplyShares: "1000"}, nil
		},
		listMarketsFn: func(context.Context) ([]engine.Market, error) {
			return []engine.Market{{ID: market, MaxLTV: "0.5"}}, nil
		},
		getPositionFn: func(_ context.Context, marketID, authority lending.PublicKey) (engine.Position, error) {
			if authority != alice {
				t.Fatalf("unexpected authority lookup: %v", authority)
			}
			return engine.Position{
				MarketID:  marketID,
				Authority: authority,
				Supply:    &engine.SupplyPosition{DepositedAtoms: 100, Shares: "100"},
			}, nil
		},
		supplyFn: func(_ context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error) {
			supplyCalled = true
			if authority != alice || atoms != 1000 {
				t.Fatalf("unexpected supply call: %v %d", authority, atoms)
			}
			return engine.Event{Kind: "supply", MarketID: marketID, Authority: authority, Atoms: atoms}, nil
		},
		borrowFn: func(_ context.Context, marketID, authority lending.PublicKey, atoms uint64) (engine.Event, error) {
			borrowCalled = true
			if atoms != 75 {
				t.Fatalf("unexpected borrow amount: %d", atoms)
			}
			return engine.Event{Kind: "borrow", MarketID: marketID, Authority: authority, Atoms: atoms}, nil
		},
	}

	listener := bufconn.Listen(bufSize)
	t.Cleanup(func() { listener.Close() })

	grpcServer := grpc.NewServer(grpc.ForceServerCodec(lendingv1.Codec()))
	lendingv1.RegisterLendingServiceServer(grpcServer, New(eng, nil, nil))
	reflection.Register(grpcServer)

	go func() {
		if err := grpcServer.Serve(listener); err != nil && err != grpc.ErrServerStopped {
			t.Errorf("serve bufconn: %v", err)
		}
	}()
	t.Cleanup(func() { grpcServer.Stop() })

	conn, err := grpc.DialContext(ctx, "bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.Dial()
	}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(lendingv1.Codec())),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	client := lendingv1.NewLendingServiceClient(conn)

	t.Run("GetMarket", func(t *testing.T) {
		resp, err := client.GetMarket(ctx, &lendingv1.GetMarketRequest{MarketID: market.String()})
		if status.Code(err) != codes.OK {
			t.Fatalf("expected OK, got %v", err)
		}
		if resp.Market == nil || resp.Market.MaxLTV != "0.75" {
			t.Fatalf("unexpected market response: %+v", resp.Market)
		}
	})

	t.Run("ListMarkets", func(t *testing.T) {
		resp, err := client.ListMarkets(ctx, &lendingv1.ListMarketsRequest{})
		if status.Code(err) != codes.OK {
			t.Fatalf("expected OK, got %v", err)
		}
		if len(resp.Markets) != 1 || resp.Markets[0].MaxLTV != "0.5" {
			t.Fatalf("unexpected markets: %+v", resp.Markets)
		}
	})

	t.Run("GetPosition", func(t *testing.T) {
		resp, err := client.GetPosition(ctx, &lendingv1.GetPositionRequest{MarketID: market.String(), Authority: alice.String()})
		if status.Code(err) != codes.OK {
			t.Fatalf("expected OK, got %v", err)
		}
		if resp.Position.Supply == nil || resp.Position.Supply.DepositedAtoms != 100 {
			t.Fatalf("unexpected position: %+v", resp.Position)
		}
	})

	t.Run("Supply", func(t *testing.T) {
		_, err := client.Supply(ctx, &lendingv1.SupplyRequest{MarketID: market.String(), Authority: alice.String(), Atoms: 1000})
		if status.Code(err) != codes.OK {
			t.Fatalf("expected OK, got %v", err)
		}
		if !supplyCalled {
			t.Fatalf("expected supply to be invoked")
		}
	})

	t.Run("Borrow", func(t *testing.T) {
		_, err := client.Borrow(ctx, &lendingv1.BorrowRequest{MarketID: market.String(), Authority: alice.String(), Atoms: 75})
		if status.Code(err) != codes.OK {
			t.Fatalf("expected OK, got %v", err)
		}
		if !borrowCalled {
			t.Fatalf("expected borrow to be invoked")
		}
	})
}
