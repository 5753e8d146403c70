package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"autara/native/lending"
	lendingv1 "autara/services/lending/rpc/lendingv1"
)

func startAuthTestServer(t *testing.T, adminSecret []byte) (lendingv1.LendingServiceClient, func()) {
	t.Helper()

	unaryAuth, streamAuth := NewAuthInterceptors(AuthConfig{
		APITokens:      []string{"secret-token"},
		AdminJWTSecret: adminSecret,
	})

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unaryAuth),
		grpc.ChainStreamInterceptor(streamAuth),
	)
	service := New(&fakeEngine{}, nil, nil)
	lendingv1.RegisterLendingServiceServer(grpcServer, service)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = grpcServer.Serve(lis) }()

	conn, err := grpc.DialContext(context.Background(), lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(lendingv1.Codec())),
		grpc.WithBlock(),
		grpc.WithTimeout(5*time.Second),
	)
	if err != nil {
		lis.Close()
		t.Fatalf("dial: %v", err)
	}

	cleanup := func() {
		conn.Close()
		grpcServer.Stop()
		lis.Close()
	}
	return lendingv1.NewLendingServiceClient(conn), cleanup
}

func TestMutatingRPCAuthentication(t *testing.T) {
	client, cleanup := startAuthTestServer(t, nil)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Unauthenticated mutating RPCs are rejected.
	_, err := client.Supply(ctx, &lendingv1.SupplyRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated error, got %v", err)
	}

	// Query-style RPCs remain accessible without a token.
	_, err = client.GetMarket(ctx, &lendingv1.GetMarketRequest{MarketID: zeroHexKey})
	if status.Code(err) != codes.OK {
		t.Fatalf("expected query RPC to succeed, got %v", err)
	}

	// Authenticated requests pass through to the handler.
	authCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer secret-token")
	_, err = client.Supply(authCtx, &lendingv1.SupplyRequest{MarketID: zeroHexKey, Authority: zeroHexKey, Atoms: 1})
	if status.Code(err) != codes.OK {
		t.Fatalf("expected authenticated mutating RPC to reach handler, got %v", err)
	}
}

func TestAdminRPCRequiresJWT(t *testing.T) {
	secret := []byte("test-admin-secret")
	client, cleanup := startAuthTestServer(t, secret)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer secret-token")

	// No admin token: rejected even though the general token is valid.
	_, err := client.UpdateMarketConfig(ctx, &lendingv1.UpdateMarketConfigRequest{MarketID: zeroHexKey})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated error without admin token, got %v", err)
	}

	admin := lending.PublicKey{0xAB}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: admin.String()})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign admin token: %v", err)
	}
	adminCtx := metadata.AppendToOutgoingContext(ctx, "x-admin-authorization", "Bearer "+signed)

	_, err = client.UpdateMarketConfig(adminCtx, &lendingv1.UpdateMarketConfigRequest{MarketID: zeroHexKey})
	if status.Code(err) != codes.OK {
		t.Fatalf("expected admin-authenticated request to reach handler, got %v", err)
	}
}

var zeroHexKey = lending.PublicKey{}.String()
