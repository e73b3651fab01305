package handler

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/storefront/internal/adapter/auth"
	"github.com/rl1809/storefront/internal/core/domain"
)

func newGRPCConn(t *testing.T, app *testApp) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv := grpc.NewServer(grpc.UnaryInterceptor(AuthInterceptor(app.verifier)))
	RegisterGRPC(srv, NewGRPCHandler(app.catalog, app.carts, app.checkout, app.history))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func call(ctx context.Context, conn *grpc.ClientConn, method string, req, resp any) error {
	return conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp)
}

func withToken(t *testing.T, app *testApp, id domain.Identity) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+app.token(t, id))
}

func TestGRPC_Checkout(t *testing.T) {
	app := newTestApp(t)
	conn := newGRPCConn(t, app)
	ctx := withToken(t, app, alice)

	var products ListProductsResponse
	require.NoError(t, call(context.Background(), conn, "ListProducts", &ListProductsRequest{Query: "headphones"}, &products))
	require.Len(t, products.Products, 1)

	var line CartLineResponse
	for i := 0; i < 2; i++ {
		require.NoError(t, call(ctx, conn, "AddToCart", &AddToCartRequest{ProductID: app.headphones.ID, Quantity: 1}, &line))
	}
	assert.Equal(t, 2, line.Quantity)

	var cart CartResponse
	require.NoError(t, call(ctx, conn, "GetCart", &Empty{}, &cart))
	assert.Equal(t, "399.98", cart.Total)

	var order OrderResponse
	require.NoError(t, call(ctx, conn, "PlaceOrder", &PlaceOrderRequest{Name: "Alice", Email: "alice@example.com", Address: "1 Main St"}, &order))
	assert.Equal(t, "399.98", order.Total)

	var orders ListOrdersResponse
	require.NoError(t, call(ctx, conn, "ListOrders", &Empty{}, &orders))
	require.Len(t, orders.Orders, 1)

	var got OrderResponse
	require.NoError(t, call(ctx, conn, "GetOrder", &GetOrderRequest{OrderID: order.ID}, &got))
	assert.Equal(t, order.ID, got.ID)
}

func TestGRPC_CartEdits(t *testing.T) {
	app := newTestApp(t)
	conn := newGRPCConn(t, app)
	ctx := withToken(t, app, alice)

	var line CartLineResponse
	require.NoError(t, call(ctx, conn, "AddToCart", &AddToCartRequest{ProductID: app.headphones.ID, Quantity: 1}, &line))
	require.NoError(t, call(ctx, conn, "SetQuantity", &SetQuantityRequest{LineID: line.ID, Quantity: 4}, &Empty{}))

	var cart CartResponse
	require.NoError(t, call(ctx, conn, "GetCart", &Empty{}, &cart))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 4, cart.Lines[0].Quantity)

	require.NoError(t, call(ctx, conn, "RemoveLine", &RemoveLineRequest{LineID: line.ID}, &Empty{}))
	require.NoError(t, call(ctx, conn, "RemoveLine", &RemoveLineRequest{LineID: line.ID}, &Empty{}))
	require.NoError(t, call(ctx, conn, "GetCart", &Empty{}, &cart))
	assert.Empty(t, cart.Lines)
}

func TestGRPC_Errors(t *testing.T) {
	app := newTestApp(t)
	conn := newGRPCConn(t, app)
	ctx := withToken(t, app, alice)

	tests := []struct {
		name   string
		ctx    context.Context
		method string
		req    any
		code   codes.Code
	}{
		{"anonymous cart", context.Background(), "GetCart", &Empty{}, codes.Unauthenticated},
		{"bad token", metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer nope"), "ListCategories", &Empty{}, codes.Unauthenticated},
		{"zero quantity", ctx, "AddToCart", &AddToCartRequest{ProductID: app.headphones.ID}, codes.InvalidArgument},
		{"unknown product", ctx, "AddToCart", &AddToCartRequest{ProductID: "ghost", Quantity: 1}, codes.NotFound},
		{"empty cart", ctx, "PlaceOrder", &PlaceOrderRequest{Name: "A", Email: "a@example.com", Address: "x"}, codes.FailedPrecondition},
		{"missing order", ctx, "GetOrder", &GetOrderRequest{OrderID: "missing"}, codes.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]any
			err := call(tt.ctx, conn, tt.method, tt.req, &out)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestGRPC_Health(t *testing.T) {
	app := newTestApp(t)
	conn := newGRPCConn(t, app)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName},
		grpc.CallContentSubtype("proto"))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

type unreachableVerifier struct{}

func (unreachableVerifier) Verify(context.Context, string) (domain.Identity, error) {
	return domain.Identity{}, fmt.Errorf("%w: userinfo returned status 502", auth.ErrUnavailable)
}

func TestAuthInterceptor_ProviderUnavailable(t *testing.T) {
	interceptor := AuthInterceptor(unreachableVerifier{})
	info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/GetCart"}
	next := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler must not run")
		return nil, nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer token"))
	_, err := interceptor(ctx, &Empty{}, info, next)
	assert.Equal(t, codes.Unavailable, status.Code(err))

	// anonymous calls never reach the provider
	_, err = AuthInterceptor(unreachableVerifier{})(context.Background(), &Empty{}, info,
		func(ctx context.Context, req any) (any, error) { return &Empty{}, nil })
	assert.NoError(t, err)
}
