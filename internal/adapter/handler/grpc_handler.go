package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/adapter/auth"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

const (
	ServiceName = "storefront.v1.Storefront"

	// CodecName is the content-subtype clients select with
	// grpc.CallContentSubtype to talk to the storefront service.
	CodecName = "json"
)

// jsonCodec carries the storefront messages as JSON so the service needs no
// generated protobuf types.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type ListCategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}

// StorefrontServer is the gRPC surface of the storefront.
type StorefrontServer interface {
	ListCategories(context.Context, *Empty) (*ListCategoriesResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	AddToCart(context.Context, *AddToCartRequest) (*CartLineResponse, error)
	SetQuantity(context.Context, *SetQuantityRequest) (*Empty, error)
	RemoveLine(context.Context, *RemoveLineRequest) (*Empty, error)
	GetCart(context.Context, *Empty) (*CartResponse, error)
	PlaceOrder(context.Context, *PlaceOrderRequest) (*OrderResponse, error)
	ListOrders(context.Context, *Empty) (*ListOrdersResponse, error)
	GetOrder(context.Context, *GetOrderRequest) (*OrderResponse, error)
}

type GRPCHandler struct {
	catalog  *service.CatalogService
	carts    *service.CartService
	checkout *service.CheckoutService
	history  *service.OrderHistoryService
}

func NewGRPCHandler(
	catalog *service.CatalogService,
	carts *service.CartService,
	checkout *service.CheckoutService,
	history *service.OrderHistoryService,
) *GRPCHandler {
	return &GRPCHandler{catalog: catalog, carts: carts, checkout: checkout, history: history}
}

func (h *GRPCHandler) ListCategories(ctx context.Context, _ *Empty) (*ListCategoriesResponse, error) {
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	return &ListCategoriesResponse{Categories: toCategories(categories)}, nil
}

func (h *GRPCHandler) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	products, err := h.catalog.Browse(ctx, service.ProductFilter{CategoryID: req.Category, Search: req.Query})
	if err != nil {
		return nil, grpcError(err)
	}
	return &ListProductsResponse{Products: toProducts(products)}, nil
}

func (h *GRPCHandler) AddToCart(ctx context.Context, req *AddToCartRequest) (*CartLineResponse, error) {
	line, err := h.carts.AddToCart(ctx, auth.FromContext(ctx), req.ProductID, req.Quantity)
	if err != nil {
		return nil, grpcError(err)
	}
	resp := toCartLine(line)
	return &resp, nil
}

func (h *GRPCHandler) SetQuantity(ctx context.Context, req *SetQuantityRequest) (*Empty, error) {
	if err := h.carts.SetQuantity(ctx, auth.FromContext(ctx), req.LineID, req.Quantity); err != nil {
		return nil, grpcError(err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) RemoveLine(ctx context.Context, req *RemoveLineRequest) (*Empty, error) {
	if err := h.carts.RemoveLine(ctx, auth.FromContext(ctx), req.LineID); err != nil {
		return nil, grpcError(err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) GetCart(ctx context.Context, _ *Empty) (*CartResponse, error) {
	cart, err := h.carts.Cart(ctx, auth.FromContext(ctx))
	if err != nil {
		return nil, grpcError(err)
	}
	resp := toCart(cart)
	return &resp, nil
}

func (h *GRPCHandler) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*OrderResponse, error) {
	receipt, err := h.checkout.PlaceOrder(ctx, auth.FromContext(ctx), domain.CustomerInfo{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
	}, req.RequestID)
	if err != nil {
		return nil, grpcError(err)
	}
	resp := toOrder(receipt.Order)
	return &resp, nil
}

func (h *GRPCHandler) ListOrders(ctx context.Context, _ *Empty) (*ListOrdersResponse, error) {
	orders, err := h.history.ListOrders(ctx, auth.FromContext(ctx))
	if err != nil {
		return nil, grpcError(err)
	}
	return &ListOrdersResponse{Orders: toOrders(orders)}, nil
}

func (h *GRPCHandler) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderResponse, error) {
	order, err := h.history.GetOrder(ctx, auth.FromContext(ctx), req.OrderID)
	if err != nil {
		return nil, grpcError(err)
	}
	resp := toOrder(*order)
	return &resp, nil
}

// unary adapts one typed method to the generic gRPC method handler.
func unary[Req any, Resp any](name string, call func(StorefrontServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(StorefrontServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
				return call(srv.(StorefrontServer), ctx, r.(*Req))
			})
		},
	}
}

var StorefrontServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StorefrontServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListCategories", StorefrontServer.ListCategories),
		unary("ListProducts", StorefrontServer.ListProducts),
		unary("AddToCart", StorefrontServer.AddToCart),
		unary("SetQuantity", StorefrontServer.SetQuantity),
		unary("RemoveLine", StorefrontServer.RemoveLine),
		unary("GetCart", StorefrontServer.GetCart),
		unary("PlaceOrder", StorefrontServer.PlaceOrder),
		unary("ListOrders", StorefrontServer.ListOrders),
		unary("GetOrder", StorefrontServer.GetOrder),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/storefront",
}

// RegisterGRPC installs the storefront service and the standard health
// service on s.
func RegisterGRPC(s *grpc.Server, h StorefrontServer) *health.Server {
	s.RegisterService(&StorefrontServiceDesc, h)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

// AuthInterceptor resolves the "authorization" metadata into an identity.
// Calls without it run anonymously; an invalid token is Unauthenticated and
// an unreachable identity provider is Unavailable.
func AuthInterceptor(verifier port.IdentityVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var header string
		if values := md.Get("authorization"); len(values) > 0 {
			header = values[0]
		}

		token, present, err := auth.BearerToken(header)
		if !present {
			return next(ctx, req)
		}
		if err == nil {
			var id domain.Identity
			if id, err = verifier.Verify(ctx, token); err == nil {
				return next(auth.WithIdentity(ctx, id), req)
			}
		}

		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, status.Error(codes.Unauthenticated, auth.ErrInvalidToken.Error())
		}
		slog.Warn("token verification failed", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unavailable, auth.ErrUnavailable.Error())
	}
}
