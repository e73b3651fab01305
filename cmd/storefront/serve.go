package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/rl1809/storefront/internal/adapter/auth"
	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

type serveOptions struct {
	httpAddr string
	grpcAddr string
	seed     bool
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, websocket and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			if !cmd.Flags().Changed("http-addr") {
				opts.httpAddr = cfg.HTTPAddr
			}
			if !cmd.Flags().Changed("grpc-addr") {
				opts.grpcAddr = cfg.GRPCAddr
			}
			opts.seed = opts.seed || cfg.Seed
			return runServe(cmd.Context(), rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", "HTTP listen address (default $STOREFRONT_HTTP_ADDR or :8080)")
	cmd.Flags().StringVar(&opts.grpcAddr, "grpc-addr", "", "gRPC listen address (default $STOREFRONT_GRPC_ADDR or :50051)")
	cmd.Flags().BoolVar(&opts.seed, "seed", false, "load the demo catalog before serving")

	return cmd
}

func runServe(ctx context.Context, rootOpts *RootOptions, opts *serveOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cfg := rootOpts.Config

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.seed {
		if err := seedCatalog(ctx, store, ""); err != nil {
			return err
		}
	}

	rdb, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}

	// Wire events and the idempotency guard
	bus := service.NewEventBus()
	bus.Subscribe(service.LogCartChanges(slog.Default()))

	verifier := newVerifier(cfg)
	hub := handler.NewCartHub(verifier)

	var guard port.IdempotencyGuard = storage.NewMemoryGuard()
	if rdb != nil {
		defer rdb.Close()
		redisAdapter := storage.NewRedisAdapter(rdb)
		guard = redisAdapter
		bus.Subscribe(service.PublishTo(redisAdapter))

		// local changes come back through Redis too, so sockets are fed only from there
		events, err := redisAdapter.SubscribeCarts(ctx)
		if err != nil {
			return err
		}
		go hub.Relay(ctx, events)
	} else {
		bus.Subscribe(hub.Notify)
	}

	// Initialize services
	catalog := service.NewCatalogService(store)
	carts := service.NewCartService(store, bus)
	checkout := service.NewCheckoutService(store, guard, bus)
	history := service.NewOrderHistoryService(store)

	// Initialize gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.AuthInterceptor(verifier)))
	healthServer := handler.RegisterGRPC(grpcServer, handler.NewGRPCHandler(catalog, carts, checkout, history))

	lis, err := net.Listen("tcp", opts.grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	go func() {
		slog.Info("gRPC server listening", "addr", opts.grpcAddr)
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server error", "error", err)
		}
	}()

	// Initialize HTTP server
	mux := http.NewServeMux()
	handler.NewHTTPHandler(catalog, carts, checkout, history).Register(mux)
	mux.HandleFunc("GET /ws/cart", hub.ServeWS)

	httpServer := &http.Server{
		Addr:              opts.httpAddr,
		Handler:           auth.Middleware(verifier)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", opts.httpAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	slog.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	slog.Info("gRPC server stopped")

	return nil
}
