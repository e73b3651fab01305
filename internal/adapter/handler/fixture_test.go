package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/auth"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

var (
	alice = domain.Identity{UserID: "user-alice", Email: "alice@example.com"}
	bob   = domain.Identity{UserID: "user-bob", Email: "bob@example.com"}
)

// testApp wires the real services over a SQLite store.
type testApp struct {
	store      *storage.Store
	verifier   *auth.JWTVerifier
	bus        *service.EventBus
	hub        *CartHub
	catalog    *service.CatalogService
	carts      *service.CartService
	checkout   *service.CheckoutService
	history    *service.OrderHistoryService
	headphones domain.Product
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(ctx, storage.SQLite, "file:"+filepath.Join(t.TempDir(), "api.db")+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(ctx))

	_, err = store.ImportCatalog(ctx,
		[]domain.Category{{Name: "Audio", Slug: "audio"}},
		[]domain.Product{
			{Name: "Wireless Headphones", Description: "Noise cancelling", Price: decimal.RequireFromString("199.99"), CategoryID: "audio", Stock: 50, Featured: true},
			{Name: "Desk Lamp", Description: "Warm light", Price: decimal.RequireFromString("24.00"), Stock: 10, CreatedAt: time.Now().UTC().Add(-time.Hour)},
		},
	)
	require.NoError(t, err)

	app := &testApp{store: store, verifier: auth.NewJWTVerifier("test-secret"), bus: service.NewEventBus()}
	app.hub = NewCartHub(app.verifier)
	app.bus.Subscribe(app.hub.Notify)
	app.catalog = service.NewCatalogService(store)
	app.carts = service.NewCartService(store, app.bus)
	app.checkout = service.NewCheckoutService(store, storage.NewMemoryGuard(), app.bus)
	app.history = service.NewOrderHistoryService(store)

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	for _, p := range products {
		if p.Name == "Wireless Headphones" {
			app.headphones = p
		}
	}
	require.NotEmpty(t, app.headphones.ID)
	return app
}

func (a *testApp) token(t *testing.T, id domain.Identity) string {
	t.Helper()
	token, err := a.verifier.Issue(id, time.Hour)
	require.NoError(t, err)
	return token
}

func (a *testApp) httpServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHTTPHandler(a.catalog, a.carts, a.checkout, a.history).Register(mux)
	mux.HandleFunc("GET /ws/cart", a.hub.ServeWS)

	srv := httptest.NewServer(auth.Middleware(a.verifier)(mux))
	t.Cleanup(srv.Close)
	return srv
}
