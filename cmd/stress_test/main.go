package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

const (
	totalAdds      = 50
	totalCheckouts = 20
	productStock   = 100
)

// Hammers one user's cart with concurrent adds of the same product, then
// races checkouts that share one request key. Uses a throwaway SQLite
// database unless STOREFRONT_DB_DRIVER/STOREFRONT_DB_DSN point elsewhere;
// REDIS_ADDR switches the guard to Redis.
func main() {
	ctx := context.Background()

	store, cleanup, err := openStore(ctx)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer cleanup()

	var guard port.IdempotencyGuard = storage.NewMemoryGuard()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer rdb.Close()
		guard = storage.NewRedisAdapter(rdb)
	}

	productName := fmt.Sprintf("Stress Item %d", time.Now().UnixNano())
	if _, err := store.ImportCatalog(ctx, nil, []domain.Product{{
		Name:  productName,
		Price: decimal.RequireFromString("9.99"),
		Stock: productStock,
	}}); err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}
	productID, err := findProduct(ctx, store, productName)
	if err != nil {
		log.Fatalf("failed to find product: %v", err)
	}

	user := domain.Identity{UserID: fmt.Sprintf("stress-%d", time.Now().UnixNano())}
	carts := service.NewCartService(store, nil)
	checkout := service.NewCheckoutService(store, guard, nil)

	// Concurrent adds of the same product
	var addFail atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalAdds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := carts.AddToCart(ctx, user, productID, 1); err != nil {
				addFail.Add(1)
			}
		}()
	}
	wg.Wait()
	addElapsed := time.Since(start)

	cart, err := carts.Cart(ctx, user)
	if err != nil {
		log.Fatalf("failed to load cart: %v", err)
	}

	// Concurrent checkouts with one request key
	var placed, duplicate, otherFail atomic.Int32
	start = time.Now()

	for i := 0; i < totalCheckouts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := checkout.PlaceOrder(ctx, user, domain.CustomerInfo{
				Name:    "Stress Tester",
				Email:   "stress@example.com",
				Address: "1 Load Lane",
			}, "stress-checkout")
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, domain.ErrDuplicateRequest), errors.Is(err, domain.ErrEmptyCart):
				duplicate.Add(1)
			default:
				otherFail.Add(1)
			}
		}()
	}
	wg.Wait()
	checkoutElapsed := time.Since(start)

	orders, err := service.NewOrderHistoryService(store).ListOrders(ctx, user)
	if err != nil {
		log.Fatalf("failed to list orders: %v", err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Concurrent Adds:     %d (failed %d) in %v\n", totalAdds, addFail.Load(), addElapsed)
	fmt.Printf("Cart Quantity:       %d\n", cart.ItemCount())
	fmt.Printf("Concurrent Checkouts: %d in %v\n", totalCheckouts, checkoutElapsed)
	fmt.Printf("Placed:              %d\n", placed.Load())
	fmt.Printf("Rejected:            %d\n", duplicate.Load())
	fmt.Printf("Errors:              %d\n", otherFail.Load())
	fmt.Println("==========================================")

	if len(cart.Lines) == 1 && cart.ItemCount() == totalAdds {
		fmt.Printf("PASS: one cart line with quantity %d\n", totalAdds)
	} else {
		fmt.Printf("FAIL: expected one line with quantity %d, got %d lines totalling %d\n",
			totalAdds, len(cart.Lines), cart.ItemCount())
	}

	if placed.Load() == 1 && len(orders) == 1 {
		want := decimal.RequireFromString("9.99").Mul(decimal.NewFromInt(totalAdds))
		if orders[0].Total.Equal(want) {
			fmt.Printf("PASS: exactly one order, total %s\n", orders[0].Total.StringFixed(2))
		} else {
			fmt.Printf("FAIL: order total %s, expected %s\n", orders[0].Total.StringFixed(2), want.StringFixed(2))
		}
	} else {
		fmt.Printf("FAIL: expected exactly one order, placed %d, stored %d\n", placed.Load(), len(orders))
	}
}

func openStore(ctx context.Context) (*storage.Store, func(), error) {
	driver := os.Getenv("STOREFRONT_DB_DRIVER")
	dsn := os.Getenv("STOREFRONT_DB_DSN")

	cleanup := func() {}
	if driver == "" || dsn == "" {
		dir, err := os.MkdirTemp("", "storefront-stress")
		if err != nil {
			return nil, nil, err
		}
		driver = "sqlite"
		dsn = "file:" + filepath.Join(dir, "stress.db") + "?_foreign_keys=on"
		cleanup = func() { os.RemoveAll(dir) }
	}

	dialect, err := storage.DialectFor(driver)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	return store, func() { store.Close(); cleanup() }, nil
}

func findProduct(ctx context.Context, store *storage.Store, name string) (string, error) {
	products, err := store.ListProducts(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range products {
		if p.Name == name {
			return p.ID, nil
		}
	}
	return "", domain.ErrNotFound
}
