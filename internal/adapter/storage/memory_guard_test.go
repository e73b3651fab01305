package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuard(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := NewMemoryGuard()
	g.now = func() time.Time { return now }

	ok, err := g.SetIdempotency(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = g.SetIdempotency(ctx, "k")
	assert.False(t, ok, "key is still live")

	now = now.Add(idempotencyKeyTTL)
	ok, _ = g.SetIdempotency(ctx, "k")
	assert.True(t, ok, "expired key is claimable")

	require.NoError(t, g.ReleaseIdempotency(ctx, "k"))
	ok, _ = g.SetIdempotency(ctx, "k")
	assert.True(t, ok, "released key is claimable")
}

func TestMemoryGuard_Concurrent(t *testing.T) {
	g := NewMemoryGuard()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.SetIdempotency(context.Background(), "same"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
