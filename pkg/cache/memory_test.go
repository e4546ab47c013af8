package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

func result(fingerprint string) *models.AnalyticsResult {
	return &models.AnalyticsResult{Fingerprint: fingerprint}
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemoryCache(4, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "abc", result("abc"))

	got, ok := c.Get(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, "abc", got.Fingerprint)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemoryCache_ExpiresEntries(t *testing.T) {
	c := NewMemoryCache(4, 10*time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, "abc", result("abc"))
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(ctx, "abc")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(2, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "a", result("a"))
	time.Sleep(time.Millisecond)
	c.Set(ctx, "b", result("b"))
	time.Sleep(time.Millisecond)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get(ctx, "a")
	require.True(t, ok)
	time.Sleep(time.Millisecond)

	c.Set(ctx, "c", result("c"))

	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	c := NewMemoryCache(2, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "a", result("a"))
	c.Set(ctx, "b", result("b"))
	c.Set(ctx, "a", result("a2"))

	assert.Equal(t, 2, c.Len())
	got, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "a2", got.Fingerprint)
}

func TestTiered_PromotesSharedHits(t *testing.T) {
	local := NewMemoryCache(4, time.Minute)
	shared := NewMemoryCache(4, time.Minute)
	tiered := NewTiered(local, shared)
	ctx := context.Background()

	shared.Set(ctx, "abc", result("abc"))

	got, ok := tiered.Get(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, "abc", got.Fingerprint)

	// Promotion means the next read never touches the shared tier.
	_, ok = local.Get(ctx, "abc")
	assert.True(t, ok)
}

func TestTiered_NilSharedTier(t *testing.T) {
	tiered := NewTiered(NewMemoryCache(4, time.Minute), nil)
	ctx := context.Background()

	tiered.Set(ctx, "abc", result("abc"))
	got, ok := tiered.Get(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, "abc", got.Fingerprint)
}

func TestMemoryCache_ManyKeysStayBounded(t *testing.T) {
	c := NewMemoryCache(8, time.Minute)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		c.Set(ctx, fmt.Sprintf("key-%d", i), result("x"))
	}
	assert.LessOrEqual(t, c.Len(), 8)
}
