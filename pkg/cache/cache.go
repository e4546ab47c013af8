// Package cache provides content-addressed caching of computed analytics
// result sets. Keys are FilterContext fingerprints; since inputs are
// immutable snapshots, entries never need explicit invalidation and
// expire by TTL alone.
package cache

import (
	"context"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// ResultCache stores computed result sets under their filter fingerprint.
type ResultCache interface {
	// Get returns the cached result for key, if present and fresh.
	Get(ctx context.Context, key string) (*models.AnalyticsResult, bool)

	// Set stores a result under key.
	Set(ctx context.Context, key string, result *models.AnalyticsResult)
}

// Tiered chains a fast local cache in front of a shared one. Reads that
// miss locally but hit the shared tier are promoted.
type Tiered struct {
	local  ResultCache
	shared ResultCache
}

// NewTiered builds a tiered cache. shared may be nil, in which case only
// the local tier is used.
func NewTiered(local, shared ResultCache) *Tiered {
	return &Tiered{local: local, shared: shared}
}

var _ ResultCache = (*Tiered)(nil)

func (t *Tiered) Get(ctx context.Context, key string) (*models.AnalyticsResult, bool) {
	if result, ok := t.local.Get(ctx, key); ok {
		return result, true
	}
	if t.shared == nil {
		return nil, false
	}
	result, ok := t.shared.Get(ctx, key)
	if ok {
		t.local.Set(ctx, key, result)
	}
	return result, ok
}

func (t *Tiered) Set(ctx context.Context, key string, result *models.AnalyticsResult) {
	t.local.Set(ctx, key, result)
	if t.shared != nil {
		t.shared.Set(ctx, key, result)
	}
}
