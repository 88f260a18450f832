// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about aggregation runs, scoring queries, and
// cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAggregationHooks(&myAggregationHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Score().OnScoreStart(ctx, elementCount)
//	// ... score the layout ...
//	observability.Score().OnScoreComplete(ctx, elementCount, overall, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Aggregation Hooks
// =============================================================================

// AggregationHooks receives events from heatmap aggregation runs.
type AggregationHooks interface {
	// OnRunStart records the beginning of a run at the given grid resolution.
	OnRunStart(ctx context.Context, rows, cols int)

	// OnRecord records one corpus record passing through the aggregator.
	OnRecord(ctx context.Context, category string)

	// OnRunComplete records the end of a run with its absorbed sample count.
	OnRunComplete(ctx context.Context, samples int, duration time.Duration, err error)
}

// =============================================================================
// Score Hooks
// =============================================================================

// ScoreHooks receives events from layout-scoring queries.
type ScoreHooks interface {
	// OnScoreStart records an incoming scoring query.
	OnScoreStart(ctx context.Context, elements int)

	// OnScoreComplete records a finished scoring query and its overall score.
	OnScoreComplete(ctx context.Context, elements int, overall float64, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAggregationHooks is a no-op implementation of AggregationHooks.
type NoopAggregationHooks struct{}

func (NoopAggregationHooks) OnRunStart(context.Context, int, int)                     {}
func (NoopAggregationHooks) OnRecord(context.Context, string)                         {}
func (NoopAggregationHooks) OnRunComplete(context.Context, int, time.Duration, error) {}

// NoopScoreHooks is a no-op implementation of ScoreHooks.
type NoopScoreHooks struct{}

func (NoopScoreHooks) OnScoreStart(context.Context, int) {}
func (NoopScoreHooks) OnScoreComplete(context.Context, int, float64, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	aggregationHooks AggregationHooks = NoopAggregationHooks{}
	scoreHooks       ScoreHooks       = NoopScoreHooks{}
	cacheHooks       CacheHooks       = NoopCacheHooks{}
	hooksMu          sync.RWMutex
)

// SetAggregationHooks registers custom aggregation hooks.
// This should be called once at application startup before any runs.
func SetAggregationHooks(h AggregationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		aggregationHooks = h
	}
}

// SetScoreHooks registers custom scoring hooks.
// This should be called once at application startup before any queries.
func SetScoreHooks(h ScoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scoreHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Aggregation returns the registered aggregation hooks.
func Aggregation() AggregationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return aggregationHooks
}

// Score returns the registered scoring hooks.
func Score() ScoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scoreHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	aggregationHooks = NoopAggregationHooks{}
	scoreHooks = NoopScoreHooks{}
	cacheHooks = NoopCacheHooks{}
}
