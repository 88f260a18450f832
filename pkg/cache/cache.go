// Package cache provides response caching for the prediction service.
//
// Scoring is cheap but not free, and the hosted service answers the same
// layout queries repeatedly while a designer nudges elements around. The
// cache keys score responses by heatset run ID, layout content hash, and
// scoring options, so a cache entry can never outlive the set it was
// computed against: a new aggregation run produces a new run ID and
// therefore a disjoint key space.
//
// Backends:
//   - FileCache: directory of JSON entries, for CLI and single-host use
//   - RedisCache: shared cache for multi-instance deployments
//   - NullCache: no-op, for tests and --no-cache
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads with optional expiration.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ScoreKeyOpts are the scoring options that participate in the cache key.
// Any option that changes the response must appear here.
type ScoreKeyOpts struct {
	Combination string             `json:"combination"`
	Weights     map[string]float64 `json:"weights,omitempty"`
}

// Keyer generates cache keys for the prediction service.
type Keyer interface {
	// ScoreKey keys a score response by heatset run, layout content, and
	// scoring options.
	ScoreKey(setID, layoutHash string, opts ScoreKeyOpts) string

	// RegionsKey keys a top-regions response.
	RegionsKey(setID, category string, k int) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ScoreKey generates a key for score-response caching.
func (k *DefaultKeyer) ScoreKey(setID, layoutHash string, opts ScoreKeyOpts) string {
	return hashKey("score", setID, layoutHash, opts)
}

// RegionsKey generates a key for top-regions caching.
func (k *DefaultKeyer) RegionsKey(setID, category string, k0 int) string {
	return hashKey("regions", setID, category, k0)
}
