package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. The
// hosted service uses it to separate staging and production key spaces on a
// shared Redis instance.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ScoreKey generates a prefixed key for score-response caching.
func (k *ScopedKeyer) ScoreKey(setID, layoutHash string, opts ScoreKeyOpts) string {
	return k.prefix + k.inner.ScoreKey(setID, layoutHash, opts)
}

// RegionsKey generates a prefixed key for top-regions caching.
func (k *ScopedKeyer) RegionsKey(setID, category string, k0 int) string {
	return k.prefix + k.inner.RegionsKey(setID, category, k0)
}
