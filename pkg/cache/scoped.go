package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation,
// so different users or repositories get separate cache namespaces on
// a shared backend.
//
// Example usage:
//
//	// Per-repository keys on a shared Redis
//	repoKeyer := NewScopedKeyer(NewDefaultKeyer(), "repo:abc123:")
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

// HistoryKey generates a prefixed key for history window caching.
func (k *ScopedKeyer) HistoryKey(repoID string, opts HistoryKeyOpts) string {
	return k.prefix + k.inner.HistoryKey(repoID, opts)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(historyHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(historyHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
