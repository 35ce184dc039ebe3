// Package cache provides the byte caches behind the pipeline: history
// windows, computed layouts and rendered artifacts are all cached under
// content-derived keys.
package cache

import (
	"context"
	"time"
)

// Default TTLs per cached stage. History windows go stale as soon as
// the repository moves, so they live shortest.
const (
	TTLHistory  = 5 * time.Minute
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte store with per-entry expiry. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get returns the cached data and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// HistoryKeyOpts are the inputs that change a history window's cache
// identity.
type HistoryKeyOpts struct {
	MaxCommits         int  `json:"max_commits"`
	IncludeWorkingTree bool `json:"include_working_tree"`
}

// LayoutKeyOpts are the layout options that change the computed rows.
type LayoutKeyOpts struct {
	PaletteSize int  `json:"palette_size"`
	HasMore     bool `json:"has_more"`
}

// ArtifactKeyOpts identify one rendered artifact of a layout.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Color  bool   `json:"color"`
}

// Keyer derives cache keys for the three cached stages.
type Keyer interface {
	// HistoryKey keys a commit window by repository identity and walk
	// options.
	HistoryKey(repoID string, opts HistoryKeyOpts) string

	// LayoutKey keys a layout by the hash of its input window and the
	// layout options.
	LayoutKey(historyHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact by the hash of its layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes all key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

func (k *DefaultKeyer) HistoryKey(repoID string, opts HistoryKeyOpts) string {
	return hashKey("history", repoID, opts)
}

func (k *DefaultKeyer) LayoutKey(historyHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", historyHash, opts)
}

func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = (*DefaultKeyer)(nil)
