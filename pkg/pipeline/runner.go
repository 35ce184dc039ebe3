package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lanegraph/lanegraph/pkg/cache"
	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/history"
	"github.com/lanegraph/lanegraph/pkg/lanes"
	"github.com/lanegraph/lanegraph/pkg/observability"
	"github.com/lanegraph/lanegraph/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// historyEnvelope is the cached form of a history window.
type historyEnvelope struct {
	Entries []history.Entry `json:"entries"`
	HasMore bool            `json:"has_more"`
}

// Execute runs the complete history → layout → render pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: History
	historyStart := time.Now()
	observability.Pipeline().OnHistoryStart(ctx, opts.RepoID)
	entries, hasMore, historyHit, err := r.ReadHistoryWithCacheInfo(ctx, opts)
	observability.Pipeline().OnHistoryComplete(ctx, opts.RepoID, len(entries), time.Since(historyStart), err)
	if err != nil {
		return nil, err
	}
	result.Entries = entries
	result.HasMore = hasMore
	result.Stats.HistoryTime = time.Since(historyStart)
	result.Stats.CommitCount = len(entries)
	result.CacheInfo.HistoryHit = historyHit

	r.Logger.Info("read history",
		"commits", len(entries),
		"has_more", hasMore,
		"duration", result.Stats.HistoryTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, len(entries))
	layout, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, entries, hasMore, opts)
	observability.Pipeline().OnLayoutComplete(ctx, rowCount(layout), time.Since(layoutStart), err)
	if err != nil {
		return nil, err
	}
	result.Layout = layout
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	if len(opts.PreviewHeads) > 0 {
		overlay, err := r.previewOverlay(layout, opts)
		if err != nil {
			return nil, err
		}
		result.Layout = overlay
	}
	result.Stats.RowCount = rowCount(result.Layout)
	result.Stats.MaxColumns = result.Layout.MaxColumns

	r.Logger.Info("computed layout",
		"rows", result.Stats.RowCount,
		"columns", result.Layout.MaxColumns,
		"diagnostics", len(result.Layout.Diagnostics),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Layout, entries, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	if data, err := render.MarshalLayout(result.Layout); err == nil {
		result.LayoutHash = cache.Hash(data)
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ReadHistoryWithCacheInfo reads the commit window with caching and
// returns cache hit info.
func (r *Runner) ReadHistoryWithCacheInfo(ctx context.Context, opts Options) ([]history.Entry, bool, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, false, err
	}

	cacheKey := r.Keyer.HistoryKey(opts.RepoID, cache.HistoryKeyOpts{
		MaxCommits:         opts.MaxCommits,
		IncludeWorkingTree: opts.IncludeWorkingTree,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var env historyEnvelope
			if err := json.Unmarshal(data, &env); err == nil {
				observability.Cache().OnCacheHit(ctx, "history")
				return env.Entries, env.HasMore, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "history")
	}

	repo, err := history.Open(opts.RepoPath)
	if err != nil {
		return nil, false, false, err
	}
	entries, hasMore, err := repo.Log(ctx, history.Options{
		MaxCommits:         opts.MaxCommits,
		IncludeWorkingTree: opts.IncludeWorkingTree,
	})
	if err != nil {
		return nil, false, false, err
	}

	if data, err := json.Marshal(historyEnvelope{Entries: entries, HasMore: hasMore}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLHistory); err == nil {
			observability.Cache().OnCacheSet(ctx, "history", len(data))
		}
	}
	return entries, hasMore, false, nil
}

// ReadHistory is a convenience wrapper that discards the cache hit info.
func (r *Runner) ReadHistory(ctx context.Context, opts Options) ([]history.Entry, bool, error) {
	entries, hasMore, _, err := r.ReadHistoryWithCacheInfo(ctx, opts)
	return entries, hasMore, err
}

// ComputeLayoutWithCacheInfo computes a layout with caching and returns
// cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, entries []history.Entry, hasMore bool, opts Options) (*lanes.Layout, bool, error) {
	historyData, err := json.Marshal(historyEnvelope{Entries: entries, HasMore: hasMore})
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrCodeInternal, err, "hash history window")
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(historyData), cache.LayoutKeyOpts{
		PaletteSize: opts.PaletteSize,
		HasMore:     hasMore,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := render.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	layout := lanes.Compute(history.Commits(entries), history.LayoutOptions(entries, hasMore, opts.PaletteSize))

	if data, err := render.MarshalLayout(layout); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return layout, false, nil
}

// ComputeLayout is a convenience wrapper that discards the cache hit
// info.
func (r *Runner) ComputeLayout(ctx context.Context, entries []history.Entry, hasMore bool, opts Options) (*lanes.Layout, error) {
	layout, _, err := r.ComputeLayoutWithCacheInfo(ctx, entries, hasMore, opts)
	return layout, err
}

// RenderWithCacheInfo renders artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, layout *lanes.Layout, entries []history.Entry, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	layoutData, err := render.MarshalLayout(layout)
	if err != nil {
		return nil, false, err
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache.
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, cache.ArtifactKeyOpts{Format: format, Color: opts.Color})
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := r.renderAll(ctx, layout, entries, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, cache.ArtifactKeyOpts{Format: format, Color: opts.Color})
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, layout *lanes.Layout, entries []history.Entry, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, layout, entries, opts)
	return artifacts, err
}

func (r *Runner) renderAll(ctx context.Context, layout *lanes.Layout, entries []history.Entry, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))

	var dot string
	dotFor := func() string {
		if dot == "" {
			dot = render.ToDOT(layout, entries)
		}
		return dot
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatText:
			out[format] = []byte(render.Text(layout, entries, render.TextOptions{Color: opts.Color}))
		case FormatJSON:
			data, err := render.MarshalLayout(layout)
			if err != nil {
				return nil, err
			}
			out[format] = data
		case FormatDOT:
			out[format] = []byte(dotFor())
		case FormatSVG:
			data, err := render.SVG(ctx, dotFor())
			if err != nil {
				return nil, err
			}
			out[format] = data
		case FormatPNG:
			data, err := render.PNG(ctx, dotFor())
			if err != nil {
				return nil, err
			}
			out[format] = data
		default:
			return nil, ValidateFormat(format)
		}
	}
	return out, nil
}

// previewOverlay resolves the requested heads against the repository
// and overlays the hypothetical merge on the layout.
func (r *Runner) previewOverlay(layout *lanes.Layout, opts Options) (*lanes.Layout, error) {
	repo, err := history.Open(opts.RepoPath)
	if err != nil {
		return nil, err
	}

	heads := make([]string, 0, len(opts.PreviewHeads))
	for _, rev := range opts.PreviewHeads {
		id, err := repo.ResolveHead(rev)
		if err != nil {
			return nil, err
		}
		heads = append(heads, id)
	}
	return lanes.MergePreview(layout, heads)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func rowCount(layout *lanes.Layout) int {
	if layout == nil {
		return 0
	}
	return len(layout.Rows)
}
