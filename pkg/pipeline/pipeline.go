// Package pipeline provides the core history → layout → render
// pipeline shared by the CLI, the TUI and the HTTP API. Centralizing
// it keeps caching and instrumentation consistent across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. History: read the commit window out of a git repository
//  2. Layout: assign columns, colors and line segments per row
//  3. Render: generate output in various formats (text, DOT, SVG, PNG, JSON)
//
// Each stage can be run independently or as part of the complete
// pipeline, and each is cached under a content-derived key.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    RepoPath: ".",
//	    Formats:  []string{"text"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(string(result.Artifacts["text"]))
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/history"
	"github.com/lanegraph/lanegraph/pkg/lanes"
)

// =============================================================================
// Defaults - Single Source of Truth for CLI, API and TUI
// =============================================================================

const (
	// DefaultMaxCommits bounds the history window read per run. API
	// users can override it per request.
	DefaultMaxCommits = 1000
)

// Format constants for output formats.
const (
	FormatText = "text"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperrors.New(apperrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: text, dot, svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// History options
	RepoPath           string `json:"repo_path,omitempty"`
	RepoID             string `json:"repo_id,omitempty"` // cache identity, defaults to RepoPath
	MaxCommits         int    `json:"max_commits,omitempty"`
	IncludeWorkingTree bool   `json:"include_working_tree,omitempty"`
	Refresh            bool   `json:"refresh,omitempty"`

	// Layout options
	PaletteSize int `json:"palette_size,omitempty"`

	// PreviewHeads, when set, overlays a merge preview of these
	// revisions on the computed layout.
	PreviewHeads []string `json:"preview_heads,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Color   bool     `json:"color,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.RepoPath == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "repo_path is required")
	}
	if o.RepoID == "" {
		o.RepoID = o.RepoPath
	}
	if o.MaxCommits == 0 {
		o.MaxCommits = DefaultMaxCommits
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatText}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Entries is the history window the layout was computed from.
	Entries []history.Entry

	// HasMore reports whether history continues below the window.
	HasMore bool

	// Layout contains the computed rows. When PreviewHeads were given
	// this is the overlay, not the base layout.
	Layout *lanes.Layout

	// LayoutHash is the content hash of the layout.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CommitCount int
	RowCount    int
	MaxColumns  int
	HistoryTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	HistoryHit bool // Whether the history window came from cache
	LayoutHit  bool // Whether the layout came from cache
	RenderHit  bool // Whether all artifacts came from cache
}
