package lanes

import (
	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
)

// =============================================================================
// Input
// =============================================================================

// Commit is one input vertex: an opaque content-addressed id plus the
// ordered ids of its parents. Rows must be supplied newest first
// (ancestors after descendants); the engine tolerates gaps but reports
// ordering violations.
type Commit struct {
	ID          string   `json:"id" bson:"id"`
	Parents     []string `json:"parents,omitempty" bson:"parents,omitempty"`
	IsCommitted bool     `json:"is_committed" bson:"is_committed"`
	IsCurrent   bool     `json:"is_current,omitempty" bson:"is_current,omitempty"`
}

// NewCommit builds a committed input vertex. The synthetic working-tree
// row is the only caller that sets IsCommitted to false, so the helper
// defaults it to true.
func NewCommit(id string, parents ...string) Commit {
	return Commit{ID: id, Parents: parents, IsCommitted: true}
}

// =============================================================================
// Output
// =============================================================================

// LineSegment connects a vertex in one row to its continuation in an
// adjacent row. Dangling marks a connector whose parent has no row in
// the supplied history window; renderers draw it exiting the viewport.
// Segments introduced by a merge preview may span non-adjacent rows and
// carry IsMergePreview.
type LineSegment struct {
	FromColumn     int  `json:"from_column" bson:"from_column"`
	ToColumn       int  `json:"to_column" bson:"to_column"`
	FromRow        int  `json:"from_row" bson:"from_row"`
	ToRow          int  `json:"to_row" bson:"to_row"`
	Color          int  `json:"color" bson:"color"`
	IsCommitted    bool `json:"is_committed" bson:"is_committed"`
	Dangling       bool `json:"dangling,omitempty" bson:"dangling,omitempty"`
	IsMergePreview bool `json:"is_merge_preview,omitempty" bson:"is_merge_preview,omitempty"`
}

// PassingLane is a lane alive at a row that neither originates nor
// terminates there. The renderer draws it as a vertical through the row.
type PassingLane struct {
	Column         int  `json:"column" bson:"column"`
	Color          int  `json:"color" bson:"color"`
	IsCommitted    bool `json:"is_committed" bson:"is_committed"`
	IsMergePreview bool `json:"is_merge_preview,omitempty" bson:"is_merge_preview,omitempty"`
}

// Row is the layout data for one input commit (or for the synthetic
// merge-preview row). CommitID ties the row back to the commit it was
// computed for so consumers can address rows by id.
type Row struct {
	CommitID       string        `json:"commit_id" bson:"commit_id"`
	Column         int           `json:"column" bson:"column"`
	Color          int           `json:"color" bson:"color"`
	IsCommitted    bool          `json:"is_committed" bson:"is_committed"`
	IsCurrent      bool          `json:"is_current,omitempty" bson:"is_current,omitempty"`
	IsMerge        bool          `json:"is_merge,omitempty" bson:"is_merge,omitempty"`
	HasChildren    bool          `json:"has_children" bson:"has_children"`
	HasParents     bool          `json:"has_parents" bson:"has_parents"`
	IsMergePreview bool          `json:"is_merge_preview,omitempty" bson:"is_merge_preview,omitempty"`
	PassingLanes   []PassingLane `json:"passing_lanes,omitempty" bson:"passing_lanes,omitempty"`
	IncomingLines  []LineSegment `json:"incoming_lines,omitempty" bson:"incoming_lines,omitempty"`
	OutgoingLines  []LineSegment `json:"outgoing_lines,omitempty" bson:"outgoing_lines,omitempty"`
}

// Layout is the full result of a pass: one Row per input commit plus
// the number of columns a renderer must reserve. MaxColumns is strictly
// greater than every column referenced by any vertex, passing lane, or
// segment endpoint, so it can be used directly as the gutter width.
type Layout struct {
	Rows        []Row        `json:"rows" bson:"rows"`
	MaxColumns  int          `json:"max_columns" bson:"max_columns"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" bson:"diagnostics,omitempty"`

	// Checkpoint allows resuming the pass when more rows are appended
	// below the last computed row. Nil for resumed-and-finished or
	// preview layouts.
	Checkpoint *Checkpoint `json:"checkpoint,omitempty" bson:"checkpoint,omitempty"`
}

// =============================================================================
// Diagnostics
// =============================================================================

// Diagnostic is a reported, non-fatal input defect noticed during a
// pass. Code is one of errors.ErrCodeOrderingViolation or
// errors.ErrCodeDanglingReference.
type Diagnostic struct {
	Code     apperrors.Code `json:"code" bson:"code"`
	Row      int            `json:"row" bson:"row"`
	CommitID string         `json:"commit_id" bson:"commit_id"`
	ParentID string         `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
}
