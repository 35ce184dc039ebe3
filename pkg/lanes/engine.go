package lanes

import (
	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
)

// Options configures a layout pass.
type Options struct {
	// PaletteSize folds fresh color ids modulo this value. Zero keeps
	// color ids unbounded; renderers fold them instead.
	PaletteSize int `json:"palette_size,omitempty" bson:"palette_size,omitempty"`

	// SeedUncommittedID, when set, seeds the lane table with a
	// synthetic uncommitted lane awaiting this id before row 0. The
	// history provider uses it for the working-tree row.
	SeedUncommittedID string `json:"seed_uncommitted_id,omitempty" bson:"seed_uncommitted_id,omitempty"`

	// HasMore declares the input a paginated window with more history
	// below. Parents with no row then keep their lane live instead of
	// dangling, and the returned layout carries a Checkpoint so the
	// pass can continue via Resume once the next page is appended.
	// With HasMore false, unresolved parents dangle per the truncated
	// history policy.
	HasMore bool `json:"has_more,omitempty" bson:"has_more,omitempty"`
}

// Checkpoint is a serializable snapshot of a pass taken after its last
// row. Feeding it back through Resume continues the pass for rows
// appended below the checkpoint, provided rows above it are unchanged.
type Checkpoint struct {
	NextRow   int           `json:"next_row" bson:"next_row"`
	Lanes     []LaneState   `json:"lanes,omitempty" bson:"lanes,omitempty"`
	FreeSlots []int         `json:"free_slots,omitempty" bson:"free_slots,omitempty"`
	ColorFree []int         `json:"color_free,omitempty" bson:"color_free,omitempty"`
	ColorNext int           `json:"color_next" bson:"color_next"`
	Pending   []LineSegment `json:"pending,omitempty" bson:"pending,omitempty"`
	MaxColumn int           `json:"max_column" bson:"max_column"`
}

// LaneState is the exported mirror of one lane arena slot.
type LaneState struct {
	Column      int    `json:"column" bson:"column"`
	Color       int    `json:"color" bson:"color"`
	Awaiting    string `json:"awaiting" bson:"awaiting"`
	IsCommitted bool   `json:"is_committed" bson:"is_committed"`
	Live        bool   `json:"live" bson:"live"`
}

// Compute lays out the full commit sequence and returns one Row per
// input commit. It is a pure function: no state survives between calls.
func Compute(commits []Commit, opts Options) *Layout {
	e := newEngine(NewModel(commits), opts)
	for r := 0; r < e.model.Len(); r++ {
		e.resolveRow(r)
	}
	if opts.HasMore {
		e.checkpoint = e.snapshot(e.model.Len())
	}
	return e.layout()
}

// Resume continues a checkpointed pass over the full (extended) commit
// sequence: the previously laid-out rows followed by the appended page.
// Rows before the checkpoint are reused from prev verbatim; lanes that
// were deferred at the old window edge resolve against the appended
// history. Previously emitted rows must not be reordered or removed.
func Resume(prev *Layout, commits []Commit, opts Options) (*Layout, error) {
	if prev == nil || prev.Checkpoint == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "layout has no checkpoint to resume from")
	}
	cp := prev.Checkpoint
	if cp.NextRow > len(commits) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput,
			"checkpoint row %d exceeds input length %d", cp.NextRow, len(commits))
	}
	if cp.NextRow != len(prev.Rows) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput,
			"checkpoint row %d does not match layout length %d", cp.NextRow, len(prev.Rows))
	}

	e := newEngine(NewModel(commits), opts)
	e.restore(cp)
	e.rows = append(e.rows, prev.Rows...)
	e.diags = append(e.diags, prev.Diagnostics...)

	for r := cp.NextRow; r < e.model.Len(); r++ {
		e.resolveRow(r)
	}
	if opts.HasMore {
		e.checkpoint = e.snapshot(e.model.Len())
	}
	return e.layout(), nil
}

// =============================================================================
// Engine state
// =============================================================================

// engine threads the per-pass state through each row step. Everything
// here is private to one Compute or Resume call.
type engine struct {
	model   *Model
	table   *laneTable
	colors  *colorAllocator
	hasMore bool

	// seeded is the arena index of the synthetic working-tree lane, or
	// -1 once it has resolved a row (or was never requested). The
	// seeded lane gives the working-tree row its column without
	// counting as a child of it.
	seeded int

	// pending holds the previous row's outgoing segments; they become
	// the current row's incoming set.
	pending []LineSegment

	rows       []Row
	diags      []Diagnostic
	maxColumn  int
	checkpoint *Checkpoint
}

func newEngine(model *Model, opts Options) *engine {
	e := &engine{
		model:     model,
		table:     newLaneTable(),
		colors:    newColorAllocator(opts.PaletteSize),
		hasMore:   opts.HasMore,
		seeded:    -1,
		maxColumn: -1,
	}
	if opts.SeedUncommittedID != "" {
		e.seeded = e.table.spawn(opts.SeedUncommittedID, e.colors.allocate(), false)
	}
	return e
}

func (e *engine) layout() *Layout {
	return &Layout{
		Rows:        e.rows,
		MaxColumns:  e.maxColumn + 1,
		Diagnostics: e.diags,
		Checkpoint:  e.checkpoint,
	}
}

// =============================================================================
// Row resolution
// =============================================================================

// resolveRow applies the single-row algorithm step: resolve the row's
// vertex against the lane table, update lanes for its parents, and emit
// segments and passing-lane snapshots.
func (e *engine) resolveRow(r int) {
	c := e.model.Commit(r)
	touched := make(map[int]bool)

	// A vertex has children exactly when some lane was already waiting
	// for it. Otherwise it is an orphan tip and gets a fresh lane at
	// the lowest free column.
	waiting := e.table.allAwaiting(c.ID)
	hasChildren := len(waiting) > 0
	if hasChildren && len(waiting) == 1 && waiting[0] == e.seeded {
		// The seeded working-tree lane fixes this row's column but is
		// not a child of it.
		hasChildren = false
	}

	var li int
	if len(waiting) > 0 {
		li = waiting[0]
	} else {
		li = e.table.spawn(c.ID, e.colors.allocate(), c.IsCommitted)
	}
	if li == e.seeded {
		e.seeded = -1
	}
	touched[li] = true

	vcol := e.table.lanes[li].column
	vcolor := e.table.lanes[li].color
	e.noteColumn(vcol)

	row := Row{
		CommitID:    c.ID,
		Column:      vcol,
		Color:       vcolor,
		IsCommitted: c.IsCommitted,
		IsCurrent:   c.IsCurrent,
		IsMerge:     len(c.Parents) > 1,
		HasChildren: hasChildren,
		HasParents:  len(c.Parents) > 0,
	}

	// Incoming set: the previous row's outgoing segments. Extra lanes
	// waiting for this commit (several children sharing this parent)
	// converge here, so a segment aimed at a converging lane's column
	// is bent into the vertex column. A converging lane that was only
	// passing in the previous row gets a synthesized elbow instead.
	var extra []int
	if len(waiting) > 1 {
		extra = waiting[1:]
	}

	// A vertex lane that was only passing in the previous row left no
	// outgoing segment behind; synthesize its straight continuation so
	// the band above the vertex stays unbroken.
	if len(waiting) > 0 && r > 0 {
		continued := false
		for _, seg := range e.pending {
			if seg.ToColumn == vcol {
				continued = true
				break
			}
		}
		if !continued {
			row.IncomingLines = append(row.IncomingLines, LineSegment{
				FromColumn:  vcol,
				ToColumn:    vcol,
				FromRow:     r - 1,
				ToRow:       r,
				Color:       vcolor,
				IsCommitted: e.table.lanes[li].committed,
			})
		}
	}

	converging := make(map[int]bool, len(extra))
	for _, i := range extra {
		converging[e.table.lanes[i].column] = true
	}
	delivered := make(map[int]bool, len(extra))
	for _, seg := range e.pending {
		if converging[seg.ToColumn] {
			delivered[seg.ToColumn] = true
			seg.ToColumn = vcol
		}
		row.IncomingLines = append(row.IncomingLines, seg)
		e.noteColumn(seg.FromColumn)
		e.noteColumn(seg.ToColumn)
	}

	// Colors freed by this row are held back until its spawns are done,
	// so nothing emitted in the row carries a just-retired color.
	var released []int
	for _, i := range extra {
		ln := e.table.lanes[i]
		if !delivered[ln.column] {
			row.IncomingLines = append(row.IncomingLines, LineSegment{
				FromColumn:  ln.column,
				ToColumn:    vcol,
				FromRow:     r - 1,
				ToRow:       r,
				Color:       ln.color,
				IsCommitted: ln.committed,
			})
			e.noteColumn(ln.column)
		}
		e.table.retire(i)
		released = append(released, ln.color)
		touched[i] = true
	}

	var outgoing []LineSegment

	switch {
	case len(c.Parents) == 0:
		// Root of history: the lane retires and frees its column.
		e.table.retire(li)
		released = append(released, vcolor)

	default:
		// The kept lane follows the first parent at the same column
		// and color.
		if e.parentStatus(r, c, c.Parents[0]) != parentDangling {
			e.table.reassign(li, c.Parents[0], c.IsCommitted)
			outgoing = append(outgoing, LineSegment{
				FromColumn:  vcol,
				ToColumn:    vcol,
				FromRow:     r,
				ToRow:       r + 1,
				Color:       vcolor,
				IsCommitted: c.IsCommitted,
			})
		} else {
			outgoing = append(outgoing, e.danglingSegment(r, vcol, vcolor, c.IsCommitted))
			e.table.retire(li)
			released = append(released, vcolor)
		}

		// Merge parents either converge into a lane that already
		// awaits them or spawn a new lane at the lowest free column,
		// left to right in parent order.
		for _, p := range c.Parents[1:] {
			if e.parentStatus(r, c, p) == parentDangling {
				outgoing = append(outgoing, e.danglingSegment(r, vcol, vcolor, c.IsCommitted))
				continue
			}
			if j, ok := e.table.firstAwaiting(p); ok {
				ln := e.table.lanes[j]
				outgoing = append(outgoing, LineSegment{
					FromColumn:  vcol,
					ToColumn:    ln.column,
					FromRow:     r,
					ToRow:       r + 1,
					Color:       ln.color,
					IsCommitted: ln.committed,
				})
				e.noteColumn(ln.column)
				continue
			}
			nj := e.table.spawn(p, e.colors.allocate(), c.IsCommitted)
			touched[nj] = true
			ln := e.table.lanes[nj]
			outgoing = append(outgoing, LineSegment{
				FromColumn:  vcol,
				ToColumn:    ln.column,
				FromRow:     r,
				ToRow:       r + 1,
				Color:       ln.color,
				IsCommitted: ln.committed,
			})
			e.noteColumn(ln.column)
		}
	}

	row.OutgoingLines = outgoing

	for _, color := range released {
		e.colors.release(color)
	}

	// Dangling segments have no destination row to deliver to.
	e.pending = nil
	for _, seg := range outgoing {
		if !seg.Dangling {
			e.pending = append(e.pending, seg)
		}
	}

	row.PassingLanes = e.table.passing(touched)
	for _, pl := range row.PassingLanes {
		e.noteColumn(pl.Column)
	}

	e.rows = append(e.rows, row)
}

type parentStatus int

const (
	// parentResolved means the parent has a row strictly below the
	// current one.
	parentResolved parentStatus = iota
	// parentDeferred means the parent is not in this window but more
	// history is expected; its lane stays live across the checkpoint.
	parentDeferred
	// parentDangling means the connector has no destination: the
	// parent is missing from a final window, or appears at or above
	// the current row.
	parentDangling
)

// parentStatus classifies a parent reference. Both dangling shapes are
// reported as diagnostics and handled by the caller with the
// dangling-lane policy.
func (e *engine) parentStatus(r int, c Commit, parent string) parentStatus {
	prow, ok := e.model.RowOf(parent)
	if !ok {
		if e.hasMore {
			return parentDeferred
		}
		e.diags = append(e.diags, Diagnostic{
			Code:     apperrors.ErrCodeDanglingReference,
			Row:      r,
			CommitID: c.ID,
			ParentID: parent,
		})
		return parentDangling
	}
	if prow <= r {
		e.diags = append(e.diags, Diagnostic{
			Code:     apperrors.ErrCodeOrderingViolation,
			Row:      r,
			CommitID: c.ID,
			ParentID: parent,
		})
		return parentDangling
	}
	return parentResolved
}

// danglingSegment builds an unterminated outgoing connector: the
// renderer draws it exiting the viewport below the row.
func (e *engine) danglingSegment(r, col, color int, committed bool) LineSegment {
	return LineSegment{
		FromColumn:  col,
		ToColumn:    col,
		FromRow:     r,
		ToRow:       -1,
		Color:       color,
		IsCommitted: committed,
		Dangling:    true,
	}
}

func (e *engine) noteColumn(col int) {
	if col > e.maxColumn {
		e.maxColumn = col
	}
}

// =============================================================================
// Checkpointing
// =============================================================================

func (e *engine) snapshot(nextRow int) *Checkpoint {
	cp := &Checkpoint{
		NextRow:   nextRow,
		FreeSlots: append([]int(nil), e.table.free...),
		ColorFree: append([]int(nil), e.colors.free...),
		ColorNext: e.colors.counter,
		Pending:   append([]LineSegment(nil), e.pending...),
		MaxColumn: e.maxColumn,
	}
	for _, ln := range e.table.lanes {
		cp.Lanes = append(cp.Lanes, LaneState{
			Column:      ln.column,
			Color:       ln.color,
			Awaiting:    ln.awaiting,
			IsCommitted: ln.committed,
			Live:        ln.live,
		})
	}
	return cp
}

func (e *engine) restore(cp *Checkpoint) {
	e.table.lanes = e.table.lanes[:0]
	for _, ls := range cp.Lanes {
		e.table.lanes = append(e.table.lanes, lane{
			column:    ls.Column,
			color:     ls.Color,
			awaiting:  ls.Awaiting,
			committed: ls.IsCommitted,
			live:      ls.Live,
		})
	}
	e.table.free = append([]int(nil), cp.FreeSlots...)
	e.colors.free = append([]int(nil), cp.ColorFree...)
	e.colors.counter = cp.ColorNext
	e.pending = append([]LineSegment(nil), cp.Pending...)
	e.maxColumn = cp.MaxColumn
}
