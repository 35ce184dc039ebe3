package lanes

import (
	"reflect"
	"testing"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
)

func TestComputeEmpty(t *testing.T) {
	layout := Compute(nil, Options{})

	if len(layout.Rows) != 0 {
		t.Errorf("len(Rows) = %d, want 0", len(layout.Rows))
	}
	if layout.MaxColumns != 0 {
		t.Errorf("MaxColumns = %d, want 0", layout.MaxColumns)
	}
}

func TestComputeLinear(t *testing.T) {
	commits := []Commit{
		NewCommit("c2", "c1"),
		NewCommit("c1", "c0"),
		NewCommit("c0"),
	}

	layout := Compute(commits, Options{})

	if len(layout.Rows) != len(commits) {
		t.Fatalf("len(Rows) = %d, want %d", len(layout.Rows), len(commits))
	}
	if layout.MaxColumns != 1 {
		t.Errorf("MaxColumns = %d, want 1", layout.MaxColumns)
	}
	if len(layout.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", layout.Diagnostics)
	}

	for i, row := range layout.Rows {
		if row.Column != 0 {
			t.Errorf("row %d Column = %d, want 0", i, row.Column)
		}
		if row.Color != 0 {
			t.Errorf("row %d Color = %d, want 0", i, row.Color)
		}
		if len(row.PassingLanes) != 0 {
			t.Errorf("row %d PassingLanes = %v, want none", i, row.PassingLanes)
		}
		if row.IsMerge {
			t.Errorf("row %d IsMerge = true, want false", i)
		}
	}

	if layout.Rows[0].HasChildren {
		t.Error("row 0 HasChildren = true, want false")
	}
	if !layout.Rows[1].HasChildren || !layout.Rows[2].HasChildren {
		t.Error("rows 1 and 2 should have children")
	}
	if layout.Rows[2].HasParents {
		t.Error("root row HasParents = true, want false")
	}

	wantOut := []LineSegment{{FromColumn: 0, ToColumn: 0, FromRow: 1, ToRow: 2, Color: 0, IsCommitted: true}}
	if !reflect.DeepEqual(layout.Rows[1].OutgoingLines, wantOut) {
		t.Errorf("row 1 OutgoingLines = %v, want %v", layout.Rows[1].OutgoingLines, wantOut)
	}
	if len(layout.Rows[2].OutgoingLines) != 0 {
		t.Errorf("root row OutgoingLines = %v, want none", layout.Rows[2].OutgoingLines)
	}
}

// A merge row forks into two outgoing segments; the merge parent's lane
// opens at the lowest free column and both ancestry lines run to the
// bottom without crossing.
func TestComputeMerge(t *testing.T) {
	commits := []Commit{
		NewCommit("c3", "c2"),
		NewCommit("c2", "c1", "c0"),
		NewCommit("c1"),
		NewCommit("c0"),
	}

	layout := Compute(commits, Options{})

	merge := layout.Rows[1]
	if !merge.IsMerge {
		t.Fatal("row 1 IsMerge = false, want true")
	}
	wantOut := []LineSegment{
		{FromColumn: 0, ToColumn: 0, FromRow: 1, ToRow: 2, Color: 0, IsCommitted: true},
		{FromColumn: 0, ToColumn: 1, FromRow: 1, ToRow: 2, Color: 1, IsCommitted: true},
	}
	if !reflect.DeepEqual(merge.OutgoingLines, wantOut) {
		t.Errorf("merge OutgoingLines = %v, want %v", merge.OutgoingLines, wantOut)
	}

	if got := layout.Rows[2]; got.Column != 0 || got.Color != 0 {
		t.Errorf("row 2 at (col %d, color %d), want (0, 0)", got.Column, got.Color)
	}
	if got := layout.Rows[3]; got.Column != 1 || got.Color != 1 {
		t.Errorf("row 3 at (col %d, color %d), want (1, 1)", got.Column, got.Color)
	}

	// While c1 resolves at column 0, the lane waiting for c0 passes
	// through on its right.
	wantPassing := []PassingLane{{Column: 1, Color: 1, IsCommitted: true}}
	if !reflect.DeepEqual(layout.Rows[2].PassingLanes, wantPassing) {
		t.Errorf("row 2 PassingLanes = %v, want %v", layout.Rows[2].PassingLanes, wantPassing)
	}
	if len(layout.Rows[3].PassingLanes) != 0 {
		t.Errorf("row 3 PassingLanes = %v, want none", layout.Rows[3].PassingLanes)
	}

	if layout.MaxColumns != 2 {
		t.Errorf("MaxColumns = %d, want 2", layout.MaxColumns)
	}
}

// Two branch tips sharing a parent converge: the straight segment of
// the right lane bends into the vertex column instead of continuing
// past it.
func TestComputeConvergence(t *testing.T) {
	commits := []Commit{
		NewCommit("t1", "p"),
		NewCommit("t2", "p"),
		NewCommit("p"),
	}

	layout := Compute(commits, Options{})

	if got := layout.Rows[1]; got.Column != 1 || got.Color != 1 {
		t.Errorf("row 1 at (col %d, color %d), want (1, 1)", got.Column, got.Color)
	}
	wantPassing := []PassingLane{{Column: 0, Color: 0, IsCommitted: true}}
	if !reflect.DeepEqual(layout.Rows[1].PassingLanes, wantPassing) {
		t.Errorf("row 1 PassingLanes = %v, want %v", layout.Rows[1].PassingLanes, wantPassing)
	}

	vertex := layout.Rows[2]
	if vertex.Column != 0 {
		t.Errorf("convergence row Column = %d, want 0", vertex.Column)
	}
	if !vertex.HasChildren {
		t.Error("convergence row HasChildren = false, want true")
	}
	wantIn := []LineSegment{
		{FromColumn: 0, ToColumn: 0, FromRow: 1, ToRow: 2, Color: 0, IsCommitted: true},
		{FromColumn: 1, ToColumn: 0, FromRow: 1, ToRow: 2, Color: 1, IsCommitted: true},
	}
	if !reflect.DeepEqual(vertex.IncomingLines, wantIn) {
		t.Errorf("convergence IncomingLines = %v, want %v", vertex.IncomingLines, wantIn)
	}
	if len(vertex.PassingLanes) != 0 {
		t.Errorf("convergence PassingLanes = %v, want none", vertex.PassingLanes)
	}
}

// A lane that was only passing in the previous row still gets an elbow
// segment when it converges.
func TestComputeConvergenceFromPassingLane(t *testing.T) {
	commits := []Commit{
		NewCommit("m", "a", "p"),
		NewCommit("x", "y"),
		NewCommit("a", "p"),
		NewCommit("y"),
		NewCommit("p"),
	}

	layout := Compute(commits, Options{})

	// Row 4 resolves p; both the lane following a's first parent and
	// the merge lane from m converge there.
	vertex := layout.Rows[4]
	if !vertex.HasChildren {
		t.Fatal("row 4 HasChildren = false, want true")
	}
	var elbows int
	for _, seg := range vertex.IncomingLines {
		if seg.ToColumn != vertex.Column {
			continue
		}
		if seg.FromColumn != vertex.Column {
			elbows++
		}
	}
	if elbows == 0 {
		t.Errorf("row 4 IncomingLines = %v, want at least one elbow into column %d", vertex.IncomingLines, vertex.Column)
	}
}

// Two independent tips whose shared parent is itself a merge: the
// second tip opens a fresh lane mid-pass, both lanes converge, and the
// merge parent's new lane must not pick up the color the converged
// lane freed in the same row.
func TestComputeConvergingTipsIntoMerge(t *testing.T) {
	commits := []Commit{
		NewCommit("a", "c"),
		NewCommit("b", "c"),
		NewCommit("c", "d", "e"),
		NewCommit("d"),
		NewCommit("e"),
	}

	layout := Compute(commits, Options{})

	if len(layout.Rows) != 5 {
		t.Fatalf("len(Rows) = %d, want 5", len(layout.Rows))
	}

	tip := layout.Rows[1]
	if tip.HasChildren {
		t.Error("row 1 HasChildren = true, want false")
	}
	wantTipIn := []LineSegment{{FromColumn: 0, ToColumn: 0, FromRow: 0, ToRow: 1, Color: 0, IsCommitted: true}}
	if !reflect.DeepEqual(tip.IncomingLines, wantTipIn) {
		t.Errorf("row 1 IncomingLines = %v, want %v", tip.IncomingLines, wantTipIn)
	}

	merge := layout.Rows[2]
	if !merge.IsMerge || merge.Column != 0 {
		t.Fatalf("row 2 = %+v, want merge at column 0", merge)
	}
	wantIn := []LineSegment{
		{FromColumn: 0, ToColumn: 0, FromRow: 1, ToRow: 2, Color: 0, IsCommitted: true},
		{FromColumn: 1, ToColumn: 0, FromRow: 1, ToRow: 2, Color: 1, IsCommitted: true},
	}
	if !reflect.DeepEqual(merge.IncomingLines, wantIn) {
		t.Errorf("row 2 IncomingLines = %v, want %v", merge.IncomingLines, wantIn)
	}

	out := merge.OutgoingLines
	if len(out) != 2 {
		t.Fatalf("row 2 OutgoingLines = %v, want 2 segments", out)
	}
	if out[1].Color == 1 {
		t.Errorf("merge-parent lane reused color 1 freed by the converged lane in the same row")
	}
	if got := layout.Rows[4]; got.Column != 1 || got.Color != out[1].Color {
		t.Errorf("row 4 at (col %d, color %d), want (1, %d)", got.Column, got.Color, out[1].Color)
	}
}

// A parent missing from a final window retires the lane with a flagged,
// unterminated segment and a diagnostic, never an error.
func TestComputeDanglingParent(t *testing.T) {
	commits := []Commit{NewCommit("tip", "missing")}

	layout := Compute(commits, Options{})

	if len(layout.Diagnostics) != 1 {
		t.Fatalf("len(Diagnostics) = %d, want 1", len(layout.Diagnostics))
	}
	diag := layout.Diagnostics[0]
	if diag.Code != apperrors.ErrCodeDanglingReference {
		t.Errorf("diagnostic Code = %v, want %v", diag.Code, apperrors.ErrCodeDanglingReference)
	}
	if diag.CommitID != "tip" || diag.ParentID != "missing" {
		t.Errorf("diagnostic = %+v, want commit tip, parent missing", diag)
	}

	out := layout.Rows[0].OutgoingLines
	if len(out) != 1 {
		t.Fatalf("len(OutgoingLines) = %d, want 1", len(out))
	}
	if !out[0].Dangling {
		t.Error("outgoing segment Dangling = false, want true")
	}
	if out[0].FromColumn != out[0].ToColumn {
		t.Errorf("dangling segment bends from %d to %d, want straight", out[0].FromColumn, out[0].ToColumn)
	}
}

func TestComputeOrderingViolation(t *testing.T) {
	commits := []Commit{
		NewCommit("older"),
		NewCommit("newer", "older"),
	}

	layout := Compute(commits, Options{})

	if len(layout.Diagnostics) != 1 {
		t.Fatalf("len(Diagnostics) = %d, want 1", len(layout.Diagnostics))
	}
	if got := layout.Diagnostics[0].Code; got != apperrors.ErrCodeOrderingViolation {
		t.Errorf("diagnostic Code = %v, want %v", got, apperrors.ErrCodeOrderingViolation)
	}
	out := layout.Rows[1].OutgoingLines
	if len(out) != 1 || !out[0].Dangling {
		t.Errorf("row 1 OutgoingLines = %v, want one dangling segment", out)
	}
}

// Retired lanes hand their color back; an unrelated later lane picks it
// up instead of burning a fresh one.
func TestComputeColorRecycling(t *testing.T) {
	commits := []Commit{
		NewCommit("a"),
		NewCommit("b"),
	}

	layout := Compute(commits, Options{})

	for i, row := range layout.Rows {
		if row.Column != 0 || row.Color != 0 {
			t.Errorf("row %d at (col %d, color %d), want (0, 0)", i, row.Column, row.Color)
		}
	}
	if layout.MaxColumns != 1 {
		t.Errorf("MaxColumns = %d, want 1", layout.MaxColumns)
	}
}

func TestComputePaletteFolding(t *testing.T) {
	commits := []Commit{
		NewCommit("m", "a", "b", "c"),
		NewCommit("a"),
		NewCommit("b"),
		NewCommit("c"),
	}

	layout := Compute(commits, Options{PaletteSize: 2})

	wantColors := []int{0, 0, 1, 0}
	for i, want := range wantColors {
		if got := layout.Rows[i].Color; got != want {
			t.Errorf("row %d Color = %d, want %d", i, got, want)
		}
	}
}

func TestComputeSeedUncommitted(t *testing.T) {
	commits := []Commit{
		{ID: "worktree", Parents: []string{"head"}, IsCommitted: false, IsCurrent: true},
		NewCommit("head"),
	}

	layout := Compute(commits, Options{SeedUncommittedID: "worktree"})

	wip := layout.Rows[0]
	if wip.IsCommitted {
		t.Error("working-tree row IsCommitted = true, want false")
	}
	if !wip.IsCurrent {
		t.Error("working-tree row IsCurrent = false, want true")
	}
	if wip.HasChildren {
		t.Error("working-tree row HasChildren = true, want false")
	}
	if wip.Column != 0 || wip.Color != 0 {
		t.Errorf("working-tree row at (col %d, color %d), want (0, 0)", wip.Column, wip.Color)
	}

	out := wip.OutgoingLines
	if len(out) != 1 || out[0].IsCommitted {
		t.Errorf("working-tree OutgoingLines = %v, want one uncommitted segment", out)
	}
	if !layout.Rows[1].HasChildren {
		t.Error("head row HasChildren = false, want true")
	}
	if !layout.Rows[1].IsCommitted {
		t.Error("head row IsCommitted = false, want true")
	}
}

// MaxColumns must exceed every column referenced anywhere in the
// layout so renderers can size the gutter from it alone.
func TestComputeMaxColumnsCoversEverything(t *testing.T) {
	tests := []struct {
		name    string
		commits []Commit
	}{
		{"linear", []Commit{NewCommit("a", "b"), NewCommit("b", "c"), NewCommit("c")}},
		{"merge", []Commit{NewCommit("c3", "c2"), NewCommit("c2", "c1", "c0"), NewCommit("c1"), NewCommit("c0")}},
		{"octopus", []Commit{NewCommit("m", "a", "b", "c"), NewCommit("a"), NewCommit("b"), NewCommit("c")}},
		{"dangling", []Commit{NewCommit("tip", "gone")}},
		{"braid", []Commit{
			NewCommit("f", "d", "e"),
			NewCommit("e", "c"),
			NewCommit("d", "b"),
			NewCommit("c", "a"),
			NewCommit("b", "a"),
			NewCommit("a"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := Compute(tt.commits, Options{})
			check := func(col int, what string) {
				if col >= layout.MaxColumns {
					t.Errorf("%s column %d >= MaxColumns %d", what, col, layout.MaxColumns)
				}
			}
			for _, row := range layout.Rows {
				check(row.Column, "vertex")
				for _, pl := range row.PassingLanes {
					check(pl.Column, "passing lane")
				}
				for _, seg := range append(row.IncomingLines, row.OutgoingLines...) {
					check(seg.FromColumn, "segment from")
					check(seg.ToColumn, "segment to")
				}
			}
		})
	}
}

// Within a window, each row has exactly one layout entry and no two
// live entities share a column in any row.
func TestComputeNoColumnOverlap(t *testing.T) {
	commits := []Commit{
		NewCommit("g", "e", "f"),
		NewCommit("f", "c"),
		NewCommit("e", "d"),
		NewCommit("d", "a"),
		NewCommit("c", "a"),
		NewCommit("b", "a"),
		NewCommit("a"),
	}

	layout := Compute(commits, Options{})

	if len(layout.Rows) != len(commits) {
		t.Fatalf("len(Rows) = %d, want %d", len(layout.Rows), len(commits))
	}
	for i, row := range layout.Rows {
		seen := map[int]bool{row.Column: true}
		for _, pl := range row.PassingLanes {
			if seen[pl.Column] {
				t.Errorf("row %d: column %d used twice", i, pl.Column)
			}
			seen[pl.Column] = true
		}
	}
}

func TestResume(t *testing.T) {
	page1 := []Commit{NewCommit("c2", "c1")}
	first := Compute(page1, Options{HasMore: true})

	if first.Checkpoint == nil {
		t.Fatal("Checkpoint = nil, want snapshot")
	}
	if first.Checkpoint.NextRow != 1 {
		t.Errorf("Checkpoint.NextRow = %d, want 1", first.Checkpoint.NextRow)
	}
	if len(first.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none while more history is expected", first.Diagnostics)
	}

	all := []Commit{NewCommit("c2", "c1"), NewCommit("c1")}
	resumed, err := Resume(first, all, Options{})
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	if !reflect.DeepEqual(resumed.Rows[0], first.Rows[0]) {
		t.Errorf("resumed row 0 = %+v, want unchanged %+v", resumed.Rows[0], first.Rows[0])
	}
	next := resumed.Rows[1]
	if next.Column != 0 || next.Color != 0 {
		t.Errorf("row 1 at (col %d, color %d), want (0, 0)", next.Column, next.Color)
	}
	if !next.HasChildren {
		t.Error("row 1 HasChildren = false, want true")
	}
	wantIn := []LineSegment{{FromColumn: 0, ToColumn: 0, FromRow: 0, ToRow: 1, Color: 0, IsCommitted: true}}
	if !reflect.DeepEqual(next.IncomingLines, wantIn) {
		t.Errorf("row 1 IncomingLines = %v, want %v", next.IncomingLines, wantIn)
	}
	if resumed.Checkpoint != nil {
		t.Error("resumed final layout still carries a checkpoint")
	}
}

// A merge parent deferred past the window edge keeps its lane live
// across the checkpoint and resolves in the appended page.
func TestResumeDeferredMergeParent(t *testing.T) {
	page1 := []Commit{NewCommit("m", "a", "b")}
	first := Compute(page1, Options{HasMore: true})

	all := []Commit{NewCommit("m", "a", "b"), NewCommit("a"), NewCommit("b")}
	resumed, err := Resume(first, all, Options{})
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	if got := resumed.Rows[1]; got.Column != 0 {
		t.Errorf("row 1 Column = %d, want 0", got.Column)
	}
	wantPassing := []PassingLane{{Column: 1, Color: 1, IsCommitted: true}}
	if !reflect.DeepEqual(resumed.Rows[1].PassingLanes, wantPassing) {
		t.Errorf("row 1 PassingLanes = %v, want %v", resumed.Rows[1].PassingLanes, wantPassing)
	}
	if got := resumed.Rows[2]; got.Column != 1 || !got.HasChildren {
		t.Errorf("row 2 = %+v, want column 1 with children", got)
	}
	if len(resumed.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", resumed.Diagnostics)
	}
}

func TestResumeErrors(t *testing.T) {
	tests := []struct {
		name    string
		prev    *Layout
		commits []Commit
	}{
		{"nil layout", nil, nil},
		{"no checkpoint", &Layout{Rows: []Row{{}}}, nil},
		{"window shrank", &Layout{Rows: []Row{{}, {}}, Checkpoint: &Checkpoint{NextRow: 2}}, []Commit{NewCommit("a")}},
		{"row count mismatch", &Layout{Rows: []Row{{}}, Checkpoint: &Checkpoint{NextRow: 2}}, []Commit{NewCommit("a"), NewCommit("b")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resume(tt.prev, tt.commits, Options{}); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
				t.Errorf("Resume() error = %v, want %v", err, apperrors.ErrCodeInvalidInput)
			}
		})
	}
}

// Two passes over the same input agree field for field.
func TestComputeDeterministic(t *testing.T) {
	commits := []Commit{
		NewCommit("f", "d", "e"),
		NewCommit("e", "c"),
		NewCommit("d", "b"),
		NewCommit("c", "a"),
		NewCommit("b", "a"),
		NewCommit("a"),
	}

	a := Compute(commits, Options{})
	b := Compute(commits, Options{})
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different layouts")
	}
}
