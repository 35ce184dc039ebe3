package lanes

import (
	"reflect"
	"testing"
)

func TestLaneTableSpawnFillsLowestColumn(t *testing.T) {
	tbl := newLaneTable()

	a := tbl.spawn("a", 0, true)
	b := tbl.spawn("b", 1, true)
	c := tbl.spawn("c", 2, true)

	if cols := []int{tbl.lanes[a].column, tbl.lanes[b].column, tbl.lanes[c].column}; !reflect.DeepEqual(cols, []int{0, 1, 2}) {
		t.Errorf("columns = %v, want [0 1 2]", cols)
	}

	// Retiring the middle lane frees its column for the next spawn.
	tbl.retire(b)
	d := tbl.spawn("d", 3, true)
	if got := tbl.lanes[d].column; got != 1 {
		t.Errorf("respawned column = %d, want 1", got)
	}
}

func TestLaneTableSlotReuse(t *testing.T) {
	tbl := newLaneTable()

	a := tbl.spawn("a", 0, true)
	tbl.spawn("b", 1, true)
	tbl.retire(a)

	// The freed slot is reused so arena order keeps matching creation
	// order.
	if got := tbl.spawn("c", 2, true); got != a {
		t.Errorf("spawn reused slot %d, want %d", got, a)
	}
}

func TestLaneTableAwaiting(t *testing.T) {
	tbl := newLaneTable()

	a := tbl.spawn("p", 0, true)
	tbl.spawn("q", 1, true)
	c := tbl.spawn("p", 2, true)

	if got, ok := tbl.firstAwaiting("p"); !ok || got != a {
		t.Errorf("firstAwaiting(p) = %d, %v; want %d, true", got, ok, a)
	}
	if got := tbl.allAwaiting("p"); !reflect.DeepEqual(got, []int{a, c}) {
		t.Errorf("allAwaiting(p) = %v, want %v", got, []int{a, c})
	}

	tbl.retire(a)
	if got, ok := tbl.firstAwaiting("p"); !ok || got != c {
		t.Errorf("firstAwaiting(p) after retire = %d, %v; want %d, true", got, ok, c)
	}
	if _, ok := tbl.firstAwaiting("z"); ok {
		t.Error("firstAwaiting(z) = true, want false")
	}
}

func TestLaneTablePassing(t *testing.T) {
	tbl := newLaneTable()

	a := tbl.spawn("a", 5, true)
	b := tbl.spawn("b", 6, false)
	c := tbl.spawn("c", 7, true)
	tbl.retire(c)

	got := tbl.passing(map[int]bool{a: true})
	want := []PassingLane{{Column: tbl.lanes[b].column, Color: 6, IsCommitted: false}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("passing() = %v, want %v", got, want)
	}
}
