package lanes

// lane is one live branch of ancestry: the column it occupies, its
// color, and the commit id it is waiting for. Lanes are owned by the
// laneTable for the duration of a single pass.
type lane struct {
	column    int
	color     int
	awaiting  string
	committed bool
	live      bool
}

// laneTable is the live set of lanes, stored as an arena plus a free
// list of retired slots. Lanes are addressed by stable arena index, not
// by pointer, so retirement and slot reuse stay explicit and
// inspectable. Arena index order doubles as creation order, which is
// the tie-break when several lanes await the same commit id.
type laneTable struct {
	lanes []lane
	free  []int
}

func newLaneTable() *laneTable {
	return &laneTable{}
}

// spawn creates a lane awaiting the given commit id at the lowest
// column not held by any live lane, filling gaps left by retired lanes
// before extending the range. Returns the lane's arena index.
func (t *laneTable) spawn(awaiting string, color int, committed bool) int {
	ln := lane{
		column:    t.lowestFreeColumn(),
		color:     color,
		awaiting:  awaiting,
		committed: committed,
		live:      true,
	}

	// Reuse the smallest retired slot so arena order stays stable.
	if len(t.free) > 0 {
		slot, at := t.free[0], 0
		for i, s := range t.free[1:] {
			if s < slot {
				slot, at = s, i+1
			}
		}
		t.free = append(t.free[:at], t.free[at+1:]...)
		t.lanes[slot] = ln
		return slot
	}

	t.lanes = append(t.lanes, ln)
	return len(t.lanes) - 1
}

// retire frees a lane's slot and column for later rows.
func (t *laneTable) retire(i int) {
	t.lanes[i].live = false
	t.free = append(t.free, i)
}

// reassign points a lane at its next awaited commit, keeping column and
// color. The committed flag follows the commit that was just resolved.
func (t *laneTable) reassign(i int, awaiting string, committed bool) {
	t.lanes[i].awaiting = awaiting
	t.lanes[i].committed = committed
}

// firstAwaiting returns the arena index of the first live lane awaiting
// the given id, in arena order.
func (t *laneTable) firstAwaiting(id string) (int, bool) {
	for i := range t.lanes {
		if t.lanes[i].live && t.lanes[i].awaiting == id {
			return i, true
		}
	}
	return 0, false
}

// allAwaiting returns the arena indices of every live lane awaiting the
// given id, in arena order. Several children sharing a first parent all
// leave a lane pointed at it, so more than one match is normal.
func (t *laneTable) allAwaiting(id string) []int {
	var idxs []int
	for i := range t.lanes {
		if t.lanes[i].live && t.lanes[i].awaiting == id {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// lowestFreeColumn scans live lanes left to right for the first unheld
// column.
func (t *laneTable) lowestFreeColumn() int {
	held := make(map[int]bool, len(t.lanes))
	for i := range t.lanes {
		if t.lanes[i].live {
			held[t.lanes[i].column] = true
		}
	}
	for col := 0; ; col++ {
		if !held[col] {
			return col
		}
	}
}

// passing returns snapshots of every live lane whose index is not in
// touched: the lanes flowing straight through the current row.
func (t *laneTable) passing(touched map[int]bool) []PassingLane {
	var out []PassingLane
	for i := range t.lanes {
		if !t.lanes[i].live || touched[i] {
			continue
		}
		out = append(out, PassingLane{
			Column:      t.lanes[i].column,
			Color:       t.lanes[i].color,
			IsCommitted: t.lanes[i].committed,
		})
	}
	return out
}
