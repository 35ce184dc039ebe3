package lanes

// Model is a read-only indexed view over the input commit sequence.
// It maps commit ids to row positions so parent references can be
// resolved in constant time during a pass. Gaps (parents with no row)
// are legal: paginated history windows are an expected input shape.
type Model struct {
	commits []Commit
	rowOf   map[string]int
}

// NewModel indexes the given commit sequence. If an id appears more
// than once, the first occurrence wins; later duplicates keep their row
// but are unreachable through RowOf.
func NewModel(commits []Commit) *Model {
	m := &Model{
		commits: commits,
		rowOf:   make(map[string]int, len(commits)),
	}
	for i, c := range commits {
		if _, exists := m.rowOf[c.ID]; !exists {
			m.rowOf[c.ID] = i
		}
	}
	return m
}

// Len returns the number of rows.
func (m *Model) Len() int { return len(m.commits) }

// Commit returns the commit at the given row.
func (m *Model) Commit(row int) Commit { return m.commits[row] }

// RowOf resolves a commit id to its row. The second return value is
// false when the id has no row in this window.
func (m *Model) RowOf(id string) (int, bool) {
	row, ok := m.rowOf[id]
	return row, ok
}
