package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lanegraph/lanegraph/pkg/history"
	"github.com/lanegraph/lanegraph/pkg/lanes"
)

// TextOptions configures terminal rendering.
type TextOptions struct {
	// Color styles the gutter with the lane palette. Off for plain
	// output and for tests.
	Color bool

	// HideAuthors drops the author and date suffix from commit lines.
	HideAuthors bool
}

// lanePalette are the gutter colors, folded over lane color ids.
var lanePalette = []lipgloss.Color{
	lipgloss.Color("36"),  // teal
	lipgloss.Color("167"), // soft red
	lipgloss.Color("75"),  // light blue
	lipgloss.Color("220"), // amber
	lipgloss.Color("35"),  // green
	lipgloss.Color("176"), // orchid
	lipgloss.Color("208"), // orange
	lipgloss.Color("245"), // gray
}

const (
	glyphCommit      = '●'
	glyphUncommitted = '○'
	glyphVertical    = '│'
	glyphDashed      = '┆'
	glyphHorizontal  = '─'
	glyphHorizDashed = '╌'
	glyphCross       = '┼'
	glyphDownRight   = '╰'
	glyphDownLeft    = '╯'
	glyphIntoRight   = '╮'
	glyphIntoLeft    = '╭'
	glyphTeeRight    = '├'
	glyphTeeLeft     = '┤'
)

// Text renders a layout as terminal lines in the manner of
// git log --graph: one commit line per row and a connector line
// between rows whenever any segment bends. Entries supply the text next
// to the gutter and are matched to rows by commit id.
func Text(layout *lanes.Layout, entries []history.Entry, opts TextOptions) string {
	if layout == nil || len(layout.Rows) == 0 {
		return ""
	}

	byID := make(map[string]history.Entry, len(entries))
	for _, e := range entries {
		byID[e.Commit.ID] = e
	}

	var b strings.Builder
	for i, row := range layout.Rows {
		b.WriteString(commitLine(layout, row, byID, opts))
		b.WriteByte('\n')
		if conn := connectorLine(layout, i, opts); conn != "" {
			b.WriteString(conn)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// gutter is one line of the graph column: a rune per cell plus the
// lane color id used when styling it.
type gutter struct {
	runes  []rune
	colors []int
}

func newGutter(width int) *gutter {
	g := &gutter{
		runes:  make([]rune, width),
		colors: make([]int, width),
	}
	for i := range g.runes {
		g.runes[i] = ' '
		g.colors[i] = -1
	}
	return g
}

// set places a rune, merging crossings: a horizontal over a vertical
// (or the reverse) becomes a cross, and corners win over straights.
func (g *gutter) set(cell int, r rune, color int) {
	if cell < 0 || cell >= len(g.runes) {
		return
	}
	cur := g.runes[cell]
	switch {
	case cur == ' ':
	case isVertical(cur) && isHorizontal(r), isHorizontal(cur) && isVertical(r):
		r = glyphCross
	case isVertical(cur) && r == glyphDownRight, cur == glyphDownRight && isVertical(r):
		r = glyphTeeRight
	case isVertical(cur) && r == glyphDownLeft, cur == glyphDownLeft && isVertical(r):
		r = glyphTeeLeft
	case isCorner(cur) && !isCorner(r):
		return
	}
	g.runes[cell] = r
	g.colors[cell] = color
}

func isVertical(r rune) bool   { return r == glyphVertical || r == glyphDashed }
func isHorizontal(r rune) bool { return r == glyphHorizontal || r == glyphHorizDashed }
func isCorner(r rune) bool {
	switch r {
	case glyphDownRight, glyphDownLeft, glyphIntoRight, glyphIntoLeft, glyphCross,
		glyphTeeRight, glyphTeeLeft, glyphCommit, glyphUncommitted:
		return true
	}
	return false
}

func (g *gutter) String(color bool) string {
	if !color {
		return strings.TrimRight(string(g.runes), " ")
	}
	var b strings.Builder
	for i, r := range g.runes {
		if g.colors[i] < 0 || r == ' ' {
			b.WriteRune(r)
			continue
		}
		style := lipgloss.NewStyle().Foreground(lanePalette[g.colors[i]%len(lanePalette)])
		b.WriteString(style.Render(string(r)))
	}
	return strings.TrimRight(b.String(), " ")
}

func commitLine(layout *lanes.Layout, row lanes.Row, byID map[string]history.Entry, opts TextOptions) string {
	g := newGutter(gutterWidth(layout))

	for _, pl := range row.PassingLanes {
		g.set(2*pl.Column, laneVertical(pl.IsCommitted && !pl.IsMergePreview), pl.Color)
	}
	vertex := glyphCommit
	if !row.IsCommitted || row.IsMergePreview {
		vertex = glyphUncommitted
	}
	g.set(2*row.Column, vertex, row.Color)

	line := g.String(opts.Color)
	pad := gutterWidth(layout) - lipgloss.Width(line)
	if pad < 0 {
		pad = 0
	}
	return line + strings.Repeat(" ", pad) + "  " + label(row, byID, opts)
}

// connectorLine draws the band between row i and row i+1. Empty when
// every segment runs straight and no lane passes through.
func connectorLine(layout *lanes.Layout, i int, opts TextOptions) string {
	g := newGutter(gutterWidth(layout))
	row := layout.Rows[i]

	bends := false
	draw := func(seg lanes.LineSegment) {
		solid := seg.IsCommitted && !seg.IsMergePreview
		if seg.FromColumn == seg.ToColumn {
			g.set(2*seg.FromColumn, laneVertical(solid), seg.Color)
			return
		}
		bends = true
		from, to := 2*seg.FromColumn, 2*seg.ToColumn
		horiz := glyphHorizontal
		if !solid {
			horiz = glyphHorizDashed
		}
		lo, hi := from, to
		if lo > hi {
			lo, hi = hi, lo
		}
		for c := lo + 1; c < hi; c++ {
			g.set(c, horiz, seg.Color)
		}
		if to > from {
			g.set(from, glyphDownRight, seg.Color)
			g.set(to, glyphIntoRight, seg.Color)
		} else {
			g.set(from, glyphDownLeft, seg.Color)
			g.set(to, glyphIntoLeft, seg.Color)
		}
	}

	// Delivered segments are drawn from the next row's incoming set,
	// which holds their final (possibly bent) shape. Only segments that
	// are never delivered draw from the outgoing side: dangling ones,
	// and preview connectors, whose targets know nothing about them.
	// Long preview connectors bend in this first band; the target lane
	// carries them the rest of the way.
	for _, seg := range row.OutgoingLines {
		if seg.Dangling {
			bends = true
			g.set(2*seg.FromColumn, glyphDashed, seg.Color)
			continue
		}
		if seg.IsMergePreview {
			draw(lanes.LineSegment{
				FromColumn:     seg.FromColumn,
				ToColumn:       seg.ToColumn,
				Color:          seg.Color,
				IsMergePreview: true,
			})
		}
	}

	if i+1 < len(layout.Rows) {
		next := layout.Rows[i+1]
		for _, seg := range next.IncomingLines {
			if seg.FromRow == i {
				draw(seg)
			}
		}
		for _, pl := range next.PassingLanes {
			g.set(2*pl.Column, laneVertical(pl.IsCommitted && !pl.IsMergePreview), pl.Color)
		}
	} else if !bends {
		return ""
	}

	if !bends {
		return ""
	}
	return g.String(opts.Color)
}

func label(row lanes.Row, byID map[string]history.Entry, opts TextOptions) string {
	if row.IsMergePreview {
		return "(merge preview)"
	}

	e, ok := byID[row.CommitID]
	if !ok {
		return shortID(row.CommitID)
	}

	parts := []string{shortID(row.CommitID)}
	if e.Summary != "" {
		parts = append(parts, e.Summary)
	}
	if !opts.HideAuthors && e.Author != "" {
		parts = append(parts, fmt.Sprintf("(%s, %s)", e.Author, e.When.Format("2006-01-02")))
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if id == history.WorkTreeID {
		return "(uncommitted)"
	}
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

func laneVertical(solid bool) rune {
	if solid {
		return glyphVertical
	}
	return glyphDashed
}

func gutterWidth(layout *lanes.Layout) int {
	if layout.MaxColumns == 0 {
		return 1
	}
	return 2*layout.MaxColumns - 1
}
