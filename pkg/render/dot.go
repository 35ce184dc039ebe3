package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/history"
	"github.com/lanegraph/lanegraph/pkg/lanes"
)

// dotPalette maps lane color ids to node colors, folded like the
// terminal palette.
var dotPalette = []string{
	"#2aa198", "#dc5c5c", "#5caddc", "#dcb85c", "#3cb371", "#c97fc9", "#e8833a", "#8a8a8a",
}

// ToDOT converts a layout to Graphviz DOT. One node per row, colored by
// lane, with edges following parent links from the matching entries.
// Uncommitted and preview rows are drawn dashed.
func ToDOT(layout *lanes.Layout, entries []history.Entry) string {
	byID := make(map[string]history.Entry, len(entries))
	for _, e := range entries {
		byID[e.Commit.ID] = e
	}

	var buf bytes.Buffer
	buf.WriteString("digraph commits {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, row := range layout.Rows {
		label := nodeLabel(row, byID)
		style := "rounded,filled"
		if !row.IsCommitted || row.IsMergePreview {
			style = "rounded,filled,dashed"
		}
		fmt.Fprintf(&buf, "  %q [label=%q, style=%q, fillcolor=%q, fontcolor=white];\n",
			row.CommitID, label, style, dotPalette[row.Color%len(dotPalette)])
	}

	buf.WriteString("\n")
	for _, row := range layout.Rows {
		if row.IsMergePreview {
			// Preview rows have no entry; their links come from the
			// overlay's connectors.
			for _, seg := range row.OutgoingLines {
				if seg.ToRow >= 1 && seg.ToRow < len(layout.Rows) {
					fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n",
						row.CommitID, layout.Rows[seg.ToRow].CommitID)
				}
			}
			continue
		}
		e, ok := byID[row.CommitID]
		if !ok {
			continue
		}
		for _, p := range e.Commit.Parents {
			fmt.Fprintf(&buf, "  %q -> %q;\n", row.CommitID, p)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(row lanes.Row, byID map[string]history.Entry) string {
	if row.IsMergePreview {
		return "merge preview"
	}
	label := row.CommitID
	if len(label) > 7 {
		label = label[:7]
	}
	if e, ok := byID[row.CommitID]; ok && e.Summary != "" {
		label += "\n" + e.Summary
	}
	return label
}

// SVG renders a DOT graph to SVG using Graphviz.
func SVG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.SVG)
}

// PNG renders a DOT graph to PNG using Graphviz.
func PNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "render %s", format)
	}
	return buf.Bytes(), nil
}
