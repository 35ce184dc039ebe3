// Package render turns computed layouts into visual outputs.
//
// # Overview
//
// This package contains the sinks of the pipeline. A layout produced by
// [lanes.Compute] can be rendered three ways:
//
//   - Terminal text with a colored graph gutter ([Text])
//   - Graphviz DOT, SVG and PNG ([ToDOT], [SVG], [PNG])
//   - JSON for storage and the HTTP API ([MarshalLayout])
//
// # Text Output
//
// The text renderer draws the gutter the way git log --graph does:
// one commit line per row, plus a connector line whenever a segment
// changes column. Uncommitted and preview rows are drawn dashed.
//
//	entries, hasMore, _ := repo.Log(ctx, history.Options{})
//	layout := lanes.Compute(history.Commits(entries), history.LayoutOptions(entries, hasMore, 0))
//	fmt.Print(render.Text(layout, entries, render.TextOptions{Color: true}))
//
// # Graphviz Output
//
// [ToDOT] emits one node per row colored by lane, with edges following
// parent links. [SVG] and [PNG] run the DOT through Graphviz.
package render
