// Package pkg provides the core libraries for lanegraph commit graph
// layout.
//
// # Overview
//
// Lanegraph turns an ordered commit sequence into a per-row visual
// layout: a column for each concurrent branch, a stable color per lane,
// and explicit line segments connecting rows. The pkg directory is
// organized into four main areas:
//
//  1. [lanes] - The layout engine (columns, colors, segments, resume)
//  2. [history] - Git history provider producing engine input
//  3. [render] - Output sinks (text gutter, DOT/SVG/PNG, JSON)
//  4. [pipeline] - Orchestration (history → layout → render) with
//     caching ([cache]), persistence ([store]), and hooks
//     ([observability])
//
// # Architecture
//
// The typical data flow through lanegraph:
//
//	Git repository
//	         ↓
//	    [history] package (commit window, worktree row)
//	         ↓
//	    [lanes] package (lane table + color allocator + row resolution)
//	         ↓
//	    [render] package (text / DOT / SVG / PNG / JSON)
//
// The [pipeline] package runs these stages with per-stage caching; the
// CLI, the TUI viewer, and the HTTP API all go through it.
package pkg
