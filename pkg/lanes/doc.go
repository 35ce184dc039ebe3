// Package lanes computes visual layouts for commit graphs.
//
// The input is an ordered sequence of commits (newest first, ancestors
// after descendants); the output is one row of layout data per commit:
// the column the commit occupies, its lane color, the lanes passing
// through the row, and the line segments connecting the row to its
// neighbors. A renderer maps columns to horizontal offsets and draws
// vertices, verticals, and elbows; this package never draws anything.
//
// # Lanes
//
// A lane is a tracked vertical line representing one branch of ancestry
// that is still waiting for its next commit. Lanes are stored in an
// arena with a free list of retired slots, so columns are recycled
// deterministically: a new lane always takes the lowest column not held
// by a live lane. Lane colors come from an allocator that recycles
// retired color ids the same way.
//
// # Purity
//
// Compute is a pure function: each call owns a private lane table and
// color allocator, and the same input always produces the same output.
// Concurrent calls over different inputs need no coordination. For very
// large histories the returned Checkpoint can be fed to Resume together
// with newly appended commits to continue a pass incrementally.
//
// # Malformed input
//
// Truncated or badly ordered history is expected, not exceptional.
// A parent id with no row in the input produces a dangling outgoing
// segment (the renderer draws the line exiting the viewport) and a
// DanglingReference diagnostic; a parent resolving at or before its
// child produces an OrderingViolation diagnostic and the same dangling
// treatment. Neither condition fails the pass.
package lanes
