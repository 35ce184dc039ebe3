package lanes

import (
	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
)

// PreviewCommitID is the synthetic commit id carried by the overlay row
// prepended by MergePreview.
const PreviewCommitID = "MERGE_PREVIEW"

// MergePreview overlays a hypothetical merge on top of an existing
// layout: a synthetic uncommitted row above row 0 at the current row's
// column, with preview connectors reaching down to the current row and
// to every named head. The base layout is not mutated; its rows are
// shared, not copied, and stay byte for byte what Compute produced.
// Connector endpoints on the preview row are addressed in the overlay's
// row space, where every base row sits one position lower.
func MergePreview(base *Layout, heads []string) (*Layout, error) {
	if base == nil || len(base.Rows) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "cannot preview a merge on an empty layout")
	}

	byID := make(map[string]int, len(base.Rows))
	for i, row := range base.Rows {
		if _, exists := byID[row.CommitID]; !exists {
			byID[row.CommitID] = i
		}
	}

	// The merge lands on the current row; without one, on the top row.
	tip := 0
	for i, row := range base.Rows {
		if row.IsCurrent {
			tip = i
			break
		}
	}
	tipRow := base.Rows[tip]

	preview := Row{
		CommitID:       PreviewCommitID,
		Column:         tipRow.Column,
		Color:          tipRow.Color,
		IsCommitted:    false,
		IsMerge:        true,
		HasParents:     true,
		IsMergePreview: true,
	}

	preview.OutgoingLines = append(preview.OutgoingLines, LineSegment{
		FromColumn:     tipRow.Column,
		ToColumn:       tipRow.Column,
		FromRow:        0,
		ToRow:          tip + 1,
		Color:          tipRow.Color,
		IsCommitted:    false,
		IsMergePreview: true,
	})

	for _, head := range heads {
		hi, ok := byID[head]
		if !ok {
			return nil, apperrors.New(apperrors.ErrCodeUnknownHead, "no row for head %q", head)
		}
		headRow := base.Rows[hi]
		preview.OutgoingLines = append(preview.OutgoingLines, LineSegment{
			FromColumn:     tipRow.Column,
			ToColumn:       headRow.Column,
			FromRow:        0,
			ToRow:          hi + 1,
			Color:          headRow.Color,
			IsCommitted:    false,
			IsMergePreview: true,
		})
	}

	rows := make([]Row, 0, len(base.Rows)+1)
	rows = append(rows, preview)
	rows = append(rows, base.Rows...)

	return &Layout{
		Rows:        rows,
		MaxColumns:  base.MaxColumns,
		Diagnostics: base.Diagnostics,
	}, nil
}
