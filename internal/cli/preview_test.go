package cli

import (
	"io"
	"os"
	"testing"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/lanes"
	"github.com/lanegraph/lanegraph/pkg/render"
)

func TestRunPreviewWritesOverlay(t *testing.T) {
	c := New(io.Discard, LogInfo)
	input := writeLayoutFixture(t)

	if err := c.runPreview(input, []string{"c0"}, "", false); err != nil {
		t.Fatalf("runPreview() error = %v", err)
	}

	out := defaultOutputPath(input, "preview.json")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read preview output: %v", err)
	}
	overlay, err := render.UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout() error = %v", err)
	}
	if len(overlay.Rows) != 4 {
		t.Fatalf("len(Rows) = %d, want 4", len(overlay.Rows))
	}
	if overlay.Rows[0].CommitID != lanes.PreviewCommitID {
		t.Errorf("Rows[0].CommitID = %q, want %q", overlay.Rows[0].CommitID, lanes.PreviewCommitID)
	}
}

func TestRunPreviewUnknownHead(t *testing.T) {
	c := New(io.Discard, LogInfo)
	input := writeLayoutFixture(t)

	err := c.runPreview(input, []string{"missing"}, "", false)
	if !apperrors.Is(err, apperrors.ErrCodeUnknownHead) {
		t.Errorf("runPreview() error = %v, want unknown head", err)
	}
}
