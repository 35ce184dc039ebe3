package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/lanes"
	"github.com/lanegraph/lanegraph/pkg/render"
)

// previewCommand creates the preview command for overlaying a merge
// preview on a layout file.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		headsStr string
		output   string
		text     bool
	)

	cmd := &cobra.Command{
		Use:   "preview [layout.json]",
		Short: "Overlay a hypothetical merge on a computed layout",
		Long: `Overlay a hypothetical merge of one or more heads on a computed
layout file. The base layout is left untouched; the overlay prepends a
single synthetic merge row with connectors down to each head.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			heads := parseHeads(headsStr)
			if len(heads) == 0 {
				return apperrors.New(apperrors.ErrCodeInvalidInput, "--heads requires at least one commit id")
			}
			return c.runPreview(args[0], heads, output, text)
		},
	}

	cmd.Flags().StringVar(&headsStr, "heads", "", "comma-separated commit ids to merge")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.preview.json)")
	cmd.Flags().BoolVar(&text, "text", false, "print the overlay as text instead of writing JSON")

	return cmd
}

func (c *CLI) runPreview(input string, heads []string, output string, text bool) error {
	base, err := readLayoutFile(input)
	if err != nil {
		return err
	}

	overlay, err := lanes.MergePreview(base, heads)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCodeUnknownHead) {
			printError("%s", apperrors.UserMessage(err))
		}
		return err
	}

	if text {
		fmt.Print(render.Text(overlay, nil, render.TextOptions{}))
		return nil
	}

	if output == "" {
		output = defaultOutputPath(input, "preview.json")
	}
	data, err := render.MarshalLayout(overlay)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Preview of %d head(s) complete", len(heads))
	printFile(output)
	return nil
}
