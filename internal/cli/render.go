package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanegraph/lanegraph/pkg/history"
	"github.com/lanegraph/lanegraph/pkg/lanes"
	"github.com/lanegraph/lanegraph/pkg/pipeline"
	"github.com/lanegraph/lanegraph/pkg/render"
)

// renderCommand creates the render command for converting a layout file
// into output formats.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		color      bool
	)

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render a computed layout as text, DOT, SVG, PNG or JSON",
		Long: `Render a computed layout file (produced by 'layout') into one or
more output formats.

Text output goes to stdout unless -o is given; binary formats are
written next to the input file or to the -o path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], formats, output, color)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): text (default), dot, svg, png, json (comma-separated)")
	cmd.Flags().BoolVar(&color, "color", false, "colorize text output")

	return cmd
}

// runRender loads the layout file and writes each requested format.
func (c *CLI) runRender(ctx context.Context, input string, formats []string, output string, color bool) error {
	logger := loggerFromContext(ctx)

	layout, err := readLayoutFile(input)
	if err != nil {
		return err
	}
	logger.Info("loaded layout", "rows", len(layout.Rows), "columns", layout.MaxColumns)

	for _, format := range formats {
		data, err := renderFormat(ctx, layout, format, color)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}

		// Text with no explicit output goes to the terminal.
		if format == pipeline.FormatText && output == "" {
			fmt.Print(string(data))
			continue
		}

		path := outputPath(output, input, format, len(formats) > 1)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printSuccess("Rendered %s", format)
		printFile(path)
	}
	return nil
}

// renderFormat dispatches one format. Entries are not available when
// rendering from a layout file, so labels fall back to commit ids.
func renderFormat(ctx context.Context, layout *lanes.Layout, format string, color bool) ([]byte, error) {
	var entries []history.Entry
	switch format {
	case pipeline.FormatText:
		return []byte(render.Text(layout, entries, render.TextOptions{Color: color})), nil
	case pipeline.FormatJSON:
		return render.MarshalLayout(layout)
	case pipeline.FormatDOT:
		return []byte(render.ToDOT(layout, entries)), nil
	case pipeline.FormatSVG:
		return render.SVG(ctx, render.ToDOT(layout, entries))
	case pipeline.FormatPNG:
		return render.PNG(ctx, render.ToDOT(layout, entries))
	default:
		return nil, pipeline.ValidateFormat(format)
	}
}

// outputPath picks the file to write for a format.
func outputPath(output, input, format string, multi bool) string {
	if output == "" {
		return defaultOutputPath(input, format)
	}
	if multi {
		return output + "." + format
	}
	return output
}

// readLayoutFile reads and decodes a layout JSON file.
func readLayoutFile(path string) (*lanes.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	return render.UnmarshalLayout(data)
}
