package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lanegraph/lanegraph/pkg/render"
)

// layoutCommand creates the layout command for computing a commit graph layout.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output      string
		noCache     bool
		refresh     bool
		maxCommits  int
		paletteSize int
		noWorktree  bool
	)

	cmd := &cobra.Command{
		Use:   "layout [repo]",
		Short: "Compute a commit graph layout from a repository",
		Long: `Compute a commit graph layout from a git repository.

The layout command reads the commit history, assigns each branch a lane
column and a stable color, and writes the resulting layout as JSON. The
output file can be rendered with the 'render' command or overlaid with
'preview'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := "."
			if len(args) == 1 {
				repoPath = args[0]
			}
			return c.runLayout(cmd.Context(), repoPath, layoutFlags{
				output:      output,
				noCache:     noCache,
				refresh:     refresh,
				maxCommits:  maxCommits,
				paletteSize: paletteSize,
				noWorktree:  noWorktree,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cached results for this run")
	cmd.Flags().IntVarP(&maxCommits, "max-commits", "n", 0, "limit the history window (0 = config default)")
	cmd.Flags().IntVar(&paletteSize, "palette", 0, "fold lane colors into a palette of this size (0 = config default)")
	cmd.Flags().BoolVar(&noWorktree, "no-worktree", false, "skip the synthetic uncommitted row")

	return cmd
}

type layoutFlags struct {
	output      string
	noCache     bool
	refresh     bool
	maxCommits  int
	paletteSize int
	noWorktree  bool
}

// runLayout reads history, computes the layout, and writes the JSON output.
func (c *CLI) runLayout(ctx context.Context, repoPath string, flags layoutFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipelineOptions(cfg, repoPath)
	opts.Refresh = flags.refresh
	if flags.maxCommits > 0 {
		opts.MaxCommits = flags.maxCommits
	}
	if flags.paletteSize > 0 {
		opts.PaletteSize = flags.paletteSize
	}
	if flags.noWorktree {
		opts.IncludeWorkingTree = false
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	entries, hasMore, err := runner.ReadHistory(ctx, opts)
	if err != nil {
		spinner.StopWithError("Reading history failed")
		return err
	}
	layout, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, entries, hasMore, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = "layout.json"
	}

	data, err := render.MarshalLayout(layout)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(entries), layout.MaxColumns, len(layout.Diagnostics), cacheHit)
	for _, d := range layout.Diagnostics {
		printWarning("%s at row %d (%s)", d.Code, d.Row, d.CommitID)
	}
	if hasMore {
		printDetail("History window truncated; rerun with a larger -n to extend")
	}
	printNewline()
	printNextStep("Render", "lanegraph render "+outputPath)

	return nil
}

// defaultOutputPath derives a sibling output path from an input file.
func defaultOutputPath(input, ext string) string {
	base := input[:len(input)-len(filepath.Ext(input))]
	return base + "." + ext
}
