package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lanegraph/lanegraph/pkg/render"
)

// logCommand creates the log command: an interactive commit graph viewer.
func (c *CLI) logCommand() *cobra.Command {
	var (
		noCache    bool
		maxCommits int
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "log [repo]",
		Short: "Browse the commit graph in the terminal",
		Long: `Browse the commit graph of a repository in the terminal.

Each commit occupies one row; branches run as colored vertical lanes
between rows. Use arrow keys or j/k to scroll, g/G to jump, q to quit.
With --plain the graph is printed directly instead of opening the
viewer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := "."
			if len(args) == 1 {
				repoPath = args[0]
			}
			return c.runLog(cmd.Context(), repoPath, noCache, maxCommits, plain)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().IntVarP(&maxCommits, "max-commits", "n", 0, "limit the history window (0 = config default)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the graph instead of opening the viewer")

	return cmd
}

func (c *CLI) runLog(ctx context.Context, repoPath string, noCache bool, maxCommits int, plain bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(cfg, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipelineOptions(cfg, repoPath)
	if maxCommits > 0 {
		opts.MaxCommits = maxCommits
	}

	p := newProgress(loggerFromContext(ctx))
	entries, hasMore, err := runner.ReadHistory(ctx, opts)
	if err != nil {
		return err
	}
	layout, err := runner.ComputeLayout(ctx, entries, hasMore, opts)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Laid out %d commits across %d lanes", len(entries), layout.MaxColumns))

	if plain {
		fmt.Print(render.Text(layout, entries, render.TextOptions{}))
		return nil
	}

	graph := render.Text(layout, entries, render.TextOptions{Color: true})
	model := newGraphViewModel(repoPath, graph, len(entries), hasMore)
	_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// GraphViewModel - Scrollable commit graph
// =============================================================================

// GraphViewModel is the bubbletea model for the commit graph viewer.
type GraphViewModel struct {
	Title   string
	Lines   []string
	Offset  int
	Height  int
	HasMore bool
	commits int
}

func newGraphViewModel(title, graph string, commits int, hasMore bool) GraphViewModel {
	return GraphViewModel{
		Title:   title,
		Lines:   strings.Split(strings.TrimRight(graph, "\n"), "\n"),
		Height:  20,
		HasMore: hasMore,
		commits: commits,
	}
}

func (m GraphViewModel) Init() tea.Cmd {
	return nil
}

func (m GraphViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.Offset = max(0, m.Offset-1)
		case "down", "j":
			m.Offset = min(m.maxOffset(), m.Offset+1)
		case "pgup", "b":
			m.Offset = max(0, m.Offset-m.Height)
		case "pgdown", "f", " ":
			m.Offset = min(m.maxOffset(), m.Offset+m.Height)
		case "g", "home":
			m.Offset = 0
		case "G", "end":
			m.Offset = m.maxOffset()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 4
		if m.Height < 5 {
			m.Height = 5
		}
		m.Offset = min(m.Offset, m.maxOffset())
	}
	return m, nil
}

func (m GraphViewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ scroll  g/G jump  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Lines))
	for i := m.Offset; i < end; i++ {
		b.WriteString(m.Lines[i])
		b.WriteString("\n")
	}

	status := fmt.Sprintf("  [%d-%d/%d lines · %d commits]", m.Offset+1, end, len(m.Lines), m.commits)
	if m.HasMore {
		status += " · history truncated"
	}
	b.WriteString(StyleDim.Render(status))

	return b.String()
}

func (m GraphViewModel) maxOffset() int {
	return max(0, len(m.Lines)-m.Height)
}
