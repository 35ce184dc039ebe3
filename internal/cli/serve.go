package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lanegraph/lanegraph/internal/server"
	"github.com/lanegraph/lanegraph/pkg/config"
	"github.com/lanegraph/lanegraph/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over HTTP.

Clients POST commit lists to /api/layouts and read back stored layouts
or merge-preview overlays. Layouts are persisted in MongoDB when a
mongo URI is configured, and in memory otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	layouts, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer layouts.Close(context.Background())

	srv := server.New(server.Options{
		Store:       layouts,
		Logger:      c.Logger,
		PaletteSize: cfg.Graph.PaletteSize,
	})

	printInfo("Serving layout API on %s", addr)
	return srv.ListenAndServe(ctx, addr)
}

// openStore picks the configured persistence backend.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.Store.MongoURI != "" {
		return store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database)
	}
	return store.NewMemoryStore(), nil
}
