package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clubreport/internal/server"
	"github.com/matzehuels/clubreport/pkg/config"
	"github.com/matzehuels/clubreport/pkg/observability"
)

// serveCommand creates the command that serves reports over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over HTTP",
		Long: `Serve reports over HTTP. GET /reports/2024-03-05.pdf renders the report for
that day (or returns it from the cache); GET /healthz is a liveness probe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides [server] addr)")
	return cmd
}

func (c *CLI) serve(ctx context.Context, addr string) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig(config.CheckStrava)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	ch, err := cfg.OpenCache(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	hooks := observability.NewLogHooks(logger)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	src, err := stravaSource(cfg, ch, logger)
	if err != nil {
		return err
	}
	return server.New(c.newRunner(src, ch, logger), opts, logger).ListenAndServe(ctx, addr)
}
