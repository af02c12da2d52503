package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/internal/server"
	"github.com/matzehuels/flowview/pkg/observability"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noCache   bool
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram API over HTTP",
		Long: `Serve the diagram API over HTTP.

Endpoints:
  POST /api/v1/diagrams    build and render a diagram (?format=svg|json|dot|png|pdf)
  POST /api/v1/highlight   resolve a hover state to highlighted links and nodes
  GET  /healthz            liveness probe
  GET  /metrics            Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := []server.Option{
				server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
				server.WithDefaults(optionsFromConfig(cfg)),
			}
			if !noMetrics {
				prom := observability.NewPrometheus()
				prom.Register()
				defer observability.Reset()
				opts = append(opts, server.WithMetrics(prom.Handler()))
			}

			srv := server.New(runner, c.Logger, opts...)
			c.Logger.Info("listening", "addr", addr, "cache", cfg.Cache.Backend)
			return srv.Run(ctx, addr, cfg.Server.ReadTimeout.Duration, cfg.Server.WriteTimeout.Duration)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}
