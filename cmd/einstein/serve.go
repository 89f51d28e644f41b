package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/njchilds90/gocurvature/internal/mcp"
	"github.com/njchilds90/gocurvature/signature"
	"github.com/njchilds90/gocurvature/tensor"
)

func (a *app) serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tool interface over HTTP",
		Long: `Starts the JSON tool server:
  POST /tool    execute a tool call
  GET  /schema  tool schema for agent registration
  GET  /health  liveness check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}
			ctx, cancel := commandContext(cmd, 0)
			defer cancel()

			srv := a.toolServer()
			addr := fmt.Sprintf(":%d", port)
			return mcp.ListenAndServe(ctx, addr, srv.Router(), a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.logger)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	return cmd
}

func (a *app) toolServer() *mcp.Server {
	d := tensor.New(
		tensor.WithLogger(a.logger),
		tensor.WithWorkers(a.cfg.Derive.Workers),
		tensor.WithMaxTerms(a.cfg.Derive.MaxTerms),
	)
	s := a.cfg.Signature
	opts := signature.Options{
		Samples:   s.Samples,
		Low:       s.Low,
		High:      s.High,
		Seed:      s.Seed,
		Tolerance: s.Tolerance,
		Workers:   a.cfg.Derive.Workers,
	}
	return mcp.NewServer(d, opts, a.cfg.Derive.Timeout, a.logger)
}
