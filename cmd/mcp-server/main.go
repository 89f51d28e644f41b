// cmd/mcp-server/main.go — Standalone HTTP tool server for gocurvature
//
// Exposes the curvature pipeline as an HTTP endpoint for AI agent frameworks.
// Same endpoints as `einstein serve`, without the rest of the CLI.
//
// Usage:
//
//	go run ./cmd/mcp-server -port 8080 -config gocurvature.yaml
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/njchilds90/gocurvature/internal/config"
	"github.com/njchilds90/gocurvature/internal/logging"
	"github.com/njchilds90/gocurvature/internal/mcp"
	"github.com/njchilds90/gocurvature/signature"
	"github.com/njchilds90/gocurvature/tensor"
)

func main() {
	port := flag.Int("port", 0, "Port to listen on (default from config)")
	cfgPath := flag.String("config", "", "Config file (default: ./gocurvature.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *port == 0 {
		*port = cfg.Server.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := tensor.New(
		tensor.WithLogger(logger),
		tensor.WithWorkers(cfg.Derive.Workers),
		tensor.WithMaxTerms(cfg.Derive.MaxTerms),
	)
	srv := mcp.NewServer(d, signature.Options{
		Samples:   cfg.Signature.Samples,
		Low:       cfg.Signature.Low,
		High:      cfg.Signature.High,
		Seed:      cfg.Signature.Seed,
		Tolerance: cfg.Signature.Tolerance,
		Workers:   cfg.Derive.Workers,
	}, cfg.Derive.Timeout, logger)

	addr := fmt.Sprintf(":%d", *port)
	if err := mcp.ListenAndServe(ctx, addr, srv.Router(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		stop()
		os.Exit(1)
	}
}
