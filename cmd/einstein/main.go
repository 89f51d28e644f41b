package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/gocurvature/internal/config"
	"github.com/njchilds90/gocurvature/internal/logging"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	cfgPath   string
	verbose   bool
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.DefaultConfig(), logger: zap.NewNop()}
	root := &cobra.Command{
		Use:   "einstein",
		Short: "Derive curvature tensors from a scalar potential",
		Long: `einstein treats the Hessian of a scalar potential S as a metric and derives,
exactly and symbolically, its inverse, the Christoffel symbols, the Riemann
and Ricci tensors, the Ricci scalar and the Einstein tensor.

Defaults come from gocurvature.yaml (or --config) and GOCURVATURE_* variables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "Config file (default: ./gocurvature.yaml if present)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "Log encoding: json or console")

	root.AddCommand(a.deriveCmd())
	root.AddCommand(a.signatureCmd())
	root.AddCommand(a.serveCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, format := cfg.Log.Level, cfg.Log.Format
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFormat != "" {
		format = a.logFormat
	}
	logger, err := logging.New(logging.Verbose(level, a.verbose), format)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
