package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/gocurvature/symbolic"
	"github.com/njchilds90/gocurvature/tensor"
)

type deriveFlags struct {
	coords    []string
	potential string
	show      []string
	format    string
	workers   int
	maxTerms  int
	timeout   time.Duration
}

func (a *app) deriveCmd() *cobra.Command {
	var f deriveFlags
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Run the curvature pipeline on a potential",
		Long: `Builds g = Hess(S) over the given coordinates and derives every stage up to
the Einstein tensor G = Ric - R g / 2.

Example:
  einstein derive --coords t,x,y,z --potential "exp(t) + sin(x)^2 + cos(y) + z^2"
  einstein derive --coords x,y --potential "x^4 + x*y^2" --show ricci,scalar --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.fillDerive(cmd, &f)
			return a.runDerive(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&f.coords, "coords", nil, "Coordinate names in order (default from config)")
	fl.StringVar(&f.potential, "potential", "", "Scalar potential S (default from config)")
	fl.StringSliceVar(&f.show, "show", nil, "Stages to print: metric, inverse, christoffel, riemann, ricci, scalar, einstein (default all)")
	fl.StringVarP(&f.format, "format", "f", "text", "Output format: text, latex, json or yaml")
	fl.IntVar(&f.workers, "workers", 0, "Goroutines per stage (default GOMAXPROCS)")
	fl.IntVar(&f.maxTerms, "max-terms", 0, "Term budget per simplification")
	fl.DurationVar(&f.timeout, "timeout", 0, "Abort after this long (default from config)")
	return cmd
}

// fillDerive takes every flag the user did not set from the configuration.
func (a *app) fillDerive(cmd *cobra.Command, f *deriveFlags) {
	d := a.cfg.Derive
	changed := cmd.Flags().Changed
	if !changed("coords") {
		f.coords = d.Coordinates
	}
	if !changed("potential") {
		f.potential = d.Potential
	}
	if !changed("workers") {
		f.workers = d.Workers
	}
	if !changed("max-terms") {
		f.maxTerms = d.MaxTerms
	}
	if !changed("timeout") {
		f.timeout = d.Timeout
	}
}

func (a *app) runDerive(cmd *cobra.Command, f deriveFlags) error {
	if err := checkFormat(f.format, "latex"); err != nil {
		return err
	}
	show, err := parseShow(f.show)
	if err != nil {
		return err
	}
	b, s, err := parseField(f.coords, f.potential)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, f.timeout)
	defer cancel()

	d := tensor.New(
		tensor.WithLogger(a.logger),
		tensor.WithWorkers(f.workers),
		tensor.WithMaxTerms(f.maxTerms),
	)
	res, err := d.Derive(ctx, b, s)
	if err != nil {
		return err
	}
	a.logger.Debug("writing result", zap.String("format", f.format), zap.Int("stages", len(show)))

	out := cmd.OutOrStdout()
	switch f.format {
	case "latex":
		return tensor.WriteLaTeX(out, res, show...)
	case "text":
		return tensor.WriteText(out, res, show...)
	}
	return encode(out, f.format, tensor.NewReport(res, show...))
}

var stageAliases = map[string]tensor.Stage{
	"christoffel":    tensor.StageConnection,
	"gamma":          tensor.StageConnection,
	"inverse_metric": tensor.StageInverse,
	"ricci_scalar":   tensor.StageScalar,
}

func parseShow(names []string) ([]tensor.Stage, error) {
	show := make([]tensor.Stage, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if st, ok := stageAliases[name]; ok {
			show = append(show, st)
			continue
		}
		st, err := tensor.ParseStage(name)
		if err != nil || st == tensor.StageBasis {
			return nil, fmt.Errorf("--show: unknown stage %q", name)
		}
		show = append(show, st)
	}
	return show, nil
}

func parseField(coords []string, potential string) (tensor.Basis, symbolic.Expr, error) {
	b, err := tensor.NewBasis(coords...)
	if err != nil {
		return tensor.Basis{}, nil, err
	}
	s, err := symbolic.Parse(potential)
	if err != nil {
		return tensor.Basis{}, nil, fmt.Errorf("--potential: %w", err)
	}
	return b, s, nil
}

// commandContext cancels on SIGINT or SIGTERM and, when timeout is
// positive, after timeout.
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func checkFormat(format string, extra ...string) error {
	allowed := append([]string{"text", "json", "yaml"}, extra...)
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("--format: want one of %s, got %q", strings.Join(allowed, ", "), format)
}

func encode(w io.Writer, format string, v interface{}) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
