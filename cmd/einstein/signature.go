package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/njchilds90/gocurvature/signature"
	"github.com/njchilds90/gocurvature/tensor"
)

type signatureFlags struct {
	coords    []string
	potential string
	point     []float64
	samples   int
	low       float64
	high      float64
	seed      uint64
	tolerance float64
	format    string
}

func (a *app) signatureCmd() *cobra.Command {
	var f signatureFlags
	cmd := &cobra.Command{
		Use:   "signature",
		Short: "Classify the metric signature at a point or over a sampled box",
		Long: `Evaluates the exact metric g = Hess(S) numerically and counts positive,
negative and zero eigenvalues. With --point the metric is classified at that
point; otherwise --samples points are drawn from [low, high]^n.

Example:
  einstein signature --coords x,y --potential "x^2 - y^2" --point 1,1
  einstein signature --coords t,x,y,z --samples 512 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.fillSignature(cmd, &f)
			return a.runSignature(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&f.coords, "coords", nil, "Coordinate names in order (default from config)")
	fl.StringVar(&f.potential, "potential", "", "Scalar potential S (default from config)")
	fl.Float64SliceVar(&f.point, "point", nil, "Evaluate at this point only")
	fl.IntVar(&f.samples, "samples", 0, "Number of sample points (default from config)")
	fl.Float64Var(&f.low, "low", 0, "Lower bound of the sampling box (default from config)")
	fl.Float64Var(&f.high, "high", 0, "Upper bound of the sampling box (default from config)")
	fl.Uint64Var(&f.seed, "seed", 0, "Sampling seed (default from config)")
	fl.Float64Var(&f.tolerance, "tolerance", 0, "Eigenvalues within this of zero count as zero (default from config)")
	fl.StringVarP(&f.format, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

func (a *app) fillSignature(cmd *cobra.Command, f *signatureFlags) {
	d, s := a.cfg.Derive, a.cfg.Signature
	changed := cmd.Flags().Changed
	if !changed("coords") {
		f.coords = d.Coordinates
	}
	if !changed("potential") {
		f.potential = d.Potential
	}
	if !changed("samples") {
		f.samples = s.Samples
	}
	if !changed("low") {
		f.low = s.Low
	}
	if !changed("high") {
		f.high = s.High
	}
	if !changed("seed") {
		f.seed = s.Seed
	}
	if !changed("tolerance") {
		f.tolerance = s.Tolerance
	}
}

func (a *app) runSignature(cmd *cobra.Command, f signatureFlags) error {
	if err := checkFormat(f.format); err != nil {
		return err
	}
	b, s, err := parseField(f.coords, f.potential)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, a.cfg.Derive.Timeout)
	defer cancel()

	g, err := tensor.New(tensor.WithLogger(a.logger)).Metric(ctx, b, s)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(f.point) > 0 {
		sample, err := signature.At(g, b, f.point, f.tolerance)
		if err != nil {
			return err
		}
		if f.format != "text" {
			return encode(out, f.format, sample)
		}
		coords := make([]string, b.Dim())
		for i, name := range b.Names() {
			coords[i] = fmt.Sprintf("%s=%g", name, f.point[i])
		}
		fmt.Fprintf(out, "signature %s at %s\n", sample.Signature, strings.Join(coords, ", "))
		fmt.Fprintf(out, "eigenvalues %v\n", sample.Eigenvalues)
		return nil
	}

	rep, err := signature.Survey(ctx, g, b, signature.Options{
		Samples:   f.samples,
		Low:       f.low,
		High:      f.high,
		Seed:      f.seed,
		Tolerance: f.tolerance,
		Workers:   a.cfg.Derive.Workers,
	})
	if err != nil {
		return err
	}
	if f.format != "text" {
		return encode(out, f.format, rep)
	}
	fmt.Fprintf(out, "samples %d, evaluated %d, skipped %d\n", rep.Samples, rep.Evaluated, rep.Skipped)
	keys := make([]string, 0, len(rep.Histogram))
	for k := range rep.Histogram {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s\t%d\n", k, rep.Histogram[k])
	}
	fmt.Fprintf(out, "lorentzian %t\n", rep.Lorentzian)
	return nil
}
