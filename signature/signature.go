// Package signature classifies a symbolic metric by the signs of its
// eigenvalues, at a single point or over a sampled region.
package signature

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/njchilds90/gocurvature/symbolic"
	"github.com/njchilds90/gocurvature/tensor"
)

// DefaultTolerance is the magnitude below which an eigenvalue counts as zero.
const DefaultTolerance = 1e-9

// ErrEigen is returned when the eigendecomposition does not converge.
var ErrEigen = errors.New("signature: eigendecomposition failed")

// Signature counts the eigenvalues of a metric by sign.
type Signature struct {
	Positive int `json:"positive" yaml:"positive"`
	Negative int `json:"negative" yaml:"negative"`
	Zero     int `json:"zero" yaml:"zero"`
}

// String lists positive, zero and negative signs in that order, e.g.
// "(+,+,-)". Zero eigenvalues print as "0".
func (s Signature) String() string {
	signs := make([]string, 0, s.Positive+s.Negative+s.Zero)
	for i := 0; i < s.Positive; i++ {
		signs = append(signs, "+")
	}
	for i := 0; i < s.Zero; i++ {
		signs = append(signs, "0")
	}
	for i := 0; i < s.Negative; i++ {
		signs = append(signs, "-")
	}
	return "(" + strings.Join(signs, ",") + ")"
}

// Lorentzian reports exactly one negative direction and no degenerate ones.
func (s Signature) Lorentzian() bool {
	return s.Negative == 1 && s.Zero == 0 && s.Positive >= 1
}

// Riemannian reports a positive definite metric.
func (s Signature) Riemannian() bool {
	return s.Negative == 0 && s.Zero == 0 && s.Positive > 0
}

// Sample is the metric evaluated at one point.
type Sample struct {
	Point       []float64 `json:"point" yaml:"point"`
	Eigenvalues []float64 `json:"eigenvalues" yaml:"eigenvalues"`
	Signature   Signature `json:"signature" yaml:"signature"`
}

// At evaluates g at point, whose entries follow the order of b, and
// classifies the eigenvalues. A tol of zero or below selects
// DefaultTolerance.
func At(g *symbolic.Matrix, b tensor.Basis, point []float64, tol float64) (Sample, error) {
	n := b.Dim()
	if g.Rows() != n || g.Cols() != n {
		return Sample{}, fmt.Errorf("signature: metric is %dx%d over a %d-dimensional basis", g.Rows(), g.Cols(), n)
	}
	if len(point) != n {
		return Sample{}, fmt.Errorf("signature: point has %d coordinates, want %d", len(point), n)
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}
	env := make(map[string]float64, n)
	for i, name := range b.Names() {
		env[name] = point[i]
	}
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v, err := symbolic.Evalf(g.Get(i, j), env)
			if err != nil {
				return Sample{}, fmt.Errorf("signature: g[%d,%d]: %w", i, j, err)
			}
			data[i*n+j] = v
			data[j*n+i] = v
		}
	}
	var es mat.EigenSym
	if !es.Factorize(mat.NewSymDense(n, data), false) {
		return Sample{}, ErrEigen
	}
	vals := es.Values(nil)
	sort.Float64s(vals)
	return Sample{
		Point:       append([]float64(nil), point...),
		Eigenvalues: vals,
		Signature:   classify(vals, tol),
	}, nil
}

func classify(vals []float64, tol float64) Signature {
	var s Signature
	for _, v := range vals {
		switch {
		case math.Abs(v) <= tol:
			s.Zero++
		case v > 0:
			s.Positive++
		default:
			s.Negative++
		}
	}
	return s
}

// Options controls a Survey.
type Options struct {
	Samples   int
	Low       float64
	High      float64
	Seed      uint64
	Tolerance float64
	Workers   int
}

// DefaultOptions samples 128 points in [-2, 2]^n.
func DefaultOptions() Options {
	return Options{Samples: 128, Low: -2, High: 2, Seed: 1, Tolerance: DefaultTolerance}
}

// Report summarizes a Survey. Histogram maps Signature.String to the number
// of points that had it.
type Report struct {
	Samples    int            `json:"samples" yaml:"samples"`
	Evaluated  int            `json:"evaluated" yaml:"evaluated"`
	Skipped    int            `json:"skipped" yaml:"skipped"`
	Histogram  map[string]int `json:"histogram" yaml:"histogram"`
	Lorentzian bool           `json:"lorentzian" yaml:"lorentzian"`
	Dominant   string         `json:"dominant" yaml:"dominant"`
}

// Survey classifies g at points drawn uniformly from [Low, High]^n. The
// points depend only on Seed, so a survey is reproducible. Points where the
// metric is not finite or the decomposition fails are counted as skipped; a
// metric that refers to names outside b is an error.
func Survey(ctx context.Context, g *symbolic.Matrix, b tensor.Basis, opts Options) (Report, error) {
	if opts.Samples < 1 {
		return Report{}, fmt.Errorf("signature: samples must be positive, got %d", opts.Samples)
	}
	if !(opts.Low < opts.High) {
		return Report{}, fmt.Errorf("signature: empty sampling box [%g, %g]", opts.Low, opts.High)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := b.Dim()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	points := make([][]float64, opts.Samples)
	for i := range points {
		p := make([]float64, n)
		for j := range p {
			p[j] = opts.Low + rng.Float64()*(opts.High-opts.Low)
		}
		points[i] = p
	}

	sigs := make([]*Signature, len(points))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, p := range points {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			s, err := At(g, b, p, opts.Tolerance)
			switch {
			case err == nil:
				sigs[i] = &s.Signature
				return nil
			case errors.Is(err, symbolic.ErrNotFinite), errors.Is(err, ErrEigen):
				return nil
			default:
				return err
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return Report{}, err
	}

	rep := Report{Samples: len(points), Histogram: map[string]int{}}
	for _, s := range sigs {
		if s == nil {
			rep.Skipped++
			continue
		}
		rep.Evaluated++
		rep.Histogram[s.String()]++
		if s.Lorentzian() {
			rep.Lorentzian = true
		}
	}
	best := 0
	for k, v := range rep.Histogram {
		if v > best || (v == best && k < rep.Dominant) {
			best, rep.Dominant = v, k
		}
	}
	return rep, nil
}
