package tensor

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/gocurvature/symbolic"
)

// Deriver runs the curvature pipeline: metric, inverse, connection,
// Riemann, Ricci, scalar and Einstein tensor, in that order. A Deriver only
// holds configuration; every call owns its tensors and its simplification
// cache, so one Deriver may serve concurrent callers.
type Deriver struct {
	log      *zap.Logger
	workers  int
	maxTerms int
}

func New(opts ...Option) *Deriver {
	d := &Deriver{
		log:      zap.NewNop(),
		workers:  runtime.GOMAXPROCS(0),
		maxTerms: symbolic.DefaultMaxTerms,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage    Stage         `json:"stage" yaml:"stage"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result bundles every intermediate of one derivation. Fields after the
// last completed stage are nil.
type Result struct {
	RunID      uuid.UUID
	Basis      Basis
	Potential  symbolic.Expr
	Metric     *symbolic.Matrix
	Inverse    *symbolic.Matrix
	Connection *Christoffel
	Riemann    *Riemann
	Ricci      *symbolic.Matrix
	Scalar     symbolic.Expr
	Einstein   *symbolic.Matrix
	Completed  Stage
	Timings    []StageTiming
}

// EinsteinTensor derives G_{μν} for the potential s over basis b with the
// default options.
func EinsteinTensor(ctx context.Context, b Basis, s symbolic.Expr) (*symbolic.Matrix, error) {
	res, err := New().Derive(ctx, b, s)
	if err != nil {
		return nil, err
	}
	return res.Einstein, nil
}

// Derive runs every stage.
func (d *Deriver) Derive(ctx context.Context, b Basis, s symbolic.Expr) (*Result, error) {
	return d.DeriveUntil(ctx, b, s, StageEinstein)
}

// DeriveUntil runs the pipeline up to and including last. The first failure
// stops the run and is returned as a *StageError.
func (d *Deriver) DeriveUntil(ctx context.Context, b Basis, s symbolic.Expr, last Stage) (*Result, error) {
	if last.order() < 0 {
		return nil, fmt.Errorf("tensor: cannot stop at stage %q", last)
	}
	res := &Result{RunID: uuid.New(), Basis: b, Potential: s.Simplify()}
	r := d.newRun(res.RunID)
	log := r.log.With(zap.Int("dim", b.Dim()))
	log.Info("derivation started", zap.String("potential", res.Potential.String()), zap.String("until", string(last)))
	start := time.Now()

	steps := []struct {
		stage Stage
		run   func() (int, error)
	}{
		{StageMetric, func() (n int, err error) {
			res.Metric, err = r.metric(ctx, b, res.Potential)
			return nonzeroMatrix(res.Metric, true), err
		}},
		{StageInverse, func() (n int, err error) {
			res.Inverse, err = r.inverse(ctx, res.Metric)
			return nonzeroMatrix(res.Inverse, true), err
		}},
		{StageConnection, func() (n int, err error) {
			res.Connection, err = r.connection(ctx, b, res.Metric, res.Inverse)
			if err != nil {
				return 0, err
			}
			return len(res.Connection.Nonzero()), nil
		}},
		{StageRiemann, func() (n int, err error) {
			res.Riemann, err = r.riemann(ctx, b, res.Connection)
			if err != nil {
				return 0, err
			}
			return len(res.Riemann.Nonzero()), nil
		}},
		{StageRicci, func() (n int, err error) {
			res.Ricci, err = r.ricci(ctx, res.Riemann)
			return nonzeroMatrix(res.Ricci, false), err
		}},
		{StageScalar, func() (n int, err error) {
			res.Scalar, err = r.scalar(ctx, res.Inverse, res.Ricci)
			if err != nil || symbolic.IsZeroNum(res.Scalar) {
				return 0, err
			}
			return 1, nil
		}},
		{StageEinstein, func() (n int, err error) {
			res.Einstein, err = r.einstein(ctx, res.Metric, res.Ricci, res.Scalar)
			return nonzeroMatrix(res.Einstein, false), err
		}},
	}
	for _, step := range steps {
		if step.stage.order() > last.order() {
			break
		}
		t0 := time.Now()
		nonzero, err := step.run()
		elapsed := time.Since(t0)
		if err != nil {
			log.Warn("stage failed", zap.String("stage", string(step.stage)), zap.Duration("duration", elapsed), zap.Error(err))
			return nil, err
		}
		res.Completed = step.stage
		res.Timings = append(res.Timings, StageTiming{Stage: step.stage, Duration: elapsed})
		log.Debug("stage complete",
			zap.String("stage", string(step.stage)),
			zap.Duration("duration", elapsed),
			zap.Int("nonzero", nonzero),
		)
	}
	log.Info("derivation complete",
		zap.String("stage", string(res.Completed)),
		zap.Duration("duration", time.Since(start)),
		zap.Int64("memo_hits", r.memo.hits.Load()),
		zap.Int64("memo_misses", r.memo.misses.Load()),
	)
	return res, nil
}

func nonzeroMatrix(m *symbolic.Matrix, symmetric bool) int {
	if m == nil {
		return 0
	}
	return len(MatrixNonzero(m, symmetric))
}

// Metric returns g_{μν} = ∂²S/∂x^μ∂x^ν. Only the upper half is
// differentiated and the lower half mirrors it, so g is exactly symmetric.
// A potential with a free symbol outside b, or one that applies abs, sign,
// floor or ceil, is a domain error.
func (d *Deriver) Metric(ctx context.Context, b Basis, s symbolic.Expr) (*symbolic.Matrix, error) {
	return d.newRun(uuid.New()).metric(ctx, b, s)
}

// Inverse returns g^{μν}. A determinant that is identically zero fails with
// ErrSingularMetric.
func (d *Deriver) Inverse(ctx context.Context, g *symbolic.Matrix) (*symbolic.Matrix, error) {
	return d.newRun(uuid.New()).inverse(ctx, g)
}

// Connection returns the Christoffel symbols of the second kind,
//
//	Γ^λ_{μν} = ½ Σ_κ g^{λκ} (∂_ν g_{κμ} + ∂_μ g_{κν} − ∂_κ g_{μν}).
//
// Only μ <= ν is computed.
func (d *Deriver) Connection(ctx context.Context, b Basis, g, ginv *symbolic.Matrix) (*Christoffel, error) {
	return d.newRun(uuid.New()).connection(ctx, b, g, ginv)
}

// Riemann returns
//
//	R^ρ_{σμν} = ∂_μ Γ^ρ_{σν} − ∂_ν Γ^ρ_{σμ} + Σ_κ Γ^ρ_{μκ} Γ^κ_{σν} − Σ_κ Γ^ρ_{νκ} Γ^κ_{σμ}.
//
// Only μ < ν is computed; the rest follows from antisymmetry.
func (d *Deriver) Riemann(ctx context.Context, b Basis, gamma *Christoffel) (*Riemann, error) {
	return d.newRun(uuid.New()).riemann(ctx, b, gamma)
}

// Ricci contracts the first and third indices: R_{μν} = Σ_λ R^λ_{μλν}.
// With this convention the unit sphere has positive scalar curvature.
func (d *Deriver) Ricci(ctx context.Context, riem *Riemann) (*symbolic.Matrix, error) {
	return d.newRun(uuid.New()).ricci(ctx, riem)
}

// Scalar returns R = Σ g^{μν} R_{μν}.
func (d *Deriver) Scalar(ctx context.Context, ginv, ric *symbolic.Matrix) (symbolic.Expr, error) {
	return d.newRun(uuid.New()).scalar(ctx, ginv, ric)
}

// Einstein returns G_{μν} = R_{μν} − ½ R g_{μν}.
func (d *Deriver) Einstein(ctx context.Context, g, ric *symbolic.Matrix, scalar symbolic.Expr) (*symbolic.Matrix, error) {
	return d.newRun(uuid.New()).einstein(ctx, g, ric, scalar)
}

type run struct {
	d    *Deriver
	memo *memo
	log  *zap.Logger
}

func (d *Deriver) newRun(id uuid.UUID) *run {
	return &run{d: d, memo: newMemo(d.maxTerms), log: d.log.With(zap.String("run_id", id.String()))}
}

// forEach runs fn for every index tuple on at most d.workers goroutines.
// Each call must write only the slots its tuple owns.
func (r *run) forEach(ctx context.Context, stage Stage, tuples [][]int, fn func(context.Context, []int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.d.workers)
	for _, idx := range tuples {
		idx := idx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return classify(stage, idx, err)
			}
			if err := fn(gctx, idx); err != nil {
				return classify(stage, idx, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func checkSquare(stage Stage, m *symbolic.Matrix, n int) error {
	if m == nil {
		return domainError(stage, "missing matrix")
	}
	if m.Rows() != n || m.Cols() != n {
		return domainError(stage, "matrix is %dx%d, want %dx%d", m.Rows(), m.Cols(), n, n)
	}
	return nil
}

func (r *run) metric(ctx context.Context, b Basis, s symbolic.Expr) (*symbolic.Matrix, error) {
	if b.Dim() == 0 {
		return nil, domainError(StageBasis, "coordinate basis is empty")
	}
	s = s.Simplify()
	for _, name := range symbolic.SymbolNames(s) {
		if _, ok := b.Index(name); !ok {
			return nil, domainError(StageMetric, "potential depends on %q, which is not a coordinate of %s", name, b)
		}
	}
	if ns := symbolic.NonSmooth(s); len(ns) > 0 {
		return nil, domainError(StageMetric, "potential applies %s, which is not differentiable everywhere", strings.Join(ns, ", "))
	}
	n := b.Dim()
	names := b.Names()
	grad := symbolic.Gradient(s, names)
	g := symbolic.NewMatrix(n, n)
	err := r.forEach(ctx, StageMetric, pairs(n, true), func(ctx context.Context, idx []int) error {
		i, j := idx[0], idx[1]
		v, err := r.memo.normalize(ctx, symbolic.Diff(grad[i], names[j]))
		if err != nil {
			return err
		}
		g.Set(i, j, v)
		g.Set(j, i, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *run) inverse(ctx context.Context, g *symbolic.Matrix) (*symbolic.Matrix, error) {
	if g == nil || g.Rows() != g.Cols() {
		return nil, domainError(StageInverse, "metric is not square")
	}
	inv, err := g.InverseContext(ctx, r.memo.simp)
	if err != nil {
		return nil, classify(StageInverse, nil, err)
	}
	return inv, nil
}

func (r *run) connection(ctx context.Context, b Basis, g, ginv *symbolic.Matrix) (*Christoffel, error) {
	n := b.Dim()
	if err := checkSquare(StageConnection, g, n); err != nil {
		return nil, err
	}
	if err := checkSquare(StageConnection, ginv, n); err != nil {
		return nil, err
	}
	names := b.Names()
	// dg[a] = ∂_a g
	dg := make([]*symbolic.Matrix, n)
	for a := range dg {
		dg[a] = g.ApplyDiff(names[a])
	}
	half := symbolic.Q(1, 2)
	gamma := newChristoffel(n)
	var tuples [][]int
	for l := 0; l < n; l++ {
		for _, p := range pairs(n, true) {
			tuples = append(tuples, []int{l, p[0], p[1]})
		}
	}
	err := r.forEach(ctx, StageConnection, tuples, func(ctx context.Context, idx []int) error {
		l, m, nu := idx[0], idx[1], idx[2]
		terms := make([]symbolic.Expr, 0, n)
		for k := 0; k < n; k++ {
			gi := ginv.Get(l, k)
			if symbolic.IsZeroNum(gi) {
				continue
			}
			bracket := symbolic.AddOf(dg[nu].Get(k, m), dg[m].Get(k, nu), symbolic.NegOf(dg[k].Get(m, nu)))
			if symbolic.IsZeroNum(bracket) {
				continue
			}
			terms = append(terms, symbolic.MulOf(gi, bracket))
		}
		v, err := r.memo.normalize(ctx, symbolic.MulOf(half, symbolic.AddOf(terms...)))
		if err != nil {
			return err
		}
		gamma.setSymmetric(l, m, nu, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gamma, nil
}

func (r *run) riemann(ctx context.Context, b Basis, gamma *Christoffel) (*Riemann, error) {
	n := b.Dim()
	if gamma == nil || gamma.Dim() != n {
		return nil, domainError(StageRiemann, "connection does not match a basis of dimension %d", n)
	}
	names := b.Names()
	riem := newRiemann(n)
	var tuples [][]int
	for rho := 0; rho < n; rho++ {
		for sigma := 0; sigma < n; sigma++ {
			for mu := 0; mu < n; mu++ {
				for nu := mu + 1; nu < n; nu++ {
					tuples = append(tuples, []int{rho, sigma, mu, nu})
				}
			}
		}
	}
	product := func(a, c symbolic.Expr) symbolic.Expr {
		if symbolic.IsZeroNum(a) || symbolic.IsZeroNum(c) {
			return nil
		}
		return symbolic.MulOf(a, c)
	}
	err := r.forEach(ctx, StageRiemann, tuples, func(ctx context.Context, idx []int) error {
		rho, sigma, mu, nu := idx[0], idx[1], idx[2], idx[3]
		terms := []symbolic.Expr{
			symbolic.Diff(gamma.At(rho, sigma, nu), names[mu]),
			symbolic.NegOf(symbolic.Diff(gamma.At(rho, sigma, mu), names[nu])),
		}
		for k := 0; k < n; k++ {
			if p := product(gamma.At(rho, mu, k), gamma.At(k, sigma, nu)); p != nil {
				terms = append(terms, p)
			}
			if p := product(gamma.At(rho, nu, k), gamma.At(k, sigma, mu)); p != nil {
				terms = append(terms, symbolic.NegOf(p))
			}
		}
		v, err := r.memo.normalize(ctx, symbolic.AddOf(terms...))
		if err != nil {
			return err
		}
		riem.setAntisymmetric(rho, sigma, mu, nu, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return riem, nil
}

func (r *run) ricci(ctx context.Context, riem *Riemann) (*symbolic.Matrix, error) {
	if riem == nil {
		return nil, domainError(StageRicci, "missing Riemann tensor")
	}
	n := riem.Dim()
	ric := symbolic.NewMatrix(n, n)
	err := r.forEach(ctx, StageRicci, pairs(n, false), func(ctx context.Context, idx []int) error {
		mu, nu := idx[0], idx[1]
		terms := make([]symbolic.Expr, n)
		for l := 0; l < n; l++ {
			terms[l] = riem.At(l, mu, l, nu)
		}
		v, err := r.memo.normalize(ctx, symbolic.AddOf(terms...))
		if err != nil {
			return err
		}
		ric.Set(mu, nu, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ric, nil
}

func (r *run) scalar(ctx context.Context, ginv, ric *symbolic.Matrix) (symbolic.Expr, error) {
	if ric == nil {
		return nil, domainError(StageScalar, "missing Ricci tensor")
	}
	n := ric.Rows()
	if err := checkSquare(StageScalar, ginv, n); err != nil {
		return nil, err
	}
	var terms []symbolic.Expr
	for mu := 0; mu < n; mu++ {
		for nu := 0; nu < n; nu++ {
			terms = append(terms, symbolic.MulOf(ginv.Get(mu, nu), ric.Get(mu, nu)))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, classify(StageScalar, nil, err)
	}
	v, err := r.memo.normalize(ctx, symbolic.AddOf(terms...))
	if err != nil {
		return nil, classify(StageScalar, nil, err)
	}
	return v, nil
}

func (r *run) einstein(ctx context.Context, g, ric *symbolic.Matrix, scalar symbolic.Expr) (*symbolic.Matrix, error) {
	if ric == nil || scalar == nil {
		return nil, domainError(StageEinstein, "missing Ricci tensor or scalar")
	}
	n := ric.Rows()
	if err := checkSquare(StageEinstein, g, n); err != nil {
		return nil, err
	}
	halfR := symbolic.MulOf(symbolic.Q(1, 2), scalar)
	ein := symbolic.NewMatrix(n, n)
	err := r.forEach(ctx, StageEinstein, pairs(n, false), func(ctx context.Context, idx []int) error {
		mu, nu := idx[0], idx[1]
		v, err := r.memo.normalize(ctx, symbolic.SubOf(ric.Get(mu, nu), symbolic.MulOf(halfR, g.Get(mu, nu))))
		if err != nil {
			return err
		}
		ein.Set(mu, nu, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ein, nil
}
