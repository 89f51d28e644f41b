package tensor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/njchilds90/gocurvature/symbolic"
	"github.com/njchilds90/gocurvature/tensor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func basis(t *testing.T, names ...string) tensor.Basis {
	t.Helper()
	b, err := tensor.NewBasis(names...)
	require.NoError(t, err)
	return b
}

// requireSame asserts that got - want simplifies to zero.
func requireSame(t *testing.T, want, got symbolic.Expr) {
	t.Helper()
	require.NotNil(t, got)
	zero, err := symbolic.Simplifier{}.IsZero(symbolic.SubOf(got, want))
	require.NoError(t, err)
	require.True(t, zero, "want %s, got %s", want, got)
}

func requireZeroMatrix(t *testing.T, m *symbolic.Matrix) {
	t.Helper()
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			requireSame(t, symbolic.N(0), m.Get(i, j))
		}
	}
}

func requireSymmetric(t *testing.T, m *symbolic.Matrix) {
	t.Helper()
	for i := 0; i < m.Rows(); i++ {
		for j := i + 1; j < m.Cols(); j++ {
			requireSame(t, m.Get(i, j), m.Get(j, i))
		}
	}
}

func derive(t *testing.T, b tensor.Basis, s symbolic.Expr, opts ...tensor.Option) (*tensor.Result, error) {
	t.Helper()
	opts = append([]tensor.Option{tensor.WithLogger(zap.NewNop())}, opts...)
	return tensor.New(opts...).Derive(context.Background(), b, s)
}

// Flat paraboloid: every curvature quantity vanishes exactly.
func TestDerive_Paraboloid(t *testing.T) {
	b := basis(t, "x0", "x1", "x2", "x3")
	s := symbolic.MustParse("x0^2 + x1^2 + x2^2 + x3^2")

	res, err := derive(t, b, s)
	require.NoError(t, err)

	two := symbolic.N(2)
	want := symbolic.NewMatrix(4, 4)
	for i := 0; i < 4; i++ {
		want.Set(i, i, two)
	}
	assert.True(t, res.Metric.Equal(want), "metric: %s", res.Metric)
	assert.Empty(t, res.Connection.Nonzero())
	assert.Empty(t, res.Riemann.Nonzero())
	assert.True(t, symbolic.IsZeroNum(res.Scalar), "scalar: %s", res.Scalar)
	assert.Empty(t, tensor.MatrixNonzero(res.Ricci, false))
	assert.Empty(t, tensor.MatrixNonzero(res.Einstein, false))
	assert.Equal(t, tensor.StageEinstein, res.Completed)
	assert.Len(t, res.Timings, len(tensor.Stages))
}

// A sum of one-variable functions gives a diagonal metric; Christoffel
// symbols with three distinct indices vanish.
func TestDerive_SeparableUndefinedFunctions(t *testing.T) {
	b := basis(t, "x0", "x1", "x2", "x3")
	s := symbolic.AddOf(
		symbolic.Apply("f", symbolic.S("x0")),
		symbolic.Apply("g", symbolic.S("x1")),
		symbolic.Apply("h", symbolic.S("x2")),
		symbolic.Apply("k", symbolic.S("x3")),
	)

	res, err := derive(t, b, s)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i != j {
				assert.True(t, symbolic.IsZeroNum(res.Metric.Get(i, j)), "g[%d,%d] = %s", i, j, res.Metric.Get(i, j))
			}
		}
		assert.False(t, symbolic.IsZeroNum(res.Metric.Get(i, i)), "g[%d,%d] is zero", i, i)
	}
	for l := 0; l < 4; l++ {
		for m := 0; m < 4; m++ {
			for n := 0; n < 4; n++ {
				if l != m && m != n && l != n {
					assert.True(t, symbolic.IsZeroNum(res.Connection.At(l, m, n)), "Γ[%d,%d,%d] = %s", l, m, n, res.Connection.At(l, m, n))
				}
			}
		}
	}
	requireZeroMatrix(t, res.Einstein)
}

func TestDerive_SingularMetric(t *testing.T) {
	b := basis(t, "x0", "x1")
	_, err := derive(t, b, symbolic.MustParse("x0 + x1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tensor.ErrSingularMetric))
	assert.True(t, errors.Is(err, symbolic.ErrSingular))

	var se *tensor.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, tensor.StageInverse, se.Stage)
}

// Reference potential in four dimensions. The Hessian is diagonal with each
// entry depending on its own coordinate, so the space is a product of lines
// and flat.
func TestDerive_ReferencePotential(t *testing.T) {
	b := basis(t, "t", "x", "y", "z")
	s := symbolic.MustParse("exp(t) + sin(x)^2 + cos(y) + z^2")

	res, err := derive(t, b, s, tensor.WithWorkers(2))
	require.NoError(t, err)

	x, y, tt := symbolic.S("x"), symbolic.S("y"), symbolic.S("t")
	requireSame(t, symbolic.ExpOf(tt), res.Metric.Get(0, 0))
	requireSame(t, symbolic.SubOf(
		symbolic.MulOf(symbolic.N(2), symbolic.PowOf(symbolic.CosOf(x), symbolic.N(2))),
		symbolic.MulOf(symbolic.N(2), symbolic.PowOf(symbolic.SinOf(x), symbolic.N(2))),
	), res.Metric.Get(1, 1))
	requireSame(t, symbolic.NegOf(symbolic.CosOf(y)), res.Metric.Get(2, 2))
	requireSame(t, symbolic.N(2), res.Metric.Get(3, 3))

	product := res.Metric.MatMul(res.Inverse).MatSub(symbolic.Identity(4))
	requireZeroMatrix(t, product)

	require.Equal(t, 4, res.Einstein.Rows())
	require.Equal(t, 4, res.Einstein.Cols())
	requireSymmetric(t, res.Einstein)
	requireZeroMatrix(t, res.Einstein)
}

// In two dimensions G vanishes identically while the scalar curvature need
// not.
func TestDerive_NonSeparable2D(t *testing.T) {
	b := basis(t, "x", "y")
	s := symbolic.MustParse("x^4 + x*y^2")

	res, err := derive(t, b, s)
	require.NoError(t, err)

	assert.Equal(t, "[[12*x^2, 2*y], [2*y, 2*x]]", res.Metric.String())
	requireSymmetric(t, res.Metric)
	requireSymmetric(t, res.Inverse)

	for l := 0; l < 2; l++ {
		for m := 0; m < 2; m++ {
			for n := 0; n < 2; n++ {
				requireSame(t, res.Connection.At(l, m, n), res.Connection.At(l, n, m))
			}
		}
	}
	for rho := 0; rho < 2; rho++ {
		for sigma := 0; sigma < 2; sigma++ {
			for mu := 0; mu < 2; mu++ {
				requireSame(t, symbolic.N(0), res.Riemann.At(rho, sigma, mu, mu))
				for nu := 0; nu < 2; nu++ {
					requireSame(t, symbolic.NegOf(res.Riemann.At(rho, sigma, mu, nu)), res.Riemann.At(rho, sigma, nu, mu))
				}
			}
		}
	}
	requireSymmetric(t, res.Ricci)

	zero, err := symbolic.Simplifier{}.IsZero(res.Scalar)
	require.NoError(t, err)
	assert.False(t, zero, "scalar curvature vanished: %s", res.Scalar)

	requireSymmetric(t, res.Einstein)
	requireZeroMatrix(t, res.Einstein)
}

// The unit sphere pins the Ricci convention: contracting the first and third
// indices gives R = +2.
func TestStages_UnitSphere(t *testing.T) {
	ctx := context.Background()
	b := basis(t, "theta", "phi")
	theta := symbolic.S("theta")
	sin2 := symbolic.PowOf(symbolic.SinOf(theta), symbolic.N(2))
	g := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{
		symbolic.N(1), symbolic.N(0),
		symbolic.N(0), sin2,
	})
	d := tensor.New()

	ginv, err := d.Inverse(ctx, g)
	require.NoError(t, err)
	requireSame(t, symbolic.PowOf(symbolic.SinOf(theta), symbolic.N(-2)), ginv.Get(1, 1))

	gamma, err := d.Connection(ctx, b, g, ginv)
	require.NoError(t, err)
	requireSame(t, symbolic.NegOf(symbolic.MulOf(symbolic.SinOf(theta), symbolic.CosOf(theta))), gamma.At(0, 1, 1))
	requireSame(t, symbolic.DivOf(symbolic.CosOf(theta), symbolic.SinOf(theta)), gamma.At(1, 0, 1))
	requireSame(t, gamma.At(1, 0, 1), gamma.At(1, 1, 0))

	riem, err := d.Riemann(ctx, b, gamma)
	require.NoError(t, err)
	requireSame(t, sin2, riem.At(0, 1, 0, 1))
	requireSame(t, symbolic.NegOf(sin2), riem.At(0, 1, 1, 0))

	ric, err := d.Ricci(ctx, riem)
	require.NoError(t, err)
	requireSame(t, symbolic.N(1), ric.Get(0, 0))
	requireSame(t, sin2, ric.Get(1, 1))

	scalar, err := d.Scalar(ctx, ginv, ric)
	require.NoError(t, err)
	requireSame(t, symbolic.N(2), scalar)

	ein, err := d.Einstein(ctx, g, ric, scalar)
	require.NoError(t, err)
	requireZeroMatrix(t, ein)
}

func TestDerive_DomainErrors(t *testing.T) {
	b := basis(t, "x", "y")
	tests := []struct {
		name      string
		potential symbolic.Expr
	}{
		{"foreign symbol", symbolic.MustParse("x^2 + a*y^2")},
		{"abs", symbolic.MulOf(symbolic.AbsOf(symbolic.S("x")), symbolic.S("y"))},
		{"floor", symbolic.FloorOf(symbolic.S("x"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := derive(t, b, tt.potential)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tensor.ErrDomain), "got %v", err)

			var se *tensor.StageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tensor.StageMetric, se.Stage)
		})
	}
}

func TestNewBasis_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{"empty", nil},
		{"duplicate", []string{"x", "y", "x"}},
		{"not an identifier", []string{"x", "2y"}},
		{"blank", []string{""}},
		{"builtin", []string{"sin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tensor.NewBasis(tt.names...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tensor.ErrDomain))

			var se *tensor.StageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tensor.StageBasis, se.Stage)
		})
	}
}

func TestBasis_Accessors(t *testing.T) {
	b := basis(t, "t", "x")
	names := b.Names()
	names[0] = "mutated"
	assert.Equal(t, "t", b.Name(0))
	assert.Equal(t, 2, b.Dim())
	assert.Equal(t, "(t, x)", b.String())
	assert.True(t, b.Symbol(1).Equal(symbolic.S("x")))

	i, ok := b.Index("x")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = b.Index("y")
	assert.False(t, ok)
}

func TestDerive_TermBudget(t *testing.T) {
	b := basis(t, "x", "y")
	_, err := derive(t, b, symbolic.MustParse("(x + y)^4"), tensor.WithMaxTerms(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tensor.ErrResourceExhausted))
	assert.True(t, errors.Is(err, symbolic.ErrTooLarge))

	var se *tensor.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, tensor.StageMetric, se.Stage)
	assert.Len(t, se.Index, 2)
}

func TestDerive_ExpiredContext(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	b := basis(t, "x", "y")
	_, err := tensor.New().Derive(ctx, b, symbolic.MustParse("x^2*y^2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tensor.ErrResourceExhausted))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestDeriveUntil(t *testing.T) {
	b := basis(t, "x", "y")
	res, err := tensor.New().DeriveUntil(context.Background(), b, symbolic.MustParse("x^2 + y^2"), tensor.StageConnection)
	require.NoError(t, err)
	assert.Equal(t, tensor.StageConnection, res.Completed)
	assert.NotNil(t, res.Connection)
	assert.Nil(t, res.Riemann)
	assert.Nil(t, res.Einstein)
	assert.Len(t, res.Timings, 3)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", res.RunID.String())

	_, err = tensor.New().DeriveUntil(context.Background(), b, symbolic.S("x"), tensor.StageBasis)
	assert.Error(t, err)
}

func TestEinsteinTensor(t *testing.T) {
	b := basis(t, "x", "y")
	g, err := tensor.EinsteinTensor(context.Background(), b, symbolic.MustParse("x^4 + x*y^2"))
	require.NoError(t, err)
	assert.Equal(t, "[[0, 0], [0, 0]]", g.String())
}

func TestStages_RejectMismatchedInputs(t *testing.T) {
	ctx := context.Background()
	d := tensor.New()
	b := basis(t, "x", "y", "z")
	g := symbolic.Identity(2)

	_, err := d.Connection(ctx, b, g, g)
	assert.True(t, errors.Is(err, tensor.ErrDomain))

	_, err = d.Inverse(ctx, symbolic.NewMatrix(2, 3))
	assert.True(t, errors.Is(err, tensor.ErrDomain))

	_, err = d.Ricci(ctx, nil)
	assert.True(t, errors.Is(err, tensor.ErrDomain))
}

func TestStageError_Format(t *testing.T) {
	err := &tensor.StageError{
		Stage: tensor.StageConnection,
		Index: []int{1, 0, 2},
		Kind:  tensor.ErrResourceExhausted,
		Err:   context.DeadlineExceeded,
	}
	assert.Equal(t, "einstein: connection Γ[1,0,2]: resource exhausted: context deadline exceeded", err.Error())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	bare := &tensor.StageError{Stage: tensor.StageInverse, Kind: tensor.ErrSingularMetric}
	assert.Equal(t, "einstein: inverse: singular metric", bare.Error())
}

func TestParseStage(t *testing.T) {
	for _, st := range tensor.Stages {
		got, err := tensor.ParseStage(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := tensor.ParseStage("torsion")
	assert.Error(t, err)
}
