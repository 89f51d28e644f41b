package symbolic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/njchilds90/gocurvature/symbolic"
)

func sq(e symbolic.Expr) symbolic.Expr { return symbolic.PowOf(e, symbolic.N(2)) }

func TestIsZero_Identities(t *testing.T) {
	one := symbolic.N(1)
	tests := []struct {
		name string
		e    symbolic.Expr
	}{
		{"pythagoras", symbolic.AddOf(sq(symbolic.SinOf(x)), sq(symbolic.CosOf(x)), symbolic.N(-1))},
		{"hyperbolic", symbolic.AddOf(sq(symbolic.CoshOf(x)), symbolic.NegOf(sq(symbolic.SinhOf(x))), symbolic.N(-1))},
		{"binomial", symbolic.SubOf(sq(symbolic.AddOf(x, one)), symbolic.AddOf(sq(x), symbolic.MulOf(symbolic.N(2), x), one))},
		{"common denominator", symbolic.AddOf(
			symbolic.DivOf(x, symbolic.AddOf(x, one)),
			symbolic.DivOf(one, symbolic.AddOf(x, one)),
			symbolic.N(-1),
		)},
		{"tangent", symbolic.SubOf(symbolic.TanOf(x), symbolic.DivOf(symbolic.SinOf(x), symbolic.CosOf(x)))},
		{"secant", symbolic.AddOf(
			symbolic.PowOf(symbolic.CosOf(x), symbolic.N(-2)),
			symbolic.N(-1),
			symbolic.NegOf(sq(symbolic.TanOf(x))),
		)},
		{"exponential", symbolic.SubOf(symbolic.ExpOf(symbolic.MulOf(symbolic.N(2), x)), sq(symbolic.ExpOf(x)))},
		{"exponential sum", symbolic.SubOf(symbolic.ExpOf(symbolic.AddOf(x, y)), symbolic.MulOf(symbolic.ExpOf(x), symbolic.ExpOf(y)))},
		{"undefined functions", symbolic.SubOf(
			symbolic.MulOf(symbolic.Apply("f", x), symbolic.AddOf(y, one)),
			symbolic.AddOf(symbolic.MulOf(symbolic.Apply("f", x), y), symbolic.Apply("f", x)),
		)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !symbolic.IsZero(tc.e) {
				t.Errorf("expected identically zero: %s", tc.e)
			}
		})
	}
}

func TestIsZero_NonZero(t *testing.T) {
	tests := []symbolic.Expr{
		symbolic.SubOf(x, y),
		symbolic.AddOf(sq(symbolic.SinOf(x)), sq(symbolic.CosOf(x))),
		symbolic.DivOf(symbolic.N(1), x),
		symbolic.SinOf(x),
	}
	for _, e := range tests {
		if symbolic.IsZero(e) {
			t.Errorf("%s is not identically zero", e)
		}
	}
}

func TestNormalize_Cancels(t *testing.T) {
	one := symbolic.N(1)
	e := symbolic.DivOf(symbolic.SubOf(sq(x), one), symbolic.SubOf(x, one))
	got, err := symbolic.Simplifier{}.Normalize(e)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.String() != "x + 1" {
		t.Errorf("want x + 1, got %s", got)
	}
}

func TestNormalize_CollapsesSum(t *testing.T) {
	one := symbolic.N(1)
	e := symbolic.AddOf(symbolic.DivOf(x, symbolic.AddOf(x, one)), symbolic.DivOf(one, symbolic.AddOf(x, one)))
	if got := symbolic.Normalize(e); got.String() != "1" {
		t.Errorf("want 1, got %s", got)
	}
}

func TestNormalize_KeepsShortForm(t *testing.T) {
	e := symbolic.MulOf(symbolic.SinOf(x), symbolic.CosOf(y))
	if got := symbolic.Normalize(e); !got.Equal(e) {
		t.Errorf("already minimal expression changed: %s", got)
	}
}

func TestExpand(t *testing.T) {
	e := sq(symbolic.AddOf(x, y))
	want := symbolic.AddOf(sq(x), symbolic.MulOf(symbolic.N(2), x, y), sq(y))
	if got := symbolic.Expand(e); !got.Equal(want) {
		t.Errorf("want %s, got %s", want, got)
	}
}

func TestSimplifier_TermBudget(t *testing.T) {
	e := symbolic.PowOf(symbolic.AddOf(x, y, z), symbolic.N(6))
	_, err := symbolic.Simplifier{MaxTerms: 5}.Normalize(e)
	if !errors.Is(err, symbolic.ErrTooLarge) {
		t.Fatalf("want ErrTooLarge, got %v", err)
	}
	if !symbolic.IsZero(symbolic.SubOf(e, e)) {
		t.Error("e - e must be zero under the default budget")
	}
}

func TestSimplifier_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := symbolic.Simplifier{}.NormalizeContext(ctx, symbolic.AddOf(x, y))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	_, err = symbolic.Simplifier{}.IsZeroContext(ctx, x)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestSimplifier_DivisionByZero(t *testing.T) {
	one := symbolic.N(1)
	hidden := symbolic.SubOf(sq(symbolic.AddOf(x, one)), symbolic.AddOf(sq(x), symbolic.MulOf(symbolic.N(2), x), one))
	_, err := symbolic.Simplifier{}.Normalize(symbolic.PowOf(hidden, symbolic.N(-1)))
	if !errors.Is(err, symbolic.ErrDivisionByZero) {
		t.Fatalf("want ErrDivisionByZero, got %v", err)
	}
}
