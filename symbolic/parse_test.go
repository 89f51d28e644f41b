package symbolic_test

import (
	"errors"
	"testing"

	"github.com/njchilds90/gocurvature/symbolic"
)

func TestParse(t *testing.T) {
	tests := []struct {
		src  string
		want symbolic.Expr
	}{
		{"x^2 + 3*x + 1", symbolic.AddOf(sq(x), symbolic.MulOf(symbolic.N(3), x), symbolic.N(1))},
		{"2**3", symbolic.N(8)},
		{"-x^2", symbolic.NegOf(sq(x))},
		{"2^-1", symbolic.F(1, 2)},
		{"0.25", symbolic.F(1, 4)},
		{"x/y", symbolic.DivOf(x, y)},
		{"x - y - z", symbolic.AddOf(x, symbolic.NegOf(y), symbolic.NegOf(z))},
		{"2^3^2", symbolic.N(512)},
		{"f(x)", symbolic.Apply("f", x)},
		{"sqrt(4)", symbolic.N(2)},
		{"log(x)", symbolic.LnOf(x)},
		{"exp(t) + sin(x)^2 + cos(y) + z^2", symbolic.AddOf(
			symbolic.ExpOf(symbolic.S("t")), sq(symbolic.SinOf(x)), symbolic.CosOf(y), sq(z),
		)},
		{"(x + y) * (x - y)", symbolic.MulOf(symbolic.AddOf(x, y), symbolic.SubOf(x, y))},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			got, err := symbolic.Parse(tc.src)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.src, err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("Parse(%q): want %s, got %s", tc.src, tc.want, got)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{"", "x +", "(x", "x y", "sin(", "3 $ 4"} {
		_, err := symbolic.Parse(src)
		var pe *symbolic.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q): want *ParseError, got %v", src, err)
		}
	}
}

func TestParse_ErrorOffset(t *testing.T) {
	_, err := symbolic.Parse("x + * y")
	var pe *symbolic.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError, got %v", err)
	}
	if pe.Pos != 4 {
		t.Errorf("want offset 4, got %d", pe.Pos)
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	symbolic.MustParse("(")
}
