package symbolic

import (
	"errors"
	"fmt"
	"math"
)

// ============================================================
// Numeric evaluation
// ============================================================

var (
	// ErrUnbound is returned by Evalf for a symbol missing from the
	// environment or a function without a numeric definition.
	ErrUnbound = errors.New("symbolic: unbound name")
	// ErrNotFinite is returned when evaluation produces NaN or ±Inf.
	ErrNotFinite = errors.New("symbolic: value is not finite")
)

// Evalf evaluates e in float64 with symbols bound by env. The expression
// itself stays exact; only this evaluation rounds.
func Evalf(e Expr, env map[string]float64) (float64, error) {
	v, err := evalf(e, env)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s", ErrNotFinite, e.String())
	}
	return v, nil
}

func evalf(e Expr, env map[string]float64) (float64, error) {
	switch v := e.(type) {
	case *Num:
		return v.Float64(), nil
	case *Sym:
		x, ok := env[v.name]
		if !ok {
			return 0, fmt.Errorf("%w: symbol %q", ErrUnbound, v.name)
		}
		return x, nil
	case *Add:
		sum := 0.0
		for _, t := range v.terms {
			x, err := evalf(t, env)
			if err != nil {
				return 0, err
			}
			sum += x
		}
		return sum, nil
	case *Mul:
		prod := 1.0
		for _, f := range v.factors {
			x, err := evalf(f, env)
			if err != nil {
				return 0, err
			}
			prod *= x
		}
		return prod, nil
	case *Pow:
		b, err := evalf(v.base, env)
		if err != nil {
			return 0, err
		}
		x, err := evalf(v.exp, env)
		if err != nil {
			return 0, err
		}
		return math.Pow(b, x), nil
	case *Func:
		x, err := evalf(v.arg, env)
		if err != nil {
			return 0, err
		}
		fn, ok := floatFuncs[v.name]
		if !ok {
			return 0, fmt.Errorf("%w: function %q", ErrUnbound, v.name)
		}
		return fn(x), nil
	}
	return 0, fmt.Errorf("symbolic: cannot evaluate %s", e.exprType())
}

var floatFuncs = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"exp":   math.Exp,
	"ln":    math.Log,
	"abs":   math.Abs,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"sign": func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	},
}
