package symbolic

import (
	"math/big"
	"strings"
)

// ============================================================
// Func — named function applications
// ============================================================

type Func struct {
	name  string
	arg   Expr
	canon bool
	str   string
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func newFunc(name string, arg Expr) *Func {
	f := &Func{name: name, arg: arg, canon: true}
	f.str = name + "(" + arg.String() + ")"
	return f
}

func SinOf(arg Expr) Expr   { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr   { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr   { return funcOf("tan", arg).Simplify() }
func ExpOf(arg Expr) Expr   { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr    { return funcOf("ln", arg).Simplify() }
func AbsOf(arg Expr) Expr   { return funcOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr  { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr  { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr  { return funcOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr  { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr  { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr  { return funcOf("tanh", arg).Simplify() }
func FloorOf(arg Expr) Expr { return funcOf("floor", arg).Simplify() }
func CeilOf(arg Expr) Expr  { return funcOf("ceil", arg).Simplify() }
func SignOf(arg Expr) Expr  { return funcOf("sign", arg).Simplify() }

// Apply applies a named function to arg. Names outside the built-in set are
// undefined functions: they differentiate to D[name](arg) by the chain rule
// and never evaluate.
func Apply(name string, arg Expr) Expr { return funcOf(name, arg).Simplify() }

var builtinFuncs = map[string]bool{
	"sin": true, "cos": true, "tan": true, "exp": true, "ln": true,
	"asin": true, "acos": true, "atan": true, "sinh": true, "cosh": true, "tanh": true,
	"abs": true, "sign": true, "floor": true, "ceil": true,
}

// nonSmoothFuncs have no derivative at some point of every neighbourhood
// they are applied on.
var nonSmoothFuncs = map[string]bool{"abs": true, "sign": true, "floor": true, "ceil": true}

// IsBuiltin reports whether name is a built-in function.
func IsBuiltin(name string) bool { return builtinFuncs[name] }

// Simplify folds exact values only (sin(0), exp(0), ln(1), ...); numeric
// arguments never collapse to floats.
func (f *Func) Simplify() Expr {
	if f.canon {
		return f
	}
	arg := f.arg.Simplify()
	if pos, ok := negated(arg); ok {
		switch f.name {
		case "sin", "tan", "sinh", "tanh", "asin", "atan", "sign":
			return MulOf(N(-1), funcOf(f.name, pos).Simplify())
		case "cos", "cosh", "abs":
			return funcOf(f.name, pos).Simplify()
		}
	}
	if n, ok := arg.(*Num); ok {
		if v, ok := foldExact(f.name, n); ok {
			return v
		}
	}
	switch f.name {
	case "ln":
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "exp":
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
	case "abs":
		if inner, ok := arg.(*Func); ok && inner.name == "abs" {
			return inner
		}
	}
	return newFunc(f.name, arg)
}

func foldExact(name string, n *Num) (Expr, bool) {
	switch name {
	case "sin", "tan", "sinh", "tanh", "asin", "atan":
		if n.IsZero() {
			return N(0), true
		}
	case "cos", "cosh", "exp":
		if n.IsZero() {
			return N(1), true
		}
	case "ln":
		if n.IsOne() {
			return N(0), true
		}
	case "acos":
		if n.IsOne() {
			return N(0), true
		}
	case "abs":
		if n.IsNegative() {
			return numNeg(n), true
		}
		return n, true
	case "sign":
		return N(int64(n.val.Sign())), true
	case "floor":
		return &Num{val: new(big.Rat).SetInt(floorRat(n.val))}, true
	case "ceil":
		neg := new(big.Rat).Neg(n.val)
		return &Num{val: new(big.Rat).SetInt(new(big.Int).Neg(floorRat(neg)))}, true
	}
	return nil, false
}

// floorRat relies on big.Int.Div being Euclidean: with a positive
// denominator the quotient is the floor.
func floorRat(r *big.Rat) *big.Int {
	return new(big.Int).Div(r.Num(), r.Denom())
}

// negated returns -e when e carries a negative numeric coefficient.
func negated(e Expr) (Expr, bool) {
	switch v := e.(type) {
	case *Num:
		if v.IsNegative() {
			return numNeg(v), true
		}
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok && c.IsNegative() {
			_, rest := splitCoeff(v)
			return withCoeff(numNeg(c), rest), true
		}
	}
	return nil, false
}

func (f *Func) String() string {
	if f.canon {
		return f.str
	}
	return f.name + "(" + f.arg.String() + ")"
}

func (f *Func) LaTeX() string {
	switch f.name {
	case "sin", "cos", "tan", "exp", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "ln":
		return "\\ln\\left(" + f.arg.LaTeX() + "\\right)"
	case "asin":
		return "\\arcsin\\left(" + f.arg.LaTeX() + "\\right)"
	case "acos":
		return "\\arccos\\left(" + f.arg.LaTeX() + "\\right)"
	case "atan":
		return "\\arctan\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	case "floor":
		return "\\lfloor " + f.arg.LaTeX() + " \\rfloor"
	case "ceil":
		return "\\lceil " + f.arg.LaTeX() + " \\rceil"
	case "sign":
		return "\\operatorname{sign}\\left(" + f.arg.LaTeX() + "\\right)"
	}
	name, primes := derivativeOrder(f.name)
	if primes > 0 {
		return name + strings.Repeat("'", primes) + "\\left(" + f.arg.LaTeX() + "\\right)"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

// derivativeOrder unwraps D[D[f]] into ("f", 2).
func derivativeOrder(name string) (string, int) {
	n := 0
	for strings.HasPrefix(name, "D[") && strings.HasSuffix(name, "]") {
		name = name[2 : len(name)-1]
		n++
	}
	return name, n
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

// Diff uses sign(u) for abs and zero for sign, floor and ceil, which holds
// away from their jumps.
func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	if IsZeroNum(du) {
		return N(0)
	}
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(f.arg))
	case "tan":
		outer = AddOf(N(1), PowOf(TanOf(f.arg), N(2)))
	case "exp":
		outer = ExpOf(f.arg)
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "asin":
		outer = PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(TanhOf(f.arg), N(2))))
	case "abs":
		outer = SignOf(f.arg)
	case "sign", "floor", "ceil":
		return N(0)
	default:
		outer = funcOf("D["+f.name+"]", f.arg).Simplify()
	}
	return MulOf(outer, du)
}

// Eval is exact; every exactly foldable application is already folded.
func (f *Func) Eval() (*Num, bool) { return nil, false }

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }
