package symbolic

import "errors"

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

var (
	// ErrTooLarge is returned when normalization exceeds the term budget.
	ErrTooLarge = errors.New("symbolic: expression too large")
	// ErrSingular is returned by Inverse when the determinant is identically zero.
	ErrSingular = errors.New("symbolic: matrix is singular")
	// ErrNotSquare is returned by operations that need a square matrix.
	ErrNotSquare = errors.New("symbolic: matrix is not square")
	// ErrDivisionByZero is returned when normalization meets 1/0.
	ErrDivisionByZero = errors.New("symbolic: division by zero")
)

// ============================================================
// Top-level convenience functions
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

// SubOf returns a - b.
func SubOf(a, b Expr) Expr { return AddOf(a, MulOf(N(-1), b)) }

// DivOf returns a / b.
func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

// NegOf returns -a.
func NegOf(a Expr) Expr { return MulOf(N(-1), a) }

// IsZeroNum reports whether e is the literal number zero.
func IsZeroNum(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsZero()
}
