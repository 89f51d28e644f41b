package symbolic

// ============================================================
// Partial Derivatives and Vector Calculus
// ============================================================

// Gradient returns the gradient ∇f as a slice of partial derivatives.
func Gradient(expr Expr, varNames []string) []Expr {
	result := make([]Expr, len(varNames))
	for i, v := range varNames {
		result[i] = Diff(expr, v)
	}
	return result
}

// Hessian returns the n×n matrix of second partial derivatives. Only the
// upper half is differentiated; the lower half is its mirror, so the result
// is structurally symmetric.
func Hessian(expr Expr, varNames []string) *Matrix {
	n := len(varNames)
	grad := Gradient(expr, varNames)
	mat := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := Diff(grad[i], varNames[j])
			mat.Set(i, j, d)
			mat.Set(j, i, d)
		}
	}
	return mat
}
