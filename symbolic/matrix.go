package symbolic

import (
	"context"
	"fmt"
	"strings"
)

// ============================================================
// Matrix — symbolic matrix
// ============================================================

type Matrix struct {
	rows, cols int
	data       [][]Expr
}

func NewMatrix(rows, cols int) *Matrix {
	data := make([][]Expr, rows)
	for i := range data {
		data[i] = make([]Expr, cols)
		for j := range data[i] {
			data[i][j] = N(0)
		}
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

func MatrixFromSlice(rows, cols int, entries []Expr) *Matrix {
	if len(entries) != rows*cols {
		panic(fmt.Sprintf("symbolic: MatrixFromSlice needs %d entries, got %d", rows*cols, len(entries)))
	}
	m := NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.data[i][j] = entries[i*cols+j].Simplify()
		}
	}
	return m
}

func (m *Matrix) checkBounds(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("symbolic: matrix index out of range [%d,%d] for %dx%d", row, col, m.rows, m.cols))
	}
}

func (m *Matrix) Get(row, col int) Expr {
	m.checkBounds(row, col)
	return m.data[row][col]
}
func (m *Matrix) Set(row, col int, val Expr) {
	m.checkBounds(row, col)
	m.data[row][col] = val
}
func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.data[i][j].String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

func (m *Matrix) LaTeX() string {
	var sb strings.Builder
	sb.WriteString("\\begin{pmatrix}")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(" \\\\ ")
		}
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(" & ")
			}
			sb.WriteString(m.data[i][j].LaTeX())
		}
	}
	sb.WriteString("\\end{pmatrix}")
	return sb.String()
}

// Equal compares entries structurally.
func (m *Matrix) Equal(other *Matrix) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if !m.data[i][j].Equal(other.data[i][j]) {
				return false
			}
		}
	}
	return true
}

// IsSymmetric reports structural symmetry; entries must be equal in
// canonical form, not merely equivalent.
func (m *Matrix) IsSymmetric() bool {
	if m.rows != m.cols {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := i + 1; j < m.cols; j++ {
			if !m.data[i][j].Equal(m.data[j][i]) {
				return false
			}
		}
	}
	return true
}

func (m *Matrix) MatAdd(other *Matrix) *Matrix {
	if m.rows != other.rows || m.cols != other.cols {
		panic("symbolic: matrix dimension mismatch in MatAdd")
	}
	result := NewMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[i][j] = AddOf(m.data[i][j], other.data[i][j])
		}
	}
	return result
}

func (m *Matrix) MatSub(other *Matrix) *Matrix {
	if m.rows != other.rows || m.cols != other.cols {
		panic("symbolic: matrix dimension mismatch in MatSub")
	}
	result := NewMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[i][j] = SubOf(m.data[i][j], other.data[i][j])
		}
	}
	return result
}

func (m *Matrix) MatMul(other *Matrix) *Matrix {
	if m.cols != other.rows {
		panic("symbolic: matrix dimension mismatch in MatMul")
	}
	result := NewMatrix(m.rows, other.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < other.cols; j++ {
			terms := make([]Expr, m.cols)
			for k := 0; k < m.cols; k++ {
				terms[k] = MulOf(m.data[i][k], other.data[k][j])
			}
			result.data[i][j] = AddOf(terms...)
		}
	}
	return result
}

func (m *Matrix) Scale(scalar Expr) *Matrix {
	result := NewMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[i][j] = MulOf(scalar, m.data[i][j])
		}
	}
	return result
}

func (m *Matrix) Transpose() *Matrix {
	result := NewMatrix(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[j][i] = m.data[i][j]
		}
	}
	return result
}

func (m *Matrix) Trace() Expr {
	if m.rows != m.cols {
		panic("symbolic: Trace requires a square matrix")
	}
	terms := make([]Expr, m.rows)
	for i := 0; i < m.rows; i++ {
		terms[i] = m.data[i][i]
	}
	return AddOf(terms...)
}

// Det expands along the first row. The result is canonical but not
// normalized; use a Simplifier to decide whether it vanishes.
func (m *Matrix) Det() Expr {
	if m.rows != m.cols {
		panic("symbolic: Det requires a square matrix")
	}
	return matDet(m.data, m.rows)
}

func matDet(data [][]Expr, n int) Expr {
	switch n {
	case 0:
		return N(1)
	case 1:
		return data[0][0].Simplify()
	case 2:
		return SubOf(MulOf(data[0][0], data[1][1]), MulOf(data[0][1], data[1][0]))
	}
	terms := make([]Expr, 0, n)
	for j := 0; j < n; j++ {
		if IsZeroNum(data[0][j]) {
			continue
		}
		minor := makeMinor(data, n, 0, j)
		sign := N(1)
		if j%2 == 1 {
			sign = N(-1)
		}
		terms = append(terms, MulOf(sign, data[0][j], matDet(minor, n-1)))
	}
	return AddOf(terms...)
}

func makeMinor(data [][]Expr, n, skipRow, skipCol int) [][]Expr {
	minor := make([][]Expr, n-1)
	mi := 0
	for i := 0; i < n; i++ {
		if i == skipRow {
			continue
		}
		minor[mi] = make([]Expr, n-1)
		mj := 0
		for j := 0; j < n; j++ {
			if j == skipCol {
				continue
			}
			minor[mi][mj] = data[i][j]
			mj++
		}
		mi++
	}
	return minor
}

// Cofactor returns (-1)^(i+j) times the minor obtained by deleting row i and
// column j.
func (m *Matrix) Cofactor(i, j int) Expr {
	if m.rows != m.cols {
		panic("symbolic: Cofactor requires a square matrix")
	}
	m.checkBounds(i, j)
	minor := matDet(makeMinor(m.data, m.rows, i, j), m.rows-1)
	if (i+j)%2 == 1 {
		return NegOf(minor)
	}
	return minor
}

// Inverse is InverseContext with a background context and the default
// term budget.
func (m *Matrix) Inverse() (*Matrix, error) {
	return m.InverseContext(context.Background(), Simplifier{})
}

// InverseContext computes adj(m)/det(m) with every entry normalized as a
// rational function. It fails with ErrSingular when the determinant is
// identically zero. For a symmetric matrix only the upper half of the
// adjugate is computed.
func (m *Matrix) InverseContext(ctx context.Context, s Simplifier) (*Matrix, error) {
	if m.rows != m.cols {
		return nil, ErrNotSquare
	}
	det, err := s.NormalizeContext(ctx, m.Det())
	if err != nil {
		return nil, fmt.Errorf("symbolic: determinant: %w", err)
	}
	if IsZeroNum(det) {
		return nil, ErrSingular
	}
	n := m.rows
	inv := NewMatrix(n, n)
	symmetric := m.IsSymmetric()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if symmetric && j < i {
				inv.data[i][j] = inv.data[j][i]
				continue
			}
			var adj Expr = N(1)
			if n > 1 {
				adj = m.Cofactor(j, i)
			}
			e, err := s.NormalizeContext(ctx, DivOf(adj, det))
			if err != nil {
				return nil, fmt.Errorf("symbolic: inverse entry [%d,%d]: %w", i, j, err)
			}
			inv.data[i][j] = e
		}
	}
	return inv, nil
}

func (m *Matrix) ApplySub(varName string, value Expr) *Matrix {
	result := NewMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[i][j] = m.data[i][j].Sub(varName, value).Simplify()
		}
	}
	return result
}

func (m *Matrix) ApplyDiff(varName string) *Matrix {
	result := NewMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[i][j] = m.data[i][j].Diff(varName).Simplify()
		}
	}
	return result
}

func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.data[i][i] = N(1)
	}
	return m
}
