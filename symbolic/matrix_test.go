package symbolic_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/njchilds90/gocurvature/symbolic"
)

func nums(vals ...int64) []symbolic.Expr {
	out := make([]symbolic.Expr, len(vals))
	for i, v := range vals {
		out[i] = symbolic.N(v)
	}
	return out
}

func TestMatrix_Det3x3(t *testing.T) {
	m := symbolic.MatrixFromSlice(3, 3, nums(1, 2, 3, 0, 1, 4, 5, 6, 0))
	if got := m.Det().String(); got != "1" {
		t.Errorf("want 1, got %s", got)
	}
}

func TestMatrix_InverseNumeric(t *testing.T) {
	m := symbolic.MatrixFromSlice(2, 2, nums(2, 1, 1, 2))
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if got := inv.String(); got != "[[2/3, -1/3], [-1/3, 2/3]]" {
		t.Errorf("want [[2/3, -1/3], [-1/3, 2/3]], got %s", got)
	}
}

func TestMatrix_InverseDiagonal(t *testing.T) {
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{x, symbolic.N(0), symbolic.N(0), y})
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if !inv.Get(0, 0).Equal(symbolic.PowOf(x, symbolic.N(-1))) {
		t.Errorf("inv[0,0]: want x^(-1), got %s", inv.Get(0, 0))
	}
	if !symbolic.IsZeroNum(inv.Get(0, 1)) || !symbolic.IsZeroNum(inv.Get(1, 0)) {
		t.Errorf("off-diagonal entries should be 0, got %s", inv)
	}
}

func TestMatrix_InverseTimesMatrixIsIdentity(t *testing.T) {
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{x, symbolic.N(1), symbolic.N(1), y})
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if !inv.IsSymmetric() {
		t.Errorf("inverse of a symmetric matrix should be symmetric: %s", inv)
	}
	prod := m.MatMul(inv).MatSub(symbolic.Identity(2))
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if !symbolic.IsZero(prod.Get(i, j)) {
				t.Errorf("(g*ginv - I)[%d,%d] = %s, want 0", i, j, prod.Get(i, j))
			}
		}
	}
}

func TestMatrix_Singular(t *testing.T) {
	one := symbolic.N(1)
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{
		symbolic.AddOf(x, one), symbolic.SubOf(sq(x), one),
		one, symbolic.SubOf(x, one),
	})
	_, err := m.Inverse()
	if !errors.Is(err, symbolic.ErrSingular) {
		t.Fatalf("want ErrSingular, got %v", err)
	}
}

func TestMatrix_NotSquare(t *testing.T) {
	_, err := symbolic.NewMatrix(2, 3).InverseContext(context.Background(), symbolic.Simplifier{})
	if !errors.Is(err, symbolic.ErrNotSquare) {
		t.Fatalf("want ErrNotSquare, got %v", err)
	}
}

func TestMatrix_TraceTranspose(t *testing.T) {
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{x, y, z, x})
	if got := m.Trace().String(); got != "2*x" {
		t.Errorf("trace: want 2*x, got %s", got)
	}
	if got := m.Transpose().String(); got != "[[x, z], [y, x]]" {
		t.Errorf("transpose: want [[x, z], [y, x]], got %s", got)
	}
	if m.IsSymmetric() {
		t.Error("matrix with y != z reported symmetric")
	}
}

func TestMatrix_LaTeX(t *testing.T) {
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{x, symbolic.N(0), symbolic.N(0), y})
	want := `\begin{pmatrix}x & 0 \\ 0 & y\end{pmatrix}`
	if got := m.LaTeX(); got != want {
		t.Errorf("want %s, got %s", want, got)
	}
}

func TestMatrix_JSONRoundTrip(t *testing.T) {
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{x, symbolic.SinOf(y), symbolic.F(1, 2), sq(z)})
	b, err := json.Marshal(symbolic.MatrixTree(m))
	if err != nil {
		t.Fatal(err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		t.Fatal(err)
	}
	back, err := symbolic.MatrixFromJSON(data)
	if err != nil {
		t.Fatalf("MatrixFromJSON: %v", err)
	}
	if !back.Equal(m) {
		t.Errorf("round trip changed matrix: %s vs %s", back, m)
	}
}

func TestMatrix_GetOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range index")
		}
	}()
	symbolic.NewMatrix(2, 2).Get(2, 0)
}

func TestMatrix_ScaleAndSub(t *testing.T) {
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{x, symbolic.N(1), symbolic.N(0), symbolic.PowOf(x, symbolic.N(2))})
	if got := m.Scale(symbolic.N(2)).String(); got != "[[2*x, 2], [0, 2*x^2]]" {
		t.Errorf("want [[2*x, 2], [0, 2*x^2]], got %s", got)
	}
	if got := m.ApplySub("x", symbolic.N(3)).String(); got != "[[3, 1], [0, 9]]" {
		t.Errorf("want [[3, 1], [0, 9]], got %s", got)
	}
	if got := m.ApplyDiff("x").String(); got != "[[1, 0], [0, 2*x]]" {
		t.Errorf("want [[1, 0], [0, 2*x]], got %s", got)
	}
}
