package tensor

import (
	"fmt"

	"github.com/njchilds90/gocurvature/symbolic"
)

// Component is one addressed entry of a tensor.
type Component struct {
	Index []int
	Value symbolic.Expr
}

// array is a dense rank-k table of expressions over an n-dimensional basis.
type array struct {
	n, rank int
	data    []symbolic.Expr
}

func newArray(n, rank int) array {
	size := 1
	for i := 0; i < rank; i++ {
		size *= n
	}
	data := make([]symbolic.Expr, size)
	zero := symbolic.N(0)
	for i := range data {
		data[i] = zero
	}
	return array{n: n, rank: rank, data: data}
}

func (a array) offset(idx ...int) int {
	if len(idx) != a.rank {
		panic(fmt.Sprintf("tensor: rank %d array addressed with %d indices", a.rank, len(idx)))
	}
	off := 0
	for _, i := range idx {
		if i < 0 || i >= a.n {
			panic(fmt.Sprintf("tensor: index %v out of range for dimension %d", idx, a.n))
		}
		off = off*a.n + i
	}
	return off
}

func (a array) at(idx ...int) symbolic.Expr { return a.data[a.offset(idx...)] }

func (a array) set(v symbolic.Expr, idx ...int) { a.data[a.offset(idx...)] = v }

// Christoffel holds Γ^λ_{μν}, symmetric in its two lower indices.
type Christoffel struct{ array }

func newChristoffel(n int) *Christoffel { return &Christoffel{newArray(n, 3)} }

func (c *Christoffel) Dim() int { return c.n }

// At returns Γ^l_{m n}.
func (c *Christoffel) At(l, m, n int) symbolic.Expr { return c.at(l, m, n) }

// setSymmetric writes Γ^l_{mn} and its mirror Γ^l_{nm}.
func (c *Christoffel) setSymmetric(l, m, n int, v symbolic.Expr) {
	c.set(v, l, m, n)
	c.set(v, l, n, m)
}

// Nonzero lists the coefficients with m <= n that are not the literal zero.
func (c *Christoffel) Nonzero() []Component {
	var out []Component
	for l := 0; l < c.n; l++ {
		for m := 0; m < c.n; m++ {
			for n := m; n < c.n; n++ {
				if v := c.at(l, m, n); !symbolic.IsZeroNum(v) {
					out = append(out, Component{Index: []int{l, m, n}, Value: v})
				}
			}
		}
	}
	return out
}

// Riemann holds R^ρ_{σμν}, antisymmetric in its last two indices.
type Riemann struct{ array }

func newRiemann(n int) *Riemann { return &Riemann{newArray(n, 4)} }

func (r *Riemann) Dim() int { return r.n }

// At returns R^rho_{sigma mu nu}.
func (r *Riemann) At(rho, sigma, mu, nu int) symbolic.Expr { return r.at(rho, sigma, mu, nu) }

// setAntisymmetric writes R^ρ_{σμν} and R^ρ_{σνμ} = -R^ρ_{σμν}. The
// diagonal mu == nu is left at zero.
func (r *Riemann) setAntisymmetric(rho, sigma, mu, nu int, v symbolic.Expr) {
	if mu == nu {
		panic("tensor: antisymmetric pair on the diagonal")
	}
	r.set(v, rho, sigma, mu, nu)
	r.set(symbolic.NegOf(v), rho, sigma, nu, mu)
}

// Nonzero lists the components with mu < nu that are not the literal zero.
func (r *Riemann) Nonzero() []Component {
	var out []Component
	for rho := 0; rho < r.n; rho++ {
		for sigma := 0; sigma < r.n; sigma++ {
			for mu := 0; mu < r.n; mu++ {
				for nu := mu + 1; nu < r.n; nu++ {
					if v := r.at(rho, sigma, mu, nu); !symbolic.IsZeroNum(v) {
						out = append(out, Component{Index: []int{rho, sigma, mu, nu}, Value: v})
					}
				}
			}
		}
	}
	return out
}

// MatrixNonzero lists the entries of m that are not the literal zero. For a
// symmetric tensor only the upper half is listed.
func MatrixNonzero(m *symbolic.Matrix, symmetric bool) []Component {
	var out []Component
	for i := 0; i < m.Rows(); i++ {
		start := 0
		if symmetric {
			start = i
		}
		for j := start; j < m.Cols(); j++ {
			if v := m.Get(i, j); !symbolic.IsZeroNum(v) {
				out = append(out, Component{Index: []int{i, j}, Value: v})
			}
		}
	}
	return out
}

// pairs enumerates index pairs (i, j); upper restricts to i <= j.
func pairs(n int, upper bool) [][]int {
	var out [][]int
	for i := 0; i < n; i++ {
		start := 0
		if upper {
			start = i
		}
		for j := start; j < n; j++ {
			out = append(out, []int{i, j})
		}
	}
	return out
}
