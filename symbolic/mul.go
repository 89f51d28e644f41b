package symbolic

import (
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Mul — product of factors
// ============================================================

type Mul struct {
	factors []Expr
	canon   bool
	str     string
}

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// newMul wraps already canonical, merged and sorted factors. A numeric
// coefficient, if any, must come first.
func newMul(factors []Expr) *Mul {
	m := &Mul{factors: factors, canon: true}
	m.str = m.render()
	return m
}

// Simplify flattens nested products, folds numbers into one coefficient,
// merges equal bases by summing exponents and sorts the remaining factors.
// A coefficient times a single sum is distributed over the sum.
func (m *Mul) Simplify() Expr {
	if m.canon {
		return m
	}
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	type group struct {
		base Expr
		exps []Expr
		orig Expr
	}
	coeff := N(1)
	groups := map[string]*group{}
	order := []string{}
	addGroup := func(base, exp, orig Expr) {
		k := base.String()
		g, seen := groups[k]
		if !seen {
			g = &group{base: base, orig: orig}
			groups[k] = g
			order = append(order, k)
		}
		g.exps = append(g.exps, exp)
	}
	for _, f := range flat {
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Pow:
			addGroup(v.base, v.exp, v)
		default:
			addGroup(f, N(1), f)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}

	factors := make([]Expr, 0, len(order))
	again := false
	for _, k := range order {
		g := groups[k]
		var p Expr
		if len(g.exps) == 1 {
			p = g.orig
		} else {
			p = PowOf(g.base, AddOf(g.exps...))
		}
		switch v := p.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Mul:
			factors = append(factors, v.factors...)
			again = true
		default:
			factors = append(factors, p)
		}
	}
	if again {
		return MulOf(append([]Expr{coeff}, factors...)...)
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(factors) == 0 {
		return coeff
	}

	// Precompute sort keys to avoid repeated String() calls in comparator.
	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(factors))
	for i, e := range factors {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	for i := range ks {
		factors[i] = ks[i].e
	}

	if len(factors) == 1 {
		if coeff.IsOne() {
			return factors[0]
		}
		if add, ok := factors[0].(*Add); ok {
			terms := make([]Expr, len(add.terms))
			for i, t := range add.terms {
				terms[i] = MulOf(coeff, t)
			}
			return AddOf(terms...)
		}
	}
	if coeff.IsOne() {
		return newMul(factors)
	}
	return newMul(append([]Expr{coeff}, factors...))
}

func (m *Mul) String() string {
	if m.canon {
		return m.str
	}
	return m.render()
}

func (m *Mul) render() string {
	if len(m.factors) == 0 {
		return "1"
	}
	parts := make([]string, 0, len(m.factors))
	prefix := ""
	for i, f := range m.factors {
		if n, ok := f.(*Num); ok && i == 0 && len(m.factors) > 1 && n.IsNegOne() {
			prefix = "-"
			continue
		}
		if _, isAdd := f.(*Add); isAdd {
			parts = append(parts, "("+f.String()+")")
		} else {
			parts = append(parts, f.String())
		}
	}
	return prefix + strings.Join(parts, "*")
}

// LaTeX renders factors with negative numeric exponents, and the
// coefficient's denominator, as a fraction.
func (m *Mul) LaTeX() string {
	coeff := N(1)
	var num, den []string
	for _, f := range m.factors {
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
			continue
		case *Pow:
			if e, ok := v.exp.(*Num); ok && e.IsNegative() {
				den = append(den, PowOf(v.base, numNeg(e)).LaTeX())
				continue
			}
		}
		s := f.LaTeX()
		if _, isAdd := f.(*Add); isAdd {
			s = "\\left(" + s + "\\right)"
		}
		num = append(num, s)
	}
	sign := ""
	c := new(big.Rat).Set(coeff.val)
	if c.Sign() < 0 {
		sign = "-"
		c.Neg(c)
	}
	cNum, cDen := c.Num().String(), c.Denom().String()
	if cNum != "1" {
		num = append([]string{cNum}, num...)
	}
	if cDen != "1" {
		den = append([]string{cDen}, den...)
	}
	numStr := strings.Join(num, " ")
	if numStr == "" {
		numStr = "1"
	}
	if len(den) == 0 {
		return sign + numStr
	}
	return sign + "\\frac{" + numStr + "}{" + strings.Join(den, " ") + "}"
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(varName)
		if IsZeroNum(dfi) {
			terms[i] = dfi
			continue
		}
		others := make([]Expr, 0, len(m.factors))
		others = append(others, dfi)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms[i] = MulOf(others...)
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return append([]Expr(nil), m.factors...) }
