package symbolic

import (
	"sort"
	"strings"
)

// ============================================================
// Add — sum of terms
// ============================================================

type Add struct {
	terms []Expr
	canon bool
	str   string
}

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// newAdd wraps already canonical, merged and sorted terms.
func newAdd(terms []Expr) *Add {
	a := &Add{terms: terms, canon: true}
	a.str = a.render()
	return a
}

// Simplify flattens nested sums, merges like terms as coefficient*rest and
// sorts the result by rest, with the numeric constant last.
func (a *Add) Simplify() Expr {
	if a.canon {
		return a
	}
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	constant := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	for _, t := range flat {
		c, rest := splitCoeff(t)
		if rest == nil {
			constant = numAdd(constant, c)
			continue
		}
		k := rest.String()
		if prev, seen := coeffs[k]; seen {
			coeffs[k] = numAdd(prev, c)
		} else {
			coeffs[k] = c
			rests[k] = rest
		}
	}
	keys := make([]string, 0, len(coeffs))
	for k := range coeffs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := make([]Expr, 0, len(keys)+1)
	for _, k := range keys {
		c := coeffs[k]
		if c.IsZero() {
			continue
		}
		result = append(result, withCoeff(c, rests[k]))
	}
	if !constant.IsZero() {
		result = append(result, constant)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return newAdd(result)
}

func (a *Add) String() string {
	if a.canon {
		return a.str
	}
	return a.render()
}

func (a *Add) render() string {
	if len(a.terms) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, t := range a.terms {
		neg, abs := negativeTerm(t)
		switch {
		case i == 0:
			sb.WriteString(t.String())
		case neg:
			sb.WriteString(" - ")
			sb.WriteString(abs.String())
		default:
			sb.WriteString(" + ")
			sb.WriteString(t.String())
		}
	}
	return sb.String()
}

func (a *Add) LaTeX() string {
	var sb strings.Builder
	for i, t := range a.terms {
		neg, abs := negativeTerm(t)
		switch {
		case i == 0:
			sb.WriteString(t.LaTeX())
		case neg:
			sb.WriteString(" - ")
			sb.WriteString(abs.LaTeX())
		default:
			sb.WriteString(" + ")
			sb.WriteString(t.LaTeX())
		}
	}
	return sb.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}
func (a *Add) Terms() []Expr { return append([]Expr(nil), a.terms...) }

// splitCoeff splits a canonical term into its numeric coefficient and the
// remaining factors. rest is nil for a pure number.
func splitCoeff(e Expr) (*Num, Expr) {
	switch v := e.(type) {
	case *Num:
		return v, nil
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok {
			rest := v.factors[1:]
			if len(rest) == 1 {
				return c, rest[0]
			}
			return c, newMul(rest)
		}
	}
	return N(1), e
}

// withCoeff rebuilds c*rest from canonical parts without re-sorting.
func withCoeff(c *Num, rest Expr) Expr {
	switch {
	case rest == nil:
		return c
	case c.IsZero():
		return N(0)
	case c.IsOne():
		return rest
	}
	if m, ok := rest.(*Mul); ok {
		return newMul(append([]Expr{c}, m.factors...))
	}
	if add, ok := rest.(*Add); ok {
		return MulOf(c, add)
	}
	return newMul([]Expr{c, rest})
}

// negativeTerm reports whether t prints with a leading minus and returns
// its absolute value when it does.
func negativeTerm(t Expr) (bool, Expr) {
	c, rest := splitCoeff(t)
	if !c.IsNegative() {
		return false, t
	}
	return true, withCoeff(numNeg(c), rest)
}
