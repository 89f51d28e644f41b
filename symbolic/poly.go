package symbolic

import (
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Sparse polynomials over atoms
// ============================================================

// An atom is any subexpression the normalizer treats as an indeterminate:
// symbols, function applications and fractional powers. Atoms are keyed by
// their canonical string.

type power struct {
	atom string
	exp  int64
}

// monomial is a product of positive powers, sorted by atom key.
type monomial []power

func (m monomial) key() string {
	var sb strings.Builder
	for _, p := range m {
		sb.WriteString(p.atom)
		sb.WriteByte(0)
		sb.WriteString(strconv.FormatInt(p.exp, 10))
		sb.WriteByte(1)
	}
	return sb.String()
}

func (m monomial) degree() int64 {
	var d int64
	for _, p := range m {
		d += p.exp
	}
	return d
}

func (m monomial) expOf(atom string) int64 {
	for _, p := range m {
		if p.atom == atom {
			return p.exp
		}
	}
	return 0
}

// without returns m with the atom's exponent lowered by k.
func (m monomial) without(atom string, k int64) monomial {
	out := make(monomial, 0, len(m))
	for _, p := range m {
		if p.atom == atom {
			if e := p.exp - k; e > 0 {
				out = append(out, power{atom: atom, exp: e})
			}
			continue
		}
		out = append(out, p)
	}
	return out
}

func monoMul(a, b monomial) monomial {
	out := make(monomial, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].atom < b[j].atom:
			out = append(out, a[i])
			i++
		case a[i].atom > b[j].atom:
			out = append(out, b[j])
			j++
		default:
			out = append(out, power{atom: a[i].atom, exp: a[i].exp + b[j].exp})
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// monoDiv returns a/b when b divides a.
func monoDiv(a, b monomial) (monomial, bool) {
	out := make(monomial, 0, len(a))
	i := 0
	for _, pb := range b {
		for i < len(a) && a[i].atom < pb.atom {
			out = append(out, a[i])
			i++
		}
		if i >= len(a) || a[i].atom != pb.atom {
			return nil, false
		}
		e := a[i].exp - pb.exp
		if e < 0 {
			return nil, false
		}
		if e > 0 {
			out = append(out, power{atom: pb.atom, exp: e})
		}
		i++
	}
	out = append(out, a[i:]...)
	return out, true
}

// monoGCD returns the largest monomial dividing both a and b.
func monoGCD(a, b monomial) monomial {
	out := monomial{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].atom < b[j].atom:
			i++
		case a[i].atom > b[j].atom:
			j++
		default:
			e := a[i].exp
			if b[j].exp < e {
				e = b[j].exp
			}
			out = append(out, power{atom: a[i].atom, exp: e})
			i++
			j++
		}
	}
	return out
}

// monoCmp is graded lexicographic order; smaller atom keys are more
// significant.
func monoCmp(a, b monomial) int {
	da, db := a.degree(), b.degree()
	switch {
	case da < db:
		return -1
	case da > db:
		return 1
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].atom != b[i].atom {
			if a[i].atom < b[i].atom {
				return 1
			}
			return -1
		}
		if a[i].exp != b[i].exp {
			if a[i].exp < b[i].exp {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

type pterm struct {
	coeff *big.Rat
	mono  monomial
}

type poly struct {
	terms map[string]*pterm
}

func newPoly() *poly { return &poly{terms: map[string]*pterm{}} }

func constPoly(c *big.Rat) *poly {
	p := newPoly()
	p.addTerm(c, nil)
	return p
}

func monoPoly(c *big.Rat, m monomial) *poly {
	p := newPoly()
	p.addTerm(c, m)
	return p
}

func (p *poly) isZero() bool { return len(p.terms) == 0 }

// constant returns the value of a constant polynomial.
func (p *poly) constant() (*big.Rat, bool) {
	switch len(p.terms) {
	case 0:
		return new(big.Rat), true
	case 1:
		for _, t := range p.terms {
			if len(t.mono) == 0 {
				return t.coeff, true
			}
		}
	}
	return nil, false
}

func (p *poly) addTerm(c *big.Rat, m monomial) {
	if c.Sign() == 0 {
		return
	}
	k := m.key()
	if t, ok := p.terms[k]; ok {
		sum := new(big.Rat).Add(t.coeff, c)
		if sum.Sign() == 0 {
			delete(p.terms, k)
			return
		}
		p.terms[k] = &pterm{coeff: sum, mono: t.mono}
		return
	}
	p.terms[k] = &pterm{coeff: new(big.Rat).Set(c), mono: m}
}

func (p *poly) clone() *poly {
	out := &poly{terms: make(map[string]*pterm, len(p.terms))}
	for k, t := range p.terms {
		out.terms[k] = t
	}
	return out
}

func (p *poly) scale(c *big.Rat) *poly {
	out := newPoly()
	for _, t := range p.terms {
		out.addTerm(new(big.Rat).Mul(t.coeff, c), t.mono)
	}
	return out
}

// sorted returns the terms in descending monomial order.
func (p *poly) sorted() []*pterm {
	out := make([]*pterm, 0, len(p.terms))
	for _, t := range p.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return monoCmp(out[i].mono, out[j].mono) > 0 })
	return out
}

func (p *poly) leading() *pterm {
	var lead *pterm
	for _, t := range p.terms {
		if lead == nil || monoCmp(t.mono, lead.mono) > 0 {
			lead = t
		}
	}
	return lead
}

// content returns the monomial dividing every term.
func (p *poly) content() monomial {
	var g monomial
	first := true
	for _, t := range p.terms {
		if first {
			g = t.mono
			first = false
			continue
		}
		g = monoGCD(g, t.mono)
		if len(g) == 0 {
			break
		}
	}
	return g
}

// key is a canonical identity for the polynomial.
func (p *poly) key() string {
	var sb strings.Builder
	for _, t := range p.sorted() {
		sb.WriteString(t.coeff.RatString())
		sb.WriteByte(2)
		sb.WriteString(t.mono.key())
		sb.WriteByte(3)
	}
	return sb.String()
}
