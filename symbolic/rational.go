package symbolic

import (
	"context"
	"fmt"
	"math/big"
	"sort"
)

// ============================================================
// Rational-function normalization
// ============================================================

// DefaultMaxTerms bounds every intermediate polynomial when a Simplifier
// does not set its own budget.
const DefaultMaxTerms = 20000

// Simplifier normalizes expressions as rational functions of their atoms.
// Numerators are fully expanded, denominators are kept as products of monic
// polynomial factors over their least common multiple, and sin/cos and
// sinh/cosh squares are reduced with the Pythagorean identities. A numerator
// that reduces to nothing proves the expression identically zero.
//
// The zero value is ready to use.
type Simplifier struct {
	// MaxTerms caps the number of terms in any intermediate polynomial.
	// Exceeding it fails with ErrTooLarge instead of truncating.
	MaxTerms int
}

func (s Simplifier) budget() int {
	if s.MaxTerms <= 0 {
		return DefaultMaxTerms
	}
	return s.MaxTerms
}

func (s Simplifier) Normalize(e Expr) (Expr, error) {
	return s.NormalizeContext(context.Background(), e)
}

// NormalizeContext returns the shortest of the canonical form of e and its
// rational normal forms, or 0 when e is identically zero.
func (s Simplifier) NormalizeContext(ctx context.Context, e Expr) (Expr, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e = e.Simplify()
	switch e.(type) {
	case *Num, *Sym:
		return e, nil
	}
	z := newNormalizer(ctx, s.budget())
	f, err := z.toFrac(e)
	if err != nil {
		return nil, err
	}
	reduced, err := z.trigReduce(f.num)
	if err != nil {
		return nil, err
	}
	if reduced.isZero() {
		return N(0), nil
	}
	best := e
	for _, num := range []*poly{f.num, reduced} {
		cand := z.fracExpr(num, f.den)
		if len(cand.String()) < len(best.String()) {
			best = cand
		}
	}
	return best, nil
}

func (s Simplifier) IsZero(e Expr) (bool, error) {
	return s.IsZeroContext(context.Background(), e)
}

// IsZeroContext decides whether e is identically zero.
func (s Simplifier) IsZeroContext(ctx context.Context, e Expr) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e = e.Simplify()
	if n, ok := e.(*Num); ok {
		return n.IsZero(), nil
	}
	z := newNormalizer(ctx, s.budget())
	f, err := z.toFrac(e)
	if err != nil {
		return false, err
	}
	reduced, err := z.trigReduce(f.num)
	if err != nil {
		return false, err
	}
	return reduced.isZero(), nil
}

// IsZero reports whether e is identically zero under the default budget.
// An expression too large to decide reports false.
func IsZero(e Expr) bool {
	ok, err := Simplifier{}.IsZero(e)
	return err == nil && ok
}

// Normalize is Simplifier.Normalize with the default budget; on failure it
// falls back to the canonical form.
func Normalize(e Expr) Expr {
	r, err := Simplifier{}.Normalize(e)
	if err != nil {
		return e.Simplify()
	}
	return r
}

// Expand multiplies out the numerator of e over its combined denominator.
func Expand(e Expr) Expr {
	z := newNormalizer(context.Background(), DefaultMaxTerms)
	f, err := z.toFrac(e.Simplify())
	if err != nil {
		return e.Simplify()
	}
	return z.fracExpr(f.num, f.den)
}

type normalizer struct {
	ctx      context.Context
	maxTerms int
	atoms    map[string]Expr
	ops      int
}

func newNormalizer(ctx context.Context, maxTerms int) *normalizer {
	return &normalizer{ctx: ctx, maxTerms: maxTerms, atoms: map[string]Expr{}}
}

// tick polls the context every 256 operations.
func (z *normalizer) tick() error {
	z.ops++
	if z.ops%256 == 0 {
		return z.ctx.Err()
	}
	return nil
}

func (z *normalizer) fits(p *poly) error {
	if len(p.terms) > z.maxTerms {
		return fmt.Errorf("%w: %d terms over a budget of %d", ErrTooLarge, len(p.terms), z.maxTerms)
	}
	return nil
}

// ------------------------------------------------------------
// polynomial arithmetic under the budget
// ------------------------------------------------------------

func (z *normalizer) add(a, b *poly) (*poly, error) {
	out := a.clone()
	for _, t := range b.terms {
		out.addTerm(t.coeff, t.mono)
	}
	return out, z.fits(out)
}

func (z *normalizer) mul(a, b *poly) (*poly, error) {
	if a.isZero() || b.isZero() {
		return newPoly(), nil
	}
	if c, ok := a.constant(); ok {
		return b.scale(c), nil
	}
	if c, ok := b.constant(); ok {
		return a.scale(c), nil
	}
	out := newPoly()
	for _, ta := range a.terms {
		for _, tb := range b.terms {
			if err := z.tick(); err != nil {
				return nil, err
			}
			out.addTerm(new(big.Rat).Mul(ta.coeff, tb.coeff), monoMul(ta.mono, tb.mono))
		}
		if err := z.fits(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (z *normalizer) pow(p *poly, n int64) (*poly, error) {
	result := constPoly(big.NewRat(1, 1))
	base := p
	for n > 0 {
		var err error
		if n&1 == 1 {
			if result, err = z.mul(result, base); err != nil {
				return nil, err
			}
		}
		n >>= 1
		if n > 0 {
			if base, err = z.mul(base, base); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// div performs exact division f/g. ok is false when g does not divide f
// or the division runs past the budget.
func (z *normalizer) div(f, g *poly) (q *poly, ok bool, err error) {
	lg := g.leading()
	q = newPoly()
	r := f.clone()
	for steps := 0; !r.isZero(); steps++ {
		if err := z.tick(); err != nil {
			return nil, false, err
		}
		if steps > z.maxTerms || len(r.terms) > z.maxTerms {
			return nil, false, nil
		}
		lt := r.leading()
		m, divides := monoDiv(lt.mono, lg.mono)
		if !divides {
			return nil, false, nil
		}
		c := new(big.Rat).Quo(lt.coeff, lg.coeff)
		q.addTerm(c, m)
		for _, tg := range g.terms {
			r.addTerm(new(big.Rat).Neg(new(big.Rat).Mul(c, tg.coeff)), monoMul(m, tg.mono))
		}
	}
	return q, true, nil
}

// ------------------------------------------------------------
// fractions
// ------------------------------------------------------------

type factor struct {
	p   *poly
	exp int64
}

// fraction is num / prod(den[k].p ^ den[k].exp) with monic factors.
type fraction struct {
	num *poly
	den map[string]factor
}

func (z *normalizer) constFrac(c *big.Rat) *fraction {
	return &fraction{num: constPoly(c), den: map[string]factor{}}
}

func (f *fraction) denKeys() []string {
	keys := make([]string, 0, len(f.den))
	for k := range f.den {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (z *normalizer) atom(e Expr, exp int64) *fraction {
	k := e.String()
	if _, ok := z.atoms[k]; !ok {
		z.atoms[k] = e
	}
	return &fraction{num: monoPoly(big.NewRat(1, 1), monomial{{atom: k, exp: exp}}), den: map[string]factor{}}
}

// splitFactors writes p as scale * prod(factors) with every non-constant
// factor monic and monomial content split into single-atom factors.
func splitFactors(p *poly) (*big.Rat, map[string]factor) {
	facs := map[string]factor{}
	g := p.content()
	q := p
	if len(g) > 0 {
		q = newPoly()
		for _, t := range p.terms {
			m, _ := monoDiv(t.mono, g)
			q.addTerm(t.coeff, m)
		}
		for _, pw := range g {
			ap := monoPoly(big.NewRat(1, 1), monomial{{atom: pw.atom, exp: 1}})
			facs[ap.key()] = factor{p: ap, exp: pw.exp}
		}
	}
	if c, ok := q.constant(); ok {
		return c, facs
	}
	lead := q.leading().coeff
	monic := q.scale(new(big.Rat).Inv(lead))
	facs[monic.key()] = factor{p: monic, exp: 1}
	return new(big.Rat).Set(lead), facs
}

// lift rewrites num over den as a numerator over the larger denominator lcm.
func (z *normalizer) lift(num *poly, den, lcm map[string]factor) (*poly, error) {
	keys := make([]string, 0, len(lcm))
	for k := range lcm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := num
	for _, k := range keys {
		missing := lcm[k].exp - den[k].exp
		if missing <= 0 {
			continue
		}
		pp, err := z.pow(lcm[k].p, missing)
		if err != nil {
			return nil, err
		}
		if out, err = z.mul(out, pp); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (z *normalizer) addFrac(a, b *fraction) (*fraction, error) {
	if a.num.isZero() {
		return b, nil
	}
	if b.num.isZero() {
		return a, nil
	}
	lcm := make(map[string]factor, len(a.den)+len(b.den))
	for k, f := range a.den {
		lcm[k] = f
	}
	for k, f := range b.den {
		if cur, ok := lcm[k]; !ok || f.exp > cur.exp {
			lcm[k] = f
		}
	}
	na, err := z.lift(a.num, a.den, lcm)
	if err != nil {
		return nil, err
	}
	nb, err := z.lift(b.num, b.den, lcm)
	if err != nil {
		return nil, err
	}
	num, err := z.add(na, nb)
	if err != nil {
		return nil, err
	}
	if num.isZero() {
		return &fraction{num: num, den: map[string]factor{}}, nil
	}
	return &fraction{num: num, den: lcm}, nil
}

func (z *normalizer) mulFrac(a, b *fraction) (*fraction, error) {
	num, err := z.mul(a.num, b.num)
	if err != nil {
		return nil, err
	}
	den := map[string]factor{}
	if num.isZero() {
		return &fraction{num: num, den: den}, nil
	}
	for k, f := range a.den {
		den[k] = f
	}
	for k, f := range b.den {
		if cur, ok := den[k]; ok {
			den[k] = factor{p: cur.p, exp: cur.exp + f.exp}
		} else {
			den[k] = f
		}
	}
	return &fraction{num: num, den: den}, nil
}

func (z *normalizer) invFrac(f *fraction) (*fraction, error) {
	if f.num.isZero() {
		return nil, ErrDivisionByZero
	}
	num := constPoly(big.NewRat(1, 1))
	for _, k := range f.denKeys() {
		pp, err := z.pow(f.den[k].p, f.den[k].exp)
		if err != nil {
			return nil, err
		}
		if num, err = z.mul(num, pp); err != nil {
			return nil, err
		}
	}
	scale, den := splitFactors(f.num)
	return &fraction{num: num.scale(new(big.Rat).Inv(scale)), den: den}, nil
}

func (z *normalizer) powFrac(f *fraction, n int64) (*fraction, error) {
	if n == 0 {
		return z.constFrac(big.NewRat(1, 1)), nil
	}
	if n < 0 {
		inv, err := z.invFrac(f)
		if err != nil {
			return nil, err
		}
		f, n = inv, -n
	}
	num, err := z.pow(f.num, n)
	if err != nil {
		return nil, err
	}
	den := make(map[string]factor, len(f.den))
	for k, fac := range f.den {
		den[k] = factor{p: fac.p, exp: fac.exp * n}
	}
	return &fraction{num: num, den: den}, nil
}

// cancel divides common factors out of the numerator.
func (z *normalizer) cancel(f *fraction) error {
	if f.num.isZero() {
		f.den = map[string]factor{}
		return nil
	}
	for _, k := range f.denKeys() {
		fac := f.den[k]
		for fac.exp > 0 {
			q, ok, err := z.div(f.num, fac.p)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			f.num = q
			fac.exp--
		}
		if fac.exp == 0 {
			delete(f.den, k)
		} else {
			f.den[k] = fac
		}
	}
	return nil
}

// ------------------------------------------------------------
// expression -> fraction
// ------------------------------------------------------------

func (z *normalizer) toFrac(e Expr) (*fraction, error) {
	if err := z.tick(); err != nil {
		return nil, err
	}
	switch v := e.(type) {
	case *Num:
		return z.constFrac(v.val), nil
	case *Add:
		acc := z.constFrac(new(big.Rat))
		for _, t := range v.terms {
			f, err := z.toFrac(t)
			if err != nil {
				return nil, err
			}
			if acc, err = z.addFrac(acc, f); err != nil {
				return nil, err
			}
		}
		return acc, z.cancel(acc)
	case *Mul:
		acc := z.constFrac(big.NewRat(1, 1))
		for _, fe := range v.factors {
			f, err := z.toFrac(fe)
			if err != nil {
				return nil, err
			}
			if acc, err = z.mulFrac(acc, f); err != nil {
				return nil, err
			}
		}
		return acc, z.cancel(acc)
	case *Pow:
		return z.powToFrac(v)
	case *Func:
		switch v.name {
		case "tan":
			return z.toFrac(MulOf(SinOf(v.arg), PowOf(CosOf(v.arg), N(-1))))
		case "tanh":
			return z.toFrac(MulOf(SinhOf(v.arg), PowOf(CoshOf(v.arg), N(-1))))
		case "exp":
			return z.expToFrac(v)
		}
	}
	return z.atom(e, 1), nil
}

// powToFrac keeps integer powers algebraic and writes b^(p/q) as the atom
// b^(1/q) raised to p.
func (z *normalizer) powToFrac(p *Pow) (*fraction, error) {
	en, ok := p.exp.(*Num)
	if !ok {
		return z.atom(p, 1), nil
	}
	num, den := en.val.Num(), en.val.Denom()
	if !num.IsInt64() || !den.IsInt64() {
		return z.atom(p, 1), nil
	}
	if en.IsInteger() {
		b, err := z.toFrac(p.base)
		if err != nil {
			return nil, err
		}
		return z.powFrac(b, num.Int64())
	}
	root := PowOf(p.base, F(1, den.Int64()))
	var b *fraction
	if _, isPow := root.(*Pow); isPow {
		b = z.atom(root, 1)
	} else {
		var err error
		if b, err = z.toFrac(root); err != nil {
			return nil, err
		}
	}
	return z.powFrac(b, num.Int64())
}

// expToFrac splits exp(a + k*b) into exp(a) * exp(b)^k for integer k.
func (z *normalizer) expToFrac(f *Func) (*fraction, error) {
	terms := []Expr{f.arg}
	if add, ok := f.arg.(*Add); ok {
		terms = add.terms
	}
	acc := z.constFrac(big.NewRat(1, 1))
	for _, t := range terms {
		c, rest := splitCoeff(t)
		var part *fraction
		var err error
		if rest != nil && c.IsInteger() && c.val.Num().IsInt64() {
			var base *fraction
			if base, err = z.expAtom(ExpOf(rest)); err != nil {
				return nil, err
			}
			part, err = z.powFrac(base, c.val.Num().Int64())
		} else {
			part, err = z.expAtom(ExpOf(t))
		}
		if err != nil {
			return nil, err
		}
		if acc, err = z.mulFrac(acc, part); err != nil {
			return nil, err
		}
	}
	return acc, z.cancel(acc)
}

func (z *normalizer) expAtom(e Expr) (*fraction, error) {
	if f, ok := e.(*Func); ok && f.name == "exp" {
		return z.atom(f, 1), nil
	}
	return z.toFrac(e)
}

// ------------------------------------------------------------
// Pythagorean reduction
// ------------------------------------------------------------

// trigReduce rewrites cos(u)^2 as 1 - sin(u)^2 and cosh(u)^2 as
// 1 + sinh(u)^2 until no monomial holds a square of cos or cosh.
func (z *normalizer) trigReduce(p *poly) (*poly, error) {
	for {
		changed := false
		out := newPoly()
		for _, t := range p.terms {
			if err := z.tick(); err != nil {
				return nil, err
			}
			atom, partner, sign, ok := z.reducible(t.mono)
			if !ok {
				out.addTerm(t.coeff, t.mono)
				continue
			}
			changed = true
			rest := t.mono.without(atom, 2)
			out.addTerm(t.coeff, rest)
			c := new(big.Rat).Mul(t.coeff, big.NewRat(sign, 1))
			out.addTerm(c, monoMul(rest, monomial{{atom: partner, exp: 2}}))
		}
		if err := z.fits(out); err != nil {
			return nil, err
		}
		p = out
		if !changed {
			return p, nil
		}
	}
}

func (z *normalizer) reducible(m monomial) (atom, partner string, sign int64, ok bool) {
	for _, pw := range m {
		if pw.exp < 2 {
			continue
		}
		f, isFunc := z.atoms[pw.atom].(*Func)
		if !isFunc {
			continue
		}
		var pe Expr
		switch f.name {
		case "cos":
			pe, sign = SinOf(f.arg), -1
		case "cosh":
			pe, sign = SinhOf(f.arg), 1
		default:
			continue
		}
		pf, isFunc := pe.(*Func)
		if !isFunc {
			continue
		}
		return pw.atom, z.atom(pf, 1).num.leading().mono[0].atom, sign, true
	}
	return "", "", 0, false
}

// ------------------------------------------------------------
// fraction -> expression
// ------------------------------------------------------------

func (z *normalizer) polyExpr(p *poly) Expr {
	terms := make([]Expr, 0, len(p.terms))
	for _, t := range p.sorted() {
		fs := make([]Expr, 0, len(t.mono)+1)
		fs = append(fs, NRat(t.coeff))
		for _, pw := range t.mono {
			fs = append(fs, PowOf(z.atoms[pw.atom], N(pw.exp)))
		}
		terms = append(terms, MulOf(fs...))
	}
	return AddOf(terms...)
}

func (z *normalizer) fracExpr(num *poly, den map[string]factor) Expr {
	f := &fraction{num: num, den: den}
	factors := []Expr{z.polyExpr(num)}
	for _, k := range f.denKeys() {
		fac := den[k]
		factors = append(factors, PowOf(z.polyExpr(fac.p), N(-fac.exp)))
	}
	return MulOf(factors...)
}
