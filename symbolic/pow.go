package symbolic

import "math/big"

// ============================================================
// Pow — base^exponent
// ============================================================

type Pow struct {
	base, exp Expr
	canon     bool
	str       string
}

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }
func SqrtOf(arg Expr) Expr      { return PowOf(arg, F(1, 2)) }

func newPow(base, exp Expr) *Pow {
	p := &Pow{base: base, exp: exp, canon: true}
	p.str = p.render()
	return p
}

// Simplify folds numeric powers exactly, merges (b^a)^n and distributes
// (x*y)^n for integer n. Non-integer outer exponents never merge, so
// (x^2)^(1/2) stays as written.
func (p *Pow) Simplify() Expr {
	if p.canon {
		return p
	}
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	if bn, ok := base.(*Num); ok {
		if bn.IsZero() {
			// 0^0 is folded above; 0^negative stays symbolic.
			if expIsNum && en.IsPositive() {
				return N(0)
			}
			return newPow(base, exp)
		}
		if bn.IsOne() {
			return N(1)
		}
		if expIsNum && en.IsInteger() {
			if r, ok := ratPow(bn.val, en.val.Num()); ok {
				return &Num{val: r}
			}
		}
		if expIsNum && en.val.Denom().Cmp(big.NewInt(2)) == 0 {
			if root, ok := ratSqrt(bn.val); ok {
				if r, ok := ratPow(root, en.val.Num()); ok {
					return &Num{val: r}
				}
			}
		}
	}

	if expIsNum && en.IsInteger() {
		switch b := base.(type) {
		case *Pow:
			return PowOf(b.base, MulOf(b.exp, en))
		case *Mul:
			fs := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				fs[i] = PowOf(f, en)
			}
			return MulOf(fs...)
		}
	}
	return newPow(base, exp)
}

func (p *Pow) String() string {
	if p.canon {
		return p.str
	}
	return p.render()
}

func (p *Pow) render() string {
	baseStr := p.base.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if b.IsNegative() || !b.IsInteger() {
			baseStr = "(" + baseStr + ")"
		}
	}
	expStr := p.exp.String()
	switch e := p.exp.(type) {
	case *Sym, *Func:
	case *Num:
		if e.IsNegative() || !e.IsInteger() {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if e, ok := p.exp.(*Num); ok {
		if e.IsNegative() {
			return "\\frac{1}{" + PowOf(p.base, numNeg(e)).LaTeX() + "}"
		}
		if e.val.Cmp(big.NewRat(1, 2)) == 0 {
			return "\\sqrt{" + p.base.LaTeX() + "}"
		}
	}
	baseStr := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "\\left(" + baseStr + "\\right)"
	case *Func:
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if _, expIsNum := p.exp.(*Num); expIsNum {
		if IsZeroNum(du) {
			return N(0)
		}
		newExp := AddOf(p.exp, N(-1))
		return MulOf(p.exp, PowOf(p.base, newExp), du)
	}
	if _, baseIsNum := p.base.(*Num); baseIsNum {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

// Eval is exact: only integer powers of numbers evaluate.
func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 || !e.IsInteger() {
		return nil, false
	}
	r, ok := ratPow(b.val, e.val.Num())
	if !ok {
		return nil, false
	}
	return &Num{val: r}, true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }
