package symbolic

import (
	"fmt"
	"math/big"
	"strings"
	"text/scanner"
)

// ============================================================
// Parser — infix text to Expr
// ============================================================

// ParseError reports the byte offset of the first syntax error.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("symbolic: parse error at offset %d: %s", e.Pos, e.Msg)
}

// Parse reads an infix expression. Precedence from loosest: + -, * /,
// unary minus, ^ (right associative, ** is accepted as a synonym).
// Numbers are exact: 0.25 parses as 1/4. A call to a name outside the
// built-in functions is an undefined function, so f(x) differentiates to
// D[f](x). log is ln and sqrt(u) is u^(1/2).
func Parse(src string) (e Expr, err error) {
	p := &parser{}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.fail(s.Position.Offset, msg)
	}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*ParseError)
			if !ok {
				panic(r)
			}
			e, err = nil, pe
		}
	}()
	p.next()
	e = p.sum()
	if p.tok != scanner.EOF {
		p.fail(p.pos, fmt.Sprintf("unexpected %q", p.lit))
	}
	return e, nil
}

// MustParse is Parse for trusted literals; it panics on error.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	s   scanner.Scanner
	tok rune
	lit string
	pos int
}

func (p *parser) fail(pos int, msg string) {
	panic(&ParseError{Pos: pos, Msg: msg})
}

func (p *parser) next() {
	p.tok = p.s.Scan()
	p.lit = p.s.TokenText()
	p.pos = p.s.Position.Offset
	if p.tok == '*' && p.s.Peek() == '*' {
		p.s.Next()
		p.tok, p.lit = '^', "**"
	}
}

func (p *parser) expect(tok rune) {
	if p.tok != tok {
		p.fail(p.pos, fmt.Sprintf("expected %q, found %s", tok, p.describe()))
	}
	p.next()
}

func (p *parser) describe() string {
	if p.tok == scanner.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", p.lit)
}

func (p *parser) sum() Expr {
	terms := []Expr{p.product()}
	for p.tok == '+' || p.tok == '-' {
		op := p.tok
		p.next()
		t := p.product()
		if op == '-' {
			t = NegOf(t)
		}
		terms = append(terms, t)
	}
	return AddOf(terms...)
}

func (p *parser) product() Expr {
	factors := []Expr{p.unary()}
	for p.tok == '*' || p.tok == '/' {
		op := p.tok
		p.next()
		f := p.unary()
		if op == '/' {
			f = PowOf(f, N(-1))
		}
		factors = append(factors, f)
	}
	return MulOf(factors...)
}

func (p *parser) unary() Expr {
	switch p.tok {
	case '-':
		p.next()
		return NegOf(p.unary())
	case '+':
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() Expr {
	base := p.primary()
	if p.tok == '^' {
		p.next()
		return PowOf(base, p.unary())
	}
	return base
}

func (p *parser) primary() Expr {
	switch p.tok {
	case scanner.Int, scanner.Float:
		r, ok := new(big.Rat).SetString(p.lit)
		if !ok {
			p.fail(p.pos, fmt.Sprintf("bad number %q", p.lit))
		}
		p.next()
		return &Num{val: r}
	case scanner.Ident:
		name := p.lit
		p.next()
		if p.tok != '(' {
			return S(name)
		}
		p.next()
		arg := p.sum()
		p.expect(')')
		return call(name, arg)
	case '(':
		p.next()
		e := p.sum()
		p.expect(')')
		return e
	}
	p.fail(p.pos, "unexpected "+p.describe())
	return nil
}

func call(name string, arg Expr) Expr {
	switch name {
	case "sqrt":
		return SqrtOf(arg)
	case "log":
		return LnOf(arg)
	}
	return Apply(name, arg)
}
