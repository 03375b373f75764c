package symbolic

import (
	"fmt"
	"strconv"
	"unicode"
)

// SyntaxError describes malformed input with the rune offset where parsing stopped.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Pos, e.Input, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

type lexer struct {
	src []rune
	pos int
	in  string
}

func (lx *lexer) next() (token, error) {
	for lx.pos < len(lx.src) && unicode.IsSpace(lx.src[lx.pos]) {
		lx.pos++
	}
	start := lx.pos
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	r := lx.src[lx.pos]
	switch {
	case r == '(':
		lx.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case r == ')':
		lx.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case r == '*':
		lx.pos++
		if lx.pos < len(lx.src) && lx.src[lx.pos] == '*' {
			lx.pos++
			return token{kind: tokOp, text: "^", pos: start}, nil
		}
		return token{kind: tokOp, text: "*", pos: start}, nil
	case r == '+' || r == '-' || r == '/' || r == '^':
		lx.pos++
		return token{kind: tokOp, text: string(r), pos: start}, nil
	case unicode.IsDigit(r) || r == '.':
		return lx.number()
	case unicode.IsLetter(r) || r == '_':
		for lx.pos < len(lx.src) && (unicode.IsLetter(lx.src[lx.pos]) || unicode.IsDigit(lx.src[lx.pos]) || lx.src[lx.pos] == '_') {
			lx.pos++
		}
		return token{kind: tokIdent, text: string(lx.src[start:lx.pos]), pos: start}, nil
	}
	return token{}, &SyntaxError{Input: lx.in, Pos: start, Msg: fmt.Sprintf("unexpected character %q", r)}
}

func (lx *lexer) number() (token, error) {
	start := lx.pos
	digits := func() int {
		n := 0
		for lx.pos < len(lx.src) && unicode.IsDigit(lx.src[lx.pos]) {
			lx.pos++
			n++
		}
		return n
	}
	n := digits()
	if lx.pos < len(lx.src) && lx.src[lx.pos] == '.' {
		lx.pos++
		n += digits()
	}
	if n == 0 {
		return token{}, &SyntaxError{Input: lx.in, Pos: start, Msg: "malformed number"}
	}
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == 'e' || lx.src[lx.pos] == 'E') {
		mark := lx.pos
		lx.pos++
		if lx.pos < len(lx.src) && (lx.src[lx.pos] == '+' || lx.src[lx.pos] == '-') {
			lx.pos++
		}
		if digits() == 0 {
			// "2E" is a number followed by the identifier E
			lx.pos = mark
		}
	}
	text := string(lx.src[start:lx.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, &SyntaxError{Input: lx.in, Pos: start, Msg: fmt.Sprintf("malformed number %q", text)}
	}
	return token{kind: tokNumber, text: text, num: v, pos: start}, nil
}

type parser struct {
	lx  *lexer
	tok token
}

// Parse reads an arithmetic expression:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = ("+" | "-") unary | power
//	power  = atom [ ("^" | "**") unary ]
//	atom   = number | name | name "(" expr ")" | "(" expr ")"
//
// Only the functions known to this package may be called; no other
// construct is evaluated.
func Parse(input string) (Expr, error) {
	p := &parser{lx: &lexer{src: []rune(input), in: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokEOF {
		return nil, &SyntaxError{Input: input, Pos: 0, Msg: "empty expression"}
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.tok.text)
	}
	return e, nil
}

// MustParse is Parse for literals in tests and tables; it panics on error.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) advance() error {
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Input: p.lx.in, Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if p.tok.kind == tokOp && (p.tok.text == "-" || p.tok.text == "+") {
		neg := p.tok.text == "-"
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if neg {
			return &Neg{X: x}, nil
		}
		return x, nil
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.atom()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokOp && p.tok.text == "^" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: '^', L: base, R: exp}, nil
	}
	return base, nil
}

func (p *parser) atom() (Expr, error) {
	switch p.tok.kind {
	case tokNumber:
		v := p.tok.num
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Num{Value: v}, nil
	case tokIdent:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokLParen {
			return &Sym{Name: name}, nil
		}
		if !IsFunction(name) {
			return nil, p.errorf("unknown function '%s'", name)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf("expected ')' after argument of %s", name)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Call{Fn: name, Arg: arg}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf("expected ')'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return e, nil
	case tokEOF:
		return nil, p.errorf("unexpected end of expression")
	}
	return nil, p.errorf("unexpected %q", p.tok.text)
}

// EvalString parses and evaluates a numeric expression in one step.
func EvalString(input string, env Env) (float64, error) {
	e, err := Parse(input)
	if err != nil {
		return 0, err
	}
	return e.Eval(env)
}
