// Package symbolic is a small expression kernel for lab formulas: a tree of
// numbers, symbols, arithmetic and elementary functions that can be evaluated
// at a point, differentiated symbolically and rendered as text or LaTeX.
package symbolic

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expr is an immutable expression tree node.
type Expr interface {
	// Eval computes the numeric value with every symbol bound by env.
	Eval(env Env) (float64, error)
	// Diff returns the partial derivative with respect to the named symbol.
	Diff(name string) Expr
	String() string
	LaTeX() string
	precedence() int
	collect(seen map[string]bool, out *[]string)
}

// Env binds symbol names to values.
type Env map[string]float64

// UnboundError is returned by Eval when a symbol has no value in the environment.
type UnboundError struct {
	Name string
}

func (e *UnboundError) Error() string {
	return fmt.Sprintf("symbol '%s' has no value", e.Name)
}

// Builtin constants. A symbol with the same name in Env takes precedence.
var constants = map[string]float64{
	"pi": math.Pi,
	"E":  math.E,
}

// IsBuiltinConstant reports whether name resolves without an Env binding.
func IsBuiltinConstant(name string) bool {
	_, ok := constants[name]
	return ok
}

const (
	precSum = iota + 1
	precProduct
	precUnary
	precPower
	precAtom
)

// Num is a numeric literal.
type Num struct {
	Value float64
}

// Sym is a named variable.
type Sym struct {
	Name string
}

// Neg is unary minus.
type Neg struct {
	X Expr
}

// Binary is one of + - * / ^.
type Binary struct {
	Op   byte
	L, R Expr
}

// Call applies an elementary function to a single argument.
type Call struct {
	Fn  string
	Arg Expr
}

// Variables lists the symbols of e in order of first appearance.
func Variables(e Expr) []string {
	var out []string
	e.collect(map[string]bool{}, &out)
	return out
}

// DependsOn reports whether name occurs in e.
func DependsOn(e Expr, name string) bool {
	for _, v := range Variables(e) {
		if v == name {
			return true
		}
	}
	return false
}

// ---- Num

func (n *Num) Eval(Env) (float64, error)           { return n.Value, nil }
func (n *Num) Diff(string) Expr                    { return zero }
func (n *Num) String() string                      { return formatNumber(n.Value) }
func (n *Num) collect(map[string]bool, *[]string) {}

func (n *Num) precedence() int {
	if n.Value < 0 {
		return precUnary
	}
	return precAtom
}

func (n *Num) LaTeX() string {
	s := formatNumber(n.Value)
	mantissa, exponent, ok := splitExponent(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%s \\cdot 10^{%s}", mantissa, exponent)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func splitExponent(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == 'e' {
			exp := strings.TrimPrefix(s[i+1:], "+")
			sign := ""
			if strings.HasPrefix(exp, "-") {
				sign, exp = "-", exp[1:]
			}
			exp = strings.TrimLeft(exp, "0")
			if exp == "" {
				exp = "0"
			}
			return s[:i], sign + exp, true
		}
	}
	return s, "", false
}

// ---- Sym

func (s *Sym) Eval(env Env) (float64, error) {
	if v, ok := env[s.Name]; ok {
		return v, nil
	}
	if v, ok := constants[s.Name]; ok {
		return v, nil
	}
	return 0, &UnboundError{Name: s.Name}
}

func (s *Sym) Diff(name string) Expr {
	if s.Name == name {
		return one
	}
	return zero
}

func (s *Sym) String() string  { return s.Name }
func (s *Sym) LaTeX() string   { return SymbolLaTeX(s.Name) }
func (s *Sym) precedence() int { return precAtom }

func (s *Sym) collect(seen map[string]bool, out *[]string) {
	if !seen[s.Name] {
		seen[s.Name] = true
		*out = append(*out, s.Name)
	}
}

// ---- Neg

func (n *Neg) Eval(env Env) (float64, error) {
	v, err := n.X.Eval(env)
	return -v, err
}

func (n *Neg) Diff(name string) Expr { return Negate(n.X.Diff(name)) }
func (n *Neg) String() string        { return "-" + wrap(n.X, precUnary, false) }
func (n *Neg) LaTeX() string         { return "-" + wrapLaTeX(n.X, precUnary, false) }
func (n *Neg) precedence() int       { return precUnary }

func (n *Neg) collect(seen map[string]bool, out *[]string) { n.X.collect(seen, out) }

// ---- Binary

func (b *Binary) Eval(env Env) (float64, error) {
	l, err := b.L.Eval(env)
	if err != nil {
		return 0, err
	}
	r, err := b.R.Eval(env)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		return l / r, nil
	case '^':
		return math.Pow(l, r), nil
	}
	return 0, fmt.Errorf("unknown operator %q", b.Op)
}

func (b *Binary) Diff(name string) Expr {
	dl, dr := b.L.Diff(name), b.R.Diff(name)
	switch b.Op {
	case '+':
		return Add(dl, dr)
	case '-':
		return Sub(dl, dr)
	case '*':
		return Add(Mul(dl, b.R), Mul(b.L, dr))
	case '/':
		return Div(Sub(Mul(dl, b.R), Mul(b.L, dr)), Pow(b.R, &Num{Value: 2}))
	case '^':
		return b.diffPow(name, dl, dr)
	}
	return zero
}

func (b *Binary) diffPow(name string, dl, dr Expr) Expr {
	baseVaries := DependsOn(b.L, name)
	expVaries := DependsOn(b.R, name)
	switch {
	case !baseVaries && !expVaries:
		return zero
	case !expVaries:
		// d(u^n) = n*u^(n-1)*du
		return Mul(Mul(b.R, Pow(b.L, Sub(b.R, one))), dl)
	case !baseVaries:
		// d(a^v) = a^v*ln(a)*dv
		return Mul(Mul(b, Apply("log", b.L)), dr)
	default:
		return Mul(b, Add(Mul(dr, Apply("log", b.L)), Div(Mul(b.R, dl), b.L)))
	}
}

func (b *Binary) precedence() int {
	switch b.Op {
	case '+', '-':
		return precSum
	case '*', '/':
		return precProduct
	default:
		return precPower
	}
}

func (b *Binary) String() string {
	p := b.precedence()
	if b.Op == '^' {
		return wrap(b.L, p, true) + "^" + wrap(b.R, p, false)
	}
	rightStrict := b.Op == '-' || b.Op == '/'
	op := " " + string(b.Op) + " "
	if b.Op == '*' || b.Op == '/' {
		op = string(b.Op)
	}
	return wrap(b.L, p, false) + op + wrap(b.R, p, rightStrict)
}

func (b *Binary) LaTeX() string {
	p := b.precedence()
	switch b.Op {
	case '/':
		return "\\frac{" + b.L.LaTeX() + "}{" + b.R.LaTeX() + "}"
	case '^':
		return "{" + wrapLaTeX(b.L, p, true) + "}^{" + b.R.LaTeX() + "}"
	case '*':
		return wrapLaTeX(b.L, p, false) + " \\cdot " + wrapLaTeX(b.R, p, false)
	default:
		return wrapLaTeX(b.L, p, false) + " " + string(b.Op) + " " + wrapLaTeX(b.R, p, b.Op == '-')
	}
}

func (b *Binary) collect(seen map[string]bool, out *[]string) {
	b.L.collect(seen, out)
	b.R.collect(seen, out)
}

// ---- Call

func (c *Call) Eval(env Env) (float64, error) {
	x, err := c.Arg.Eval(env)
	if err != nil {
		return 0, err
	}
	fn, ok := functions[c.Fn]
	if !ok {
		return 0, fmt.Errorf("unknown function '%s'", c.Fn)
	}
	return fn.eval(x), nil
}

func (c *Call) Diff(name string) Expr {
	du := c.Arg.Diff(name)
	if isZero(du) {
		return zero
	}
	fn, ok := functions[c.Fn]
	if !ok {
		return zero
	}
	return Mul(fn.derivative(c.Arg), du)
}

func (c *Call) String() string  { return c.Fn + "(" + c.Arg.String() + ")" }
func (c *Call) precedence() int { return precAtom }

func (c *Call) LaTeX() string {
	arg := c.Arg.LaTeX()
	switch c.Fn {
	case "sqrt":
		return "\\sqrt{" + arg + "}"
	case "abs":
		return "\\left|" + arg + "\\right|"
	case "ln", "log":
		return "\\log{\\left(" + arg + " \\right)}"
	case "exp":
		return "e^{" + arg + "}"
	case "asin", "acos", "atan":
		return "\\operatorname{" + c.Fn + "}{\\left(" + arg + " \\right)}"
	default:
		return "\\" + c.Fn + "{\\left(" + arg + " \\right)}"
	}
}

func (c *Call) collect(seen map[string]bool, out *[]string) { c.Arg.collect(seen, out) }

// ---- printing helpers

func wrap(e Expr, parent int, strict bool) string {
	if needsParens(e, parent, strict) {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func wrapLaTeX(e Expr, parent int, strict bool) string {
	if needsParens(e, parent, strict) {
		return "\\left(" + e.LaTeX() + "\\right)"
	}
	return e.LaTeX()
}

func needsParens(e Expr, parent int, strict bool) bool {
	p := e.precedence()
	if strict {
		return p <= parent
	}
	return p < parent
}
