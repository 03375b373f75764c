package symbolic

import "math"

var (
	zero = &Num{Value: 0}
	one  = &Num{Value: 1}
	two  = &Num{Value: 2}
)

// Constructors fold numeric literals and drop identity elements so that
// derivatives stay readable in reports.

func isNum(e Expr, v float64) bool {
	n, ok := e.(*Num)
	return ok && n.Value == v
}

func isZero(e Expr) bool { return isNum(e, 0) }

func numValue(e Expr) (float64, bool) {
	n, ok := e.(*Num)
	if !ok {
		return 0, false
	}
	return n.Value, true
}

// Add builds a + b.
func Add(a, b Expr) Expr {
	av, aok := numValue(a)
	bv, bok := numValue(b)
	switch {
	case aok && bok:
		return &Num{Value: av + bv}
	case aok && av == 0:
		return b
	case bok && bv == 0:
		return a
	case bok && bv < 0:
		return &Binary{Op: '-', L: a, R: &Num{Value: -bv}}
	}
	if nb, ok := b.(*Neg); ok {
		return Sub(a, nb.X)
	}
	return &Binary{Op: '+', L: a, R: b}
}

// Sub builds a - b.
func Sub(a, b Expr) Expr {
	av, aok := numValue(a)
	bv, bok := numValue(b)
	switch {
	case aok && bok:
		return &Num{Value: av - bv}
	case bok && bv == 0:
		return a
	case aok && av == 0:
		return Negate(b)
	}
	if nb, ok := b.(*Neg); ok {
		return Add(a, nb.X)
	}
	return &Binary{Op: '-', L: a, R: b}
}

// Mul builds a * b.
func Mul(a, b Expr) Expr {
	av, aok := numValue(a)
	bv, bok := numValue(b)
	switch {
	case aok && bok:
		return &Num{Value: av * bv}
	case (aok && av == 0) || (bok && bv == 0):
		return zero
	case aok && av == 1:
		return b
	case bok && bv == 1:
		return a
	case aok && av == -1:
		return Negate(b)
	case bok && bv == -1:
		return Negate(a)
	case bok:
		// keep numeric coefficients in front
		return &Binary{Op: '*', L: b, R: a}
	}
	return &Binary{Op: '*', L: a, R: b}
}

// Div builds a / b.
func Div(a, b Expr) Expr {
	av, aok := numValue(a)
	bv, bok := numValue(b)
	switch {
	case aok && bok && bv != 0:
		return &Num{Value: av / bv}
	case aok && av == 0:
		return zero
	case bok && bv == 1:
		return a
	}
	return &Binary{Op: '/', L: a, R: b}
}

// Pow builds a ^ b.
func Pow(a, b Expr) Expr {
	av, aok := numValue(a)
	bv, bok := numValue(b)
	switch {
	case aok && bok:
		return &Num{Value: math.Pow(av, bv)}
	case bok && bv == 0:
		return one
	case bok && bv == 1:
		return a
	case aok && av == 1:
		return one
	}
	return &Binary{Op: '^', L: a, R: b}
}

// Negate builds -x.
func Negate(x Expr) Expr {
	switch v := x.(type) {
	case *Num:
		return &Num{Value: -v.Value}
	case *Neg:
		return v.X
	}
	return &Neg{X: x}
}

// Apply builds fn(arg). Unknown names are rejected by the parser, not here.
func Apply(fn string, arg Expr) Expr {
	return &Call{Fn: fn, Arg: arg}
}

type function struct {
	eval       func(float64) float64
	derivative func(u Expr) Expr
}

var functions = map[string]function{
	"sin":  {math.Sin, func(u Expr) Expr { return Apply("cos", u) }},
	"cos":  {math.Cos, func(u Expr) Expr { return Negate(Apply("sin", u)) }},
	"tan":  {math.Tan, func(u Expr) Expr { return Div(one, Pow(Apply("cos", u), two)) }},
	"asin": {math.Asin, func(u Expr) Expr { return Div(one, Apply("sqrt", Sub(one, Pow(u, two)))) }},
	"acos": {math.Acos, func(u Expr) Expr { return Negate(Div(one, Apply("sqrt", Sub(one, Pow(u, two))))) }},
	"atan": {math.Atan, func(u Expr) Expr { return Div(one, Add(one, Pow(u, two))) }},
	"sinh": {math.Sinh, func(u Expr) Expr { return Apply("cosh", u) }},
	"cosh": {math.Cosh, func(u Expr) Expr { return Apply("sinh", u) }},
	"tanh": {math.Tanh, func(u Expr) Expr { return Sub(one, Pow(Apply("tanh", u), two)) }},
	"exp":  {math.Exp, func(u Expr) Expr { return Apply("exp", u) }},
	"log":  {math.Log, func(u Expr) Expr { return Div(one, u) }},
	"ln":   {math.Log, func(u Expr) Expr { return Div(one, u) }},
	"sqrt": {math.Sqrt, func(u Expr) Expr { return Div(one, Mul(two, Apply("sqrt", u))) }},
	"abs":  {math.Abs, func(u Expr) Expr { return Div(u, Apply("abs", u)) }},
}

// IsFunction reports whether name is a supported function.
func IsFunction(name string) bool {
	_, ok := functions[name]
	return ok
}
