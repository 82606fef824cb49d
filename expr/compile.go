package expr

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var (
	ErrUnknownSymbol   = errors.New("unknown symbol")
	ErrUnknownFunction = errors.New("unknown function")
	ErrArity           = errors.New("wrong number of arguments")
	ErrNotConstant     = errors.New("expression depends on a variable")
)

// Var is the name of the iteration variable.
const Var = "z"

var constants = map[string]complex128{
	"i":  1i,
	"pi": complex(math.Pi, 0),
	"e":  complex(math.E, 0),
}

type fn func(z complex128) complex128

// function holds one implementation per accepted argument count.
type function struct {
	one func(complex128) complex128
	two func(a, b complex128) complex128
}

func unary(f func(complex128) complex128) function { return function{one: f} }

func (f function) arity() []int {
	var a []int
	if f.one != nil {
		a = append(a, 1)
	}
	if f.two != nil {
		a = append(a, 2)
	}
	return a
}

var functions = map[string]function{
	"sin":   unary(cmplx.Sin),
	"cos":   unary(cmplx.Cos),
	"tan":   unary(cmplx.Tan),
	"asin":  unary(cmplx.Asin),
	"acos":  unary(cmplx.Acos),
	"atan":  unary(cmplx.Atan),
	"sinh":  unary(cmplx.Sinh),
	"cosh":  unary(cmplx.Cosh),
	"tanh":  unary(cmplx.Tanh),
	"exp":   unary(cmplx.Exp),
	"sqrt":  unary(cmplx.Sqrt),
	"conj":  unary(cmplx.Conj),
	"abs":   unary(func(x complex128) complex128 { return complex(cmplx.Abs(x), 0) }),
	"arg":   unary(func(x complex128) complex128 { return complex(cmplx.Phase(x), 0) }),
	"re":    unary(func(x complex128) complex128 { return complex(real(x), 0) }),
	"im":    unary(func(x complex128) complex128 { return complex(imag(x), 0) }),
	"ln":    unary(cmplx.Log),
	"log10": unary(cmplx.Log10),
	"log": {
		one: cmplx.Log,
		two: func(a, b complex128) complex128 { return cmplx.Log(a) / cmplx.Log(b) },
	},
	"pow": {two: Pow},
}

// Program is a compiled expression in the variable z.
// A Program holds no mutable state and may be evaluated concurrently.
type Program struct {
	src  string
	root Node
	eval fn
}

// Compile parses src and builds an evaluator for it.
func Compile(src string) (*Program, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	eval, err := compile(root, true)
	if err != nil {
		return nil, err
	}
	return &Program{src: src, root: root, eval: eval}, nil
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string { return p.src }

// Tree returns the parsed expression.
func (p *Program) Tree() Node { return p.root }

// Eval evaluates the expression at z. Real results come back with a zero
// imaginary part.
func (p *Program) Eval(z complex128) complex128 { return p.eval(z) }

// EvalConst folds a subtree that does not reference the variable.
func EvalConst(n Node) (complex128, error) {
	f, err := compile(n, false)
	if err != nil {
		return 0, err
	}
	return f(0), nil
}

// compile turns n into a closure. Subtrees without the variable are
// folded into constants once.
func compile(n Node, allowVar bool) (fn, error) {
	f, dependsOnVar, err := compileNode(n, allowVar)
	if err != nil {
		return nil, err
	}
	if !dependsOnVar {
		v := f(0)
		return func(complex128) complex128 { return v }, nil
	}
	return f, nil
}

func compileNode(n Node, allowVar bool) (fn, bool, error) {
	switch n := n.(type) {
	case *Number:
		v := complex(n.Value, 0)
		return func(complex128) complex128 { return v }, false, nil

	case *Symbol:
		if n.Name == Var {
			if !allowVar {
				return nil, false, ErrNotConstant
			}
			return func(z complex128) complex128 { return z }, true, nil
		}
		v, ok := constants[n.Name]
		if !ok {
			return nil, false, fmt.Errorf("%w: %q", ErrUnknownSymbol, n.Name)
		}
		return func(complex128) complex128 { return v }, false, nil

	case *Paren:
		return compileNode(n.Content, allowVar)

	case *Operator:
		return compileOperator(n, allowVar)

	case *Call:
		f, ok := functions[n.Name]
		if !ok {
			return nil, false, fmt.Errorf("%w: %q", ErrUnknownFunction, n.Name)
		}
		if !arityOK(f.arity(), len(n.Args)) {
			return nil, false, fmt.Errorf("%w: %s takes %v, got %d", ErrArity, n.Name, f.arity(), len(n.Args))
		}
		args := make([]fn, len(n.Args))
		dep := false
		for i, a := range n.Args {
			af, d, err := compileNode(a, allowVar)
			if err != nil {
				return nil, false, err
			}
			args[i], dep = af, dep || d
		}
		if len(args) == 1 {
			call, a := f.one, args[0]
			return func(z complex128) complex128 { return call(a(z)) }, dep, nil
		}
		call, a, b := f.two, args[0], args[1]
		return func(z complex128) complex128 { return call(a(z), b(z)) }, dep, nil
	}
	return nil, false, fmt.Errorf("unsupported node %T", n)
}

func compileOperator(n *Operator, allowVar bool) (fn, bool, error) {
	if n.IsUnary() {
		x, dep, err := compileNode(n.Args[0], allowVar)
		if err != nil {
			return nil, false, err
		}
		if n.Op == "+" {
			return x, dep, nil
		}
		return func(z complex128) complex128 { return -x(z) }, dep, nil
	}
	if len(n.Args) != 2 {
		return nil, false, fmt.Errorf("operator %q with %d operands", n.Op, len(n.Args))
	}
	a, depA, err := compileNode(n.Args[0], allowVar)
	if err != nil {
		return nil, false, err
	}
	b, depB, err := compileNode(n.Args[1], allowVar)
	if err != nil {
		return nil, false, err
	}
	dep := depA || depB
	switch n.Op {
	case "+":
		return func(z complex128) complex128 { return a(z) + b(z) }, dep, nil
	case "-":
		return func(z complex128) complex128 { return a(z) - b(z) }, dep, nil
	case "*":
		return func(z complex128) complex128 { return a(z) * b(z) }, dep, nil
	case "/":
		return func(z complex128) complex128 { return a(z) / b(z) }, dep, nil
	case "^":
		if !depB {
			// Resolve the exponent once so z^2 costs one multiplication.
			e := b(0)
			if k, ok := smallInt(e); ok {
				return func(z complex128) complex128 { return ipow(a(z), k) }, dep, nil
			}
			return func(z complex128) complex128 { return cmplx.Pow(a(z), e) }, dep, nil
		}
		return func(z complex128) complex128 { return Pow(a(z), b(z)) }, dep, nil
	}
	return nil, false, fmt.Errorf("unknown operator %q", n.Op)
}

func arityOK(allowed []int, n int) bool {
	for _, a := range allowed {
		if a == n {
			return true
		}
	}
	return false
}

// Pow raises x to y. Small integer exponents use repeated multiplication,
// so z^2 equals z*z exactly.
func Pow(x, y complex128) complex128 {
	if k, ok := smallInt(y); ok {
		return ipow(x, k)
	}
	return cmplx.Pow(x, y)
}

const maxIntPow = 64

func smallInt(y complex128) (int, bool) {
	r := real(y)
	if imag(y) != 0 || r != math.Trunc(r) || math.Abs(r) > maxIntPow {
		return 0, false
	}
	return int(r), true
}

func ipow(x complex128, k int) complex128 {
	if k == 0 {
		return 1
	}
	neg := k < 0
	if neg {
		k = -k
	}
	r := x
	for range k - 1 {
		r *= x
	}
	if neg {
		return 1 / r
	}
	return r
}
