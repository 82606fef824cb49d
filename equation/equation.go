// Package equation recognizes iteration equations that have the closed
// form z = ±z^k + c, so they can be evaluated without the expression
// interpreter.
package equation

import (
	"math"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/expr"
)

// Exponent range recognized for the z^k + c fast form.
const (
	MinPower = 2
	MaxPower = 8
)

// Validate reports whether src compiles to an evaluable expression.
func Validate(src string) error {
	_, err := expr.Compile(src)
	return err
}

// AnalyzeSource parses src and runs Analyze on the result. Unparseable
// sources yield nil.
func AnalyzeSource(src string) *julia.FastForm {
	n, err := expr.Parse(src)
	if err != nil {
		return nil
	}
	return Analyze(n)
}

type term struct {
	node expr.Node
	sign float64
}

// Analyze returns the fast form of the equation rooted at n, or nil if
// the equation does not have the shape coeff*z^k + c with coeff = ±1 and
// integer k in [MinPower, MaxPower].
func Analyze(n expr.Node) *julia.FastForm {
	var terms []term
	collectTerms(n, 1, &terms)

	var (
		power    int
		coeff    float64
		found    bool
		cRe, cIm float64
	)
	for _, t := range terms {
		if k, mult, ok := powerTerm(t.node); ok {
			if found {
				return nil
			}
			found = true
			power = k
			coeff = t.sign * mult
			continue
		}
		v, ok := fold(t.node)
		if !ok {
			return nil
		}
		cRe += t.sign * real(v)
		cIm += t.sign * imag(v)
	}
	if !found || power < MinPower || power > MaxPower {
		return nil
	}
	if coeff != 1 && coeff != -1 {
		return nil
	}
	return &julia.FastForm{Power: power, Coeff: int(coeff), CRe: cRe, CIm: cIm}
}

// collectTerms flattens the additive structure of n into signed terms.
func collectTerms(n expr.Node, sign float64, terms *[]term) {
	switch v := n.(type) {
	case *expr.Paren:
		collectTerms(v.Content, sign, terms)
		return
	case *expr.Operator:
		switch {
		case v.IsBinary("+"):
			collectTerms(v.Args[0], sign, terms)
			collectTerms(v.Args[1], sign, terms)
			return
		case v.IsBinary("-"):
			collectTerms(v.Args[0], sign, terms)
			collectTerms(v.Args[1], -sign, terms)
			return
		case v.IsUnary() && v.Op == "-":
			collectTerms(v.Args[0], -sign, terms)
			return
		case v.IsUnary() && v.Op == "+":
			collectTerms(v.Args[0], sign, terms)
			return
		}
	}
	*terms = append(*terms, term{node: n, sign: sign})
}

// powerTerm matches z^k, pow(z, k) and a constant multiple of either.
// mult is the real constant multiplier, 1 when absent.
func powerTerm(n expr.Node) (k int, mult float64, ok bool) {
	if k, ok := purePower(n); ok {
		return k, 1, true
	}
	op, isOp := unparen(n).(*expr.Operator)
	if !isOp || !op.IsBinary("*") {
		return 0, 0, false
	}
	for i := range 2 {
		k, ok := purePower(op.Args[i])
		if !ok {
			continue
		}
		m, ok := fold(op.Args[1-i])
		if !ok || imag(m) != 0 {
			return 0, 0, false
		}
		return k, real(m), true
	}
	return 0, 0, false
}

// purePower matches z^k and pow(z, k) where k folds to an integer.
func purePower(n expr.Node) (int, bool) {
	var base, exponent expr.Node
	switch v := unparen(n).(type) {
	case *expr.Operator:
		if !v.IsBinary("^") {
			return 0, false
		}
		base, exponent = v.Args[0], v.Args[1]
	case *expr.Call:
		if v.Name != "pow" || len(v.Args) != 2 {
			return 0, false
		}
		base, exponent = v.Args[0], v.Args[1]
	default:
		return 0, false
	}
	if s, ok := base.(*expr.Symbol); !ok || s.Name != expr.Var {
		return 0, false
	}
	e, ok := fold(exponent)
	if !ok || imag(e) != 0 || real(e) != math.Trunc(real(e)) || math.Abs(real(e)) > math.MaxInt32 {
		return 0, false
	}
	return int(real(e)), true
}

// fold evaluates a subtree that does not reference z.
func fold(n expr.Node) (complex128, bool) {
	if ContainsSymbol(n, expr.Var) {
		return 0, false
	}
	v, err := expr.EvalConst(n)
	if err != nil || !finite(real(v)) || !finite(imag(v)) {
		return 0, false
	}
	return v, true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func unparen(n expr.Node) expr.Node {
	for {
		p, ok := n.(*expr.Paren)
		if !ok {
			return n
		}
		n = p.Content
	}
}

// ContainsSymbol reports whether name occurs anywhere in the tree.
func ContainsSymbol(n expr.Node, name string) bool {
	switch v := n.(type) {
	case *expr.Symbol:
		return v.Name == name
	case *expr.Paren:
		return ContainsSymbol(v.Content, name)
	case *expr.Operator:
		for _, a := range v.Args {
			if ContainsSymbol(a, name) {
				return true
			}
		}
	case *expr.Call:
		for _, a := range v.Args {
			if ContainsSymbol(a, name) {
				return true
			}
		}
	}
	return false
}
