// Package expr parses and compiles arithmetic expressions over complex
// numbers in a single variable.
//
// The grammar follows the usual math-parser conventions: + - * / and
// right-associative ^, unary signs binding tighter than products but
// looser than powers (-z^2 is -(z^2)), implicit multiplication
// (2z, 0.5i, 3(z+1)), function calls, and the constants i, pi and e.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is an element of a parsed expression tree.
type Node interface {
	String() string
	node()
}

// Number is a real numeric literal. Imaginary literals such as 0.5i
// parse as the product of a Number and the Symbol i.
type Number struct {
	Value float64
}

// Symbol is a bare identifier: the variable or a named constant.
type Symbol struct {
	Name string
}

// Operator is a unary or binary operation. Unary operators have one
// argument and Op "-" or "+".
type Operator struct {
	Op       string
	Args     []Node
	Implicit bool // juxtaposition such as 2z
}

// Paren is an explicitly parenthesized subexpression.
type Paren struct {
	Content Node
}

// Call is a function application, e.g. pow(z, 3).
type Call struct {
	Name string
	Args []Node
}

func (*Number) node()   {}
func (*Symbol) node()   {}
func (*Operator) node() {}
func (*Paren) node()    {}
func (*Call) node()     {}

func (n *Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (s *Symbol) String() string { return s.Name }

func (o *Operator) String() string {
	switch {
	case len(o.Args) == 1:
		return o.Op + o.Args[0].String()
	case o.Implicit:
		return o.Args[0].String() + " " + o.Args[1].String()
	default:
		return o.Args[0].String() + " " + o.Op + " " + o.Args[1].String()
	}
}

func (p *Paren) String() string { return "(" + p.Content.String() + ")" }

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// IsUnary reports whether o is a sign applied to a single operand.
func (o *Operator) IsUnary() bool { return len(o.Args) == 1 }

// IsBinary reports whether o applies op to exactly two operands.
func (o *Operator) IsBinary(op string) bool {
	return len(o.Args) == 2 && o.Op == op
}

// SyntaxError reports a malformed expression. Pos is a byte offset into
// the source.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}
