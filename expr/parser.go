package expr

import "fmt"

type parser struct {
	toks []token
	pos  int
}

// Parse builds the expression tree for src.
// It returns a *SyntaxError when src is not a well formed expression.
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	n, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected(t)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

func (p *parser) unexpected(t token) error {
	if t.kind == tokEOF {
		return &SyntaxError{Pos: t.pos, Msg: "unexpected end of expression"}
	}
	return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.next().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Operator{Op: op, Args: []Node{left, right}}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseImplicit()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/") {
		op := p.next().text
		right, err := p.parseImplicit()
		if err != nil {
			return nil, err
		}
		left = &Operator{Op: op, Args: []Node{left, right}}
	}
	return left, nil
}

// parseImplicit handles juxtaposition: an operand directly followed by
// an identifier or an opening parenthesis multiplies it.
func (p *parser) parseImplicit() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		k := p.peek().kind
		if k != tokIdent && k != tokLParen {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Operator{Op: "*", Args: []Node{left, right}, Implicit: true}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if p.isOp("-", "+") {
		op := p.next().text
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Operator{Op: op, Args: []Node{operand}}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !p.isOp("^") {
		return base, nil
	}
	p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Operator{Op: "^", Args: []Node{base, exp}}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &Number{Value: t.num}, nil
	case tokIdent:
		if p.peek().kind != tokLParen {
			return &Symbol{Name: t.text}, nil
		}
		p.next()
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &Call{Name: t.text, Args: args}, nil
	case tokLParen:
		inner, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			if c.kind == tokEOF {
				return nil, &SyntaxError{Pos: t.pos, Msg: "unbalanced parenthesis"}
			}
			return nil, p.unexpected(c)
		}
		return &Paren{Content: inner}, nil
	default:
		return nil, p.unexpected(t)
	}
}

// parseArgs reads a comma separated argument list after the opening
// parenthesis, consuming the closing one.
func (p *parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.peek().kind == tokRParen {
		p.next()
		return args, nil
	}
	for {
		a, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		switch t := p.next(); t.kind {
		case tokComma:
		case tokRParen:
			return args, nil
		case tokEOF:
			return nil, &SyntaxError{Pos: t.pos, Msg: "unbalanced parenthesis"}
		default:
			return nil, p.unexpected(t)
		}
	}
}
