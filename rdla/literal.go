package rdla

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Neumenon/rdl2/rdl"
)

// Helper functions recognized inside attribute values.
const (
	fnBlur  = "blur"
	fnBind  = "bind"
	fnUndef = "undef"
)

type nodeKind uint8

const (
	nodeNil nodeKind = iota
	nodeBool
	nodeInt
	nodeFloat
	nodeString
	nodeCall // Name(args...)
	nodeList // {items...}
)

// node is one parsed literal. Values are resolved against the attribute
// type only when the literal is applied to an object.
type node struct {
	kind  nodeKind
	pos   Position
	text  string // number text, string contents or call name
	b     bool
	items []*node // call arguments or list items
}

func (n *node) isCall(name string) bool {
	return n.kind == nodeCall && n.text == name
}

// isRef reports whether n has the shape of an object reference,
// Class("/name").
func (n *node) isRef() bool {
	return n.kind == nodeCall && len(n.items) == 1 && n.items[0].kind == nodeString &&
		n.text != fnBlur && n.text != fnBind && n.text != fnUndef
}

func (n *node) isNull() bool {
	return n.kind == nodeNil || n.isCall(fnUndef)
}

// ============================================================
// Literal parsing
// ============================================================

func (p *parser) parseLiteral() (*node, error) {
	tok := p.stream.Peek()
	switch tok.Type {
	case TokenNil:
		p.stream.Advance()
		return &node{kind: nodeNil, pos: tok.Pos}, nil
	case TokenTrue, TokenFalse:
		p.stream.Advance()
		return &node{kind: nodeBool, pos: tok.Pos, b: tok.Type == TokenTrue}, nil
	case TokenInt:
		p.stream.Advance()
		return &node{kind: nodeInt, pos: tok.Pos, text: tok.Value}, nil
	case TokenFloat:
		p.stream.Advance()
		return &node{kind: nodeFloat, pos: tok.Pos, text: tok.Value}, nil
	case TokenString:
		p.stream.Advance()
		return &node{kind: nodeString, pos: tok.Pos, text: tok.Value}, nil
	case TokenIdent:
		p.stream.Advance()
		items, err := p.parseSequence(TokenLParen, TokenRParen)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeCall, pos: tok.Pos, text: tok.Value, items: items}, nil
	case TokenLBrace:
		items, err := p.parseSequence(TokenLBrace, TokenRBrace)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeList, pos: tok.Pos, items: items}, nil
	default:
		return nil, p.errorf(tok.Pos, "unexpected %s in value", tok)
	}
}

// parseSequence parses open item, item, ... close. A trailing separator
// is allowed.
func (p *parser) parseSequence(open, end TokenType) ([]*node, error) {
	if _, err := p.stream.Expect(open); err != nil {
		return nil, err
	}
	var items []*node
	for {
		tok := p.stream.Peek()
		switch tok.Type {
		case end:
			p.stream.Advance()
			return items, nil
		case TokenEOF:
			return nil, p.errorf(tok.Pos, "unterminated %s", open)
		}
		item, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.stream.Match(TokenComma) && p.stream.Peek().Type != end {
			next := p.stream.Peek()
			return nil, p.errorf(next.Pos, "expected , or %s, got %s", end, next)
		}
	}
}

// ============================================================
// Literal to Value
// ============================================================

// value converts a literal to the natural Value of its shape: integers
// become Long, other numbers Double, constructors and numeric lists
// DoubleVector. rdl.Coerce then fits it to the attribute type.
func (p *parser) value(n *node) (rdl.Value, error) {
	switch {
	case n.isNull():
		return rdl.SceneObjectValue(nil), nil
	case n.kind == nodeBool:
		return rdl.BoolValue(n.b), nil
	case n.kind == nodeInt:
		i, err := strconv.ParseInt(n.text, 10, 64)
		if err != nil {
			return rdl.Value{}, p.errorf(n.pos, "integer %s out of range", n.text)
		}
		return rdl.LongValue(i), nil
	case n.kind == nodeFloat:
		f, err := strconv.ParseFloat(n.text, 64)
		if err != nil && !math.IsInf(f, 0) {
			return rdl.Value{}, p.errorf(n.pos, "malformed number %s", n.text)
		}
		return rdl.DoubleValue(f), nil
	case n.kind == nodeString:
		return rdl.StringValue(n.text), nil
	case n.isRef():
		o, err := p.resolveRef(n)
		if err != nil {
			return rdl.Value{}, err
		}
		return rdl.SceneObjectValue(o), nil
	case n.kind == nodeCall:
		fs, err := p.numbers(n.items)
		if err != nil {
			return rdl.Value{}, err
		}
		return rdl.DoubleVectorValue(fs), nil
	default:
		return p.listValue(n)
	}
}

func (p *parser) listValue(n *node) (rdl.Value, error) {
	if len(n.items) == 0 {
		return rdl.Value{}, nil
	}
	first := n.items[0]
	switch {
	case first.kind == nodeBool:
		bs := make([]bool, len(n.items))
		for i, it := range n.items {
			if it.kind != nodeBool {
				return rdl.Value{}, p.errorf(it.pos, "mixed element kinds in list")
			}
			bs[i] = it.b
		}
		return rdl.BoolVectorValue(bs), nil
	case first.kind == nodeString:
		ss := make([]string, len(n.items))
		for i, it := range n.items {
			if it.kind != nodeString {
				return rdl.Value{}, p.errorf(it.pos, "mixed element kinds in list")
			}
			ss[i] = it.text
		}
		return rdl.StringVectorValue(ss), nil
	case first.isRef() || first.isNull():
		objs := make([]*rdl.SceneObject, len(n.items))
		for i, it := range n.items {
			if it.isNull() {
				continue
			}
			if !it.isRef() {
				return rdl.Value{}, p.errorf(it.pos, "mixed element kinds in list")
			}
			o, err := p.resolveRef(it)
			if err != nil {
				return rdl.Value{}, err
			}
			objs[i] = o
		}
		return rdl.SceneObjectVectorValue(objs), nil
	}

	allInts := true
	for _, it := range n.items {
		allInts = allInts && it.kind == nodeInt
	}
	if allInts {
		ns := make([]int64, len(n.items))
		for i, it := range n.items {
			v, err := strconv.ParseInt(it.text, 10, 64)
			if err != nil {
				return rdl.Value{}, p.errorf(it.pos, "integer %s out of range", it.text)
			}
			ns[i] = v
		}
		return rdl.LongVectorValue(ns), nil
	}
	fs, err := p.numbers(n.items)
	if err != nil {
		return rdl.Value{}, err
	}
	return rdl.DoubleVectorValue(fs), nil
}

// numbers flattens numbers, constructors and nested lists of numbers.
func (p *parser) numbers(items []*node) ([]float64, error) {
	var out []float64
	for _, it := range items {
		switch it.kind {
		case nodeInt, nodeFloat:
			f, err := strconv.ParseFloat(it.text, 64)
			if err != nil && !math.IsInf(f, 0) {
				return nil, p.errorf(it.pos, "malformed number %s", it.text)
			}
			out = append(out, f)
		case nodeCall, nodeList:
			if it.isRef() || it.isNull() {
				return nil, p.errorf(it.pos, "expected a number, got an object reference")
			}
			nested, err := p.numbers(it.items)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		default:
			return nil, p.errorf(it.pos, "expected a number")
		}
	}
	return out, nil
}

// attributeValue fits a literal to attribute a. Enumerable ints also
// accept their label as a string.
func (p *parser) attributeValue(a *rdl.Attribute, n *node) (rdl.Value, error) {
	if a.IsEnumerable() && n.kind == nodeString {
		e, ok := a.EnumValueOf(n.text)
		if !ok {
			return rdl.Value{}, p.errorf(n.pos, "%q is not a value of %s", n.text, a.Name())
		}
		return rdl.Coerce(rdl.IntValue(e), a.Type())
	}
	v, err := p.value(n)
	if err != nil {
		return rdl.Value{}, err
	}
	out, err := rdl.Coerce(v, a.Type())
	if err != nil {
		return rdl.Value{}, p.errorf(n.pos, "attribute %s: %v", a.Name(), err)
	}
	return out, nil
}

func (p *parser) errorf(pos Position, format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...), Pos: pos}
}
