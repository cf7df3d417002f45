// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package expr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// Visitor is an interface that must
// be satisfied by the argument to Visit.
//
// A Visitor's Visit method is invoked for each node encountered by Walk. If
// the result visitor w is not nil, Walk visits each of the children of node
// with the visitor w, followed by a call of w.Visit(nil).
//
// (see also: ast.Visitor)
type Visitor interface {
	Visit(Node) Visitor
}

// Rewriter accepts a Node and returns
// a new node (or just its argument)
type Rewriter interface {
	// Rewrite is applied to nodes
	// in depth-first order, and each
	// node is re-written to use the
	// returned value.
	Rewrite(Node) Node

	// Walk is called during node traversal
	// and the returned Rewriter is used for
	// all the children of Node.
	// If the returned rewriter is nil,
	// then traversal does not proceed past Node.
	Walk(Node) Rewriter
}

type nonleaf interface {
	rewrite(r Rewriter) Node
}

// Rewrite recursively applies a Rewriter in depth-first order
func Rewrite(r Rewriter, n Node) Node {
	if n == nil {
		return nil
	}
	nl, ok := n.(nonleaf)
	if ok {
		rc := r.Walk(n)
		if rc != nil {
			n = nl.rewrite(rc)
		}
	}
	n = r.Rewrite(n)
	return n
}

// Walk traverses an AST in depth-first order: It starts by calling
// v.Visit(node); node must not be nil. If the visitor w returned by
// v.Visit(node) is not nil, Walk is invoked recursively with visitor w for
// each of the non-nil children of node, followed by a call of w.Visit(nil).
//
// (see also: ast.Walk)
func Walk(v Visitor, n Node) {
	w := v.Visit(n)
	if w != nil {
		n.walk(w)
		w.Visit(nil)
	}
}

type Printable interface {
	// text should write the textual representation
	// of this node to dst, and should redact itself
	// if it is a constant and redact is true
	text(dst *strings.Builder, redact bool)
}

// Node is an expression AST node
type Node interface {
	Printable
	// Equals returns whether this node
	// is equivalent to another node.
	// Nodes are Equal if they have the
	// same kind and equal children;
	// source spans are ignored.
	Equals(Node) bool

	// Span returns the source byte range
	// this node was parsed from, or (0, 0)
	// for synthesized nodes.
	Span() (start, end int)

	// SetSpan records the source byte range
	// of this node. Parsers call it once
	// during construction; spans do not
	// participate in Equals.
	SetSpan(start, end int)

	walk(Visitor)
}

// srcspan is embedded in every node type
// to carry source position metadata.
type srcspan struct {
	from, to int
}

func (s *srcspan) Span() (int, int)     { return s.from, s.to }
func (s *srcspan) SetSpan(from, to int) { s.from, s.to = from, to }

// Equal returns whether a and b are equivalent.
// a or b may be nil.
func Equal(a, b Node) bool {
	if a == nil {
		return b == nil
	}
	return b != nil && a.Equals(b)
}

func equalNodes(a, b []Node) bool {
	return slices.EqualFunc(a, b, Equal)
}

// ToString returns the string
// representation of this AST node
// and its children.
func ToString(p Printable) string {
	if p == nil {
		return "<nil>"
	}
	var dst strings.Builder
	p.text(&dst, false)
	return dst.String()
}

// ToRedacted returns the string
// representation of this AST node
// and its children, but with all
// constants replaced by placeholders.
func ToRedacted(p Printable) string {
	if p == nil {
		return "<nil>"
	}
	var dst strings.Builder
	p.text(&dst, true)
	return dst.String()
}

// Literal is a constant-valued AST node.
// Value holds the host representation of
// the constant: nil, bool, a numeric type,
// string, time.Time, or a slice of values.
type Literal struct {
	srcspan
	Value any
}

// NewLiteral constructs a literal node from a host value.
func NewLiteral(v any) *Literal { return &Literal{Value: v} }

func (l *Literal) walk(v Visitor) {}

func (l *Literal) Equals(x Node) bool {
	xl, ok := x.(*Literal)
	return ok && literalEq(l.Value, xl.Value)
}

// literalEq compares constant values; numbers
// compare by value, so 1 and 1.0 are equal.
func literalEq(a, b any) bool {
	if ai, aok := asInt(a); aok {
		if bi, bok := asInt(b); bok {
			return ai == bi
		}
	}
	if an, aok := asFloat(a); aok {
		bn, bok := asFloat(b)
		return bok && an == bn
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		return ok && slices.EqualFunc(av, bv, literalEq)
	}
	return a == b
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func (l *Literal) text(dst *strings.Builder, redact bool) {
	if redact {
		dst.WriteByte('?')
		return
	}
	writeValue(dst, l.Value)
}

func writeValue(dst *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		dst.WriteString("null")
	case bool:
		if v {
			dst.WriteString("true")
		} else {
			dst.WriteString("false")
		}
	case string:
		dst.WriteString(strconv.Quote(v))
	case int64:
		var buf [32]byte
		dst.Write(strconv.AppendInt(buf[:0], v, 10))
	case int:
		var buf [32]byte
		dst.Write(strconv.AppendInt(buf[:0], int64(v), 10))
	case float64:
		var buf [32]byte
		dst.Write(strconv.AppendFloat(buf[:0], v, 'g', -1, 64))
	case time.Time:
		dst.WriteString(strconv.Quote(v.Format(time.RFC3339)))
	case []any:
		dst.WriteByte('[')
		for i := range v {
			if i > 0 {
				dst.WriteString(", ")
			}
			writeValue(dst, v[i])
		}
		dst.WriteByte(']')
	default:
		fmt.Fprintf(dst, "%v", v)
	}
}

// Var is an identifier reference resolved
// against the scope stack at evaluation time.
type Var struct {
	srcspan
	Name string
}

// Ident produces a variable reference node
// from an identifier string.
func Ident(name string) *Var { return &Var{Name: name} }

func (i *Var) walk(v Visitor) {}

func (i *Var) Equals(x Node) bool {
	xi, ok := x.(*Var)
	return ok && i.Name == xi.Name
}

func (i *Var) text(dst *strings.Builder, redact bool) {
	dst.WriteString(i.Name)
}

// leaf reports whether n renders as a single
// token; compound children get parenthesized
// by infix printers.
func leaf(n Node) bool {
	switch n.(type) {
	case *Literal, *Var:
		return true
	}
	return false
}

func child(dst *strings.Builder, n Node, redact bool) {
	if n == nil {
		return
	}
	if leaf(n) {
		n.text(dst, redact)
		return
	}
	dst.WriteByte('(')
	n.text(dst, redact)
	dst.WriteByte(')')
}

func infix(dst *strings.Builder, op string, nodes []Node, redact bool) {
	for i := range nodes {
		if i > 0 {
			dst.WriteByte(' ')
			dst.WriteString(op)
			dst.WriteByte(' ')
		}
		child(dst, nodes[i], redact)
	}
}
