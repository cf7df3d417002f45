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

import "strings"

// Apply is a function invocation, i.e.
//
//	Fn '(' Args... ')'
//
// An argument that is a Pair is passed as a
// named argument; all others are positional.
type Apply struct {
	srcspan
	Fn   Node
	Args []Node
}

// Call yields 'fn(args...)'.
func Call(fn Node, args ...Node) *Apply {
	return &Apply{Fn: fn, Args: args}
}

func (a *Apply) walk(v Visitor) {
	Walk(v, a.Fn)
	for i := range a.Args {
		Walk(v, a.Args[i])
	}
}

func (a *Apply) rewrite(r Rewriter) Node {
	a.Fn = Rewrite(r, a.Fn)
	for i := range a.Args {
		a.Args[i] = Rewrite(r, a.Args[i])
	}
	return a
}

func (a *Apply) Equals(x Node) bool {
	xa, ok := x.(*Apply)
	return ok && a.Fn.Equals(xa.Fn) && equalNodes(a.Args, xa.Args)
}

func (a *Apply) text(dst *strings.Builder, redact bool) {
	child(dst, a.Fn, redact)
	dst.WriteByte('(')
	for i := range a.Args {
		if i > 0 {
			dst.WriteString(", ")
		}
		a.Args[i].text(dst, redact)
	}
	dst.WriteByte(')')
}

// Bind constructs an ordered record from its
// key/value pairs. Values may refer to keys
// bound earlier in the same record.
type Bind struct {
	srcspan
	Pairs []*Pair
}

// NewBind yields 'bind(k1: v1, k2: v2, ...)'.
func NewBind(pairs ...*Pair) *Bind {
	return &Bind{Pairs: pairs}
}

func (b *Bind) walk(v Visitor) {
	for i := range b.Pairs {
		Walk(v, b.Pairs[i])
	}
}

func (b *Bind) rewrite(r Rewriter) Node {
	for i := range b.Pairs {
		n := Rewrite(r, b.Pairs[i])
		p, ok := n.(*Pair)
		if !ok {
			panic("expr.Bind: rewrite of a bind pair must produce a pair")
		}
		b.Pairs[i] = p
	}
	return b
}

func (b *Bind) Equals(x Node) bool {
	xb, ok := x.(*Bind)
	if !ok || len(b.Pairs) != len(xb.Pairs) {
		return false
	}
	for i := range b.Pairs {
		if !b.Pairs[i].Equals(xb.Pairs[i]) {
			return false
		}
	}
	return true
}

func (b *Bind) text(dst *strings.Builder, redact bool) {
	dst.WriteString("bind(")
	for i := range b.Pairs {
		if i > 0 {
			dst.WriteString(", ")
		}
		b.Pairs[i].text(dst, redact)
	}
	dst.WriteByte(')')
}

// Repeat is a sequence literal; its children
// evaluate and meld into one repeated value,
// so all elements must share an element type.
type Repeat struct {
	srcspan
	Values []Node
}

// NewRepeat yields '(v1, v2, ...)'.
func NewRepeat(vals ...Node) *Repeat {
	return &Repeat{Values: vals}
}

func (t *Repeat) walk(v Visitor) {
	for i := range t.Values {
		Walk(v, t.Values[i])
	}
}

func (t *Repeat) rewrite(r Rewriter) Node {
	for i := range t.Values {
		t.Values[i] = Rewrite(r, t.Values[i])
	}
	return t
}

func (t *Repeat) Equals(x Node) bool {
	xt, ok := x.(*Repeat)
	return ok && equalNodes(t.Values, xt.Values)
}

func (t *Repeat) text(dst *strings.Builder, redact bool) {
	dst.WriteByte('(')
	for i := range t.Values {
		if i > 0 {
			dst.WriteString(", ")
		}
		t.Values[i].text(dst, redact)
	}
	dst.WriteByte(')')
}

// Tuple is a fixed heterogeneous ordered tuple.
// Unlike Repeat it never melds and its elements
// need not share a type.
type Tuple struct {
	srcspan
	Values []Node
}

// NewTuple yields '[v1, v2, ...]'.
func NewTuple(vals ...Node) *Tuple {
	return &Tuple{Values: vals}
}

func (t *Tuple) walk(v Visitor) {
	for i := range t.Values {
		Walk(v, t.Values[i])
	}
}

func (t *Tuple) rewrite(r Rewriter) Node {
	for i := range t.Values {
		t.Values[i] = Rewrite(r, t.Values[i])
	}
	return t
}

func (t *Tuple) Equals(x Node) bool {
	xt, ok := x.(*Tuple)
	return ok && equalNodes(t.Values, xt.Values)
}

func (t *Tuple) text(dst *strings.Builder, redact bool) {
	dst.WriteByte('[')
	for i := range t.Values {
		if i > 0 {
			dst.WriteString(", ")
		}
		t.Values[i].text(dst, redact)
	}
	dst.WriteByte(']')
}

// IfElse evaluates as an if/else-if/else chain.
//
// Children at even ordinals (0, 2, 4, ...) are
// conditions; the child after each condition is
// the value produced when that condition is the
// first to evaluate truthy. A trailing child
// with no condition is the mandatory else block.
type IfElse struct {
	srcspan
	Nodes []Node
}

// NewIfElse yields 'if cond1 then val1 else if ... else default'.
func NewIfElse(nodes ...Node) *IfElse {
	return &IfElse{Nodes: nodes}
}

// Default returns the else block, or nil if
// the chain was built without one.
func (e *IfElse) Default() Node {
	if len(e.Nodes)%2 != 0 {
		return e.Nodes[len(e.Nodes)-1]
	}
	return nil
}

func (e *IfElse) walk(v Visitor) {
	for i := range e.Nodes {
		Walk(v, e.Nodes[i])
	}
}

func (e *IfElse) rewrite(r Rewriter) Node {
	for i := range e.Nodes {
		e.Nodes[i] = Rewrite(r, e.Nodes[i])
	}
	return e
}

func (e *IfElse) Equals(x Node) bool {
	xe, ok := x.(*IfElse)
	return ok && equalNodes(e.Nodes, xe.Nodes)
}

func (e *IfElse) text(dst *strings.Builder, redact bool) {
	wrote := false
	for i := 0; i+1 < len(e.Nodes); i += 2 {
		if wrote {
			dst.WriteString(" else ")
		}
		dst.WriteString("if ")
		child(dst, e.Nodes[i], redact)
		dst.WriteString(" then ")
		child(dst, e.Nodes[i+1], redact)
		wrote = true
	}
	if def := e.Default(); def != nil {
		if wrote {
			dst.WriteString(" else ")
		}
		child(dst, def, redact)
	}
}
