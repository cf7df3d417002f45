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

// WithinOp selects the behavior of a Within node.
type WithinOp int

const (
	OpMap    WithinOp = iota // map Expr over every element of Context
	OpLet                    // like map, over Context as a single value
	OpFilter                 // keep elements where Expr is truthy
	OpSort                   // order elements by the Expr sort key
	OpAny                    // true if Expr is truthy for some element
	OpEach                   // true if Expr is truthy for every element
)

func (w WithinOp) String() string {
	switch w {
	case OpMap:
		return "map"
	case OpLet:
		return "let"
	case OpFilter:
		return "filter"
	case OpSort:
		return "sort"
	case OpAny:
		return "any"
	case OpEach:
		return "each"
	}
	return "<unknown within op>"
}

// Within evaluates Expr against each element of
// Context, with the element pushed onto the scope
// stack as the innermost bindings. The Op selects
// what is done with the per-element results.
type Within struct {
	srcspan
	Op            WithinOp
	Context, Expr Node
}

// Map yields 'map(ctx, body)': body evaluated per element of ctx.
func Map(ctx, body Node) *Within {
	return &Within{Op: OpMap, Context: ctx, Expr: body}
}

// Let yields 'let(ctx, body)': body evaluated once with ctx in scope.
func Let(ctx, body Node) *Within {
	return &Within{Op: OpLet, Context: ctx, Expr: body}
}

// Filter yields 'filter(ctx, cond)'.
func Filter(ctx, cond Node) *Within {
	return &Within{Op: OpFilter, Context: ctx, Expr: cond}
}

// Sort yields 'sort(ctx, key)'.
func Sort(ctx, key Node) *Within {
	return &Within{Op: OpSort, Context: ctx, Expr: key}
}

// Any yields 'any(ctx, cond)'. cond may be nil,
// in which case the node tests whether ctx has
// at least one element.
func Any(ctx, cond Node) *Within {
	return &Within{Op: OpAny, Context: ctx, Expr: cond}
}

// Each yields 'each(ctx, cond)'.
func Each(ctx, cond Node) *Within {
	return &Within{Op: OpEach, Context: ctx, Expr: cond}
}

func (w *Within) walk(v Visitor) {
	Walk(v, w.Context)
	if w.Expr != nil {
		Walk(v, w.Expr)
	}
}

func (w *Within) rewrite(r Rewriter) Node {
	w.Context = Rewrite(r, w.Context)
	if w.Expr != nil {
		w.Expr = Rewrite(r, w.Expr)
	}
	return w
}

func (w *Within) Equals(x Node) bool {
	xw, ok := x.(*Within)
	return ok && w.Op == xw.Op &&
		w.Context.Equals(xw.Context) &&
		Equal(w.Expr, xw.Expr)
}

func (w *Within) text(dst *strings.Builder, redact bool) {
	dst.WriteString(w.Op.String())
	dst.WriteByte('(')
	w.Context.text(dst, redact)
	if w.Expr != nil {
		dst.WriteString(", ")
		w.Expr.text(dst, redact)
	}
	dst.WriteByte(')')
}

// Reducer attaches a mapper expression to a
// reduction, i.e. 'reducer(Fn, Mapper)'. Fn must
// evaluate to a reduction and Mapper transforms
// each input row before it is folded.
type Reducer struct {
	srcspan
	Fn, Mapper Node
}

func (d *Reducer) walk(v Visitor) {
	Walk(v, d.Fn)
	Walk(v, d.Mapper)
}

func (d *Reducer) rewrite(r Rewriter) Node {
	d.Fn = Rewrite(r, d.Fn)
	d.Mapper = Rewrite(r, d.Mapper)
	return d
}

func (d *Reducer) Equals(x Node) bool {
	xd, ok := x.(*Reducer)
	return ok && d.Fn.Equals(xd.Fn) && d.Mapper.Equals(xd.Mapper)
}

func (d *Reducer) text(dst *strings.Builder, redact bool) {
	dst.WriteString("reducer(")
	d.Fn.text(dst, redact)
	dst.WriteString(", ")
	d.Mapper.text(dst, redact)
	dst.WriteByte(')')
}

// Group buckets the rows of Context by the
// Grouper key and folds every bucket through
// each of the attached Reducers, i.e. SQL
// GROUP BY.
type Group struct {
	srcspan
	Context, Grouper Node
	Reducers         []Node
}

// GroupBy yields 'group(ctx, grouper, reducers...)'.
// At least one reducer expression is required.
func GroupBy(ctx, grouper Node, reducers ...Node) *Group {
	if len(reducers) == 0 {
		panic("expr.GroupBy: at least one reducer is required")
	}
	return &Group{Context: ctx, Grouper: grouper, Reducers: reducers}
}

func (g *Group) walk(v Visitor) {
	Walk(v, g.Context)
	Walk(v, g.Grouper)
	for i := range g.Reducers {
		Walk(v, g.Reducers[i])
	}
}

func (g *Group) rewrite(r Rewriter) Node {
	g.Context = Rewrite(r, g.Context)
	g.Grouper = Rewrite(r, g.Grouper)
	for i := range g.Reducers {
		g.Reducers[i] = Rewrite(r, g.Reducers[i])
	}
	return g
}

func (g *Group) Equals(x Node) bool {
	xg, ok := x.(*Group)
	return ok && g.Context.Equals(xg.Context) &&
		g.Grouper.Equals(xg.Grouper) &&
		equalNodes(g.Reducers, xg.Reducers)
}

func (g *Group) text(dst *strings.Builder, redact bool) {
	dst.WriteString("group(")
	g.Context.text(dst, redact)
	dst.WriteString(", ")
	g.Grouper.text(dst, redact)
	for i := range g.Reducers {
		dst.WriteString(", ")
		g.Reducers[i].text(dst, redact)
	}
	dst.WriteByte(')')
}
