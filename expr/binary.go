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

// Complement is logical NOT, i.e.
//
//	not (Inner)
type Complement struct {
	srcspan
	Inner Node
}

func (c *Complement) text(dst *strings.Builder, redact bool) {
	dst.WriteString("not ")
	child(dst, c.Inner, redact)
}

func (c *Complement) walk(v Visitor) {
	Walk(v, c.Inner)
}

func (c *Complement) rewrite(r Rewriter) Node {
	c.Inner = Rewrite(r, c.Inner)
	return c
}

func (c *Complement) Equals(x Node) bool {
	xc, ok := x.(*Complement)
	return ok && c.Inner.Equals(xc.Inner)
}

// Pair is a key/value pair. It only appears
// as a child of Bind (record fields) and
// Apply (named arguments).
type Pair struct {
	srcspan
	Key, Value Node
}

func (p *Pair) text(dst *strings.Builder, redact bool) {
	child(dst, p.Key, redact)
	dst.WriteString(": ")
	child(dst, p.Value, redact)
}

func (p *Pair) walk(v Visitor) {
	Walk(v, p.Key)
	Walk(v, p.Value)
}

func (p *Pair) rewrite(r Rewriter) Node {
	p.Key = Rewrite(r, p.Key)
	p.Value = Rewrite(r, p.Value)
	return p
}

func (p *Pair) Equals(x Node) bool {
	xp, ok := x.(*Pair)
	return ok && p.Key.Equals(xp.Key) && p.Value.Equals(xp.Value)
}

// Select represents the '[]' infix operator, i.e.
//
//	Inner '[' Key ']'
//
// The Inner value should be associative (indexable).
type Select struct {
	srcspan
	Inner, Key Node
}

func (s *Select) text(dst *strings.Builder, redact bool) {
	child(dst, s.Inner, redact)
	dst.WriteByte('[')
	s.Key.text(dst, redact)
	dst.WriteByte(']')
}

func (s *Select) walk(v Visitor) {
	Walk(v, s.Inner)
	Walk(v, s.Key)
}

func (s *Select) rewrite(r Rewriter) Node {
	s.Inner = Rewrite(r, s.Inner)
	s.Key = Rewrite(r, s.Key)
	return s
}

func (s *Select) Equals(x Node) bool {
	xs, ok := x.(*Select)
	return ok && s.Inner.Equals(xs.Inner) && s.Key.Equals(xs.Key)
}

// Resolve represents the '.' infix operator, i.e.
//
//	Inner '.' Member
//
// The Inner value should be structure-typed and
// Member is usually a string literal naming the field.
type Resolve struct {
	srcspan
	Inner, Member Node
}

func (d *Resolve) text(dst *strings.Builder, redact bool) {
	child(dst, d.Inner, redact)
	dst.WriteByte('.')
	if lit, ok := d.Member.(*Literal); ok {
		if s, ok := lit.Value.(string); ok {
			dst.WriteString(s)
			return
		}
	}
	child(dst, d.Member, redact)
}

func (d *Resolve) walk(v Visitor) {
	Walk(v, d.Inner)
	Walk(v, d.Member)
}

func (d *Resolve) rewrite(r Rewriter) Node {
	d.Inner = Rewrite(r, d.Inner)
	d.Member = Rewrite(r, d.Member)
	return d
}

func (d *Resolve) Equals(x Node) bool {
	xd, ok := x.(*Resolve)
	return ok && d.Inner.Equals(xd.Inner) && d.Member.Equals(xd.Member)
}

// IsInstance represents the 'isa' typecheck, i.e.
//
//	Inner isa Type
//
// Type must evaluate to a type object.
type IsInstance struct {
	srcspan
	Inner, Type Node
}

func (n *IsInstance) text(dst *strings.Builder, redact bool) {
	child(dst, n.Inner, redact)
	dst.WriteString(" isa ")
	child(dst, n.Type, redact)
}

func (n *IsInstance) walk(v Visitor) {
	Walk(v, n.Inner)
	Walk(v, n.Type)
}

func (n *IsInstance) rewrite(r Rewriter) Node {
	n.Inner = Rewrite(r, n.Inner)
	n.Type = Rewrite(r, n.Type)
	return n
}

func (n *IsInstance) Equals(x Node) bool {
	xn, ok := x.(*IsInstance)
	return ok && n.Inner.Equals(xn.Inner) && n.Type.Equals(xn.Type)
}

// Cast converts the Inner value to the type
// that the Type expression evaluates to.
type Cast struct {
	srcspan
	Inner, Type Node
}

func (c *Cast) text(dst *strings.Builder, redact bool) {
	dst.WriteString("cast(")
	c.Inner.text(dst, redact)
	dst.WriteString(", ")
	c.Type.text(dst, redact)
	dst.WriteByte(')')
}

func (c *Cast) walk(v Visitor) {
	Walk(v, c.Inner)
	Walk(v, c.Type)
}

func (c *Cast) rewrite(r Rewriter) Node {
	c.Inner = Rewrite(r, c.Inner)
	c.Type = Rewrite(r, c.Type)
	return c
}

func (c *Cast) Equals(x Node) bool {
	xc, ok := x.(*Cast)
	return ok && c.Inner.Equals(xc.Inner) && c.Type.Equals(xc.Type)
}

// Membership represents the 'in' operator, i.e.
//
//	Element in Set
//
// Set is a collection, or a string to test
// for substring containment.
type Membership struct {
	srcspan
	Element, Set Node
}

func (m *Membership) text(dst *strings.Builder, redact bool) {
	child(dst, m.Element, redact)
	dst.WriteString(" in ")
	child(dst, m.Set, redact)
}

func (m *Membership) walk(v Visitor) {
	Walk(v, m.Element)
	Walk(v, m.Set)
}

func (m *Membership) rewrite(r Rewriter) Node {
	m.Element = Rewrite(r, m.Element)
	m.Set = Rewrite(r, m.Set)
	return m
}

func (m *Membership) Equals(x Node) bool {
	xm, ok := x.(*Membership)
	return ok && m.Element.Equals(xm.Element) && m.Set.Equals(xm.Set)
}

// RegexFilter represents the '=~' operator, i.e.
//
//	Inner =~ Pattern
//
// Pattern should evaluate to a regular expression
// source string.
type RegexFilter struct {
	srcspan
	Inner, Pattern Node
}

func (f *RegexFilter) text(dst *strings.Builder, redact bool) {
	child(dst, f.Inner, redact)
	dst.WriteString(" =~ ")
	child(dst, f.Pattern, redact)
}

func (f *RegexFilter) walk(v Visitor) {
	Walk(v, f.Inner)
	Walk(v, f.Pattern)
}

func (f *RegexFilter) rewrite(r Rewriter) Node {
	f.Inner = Rewrite(r, f.Inner)
	f.Pattern = Rewrite(r, f.Pattern)
	return f
}

func (f *RegexFilter) Equals(x Node) bool {
	xf, ok := x.(*RegexFilter)
	return ok && f.Inner.Equals(xf.Inner) && f.Pattern.Equals(xf.Pattern)
}
