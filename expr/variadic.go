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

// LogicalOp is a logical operation
type LogicalOp int

const (
	OpOr  LogicalOp = iota // A or B (variadic)
	OpAnd                  // A and B (variadic)
)

func (l LogicalOp) String() string {
	switch l {
	case OpOr:
		return "or"
	case OpAnd:
		return "and"
	}
	return "<unknown logical op>"
}

// Logical is a Node that represents a
// variadic logical expression. An or-chain
// short-circuits on the first truthy child
// and yields that child's value; an and-chain
// short-circuits on the first falsey child.
type Logical struct {
	srcspan
	Op       LogicalOp
	Operands []Node
}

// Union yields 'nodes[0] or nodes[1] or ...'
func Union(nodes ...Node) *Logical {
	return &Logical{Op: OpOr, Operands: nodes}
}

// Intersection yields 'nodes[0] and nodes[1] and ...'
func Intersection(nodes ...Node) *Logical {
	return &Logical{Op: OpAnd, Operands: nodes}
}

func (l *Logical) walk(v Visitor) {
	for i := range l.Operands {
		Walk(v, l.Operands[i])
	}
}

func (l *Logical) rewrite(r Rewriter) Node {
	for i := range l.Operands {
		l.Operands[i] = Rewrite(r, l.Operands[i])
	}
	return l
}

func (l *Logical) Equals(x Node) bool {
	xl, ok := x.(*Logical)
	return ok && l.Op == xl.Op && equalNodes(l.Operands, xl.Operands)
}

func (l *Logical) text(dst *strings.Builder, redact bool) {
	infix(dst, l.Op.String(), l.Operands, redact)
}

// CmpOp is a comparison operation type
type CmpOp int

const (
	OpEq           CmpOp = iota // all operands pairwise equal
	OpStrictOrder               // operands strictly descending
	OpPartialOrder              // operands descending, ties allowed
)

func (c CmpOp) String() string {
	switch c {
	case OpEq:
		return "=="
	case OpStrictOrder:
		return ">"
	case OpPartialOrder:
		return ">="
	}
	return "<unknown cmp op>"
}

// Comparison is a Node that represents a
// variadic relation over its operands: n-ary
// equality or an ordered chain.
type Comparison struct {
	srcspan
	Op       CmpOp
	Operands []Node
}

// Equivalence yields 'nodes[0] == nodes[1] == ...'
func Equivalence(nodes ...Node) *Comparison {
	return &Comparison{Op: OpEq, Operands: nodes}
}

// StrictOrderedSet yields 'nodes[0] > nodes[1] > ...'
func StrictOrderedSet(nodes ...Node) *Comparison {
	return &Comparison{Op: OpStrictOrder, Operands: nodes}
}

// PartialOrderedSet yields 'nodes[0] >= nodes[1] >= ...'
func PartialOrderedSet(nodes ...Node) *Comparison {
	return &Comparison{Op: OpPartialOrder, Operands: nodes}
}

func (c *Comparison) walk(v Visitor) {
	for i := range c.Operands {
		Walk(v, c.Operands[i])
	}
}

func (c *Comparison) rewrite(r Rewriter) Node {
	for i := range c.Operands {
		c.Operands[i] = Rewrite(r, c.Operands[i])
	}
	return c
}

func (c *Comparison) Equals(x Node) bool {
	xc, ok := x.(*Comparison)
	return ok && c.Op == xc.Op && equalNodes(c.Operands, xc.Operands)
}

func (c *Comparison) text(dst *strings.Builder, redact bool) {
	infix(dst, c.Op.String(), c.Operands, redact)
}

// ArithOp is an arithmetic operation
type ArithOp int

const (
	OpSum ArithOp = iota
	OpDifference
	OpProduct
	OpQuotient
)

func (a ArithOp) String() string {
	switch a {
	case OpSum:
		return "+"
	case OpDifference:
		return "-"
	case OpProduct:
		return "*"
	case OpQuotient:
		return "/"
	}
	return "<unknown arith op>"
}

// Arith is a Node that represents a variadic
// arithmetic expression folded left to right
// with element-wise broadcasting.
type Arith struct {
	srcspan
	Op       ArithOp
	Operands []Node
}

// Sum yields 'nodes[0] + nodes[1] + ...'
func Sum(nodes ...Node) *Arith {
	return &Arith{Op: OpSum, Operands: nodes}
}

// Difference yields 'nodes[0] - nodes[1] - ...'
func Difference(nodes ...Node) *Arith {
	return &Arith{Op: OpDifference, Operands: nodes}
}

// Product yields 'nodes[0] * nodes[1] * ...'
func Product(nodes ...Node) *Arith {
	return &Arith{Op: OpProduct, Operands: nodes}
}

// Quotient yields 'nodes[0] / nodes[1] / ...'
func Quotient(nodes ...Node) *Arith {
	return &Arith{Op: OpQuotient, Operands: nodes}
}

func (a *Arith) walk(v Visitor) {
	for i := range a.Operands {
		Walk(v, a.Operands[i])
	}
}

func (a *Arith) rewrite(r Rewriter) Node {
	for i := range a.Operands {
		a.Operands[i] = Rewrite(r, a.Operands[i])
	}
	return a
}

func (a *Arith) Equals(x Node) bool {
	xa, ok := x.(*Arith)
	return ok && a.Op == xa.Op && equalNodes(a.Operands, xa.Operands)
}

func (a *Arith) text(dst *strings.Builder, redact bool) {
	infix(dst, a.Op.String(), a.Operands, redact)
}
