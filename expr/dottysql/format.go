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

package dottysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SnellerInc/winnow/expr"
)

// Format renders a tree back into source text. Formatting
// a parsed query and reparsing the output yields an equal
// tree, although not necessarily the original spelling.
// Reducer and Group nodes have no surface syntax and
// render as a placeholder.
func Format(n expr.Node) string {
	return format(n)
}

// precedenceOf returns the infix operator precedence a
// node renders at, or ok=false for nodes that are not
// operators (atoms never need parentheses).
func precedenceOf(n expr.Node) (prec int, left, ok bool) {
	switch n := n.(type) {
	case *expr.Logical:
		if n.Op == expr.OpOr {
			return 0, true, true
		}
		return 1, true, true
	case *expr.Comparison:
		return 3, true, true
	case *expr.Membership, *expr.RegexFilter, *expr.IsInstance:
		return 3, true, true
	case *expr.Arith:
		if n.Op == expr.OpProduct || n.Op == expr.OpQuotient {
			return 6, true, true
		}
		return 4, true, true
	case *expr.Complement:
		return 6, false, true
	case *expr.Pair:
		return 10, true, true
	case *expr.Resolve:
		return 12, true, true
	}
	return 0, false, false
}

// formatBinary renders 'l op r', parenthesizing either
// side when it binds more loosely than op. Left
// associative children get to be one level looser on the
// left, right associative ones on the right.
func formatBinary(l, r expr.Node, name string, prec int, lspace, rspace string) string {
	left := format(l)
	if p, lassoc, ok := precedenceOf(l); ok {
		if lassoc {
			p++
		}
		if p < prec {
			left = "(" + left + ")"
		}
	}
	right := format(r)
	if p, lassoc, ok := precedenceOf(r); ok {
		if !lassoc {
			p++
		}
		if p < prec {
			right = "(" + right + ")"
		}
	}
	return left + lspace + name + rspace + right
}

// formatNary renders an n-ary operator node like 'a or b
// or c', parenthesizing children that bind more loosely.
func formatNary(operands []expr.Node, name string, prec int) string {
	parts := make([]string, len(operands))
	for i, o := range operands {
		s := format(o)
		if p, _, ok := precedenceOf(o); ok && p < prec {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, " "+name+" ")
}

func format(n expr.Node) string {
	switch n := n.(type) {
	case *expr.Literal:
		return formatLiteral(n.Value)
	case *expr.Var:
		return n.Name
	case *expr.Logical:
		if n.Op == expr.OpOr {
			return formatNary(n.Operands, "or", 0)
		}
		return formatNary(n.Operands, "and", 1)
	case *expr.Comparison:
		switch n.Op {
		case expr.OpStrictOrder:
			return formatNary(n.Operands, ">", 3)
		case expr.OpPartialOrder:
			return formatNary(n.Operands, ">=", 3)
		}
		return formatNary(n.Operands, "==", 3)
	case *expr.Arith:
		switch n.Op {
		case expr.OpSum:
			return formatNary(n.Operands, "+", 4)
		case expr.OpDifference:
			return formatNary(n.Operands, "-", 4)
		case expr.OpProduct:
			return formatNary(n.Operands, "*", 6)
		}
		return formatNary(n.Operands, "/", 6)
	case *expr.Membership:
		return formatBinary(n.Element, n.Set, "in", 3, " ", " ")
	case *expr.RegexFilter:
		return formatBinary(n.Inner, n.Pattern, "=~", 3, " ", " ")
	case *expr.IsInstance:
		return formatBinary(n.Inner, n.Type, "isa", 3, " ", " ")
	case *expr.Complement:
		return formatComplement(n)
	case *expr.Pair:
		return formatBinary(n.Key, n.Value, ":", 10, "", " ")
	case *expr.Resolve:
		lit, ok := n.Member.(*expr.Literal)
		if !ok {
			return "<expression cannot be formatted as DottySQL>"
		}
		member := expr.Ident(fmt.Sprint(lit.Value))
		return formatBinary(n.Inner, member, ".", 12, "", "")
	case *expr.Within:
		return formatWithin(n)
	case *expr.Cast:
		return "cast(" + format(n.Inner) + ", " + format(n.Type) + ")"
	case *expr.Bind:
		parts := make([]string, len(n.Pairs))
		for i, pr := range n.Pairs {
			parts[i] = format(pr)
		}
		return "bind(" + strings.Join(parts, ", ") + ")"
	case *expr.Apply:
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			parts[i] = format(a)
		}
		return format(n.Fn) + "(" + strings.Join(parts, ", ") + ")"
	case *expr.Select:
		src := format(n.Inner)
		if !selectSource(n.Inner) {
			src = "(" + src + ")"
		}
		return src + "[" + format(n.Key) + "]"
	case *expr.Repeat:
		parts := make([]string, len(n.Values))
		for i, v := range n.Values {
			parts[i] = format(v)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *expr.Tuple:
		parts := make([]string, len(n.Values))
		for i, v := range n.Values {
			parts[i] = format(v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *expr.IfElse:
		return formatIfElse(n)
	}
	return "<Subexpression cannot be formatted as DottySQL.>"
}

func formatComplement(n *expr.Complement) string {
	if eq, ok := n.Inner.(*expr.Comparison); ok &&
		eq.Op == expr.OpEq && len(eq.Operands) == 2 {
		return formatBinary(eq.Operands[0], eq.Operands[1], "!=", 3, " ", " ")
	}
	if m, ok := n.Inner.(*expr.Membership); ok {
		return formatBinary(m.Element, m.Set, "not in", 3, " ", " ")
	}
	if p, lassoc, ok := precedenceOf(n.Inner); ok {
		if lassoc && p != 0 {
			p++
		}
		if p < 6 {
			return "not (" + format(n.Inner) + ")"
		}
	}
	return "not " + format(n.Inner)
}

// selectSource reports whether a subscript source can
// stand on its own without parentheses.
func selectSource(n expr.Node) bool {
	switch n := n.(type) {
	case *expr.Literal, *expr.Var, *expr.Repeat, *expr.Tuple,
		*expr.Select, *expr.Apply, *expr.Bind:
		return true
	case *expr.Within:
		return n.Op == expr.OpMap
	}
	return false
}

func formatWithin(n *expr.Within) string {
	switch n.Op {
	case expr.OpMap:
		lhs := format(n.Context)
		rhs := format(n.Expr)
		if dotted(n.Context) && dotted(n.Expr) {
			return lhs + "." + rhs
		}
		return "map(" + lhs + ", " + rhs + ")"
	case expr.OpLet:
		return formatLet(n)
	case expr.OpFilter:
		return "filter(" + format(n.Context) + ", " + format(n.Expr) + ")"
	case expr.OpSort:
		return "sort(" + format(n.Context) + ", " + format(n.Expr) + ")"
	case expr.OpAny:
		if n.Expr == nil {
			return "any(" + format(n.Context) + ")"
		}
		return "any(" + format(n.Context) + ", " + format(n.Expr) + ")"
	case expr.OpEach:
		return "each(" + format(n.Context) + ", " + format(n.Expr) + ")"
	}
	return "<Subexpression cannot be formatted as DottySQL.>"
}

// dotted reports whether a map operand keeps the dotted
// 'x.y' rendering, which only chains of vars and maps do.
func dotted(n expr.Node) bool {
	switch n := n.(type) {
	case *expr.Var:
		return true
	case *expr.Within:
		return n.Op == expr.OpMap
	}
	return false
}

func formatLet(n *expr.Within) string {
	bind, ok := n.Context.(*expr.Bind)
	if !ok {
		return "<Non-literal let cannot be formatted as DottySQL>"
	}
	parts := make([]string, len(bind.Pairs))
	for i, pr := range bind.Pairs {
		key, ok := pr.Key.(*expr.Literal)
		if !ok {
			return "<Non-literal binding names cannot be formatted as DottySQL>"
		}
		parts[i] = fmt.Sprintf("%v = %s", key.Value, format(pr.Value))
	}
	return "let(" + strings.Join(parts, ", ") + ") " + format(n.Expr)
}

func formatIfElse(n *expr.IfElse) string {
	var sb strings.Builder
	for i := 0; i+1 < len(n.Nodes); i += 2 {
		if i > 0 {
			sb.WriteString(" else ")
		}
		sb.WriteString("if ")
		sb.WriteString(format(n.Nodes[i]))
		sb.WriteString(" then ")
		sb.WriteString(format(n.Nodes[i+1]))
	}
	if dflt := n.Default(); dflt != nil && !nullLiteral(dflt) {
		sb.WriteString(" else ")
		sb.WriteString(format(dflt))
	}
	return sb.String()
}

func nullLiteral(n expr.Node) bool {
	lit, ok := n.(*expr.Literal)
	return ok && lit.Value == nil
}

func formatLiteral(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	}
	return fmt.Sprint(v)
}

// quote renders a single-quoted string literal, escaping
// what the lexer would otherwise misread.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
