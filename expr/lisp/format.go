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

package lisp

import (
	"github.com/SnellerInc/winnow/expr"
)

// Format renders a tree as an s-expression form. Literals
// become their raw values, except that a []any value is
// wrapped in a "literal" form so that reparsing the output
// does not mistake it for an operation. Formatting a tree
// and reparsing the result yields an equal tree.
func Format(n expr.Node) any {
	switch e := n.(type) {
	case *expr.Literal:
		if _, ok := e.Value.([]any); ok {
			return []any{"literal", e.Value}
		}
		return e.Value
	case *expr.Var:
		return []any{"var", e.Name}
	case *expr.Complement:
		return []any{"!", Format(e.Inner)}
	case *expr.Pair:
		return []any{"pair", Format(e.Key), Format(e.Value)}
	case *expr.Select:
		return []any{"select", Format(e.Inner), Format(e.Key)}
	case *expr.Resolve:
		return []any{".", Format(e.Inner), Format(e.Member)}
	case *expr.IsInstance:
		return []any{"isa", Format(e.Inner), Format(e.Type)}
	case *expr.Cast:
		return []any{"cast", Format(e.Inner), Format(e.Type)}
	case *expr.Membership:
		return []any{"in", Format(e.Element), Format(e.Set)}
	case *expr.RegexFilter:
		return []any{"=~", Format(e.Inner), Format(e.Pattern)}
	case *expr.Logical:
		name := "|"
		if e.Op == expr.OpAnd {
			name = "&"
		}
		return nary(name, e.Operands)
	case *expr.Comparison:
		var name string
		switch e.Op {
		case expr.OpStrictOrder:
			name = ">"
		case expr.OpPartialOrder:
			name = ">="
		default:
			name = "=="
		}
		return nary(name, e.Operands)
	case *expr.Arith:
		var name string
		switch e.Op {
		case expr.OpSum:
			name = "+"
		case expr.OpDifference:
			name = "-"
		case expr.OpProduct:
			name = "*"
		default:
			name = "/"
		}
		return nary(name, e.Operands)
	case *expr.Within:
		return formatWithin(e)
	case *expr.Reducer:
		return []any{"reducer", Format(e.Fn), Format(e.Mapper)}
	case *expr.Group:
		s := []any{"group", Format(e.Context), Format(e.Grouper)}
		for i := range e.Reducers {
			s = append(s, Format(e.Reducers[i]))
		}
		return s
	case *expr.Apply:
		s := []any{"apply", Format(e.Fn)}
		for i := range e.Args {
			s = append(s, Format(e.Args[i]))
		}
		return s
	case *expr.Repeat:
		return nary("repeat", e.Values)
	case *expr.Tuple:
		return nary("tuple", e.Values)
	case *expr.Bind:
		s := []any{"bind"}
		for i := range e.Pairs {
			s = append(s, Format(e.Pairs[i]))
		}
		return s
	case *expr.IfElse:
		return nary("if", e.Nodes)
	default:
		return nil
	}
}

func nary(name string, operands []expr.Node) []any {
	s := make([]any, 0, len(operands)+1)
	s = append(s, name)
	for i := range operands {
		s = append(s, Format(operands[i]))
	}
	return s
}

func formatWithin(e *expr.Within) []any {
	var name string
	switch e.Op {
	case expr.OpMap:
		name = "map"
	case expr.OpLet:
		name = "let"
	case expr.OpFilter:
		name = "filter"
	case expr.OpSort:
		name = "sort"
	case expr.OpAny:
		name = "any"
	default:
		name = "each"
	}
	if e.Op == expr.OpAny && e.Expr == nil {
		return []any{name, Format(e.Context)}
	}
	return []any{name, Format(e.Context), Format(e.Expr)}
}
