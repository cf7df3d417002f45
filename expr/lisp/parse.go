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

// Package lisp parses and formats expression trees as
// s-expressions built from plain Go values. A form is a
// []any whose first element names the operation, as in
//
//	[]any{"==", []any{"var", "pid"}, 10}
//
// which is the tree for 'pid == 10'. Any value that is not
// a []any is taken as a literal, []any{"var", name} is a
// variable reference, and []any{"param", n} interpolates a
// query parameter at parse time. The encoding is meant for
// programs that assemble queries structurally; it has no
// lexer, no precedence and no source positions.
package lisp

import (
	"fmt"

	"github.com/SnellerInc/winnow/expr"
)

// Parse converts an s-expression form into an expression tree.
func Parse(form any) (expr.Node, error) {
	return ParseWith(form, nil, nil)
}

// ParseWith is Parse with query parameters: "param" forms
// with an integer argument index into positional, and forms
// with a string argument look up named.
func ParseWith(form any, positional []any, named map[string]any) (expr.Node, error) {
	p := &parser{positional: positional, named: named}
	return p.atom(form)
}

type parser struct {
	positional []any
	named      map[string]any
}

// builder turns the parsed cdr of a form into a node.
// Arity has already been checked against the forms table.
type builder func(args []expr.Node) (expr.Node, error)

// op describes one operation name. A form matches when
// min <= len(cdr) and (max < 0 or len(cdr) <= max).
type op struct {
	min, max int
	build    builder
}

func exactly2(fn func(a, b expr.Node) expr.Node) op {
	return op{2, 2, func(args []expr.Node) (expr.Node, error) {
		return fn(args[0], args[1]), nil
	}}
}

func atLeast2(fn func(nodes ...expr.Node) expr.Node) op {
	return op{2, -1, func(args []expr.Node) (expr.Node, error) {
		return fn(args...), nil
	}}
}

var forms map[string]op

func init() {
	forms = map[string]op{
		"!": {1, 1, func(args []expr.Node) (expr.Node, error) {
			return &expr.Complement{Inner: args[0]}, nil
		}},
		"select": exactly2(func(a, b expr.Node) expr.Node { return &expr.Select{Inner: a, Key: b} }),
		".":      exactly2(func(a, b expr.Node) expr.Node { return &expr.Resolve{Inner: a, Member: b} }),
		"cast":   exactly2(func(a, b expr.Node) expr.Node { return &expr.Cast{Inner: a, Type: b} }),
		"isa":    exactly2(func(a, b expr.Node) expr.Node { return &expr.IsInstance{Inner: a, Type: b} }),
		"in":     exactly2(func(a, b expr.Node) expr.Node { return &expr.Membership{Element: a, Set: b} }),
		"=~":     exactly2(func(a, b expr.Node) expr.Node { return &expr.RegexFilter{Inner: a, Pattern: b} }),
		"pair":   exactly2(func(a, b expr.Node) expr.Node { return &expr.Pair{Key: a, Value: b} }),
		":":      exactly2(func(a, b expr.Node) expr.Node { return &expr.Pair{Key: a, Value: b} }),

		"map":    exactly2(func(a, b expr.Node) expr.Node { return expr.Map(a, b) }),
		"let":    exactly2(func(a, b expr.Node) expr.Node { return expr.Let(a, b) }),
		"filter": exactly2(func(a, b expr.Node) expr.Node { return expr.Filter(a, b) }),
		"sort":   exactly2(func(a, b expr.Node) expr.Node { return expr.Sort(a, b) }),
		"each":   exactly2(func(a, b expr.Node) expr.Node { return expr.Each(a, b) }),
		"any": {1, 2, func(args []expr.Node) (expr.Node, error) {
			if len(args) == 1 {
				return expr.Any(args[0], nil), nil
			}
			return expr.Any(args[0], args[1]), nil
		}},

		"reducer": exactly2(func(a, b expr.Node) expr.Node { return &expr.Reducer{Fn: a, Mapper: b} }),
		"group": {3, -1, func(args []expr.Node) (expr.Node, error) {
			return expr.GroupBy(args[0], args[1], args[2:]...), nil
		}},

		"|":  atLeast2(func(nodes ...expr.Node) expr.Node { return expr.Union(nodes...) }),
		"&":  atLeast2(func(nodes ...expr.Node) expr.Node { return expr.Intersection(nodes...) }),
		"==": atLeast2(func(nodes ...expr.Node) expr.Node { return expr.Equivalence(nodes...) }),
		">":  atLeast2(func(nodes ...expr.Node) expr.Node { return expr.StrictOrderedSet(nodes...) }),
		">=": atLeast2(func(nodes ...expr.Node) expr.Node { return expr.PartialOrderedSet(nodes...) }),
		"+":  atLeast2(func(nodes ...expr.Node) expr.Node { return expr.Sum(nodes...) }),
		"-":  atLeast2(func(nodes ...expr.Node) expr.Node { return expr.Difference(nodes...) }),
		"*":  atLeast2(func(nodes ...expr.Node) expr.Node { return expr.Product(nodes...) }),
		"/":  atLeast2(func(nodes ...expr.Node) expr.Node { return expr.Quotient(nodes...) }),

		"apply": {1, -1, func(args []expr.Node) (expr.Node, error) {
			return expr.Call(args[0], args[1:]...), nil
		}},
		"repeat": {0, -1, func(args []expr.Node) (expr.Node, error) {
			return expr.NewRepeat(args...), nil
		}},
		"tuple": {0, -1, func(args []expr.Node) (expr.Node, error) {
			return expr.NewTuple(args...), nil
		}},
		"bind": {0, -1, func(args []expr.Node) (expr.Node, error) {
			pairs := make([]*expr.Pair, len(args))
			for i := range args {
				pair, ok := args[i].(*expr.Pair)
				if !ok {
					return nil, fmt.Errorf("bind expects pair forms, got %s", expr.ToString(args[i]))
				}
				pairs[i] = pair
			}
			return expr.NewBind(pairs...), nil
		}},
		"if": {2, -1, func(args []expr.Node) (expr.Node, error) {
			return expr.NewIfElse(args...), nil
		}},
	}
}

func (p *parser) atom(form any) (expr.Node, error) {
	if s, ok := form.([]any); ok {
		return p.sexpr(s)
	}
	return expr.NewLiteral(form), nil
}

func (p *parser) sexpr(s []any) (expr.Node, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("empty form")
	}
	car, ok := s[0].(string)
	if !ok {
		return nil, fmt.Errorf("form must start with an operation name, got %v", s[0])
	}
	cdr := s[1:]
	switch car {
	case "var":
		// the name stays a raw string
		if len(cdr) != 1 {
			return nil, arity(car, 1, 1, len(cdr))
		}
		name, ok := cdr[0].(string)
		if !ok {
			return nil, fmt.Errorf("var expects a string name, got %v", cdr[0])
		}
		return expr.Ident(name), nil
	case "param":
		// interpolated at parse time
		if len(cdr) != 1 {
			return nil, arity(car, 1, 1, len(cdr))
		}
		return p.param(cdr[0])
	case "literal":
		// the value is not parsed, so forms can be quoted
		if len(cdr) != 1 {
			return nil, arity(car, 1, 1, len(cdr))
		}
		return expr.NewLiteral(cdr[0]), nil
	}
	f, ok := forms[car]
	if !ok {
		return nil, fmt.Errorf("unknown form %q", car)
	}
	if len(cdr) < f.min || (f.max >= 0 && len(cdr) > f.max) {
		return nil, arity(car, f.min, f.max, len(cdr))
	}
	args := make([]expr.Node, len(cdr))
	for i := range cdr {
		node, err := p.atom(cdr[i])
		if err != nil {
			return nil, err
		}
		args[i] = node
	}
	return f.build(args)
}

func (p *parser) param(key any) (expr.Node, error) {
	switch k := key.(type) {
	case int:
		return p.positionalParam(k)
	case int64:
		return p.positionalParam(int(k))
	case float64:
		// decoded form data carries numbers as floats
		return p.positionalParam(int(k))
	case string:
		v, ok := p.named[k]
		if !ok {
			return nil, fmt.Errorf("param %q unavailable (%d positional, %d named)",
				k, len(p.positional), len(p.named))
		}
		return expr.NewLiteral(v), nil
	default:
		return nil, fmt.Errorf("param expects an integer or string key, got %v", key)
	}
}

func (p *parser) positionalParam(idx int) (expr.Node, error) {
	if idx < 0 || idx >= len(p.positional) {
		return nil, fmt.Errorf("param %d unavailable (%d positional, %d named)",
			idx, len(p.positional), len(p.named))
	}
	return expr.NewLiteral(p.positional[idx]), nil
}

func arity(name string, min, max, got int) error {
	plural := "s"
	if min == 1 {
		plural = ""
	}
	switch {
	case min == max:
		return fmt.Errorf("%s expects %d argument%s, but was passed %d", name, min, plural, got)
	case max < 0:
		return fmt.Errorf("%s expects at least %d argument%s, but was passed %d", name, min, plural, got)
	default:
		return fmt.Errorf("%s expects %d or %d arguments, but was passed %d", name, min, max, got)
	}
}
