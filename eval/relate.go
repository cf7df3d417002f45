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

package eval

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/SnellerInc/winnow/expr"
	"github.com/SnellerInc/winnow/protocol"
	"github.com/SnellerInc/winnow/repeated"
	"github.com/SnellerInc/winnow/scope"
)

func (e *Evaluator) solveEquivalence(n *expr.Comparison, s *scope.Stack) (Result, error) {
	cols, err := e.operands(n.Operands, s)
	if err != nil {
		return Result{}, err
	}
	cols = broadcast(cols)
	if len(cols) == 0 {
		return Result{Value: true}, nil
	}
	for pos := range cols[0] {
		first := cols[0][pos]
		for _, col := range cols[1:] {
			eq, err := protocol.Equal(first, col[pos])
			if err != nil {
				return Result{}, classify(n, err)
			}
			if !eq {
				return Result{Value: false}, nil
			}
		}
	}
	return Result{Value: true}, nil
}

func (e *Evaluator) solveOrdered(n *expr.Comparison, s *scope.Stack) (Result, error) {
	cols, err := e.operands(n.Operands, s)
	if err != nil {
		return Result{}, err
	}
	cols = broadcast(cols)
	if len(cols) == 0 {
		return Result{Value: true}, nil
	}
	strict := n.Op == expr.OpStrictOrder
	for pos := range cols[0] {
		for j := 0; j+1 < len(cols); j++ {
			a, b := cols[j][pos], cols[j+1][pos]
			if a == nil || b == nil {
				// null has no place in an ordering
				return Result{Value: false}, nil
			}
			if strict {
				lt, err := protocol.Less(b, a)
				if err != nil {
					return Result{}, classify(n, err)
				}
				if !lt {
					return Result{Value: false}, nil
				}
			} else {
				lt, err := protocol.Less(a, b)
				if err != nil {
					return Result{}, classify(n, err)
				}
				if lt {
					return Result{Value: false}, nil
				}
			}
		}
	}
	return Result{Value: true}, nil
}

func (e *Evaluator) solveMembership(n *expr.Membership, s *scope.Stack) (Result, error) {
	needle, err := e.Solve(n.Element, s)
	if err != nil {
		return Result{}, err
	}
	if repeated.IsRepeating(needle.Value) {
		cnt, err := protocol.Count(needle.Value)
		if err != nil {
			cnt = 2
		}
		return Result{}, typeErrf(n.Element, "more than one value not allowed in the needle, got %d", cnt)
	}
	hay, multi, err := e.destructure(n.Set, s)
	if err != nil {
		return Result{}, err
	}
	if !multi {
		var single any
		if len(hay) > 0 {
			single = hay[0]
		}
		return e.memberOfScalar(n, needle.Value, single)
	}
	for _, straw := range hay {
		eq, err := protocol.Equal(needle.Value, straw)
		if err != nil {
			return Result{}, classify(n, err)
		}
		if eq {
			return Result{Value: true}, nil
		}
	}
	return Result{Value: false}, nil
}

// memberOfScalar tests membership against a haystack that collapsed
// to a single value: substring containment for strings, key
// membership for mappings, plain equality otherwise.
func (e *Evaluator) memberOfScalar(n *expr.Membership, needle, hay any) (Result, error) {
	switch h := hay.(type) {
	case nil:
		return Result{Value: false}, nil
	case string:
		ns, ok := needle.(string)
		if !ok {
			return Result{}, typeErrf(n, "cannot search a string for %v", needle)
		}
		return Result{Value: strings.Contains(h, ns)}, nil
	}
	if rv := reflect.ValueOf(hay); rv.Kind() == reflect.Map {
		for _, k := range rv.MapKeys() {
			eq, err := protocol.Equal(needle, k.Interface())
			if err != nil {
				return Result{}, classify(n, err)
			}
			if eq {
				return Result{Value: true}, nil
			}
		}
		return Result{Value: false}, nil
	}
	eq, err := protocol.Equal(needle, hay)
	if err != nil {
		return Result{}, classify(n, err)
	}
	return Result{Value: eq}, nil
}

func (e *Evaluator) solveRegex(n *expr.RegexFilter, s *scope.Stack) (Result, error) {
	pat, err := e.solveScalar(n.Pattern, s)
	if err != nil {
		return Result{}, err
	}
	ps, ok := pat.(string)
	if !ok {
		return Result{}, typeErrf(n.Pattern, "a regex pattern must be a string, got %v", pat)
	}
	// patterns match case-insensitively
	re, err := regexp.Compile("(?i)" + ps)
	if err != nil {
		return Result{}, typeErrf(n.Pattern, "invalid pattern %q: %v", ps, err)
	}
	v, _, err := e.solveRepeated(n.Inner, s)
	if err != nil {
		return Result{}, err
	}
	vals, err := repeated.Values(v)
	if err != nil {
		return Result{}, classify(n.Inner, err)
	}
	for _, item := range vals {
		if item == nil {
			continue
		}
		str, ok := item.(string)
		if !ok {
			str = fmt.Sprint(item)
		}
		if loc := re.FindStringIndex(str); loc != nil {
			return Result{Value: str[loc[0]:loc[1]]}, nil
		}
	}
	return Result{Value: false}, nil
}

func (e *Evaluator) solveIsInstance(n *expr.IsInstance, s *scope.Stack) (Result, error) {
	lhs, err := e.Solve(n.Inner, s)
	if err != nil {
		return Result{}, err
	}
	t, err := e.solveType(n.Type, s, "isa")
	if err != nil {
		return Result{}, err
	}
	return Result{Value: t.Contains(lhs.Value)}, nil
}

func (e *Evaluator) solveCast(n *expr.Cast, s *scope.Stack) (Result, error) {
	lhs, err := e.Solve(n.Inner, s)
	if err != nil {
		return Result{}, err
	}
	t, err := e.solveType(n.Type, s, "cast")
	if err != nil {
		return Result{}, err
	}
	out, err := t.Convert(lhs.Value)
	if err != nil {
		return Result{}, classify(n, err)
	}
	return Result{Value: out}, nil
}

// solveType evaluates n as a type designation for the operator op.
func (e *Evaluator) solveType(n expr.Node, s *scope.Stack, op string) (protocol.Type, error) {
	res, err := e.Solve(n, s)
	if err != nil {
		var ke *expr.KeyError
		if errors.As(err, &ke) {
			return nil, typeErrf(n, "cannot find a type named %s", expr.ToString(n))
		}
		return nil, err
	}
	if res.Value == nil {
		return nil, typeErrf(n, "cannot find a type named %s", expr.ToString(n))
	}
	t, ok := res.Value.(protocol.Type)
	if !ok {
		return nil, typeErrf(n, "%v is not a type and cannot be used with %q", res.Value, op)
	}
	return t, nil
}
