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
	"io"

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/winnow/expr"
	"github.com/SnellerInc/winnow/protocol"
	"github.com/SnellerInc/winnow/repeated"
	"github.com/SnellerInc/winnow/row"
	"github.com/SnellerInc/winnow/scope"
)

// nest layers element over s for the body of a within form. A
// structured element becomes a scope layer of its own members; the
// element is also bound under the context's name, so bodies can refer
// to the current element whole and scalar elements stay reachable.
func nest(at expr.Node, s *scope.Stack, name string, element any) (*scope.Stack, error) {
	structured := element == nil ||
		protocol.Structured.Implemented(protocol.TypeOf(element))
	if structured {
		s = s.Push(element)
	}
	if name != "" {
		return s.Push(row.New(row.Column{Name: name, Value: element})), nil
	}
	if !structured {
		if protocol.IsApplicative(element) {
			return nil, typeErrf(at, "cannot use a function as an object")
		}
		return nil, typeErrf(at, "cannot use %v as an object", element)
	}
	return s, nil
}

// contextName guesses the name a body can use for the current element
// from the shape of the context expression.
func contextName(n expr.Node) string {
	switch n := n.(type) {
	case *expr.Var:
		return n.Name
	case *expr.Resolve:
		if lit, ok := n.Member.(*expr.Literal); ok {
			if s, ok := lit.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

func (e *Evaluator) solveWithin(n *expr.Within, s *scope.Stack) (Result, error) {
	switch n.Op {
	case expr.OpMap, expr.OpLet:
		return e.solveMap(n, s)
	case expr.OpFilter:
		return e.solveFilter(n, s)
	case expr.OpSort:
		return e.solveSort(n, s)
	case expr.OpAny:
		return e.solveAny(n, s)
	case expr.OpEach:
		return e.solveEach(n, s)
	}
	return Result{}, &expr.LogicError{At: n, Msg: "unknown within operator"}
}

func (e *Evaluator) solveMap(n *expr.Within, s *scope.Stack) (Result, error) {
	lhs, multi, err := e.solveRepeated(n.Context, s)
	if err != nil {
		return Result{}, err
	}
	name := contextName(n.Context)
	if !multi {
		// a single left-hand value evaluates the body exactly once
		element := lhs
		if rv, ok := lhs.(repeated.Value); ok {
			vals, err := repeated.Values(rv)
			if err != nil {
				return Result{}, classify(n.Context, err)
			}
			if len(vals) == 0 {
				element = nil
			} else {
				element = vals[0]
			}
		}
		nested, err := nest(n.Context, s, name, element)
		if err != nil {
			return Result{}, err
		}
		res, err := e.Solve(n.Expr, nested)
		if err != nil {
			return Result{}, err
		}
		return Result{Value: res.Value}, nil
	}
	gen := func() repeated.Iterator {
		return &withinIter{e: e, n: n, s: s, name: name, src: repeated.Iter(lhs)}
	}
	return Result{Value: repeated.Lazy(gen)}, nil
}

// withinIter evaluates a map body per element as the consumer pulls.
type withinIter struct {
	e    *Evaluator
	n    *expr.Within
	s    *scope.Stack
	name string
	src  repeated.Iterator
}

func (it *withinIter) Next() (any, error) {
	v, err := it.src.Next()
	if err != nil {
		return nil, err
	}
	nested, err := nest(it.n.Context, it.s, it.name, v)
	if err != nil {
		return nil, err
	}
	res, err := it.e.Solve(it.n.Expr, nested)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

func (e *Evaluator) solveFilter(n *expr.Within, s *scope.Stack) (Result, error) {
	lhs, _, err := e.solveRepeated(n.Context, s)
	if err != nil {
		return Result{}, err
	}
	name := contextName(n.Context)
	gen := func() repeated.Iterator {
		return &filterIter{e: e, n: n, s: s, name: name, src: repeated.Iter(lhs)}
	}
	return Result{Value: repeated.Lazy(gen)}, nil
}

type filterIter struct {
	e    *Evaluator
	n    *expr.Within
	s    *scope.Stack
	name string
	src  repeated.Iterator
}

func (it *filterIter) Next() (any, error) {
	for {
		v, err := it.src.Next()
		if err != nil {
			return nil, err
		}
		nested, err := nest(it.n.Context, it.s, it.name, v)
		if err != nil {
			return nil, err
		}
		res, err := it.e.Solve(it.n.Expr, nested)
		if err != nil {
			return nil, err
		}
		ok, err := protocol.Truth(res.Value)
		if err != nil {
			return nil, classify(it.n.Expr, err)
		}
		if ok {
			return v, nil
		}
	}
}

// sortLess orders two sort keys. Keys equal in either direction stay
// in their input order; otherwise the ordered capability decides.
func sortLess(a, b any) (bool, error) {
	eq, err := protocol.Equal(a, b)
	if err != nil {
		return false, err
	}
	if !eq {
		eq, err = protocol.Equal(b, a)
		if err != nil {
			return false, err
		}
	}
	if eq {
		return false, nil
	}
	return protocol.Less(a, b)
}

func (e *Evaluator) solveSort(n *expr.Within, s *scope.Stack) (Result, error) {
	lhs, _, err := e.solveRepeated(n.Context, s)
	if err != nil {
		return Result{}, err
	}
	vals, err := repeated.Values(lhs)
	if err != nil {
		return Result{}, classify(n.Context, err)
	}
	name := contextName(n.Context)
	keys := make([]any, len(vals))
	for i, v := range vals {
		nested, err := nest(n.Context, s, name, v)
		if err != nil {
			return Result{}, err
		}
		res, err := e.Solve(n.Expr, nested)
		if err != nil {
			return Result{}, err
		}
		keys[i] = res.Value
	}
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	slices.SortStableFunc(idx, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		less, err := sortLess(keys[a], keys[b])
		if err != nil {
			sortErr = err
			return false
		}
		return less
	})
	if sortErr != nil {
		return Result{}, classify(n, sortErr)
	}
	out := make([]any, len(vals))
	for i, j := range idx {
		out[i] = vals[j]
	}
	melded, err := repeated.Meld(out...)
	if err != nil {
		return Result{}, &expr.TypeError{At: n, Msg: err.Error()}
	}
	return Result{Value: melded}, nil
}

func (e *Evaluator) solveAny(n *expr.Within, s *scope.Stack) (Result, error) {
	lhs, _, err := e.solveRepeated(n.Context, s)
	if err != nil {
		return Result{}, err
	}
	if n.Expr == nil {
		// bare any: does the context hold at least one element?
		vals, err := repeated.Values(lhs)
		if err != nil {
			return Result{}, classify(n.Context, err)
		}
		return Result{Value: len(vals) > 0}, nil
	}
	name := contextName(n.Context)
	it := repeated.Iter(lhs)
	for {
		v, err := it.Next()
		if err == io.EOF {
			return Result{Value: false}, nil
		}
		if err != nil {
			return Result{}, classify(n.Context, err)
		}
		nested, err := nest(n.Context, s, name, v)
		if err != nil {
			return Result{}, err
		}
		res, err := e.Solve(n.Expr, nested)
		if err != nil {
			return Result{}, err
		}
		ok, err := protocol.Truth(res.Value)
		if err != nil {
			return Result{}, classify(n.Expr, err)
		}
		if ok {
			return Result{Value: true, Branch: res.Branch}, nil
		}
	}
}

func (e *Evaluator) solveEach(n *expr.Within, s *scope.Stack) (Result, error) {
	lhs, _, err := e.solveRepeated(n.Context, s)
	if err != nil {
		return Result{}, err
	}
	name := contextName(n.Context)
	it := repeated.Iter(lhs)
	for {
		v, err := it.Next()
		if err == io.EOF {
			return Result{Value: true}, nil
		}
		if err != nil {
			return Result{}, classify(n.Context, err)
		}
		nested, err := nest(n.Context, s, name, v)
		if err != nil {
			return Result{}, err
		}
		res, err := e.Solve(n.Expr, nested)
		if err != nil {
			return Result{}, err
		}
		ok, err := protocol.Truth(res.Value)
		if err != nil {
			return Result{}, classify(n.Expr, err)
		}
		if !ok {
			return Result{Value: false, Branch: res.Branch}, nil
		}
	}
}
