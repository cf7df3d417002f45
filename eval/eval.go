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

// Package eval implements the tree-walking evaluator.
//
// Solve walks an expression tree and evaluates each node against a
// scope stack. Scalar results come back as plain Go values; results
// with more than one element come back as repeated values (see the
// repeated package), which stay lazy where the operator allows it.
// Errors carry the node they arose at so callers can render the
// source span of the failing subexpression.
package eval

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/SnellerInc/winnow/expr"
	"github.com/SnellerInc/winnow/protocol"
	"github.com/SnellerInc/winnow/repeated"
	"github.com/SnellerInc/winnow/row"
	"github.com/SnellerInc/winnow/scope"
)

// Result is the outcome of evaluating a node. Branch is only set by
// the filtering operators (or-chains and any-forms): it records the
// innermost subexpression whose truthy value decided the outcome, so
// callers can report which condition matched.
type Result struct {
	Value  any
	Branch expr.Node
}

// An Evaluator holds evaluation settings.
// The zero value is ready to use.
type Evaluator struct {
	// GroupChunkSize is the number of rows a grouped reduction
	// folds at a time before merging intermediates. Zero or
	// negative means reducer.DefaultChunkSize.
	GroupChunkSize int
}

// Solve evaluates n against s with default settings.
func Solve(n expr.Node, s *scope.Stack) (Result, error) {
	var e Evaluator
	return e.Solve(n, s)
}

// Solve evaluates n against the scope stack s.
func (e *Evaluator) Solve(n expr.Node, s *scope.Stack) (Result, error) {
	switch n := n.(type) {
	case *expr.Literal:
		return Result{Value: n.Value}, nil
	case *expr.Var:
		return e.solveVar(n, s)
	case *expr.Select:
		return e.solveSelect(n, s)
	case *expr.Resolve:
		return e.solveResolve(n, s)
	case *expr.Apply:
		return e.solveApply(n, s)
	case *expr.Bind:
		return e.solveBind(n, s)
	case *expr.Repeat:
		return e.solveRepeat(n, s)
	case *expr.Tuple:
		return e.solveTuple(n, s)
	case *expr.Pair:
		return e.solvePair(n, s)
	case *expr.IfElse:
		return e.solveIfElse(n, s)
	case *expr.Within:
		return e.solveWithin(n, s)
	case *expr.Reducer:
		return e.solveReducer(n, s)
	case *expr.Group:
		return e.solveGroup(n, s)
	case *expr.IsInstance:
		return e.solveIsInstance(n, s)
	case *expr.Cast:
		return e.solveCast(n, s)
	case *expr.Membership:
		return e.solveMembership(n, s)
	case *expr.RegexFilter:
		return e.solveRegex(n, s)
	case *expr.Complement:
		return e.solveComplement(n, s)
	case *expr.Logical:
		return e.solveLogical(n, s)
	case *expr.Comparison:
		if n.Op == expr.OpEq {
			return e.solveEquivalence(n, s)
		}
		return e.solveOrdered(n, s)
	case *expr.Arith:
		return e.solveArith(n, s)
	}
	return Result{}, &expr.LogicError{At: n, Msg: fmt.Sprintf("no evaluation rule for %T", n)}
}

// classify converts errors from the capability layer into evaluation
// errors carrying the node they arose at. Errors that already carry a
// node pass through untouched, so the innermost span wins.
func classify(at expr.Node, err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *expr.TypeError, *expr.KeyError, *expr.NullError, *expr.LogicError, *expr.SyntaxError:
		return err
	}
	var nf *protocol.NotFoundError
	if errors.As(err, &nf) {
		return &expr.KeyError{At: at, Key: nf.Name}
	}
	var ne *protocol.NullError
	if errors.As(err, &ne) {
		return &expr.NullError{At: at, Msg: ne.Error()}
	}
	return &expr.TypeError{At: at, Msg: err.Error()}
}

func typeErrf(at expr.Node, f string, args ...any) error {
	return &expr.TypeError{At: at, Msg: fmt.Sprintf(f, args...)}
}

// solveRepeated evaluates n and reports the raw value plus whether it
// has more than one element.
func (e *Evaluator) solveRepeated(n expr.Node, s *scope.Stack) (any, bool, error) {
	res, err := e.Solve(n, s)
	if err != nil {
		return nil, false, err
	}
	return res.Value, repeated.IsRepeating(res.Value), nil
}

// solveScalar evaluates n and unwraps the result to a single scalar:
// a repeated value of one element collapses to that element and a
// one-column row to its value. Anything wider is a type error.
func (e *Evaluator) solveScalar(n expr.Node, s *scope.Stack) (any, error) {
	res, err := e.Solve(n, s)
	if err != nil {
		return nil, err
	}
	return e.scalarize(n, res.Value)
}

func (e *Evaluator) scalarize(n expr.Node, v any) (any, error) {
	if rv, ok := v.(repeated.Value); ok {
		vals, err := repeated.Values(rv)
		if err != nil {
			return nil, classify(n, err)
		}
		switch len(vals) {
		case 0:
			v = nil
		case 1:
			v = vals[0]
		default:
			return nil, typeErrf(n, "wasn't expecting more than one value here, got %d", len(vals))
		}
	}
	if t, ok := v.(*row.Tuple); ok {
		single, err := t.Singleton()
		if err != nil {
			return nil, typeErrf(n, "was expecting a scalar value here, got %s", t)
		}
		return single, nil
	}
	return v, nil
}

// destructure evaluates n into its element sequence, unwrapping
// one-column rows to their bare value, plus whether the value had
// more than one element.
func (e *Evaluator) destructure(n expr.Node, s *scope.Stack) ([]any, bool, error) {
	v, multi, err := e.solveRepeated(n, s)
	if err != nil {
		return nil, false, err
	}
	vals, err := repeated.Values(v)
	if err != nil {
		return nil, false, classify(n, err)
	}
	for i, item := range vals {
		t, ok := item.(*row.Tuple)
		if !ok {
			continue
		}
		single, err := t.Singleton()
		if err != nil {
			return nil, false, typeErrf(n, "was expecting exactly one column, got %s", t)
		}
		vals[i] = single
	}
	return vals, multi, nil
}

func (e *Evaluator) solveVar(n *expr.Var, s *scope.Stack) (Result, error) {
	v, err := s.Resolve(n.Name)
	if err != nil {
		return Result{}, classify(n, err)
	}
	return Result{Value: v}, nil
}

func (e *Evaluator) solveSelect(n *expr.Select, s *scope.Stack) (Result, error) {
	data, _, err := e.solveRepeated(n.Inner, s)
	if err != nil {
		return Result{}, err
	}
	key, err := e.Solve(n.Key, s)
	if err != nil {
		return Result{}, err
	}
	vals, err := repeated.Values(data)
	if err != nil {
		return Result{}, classify(n.Inner, err)
	}
	if data == nil {
		// indexing through null is an error, not a no-op
		vals = []any{nil}
	}
	out := make([]any, len(vals))
	for i, item := range vals {
		v, err := protocol.Select(item, key.Value)
		if err != nil {
			return Result{}, classify(n, err)
		}
		out[i] = v
	}
	melded, err := repeated.Meld(out...)
	if err != nil {
		return Result{}, &expr.TypeError{At: n, Msg: err.Error()}
	}
	return Result{Value: melded}, nil
}

func (e *Evaluator) solveResolve(n *expr.Resolve, s *scope.Stack) (Result, error) {
	objs, multi, err := e.solveRepeated(n.Inner, s)
	if err != nil {
		return Result{}, err
	}
	member, err := e.Solve(n.Member, s)
	if err != nil {
		return Result{}, err
	}
	name, ok := member.Value.(string)
	if !ok {
		return Result{}, typeErrf(n.Member, "member name must be a string, got %v", member.Value)
	}
	vals, err := repeated.Values(objs)
	if err != nil {
		return Result{}, classify(n.Inner, err)
	}
	if objs == nil {
		vals = []any{nil}
	}
	out := make([]any, len(vals))
	for i, o := range vals {
		v, err := protocol.Resolve(o, name)
		if err != nil {
			var nf *protocol.NotFoundError
			if errors.As(err, &nf) {
				return Result{}, &expr.KeyError{At: n.Member, Key: nf.Name}
			}
			return Result{}, classify(n, err)
		}
		out[i] = v
	}
	if !multi {
		if len(out) == 0 {
			return Result{}, nil
		}
		return Result{Value: out[0]}, nil
	}
	// one member per input element, in input order; a null member
	// keeps its position rather than melding away
	return Result{Value: repeated.List(out)}, nil
}

func (e *Evaluator) solveApply(n *expr.Apply, s *scope.Stack) (Result, error) {
	fn, err := e.solveScalar(n.Fn, s)
	if err != nil {
		return Result{}, err
	}
	var args []any
	var named map[string]any
	for _, arg := range n.Args {
		if pair, ok := arg.(*expr.Pair); ok {
			v, ok := pair.Key.(*expr.Var)
			if !ok {
				return Result{}, &expr.LogicError{At: pair.Key, Msg: "invalid argument name"}
			}
			val, err := e.Solve(pair.Value, s)
			if err != nil {
				return Result{}, err
			}
			if named == nil {
				named = make(map[string]any)
			}
			named[v.Name] = val.Value
			continue
		}
		res, err := e.Solve(arg, s)
		if err != nil {
			return Result{}, err
		}
		args = append(args, res.Value)
	}
	out, err := protocol.Apply(fn, args, named)
	if err != nil {
		return Result{}, classify(n, err)
	}
	return Result{Value: out}, nil
}

func (e *Evaluator) solveBind(n *expr.Bind, s *scope.Stack) (Result, error) {
	bound := row.New()
	for _, pair := range n.Pairs {
		local := s
		if bound.Len() > 0 {
			// names bound so far are visible to later pairs
			local = s.Push(bound)
		}
		key, err := e.Solve(pair.Key, local)
		if err != nil {
			return Result{}, err
		}
		var name string
		switch k := key.Value.(type) {
		case string:
			name = k
		case int:
			name = strconv.Itoa(k)
		case int64:
			name = strconv.FormatInt(k, 10)
		default:
			return Result{}, typeErrf(pair.Key, "a binding name must be a string, got %v", key.Value)
		}
		val, err := e.Solve(pair.Value, local)
		if err != nil {
			return Result{}, err
		}
		bound = bound.With(name, val.Value)
	}
	return Result{Value: bound}, nil
}

func (e *Evaluator) solveRepeat(n *expr.Repeat, s *scope.Stack) (Result, error) {
	vals := make([]any, len(n.Values))
	for i, child := range n.Values {
		res, err := e.Solve(child, s)
		if err != nil {
			return Result{}, err
		}
		vals[i] = res.Value
	}
	melded, err := repeated.Meld(vals...)
	if err != nil {
		return Result{}, &expr.TypeError{At: n, Msg: err.Error()}
	}
	return Result{Value: melded}, nil
}

func (e *Evaluator) solveTuple(n *expr.Tuple, s *scope.Stack) (Result, error) {
	vals := make([]any, len(n.Values))
	for i, child := range n.Values {
		res, err := e.Solve(child, s)
		if err != nil {
			return Result{}, err
		}
		vals[i] = res.Value
	}
	return Result{Value: row.Indexed(vals...)}, nil
}

func (e *Evaluator) solvePair(n *expr.Pair, s *scope.Stack) (Result, error) {
	k, err := e.Solve(n.Key, s)
	if err != nil {
		return Result{}, err
	}
	v, err := e.Solve(n.Value, s)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: row.Indexed(k.Value, v.Value)}, nil
}

func (e *Evaluator) solveIfElse(n *expr.IfElse, s *scope.Stack) (Result, error) {
	pairs := len(n.Nodes) / 2
	for i := 0; i < pairs; i++ {
		cond, err := e.Solve(n.Nodes[2*i], s)
		if err != nil {
			return Result{}, err
		}
		ok, err := protocol.Truth(cond.Value)
		if err != nil {
			return Result{}, classify(n.Nodes[2*i], err)
		}
		if ok {
			return e.Solve(n.Nodes[2*i+1], s)
		}
	}
	def := n.Default()
	if def == nil {
		return Result{}, &expr.LogicError{At: n, Msg: "an if-else chain requires an else block"}
	}
	return e.Solve(def, s)
}

func (e *Evaluator) solveComplement(n *expr.Complement, s *scope.Stack) (Result, error) {
	res, err := e.Solve(n.Inner, s)
	if err != nil {
		return Result{}, err
	}
	ok, err := protocol.Truth(res.Value)
	if err != nil {
		return Result{}, classify(n.Inner, err)
	}
	return Result{Value: !ok, Branch: res.Branch}, nil
}

func (e *Evaluator) solveLogical(n *expr.Logical, s *scope.Stack) (Result, error) {
	if n.Op == expr.OpAnd {
		res := Result{Value: false}
		for _, child := range n.Operands {
			r, err := e.Solve(child, s)
			if err != nil {
				return Result{}, err
			}
			ok, err := protocol.Truth(r.Value)
			if err != nil {
				return Result{}, classify(child, err)
			}
			if !ok {
				return Result{Value: false, Branch: r.Branch}, nil
			}
			res = r
		}
		return res, nil
	}
	for _, child := range n.Operands {
		r, err := e.Solve(child, s)
		if err != nil {
			return Result{}, err
		}
		ok, err := protocol.Truth(r.Value)
		if err != nil {
			return Result{}, classify(child, err)
		}
		if ok {
			if r.Branch == nil {
				r.Branch = child
			}
			return r, nil
		}
	}
	return Result{Value: false}, nil
}
