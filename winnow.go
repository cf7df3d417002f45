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

// Package winnow runs destructuring queries against plain Go data.
//
// A query is written in dottysql ("SELECT proc.pid FROM pslist()
// WHERE proc.name == 'init'"), as a lisp-style []any form, or built
// directly from expr nodes. NewQuery parses the source and Run
// evaluates it against caller-supplied variables; Apply, Filter and
// Search bundle the two steps for common shapes of work.
//
// Host values take part in evaluation through the capability
// protocols in the protocol package: anything structured can be a
// scope, anything applicative can be called, and results with more
// than one element come back as multiplicity values from the
// repeated package. The standard library of query functions lives in
// stdlib and is injected as explicit scope layers, with file-reading
// functions held behind AllowIO.
package winnow

import (
	"github.com/SnellerInc/winnow/eval"
	"github.com/SnellerInc/winnow/protocol"
	"github.com/SnellerInc/winnow/repeated"
)

// Apply parses src and runs it against vars in one step.
//
//	winnow.Apply("5 + 5", nil)                          // 10
//	winnow.Apply("ages + 1", map[string]any{"ages": []any{1, 2}})
func Apply(src, vars any, opts ...Option) (any, error) {
	q, err := NewQuery(src, opts...)
	if err != nil {
		return nil, err
	}
	return q.Run(vars)
}

// Values flattens a query result into its elements: a multiplicity
// value yields each element, a scalar yields itself, null yields
// none. Use it when the cardinality of a query's output is not known
// up front.
func Values(result any) ([]any, error) {
	return repeated.Values(result)
}

// Search returns the entries of data for which the query is truthy.
// Each entry is evaluated as the innermost scope, so field names in
// the query resolve against the entry:
//
//	winnow.Search("age > 10 and name =~ '^A'", people)
func Search(src any, data []any, opts ...Option) ([]any, error) {
	q, err := NewQuery(src, opts...)
	if err != nil {
		return nil, err
	}
	stack, err := q.libScope(nil)
	if err != nil {
		return nil, err
	}
	ev := eval.Evaluator{GroupChunkSize: q.chunk}
	var out []any
	for _, entry := range data {
		res, err := ev.Solve(q.Root, stack.Push(entry))
		if err != nil {
			return nil, q.wrap(err)
		}
		ok, err := protocol.Truth(res.Value)
		if err != nil {
			return nil, q.wrap(err)
		}
		if ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Filter is Search over a multiplicity value: data may be a scalar,
// a slice, or a lazy repeated value, and the survivors come back
// melded, so no survivors is null and a single survivor is that
// scalar.
func Filter(src, data any, opts ...Option) (any, error) {
	q, err := NewQuery(src, opts...)
	if err != nil {
		return nil, err
	}
	vals, err := repeated.Values(data)
	if err != nil {
		return nil, err
	}
	stack, err := q.libScope(nil)
	if err != nil {
		return nil, err
	}
	ev := eval.Evaluator{GroupChunkSize: q.chunk}
	keep := make([]any, 0, len(vals))
	for _, v := range vals {
		res, err := ev.Solve(q.Root, stack.Push(v))
		if err != nil {
			return nil, q.wrap(err)
		}
		ok, err := protocol.Truth(res.Value)
		if err != nil {
			return nil, q.wrap(err)
		}
		if ok {
			keep = append(keep, v)
		}
	}
	return repeated.Meld(keep...)
}

// Func makes an ordinary Go function callable from queries. The
// engine never calls raw function values, so host callbacks must be
// wrapped and bound to a name:
//
//	vars := map[string]any{
//	    "double": winnow.Func(func(args []any) (any, error) {
//	        return args[0].(int) * 2, nil
//	    }),
//	    "x": 21,
//	}
//	winnow.Apply("double(x)", vars) // 42
type Func func(args []any) (any, error)

// Call implements the applicative capability.
func (f Func) Call(args []any, _ map[string]any) (any, error) {
	return f(args)
}
