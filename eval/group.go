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

	"github.com/SnellerInc/winnow/expr"
	"github.com/SnellerInc/winnow/protocol"
	"github.com/SnellerInc/winnow/reducer"
	"github.com/SnellerInc/winnow/repeated"
	"github.com/SnellerInc/winnow/row"
	"github.com/SnellerInc/winnow/scope"
)

func (e *Evaluator) solveReducer(n *expr.Reducer, s *scope.Stack) (Result, error) {
	delegate, err := e.Solve(n.Fn, s)
	if err != nil {
		return Result{}, err
	}
	r, ok := delegate.Value.(reducer.Reducer)
	if !ok {
		return Result{}, typeErrf(n.Fn, "%v is not a reducer", delegate.Value)
	}
	mapper := func(chunk []any) ([]any, error) {
		out := make([]any, len(chunk))
		for i, item := range chunk {
			nested, err := nest(n.Mapper, s, "", item)
			if err != nil {
				return nil, err
			}
			res, err := e.Solve(n.Mapper, nested)
			if err != nil {
				return nil, err
			}
			out[i] = res.Value
		}
		return out, nil
	}
	return Result{Value: reducer.Map(r, mapper)}, nil
}

// group is the running state of one distinct group key: the rows
// bucketed from the current chunk plus the merged intermediate from
// all folded chunks so far.
type group struct {
	key    any
	rows   []any
	acc    any
	seeded bool
}

// grouping buckets rows by key. Lookup hashes the key and then
// confirms with the eq capability, so any hashable value can be a
// group key. Groups keep first-seen order.
type grouping struct {
	groups []*group
	index  map[uint64][]*group
}

func (g *grouping) lookup(key any) (*group, error) {
	h, err := protocol.Hashed(key)
	if err != nil {
		return nil, err
	}
	for _, b := range g.index[h] {
		eq, err := protocol.Equal(b.key, key)
		if err != nil {
			return nil, err
		}
		if eq {
			return b, nil
		}
	}
	b := &group{key: key}
	g.index[h] = append(g.index[h], b)
	g.groups = append(g.groups, b)
	return b, nil
}

func (e *Evaluator) solveGroup(n *expr.Group, s *scope.Stack) (Result, error) {
	rows, _, err := e.solveRepeated(n.Context, s)
	if err != nil {
		return Result{}, err
	}
	rs := make([]reducer.Reducer, len(n.Reducers))
	for i, child := range n.Reducers {
		res, err := e.Solve(child, s)
		if err != nil {
			return Result{}, err
		}
		r, ok := res.Value.(reducer.Reducer)
		if !ok {
			return Result{}, typeErrf(child, "%v is not a reducer", res.Value)
		}
		rs[i] = r
	}
	composed := reducer.Compose(rs...)
	name := contextName(n.Context)

	chunks, err := reducer.NewChunker(rows, e.GroupChunkSize)
	if err != nil {
		return Result{}, classify(n.Context, err)
	}
	table := &grouping{index: make(map[uint64][]*group)}
	for {
		chunk, err := chunks.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, classify(n.Context, err)
		}
		for _, item := range chunk {
			nested, err := nest(n.Context, s, name, item)
			if err != nil {
				return Result{}, err
			}
			key, err := e.Solve(n.Grouper, nested)
			if err != nil {
				return Result{}, err
			}
			b, err := table.lookup(key.Value)
			if err != nil {
				return Result{}, classify(n.Grouper, err)
			}
			b.rows = append(b.rows, item)
		}
		// fold the buckets this chunk touched and merge into their
		// running intermediates, then release the raw rows: peak
		// memory stays one chunk plus one intermediate per group
		for _, b := range table.groups {
			if len(b.rows) == 0 {
				continue
			}
			acc, err := composed.Fold(b.rows)
			if err != nil {
				return Result{}, classify(n, err)
			}
			if b.seeded {
				acc, err = composed.Merge(b.acc, acc)
				if err != nil {
					return Result{}, classify(n, err)
				}
			}
			b.acc, b.seeded = acc, true
			b.rows = b.rows[:0]
		}
	}

	out := make([]any, len(table.groups))
	for i, b := range table.groups {
		fin, err := composed.Finalize(b.acc)
		if err != nil {
			return Result{}, classify(n, err)
		}
		vals := fin.([]any)
		var v any
		if len(vals) == 1 {
			v = vals[0]
		} else {
			v = vals
		}
		out[i] = row.New(
			row.Column{Name: "key", Value: b.key},
			row.Column{Name: "value", Value: v},
		)
	}
	melded, err := repeated.Meld(out...)
	if err != nil {
		return Result{}, &expr.TypeError{At: n, Msg: err.Error()}
	}
	return Result{Value: melded}, nil
}
