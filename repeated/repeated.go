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

// Package repeated implements the one-or-many value abstraction every
// operator in the engine works over: a bare scalar is a multiplicity of
// exactly one, a repeated value is a restartable ordered sequence.
package repeated

import (
	"fmt"
	"io"
	"reflect"

	"github.com/SnellerInc/winnow/protocol"
)

// Iterator yields the elements of a repeated value in order.
// Next returns io.EOF once the sequence is exhausted.
type Iterator interface {
	Next() (any, error)
}

// Value is a repeated value: zero or more elements of one element type.
// Iterate returns a fresh iterator positioned at the first element;
// calling it again restarts from the beginning with identical results.
type Value interface {
	Iterate() Iterator
}

// List is an eagerly materialized Value.
// Unlike melded values, a List preserves null elements positionally;
// broadcasting arithmetic depends on that.
type List []any

// Iterate implements Value.
func (l List) Iterate() Iterator { return &sliceIter{vals: l} }

type sliceIter struct {
	vals []any
	pos  int
}

func (it *sliceIter) Next() (any, error) {
	if it.pos >= len(it.vals) {
		return nil, io.EOF
	}
	v := it.vals[it.pos]
	it.pos++
	return v, nil
}

// New builds an eager repeated value from the given elements verbatim.
func New(vals ...any) Value {
	return List(vals)
}

// Values materializes x into its ordered element sequence:
// a Value drains its iterator, a Go slice expands element-wise, null
// yields an empty sequence, and any other scalar yields itself alone.
func Values(x any) ([]any, error) {
	switch v := x.(type) {
	case nil:
		return nil, nil
	case Value:
		return drain(v.Iterate())
	}
	if rv := reflect.ValueOf(x); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
	return []any{x}, nil
}

// Iter returns a fresh iterator over the elements of x, whatever form
// x takes: a Value iterates itself, anything else iterates the way
// Values expands it.
func Iter(x any) Iterator {
	if v, ok := x.(Value); ok {
		return v.Iterate()
	}
	// Values only fails when draining a Value iterator
	vals, _ := Values(x)
	return List(vals).Iterate()
}

func drain(it Iterator) ([]any, error) {
	var out []any
	for {
		v, err := it.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// IsRepeating reports whether x has more than one element.
// A scalar, a null, and a one-element repeated value are all scalar-like.
func IsRepeating(x any) bool {
	switch v := x.(type) {
	case nil:
		return false
	case Value:
		it := v.Iterate()
		for n := 0; ; n++ {
			_, err := it.Next()
			if err != nil {
				return false
			}
			if n == 1 {
				return true
			}
		}
	}
	if rv := reflect.ValueOf(x); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len() > 1
	}
	return false
}

// numberClass is the shared element class of all numeric scalars, so a
// repeated value may mix integer and floating point elements.
var numberClass = reflect.TypeOf(float64(0))

func classOf(v any) reflect.Type {
	if protocol.IsNumber(v) {
		return numberClass
	}
	return protocol.TypeOf(v)
}

// ElementType returns the element type of x: the type of its first
// non-null element, or nil when x has none.
func ElementType(x any) (reflect.Type, error) {
	vals, err := Values(x)
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		if v != nil {
			return protocol.TypeOf(v), nil
		}
	}
	return nil, nil
}

// Meld flattens vals, drops nulls, and collapses the result: no
// survivors is null, one survivor is that scalar, more are a repeated
// value. Melding elements of differing types is an error; all numbers
// count as one type.
func Meld(vals ...any) (any, error) {
	var out []any
	var class reflect.Type
	for _, v := range vals {
		elems, err := Values(v)
		if err != nil {
			return nil, err
		}
		for _, e := range elems {
			if e == nil {
				continue
			}
			c := classOf(e)
			if class == nil {
				class = c
			} else if class != c {
				return nil, fmt.Errorf("all values in a repeated value must be of the same type (%s vs %s)",
					class, c)
			}
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	}
	return List(out), nil
}

// Apply maps f over the elements of x. A lazy x stays lazy; an eager
// repeated value maps eagerly; a scalar is passed to f directly.
func Apply(x any, f func(any) (any, error)) (any, error) {
	switch v := x.(type) {
	case nil:
		return f(nil)
	case *lazyValue:
		return applyLazy(v, f), nil
	case Value:
		vals, err := drain(v.Iterate())
		if err != nil {
			return nil, err
		}
		out := make([]any, len(vals))
		for i := range vals {
			out[i], err = f(vals[i])
			if err != nil {
				return nil, err
			}
		}
		return List(out), nil
	}
	if rv := reflect.ValueOf(x); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			var err error
			out[i], err = f(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
		}
		return List(out), nil
	}
	return f(x)
}

// ValueEq compares two repeated values position-wise under the eq
// capability: same length, equal elements in order. It never compares
// as sets.
func ValueEq(x, y any) (bool, error) {
	xs, err := Values(x)
	if err != nil {
		return false, err
	}
	ys, err := Values(y)
	if err != nil {
		return false, err
	}
	if len(xs) != len(ys) {
		return false, nil
	}
	for i := range xs {
		eq, err := protocol.Equal(xs[i], ys[i])
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}
