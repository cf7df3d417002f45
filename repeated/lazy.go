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

package repeated

import "io"

// Lazy builds a repeated value from a producer of iterators.
// Every call to Iterate invokes gen again, so the producer must be
// restartable; elements are never cached, which keeps melded query
// results usable over sources larger than memory.
func Lazy(gen func() Iterator) Value {
	return &lazyValue{gen: gen}
}

type lazyValue struct {
	gen func() Iterator
}

func (l *lazyValue) Iterate() Iterator { return l.gen() }

func applyLazy(l *lazyValue, f func(any) (any, error)) Value {
	return Lazy(func() Iterator {
		return &mapIter{inner: l.Iterate(), f: f}
	})
}

type mapIter struct {
	inner Iterator
	f     func(any) (any, error)
}

func (it *mapIter) Next() (any, error) {
	v, err := it.inner.Next()
	if err != nil {
		return nil, err
	}
	return it.f(v)
}

// Materialize drains x into an eager List so later restarts do not
// re-run the producer.
func Materialize(x any) (any, error) {
	if _, ok := x.(*lazyValue); !ok {
		return x, nil
	}
	vals, err := Values(x)
	if err != nil {
		return nil, err
	}
	return List(vals), nil
}

// Chain concatenates repeated values lazily, in order.
func Chain(vals ...Value) Value {
	return Lazy(func() Iterator {
		return &chainIter{vals: vals}
	})
}

type chainIter struct {
	vals []Value
	cur  Iterator
}

func (it *chainIter) Next() (any, error) {
	for {
		if it.cur == nil {
			if len(it.vals) == 0 {
				return nil, io.EOF
			}
			it.cur = it.vals[0].Iterate()
			it.vals = it.vals[1:]
		}
		v, err := it.cur.Next()
		if err == io.EOF {
			it.cur = nil
			continue
		}
		return v, err
	}
}
