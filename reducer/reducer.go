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

// Package reducer implements chunked, mergeable aggregation.
//
// A Reducer folds chunks of input into intermediate values, merges
// intermediates across chunks, and finalizes the running intermediate
// exactly once. Splitting the work into chunks lets a large input
// reduce without materializing it, while still amortizing the
// per-call overhead of Fold over many values.
package reducer

import (
	"io"

	"github.com/SnellerInc/winnow/repeated"
)

// DefaultChunkSize balances the memory held by one chunk against the
// per-call overhead of Fold.
const DefaultChunkSize = 4096

// Reducer is a mergeable aggregation.
//
// Intermediate values are opaque to everything but the reducer that
// produced them; they only ever flow back into the same reducer's
// Merge and Finalize.
type Reducer interface {
	// Fold reduces one chunk of input values into an intermediate.
	Fold(chunk []any) (any, error)
	// Merge combines two intermediates produced by Fold or Merge.
	Merge(left, right any) (any, error)
	// Finalize converts the intermediate into the final result.
	Finalize(intermediate any) (any, error)
}

// Compose returns a reducer that runs each of rs over the same input
// independently. Its result is the slice of the reducers' results, in
// order.
func Compose(rs ...Reducer) Reducer { return composed(rs) }

type composed []Reducer

func (c composed) Fold(chunk []any) (any, error) {
	out := make([]any, len(c))
	for i, r := range c {
		v, err := r.Fold(chunk)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c composed) Merge(left, right any) (any, error) {
	ls, rs := left.([]any), right.([]any)
	out := make([]any, len(c))
	for i, r := range c {
		v, err := r.Merge(ls[i], rs[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c composed) Finalize(intermediate any) (any, error) {
	vals := intermediate.([]any)
	out := make([]any, len(c))
	for i, r := range c {
		v, err := r.Finalize(vals[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Map returns a reducer that rewrites each chunk with fn before
// handing it to the delegate. Merge and Finalize pass through.
func Map(delegate Reducer, fn func(chunk []any) ([]any, error)) Reducer {
	return &mapped{delegate: delegate, fn: fn}
}

type mapped struct {
	delegate Reducer
	fn       func([]any) ([]any, error)
}

func (m *mapped) Fold(chunk []any) (any, error) {
	vals, err := m.fn(chunk)
	if err != nil {
		return nil, err
	}
	return m.delegate.Fold(vals)
}

func (m *mapped) Merge(left, right any) (any, error) {
	return m.delegate.Merge(left, right)
}

func (m *mapped) Finalize(intermediate any) (any, error) {
	return m.delegate.Finalize(intermediate)
}

// Chunker yields successive chunks of at most size values from its
// input. A repeated input streams one chunk at a time; anything else
// expands first.
type Chunker struct {
	it   repeated.Iterator
	size int
}

// NewChunker returns a Chunker over data. A size of zero or less means
// DefaultChunkSize.
func NewChunker(data any, size int) (*Chunker, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if v, ok := data.(repeated.Value); ok {
		return &Chunker{it: v.Iterate(), size: size}, nil
	}
	vals, err := repeated.Values(data)
	if err != nil {
		return nil, err
	}
	return &Chunker{it: repeated.New(vals...).Iterate(), size: size}, nil
}

// Next returns the next chunk, or io.EOF when the input is exhausted.
func (c *Chunker) Next() ([]any, error) {
	chunk := make([]any, 0, c.size)
	for len(chunk) < c.size {
		v, err := c.it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		chunk = append(chunk, v)
	}
	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}

// Reduce folds data through r chunk by chunk: the first chunk seeds
// the intermediate, every further chunk folds and merges into the
// running intermediate in input order, and the result is finalized
// exactly once. A chunkSize of zero or less folds the whole input in
// a single call. Empty input folds one empty chunk, so reducers
// produce their zero value rather than an error.
func Reduce(r Reducer, data any, chunkSize int) (any, error) {
	if chunkSize <= 0 {
		vals, err := repeated.Values(data)
		if err != nil {
			return nil, err
		}
		acc, err := r.Fold(vals)
		if err != nil {
			return nil, err
		}
		return r.Finalize(acc)
	}
	chunks, err := NewChunker(data, chunkSize)
	if err != nil {
		return nil, err
	}
	first, err := chunks.Next()
	if err != nil && err != io.EOF {
		return nil, err
	}
	acc, err := r.Fold(first)
	if err != nil {
		return nil, err
	}
	for {
		chunk, err := chunks.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		v, err := r.Fold(chunk)
		if err != nil {
			return nil, err
		}
		acc, err = r.Merge(acc, v)
		if err != nil {
			return nil, err
		}
	}
	return r.Finalize(acc)
}
