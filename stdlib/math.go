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

package stdlib

import (
	"fmt"

	"github.com/SnellerInc/winnow/fuzzy"
	"github.com/SnellerInc/winnow/protocol"
	"github.com/SnellerInc/winnow/repeated"
)

// Math holds the aggregate reducers and string-distance functions.
var Math = NewModule("stdmath", map[string]any{
	"sum":         sumReducer{},
	"mean":        meanReducer{},
	"vector_sum":  vectorSumReducer{},
	"levenshtein": levenshteinFn{},
	"fuzzy":       fuzzyFn{},
})

// sumReducer adds numbers up under the number capability, so sums of
// integers stay integers.
type sumReducer struct{}

func (sumReducer) Fold(chunk []any) (any, error) {
	acc := any(int64(0))
	for _, v := range chunk {
		var err error
		acc, err = protocol.Sum(acc, v)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func (sumReducer) Merge(left, right any) (any, error) {
	return protocol.Sum(left, right)
}

func (sumReducer) Finalize(intermediate any) (any, error) {
	return intermediate, nil
}

// meanReducer computes the arithmetic mean. The result is always a
// float.
type meanReducer struct{}

type meanAcc struct {
	sum any
	n   int
}

func (meanReducer) Fold(chunk []any) (any, error) {
	acc, err := sumReducer{}.Fold(chunk)
	if err != nil {
		return nil, err
	}
	return meanAcc{sum: acc, n: len(chunk)}, nil
}

func (meanReducer) Merge(left, right any) (any, error) {
	l, r := left.(meanAcc), right.(meanAcc)
	sum, err := protocol.Sum(l.sum, r.sum)
	if err != nil {
		return nil, err
	}
	return meanAcc{sum: sum, n: l.n + r.n}, nil
}

func (meanReducer) Finalize(intermediate any) (any, error) {
	acc := intermediate.(meanAcc)
	if acc.n == 0 {
		return nil, fmt.Errorf("mean of zero values")
	}
	total, err := toFloat(acc.sum)
	if err != nil {
		return nil, err
	}
	return total / float64(acc.n), nil
}

// vectorSumReducer adds vectors of numbers element-wise. Every input
// vector must have the same width.
type vectorSumReducer struct{}

func (vectorSumReducer) Fold(chunk []any) (any, error) {
	var acc []any
	for _, v := range chunk {
		vec, err := repeated.Values(v)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = vec
			continue
		}
		if len(vec) != len(acc) {
			return nil, fmt.Errorf("vector_sum: want vectors of %d values, got %d", len(acc), len(vec))
		}
		for i, col := range vec {
			acc[i], err = protocol.Sum(acc[i], col)
			if err != nil {
				return nil, err
			}
		}
	}
	if acc == nil {
		return nil, nil
	}
	return acc, nil
}

func (r vectorSumReducer) Merge(left, right any) (any, error) {
	if left == nil {
		return right, nil
	}
	if right == nil {
		return left, nil
	}
	return r.Fold([]any{left, right})
}

func (vectorSumReducer) Finalize(intermediate any) (any, error) {
	return intermediate, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%v is not a number", v)
}

// levenshteinFn computes the plain edit distance between two strings.
type levenshteinFn struct{}

func (levenshteinFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("levenshtein", args, 2); err != nil {
		return nil, err
	}
	x, err := wantString("levenshtein", args[0])
	if err != nil {
		return nil, err
	}
	y, err := wantString("levenshtein", args[1])
	if err != nil {
		return nil, err
	}
	return fuzzy.Levenshtein(x, y), nil
}

// fuzzyFn reports whether two strings are within a Damerau-Levenshtein
// distance of each other, so transposed characters count as one typo.
type fuzzyFn struct{}

func (fuzzyFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("fuzzy", args, 3); err != nil {
		return nil, err
	}
	x, err := wantString("fuzzy", args[0])
	if err != nil {
		return nil, err
	}
	y, err := wantString("fuzzy", args[1])
	if err != nil {
		return nil, err
	}
	threshold, err := wantInt("fuzzy", args[2])
	if err != nil {
		return nil, err
	}
	var d fuzzy.Damerau
	return d.Distance(x, y) <= threshold, nil
}
