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
	"io"
	"strings"
	"unicode/utf8"

	"github.com/SnellerInc/winnow/protocol"
	"github.com/SnellerInc/winnow/repeated"
)

// Core is the module every query gets: sequence helpers, string
// helpers and the scalar type objects.
var Core = NewModule("stdcore", map[string]any{
	"first":       firstFn{},
	"take":        takeFn{},
	"drop":        dropFn{},
	"count":       countFn{},
	"reverse":     reverseFn{},
	"lower":       lowerFn{},
	"find":        findFn{},
	"materialize": materializeFn{},
	"singleton":   singletonReducer{},
	"int":         Int,
	"float":       Float,
	"str":         Str,
	"bytes":       Bytes,
	"bool":        Bool,
})

func arity(name string, args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s expects %d arguments, but was passed %d", name, n, len(args))
	}
	return nil
}

func wantString(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s wants a string, got %v", name, v)
	}
	return s, nil
}

func wantInt(name string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%s wants an integer, got %v", name, v)
}

// firstFn returns the first element of its argument, or null when the
// argument has none.
type firstFn struct{}

func (firstFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("first", args, 1); err != nil {
		return nil, err
	}
	v, err := repeated.Iter(args[0]).Next()
	if err == io.EOF {
		return nil, nil
	}
	return v, err
}

// takeFn keeps the first N elements. Lazy: the source is only pulled
// as far as needed.
type takeFn struct{}

func (takeFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("take", args, 2); err != nil {
		return nil, err
	}
	n, err := wantInt("take", args[0])
	if err != nil {
		return nil, err
	}
	x := args[1]
	return repeated.Lazy(func() repeated.Iterator {
		return &takeIter{src: repeated.Iter(x), left: n}
	}), nil
}

type takeIter struct {
	src  repeated.Iterator
	left int
}

func (it *takeIter) Next() (any, error) {
	if it.left <= 0 {
		return nil, io.EOF
	}
	it.left--
	return it.src.Next()
}

// dropFn skips the first N elements. Lazy.
type dropFn struct{}

func (dropFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("drop", args, 2); err != nil {
		return nil, err
	}
	n, err := wantInt("drop", args[0])
	if err != nil {
		return nil, err
	}
	x := args[1]
	return repeated.Lazy(func() repeated.Iterator {
		return &dropIter{src: repeated.Iter(x), skip: n}
	}), nil
}

type dropIter struct {
	src  repeated.Iterator
	skip int
}

func (it *dropIter) Next() (any, error) {
	for it.skip > 0 {
		it.skip--
		if _, err := it.src.Next(); err != nil {
			return nil, err
		}
	}
	return it.src.Next()
}

// countFn counts elements under the counted capability.
type countFn struct{}

func (countFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("count", args, 1); err != nil {
		return nil, err
	}
	return protocol.Count(args[0])
}

// reverseFn reverses the element order.
type reverseFn struct{}

func (reverseFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("reverse", args, 1); err != nil {
		return nil, err
	}
	vals, err := repeated.Values(args[0])
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
	return repeated.Meld(vals...)
}

// lowerFn lowercases a string.
type lowerFn struct{}

func (lowerFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("lower", args, 1); err != nil {
		return nil, err
	}
	s, err := wantString("lower", args[0])
	if err != nil {
		return nil, err
	}
	return strings.ToLower(s), nil
}

// findFn returns the rune position of needle in a string, or -1.
type findFn struct{}

func (findFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("find", args, 2); err != nil {
		return nil, err
	}
	s, err := wantString("find", args[0])
	if err != nil {
		return nil, err
	}
	needle, err := wantString("find", args[1])
	if err != nil {
		return nil, err
	}
	idx := strings.Index(s, needle)
	if idx < 0 {
		return -1, nil
	}
	return utf8.RuneCountInString(s[:idx]), nil
}

// materializeFn drains a lazy repeated value into memory.
type materializeFn struct{}

func (materializeFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("materialize", args, 1); err != nil {
		return nil, err
	}
	return repeated.Materialize(args[0])
}

// singletonReducer passes through a value that is constant over its
// whole group and fails when it is not.
type singletonReducer struct{}

func (singletonReducer) Fold(chunk []any) (any, error) {
	if len(chunk) == 0 {
		return nil, nil
	}
	first := chunk[0]
	for _, v := range chunk[1:] {
		eq, err := protocol.Equal(first, v)
		if err != nil {
			return nil, err
		}
		if !eq {
			return nil, fmt.Errorf("all values in a singleton must be equal to each other, got %v != %v", first, v)
		}
	}
	return first, nil
}

func (singletonReducer) Merge(left, right any) (any, error) {
	if left == nil {
		return right, nil
	}
	if right == nil {
		return left, nil
	}
	eq, err := protocol.Equal(left, right)
	if err != nil {
		return nil, err
	}
	if !eq {
		return nil, fmt.Errorf("all values in a singleton must be equal to each other, got %v != %v", left, right)
	}
	return left, nil
}

func (singletonReducer) Finalize(intermediate any) (any, error) {
	return intermediate, nil
}
