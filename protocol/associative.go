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

package protocol

import (
	"fmt"
	"reflect"
)

var (
	SelectFn  = NewFunc("select", 2)
	GetKeysFn = NewFunc("getkeys", 1)
)

// Associative is the capability of values selectable by key or index.
var Associative = NewProtocol("associative", []*Func{SelectFn}, []*Func{GetKeysFn})

// Select looks up v[key]. Out-of-range indices and absent keys return a
// NotFoundError; selecting through null returns a NullError.
func Select(v, key any) (any, error) {
	return SelectFn.Call(v, key)
}

func selectSlice(args []any) (any, error) {
	n, ok := toNum(args[1])
	if !ok || n.float {
		return nil, fmt.Errorf("select: index %v is not an integer", args[1])
	}
	rv := reflect.ValueOf(args[0])
	idx := int(n.i)
	if idx < 0 || idx >= rv.Len() {
		return nil, &NotFoundError{Name: idx}
	}
	return rv.Index(idx).Interface(), nil
}

func selectNull(args []any) (any, error) {
	return nil, &NullError{Op: "index access"}
}

func selectSelector(args []any) (any, error) {
	return args[0].(Selector).SelectKey(args[1])
}

// selectAny handles remaining slice and array types through reflection.
func selectAny(args []any) (any, error) {
	rv := reflect.ValueOf(args[0])
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return selectSlice(args)
	}
	return nil, fmt.Errorf("select: %s is not indexable", typename(TypeOf(args[0])))
}

func keysSlice(args []any) (any, error) {
	rv := reflect.ValueOf(args[0])
	keys := make([]any, rv.Len())
	for i := range keys {
		keys[i] = i
	}
	return keys, nil
}

func init() {
	for _, t := range []reflect.Type{
		reflect.TypeOf([]any(nil)),
		reflect.TypeOf([]string(nil)),
		reflect.TypeOf([]int(nil)),
		reflect.TypeOf([]float64(nil)),
	} {
		mustImplement(Associative, t, map[*Func]Impl{
			SelectFn:  selectSlice,
			GetKeysFn: keysSlice,
		})
	}
	// maps select by key the same way they resolve by name
	mustImplement(Associative, reflect.TypeOf(map[string]any(nil)), map[*Func]Impl{
		SelectFn: func(args []any) (any, error) {
			key, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("select: map key %v is not a string", args[1])
			}
			return resolveStringMap([]any{args[0], key})
		},
	})
	SelectFn.Register(NullType, selectNull)
	SelectFn.Register(selectorType, selectSelector)
	SelectFn.Register(AnyType, selectAny)
}
