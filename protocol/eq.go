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
	"reflect"
	"time"
)

var (
	EqFn = NewFunc("eq", 2)
	NeFn = NewFunc("ne", 2)
)

// Eq is the capability of values that compare for equality.
// Values of mismatched types are unequal, never an error.
var Eq = NewProtocol("eq", []*Func{EqFn}, []*Func{NeFn})

// Equal compares two values under the eq capability.
func Equal(lhs, rhs any) (bool, error) {
	v, err := EqFn.Call(lhs, rhs)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// NotEqual is the complement of Equal.
func NotEqual(lhs, rhs any) (bool, error) {
	v, err := NeFn.Call(lhs, rhs)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func eqNumeric(args []any) (any, error) {
	a, _ := toNum(args[0])
	b, ok := toNum(args[1])
	if !ok {
		return false, nil
	}
	if a.float || b.float {
		return a.asFloat() == b.asFloat(), nil
	}
	return a.i == b.i, nil
}

func eqString(args []any) (any, error) {
	b, ok := args[1].(string)
	return ok && args[0].(string) == b, nil
}

func eqBool(args []any) (any, error) {
	b, ok := args[1].(bool)
	return ok && args[0].(bool) == b, nil
}

func eqNull(args []any) (any, error) {
	return args[1] == nil, nil
}

func eqTime(args []any) (any, error) {
	b, ok := args[1].(time.Time)
	return ok && args[0].(time.Time).Equal(b), nil
}

// eqAny is the default: structural comparison. It keeps equality total
// the way the rest of the engine expects (host values that want cheaper
// or looser equality register their own implementation).
func eqAny(args []any) (any, error) {
	return reflect.DeepEqual(args[0], args[1]), nil
}

func neAny(args []any) (any, error) {
	v, err := EqFn.Call(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return !v.(bool), nil
}

func init() {
	for _, t := range numericTypes {
		mustImplement(Eq, t, map[*Func]Impl{EqFn: eqNumeric})
	}
	mustImplement(Eq, reflect.TypeOf(""), map[*Func]Impl{EqFn: eqString})
	mustImplement(Eq, reflect.TypeOf(false), map[*Func]Impl{EqFn: eqBool})
	mustImplement(Eq, NullType, map[*Func]Impl{EqFn: eqNull})
	mustImplement(Eq, reflect.TypeOf(time.Time{}), map[*Func]Impl{EqFn: eqTime})
	EqFn.Register(AnyType, eqAny)
	NeFn.Register(AnyType, neAny)
}
