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

import "reflect"

var AsBoolFn = NewFunc("asbool", 1)

// Boolean is the capability of values with a truth value.
var Boolean = NewProtocol("boolean", []*Func{AsBoolFn}, nil)

// Truth returns the truth value of v: null and numeric zero are false,
// empty strings and empty containers are false, everything else is
// true unless its type registers otherwise. Multiplicities are true
// when at least one element is true (registered by their package).
func Truth(v any) (bool, error) {
	b, err := AsBoolFn.Call(v)
	if err != nil {
		return false, err
	}
	return b.(bool), nil
}

func boolNumeric(args []any) (any, error) {
	n, _ := toNum(args[0])
	if n.float {
		return n.f != 0, nil
	}
	return n.i != 0, nil
}

func boolString(args []any) (any, error) {
	return len(args[0].(string)) > 0, nil
}

func boolBool(args []any) (any, error) {
	return args[0].(bool), nil
}

func boolNull(args []any) (any, error) {
	return false, nil
}

// boolAny is the default: containers are true when non-empty, nil
// pointers are false, anything else is true.
func boolAny(args []any) (any, error) {
	rv := reflect.ValueOf(args[0])
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0, nil
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil(), nil
	}
	return true, nil
}

func init() {
	for _, t := range numericTypes {
		mustImplement(Boolean, t, map[*Func]Impl{AsBoolFn: boolNumeric})
	}
	mustImplement(Boolean, reflect.TypeOf(""), map[*Func]Impl{AsBoolFn: boolString})
	mustImplement(Boolean, reflect.TypeOf(false), map[*Func]Impl{AsBoolFn: boolBool})
	mustImplement(Boolean, NullType, map[*Func]Impl{AsBoolFn: boolNull})
	AsBoolFn.Register(AnyType, boolAny)
}
