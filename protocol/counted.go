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
	"unicode/utf8"
)

var CountFn = NewFunc("count", 1)

// Counted is the capability of values with a known element count.
var Counted = NewProtocol("counted", []*Func{CountFn}, nil)

// Count returns the number of elements in v. Strings count runes.
func Count(v any) (int, error) {
	n, err := CountFn.Call(v)
	if err != nil {
		return 0, err
	}
	return n.(int), nil
}

func countString(args []any) (any, error) {
	return utf8.RuneCountInString(args[0].(string)), nil
}

func countNull(args []any) (any, error) {
	return 0, nil
}

func countCounter(args []any) (any, error) {
	return args[0].(Counter).Count()
}

func countAny(args []any) (any, error) {
	rv := reflect.ValueOf(args[0])
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), nil
	}
	return nil, fmt.Errorf("count: %s has no element count", typename(TypeOf(args[0])))
}

func init() {
	mustImplement(Counted, reflect.TypeOf(""), map[*Func]Impl{CountFn: countString})
	CountFn.Register(NullType, countNull)
	CountFn.Register(counterType, countCounter)
	CountFn.Register(AnyType, countAny)
}
