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

var LtFn = NewFunc("lt", 2)

// Ordered is the capability of values with a strict order.
// Null orders below nothing: lt(null, x) is always false, so sorting
// mixed data leaves nulls where the stable sort found them.
var Ordered = NewProtocol("ordered", []*Func{LtFn}, nil)

// Less compares two values under the ordered capability.
// Incomparable operands are simply not less, never an error.
func Less(lhs, rhs any) (bool, error) {
	v, err := LtFn.Call(lhs, rhs)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func ltNumeric(args []any) (any, error) {
	a, _ := toNum(args[0])
	b, ok := toNum(args[1])
	if !ok {
		return false, nil
	}
	if a.float || b.float {
		return a.asFloat() < b.asFloat(), nil
	}
	return a.i < b.i, nil
}

func ltString(args []any) (any, error) {
	b, ok := args[1].(string)
	return ok && args[0].(string) < b, nil
}

func ltBool(args []any) (any, error) {
	b, ok := args[1].(bool)
	return ok && !args[0].(bool) && b, nil
}

func ltNull(args []any) (any, error) {
	return false, nil
}

func ltTime(args []any) (any, error) {
	b, ok := args[1].(time.Time)
	return ok && args[0].(time.Time).Before(b), nil
}

func init() {
	for _, t := range numericTypes {
		mustImplement(Ordered, t, map[*Func]Impl{LtFn: ltNumeric})
	}
	mustImplement(Ordered, reflect.TypeOf(""), map[*Func]Impl{LtFn: ltString})
	mustImplement(Ordered, reflect.TypeOf(false), map[*Func]Impl{LtFn: ltBool})
	mustImplement(Ordered, NullType, map[*Func]Impl{LtFn: ltNull})
	mustImplement(Ordered, reflect.TypeOf(time.Time{}), map[*Func]Impl{LtFn: ltTime})
}
