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
	"math"
	"reflect"
)

// num is a normalized numeric operand: either an int64 or a float64.
type num struct {
	i     int64
	f     float64
	float bool
}

func (n num) asFloat() float64 {
	if n.float {
		return n.f
	}
	return float64(n.i)
}

// toNum normalizes any Go numeric value. ok is false for non-numbers;
// booleans and strings are not numbers here.
func toNum(v any) (num, bool) {
	switch v := v.(type) {
	case int:
		return num{i: int64(v)}, true
	case int8:
		return num{i: int64(v)}, true
	case int16:
		return num{i: int64(v)}, true
	case int32:
		return num{i: int64(v)}, true
	case int64:
		return num{i: v}, true
	case uint:
		return num{i: int64(v)}, true
	case uint8:
		return num{i: int64(v)}, true
	case uint16:
		return num{i: int64(v)}, true
	case uint32:
		return num{i: int64(v)}, true
	case uint64:
		if v > math.MaxInt64 {
			return num{f: float64(v), float: true}, true
		}
		return num{i: int64(v)}, true
	case float32:
		return num{f: float64(v), float: true}, true
	case float64:
		return num{f: v, float: true}, true
	}
	return num{}, false
}

// IsNumber reports whether v is a numeric scalar.
func IsNumber(v any) bool {
	_, ok := toNum(v)
	return ok
}

// IsZero reports whether v is a numeric scalar equal to zero.
func IsZero(v any) bool {
	n, ok := toNum(v)
	if !ok {
		return false
	}
	if n.float {
		return n.f == 0
	}
	return n.i == 0
}

// numericTypes are the Go types that participate in the number
// capability; the same implementation is registered for each.
var numericTypes = []reflect.Type{
	reflect.TypeOf(int(0)),
	reflect.TypeOf(int8(0)),
	reflect.TypeOf(int16(0)),
	reflect.TypeOf(int32(0)),
	reflect.TypeOf(int64(0)),
	reflect.TypeOf(uint(0)),
	reflect.TypeOf(uint8(0)),
	reflect.TypeOf(uint16(0)),
	reflect.TypeOf(uint32(0)),
	reflect.TypeOf(uint64(0)),
	reflect.TypeOf(float32(0)),
	reflect.TypeOf(float64(0)),
}

var (
	SumFn        = NewFunc("sum", 2)
	DifferenceFn = NewFunc("difference", 2)
	ProductFn    = NewFunc("product", 2)
	QuotientFn   = NewFunc("quotient", 2)
)

// Number is the capability of values that support binary arithmetic.
var Number = NewProtocol("number",
	[]*Func{SumFn, DifferenceFn, ProductFn, QuotientFn}, nil)

// Sum returns lhs + rhs under the number capability.
func Sum(lhs, rhs any) (any, error) { return SumFn.Call(lhs, rhs) }

// Difference returns lhs - rhs under the number capability.
func Difference(lhs, rhs any) (any, error) { return DifferenceFn.Call(lhs, rhs) }

// Product returns lhs * rhs under the number capability.
func Product(lhs, rhs any) (any, error) { return ProductFn.Call(lhs, rhs) }

// Quotient returns lhs / rhs under the number capability.
// Integer operands divide exactly when the division is even and fall
// back to floating point otherwise.
func Quotient(lhs, rhs any) (any, error) { return QuotientFn.Call(lhs, rhs) }

func binaryNum(name string, ints func(a, b int64) int64, floats func(a, b float64) float64) Impl {
	return func(args []any) (any, error) {
		a, ok := toNum(args[0])
		if !ok {
			return nil, fmt.Errorf("%s: %v is not a number", name, args[0])
		}
		b, ok := toNum(args[1])
		if !ok {
			return nil, fmt.Errorf("%s: %v is not a number", name, args[1])
		}
		if a.float || b.float {
			return floats(a.asFloat(), b.asFloat()), nil
		}
		return ints(a.i, b.i), nil
	}
}

func quotientImpl(args []any) (any, error) {
	a, ok := toNum(args[0])
	if !ok {
		return nil, fmt.Errorf("quotient: %v is not a number", args[0])
	}
	b, ok := toNum(args[1])
	if !ok {
		return nil, fmt.Errorf("quotient: %v is not a number", args[1])
	}
	if (b.float && b.f == 0) || (!b.float && b.i == 0) {
		return nil, fmt.Errorf("quotient: division by zero")
	}
	if !a.float && !b.float && a.i%b.i == 0 {
		return a.i / b.i, nil
	}
	return a.asFloat() / b.asFloat(), nil
}

func init() {
	sum := binaryNum("sum",
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b })
	difference := binaryNum("difference",
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b })
	product := binaryNum("product",
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b })
	for _, t := range numericTypes {
		mustImplement(Number, t, map[*Func]Impl{
			SumFn:        sum,
			DifferenceFn: difference,
			ProductFn:    product,
			QuotientFn:   quotientImpl,
		})
	}
}
