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

import "fmt"

var ApplyFn = NewFunc("apply", 3)

// Applicative is the capability of values that can be applied to
// arguments. Application always goes through this capability; the
// engine never calls a raw Go function value, which keeps "what is
// callable from a query" an explicit whitelist.
var Applicative = NewProtocol("applicative", []*Func{ApplyFn}, nil)

// Apply invokes fn with positional and named arguments.
func Apply(fn any, args []any, named map[string]any) (any, error) {
	return ApplyFn.Call(fn, args, named)
}

// IsApplicative reports whether v can be applied.
func IsApplicative(v any) bool {
	return Applicative.Implemented(TypeOf(v))
}

func applyCallable(args []any) (any, error) {
	pos, _ := args[1].([]any)
	named, _ := args[2].(map[string]any)
	return args[0].(Callable).Call(pos, named)
}

func applyAny(args []any) (any, error) {
	return nil, fmt.Errorf("%s is not callable", typename(TypeOf(args[0])))
}

func init() {
	ApplyFn.Register(callableType, applyCallable)
	ApplyFn.Register(AnyType, applyAny)
}
