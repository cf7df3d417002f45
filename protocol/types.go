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

// Type is the value-level representation of a type: what is-instance
// tests and casts operate on. The standard library exposes Type values
// for the scalar types; Protocol implements Type so capabilities can be
// tested the same way.
type Type interface {
	// Name returns the name used in diagnostics.
	Name() string
	// Contains reports whether v is an instance of the type.
	Contains(v any) bool
	// Convert converts v to the type, or fails with a reason.
	Convert(v any) (any, error)
}

// Hooks host types can satisfy to join the built-in capabilities
// without registering implementations one by one. Each interface below
// is registered with the matching operation, so implementing the
// interface is the whole integration.

// Resolver resolves a member by name (the structured capability).
type Resolver interface {
	ResolveMember(name string) (any, error)
}

// MemberLister enumerates member names for diagnostics and SELECT *.
type MemberLister interface {
	MemberNames() []string
}

// Selector selects a value by key or index (the associative capability).
type Selector interface {
	SelectKey(key any) (any, error)
}

// Callable applies the value to arguments (the applicative capability).
// Positional arguments arrive in order; named arguments, if any, in the
// second argument.
type Callable interface {
	Call(args []any, named map[string]any) (any, error)
}

// Counter reports the number of elements in the value.
type Counter interface {
	Count() (int, error)
}

// Hasher produces the stable 64-bit hash used for grouping keys.
type Hasher interface {
	Hash64() (uint64, error)
}

func typeOfIface[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

var (
	resolverType = typeOfIface[Resolver]()
	listerType   = typeOfIface[MemberLister]()
	selectorType = typeOfIface[Selector]()
	callableType = typeOfIface[Callable]()
	counterType  = typeOfIface[Counter]()
	hasherType   = typeOfIface[Hasher]()
)
