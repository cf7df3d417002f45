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

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	ResolveFn    = NewFunc("resolve", 2)
	GetMembersFn = NewFunc("getmembers", 1)
)

// Structured is the capability of values whose members resolve by name.
var Structured = NewProtocol("structured", []*Func{ResolveFn}, []*Func{GetMembersFn})

// Resolve looks up the named member of v.
// Absent members return a NotFoundError; resolving through null returns
// a NullError; resolving through a function is a type mismatch.
func Resolve(v any, name string) (any, error) {
	return ResolveFn.Call(v, name)
}

// MemberNames lists the member names of v, sorted when the container
// itself has no order. Values without the optional getmembers
// operation yield nil.
func MemberNames(v any) []string {
	names, err := GetMembersFn.Call(v)
	if err != nil {
		return nil
	}
	ns, _ := names.([]string)
	return ns
}

func resolveStringMap(args []any) (any, error) {
	name := args[1].(string)
	switch m := args[0].(type) {
	case map[string]any:
		if v, ok := m[name]; ok {
			return v, nil
		}
	case map[string]string:
		if v, ok := m[name]; ok {
			return v, nil
		}
	}
	return nil, &NotFoundError{Name: name}
}

func resolveNull(args []any) (any, error) {
	return nil, &NullError{Op: "member access"}
}

func resolveResolver(args []any) (any, error) {
	return args[0].(Resolver).ResolveMember(args[1].(string))
}

// Functions are opaque: treating one as an object is always a mistake
// worth a dedicated message.
func resolveCallable(args []any) (any, error) {
	return nil, fmt.Errorf("can't resolve %q: can't use a function as an object", args[1])
}

func membersStringMap(args []any) (any, error) {
	var names []string
	switch m := args[0].(type) {
	case map[string]any:
		names = maps.Keys(m)
	case map[string]string:
		names = maps.Keys(m)
	}
	slices.Sort(names)
	return names, nil
}

func membersLister(args []any) (any, error) {
	return args[0].(MemberLister).MemberNames(), nil
}

func init() {
	mustImplement(Structured, reflect.TypeOf(map[string]any(nil)), map[*Func]Impl{
		ResolveFn:    resolveStringMap,
		GetMembersFn: membersStringMap,
	})
	mustImplement(Structured, reflect.TypeOf(map[string]string(nil)), map[*Func]Impl{
		ResolveFn:    resolveStringMap,
		GetMembersFn: membersStringMap,
	})
	ResolveFn.Register(NullType, resolveNull)
	ResolveFn.Register(resolverType, resolveResolver)
	ResolveFn.Register(callableType, resolveCallable)
	GetMembersFn.Register(listerType, membersLister)

	// a value that is both resolvable and callable is an object first
	if err := ResolveFn.Prefer(resolverType, callableType); err != nil {
		panic(err)
	}
}
