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

// NotImplementedError is returned by Call when no registration matches
// the dispatch type and no default is installed.
type NotImplementedError struct {
	Func string
	Type reflect.Type
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s is not implemented for %s", e.Func, typename(e.Type))
}

// AmbiguityError is returned by Call when two capability registrations
// match the dispatch type and no preference orders them.
type AmbiguityError struct {
	Func string
	Type reflect.Type
	A, B reflect.Type
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous dispatch of %s for %s: both %s and %s match",
		e.Func, typename(e.Type), typename(e.A), typename(e.B))
}

// NotFoundError is returned by Resolve and Select when the named member
// or key is absent from the container.
type NotFoundError struct {
	Name any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no member or key %v", e.Name)
}

// NullError is returned when an operation dereferences the null value.
// It is distinct from NotFoundError so callers can tell "the name is
// missing" from "the thing you looked inside was null".
type NullError struct {
	Op string
}

func (e *NullError) Error() string {
	return fmt.Sprintf("%s through a null value", e.Op)
}
