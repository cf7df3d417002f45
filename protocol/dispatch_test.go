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
	"errors"
	"reflect"
	"testing"
)

type base struct{}

type derived struct {
	base
}

type twice struct {
	derived
}

type fooer interface{ Foo() }
type barer interface{ Bar() }

type both struct{}

func (both) Foo() {}
func (both) Bar() {}

func constImpl(v any) Impl {
	return func([]any) (any, error) { return v, nil }
}

func TestDispatchAncestry(t *testing.T) {
	fn := NewFunc("test", 1)
	fn.Register(reflect.TypeOf(base{}), constImpl("base"))

	// derived inherits through the embedded field
	got, err := fn.Call(derived{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "base" {
		t.Errorf("derived resolved to %v", got)
	}

	// registering the exact type beats the ancestor, even after the
	// ancestor resolution was cached
	fn.Register(reflect.TypeOf(derived{}), constImpl("derived"))
	got, err = fn.Call(derived{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "derived" {
		t.Errorf("derived resolved to %v after exact registration", got)
	}

	// two levels of embedding: nearer ancestor wins
	got, err = fn.Call(twice{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "derived" {
		t.Errorf("twice resolved to %v, want the nearer ancestor", got)
	}
}

func TestDispatchInterfaces(t *testing.T) {
	fn := NewFunc("test", 1)
	fn.Register(typeOfIface[fooer](), constImpl("foo"))

	got, err := fn.Call(both{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "foo" {
		t.Errorf("single capability resolved to %v", got)
	}

	// a second matching capability makes dispatch ambiguous
	fn.Register(typeOfIface[barer](), constImpl("bar"))
	_, err = fn.Call(both{})
	var amb *AmbiguityError
	if !errors.As(err, &amb) {
		t.Fatalf("expected ambiguity, got %v", err)
	}

	// a preference breaks the tie
	if err := fn.Prefer(typeOfIface[barer](), typeOfIface[fooer]()); err != nil {
		t.Fatal(err)
	}
	got, err = fn.Call(both{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "bar" {
		t.Errorf("preferred capability resolved to %v", got)
	}

	// an exact registration beats both capabilities
	fn.Register(reflect.TypeOf(both{}), constImpl("exact"))
	got, err = fn.Call(both{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "exact" {
		t.Errorf("exact type resolved to %v", got)
	}
}

func TestPreferSymmetry(t *testing.T) {
	fn := NewFunc("test", 1)
	if err := fn.Prefer(typeOfIface[fooer](), typeOfIface[barer]()); err != nil {
		t.Fatal(err)
	}
	if err := fn.Prefer(typeOfIface[barer](), typeOfIface[fooer]()); err == nil {
		t.Error("reversing an existing preference should fail")
	}
}

func TestDispatchDefault(t *testing.T) {
	fn := NewFunc("test", 1)
	_, err := fn.Call(derived{})
	var ni *NotImplementedError
	if !errors.As(err, &ni) {
		t.Fatalf("expected not-implemented, got %v", err)
	}

	fn.Register(AnyType, constImpl("default"))
	got, err := fn.Call(derived{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "default" {
		t.Errorf("default resolved to %v", got)
	}

	// the default applies to every type but makes none a member
	if fn.ImplementedFor(reflect.TypeOf(derived{})) {
		t.Error("AnyType default should not count as an implementation")
	}
}

func TestDispatchNull(t *testing.T) {
	fn := NewFunc("test", 1)
	fn.Register(NullType, constImpl("null"))
	got, err := fn.Call(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "null" {
		t.Errorf("null resolved to %v", got)
	}
}

func TestProtocolMembership(t *testing.T) {
	a := NewFunc("a", 1)
	b := NewFunc("b", 1)
	p := NewProtocol("p", []*Func{a, b}, nil)

	typ := reflect.TypeOf(base{})
	err := p.Implement(typ, map[*Func]Impl{a: constImpl(1)})
	if err == nil {
		t.Fatal("incomplete Implement should fail")
	}
	if p.Implemented(typ) {
		t.Fatal("failed Implement should not grant membership")
	}

	err = p.Implement(typ, map[*Func]Impl{a: constImpl(1), b: constImpl(2)})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Implemented(typ) {
		t.Fatal("membership missing after complete Implement")
	}
	// membership through the embedded ancestor
	if !p.Implemented(reflect.TypeOf(derived{})) {
		t.Error("membership should extend to embedding types")
	}
	if p.Implemented(reflect.TypeOf("")) {
		t.Error("membership leaked to an unrelated type")
	}
}
