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

// Protocol is a named capability: a set of required and optional
// operations. A type is a member of the protocol once every required
// operation has an implementation that applies to it.
type Protocol struct {
	name     string
	required []*Func
	optional []*Func
}

// NewProtocol declares a capability made of the given operations.
func NewProtocol(name string, required, optional []*Func) *Protocol {
	return &Protocol{name: name, required: required, optional: optional}
}

// Name returns the capability name.
func (p *Protocol) Name() string { return p.name }

// Implement registers implementations of p's operations for type t.
// It fails unless, after this call, every required operation of p has
// an implementation applying to t: membership cannot be asserted
// piecemeal.
func (p *Protocol) Implement(t reflect.Type, impls map[*Func]Impl) error {
	if t == AnyType {
		return fmt.Errorf("protocol: %s: AnyType cannot be a protocol member", p.name)
	}
	for _, fn := range p.required {
		if impls[fn] == nil && !fn.ImplementedFor(t) {
			return fmt.Errorf("protocol: %s: missing %s for %s",
				p.name, fn.name, typename(t))
		}
	}
	for fn, impl := range impls {
		fn.Register(t, impl)
	}
	return nil
}

// Implemented reports whether t is a member of p: every required
// operation has a non-default implementation applying to t.
func (p *Protocol) Implemented(t reflect.Type) bool {
	for _, fn := range p.required {
		if !fn.ImplementedFor(t) {
			return false
		}
	}
	return true
}

// Contains makes Protocol usable as a Type in is-instance tests.
func (p *Protocol) Contains(v any) bool {
	return p.Implemented(TypeOf(v))
}

// Convert implements Type; protocols describe capabilities, not
// concrete representations, so there is nothing to convert to.
func (p *Protocol) Convert(v any) (any, error) {
	return nil, fmt.Errorf("cannot cast %s to capability %s", typename(TypeOf(v)), p.name)
}

// mustImplement is Implement for the package's own registrations,
// which cannot fail unless the tables above it are broken.
func mustImplement(p *Protocol, t reflect.Type, impls map[*Func]Impl) {
	if err := p.Implement(t, impls); err != nil {
		panic(err)
	}
}
