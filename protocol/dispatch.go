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

// Package protocol implements the runtime dispatch layer of the engine:
// operations whose implementation is chosen by the dynamic type of their
// first argument, and named capabilities (protocols) that group such
// operations into units a host type can implement as a whole.
//
// Host integrations register implementations for their own types and the
// engine's operators pick them up without the host types having to embed
// or otherwise nominally derive from anything in this module.
package protocol

import (
	"fmt"
	"reflect"
	"sync"
)

// Impl is one registered implementation of a Func. It receives the
// original call arguments; args[0] is the value the call dispatched on.
type Impl func(args []any) (any, error)

type anytype struct{}
type nulltype struct{}

// AnyType is the universal type sentinel. An implementation registered
// for AnyType is the default: it applies when no other registration
// matches, and it never makes a type a member of a Protocol.
var AnyType = reflect.TypeOf(anytype{})

// NullType is the dispatch type of the null value (the nil interface).
var NullType = reflect.TypeOf(nulltype{})

// TypeOf returns the dispatch type of v.
// Unlike reflect.TypeOf, it maps nil to NullType.
func TypeOf(v any) reflect.Type {
	if v == nil {
		return NullType
	}
	return reflect.TypeOf(v)
}

func typename(t reflect.Type) string {
	switch t {
	case nil:
		return "<nil>"
	case AnyType:
		return "any"
	case NullType:
		return "null"
	}
	return t.String()
}

// Func is a multiply-dispatched operation with a fixed arity.
// Call picks the implementation registered for the runtime type of the
// first argument, falling back through the type's embedded ancestors,
// then through interface (capability) registrations, and finally to the
// AnyType default.
//
// Registration may happen at any time; registering an implementation or
// a preference invalidates the resolution cache.
type Func struct {
	name  string
	arity int

	mu    sync.RWMutex
	impls []implEntry
	prefs map[typePair]bool
	cache map[reflect.Type]Impl
	def   Impl
}

type implEntry struct {
	typ reflect.Type
	fn  Impl
}

type typePair struct {
	preferred, over reflect.Type
}

// NewFunc returns a Func with the given diagnostic name and arity.
func NewFunc(name string, arity int) *Func {
	if arity < 1 {
		panic("protocol: a Func needs at least the dispatch argument")
	}
	return &Func{
		name:  name,
		arity: arity,
		prefs: make(map[typePair]bool),
		cache: make(map[reflect.Type]Impl),
	}
}

// Name returns the diagnostic name of the operation.
func (f *Func) Name() string { return f.name }

// Register adds an implementation of f for values of type t,
// replacing any previous registration for the same type.
// Registering for AnyType installs the default implementation.
func (f *Func) Register(t reflect.Type, fn Impl) {
	if t == nil || fn == nil {
		panic("protocol: Register with nil type or implementation")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if t == AnyType {
		f.def = fn
	} else if i := f.entryIndex(t); i >= 0 {
		f.impls[i].fn = fn
	} else {
		f.impls = append(f.impls, implEntry{typ: t, fn: fn})
	}
	f.cache = make(map[reflect.Type]Impl)
}

func (f *Func) entryIndex(t reflect.Type) int {
	for i := range f.impls {
		if f.impls[i].typ == t {
			return i
		}
	}
	return -1
}

// Prefer records that implementations registered for the preferred type
// win over those registered for the over type when both match a value
// as capabilities and neither is closer than the other. It fails if the
// opposite preference is already recorded.
func (f *Func) Prefer(preferred, over reflect.Type) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prefs[typePair{preferred: over, over: preferred}] {
		return fmt.Errorf("protocol: %s: %s is already preferred over %s",
			f.name, typename(over), typename(preferred))
	}
	f.prefs[typePair{preferred: preferred, over: over}] = true
	f.cache = make(map[reflect.Type]Impl)
	return nil
}

// Call dispatches on the runtime type of args[0] and invokes the
// winning implementation.
func (f *Func) Call(args ...any) (any, error) {
	if len(args) != f.arity {
		panic(fmt.Sprintf("protocol: %s called with %d args, want %d",
			f.name, len(args), f.arity))
	}
	impl, err := f.resolve(TypeOf(args[0]))
	if err != nil {
		return nil, err
	}
	return impl(args)
}

// ImplementedFor reports whether a non-default implementation of f
// would be selected for values of type t. The AnyType default does not
// count: it applies to every type without making any type a member.
func (f *Func) ImplementedFor(t reflect.Type) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.matches(t)) > 0
}

func (f *Func) resolve(t reflect.Type) (Impl, error) {
	f.mu.RLock()
	impl, ok := f.cache[t]
	f.mu.RUnlock()
	if ok {
		return impl, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if impl, ok := f.cache[t]; ok {
		return impl, nil
	}
	impl, err := f.pick(t)
	if err != nil {
		return nil, err
	}
	f.cache[t] = impl
	return impl, nil
}

// candidate is one matching registration; dist is the position of the
// registered type in the ancestor chain of the dispatch type, or -1 for
// an interface (capability) match, which every chain match beats.
type candidate struct {
	entry implEntry
	dist  int
}

func (f *Func) matches(t reflect.Type) []candidate {
	chain := ancestors(t)
	var out []candidate
	for i := range f.impls {
		e := &f.impls[i]
		if d := chainIndex(chain, e.typ); d >= 0 {
			out = append(out, candidate{entry: *e, dist: d})
		} else if e.typ.Kind() == reflect.Interface && t != NullType && t.Implements(e.typ) {
			out = append(out, candidate{entry: *e, dist: -1})
		}
	}
	return out
}

func (f *Func) pick(t reflect.Type) (Impl, error) {
	cands := f.matches(t)
	if len(cands) == 0 {
		if f.def != nil {
			return f.def, nil
		}
		return nil, &NotImplementedError{Func: f.name, Type: t}
	}

	// nearest ancestor-chain match wins outright
	best := -1
	for i := range cands {
		if cands[i].dist < 0 {
			continue
		}
		if best < 0 || cands[i].dist < cands[best].dist {
			best = i
		}
	}
	if best >= 0 {
		return cands[best].entry.fn, nil
	}

	// only capability matches remain; they are unordered unless a
	// preference says otherwise
	winner := cands[0]
	for _, c := range cands[1:] {
		switch {
		case f.prefs[typePair{preferred: winner.entry.typ, over: c.entry.typ}]:
			// keep winner
		case f.prefs[typePair{preferred: c.entry.typ, over: winner.entry.typ}]:
			winner = c
		default:
			return nil, &AmbiguityError{
				Func: f.name, Type: t,
				A: winner.entry.typ, B: c.entry.typ,
			}
		}
	}
	return winner.entry.fn, nil
}

func chainIndex(chain []reflect.Type, t reflect.Type) int {
	for i := range chain {
		if chain[i] == t {
			return i
		}
	}
	return -1
}

var (
	descMu sync.RWMutex
	descs  = make(map[reflect.Type][]reflect.Type)
)

// ancestors returns the ancestor chain of t: t itself, then the types
// reachable through anonymous (embedded) fields in breadth-first order.
// A pointer type additionally inherits the chain of its element type.
// Chains are computed once per type and cached.
func ancestors(t reflect.Type) []reflect.Type {
	descMu.RLock()
	chain, ok := descs[t]
	descMu.RUnlock()
	if ok {
		return chain
	}
	chain = buildChain(t)
	descMu.Lock()
	descs[t] = chain
	descMu.Unlock()
	return chain
}

func buildChain(t reflect.Type) []reflect.Type {
	var chain []reflect.Type
	seen := make(map[reflect.Type]bool)
	queue := []reflect.Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		chain = append(chain, cur)
		elem := cur
		if elem.Kind() == reflect.Ptr {
			queue = append(queue, elem.Elem())
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			continue
		}
		for i := 0; i < elem.NumField(); i++ {
			fld := elem.Field(i)
			if fld.Anonymous {
				queue = append(queue, fld.Type)
			}
		}
	}
	return chain
}
