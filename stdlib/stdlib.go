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

// Package stdlib is the standard library of the query engine: the
// functions, reducers and type objects queries reach by name.
//
// The library is split into modules. Core is always in scope; Math
// adds the aggregate and string-distance functions; IO adds functions
// that read files and is only injected when the caller allows IO.
// A Module resolves its members like any other structured value, so
// injecting one is just pushing it on the scope stack under the host
// data.
package stdlib

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/SnellerInc/winnow/protocol"
	"github.com/SnellerInc/winnow/reducer"
)

// Module is a named collection of query-callable values.
type Module struct {
	name string
	vars map[string]any
}

// NewModule builds a module. Use Register to make it reachable by
// name.
func NewModule(name string, vars map[string]any) *Module {
	return &Module{name: name, vars: vars}
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// ResolveMember returns the named member, making modules usable as
// scope layers.
func (m *Module) ResolveMember(name string) (any, error) {
	if v, ok := m.vars[name]; ok {
		return v, nil
	}
	return nil, &protocol.NotFoundError{Name: name}
}

// MemberNames returns the member names in sorted order.
func (m *Module) MemberNames() []string {
	names := make([]string, 0, len(m.vars))
	for name := range m.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Module)
)

// Register makes m reachable through Lookup. Registering two modules
// under one name panics; the library names are claimed at init.
func Register(m *Module) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[m.name]; ok {
		panic(fmt.Sprintf("stdlib: duplicate module name %q", m.name))
	}
	registry[m.name] = m
}

// Lookup returns the module registered under name, or nil.
func Lookup(name string) *Module {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[name]
}

// applyReducer lets a reducer double as a function, so queries can
// reduce values inside rows: sum(xs) is reduce(sum, xs). An optional
// second argument overrides the fold chunk size.
func applyReducer(args []any) (any, error) {
	r := args[0].(reducer.Reducer)
	pos, _ := args[1].([]any)
	if len(pos) < 1 || len(pos) > 2 {
		return nil, fmt.Errorf("a reducer expects 1 or 2 arguments, but was passed %d", len(pos))
	}
	chunk := 0
	if len(pos) == 2 {
		n, err := wantInt("reduce", pos[1])
		if err != nil {
			return nil, err
		}
		chunk = n
	}
	return reducer.Reduce(r, pos[0], chunk)
}

func init() {
	Register(Core)
	Register(Math)
	Register(IO)
	reducerType := reflect.TypeOf((*reducer.Reducer)(nil)).Elem()
	callableType := reflect.TypeOf((*protocol.Callable)(nil)).Elem()
	protocol.ApplyFn.Register(reducerType, applyReducer)
	// a value that is somehow both calls like a function
	if err := protocol.ApplyFn.Prefer(callableType, reducerType); err != nil {
		panic(err)
	}
}
