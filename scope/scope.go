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

// Package scope implements the lexical name resolution stack used
// during evaluation. A stack is an ordered list of structured values;
// lookups walk from the innermost scope outward, and pushing never
// mutates the stack being extended, so sibling subtrees cannot see
// each other's bindings.
package scope

import (
	"errors"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/SnellerInc/winnow/protocol"
)

// Stack is an immutable stack of scopes, outermost first.
// Any value with the structured capability can serve as a scope.
type Stack struct {
	scopes []any
}

// New builds a stack from the given scopes, outermost first.
// Stack arguments are flattened in place, so nesting stacks behaves
// like concatenating them.
func New(scopes ...any) *Stack {
	s := &Stack{scopes: make([]any, 0, len(scopes))}
	for _, sc := range scopes {
		if inner, ok := sc.(*Stack); ok {
			s.scopes = append(s.scopes, inner.scopes...)
			continue
		}
		s.scopes = append(s.scopes, sc)
	}
	return s
}

// Push returns a new stack with local as the innermost scope.
// The receiver is left unchanged.
func (s *Stack) Push(local any) *Stack {
	if s == nil {
		return New(local)
	}
	scopes := make([]any, len(s.scopes), len(s.scopes)+1)
	copy(scopes, s.scopes)
	return New(append(scopes, local)...)
}

// Len returns the number of scopes on the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.scopes)
}

// Globals returns the outermost scope, or nil for an empty stack.
func (s *Stack) Globals() any {
	if s.Len() == 0 {
		return nil
	}
	return s.scopes[0]
}

// Locals returns the innermost scope, or nil for an empty stack.
func (s *Stack) Locals() any {
	if s.Len() == 0 {
		return nil
	}
	return s.scopes[len(s.scopes)-1]
}

// Resolve looks name up in each scope from the innermost out.
// A scope that merely lacks the name is skipped; any other resolution
// failure stops the walk. When every scope misses, the result is a
// NotFoundError naming the identifier.
func (s *Stack) Resolve(name string) (any, error) {
	if s != nil {
		for i := len(s.scopes) - 1; i >= 0; i-- {
			v, err := protocol.Resolve(s.scopes[i], name)
			if err == nil {
				return v, nil
			}
			var nf *protocol.NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			return nil, err
		}
	}
	return nil, &protocol.NotFoundError{Name: name}
}

// ResolveMember implements the structured hook, so a stack can itself
// be used as a scope inside an enclosing stack.
func (s *Stack) ResolveMember(name string) (any, error) {
	return s.Resolve(name)
}

// MemberNames returns the union of the member names of every scope,
// sorted and deduplicated.
func (s *Stack) MemberNames() []string {
	if s.Len() == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	for _, sc := range s.scopes {
		for _, name := range protocol.MemberNames(sc) {
			seen[name] = struct{}{}
		}
	}
	names := maps.Keys(seen)
	slices.Sort(names)
	return names
}
