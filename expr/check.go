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

package expr

import "fmt"

// TypeError is the error returned when an
// operand violates the capability an operator
// requires of it.
type TypeError struct {
	At  Node
	Msg string
}

// Error implements error
func (t *TypeError) Error() string {
	return fmt.Sprintf("%q is ill-typed: %s", ToString(t.At), t.Msg)
}

// KeyError is the error returned when a member
// name or index is absent from the value it was
// looked up in.
type KeyError struct {
	At  Node
	Key any
}

func (k *KeyError) Error() string {
	return fmt.Sprintf("%q: no member or key %v", ToString(k.At), k.Key)
}

// NullError is the error returned when an
// operation dereferences a null value. It is
// distinct from KeyError so callers can give
// better diagnostics for absent data.
type NullError struct {
	At  Node
	Msg string
}

func (n *NullError) Error() string {
	return fmt.Sprintf("%q: %s", ToString(n.At), n.Msg)
}

// LogicError is the error returned for a
// structurally invalid expression tree.
type LogicError struct {
	At  Node
	Msg string
}

func (l *LogicError) Error() string {
	return fmt.Sprintf("%q is invalid: %s", ToString(l.At), l.Msg)
}

// SyntaxError is the error type returned by
// parsers; the core only carries it through.
type SyntaxError struct {
	Position int
	Msg      string
}

func (s *SyntaxError) Error() string {
	if s.Position > 0 {
		return fmt.Sprintf("position %d: %s", s.Position, s.Msg)
	}
	return s.Msg
}

func errtype(e Node, msg string) *TypeError {
	return &TypeError{At: e, Msg: msg}
}

func errtypef(e Node, f string, args ...any) *TypeError {
	return &TypeError{At: e, Msg: fmt.Sprintf(f, args...)}
}

func errlogic(e Node, msg string) *LogicError {
	return &LogicError{At: e, Msg: msg}
}

type checker interface {
	check() error
}

type checkwalk struct {
	errors []error
}

func (c *checkwalk) Visit(n Node) Visitor {
	if n == nil {
		return nil
	}
	ce, ok := n.(checker)
	if ok {
		err := ce.check()
		if err != nil {
			c.errors = append(c.errors, err)
			return nil
		}
	}
	return c
}

func combine(err []error) error {
	if len(err) == 1 {
		return err[0]
	}
	return fmt.Errorf("%w and %d other errors", err[0], len(err)-1)
}

// Validate walks the AST given by n and
// performs structural sanity-checking on all
// of the nodes in the tree. It catches shapes
// a parser should never produce, most notably
// an if-else chain without its mandatory
// else block.
func Validate(n Node) error {
	c := &checkwalk{}
	Walk(c, n)
	if c.errors == nil {
		return nil
	}
	return combine(c.errors)
}

func (e *IfElse) check() error {
	if e.Default() == nil {
		return errlogic(e, "else blocks are required")
	}
	return nil
}

func (g *Group) check() error {
	if len(g.Reducers) == 0 {
		return errlogic(g, "group requires at least one reducer")
	}
	return nil
}

func (w *Within) check() error {
	if w.Expr == nil && w.Op != OpAny {
		return errlogic(w, "missing the right-hand expression")
	}
	return nil
}

func (b *Bind) check() error {
	for i := range b.Pairs {
		if b.Pairs[i] == nil || b.Pairs[i].Key == nil || b.Pairs[i].Value == nil {
			return errlogic(b, "incomplete bind pair")
		}
	}
	return nil
}
