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

package winnow

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/SnellerInc/winnow/eval"
	"github.com/SnellerInc/winnow/expr"
	"github.com/SnellerInc/winnow/expr/dottysql"
	"github.com/SnellerInc/winnow/expr/lisp"
	"github.com/SnellerInc/winnow/repeated"
	"github.com/SnellerInc/winnow/scope"
	"github.com/SnellerInc/winnow/stdlib"
)

// A Syntax parses one query dialect. Parse receives the raw source
// plus the query parameters and returns the tree.
type Syntax struct {
	Name  string
	Parse func(src any, positional []any, named map[string]any) (expr.Node, error)
}

var (
	syntaxMu sync.RWMutex
	syntaxes = make(map[string]*Syntax)
)

// RegisterSyntax makes s reachable from NewQuery under its name.
// Registering two dialects under one name panics; the built-in
// dialects claim "dottysql" and "lisp" at init.
func RegisterSyntax(s *Syntax) {
	syntaxMu.Lock()
	defer syntaxMu.Unlock()
	if _, ok := syntaxes[s.Name]; ok {
		panic(fmt.Sprintf("winnow: duplicate syntax name %q", s.Name))
	}
	syntaxes[s.Name] = s
}

func lookupSyntax(name string) *Syntax {
	syntaxMu.RLock()
	defer syntaxMu.RUnlock()
	return syntaxes[name]
}

func init() {
	RegisterSyntax(&Syntax{
		Name: "dottysql",
		Parse: func(src any, positional []any, named map[string]any) (expr.Node, error) {
			text, ok := src.(string)
			if !ok {
				return nil, fmt.Errorf("dottysql expects query text, got %T", src)
			}
			return dottysql.ParseWith(text, positional, named)
		},
	})
	RegisterSyntax(&Syntax{
		Name: "lisp",
		Parse: func(src any, positional []any, named map[string]any) (expr.Node, error) {
			return lisp.ParseWith(src, positional, named)
		},
	})
}

// Query is a parsed query bound to the source it came from.
type Query struct {
	// ID tags errors and log lines from this query.
	ID uuid.UUID
	// Source is the query text. Queries built from trees or lisp
	// forms carry the dottysql rendering of Root.
	Source string
	// Syntax names the dialect Source was parsed with.
	Syntax string
	// Root is the expression tree.
	Root expr.Node

	positional []any
	named      map[string]any
	libs       []string
	allowIO    bool
	chunk      int
}

// Option is an optional argument to NewQuery.
type Option func(q *Query)

// WithParams supplies positional parameters, interpolated into '?'
// and '{0}'-style placeholders at parse time.
func WithParams(vals ...any) Option {
	return func(q *Query) {
		q.positional = vals
	}
}

// WithNamedParams supplies named parameters for '{name}'
// placeholders.
func WithNamedParams(vals map[string]any) Option {
	return func(q *Query) {
		q.named = vals
	}
}

// WithSyntax selects the dialect by name instead of guessing it from
// the source type.
func WithSyntax(name string) Option {
	return func(q *Query) {
		q.Syntax = name
	}
}

// WithLibraries replaces the default library set, which is "stdcore"
// and "stdmath". The set must keep "stdcore"; "stdio" additionally
// requires AllowIO.
func WithLibraries(names ...string) Option {
	return func(q *Query) {
		q.libs = names
	}
}

// AllowIO adds the "stdio" library, letting the query open and read
// files through csv() and lines(). IO stays off unless asked for.
func AllowIO() Option {
	return func(q *Query) {
		q.allowIO = true
	}
}

// WithChunkSize sets how many rows a grouped reduction folds at a
// time (see eval.Evaluator).
func WithChunkSize(n int) Option {
	return func(q *Query) {
		q.chunk = n
	}
}

// NewQuery parses src into a runnable query. A string parses as
// dottysql, a []any as a lisp form, and an expr.Node is used as the
// tree directly; WithSyntax overrides the guess. The tree is
// validated, so a structurally broken source fails here rather than
// at Run.
func NewQuery(src any, opts ...Option) (*Query, error) {
	q := &Query{
		ID:   uuid.New(),
		libs: []string{"stdcore", "stdmath"},
	}
	for _, opt := range opts {
		opt(q)
	}
	if err := q.build(src); err != nil {
		return nil, err
	}
	if err := expr.Validate(q.Root); err != nil {
		return nil, q.wrap(err)
	}
	return q, nil
}

func (q *Query) build(src any) error {
	if node, ok := src.(expr.Node); ok {
		q.Root = node
		q.Source = dottysql.Format(node)
		if q.Syntax == "" {
			q.Syntax = "dottysql"
		}
		return nil
	}
	if q.Syntax == "" {
		switch src.(type) {
		case string:
			q.Syntax = "dottysql"
		case []any:
			q.Syntax = "lisp"
		default:
			return fmt.Errorf("cannot build a query from %T", src)
		}
	}
	syn := lookupSyntax(q.Syntax)
	if syn == nil {
		return fmt.Errorf("no syntax registered under %q", q.Syntax)
	}
	root, err := syn.Parse(src, q.positional, q.named)
	if err != nil {
		return err
	}
	q.Root = root
	if text, ok := src.(string); ok {
		q.Source = text
	} else {
		q.Source = dottysql.Format(root)
	}
	return nil
}

// String returns the query source.
func (q *Query) String() string { return q.Source }

// Equal reports whether two queries have equal trees, regardless of
// the spelling they were parsed from.
func (q *Query) Equal(other *Query) bool {
	if q == nil || other == nil {
		return q == other
	}
	return expr.Equal(q.Root, other.Root)
}

// Run evaluates the query with vars as the innermost scope. vars may
// be nil, a map, a scope stack, or any structured value; the
// configured library modules sit underneath it. Results with more
// than one element come back as multiplicity values; use Values to
// iterate uniformly.
func (q *Query) Run(vars any) (any, error) {
	stack, err := q.libScope(vars)
	if err != nil {
		return nil, err
	}
	ev := eval.Evaluator{GroupChunkSize: q.chunk}
	res, err := ev.Solve(q.Root, stack)
	if err != nil {
		return nil, q.wrap(err)
	}
	out := res.Value
	if rv, ok := out.(repeated.Value); ok && !repeated.IsRepeating(rv) {
		// a scalar-like result reads better as the scalar itself
		vals, err := repeated.Values(rv)
		if err != nil {
			return nil, q.wrap(err)
		}
		if len(vals) == 0 {
			return nil, nil
		}
		return vals[0], nil
	}
	return out, nil
}

// libScope assembles the library layers with vars innermost.
func (q *Query) libScope(vars any) (*scope.Stack, error) {
	layers := make([]any, 0, len(q.libs)+2)
	core, io := false, false
	for _, name := range q.libs {
		if name == "stdio" && !q.allowIO {
			return nil, fmt.Errorf("query %s: library \"stdio\" requires AllowIO", q.ID)
		}
		mod := stdlib.Lookup(name)
		if mod == nil {
			return nil, fmt.Errorf("query %s: no standard library module %q", q.ID, name)
		}
		core = core || name == "stdcore"
		io = io || name == "stdio"
		layers = append(layers, mod)
	}
	if !core {
		return nil, fmt.Errorf("query %s: the library set must include \"stdcore\"", q.ID)
	}
	if q.allowIO && !io {
		layers = append(layers, stdlib.IO)
	}
	if vars != nil {
		layers = append(layers, vars)
	}
	return scope.New(layers...), nil
}

// wrap ties an evaluation error back to the query.
func (q *Query) wrap(err error) error {
	return &Error{ID: q.ID, Source: q.Source, Err: err}
}

// Error is an evaluation failure annotated with the query it arose
// in. When the underlying error carries a node with a source span,
// the message excerpts the source with the failing range between
// ">>>" and "<<<" markers.
type Error struct {
	ID     uuid.UUID
	Source string
	Err    error
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Error() string {
	if at := errorNode(e.Err); at != nil {
		from, to := at.Span()
		if from < to && to <= len(e.Source) {
			return fmt.Sprintf("%v in query %q",
				e.Err, e.Source[:from]+" >>> "+e.Source[from:to]+" <<< "+e.Source[to:])
		}
	}
	return fmt.Sprintf("%v in query %q", e.Err, e.Source)
}

// errorNode extracts the node an evaluation error arose at, or nil.
func errorNode(err error) expr.Node {
	var te *expr.TypeError
	if errors.As(err, &te) {
		return te.At
	}
	var ke *expr.KeyError
	if errors.As(err, &ke) {
		return ke.At
	}
	var ne *expr.NullError
	if errors.As(err, &ne) {
		return ne.At
	}
	var le *expr.LogicError
	if errors.As(err, &le) {
		return le.At
	}
	return nil
}
