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

// Package row implements ordered tuples of named columns.
//
// A Tuple is the engine's row shape: bind expressions, tuple literals
// and grouped reductions all produce one. Unlike a plain slice, a
// Tuple is a single value rather than a multiplicity, so queries can
// pass whole rows around without them expanding into their elements.
package row

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/winnow/protocol"
)

// Column is one named slot of a Tuple.
type Column struct {
	Name  string
	Value any
}

// Tuple is an immutable ordered sequence of named columns.
// Column order is significant: two tuples with the same columns in a
// different order are not equal.
type Tuple struct {
	cols []Column
}

// New builds a tuple from cols. A name that repeats overwrites the
// value of the earlier column and keeps its position.
func New(cols ...Column) *Tuple {
	t := &Tuple{cols: make([]Column, 0, len(cols))}
	for i := range cols {
		t.put(cols[i].Name, cols[i].Value)
	}
	return t
}

// Indexed builds a tuple whose columns are named by position,
// the way unnamed query columns are.
func Indexed(values ...any) *Tuple {
	cols := make([]Column, len(values))
	for i, v := range values {
		cols[i] = Column{Name: strconv.Itoa(i), Value: v}
	}
	return &Tuple{cols: cols}
}

func (t *Tuple) put(name string, value any) {
	for i := range t.cols {
		if t.cols[i].Name == name {
			t.cols[i].Value = value
			return
		}
	}
	t.cols = append(t.cols, Column{Name: name, Value: value})
}

// With returns a copy of t with the named column set. An existing
// column keeps its position; a new one is appended at the end.
func (t *Tuple) With(name string, value any) *Tuple {
	if t == nil {
		return New(Column{Name: name, Value: value})
	}
	nt := &Tuple{cols: slices.Clone(t.cols)}
	nt.put(name, value)
	return nt
}

// Len returns the number of columns.
func (t *Tuple) Len() int { return len(t.cols) }

// Names returns the column names in column order.
func (t *Tuple) Names() []string {
	names := make([]string, len(t.cols))
	for i := range t.cols {
		names[i] = t.cols[i].Name
	}
	return names
}

// Values returns the column values in column order.
func (t *Tuple) Values() []any {
	vals := make([]any, len(t.cols))
	for i := range t.cols {
		vals[i] = t.cols[i].Value
	}
	return vals
}

// Get returns the value of the named column.
func (t *Tuple) Get(name string) (any, bool) {
	for i := range t.cols {
		if t.cols[i].Name == name {
			return t.cols[i].Value, true
		}
	}
	return nil, false
}

// Singleton returns the value of the only column of t. It fails when t
// has more or fewer columns than one, or when the one value is null.
func (t *Tuple) Singleton() (any, error) {
	if len(t.cols) != 1 {
		return nil, fmt.Errorf("%s is not a singleton", t)
	}
	if t.cols[0].Value == nil {
		return nil, fmt.Errorf("%s is empty", t)
	}
	return t.cols[0].Value, nil
}

func (t *Tuple) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i := range t.cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %v", t.cols[i].Name, t.cols[i].Value)
	}
	sb.WriteByte('}')
	return sb.String()
}

// MarshalJSON encodes the tuple as an object with its columns in
// column order, which a map-based encoding would lose.
func (t *Tuple) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	for i := range t.cols {
		if i > 0 {
			buf = append(buf, ',')
		}
		name, err := json.Marshal(t.cols[i].Name)
		if err != nil {
			return nil, err
		}
		buf = append(buf, name...)
		buf = append(buf, ':')
		val, err := json.Marshal(t.cols[i].Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, val...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ResolveMember returns the value of the named column, joining tuples
// to the structured capability. Tuples pushed on a scope stack make
// their columns visible as variables this way.
func (t *Tuple) ResolveMember(name string) (any, error) {
	if v, ok := t.Get(name); ok {
		return v, nil
	}
	return nil, &protocol.NotFoundError{Name: name}
}

// MemberNames returns the column names in column order.
func (t *Tuple) MemberNames() []string { return t.Names() }

// SelectKey selects a column by integer position or by name.
func (t *Tuple) SelectKey(key any) (any, error) {
	switch k := key.(type) {
	case int:
		return t.index(k)
	case int64:
		return t.index(int(k))
	case string:
		return t.ResolveMember(k)
	}
	return nil, &protocol.NotFoundError{Name: key}
}

func (t *Tuple) index(i int) (any, error) {
	if i < 0 || i >= len(t.cols) {
		return nil, &protocol.NotFoundError{Name: i}
	}
	return t.cols[i].Value, nil
}

// Count returns the number of columns.
func (t *Tuple) Count() (int, error) { return len(t.cols), nil }

// Hash64 hashes the column values the way a plain sequence of the same
// values hashes. Column names do not contribute: a tuple that compares
// equal to a bare sequence must land in the same grouping bucket.
func (t *Tuple) Hash64() (uint64, error) {
	return protocol.Hashed(t.Values())
}

// eqTuple compares a tuple against another tuple (names and values, in
// order), against any other structured value (by member, ignoring
// order), or against a sequence (values positionally).
func eqTuple(args []any) (any, error) {
	t := args[0].(*Tuple)
	if other, ok := args[1].(*Tuple); ok {
		if len(t.cols) != len(other.cols) {
			return false, nil
		}
		for i := range t.cols {
			if t.cols[i].Name != other.cols[i].Name {
				return false, nil
			}
			eq, err := protocol.Equal(t.cols[i].Value, other.cols[i].Value)
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	}
	if protocol.Structured.Implemented(protocol.TypeOf(args[1])) {
		names := protocol.MemberNames(args[1])
		if names == nil {
			return false, nil
		}
		return t.eqStructured(args[1], names)
	}
	rv := reflect.ValueOf(args[1])
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() != len(t.cols) {
			return false, nil
		}
		for i := range t.cols {
			eq, err := protocol.Equal(t.cols[i].Value, rv.Index(i).Interface())
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	}
	return false, nil
}

func (t *Tuple) eqStructured(other any, names []string) (any, error) {
	theirs := slices.Clone(names)
	slices.Sort(theirs)
	ours := t.Names()
	slices.Sort(ours)
	if !slices.Equal(ours, theirs) {
		return false, nil
	}
	for _, name := range ours {
		ov, err := protocol.Resolve(other, name)
		if err != nil {
			return nil, err
		}
		tv, _ := t.Get(name)
		eq, err := protocol.Equal(tv, ov)
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

func boolTuple(args []any) (any, error) {
	return args[0].(*Tuple).Len() > 0, nil
}

func init() {
	tupleType := reflect.TypeOf((*Tuple)(nil))
	protocol.EqFn.Register(tupleType, eqTuple)
	protocol.AsBoolFn.Register(tupleType, boolTuple)
}
