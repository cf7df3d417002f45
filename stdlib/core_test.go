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

package stdlib

import (
	"errors"
	"io"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/SnellerInc/winnow/eval"
	"github.com/SnellerInc/winnow/expr"
	"github.com/SnellerInc/winnow/protocol"
	"github.com/SnellerInc/winnow/reducer"
	"github.com/SnellerInc/winnow/repeated"
	"github.com/SnellerInc/winnow/scope"
)

func resolve(t *testing.T, m *Module, name string) any {
	t.Helper()
	fn, err := m.ResolveMember(name)
	if err != nil {
		t.Fatalf("resolve %s: %s", name, err)
	}
	return fn
}

func call(t *testing.T, m *Module, name string, args ...any) any {
	t.Helper()
	out, err := protocol.Apply(resolve(t, m, name), args, nil)
	if err != nil {
		t.Fatalf("%s(%v): %s", name, args, err)
	}
	return out
}

func callErr(t *testing.T, m *Module, name string, args ...any) error {
	t.Helper()
	_, err := protocol.Apply(resolve(t, m, name), args, nil)
	if err == nil {
		t.Fatalf("%s(%v): expected an error", name, args)
	}
	return err
}

func elems(t *testing.T, x any) []any {
	t.Helper()
	vals, err := repeated.Values(x)
	if err != nil {
		t.Fatalf("Values(%v): %s", x, err)
	}
	return vals
}

func TestModule(t *testing.T) {
	if Core.Name() != "stdcore" {
		t.Errorf("Name() = %q", Core.Name())
	}
	if Lookup("stdcore") != Core {
		t.Error("Lookup(stdcore) did not return Core")
	}
	if Lookup("no-such-module") != nil {
		t.Error("Lookup of an unknown module should return nil")
	}
	_, err := Core.ResolveMember("no_such_fn")
	var nf *protocol.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("ResolveMember(no_such_fn) = %v, want NotFoundError", err)
	}
	names := Core.MemberNames()
	if !sort.StringsAreSorted(names) {
		t.Errorf("MemberNames() not sorted: %v", names)
	}
	for _, want := range []string{"count", "first", "take", "int", "str"} {
		i := sort.SearchStrings(names, want)
		if i >= len(names) || names[i] != want {
			t.Errorf("MemberNames() missing %q: %v", want, names)
		}
	}
}

func TestFirst(t *testing.T) {
	tcs := []struct {
		in   any
		want any
	}{
		{[]int{1, 2, 3}, 1},
		{repeated.New("a", "b"), "a"},
		{42, 42},
		{repeated.List{}, nil},
		{nil, nil},
	}
	for i, tc := range tcs {
		got := call(t, Core, "first", tc.in)
		if got != tc.want {
			t.Errorf("case %d: first(%v) = %v, want %v", i, tc.in, got, tc.want)
		}
	}
}

// tickIter counts how many elements were actually pulled from it.
type tickIter struct {
	n     int
	reads *int
}

func (it *tickIter) Next() (any, error) {
	if it.n <= 0 {
		return nil, io.EOF
	}
	it.n--
	*it.reads++
	return *it.reads, nil
}

func TestTake(t *testing.T) {
	tcs := []struct {
		n    int
		in   any
		want []any
	}{
		{2, []int{1, 2, 3}, []any{1, 2}},
		{10, []int{1, 2, 3}, []any{1, 2, 3}},
		{0, []int{1, 2, 3}, nil},
		{1, "solo", []any{"solo"}},
	}
	for i, tc := range tcs {
		out := call(t, Core, "take", tc.n, tc.in)
		if got := elems(t, out); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("case %d: take(%d, %v) = %v, want %v", i, tc.n, tc.in, got, tc.want)
		}
		// restartable
		if got := elems(t, out); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("case %d: second pass = %v, want %v", i, got, tc.want)
		}
	}
}

func TestTakeLazy(t *testing.T) {
	reads := 0
	src := repeated.Lazy(func() repeated.Iterator {
		return &tickIter{n: 100, reads: &reads}
	})
	out := call(t, Core, "take", 3, src)
	if reads != 0 {
		t.Fatalf("take drained its source eagerly: %d reads", reads)
	}
	if got := elems(t, out); !reflect.DeepEqual(got, []any{1, 2, 3}) {
		t.Fatalf("take(3, src) = %v", got)
	}
	if reads != 3 {
		t.Errorf("take(3, src) pulled %d elements", reads)
	}
}

func TestDrop(t *testing.T) {
	tcs := []struct {
		n    int
		in   any
		want []any
	}{
		{1, []int{1, 2, 3}, []any{2, 3}},
		{0, []int{1, 2, 3}, []any{1, 2, 3}},
		{5, []int{1, 2, 3}, nil},
		{1, "solo", nil},
	}
	for i, tc := range tcs {
		out := call(t, Core, "drop", tc.n, tc.in)
		if got := elems(t, out); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("case %d: drop(%d, %v) = %v, want %v", i, tc.n, tc.in, got, tc.want)
		}
	}
}

func TestTakeDropErrors(t *testing.T) {
	err := callErr(t, Core, "take", "x", []int{1})
	if !strings.Contains(err.Error(), "take wants an integer") {
		t.Errorf("take with a string count: %s", err)
	}
	err = callErr(t, Core, "take", 1)
	if !strings.Contains(err.Error(), "take expects 2 arguments, but was passed 1") {
		t.Errorf("take arity: %s", err)
	}
	err = callErr(t, Core, "drop", nil, []int{1})
	if !strings.Contains(err.Error(), "drop wants an integer") {
		t.Errorf("drop with a nil count: %s", err)
	}
}

func TestCount(t *testing.T) {
	tcs := []struct {
		in   any
		want int
	}{
		{[]int{1, 2, 3}, 3},
		{"héllo", 5},
		{repeated.New(1, 2), 2},
		{nil, 0},
	}
	for i, tc := range tcs {
		got := call(t, Core, "count", tc.in)
		if got != tc.want {
			t.Errorf("case %d: count(%v) = %v, want %d", i, tc.in, got, tc.want)
		}
	}
	if err := callErr(t, Core, "count", 7); !strings.Contains(err.Error(), "no element count") {
		t.Errorf("count(7): %s", err)
	}
}

func TestReverse(t *testing.T) {
	out := call(t, Core, "reverse", []int{1, 2, 3})
	if got := elems(t, out); !reflect.DeepEqual(got, []any{3, 2, 1}) {
		t.Errorf("reverse([1 2 3]) = %v", got)
	}
	if got := call(t, Core, "reverse", "solo"); got != "solo" {
		t.Errorf("reverse of a scalar = %v", got)
	}
}

func TestLower(t *testing.T) {
	if got := call(t, Core, "lower", "HeLLo"); got != "hello" {
		t.Errorf("lower(HeLLo) = %v", got)
	}
	if err := callErr(t, Core, "lower", 5); !strings.Contains(err.Error(), "lower wants a string") {
		t.Errorf("lower(5): %s", err)
	}
}

func TestFind(t *testing.T) {
	tcs := []struct {
		s, needle string
		want      int
	}{
		{"haystack", "stack", 3},
		{"héllo", "llo", 2}, // rune position, not byte offset
		{"abc", "zz", -1},
		{"abc", "", 0},
	}
	for i, tc := range tcs {
		got := call(t, Core, "find", tc.s, tc.needle)
		if got != tc.want {
			t.Errorf("case %d: find(%q, %q) = %v, want %d", i, tc.s, tc.needle, got, tc.want)
		}
	}
}

func TestMaterialize(t *testing.T) {
	starts := 0
	src := repeated.Lazy(func() repeated.Iterator {
		starts++
		return repeated.List{1, 2, 3}.Iterate()
	})
	out := call(t, Core, "materialize", src)
	if starts != 1 {
		t.Fatalf("materialize started the source %d times", starts)
	}
	for pass := 0; pass < 2; pass++ {
		if got := elems(t, out); !reflect.DeepEqual(got, []any{1, 2, 3}) {
			t.Fatalf("pass %d: %v", pass, got)
		}
	}
	if starts != 1 {
		t.Errorf("materialized value went back to the source: %d starts", starts)
	}
}

func TestSingleton(t *testing.T) {
	r, ok := resolve(t, Core, "singleton").(reducer.Reducer)
	if !ok {
		t.Fatal("singleton is not a reducer")
	}
	out, err := reducer.Reduce(r, []any{"a", "a", "a"}, 2)
	if err != nil {
		t.Fatalf("singleton over equal values: %s", err)
	}
	if out != "a" {
		t.Errorf("singleton = %v, want a", out)
	}
	_, err = reducer.Reduce(r, []any{"a", "b"}, 0)
	if err == nil || !strings.Contains(err.Error(), "singleton") {
		t.Errorf("singleton over unequal values: %v", err)
	}
	out, err = reducer.Reduce(r, []any{}, 0)
	if err != nil || out != nil {
		t.Errorf("singleton over nothing = %v, %v", out, err)
	}
}

func TestTypes(t *testing.T) {
	tcs := []struct {
		typ      protocol.Type
		in       any
		contains bool
		conv     any
	}{
		{Int, 7, true, int64(7)},
		{Int, int32(7), true, int64(7)},
		{Int, "12", false, int64(12)},
		{Int, 3.9, false, int64(3)},
		{Int, true, false, int64(1)},
		{Float, 2.5, true, 2.5},
		{Float, 7, false, 7.0},
		{Float, "2.5", false, 2.5},
		{Str, "x", true, "x"},
		{Str, []byte("b"), false, "b"},
		{Str, 9, false, "9"},
		{Bytes, []byte("y"), true, []byte("y")},
		{Bytes, "x", false, []byte("x")},
		{Bool, true, true, true},
		{Bool, 0, false, false},
		{Bool, "yes", false, true},
	}
	for i, tc := range tcs {
		if got := tc.typ.Contains(tc.in); got != tc.contains {
			t.Errorf("case %d: %s.Contains(%v) = %v", i, tc.typ.Name(), tc.in, got)
		}
		got, err := tc.typ.Convert(tc.in)
		if err != nil {
			t.Errorf("case %d: %s.Convert(%v): %s", i, tc.typ.Name(), tc.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.conv) {
			t.Errorf("case %d: %s.Convert(%v) = %#v, want %#v", i, tc.typ.Name(), tc.in, got, tc.conv)
		}
	}
}

func TestTypeErrors(t *testing.T) {
	if _, err := Int.Convert("zap"); err == nil || !strings.Contains(err.Error(), "cannot make an int") {
		t.Errorf("int(zap): %v", err)
	}
	if _, err := Float.Convert("zap"); err == nil || !strings.Contains(err.Error(), "cannot make a float") {
		t.Errorf("float(zap): %v", err)
	}
	if _, err := Str.Convert(nil); err == nil {
		t.Error("str(null) should fail")
	}
	if _, err := Bytes.Convert(7); err == nil {
		t.Error("bytes(7) should fail")
	}
}

func TestSolveWithCore(t *testing.T) {
	s := scope.New(Core, map[string]any{"xs": []int{3, 1, 2}})
	out, err := eval.Solve(expr.Call(expr.Ident("take"), expr.NewLiteral(2), expr.Ident("xs")), s)
	if err != nil {
		t.Fatalf("take(2, xs): %s", err)
	}
	if got := elems(t, out.Value); !reflect.DeepEqual(got, []any{3, 1}) {
		t.Errorf("take(2, xs) = %v", got)
	}
	res, err := eval.Solve(expr.Call(expr.Ident("count"), expr.Ident("xs")), s)
	if err != nil {
		t.Fatalf("count(xs): %s", err)
	}
	if res.Value != 3 {
		t.Errorf("count(xs) = %v", res.Value)
	}
}
