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

package repeated

import (
	"io"
	"reflect"
	"testing"

	"github.com/SnellerInc/winnow/protocol"
)

func elems(t *testing.T, x any) []any {
	t.Helper()
	vals, err := Values(x)
	if err != nil {
		t.Fatalf("Values(%v): %s", x, err)
	}
	return vals
}

func TestValues(t *testing.T) {
	tcs := []struct {
		in   any
		want []any
	}{
		{nil, nil},
		{7, []any{7}},
		{"foo", []any{"foo"}},
		{[]any{1, nil, 3}, []any{1, nil, 3}},
		{[]int{4, 5}, []any{4, 5}},
		{List{true, false}, []any{true, false}},
		{New(1, 2, 3), []any{1, 2, 3}},
	}
	for i, tc := range tcs {
		got := elems(t, tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("case %d: Values(%v) = %v, want %v", i, tc.in, got, tc.want)
		}
	}
}

func TestRestartable(t *testing.T) {
	starts := 0
	v := Lazy(func() Iterator {
		starts++
		return List{1, 2, 3}.Iterate()
	})
	first := elems(t, v)
	second := elems(t, v)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("restarted iteration differs: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(first, []any{1, 2, 3}) {
		t.Errorf("unexpected elements %v", first)
	}
	if starts != 2 {
		t.Errorf("producer invoked %d times, want 2", starts)
	}
}

type failIter struct{ n int }

func (it *failIter) Next() (any, error) {
	if it.n == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	it.n--
	return it.n, nil
}

func TestIterateError(t *testing.T) {
	v := Lazy(func() Iterator { return &failIter{n: 2} })
	if _, err := Values(v); err != io.ErrUnexpectedEOF {
		t.Errorf("Values: got err %v, want %v", err, io.ErrUnexpectedEOF)
	}
	if _, err := Meld(v); err != io.ErrUnexpectedEOF {
		t.Errorf("Meld: got err %v, want %v", err, io.ErrUnexpectedEOF)
	}
}

func TestMeld(t *testing.T) {
	tcs := []struct {
		in   []any
		want any
	}{
		{nil, nil},
		{[]any{nil}, nil},
		{[]any{nil, nil}, nil},
		{[]any{7}, 7},
		{[]any{7, nil}, 7},
		{[]any{nil, "x"}, "x"},
		{[]any{7, 7}, List{7, 7}},
		{[]any{1, 2, 3}, List{1, 2, 3}},
		{[]any{1, 2.5}, List{1, 2.5}},
		{[]any{List{1, nil, 2}, 3}, List{1, 2, 3}},
		{[]any{[]any{1, 2}, []any{3}}, List{1, 2, 3}},
	}
	for i, tc := range tcs {
		got, err := Meld(tc.in...)
		if err != nil {
			t.Errorf("case %d: Meld(%v): %s", i, tc.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("case %d: Meld(%v) = %v, want %v", i, tc.in, got, tc.want)
		}
	}
}

func TestMeldMixedTypes(t *testing.T) {
	if _, err := Meld(1, "x"); err == nil {
		t.Error("melding an int with a string should fail")
	}
	if _, err := Meld("x", nil, true); err == nil {
		t.Error("melding a string with a bool should fail")
	}
}

func TestIsRepeating(t *testing.T) {
	tcs := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{7, false},
		{"foo", false},
		{List{}, false},
		{List{1}, false},
		{List{1, 2}, true},
		{[]int{9}, false},
		{[]int{9, 9}, true},
		{Lazy(func() Iterator { return List{1, 2, 3}.Iterate() }), true},
		{Lazy(func() Iterator { return List{1}.Iterate() }), false},
	}
	for i, tc := range tcs {
		if got := IsRepeating(tc.in); got != tc.want {
			t.Errorf("case %d: IsRepeating(%v) = %v, want %v", i, tc.in, got, tc.want)
		}
	}
}

func TestApply(t *testing.T) {
	double := func(v any) (any, error) {
		return v.(int) * 2, nil
	}
	got, err := Apply(List{1, 2, 3}, double)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, List{2, 4, 6}) {
		t.Errorf("eager apply = %v", got)
	}
	got, err = Apply(21, double)
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("scalar apply = %v", got)
	}
}

func TestApplyLazy(t *testing.T) {
	starts := 0
	src := Lazy(func() Iterator {
		starts++
		return List{1, 2}.Iterate()
	})
	mapped, err := Apply(src, func(v any) (any, error) {
		return v.(int) + 10, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if starts != 0 {
		t.Fatalf("apply over a lazy value should not iterate, got %d starts", starts)
	}
	v := mapped.(Value)
	if got := elems(t, v); !reflect.DeepEqual(got, []any{11, 12}) {
		t.Errorf("mapped elements = %v", got)
	}
	if got := elems(t, v); !reflect.DeepEqual(got, []any{11, 12}) {
		t.Errorf("mapped elements after restart = %v", got)
	}
	if starts != 2 {
		t.Errorf("producer invoked %d times, want 2", starts)
	}
}

func TestValueEq(t *testing.T) {
	tcs := []struct {
		a, b any
		want bool
	}{
		{List{1, 2}, List{1, 2}, true},
		{List{1, 2}, []any{1, 2}, true},
		{List{1, 2}, List{2, 1}, false},
		{List{1, 2}, List{1, 2, 3}, false},
		{7, List{7}, true},
		{List{1.0}, List{1}, true},
		{nil, List{}, true},
	}
	for i, tc := range tcs {
		got, err := ValueEq(tc.a, tc.b)
		if err != nil {
			t.Errorf("case %d: %s", i, err)
			continue
		}
		if got != tc.want {
			t.Errorf("case %d: ValueEq(%v, %v) = %v, want %v", i, tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMaterialize(t *testing.T) {
	starts := 0
	src := Lazy(func() Iterator {
		starts++
		return List{1, 2}.Iterate()
	})
	m, err := Materialize(src)
	if err != nil {
		t.Fatal(err)
	}
	if starts != 1 {
		t.Fatalf("materialize should drain once, got %d starts", starts)
	}
	elems(t, m)
	elems(t, m)
	if starts != 1 {
		t.Errorf("iterating a materialized value re-ran the producer (%d starts)", starts)
	}
	if v, err := Materialize(42); err != nil || v != 42 {
		t.Errorf("Materialize(42) = %v, %v", v, err)
	}
}

func TestChain(t *testing.T) {
	c := Chain(List{1, 2}, List{}, List{3})
	want := []any{1, 2, 3}
	if got := elems(t, c); !reflect.DeepEqual(got, want) {
		t.Errorf("chained = %v, want %v", got, want)
	}
	if got := elems(t, c); !reflect.DeepEqual(got, want) {
		t.Errorf("chained after restart = %v, want %v", got, want)
	}
}

func TestElementType(t *testing.T) {
	typ, err := ElementType(List{nil, "a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if typ != reflect.TypeOf("") {
		t.Errorf("element type = %v, want string", typ)
	}
	typ, err = ElementType(List{})
	if err != nil {
		t.Fatal(err)
	}
	if typ != nil {
		t.Errorf("element type of empty = %v, want nil", typ)
	}
}

func TestDispatchIntegration(t *testing.T) {
	if ok, err := protocol.Truth(List{0, "", 3}); err != nil || !ok {
		t.Errorf("Truth(List{0, \"\", 3}) = %v, %v", ok, err)
	}
	if ok, err := protocol.Truth(List{0, ""}); err != nil || ok {
		t.Errorf("Truth(List{0, \"\"}) = %v, %v", ok, err)
	}
	if n, err := protocol.Count(List{1, 2, 3}); err != nil || n != 3 {
		t.Errorf("Count = %v, %v", n, err)
	}
	if ok, err := protocol.Equal(List{1, 2}, List{1, 2}); err != nil || !ok {
		t.Errorf("Equal = %v, %v", ok, err)
	}
	h1, err := protocol.Hashed(List{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	h2, err := protocol.Hashed([]any{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("hash of List and equal slice differ: %#x vs %#x", h1, h2)
	}
}
