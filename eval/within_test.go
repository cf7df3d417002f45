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

package eval

import (
	"reflect"
	"testing"

	"github.com/SnellerInc/winnow/expr"
	"github.com/SnellerInc/winnow/repeated"
	"github.com/SnellerInc/winnow/scope"
)

func TestSolveLet(t *testing.T) {
	s := testScope()
	// a structured value becomes the body's scope
	if got := run(t, expr.Let(expr.Ident("tags"), expr.Ident("env")), s); got != "prod" {
		t.Errorf("let(tags, env) = %v, want prod", got)
	}
	// a scalar is reachable through its binding name
	got := run(t, expr.Let(expr.Ident("age"), expr.Sum(expr.Ident("age"), lit(1))), s)
	if !reflect.DeepEqual(got, repeated.List{int64(31)}) {
		t.Errorf("let(age, age+1) = %#v, want [31]", got)
	}
	// the enclosing scope stays visible underneath
	if got := run(t, expr.Let(expr.Ident("tags"), expr.Ident("name")), s); got != "alice" {
		t.Errorf("let(tags, name) = %v, want alice", got)
	}
}

func TestSolveMap(t *testing.T) {
	s := testScope()
	v := run(t, expr.Map(expr.Ident("procs"), expr.Ident("name")), s)
	if _, ok := v.(repeated.Value); !ok {
		t.Fatalf("map over a multiplicity returned %T, want a repeated value", v)
	}
	want := []any{"init", "sshd", "bash"}
	if got := materialize(t, v); !reflect.DeepEqual(got, want) {
		t.Errorf("map(procs, name) = %v, want %v", got, want)
	}
	// materializing again replays the same sequence
	if got := materialize(t, v); !reflect.DeepEqual(got, want) {
		t.Errorf("second materialization = %v, want %v", got, want)
	}

	// scalar elements resolve through the context's name
	v = run(t, expr.Map(expr.Ident("xs"), expr.Equivalence(expr.Ident("xs"), lit(2))), s)
	if got := materialize(t, v); !reflect.DeepEqual(got, []any{false, true, false}) {
		t.Errorf("map(xs, xs == 2) = %v", got)
	}
}

func TestSolveMapLazy(t *testing.T) {
	calls := 0
	src := repeated.Lazy(func() repeated.Iterator {
		calls++
		return repeated.New(
			map[string]any{"name": "a"},
			map[string]any{"name": "b"},
		).Iterate()
	})
	s := scope.New(map[string]any{"rows": src})
	v := run(t, expr.Map(expr.Ident("rows"), expr.Ident("name")), s)
	after := calls
	first := materialize(t, v)
	if calls <= after {
		t.Fatal("materializing did not pull from the source")
	}
	second := materialize(t, v)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("replays differ: %v then %v", first, second)
	}
	if !reflect.DeepEqual(first, []any{"a", "b"}) {
		t.Errorf("mapped = %v, want [a b]", first)
	}
}

func TestSolveMapNull(t *testing.T) {
	s := testScope()
	// mapping over null runs the body once against a null scope
	if got := run(t, expr.Map(expr.Ident("gone"), lit(1)), s); got != 1 {
		t.Errorf("map(gone, 1) = %v, want 1", got)
	}
	_, err := Solve(expr.Map(expr.Ident("gone"), expr.Ident("name")), s)
	if kindOf(err) != "null" {
		t.Errorf("map(gone, name): %v, want a null error", err)
	}
}

func TestSolveMapUnusable(t *testing.T) {
	s := testScope()
	// a scalar context with no binding name cannot host a body
	if _, err := Solve(expr.Map(lit(5), lit(1)), s); kindOf(err) != "type" {
		t.Errorf("map(5, 1): %v, want a type error", err)
	}
	// same shape, but the error surfaces once elements materialize
	v := run(t, expr.Map(lit([]any{1, 2}), lit(0)), s)
	if _, err := repeated.Values(v); kindOf(err) != "type" {
		t.Errorf("materialize: %v, want a type error", err)
	}
}

func TestSolveFilter(t *testing.T) {
	s := testScope()
	pred := &expr.Complement{Inner: expr.Equivalence(expr.Ident("xs"), lit(2))}
	v := run(t, expr.Filter(expr.Ident("xs"), pred), s)
	if _, ok := v.(repeated.Value); !ok {
		t.Fatalf("filter returned %T, want a repeated value", v)
	}
	// survivors keep their relative order
	if got := materialize(t, v); !reflect.DeepEqual(got, []any{1, 3}) {
		t.Errorf("filter(xs, not xs == 2) = %v, want [1 3]", got)
	}
	if got := materialize(t, v); !reflect.DeepEqual(got, []any{1, 3}) {
		t.Errorf("second materialization = %v", got)
	}

	// a multi-valued predicate is truthy if any element is
	v = run(t, expr.Filter(expr.Ident("xs"), expr.NewRepeat(lit(false), lit(true))), s)
	if got := materialize(t, v); !reflect.DeepEqual(got, []any{1, 2, 3}) {
		t.Errorf("always-any filter = %v", got)
	}
	v = run(t, expr.Filter(expr.Ident("xs"), lit(false)), s)
	if got := materialize(t, v); len(got) != 0 {
		t.Errorf("never filter = %v, want empty", got)
	}
}

func TestSolveSort(t *testing.T) {
	s := testScope()
	sorted := dot(expr.Sort(expr.Ident("procs"), expr.Ident("name")), "name")
	got := materialize(t, run(t, sorted, s))
	if !reflect.DeepEqual(got, []any{"bash", "init", "sshd"}) {
		t.Errorf("sort(procs, name) = %v", got)
	}

	byPid := dot(expr.Sort(expr.Ident("procs"), expr.Ident("pid")), "pid")
	got = materialize(t, run(t, byPid, s))
	if !reflect.DeepEqual(got, []any{1, 22, 100}) {
		t.Errorf("sort(procs, pid) = %v", got)
	}
}

func TestSolveSortStable(t *testing.T) {
	s := scope.New(map[string]any{
		"dups": []any{
			map[string]any{"k": "b", "i": 0},
			map[string]any{"k": "a", "i": 1},
			map[string]any{"k": "b", "i": 2},
			map[string]any{"k": "a", "i": 3},
		},
	})
	n := dot(expr.Sort(expr.Ident("dups"), expr.Ident("k")), "i")
	got := materialize(t, run(t, n, s))
	// ties keep input order
	if !reflect.DeepEqual(got, []any{1, 3, 0, 2}) {
		t.Errorf("stable sort order = %v, want [1 3 0 2]", got)
	}
}

func TestSolveAny(t *testing.T) {
	s := testScope()
	tests := []struct {
		node expr.Node
		want bool
	}{
		// with no condition, any asks for at least one element
		{expr.Any(expr.Ident("xs"), nil), true},
		{expr.Any(expr.Ident("empty"), nil), false},
		{expr.Any(expr.Ident("gone"), nil), false},
		{expr.Any(expr.Ident("age"), nil), true},

		{expr.Any(expr.Ident("procs"), expr.Equivalence(expr.Ident("name"), lit("sshd"))), true},
		{expr.Any(expr.Ident("procs"), expr.Equivalence(expr.Ident("name"), lit("zzz"))), false},
		{expr.Any(expr.Ident("empty"), lit(true)), false},
	}
	for i := range tests {
		if got := run(t, tests[i].node, s); got != tests[i].want {
			t.Errorf("case %d: Solve(%s) = %v, want %v",
				i, expr.ToString(tests[i].node), got, tests[i].want)
		}
	}
}

func TestSolveAnyBranch(t *testing.T) {
	s := testScope()
	miss := expr.Equivalence(expr.Ident("name"), lit("zzz"))
	hit := expr.Equivalence(expr.Ident("name"), lit("sshd"))
	res, err := Solve(expr.Any(expr.Ident("procs"), expr.Union(miss, hit)), s)
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != true {
		t.Fatalf("value = %v, want true", res.Value)
	}
	// the or-branch that matched inside the body is carried out
	if res.Branch != hit {
		t.Errorf("branch = %s, want the matching child", expr.ToString(res.Branch))
	}
}

func TestSolveEach(t *testing.T) {
	s := testScope()
	tests := []struct {
		node expr.Node
		want bool
	}{
		// an empty context is vacuously true
		{expr.Each(expr.Ident("empty"), lit(false)), true},
		{expr.Each(expr.Ident("gone"), lit(false)), true},
		{expr.Each(expr.Ident("xs"), expr.StrictOrderedSet(expr.Ident("xs"), lit(0))), true},
		{expr.Each(expr.Ident("procs"), expr.StrictOrderedSet(expr.Ident("pid"), lit(1))), false},
		{expr.Each(expr.Ident("procs"), expr.PartialOrderedSet(expr.Ident("pid"), lit(1))), true},
	}
	for i := range tests {
		if got := run(t, tests[i].node, s); got != tests[i].want {
			t.Errorf("case %d: Solve(%s) = %v, want %v",
				i, expr.ToString(tests[i].node), got, tests[i].want)
		}
	}
}
