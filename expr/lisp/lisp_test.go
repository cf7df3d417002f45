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

package lisp

import (
	"reflect"
	"strings"
	"testing"

	"github.com/SnellerInc/winnow/expr"
)

func parseMatch(t *testing.T, form any, want expr.Node) {
	t.Helper()
	got, err := Parse(form)
	if err != nil {
		t.Fatalf("parse(%v): %v", form, err)
	}
	if !expr.Equal(got, want) {
		t.Fatalf("parse(%v) = %s, wanted %s",
			form, expr.ToString(got), expr.ToString(want))
	}
}

func parseErr(t *testing.T, form any, msg string) {
	t.Helper()
	got, err := Parse(form)
	if err == nil {
		t.Fatalf("parse(%v) = %s, expected an error", form, expr.ToString(got))
	}
	if !strings.Contains(err.Error(), msg) {
		t.Fatalf("parse(%v): error %q does not mention %q", form, err, msg)
	}
}

func TestParseBasic(t *testing.T) {
	parseMatch(t,
		[]any{"==", []any{"var", "foo"}, "bar"},
		expr.Equivalence(expr.Ident("foo"), expr.NewLiteral("bar")))
}

func TestParseAtoms(t *testing.T) {
	parseMatch(t, 5, expr.NewLiteral(5))
	parseMatch(t, "foo", expr.NewLiteral("foo"))
	parseMatch(t, true, expr.NewLiteral(true))
	parseMatch(t, nil, expr.NewLiteral(nil))
	parseMatch(t, 3.5, expr.NewLiteral(3.5))
	parseMatch(t, []any{"var", "x"}, expr.Ident("x"))
	parseMatch(t, []any{"literal", []any{"var", "x"}},
		expr.NewLiteral([]any{"var", "x"}))
}

func TestParseForms(t *testing.T) {
	x := func() *expr.Var { return expr.Ident("x") }
	y := func() *expr.Var { return expr.Ident("y") }
	tests := []struct {
		form any
		want expr.Node
	}{
		{[]any{"!", []any{"var", "x"}}, &expr.Complement{Inner: x()}},
		{[]any{"select", []any{"var", "x"}, 0}, &expr.Select{Inner: x(), Key: expr.NewLiteral(0)}},
		{[]any{".", []any{"var", "x"}, "pid"}, &expr.Resolve{Inner: x(), Member: expr.NewLiteral("pid")}},
		{[]any{"cast", []any{"var", "x"}, "str"}, &expr.Cast{Inner: x(), Type: expr.NewLiteral("str")}},
		{[]any{"isa", []any{"var", "x"}, "int"}, &expr.IsInstance{Inner: x(), Type: expr.NewLiteral("int")}},
		{[]any{"in", []any{"var", "x"}, []any{"var", "y"}}, &expr.Membership{Element: x(), Set: y()}},
		{[]any{"=~", []any{"var", "x"}, "^a"}, &expr.RegexFilter{Inner: x(), Pattern: expr.NewLiteral("^a")}},
		{[]any{":", "k", 1}, &expr.Pair{Key: expr.NewLiteral("k"), Value: expr.NewLiteral(1)}},
		{[]any{"pair", "k", 1}, &expr.Pair{Key: expr.NewLiteral("k"), Value: expr.NewLiteral(1)}},
		{[]any{"map", []any{"var", "x"}, []any{"var", "y"}}, expr.Map(x(), y())},
		{[]any{"let", []any{"var", "x"}, []any{"var", "y"}}, expr.Let(x(), y())},
		{[]any{"filter", []any{"var", "x"}, []any{"var", "y"}}, expr.Filter(x(), y())},
		{[]any{"sort", []any{"var", "x"}, []any{"var", "y"}}, expr.Sort(x(), y())},
		{[]any{"each", []any{"var", "x"}, []any{"var", "y"}}, expr.Each(x(), y())},
		{[]any{"any", []any{"var", "x"}}, expr.Any(x(), nil)},
		{[]any{"any", []any{"var", "x"}, []any{"var", "y"}}, expr.Any(x(), y())},
		{[]any{"reducer", []any{"var", "x"}, []any{"var", "y"}}, &expr.Reducer{Fn: x(), Mapper: y()}},
		{
			[]any{"group", []any{"var", "x"}, []any{"var", "y"},
				[]any{"reducer", []any{"var", "x"}, []any{"var", "y"}}},
			expr.GroupBy(x(), y(), &expr.Reducer{Fn: x(), Mapper: y()}),
		},
		{[]any{"|", 1, 2, 3}, expr.Union(expr.NewLiteral(1), expr.NewLiteral(2), expr.NewLiteral(3))},
		{[]any{"&", 1, 2}, expr.Intersection(expr.NewLiteral(1), expr.NewLiteral(2))},
		{[]any{">", 3, 2, 1}, expr.StrictOrderedSet(expr.NewLiteral(3), expr.NewLiteral(2), expr.NewLiteral(1))},
		{[]any{">=", 2, 2}, expr.PartialOrderedSet(expr.NewLiteral(2), expr.NewLiteral(2))},
		{[]any{"+", 1, 2, 3}, expr.Sum(expr.NewLiteral(1), expr.NewLiteral(2), expr.NewLiteral(3))},
		{[]any{"-", 1, 2}, expr.Difference(expr.NewLiteral(1), expr.NewLiteral(2))},
		{[]any{"*", 2, 3}, expr.Product(expr.NewLiteral(2), expr.NewLiteral(3))},
		{[]any{"/", 6, 3}, expr.Quotient(expr.NewLiteral(6), expr.NewLiteral(3))},
		{[]any{"apply", []any{"var", "f"}}, expr.Call(expr.Ident("f"))},
		{[]any{"apply", []any{"var", "f"}, 1, 2}, expr.Call(expr.Ident("f"), expr.NewLiteral(1), expr.NewLiteral(2))},
		{[]any{"repeat", 1, 2}, expr.NewRepeat(expr.NewLiteral(1), expr.NewLiteral(2))},
		{[]any{"tuple", 1, 2}, expr.NewTuple(expr.NewLiteral(1), expr.NewLiteral(2))},
		{
			[]any{"bind", []any{":", "a", 1}, []any{":", "b", 2}},
			expr.NewBind(
				&expr.Pair{Key: expr.NewLiteral("a"), Value: expr.NewLiteral(1)},
				&expr.Pair{Key: expr.NewLiteral("b"), Value: expr.NewLiteral(2)}),
		},
		{
			[]any{"if", true, 1, 2},
			expr.NewIfElse(expr.NewLiteral(true), expr.NewLiteral(1), expr.NewLiteral(2)),
		},
	}
	for _, tc := range tests {
		parseMatch(t, tc.form, tc.want)
	}
}

func TestParseQuery(t *testing.T) {
	// SELECT proc.pid, proc.parent.pid FROM pslist()
	// WHERE proc.command == 'init'
	proc := func() expr.Node { return expr.Ident("proc") }
	form := []any{"map",
		[]any{"filter",
			[]any{"apply", []any{"var", "pslist"}},
			[]any{"==", []any{".", []any{"var", "proc"}, "command"}, "init"}},
		[]any{"bind",
			[]any{"pair", "pid", []any{".", []any{"var", "proc"}, "pid"}},
			[]any{"pair", 1,
				[]any{".", []any{".", []any{"var", "proc"}, "parent"}, "pid"}}}}

	want := expr.Map(
		expr.Filter(
			expr.Call(expr.Ident("pslist")),
			expr.Equivalence(
				&expr.Resolve{Inner: proc(), Member: expr.NewLiteral("command")},
				expr.NewLiteral("init"))),
		expr.NewBind(
			&expr.Pair{
				Key:   expr.NewLiteral("pid"),
				Value: &expr.Resolve{Inner: proc(), Member: expr.NewLiteral("pid")},
			},
			&expr.Pair{
				Key: expr.NewLiteral(1),
				Value: &expr.Resolve{
					Inner:  &expr.Resolve{Inner: proc(), Member: expr.NewLiteral("parent")},
					Member: expr.NewLiteral("pid"),
				},
			}))
	parseMatch(t, form, want)
}

func TestParseParams(t *testing.T) {
	form := []any{"==", []any{"var", "pid"}, []any{"param", 0}}
	got, err := ParseWith(form, []any{10}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := expr.Equivalence(expr.Ident("pid"), expr.NewLiteral(10))
	if !expr.Equal(got, want) {
		t.Fatalf("got %s, wanted %s", expr.ToString(got), expr.ToString(want))
	}

	form = []any{"==", []any{"var", "name"}, []any{"param", "who"}}
	got, err = ParseWith(form, nil, map[string]any{"who": "init"})
	if err != nil {
		t.Fatal(err)
	}
	want = expr.Equivalence(expr.Ident("name"), expr.NewLiteral("init"))
	if !expr.Equal(got, want) {
		t.Fatalf("got %s, wanted %s", expr.ToString(got), expr.ToString(want))
	}

	_, err = ParseWith([]any{"param", 1}, []any{10}, nil)
	if err == nil || !strings.Contains(err.Error(), "param 1 unavailable") {
		t.Fatalf("unexpected error %v", err)
	}
	_, err = ParseWith([]any{"param", "nope"}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), `param "nope" unavailable`) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	parseErr(t, []any{}, "empty form")
	parseErr(t, []any{5, 6}, "operation name")
	parseErr(t, []any{"frob", 1}, `unknown form "frob"`)
	parseErr(t, []any{"var"}, "var expects 1 argument, but was passed 0")
	parseErr(t, []any{"var", 5}, "string name")
	parseErr(t, []any{"!", 1, 2}, "! expects 1 argument, but was passed 2")
	parseErr(t, []any{"map", []any{"var", "x"}}, "map expects 2 arguments, but was passed 1")
	parseErr(t, []any{"any"}, "any expects 1 or 2 arguments, but was passed 0")
	parseErr(t, []any{"any", 1, 2, 3}, "any expects 1 or 2 arguments, but was passed 3")
	parseErr(t, []any{"group", []any{"var", "x"}, []any{"var", "y"}},
		"group expects at least 3 arguments, but was passed 2")
	parseErr(t, []any{"apply"}, "apply expects at least 1 argument, but was passed 0")
	parseErr(t, []any{"bind", 5}, "bind expects pair forms")
	parseErr(t, []any{"in", []any{"frob"}, 2}, `unknown form "frob"`)
	parseErr(t, []any{"param", true}, "integer or string key")
}

func TestFormatRoundTrip(t *testing.T) {
	tests := []struct {
		in  any
		out any // nil means same as in
	}{
		{in: []any{"==", []any{"var", "foo"}, "bar"}},
		{in: []any{"!", []any{"var", "x"}}},
		{
			in:  []any{":", "k", 1},
			out: []any{"pair", "k", 1},
		},
		{in: []any{"pair", "k", 1}},
		{in: []any{".", []any{"var", "proc"}, "pid"}},
		{in: []any{"isa", []any{"var", "x"}, "int"}},
		{in: []any{"cast", []any{"var", "x"}, "str"}},
		{in: []any{"in", "a", []any{"tuple", "a", "b"}}},
		{in: []any{"=~", []any{"var", "x"}, "^a"}},
		{in: []any{"|", 1, 2, 3}},
		{in: []any{"&", true, false}},
		{in: []any{">", 3, 2, 1}},
		{in: []any{">=", 2, 2}},
		{in: []any{"+", 1, 2, 3}},
		{in: []any{"-", 1, 2}},
		{in: []any{"*", 2, 3}},
		{in: []any{"/", 6, 3}},
		{in: []any{"map", []any{"var", "xs"}, []any{"var", "x"}}},
		{in: []any{"let", []any{"bind", []any{"pair", "x", 5}}, []any{"var", "x"}}},
		{in: []any{"filter", []any{"apply", []any{"var", "pslist"}}, []any{"var", "x"}}},
		{in: []any{"sort", []any{"var", "xs"}, []any{"var", "x"}}},
		{in: []any{"each", []any{"var", "xs"}, []any{"var", "x"}}},
		{in: []any{"any", []any{"var", "xs"}}},
		{in: []any{"any", []any{"var", "xs"}, []any{"var", "x"}}},
		{in: []any{"reducer", []any{"var", "count"}, []any{"var", "x"}}},
		{
			in: []any{"group", []any{"var", "xs"}, []any{"var", "k"},
				[]any{"reducer", []any{"var", "count"}, []any{"var", "x"}}},
		},
		{in: []any{"apply", []any{"var", "f"}, 1, 2}},
		{in: []any{"repeat", 1, 2, 3}},
		{in: []any{"tuple", 1, []any{"var", "x"}}},
		{in: []any{"if", true, 1, 2}},
		{in: []any{"select", []any{"var", "x"}, 0}},
		{in: []any{"literal", []any{"some", "vector"}}},
		{
			in: []any{"map",
				[]any{"filter",
					[]any{"apply", []any{"var", "pslist"}},
					[]any{"==", []any{".", []any{"var", "proc"}, "command"}, "init"}},
				[]any{"bind",
					[]any{"pair", "pid", []any{".", []any{"var", "proc"}, "pid"}},
					[]any{"pair", 1,
						[]any{".", []any{".", []any{"var", "proc"}, "parent"}, "pid"}}}},
		},
	}
	for _, tc := range tests {
		node, err := Parse(tc.in)
		if err != nil {
			t.Errorf("parse(%v): %v", tc.in, err)
			continue
		}
		want := tc.out
		if want == nil {
			want = tc.in
		}
		got := Format(node)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("format(parse(%v)) = %v, wanted %v", tc.in, got, want)
			continue
		}
		again, err := Parse(got)
		if err != nil {
			t.Errorf("reparse(%v): %v", got, err)
			continue
		}
		if !expr.Equal(again, node) {
			t.Errorf("reparse(%v) = %s, wanted %s",
				got, expr.ToString(again), expr.ToString(node))
		}
	}
}

func TestFormatValues(t *testing.T) {
	if got := Format(expr.NewLiteral("foo")); got != "foo" {
		t.Errorf("literal formatted as %v", got)
	}
	if got := Format(expr.NewLiteral(nil)); got != nil {
		t.Errorf("null literal formatted as %v", got)
	}
	got := Format(expr.Ident("x"))
	if !reflect.DeepEqual(got, []any{"var", "x"}) {
		t.Errorf("var formatted as %v", got)
	}
	got = Format(expr.NewLiteral([]any{1, 2}))
	if !reflect.DeepEqual(got, []any{"literal", []any{1, 2}}) {
		t.Errorf("vector literal formatted as %v", got)
	}
}
