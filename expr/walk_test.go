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

import "testing"

type countwalk struct {
	vars, lits int
}

func (c *countwalk) Visit(n Node) Visitor {
	switch n.(type) {
	case *Var:
		c.vars++
	case *Literal:
		c.lits++
	}
	return c
}

func TestWalk(t *testing.T) {
	e := Filter(
		Map(Ident("hosts"), Ident("procs")),
		Equivalence(Ident("name"), NewLiteral("init"), NewLiteral("launchd")),
	)
	c := &countwalk{}
	Walk(c, e)
	if c.vars != 3 {
		t.Errorf("visited %d vars, want 3", c.vars)
	}
	if c.lits != 2 {
		t.Errorf("visited %d literals, want 2", c.lits)
	}
}

type renamer struct {
	from, to string
}

func (r *renamer) Walk(n Node) Rewriter { return r }

func (r *renamer) Rewrite(n Node) Node {
	if v, ok := n.(*Var); ok && v.Name == r.from {
		return Ident(r.to)
	}
	return n
}

func TestRewrite(t *testing.T) {
	e := Union(
		Equivalence(Ident("pid"), NewLiteral(1)),
		&Complement{Inner: Ident("pid")},
	)
	got := Rewrite(&renamer{from: "pid", to: "proc_id"}, e)
	want := Union(
		Equivalence(Ident("proc_id"), NewLiteral(1)),
		&Complement{Inner: Ident("proc_id")},
	)
	if !got.Equals(want) {
		t.Errorf("rewrite produced %s, want %s", ToString(got), ToString(want))
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		in   Node
		want string
	}{
		{NewLiteral("foo"), `"foo"`},
		{NewLiteral(nil), "null"},
		{NewLiteral(3.5), "3.5"},
		{Ident("proc"), "proc"},
		{Sum(NewLiteral(1), NewLiteral(2)), "1 + 2"},
		{Union(Ident("a"), Equivalence(Ident("b"), NewLiteral(2))), "a or (b == 2)"},
		{Map(Ident("xs"), Ident("x")), "map(xs, x)"},
		{Any(Ident("xs"), nil), "any(xs)"},
		{&Resolve{Inner: Ident("proc"), Member: NewLiteral("name")}, "proc.name"},
		{&Select{Inner: Ident("xs"), Key: NewLiteral(2)}, "xs[2]"},
		{Call(Ident("count"), Ident("xs")), "count(xs)"},
		{NewTuple(NewLiteral(1), NewLiteral("a")), `[1, "a"]`},
		{NewIfElse(Ident("c"), NewLiteral(1), NewLiteral(2)), "if c then 1 else 2"},
		{&Complement{Inner: Ident("ok")}, "not ok"},
	}
	for i := range tests {
		if got := ToString(tests[i].in); got != tests[i].want {
			t.Errorf("case %d: got %q, want %q", i, got, tests[i].want)
		}
	}
}

func TestToRedacted(t *testing.T) {
	e := Equivalence(Ident("user"), NewLiteral("root"))
	if got := ToRedacted(e); got != "user == ?" {
		t.Errorf("redacted form = %q", got)
	}
}

func TestCopy(t *testing.T) {
	orig := Filter(Ident("xs"), StrictOrderedSet(Ident("x"), NewLiteral(10)))
	cp := Copy(orig).(*Within)
	if !cp.Equals(orig) {
		t.Fatal("copy should equal the original")
	}
	cp.Context = Ident("ys")
	cp.Expr.(*Comparison).Operands[1] = NewLiteral(99)
	if ToString(orig) != "filter(xs, x > 10)" {
		t.Errorf("mutating the copy changed the original: %s", ToString(orig))
	}
}
