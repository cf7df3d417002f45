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

func TestEquals(t *testing.T) {
	tests := []struct {
		in, out Node
	}{
		{NewLiteral(1), NewLiteral(1.0)},
		{NewLiteral(int64(5)), NewLiteral(5)},
		{NewLiteral("foo"), NewLiteral("foo")},
		{NewLiteral(nil), NewLiteral(nil)},
		{Ident("x"), Ident("x")},
		{&Complement{Inner: Ident("x")}, &Complement{Inner: Ident("x")}},
		{Union(Ident("x"), Ident("y")), Union(Ident("x"), Ident("y"))},
		{Equivalence(Ident("x"), NewLiteral(2)), Equivalence(Ident("x"), NewLiteral(2.0))},
		{Sum(NewLiteral(1), NewLiteral(2)), Sum(NewLiteral(1), NewLiteral(2))},
		{Map(Ident("xs"), Ident("x")), Map(Ident("xs"), Ident("x"))},
		{Any(Ident("xs"), nil), Any(Ident("xs"), nil)},
		{GroupBy(Ident("xs"), Ident("k"), Ident("r")), GroupBy(Ident("xs"), Ident("k"), Ident("r"))},
		{Call(Ident("f"), NewLiteral(1)), Call(Ident("f"), NewLiteral(1))},
		{NewBind(&Pair{Key: NewLiteral("a"), Value: NewLiteral(1)}),
			NewBind(&Pair{Key: NewLiteral("a"), Value: NewLiteral(1)})},
		{NewIfElse(Ident("c"), NewLiteral(1), NewLiteral(2)),
			NewIfElse(Ident("c"), NewLiteral(1), NewLiteral(2))},
	}

	for i := range tests {
		if !tests[i].in.Equals(tests[i].out) {
			t.Errorf("case %d: %s != %s", i, ToString(tests[i].in), ToString(tests[i].out))
		}
		// test symmetry
		if !tests[i].out.Equals(tests[i].in) {
			t.Errorf("case %d: %s != %s", i, ToString(tests[i].out), ToString(tests[i].in))
		}
		// test reflexivity
		if !tests[i].in.Equals(tests[i].in) {
			t.Errorf("case %d: %s not equal to itself", i, ToString(tests[i].in))
		}
	}
}

func TestNotEquals(t *testing.T) {
	tests := []struct {
		a, b Node
	}{
		{NewLiteral(1), NewLiteral(2)},
		{NewLiteral(1), NewLiteral("1")},
		{NewLiteral(nil), NewLiteral(false)},
		{Ident("x"), Ident("y")},
		{Ident("x"), NewLiteral("x")},
		{Union(Ident("x"), Ident("y")), Intersection(Ident("x"), Ident("y"))},
		{Sum(NewLiteral(1), NewLiteral(2)), Difference(NewLiteral(1), NewLiteral(2))},
		{StrictOrderedSet(Ident("x"), Ident("y")), PartialOrderedSet(Ident("x"), Ident("y"))},
		{Map(Ident("xs"), Ident("x")), Filter(Ident("xs"), Ident("x"))},
		{Any(Ident("xs"), Ident("x")), Any(Ident("xs"), nil)},
		{NewRepeat(NewLiteral(1), NewLiteral(2)), NewTuple(NewLiteral(1), NewLiteral(2))},
		{Union(Ident("x"), Ident("y")), Union(Ident("y"), Ident("x"))},
	}
	for i := range tests {
		if tests[i].a.Equals(tests[i].b) {
			t.Errorf("case %d: %s should not equal %s", i, ToString(tests[i].a), ToString(tests[i].b))
		}
	}
}

func TestSpanIgnoredByEquals(t *testing.T) {
	a := Sum(NewLiteral(1), Ident("x"))
	a.SetSpan(3, 10)
	a.Operands[0].SetSpan(3, 4)
	b := Sum(NewLiteral(1), Ident("x"))
	if !a.Equals(b) {
		t.Error("source spans should not affect structural equality")
	}
	from, to := a.Span()
	if from != 3 || to != 10 {
		t.Errorf("span = (%d, %d), want (3, 10)", from, to)
	}
}
