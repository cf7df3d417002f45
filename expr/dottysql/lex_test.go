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

package dottysql

import (
	"strings"
	"testing"
)

type lexed struct {
	kind tokenKind
	val  any
}

func assertTokens(t *testing.T, src string, want []lexed) {
	t.Helper()
	toks, err := lex(src)
	if err != nil {
		t.Fatalf("lex(%q): %v", src, err)
	}
	if len(toks) != len(want) {
		t.Fatalf("lex(%q): got %d tokens, want %d", src, len(toks), len(want))
	}
	for i := range toks {
		if toks[i].kind != want[i].kind || toks[i].val != want[i].val {
			t.Errorf("lex(%q): token %d is (%v, %v), want (%v, %v)",
				src, i, toks[i].kind, toks[i].val, want[i].kind, want[i].val)
		}
	}
}

func TestLexNumbers(t *testing.T) {
	assertTokens(t, "0xf 07 010", []lexed{
		{tokLiteral, int64(15)},
		{tokLiteral, int64(7)},
		{tokLiteral, int64(8)},
	})
	assertTokens(t, "234.7  15\n ", []lexed{
		{tokLiteral, float64(234.7)},
		{tokLiteral, int64(15)},
	})
	assertTokens(t, "  15 0x15 '0x15' ' 52.6'", []lexed{
		{tokLiteral, int64(15)},
		{tokLiteral, int64(21)},
		{tokLiteral, "0x15"},
		{tokLiteral, " 52.6"},
	})
	// a bare 0x is a zero and then the variable x
	assertTokens(t, "0x", []lexed{
		{tokLiteral, int64(0)},
		{tokSymbol, "x"},
	})
	// floats need digits on both sides of the dot
	assertTokens(t, "5.", []lexed{
		{tokLiteral, int64(5)},
		{tokSymbol, "."},
	})
}

func TestLexPrefix(t *testing.T) {
	assertTokens(t, "-5", []lexed{
		{tokSymbol, "-"},
		{tokLiteral, int64(5)},
	})
}

func TestLexOperators(t *testing.T) {
	assertTokens(t, "5 + 5 == 10 and 'foo' =~ 'bar'", []lexed{
		{tokLiteral, int64(5)},
		{tokSymbol, "+"},
		{tokLiteral, int64(5)},
		{tokSymbol, "=="},
		{tokLiteral, int64(10)},
		{tokSymbol, "and"},
		{tokLiteral, "foo"},
		{tokSymbol, "=~"},
		{tokLiteral, "bar"},
	})

	// glyph runs are greedy, so the minus clumps
	// onto the comparison
	assertTokens(t, "x ==-1", []lexed{
		{tokSymbol, "x"},
		{tokSymbol, "==-"},
		{tokLiteral, int64(1)},
	})
}

func TestLexStructure(t *testing.T) {
	assertTokens(t, "f(x, y[0])", []lexed{
		{tokSymbol, "f"},
		{tokLparen, "("},
		{tokSymbol, "x"},
		{tokComma, ","},
		{tokSymbol, "y"},
		{tokLbracket, "["},
		{tokLiteral, int64(0)},
		{tokRbracket, "]"},
		{tokRparen, ")"},
	})
}

func TestLexParams(t *testing.T) {
	// anonymous params take consecutive indices,
	// explicit ones do not advance the counter
	assertTokens(t, "? {} {5} {foo} ?", []lexed{
		{tokParam, 0},
		{tokParam, 1},
		{tokParam, 5},
		{tokParam, "foo"},
		{tokParam, 2},
	})
}

func TestLexStrings(t *testing.T) {
	assertTokens(t, `'it\'s' "q\"q"`, []lexed{
		{tokLiteral, "it's"},
		{tokLiteral, `q"q`},
	})
	assertTokens(t, `'a\tb\nc\rd\be'`, []lexed{
		{tokLiteral, "a\tb\nc\rd\be"},
	})
	// unknown escapes pass through untouched
	assertTokens(t, `'C:\windows\system32'`, []lexed{
		{tokLiteral, `C:\windows\system32`},
	})
	// either quote style can hold the other quote
	assertTokens(t, `'say "hi"'`, []lexed{
		{tokLiteral, `say "hi"`},
	})
}

func TestLexSpans(t *testing.T) {
	toks, err := lex("pid == 10")
	if err != nil {
		t.Fatal(err)
	}
	spans := [][2]int{{0, 3}, {4, 6}, {7, 9}}
	if len(toks) != len(spans) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(spans))
	}
	for i := range toks {
		if toks[i].start != spans[i][0] || toks[i].end != spans[i][1] {
			t.Errorf("token %d spans [%d, %d), want [%d, %d)",
				i, toks[i].start, toks[i].end, spans[i][0], spans[i][1])
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{"'unterminated", "Unterminated string literal."},
		{`"also unterminated`, "Unterminated string literal."},
		{"x # y", "Don't know how to match next. Did you forget quotes?"},
		{"{NAME}", "Don't know how to match next. Did you forget quotes?"},
		{"{unclosed", "Don't know how to match next. Did you forget quotes?"},
		{"08", `Invalid octal number "08".`},
		{"0xzz", `Invalid hex number "0xzz".`},
	}
	for i := range tests {
		_, err := lex(tests[i].src)
		if err == nil {
			t.Errorf("lex(%q): expected an error", tests[i].src)
			continue
		}
		pe, ok := err.(*ParseError)
		if !ok {
			t.Errorf("lex(%q): error is %T, want *ParseError", tests[i].src, err)
			continue
		}
		if pe.Msg != tests[i].msg {
			t.Errorf("lex(%q): message %q, want %q", tests[i].src, pe.Msg, tests[i].msg)
		}
		if !strings.Contains(pe.Error(), "in query") {
			t.Errorf("lex(%q): error %q does not quote the query", tests[i].src, pe.Error())
		}
	}
}

func TestAnnotate(t *testing.T) {
	_, err := lex("pid == $")
	if err == nil {
		t.Fatal("expected an error")
	}
	pe := err.(*ParseError)
	if got := pe.Annotate(); got != "pid ==  >>> $ <<< " {
		t.Errorf("Annotate() = %q", got)
	}
}
