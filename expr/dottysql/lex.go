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
	"strconv"
	"strings"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokLparen
	tokRparen
	tokLbracket
	tokRbracket
	tokComma
	tokParam
	tokLiteral
	tokSymbol
)

// String names the token kind the way error
// messages refer to it.
func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokLparen:
		return "lparen"
	case tokRparen:
		return "rparen"
	case tokLbracket:
		return "lbracket"
	case tokRbracket:
		return "rbracket"
	case tokComma:
		return "comma"
	case tokParam:
		return "param"
	case tokLiteral:
		return "literal"
	case tokSymbol:
		return "symbol"
	}
	return "unknown"
}

// token is one lexed item. val holds the decoded
// literal value for tokLiteral, the text for
// tokSymbol, and the index (int) or name (string)
// for tokParam.
type token struct {
	kind       tokenKind
	val        any
	start, end int
}

// sym returns the symbol text, or "" when the
// token is not a symbol.
func (t token) sym() string {
	if t.kind != tokSymbol {
		return ""
	}
	return t.val.(string)
}

// isWord reports whether the token is the keyword
// s, compared case-insensitively.
func (t token) isWord(s string) bool {
	return t.kind == tokSymbol && strings.EqualFold(t.val.(string), s)
}

type lexer struct {
	src string
	pos int
	// count of anonymous '?' and '{}' params seen
	// so far; each takes the next free index
	nparams int
}

func isspace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isdigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isalpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isword(c byte) bool {
	return isalpha(c) || isdigit(c) || c == '_'
}

// isglyph matches the characters that clump into
// operator symbols like '==' or '=~'. The run is
// greedy, so 'x ==-1' lexes the symbol '==-' and
// fails to parse; write 'x == -1' instead.
func isglyph(c byte) bool {
	switch c {
	case '-', '+', '*', '/', '=', '~', '.', '>', '<', '[', ']', '!', ':':
		return true
	}
	return false
}

// lex tokenizes the whole query up front.
func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tokEOF {
			return toks, nil
		}
		toks = append(toks, t)
	}
}

func (l *lexer) errorAt(start, end int, msg string) error {
	return &ParseError{Query: l.src, Start: start, End: end, Msg: msg}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && isspace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == len(l.src) {
		return token{kind: tokEOF, start: l.pos, end: l.pos}, nil
	}
	start := l.pos
	c := l.src[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLparen, val: "(", start: start, end: l.pos}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRparen, val: ")", start: start, end: l.pos}, nil
	case c == '[':
		l.pos++
		return token{kind: tokLbracket, val: "[", start: start, end: l.pos}, nil
	case c == ']':
		l.pos++
		return token{kind: tokRbracket, val: "]", start: start, end: l.pos}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, val: ",", start: start, end: l.pos}, nil
	case c == '?':
		l.pos++
		idx := l.nparams
		l.nparams++
		return token{kind: tokParam, val: idx, start: start, end: l.pos}, nil
	case c == '{':
		return l.param()
	case isdigit(c):
		return l.number()
	case c == '"' || c == '\'':
		return l.quoted()
	case isalpha(c) || c == '_':
		for l.pos < len(l.src) && isword(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokSymbol, val: l.src[start:l.pos], start: start, end: l.pos}, nil
	case isglyph(c):
		for l.pos < len(l.src) && isglyph(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokSymbol, val: l.src[start:l.pos], start: start, end: l.pos}, nil
	}
	return token{}, l.errorAt(start, start+1,
		"Don't know how to match next. Did you forget quotes?")
}

// param lexes '{}', '{3}' or '{name}'. The name
// may only use lower-case letters, digits and
// underscores.
func (l *lexer) param() (token, error) {
	start := l.pos
	i := l.pos + 1
	for i < len(l.src) {
		c := l.src[i]
		if (c >= 'a' && c <= 'z') || isdigit(c) || c == '_' {
			i++
			continue
		}
		break
	}
	if i == len(l.src) || l.src[i] != '}' {
		return token{}, l.errorAt(start, start+1,
			"Don't know how to match next. Did you forget quotes?")
	}
	name := l.src[start+1 : i]
	l.pos = i + 1
	if name == "" {
		idx := l.nparams
		l.nparams++
		return token{kind: tokParam, val: idx, start: start, end: l.pos}, nil
	}
	if idx, err := strconv.Atoi(name); err == nil {
		return token{kind: tokParam, val: idx, start: start, end: l.pos}, nil
	}
	return token{kind: tokParam, val: name, start: start, end: l.pos}, nil
}

// number lexes int, float, octal (leading zero)
// and hex (0x) literals. Ints become int64 and
// floats float64.
func (l *lexer) number() (token, error) {
	start := l.pos
	i := l.pos
	for i < len(l.src) && isdigit(l.src[i]) {
		i++
	}
	// float: digits '.' digits
	if i+1 < len(l.src) && l.src[i] == '.' && isdigit(l.src[i+1]) {
		i++
		for i < len(l.src) && isdigit(l.src[i]) {
			i++
		}
		text := l.src[start:i]
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, l.errorAt(start, i, "Invalid number "+strconv.Quote(text)+".")
		}
		l.pos = i
		return token{kind: tokLiteral, val: f, start: start, end: l.pos}, nil
	}
	// octal: '0' followed by more digits
	if l.src[start] == '0' && i-start >= 2 {
		text := l.src[start:i]
		v, err := strconv.ParseInt(text, 8, 64)
		if err != nil {
			return token{}, l.errorAt(start, i, "Invalid octal number "+strconv.Quote(text)+".")
		}
		l.pos = i
		return token{kind: tokLiteral, val: v, start: start, end: l.pos}, nil
	}
	// hex: '0x' followed by alphanumerics
	if l.src[start] == '0' && i == start+1 && i < len(l.src) && l.src[i] == 'x' {
		j := i + 1
		for j < len(l.src) && (isdigit(l.src[j]) || isalpha(l.src[j])) {
			j++
		}
		if j > i+1 {
			text := l.src[start:j]
			v, err := strconv.ParseInt(l.src[start+2:j], 16, 64)
			if err != nil {
				return token{}, l.errorAt(start, j, "Invalid hex number "+strconv.Quote(text)+".")
			}
			l.pos = j
			return token{kind: tokLiteral, val: v, start: start, end: l.pos}, nil
		}
	}
	text := l.src[start:i]
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token{}, l.errorAt(start, i, "Invalid number "+strconv.Quote(text)+".")
	}
	l.pos = i
	return token{kind: tokLiteral, val: v, start: start, end: l.pos}, nil
}

// quoted lexes a single- or double-quoted string.
// \' \" \r \n \b \t decode to the usual characters;
// any other backslash pair is kept verbatim.
func (l *lexer) quoted() (token, error) {
	start := l.pos
	quote := l.src[l.pos]
	i := l.pos + 1
	var sb strings.Builder
	for i < len(l.src) {
		c := l.src[i]
		if c == quote {
			l.pos = i + 1
			return token{kind: tokLiteral, val: sb.String(), start: start, end: l.pos}, nil
		}
		if c == '\\' && i+1 < len(l.src) {
			esc := l.src[i+1]
			switch esc {
			case '\'', '"':
				sb.WriteByte(esc)
			case 'r':
				sb.WriteByte('\r')
			case 'n':
				sb.WriteByte('\n')
			case 'b':
				sb.WriteByte('\b')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			i += 2
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return token{}, l.errorAt(start, start+1, "Unterminated string literal.")
}
