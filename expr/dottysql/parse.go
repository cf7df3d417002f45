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

// Package dottysql parses the dotted, SQL-flavored query
// syntax into expr trees and formats trees back to source.
//
// A rough sketch of the grammar, leaving out the fact that
// binary operators are really parsed by precedence climbing:
//
//	expression = atom { infix atom } | atom "[" expression "]" .
//	atom       = [ prefix ] ( select | any | application | let
//	           | if | var | literal | list | "(" expression
//	           { "," expression } ")" ) .
//	let        = "let" binding { "," binding } expression .
//	binding    = symbol "=" expression .
//	select     = "select" ( "*" | "any" | columns ) "from" expression
//	             [ "where" expression ] [ "order" "by" expression ]
//	             [ "limit" expression [ "offset" expression ] ] .
//	columns    = expression [ "as" symbol ] { "," expression [ "as" symbol ] } .
//	any        = [ "select" ] "any" [ "from" ] expression
//	             [ "where" expression ] .
//	if         = "if" expression "then" expression
//	             { "else" "if" expression "then" expression }
//	             [ "else" expression ] .
//
// Keywords and named operators are case-insensitive. Query
// parameters written as '?', '{2}' or '{name}' are replaced
// with literal values at parse time.
package dottysql

import (
	"fmt"
	"strings"

	"github.com/SnellerInc/winnow/expr"
)

// ParseError describes a syntax error and where in the
// query it happened.
type ParseError struct {
	Query      string
	Start, End int
	Msg        string
}

// Annotate returns the query source with the offending
// span highlighted, like "x + >>> ) <<< ".
func (e *ParseError) Annotate() string {
	start, end := e.Start, e.End
	if start < 0 {
		start = 0
	}
	if start > len(e.Query) {
		start = len(e.Query)
	}
	if end < start {
		end = start
	}
	if end > len(e.Query) {
		end = len(e.Query)
	}
	return e.Query[:start] + " >>> " + e.Query[start:end] + " <<< " + e.Query[end:]
}

// Error implements error
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s in query %q", e.Msg, e.Annotate())
}

// infixOp describes one infix operator. Operators with a
// suffix kind are mixfix: their right operand runs up to a
// closing token, the way 'x[y]' does.
type infixOp struct {
	name   string
	prec   int
	right  bool
	suffix tokenKind
	close  string
	build  func(l, r expr.Node) expr.Node
}

var infixOps = map[string]infixOp{
	"or":  {name: "or", prec: 0, build: func(l, r expr.Node) expr.Node { return expr.Union(l, r) }},
	"and": {name: "and", prec: 1, build: func(l, r expr.Node) expr.Node { return expr.Intersection(l, r) }},
	"==":  {name: "==", prec: 3, build: func(l, r expr.Node) expr.Node { return expr.Equivalence(l, r) }},
	"=":   {name: "=", prec: 3, build: func(l, r expr.Node) expr.Node { return expr.Equivalence(l, r) }},
	"=~":  {name: "=~", prec: 3, build: func(l, r expr.Node) expr.Node { return &expr.RegexFilter{Inner: l, Pattern: r} }},
	"!=": {name: "!=", prec: 3, build: func(l, r expr.Node) expr.Node {
		return &expr.Complement{Inner: expr.Equivalence(l, r)}
	}},
	"in":  {name: "in", prec: 3, build: func(l, r expr.Node) expr.Node { return &expr.Membership{Element: l, Set: r} }},
	"isa": {name: "isa", prec: 3, build: func(l, r expr.Node) expr.Node { return &expr.IsInstance{Inner: l, Type: r} }},
	">=":  {name: ">=", prec: 3, build: func(l, r expr.Node) expr.Node { return expr.PartialOrderedSet(l, r) }},
	"<=":  {name: "<=", prec: 3, build: func(l, r expr.Node) expr.Node { return expr.PartialOrderedSet(r, l) }},
	">":   {name: ">", prec: 3, build: func(l, r expr.Node) expr.Node { return expr.StrictOrderedSet(l, r) }},
	"<":   {name: "<", prec: 3, build: func(l, r expr.Node) expr.Node { return expr.StrictOrderedSet(r, l) }},
	"+":   {name: "+", prec: 4, build: func(l, r expr.Node) expr.Node { return expr.Sum(l, r) }},
	"-":   {name: "-", prec: 4, build: func(l, r expr.Node) expr.Node { return expr.Difference(l, r) }},
	"*":   {name: "*", prec: 6, build: func(l, r expr.Node) expr.Node { return expr.Product(l, r) }},
	"/":   {name: "/", prec: 6, build: func(l, r expr.Node) expr.Node { return expr.Quotient(l, r) }},
	":":   {name: ":", prec: 10, build: func(l, r expr.Node) expr.Node { return &expr.Pair{Key: l, Value: r} }},
	".":   {name: ".", prec: 12, build: func(l, r expr.Node) expr.Node { return &expr.Resolve{Inner: l, Member: r} }},
}

// 'x not in y' is the only two-token operator.
var notInOp = infixOp{name: "not in", prec: 3, build: func(l, r expr.Node) expr.Node {
	return &expr.Complement{Inner: &expr.Membership{Element: l, Set: r}}
}}

var subscriptOp = infixOp{name: "[]", prec: 12, suffix: tokRbracket, close: "']'",
	build: func(l, r expr.Node) expr.Node { return &expr.Select{Inner: l, Key: r} }}

var callOp = infixOp{name: "()", prec: 11, suffix: tokRparen, close: "')'",
	build: func(l, r expr.Node) expr.Node { return expr.Call(l, r) }}

// builtins are pseudo-functions that construct expression
// nodes rather than runtime function calls. They cannot be
// shadowed by bindings.
var builtins = map[string]bool{
	"map": true, "sort": true, "filter": true, "bind": true,
	"any": true, "each": true, "cast": true,
}

// Keywords that only make sense inside a SELECT are
// rejected elsewhere so a stray WHERE does not silently
// parse as a variable.
var sqlReserved = map[string]bool{
	"select": true, "from": true, "any": true, "where": true,
	"desc": true, "asc": true,
}

type parser struct {
	src  string
	toks []token
	pos  int
	// end offset of the last consumed token
	last       int
	positional []any
	named      map[string]any
	// one alias map per enclosing SELECT; columns named
	// with AS are visible to the rest of that SELECT
	aliases []map[string]expr.Node
}

// Parse parses a query that takes no parameters.
func Parse(src string) (expr.Node, error) {
	return ParseWith(src, nil, nil)
}

// ParseWith parses a query, substituting '?', '{0}' and
// '{name}' parameters with literals from positional and
// named values.
func ParseWith(src string, positional []any, named map[string]any) (expr.Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks, positional: positional, named: named}
	root, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorTok(t, "Unexpected %s '%v'. Were you looking for an operator?", t.kind, t.val)
	}
	return root, nil
}

func (p *parser) peek() token { return p.peekAt(0) }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return token{kind: tokEOF, start: len(p.src), end: len(p.src)}
	}
	return p.toks[p.pos+n]
}

func (p *parser) skip(n int) {
	for i := 0; i < n && p.pos < len(p.toks); i++ {
		p.last = p.toks[p.pos].end
		p.pos++
	}
}

func (p *parser) acceptKind(k tokenKind) (token, bool) {
	t := p.peek()
	if t.kind != k {
		return token{}, false
	}
	p.skip(1)
	return t, true
}

func (p *parser) acceptWord(s string) (token, bool) {
	t := p.peek()
	if !t.isWord(s) {
		return token{}, false
	}
	p.skip(1)
	return t, true
}

// acceptWords consumes the two-symbol sequence a b, like
// 'order by', or nothing at all.
func (p *parser) acceptWords(a, b string) (token, bool) {
	t := p.peek()
	if !t.isWord(a) || !p.peekAt(1).isWord(b) {
		return token{}, false
	}
	p.skip(2)
	return t, true
}

func (p *parser) expectKind(k tokenKind, what string) (token, error) {
	if t, ok := p.acceptKind(k); ok {
		return t, nil
	}
	return token{}, p.errorHere("Was expecting %s here.", what)
}

func (p *parser) expectWord(s, what string) (token, error) {
	if t, ok := p.acceptWord(s); ok {
		return t, nil
	}
	return token{}, p.errorHere("Was expecting %s here.", what)
}

func (p *parser) errorTok(t token, f string, args ...any) error {
	return &ParseError{Query: p.src, Start: t.start, End: t.end, Msg: fmt.Sprintf(f, args...)}
}

func (p *parser) errorHere(f string, args ...any) error {
	return p.errorTok(p.peek(), f, args...)
}

func (p *parser) expression(prec int) (expr.Node, error) {
	lhs, err := p.atom()
	if err != nil {
		return nil, err
	}
	return p.operator(lhs, prec)
}

// peekInfix matches the next infix operator without
// consuming it, returning how many tokens it spans.
func (p *parser) peekInfix() (infixOp, int, bool) {
	t := p.peek()
	switch t.kind {
	case tokLbracket:
		return subscriptOp, 1, true
	case tokLparen:
		return callOp, 1, true
	case tokSymbol:
		sym := strings.ToLower(t.sym())
		if sym == "not" && p.peekAt(1).isWord("in") {
			return notInOp, 2, true
		}
		if op, ok := infixOps[sym]; ok {
			return op, 1, true
		}
	}
	return infixOp{}, 0, false
}

// operator climbs operator precedence for as long as the
// next token is an infix operator binding at least as
// tightly as min.
func (p *parser) operator(lhs expr.Node, min int) (expr.Node, error) {
	for {
		op, width, ok := p.peekInfix()
		if !ok || op.prec < min {
			return lhs, nil
		}
		p.skip(width)

		var rhs expr.Node
		var err error
		switch {
		case op.suffix != tokEOF:
			// mixfix: the right operand runs to the closing token
			rhs, err = p.expression(0)
			if err != nil {
				return nil, err
			}
			if _, err = p.expectKind(op.suffix, op.close); err != nil {
				return nil, err
			}
		case op.name == ".":
			rhs, err = p.dotRHS()
			if err != nil {
				return nil, err
			}
		default:
			rhs, err = p.atom()
			if err != nil {
				return nil, err
			}
		}

		next := op.prec
		if !op.right {
			next++
		}
		for {
			peeked, _, ok := p.peekInfix()
			if !ok || peeked.prec < next {
				break
			}
			rhs, err = p.operator(rhs, peeked.prec)
			if err != nil {
				return nil, err
			}
		}

		from, _ := lhs.Span()
		lhs = op.build(lhs, rhs)
		lhs.SetSpan(from, p.last)
	}
}

// dotRHS matches the member name after '.', which goes in
// the tree as a string literal.
func (p *parser) dotRHS() (expr.Node, error) {
	t, err := p.expectKind(tokSymbol, "a symbol")
	if err != nil {
		return nil, err
	}
	n := expr.NewLiteral(t.sym())
	n.SetSpan(t.start, t.end)
	return n, nil
}

func (p *parser) atom() (expr.Node, error) {
	if t, ok := p.acceptKind(tokParam); ok {
		return p.param(t)
	}
	if t, ok := p.acceptWord("let"); ok {
		return p.let(t)
	}
	if t, ok := p.acceptWord("select"); ok {
		return p.sqlSelect(t)
	}
	if t, ok := p.acceptWord("any"); ok {
		return p.anyClause(t)
	}
	if t, ok := p.strayKeyword(); ok {
		return nil, p.errorTok(t, "Was not expecting a %s here.", t.kind)
	}
	if t, ok := p.acceptWord("if"); ok {
		return p.ifElse(t)
	}
	if t, ok := p.acceptWord("not"); ok {
		inner, err := p.expression(6)
		if err != nil {
			return nil, err
		}
		n := &expr.Complement{Inner: inner}
		n.SetSpan(t.start, p.last)
		return n, nil
	}
	if t, ok := p.acceptGlyph("-"); ok {
		inner, err := p.expression(5)
		if err != nil {
			return nil, err
		}
		n := expr.Product(expr.NewLiteral(int64(-1)), inner)
		n.SetSpan(t.start, p.last)
		return n, nil
	}
	if t, ok := p.acceptKind(tokLiteral); ok {
		n := expr.NewLiteral(t.val)
		n.SetSpan(t.start, t.end)
		return n, nil
	}
	if t, ok := p.acceptWord("true"); ok {
		n := expr.NewLiteral(true)
		n.SetSpan(t.start, t.end)
		return n, nil
	}
	if t, ok := p.acceptWord("false"); ok {
		n := expr.NewLiteral(false)
		n.SetSpan(t.start, t.end)
		return n, nil
	}
	if t, ok := p.acceptWord("null"); ok {
		n := expr.NewLiteral(nil)
		n.SetSpan(t.start, t.end)
		return n, nil
	}
	if t := p.peek(); t.kind == tokSymbol && builtins[strings.ToLower(t.sym())] {
		p.skip(1)
		return p.builtin(t)
	}
	if t := p.peek(); t.kind == tokSymbol && p.peekAt(1).kind == tokLparen {
		paren := p.peekAt(1)
		if t.end != paren.start {
			return nil, &ParseError{Query: p.src, Start: t.start, End: paren.end,
				Msg: "No whitespace allowed between function and paren."}
		}
		p.skip(1)
		fn := expr.Ident(t.sym())
		fn.SetSpan(t.start, t.end)
		return p.application(fn)
	}
	if t, ok := p.acceptKind(tokSymbol); ok {
		if len(p.aliases) > 0 {
			if n, ok := p.aliases[len(p.aliases)-1][t.sym()]; ok {
				return n, nil
			}
		}
		n := expr.Ident(t.sym())
		n.SetSpan(t.start, t.end)
		return n, nil
	}
	if t, ok := p.acceptKind(tokLparen); ok {
		return p.paren(t)
	}
	if t, ok := p.acceptKind(tokLbracket); ok {
		return p.tuple(t)
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorTok(t, "Was not expecting '%s' here.", t.kind)
	}
	return nil, p.errorHere("Unexpected end of input.")
}

func (p *parser) acceptGlyph(s string) (token, bool) {
	t := p.peek()
	if t.kind != tokSymbol || t.sym() != s {
		return token{}, false
	}
	p.skip(1)
	return t, true
}

func (p *parser) strayKeyword() (token, bool) {
	t := p.peek()
	if t.kind != tokSymbol {
		return token{}, false
	}
	if sqlReserved[strings.ToLower(t.sym())] {
		return t, true
	}
	if t.isWord("order") && p.peekAt(1).isWord("by") {
		return t, true
	}
	return token{}, false
}

// param replaces a parameter token with the literal value
// supplied to ParseWith.
func (p *parser) param(t token) (expr.Node, error) {
	var v any
	switch key := t.val.(type) {
	case int:
		if key < 0 || key >= len(p.positional) {
			return nil, p.errorTok(t, "Param %d unavailable. (Available: %d positional, %d named.)",
				key, len(p.positional), len(p.named))
		}
		v = p.positional[key]
	case string:
		x, ok := p.named[key]
		if !ok {
			return nil, p.errorTok(t, "Param %q unavailable. (Available: %d positional, %d named.)",
				key, len(p.positional), len(p.named))
		}
		v = x
	}
	n := expr.NewLiteral(v)
	n.SetSpan(t.start, t.end)
	return n, nil
}

// let parses 'let x = 5, y = 10 body' with optional parens
// around the binding list.
func (p *parser) let(kw token) (expr.Node, error) {
	parens := 0
	for {
		if _, ok := p.acceptKind(tokLparen); !ok {
			break
		}
		parens++
	}
	var pairs []*expr.Pair
	for {
		sym, err := p.expectKind(tokSymbol, "a symbol")
		if err != nil {
			return nil, err
		}
		key := expr.NewLiteral(sym.sym())
		key.SetSpan(sym.start, sym.end)
		if _, ok := p.acceptGlyph("="); !ok {
			return nil, p.errorHere("Was expecting '=' here.")
		}
		val, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		pr := &expr.Pair{Key: key, Value: val}
		pr.SetSpan(sym.start, p.last)
		pairs = append(pairs, pr)
		if _, ok := p.acceptKind(tokComma); !ok {
			break
		}
	}
	bind := expr.NewBind(pairs...)
	from, _ := pairs[0].Span()
	bind.SetSpan(from, p.last)
	for ; parens > 0; parens-- {
		if _, err := p.expectKind(tokRparen, "')'"); err != nil {
			return nil, err
		}
	}
	body, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	n := expr.Let(bind, body)
	n.SetSpan(kw.start, p.last)
	return n, nil
}

func (p *parser) ifElse(kw token) (expr.Node, error) {
	cond, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectWord("then", "'then'"); err != nil {
		return nil, err
	}
	val, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	children := []expr.Node{cond, val}
	for {
		if _, ok := p.acceptWords("else", "if"); !ok {
			break
		}
		cond, err = p.expression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectWord("then", "'then'"); err != nil {
			return nil, err
		}
		val, err = p.expression(0)
		if err != nil {
			return nil, err
		}
		children = append(children, cond, val)
	}
	if _, ok := p.acceptWord("else"); ok {
		dflt, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		children = append(children, dflt)
	} else {
		children = append(children, expr.NewLiteral(nil))
	}
	n := expr.NewIfElse(children...)
	n.SetSpan(kw.start, p.last)
	return n, nil
}

// builtin parses the argument list of a pseudo-function
// like map(...) or cast(...). kw is the already consumed
// function name.
func (p *parser) builtin(kw token) (expr.Node, error) {
	lp, err := p.expectKind(tokLparen, "'('")
	if err != nil {
		return nil, err
	}
	if lp.start != kw.end {
		return nil, p.errorTok(kw, "No whitespace allowed between function and lparen.")
	}
	first, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	args := []expr.Node{first}
	for {
		if _, ok := p.acceptKind(tokComma); !ok {
			break
		}
		arg, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.expectKind(tokRparen, "')'"); err != nil {
		return nil, err
	}

	name := strings.ToLower(kw.sym())
	var n expr.Node
	switch name {
	case "bind":
		pairs := make([]*expr.Pair, len(args))
		for i := range args {
			pr, ok := args[i].(*expr.Pair)
			if !ok {
				return nil, p.errorTok(kw, "bind expects 'key: value' pairs.")
			}
			pairs[i] = pr
		}
		n = expr.NewBind(pairs...)
	case "any":
		switch len(args) {
		case 1:
			n = expr.Any(args[0], nil)
		case 2:
			n = expr.Any(args[0], args[1])
		default:
			return nil, p.errorTok(kw, "%s expects 1 or 2 arguments, but was passed %d.",
				kw.sym(), len(args))
		}
	default:
		if len(args) != 2 {
			return nil, p.errorTok(kw, "%s expects 2 arguments, but was passed %d.",
				kw.sym(), len(args))
		}
		switch name {
		case "map":
			n = expr.Map(args[0], args[1])
		case "sort":
			n = expr.Sort(args[0], args[1])
		case "filter":
			n = expr.Filter(args[0], args[1])
		case "each":
			n = expr.Each(args[0], args[1])
		case "cast":
			n = &expr.Cast{Inner: args[0], Type: args[1]}
		}
	}
	n.SetSpan(kw.start, p.last)
	return n, nil
}

// application parses the argument list of a regular
// function call. Unlike builtins, zero arguments are fine.
func (p *parser) application(fn expr.Node) (expr.Node, error) {
	p.skip(1) // the lparen
	if _, ok := p.acceptKind(tokRparen); ok {
		n := expr.Call(fn)
		from, _ := fn.Span()
		n.SetSpan(from, p.last)
		return n, nil
	}
	first, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	args := []expr.Node{first}
	for {
		if _, ok := p.acceptKind(tokComma); !ok {
			break
		}
		arg, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.expectKind(tokRparen, "')'"); err != nil {
		return nil, err
	}
	n := expr.Call(fn, args...)
	from, _ := fn.Span()
	n.SetSpan(from, p.last)
	return n, nil
}

// paren parses '(expr)' which is just the inner value, or
// '(a, b, c)' which is a repeated value.
func (p *parser) paren(lp token) (expr.Node, error) {
	first, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	exprs := []expr.Node{first}
	for {
		if _, ok := p.acceptKind(tokComma); !ok {
			break
		}
		e, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if _, err := p.expectKind(tokRparen, "')'"); err != nil {
		return nil, err
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	n := expr.NewRepeat(exprs...)
	n.SetSpan(lp.start, p.last)
	return n, nil
}

// tuple parses '[a, b, c]'. Empty tuples are allowed and
// elements may be arbitrary expressions.
func (p *parser) tuple(lb token) (expr.Node, error) {
	if _, ok := p.acceptKind(tokRbracket); ok {
		n := expr.NewTuple()
		n.SetSpan(lb.start, p.last)
		return n, nil
	}
	first, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	elems := []expr.Node{first}
	for {
		if _, ok := p.acceptKind(tokComma); !ok {
			break
		}
		e, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expectKind(tokRbracket, "']'"); err != nil {
		return nil, err
	}
	n := expr.NewTuple(elems...)
	n.SetSpan(lb.start, p.last)
	return n, nil
}

// SQL subgrammar.

func (p *parser) sqlSelect(kw token) (expr.Node, error) {
	p.aliases = append(p.aliases, map[string]expr.Node{})
	defer func() {
		p.aliases = p.aliases[:len(p.aliases)-1]
	}()
	if t, ok := p.acceptWord("any"); ok {
		return p.anyClause(t)
	}
	if _, ok := p.acceptGlyph("*"); ok {
		// SELECT * is the identity projection, so the
		// result is just the FROM clause
		if _, err := p.expectWord("from", "'from'"); err != nil {
			return nil, err
		}
		return p.selectFrom()
	}
	return p.selectWhat(kw)
}

// anyClause parses both 'any(x, ...)', the builtin, and
// the clause forms 'ANY x', 'ANY FROM x WHERE y',
// 'SELECT ANY FROM x'. They all mean the same thing.
func (p *parser) anyClause(kw token) (expr.Node, error) {
	if p.peek().kind == tokLparen {
		return p.builtin(kw)
	}
	p.acceptWord("from")
	src, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	var cond expr.Node
	if _, ok := p.acceptWord("where"); ok {
		cond, err = p.expression(0)
		if err != nil {
			return nil, err
		}
	}
	// ordering a boolean makes no sense
	if t, ok := p.strayOrder(); ok {
		return nil, p.errorTok(t, "Was not expecting a %s here.", t.kind)
	}
	n := expr.Any(src, cond)
	n.SetSpan(kw.start, p.last)
	return n, nil
}

func (p *parser) strayOrder() (token, bool) {
	t := p.peek()
	if t.isWord("order") && p.peekAt(1).isWord("by") {
		return t, true
	}
	return token{}, false
}

// selectWhat parses the projected columns of a SELECT,
// ending at FROM.
func (p *parser) selectWhat(kw token) (expr.Node, error) {
	used := map[string]bool{}
	var pairs []*expr.Pair
	for idx := 0; ; idx++ {
		val, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		var key *expr.Literal
		if _, ok := p.acceptWord("as"); ok {
			sym, err := p.expectKind(tokSymbol, "a symbol")
			if err != nil {
				return nil, err
			}
			name := sym.sym()
			if used[name] {
				return nil, p.errorTok(sym, "Duplicate 'AS' name %q.", name)
			}
			key = expr.NewLiteral(name)
			key.SetSpan(sym.start, sym.end)
			p.aliases[len(p.aliases)-1][name] = val
			used[name] = true
		} else {
			// no explicit name; guess one the way SQL
			// databases name computed columns
			name := guessNameOf(val)
			if name == "" || used[name] {
				name = fmt.Sprintf("column_%d", idx)
			} else {
				used[name] = true
			}
			key = expr.NewLiteral(name)
		}
		from, _ := val.Span()
		pr := &expr.Pair{Key: key, Value: val}
		pr.SetSpan(from, p.last)
		pairs = append(pairs, pr)

		if _, ok := p.acceptWord("from"); ok {
			src, err := p.selectFrom()
			if err != nil {
				return nil, err
			}
			bind := expr.NewBind(pairs...)
			bind.SetSpan(kw.start, p.last)
			n := expr.Map(src, bind)
			n.SetSpan(kw.start, p.last)
			return n, nil
		}
		if _, err := p.expectKind(tokComma, "','"); err != nil {
			return nil, err
		}
	}
}

func guessNameOf(n expr.Node) string {
	switch n := n.(type) {
	case *expr.Var:
		return n.Name
	case *expr.Resolve:
		if lit, ok := n.Member.(*expr.Literal); ok {
			if s, ok := lit.Value.(string); ok {
				return s
			}
		}
	case *expr.Select:
		if lit, ok := n.Key.(*expr.Literal); ok {
			if base := guessNameOf(n.Inner); base != "" {
				return fmt.Sprintf("%s_%v", base, lit.Value)
			}
		}
	case *expr.Apply:
		if fn, ok := n.Fn.(*expr.Var); ok {
			return fn.Name
		}
	}
	return ""
}

func (p *parser) selectFrom() (expr.Node, error) {
	src, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if _, ok := p.acceptWord("where"); ok {
		return p.selectWhere(src)
	}
	if _, ok := p.acceptWords("order", "by"); ok {
		return p.selectOrder(src)
	}
	if t, ok := p.acceptWord("limit"); ok {
		return p.selectLimit(t, src)
	}
	return src, nil
}

func (p *parser) selectWhere(src expr.Node) (expr.Node, error) {
	cond, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	from, _ := src.Span()
	n := expr.Filter(src, cond)
	n.SetSpan(from, p.last)
	if _, ok := p.acceptWords("order", "by"); ok {
		return p.selectOrder(n)
	}
	if t, ok := p.acceptWord("limit"); ok {
		return p.selectLimit(t, n)
	}
	return n, nil
}

func (p *parser) selectOrder(src expr.Node) (expr.Node, error) {
	key, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	from, _ := src.Span()
	var n expr.Node = expr.Sort(src, key)
	n.SetSpan(from, p.last)
	if _, ok := p.acceptWord("asc"); ok {
		// ascending is what sort does anyway
		n.SetSpan(from, p.last)
		return n, nil
	}
	if _, ok := p.acceptWord("desc"); ok {
		n = expr.Call(expr.Ident("reverse"), n)
		n.SetSpan(from, p.last)
	}
	if t, ok := p.acceptWord("limit"); ok {
		return p.selectLimit(t, n)
	}
	return n, nil
}

// selectLimit parses 'LIMIT n [OFFSET m]', which lowers to
// the stdlib take and drop functions.
func (p *parser) selectLimit(kw token, src expr.Node) (expr.Node, error) {
	count, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if t, ok := p.acceptWord("offset"); ok {
		skip, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		drop := expr.Ident("drop")
		drop.SetSpan(t.start, t.end)
		src = expr.Call(drop, skip, src)
		src.SetSpan(t.start, p.last)
	}
	take := expr.Ident("take")
	take.SetSpan(kw.start, kw.end)
	n := expr.Call(take, count, src)
	n.SetSpan(kw.start, p.last)
	return n, nil
}
