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

// Normalize flattens and simplifies the tree
// rooted at n without changing its meaning:
//
//   - nested variadic expressions of the same
//     kind collapse into their parent, i.e.
//     (x and (y and z)) becomes (x and y and z)
//   - variadic expressions left with no
//     children are eliminated
//   - variadic expressions left with a single
//     child are replaced by that child
//
// The input tree is not modified; shared
// subtrees may appear in the result. Normalize
// returns nil when the whole tree is eliminated.
func Normalize(n Node) Node {
	switch n := n.(type) {
	case nil:
		return nil
	case *Complement:
		return respan(&Complement{Inner: Normalize(n.Inner)}, n)
	case *Pair:
		return respan(&Pair{Key: Normalize(n.Key), Value: Normalize(n.Value)}, n)
	case *Select:
		return respan(&Select{Inner: Normalize(n.Inner), Key: Normalize(n.Key)}, n)
	case *Resolve:
		return respan(&Resolve{Inner: Normalize(n.Inner), Member: Normalize(n.Member)}, n)
	case *IsInstance:
		return respan(&IsInstance{Inner: Normalize(n.Inner), Type: Normalize(n.Type)}, n)
	case *Cast:
		return respan(&Cast{Inner: Normalize(n.Inner), Type: Normalize(n.Type)}, n)
	case *Membership:
		return respan(&Membership{Element: Normalize(n.Element), Set: Normalize(n.Set)}, n)
	case *RegexFilter:
		return respan(&RegexFilter{Inner: Normalize(n.Inner), Pattern: Normalize(n.Pattern)}, n)
	case *Reducer:
		return respan(&Reducer{Fn: Normalize(n.Fn), Mapper: Normalize(n.Mapper)}, n)
	case *Within:
		w := &Within{Op: n.Op, Context: Normalize(n.Context)}
		if n.Expr != nil {
			w.Expr = Normalize(n.Expr)
		}
		return respan(w, n)
	case *Group:
		g := &Group{Context: Normalize(n.Context), Grouper: Normalize(n.Grouper)}
		for i := range n.Reducers {
			g.Reducers = append(g.Reducers, Normalize(n.Reducers[i]))
		}
		return respan(g, n)
	case *Apply:
		// the callee is left as-is; only arguments normalize
		a := &Apply{Fn: n.Fn}
		for i := range n.Args {
			a.Args = append(a.Args, Normalize(n.Args[i]))
		}
		return respan(a, n)
	case *Bind:
		b := &Bind{}
		for i := range n.Pairs {
			p := Normalize(n.Pairs[i])
			if p == nil {
				continue
			}
			b.Pairs = append(b.Pairs, p.(*Pair))
		}
		if len(b.Pairs) == 0 {
			return nil
		}
		return respan(b, n)
	case *Logical:
		kids, done := variadic(n.Operands, func(c Node) ([]Node, bool) {
			l, ok := c.(*Logical)
			if ok && l.Op == n.Op {
				return l.Operands, true
			}
			return nil, false
		})
		if done != nil {
			return done
		}
		if kids == nil {
			return nil
		}
		return respanKids(&Logical{Op: n.Op, Operands: kids}, kids)
	case *Comparison:
		kids, done := variadic(n.Operands, func(c Node) ([]Node, bool) {
			l, ok := c.(*Comparison)
			if ok && l.Op == n.Op {
				return l.Operands, true
			}
			return nil, false
		})
		if done != nil {
			return done
		}
		if kids == nil {
			return nil
		}
		return respanKids(&Comparison{Op: n.Op, Operands: kids}, kids)
	case *Arith:
		kids, done := variadic(n.Operands, func(c Node) ([]Node, bool) {
			l, ok := c.(*Arith)
			if ok && l.Op == n.Op {
				return l.Operands, true
			}
			return nil, false
		})
		if done != nil {
			return done
		}
		if kids == nil {
			return nil
		}
		return respanKids(&Arith{Op: n.Op, Operands: kids}, kids)
	case *Repeat:
		kids, done := variadic(n.Values, func(c Node) ([]Node, bool) {
			l, ok := c.(*Repeat)
			if ok {
				return l.Values, true
			}
			return nil, false
		})
		if done != nil {
			return done
		}
		if kids == nil {
			return nil
		}
		return respanKids(&Repeat{Values: kids}, kids)
	case *Tuple:
		kids, done := variadic(n.Values, func(c Node) ([]Node, bool) {
			l, ok := c.(*Tuple)
			if ok {
				return l.Values, true
			}
			return nil, false
		})
		if done != nil {
			return done
		}
		if kids == nil {
			return nil
		}
		return respanKids(&Tuple{Values: kids}, kids)
	case *IfElse:
		var kids []Node
		for i := range n.Nodes {
			c := Normalize(n.Nodes[i])
			if c == nil {
				continue
			}
			kids = append(kids, c)
		}
		if len(kids) == 0 {
			return nil
		}
		if len(kids) == 1 {
			return kids[0]
		}
		return respanKids(&IfElse{Nodes: kids}, kids)
	}
	// leaves pass through untouched
	return n
}

// variadic normalizes the children of an n-ary
// node: eliminated children are dropped and
// children spliced by same produce their own
// children in place. It returns (nil, child)
// when the node collapses to a single child,
// and (nil, nil) for total elimination.
func variadic(children []Node, same func(Node) ([]Node, bool)) ([]Node, Node) {
	var out []Node
	for i := range children {
		c := Normalize(children[i])
		if c == nil {
			continue
		}
		if inner, ok := same(c); ok {
			out = append(out, inner...)
			continue
		}
		out = append(out, c)
	}
	if len(out) == 1 {
		return nil, out[0]
	}
	return out, nil
}

func respan(n, orig Node) Node {
	n.SetSpan(orig.Span())
	return n
}

func respanKids(n Node, kids []Node) Node {
	from, _ := kids[0].Span()
	_, to := kids[len(kids)-1].Span()
	n.SetSpan(from, to)
	return n
}
