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

// Copy returns a deep copy of e.
// Spans are preserved; literal values are
// shared, since they are never mutated.
func Copy(e Node) Node {
	switch e := e.(type) {
	case nil:
		return nil
	case *Literal:
		c := *e
		return &c
	case *Var:
		c := *e
		return &c
	case *Complement:
		c := *e
		c.Inner = Copy(e.Inner)
		return &c
	case *Pair:
		c := *e
		c.Key = Copy(e.Key)
		c.Value = Copy(e.Value)
		return &c
	case *Select:
		c := *e
		c.Inner = Copy(e.Inner)
		c.Key = Copy(e.Key)
		return &c
	case *Resolve:
		c := *e
		c.Inner = Copy(e.Inner)
		c.Member = Copy(e.Member)
		return &c
	case *IsInstance:
		c := *e
		c.Inner = Copy(e.Inner)
		c.Type = Copy(e.Type)
		return &c
	case *Cast:
		c := *e
		c.Inner = Copy(e.Inner)
		c.Type = Copy(e.Type)
		return &c
	case *Membership:
		c := *e
		c.Element = Copy(e.Element)
		c.Set = Copy(e.Set)
		return &c
	case *RegexFilter:
		c := *e
		c.Inner = Copy(e.Inner)
		c.Pattern = Copy(e.Pattern)
		return &c
	case *Reducer:
		c := *e
		c.Fn = Copy(e.Fn)
		c.Mapper = Copy(e.Mapper)
		return &c
	case *Within:
		c := *e
		c.Context = Copy(e.Context)
		c.Expr = Copy(e.Expr)
		return &c
	case *Group:
		c := *e
		c.Context = Copy(e.Context)
		c.Grouper = Copy(e.Grouper)
		c.Reducers = copyNodes(e.Reducers)
		return &c
	case *Apply:
		c := *e
		c.Fn = Copy(e.Fn)
		c.Args = copyNodes(e.Args)
		return &c
	case *Bind:
		c := *e
		c.Pairs = make([]*Pair, len(e.Pairs))
		for i := range e.Pairs {
			c.Pairs[i] = Copy(e.Pairs[i]).(*Pair)
		}
		return &c
	case *Logical:
		c := *e
		c.Operands = copyNodes(e.Operands)
		return &c
	case *Comparison:
		c := *e
		c.Operands = copyNodes(e.Operands)
		return &c
	case *Arith:
		c := *e
		c.Operands = copyNodes(e.Operands)
		return &c
	case *Repeat:
		c := *e
		c.Values = copyNodes(e.Values)
		return &c
	case *Tuple:
		c := *e
		c.Values = copyNodes(e.Values)
		return &c
	case *IfElse:
		c := *e
		c.Nodes = copyNodes(e.Nodes)
		return &c
	}
	return e
}

func copyNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i := range nodes {
		out[i] = Copy(nodes[i])
	}
	return out
}
