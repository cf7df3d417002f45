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
	"github.com/SnellerInc/winnow/expr"
	"github.com/SnellerInc/winnow/protocol"
	"github.com/SnellerInc/winnow/repeated"
	"github.com/SnellerInc/winnow/scope"
)

// operands evaluates each node into its positional element column.
// A null result stays a one-element null column so it broadcasts to
// every position; an empty repeated value stays empty and pads.
func (e *Evaluator) operands(nodes []expr.Node, s *scope.Stack) ([][]any, error) {
	cols := make([][]any, len(nodes))
	for i, node := range nodes {
		res, err := e.Solve(node, s)
		if err != nil {
			return nil, err
		}
		if res.Value == nil {
			cols[i] = []any{nil}
			continue
		}
		vals, err := repeated.Values(res.Value)
		if err != nil {
			return nil, classify(node, err)
		}
		cols[i] = vals
	}
	return cols, nil
}

// broadcast equalizes column lengths: a one-element column repeats
// its element to the common width and shorter columns pad with zero.
func broadcast(cols [][]any) [][]any {
	width := 0
	for _, c := range cols {
		if len(c) > width {
			width = len(c)
		}
	}
	for i, c := range cols {
		if len(c) == width {
			continue
		}
		out := make([]any, width)
		if len(c) == 1 {
			for j := range out {
				out[j] = c[0]
			}
		} else {
			copy(out, c)
			for j := len(c); j < width; j++ {
				out[j] = 0
			}
		}
		cols[i] = out
	}
	return cols
}

func (e *Evaluator) solveArith(n *expr.Arith, s *scope.Stack) (Result, error) {
	cols, err := e.operands(n.Operands, s)
	if err != nil {
		return Result{}, err
	}
	cols = broadcast(cols)
	if len(cols) == 0 {
		return Result{Value: repeated.List(nil)}, nil
	}
	out := make([]any, len(cols[0]))
	for pos := range out {
		out[pos] = arithAt(n.Op, cols, pos)
	}
	return Result{Value: repeated.List(out)}, nil
}

// arithAt folds one broadcast position left to right. A non-numeric
// operand or a zero divisor makes the position null.
func arithAt(op expr.ArithOp, cols [][]any, pos int) any {
	acc := cols[0][pos]
	if !protocol.IsNumber(acc) {
		return nil
	}
	for _, col := range cols[1:] {
		v := col[pos]
		if !protocol.IsNumber(v) {
			return nil
		}
		var err error
		switch op {
		case expr.OpSum:
			acc, err = protocol.Sum(acc, v)
		case expr.OpDifference:
			acc, err = protocol.Difference(acc, v)
		case expr.OpProduct:
			acc, err = protocol.Product(acc, v)
		case expr.OpQuotient:
			if protocol.IsZero(v) {
				return nil
			}
			acc, err = protocol.Quotient(acc, v)
		}
		if err != nil {
			return nil
		}
	}
	return acc
}
