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

package repeated

import (
	"io"
	"reflect"

	"github.com/SnellerInc/winnow/protocol"
)

var valueType = reflect.TypeOf((*Value)(nil)).Elem()

func init() {
	// A repeated value is truthy when any element is truthy.
	protocol.AsBoolFn.Register(valueType, func(args []any) (any, error) {
		it := args[0].(Value).Iterate()
		for {
			v, err := it.Next()
			if err == io.EOF {
				return false, nil
			}
			if err != nil {
				return nil, err
			}
			t, err := protocol.Truth(v)
			if err != nil {
				return nil, err
			}
			if t {
				return true, nil
			}
		}
	})
	protocol.CountFn.Register(valueType, func(args []any) (any, error) {
		vals, err := Values(args[0])
		if err != nil {
			return nil, err
		}
		return len(vals), nil
	})
	protocol.EqFn.Register(valueType, func(args []any) (any, error) {
		return ValueEq(args[0], args[1])
	})
	protocol.HashedFn.Register(valueType, func(args []any) (any, error) {
		vals, err := Values(args[0])
		if err != nil {
			return nil, err
		}
		return protocol.Hashed(vals)
	})
}
