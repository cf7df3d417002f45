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

package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/dchest/siphash"
)

var HashedFn = NewFunc("hashed", 1)

// Hashable is the capability of values usable as grouping keys.
// The hash must agree with Eq: values that compare equal hash equally,
// which is why integral floats hash as integers.
var Hashable = NewProtocol("hashable", []*Func{HashedFn}, nil)

// Hashed returns the stable 64-bit hash of v.
func Hashed(v any) (uint64, error) {
	h, err := HashedFn.Call(v)
	if err != nil {
		return 0, err
	}
	return h.(uint64), nil
}

const (
	hashK0 = 0x7769_6e6e_6f77_6b30
	hashK1 = 0x7769_6e6e_6f77_6b31
)

// domain tags keep hash("1"), hash(1) and hash(true) apart
const (
	tagNull = iota
	tagBool
	tagInt
	tagFloat
	tagString
	tagSeq
	tagTime
)

func sip(tag byte, payload []byte) uint64 {
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, tag)
	buf = append(buf, payload...)
	return siphash.Hash(hashK0, hashK1, buf)
}

func hashNumeric(args []any) (any, error) {
	n, _ := toNum(args[0])
	var tmp [8]byte
	if n.float {
		if n.f == math.Trunc(n.f) && n.f >= math.MinInt64 && n.f <= math.MaxInt64 {
			binary.LittleEndian.PutUint64(tmp[:], uint64(int64(n.f)))
			return sip(tagInt, tmp[:]), nil
		}
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(n.f))
		return sip(tagFloat, tmp[:]), nil
	}
	binary.LittleEndian.PutUint64(tmp[:], uint64(n.i))
	return sip(tagInt, tmp[:]), nil
}

func hashString(args []any) (any, error) {
	return sip(tagString, []byte(args[0].(string))), nil
}

func hashBool(args []any) (any, error) {
	if args[0].(bool) {
		return sip(tagBool, []byte{1}), nil
	}
	return sip(tagBool, []byte{0}), nil
}

func hashNull(args []any) (any, error) {
	return sip(tagNull, nil), nil
}

func hashTime(args []any) (any, error) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(args[0].(time.Time).UnixNano()))
	return sip(tagTime, tmp[:]), nil
}

func hashHasher(args []any) (any, error) {
	return args[0].(Hasher).Hash64()
}

// hashAny combines slice elements; everything else is unhashable.
func hashAny(args []any) (any, error) {
	rv := reflect.ValueOf(args[0])
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		tmp := make([]byte, 0, 8*rv.Len())
		for i := 0; i < rv.Len(); i++ {
			h, err := Hashed(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			tmp = binary.LittleEndian.AppendUint64(tmp, h)
		}
		return sip(tagSeq, tmp), nil
	}
	return nil, fmt.Errorf("hashed: %s is unhashable", typename(TypeOf(args[0])))
}

func init() {
	for _, t := range numericTypes {
		mustImplement(Hashable, t, map[*Func]Impl{HashedFn: hashNumeric})
	}
	mustImplement(Hashable, reflect.TypeOf(""), map[*Func]Impl{HashedFn: hashString})
	mustImplement(Hashable, reflect.TypeOf(false), map[*Func]Impl{HashedFn: hashBool})
	mustImplement(Hashable, reflect.TypeOf(time.Time{}), map[*Func]Impl{HashedFn: hashTime})
	HashedFn.Register(NullType, hashNull)
	HashedFn.Register(hasherType, hashHasher)
	HashedFn.Register(AnyType, hashAny)
}
