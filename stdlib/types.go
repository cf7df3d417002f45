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

package stdlib

import (
	"fmt"
	"strconv"

	"github.com/SnellerInc/winnow/protocol"
)

// The scalar type objects. Queries reach them by name through Core,
// so "x isa int" and "cast(x, str)" work out of the box.
var (
	Int   protocol.Type = intType{}
	Float protocol.Type = floatType{}
	Str   protocol.Type = strType{}
	Bytes protocol.Type = bytesType{}
	Bool  protocol.Type = boolType{}
)

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Contains(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func (intType) Convert(v any) (any, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot make an int out of %q", v)
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot make an int out of %v", v)
}

type floatType struct{}

func (floatType) Name() string { return "float" }

func (floatType) Contains(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func (floatType) Convert(v any) (any, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case bool:
		if v {
			return float64(1), nil
		}
		return float64(0), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot make a float out of %q", v)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot make a float out of %v", v)
}

type strType struct{}

func (strType) Name() string { return "str" }

func (strType) Contains(v any) bool {
	_, ok := v.(string)
	return ok
}

func (strType) Convert(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, fmt.Errorf("cannot make a str out of null")
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return fmt.Sprint(v), nil
}

type bytesType struct{}

func (bytesType) Name() string { return "bytes" }

func (bytesType) Contains(v any) bool {
	_, ok := v.([]byte)
	return ok
}

func (bytesType) Convert(v any) (any, error) {
	switch v := v.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("cannot make bytes out of %v", v)
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Contains(v any) bool {
	_, ok := v.(bool)
	return ok
}

// Convert applies the engine's truth rules, so any value with a
// registered boolean capability casts.
func (boolType) Convert(v any) (any, error) {
	return protocol.Truth(v)
}
