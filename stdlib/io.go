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
	"unicode/utf8"

	"github.com/SnellerInc/winnow/source"
)

// IO holds the functions that read files. It is deliberately a
// separate module: queries can only reach it when the caller injects
// it, which keeps file access an explicit opt-in.
var IO = NewModule("stdio", map[string]any{
	"csv":   csvFn{},
	"jsonl": jsonlFn{},
	"lines": linesFn{},
	"tsv":   tsvFn{},
})

func wantBool(name string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s wants a boolean, got %v", name, v)
	}
	return b, nil
}

// linesFn reads a text file as a repeated value of its lines.
type linesFn struct{}

func (linesFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("lines", args, 1); err != nil {
		return nil, err
	}
	path, err := wantString("lines", args[0])
	if err != nil {
		return nil, err
	}
	return source.Lines(path), nil
}

// jsonlFn reads an NDJSON file as a repeated value, one decoded
// value per line.
type jsonlFn struct{}

func (jsonlFn) Call(args []any, _ map[string]any) (any, error) {
	if err := arity("jsonl", args, 1); err != nil {
		return nil, err
	}
	path, err := wantString("jsonl", args[0])
	if err != nil {
		return nil, err
	}
	return source.JSONLines(path), nil
}

// csvFn reads a CSV file as a repeated value of rows. Named arguments:
// decode_header names columns from the first record, delim overrides
// the separator, trim strips space after separators (default true),
// and skip drops leading records.
type csvFn struct{}

func (csvFn) Call(args []any, named map[string]any) (any, error) {
	if err := arity("csv", args, 1); err != nil {
		return nil, err
	}
	path, err := wantString("csv", args[0])
	if err != nil {
		return nil, err
	}
	opts := source.CSVOptions{Trim: true}
	for name, v := range named {
		switch name {
		case "decode_header":
			opts.Header, err = wantBool("csv", v)
		case "delim":
			var s string
			s, err = wantString("csv", v)
			if err == nil {
				if utf8.RuneCountInString(s) != 1 {
					return nil, fmt.Errorf("csv wants a single-character delimiter, got %q", s)
				}
				opts.Comma, _ = utf8.DecodeRuneInString(s)
			}
		case "trim":
			opts.Trim, err = wantBool("csv", v)
		case "skip":
			opts.Skip, err = wantInt("csv", v)
		default:
			return nil, fmt.Errorf("csv does not take an argument named %q", name)
		}
		if err != nil {
			return nil, err
		}
	}
	return source.CSV(path, opts), nil
}

// tsvFn reads a tab-separated file as a repeated value of rows. The
// named argument header names columns from the first line.
type tsvFn struct{}

func (tsvFn) Call(args []any, named map[string]any) (any, error) {
	if err := arity("tsv", args, 1); err != nil {
		return nil, err
	}
	path, err := wantString("tsv", args[0])
	if err != nil {
		return nil, err
	}
	header := false
	for name, v := range named {
		switch name {
		case "header":
			header, err = wantBool("tsv", v)
		default:
			return nil, fmt.Errorf("tsv does not take an argument named %q", name)
		}
		if err != nil {
			return nil, err
		}
	}
	return source.TSV(path, header), nil
}
