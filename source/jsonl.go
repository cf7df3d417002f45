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

package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/SnellerInc/winnow/repeated"
)

// JSONLines returns the records of the NDJSON file at path as a
// repeated value, one decoded value per line. Objects decode to
// map[string]any and numbers to float64. Blank lines are skipped.
func JSONLines(path string) repeated.Value {
	return repeated.Lazy(func() repeated.Iterator {
		return &jsonlIter{path: path}
	})
}

type jsonlIter struct {
	path string
	fl   *file
	sc   *bufio.Scanner
	line int
	done bool
}

func (it *jsonlIter) Next() (any, error) {
	if it.done {
		return nil, io.EOF
	}
	if it.fl == nil {
		fl, r, err := openFile(it.path)
		if err != nil {
			it.done = true
			return nil, err
		}
		it.fl = fl
		it.sc = bufio.NewScanner(r)
		it.sc.Buffer(nil, maxLine)
	}
	for it.sc.Scan() {
		it.line++
		text := strings.TrimSpace(it.sc.Text())
		if text == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return it.fail(fmt.Errorf("%s:%d: %w", it.path, it.line, err))
		}
		return v, nil
	}
	return it.fail(it.sc.Err())
}

func (it *jsonlIter) fail(err error) (any, error) {
	it.done = true
	if cerr := it.fl.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return nil, io.EOF
}
