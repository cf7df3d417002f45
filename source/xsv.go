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
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/winnow/repeated"
	"github.com/SnellerInc/winnow/row"
)

// CSVOptions configures a CSV reader.
type CSVOptions struct {
	// Header treats the first record as column names; rows then
	// resolve their fields by those names. Without it columns are
	// named by position.
	Header bool
	// Comma is the field separator. Zero means ','.
	Comma rune
	// Skip drops the first N records before the header or data.
	Skip int
	// Trim discards whitespace directly after the separator.
	Trim bool
}

// CSV returns the records of the RFC 4180 file at path as a repeated
// value of rows. Field values are strings; quoted fields may span
// lines.
func CSV(path string, opts CSVOptions) repeated.Value {
	return repeated.Lazy(func() repeated.Iterator {
		return &csvIter{path: path, opts: opts}
	})
}

type csvIter struct {
	path  string
	opts  CSVOptions
	fl    *file
	cr    *csv.Reader
	names []string
	done  bool
}

func (it *csvIter) Next() (any, error) {
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
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.ReuseRecord = true
		cr.LazyQuotes = true
		cr.TrimLeadingSpace = it.opts.Trim
		if it.opts.Comma != 0 {
			cr.Comma = it.opts.Comma
		}
		it.cr = cr
		for i := 0; i < it.opts.Skip; i++ {
			if _, err := cr.Read(); err != nil {
				return it.finish(err)
			}
		}
		if it.opts.Header {
			hdr, err := cr.Read()
			if err != nil {
				return it.finish(err)
			}
			// the record buffer is reused, the header is not
			it.names = slices.Clone(hdr)
		}
	}
	rec, err := it.cr.Read()
	if err != nil {
		return it.finish(err)
	}
	return record(rec, it.names), nil
}

func (it *csvIter) finish(err error) (any, error) {
	it.done = true
	if cerr := it.fl.Close(); err == nil || err == io.EOF {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// record builds a row from fields. Fields beyond the named columns
// keep positional names.
func record(fields, names []string) *row.Tuple {
	cols := make([]row.Column, len(fields))
	for i, f := range fields {
		name := strconv.Itoa(i)
		if i < len(names) {
			name = names[i]
		}
		cols[i] = row.Column{Name: name, Value: f}
	}
	return row.New(cols...)
}

// TSV returns the records of the tab-separated file at path as a
// repeated value of rows. Unlike CSV, TSV has no quoting: tabs,
// newlines and backslashes inside fields arrive as the escape
// sequences \t, \n, \r and \\, which are decoded here. With header
// set, the first line names the columns.
func TSV(path string, header bool) repeated.Value {
	return repeated.Lazy(func() repeated.Iterator {
		return &tsvIter{path: path, header: header}
	})
}

type tsvIter struct {
	path   string
	header bool
	fl     *file
	sc     *bufio.Scanner
	names  []string
	done   bool
}

var tsvUnescape = strings.NewReplacer(
	`\\`, "\\",
	`\t`, "\t",
	`\n`, "\n",
	`\r`, "\r",
)

func splitTSV(line string) []string {
	fields := strings.Split(line, "\t")
	for i, f := range fields {
		if strings.Contains(f, "\\") {
			fields[i] = tsvUnescape.Replace(f)
		}
	}
	return fields
}

func (it *tsvIter) Next() (any, error) {
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
		if it.header {
			if !it.sc.Scan() {
				return it.finish()
			}
			it.names = splitTSV(it.sc.Text())
		}
	}
	if !it.sc.Scan() {
		return it.finish()
	}
	return record(splitTSV(it.sc.Text()), it.names), nil
}

func (it *tsvIter) finish() (any, error) {
	err := it.sc.Err()
	it.done = true
	if cerr := it.fl.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return nil, io.EOF
}
