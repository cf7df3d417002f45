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

// Package source surfaces data files as repeated values.
//
// Every reader here is lazy and restartable: each iteration re-opens
// the file and streams it, so results can be replayed and files larger
// than memory stay usable. Compressed inputs (.gz, .zst, .s2) are
// decompressed transparently based on the file extension.
//
// A file stays open until its iterator is drained. An iterator that is
// abandoned mid-stream releases the descriptor when it is collected.
package source

import (
	"bufio"
	"io"
	"os"
	"runtime"

	"github.com/SnellerInc/winnow/compr"
	"github.com/SnellerInc/winnow/repeated"
)

// lines longer than this fail rather than silently truncating
const maxLine = 1 << 20

// file pairs an open descriptor with its decompression wrapper.
// The finalizer backstops iterators that are dropped before EOF.
type file struct {
	f  *os.File
	rc io.ReadCloser
}

func openFile(path string) (*file, io.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	rc, err := compr.PathReader(f, path)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	fl := &file{f: f, rc: rc}
	runtime.SetFinalizer(fl, (*file).Close)
	return fl, rc, nil
}

func (fl *file) Close() error {
	if fl.f == nil {
		return nil
	}
	runtime.SetFinalizer(fl, nil)
	err := fl.rc.Close()
	if cerr := fl.f.Close(); err == nil {
		err = cerr
	}
	fl.f = nil
	fl.rc = nil
	return err
}

// Lines returns the lines of the text file at path as a repeated value
// of strings, without their line terminators.
func Lines(path string) repeated.Value {
	return repeated.Lazy(func() repeated.Iterator {
		return &lineIter{path: path}
	})
}

type lineIter struct {
	path string
	fl   *file
	sc   *bufio.Scanner
	done bool
}

func (it *lineIter) Next() (any, error) {
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
	if it.sc.Scan() {
		return it.sc.Text(), nil
	}
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
