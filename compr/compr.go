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

// Package compr wraps the third-party compression libraries behind a
// small streaming interface so data sources can read compressed files
// transparently.
package compr

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// exts maps a path suffix to the compression it implies.
var exts = map[string]string{
	".zst":  "zstd",
	".zstd": "zstd",
	".s2":   "s2",
	".gz":   "gzip",
}

// DetectPath returns the name of the compression implied by the
// extension of path, or "" when the path looks uncompressed.
func DetectPath(path string) string {
	for ext, name := range exts {
		if strings.HasSuffix(path, ext) {
			return name
		}
	}
	return ""
}

// TrimPath returns path with a recognized compression extension
// removed, so format detection can see the inner extension of names
// like data.csv.zst.
func TrimPath(path string) string {
	for ext := range exts {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

// Reader wraps r with the named decompression algorithm. An empty name
// means no compression. The caller still owns closing the underlying
// reader; closing the returned reader only releases decoder state.
func Reader(r io.Reader, name string) (io.ReadCloser, error) {
	switch name {
	case "":
		return io.NopCloser(r), nil
	case "zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case "s2":
		return io.NopCloser(s2.NewReader(r)), nil
	case "gzip":
		return gzip.NewReader(r)
	}
	return nil, fmt.Errorf("compr: unknown compression %q", name)
}

// PathReader wraps r with the decompression implied by the extension
// of path.
func PathReader(r io.Reader, path string) (io.ReadCloser, error) {
	return Reader(r, DetectPath(path))
}
