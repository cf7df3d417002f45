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

// Command winnow runs queries against local data files.
//
//	winnow -in people=people.csv "SELECT name FROM people WHERE age > 30"
//
// Inputs are bound to query variables with -in or through a YAML
// configuration file; the file format is guessed from the extension
// unless the configuration names one. Results print as an aligned
// table by default, or as JSON lines with -j.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"sigs.k8s.io/yaml"

	"github.com/SnellerInc/winnow"
	"github.com/SnellerInc/winnow/compr"
	"github.com/SnellerInc/winnow/row"
	"github.com/SnellerInc/winnow/source"
)

var (
	dashf     bool
	dashlisp  bool
	dashj     bool
	dashio    bool
	dashv     bool
	dasht     bool
	dashc     string
	dasho     string
	dashchunk int
	dashin    bindings
)

func init() {
	flag.BoolVar(&dashf, "f", false, "read arguments as files containing queries")
	flag.BoolVar(&dashlisp, "lisp", false, "parse arguments as lisp forms encoded in JSON")
	flag.BoolVar(&dashj, "j", false, "write output as JSON lines instead of a table")
	flag.BoolVar(&dashio, "io", false, "let queries open files themselves")
	flag.BoolVar(&dashv, "v", false, "verbose")
	flag.BoolVar(&dasht, "t", false, "print execution time on stderr")
	flag.StringVar(&dashc, "c", "", "YAML configuration file")
	flag.StringVar(&dasho, "o", "", "file for output (default is stdout)")
	flag.IntVar(&dashchunk, "chunk", 0, "rows per reduction chunk (0 uses the default)")
	flag.Var(&dashin, "in", "bind an input file to a variable as name=path (repeatable)")
}

// binding is one -in name=path argument.
type binding struct {
	name, path string
}

type bindings []binding

func (b *bindings) String() string {
	parts := make([]string, len(*b))
	for i, bd := range *b {
		parts[i] = bd.name + "=" + bd.path
	}
	return strings.Join(parts, ",")
}

func (b *bindings) Set(s string) error {
	name, path, ok := strings.Cut(s, "=")
	if !ok || name == "" || path == "" {
		return fmt.Errorf("expected name=path, got %q", s)
	}
	*b = append(*b, binding{name: name, path: path})
	return nil
}

var logger = log.New(os.Stderr, "winnow: ", 0)

func logf(f string, args ...any) {
	if dashv {
		logger.Printf(f, args...)
	}
}

func exitf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

// input describes one file bound to a query variable.
type input struct {
	Path string `json:"path"`
	// Format selects the reader: csv, tsv, jsonl or lines.
	// Empty means guess from the extension, compression suffixes
	// excluded, with lines as the fallback.
	Format string `json:"format,omitempty"`
	// NoHeader stops csv and tsv from treating the first record
	// as column names.
	NoHeader bool `json:"no_header,omitempty"`
}

type config struct {
	Inputs    map[string]input `json:"inputs,omitempty"`
	Libraries []string         `json:"libraries,omitempty"`
	AllowIO   bool             `json:"allow_io,omitempty"`
	ChunkSize int              `json:"chunk_size,omitempty"`
}

func loadConfig(path string) (*config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := new(config)
	if err := yaml.UnmarshalStrict(buf, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (in input) open() (any, error) {
	format := in.Format
	if format == "" {
		switch filepath.Ext(compr.TrimPath(in.Path)) {
		case ".csv":
			format = "csv"
		case ".tsv":
			format = "tsv"
		case ".jsonl", ".ndjson":
			format = "jsonl"
		default:
			format = "lines"
		}
	}
	switch format {
	case "csv":
		return source.CSV(in.Path, source.CSVOptions{Header: !in.NoHeader}), nil
	case "tsv":
		return source.TSV(in.Path, !in.NoHeader), nil
	case "jsonl":
		return source.JSONLines(in.Path), nil
	case "lines":
		return source.Lines(in.Path), nil
	}
	return nil, fmt.Errorf("input %s: unknown format %q", in.Path, format)
}

// decode turns a command line argument into query source: the text
// itself, the contents of a file with -f, and with -lisp the JSON
// decoding of either, which NewQuery parses as a lisp form.
func decode(arg string) (any, error) {
	text := arg
	if dashf {
		buf, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		text = string(buf)
	}
	if dashlisp {
		var form any
		if err := json.Unmarshal([]byte(text), &form); err != nil {
			return nil, fmt.Errorf("lisp form: %w", err)
		}
		return form, nil
	}
	return strings.TrimSpace(text), nil
}

func do(arg string, cfg *config, vars map[string]any, out *bufio.Writer) {
	src, err := decode(arg)
	if err != nil {
		exitf("%s\n", err)
	}
	var opts []winnow.Option
	if len(cfg.Libraries) > 0 {
		opts = append(opts, winnow.WithLibraries(cfg.Libraries...))
	}
	if dashio || cfg.AllowIO {
		opts = append(opts, winnow.AllowIO())
	}
	chunk := dashchunk
	if chunk == 0 {
		chunk = cfg.ChunkSize
	}
	if chunk > 0 {
		opts = append(opts, winnow.WithChunkSize(chunk))
	}
	q, err := winnow.NewQuery(src, opts...)
	if err != nil {
		exitf("%s\n", err)
	}
	logf("query %s: %s", q.ID, q.Source)
	start := time.Now()
	res, err := q.Run(vars)
	if err != nil {
		exitf("%s\n", err)
	}
	vals, err := winnow.Values(res)
	if err != nil {
		exitf("%s\n", err)
	}
	logf("query %s: %d rows in %v", q.ID, len(vals), time.Since(start))
	if dashj {
		err = writeJSON(out, vals)
	} else {
		err = writeTable(out, vals)
	}
	if err != nil {
		exitf("%s\n", err)
	}
}

func writeJSON(out io.Writer, vals []any) error {
	enc := json.NewEncoder(out)
	for _, v := range vals {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

// displayRow views v as a tuple for table rendering. Decoded JSON
// objects get their keys sorted so columns are stable across rows.
func displayRow(v any) (*row.Tuple, bool) {
	switch v := v.(type) {
	case *row.Tuple:
		return v, true
	case map[string]any:
		keys := maps.Keys(v)
		slices.Sort(keys)
		cols := make([]row.Column, len(keys))
		for i, k := range keys {
			cols[i] = row.Column{Name: k, Value: v[k]}
		}
		return row.New(cols...), true
	}
	return nil, false
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func writeTable(w io.Writer, vals []any) error {
	if len(vals) == 0 {
		return nil
	}
	rows := make([]*row.Tuple, len(vals))
	var names []string
	for i, v := range vals {
		t, ok := displayRow(v)
		if !ok {
			// not tabular; print one value per line
			for _, v := range vals {
				fmt.Fprintln(w, cell(v))
			}
			return nil
		}
		rows[i] = t
		for _, n := range t.Names() {
			if !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	for _, t := range rows {
		cells := make([]string, len(names))
		for i, n := range names {
			v, _ := t.Get(n)
			cells[i] = cell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: winnow [options] <query> ...")
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := new(config)
	if dashc != "" {
		c, err := loadConfig(dashc)
		if err != nil {
			exitf("%s\n", err)
		}
		cfg = c
	}
	for _, b := range dashin {
		if cfg.Inputs == nil {
			cfg.Inputs = make(map[string]input)
		}
		cfg.Inputs[b.name] = input{Path: b.path}
	}
	vars := make(map[string]any, len(cfg.Inputs))
	for name, in := range cfg.Inputs {
		v, err := in.open()
		if err != nil {
			exitf("%s\n", err)
		}
		logf("input %s: %s", name, in.Path)
		vars[name] = v
	}

	var dst io.WriteCloser = os.Stdout
	if dasho != "" {
		f, err := os.Create(dasho)
		if err != nil {
			exitf("%s\n", err)
		}
		dst = f
	}
	out := bufio.NewWriter(dst)

	start := time.Now()
	for _, arg := range args {
		do(arg, cfg, vars, out)
	}
	if err := out.Flush(); err != nil {
		exitf("%s\n", err)
	}
	if err := dst.Close(); err != nil {
		exitf("%s\n", err)
	}
	if dasht {
		fmt.Fprintf(os.Stderr, "execution time: %v\n", time.Since(start))
	}
}
