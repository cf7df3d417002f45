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

package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/SnellerInc/winnow/repeated"
	"github.com/SnellerInc/winnow/row"
)

func TestBindings(t *testing.T) {
	var b bindings
	if err := b.Set("people=people.csv"); err != nil {
		t.Fatal(err)
	}
	if err := b.Set("logs=x/y.jsonl"); err != nil {
		t.Fatal(err)
	}
	want := bindings{{"people", "people.csv"}, {"logs", "x/y.jsonl"}}
	if !reflect.DeepEqual(b, want) {
		t.Errorf("got %v", b)
	}
	if got := b.String(); got != "people=people.csv,logs=x/y.jsonl" {
		t.Errorf("String = %q", got)
	}
	for _, bad := range []string{"nope", "=path", "name="} {
		if err := b.Set(bad); err == nil {
			t.Errorf("Set(%q) did not fail", bad)
		}
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInputFormats(t *testing.T) {
	csv := writeTemp(t, "people.csv", "name,age\nbob,10\n")
	vals, err := openAll(t, input{Path: csv})
	if err != nil {
		t.Fatal(err)
	}
	tup, ok := vals[0].(*row.Tuple)
	if !ok {
		t.Fatalf("csv row is %T", vals[0])
	}
	if name, _ := tup.Get("name"); name != "bob" {
		t.Errorf("name = %v", name)
	}

	jsonl := writeTemp(t, "recs.jsonl", "{\"a\":1}\n")
	vals, err = openAll(t, input{Path: jsonl})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := vals[0].(map[string]any); !ok {
		t.Fatalf("jsonl row is %T", vals[0])
	}

	txt := writeTemp(t, "notes.txt", "hello\n")
	vals, err = openAll(t, input{Path: txt})
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != "hello" {
		t.Errorf("line = %v", vals[0])
	}

	if _, err := (input{Path: txt, Format: "parquet"}).open(); err == nil {
		t.Error("unknown format did not fail")
	}
}

func openAll(t *testing.T, in input) ([]any, error) {
	t.Helper()
	v, err := in.open()
	if err != nil {
		return nil, err
	}
	return repeated.Values(v)
}

func TestLoadConfig(t *testing.T) {
	path := writeTemp(t, "conf.yaml", `
inputs:
  people:
    path: people.csv
  logs:
    path: raw.txt
    format: lines
libraries: [stdcore, stdmath, stdio]
allow_io: true
chunk_size: 128
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Inputs["people"].Path != "people.csv" {
		t.Errorf("people input = %+v", cfg.Inputs["people"])
	}
	if cfg.Inputs["logs"].Format != "lines" {
		t.Errorf("logs input = %+v", cfg.Inputs["logs"])
	}
	if !cfg.AllowIO || cfg.ChunkSize != 128 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Libraries, []string{"stdcore", "stdmath", "stdio"}) {
		t.Errorf("libraries = %v", cfg.Libraries)
	}

	bad := writeTemp(t, "bad.yaml", "inputs: {}\nchunksize: 1\n")
	if _, err := loadConfig(bad); err == nil {
		t.Error("unknown key did not fail")
	}
}

func TestWriteTable(t *testing.T) {
	var sb strings.Builder
	vals := []any{
		row.New(row.Column{Name: "name", Value: "bob"}, row.Column{Name: "age", Value: 10}),
		map[string]any{"name": "eve", "age": 30},
	}
	if err := writeTable(&sb, vals); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), sb.String())
	}
	if f := strings.Fields(lines[0]); !reflect.DeepEqual(f, []string{"name", "age"}) {
		t.Errorf("header = %q", lines[0])
	}
	if f := strings.Fields(lines[2]); !reflect.DeepEqual(f, []string{"eve", "30"}) {
		t.Errorf("map row = %q", lines[2])
	}

	sb.Reset()
	if err := writeTable(&sb, []any{int64(10), "x"}); err != nil {
		t.Fatal(err)
	}
	if sb.String() != "10\nx\n" {
		t.Errorf("scalar rows = %q", sb.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var sb strings.Builder
	vals := []any{
		row.New(row.Column{Name: "b", Value: 1}, row.Column{Name: "a", Value: 2}),
		"text",
	}
	if err := writeJSON(&sb, vals); err != nil {
		t.Fatal(err)
	}
	want := "{\"b\":1,\"a\":2}\n\"text\"\n"
	if sb.String() != want {
		t.Errorf("got %q, want %q", sb.String(), want)
	}
}
