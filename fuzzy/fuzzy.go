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

// Package fuzzy implements the edit distances behind the approximate
// string functions. Distances are computed over runes, not bytes.
package fuzzy

func minimum(is ...int) int {
	min := is[0]
	for _, i := range is {
		if min > i {
			min = i
		}
	}
	return min
}

// Levenshtein returns the edit distance between a and b: the least
// number of single-rune insertions, deletions and substitutions that
// transforms one into the other. It runs in O(len(a)*len(b)) time and
// keeps only two rows of the distance matrix.
func Levenshtein(a, b string) int {
	x, y := []rune(a), []rune(b)
	if len(x) == 0 {
		return len(y)
	}
	if len(y) == 0 {
		return len(x)
	}
	if len(x) > len(y) {
		// rows cover the shorter string
		x, y = y, x
	}
	prev := make([]int, len(x)+1)
	cur := make([]int, len(x)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(y); i++ {
		cur[0] = i
		for j := 1; j <= len(x); j++ {
			cost := 1
			if x[j-1] == y[i-1] {
				cost = 0
			}
			cur[j] = minimum(
				prev[j-1]+cost, // substitution
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
			)
		}
		prev, cur = cur, prev
	}
	return prev[len(x)]
}

// A Damerau computes the true Damerau-Levenshtein distance, which
// additionally counts transposing two adjacent runes as one operation.
// The zero value is ready to use. The distance matrix and the alphabet
// table are retained between calls, so one Damerau must not be shared
// between goroutines.
type Damerau struct {
	matrix [][]int
	da     map[rune]int
}

var defaultDamerau Damerau

// Distance returns the Damerau-Levenshtein distance between a and b
// using a shared scratch instance. Not safe for concurrent use; callers
// that need that should keep a Damerau per goroutine.
func Distance(a, b string) int {
	return defaultDamerau.Distance(a, b)
}

// Distance returns the Damerau-Levenshtein distance between a and b.
func (d *Damerau) Distance(a, b string) int {
	x, y := []rune(a), []rune(b)
	lenA, lenB := len(x), len(y)
	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}
	d.grow(lenA, lenB)
	if d.da == nil {
		d.da = make(map[rune]int)
	}
	for _, r := range x {
		d.da[r] = 0
	}
	for _, r := range y {
		d.da[r] = 0
	}

	big := lenA + lenB + 1
	d.matrix[0][0] = big
	for i := 0; i <= lenA; i++ {
		d.matrix[i+1][1] = i
		d.matrix[i+1][0] = big
	}
	for j := 0; j <= lenB; j++ {
		d.matrix[1][j+1] = j
		d.matrix[0][j+1] = big
	}

	for i := 1; i <= lenA; i++ {
		db := 0
		for j := 1; j <= lenB; j++ {
			i1 := d.da[y[j-1]]
			j1 := db
			cost := 1
			if x[i-1] == y[j-1] {
				cost = 0
				db = j
			}
			d.matrix[i+1][j+1] = minimum(
				d.matrix[i][j]+cost,                  // substitution
				d.matrix[i+1][j]+1,                   // insertion
				d.matrix[i][j+1]+1,                   // deletion
				d.matrix[i1][j1]+(i-i1-1)+1+(j-j1-1), // transposition
			)
		}
		d.da[x[i-1]] = i
	}
	return d.matrix[lenA+1][lenB+1]
}

func (d *Damerau) grow(lenA, lenB int) {
	need := lenA + 2
	if lenB+2 > need {
		need = lenB + 2
	}
	if need <= len(d.matrix) {
		return
	}
	size := 2*len(d.matrix) + need
	d.matrix = make([][]int, size)
	for i := range d.matrix {
		d.matrix[i] = make([]int, size)
	}
}
