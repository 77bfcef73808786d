// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/samber/lo"
)

// RatingMatrix is a dense users × titles matrix. Users and titles are sorted. Duplicated
// (user, title) pairs are averaged. Missing ratings are stored as zero and marked by a
// cleared bit in the row mask, so a real zero rating stays distinguishable from no rating.
type RatingMatrix struct {
	users      []string
	titles     []string
	userIndex  map[string]int
	titleIndex map[string]int
	values     [][]float32
	masks      []*bitset.BitSet
}

func NewRatingMatrix(d *Dataset) *RatingMatrix {
	m := &RatingMatrix{
		userIndex:  make(map[string]int),
		titleIndex: make(map[string]int),
	}
	m.users = lo.Uniq(lo.Map(d.records, func(r RatingRecord, _ int) string { return r.UserId }))
	sort.Strings(m.users)
	m.titles = make([]string, len(d.titles))
	copy(m.titles, d.titles)
	sort.Strings(m.titles)
	for i, user := range m.users {
		m.userIndex[user] = i
	}
	for j, title := range m.titles {
		m.titleIndex[title] = j
	}
	counts := make([][]int, len(m.users))
	m.values = make([][]float32, len(m.users))
	m.masks = make([]*bitset.BitSet, len(m.users))
	for i := range m.users {
		counts[i] = make([]int, len(m.titles))
		m.values[i] = make([]float32, len(m.titles))
		m.masks[i] = bitset.New(uint(len(m.titles)))
	}
	for _, record := range d.records {
		i, j := m.userIndex[record.UserId], m.titleIndex[record.Title]
		m.values[i][j] += record.Rating
		counts[i][j]++
		m.masks[i].Set(uint(j))
	}
	for i := range m.values {
		for j := range m.values[i] {
			if counts[i][j] > 1 {
				m.values[i][j] /= float32(counts[i][j])
			}
		}
	}
	return m
}

func (m *RatingMatrix) CountUsers() int {
	return len(m.users)
}

func (m *RatingMatrix) CountTitles() int {
	return len(m.titles)
}

func (m *RatingMatrix) Title(j int) string {
	return m.titles[j]
}

// Titles returns the sorted titles (columns).
func (m *RatingMatrix) Titles() []string {
	return m.titles
}

func (m *RatingMatrix) TitleIndex(title string) (int, bool) {
	j, ok := m.titleIndex[title]
	return j, ok
}

// Row returns ratings of the i-th user. The slice must not be modified.
func (m *RatingMatrix) Row(i int) []float32 {
	return m.values[i]
}

// Mask returns the presence mask of the i-th user. The bitset must not be modified.
func (m *RatingMatrix) Mask(i int) *bitset.BitSet {
	return m.masks[i]
}

// Columns returns the transposed matrix: one rating vector over users per title.
func (m *RatingMatrix) Columns() [][]float32 {
	columns := make([][]float32, len(m.titles))
	for j := range columns {
		columns[j] = make([]float32, len(m.users))
		for i := range m.users {
			columns[j][i] = m.values[i][j]
		}
	}
	return columns
}

// ProfileRow builds a row for a user outside the matrix. Titles unknown to the matrix
// are ignored.
func (m *RatingMatrix) ProfileRow(profile Profile) ([]float32, *bitset.BitSet) {
	row := make([]float32, len(m.titles))
	mask := bitset.New(uint(len(m.titles)))
	for _, entry := range profile {
		if j, ok := m.titleIndex[entry.Title]; ok {
			row[j] = entry.Rating
			mask.Set(uint(j))
		}
	}
	return row, mask
}
