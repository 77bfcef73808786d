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

package logics

import (
	"sort"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultTopN is the number of recommendations if the caller doesn't ask for another.
const DefaultTopN = 5

// Candidate is a scored title before ranking.
type Candidate struct {
	Title string
	Score float32
}

// Recommendation is a ranked title. Rank starts from 1 and is for display only.
type Recommendation struct {
	Rank  int     `json:"rank"`
	Title string  `json:"title"`
	Score float32 `json:"score"`
}

// Rank removes excluded titles, duplicated titles (the first finite one is kept) and
// non-finite scores, then sorts candidates by score in descending order. Ties keep the
// order of candidates. At most topN recommendations are returned.
func Rank(candidates []Candidate, exclude mapset.Set[string], topN int) []Recommendation {
	seen := mapset.NewThreadUnsafeSet[string]()
	filtered := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if exclude != nil && exclude.Contains(candidate.Title) {
			continue
		}
		if math32.IsNaN(candidate.Score) || math32.IsInf(candidate.Score, 0) {
			continue
		}
		if seen.Contains(candidate.Title) {
			continue
		}
		seen.Add(candidate.Title)
		filtered = append(filtered, candidate)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	if topN < 0 {
		topN = 0
	}
	if len(filtered) > topN {
		filtered = filtered[:topN]
	}
	recommendations := make([]Recommendation, len(filtered))
	for i, candidate := range filtered {
		recommendations[i] = Recommendation{
			Rank:  i + 1,
			Title: candidate.Title,
			Score: candidate.Score,
		}
	}
	return recommendations
}
