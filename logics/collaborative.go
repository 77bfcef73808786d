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
	"context"

	"github.com/gorse-io/recofilms/common/floats"
	"github.com/gorse-io/recofilms/common/parallel"
	"github.com/gorse-io/recofilms/dataset"
	"github.com/juju/errors"
)

// ItemBased scores every title by the sum of its similarities to profile titles
// weighted by profile ratings. Similarities are cosine between columns of the rating
// matrix. Profile titles absent from the matrix contribute nothing.
func ItemBased(ctx context.Context, matrix *dataset.RatingMatrix, profile dataset.Profile, topN, jobs int) ([]Recommendation, error) {
	columns := matrix.Columns()
	scores := make([]float32, matrix.CountTitles())
	contributed := false
	for _, entry := range profile {
		j, ok := matrix.TitleIndex(entry.Title)
		if !ok {
			continue
		}
		contributed = true
		row := make([]float32, len(columns))
		if err := parallel.For(ctx, len(columns), jobs, func(k int) {
			row[k] = Cosine(columns[j], columns[k])
		}); err != nil {
			return nil, errors.Trace(err)
		}
		floats.MulConstAdd(row, entry.Rating, scores)
	}
	if !contributed {
		return []Recommendation{}, nil
	}
	candidates := make([]Candidate, len(scores))
	for j, score := range scores {
		candidates[j] = Candidate{Title: matrix.Title(j), Score: score}
	}
	return Rank(candidates, profile.TitleSet(), topN), nil
}

// UserBased appends the profile as a new user, then scores every title by the average
// rating of other users weighted by their similarities to the profile user. Only users
// who rated a title are counted in its normalization weight. Titles without any
// positive weight are skipped.
func UserBased(ctx context.Context, matrix *dataset.RatingMatrix, profile dataset.Profile, topN, jobs int) ([]Recommendation, error) {
	profileRow, _ := matrix.ProfileRow(profile)
	similarities := make([]float32, matrix.CountUsers())
	if err := parallel.For(ctx, matrix.CountUsers(), jobs, func(i int) {
		similarities[i] = Cosine(profileRow, matrix.Row(i))
	}); err != nil {
		return nil, errors.Trace(err)
	}
	weighted := make([]float32, matrix.CountTitles())
	weights := make([]float32, matrix.CountTitles())
	for i, sim := range similarities {
		if sim == 0 {
			continue
		}
		floats.MulConstAdd(matrix.Row(i), sim, weighted)
		mask := matrix.Mask(i)
		for j, ok := mask.NextSet(0); ok; j, ok = mask.NextSet(j + 1) {
			weights[j] += sim
		}
	}
	candidates := make([]Candidate, 0, matrix.CountTitles())
	for j := range weighted {
		if weights[j] == 0 {
			continue
		}
		candidates = append(candidates, Candidate{Title: matrix.Title(j), Score: weighted[j] / weights[j]})
	}
	return Rank(candidates, profile.TitleSet(), topN), nil
}
