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
	"github.com/gorse-io/recofilms/common/floats"
	"github.com/gorse-io/recofilms/dataset"
)

// GenreAverage uses the average genre vector of profile movies weighted by ratings as
// the query. If every rating is zero, the unweighted average is used.
func GenreAverage(d *dataset.Dataset, encoder *dataset.GenreEncoder, profile dataset.Profile, topN int) []Recommendation {
	query := make([]float32, len(encoder.Classes()))
	var sumRatings float32
	for _, entry := range profile {
		sumRatings += entry.Rating
	}
	for _, entry := range profile {
		weight := entry.Rating
		if sumRatings == 0 {
			weight = 1
		}
		floats.MulConstAdd(encoder.Transform(entry.Genres), weight, query)
	}
	if sumRatings > 0 {
		floats.MulConst(query, 1/sumRatings)
	} else if len(profile) > 0 {
		floats.MulConst(query, 1/float32(len(profile)))
	}
	return genreSearch(d, encoder, query, profile, topN)
}

// BestRatedGenre uses the genre vector of the best rated profile movie as the query.
// The first one wins if several movies share the best rating.
func BestRatedGenre(d *dataset.Dataset, encoder *dataset.GenreEncoder, profile dataset.Profile, topN int) []Recommendation {
	if len(profile) == 0 {
		return []Recommendation{}
	}
	best := profile[0]
	for _, entry := range profile[1:] {
		if entry.Rating > best.Rating {
			best = entry
		}
	}
	return genreSearch(d, encoder, encoder.Transform(best.Genres), profile, topN)
}

// genreSearch ranks catalog titles by cosine similarity between their genres and the query.
func genreSearch(d *dataset.Dataset, encoder *dataset.GenreEncoder, query []float32, profile dataset.Profile, topN int) []Recommendation {
	titles := d.Titles()
	vectors := make([][]float32, len(titles))
	for i, title := range titles {
		genres, _ := d.Genres(title)
		vectors[i] = encoder.Transform(genres)
	}
	scores := CosineRow(query, vectors)
	candidates := make([]Candidate, len(titles))
	for i, title := range titles {
		candidates[i] = Candidate{Title: title, Score: scores[i]}
	}
	return Rank(candidates, profile.TitleSet(), topN)
}
