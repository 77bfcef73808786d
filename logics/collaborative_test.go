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
	"strings"
	"testing"

	"github.com/gorse-io/recofilms/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newToyDataset returns 4 movies rated by 3 users:
//
//	     A  B  C  D
//	u1   5  3  4  -
//	u2   4  -  5  2
//	u3   -  2  -  4
func newToyDataset() *dataset.Dataset {
	return dataset.NewDataset([]dataset.RatingRecord{
		{UserId: "u1", Title: "A", Rating: 5, Genres: "Action|Comedy"},
		{UserId: "u1", Title: "B", Rating: 3, Genres: "Drama"},
		{UserId: "u1", Title: "C", Rating: 4, Genres: "Action"},
		{UserId: "u2", Title: "A", Rating: 4, Genres: "Action|Comedy"},
		{UserId: "u2", Title: "C", Rating: 5, Genres: "Action"},
		{UserId: "u2", Title: "D", Rating: 2, Genres: "Comedy|Drama"},
		{UserId: "u3", Title: "B", Rating: 2, Genres: "Drama"},
		{UserId: "u3", Title: "D", Rating: 4, Genres: "Comedy|Drama"},
	})
}

// newToyProfile rates two known movies and one movie absent from the dataset.
func newToyProfile(t *testing.T) dataset.Profile {
	profile, err := dataset.NewProfile(
		dataset.ProfileEntry{Title: "A", Rating: 4, Genres: "Action|Comedy"},
		dataset.ProfileEntry{Title: "D", Rating: 2, Genres: "Comedy|Drama"},
		dataset.ProfileEntry{Title: "Z", Rating: 5, Genres: "Horror"},
	)
	require.NoError(t, err)
	return profile
}

func TestItemBased(t *testing.T) {
	matrix := dataset.NewRatingMatrix(newToyDataset())
	recommendations, err := ItemBased(context.Background(), matrix, newToyProfile(t), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, titlesOf(recommendations))
	// C = 4 * 40/41 + 2 * 10/sqrt(820)
	assert.InDelta(t, 4.60087, recommendations[0].Score, 1e-4)
	// B = 4 * 15/sqrt(533) + 2 * 8/sqrt(260)
	assert.InDelta(t, 3.59117, recommendations[1].Score, 1e-4)
	assert.Equal(t, 1, recommendations[0].Rank)
	assert.Equal(t, 2, recommendations[1].Rank)

	// top 1
	recommendations, err = ItemBased(context.Background(), matrix, newToyProfile(t), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, titlesOf(recommendations))
}

func TestItemBasedMissingRating(t *testing.T) {
	d, err := dataset.LoadCSV(strings.NewReader(`userId,title,rating,genres
u1,A,5.0,Action|Comedy
u1,B,3.0,Drama
u1,C,4.0,Action
u2,A,4.0,Action|Comedy
u2,A,NaN,Action|Comedy
u2,C,5.0,Action
u2,D,2.0,Comedy|Drama
u3,B,2.0,Drama
u3,D,4.0,Comedy|Drama
`))
	require.NoError(t, err)
	recommendations, err := ItemBased(context.Background(), dataset.NewRatingMatrix(d), newToyProfile(t), 5, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, titlesOf(recommendations))
	assert.InDelta(t, 4.60087, recommendations[0].Score, 1e-4)
}

func TestItemBasedUnknownTitles(t *testing.T) {
	matrix := dataset.NewRatingMatrix(newToyDataset())
	profile := dataset.Profile{{Title: "X", Rating: 1}, {Title: "Y", Rating: 2}, {Title: "Z", Rating: 3}}
	recommendations, err := ItemBased(context.Background(), matrix, profile, 5, 1)
	require.NoError(t, err)
	assert.Empty(t, recommendations)
}

func TestUserBased(t *testing.T) {
	matrix := dataset.NewRatingMatrix(newToyDataset())
	recommendations, err := UserBased(context.Background(), matrix, newToyProfile(t), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, titlesOf(recommendations))
	assert.InDelta(t, 4.51317, recommendations[0].Score, 1e-4)
	assert.InDelta(t, 2.61257, recommendations[1].Score, 1e-4)
}

func TestUserBasedZeroRating(t *testing.T) {
	// a rating of zero is a rating: u2 counts in the normalization of B
	d := dataset.NewDataset([]dataset.RatingRecord{
		{UserId: "u1", Title: "A", Rating: 4},
		{UserId: "u1", Title: "B", Rating: 4},
		{UserId: "u2", Title: "A", Rating: 4},
		{UserId: "u2", Title: "B", Rating: 0},
		{UserId: "u3", Title: "C", Rating: 3},
	})
	profile := dataset.Profile{{Title: "A", Rating: 5}, {Title: "X", Rating: 1}, {Title: "Y", Rating: 1}}
	recommendations, err := UserBased(context.Background(), dataset.NewRatingMatrix(d), profile, 5, 1)
	require.NoError(t, err)
	// C is only rated by u3 who is not similar to the profile user
	assert.Equal(t, []string{"B"}, titlesOf(recommendations))
	// B = (4 * sqrt(2)/2 + 0 * 1) / (sqrt(2)/2 + 1)
	assert.InDelta(t, 1.65685, recommendations[0].Score, 1e-4)
}

func TestGenreAverage(t *testing.T) {
	d := newToyDataset()
	recommendations := GenreAverage(d, dataset.NewGenreEncoder(d), newToyProfile(t), 5)
	assert.Equal(t, []string{"C", "B"}, titlesOf(recommendations))
	// query = (4 * [1,1,0] + 2 * [0,1,1] + 5 * [0,0,0]) / 11
	assert.InDelta(t, 0.53452, recommendations[0].Score, 1e-4)
	assert.InDelta(t, 0.26726, recommendations[1].Score, 1e-4)
}

func TestGenreAverageZeroRatings(t *testing.T) {
	d := newToyDataset()
	profile := dataset.Profile{
		{Title: "A", Rating: 0, Genres: "Action|Comedy"},
		{Title: "D", Rating: 0, Genres: "Comedy|Drama"},
		{Title: "Z", Rating: 0, Genres: "Horror"},
	}
	recommendations := GenreAverage(d, dataset.NewGenreEncoder(d), profile, 5)
	// query = ([1,1,0] + [0,1,1] + [0,0,0]) / 3, ties keep the catalog order
	assert.Equal(t, []string{"B", "C"}, titlesOf(recommendations))
	assert.InDelta(t, 0.40825, recommendations[0].Score, 1e-4)
	assert.InDelta(t, 0.40825, recommendations[1].Score, 1e-4)
}

func TestBestRatedGenre(t *testing.T) {
	d := newToyDataset()
	encoder := dataset.NewGenreEncoder(d)

	// the best rated movie has no known genre
	recommendations := BestRatedGenre(d, encoder, newToyProfile(t), 5)
	assert.Equal(t, []string{"B", "C"}, titlesOf(recommendations))
	assert.Zero(t, recommendations[0].Score)

	// ties are broken by the order of the profile
	profile := dataset.Profile{
		{Title: "B", Rating: 3, Genres: "Drama"},
		{Title: "A", Rating: 5, Genres: "Action|Comedy"},
		{Title: "D", Rating: 5, Genres: "Comedy|Drama"},
	}
	recommendations = BestRatedGenre(d, encoder, profile, 5)
	assert.Equal(t, []string{"C"}, titlesOf(recommendations))
	assert.InDelta(t, 0.70711, recommendations[0].Score, 1e-4)
}

func TestContentBasedDuplicatedRows(t *testing.T) {
	d := dataset.NewDataset([]dataset.RatingRecord{
		{UserId: "u1", Title: "A", Rating: 5, Genres: "Action"},
		{UserId: "u1", Title: "B", Rating: 5, Genres: "Action"},
		{UserId: "u2", Title: "B", Rating: 1, Genres: "Drama"},
		{UserId: "u2", Title: "C", Rating: 1, Genres: "Action|Drama"},
		{UserId: "u3", Title: "E", Rating: 1, Genres: "Drama"},
		{UserId: "u3", Title: "F", Rating: 1, Genres: "Drama"},
	})
	profile := dataset.Profile{
		{Title: "A", Rating: 5, Genres: "Action"},
		{Title: "E", Rating: 1, Genres: "Drama"},
		{Title: "F", Rating: 1, Genres: "Drama"},
	}
	recommendations := BestRatedGenre(d, dataset.NewGenreEncoder(d), profile, 5)
	// genres of B come from its first row
	assert.Equal(t, []string{"B", "C"}, titlesOf(recommendations))
	assert.InDelta(t, 1, recommendations[0].Score, 1e-5)
}
