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
	"strings"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// ProfileSize is the number of movies a user rates to get recommendations.
const ProfileSize = 3

// ProfileEntry is a movie rated by the user.
type ProfileEntry struct {
	Title  string  `json:"title"`
	Rating float32 `json:"rating"`
	Genres string  `json:"genres,omitempty"`
}

// Profile is the query of a recommendation: exactly three distinct rated movies.
type Profile []ProfileEntry

// NewProfile copies and validates entries.
func NewProfile(entries ...ProfileEntry) (Profile, error) {
	profile := make(Profile, len(entries))
	for i, entry := range entries {
		entry.Title = strings.TrimSpace(entry.Title)
		profile[i] = entry
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

// Validate checks size, titles and ratings of the profile.
func (p Profile) Validate() error {
	if len(p) != ProfileSize {
		return errors.NotValidf("profile with %d movies (expect %d)", len(p), ProfileSize)
	}
	titles := mapset.NewThreadUnsafeSet[string]()
	for _, entry := range p {
		if entry.Title == "" {
			return errors.NotValidf("empty title")
		}
		if titles.Contains(entry.Title) {
			return errors.NotValidf("duplicate title %q", entry.Title)
		}
		titles.Add(entry.Title)
		if math32.IsNaN(entry.Rating) || entry.Rating < MinRating || entry.Rating > MaxRating {
			return errors.NotValidf("rating %v of %q", entry.Rating, entry.Title)
		}
	}
	return nil
}

func (p Profile) Titles() []string {
	return lo.Map(p, func(entry ProfileEntry, _ int) string { return entry.Title })
}

// TitleSet returns profile titles as a set.
func (p Profile) TitleSet() mapset.Set[string] {
	return mapset.NewThreadUnsafeSet(p.Titles()...)
}

// WithGenres returns a copy whose genres are taken from the first record of the same
// title in the dataset. Genres given by the caller are kept for unknown titles.
func (p Profile) WithGenres(d *Dataset) Profile {
	filled := make(Profile, len(p))
	copy(filled, p)
	for i := range filled {
		if genres, ok := d.Genres(filled[i].Title); ok {
			filled[i].Genres = genres
		}
	}
	return filled
}
