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
	"strings"

	"github.com/samber/lo"
)

const GenreSeparator = "|"

// SplitGenres splits a genre string like "Action|Comedy" into labels.
func SplitGenres(genres string) []string {
	var labels []string
	for _, label := range strings.Split(genres, GenreSeparator) {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// GenreEncoder is a multi-label binarizer of genres. Classes are sorted labels.
type GenreEncoder struct {
	classes []string
	index   map[string]int
}

// NewGenreEncoder fits an encoder on every record of the dataset.
func NewGenreEncoder(d *Dataset) *GenreEncoder {
	var labels []string
	for _, record := range d.records {
		labels = append(labels, SplitGenres(record.Genres)...)
	}
	classes := lo.Uniq(labels)
	sort.Strings(classes)
	e := &GenreEncoder{
		classes: classes,
		index:   make(map[string]int, len(classes)),
	}
	for i, class := range classes {
		e.index[class] = i
	}
	return e
}

func (e *GenreEncoder) Classes() []string {
	return e.classes
}

// Transform encodes genres to a multi-hot vector. Unknown labels are ignored.
func (e *GenreEncoder) Transform(genres string) []float32 {
	vec := make([]float32, len(e.classes))
	for _, label := range SplitGenres(genres) {
		if i, ok := e.index[label]; ok {
			vec[i] = 1
		}
	}
	return vec
}
