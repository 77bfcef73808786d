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

// Rating is an observed rating in a train set, indexed by the other side of the pair.
type Rating struct {
	Index int
	Value float32
}

// TrainSet is the input of rating prediction models. Users and items are indexed in
// order of first appearance.
type TrainSet struct {
	UserDict    *FreqDict
	ItemDict    *FreqDict
	UserIndices []int
	ItemIndices []int
	Values      []float32
	UserRatings [][]Rating
	ItemRatings [][]Rating
	GlobalMean  float32
}

// NewTrainSet builds a train set from several groups of records. Duplicated pairs are
// kept as separate observations.
func NewTrainSet(groups ...[]RatingRecord) *TrainSet {
	t := &TrainSet{
		UserDict: NewFreqDict(),
		ItemDict: NewFreqDict(),
	}
	var sum float64
	for _, records := range groups {
		for _, record := range records {
			u, i := t.UserDict.Id(record.UserId), t.ItemDict.Id(record.Title)
			for u >= len(t.UserRatings) {
				t.UserRatings = append(t.UserRatings, nil)
			}
			for i >= len(t.ItemRatings) {
				t.ItemRatings = append(t.ItemRatings, nil)
			}
			t.UserIndices = append(t.UserIndices, u)
			t.ItemIndices = append(t.ItemIndices, i)
			t.Values = append(t.Values, record.Rating)
			t.UserRatings[u] = append(t.UserRatings[u], Rating{Index: i, Value: record.Rating})
			t.ItemRatings[i] = append(t.ItemRatings[i], Rating{Index: u, Value: record.Rating})
			sum += float64(record.Rating)
		}
	}
	if len(t.Values) > 0 {
		t.GlobalMean = float32(sum / float64(len(t.Values)))
	}
	return t
}

func (t *TrainSet) Count() int {
	return len(t.Values)
}

func (t *TrainSet) CountUsers() int {
	return t.UserDict.Count()
}

func (t *TrainSet) CountItems() int {
	return t.ItemDict.Count()
}
