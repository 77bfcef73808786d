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

	"github.com/google/uuid"
	"github.com/gorse-io/recofilms/base/log"
	"github.com/gorse-io/recofilms/dataset"
	"github.com/gorse-io/recofilms/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const syntheticUserPrefix = "profile-"

// LatentFactor trains a model on the dataset plus profile ratings of a synthetic user,
// then predicts ratings of the synthetic user for every other title. Titles the model
// can't predict are skipped.
func LatentFactor(ctx context.Context, d *dataset.Dataset, profile dataset.Profile, algo model.Algorithm, params model.Params, topN int, config *model.FitConfig) ([]Recommendation, error) {
	m, err := model.New(algo, params)
	if err != nil {
		return nil, errors.Trace(err)
	}
	userId := syntheticUserPrefix + uuid.NewString()
	profileRecords := make([]dataset.RatingRecord, len(profile))
	for i, entry := range profile {
		profileRecords[i] = dataset.RatingRecord{
			UserId: userId,
			Title:  entry.Title,
			Rating: entry.Rating,
			Genres: entry.Genres,
		}
	}
	trainSet := dataset.NewTrainSet(d.Records(), profileRecords)
	if err = m.Fit(ctx, trainSet, config); err != nil {
		return nil, errors.Trace(err)
	}
	exclude := profile.TitleSet()
	var (
		candidates []Candidate
		skipped    int
	)
	for _, title := range d.Titles() {
		if exclude.Contains(title) {
			continue
		}
		score, err := m.Predict(userId, title)
		if errors.Is(err, model.ErrPredictionUnavailable) {
			skipped++
			continue
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		candidates = append(candidates, Candidate{Title: title, Score: score})
	}
	if skipped > 0 {
		log.Logger().Debug("skip unpredictable titles", zap.Int("skipped", skipped))
	}
	return Rank(candidates, exclude, topN), nil
}
