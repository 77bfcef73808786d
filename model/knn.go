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

package model

import (
	"context"
	"strings"

	"github.com/chewxy/math32"
	"github.com/gorse-io/recofilms/base/log"
	"github.com/gorse-io/recofilms/base/progress"
	"github.com/gorse-io/recofilms/common/heap"
	"github.com/gorse-io/recofilms/common/parallel"
	"github.com/gorse-io/recofilms/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	SimilarityMSD     = "msd"
	SimilarityCosine  = "cosine"
	SimilarityPearson = "pearson"
)

// KNN is the basic neighborhood model. For the user-based variant the prediction is
//
//	\hat{r}_{ui} = \frac{\sum_{v\in N^k_i(u)} sim(u,v)⋅r_{vi}}{\sum_{v\in N^k_i(u)} sim(u,v)}
//
// where N^k_i(u) are the k most similar users of u who rated i. Neighbors with a
// non-positive similarity are ignored. The pair can't be predicted if fewer than
// MinK neighbors remain.
type KNN struct {
	BaseModel
	// Similarities between users (user-based) or items (item-based).
	Similarities [][]float32
	// xRatings are ratings of a row of Similarities, yRatings are ratings of the other side.
	xRatings [][]dataset.Rating
	yRatings [][]dataset.Rating
	// Hyper parameters
	k          int
	minK       int
	similarity string
	userBased  bool
}

// NewKNN creates a KNN model. Params:
//
//	Similarity - The similarity metric: msd, cosine or pearson. Default is msd.
//	UserBased  - Compute similarities between users or items. Default is true.
//	K          - The maximum number of neighbors. Default is 40.
//	MinK       - The minimum number of neighbors. Default is 1.
func NewKNN(params Params) *KNN {
	knn := new(KNN)
	knn.SetParams(params)
	return knn
}

func (knn *KNN) SetParams(params Params) {
	knn.BaseModel.SetParams(params)
	knn.k = knn.Params.GetInt(K, 40)
	knn.minK = knn.Params.GetInt(MinK, 1)
	knn.similarity = strings.ToLower(knn.Params.GetString(Similarity, SimilarityMSD))
	knn.userBased = knn.Params.GetBool(UserBased, true)
}

func (knn *KNN) Predict(userId, itemId string) (float32, error) {
	u, i := knn.lookup(userId, itemId)
	if u < 0 || i < 0 {
		return 0, errors.Trace(ErrPredictionUnavailable)
	}
	x, y := u, i
	if !knn.userBased {
		x, y = i, u
	}
	filter := heap.NewTopKFilter[float32, float32](knn.k)
	for _, neighbor := range knn.yRatings[y] {
		filter.Push(neighbor.Value, knn.Similarities[x][neighbor.Index])
	}
	var (
		sumSim     float32
		sumRatings float32
		actualK    int
	)
	for _, elem := range filter.PopAll() {
		if elem.Weight > 0 {
			sumSim += elem.Weight
			sumRatings += elem.Weight * elem.Value
			actualK++
		}
	}
	if actualK < knn.minK || sumSim == 0 {
		return 0, errors.Trace(ErrPredictionUnavailable)
	}
	return Clip(sumRatings / sumSim), nil
}

func (knn *KNN) Fit(ctx context.Context, trainSet *dataset.TrainSet, config *FitConfig) error {
	config = config.LoadDefaultIfNil()
	log.Logger().Info("fit knn",
		zap.Int("train_set_size", trainSet.Count()),
		zap.String("params", knn.GetParams().ToString()))
	knn.Init(trainSet)
	switch knn.similarity {
	case SimilarityMSD, SimilarityCosine, SimilarityPearson:
	default:
		return errors.NotValidf("similarity %q", knn.similarity)
	}
	if knn.userBased {
		knn.xRatings, knn.yRatings = trainSet.UserRatings, trainSet.ItemRatings
	} else {
		knn.xRatings, knn.yRatings = trainSet.ItemRatings, trainSet.UserRatings
	}
	n := len(knn.xRatings)
	knn.Similarities = make([][]float32, n)
	_, span := progress.Start(ctx, "KNN.Fit", n)
	defer span.End()
	err := parallel.For(ctx, n, config.Jobs, func(x int) {
		knn.Similarities[x] = knn.similarities(x, n)
		span.Add(1)
	})
	if err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	log.Logger().Info("fit knn complete", zap.Int("n_neighbors", n))
	return nil
}

// similarities computes one row of the similarity matrix. Statistics are accumulated
// over every pair of ratings on the same y.
func (knn *KNN) similarities(x, n int) []float32 {
	var (
		freq   = make([]float32, n)
		prods  = make([]float32, n)
		sqDiff = make([]float32, n)
		sqi    = make([]float32, n)
		sqj    = make([]float32, n)
		si     = make([]float32, n)
		sj     = make([]float32, n)
	)
	for _, xr := range knn.xRatings[x] {
		for _, yr := range knn.yRatings[xr.Index] {
			x2 := yr.Index
			ri, rj := xr.Value, yr.Value
			freq[x2]++
			prods[x2] += ri * rj
			sqDiff[x2] += (ri - rj) * (ri - rj)
			sqi[x2] += ri * ri
			sqj[x2] += rj * rj
			si[x2] += ri
			sj[x2] += rj
		}
	}
	sim := make([]float32, n)
	for x2 := 0; x2 < n; x2++ {
		if freq[x2] == 0 {
			continue
		}
		switch knn.similarity {
		case SimilarityMSD:
			sim[x2] = 1 / (sqDiff[x2]/freq[x2] + 1)
		case SimilarityCosine:
			if denominator := math32.Sqrt(sqi[x2] * sqj[x2]); denominator > 0 {
				sim[x2] = prods[x2] / denominator
			}
		case SimilarityPearson:
			num := freq[x2]*prods[x2] - si[x2]*sj[x2]
			denominator := math32.Sqrt((freq[x2]*sqi[x2] - si[x2]*si[x2]) * (freq[x2]*sqj[x2] - sj[x2]*sj[x2]))
			if denominator > 0 {
				sim[x2] = num / denominator
			}
		}
	}
	return sim
}
