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
	"testing"

	"github.com/gorse-io/recofilms/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrainSet() *dataset.TrainSet {
	return dataset.NewTrainSet([]dataset.RatingRecord{
		{UserId: "u1", Title: "A", Rating: 5},
		{UserId: "u1", Title: "B", Rating: 3},
		{UserId: "u2", Title: "A", Rating: 4},
		{UserId: "u2", Title: "B", Rating: 3},
		{UserId: "u2", Title: "C", Rating: 2},
		{UserId: "u3", Title: "A", Rating: 1},
		{UserId: "u3", Title: "C", Rating: 5},
	})
}

func TestParseAlgorithm(t *testing.T) {
	algo, err := ParseAlgorithm("svd")
	assert.NoError(t, err)
	assert.Equal(t, SVDAlgorithm, algo)
	algo, err = ParseAlgorithm(" Knn ")
	assert.NoError(t, err)
	assert.Equal(t, KNNAlgorithm, algo)
	algo, err = ParseAlgorithm("NMF")
	assert.NoError(t, err)
	assert.Equal(t, "NMF", algo.String())
	_, err = ParseAlgorithm("ALS")
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Equal(t, "unknown", Algorithm(7).String())
}

func TestNew(t *testing.T) {
	m, err := New(SVDAlgorithm, nil)
	assert.NoError(t, err)
	assert.IsType(t, &SVD{}, m)
	m, err = New(KNNAlgorithm, Params{K: 10})
	assert.NoError(t, err)
	assert.IsType(t, &KNN{}, m)
	assert.Equal(t, Params{K: 10}, m.GetParams())
	m, err = New(NMFAlgorithm, nil)
	assert.NoError(t, err)
	assert.IsType(t, &NMF{}, m)
	_, err = New(Algorithm(-1), nil)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestClip(t *testing.T) {
	assert.Equal(t, float32(0), Clip(-1))
	assert.Equal(t, float32(5), Clip(7))
	assert.Equal(t, float32(3.5), Clip(3.5))
}

func TestKNN_MSD(t *testing.T) {
	knn := NewKNN(nil)
	require.NoError(t, knn.Fit(context.Background(), newTrainSet(), NewFitConfig().SetJobs(2)))
	// sim(u1,u2) = 1/(1/2+1), sim(u1,u3) = 1/(16+1)
	score, err := knn.Predict("u1", "C")
	assert.NoError(t, err)
	s12, s13 := float32(1)/1.5, float32(1)/17
	assert.InDelta(t, (s12*2+s13*5)/(s12+s13), score, 1e-4)
	// unknown user or item
	_, err = knn.Predict("u4", "C")
	assert.ErrorIs(t, err, ErrPredictionUnavailable)
	_, err = knn.Predict("u1", "D")
	assert.ErrorIs(t, err, ErrPredictionUnavailable)
}

func TestKNN_K(t *testing.T) {
	knn := NewKNN(Params{K: 1})
	require.NoError(t, knn.Fit(context.Background(), newTrainSet(), nil))
	score, err := knn.Predict("u1", "C")
	assert.NoError(t, err)
	assert.InDelta(t, 2, score, 1e-4)

	knn = NewKNN(Params{MinK: 3})
	require.NoError(t, knn.Fit(context.Background(), newTrainSet(), nil))
	_, err = knn.Predict("u1", "C")
	assert.ErrorIs(t, err, ErrPredictionUnavailable)
}

func TestKNN_Cosine(t *testing.T) {
	knn := NewKNN(Params{Similarity: "cosine"})
	require.NoError(t, knn.Fit(context.Background(), newTrainSet(), nil))
	score, err := knn.Predict("u1", "C")
	assert.NoError(t, err)
	s12, s13 := float32(29)/(5.830952*5), float32(1)
	assert.InDelta(t, (s12*2+s13*5)/(s12+s13), score, 1e-3)
}

func TestKNN_ItemBased(t *testing.T) {
	knn := NewKNN(Params{UserBased: false})
	require.NoError(t, knn.Fit(context.Background(), newTrainSet(), nil))
	// sim(C,A) = 1/(10+1), sim(C,B) = 1/(1+1)
	score, err := knn.Predict("u1", "C")
	assert.NoError(t, err)
	sa, sb := float32(1)/11, float32(1)/2
	assert.InDelta(t, (sa*5+sb*3)/(sa+sb), score, 1e-4)
}

func TestKNN_Pearson(t *testing.T) {
	knn := NewKNN(Params{Similarity: "pearson"})
	require.NoError(t, knn.Fit(context.Background(), newTrainSet(), nil))
	for _, row := range knn.Similarities {
		for _, sim := range row {
			assert.GreaterOrEqual(t, sim, float32(-1.0001))
			assert.LessOrEqual(t, sim, float32(1.0001))
		}
	}
}

func TestKNN_InvalidSimilarity(t *testing.T) {
	knn := NewKNN(Params{Similarity: "jaccard"})
	err := knn.Fit(context.Background(), newTrainSet(), nil)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestSVD(t *testing.T) {
	trainSet := newTrainSet()
	a := NewSVD(Params{NFactors: 8, NEpochs: 30})
	require.NoError(t, a.Fit(context.Background(), trainSet, nil))
	b := NewSVD(Params{NFactors: 8, NEpochs: 30})
	require.NoError(t, b.Fit(context.Background(), trainSet, nil))
	for _, user := range []string{"u1", "u2", "u3", "unknown"} {
		for _, item := range []string{"A", "B", "C", "unknown"} {
			sa, err := a.Predict(user, item)
			assert.NoError(t, err)
			sb, err := b.Predict(user, item)
			assert.NoError(t, err)
			assert.Equal(t, sa, sb)
			assert.GreaterOrEqual(t, sa, float32(0))
			assert.LessOrEqual(t, sa, float32(5))
		}
	}
	// unknown pairs fall back to the global mean
	score, err := a.Predict("unknown", "unknown")
	assert.NoError(t, err)
	assert.InDelta(t, trainSet.GlobalMean, score, 1e-6)
}

func TestSVD_Biases(t *testing.T) {
	var records []dataset.RatingRecord
	for _, title := range []string{"A", "B", "C", "D"} {
		records = append(records,
			dataset.RatingRecord{UserId: "fan", Title: title, Rating: 5},
			dataset.RatingRecord{UserId: "critic", Title: title, Rating: 1})
	}
	svd := NewSVD(Params{NFactors: 0, NEpochs: 200, Lr: 0.05})
	require.NoError(t, svd.Fit(context.Background(), dataset.NewTrainSet(records), nil))
	fan, err := svd.Predict("fan", "A")
	assert.NoError(t, err)
	critic, err := svd.Predict("critic", "A")
	assert.NoError(t, err)
	assert.Greater(t, fan, critic)
}

func TestNMF(t *testing.T) {
	nmf := NewNMF(Params{NFactors: 4})
	require.NoError(t, nmf.Fit(context.Background(), newTrainSet(), nil))
	for _, factors := range append(nmf.UserFactor, nmf.ItemFactor...) {
		for _, v := range factors {
			assert.GreaterOrEqual(t, v, float32(0))
		}
	}
	score, err := nmf.Predict("u1", "C")
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, score, float32(0))
	assert.LessOrEqual(t, score, float32(5))
	_, err = nmf.Predict("u1", "unknown")
	assert.ErrorIs(t, err, ErrPredictionUnavailable)
	_, err = nmf.Predict("unknown", "A")
	assert.ErrorIs(t, err, ErrPredictionUnavailable)
}

func TestFitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, m := range []Model{NewSVD(nil), NewNMF(nil), NewKNN(nil)} {
		err := m.Fit(ctx, newTrainSet(), NewFitConfig())
		assert.ErrorIs(t, err, context.Canceled)
	}
}
