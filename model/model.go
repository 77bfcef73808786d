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

	"github.com/gorse-io/recofilms/base"
	"github.com/gorse-io/recofilms/dataset"
	"github.com/juju/errors"
)

// ErrPredictionUnavailable is returned by Predict if a model can't estimate the rating
// of a pair, e.g. the user or the item is unknown or there are not enough neighbors.
var ErrPredictionUnavailable = errors.New("prediction unavailable")

// FitConfig contains options of model fitting.
type FitConfig struct {
	Jobs    int
	Verbose int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetJobs(nJobs int) *FitConfig {
	config.Jobs = nJobs
	return config
}

func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// Model is the interface of rating prediction models.
type Model interface {
	SetParams(params Params)
	GetParams() Params
	// Fit the model on a train set. It is called once per model.
	Fit(ctx context.Context, trainSet *dataset.TrainSet, config *FitConfig) error
	// Predict the rating given by a user to an item. The estimate is clipped to the
	// rating scale. ErrPredictionUnavailable is returned if the pair can't be scored.
	Predict(userId, itemId string) (float32, error)
}

// BaseModel manages hyper-parameters, indexes and the random generator of models.
type BaseModel struct {
	Params    Params
	UserIndex *dataset.FreqDict
	ItemIndex *dataset.FreqDict
	rng       base.RandomGenerator
	randState int64
}

func (model *BaseModel) SetParams(params Params) {
	model.Params = params.Copy()
	model.randState = model.Params.GetInt64(RandomState, 0)
	model.rng = base.NewRandomGenerator(model.randState)
}

func (model *BaseModel) GetParams() Params {
	return model.Params
}

// Init must be called at the beginning of Fit.
func (model *BaseModel) Init(trainSet *dataset.TrainSet) {
	model.UserIndex = trainSet.UserDict
	model.ItemIndex = trainSet.ItemDict
	model.rng = base.NewRandomGenerator(model.randState)
}

// lookup returns dense indices of a pair, -1 if unknown.
func (model *BaseModel) lookup(userId, itemId string) (int, int) {
	u, i := -1, -1
	if model.UserIndex != nil {
		if id, ok := model.UserIndex.Lookup(userId); ok {
			u = id
		}
	}
	if model.ItemIndex != nil {
		if id, ok := model.ItemIndex.Lookup(itemId); ok {
			i = id
		}
	}
	return u, i
}

// Clip an estimate to the rating scale.
func Clip(rating float32) float32 {
	if rating < dataset.MinRating {
		return dataset.MinRating
	}
	if rating > dataset.MaxRating {
		return dataset.MaxRating
	}
	return rating
}

// Algorithm is a family of rating prediction models.
type Algorithm int

const (
	SVDAlgorithm Algorithm = iota
	KNNAlgorithm
	NMFAlgorithm
)

var algorithmNames = []string{"SVD", "KNN", "NMF"}

func (algo Algorithm) String() string {
	if algo < 0 || int(algo) >= len(algorithmNames) {
		return "unknown"
	}
	return algorithmNames[algo]
}

// ParseAlgorithm parses an algorithm name case-insensitively.
func ParseAlgorithm(name string) (Algorithm, error) {
	for i, algorithmName := range algorithmNames {
		if strings.EqualFold(strings.TrimSpace(name), algorithmName) {
			return Algorithm(i), nil
		}
	}
	return 0, errors.NotValidf("algorithm %q (expect SVD, KNN or NMF)", name)
}

// New creates an untrained model of the algorithm.
func New(algo Algorithm, params Params) (Model, error) {
	switch algo {
	case SVDAlgorithm:
		return NewSVD(params), nil
	case KNNAlgorithm:
		return NewKNN(params), nil
	case NMFAlgorithm:
		return NewNMF(params), nil
	}
	return nil, errors.NotValidf("algorithm %d", int(algo))
}
