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

	"github.com/gorse-io/recofilms/base/log"
	"github.com/gorse-io/recofilms/base/progress"
	"github.com/gorse-io/recofilms/common/floats"
	"github.com/gorse-io/recofilms/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// NMF is the non-negative matrix factorization[1]. The prediction is
//
//	\hat{r}_{ui} = q_i^Tp_u
//
// Factors are initialized uniformly and updated by multiplicative rules, which keep
// them non-negative. Pairs with an unknown user or item can't be predicted.
//
// [1] Luo, Xin, et al. "An efficient non-negative matrix-factorization-based approach
// to collaborative filtering for recommender systems." IEEE Transactions on Industrial
// Informatics 10.2 (2014): 1273-1284.
type NMF struct {
	BaseModel
	UserFactor [][]float32 // p_u
	ItemFactor [][]float32 // q_i
	nFactors   int
	nEpochs    int
	reg        float32
	initLow    float32
	initHigh   float32
}

// NewNMF creates a NMF model. Params:
//
//	Reg      - The regularization parameter of the cost function. Default is 0.06.
//	NFactors - The number of latent factors. Default is 15.
//	NEpochs  - The number of iteration of the multiplicative update. Default is 50.
//	InitLow  - The lower bound of initial random latent factor. Default is 0.
//	InitHigh - The upper bound of initial random latent factor. Default is 1.
func NewNMF(params Params) *NMF {
	nmf := new(NMF)
	nmf.SetParams(params)
	return nmf
}

func (nmf *NMF) SetParams(params Params) {
	nmf.BaseModel.SetParams(params)
	nmf.nFactors = nmf.Params.GetInt(NFactors, 15)
	nmf.nEpochs = nmf.Params.GetInt(NEpochs, 50)
	nmf.reg = nmf.Params.GetFloat32(Reg, 0.06)
	nmf.initLow = nmf.Params.GetFloat32(InitLow, 0)
	nmf.initHigh = nmf.Params.GetFloat32(InitHigh, 1)
}

func (nmf *NMF) Predict(userId, itemId string) (float32, error) {
	u, i := nmf.lookup(userId, itemId)
	if u < 0 || i < 0 {
		return 0, errors.Trace(ErrPredictionUnavailable)
	}
	return Clip(floats.Dot(nmf.UserFactor[u], nmf.ItemFactor[i])), nil
}

func (nmf *NMF) Fit(ctx context.Context, trainSet *dataset.TrainSet, config *FitConfig) error {
	log.Logger().Info("fit nmf",
		zap.Int("train_set_size", trainSet.Count()),
		zap.String("params", nmf.GetParams().ToString()))
	nmf.Init(trainSet)
	nmf.UserFactor = nmf.rng.UniformMatrix(trainSet.CountUsers(), nmf.nFactors, nmf.initLow, nmf.initHigh)
	nmf.ItemFactor = nmf.rng.UniformMatrix(trainSet.CountItems(), nmf.nFactors, nmf.initLow, nmf.initHigh)
	// intermediate matrices
	userNum := make([][]float32, trainSet.CountUsers())
	userDen := make([][]float32, trainSet.CountUsers())
	itemNum := make([][]float32, trainSet.CountItems())
	itemDen := make([][]float32, trainSet.CountItems())
	for u := range userNum {
		userNum[u] = make([]float32, nmf.nFactors)
		userDen[u] = make([]float32, nmf.nFactors)
	}
	for i := range itemNum {
		itemNum[i] = make([]float32, nmf.nFactors)
		itemDen[i] = make([]float32, nmf.nFactors)
	}
	_, span := progress.Start(ctx, "NMF.Fit", nmf.nEpochs)
	defer span.End()
	for epoch := 1; epoch <= nmf.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			span.Fail(err)
			return errors.Trace(err)
		}
		floats.MatZero(userNum)
		floats.MatZero(userDen)
		floats.MatZero(itemNum)
		floats.MatZero(itemDen)
		for k := 0; k < trainSet.Count(); k++ {
			u, i, r := trainSet.UserIndices[k], trainSet.ItemIndices[k], trainSet.Values[k]
			p, q := nmf.UserFactor[u], nmf.ItemFactor[i]
			prediction := floats.Dot(p, q)
			// \sum_{i\in{I_u}} q_{if}⋅r_{ui} and \sum_{i\in{I_u}} q_{if}⋅\hat{r}_{ui} + \lambda|I_u|p_{uf}
			floats.MulConstAdd(q, r, userNum[u])
			floats.MulConstAdd(q, prediction, userDen[u])
			floats.MulConstAdd(p, nmf.reg, userDen[u])
			// \sum_{u\in{U_i}}p_{uf}⋅r_{ui} and \sum_{u\in{U_i}}p_{uf}⋅\hat{r}_{ui} + \lambda|U_i|q_{if}
			floats.MulConstAdd(p, r, itemNum[i])
			floats.MulConstAdd(p, prediction, itemDen[i])
			floats.MulConstAdd(q, nmf.reg, itemDen[i])
		}
		multiplicativeUpdate(nmf.UserFactor, userNum, userDen)
		multiplicativeUpdate(nmf.ItemFactor, itemNum, itemDen)
		span.Add(1)
	}
	log.Logger().Info("fit nmf complete", zap.Int("n_epochs", nmf.nEpochs))
	return nil
}

// multiplicativeUpdate sets factor *= num / den. Entries with zero denominator are kept.
func multiplicativeUpdate(factor, num, den [][]float32) {
	for row := range factor {
		for f := range factor[row] {
			if den[row][f] != 0 {
				factor[row][f] *= num[row][f] / den[row][f]
			}
		}
	}
}
