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

	"github.com/chewxy/math32"
	"github.com/gorse-io/recofilms/base/log"
	"github.com/gorse-io/recofilms/base/progress"
	"github.com/gorse-io/recofilms/common/floats"
	"github.com/gorse-io/recofilms/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// SVD is the biased matrix factorization popularized by Simon Funk. The prediction is
//
//	\hat{r}_{ui} = \mu + b_u + b_i + q_i^Tp_u
//
// If the user or the item is unknown, its bias and factors are assumed to be zero.
// Parameters are learned by stochastic gradient descent over ratings in order.
type SVD struct {
	BaseModel
	UserFactor [][]float32 // p_u
	ItemFactor [][]float32 // q_i
	UserBias   []float32   // b_u
	ItemBias   []float32   // b_i
	GlobalMean float32     // mu
	// Hyper parameters
	nFactors   int
	nEpochs    int
	lr         float32
	reg        float32
	initMean   float32
	initStdDev float32
}

// NewSVD creates a SVD model. Params:
//
//	Reg        - The regularization parameter of the cost function. Default is 0.02.
//	Lr         - The learning rate of SGD. Default is 0.005.
//	NFactors   - The number of latent factors. Default is 100.
//	NEpochs    - The number of iteration of the SGD procedure. Default is 20.
//	InitMean   - The mean of initial random latent factors. Default is 0.
//	InitStdDev - The standard deviation of initial random latent factors. Default is 0.1.
//	RandomState - The seed of the random generator. Default is 0.
func NewSVD(params Params) *SVD {
	svd := new(SVD)
	svd.SetParams(params)
	return svd
}

func (svd *SVD) SetParams(params Params) {
	svd.BaseModel.SetParams(params)
	svd.nFactors = svd.Params.GetInt(NFactors, 100)
	svd.nEpochs = svd.Params.GetInt(NEpochs, 20)
	svd.lr = svd.Params.GetFloat32(Lr, 0.005)
	svd.reg = svd.Params.GetFloat32(Reg, 0.02)
	svd.initMean = svd.Params.GetFloat32(InitMean, 0)
	svd.initStdDev = svd.Params.GetFloat32(InitStdDev, 0.1)
}

func (svd *SVD) Predict(userId, itemId string) (float32, error) {
	u, i := svd.lookup(userId, itemId)
	return Clip(svd.predict(u, i)), nil
}

func (svd *SVD) predict(u, i int) float32 {
	ret := svd.GlobalMean
	if u >= 0 {
		ret += svd.UserBias[u]
	}
	if i >= 0 {
		ret += svd.ItemBias[i]
	}
	if u >= 0 && i >= 0 {
		ret += floats.Dot(svd.UserFactor[u], svd.ItemFactor[i])
	}
	return ret
}

func (svd *SVD) Fit(ctx context.Context, trainSet *dataset.TrainSet, config *FitConfig) error {
	config = config.LoadDefaultIfNil()
	log.Logger().Info("fit svd",
		zap.Int("train_set_size", trainSet.Count()),
		zap.String("params", svd.GetParams().ToString()))
	svd.Init(trainSet)
	svd.GlobalMean = trainSet.GlobalMean
	svd.UserBias = make([]float32, trainSet.CountUsers())
	svd.ItemBias = make([]float32, trainSet.CountItems())
	svd.UserFactor = svd.rng.NormalMatrix(trainSet.CountUsers(), svd.nFactors, svd.initMean, svd.initStdDev)
	svd.ItemFactor = svd.rng.NormalMatrix(trainSet.CountItems(), svd.nFactors, svd.initMean, svd.initStdDev)
	_, span := progress.Start(ctx, "SVD.Fit", svd.nEpochs)
	defer span.End()
	for epoch := 1; epoch <= svd.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			span.Fail(err)
			return errors.Trace(err)
		}
		var sumSquareError float32
		for k := 0; k < trainSet.Count(); k++ {
			u, i, r := trainSet.UserIndices[k], trainSet.ItemIndices[k], trainSet.Values[k]
			diff := r - svd.predict(u, i)
			sumSquareError += diff * diff
			// update biases
			svd.UserBias[u] += svd.lr * (diff - svd.reg*svd.UserBias[u])
			svd.ItemBias[i] += svd.lr * (diff - svd.reg*svd.ItemBias[i])
			// update factors
			p, q := svd.UserFactor[u], svd.ItemFactor[i]
			for f := 0; f < svd.nFactors; f++ {
				puf, qif := p[f], q[f]
				p[f] += svd.lr * (diff*qif - svd.reg*puf)
				q[f] += svd.lr * (diff*puf - svd.reg*qif)
			}
		}
		span.Add(1)
		if config.Verbose > 0 && epoch%config.Verbose == 0 && trainSet.Count() > 0 {
			log.Logger().Debug("fit svd",
				zap.Int("epoch", epoch),
				zap.Int("n_epochs", svd.nEpochs),
				zap.Float32("rmse", math32.Sqrt(sumSquareError/float32(trainSet.Count()))))
		}
	}
	log.Logger().Info("fit svd complete", zap.Int("n_epochs", svd.nEpochs))
	return nil
}
