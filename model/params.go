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
	"encoding/json"
	"fmt"

	"github.com/gorse-io/recofilms/base/log"
	"go.uber.org/zap"
)

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	Lr          ParamName = "Lr"          // learning rate
	Reg         ParamName = "Reg"         // regularization strength
	NEpochs     ParamName = "NEpochs"     // number of epochs
	NFactors    ParamName = "NFactors"    // number of factors
	RandomState ParamName = "RandomState" // random state (seed)
	InitMean    ParamName = "InitMean"    // mean of gaussian initial parameter
	InitStdDev  ParamName = "InitStdDev"  // standard deviation of gaussian initial parameter
	InitLow     ParamName = "InitLow"     // lower bound of uniform initial parameter
	InitHigh    ParamName = "InitHigh"    // upper bound of uniform initial parameter
	K           ParamName = "K"           // maximum number of neighbors
	MinK        ParamName = "MinK"        // minimum number of neighbors
	Similarity  ParamName = "Similarity"  // similarity metric of neighbors
	UserBased   ParamName = "UserBased"   // compute similarities between users or items
)

// Params stores hyper-parameters of a model. For example, hyper-parameters of SVD
// are given by:
//
//	model.Params{
//		model.Lr:       0.005,
//		model.NEpochs:  20,
//		model.NFactors: 100,
//		model.Reg:      0.02,
//	}
type Params map[ParamName]interface{}

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params, len(parameters))
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

func typeError(method string, name ParamName, val interface{}) {
	log.Logger().Error("unexpected parameter type",
		zap.String("method", method),
		zap.String("name", string(name)),
		zap.String("type", fmt.Sprintf("%T", val)))
}

// GetInt gets a integer parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		case int64:
			return int(val)
		default:
			typeError("Params.GetInt", name, val)
		}
	}
	return _default
}

// GetInt64 gets a int64 parameter by name. Returns _default if not exists or type doesn't match. The
// type will be converted if given int.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			typeError("Params.GetInt64", name, val)
		}
	}
	return _default
}

// GetBool gets a bool parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetBool(name ParamName, _default bool) bool {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case bool:
			return val
		default:
			typeError("Params.GetBool", name, val)
		}
	}
	return _default
}

// GetFloat32 gets a float32 parameter by name. float64 and int values are converted.
func (parameters Params) GetFloat32(name ParamName, _default float32) float32 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float32:
			return val
		case float64:
			return float32(val)
		case int:
			return float32(val)
		default:
			typeError("Params.GetFloat32", name, val)
		}
	}
	return _default
}

// GetString gets a string parameter. Returns _default if not exists or type doesn't match.
func (parameters Params) GetString(name ParamName, _default string) string {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case string:
			return val
		default:
			typeError("Params.GetString", name, val)
		}
	}
	return _default
}

func (parameters Params) ToString() string {
	b, err := json.Marshal(parameters)
	if err != nil {
		log.Logger().Error("failed to marshal parameters", zap.Error(err))
		return ""
	}
	return string(b)
}
