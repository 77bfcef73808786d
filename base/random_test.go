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

package base

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const randomEpsilon = 0.1

func mean(x []float32) float32 {
	var sum float32
	for _, v := range x {
		sum += v
	}
	return sum / float32(len(x))
}

func stdDev(x []float32) float32 {
	m := mean(x)
	var sum float32
	for _, v := range x {
		sum += (v - m) * (v - m)
	}
	return math32.Sqrt(sum / float32(len(x)))
}

func TestRandomGenerator_UniformVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.UniformVector(10000, 1, 2)
	for _, v := range vec {
		assert.GreaterOrEqual(t, v, float32(1))
		assert.Less(t, v, float32(2))
	}
	assert.InDelta(t, 1.5, mean(vec), randomEpsilon)
}

func TestRandomGenerator_NormalMatrix(t *testing.T) {
	rng := NewRandomGenerator(0)
	mat := rng.NormalMatrix(100, 100, 1, 2)
	var flat []float32
	for _, row := range mat {
		assert.Len(t, row, 100)
		flat = append(flat, row...)
	}
	assert.InDelta(t, 1, mean(flat), randomEpsilon)
	assert.InDelta(t, 2, stdDev(flat), randomEpsilon)
}

func TestRandomGenerator_Seed(t *testing.T) {
	a := NewRandomGenerator(42).UniformMatrix(3, 4, 0, 1)
	b := NewRandomGenerator(42).UniformMatrix(3, 4, 0, 1)
	assert.Equal(t, a, b)
}
