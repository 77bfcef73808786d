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
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-6)
	assert.InDelta(t, 0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1, Cosine([]float32{1, 1}, []float32{-1, -1}), 1e-6)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{0, 0}))
}

func TestCosineRow(t *testing.T) {
	row := CosineRow([]float32{1, 0}, [][]float32{{1, 0}, {0, 1}, {0, 0}, {1, 1}})
	assert.InDeltaSlice(t, []float32{1, 0, 0, math32.Sqrt2 / 2}, row, 1e-6)
	assert.Equal(t, []float32{0, 0}, CosineRow([]float32{0, 0}, [][]float32{{1, 0}, {0, 1}}))
}

func TestCosineMatrix(t *testing.T) {
	// self-similarity of a nonzero vector
	v := []float32{3, 1, 4}
	matrix, err := CosineMatrix(context.Background(), [][]float32{v, v}, 2)
	require.NoError(t, err)
	for i := range matrix {
		assert.InDeltaSlice(t, []float32{1, 1}, matrix[i], 1e-6)
	}

	// zero vector has no similarity
	matrix, err = CosineMatrix(context.Background(), [][]float32{v, {0, 0, 0}}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1, matrix[0][0], 1e-6)
	assert.Zero(t, matrix[0][1])
	assert.Zero(t, matrix[1][0])
	assert.Zero(t, matrix[1][1])
	for i := range matrix {
		for j := range matrix[i] {
			assert.False(t, math32.IsNaN(matrix[i][j]))
		}
	}

	// symmetric
	vectors := [][]float32{{1, 2, 0}, {0, 1, 5}, {2, 2, 2}, {4, 0, 1}}
	matrix, err = CosineMatrix(context.Background(), vectors, 3)
	require.NoError(t, err)
	for i := range vectors {
		for j := range vectors {
			assert.InDelta(t, matrix[i][j], matrix[j][i], 1e-6)
			assert.InDelta(t, Cosine(vectors[i], vectors[j]), matrix[i][j], 1e-6)
		}
	}
}

func TestCosineMatrixCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CosineMatrix(ctx, [][]float32{{1}, {2}, {3}}, 1)
	assert.Error(t, err)
}
