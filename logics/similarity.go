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

	"github.com/gorse-io/recofilms/common/floats"
	"github.com/gorse-io/recofilms/common/parallel"
	"github.com/juju/errors"
)

// Cosine similarity of two vectors. It is zero if either vector is zero.
func Cosine(a, b []float32) float32 {
	na, nb := floats.Norm(a), floats.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// CosineRow computes similarities between a query and every vector.
func CosineRow(query []float32, vectors [][]float32) []float32 {
	row := make([]float32, len(vectors))
	qn := floats.Norm(query)
	if qn == 0 {
		return row
	}
	for i, vec := range vectors {
		if vn := floats.Norm(vec); vn > 0 {
			row[i] = floats.Dot(query, vec) / (qn * vn)
		}
	}
	return row
}

// CosineMatrix computes pairwise similarities of vectors. Rows are filled by at most
// jobs goroutines.
func CosineMatrix(ctx context.Context, vectors [][]float32, jobs int) ([][]float32, error) {
	norms := make([]float32, len(vectors))
	for i, vec := range vectors {
		norms[i] = floats.Norm(vec)
	}
	matrix := make([][]float32, len(vectors))
	err := parallel.For(ctx, len(vectors), jobs, func(i int) {
		matrix[i] = make([]float32, len(vectors))
		if norms[i] == 0 {
			return
		}
		for j := range vectors {
			if norms[j] > 0 {
				matrix[i][j] = floats.Dot(vectors[i], vectors[j]) / (norms[i] * norms[j])
			}
		}
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return matrix, nil
}
