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
	"strings"
	"time"

	"github.com/gorse-io/recofilms/base/log"
	"github.com/gorse-io/recofilms/base/progress"
	"github.com/gorse-io/recofilms/config"
	"github.com/gorse-io/recofilms/dataset"
	"github.com/gorse-io/recofilms/model"
	"github.com/gorse-io/recofilms/storage/history"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Method is a recommendation strategy.
type Method int

const (
	MethodItemBased Method = iota
	MethodUserBased
	MethodSVD
	MethodKNN
	MethodNMF
	MethodGenreAverage
	MethodBestRatedGenre
)

// Category groups methods the way they are presented to users.
type Category string

const (
	Collaborative Category = "Collaborative"
	ContentBased  Category = "Content-Based"
)

type methodInfo struct {
	name     string
	label    string
	category Category
}

var methods = []methodInfo{
	{"item-based", "Item-User", Collaborative},
	{"user-based", "User-User", Collaborative},
	{"svd", "SVD", Collaborative},
	{"knn", "KNN", Collaborative},
	{"nmf", "NMF", Collaborative},
	{"genre-average", "Moyenne des genres", ContentBased},
	{"best-rated-genre", "Film préféré", ContentBased},
}

// Methods returns all methods.
func Methods() []Method {
	return lo.Times(len(methods), func(i int) Method { return Method(i) })
}

func (m Method) valid() bool {
	return m >= 0 && int(m) < len(methods)
}

func (m Method) String() string {
	if !m.valid() {
		return "unknown"
	}
	return methods[m].name
}

// Label is the name of the method displayed to users and saved in history.
func (m Method) Label() string {
	if !m.valid() {
		return "unknown"
	}
	return methods[m].label
}

func (m Method) Category() Category {
	if !m.valid() {
		return ""
	}
	return methods[m].category
}

// Algorithm returns the model algorithm of a latent factor method.
func (m Method) Algorithm() (model.Algorithm, bool) {
	switch m {
	case MethodSVD:
		return model.SVDAlgorithm, true
	case MethodKNN:
		return model.KNNAlgorithm, true
	case MethodNMF:
		return model.NMFAlgorithm, true
	}
	return 0, false
}

func (m Method) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, errors.NotValidf("method %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	method, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = method
	return nil
}

// ParseMethod parses a method by its name or its label. Case is ignored.
func ParseMethod(name string) (Method, error) {
	name = strings.TrimSpace(name)
	for i, info := range methods {
		if strings.EqualFold(name, info.name) || strings.EqualFold(name, info.label) {
			return Method(i), nil
		}
	}
	return 0, errors.NotValidf("method %q", name)
}

// Recommender serves recommendations from an immutable dataset. It is safe for
// concurrent use.
type Recommender struct {
	dataset *dataset.Dataset
	matrix  *dataset.RatingMatrix
	encoder *dataset.GenreEncoder
	config  config.RecommendConfig
	models  config.ModelConfig
	tracer  *progress.Tracer
}

func NewRecommender(d *dataset.Dataset, cfg *config.Config) *Recommender {
	return &Recommender{
		dataset: d,
		matrix:  dataset.NewRatingMatrix(d),
		encoder: dataset.NewGenreEncoder(d),
		config:  cfg.Recommend,
		models:  cfg.Model,
		tracer:  progress.NewTracer("recommender"),
	}
}

func (r *Recommender) Dataset() *dataset.Dataset {
	return r.dataset
}

// Tracer returns progress of recent requests, one per method.
func (r *Recommender) Tracer() *progress.Tracer {
	return r.tracer
}

// Recommend ranks movies for a profile. Zero topN means the configured default. The
// method and the profile are validated before any computation.
func (r *Recommender) Recommend(ctx context.Context, method Method, profile dataset.Profile, topN int) ([]Recommendation, error) {
	if !method.valid() {
		return nil, errors.NotValidf("method %d", int(method))
	}
	if topN < 0 {
		return nil, errors.NotValidf("top_n %d", topN)
	} else if topN == 0 {
		topN = r.config.TopN
	}
	if err := profile.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	profile = profile.WithGenres(r.dataset)

	start := time.Now()
	ctx, otelSpan := otel.Tracer("recofilms").Start(ctx, "Recommend")
	defer otelSpan.End()
	otelSpan.SetAttributes(attribute.String("method", method.String()), attribute.Int("top_n", topN))
	ctx, span := r.tracer.Start(ctx, method.String(), 1)
	defer span.End()
	var (
		recommendations []Recommendation
		err             error
	)
	switch method {
	case MethodItemBased:
		recommendations, err = ItemBased(ctx, r.matrix, profile, topN, r.config.Jobs)
	case MethodUserBased:
		recommendations, err = UserBased(ctx, r.matrix, profile, topN, r.config.Jobs)
	case MethodSVD, MethodKNN, MethodNMF:
		algo, _ := method.Algorithm()
		fitConfig := model.NewFitConfig().SetJobs(r.config.Jobs).SetVerbose(r.config.Verbose)
		recommendations, err = LatentFactor(ctx, r.dataset, profile, algo, r.models.Params(algo), topN, fitConfig)
	case MethodGenreAverage:
		recommendations = GenreAverage(r.dataset, r.encoder, profile, topN)
	case MethodBestRatedGenre:
		recommendations = BestRatedGenre(r.dataset, r.encoder, profile, topN)
	}
	if err != nil {
		span.Fail(err)
		otelSpan.SetStatus(codes.Error, err.Error())
		return nil, errors.Trace(err)
	}
	span.Add(1)
	RecommendSeconds.WithLabelValues(method.String()).Observe(time.Since(start).Seconds())
	log.Logger().Debug("complete recommendation",
		zap.String("method", method.String()),
		zap.Int("n", len(recommendations)),
		zap.Duration("duration", time.Since(start)))
	return recommendations, nil
}

// NewSession builds the history record of a recommendation.
func NewSession(userName string, method Method, profile dataset.Profile, recommendations []Recommendation) *history.Session {
	return &history.Session{
		UserName: strings.TrimSpace(userName),
		Method:   method.Label(),
		Profile: lo.Map(profile, func(entry dataset.ProfileEntry, _ int) history.Entry {
			return history.Entry{Title: entry.Title, Rating: entry.Rating, Genres: entry.Genres}
		}),
		Recommendations: lo.Map(recommendations, func(rec Recommendation, _ int) history.Recommendation {
			return history.Recommendation{Title: rec.Title, Score: rec.Score}
		}),
	}
}
