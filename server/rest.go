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

package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/google/uuid"
	"github.com/gorse-io/recofilms/base/log"
	"github.com/gorse-io/recofilms/base/progress"
	"github.com/gorse-io/recofilms/config"
	"github.com/gorse-io/recofilms/dataset"
	"github.com/gorse-io/recofilms/logics"
	"github.com/gorse-io/recofilms/storage/history"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"github.com/swaggest/swgui/v5emb"
	"go.opentelemetry.io/contrib/instrumentation/github.com/emicklei/go-restful/otelrestful"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the number of movies returned when n is absent.
	DefaultPageSize = 100

	apiDocsPath = "/apidocs/"
)

// RestServer implements a REST-ful API server.
type RestServer struct {
	Recommender *logics.Recommender
	History     history.Database
	Config      *config.Config
	WebService  *restful.WebService
}

// NewRestServer creates a server. The history database may be nil, then sessions are not recorded.
func NewRestServer(recommender *logics.Recommender, db history.Database, cfg *config.Config) *RestServer {
	s := &RestServer{
		Recommender: recommender,
		History:     db,
		Config:      cfg,
		WebService:  new(restful.WebService),
	}
	s.CreateWebService()
	return s
}

// Handler returns a container serving the API, the OpenAPI document and metrics.
func (s *RestServer) Handler() *restful.Container {
	container := restful.NewContainer()
	container.Add(s.WebService)
	specConfig := restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
		PostBuildSwaggerObjectHandler: func(swo *spec.Swagger) {
			swo.Info = &spec.Info{InfoProps: spec.InfoProps{
				Title:       "RecoFilms",
				Description: "Movie recommendations from three rated movies.",
			}}
		},
	}
	container.Add(restfulspec.NewOpenAPIService(specConfig))
	container.Handle(apiDocsPath, v5emb.New("RecoFilms", specConfig.APIPath, apiDocsPath))
	container.Handle("/metrics", promhttp.Handler())
	return container
}

// StartHttpServer starts the REST-ful API server and stops it once ctx is done.
func (s *RestServer) StartHttpServer(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Logger().Error("failed to shutdown http server", zap.Error(err))
		}
	}()
	log.Logger().Info("start http server", zap.String("url", "http://"+addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Trace(err)
	}
	return nil
}

func RequestIdFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	requestId := req.HeaderParameter("X-Request-ID")
	if requestId == "" {
		requestId = uuid.NewString()
	}
	resp.Header().Set("X-Request-ID", requestId)
	chain.ProcessFilter(req, resp)
}

func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)
	RestAPIRequestSecondsVec.WithLabelValues(fmt.Sprintf("%s %s", req.Request.Method, req.SelectedRoutePath())).
		Observe(time.Since(start).Seconds())
	log.ResponseLogger(resp).Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("duration", time.Since(start)))
}

// CreateWebService creates web service.
func (s *RestServer) CreateWebService() {
	ws := s.WebService
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/api/")
	ws.Filter(otelrestful.OTelFilter("recofilms"))
	ws.Filter(RequestIdFilter)
	ws.Filter(LogFilter)

	ws.Route(ws.GET("/movies").To(s.getMovies).
		Doc("Get movies in the catalog.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"movie"}).
		Param(ws.QueryParameter("n", "number of returned movies").DataType("integer")).
		Param(ws.QueryParameter("offset", "offset of returned movies").DataType("integer")).
		Writes([]Movie{}))
	ws.Route(ws.GET("/methods").To(s.getMethods).
		Doc("Get recommendation methods.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Writes([]MethodInfo{}))
	ws.Route(ws.POST("/recommend").To(s.recommend).
		Doc("Recommend movies for three rated movies.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Reads(RecommendRequest{}).
		Writes(RecommendResponse{}).
		Returns(http.StatusOK, "OK", RecommendResponse{}).
		Returns(http.StatusBadRequest, "invalid request", nil))
	ws.Route(ws.GET("/progress").To(s.getProgress).
		Doc("Get progress of recent recommendations.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Writes([]progress.Progress{}))
	ws.Route(ws.GET("/history").To(s.getHistory).
		Doc("Get recommendation sessions.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"history"}).
		Writes([]*history.Session{}))
	ws.Route(ws.DELETE("/history").To(s.clearHistory).
		Doc("Clear recommendation sessions.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"history"}).
		Writes(Success{}))
}

// ParseInt parses integers from the query parameter.
func ParseInt(request *restful.Request, name string, fallback int) (value int, err error) {
	valueString := request.QueryParameter(name)
	value, err = strconv.Atoi(valueString)
	if err != nil && valueString == "" {
		value = fallback
		err = nil
	}
	return
}

type Movie struct {
	Title  string `json:"title"`
	Genres string `json:"genres"`
}

func (s *RestServer) getMovies(request *restful.Request, response *restful.Response) {
	offset, err := ParseInt(request, "offset", 0)
	if err != nil {
		BadRequest(response, err)
		return
	}
	n, err := ParseInt(request, "n", DefaultPageSize)
	if err != nil {
		BadRequest(response, err)
		return
	}
	if offset < 0 || n < 0 {
		BadRequest(response, errors.NotValidf("offset %d and n %d", offset, n))
		return
	}
	titles := lo.Subset(s.Recommender.Dataset().Titles(), offset, uint(n))
	movies := lo.Map(titles, func(title string, _ int) Movie {
		genres, _ := s.Recommender.Dataset().Genres(title)
		return Movie{Title: title, Genres: genres}
	})
	Ok(response, movies)
}

type MethodInfo struct {
	Name     string          `json:"name"`
	Label    string          `json:"label"`
	Category logics.Category `json:"category"`
}

func (s *RestServer) getMethods(_ *restful.Request, response *restful.Response) {
	Ok(response, lo.Map(logics.Methods(), func(m logics.Method, _ int) MethodInfo {
		return MethodInfo{Name: m.String(), Label: m.Label(), Category: m.Category()}
	}))
}

type RecommendRequest struct {
	UserName string          `json:"user_name"`
	Method   string          `json:"method"`
	TopN     int             `json:"top_n"`
	Profile  dataset.Profile `json:"profile"`
}

type RecommendResponse struct {
	Method          string                  `json:"method"`
	Recommendations []logics.Recommendation `json:"recommendations"`
}

func (s *RestServer) recommend(request *restful.Request, response *restful.Response) {
	var req RecommendRequest
	if err := request.ReadEntity(&req); err != nil {
		BadRequest(response, err)
		return
	}
	method, err := logics.ParseMethod(req.Method)
	if err != nil {
		RecommendRequestsTotal.WithLabelValues("unknown", "invalid").Inc()
		BadRequest(response, err)
		return
	}
	for i := range req.Profile {
		req.Profile[i].Title = strings.TrimSpace(req.Profile[i].Title)
	}
	recommendations, err := s.Recommender.Recommend(request.Request.Context(), method, req.Profile, req.TopN)
	if errors.Is(err, errors.NotValid) {
		RecommendRequestsTotal.WithLabelValues(method.String(), "invalid").Inc()
		BadRequest(response, err)
		return
	} else if err != nil {
		RecommendRequestsTotal.WithLabelValues(method.String(), "error").Inc()
		InternalServerError(response, err)
		return
	}
	RecommendRequestsTotal.WithLabelValues(method.String(), "ok").Inc()

	// record the session of a named user
	if s.History != nil && strings.TrimSpace(req.UserName) != "" {
		session := logics.NewSession(req.UserName, method, req.Profile.WithGenres(s.Recommender.Dataset()), recommendations)
		if err = s.History.Append(request.Request.Context(), session); err != nil {
			HistoryAppendFailuresTotal.Inc()
			log.ResponseLogger(response).Error("failed to append session", zap.Error(err))
		} else {
			HistoryAppendsTotal.Inc()
		}
	}
	Ok(response, RecommendResponse{Method: method.String(), Recommendations: recommendations})
}

func (s *RestServer) getProgress(_ *restful.Request, response *restful.Response) {
	Ok(response, s.Recommender.Tracer().List())
}

func (s *RestServer) getHistory(request *restful.Request, response *restful.Response) {
	if s.History == nil {
		Ok(response, []*history.Session{})
		return
	}
	sessions, err := s.History.List(request.Request.Context())
	if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, sessions)
}

type Success struct {
	RowAffected int
}

func (s *RestServer) clearHistory(request *restful.Request, response *restful.Response) {
	if s.History == nil {
		Ok(response, Success{})
		return
	}
	sessions, err := s.History.List(request.Request.Context())
	if err != nil {
		InternalServerError(response, err)
		return
	}
	if err = s.History.Clear(request.Request.Context()); err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, Success{RowAffected: len(sessions)})
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("bad request", zap.Error(err))
	if err = response.WriteError(http.StatusBadRequest, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// InternalServerError returns a internal server error.
func InternalServerError(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("internal server error", zap.Error(err))
	if err = response.WriteError(http.StatusInternalServerError, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content interface{}) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteAsJson(content); err != nil {
		log.ResponseLogger(response).Error("failed to write json", zap.Error(err))
	}
}
