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

package config

import (
	"context"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/recofilms/model"
	"github.com/juju/errors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// EnvPrefix is the prefix of environment variables overriding the config file, e.g.
// RECOFILMS_RECOMMEND_TOP_N.
const EnvPrefix = "RECOFILMS"

// Config is the configuration for the recommender.
type Config struct {
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	History   HistoryConfig   `mapstructure:"history"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Model     ModelConfig     `mapstructure:"model"`
	Server    ServerConfig    `mapstructure:"server"`
	S3        S3Config        `mapstructure:"s3"`
	GCS       GCSConfig       `mapstructure:"gcs"`
	Azure     AzureConfig     `mapstructure:"azure"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type DatasetConfig struct {
	// Path is a local file or an object URL (s3://, gcs://, azblob://).
	Path string `mapstructure:"path" validate:"required"`
}

type HistoryConfig struct {
	Path        string `mapstructure:"path" validate:"required"`
	TablePrefix string `mapstructure:"table_prefix"`
}

type RecommendConfig struct {
	TopN    int `mapstructure:"top_n" validate:"gt=0"`
	Jobs    int `mapstructure:"jobs" validate:"gt=0"`
	Verbose int `mapstructure:"verbose" validate:"gte=0"`
}

type ModelConfig struct {
	SVD SVDConfig `mapstructure:"svd"`
	KNN KNNConfig `mapstructure:"knn"`
	NMF NMFConfig `mapstructure:"nmf"`
}

type SVDConfig struct {
	NFactors    int     `mapstructure:"n_factors" validate:"gt=0"`
	NEpochs     int     `mapstructure:"n_epochs" validate:"gte=0"`
	Lr          float32 `mapstructure:"lr" validate:"gt=0"`
	Reg         float32 `mapstructure:"reg" validate:"gte=0"`
	InitMean    float32 `mapstructure:"init_mean"`
	InitStdDev  float32 `mapstructure:"init_std_dev" validate:"gte=0"`
	RandomState int64   `mapstructure:"random_state"`
}

func (c *SVDConfig) Params() model.Params {
	return model.Params{
		model.NFactors:    c.NFactors,
		model.NEpochs:     c.NEpochs,
		model.Lr:          c.Lr,
		model.Reg:         c.Reg,
		model.InitMean:    c.InitMean,
		model.InitStdDev:  c.InitStdDev,
		model.RandomState: c.RandomState,
	}
}

type KNNConfig struct {
	K          int    `mapstructure:"k" validate:"gt=0"`
	MinK       int    `mapstructure:"min_k" validate:"gte=0"`
	Similarity string `mapstructure:"similarity" validate:"oneof=msd cosine pearson"`
	UserBased  bool   `mapstructure:"user_based"`
}

func (c *KNNConfig) Params() model.Params {
	return model.Params{
		model.K:          c.K,
		model.MinK:       c.MinK,
		model.Similarity: c.Similarity,
		model.UserBased:  c.UserBased,
	}
}

type NMFConfig struct {
	NFactors    int     `mapstructure:"n_factors" validate:"gt=0"`
	NEpochs     int     `mapstructure:"n_epochs" validate:"gte=0"`
	Reg         float32 `mapstructure:"reg" validate:"gte=0"`
	InitLow     float32 `mapstructure:"init_low" validate:"gte=0"`
	InitHigh    float32 `mapstructure:"init_high" validate:"gtefield=InitLow"`
	RandomState int64   `mapstructure:"random_state"`
}

func (c *NMFConfig) Params() model.Params {
	return model.Params{
		model.NFactors:    c.NFactors,
		model.NEpochs:     c.NEpochs,
		model.Reg:         c.Reg,
		model.InitLow:     c.InitLow,
		model.InitHigh:    c.InitHigh,
		model.RandomState: c.RandomState,
	}
}

// Params returns hyper-parameters of an algorithm.
func (c *ModelConfig) Params(algo model.Algorithm) model.Params {
	switch algo {
	case model.SVDAlgorithm:
		return c.SVD.Params()
	case model.KNNAlgorithm:
		return c.KNN.Params()
	case model.NMFAlgorithm:
		return c.NMF.Params()
	}
	return model.Params{}
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
}

type TracingConfig struct {
	EnableTracing     bool    `mapstructure:"enable_tracing"`
	Exporter          string  `mapstructure:"exporter" validate:"oneof=zipkin otlp otlphttp"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	Sampler           string  `mapstructure:"sampler" validate:"oneof=always never ratio"`
	Ratio             float64 `mapstructure:"ratio" validate:"gte=0,lte=1"`
}

// NewTracerProvider creates the tracer provider of the configured exporter. A no-op
// provider is returned if tracing is disabled.
func (config *TracingConfig) NewTracerProvider() (trace.TracerProvider, error) {
	if !config.EnableTracing {
		return noop.NewTracerProvider(), nil
	}

	var exporter tracesdk.SpanExporter
	var err error
	switch config.Exporter {
	case "zipkin":
		exporter, err = zipkin.New(config.CollectorEndpoint)
	case "otlp":
		client := otlptracegrpc.NewClient(otlptracegrpc.WithInsecure(), otlptracegrpc.WithEndpoint(config.CollectorEndpoint))
		exporter, err = otlptrace.New(context.Background(), client)
	case "otlphttp":
		client := otlptracehttp.NewClient(otlptracehttp.WithInsecure(), otlptracehttp.WithEndpoint(config.CollectorEndpoint))
		exporter, err = otlptrace.New(context.Background(), client)
	default:
		return nil, errors.NotSupportedf("exporter %s", config.Exporter)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}

	var sampler tracesdk.Sampler
	switch config.Sampler {
	case "always":
		sampler = tracesdk.AlwaysSample()
	case "never":
		sampler = tracesdk.NeverSample()
	case "ratio":
		sampler = tracesdk.TraceIDRatioBased(config.Ratio)
	default:
		return nil, errors.NotSupportedf("sampler %s", config.Sampler)
	}

	return tracesdk.NewTracerProvider(
		tracesdk.WithSampler(sampler),
		tracesdk.WithBatcher(exporter),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("recofilms"),
		)),
	), nil
}

// GetDefaultConfig returns the configuration used without a config file. Model
// defaults are those of the reference implementations of each algorithm.
func GetDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path: "data/user_ratings_genres_mov.csv",
		},
		History: HistoryConfig{
			Path: "data",
		},
		Recommend: RecommendConfig{
			TopN:    5,
			Jobs:    1,
			Verbose: 10,
		},
		Model: ModelConfig{
			SVD: SVDConfig{
				NFactors:   100,
				NEpochs:    20,
				Lr:         0.005,
				Reg:        0.02,
				InitMean:   0,
				InitStdDev: 0.1,
			},
			KNN: KNNConfig{
				K:          40,
				MinK:       1,
				Similarity: model.SimilarityMSD,
				UserBased:  true,
			},
			NMF: NMFConfig{
				NFactors: 15,
				NEpochs:  50,
				Reg:      0.06,
				InitLow:  0,
				InitHigh: 1,
			},
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8088,
		},
		Tracing: TracingConfig{
			Exporter: "otlp",
			Sampler:  "always",
			Ratio:    1,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [dataset]
	v.SetDefault("dataset.path", defaultConfig.Dataset.Path)
	// [history]
	v.SetDefault("history.path", defaultConfig.History.Path)
	v.SetDefault("history.table_prefix", defaultConfig.History.TablePrefix)
	// [recommend]
	v.SetDefault("recommend.top_n", defaultConfig.Recommend.TopN)
	v.SetDefault("recommend.jobs", defaultConfig.Recommend.Jobs)
	v.SetDefault("recommend.verbose", defaultConfig.Recommend.Verbose)
	// [model.svd]
	v.SetDefault("model.svd.n_factors", defaultConfig.Model.SVD.NFactors)
	v.SetDefault("model.svd.n_epochs", defaultConfig.Model.SVD.NEpochs)
	v.SetDefault("model.svd.lr", defaultConfig.Model.SVD.Lr)
	v.SetDefault("model.svd.reg", defaultConfig.Model.SVD.Reg)
	v.SetDefault("model.svd.init_mean", defaultConfig.Model.SVD.InitMean)
	v.SetDefault("model.svd.init_std_dev", defaultConfig.Model.SVD.InitStdDev)
	v.SetDefault("model.svd.random_state", defaultConfig.Model.SVD.RandomState)
	// [model.knn]
	v.SetDefault("model.knn.k", defaultConfig.Model.KNN.K)
	v.SetDefault("model.knn.min_k", defaultConfig.Model.KNN.MinK)
	v.SetDefault("model.knn.similarity", defaultConfig.Model.KNN.Similarity)
	v.SetDefault("model.knn.user_based", defaultConfig.Model.KNN.UserBased)
	// [model.nmf]
	v.SetDefault("model.nmf.n_factors", defaultConfig.Model.NMF.NFactors)
	v.SetDefault("model.nmf.n_epochs", defaultConfig.Model.NMF.NEpochs)
	v.SetDefault("model.nmf.reg", defaultConfig.Model.NMF.Reg)
	v.SetDefault("model.nmf.init_low", defaultConfig.Model.NMF.InitLow)
	v.SetDefault("model.nmf.init_high", defaultConfig.Model.NMF.InitHigh)
	v.SetDefault("model.nmf.random_state", defaultConfig.Model.NMF.RandomState)
	// [server]
	v.SetDefault("server.host", defaultConfig.Server.Host)
	v.SetDefault("server.port", defaultConfig.Server.Port)
	// [s3]
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.use_ssl", false)
	// [gcs]
	v.SetDefault("gcs.credentials_file", "")
	// [azure]
	v.SetDefault("azure.connection_string", "")
	v.SetDefault("azure.account_name", "")
	v.SetDefault("azure.account_key", "")
	v.SetDefault("azure.endpoint", "")
	// [tracing]
	v.SetDefault("tracing.enable_tracing", defaultConfig.Tracing.EnableTracing)
	v.SetDefault("tracing.exporter", defaultConfig.Tracing.Exporter)
	v.SetDefault("tracing.collector_endpoint", defaultConfig.Tracing.CollectorEndpoint)
	v.SetDefault("tracing.sampler", defaultConfig.Tracing.Sampler)
	v.SetDefault("tracing.ratio", defaultConfig.Tracing.Ratio)
}

// LoadConfig loads configuration from a TOML file. Defaults are used if path is empty.
// Environment variables prefixed by RECOFILMS_ override both.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefault(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks values of the configuration. Messages of violated rules are
// translated to English.
func (config *Config) Validate() error {
	validate := validator.New()
	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return errors.Trace(err)
	}
	if err := validate.Struct(config); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			messages := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				messages = append(messages, e.Translate(trans))
			}
			return errors.NotValidf("config (%s)", strings.Join(messages, "; "))
		}
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}
