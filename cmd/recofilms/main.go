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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorse-io/recofilms/base/log"
	"github.com/gorse-io/recofilms/cmd/version"
	"github.com/gorse-io/recofilms/config"
	"github.com/gorse-io/recofilms/dataset"
	"github.com/gorse-io/recofilms/logics"
	"github.com/gorse-io/recofilms/server"
	"github.com/gorse-io/recofilms/storage/blob"
	"github.com/gorse-io/recofilms/storage/history"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const historyInitTries = 5

var rootCommand = &cobra.Command{
	Use:   "recofilms",
	Short: "Movie recommendations from three rated movies.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		otel.SetErrorHandler(log.GetErrorHandler())
	},
}

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend movies for three rated movies.",
	Example: `  recofilms recommend --method svd -m "Toy Story (1995)=4.5" -m "Heat (1995)=3" -m "Jumanji (1995)=2"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		methodName, _ := cmd.Flags().GetString("method")
		method, err := logics.ParseMethod(methodName)
		if err != nil {
			return errors.Trace(err)
		}
		movies, _ := cmd.Flags().GetStringArray("movie")
		profile, err := parseProfile(movies)
		if err != nil {
			return errors.Trace(err)
		}
		topN, _ := cmd.Flags().GetInt("top-n")
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx := cmd.Context()
		d, err := loadDataset(ctx, conf, quiet)
		if err != nil {
			return errors.Trace(err)
		}
		recommender := logics.NewRecommender(d, conf)
		recommendations, err := recommender.Recommend(ctx, method, profile, topN)
		if err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("Rank", "Title", "Score")
		for _, rec := range recommendations {
			if err = table.Append([]string{
				strconv.Itoa(rec.Rank),
				rec.Title,
				history.FormatFloat(history.RoundScore(rec.Score), 64),
			}); err != nil {
				return errors.Trace(err)
			}
		}
		if err = table.Render(); err != nil {
			return errors.Trace(err)
		}

		// record the session of a named user
		userName, _ := cmd.Flags().GetString("user")
		if strings.TrimSpace(userName) == "" {
			return nil
		}
		db, err := openHistory(ctx, conf)
		if err != nil {
			return errors.Trace(err)
		}
		defer db.Close()
		return db.Append(ctx, logics.NewSession(userName, method, profile.WithGenres(d), recommendations))
	},
}

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST-ful API server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		if cmd.Flags().Changed("host") {
			conf.Server.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			conf.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		d, err := loadDataset(ctx, conf, true)
		if err != nil {
			return errors.Trace(err)
		}
		db, err := openHistory(ctx, conf)
		if err != nil {
			return errors.Trace(err)
		}
		defer db.Close()
		s := server.NewRestServer(logics.NewRecommender(d, conf), db, conf)
		if err = s.StartHttpServer(ctx); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("stop recofilms server successfully")
		return nil
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version of recofilms.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().String("dataset", "", "path of the rating dataset (local, s3://, gcs:// or azblob://)")
	rootCommand.PersistentFlags().String("history", "", "history store (directory, sqlite://, mysql://, postgres://, redis:// or mongodb://)")

	recommendCommand.Flags().String("method", logics.MethodItemBased.String(), "recommendation method")
	recommendCommand.Flags().Int("top-n", 0, "number of recommended movies (0 for the configured default)")
	recommendCommand.Flags().StringP("user", "u", "", "user name, the session is saved to history if set")
	recommendCommand.Flags().StringArrayP("movie", "m", nil, "rated movie as TITLE=RATING (exactly three)")
	recommendCommand.Flags().BoolP("quiet", "q", false, "hide the progress bar")

	serveCommand.Flags().String("host", "", "host of the server")
	serveCommand.Flags().Int("port", 0, "port of the server")

	rootCommand.AddCommand(recommendCommand, serveCommand, historyCommand, versionCommand)
}

func main() {
	if err := rootCommand.ExecuteContext(context.Background()); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if cmd.Flags().Changed("dataset") {
		conf.Dataset.Path, _ = cmd.Flags().GetString("dataset")
	}
	if cmd.Flags().Changed("history") {
		conf.History.Path, _ = cmd.Flags().GetString("history")
	}
	tp, err := conf.Tracing.NewTracerProvider()
	if err != nil {
		return nil, errors.Trace(err)
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return conf, nil
}

// loadDataset reads the rating dataset from the local filesystem or an object storage.
func loadDataset(ctx context.Context, conf *config.Config, quiet bool) (*dataset.Dataset, error) {
	location, err := blob.Parse(conf.Dataset.Path, conf)
	if err != nil {
		return nil, errors.Trace(err)
	}
	r, err := location.Open(ctx)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open dataset %s", conf.Dataset.Path)
	}
	defer r.Close()
	var d *dataset.Dataset
	if quiet {
		d, err = dataset.LoadCSV(r)
	} else {
		bar := progressbar.DefaultBytes(-1, "Loading dataset")
		pbReader := progressbar.NewReader(r, bar)
		d, err = dataset.LoadCSV(&pbReader)
		_ = bar.Finish()
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load dataset",
		zap.String("path", conf.Dataset.Path),
		zap.Int("n_ratings", d.Count()),
		zap.Int("n_movies", d.CountTitles()))
	return d, nil
}

// openHistory opens and initializes the history store. Initialization is retried
// since remote databases may not be ready yet.
func openHistory(ctx context.Context, conf *config.Config) (history.Database, error) {
	db, err := backoff.Retry(ctx, func() (history.Database, error) {
		db, err := history.Open(conf.History.Path, conf.History.TablePrefix)
		if err != nil {
			return nil, backoff.Permanent(errors.Trace(err))
		}
		if err = db.Init(); err != nil {
			_ = db.Close()
			log.Logger().Warn("failed to init history", zap.Error(err))
			return nil, errors.Trace(err)
		}
		return db, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(historyInitTries))
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("open history", zap.String("path", log.RedactDBURL(conf.History.Path)))
	return db, nil
}

// parseProfile parses rated movies given as TITLE=RATING. Titles may contain '='.
func parseProfile(movies []string) (dataset.Profile, error) {
	entries := make([]dataset.ProfileEntry, 0, len(movies))
	for _, movie := range movies {
		i := strings.LastIndex(movie, "=")
		if i < 0 {
			return nil, errors.NotValidf("movie %q (expect TITLE=RATING)", movie)
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(movie[i+1:]), 32)
		if err != nil {
			return nil, errors.NewNotValid(err, fmt.Sprintf("rating of %q", movie))
		}
		entries = append(entries, dataset.ProfileEntry{Title: movie[:i], Rating: float32(rating)})
	}
	return dataset.NewProfile(entries...)
}
