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
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gorse-io/recofilms/storage/blob"
	"github.com/gorse-io/recofilms/storage/history"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "Manage recommendation sessions.",
}

var historyListCommand = &cobra.Command{
	Use:   "list",
	Short: "List recommendation sessions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		db, err := openHistory(cmd.Context(), conf)
		if err != nil {
			return errors.Trace(err)
		}
		defer db.Close()
		sessions, err := listSessions(cmd, db)
		if err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("User", "Method", "Movies", "Recommendations")
		for _, session := range sessions {
			if err = table.Append([]string{
				session.UserName,
				session.Method,
				strings.Join(lo.Map(session.Profile, func(entry history.Entry, _ int) string {
					return entry.Title + " (" + history.FormatFloat(float64(entry.Rating), 32) + ")"
				}), "\n"),
				strings.Join(lo.Map(session.Recommendations, func(rec history.Recommendation, _ int) string {
					return rec.Title
				}), "\n"),
			}); err != nil {
				return errors.Trace(err)
			}
		}
		return table.Render()
	},
}

var historyClearCommand = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recommendation sessions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		db, err := openHistory(cmd.Context(), conf)
		if err != nil {
			return errors.Trace(err)
		}
		defer db.Close()
		return db.Clear(cmd.Context())
	},
}

var historyExportCommand = &cobra.Command{
	Use:   "export [path]",
	Short: "Export recommendation sessions as text to a local file or an object storage.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		db, err := openHistory(cmd.Context(), conf)
		if err != nil {
			return errors.Trace(err)
		}
		defer db.Close()
		sessions, err := listSessions(cmd, db)
		if err != nil {
			return errors.Trace(err)
		}
		location, err := blob.Parse(args[0], conf)
		if err != nil {
			return errors.Trace(err)
		}
		var builder strings.Builder
		for _, session := range sessions {
			builder.WriteString(history.FormatSession(session))
		}
		if err = location.Write(cmd.Context(), strings.NewReader(builder.String())); err != nil {
			return errors.Trace(err)
		}
		cmd.Println("export " + strconv.Itoa(len(sessions)) + " sessions to " + args[0])
		return nil
	},
}

func init() {
	historyListCommand.Flags().String("since", "", "only sessions recorded after this time, e.g. 2024-01-02 or 2024-01-02T15:04:05Z")
	historyExportCommand.Flags().String("since", "", "only sessions recorded after this time, e.g. 2024-01-02 or 2024-01-02T15:04:05Z")
	historyCommand.AddCommand(historyListCommand, historyClearCommand, historyExportCommand)
}

// listSessions lists sessions recorded after --since. Sessions without a timestamp,
// e.g. parsed from the text log, are always kept.
func listSessions(cmd *cobra.Command, db history.Database) ([]*history.Session, error) {
	sessions, err := db.List(cmd.Context())
	if err != nil {
		return nil, errors.Trace(err)
	}
	since, _ := cmd.Flags().GetString("since")
	if since == "" {
		return sessions, nil
	}
	sinceTime, err := dateparse.ParseAny(since)
	if err != nil {
		return nil, errors.NewNotValid(err, "invalid --since")
	}
	return filterSince(sessions, sinceTime), nil
}

func filterSince(sessions []*history.Session, since time.Time) []*history.Session {
	return lo.Filter(sessions, func(session *history.Session, _ int) bool {
		return session.Timestamp.IsZero() || !session.Timestamp.Before(since)
	})
}
