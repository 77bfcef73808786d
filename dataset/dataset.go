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

package dataset

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/recofilms/base"
	"github.com/gorse-io/recofilms/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	ColumnUserId = "userId"
	ColumnTitle  = "title"
	ColumnRating = "rating"
	ColumnGenres = "genres"
)

const (
	MinRating float32 = 0
	MaxRating float32 = 5
)

// RatingRecord is a rating given by a user to a movie.
type RatingRecord struct {
	UserId string
	Title  string
	Rating float32
	Genres string
}

// Dataset is an immutable snapshot of rating records. It is safe for concurrent readers.
type Dataset struct {
	records []RatingRecord
	titles  []string
	genres  map[string]string
}

// NewDataset creates a dataset from records. Records are copied.
func NewDataset(records []RatingRecord) *Dataset {
	d := &Dataset{
		records: make([]RatingRecord, len(records)),
		genres:  make(map[string]string),
	}
	copy(d.records, records)
	for _, record := range d.records {
		if _, exist := d.genres[record.Title]; !exist {
			d.genres[record.Title] = record.Genres
			d.titles = append(d.titles, record.Title)
		}
	}
	return d
}

// Count returns the number of records.
func (d *Dataset) Count() int {
	return len(d.records)
}

// Records returns a copy of all records.
func (d *Dataset) Records() []RatingRecord {
	records := make([]RatingRecord, len(d.records))
	copy(records, d.records)
	return records
}

// Titles returns distinct titles in order of first appearance.
func (d *Dataset) Titles() []string {
	titles := make([]string, len(d.titles))
	copy(titles, d.titles)
	return titles
}

// CountTitles returns the number of distinct titles.
func (d *Dataset) CountTitles() int {
	return len(d.titles)
}

// Genres returns the genres of the first record of a title.
func (d *Dataset) Genres(title string) (string, bool) {
	genres, exist := d.genres[title]
	return genres, exist
}

// missingValues are the tokens read as missing values by pandas.
var missingValues = mapset.NewSet("", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null")

func isMissing(field string) bool {
	return missingValues.Contains(field)
}

// LoadCSV loads records from a csv file with columns userId, title, rating and genres.
// Columns are located by the header. Rows with a missing field or an invalid rating
// are dropped. Missing fields follow the pandas conventions (NA, NaN, null...), and
// infinite ratings are dropped too.
func LoadCSV(r io.Reader) (*Dataset, error) {
	var (
		columns  = make(map[string]int)
		records  []RatingRecord
		dropped  int
		parseErr error
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	err := base.ReadLines(scanner, ',', func(i int, fields []string) bool {
		if i == 0 {
			for j, name := range fields {
				columns[strings.TrimSpace(name)] = j
			}
			for _, name := range []string{ColumnUserId, ColumnTitle, ColumnRating, ColumnGenres} {
				if _, exist := columns[name]; !exist {
					parseErr = errors.NotValidf("dataset header %v (missing column %s)", fields, name)
					return false
				}
			}
			return true
		}
		field := func(name string) string {
			j := columns[name]
			if j >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[j])
		}
		record := RatingRecord{
			UserId: field(ColumnUserId),
			Title:  field(ColumnTitle),
			Genres: field(ColumnGenres),
		}
		ratingText := field(ColumnRating)
		if isMissing(record.UserId) || isMissing(record.Title) || isMissing(record.Genres) || isMissing(ratingText) {
			dropped++
			return true
		}
		rating, err := strconv.ParseFloat(ratingText, 32)
		if err != nil || math32.IsNaN(float32(rating)) || math32.IsInf(float32(rating), 0) {
			dropped++
			return true
		}
		record.Rating = float32(rating)
		records = append(records, record)
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if len(columns) == 0 {
		return nil, errors.NotValidf("empty dataset")
	}
	if dropped > 0 {
		log.Logger().Warn("drop incomplete rows", zap.Int("dropped", dropped), zap.Int("kept", len(records)))
	}
	return NewDataset(records), nil
}
