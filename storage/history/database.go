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

package history

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/gorse-io/recofilms/base/log"
	"github.com/gorse-io/recofilms/storage"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// UnknownUser is displayed for sessions without a user line.
const UnknownUser = "Utilisateur inconnu"

// Entry is a movie rated in a session.
type Entry struct {
	Title  string  `json:"title" bson:"title"`
	Rating float32 `json:"rating" bson:"rating"`
	Genres string  `json:"genres,omitempty" bson:"genres,omitempty"`
}

// Recommendation is a movie recommended in a session.
type Recommendation struct {
	Title string  `json:"title" bson:"title"`
	Score float32 `json:"score" bson:"score"`
}

// Session is a recommendation request and its result.
type Session struct {
	Id              string           `json:"id" bson:"_id"`
	UserName        string           `json:"user_name" bson:"user_name"`
	Method          string           `json:"method" bson:"method"`
	Timestamp       time.Time        `json:"timestamp" bson:"timestamp"`
	Profile         []Entry          `json:"profile" bson:"profile"`
	Recommendations []Recommendation `json:"recommendations" bson:"recommendations"`
	// Raw is the text block of the session. It is only set by the file backend.
	Raw string `json:"raw,omitempty" bson:"-"`
}

// Validate checks that the session could be persisted.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.UserName) == "" {
		return errors.NotValidf("empty user name")
	}
	if strings.TrimSpace(s.Method) == "" {
		return errors.NotValidf("empty method")
	}
	// sessions are stored as lines in the text log
	if hasControl(s.UserName) {
		return errors.NotValidf("user name %q", s.UserName)
	}
	if hasControl(s.Method) {
		return errors.NotValidf("method %q", s.Method)
	}
	for _, entry := range s.Profile {
		if hasControl(entry.Title) {
			return errors.NotValidf("title %q", entry.Title)
		}
	}
	for _, rec := range s.Recommendations {
		if hasControl(rec.Title) {
			return errors.NotValidf("title %q", rec.Title)
		}
	}
	return nil
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return r != '\t' && unicode.IsControl(r)
	}) >= 0
}

// prepare validates the session and fills its id and timestamp.
func (s *Session) prepare() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Id == "" {
		s.Id = uuid.NewString()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	return nil
}

// Database stores sessions in append order.
type Database interface {
	Init() error
	Close() error
	Append(ctx context.Context, session *Session) error
	List(ctx context.Context) ([]*Session, error)
	Clear(ctx context.Context) error
}

// Open connects to a history database. A path without a known prefix is treated as a
// local directory.
func Open(path, tablePrefix string) (Database, error) {
	log.Logger().Debug("open history database", zap.String("path", log.RedactDBURL(path)))
	switch {
	case strings.HasPrefix(path, storage.MySQLPrefix):
		return openMySQL(path, tablePrefix)
	case strings.HasPrefix(path, storage.PostgresPrefix), strings.HasPrefix(path, storage.PostgreSQLPrefix):
		return openPostgres(path, tablePrefix)
	case strings.HasPrefix(path, storage.SQLitePrefix):
		return openSQLite(path, tablePrefix)
	case strings.HasPrefix(path, storage.RedisPrefix), strings.HasPrefix(path, storage.RedissPrefix):
		return openRedis(path, tablePrefix)
	case strings.HasPrefix(path, storage.MongoPrefix), strings.HasPrefix(path, storage.MongoSrvPrefix):
		return openMongo(path, tablePrefix)
	case strings.HasPrefix(path, storage.FilePrefix):
		return NewFile(strings.TrimPrefix(path, storage.FilePrefix)), nil
	}
	if strings.Contains(path, "://") {
		return nil, errors.NotSupportedf("history database %s", log.RedactDBURL(path))
	}
	return NewFile(path), nil
}
