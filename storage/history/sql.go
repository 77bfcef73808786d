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
	"database/sql"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorse-io/recofilms/storage"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/samber/lo"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

const (
	entryProfile        = "profile"
	entryRecommendation = "recommendation"
)

// SQLSession is a row of the sessions table. Seq keeps the append order.
type SQLSession struct {
	Seq       int64     `gorm:"column:seq;primaryKey;autoIncrement"`
	SessionId string    `gorm:"column:session_id;type:varchar(36);not null;uniqueIndex"`
	UserName  string    `gorm:"column:user_name;type:varchar(256);not null"`
	Method    string    `gorm:"column:method;type:varchar(256);not null"`
	Timestamp time.Time `gorm:"column:time_stamp;not null"`
}

// SQLEntry is a row of the session entries table: either a rated movie or a
// recommended movie of a session.
type SQLEntry struct {
	SessionId string  `gorm:"column:session_id;type:varchar(36);primaryKey"`
	Kind      string  `gorm:"column:kind;type:varchar(16);primaryKey"`
	Position  int     `gorm:"column:position;primaryKey"`
	Title     string  `gorm:"column:title;type:varchar(512);not null"`
	Value     float32 `gorm:"column:value;not null"`
	Genres    string  `gorm:"column:genres;type:varchar(512);not null"`
}

// SQLDatabase stores sessions in MySQL, Postgres or SQLite.
type SQLDatabase struct {
	storage.TablePrefix
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
}

func openMySQL(path, tablePrefix string) (Database, error) {
	name, err := storage.AppendMySQLParams(path[len(storage.MySQLPrefix):], map[string]string{
		"parseTime": "true",
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	database := &SQLDatabase{driver: MySQL, TablePrefix: storage.TablePrefix(tablePrefix)}
	if database.client, err = otelsql.Open("mysql", name,
		otelsql.WithAttributes(semconv.DBSystemMySQL),
		otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
	); err != nil {
		return nil, errors.Trace(err)
	}
	database.gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: database.client}), storage.NewGORMConfig(tablePrefix))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return database, nil
}

func openPostgres(path, tablePrefix string) (Database, error) {
	var err error
	database := &SQLDatabase{driver: Postgres, TablePrefix: storage.TablePrefix(tablePrefix)}
	if database.client, err = otelsql.Open("postgres", path,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
	); err != nil {
		return nil, errors.Trace(err)
	}
	database.gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: database.client}), storage.NewGORMConfig(tablePrefix))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return database, nil
}

func openSQLite(path, tablePrefix string) (Database, error) {
	// append parameters
	path, err := storage.AppendURLParams(path, []lo.Tuple2[string, string]{
		{A: "_pragma", B: "busy_timeout(10000)"},
		{A: "_pragma", B: "journal_mode(wal)"},
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	name := path[len(storage.SQLitePrefix):]
	database := &SQLDatabase{driver: SQLite, TablePrefix: storage.TablePrefix(tablePrefix)}
	if database.client, err = otelsql.Open("sqlite", name,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
		otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
	); err != nil {
		return nil, errors.Trace(err)
	}
	database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, storage.NewGORMConfig(tablePrefix))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return database, nil
}

// Init creates tables.
func (d *SQLDatabase) Init() error {
	db := d.gormDB
	if d.driver == MySQL {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB")
	}
	return errors.Trace(db.AutoMigrate(&SQLSession{}, &SQLEntry{}))
}

func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

// Append inserts the session and its entries in a transaction.
func (d *SQLDatabase) Append(ctx context.Context, session *Session) error {
	if err := session.prepare(); err != nil {
		return err
	}
	entries := make([]SQLEntry, 0, len(session.Profile)+len(session.Recommendations))
	for i, entry := range session.Profile {
		entries = append(entries, SQLEntry{
			SessionId: session.Id,
			Kind:      entryProfile,
			Position:  i,
			Title:     entry.Title,
			Value:     entry.Rating,
			Genres:    entry.Genres,
		})
	}
	for i, rec := range session.Recommendations {
		entries = append(entries, SQLEntry{
			SessionId: session.Id,
			Kind:      entryRecommendation,
			Position:  i,
			Title:     rec.Title,
			Value:     rec.Score,
		})
	}
	return errors.Trace(d.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&SQLSession{
			SessionId: session.Id,
			UserName:  session.UserName,
			Method:    session.Method,
			Timestamp: session.Timestamp,
		}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	}))
}

// List returns sessions in append order.
func (d *SQLDatabase) List(ctx context.Context) ([]*Session, error) {
	var rows []SQLSession
	if err := d.gormDB.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	var entries []SQLEntry
	if err := d.gormDB.WithContext(ctx).Order("session_id, kind, position").Find(&entries).Error; err != nil {
		return nil, errors.Trace(err)
	}
	sessions := make([]*Session, len(rows))
	index := make(map[string]*Session, len(rows))
	for i, row := range rows {
		sessions[i] = &Session{
			Id:              row.SessionId,
			UserName:        row.UserName,
			Method:          row.Method,
			Timestamp:       row.Timestamp.UTC(),
			Profile:         []Entry{},
			Recommendations: []Recommendation{},
		}
		index[row.SessionId] = sessions[i]
	}
	for _, entry := range entries {
		session, ok := index[entry.SessionId]
		if !ok {
			continue
		}
		switch entry.Kind {
		case entryProfile:
			session.Profile = append(session.Profile, Entry{Title: entry.Title, Rating: entry.Value, Genres: entry.Genres})
		case entryRecommendation:
			session.Recommendations = append(session.Recommendations, Recommendation{Title: entry.Title, Score: entry.Value})
		}
	}
	return sessions, nil
}

// Clear deletes all sessions.
func (d *SQLDatabase) Clear(ctx context.Context) error {
	db := d.gormDB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := db.Delete(&SQLEntry{}).Error; err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(db.Delete(&SQLSession{}).Error)
}
