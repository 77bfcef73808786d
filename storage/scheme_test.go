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

package storage

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestAppendURLParams(t *testing.T) {
	// test windows path
	url, err := AppendURLParams(`c:\\sqlite.db`, []lo.Tuple2[string, string]{{A: "a", B: "b"}})
	assert.NoError(t, err)
	assert.Equal(t, `c:\\sqlite.db?a=b`, url)
	// test no scheme
	url, err = AppendURLParams(`sqlite.db`, []lo.Tuple2[string, string]{{A: "a", B: "b"}})
	assert.NoError(t, err)
	assert.Equal(t, `sqlite.db?a=b`, url)
}

func TestAppendMySQLParams(t *testing.T) {
	dsn, err := AppendMySQLParams("root:password@tcp(localhost:3306)/recofilms?sql_mode=TRADITIONAL", map[string]string{
		"sql_mode":  "ANSI",
		"time_zone": "UTC",
	})
	assert.NoError(t, err)
	assert.Contains(t, dsn, "sql_mode=TRADITIONAL")
	assert.NotContains(t, dsn, "ANSI")
	assert.Contains(t, dsn, "time_zone=UTC")
}

func TestTablePrefix(t *testing.T) {
	prefix := TablePrefix("recofilms_")
	assert.Equal(t, "recofilms_sessions", prefix.SessionsTable())
	assert.Equal(t, "recofilms_session_entries", prefix.SessionEntriesTable())
	assert.Equal(t, "recofilms_history", prefix.Key("history"))
	assert.Equal(t, "sessions", TablePrefix("").SessionsTable())
}
