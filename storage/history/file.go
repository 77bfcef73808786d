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
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gorse-io/recofilms/base"
	"github.com/juju/errors"
)

const (
	TextLogName = "history.txt"
	CSVLogName  = "history.csv"
)

var csvHeader = []string{"title", "rating", "genres", "method"}

// File stores sessions in a directory: a readable text log and a tabular log of rated
// movies. Timestamps and ids are not kept by the text format.
type File struct {
	dir string
	mu  sync.Mutex
}

func NewFile(dir string) *File {
	return &File{dir: dir}
}

func (f *File) TextLogPath() string {
	return filepath.Join(f.dir, TextLogName)
}

func (f *File) CSVLogPath() string {
	return filepath.Join(f.dir, CSVLogName)
}

// Init creates the directory.
func (f *File) Init() error {
	return errors.Trace(os.MkdirAll(f.dir, os.ModePerm))
}

func (f *File) Close() error {
	return nil
}

// Append writes the session to both logs. Each log receives a single write on a
// descriptor opened in append mode.
func (f *File) Append(_ context.Context, session *Session) error {
	if err := session.prepare(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := appendFile(f.CSVLogPath(), func(empty bool) string {
		var builder strings.Builder
		if empty {
			builder.WriteString(base.JoinFields(csvHeader...) + "\n")
		}
		for _, entry := range session.Profile {
			builder.WriteString(base.JoinFields(entry.Title, FormatFloat(float64(entry.Rating), 32), entry.Genres, session.Method) + "\n")
		}
		return builder.String()
	}); err != nil {
		return errors.Trace(err)
	}
	return appendFile(f.TextLogPath(), func(bool) string {
		return FormatSession(session)
	})
}

func appendFile(path string, content func(empty bool) string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = file.WriteString(content(stat.Size() == 0)); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// List parses the text log. A missing log means no session.
func (f *File) List(_ context.Context) ([]*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text, err := os.ReadFile(f.TextLogPath())
	if errors.Is(err, os.ErrNotExist) {
		return []*Session{}, nil
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return ParseSessions(string(text)), nil
}

// Clear removes both logs.
func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, path := range []string{f.TextLogPath(), f.CSVLogPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.Trace(err)
		}
	}
	return nil
}
