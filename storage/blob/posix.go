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

package blob

import (
	"context"
	"io"
	"os"
	"path"

	"github.com/gorse-io/recofilms/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

type POSIX struct {
	dir string
}

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

// Open a file for reading.
func (p *POSIX) Open(_ context.Context, name string) (io.ReadCloser, error) {
	fullPath := path.Join(p.dir, name)
	file, err := os.Open(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.NewNotFound(err, fullPath)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return file, nil
}

// Create a new file for writing. Parent directories are created if missing.
func (p *POSIX) Create(_ context.Context, name string) (io.WriteCloser, chan struct{}, error) {
	fullPath := path.Join(p.dir, name)
	if err := os.MkdirAll(path.Dir(fullPath), os.ModePerm); err != nil {
		return nil, nil, errors.Trace(err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	done := make(chan struct{})
	pr, pw := io.Pipe()
	go func() {
		defer func() {
			_ = file.Close()
			close(done)
		}()
		if _, err := io.Copy(file, pr); err != nil {
			log.Logger().Error("failed to write to file", zap.String("file", fullPath), zap.Error(err))
		}
	}()
	return pw, done, nil
}
