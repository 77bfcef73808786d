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
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gorse-io/recofilms/config"
	"github.com/juju/errors"
)

const (
	S3Prefix    = "s3://"
	GCSPrefix   = "gcs://"
	AzurePrefix = "azblob://"
)

// Store reads and writes files in a directory, a bucket or a container.
type Store interface {
	// Open a file for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create a file for writing. The returned channel is closed when the content is
	// persisted after the writer is closed.
	Create(ctx context.Context, name string) (io.WriteCloser, chan struct{}, error)
}

// Location is a file in a store.
type Location struct {
	Store Store
	Name  string
}

// Parse resolves a path to a store and a file name. Paths prefixed by s3://, gcs://
// or azblob:// address object storages, where the host is the bucket (container) and
// the path is the object name. Other paths are local files.
func Parse(path string, cfg *config.Config) (*Location, error) {
	switch {
	case strings.HasPrefix(path, S3Prefix):
		bucket, name, err := splitObjectURL(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		store, err := NewS3(cfg.S3, bucket, "")
		if err != nil {
			return nil, errors.Trace(err)
		}
		return &Location{Store: store, Name: name}, nil
	case strings.HasPrefix(path, GCSPrefix):
		bucket, name, err := splitObjectURL(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		store, err := NewGCS(cfg.GCS, bucket, "")
		if err != nil {
			return nil, errors.Trace(err)
		}
		return &Location{Store: store, Name: name}, nil
	case strings.HasPrefix(path, AzurePrefix):
		container, name, err := splitObjectURL(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		store, err := NewAzureBlob(cfg.Azure, container, "")
		if err != nil {
			return nil, errors.Trace(err)
		}
		return &Location{Store: store, Name: name}, nil
	}
	return &Location{Store: NewPOSIX(filepath.Dir(path)), Name: filepath.Base(path)}, nil
}

func splitObjectURL(rawURL string) (string, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", errors.Trace(err)
	}
	name := strings.TrimPrefix(parsed.Path, "/")
	if parsed.Host == "" || name == "" {
		return "", "", errors.NotValidf("object url %s", rawURL)
	}
	return parsed.Host, name, nil
}

// Open is a shorthand for opening the file at the location.
func (l *Location) Open(ctx context.Context) (io.ReadCloser, error) {
	return l.Store.Open(ctx, l.Name)
}

// Write copies the content of a reader to the location and waits until it's persisted.
func (l *Location) Write(ctx context.Context, r io.Reader) error {
	w, done, err := l.Store.Create(ctx, l.Name)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = io.Copy(w, r); err != nil {
		_ = w.Close()
		<-done
		return errors.Trace(err)
	}
	if err = w.Close(); err != nil {
		<-done
		return errors.Trace(err)
	}
	<-done
	return nil
}
