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
	"strings"
	"testing"

	"github.com/gorse-io/recofilms/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPOSIX(t *testing.T) {
	ctx := context.Background()
	client := NewPOSIX(path.Join(t.TempDir(), "blob"))

	// write a temp file
	w, done, err := client.Create(ctx, "test")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	<-done

	// read the file
	r, err := client.Open(ctx, "test")
	assert.NoError(t, err)
	content, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
	assert.NoError(t, r.Close())

	// read a missing file
	_, err = client.Open(ctx, "missing")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestParse(t *testing.T) {
	cfg := config.GetDefaultConfig()
	location, err := Parse("data/ratings.csv", cfg)
	require.NoError(t, err)
	assert.IsType(t, &POSIX{}, location.Store)
	assert.Equal(t, "ratings.csv", location.Name)

	cfg.S3.Endpoint = "localhost:9000"
	location, err = Parse("s3://recofilms/data/ratings.csv", cfg)
	require.NoError(t, err)
	assert.Equal(t, "recofilms", location.Store.(*S3).bucket)
	assert.Equal(t, "data/ratings.csv", location.Name)

	location, err = Parse("azblob://recofilms/ratings.csv", &config.Config{Azure: config.AzureConfig{
		AccountName: "devstoreaccount1",
		AccountKey:  "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==",
	}})
	require.NoError(t, err)
	assert.Equal(t, "recofilms", location.Store.(*AzureBlob).container)

	_, err = Parse("s3://recofilms", cfg)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = Parse("azblob://recofilms/ratings.csv", cfg)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestLocationWrite(t *testing.T) {
	ctx := context.Background()
	location, err := Parse(path.Join(t.TempDir(), "export", "history.txt"), config.GetDefaultConfig())
	require.NoError(t, err)
	require.NoError(t, location.Write(ctx, strings.NewReader("hello")))
	data, err := os.ReadFile(path.Join(location.Store.(*POSIX).dir, "history.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	r, err := location.Open(ctx)
	require.NoError(t, err)
	defer r.Close()
	data, err = io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
