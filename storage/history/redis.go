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
	"encoding/json"

	"github.com/gorse-io/recofilms/storage"
	"github.com/juju/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// Redis stores sessions as JSON documents in a list.
type Redis struct {
	storage.TablePrefix
	client *redis.Client
}

func openRedis(path, tablePrefix string) (Database, error) {
	opt, err := redis.ParseURL(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	database := &Redis{TablePrefix: storage.TablePrefix(tablePrefix)}
	database.client = redis.NewClient(opt)
	if err = redisotel.InstrumentTracing(database.client); err != nil {
		return nil, errors.Trace(err)
	}
	return database, nil
}

// Init nothing.
func (r *Redis) Init() error {
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Append(ctx context.Context, session *Session) error {
	if err := session.prepare(); err != nil {
		return err
	}
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(r.client.RPush(ctx, r.SessionsTable(), data).Err())
}

func (r *Redis) List(ctx context.Context) ([]*Session, error) {
	values, err := r.client.LRange(ctx, r.SessionsTable(), 0, -1).Result()
	if err != nil {
		return nil, errors.Trace(err)
	}
	sessions := make([]*Session, 0, len(values))
	for _, value := range values {
		var session Session
		if err = json.Unmarshal([]byte(value), &session); err != nil {
			return nil, errors.Trace(err)
		}
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

func (r *Redis) Clear(ctx context.Context) error {
	return errors.Trace(r.client.Del(ctx, r.SessionsTable()).Err())
}
