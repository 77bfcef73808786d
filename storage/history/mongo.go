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
	"time"

	"github.com/gorse-io/recofilms/storage"
	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

// MongoDB stores sessions in a collection. Documents are ordered by insertion time.
type MongoDB struct {
	storage.TablePrefix
	client *mongo.Client
	dbName string
}

type mongoSession struct {
	Session `bson:",inline"`
	Seq     int64 `bson:"seq"`
}

func openMongo(path, tablePrefix string) (Database, error) {
	var err error
	database := &MongoDB{TablePrefix: storage.TablePrefix(tablePrefix)}
	opts := options.Client()
	opts.Monitor = otelmongo.NewMonitor()
	opts.ApplyURI(path)
	if database.client, err = mongo.Connect(context.Background(), opts); err != nil {
		return nil, errors.Trace(err)
	}
	// parse DSN and extract database name
	cs, err := connstring.ParseAndValidate(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	database.dbName = cs.Database
	return database, nil
}

func (m *MongoDB) collection() *mongo.Collection {
	return m.client.Database(m.dbName).Collection(m.SessionsTable())
}

// Init creates the index of sequence numbers.
func (m *MongoDB) Init() error {
	_, err := m.collection().Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.M{"seq": 1},
	})
	return errors.Trace(err)
}

func (m *MongoDB) Close() error {
	return m.client.Disconnect(context.Background())
}

func (m *MongoDB) Append(ctx context.Context, session *Session) error {
	if err := session.prepare(); err != nil {
		return err
	}
	_, err := m.collection().InsertOne(ctx, mongoSession{
		Session: *session,
		Seq:     time.Now().UnixNano(),
	})
	return errors.Trace(err)
}

func (m *MongoDB) List(ctx context.Context) ([]*Session, error) {
	cur, err := m.collection().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer cur.Close(ctx)
	sessions := make([]*Session, 0)
	for cur.Next(ctx) {
		var doc mongoSession
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Trace(err)
		}
		doc.Session.Timestamp = doc.Session.Timestamp.UTC()
		sessions = append(sessions, &doc.Session)
	}
	return sessions, errors.Trace(cur.Err())
}

func (m *MongoDB) Clear(ctx context.Context) error {
	_, err := m.collection().DeleteMany(ctx, bson.M{})
	return errors.Trace(err)
}
