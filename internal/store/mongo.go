package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/JonMunkholm/recordflow/internal/config"
	"github.com/JonMunkholm/recordflow/internal/core"
)

// Mongo stores documents in three MongoDB collections.
type Mongo struct {
	client  *mongo.Client
	ok      *mongo.Collection
	ko      *mongo.Collection
	history *mongo.Collection
	timeout time.Duration
}

// OpenMongo connects and pings the server before returning.
func OpenMongo(ctx context.Context, cfg config.MongoConfig, timeout time.Duration) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, storeError("connect mongo", err)
	}

	db := client.Database(cfg.Database)
	m := &Mongo{
		client:  client,
		ok:      db.Collection(cfg.CollectionOK),
		ko:      db.Collection(cfg.CollectionKO),
		history: db.Collection(cfg.CollectionHistory),
		timeout: timeout,
	}

	if err := m.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *Mongo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

func (m *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return storeError("ping mongo", m.client.Ping(ctx, nil))
}

func (m *Mongo) Close(ctx context.Context) error {
	return storeError("disconnect mongo", m.client.Disconnect(ctx))
}

func (m *Mongo) InsertValid(ctx context.Context, records []core.Record) error {
	return m.insertMany(ctx, m.ok, records)
}

func (m *Mongo) InsertInvalid(ctx context.Context, records []core.Record) error {
	return m.insertMany(ctx, m.ko, records)
}

func (m *Mongo) insertMany(ctx context.Context, coll *mongo.Collection, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]any, len(records))
	for i, rec := range records {
		docs[i] = core.Plain(rec)
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	_, err := coll.InsertMany(ctx, docs)
	return storeError(fmt.Sprintf("insert into %s", coll.Name()), err)
}

func (m *Mongo) InsertSummary(ctx context.Context, s core.RunSummary) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	_, err := m.history.InsertOne(ctx, summaryDocument(s))
	return storeError(fmt.Sprintf("insert into %s", m.history.Name()), err)
}

func (m *Mongo) ListValid(ctx context.Context) ([]map[string]any, error) {
	return m.findAll(ctx, m.ok)
}

func (m *Mongo) ListInvalid(ctx context.Context) ([]map[string]any, error) {
	return m.findAll(ctx, m.ko)
}

func (m *Mongo) ListSummaries(ctx context.Context) ([]map[string]any, error) {
	return m.findAll(ctx, m.history)
}

func (m *Mongo) findAll(ctx context.Context, coll *mongo.Collection) ([]map[string]any, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 0}}).
		SetSort(bson.D{{Key: "$natural", Value: 1}})

	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, storeError(fmt.Sprintf("find in %s", coll.Name()), err)
	}
	defer cursor.Close(ctx)

	out := []map[string]any{}
	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return nil, storeError(fmt.Sprintf("decode from %s", coll.Name()), err)
		}
		out = append(out, plainDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError(fmt.Sprintf("cursor on %s", coll.Name()), err)
	}
	return out, nil
}

// plainDocument converts a decoded BSON document into JSON-friendly values.
// The _id field is dropped even if a projection let it through.
func plainDocument(doc bson.D) map[string]any {
	out := make(map[string]any, len(doc))
	for _, e := range doc {
		if e.Key == "_id" {
			continue
		}
		out[e.Key] = plainBSON(e.Value)
	}
	return out
}

func plainBSON(v any) any {
	switch val := v.(type) {
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = plainBSON(e.Value)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = plainBSON(item)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plainBSON(item)
		}
		return out
	case bson.DateTime:
		return val.Time().UTC()
	case bson.ObjectID:
		return val.Hex()
	default:
		return v
	}
}
