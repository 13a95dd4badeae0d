package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const connectTimeout = 15 * time.Second

// Mongo stores records in a MongoDB collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

// Connect dials uri and verifies the deployment with a ping.
func Connect(ctx context.Context, uri, database, collection string, logger *zap.Logger) (*Mongo, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("mongodb uri is required")
	}
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	m := NewMongo(client.Database(database).Collection(collection), logger)
	m.client = client
	return m, nil
}

// NewMongo wraps an existing collection. Close is a no-op for stores built this way.
func NewMongo(coll *mongo.Collection, logger *zap.Logger) *Mongo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mongo{coll: coll, logger: logger}
}

// WithCollection returns a store for another collection of the same database.
func (m *Mongo) WithCollection(name string) *Mongo {
	return &Mongo{
		coll:   m.coll.Database().Collection(name),
		logger: m.logger,
	}
}

func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	models := make([]mongo.IndexModel, 0, len(IndexedFields))
	for _, field := range IndexedFields {
		model := mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}}
		if field == "username" {
			model.Options = options.Index().SetUnique(true)
		}
		models = append(models, model)
	}

	names, err := m.coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	m.logger.Info("database indexes ensured", zap.Strings("indexes", names))
	return nil
}

func (m *Mongo) Exists(ctx context.Context, username string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	err := m.coll.FindOne(ctx, bson.D{{Key: "username", Value: username}}, opts).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		return false, fmt.Errorf("find %s: %w", username, err)
	}
}

func (m *Mongo) Upsert(ctx context.Context, rec Record) error {
	if rec.Username == "" {
		return errors.New("record username is required")
	}

	_, err := m.coll.UpdateOne(ctx,
		bson.D{{Key: "username", Value: rec.Username}},
		bson.D{{Key: "$set", Value: rec}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Username, err)
	}
	return nil
}

// InsertMany inserts docs unordered and returns how many were written.
func (m *Mongo) InsertMany(ctx context.Context, docs []any) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	res, err := m.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		inserted := 0
		if res != nil {
			inserted = len(res.InsertedIDs)
		}
		return inserted, fmt.Errorf("insert into %s: %w", m.coll.Name(), err)
	}
	return len(res.InsertedIDs), nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}
