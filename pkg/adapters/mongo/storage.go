// Package mongo implements core.Storage as one document per key in a
// MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/introspection"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aretw0/qafizz/pkg/core"
)

const (
	// DefaultDatabase is used when the config leaves Database empty.
	DefaultDatabase = "qafizz"
	// DefaultCollection is used when the config leaves Collection empty.
	DefaultCollection = "kv"
	// maxUpdateAttempts bounds optimistic retries in Update.
	maxUpdateAttempts = 16
)

// ErrConflict is returned when Update keeps losing the race for a key.
var ErrConflict = errors.New("mongo: too many concurrent updates")

// Config holds the configuration for the Mongo storage.
type Config struct {
	URI        string
	Database   string
	Collection string
	Logger     *slog.Logger
}

type document struct {
	Key     string `bson:"_id"`
	Value   string `bson:"value"`
	Version int64  `bson:"version"`
}

// Storage implements core.Storage and core.Atomic. Update uses a version
// field for optimistic concurrency.
type Storage struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
	owned  bool
}

// Connect dials the server, pings it and returns a storage over the
// configured collection.
func Connect(ctx context.Context, config Config) (*Storage, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("mongo: empty uri: %w", core.ErrUnavailable)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w: %w", core.ErrUnavailable, err)
	}

	s := New(client, config)
	s.owned = true
	return s, nil
}

// New wraps an existing client. The caller keeps ownership of client.
func New(client *mongo.Client, config Config) *Storage {
	db := config.Database
	if db == "" {
		db = DefaultDatabase
	}
	coll := config.Collection
	if coll == "" {
		coll = DefaultCollection
	}
	return &Storage{
		client: client,
		coll:   client.Database(db).Collection(coll),
		logger: config.Logger,
	}
}

func (s *Storage) find(ctx context.Context, key string) (document, bool, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return document{}, false, nil
	}
	if err != nil {
		return document{}, false, fmt.Errorf("find %s: %w", key, err)
	}
	return doc, true, nil
}

// Get reads the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	doc, ok, err := s.find(ctx, key)
	return doc.Value, ok, err
}

// Set upserts value under key.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}, "$inc": bson.M{"version": 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if s.logger != nil {
		s.logger.Debug("key written", "key", key, "bytes", len(value))
	}
	return nil
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Update reads the document, runs fn and writes back only if nobody bumped
// the version in between, retrying otherwise.
func (s *Storage) Update(ctx context.Context, key string, fn core.UpdateFunc) error {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		doc, ok, err := s.find(ctx, key)
		if err != nil {
			return err
		}

		next, keep, err := fn(doc.Value, ok)
		if errors.Is(err, core.ErrUnchanged) {
			return nil
		}
		if err != nil {
			return err
		}

		won, err := s.commit(ctx, key, doc, ok, next, keep)
		if err != nil {
			return err
		}
		if won {
			return nil
		}
		if s.logger != nil {
			s.logger.Debug("update conflict, retrying", "key", key, "attempt", attempt+1)
		}
	}
	return fmt.Errorf("update %s: %w", key, ErrConflict)
}

// commit applies one optimistic write and reports whether it won.
func (s *Storage) commit(ctx context.Context, key string, prev document, existed bool, next string, keep bool) (bool, error) {
	switch {
	case !existed && !keep:
		return true, nil

	case !existed:
		_, err := s.coll.InsertOne(ctx, document{Key: key, Value: next, Version: 1})
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("insert %s: %w", key, err)
		}
		return true, nil

	case !keep:
		res, err := s.coll.DeleteOne(ctx, bson.M{"_id": key, "version": prev.Version})
		if err != nil {
			return false, fmt.Errorf("remove %s: %w", key, err)
		}
		return res.DeletedCount == 1, nil

	default:
		res, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": key, "version": prev.Version},
			bson.M{"$set": bson.M{"value": next, "version": prev.Version + 1}},
		)
		if err != nil {
			return false, fmt.Errorf("write %s: %w", key, err)
		}
		return res.MatchedCount == 1, nil
	}
}

// Drop removes the whole collection.
func (s *Storage) Drop(ctx context.Context) error {
	return s.coll.Drop(ctx)
}

// Close disconnects the client when Connect created it.
func (s *Storage) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// StorageState exposes internal state for observability.
type StorageState struct {
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	return StorageState{
		Database:   s.coll.Database().Name(),
		Collection: s.coll.Name(),
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "mongo-storage"
}

var (
	_ core.Storage                 = (*Storage)(nil)
	_ core.Atomic                  = (*Storage)(nil)
	_ core.Closer                  = (*Storage)(nil)
	_ introspection.Introspectable = (*Storage)(nil)
	_ introspection.Component      = (*Storage)(nil)
)
