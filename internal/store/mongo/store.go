// Package mongo implements the document-store boundary on MongoDB, one
// database per tenant.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/loziogigio/vinc-pim-sub001/internal/domain"
	"github.com/loziogigio/vinc-pim-sub001/internal/store"
)

// Config holds MongoDB store configuration.
type Config struct {
	URI string
	// DBPrefix is prepended to the tenant id to form the database name,
	// e.g. prefix "catalog" + tenant "acme" -> database "catalog_acme".
	DBPrefix string
	Timeout  time.Duration
}

// Store is the MongoDB-backed document store.
type Store struct {
	client *mongo.Client
	cfg    Config
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Connect opens the MongoDB client and verifies connectivity.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("mongodb connected", slog.String("db_prefix", cfg.DBPrefix))

	return &Store{client: client, cfg: cfg, logger: logger}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) database(tenant string) *mongo.Database {
	name := tenant
	if s.cfg.DBPrefix != "" {
		name = s.cfg.DBPrefix + "_" + tenant
	}
	return s.client.Database(name)
}

// LoadCollection returns every current record of a tenant collection keyed
// by id.
func (s *Store) LoadCollection(ctx context.Context, tenant, collection string) (map[string]domain.Entity, error) {
	cur, err := s.database(tenant).Collection(collection).Find(ctx, bson.M{"is_current": true})
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", tenant, collection, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	out := make(map[string]domain.Entity)
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s/%s record: %w", tenant, collection, err)
		}
		e := toEntity(raw)
		if id := e.ID(); id != "" {
			out[id] = e
		}
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s/%s: %w", tenant, collection, err)
	}

	s.logger.DebugContext(ctx, "collection loaded",
		slog.String("tenant", tenant),
		slog.String("collection", collection),
		slog.Int("records", len(out)),
	)

	return out, nil
}

// ProductsByEntityCodes returns current product records for the given entity
// codes, keyed by entity code, in one batched query.
func (s *Store) ProductsByEntityCodes(ctx context.Context, tenant string, codes []string) (map[string]domain.Entity, error) {
	if len(codes) == 0 {
		return map[string]domain.Entity{}, nil
	}

	filter := bson.M{
		"entity_code": bson.M{"$in": codes},
		"is_current":  true,
	}
	cur, err := s.database(tenant).Collection(store.CollectionProducts).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load %s/products: %w", tenant, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	out := make(map[string]domain.Entity, len(codes))
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s/products record: %w", tenant, err)
		}
		e := toEntity(raw)
		if code, ok := e["entity_code"].(string); ok && code != "" {
			out[code] = e
		}
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s/products: %w", tenant, err)
	}

	return out, nil
}

// toEntity normalizes a bson document into the dynamic Entity shape and
// stringifies the _id into "id" when no explicit id is stored. Nested
// documents and arrays are converted to plain map[string]any / []any: the
// merge and localization code downstream type-asserts on those shapes, and
// the driver's primitive.M / primitive.D / primitive.A must never leak past
// this boundary.
func toEntity(raw bson.M) domain.Entity {
	e, _ := normalizeBSON(raw).(map[string]any)
	if e == nil {
		return domain.Entity{}
	}
	if _, ok := e["id"]; !ok {
		if id, ok := e["_id"].(string); ok && id != "" {
			e["id"] = id
		}
	}
	delete(e, "_id")
	return domain.Entity(e)
}

func normalizeBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeBSON(val)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, el := range t {
			out[el.Key] = normalizeBSON(el.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeBSON(val)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	}
	return v
}
