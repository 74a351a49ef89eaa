// Package catalog looks up externally tracked pricing documents and
// derives the enrichment projection written next to the product report.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound indicates no document exists for the requested asin.
	ErrNotFound = errors.New("catalog document not found")

	// ErrInvalidDocument indicates a stored document failed to decode.
	ErrInvalidDocument = errors.New("invalid catalog document")
)

// Store is the document lookup contract the enricher depends on.
type Store interface {
	// FindByASINs returns every stored document whose asin is in the
	// given set. Result order is whatever the store returns; asins with
	// no document are silently absent.
	FindByASINs(ctx context.Context, asins []string) ([]Document, error)
}

const keyPrefix = "catalog:doc:"

func docKey(asin string) string {
	return keyPrefix + asin
}

// RedisStore keeps one JSON document per asin.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a redis-backed catalog store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// FindByASINs fetches all matching documents in one round trip.
// Duplicate and empty asins are collapsed before the lookup.
func (s *RedisStore) FindByASINs(ctx context.Context, asins []string) ([]Document, error) {
	keys := make([]string, 0, len(asins))
	seen := make(map[string]struct{}, len(asins))
	for _, asin := range asins {
		if asin == "" {
			continue
		}
		if _, ok := seen[asin]; ok {
			continue
		}
		seen[asin] = struct{}{}
		keys = append(keys, docKey(asin))
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	docs := make([]Document, 0, len(values))
	for i, value := range values {
		if value == nil {
			continue
		}
		raw, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected value type for %s", ErrInvalidDocument, keys[i])
		}

		var doc Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Get retrieves a single document by asin.
// Returns ErrNotFound if no document exists.
func (s *RedisStore) Get(ctx context.Context, asin string) (*Document, error) {
	data, err := s.redis.Get(ctx, docKey(asin)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// Put stores a document under its asin, replacing any previous version.
func (s *RedisStore) Put(ctx context.Context, doc Document) error {
	if doc.ASIN == "" {
		return fmt.Errorf("document asin cannot be empty")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal catalog document: %w", err)
	}

	if err := s.redis.Set(ctx, docKey(doc.ASIN), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
