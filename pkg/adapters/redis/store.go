package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/parley/pkg/document"
	"github.com/aretw0/parley/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces the keys written by Store and Locker.
const DefaultPrefix = "parley:blackboard:"

// neverExpires is the index score of blackboards saved without a TTL (2100-01-01).
const neverExpires = 4102444800

// Store implements ports.BlackboardStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration of stored blackboards.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to build a Locker on it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(documentID string) string {
	return s.prefix + documentID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save writes the blackboard and indexes it by expiry in a single pipeline.
func (s *Store) Save(ctx context.Context, documentID string, vars *domain.Blackboard) error {
	data, err := document.MarshalBlackboard(vars)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(documentID), data, s.ttl)

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = neverExpires
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: documentID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the blackboard of a document.
func (s *Store) Load(ctx context.Context, documentID string) (*domain.Blackboard, error) {
	val, err := s.client.Get(ctx, s.key(documentID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrBlackboardNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return document.UnmarshalBlackboard(val)
}

// Delete removes the blackboard and its index entry.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(documentID))
	pipe.ZRem(ctx, s.indexKey(), documentID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the documents with a live blackboard. Expired entries are
// pruned from the index lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired blackboards: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list blackboards: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
