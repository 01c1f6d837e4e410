package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kindredlab/kindred/backend/internal/model/session"
)

// RedisStore implements Store on Redis. Each document lives in a hash
// (doc JSON + revision token) and an index set holds the known ids so List
// can enumerate without SCAN.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix for all document keys (default: "kindred:session:").
	Prefix string
	// TTL is the document expiry duration (0 = never expire).
	TTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisStoreFromClient builds a store from an existing client. This is
// useful for testing with miniredis.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "kindred:session:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) docKey(id string) string {
	return s.prefix + "doc:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

// Get retrieves a document and its revision.
func (s *RedisStore) Get(ctx context.Context, id string) (session.Document, string, error) {
	fields, err := s.client.HMGet(ctx, s.docKey(id), "rev", "doc").Result()
	if err != nil {
		return session.Document{}, "", fmt.Errorf("get document: %w", err)
	}

	rev, _ := fields[0].(string)
	raw, _ := fields[1].(string)
	if rev == "" || raw == "" {
		return session.Document{}, "", ErrNotFound
	}

	var doc session.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return session.Document{}, "", fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, rev, nil
}

// Put writes a document guarded by WATCH so the revision check and the write
// land atomically. A stale revision, a lost WATCH race, or a create against
// an existing key all surface as ErrConflict.
func (s *RedisStore) Put(ctx context.Context, id string, doc session.Document, rev string) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	next := nextRevision(rev)
	key := s.docKey(id)

	txn := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "rev").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("read revision: %w", err)
		}
		if current != rev {
			return ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "rev", next, "doc", data)
			pipe.SAdd(ctx, s.indexKey(), id)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txn, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return "", ErrConflict
		}
		if errors.Is(err, ErrConflict) {
			return "", ErrConflict
		}
		return "", fmt.Errorf("put document: %w", err)
	}
	return next, nil
}

// List loads every indexed document. Ids are sorted for a deterministic scan
// order (Redis sets are unordered).
func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	sort.Strings(ids)

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		doc, _, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Expired document, drop it from the index.
				s.client.SRem(ctx, s.indexKey(), id)
				continue
			}
			return nil, err
		}
		entries = append(entries, Entry{ID: id, Document: doc})
	}
	return entries, nil
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
