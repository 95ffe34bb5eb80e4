// Package redisstore implements checkpoint.Store on top of Redis. Grounded
// on the teacher's internal/adapters/redis.Store, adapted from a
// single-key-per-session model to a per-thread append-only list, since the
// checkpoint contract needs an ordered log rather than last-write-wins.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// Store implements checkpoint.Store using Redis lists (one per thread) plus
// a ZSET index of active threads for lazy expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets an expiration on each thread's checkpoint log.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix overrides the default Redis key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Store connected to the given Redis address.
func New(addr, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient wraps an existing Redis client, useful for tests against
// miniredis.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: "stategraph:thread:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) logKey(threadID string) string { return s.prefix + threadID + ":log" }
func (s *Store) indexKey() string              { return s.prefix + "index" }

type record struct {
	ID         string `json:"id"`
	NodeID     string `json:"node_id"`
	NextNodeID string `json:"next_node_id"`
	State      []byte `json:"state"`
}

// Put implements checkpoint.Store.
func (s *Store) Put(ctx context.Context, threadID string, cp checkpoint.Checkpoint) (string, error) {
	cp.ID = uuid.NewString()
	data, err := json.Marshal(record{ID: cp.ID, NodeID: cp.NodeID, NextNodeID: cp.NextNodeID, State: cp.State})
	if err != nil {
		return "", fmt.Errorf("checkpoint: marshal: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.logKey(threadID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.logKey(threadID), s.ttl)
	}
	score := indexScore(s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: threadID})

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("checkpoint: put: %w", err)
	}
	return cp.ID, nil
}

func indexScore(ttl time.Duration) float64 {
	if ttl <= 0 {
		return 4102444800 // far future, matches the teacher's "no expiration" sentinel
	}
	return float64(time.Now().Add(ttl).Unix())
}

// Get implements checkpoint.Store.
func (s *Store) Get(ctx context.Context, threadID, id string) (checkpoint.Checkpoint, error) {
	raws, err := s.client.LRange(ctx, s.logKey(threadID), 0, -1).Result()
	if err != nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("checkpoint: get: %w", err)
	}
	if len(raws) == 0 {
		return checkpoint.Checkpoint{}, checkpoint.ErrNotFound
	}
	if id == "" {
		return decode(raws[len(raws)-1])
	}
	for _, raw := range raws {
		cp, err := decode(raw)
		if err == nil && cp.ID == id {
			return cp, nil
		}
	}
	return checkpoint.Checkpoint{}, checkpoint.ErrNotFound
}

// List implements checkpoint.Store.
func (s *Store) List(ctx context.Context, threadID string) ([]checkpoint.Checkpoint, error) {
	raws, err := s.client.LRange(ctx, s.logKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list: %w", err)
	}
	out := make([]checkpoint.Checkpoint, 0, len(raws))
	for _, raw := range raws {
		cp, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// Delete implements checkpoint.Store. Redis has no direct "remove by
// predicate from list" primitive, so this reads the full log, filters, and
// rewrites it inside a transaction.
func (s *Store) Delete(ctx context.Context, threadID, id string) error {
	raws, err := s.client.LRange(ctx, s.logKey(threadID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("checkpoint: delete: %w", err)
	}
	kept := make([]any, 0, len(raws))
	for _, raw := range raws {
		cp, err := decode(raw)
		if err == nil && cp.ID == id {
			continue
		}
		kept = append(kept, raw)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.logKey(threadID))
	if len(kept) > 0 {
		pipe.RPush(ctx, s.logKey(threadID), kept...)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.logKey(threadID), s.ttl)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

// PruneExpiredThreads removes threads from the index whose score has
// passed, mirroring the teacher's lazy-cleanup List implementation.
func (s *Store) PruneExpiredThreads(ctx context.Context) error {
	now := fmt.Sprintf("%f", float64(time.Now().Unix()))
	return s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", now).Err()
}

// ListThreads returns every active thread id known to the index.
func (s *Store) ListThreads(ctx context.Context) ([]string, error) {
	if err := s.PruneExpiredThreads(ctx); err != nil {
		return nil, fmt.Errorf("checkpoint: prune: %w", err)
	}
	return s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
}

// Close closes the underlying Redis client.
func (s *Store) Close() error { return s.client.Close() }

func decode(raw string) (checkpoint.Checkpoint, error) {
	var r record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("checkpoint: decode: %w", err)
	}
	return checkpoint.Checkpoint{ID: r.ID, NodeID: r.NodeID, NextNodeID: r.NextNodeID, State: r.State}, nil
}
