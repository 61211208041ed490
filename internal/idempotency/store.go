package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idempotency:"

// Record is a stored response. A record that is not Done marks a request still
// being processed.
type Record struct {
	Done        bool   `json:"done"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Reserve claims key for a new request. It returns the existing record and
// false when the key is already taken.
func (s *Store) Reserve(ctx context.Context, key string) (Record, bool, error) {
	pending, err := json.Marshal(Record{})
	if err != nil {
		return Record{}, false, fmt.Errorf("encode record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+key, pending, s.ttl).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return Record{}, true, nil
	}

	existing, err := s.load(ctx, key)
	if err != nil {
		return Record{}, false, err
	}
	return existing, false, nil
}

func (s *Store) Complete(ctx context.Context, key string, rec Record) error {
	rec.Done = true
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store idempotency record: %w", err)
	}
	return nil
}

// Release forgets key so the request can be retried.
func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, key string) (Record, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, nil
		}
		return Record{}, fmt.Errorf("load idempotency record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
