package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

const keyPrefix = "ordering:idempotency:"

// DefaultIdempotencyTTL bounds how long placement replays stay available.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore keeps placement idempotency records in Redis with a TTL,
// claiming keys with SET NX so concurrent retries cannot both win.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore dials Redis at addr. Caller closes via Close.
func NewIdempotencyStore(addr string, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Ping verifies connectivity.
func (s *IdempotencyStore) Ping(ctx context.Context) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *IdempotencyStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Get returns the stored record for the key, or nil when unknown or expired.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	payload, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record storedRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, err
	}
	return record.toPort(key), nil
}

// Save claims the key with SET NX; an already-claimed key is compared against
// the incoming record and surfaced as ErrIdempotencyConflict on mismatch.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	stored := storedRecord{
		RequestHash: record.RequestHash,
		OrderID:     record.OrderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	ok, err := s.client.SetNX(ctx, keyPrefix+record.Key, payload, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return stored.toPort(record.Key), nil
	}
	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Claimed record expired between SetNX and Get; treat as claimed by us.
		return stored.toPort(record.Key), s.client.Set(ctx, keyPrefix+record.Key, payload, s.ttl).Err()
	}
	if existing.RequestHash != record.RequestHash || existing.OrderID != record.OrderID {
		return existing, ports.ErrIdempotencyConflict
	}
	return existing, nil
}

func (s *IdempotencyStore) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis idempotency store not configured")
	}
	return nil
}

type storedRecord struct {
	RequestHash string    `json:"requestHash"`
	OrderID     int64     `json:"orderId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r storedRecord) toPort(key string) *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:         key,
		RequestHash: r.RequestHash,
		OrderID:     r.OrderID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
