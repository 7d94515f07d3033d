package seatmap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingBooking lets a restarted client resume the payment step.
type PendingBooking struct {
	BookingID string    `json:"booking_id"`
	SavedAt   time.Time `json:"saved_at"`
}

// RecoveryStore persists the booking id of the last successful hold.
type RecoveryStore interface {
	Save(ctx context.Context, p PendingBooking) error
	Load(ctx context.Context) (PendingBooking, bool, error)
	Clear(ctx context.Context) error
}

const (
	keyBookingID = "pending_booking_id"
	keySavedAt   = "pending_booking_saved_at"
)

// MemoryRecovery keeps the pending booking in a process-local key/value map.
type MemoryRecovery struct {
	mu sync.Mutex
	kv map[string]string
}

func NewMemoryRecovery() *MemoryRecovery {
	return &MemoryRecovery{kv: map[string]string{}}
}

func (m *MemoryRecovery) Save(_ context.Context, p PendingBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[keyBookingID] = p.BookingID
	m.kv[keySavedAt] = p.SavedAt.UTC().Format(time.RFC3339Nano)
	return nil
}

func (m *MemoryRecovery) Load(_ context.Context) (PendingBooking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decodePending(m.kv)
}

func (m *MemoryRecovery) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, keyBookingID)
	delete(m.kv, keySavedAt)
	return nil
}

// RedisRecovery stores the pending booking in a Redis hash keyed by the
// client session, expiring together with the server-side hold.
type RedisRecovery struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisRecovery returns a store for the given session id.
func NewRedisRecovery(rdb *redis.Client, sessionID string, ttl time.Duration) *RedisRecovery {
	if ttl <= 0 {
		ttl = DefaultHoldWindow
	}
	return &RedisRecovery{rdb: rdb, key: "seatmap:recovery:" + sessionID, ttl: ttl}
}

func (r *RedisRecovery) Save(ctx context.Context, p PendingBooking) error {
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.key, keyBookingID, p.BookingID, keySavedAt, p.SavedAt.UTC().Format(time.RFC3339Nano))
	pipe.Expire(ctx, r.key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save pending booking: %w", err)
	}
	return nil
}

func (r *RedisRecovery) Load(ctx context.Context) (PendingBooking, bool, error) {
	kv, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return PendingBooking{}, false, fmt.Errorf("load pending booking: %w", err)
	}
	return decodePending(kv)
}

func (r *RedisRecovery) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}

func decodePending(kv map[string]string) (PendingBooking, bool, error) {
	id := kv[keyBookingID]
	if id == "" {
		return PendingBooking{}, false, nil
	}
	p := PendingBooking{BookingID: id}
	if raw := kv[keySavedAt]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return PendingBooking{}, false, fmt.Errorf("pending booking timestamp %q: %w", raw, err)
		}
		p.SavedAt = t
	}
	return p, true, nil
}
