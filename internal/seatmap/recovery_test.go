package seatmap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseRecovery(t *testing.T, store RecoveryStore) {
	ctx := context.Background()
	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	saved := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, PendingBooking{BookingID: "b-1", SavedAt: saved}))
	p, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b-1", p.BookingID)
	assert.True(t, p.SavedAt.Equal(saved))

	require.NoError(t, store.Clear(ctx))
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRecovery(t *testing.T) {
	exerciseRecovery(t, NewMemoryRecovery())
}

func TestRedisRecovery(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	exerciseRecovery(t, NewRedisRecovery(rdb, "session-1", time.Minute))

	store := NewRedisRecovery(rdb, "session-2", time.Minute)
	require.NoError(t, store.Save(context.Background(), PendingBooking{BookingID: "b-2", SavedAt: time.Now()}))
	assert.Equal(t, time.Minute, mr.TTL("seatmap:recovery:session-2"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "entry expires with the hold")
}
