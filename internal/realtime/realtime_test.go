package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func receive(t *testing.T, sub *Subscription) model.Seat {
	t.Helper()
	select {
	case s, ok := <-sub.C:
		require.True(t, ok, "subscription closed")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for seat event")
	}
	return model.Seat{}
}

func TestPublishSubscribe(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()

	sub, err := NewSubscriber(rdb, logger.NewNop()).Subscribe(ctx, "v1")
	require.NoError(t, err)
	defer sub.Close()
	other, err := NewSubscriber(rdb, logger.NewNop()).Subscribe(ctx, "v2")
	require.NoError(t, err)
	defer other.Close()

	pub := NewPublisher(rdb, logger.NewNop())
	require.NoError(t, pub.PublishSeats(ctx, "v1", []model.Seat{
		{ID: "S1", Status: model.SeatHold},
		{ID: "S2", Status: model.SeatHold},
	}))

	s1 := receive(t, sub)
	assert.Equal(t, "S1", s1.ID)
	assert.Equal(t, "v1", s1.VenueID)
	assert.Equal(t, "S2", receive(t, sub).ID)

	select {
	case s := <-other.C:
		t.Fatalf("unexpected event on other venue: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishSeats_Empty(t *testing.T) {
	assert.NoError(t, NewPublisher(nil, logger.NewNop()).PublishSeats(context.Background(), "v1", nil))
}

func TestSubscription_CloseEndsStream(t *testing.T) {
	_, rdb := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := NewSubscriber(rdb, logger.NewNop()).Subscribe(ctx, "v1")
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.C:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed")
	}
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "seats:venue:abc", Channel("abc"))
}

func TestStream_ClosesWithContext(t *testing.T) {
	_, rdb := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := NewSubscriber(rdb, logger.NewNop()).Stream(ctx, "v1")
	require.NoError(t, err)
	require.NoError(t, NewPublisher(rdb, logger.NewNop()).PublishSeats(context.Background(), "v1", []model.Seat{{ID: "S1"}}))

	select {
	case s := <-ch:
		assert.Equal(t, "S1", s.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for seat event")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
