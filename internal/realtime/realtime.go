// Package realtime fans seat changes out to every connected client through
// Redis Pub/Sub.  Each venue has its own channel; each message is one full
// seat record.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
)

// Channel returns the Pub/Sub channel of a venue.
func Channel(venueID string) string {
	return "seats:venue:" + venueID
}

// Publisher announces committed seat changes.
type Publisher struct {
	rdb *redis.Client
	log logger.Logger
}

func NewPublisher(rdb *redis.Client, log logger.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: log}
}

// PublishSeats sends one message per seat in a single pipeline.  Delivery
// is best effort: subscribers correct gaps by reloading.
func (p *Publisher) PublishSeats(ctx context.Context, venueID string, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	ch := Channel(venueID)
	pipe := p.rdb.Pipeline()
	for _, s := range seats {
		if s.VenueID == "" {
			s.VenueID = venueID
		}
		body, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode seat %s: %w", s.ID, err)
		}
		pipe.Publish(ctx, ch, body)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %d seats to %s: %w", len(seats), ch, err)
	}
	p.log.Debug("seats published", "channel", ch, "count", len(seats))
	return nil
}

// Subscriber opens per-connection subscriptions.
type Subscriber struct {
	rdb *redis.Client
	log logger.Logger
}

func NewSubscriber(rdb *redis.Client, log logger.Logger) *Subscriber {
	return &Subscriber{rdb: rdb, log: log}
}

// Subscription streams decoded seats on C until Close is called or the
// context passed to Subscribe ends.
type Subscription struct {
	C <-chan model.Seat

	ps   *redis.PubSub
	once sync.Once
	done chan struct{}
}

// Subscribe waits for Redis to confirm the subscription so no message
// published after it returns is missed.
func (s *Subscriber) Subscribe(ctx context.Context, venueID string) (*Subscription, error) {
	ps := s.rdb.Subscribe(ctx, Channel(venueID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(venueID), err)
	}

	out := make(chan model.Seat, 64)
	sub := &Subscription{C: out, ps: ps, done: make(chan struct{})}
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case <-sub.done:
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var seat model.Seat
				if err := json.Unmarshal([]byte(m.Payload), &seat); err != nil {
					s.log.Warn("dropping malformed seat event", "channel", m.Channel, "error", err)
					continue
				}
				select {
				case out <- seat:
				case <-sub.done:
					return
				case <-ctx.Done():
					_ = sub.Close()
					return
				}
			}
		}
	}()
	return sub, nil
}

// Close unsubscribes.  It is safe to call more than once.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

// Stream subscribes to venueID and returns the seat channel, which is
// closed once ctx ends.
func (s *Subscriber) Stream(ctx context.Context, venueID string) (<-chan model.Seat, error) {
	sub, err := s.Subscribe(ctx, venueID)
	if err != nil {
		return nil, err
	}
	return sub.C, nil
}
