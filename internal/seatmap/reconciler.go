package seatmap

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
)

// Reconciler forwards realtime seat events into a Catalog.  Events are
// applied in arrival order and simply overwrite: the last write wins.
type Reconciler struct {
	feed    Feed
	catalog *Catalog
	log     logger.Logger

	mu      sync.Mutex
	sub     Subscription
	venueID string

	applied atomic.Int64
	dropped atomic.Int64
}

// NewReconciler wires a feed to a catalog.
func NewReconciler(feed Feed, catalog *Catalog, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reconciler{feed: feed, catalog: catalog, log: log}
}

// Start subscribes to seat changes of venueID, replacing any previous
// subscription.
func (r *Reconciler) Start(ctx context.Context, venueID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()

	sub, err := r.feed.Subscribe(ctx, venueID, r.handle)
	if err != nil {
		r.log.Warn("realtime subscribe failed", "venue_id", venueID, "error", err)
		return fmt.Errorf("subscribe venue %s: %w", venueID, err)
	}
	r.sub = sub
	r.venueID = venueID
	r.log.Debug("realtime subscribed", "venue_id", venueID)
	return nil
}

// Stop closes the current subscription.  It is safe to call repeatedly.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

// Switch moves the catalog and the subscription to another venue.
func (r *Reconciler) Switch(ctx context.Context, venueID string) error {
	r.Stop()
	if err := r.catalog.Load(ctx, venueID); err != nil {
		return err
	}
	return r.Start(ctx, venueID)
}

// Stats returns how many events were applied and how many were dropped.
func (r *Reconciler) Stats() (applied, dropped int64) {
	return r.applied.Load(), r.dropped.Load()
}

func (r *Reconciler) closeLocked() {
	if r.sub == nil {
		return
	}
	if err := r.sub.Close(); err != nil {
		r.log.Warn("realtime unsubscribe failed", "venue_id", r.venueID, "error", err)
	}
	r.sub = nil
	r.venueID = ""
}

// handle runs on the feed goroutine and must not take r.mu.
func (r *Reconciler) handle(seat model.Seat) {
	if seat.VenueID != "" && seat.VenueID != r.catalog.VenueID() {
		r.dropped.Add(1)
		return
	}
	if r.catalog.ApplyPatch(seat.ID, PatchFromSeat(seat)) {
		r.applied.Add(1)
		return
	}
	r.dropped.Add(1)
}
