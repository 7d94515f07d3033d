package seatmap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
)

// seatLoc addresses a seat inside the zone/row/seat tree.
type seatLoc struct {
	zone, row, seat int
}

// Catalog holds the current snapshot of one venue.  Snapshots are never
// mutated in place: ApplyPatch copies the path from the venue down to the
// patched seat and leaves every other zone, row and seat pointer shared
// with the previous snapshot, so renderers can memoize on identity.
type Catalog struct {
	src VenueSource
	log logger.Logger

	mu      sync.RWMutex
	venueID string
	venue   *model.Venue
	cats    model.CategoryTable
	index   map[string]seatLoc
	loaded  time.Time

	// Patches applied while a fetch is in flight are kept so they can be
	// replayed onto the fetched snapshot.  seq numbers them.
	loading int
	seq     uint64
	pending []pendingPatch
}

type pendingPatch struct {
	seq    uint64
	seatID string
	patch  SeatPatch
}

// NewCatalog returns an empty catalog reading from src.
func NewCatalog(src VenueSource, log logger.Logger) *Catalog {
	if log == nil {
		log = logger.NewNop()
	}
	return &Catalog{src: src, log: log, cats: model.CategoryTable{}, index: map[string]seatLoc{}}
}

// Load fetches the venue and the visible category table and replaces the
// current snapshot.  Seats in categories hidden by an admin are dropped.
// On error the previous snapshot is kept.  Realtime patches that arrive
// while the fetch is in flight are replayed onto the new snapshot, unless
// the fetched seat is already newer.
func (c *Catalog) Load(ctx context.Context, venueID string) error {
	start := c.beginLoad()
	defer c.endLoad()

	data, err := c.src.FetchVenue(ctx, venueID)
	if err != nil {
		return c.fail(venueID, err)
	}
	if data == nil || data.Venue == nil {
		return c.fail(venueID, ErrVenueNotFound)
	}
	visible, err := c.src.VisibleCategories(ctx)
	if err != nil {
		return c.fail(venueID, err)
	}

	cats, hidden := filterCategories(data.Categories, visible)
	venue, index, err := buildSnapshot(data.Venue, hidden)
	if err != nil {
		lerr := &LoadError{Kind: LoadInvalid, VenueID: venueID, Err: err}
		c.log.Error("catalog load rejected", "venue_id", venueID, "error", err)
		return lerr
	}

	c.mu.Lock()
	c.venueID = venueID
	c.venue = venue
	c.cats = cats
	c.index = index
	c.loaded = time.Now()
	replayed := c.replayLocked(start)
	c.mu.Unlock()

	c.log.Debug("catalog loaded", "venue_id", venueID, "seats", len(index), "categories", len(cats), "replayed", replayed)
	return nil
}

func (c *Catalog) beginLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading++
	return c.seq
}

func (c *Catalog) endLoad() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading--
	if c.loading == 0 {
		c.pending = nil
	}
}

// replayLocked re-applies the patches recorded after seq start.  A patch
// older than the fetched seat record is skipped.
func (c *Catalog) replayLocked(start uint64) int {
	n := 0
	for _, pp := range c.pending {
		if pp.seq <= start {
			continue
		}
		loc, ok := c.index[pp.seatID]
		if !ok {
			continue
		}
		cur := c.venue.Zones[loc.zone].Rows[loc.row].Seats[loc.seat]
		if !pp.patch.UpdatedAt.IsZero() && pp.patch.UpdatedAt.Before(cur.UpdatedAt) {
			continue
		}
		if c.applyLocked(pp.seatID, pp.patch) {
			n++
		}
	}
	return n
}

// Reload re-fetches the venue currently loaded.  It is the correction
// path after a realtime gap or an ambiguous submission.
func (c *Catalog) Reload(ctx context.Context) error {
	c.mu.RLock()
	id := c.venueID
	c.mu.RUnlock()
	if id == "" {
		return &LoadError{Kind: LoadInvalid, Err: errors.New("no venue loaded")}
	}
	return c.Load(ctx, id)
}

func (c *Catalog) fail(venueID string, err error) error {
	kind := LoadNetwork
	if errors.Is(err, ErrVenueNotFound) {
		kind = LoadNotFound
	}
	c.log.Warn("catalog load failed", "venue_id", venueID, "kind", kind.String(), "error", err)
	return &LoadError{Kind: kind, VenueID: venueID, Err: err}
}

// ApplyPatch updates the fields of one seat.  It reports whether the seat
// was found; unknown ids are logged and ignored.  A seat moved into a
// category that is not visible is removed from the snapshot.
func (c *Catalog) ApplyPatch(seatID string, p SeatPatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading > 0 {
		c.seq++
		c.pending = append(c.pending, pendingPatch{seq: c.seq, seatID: seatID, patch: p})
	}
	return c.applyLocked(seatID, p)
}

func (c *Catalog) applyLocked(seatID string, p SeatPatch) bool {
	loc, ok := c.index[seatID]
	if !ok || c.venue == nil {
		c.log.Debug("patch for unknown seat ignored", "seat_id", seatID, "venue_id", c.venueID)
		return false
	}
	if p.Status != nil && !p.Status.Valid() {
		c.log.Warn("patch carries invalid status", "seat_id", seatID, "status", string(*p.Status))
		p.Status = nil
	}

	oldRow := c.venue.Zones[loc.zone].Rows[loc.row]
	row := *oldRow

	if p.Category != nil {
		if _, visible := c.cats[*p.Category]; !visible {
			row.Seats = make([]*model.Seat, 0, len(oldRow.Seats)-1)
			row.Seats = append(row.Seats, oldRow.Seats[:loc.seat]...)
			row.Seats = append(row.Seats, oldRow.Seats[loc.seat+1:]...)
			delete(c.index, seatID)
			for i := loc.seat; i < len(row.Seats); i++ {
				c.index[row.Seats[i].ID] = seatLoc{zone: loc.zone, row: loc.row, seat: i}
			}
			c.replaceRowLocked(loc, &row)
			c.log.Debug("seat moved to hidden category", "seat_id", seatID, "category", *p.Category)
			return true
		}
	}

	seat := *oldRow.Seats[loc.seat]
	p.apply(&seat)
	row.Seats = append([]*model.Seat(nil), oldRow.Seats...)
	row.Seats[loc.seat] = &seat
	c.replaceRowLocked(loc, &row)
	return true
}

// replaceRowLocked publishes a new venue in which only the path down to
// row differs from the current one.
func (c *Catalog) replaceRowLocked(loc seatLoc, row *model.Row) {
	oldZone := c.venue.Zones[loc.zone]
	zone := *oldZone
	zone.Rows = append([]*model.Row(nil), oldZone.Rows...)
	zone.Rows[loc.row] = row

	venue := *c.venue
	venue.Zones = append([]*model.Zone(nil), c.venue.Zones...)
	venue.Zones[loc.zone] = &zone

	c.venue = &venue
}

// Snapshot returns the current venue.  Callers must treat it as read-only.
func (c *Catalog) Snapshot() *model.Venue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.venue
}

// Seat looks up a seat of the current snapshot by id.
func (c *Catalog) Seat(id string) (*model.Seat, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.venue.Zones[loc.zone].Rows[loc.row].Seats[loc.seat], true
}

// SeatLabel returns "<row>-<seat>" for display, or the id when unknown.
func (c *Catalog) SeatLabel(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.index[id]
	if !ok {
		return id
	}
	row := c.venue.Zones[loc.zone].Rows[loc.row]
	return row.RowNumber + "-" + row.Seats[loc.seat].SeatNumber
}

// Categories returns the visible category table.
func (c *Catalog) Categories() model.CategoryTable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cats
}

// VenueID returns the id of the loaded venue, or "" before the first load.
func (c *Catalog) VenueID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.venueID
}

// LoadedAt returns when the current snapshot was fetched.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// filterCategories keeps the categories present in visible and returns the
// names of the fetched categories that are hidden.
func filterCategories(all, visible []model.Category) (model.CategoryTable, map[string]bool) {
	show := make(map[string]bool, len(visible))
	for _, v := range visible {
		show[v.Name] = true
	}
	table := make(model.CategoryTable, len(all))
	hidden := map[string]bool{}
	for _, cat := range all {
		if show[cat.Name] {
			table[cat.Name] = cat
		} else {
			hidden[cat.Name] = true
		}
	}
	return table, hidden
}

// buildSnapshot deep-copies the fetched tree, drops seats of hidden
// categories and indexes seat ids.  Duplicate seat ids are rejected.
func buildSnapshot(src *model.Venue, hidden map[string]bool) (*model.Venue, map[string]seatLoc, error) {
	index := make(map[string]seatLoc)
	venue := &model.Venue{ID: src.ID, Name: src.Name, Width: src.Width, Height: src.Height}
	venue.Zones = make([]*model.Zone, 0, len(src.Zones))
	for _, z := range src.Zones {
		if z == nil {
			continue
		}
		zone := &model.Zone{ID: z.ID, Name: z.Name, X: z.X, Y: z.Y}
		zone.Areas = append([]model.Area(nil), z.Areas...)
		zone.Rows = make([]*model.Row, 0, len(z.Rows))
		for _, r := range z.Rows {
			if r == nil {
				continue
			}
			row := &model.Row{ID: r.ID, RowNumber: r.RowNumber, X: r.X, Y: r.Y}
			row.Seats = make([]*model.Seat, 0, len(r.Seats))
			for _, s := range r.Seats {
				if s == nil || hidden[s.Category] {
					continue
				}
				if _, dup := index[s.ID]; dup {
					return nil, nil, fmt.Errorf("duplicate seat id %q", s.ID)
				}
				seat := *s
				index[s.ID] = seatLoc{zone: len(venue.Zones), row: len(zone.Rows), seat: len(row.Seats)}
				row.Seats = append(row.Seats, &seat)
			}
			zone.Rows = append(zone.Rows, row)
		}
		venue.Zones = append(venue.Zones, zone)
	}
	return venue, index, nil
}

// SeatPatch lists the seat fields a realtime event may change.  Nil
// fields are left untouched; ClearBooking drops the booking reference and
// ticket name before BookingID/NameOnTicket are applied.
type SeatPatch struct {
	Status       *model.SeatStatus
	Category     *string
	BookingID    *string
	NameOnTicket *string
	ClearBooking bool
	UpdatedAt    time.Time
}

// PatchFromSeat builds a patch that overwrites every mutable field of a
// seat with the values of a full server record.
func PatchFromSeat(s model.Seat) SeatPatch {
	status := s.Status
	p := SeatPatch{
		Status:       &status,
		BookingID:    s.BookingID,
		NameOnTicket: s.NameOnTicket,
		ClearBooking: s.BookingID == nil,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.Category != "" {
		category := s.Category
		p.Category = &category
	}
	return p
}

func (p SeatPatch) apply(s *model.Seat) {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.ClearBooking {
		s.BookingID = nil
		s.NameOnTicket = nil
	}
	if p.BookingID != nil {
		id := *p.BookingID
		s.BookingID = &id
	}
	if p.NameOnTicket != nil {
		name := *p.NameOnTicket
		s.NameOnTicket = &name
	}
	if !p.UpdatedAt.IsZero() {
		s.UpdatedAt = p.UpdatedAt
	}
}
