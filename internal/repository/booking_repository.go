package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "sort"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/event-seat-booking/internal/model"
)

// BookingRepo owns every seat status transition.  Each public method runs
// in a single transaction and returns the seats it changed so callers can
// fan them out to realtime subscribers.
type BookingRepo struct {
    db  *sql.DB
    now func() time.Time
    ids func() string
}

// NewBookingRepo returns a new BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo {
    return &BookingRepo{
        db:  db,
        now: func() time.Time { return time.Now().UTC() },
        ids: func() string { return uuid.NewString() },
    }
}

// AttemptParams is a validated booking request.
type AttemptParams struct {
    VenueID         string
    SeatIDs         []string
    GuestName       string
    Email           string
    Phone           string
    PaymentProofURL *string
    HoldTTL         time.Duration
}

// AttemptResult reports the outcome of AttemptTx.  Exactly one of Booking
// and Rejected is set.  Released lists seats freed from expired holds on
// the way, which happens whether or not the attempt succeeds.
type AttemptResult struct {
    Booking  *model.Booking
    Rejected string
    Held     []model.Seat
    Released []Release
}

// Release is one booking whose hold was released and the seats it freed.
type Release struct {
    Booking model.Booking
    Seats   []model.Seat
}

// AttemptTx performs the atomic hold: every requested seat moves from
// available to hold under a new booking, or nothing changes.  Business
// rejections are reported through AttemptResult.Rejected, not as errors.
func (r *BookingRepo) AttemptTx(ctx context.Context, p AttemptParams) (*AttemptResult, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    now := r.now()
    res := &AttemptResult{}

    // release expired holds of this venue before checking availability
    released, err := r.expireTx(ctx, tx, `status = 'hold' AND venue_id = ? AND hold_expires_at <= ?`, 0, p.VenueID, now)
    if err != nil {
        return nil, fmt.Errorf("expire holds: %w", err)
    }
    res.Released = released

    locked, err := r.lockSeatsTx(ctx, tx, p.VenueID, p.SeatIDs)
    if err != nil {
        return nil, fmt.Errorf("lock seats: %w", err)
    }
    if msg := unavailableMessage(p.SeatIDs, locked); msg != "" {
        // nothing but the expiry release was written
        if err := tx.Commit(); err != nil {
            return nil, err
        }
        committed = true
        res.Rejected = msg
        return res, nil
    }

    prices, err := r.pricesTx(ctx, tx)
    if err != nil {
        return nil, fmt.Errorf("load prices: %w", err)
    }
    var amount int64
    for _, id := range p.SeatIDs {
        amount += prices[locked[id].category]
    }

    b := &model.Booking{
        ID:              r.ids(),
        VenueID:         p.VenueID,
        GuestName:       p.GuestName,
        Email:           p.Email,
        Phone:           p.Phone,
        Amount:          amount,
        PaymentProofURL: p.PaymentProofURL,
        Status:          model.BookingHold,
        SeatIDs:         append([]string(nil), p.SeatIDs...),
        HoldExpiresAt:   now.Add(p.HoldTTL),
        CreatedAt:       now,
        UpdatedAt:       now,
    }
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO bookings (id, venue_id, guest_name, email, phone, amount, payment_proof_url, status, hold_expires_at, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        b.ID, b.VenueID, b.GuestName, b.Email, b.Phone, b.Amount, b.PaymentProofURL, b.Status, b.HoldExpiresAt, now, now,
    ); err != nil {
        return nil, fmt.Errorf("insert booking: %w", err)
    }

    query := `INSERT INTO booking_seats (booking_id, seat_id) VALUES ` +
        strings.TrimSuffix(strings.Repeat("(?, ?), ", len(p.SeatIDs)), ", ")
    args := make([]interface{}, 0, len(p.SeatIDs)*2)
    for _, id := range p.SeatIDs {
        args = append(args, b.ID, id)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return nil, fmt.Errorf("insert booking seats: %w", err)
    }

    upd, err := tx.ExecContext(ctx,
        `UPDATE seats SET status = 'hold', booking_id = ?, name_on_ticket = ?
         WHERE venue_id = ? AND status = 'available' AND id IN (`+placeholders(len(p.SeatIDs))+`)`,
        append([]interface{}{b.ID, b.GuestName, p.VenueID}, stringArgs(p.SeatIDs)...)...,
    )
    if err != nil {
        return nil, fmt.Errorf("hold seats: %w", err)
    }
    if n, err := upd.RowsAffected(); err != nil || n != int64(len(p.SeatIDs)) {
        // the row locks make this unreachable unless the schema changes
        // underneath us; the rollback keeps it all-or-nothing regardless
        return nil, fmt.Errorf("hold seats: updated %d of %d rows", n, len(p.SeatIDs))
    }

    held, err := r.seatsTx(ctx, tx, `booking_id = ?`, b.ID)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    res.Booking = b
    res.Held = held
    return res, nil
}

// Get returns a booking with its seat ids.
func (r *BookingRepo) Get(ctx context.Context, id string) (*model.Booking, error) {
    b, err := r.getBooking(ctx, r.db, id, false)
    if err != nil {
        return nil, err
    }
    rows, err := r.db.QueryContext(ctx, `SELECT seat_id FROM booking_seats WHERE booking_id = ? ORDER BY seat_id`, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var sid string
        if err := rows.Scan(&sid); err != nil {
            return nil, err
        }
        b.SeatIDs = append(b.SeatIDs, sid)
    }
    return b, rows.Err()
}

// AttachPaymentProof moves a live hold to pending_approval.
func (r *BookingRepo) AttachPaymentProof(ctx context.Context, id, proofURL string) (*model.Booking, []model.Seat, error) {
    return r.transition(ctx, id, func(b *model.Booking, now time.Time) (model.BookingStatus, model.SeatStatus, error) {
        if b.Status != model.BookingHold {
            return "", "", ErrInvalidTransition
        }
        if !b.HoldExpiresAt.After(now) {
            return "", "", ErrHoldExpired
        }
        b.PaymentProofURL = &proofURL
        return model.BookingPendingApproval, model.SeatPendingApproval, nil
    })
}

// Approve confirms a booking awaiting review; its seats become booked.
func (r *BookingRepo) Approve(ctx context.Context, id, reviewer string) (*model.Booking, []model.Seat, error) {
    return r.transition(ctx, id, func(b *model.Booking, _ time.Time) (model.BookingStatus, model.SeatStatus, error) {
        if b.Status != model.BookingPendingApproval {
            return "", "", ErrInvalidTransition
        }
        return model.BookingApproved, model.SeatBooked, nil
    }, reviewer)
}

// Reject cancels a held or pending booking and frees its seats.
func (r *BookingRepo) Reject(ctx context.Context, id, reviewer string) (*model.Booking, []model.Seat, error) {
    return r.transition(ctx, id, func(b *model.Booking, _ time.Time) (model.BookingStatus, model.SeatStatus, error) {
        if b.Status != model.BookingHold && b.Status != model.BookingPendingApproval {
            return "", "", ErrInvalidTransition
        }
        return model.BookingRejected, model.SeatAvailable, nil
    }, reviewer)
}

// ReleaseExpired frees up to limit holds whose window closed before now,
// across all venues.  Rows locked by a concurrent transaction are skipped
// and picked up by the next sweep.
func (r *BookingRepo) ReleaseExpired(ctx context.Context, limit int) ([]Release, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    released, err := r.expireTx(ctx, tx, `status = 'hold' AND hold_expires_at <= ?`, limit, r.now())
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return released, nil
}

type transitionFunc func(b *model.Booking, now time.Time) (model.BookingStatus, model.SeatStatus, error)

func (r *BookingRepo) transition(ctx context.Context, id string, fn transitionFunc, reviewer ...string) (*model.Booking, []model.Seat, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    b, err := r.getBooking(ctx, tx, id, true)
    if err != nil {
        return nil, nil, err
    }
    now := r.now()
    bookingStatus, seatStatus, err := fn(b, now)
    if err != nil {
        return nil, nil, err
    }

    var by *string
    if len(reviewer) > 0 && reviewer[0] != "" {
        by = &reviewer[0]
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = ?, payment_proof_url = ?, reviewed_by = COALESCE(?, reviewed_by), updated_at = ? WHERE id = ?`,
        bookingStatus, b.PaymentProofURL, by, now, id,
    ); err != nil {
        return nil, nil, fmt.Errorf("update booking: %w", err)
    }

    // capture ids first: a release clears booking_id
    seatIDs, err := r.bookingSeatIDsTx(ctx, tx, id)
    if err != nil {
        return nil, nil, err
    }
    if err := r.setSeatStatusTx(ctx, tx, id, seatStatus); err != nil {
        return nil, nil, err
    }
    var seats []model.Seat
    if len(seatIDs) > 0 {
        seats, err = r.seatsTx(ctx, tx, `id IN (`+placeholders(len(seatIDs))+`)`, stringArgs(seatIDs)...)
        if err != nil {
            return nil, nil, err
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, nil, err
    }
    committed = true
    b.Status = bookingStatus
    b.UpdatedAt = now
    b.SeatIDs = seatIDs
    return b, seats, nil
}

// expireTx marks matching held bookings expired and frees their seats.
func (r *BookingRepo) expireTx(ctx context.Context, tx *sql.Tx, where string, limit int, args ...interface{}) ([]Release, error) {
    q := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + where + ` ORDER BY hold_expires_at`
    if limit > 0 {
        q += fmt.Sprintf(" LIMIT %d", limit)
    }
    q += ` FOR UPDATE SKIP LOCKED`
    rows, err := tx.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    var expired []*model.Booking
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            rows.Close()
            return nil, err
        }
        expired = append(expired, b)
    }
    if err := closeRows(rows); err != nil {
        return nil, err
    }

    now := r.now()
    out := make([]Release, 0, len(expired))
    for _, b := range expired {
        if _, err := tx.ExecContext(ctx,
            `UPDATE bookings SET status = 'expired', updated_at = ? WHERE id = ?`, now, b.ID); err != nil {
            return nil, err
        }
        ids, err := r.bookingSeatIDsTx(ctx, tx, b.ID)
        if err != nil {
            return nil, err
        }
        if err := r.setSeatStatusTx(ctx, tx, b.ID, model.SeatAvailable); err != nil {
            return nil, err
        }
        var seats []model.Seat
        if len(ids) > 0 {
            if seats, err = r.seatsTx(ctx, tx, `id IN (`+placeholders(len(ids))+`)`, stringArgs(ids)...); err != nil {
                return nil, err
            }
        }
        b.Status = model.BookingExpired
        b.UpdatedAt = now
        b.SeatIDs = ids
        out = append(out, Release{Booking: *b, Seats: seats})
    }
    return out, nil
}

// setSeatStatusTx moves every seat still attached to the booking.  Moving
// to available also detaches the seat from the booking.
func (r *BookingRepo) setSeatStatusTx(ctx context.Context, tx *sql.Tx, bookingID string, status model.SeatStatus) error {
    q := `UPDATE seats SET status = ? WHERE booking_id = ?`
    if status == model.SeatAvailable {
        q = `UPDATE seats SET status = ?, booking_id = NULL, name_on_ticket = NULL WHERE booking_id = ?`
    }
    if _, err := tx.ExecContext(ctx, q, status, bookingID); err != nil {
        return fmt.Errorf("update seats: %w", err)
    }
    return nil
}

type lockedSeat struct {
    status   model.SeatStatus
    category string
    label    string
}

func (r *BookingRepo) lockSeatsTx(ctx context.Context, tx *sql.Tx, venueID string, ids []string) (map[string]lockedSeat, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT s.id, s.status, s.category, sr.row_label, s.seat_number
         FROM seats s JOIN seat_rows sr ON sr.id = s.row_id
         WHERE s.venue_id = ? AND s.id IN (`+placeholders(len(ids))+`)
         FOR UPDATE`,
        append([]interface{}{venueID}, stringArgs(ids)...)...,
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[string]lockedSeat, len(ids))
    for rows.Next() {
        var id, row, number string
        var ls lockedSeat
        if err := rows.Scan(&id, &ls.status, &ls.category, &row, &number); err != nil {
            return nil, err
        }
        ls.label = row + "-" + number
        out[id] = ls
    }
    return out, rows.Err()
}

// unavailableMessage names the requested seats that cannot be held, or
// returns "" when all of them are available.
func unavailableMessage(requested []string, locked map[string]lockedSeat) string {
    var missing, taken []string
    for _, id := range requested {
        s, ok := locked[id]
        switch {
        case !ok:
            missing = append(missing, id)
        case s.status != model.SeatAvailable:
            taken = append(taken, s.label)
        }
    }
    var parts []string
    if len(taken) > 0 {
        parts = append(parts, "Seats no longer available: "+strings.Join(taken, ", "))
    }
    if len(missing) > 0 {
        sort.Strings(missing)
        parts = append(parts, "Unknown seats: "+strings.Join(missing, ", "))
    }
    return strings.Join(parts, ". ")
}

func (r *BookingRepo) pricesTx(ctx context.Context, tx *sql.Tx) (map[string]int64, error) {
    rows, err := tx.QueryContext(ctx, `SELECT name, price FROM seat_categories`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := map[string]int64{}
    for rows.Next() {
        var name string
        var price int64
        if err := rows.Scan(&name, &price); err != nil {
            return nil, err
        }
        out[name] = price
    }
    return out, rows.Err()
}

func (r *BookingRepo) seatsTx(ctx context.Context, tx *sql.Tx, where string, args ...interface{}) ([]model.Seat, error) {
    rows, err := tx.QueryContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE `+where+` ORDER BY id`, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Seat
    for rows.Next() {
        s, err := scanSeat(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *s)
    }
    return out, rows.Err()
}

func (r *BookingRepo) bookingSeatIDsTx(ctx context.Context, tx *sql.Tx, bookingID string) ([]string, error) {
    rows, err := tx.QueryContext(ctx, `SELECT seat_id FROM booking_seats WHERE booking_id = ? ORDER BY seat_id`, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []string
    for rows.Next() {
        var id string
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

const bookingColumns = `id, venue_id, guest_name, email, phone, amount, payment_proof_url, status, hold_expires_at, created_at, updated_at`

type queryRower interface {
    QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *BookingRepo) getBooking(ctx context.Context, q queryRower, id string, lock bool) (*model.Booking, error) {
    query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
    if lock {
        query += ` FOR UPDATE`
    }
    b, err := scanBooking(q.QueryRowContext(ctx, query, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    return b, err
}

func scanBooking(sc scanner) (*model.Booking, error) {
    b := &model.Booking{}
    var proof sql.NullString
    if err := sc.Scan(&b.ID, &b.VenueID, &b.GuestName, &b.Email, &b.Phone, &b.Amount, &proof,
        &b.Status, &b.HoldExpiresAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
        return nil, err
    }
    if proof.Valid {
        b.PaymentProofURL = &proof.String
    }
    return b, nil
}
