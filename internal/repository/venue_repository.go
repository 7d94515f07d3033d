package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/event-seat-booking/internal/model"
)

// VenueRepo reads venue layouts: zones, decorative areas, rows and seats.
type VenueRepo struct {
    db *sql.DB
}

// NewVenueRepo returns a new VenueRepo bound to db.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// GetLayout loads a venue with its full zone → row → seat tree ordered by
// sort_order.  It returns ErrVenueNotFound when the venue does not exist.
func (r *VenueRepo) GetLayout(ctx context.Context, venueID string) (*model.Venue, error) {
    v := &model.Venue{}
    err := r.db.QueryRowContext(ctx,
        `SELECT id, name, width, height FROM venues WHERE id = ?`, venueID,
    ).Scan(&v.ID, &v.Name, &v.Width, &v.Height)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrVenueNotFound
    }
    if err != nil {
        return nil, err
    }

    zones := map[string]*model.Zone{}
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, name, x, y FROM zones WHERE venue_id = ? ORDER BY sort_order, id`, venueID)
    if err != nil {
        return nil, err
    }
    for rows.Next() {
        z := &model.Zone{}
        if err := rows.Scan(&z.ID, &z.Name, &z.X, &z.Y); err != nil {
            rows.Close()
            return nil, err
        }
        zones[z.ID] = z
        v.Zones = append(v.Zones, z)
    }
    if err := closeRows(rows); err != nil {
        return nil, err
    }

    rows, err = r.db.QueryContext(ctx,
        `SELECT a.id, a.zone_id, a.label, a.kind, a.x, a.y, a.width, a.height
         FROM zone_areas a JOIN zones z ON z.id = a.zone_id
         WHERE z.venue_id = ? ORDER BY a.id`, venueID)
    if err != nil {
        return nil, err
    }
    for rows.Next() {
        var a model.Area
        var zoneID string
        if err := rows.Scan(&a.ID, &zoneID, &a.Label, &a.Kind, &a.X, &a.Y, &a.Width, &a.Height); err != nil {
            rows.Close()
            return nil, err
        }
        if z := zones[zoneID]; z != nil {
            z.Areas = append(z.Areas, a)
        }
    }
    if err := closeRows(rows); err != nil {
        return nil, err
    }

    seatRows := map[string]*model.Row{}
    rows, err = r.db.QueryContext(ctx,
        `SELECT sr.id, sr.zone_id, sr.row_label, sr.x, sr.y
         FROM seat_rows sr JOIN zones z ON z.id = sr.zone_id
         WHERE z.venue_id = ? ORDER BY sr.sort_order, sr.id`, venueID)
    if err != nil {
        return nil, err
    }
    for rows.Next() {
        row := &model.Row{}
        var zoneID string
        if err := rows.Scan(&row.ID, &zoneID, &row.RowNumber, &row.X, &row.Y); err != nil {
            rows.Close()
            return nil, err
        }
        if z := zones[zoneID]; z != nil {
            seatRows[row.ID] = row
            z.Rows = append(z.Rows, row)
        }
    }
    if err := closeRows(rows); err != nil {
        return nil, err
    }

    rows, err = r.db.QueryContext(ctx,
        `SELECT `+seatColumns+`, row_id FROM seats WHERE venue_id = ? ORDER BY sort_order, id`, venueID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var rowID string
        s, err := scanSeat(rows, &rowID)
        if err != nil {
            return nil, err
        }
        if row := seatRows[rowID]; row != nil {
            row.Seats = append(row.Seats, s)
        }
    }
    return v, rows.Err()
}

const seatColumns = `id, venue_id, seat_number, category, status, x, y, radius, booking_id, name_on_ticket, updated_at`

type scanner interface {
    Scan(dest ...interface{}) error
}

// scanSeat reads seatColumns followed by any extra destinations.
func scanSeat(sc scanner, extra ...interface{}) (*model.Seat, error) {
    s := &model.Seat{}
    var bookingID, name sql.NullString
    dest := []interface{}{&s.ID, &s.VenueID, &s.SeatNumber, &s.Category, &s.Status, &s.X, &s.Y, &s.Radius, &bookingID, &name, &s.UpdatedAt}
    if err := sc.Scan(append(dest, extra...)...); err != nil {
        return nil, err
    }
    if bookingID.Valid {
        s.BookingID = &bookingID.String
    }
    if name.Valid {
        s.NameOnTicket = &name.String
    }
    return s, nil
}

func closeRows(rows *sql.Rows) error {
    if err := rows.Err(); err != nil {
        rows.Close()
        return err
    }
    return rows.Close()
}
