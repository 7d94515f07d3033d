package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

func TestGetLayout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM venues WHERE id").WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "width", "height"}).AddRow("v1", "Main Hall", 1200.0, 800.0))
	mock.ExpectQuery("FROM zones WHERE venue_id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "x", "y"}).AddRow("Z1", "Floor", 100.0, 100.0))
	mock.ExpectQuery("FROM zone_areas a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "zone_id", "label", "kind", "x", "y", "width", "height"}).
			AddRow("A1", "Z1", "Stage", "stage", 0.0, 0.0, 300.0, 50.0))
	mock.ExpectQuery("FROM seat_rows sr").
		WillReturnRows(sqlmock.NewRows([]string{"id", "zone_id", "row_label", "x", "y"}).AddRow("R1", "Z1", "A", 10.0, 80.0))
	mock.ExpectQuery("FROM seats WHERE venue_id").
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, seatCols...), "row_id")).
			AddRow("S1", "v1", "1", "Regular", "available", 0.0, 0.0, 12.0, nil, nil, now, "R1").
			AddRow("S2", "v1", "2", "VIP", "booked", 30.0, 0.0, 12.0, "b-9", "Bob", now, "R1").
			AddRow("S3", "v1", "3", "VIP", "available", 60.0, 0.0, 12.0, nil, nil, now, "orphan"))

	v, err := NewVenueRepo(db).GetLayout(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, v.Zones, 1)
	z := v.Zones[0]
	require.Len(t, z.Areas, 1)
	require.Len(t, z.Rows, 1)
	assert.Equal(t, "A", z.Rows[0].RowNumber)
	require.Len(t, z.Rows[0].Seats, 2)
	s2 := z.Rows[0].Seats[1]
	assert.Equal(t, model.SeatBooked, s2.Status)
	require.NotNil(t, s2.NameOnTicket)
	assert.Equal(t, "Bob", *s2.NameOnTicket)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLayout_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("FROM venues WHERE id").WillReturnError(sql.ErrNoRows)

	_, err = NewVenueRepo(db).GetLayout(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

func TestCategoryRepo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCategoryRepo(db)

	mock.ExpectQuery("WHERE is_visible = 1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "color", "price"}).AddRow("VIP", "#d4af37", 150000))
	cats, err := repo.Visible(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Category{{Name: "VIP", Color: "#d4af37", Price: 150000}}, cats)

	mock.ExpectExec("UPDATE seat_categories SET is_visible").WithArgs(false, "Ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM seat_categories").WithArgs("Ghost").WillReturnError(sql.ErrNoRows)
	assert.ErrorIs(t, repo.SetVisible(context.Background(), "Ghost", false), ErrCategoryNotFound)

	mock.ExpectExec("UPDATE seat_categories SET is_visible").WithArgs(true, "VIP").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.SetVisible(context.Background(), "VIP", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}
