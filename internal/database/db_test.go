package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	got := Statements("CREATE TABLE a (x INT);\n\n  ;CREATE TABLE b (y INT);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE TABLE b (y INT)"}, got)
}

func TestSchemaTables(t *testing.T) {
	stmts := Statements(schema)
	require.Len(t, stmts, 8)
	for _, table := range []string{"venues", "zones", "zone_areas", "seat_rows", "seat_categories", "seats", "bookings", "booking_seats"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "app:pw@tcp(db:3306)/seats?charset=utf8mb4&parseTime=true&loc=UTC", DSN("app", "pw", "db", "3306", "seats"))
	assert.Equal(t, "app@tcp(db:3306)/seats?charset=utf8mb4&parseTime=true&loc=UTC", DSN("app", "", "db", "3306", "seats"))
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stmts := Statements(schema)
	for _, s := range stmts {
		mock.ExpectExec(regexp.QuoteMeta(s)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS venues").WillReturnError(errors.New("access denied"))
	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 1")
}
