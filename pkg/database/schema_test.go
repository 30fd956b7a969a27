package database

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaSeedsSlots(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS accounts").WillReturnResult(sqlmock.NewResult(0, 0))
	insert := regexp.QuoteMeta("INSERT INTO time_slots (label) VALUES ($1) ON CONFLICT (label) DO NOTHING")
	mock.ExpectExec(insert).WithArgs("09:00").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insert).WithArgs("10:00").WillReturnResult(sqlmock.NewResult(0, 0))

	err = EnsureSchema(context.Background(), sqlx.NewDb(db, "sqlmock"), []string{"09:00", "10:00"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
