package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock
}

func TestWithinTransactionCommits(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := db.WithinTransaction(context.Background(), func(ctx context.Context) error {
		tx, ok := ctx.Value(txKey{}).(*gorm.DB)
		assert.True(t, ok, "context carries the transaction")
		assert.NotNil(t, tx)
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionRollsBackOnError(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("settlement failed")
	err := db.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionPrefersTransaction(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := db.WithinTransaction(context.Background(), func(ctx context.Context) error {
		tx := ctx.Value(txKey{}).(*gorm.DB)
		assert.Same(t, tx, session(ctx, db.DB))
		return nil
	})

	require.NoError(t, err)
	assert.NotNil(t, session(context.Background(), db.DB), "fallback uses the base connection")
}
