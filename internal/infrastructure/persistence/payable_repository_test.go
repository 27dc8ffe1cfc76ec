package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/shared"
)

// newMockPayableRepository creates a GormPayableRepository with a mocked
// SQL connection
func newMockPayableRepository(t *testing.T) (*GormPayableRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPayableRepository(gormDB), mock, mockDB
}

func payableRows(id, supplierID uuid.UUID, number string, amount, paid decimal.Decimal) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version",
		"payable_number", "supplier_id", "supplier_name",
		"source_type", "source_id", "source_number",
		"amount", "paid_amount", "status", "obligation_date",
	}).AddRow(
		id, now, now, 1,
		number, supplierID, "Al-Hikma Pharma",
		finance.PayableSourceTypePurchaseOrder, uuid.New(), "PO-1",
		amount, paid, finance.PayableStatusPending, now.AddDate(0, 0, -10),
	)
}

func TestPayableRepositoryFindByID(t *testing.T) {
	t.Run("finds existing payable", func(t *testing.T) {
		repo, mock, mockDB := newMockPayableRepository(t)
		defer mockDB.Close()

		payableID := uuid.New()
		supplierID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "account_payables" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(payableID, 1).
			WillReturnRows(payableRows(payableID, supplierID, "AP-20260830-00001", decimal.NewFromInt(100), decimal.Zero))

		payable, err := repo.FindByID(context.Background(), payableID)

		require.NoError(t, err)
		assert.Equal(t, payableID, payable.ID)
		assert.Equal(t, "AP-20260830-00001", payable.PayableNumber)
		assert.True(t, payable.Outstanding().Equal(decimal.NewFromInt(100)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil without an error for a missing payable", func(t *testing.T) {
		repo, mock, mockDB := newMockPayableRepository(t)
		defer mockDB.Close()

		payableID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "account_payables"`).
			WithArgs(payableID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		payable, err := repo.FindByID(context.Background(), payableID)

		require.NoError(t, err)
		assert.Nil(t, payable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPayableRepositoryFindOutstandingBySupplier(t *testing.T) {
	t.Run("orders by obligation date ascending", func(t *testing.T) {
		repo, mock, mockDB := newMockPayableRepository(t)
		defer mockDB.Close()

		supplierID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "account_payables" WHERE supplier_id = \$1 AND status IN \(\$2,\$3\) ORDER BY obligation_date ASC, created_at ASC`).
			WithArgs(supplierID, finance.PayableStatusPending, finance.PayableStatusPartial).
			WillReturnRows(payableRows(uuid.New(), supplierID, "AP-20260830-00001", decimal.NewFromInt(100), decimal.Zero))

		payables, err := repo.FindOutstandingBySupplier(context.Background(), supplierID, false)

		require.NoError(t, err)
		require.Len(t, payables, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("locks rows for update when requested", func(t *testing.T) {
		repo, mock, mockDB := newMockPayableRepository(t)
		defer mockDB.Close()

		supplierID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "account_payables" .* FOR UPDATE`).
			WithArgs(supplierID, finance.PayableStatusPending, finance.PayableStatusPartial).
			WillReturnRows(payableRows(uuid.New(), supplierID, "AP-20260830-00001", decimal.NewFromInt(100), decimal.Zero))

		_, err := repo.FindOutstandingBySupplier(context.Background(), supplierID, true)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPayableRepositorySaveWithLock(t *testing.T) {
	t.Run("updates the row matching the previous version", func(t *testing.T) {
		repo, mock, mockDB := newMockPayableRepository(t)
		defer mockDB.Close()

		payable := buildPayable(t)
		require.NoError(t, payable.ApplyPayment(decimal.NewFromInt(40)))

		mock.ExpectExec(`UPDATE "account_payables" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), payable))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a conflict when no row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockPayableRepository(t)
		defer mockDB.Close()

		payable := buildPayable(t)
		require.NoError(t, payable.ApplyPayment(decimal.NewFromInt(40)))

		mock.ExpectExec(`UPDATE "account_payables" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), payable)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPayableRepositoryExistsBySource(t *testing.T) {
	repo, mock, mockDB := newMockPayableRepository(t)
	defer mockDB.Close()

	orderID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "account_payables" WHERE source_type = \$1 AND source_id = \$2`).
		WithArgs(finance.PayableSourceTypePurchaseOrder, orderID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsBySource(context.Background(), finance.PayableSourceTypePurchaseOrder, orderID)

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayableRepositoryGeneratePayableNumber(t *testing.T) {
	t.Run("starts at one for a fresh day", func(t *testing.T) {
		repo, mock, mockDB := newMockPayableRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT "payable_number" FROM "account_payables"`).
			WillReturnRows(sqlmock.NewRows([]string{"payable_number"}))

		number, err := repo.GeneratePayableNumber(context.Background())

		require.NoError(t, err)
		prefix := "AP-" + time.Now().Format("20060102") + "-"
		assert.Equal(t, prefix+"00001", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("continues from the day's highest number", func(t *testing.T) {
		repo, mock, mockDB := newMockPayableRepository(t)
		defer mockDB.Close()

		prefix := "AP-" + time.Now().Format("20060102") + "-"
		mock.ExpectQuery(`SELECT "payable_number" FROM "account_payables"`).
			WillReturnRows(sqlmock.NewRows([]string{"payable_number"}).AddRow(prefix + "00041"))

		number, err := repo.GeneratePayableNumber(context.Background())

		require.NoError(t, err)
		assert.Equal(t, prefix+"00042", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func buildPayable(t *testing.T) *finance.Payable {
	t.Helper()
	orderID := uuid.New()
	payable, err := finance.NewPayable(
		"AP-20260830-00001",
		uuid.New(),
		"Al-Hikma Pharma",
		finance.PayableSourceTypePurchaseOrder,
		&orderID,
		"PO-20260830-00001",
		decimal.NewFromInt(100),
		time.Now().AddDate(0, 0, -10),
		nil,
	)
	require.NoError(t, err)
	payable.ClearDomainEvents()
	return payable
}
