package finance

import (
	"context"
	"time"

	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierDebtSummary aggregates one supplier's obligation position
type SupplierDebtSummary struct {
	SupplierID       uuid.UUID       `json:"supplier_id"`
	SupplierName     string          `json:"supplier_name"`
	TotalPayable     decimal.Decimal `json:"total_payable"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	OpenPayables     int             `json:"open_payables"`
	OldestObligation *time.Time      `json:"oldest_obligation,omitempty"`
}

// PayableRepository defines the persistence contract for payables
type PayableRepository interface {
	Save(ctx context.Context, payable *Payable) error
	// SaveWithLock persists with an optimistic version check and fails
	// with CONCURRENCY_CONFLICT when the row moved underneath us
	SaveWithLock(ctx context.Context, payable *Payable) error
	// FindByID returns the payable, or nil when none exists
	FindByID(ctx context.Context, id uuid.UUID) (*Payable, error)
	// FindOutstandingBySupplier returns payables with an unpaid balance,
	// oldest obligation first. With lock=true the rows are locked for
	// update so outstanding cannot move during settlement.
	FindOutstandingBySupplier(ctx context.Context, supplierID uuid.UUID, lock bool) ([]Payable, error)
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]Payable, int64, error)
	// FindBySource returns the payable created by a source document, or
	// nil when the source carries none
	FindBySource(ctx context.Context, sourceType PayableSourceType, sourceID uuid.UUID) (*Payable, error)
	ExistsBySource(ctx context.Context, sourceType PayableSourceType, sourceID uuid.UUID) (bool, error)
	FindOverdue(ctx context.Context, olderThan time.Time) ([]Payable, error)
	SumOutstandingBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error)
	DebtSummaries(ctx context.Context) ([]SupplierDebtSummary, error)
	GeneratePayableNumber(ctx context.Context) (string, error)
}

// SupplierPaymentRepository defines the persistence contract for payments
type SupplierPaymentRepository interface {
	Save(ctx context.Context, payment *SupplierPayment) error
	SaveWithLock(ctx context.Context, payment *SupplierPayment) error
	// FindByID returns the payment, or nil when none exists
	FindByID(ctx context.Context, id uuid.UUID) (*SupplierPayment, error)
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]SupplierPayment, int64, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]SupplierPayment, int64, error)
	// ExistsReturnCredit reports whether a return-credit payment already
	// exists for the given return, the idempotency check for settlement
	ExistsReturnCredit(ctx context.Context, returnID uuid.UUID) (bool, error)
	GeneratePaymentNumber(ctx context.Context) (string, error)
}
