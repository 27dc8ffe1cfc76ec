package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/amas/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultOverdueThreshold marks obligations as overdue after 30 days
const defaultOverdueThreshold = 30 * 24 * time.Hour

// DebtService answers questions about what is owed to suppliers
type DebtService struct {
	payableRepo finance.PayableRepository
	logger      *zap.Logger
}

// NewDebtService creates a new DebtService
func NewDebtService(payableRepo finance.PayableRepository, logger *zap.Logger) *DebtService {
	return &DebtService{
		payableRepo: payableRepo,
		logger:      logger,
	}
}

// SupplierDebtDetail is one supplier's position with its open payables.
// Outstanding carries the currency, the store books in IQD.
type SupplierDebtDetail struct {
	SupplierID  uuid.UUID         `json:"supplier_id"`
	Outstanding valueobject.Money `json:"outstanding"`
	Payables    []finance.Payable `json:"payables"`
}

// OverduePayable is one obligation past the overdue threshold
type OverduePayable struct {
	PayableID       uuid.UUID         `json:"payable_id"`
	PayableNumber   string            `json:"payable_number"`
	SupplierID      uuid.UUID         `json:"supplier_id"`
	SupplierName    string            `json:"supplier_name"`
	Outstanding     valueobject.Money `json:"outstanding"`
	ObligationDate  time.Time         `json:"obligation_date"`
	DaysOutstanding int               `json:"days_outstanding"`
}

// DebtSummaries returns the per-supplier debt position across all
// suppliers with open obligations
func (s *DebtService) DebtSummaries(ctx context.Context) ([]finance.SupplierDebtSummary, error) {
	summaries, err := s.payableRepo.DebtSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load debt summaries: %w", err)
	}
	return summaries, nil
}

// SupplierDebt returns one supplier's outstanding total and the open
// payables behind it, oldest first
func (s *DebtService) SupplierDebt(ctx context.Context, supplierID uuid.UUID) (*SupplierDebtDetail, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID is required")
	}

	payables, err := s.payableRepo.FindOutstandingBySupplier(ctx, supplierID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load outstanding payables: %w", err)
	}

	outstanding := valueobject.ZeroIQD()
	for i := range payables {
		outstanding = outstanding.MustAdd(valueobject.NewMoneyIQD(payables[i].Outstanding()))
	}

	return &SupplierDebtDetail{
		SupplierID:  supplierID,
		Outstanding: outstanding,
		Payables:    payables,
	}, nil
}

// ListSupplierPayables returns a supplier's payables in all statuses
func (s *DebtService) ListSupplierPayables(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) (shared.Paginated[finance.Payable], error) {
	payables, total, err := s.payableRepo.FindBySupplier(ctx, supplierID, filter)
	if err != nil {
		return shared.Paginated[finance.Payable]{}, fmt.Errorf("failed to list payables: %w", err)
	}
	return shared.NewPaginated(payables, total, filter.Page, filter.PageSize), nil
}

// GetPayable returns a single payable
func (s *DebtService) GetPayable(ctx context.Context, payableID uuid.UUID) (*finance.Payable, error) {
	payable, err := s.payableRepo.FindByID(ctx, payableID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payable: %w", err)
	}
	if payable == nil {
		return nil, shared.NewDomainError("PAYABLE_NOT_FOUND", "Payable not found")
	}
	return payable, nil
}

// OverdueReport lists obligations open longer than the threshold.
// A zero threshold falls back to the 30-day default.
func (s *DebtService) OverdueReport(ctx context.Context, threshold time.Duration) ([]OverduePayable, error) {
	if threshold <= 0 {
		threshold = defaultOverdueThreshold
	}

	now := time.Now()
	overdue, err := s.payableRepo.FindOverdue(ctx, now.Add(-threshold))
	if err != nil {
		return nil, fmt.Errorf("failed to load overdue payables: %w", err)
	}

	report := make([]OverduePayable, 0, len(overdue))
	for i := range overdue {
		p := &overdue[i]
		report = append(report, OverduePayable{
			PayableID:       p.ID,
			PayableNumber:   p.PayableNumber,
			SupplierID:      p.SupplierID,
			SupplierName:    p.SupplierName,
			Outstanding:     valueobject.NewMoneyIQD(p.Outstanding()),
			ObligationDate:  p.ObligationDate,
			DaysOutstanding: int(now.Sub(p.ObligationDate).Hours() / 24),
		})
	}

	return report, nil
}
