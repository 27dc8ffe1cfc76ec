package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/partner"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/amas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// idempotencyKeyTTL bounds how long a processed payment key is remembered
const idempotencyKeyTTL = 24 * time.Hour

// PaymentService records supplier payments and settles them against
// outstanding obligations. All settlement happens inside one database
// transaction with the affected payables locked, so the allocation plan
// is always built against the balances it will be applied to.
type PaymentService struct {
	payableRepo  finance.PayableRepository
	paymentRepo  finance.SupplierPaymentRepository
	supplierRepo partner.SupplierRepository
	settlement   *finance.SettlementService
	txManager    shared.TransactionManager
	publisher    shared.EventPublisher
	idempotency  shared.IdempotencyStore
	logger       *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payableRepo finance.PayableRepository,
	paymentRepo finance.SupplierPaymentRepository,
	supplierRepo partner.SupplierRepository,
	settlement *finance.SettlementService,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payableRepo:  payableRepo,
		paymentRepo:  paymentRepo,
		supplierRepo: supplierRepo,
		settlement:   settlement,
		txManager:    txManager,
		publisher:    publisher,
		idempotency:  idempotency,
		logger:       logger,
	}
}

// RecordPaymentRequest represents a request to record a supplier payment
type RecordPaymentRequest struct {
	SupplierID       uuid.UUID
	Amount           decimal.Decimal
	Method           finance.PaymentMethod
	AllocationMethod finance.AllocationMethod
	Splits           []finance.ManualSplit // required for MANUAL allocation
	Reference        string
	Note             string
	PaidAt           time.Time
	IdempotencyKey   string // optional; retries with the same key return the original payment
}

// AllocationResult is one settled obligation in a payment result
type AllocationResult struct {
	PayableID     uuid.UUID                `json:"payable_id"`
	PayableNumber string                   `json:"payable_number"`
	Amount        decimal.Decimal          `json:"amount"`
	Status        finance.AllocationStatus `json:"status"`
}

// PaymentResult represents the outcome of recording a payment
type PaymentResult struct {
	PaymentID      uuid.UUID          `json:"payment_id"`
	PaymentNumber  string             `json:"payment_number"`
	SupplierID     uuid.UUID          `json:"supplier_id"`
	Amount         decimal.Decimal    `json:"amount"`
	TotalAllocated decimal.Decimal    `json:"total_allocated"`
	Unallocated    decimal.Decimal    `json:"unallocated"`
	Allocations    []AllocationResult `json:"allocations"`
}

// RecordPayment records a payment and allocates it over the supplier's
// outstanding payables. The outstanding balances are re-read with row
// locks inside the transaction; a plan is never applied to balances it
// was not built from.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier_payment", "record")
	defer span.End()

	telemetry.SetAttributes(span,
		"supplier_id", req.SupplierID.String(),
		"amount", req.Amount.String(),
		"method", string(req.Method),
		"allocation_method", string(req.AllocationMethod),
	)

	if err := s.validateRecordRequest(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	supplier, err := s.supplierRepo.FindByID(ctx, req.SupplierID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	if supplier == nil {
		err := shared.NewDomainError("SUPPLIER_NOT_FOUND", "Supplier not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if existing, err := s.findByIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		} else if existing != nil {
			s.logger.Info("duplicate payment request, returning original",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("payment_id", existing.PaymentID.String()),
			)
			return existing, nil
		}
	}

	var payment *finance.SupplierPayment
	var plan *finance.AllocationPlan

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		// Outstanding balances are loaded with row locks so they cannot
		// move between planning and applying.
		outstanding, err := s.payableRepo.FindOutstandingBySupplier(txCtx, req.SupplierID, true)
		if err != nil {
			return fmt.Errorf("failed to load outstanding payables: %w", err)
		}

		candidates, byID := candidatesFrom(outstanding)

		plan, err = s.settlement.Plan(req.AllocationMethod, req.Splits, req.Amount, candidates)
		if err != nil {
			return err
		}

		paymentNumber, err := s.paymentRepo.GeneratePaymentNumber(txCtx)
		if err != nil {
			return fmt.Errorf("failed to generate payment number: %w", err)
		}

		payment, err = finance.NewSupplierPayment(
			paymentNumber, req.SupplierID, supplier.Name,
			req.Amount, req.Method, req.Reference, req.PaidAt,
		)
		if err != nil {
			return err
		}
		payment.Note = req.Note

		if err := s.settlement.ApplyPlan(payment, byID, plan); err != nil {
			return err
		}

		if err := s.paymentRepo.Save(txCtx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		for _, alloc := range plan.Allocations {
			payable := byID[alloc.PayableID]
			if err := s.payableRepo.SaveWithLock(txCtx, payable); err != nil {
				return fmt.Errorf("failed to save payable %s: %w", payable.PayableNumber, err)
			}
		}

		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Set(ctx, req.IdempotencyKey, payment.ID.String(), idempotencyKeyTTL); err != nil {
			// The payment is committed; a failed key write only weakens retry
			// protection, it must not fail the request.
			s.logger.Warn("failed to record idempotency key",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Error(err),
			)
		}
	}

	s.publishEvents(ctx, payment)

	telemetry.AddEvent(span, "payment_recorded",
		"payment_id", payment.ID.String(),
		"payment_number", payment.PaymentNumber,
		"total_allocated", plan.TotalAllocated.String(),
		"unallocated", plan.Unallocated.String(),
	)

	s.logger.Info("supplier payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("supplier_id", req.SupplierID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("total_allocated", plan.TotalAllocated.String()),
		zap.String("unallocated", plan.Unallocated.String()),
		zap.Int("allocation_count", len(plan.Allocations)),
	)

	return resultFrom(payment, plan), nil
}

// PreviewRequest represents a request to preview an allocation without
// recording anything
type PreviewRequest struct {
	SupplierID       uuid.UUID
	Amount           decimal.Decimal
	AllocationMethod finance.AllocationMethod
	Splits           []finance.ManualSplit
}

// PreviewAllocation plans an allocation against the supplier's current
// outstanding payables without persisting anything. The preview is
// advisory; recording re-plans under locks.
func (s *PaymentService) PreviewAllocation(ctx context.Context, req PreviewRequest) (*finance.AllocationPlan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier_payment", "preview_allocation")
	defer span.End()

	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !req.AllocationMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Unknown allocation method")
	}

	outstanding, err := s.payableRepo.FindOutstandingBySupplier(ctx, req.SupplierID, false)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load outstanding payables: %w", err)
	}

	candidates, _ := candidatesFrom(outstanding)
	plan, err := s.settlement.Plan(req.AllocationMethod, req.Splits, req.Amount, candidates)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return plan, nil
}

// VoidPayment voids a payment and reverses its allocations on the
// affected payables. Return-credit payments cannot be voided.
func (s *PaymentService) VoidPayment(ctx context.Context, paymentID uuid.UUID, reason string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier_payment", "void")
	defer span.End()
	telemetry.SetAttribute(span, "payment_id", paymentID.String())

	var payment *finance.SupplierPayment

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		payment, err = s.paymentRepo.FindByID(txCtx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to get payment: %w", err)
		}
		if payment == nil {
			return shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
		}

		if err := payment.Void(reason); err != nil {
			return err
		}

		for _, alloc := range payment.Allocations {
			payable, err := s.payableRepo.FindByID(txCtx, alloc.PayableID)
			if err != nil {
				return fmt.Errorf("failed to get payable: %w", err)
			}
			if payable == nil {
				return shared.NewDomainError("PAYABLE_NOT_FOUND", "Allocated payable not found")
			}
			if err := payable.ReversePayment(alloc.Amount); err != nil {
				return err
			}
			if err := s.payableRepo.SaveWithLock(txCtx, payable); err != nil {
				return fmt.Errorf("failed to save payable %s: %w", payable.PayableNumber, err)
			}
		}

		if err := s.paymentRepo.SaveWithLock(txCtx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.publishEvents(ctx, payment)

	s.logger.Info("supplier payment voided",
		zap.String("payment_id", paymentID.String()),
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("reason", reason),
	)

	return nil
}

// GetPayment returns a payment with its allocations
func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*finance.SupplierPayment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}
	return payment, nil
}

// ListPayments returns payments matching the filter
func (s *PaymentService) ListPayments(ctx context.Context, filter shared.Filter) (shared.Paginated[finance.SupplierPayment], error) {
	payments, total, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[finance.SupplierPayment]{}, fmt.Errorf("failed to list payments: %w", err)
	}
	return shared.NewPaginated(payments, total, filter.Page, filter.PageSize), nil
}

// ListSupplierPayments returns one supplier's payments
func (s *PaymentService) ListSupplierPayments(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) (shared.Paginated[finance.SupplierPayment], error) {
	payments, total, err := s.paymentRepo.FindBySupplier(ctx, supplierID, filter)
	if err != nil {
		return shared.Paginated[finance.SupplierPayment]{}, fmt.Errorf("failed to list payments: %w", err)
	}
	return shared.NewPaginated(payments, total, filter.Page, filter.PageSize), nil
}

func (s *PaymentService) validateRecordRequest(req RecordPaymentRequest) error {
	if req.SupplierID == uuid.Nil {
		return shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID is required")
	}
	if !req.Amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !req.Method.IsValid() {
		return shared.NewDomainError("INVALID_METHOD", "Unknown payment method")
	}
	if req.Method == finance.PaymentMethodReturnCredit {
		// Return credits are created by return approval, never directly
		return shared.NewDomainError("INVALID_METHOD", "Return-credit payments cannot be recorded directly")
	}
	if !req.AllocationMethod.IsValid() {
		return shared.NewDomainError("INVALID_METHOD", "Unknown allocation method")
	}
	if req.AllocationMethod == finance.AllocationMethodManual && len(req.Splits) == 0 {
		return shared.NewDomainError("INVALID_SPLITS", "Manual allocation requires split lines")
	}
	return nil
}

func (s *PaymentService) findByIdempotencyKey(ctx context.Context, key string) (*PaymentResult, error) {
	stored, ok, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if !ok {
		return nil, nil
	}

	paymentID, err := uuid.Parse(stored)
	if err != nil {
		return nil, fmt.Errorf("invalid payment reference under idempotency key: %w", err)
	}
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get original payment: %w", err)
	}
	if payment == nil {
		// Key outlived the payment record; treat as a fresh request
		return nil, nil
	}

	result := &PaymentResult{
		PaymentID:      payment.ID,
		PaymentNumber:  payment.PaymentNumber,
		SupplierID:     payment.SupplierID,
		Amount:         payment.Amount,
		TotalAllocated: payment.AllocatedAmount,
		Unallocated:    payment.UnallocatedAmount(),
		Allocations:    make([]AllocationResult, 0, len(payment.Allocations)),
	}
	for _, a := range payment.Allocations {
		result.Allocations = append(result.Allocations, AllocationResult{
			PayableID:     a.PayableID,
			PayableNumber: a.PayableNumber,
			Amount:        a.Amount,
			Status:        a.Status,
		})
	}
	return result, nil
}

func (s *PaymentService) publishEvents(ctx context.Context, payment *finance.SupplierPayment) {
	if s.publisher == nil || payment == nil {
		return
	}
	events := payment.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish payment events",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
	}
	payment.ClearDomainEvents()
}

// candidatesFrom builds allocation candidates and an ID index from the
// loaded payables
func candidatesFrom(payables []finance.Payable) ([]finance.AllocationCandidate, map[uuid.UUID]*finance.Payable) {
	candidates := make([]finance.AllocationCandidate, 0, len(payables))
	byID := make(map[uuid.UUID]*finance.Payable, len(payables))
	for i := range payables {
		p := &payables[i]
		byID[p.ID] = p
		candidates = append(candidates, finance.AllocationCandidate{
			PayableID:      p.ID,
			PayableNumber:  p.PayableNumber,
			Outstanding:    p.Outstanding(),
			ObligationDate: p.ObligationDate,
			CreatedAt:      p.CreatedAt,
		})
	}
	return candidates, byID
}

func resultFrom(payment *finance.SupplierPayment, plan *finance.AllocationPlan) *PaymentResult {
	result := &PaymentResult{
		PaymentID:      payment.ID,
		PaymentNumber:  payment.PaymentNumber,
		SupplierID:     payment.SupplierID,
		Amount:         payment.Amount,
		TotalAllocated: plan.TotalAllocated,
		Unallocated:    plan.Unallocated,
		Allocations:    make([]AllocationResult, 0, len(plan.Allocations)),
	}
	for _, a := range plan.Allocations {
		result.Allocations = append(result.Allocations, AllocationResult{
			PayableID:     a.PayableID,
			PayableNumber: a.PayableNumber,
			Amount:        a.Amount,
			Status:        a.Status,
		})
	}
	return result
}
