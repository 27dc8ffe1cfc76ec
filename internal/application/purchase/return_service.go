package purchase

import (
	"context"
	"fmt"

	"github.com/amas/backend/internal/domain/purchase"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/amas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReturnService manages supplier returns. Approval hands the return
// credit to the finance context, which settles it against the
// supplier's outstanding obligations in the same transaction.
type ReturnService struct {
	returnRepo purchase.ReturnRepository
	orderRepo  purchase.OrderRepository
	txManager  shared.TransactionManager
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewReturnService creates a new ReturnService
func NewReturnService(
	returnRepo purchase.ReturnRepository,
	orderRepo purchase.OrderRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ReturnService {
	return &ReturnService{
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
		txManager:  txManager,
		publisher:  publisher,
		logger:     logger,
	}
}

// ReturnLineRequest is one line of a create return request
type ReturnLineRequest struct {
	PurchaseOrderID uuid.UUID
	Amount          decimal.Decimal
}

// CreateReturnRequest represents a request to create a supplier return
type CreateReturnRequest struct {
	SupplierID uuid.UUID
	Reason     string
	Lines      []ReturnLineRequest
}

// CreateReturn creates a draft supplier return. Every line must
// reference a received order of the same supplier, and the credit per
// line cannot exceed what was received on that order.
func (s *ReturnService) CreateReturn(ctx context.Context, req CreateReturnRequest) (*purchase.SupplierReturn, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier_return", "create")
	defer span.End()
	telemetry.SetAttribute(span, "supplier_id", req.SupplierID.String())

	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_RETURN", "Supplier return must have at least one line")
	}

	orderIDs := make([]uuid.UUID, 0, len(req.Lines))
	for _, l := range req.Lines {
		orderIDs = append(orderIDs, l.PurchaseOrderID)
	}
	orders, err := s.orderRepo.FindByIDs(ctx, orderIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	ordersByID := make(map[uuid.UUID]*purchase.Order, len(orders))
	for i := range orders {
		ordersByID[orders[i].ID] = &orders[i]
	}

	var supplierName string
	lines := make([]purchase.ReturnLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		order, ok := ordersByID[l.PurchaseOrderID]
		if !ok {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Return references an unknown purchase order")
		}
		if order.SupplierID != req.SupplierID {
			return nil, shared.NewDomainError("SUPPLIER_MISMATCH", "Return line references another supplier's order")
		}
		if order.Status != purchase.OrderStatusReceived && order.Status != purchase.OrderStatusClosed {
			return nil, shared.NewDomainError("INVALID_STATE", "Goods can only be returned from received orders")
		}
		if l.Amount.GreaterThan(order.ReceivedAmount) {
			return nil, shared.NewDomainError("EXCEEDS_RECEIVED", "Return credit exceeds the order's received value")
		}
		supplierName = order.SupplierName
		lines = append(lines, purchase.ReturnLine{
			BaseEntity:          shared.NewBaseEntity(),
			PurchaseOrderID:     order.ID,
			PurchaseOrderNumber: order.OrderNumber,
			Amount:              l.Amount,
		})
	}

	returnNumber, err := s.returnRepo.GenerateReturnNumber(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to generate return number: %w", err)
	}

	ret, err := purchase.NewSupplierReturn(returnNumber, req.SupplierID, supplierName, req.Reason, lines)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.returnRepo.Save(ctx, ret); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save return: %w", err)
	}

	s.logger.Info("supplier return created",
		zap.String("return_id", ret.ID.String()),
		zap.String("return_number", ret.ReturnNumber),
		zap.String("supplier_id", req.SupplierID.String()),
		zap.String("total_credit", ret.TotalCredit.String()),
	)

	return ret, nil
}

// ApproveReturn approves a draft return. The approval event triggers
// credit settlement inside the same transaction, so the return comes
// back SETTLED with its credit already applied to the supplier's debt.
func (s *ReturnService) ApproveReturn(ctx context.Context, returnID uuid.UUID) (*purchase.SupplierReturn, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier_return", "approve")
	defer span.End()
	telemetry.SetAttribute(span, "return_id", returnID.String())

	var ret *purchase.SupplierReturn

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		ret, err = s.returnRepo.FindByID(txCtx, returnID)
		if err != nil {
			return fmt.Errorf("failed to get return: %w", err)
		}
		if ret == nil {
			return shared.NewDomainError("RETURN_NOT_FOUND", "Return not found")
		}

		if err := ret.Approve(); err != nil {
			return err
		}

		if err := s.returnRepo.SaveWithLock(txCtx, ret); err != nil {
			return fmt.Errorf("failed to save return: %w", err)
		}

		events := ret.GetDomainEvents()
		if err := s.publisher.Publish(txCtx, events...); err != nil {
			return err
		}
		ret.ClearDomainEvents()

		// The settlement handler moved the return to SETTLED; re-read so
		// the caller sees the final state.
		ret, err = s.returnRepo.FindByID(txCtx, returnID)
		if err != nil {
			return fmt.Errorf("failed to reload return: %w", err)
		}

		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("supplier return approved",
		zap.String("return_id", returnID.String()),
		zap.String("return_number", ret.ReturnNumber),
		zap.String("status", string(ret.Status)),
	)

	return ret, nil
}

// RejectReturn rejects a draft return
func (s *ReturnService) RejectReturn(ctx context.Context, returnID uuid.UUID) error {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return fmt.Errorf("failed to get return: %w", err)
	}
	if ret == nil {
		return shared.NewDomainError("RETURN_NOT_FOUND", "Return not found")
	}
	if err := ret.Reject(); err != nil {
		return err
	}
	if err := s.returnRepo.SaveWithLock(ctx, ret); err != nil {
		return fmt.Errorf("failed to save return: %w", err)
	}
	return nil
}

// GetReturn returns a supplier return with its lines
func (s *ReturnService) GetReturn(ctx context.Context, returnID uuid.UUID) (*purchase.SupplierReturn, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, fmt.Errorf("failed to get return: %w", err)
	}
	if ret == nil {
		return nil, shared.NewDomainError("RETURN_NOT_FOUND", "Return not found")
	}
	return ret, nil
}

// ListReturns returns supplier returns matching the filter
func (s *ReturnService) ListReturns(ctx context.Context, filter shared.Filter) (shared.Paginated[purchase.SupplierReturn], error) {
	returns, total, err := s.returnRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[purchase.SupplierReturn]{}, fmt.Errorf("failed to list returns: %w", err)
	}
	return shared.NewPaginated(returns, total, filter.Page, filter.PageSize), nil
}
