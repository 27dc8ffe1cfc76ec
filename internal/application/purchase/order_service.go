package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/amas/backend/internal/domain/partner"
	"github.com/amas/backend/internal/domain/purchase"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/amas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService manages the purchase order lifecycle
type OrderService struct {
	orderRepo    purchase.OrderRepository
	supplierRepo partner.SupplierRepository
	txManager    shared.TransactionManager
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo purchase.OrderRepository,
	supplierRepo partner.SupplierRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		supplierRepo: supplierRepo,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
	}
}

// OrderLineRequest is one item line in a create order request
type OrderLineRequest struct {
	ItemName string
	Quantity int
	UnitCost decimal.Decimal
}

// CreateOrderRequest represents a request to create a purchase order
type CreateOrderRequest struct {
	SupplierID uuid.UUID
	OrderDate  time.Time
	Lines      []OrderLineRequest
	Note       string
}

// CreateOrder creates a new purchase order for an active supplier
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*purchase.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "create")
	defer span.End()
	telemetry.SetAttribute(span, "supplier_id", req.SupplierID.String())

	supplier, err := s.supplierRepo.FindByID(ctx, req.SupplierID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	if supplier == nil {
		return nil, shared.NewDomainError("SUPPLIER_NOT_FOUND", "Supplier not found")
	}
	if !supplier.IsActive() {
		return nil, shared.NewDomainError("SUPPLIER_INACTIVE", "Inactive suppliers cannot receive new orders")
	}

	orderDate := req.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	lines := make([]purchase.OrderLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, purchase.OrderLine{
			BaseEntity: shared.NewBaseEntity(),
			ItemName:   l.ItemName,
			Quantity:   l.Quantity,
			UnitCost:   l.UnitCost,
		})
	}

	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	order, err := purchase.NewOrder(orderNumber, supplier.ID, supplier.Name, orderDate, lines)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	order.Note = req.Note

	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("total_amount", order.TotalAmount.String()),
	)

	return order, nil
}

// ReceiveOrder marks an order as received. The received amount becomes
// the supplier obligation; a zero amount receives the order in full.
// The obligation itself is created by the finance context reacting to
// the receive event inside the same transaction.
func (s *OrderService) ReceiveOrder(ctx context.Context, orderID uuid.UUID, receivedAmount decimal.Decimal) (*purchase.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "receive")
	defer span.End()
	telemetry.SetAttribute(span, "order_id", orderID.String())

	var order *purchase.Order

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByID(txCtx, orderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		if order == nil {
			return shared.NewDomainError("ORDER_NOT_FOUND", "Purchase order not found")
		}

		if err := order.Receive(receivedAmount); err != nil {
			return err
		}

		if err := s.orderRepo.SaveWithLock(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		// Handlers run inside the transaction; the payable appears
		// atomically with the status change.
		events := order.GetDomainEvents()
		if err := s.publisher.Publish(txCtx, events...); err != nil {
			return err
		}
		order.ClearDomainEvents()

		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("purchase order received",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("received_amount", order.ReceivedAmount.String()),
	)

	return order, nil
}

// CancelOrder cancels an order that has not been received
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return shared.NewDomainError("ORDER_NOT_FOUND", "Purchase order not found")
	}
	if err := order.Cancel(); err != nil {
		return err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// GetOrder returns a purchase order with its lines
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*purchase.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Purchase order not found")
	}
	return order, nil
}

// ListOrders returns orders matching the filter
func (s *OrderService) ListOrders(ctx context.Context, filter shared.Filter) (shared.Paginated[purchase.Order], error) {
	orders, total, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[purchase.Order]{}, fmt.Errorf("failed to list orders: %w", err)
	}
	return shared.NewPaginated(orders, total, filter.Page, filter.PageSize), nil
}

// ListSupplierOrders returns one supplier's orders
func (s *OrderService) ListSupplierOrders(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) (shared.Paginated[purchase.Order], error) {
	orders, total, err := s.orderRepo.FindBySupplier(ctx, supplierID, filter)
	if err != nil {
		return shared.Paginated[purchase.Order]{}, fmt.Errorf("failed to list orders: %w", err)
	}
	return shared.NewPaginated(orders, total, filter.Page, filter.PageSize), nil
}
