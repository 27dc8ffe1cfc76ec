package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/partner"
	"github.com/amas/backend/internal/domain/purchase"
	"github.com/amas/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderReceivedHandler reacts to received purchase orders by creating
// the matching supplier obligation. The received amount becomes the
// payable amount; the receipt date becomes the obligation date that
// drives oldest-first settlement.
type OrderReceivedHandler struct {
	payableRepo  finance.PayableRepository
	supplierRepo partner.SupplierRepository
	logger       *zap.Logger
}

// NewOrderReceivedHandler creates a new handler for order received events
func NewOrderReceivedHandler(
	payableRepo finance.PayableRepository,
	supplierRepo partner.SupplierRepository,
	logger *zap.Logger,
) *OrderReceivedHandler {
	return &OrderReceivedHandler{
		payableRepo:  payableRepo,
		supplierRepo: supplierRepo,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderReceivedHandler) EventTypes() []string {
	return []string{purchase.EventTypeOrderReceived}
}

// Handle creates a payable for the received order. Re-delivery of the
// same event is a no-op: at most one payable exists per order.
func (h *OrderReceivedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	received, ok := event.(*purchase.OrderReceivedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			purchase.EventTypeOrderReceived, event.EventType())
	}

	h.logger.Info("processing order received event for payable creation",
		zap.String("order_id", received.OrderID.String()),
		zap.String("order_number", received.OrderNumber),
		zap.String("supplier_id", received.SupplierID.String()),
		zap.String("received_amount", received.ReceivedAmount.String()),
	)

	exists, err := h.payableRepo.ExistsBySource(ctx, finance.PayableSourceTypePurchaseOrder, received.OrderID)
	if err != nil {
		return fmt.Errorf("failed to check existing payable: %w", err)
	}
	if exists {
		h.logger.Warn("payable already exists for purchase order, skipping",
			zap.String("order_id", received.OrderID.String()),
			zap.String("order_number", received.OrderNumber),
		)
		return nil
	}

	if received.ReceivedAmount.IsZero() {
		h.logger.Info("skipping payable creation, received amount is zero",
			zap.String("order_id", received.OrderID.String()),
		)
		return nil
	}

	payableNumber, err := h.payableRepo.GeneratePayableNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate payable number: %w", err)
	}

	dueDate, err := h.dueDateFor(ctx, received)
	if err != nil {
		return err
	}

	orderID := received.OrderID
	payable, err := finance.NewPayable(
		payableNumber,
		received.SupplierID,
		received.SupplierName,
		finance.PayableSourceTypePurchaseOrder,
		&orderID,
		received.OrderNumber,
		received.ReceivedAmount,
		received.OrderDate,
		dueDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create payable: %w", err)
	}

	if err := h.payableRepo.Save(ctx, payable); err != nil {
		return fmt.Errorf("failed to save payable: %w", err)
	}

	h.logger.Info("payable created for received order",
		zap.String("payable_id", payable.ID.String()),
		zap.String("payable_number", payableNumber),
		zap.String("order_number", received.OrderNumber),
		zap.String("supplier_id", received.SupplierID.String()),
		zap.String("amount", received.ReceivedAmount.String()),
	)

	return nil
}

// dueDateFor derives the due date from the supplier's credit terms.
// Suppliers without credit days get no due date.
func (h *OrderReceivedHandler) dueDateFor(ctx context.Context, received *purchase.OrderReceivedEvent) (*time.Time, error) {
	supplier, err := h.supplierRepo.FindByID(ctx, received.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	if supplier == nil || supplier.CreditDays <= 0 {
		return nil, nil
	}
	due := received.OrderDate.AddDate(0, 0, supplier.CreditDays)
	return &due, nil
}

// Ensure OrderReceivedHandler implements shared.EventHandler
var _ shared.EventHandler = (*OrderReceivedHandler)(nil)
