package purchase

import (
	"strings"
	"time"

	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of a purchase order
type OrderStatus string

const (
	OrderStatusOrdered   OrderStatus = "ORDERED"
	OrderStatusReceived  OrderStatus = "RECEIVED"
	OrderStatusClosed    OrderStatus = "CLOSED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusOrdered, OrderStatusReceived, OrderStatusClosed, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderLine represents a single item line on a purchase order
type OrderLine struct {
	shared.BaseEntity
	OrderID  uuid.UUID
	ItemName string
	Quantity int
	UnitCost decimal.Decimal
}

// Total returns the line total (quantity x unit cost)
func (l OrderLine) Total() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order represents a purchase order placed with a supplier.
// Receiving an order fixes its received value, which becomes the
// supplier obligation tracked by the finance context.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber    string
	SupplierID     uuid.UUID
	SupplierName   string
	Status         OrderStatus
	OrderDate      time.Time
	ReceivedAt     *time.Time
	TotalAmount    decimal.Decimal
	ReceivedAmount decimal.Decimal
	Lines          []OrderLine
	Note           string
}

// NewOrder creates a new purchase order in ORDERED state
func NewOrder(
	orderNumber string,
	supplierID uuid.UUID,
	supplierName string,
	orderDate time.Time,
	lines []OrderLine,
) (*Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Order number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Purchase order must have at least one line")
	}

	total := decimal.Zero
	for i := range lines {
		if lines[i].Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
		}
		if lines[i].UnitCost.IsNegative() {
			return nil, shared.NewDomainError("INVALID_COST", "Line unit cost cannot be negative")
		}
		total = total.Add(lines[i].Total())
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		Status:            OrderStatusOrdered,
		OrderDate:         orderDate,
		TotalAmount:       total,
		ReceivedAmount:    decimal.Zero,
		Lines:             lines,
	}

	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
	}

	return order, nil
}

// Receive marks the order as received and fixes the received value.
// A zero receivedAmount means the order was received in full.
func (o *Order) Receive(receivedAmount decimal.Decimal) error {
	if o.Status != OrderStatusOrdered {
		return shared.NewDomainError("INVALID_STATE", "Only ordered purchase orders can be received")
	}
	if receivedAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Received amount cannot be negative")
	}
	if receivedAmount.IsZero() {
		receivedAmount = o.TotalAmount
	}
	if receivedAmount.GreaterThan(o.TotalAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Received amount cannot exceed ordered amount")
	}

	now := time.Now()
	o.Status = OrderStatusReceived
	o.ReceivedAt = &now
	o.ReceivedAmount = receivedAmount
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderReceivedEvent(o))

	return nil
}

// Close closes a received order
func (o *Order) Close() error {
	if o.Status != OrderStatusReceived {
		return shared.NewDomainError("INVALID_STATE", "Only received purchase orders can be closed")
	}
	o.Status = OrderStatusClosed
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// Cancel cancels an order that has not been received yet
func (o *Order) Cancel() error {
	if o.Status != OrderStatusOrdered {
		return shared.NewDomainError("INVALID_STATE", "Only ordered purchase orders can be cancelled")
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}
