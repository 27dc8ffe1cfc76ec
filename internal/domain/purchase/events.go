package purchase

import (
	"time"

	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the purchase context
const (
	EventTypeOrderReceived  = "purchase.order.received"
	EventTypeReturnApproved = "purchase.return.approved"
)

// OrderReceivedEvent is raised when a purchase order is received.
// The finance context reacts by creating the matching obligation.
type OrderReceivedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID       `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	SupplierID     uuid.UUID       `json:"supplier_id"`
	SupplierName   string          `json:"supplier_name"`
	OrderDate      time.Time       `json:"order_date"`
	ReceivedAmount decimal.Decimal `json:"received_amount"`
}

// NewOrderReceivedEvent creates a new OrderReceivedEvent
func NewOrderReceivedEvent(o *Order) *OrderReceivedEvent {
	return &OrderReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderReceived, "PurchaseOrder", o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		SupplierID:      o.SupplierID,
		SupplierName:    o.SupplierName,
		OrderDate:       o.OrderDate,
		ReceivedAmount:  o.ReceivedAmount,
	}
}

// ReturnCreditLine carries the strict linkage between a return credit
// and the purchase order it should settle first.
type ReturnCreditLine struct {
	PurchaseOrderID     uuid.UUID       `json:"purchase_order_id"`
	PurchaseOrderNumber string          `json:"purchase_order_number"`
	Amount              decimal.Decimal `json:"amount"`
}

// ReturnApprovedEvent is raised when a supplier return is approved.
// The finance context reacts by creating a return-credit payment and
// settling it against the supplier's obligations.
type ReturnApprovedEvent struct {
	shared.BaseDomainEvent
	ReturnID     uuid.UUID          `json:"return_id"`
	ReturnNumber string             `json:"return_number"`
	SupplierID   uuid.UUID          `json:"supplier_id"`
	SupplierName string             `json:"supplier_name"`
	TotalCredit  decimal.Decimal    `json:"total_credit"`
	Lines        []ReturnCreditLine `json:"lines"`
}

// NewReturnApprovedEvent creates a new ReturnApprovedEvent
func NewReturnApprovedEvent(r *SupplierReturn) *ReturnApprovedEvent {
	lines := make([]ReturnCreditLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, ReturnCreditLine{
			PurchaseOrderID:     l.PurchaseOrderID,
			PurchaseOrderNumber: l.PurchaseOrderNumber,
			Amount:              l.Amount,
		})
	}
	return &ReturnApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnApproved, "SupplierReturn", r.ID),
		ReturnID:        r.ID,
		ReturnNumber:    r.ReturnNumber,
		SupplierID:      r.SupplierID,
		SupplierName:    r.SupplierName,
		TotalCredit:     r.TotalCredit,
		Lines:           lines,
	}
}
