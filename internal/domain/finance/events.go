package finance

import (
	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the finance context
const (
	EventTypePayableCreated   = "finance.payable.created"
	EventTypePaymentAllocated = "finance.payment.allocated"
	EventTypePaymentVoided    = "finance.payment.voided"
)

// PayableCreatedEvent is raised when a new supplier obligation is recorded
type PayableCreatedEvent struct {
	shared.BaseDomainEvent
	PayableNumber string          `json:"payable_number"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewPayableCreatedEvent creates a new PayableCreatedEvent
func NewPayableCreatedEvent(p *Payable) *PayableCreatedEvent {
	return &PayableCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayableCreated, "Payable", p.ID),
		PayableNumber:   p.PayableNumber,
		SupplierID:      p.SupplierID,
		Amount:          p.Amount,
	}
}

// PaymentAllocatedEvent is raised when a payment has been distributed
// over the supplier's obligations
type PaymentAllocatedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber   string          `json:"payment_number"`
	SupplierID      uuid.UUID       `json:"supplier_id"`
	TotalAllocated  decimal.Decimal `json:"total_allocated"`
	Unallocated     decimal.Decimal `json:"unallocated"`
	AllocationCount int             `json:"allocation_count"`
}

// NewPaymentAllocatedEvent creates a new PaymentAllocatedEvent
func NewPaymentAllocatedEvent(p *SupplierPayment, plan *AllocationPlan) *PaymentAllocatedEvent {
	return &PaymentAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentAllocated, "SupplierPayment", p.ID),
		PaymentNumber:   p.PaymentNumber,
		SupplierID:      p.SupplierID,
		TotalAllocated:  plan.TotalAllocated,
		Unallocated:     plan.Unallocated,
		AllocationCount: len(plan.Allocations),
	}
}

// PaymentVoidedEvent is raised when a payment is voided
type PaymentVoidedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// NewPaymentVoidedEvent creates a new PaymentVoidedEvent
func NewPaymentVoidedEvent(p *SupplierPayment) *PaymentVoidedEvent {
	return &PaymentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentVoided, "SupplierPayment", p.ID),
		PaymentNumber:   p.PaymentNumber,
		SupplierID:      p.SupplierID,
		Amount:          p.Amount,
		Reason:          p.VoidReason,
	}
}
