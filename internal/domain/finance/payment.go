package finance

import (
	"strings"
	"time"

	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a supplier payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodTransfer     PaymentMethod = "TRANSFER"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodReturnCredit PaymentMethod = "RETURN_CREDIT" // synthetic, from approved supplier returns
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCheque, PaymentMethodReturnCredit:
		return true
	}
	return false
}

// PaymentStatus represents the status of a supplier payment
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusVoided    PaymentStatus = "VOIDED"
)

// AllocationStatus tells whether an allocation settled its obligation
// in full or only partially.
type AllocationStatus string

const (
	AllocationStatusFull    AllocationStatus = "FULL"
	AllocationStatusPartial AllocationStatus = "PARTIAL"
)

// PaymentAllocation records how much of a payment went to one payable
type PaymentAllocation struct {
	shared.BaseEntity
	PaymentID     uuid.UUID
	PayableID     uuid.UUID
	PayableNumber string
	Amount        decimal.Decimal
	Status        AllocationStatus
	ReturnID      *uuid.UUID // set when the allocation came from a strict return-credit linkage
}

// SupplierPayment represents money paid to a supplier. Payments are
// append-only: corrections are voids plus new payments, amounts never
// change after creation.
type SupplierPayment struct {
	shared.BaseAggregateRoot
	PaymentNumber   string
	SupplierID      uuid.UUID
	SupplierName    string
	Amount          decimal.Decimal
	AllocatedAmount decimal.Decimal
	Method          PaymentMethod
	Reference       string
	Note            string
	PaidAt          time.Time
	Status          PaymentStatus
	VoidedAt        *time.Time
	VoidReason      string
	Allocations     []PaymentAllocation
}

// NewSupplierPayment creates a new completed supplier payment
func NewSupplierPayment(
	paymentNumber string,
	supplierID uuid.UUID,
	supplierName string,
	amount decimal.Decimal,
	method PaymentMethod,
	reference string,
	paidAt time.Time,
) (*SupplierPayment, error) {
	if strings.TrimSpace(paymentNumber) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Payment number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Unknown payment method")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	return &SupplierPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PaymentNumber:     paymentNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		Amount:            amount,
		AllocatedAmount:   decimal.Zero,
		Method:            method,
		Reference:         reference,
		PaidAt:            paidAt,
		Status:            PaymentStatusCompleted,
		Allocations:       make([]PaymentAllocation, 0),
	}, nil
}

// UnallocatedAmount returns the part of the payment not yet allocated
func (p *SupplierPayment) UnallocatedAmount() decimal.Decimal {
	return p.Amount.Sub(p.AllocatedAmount)
}

// AddAllocation records an allocation of part of this payment to a
// payable. A payable may receive at most one allocation per payment.
func (p *SupplierPayment) AddAllocation(
	payableID uuid.UUID,
	payableNumber string,
	amount decimal.Decimal,
	status AllocationStatus,
	returnID *uuid.UUID,
) error {
	if p.Status != PaymentStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Cannot allocate a voided payment")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	if amount.GreaterThan(p.UnallocatedAmount()) {
		return shared.NewDomainError("EXCEEDS_UNALLOCATED", "Allocation amount exceeds unallocated balance")
	}
	for _, a := range p.Allocations {
		if a.PayableID == payableID {
			return shared.NewDomainError("ALREADY_ALLOCATED", "Payment already has an allocation to this payable")
		}
	}

	allocation := PaymentAllocation{
		BaseEntity:    shared.NewBaseEntity(),
		PaymentID:     p.ID,
		PayableID:     payableID,
		PayableNumber: payableNumber,
		Amount:        amount,
		Status:        status,
		ReturnID:      returnID,
	}

	p.Allocations = append(p.Allocations, allocation)
	p.AllocatedAmount = p.AllocatedAmount.Add(amount)
	p.UpdatedAt = time.Now()

	return nil
}

// Void voids the payment. The caller is responsible for reversing the
// applied allocations on the affected payables.
func (p *SupplierPayment) Void(reason string) error {
	if p.Status == PaymentStatusVoided {
		return shared.NewDomainError("INVALID_STATE", "Payment is already voided")
	}
	if p.Method == PaymentMethodReturnCredit {
		return shared.NewDomainError("INVALID_STATE", "Return-credit payments cannot be voided")
	}

	now := time.Now()
	p.Status = PaymentStatusVoided
	p.VoidedAt = &now
	p.VoidReason = reason
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentVoidedEvent(p))

	return nil
}

// IsReturnCredit returns true for payments synthesised from returns
func (p *SupplierPayment) IsReturnCredit() bool {
	return p.Method == PaymentMethodReturnCredit
}
