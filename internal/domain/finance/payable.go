package finance

import (
	"strings"
	"time"

	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement tolerances. SettleEpsilon bounds the rounding drift under
// which an obligation counts as fully settled; ResidualFloor is the
// remaining payment balance below which allocation stops.
var (
	// SettleEpsilon is the tolerance for "fully settled" decisions
	SettleEpsilon = decimal.NewFromFloat(0.01)
	// ResidualFloor is the remaining-balance floor below which a payment
	// is treated as exhausted
	ResidualFloor = decimal.NewFromFloat(0.009)
	// ManualSumEpsilon is the tolerance for manual split sum equality
	ManualSumEpsilon = decimal.NewFromFloat(0.000001)
)

// PayableStatus represents the status of a supplier obligation
type PayableStatus string

const (
	PayableStatusPending   PayableStatus = "PENDING"
	PayableStatusPartial   PayableStatus = "PARTIAL"
	PayableStatusPaid      PayableStatus = "PAID"
	PayableStatusCancelled PayableStatus = "CANCELLED"
)

// IsValid checks if the payable status is valid
func (s PayableStatus) IsValid() bool {
	switch s {
	case PayableStatusPending, PayableStatusPartial, PayableStatusPaid, PayableStatusCancelled:
		return true
	}
	return false
}

// CanApplyPayment returns true if payments can be applied in this status
func (s PayableStatus) CanApplyPayment() bool {
	return s == PayableStatusPending || s == PayableStatusPartial
}

// PayableSourceType identifies what created a supplier obligation
type PayableSourceType string

const (
	PayableSourceTypePurchaseOrder PayableSourceType = "PURCHASE_ORDER"
	PayableSourceTypeManual        PayableSourceType = "MANUAL"
)

// Payable represents an obligation owed to a supplier, one per received
// purchase order or manual entry. The outstanding balance is always
// derived (Amount - PaidAmount), never stored.
type Payable struct {
	shared.BaseAggregateRoot
	PayableNumber  string
	SupplierID     uuid.UUID
	SupplierName   string
	SourceType     PayableSourceType
	SourceID       *uuid.UUID
	SourceNumber   string
	Amount         decimal.Decimal
	PaidAmount     decimal.Decimal
	Status         PayableStatus
	ObligationDate time.Time // ordering key for oldest-first settlement
	DueDate        *time.Time
	Remark         string
	PaidAt         *time.Time
}

// NewPayable creates a new supplier obligation
func NewPayable(
	payableNumber string,
	supplierID uuid.UUID,
	supplierName string,
	sourceType PayableSourceType,
	sourceID *uuid.UUID,
	sourceNumber string,
	amount decimal.Decimal,
	obligationDate time.Time,
	dueDate *time.Time,
) (*Payable, error) {
	if strings.TrimSpace(payableNumber) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Payable number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payable amount must be positive")
	}
	if sourceType == PayableSourceTypePurchaseOrder && (sourceID == nil || *sourceID == uuid.Nil) {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Purchase order payables require a source ID")
	}
	if obligationDate.IsZero() {
		obligationDate = time.Now()
	}

	payable := &Payable{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PayableNumber:     payableNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		SourceType:        sourceType,
		SourceID:          sourceID,
		SourceNumber:      sourceNumber,
		Amount:            amount,
		PaidAmount:        decimal.Zero,
		Status:            PayableStatusPending,
		ObligationDate:    obligationDate,
		DueDate:           dueDate,
	}

	payable.AddDomainEvent(NewPayableCreatedEvent(payable))

	return payable, nil
}

// Outstanding returns the unpaid balance of the obligation
func (p *Payable) Outstanding() decimal.Decimal {
	return p.Amount.Sub(p.PaidAmount)
}

// IsSettled returns true when the outstanding balance is within the
// settlement tolerance of zero
func (p *Payable) IsSettled() bool {
	return p.Outstanding().LessThan(SettleEpsilon)
}

// ApplyPayment advances the paid amount. The amount must be positive
// and must not exceed the outstanding balance beyond the settlement
// tolerance.
func (p *Payable) ApplyPayment(amount decimal.Decimal) error {
	if !p.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", "Payable cannot accept payments in status "+string(p.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.Sub(p.Outstanding()).GreaterThan(SettleEpsilon) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING", "Payment amount exceeds outstanding balance")
	}

	now := time.Now()
	p.PaidAmount = p.PaidAmount.Add(amount)
	if p.IsSettled() {
		p.Status = PayableStatusPaid
		p.PaidAt = &now
	} else {
		p.Status = PayableStatusPartial
	}
	p.UpdatedAt = now
	p.IncrementVersion()

	return nil
}

// ReversePayment rolls back a previously applied payment, used when a
// payment is voided.
func (p *Payable) ReversePayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Reversal amount must be positive")
	}
	if amount.GreaterThan(p.PaidAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Reversal amount exceeds paid amount")
	}

	p.PaidAmount = p.PaidAmount.Sub(amount)
	if p.PaidAmount.IsZero() {
		p.Status = PayableStatusPending
	} else if p.IsSettled() {
		p.Status = PayableStatusPaid
	} else {
		p.Status = PayableStatusPartial
	}
	if p.Status != PayableStatusPaid {
		p.PaidAt = nil
	}
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Cancel cancels an obligation that has received no payments
func (p *Payable) Cancel(reason string) error {
	if !p.PaidAmount.IsZero() {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a payable with applied payments")
	}
	if p.Status == PayableStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Payable is already cancelled")
	}
	p.Status = PayableStatusCancelled
	p.Remark = reason
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// IsOverdue reports whether the obligation has been outstanding longer
// than the given threshold.
func (p *Payable) IsOverdue(olderThan time.Duration, now time.Time) bool {
	if !p.Status.CanApplyPayment() {
		return false
	}
	return now.Sub(p.ObligationDate) > olderThan
}
