package purchase

import (
	"strings"
	"time"

	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnStatus represents the lifecycle state of a supplier return
type ReturnStatus string

const (
	ReturnStatusDraft    ReturnStatus = "DRAFT"
	ReturnStatusApproved ReturnStatus = "APPROVED"
	ReturnStatusSettled  ReturnStatus = "SETTLED"
	ReturnStatusRejected ReturnStatus = "REJECTED"
)

// ReturnLine links part of a supplier return to the purchase order the
// goods came from. The amount is the credit owed back for that order.
type ReturnLine struct {
	shared.BaseEntity
	ReturnID            uuid.UUID
	PurchaseOrderID     uuid.UUID
	PurchaseOrderNumber string
	Amount              decimal.Decimal
}

// SupplierReturn represents goods sent back to a supplier. Approval
// turns the total credit into a synthetic payment that settles the
// supplier's outstanding obligations.
type SupplierReturn struct {
	shared.BaseAggregateRoot
	ReturnNumber string
	SupplierID   uuid.UUID
	SupplierName string
	Status       ReturnStatus
	TotalCredit  decimal.Decimal
	Lines        []ReturnLine
	Reason       string
	ApprovedAt   *time.Time
	SettledAt    *time.Time
}

// NewSupplierReturn creates a supplier return in DRAFT state
func NewSupplierReturn(
	returnNumber string,
	supplierID uuid.UUID,
	supplierName string,
	reason string,
	lines []ReturnLine,
) (*SupplierReturn, error) {
	if strings.TrimSpace(returnNumber) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Return number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_RETURN", "Supplier return must have at least one line")
	}

	total := decimal.Zero
	seen := make(map[uuid.UUID]bool, len(lines))
	for i := range lines {
		if lines[i].PurchaseOrderID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_LINE", "Return line must reference a purchase order")
		}
		if seen[lines[i].PurchaseOrderID] {
			return nil, shared.NewDomainError("DUPLICATE_LINE", "Return references the same purchase order twice")
		}
		seen[lines[i].PurchaseOrderID] = true
		if !lines[i].Amount.IsPositive() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Return line amount must be positive")
		}
		total = total.Add(lines[i].Amount)
	}

	ret := &SupplierReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnNumber:      returnNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		Status:            ReturnStatusDraft,
		TotalCredit:       total,
		Lines:             lines,
		Reason:            reason,
	}

	for i := range ret.Lines {
		ret.Lines[i].ReturnID = ret.ID
	}

	return ret, nil
}

// Approve approves the return and raises the event that drives
// credit settlement against the supplier's obligations.
func (r *SupplierReturn) Approve() error {
	if r.Status != ReturnStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft returns can be approved")
	}

	now := time.Now()
	r.Status = ReturnStatusApproved
	r.ApprovedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReturnApprovedEvent(r))

	return nil
}

// Reject rejects a draft return
func (r *SupplierReturn) Reject() error {
	if r.Status != ReturnStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft returns can be rejected")
	}
	r.Status = ReturnStatusRejected
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// MarkSettled records that the return credit has been applied
func (r *SupplierReturn) MarkSettled() error {
	if r.Status != ReturnStatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Only approved returns can be settled")
	}
	now := time.Now()
	r.Status = ReturnStatusSettled
	r.SettledAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	return nil
}
