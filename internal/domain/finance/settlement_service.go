package finance

import (
	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditLink is the strict linkage between a return credit and one
// payable: the exact credit that should settle that obligation before
// anything flows to FIFO.
type CreditLink struct {
	PayableID uuid.UUID
	Amount    decimal.Decimal
}

// SettlementService plans and applies payment allocations. Planning is
// pure; ApplyPlan materialises a plan onto the payment and payables.
type SettlementService struct{}

// NewSettlementService creates a new settlement service
func NewSettlementService() *SettlementService {
	return &SettlementService{}
}

// Plan builds an allocation plan for the requested method
func (s *SettlementService) Plan(
	method AllocationMethod,
	splits []ManualSplit,
	amount decimal.Decimal,
	candidates []AllocationCandidate,
) (*AllocationPlan, error) {
	strategy, err := NewAllocationStrategy(method, splits)
	if err != nil {
		return nil, err
	}
	return strategy.Allocate(amount, candidates)
}

// PlanCreditSettlement builds the two-pass plan for a return credit.
// Pass 1 settles each strictly-linked payable with its exact credit,
// capped at the outstanding balance. Pass 2 sends whatever credit is
// left through FIFO over the remaining candidates, excluding every
// strictly-linked payable. A residual at or below ResidualFloor stays
// unallocated.
func (s *SettlementService) PlanCreditSettlement(
	returnID uuid.UUID,
	amount decimal.Decimal,
	links []CreditLink,
	candidates []AllocationCandidate,
) (*AllocationPlan, error) {
	if returnID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RETURN", "Return ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}

	byID := make(map[uuid.UUID]*AllocationCandidate, len(candidates))
	for i := range candidates {
		byID[candidates[i].PayableID] = &candidates[i]
	}

	plan := &AllocationPlan{
		Allocations:    make([]PlannedAllocation, 0, len(links)),
		TotalAllocated: decimal.Zero,
	}
	remaining := amount
	strict := make(map[uuid.UUID]bool, len(links))

	for _, link := range links {
		strict[link.PayableID] = true

		if remaining.LessThanOrEqual(ResidualFloor) {
			break
		}
		candidate, ok := byID[link.PayableID]
		if !ok || candidate.Outstanding.LessThanOrEqual(decimal.Zero) {
			// Linked obligation already settled; its share joins the FIFO pass
			continue
		}
		if !link.Amount.IsPositive() {
			continue
		}

		allocAmount := decimal.Min(link.Amount, candidate.Outstanding)
		allocAmount = decimal.Min(allocAmount, remaining)

		rid := returnID
		plan.Allocations = append(plan.Allocations, PlannedAllocation{
			PayableID:     candidate.PayableID,
			PayableNumber: candidate.PayableNumber,
			Amount:        allocAmount,
			Status:        allocationStatusFor(candidate.Outstanding, allocAmount),
			ReturnID:      &rid,
		})
		plan.TotalAllocated = plan.TotalAllocated.Add(allocAmount)
		remaining = remaining.Sub(allocAmount)
	}

	if remaining.GreaterThan(ResidualFloor) {
		rest := make([]AllocationCandidate, 0, len(candidates))
		for _, c := range candidates {
			if !strict[c.PayableID] {
				rest = append(rest, c)
			}
		}

		fifoPlan, err := NewFIFOAllocationStrategy().Allocate(remaining, rest)
		if err != nil {
			return nil, err
		}
		plan.Allocations = append(plan.Allocations, fifoPlan.Allocations...)
		plan.TotalAllocated = plan.TotalAllocated.Add(fifoPlan.TotalAllocated)
		remaining = fifoPlan.Unallocated
	}

	plan.Unallocated = remaining
	plan.FullyAllocated = remaining.LessThanOrEqual(ResidualFloor)

	return plan, nil
}

// ApplyPlan applies an allocation plan to the payment and the affected
// payables. Both sides move together: each payable's paid amount
// advances and the payment records the matching allocation. Payables
// must contain every payable named by the plan.
func (s *SettlementService) ApplyPlan(
	payment *SupplierPayment,
	payables map[uuid.UUID]*Payable,
	plan *AllocationPlan,
) error {
	if payment == nil {
		return shared.NewDomainError("INVALID_PAYMENT", "Payment cannot be nil")
	}
	if plan == nil {
		return shared.NewDomainError("INVALID_PLAN", "Allocation plan cannot be nil")
	}

	for _, alloc := range plan.Allocations {
		payable, ok := payables[alloc.PayableID]
		if !ok {
			return shared.NewDomainError("UNKNOWN_PAYABLE", "Plan references a payable that was not loaded")
		}
		if err := payable.ApplyPayment(alloc.Amount); err != nil {
			return err
		}
		if err := payment.AddAllocation(alloc.PayableID, alloc.PayableNumber, alloc.Amount, alloc.Status, alloc.ReturnID); err != nil {
			return err
		}
	}

	payment.AddDomainEvent(NewPaymentAllocatedEvent(payment, plan))

	return nil
}
