package finance

import (
	"sort"
	"time"

	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationMethod selects how a payment is distributed over payables
type AllocationMethod string

const (
	AllocationMethodFIFO   AllocationMethod = "FIFO"   // oldest obligation first
	AllocationMethodManual AllocationMethod = "MANUAL" // caller-proposed split
)

// IsValid checks if the allocation method is valid
func (m AllocationMethod) IsValid() bool {
	return m == AllocationMethodFIFO || m == AllocationMethodManual
}

// AllocationCandidate is a payable eligible to receive part of a payment.
// Outstanding is read at plan time; candidates with nothing outstanding
// are skipped.
type AllocationCandidate struct {
	PayableID      uuid.UUID
	PayableNumber  string
	Outstanding    decimal.Decimal
	ObligationDate time.Time
	CreatedAt      time.Time
}

// PlannedAllocation is one line of an allocation plan
type PlannedAllocation struct {
	PayableID     uuid.UUID
	PayableNumber string
	Amount        decimal.Decimal
	Status        AllocationStatus
	ReturnID      *uuid.UUID
}

// AllocationPlan is the complete outcome of distributing a payment.
// Unallocated is reported, never silently dropped.
type AllocationPlan struct {
	Allocations    []PlannedAllocation
	TotalAllocated decimal.Decimal
	Unallocated    decimal.Decimal
	FullyAllocated bool
}

// allocationStatusFor decides Full vs Partial: the allocation settles
// the obligation when it covers the outstanding within SettleEpsilon.
func allocationStatusFor(outstanding, allocated decimal.Decimal) AllocationStatus {
	if outstanding.Sub(allocated).Abs().LessThan(SettleEpsilon) || allocated.GreaterThanOrEqual(outstanding) {
		return AllocationStatusFull
	}
	return AllocationStatusPartial
}

// AllocationStrategy plans how a payment amount is spread over candidates
type AllocationStrategy interface {
	Method() AllocationMethod
	Allocate(amount decimal.Decimal, candidates []AllocationCandidate) (*AllocationPlan, error)
}

// FIFOAllocationStrategy distributes a payment oldest-obligation-first.
type FIFOAllocationStrategy struct{}

// NewFIFOAllocationStrategy creates a new FIFO allocation strategy
func NewFIFOAllocationStrategy() *FIFOAllocationStrategy {
	return &FIFOAllocationStrategy{}
}

// Method returns the allocation method
func (s *FIFOAllocationStrategy) Method() AllocationMethod {
	return AllocationMethodFIFO
}

// Allocate walks candidates in obligation-date order, allocating
// min(remaining, outstanding) to each until the payment is exhausted.
// Allocation stops once the remaining balance falls to ResidualFloor
// or below; whatever is left is reported as Unallocated.
func (s *FIFOAllocationStrategy) Allocate(amount decimal.Decimal, candidates []AllocationCandidate) (*AllocationPlan, error) {
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount cannot be negative")
	}
	if amount.IsZero() {
		// Nothing to distribute
		return &AllocationPlan{
			Allocations:    make([]PlannedAllocation, 0),
			TotalAllocated: decimal.Zero,
			Unallocated:    decimal.Zero,
			FullyAllocated: true,
		}, nil
	}

	sorted := make([]AllocationCandidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ObligationDate.Equal(sorted[j].ObligationDate) {
			return sorted[i].ObligationDate.Before(sorted[j].ObligationDate)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	plan := &AllocationPlan{
		Allocations:    make([]PlannedAllocation, 0, len(sorted)),
		TotalAllocated: decimal.Zero,
	}
	remaining := amount

	for _, c := range sorted {
		if remaining.LessThanOrEqual(ResidualFloor) {
			break
		}
		if c.Outstanding.LessThanOrEqual(decimal.Zero) {
			continue
		}

		allocAmount := decimal.Min(remaining, c.Outstanding)

		plan.Allocations = append(plan.Allocations, PlannedAllocation{
			PayableID:     c.PayableID,
			PayableNumber: c.PayableNumber,
			Amount:        allocAmount,
			Status:        allocationStatusFor(c.Outstanding, allocAmount),
		})

		plan.TotalAllocated = plan.TotalAllocated.Add(allocAmount)
		remaining = remaining.Sub(allocAmount)
	}

	plan.Unallocated = remaining
	plan.FullyAllocated = remaining.LessThanOrEqual(ResidualFloor)

	return plan, nil
}

// ManualSplit is one caller-proposed allocation line
type ManualSplit struct {
	PayableID uuid.UUID
	Amount    decimal.Decimal
}

// ManualAllocationStrategy applies a caller-proposed split. The split
// is validated as a whole: every target must be a known candidate, each
// amount must lie within [0, outstanding], and the split must sum to
// the payment amount exactly (within ManualSumEpsilon). Any violation
// rejects the entire proposal.
type ManualAllocationStrategy struct {
	splits []ManualSplit
}

// NewManualAllocationStrategy creates a manual strategy for the given splits
func NewManualAllocationStrategy(splits []ManualSplit) *ManualAllocationStrategy {
	return &ManualAllocationStrategy{splits: splits}
}

// Method returns the allocation method
func (s *ManualAllocationStrategy) Method() AllocationMethod {
	return AllocationMethodManual
}

// Allocate validates and applies the proposed split
func (s *ManualAllocationStrategy) Allocate(amount decimal.Decimal, candidates []AllocationCandidate) (*AllocationPlan, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	if len(s.splits) == 0 {
		return nil, shared.NewDomainError("EMPTY_SPLIT", "Manual allocation requires at least one split line")
	}

	byID := make(map[uuid.UUID]*AllocationCandidate, len(candidates))
	for i := range candidates {
		byID[candidates[i].PayableID] = &candidates[i]
	}

	seen := make(map[uuid.UUID]bool, len(s.splits))
	sum := decimal.Zero
	for _, split := range s.splits {
		if seen[split.PayableID] {
			return nil, shared.NewDomainError("DUPLICATE_SPLIT", "Split proposes the same payable twice")
		}
		seen[split.PayableID] = true

		candidate, ok := byID[split.PayableID]
		if !ok {
			return nil, shared.NewDomainError("UNKNOWN_PAYABLE", "Split references a payable with nothing outstanding")
		}
		if split.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_SPLIT", "Split amount cannot be negative")
		}
		if split.Amount.GreaterThan(candidate.Outstanding) {
			return nil, shared.NewDomainError("EXCEEDS_OUTSTANDING", "Split amount exceeds the payable's outstanding balance")
		}
		sum = sum.Add(split.Amount)
	}

	if sum.Sub(amount).Abs().GreaterThan(ManualSumEpsilon) {
		return nil, shared.NewDomainError("SPLIT_MISMATCH", "Split amounts must sum to the payment amount")
	}

	plan := &AllocationPlan{
		Allocations:    make([]PlannedAllocation, 0, len(s.splits)),
		TotalAllocated: decimal.Zero,
	}

	for _, split := range s.splits {
		if split.Amount.IsZero() {
			continue
		}
		candidate := byID[split.PayableID]
		plan.Allocations = append(plan.Allocations, PlannedAllocation{
			PayableID:     candidate.PayableID,
			PayableNumber: candidate.PayableNumber,
			Amount:        split.Amount,
			Status:        allocationStatusFor(candidate.Outstanding, split.Amount),
		})
		plan.TotalAllocated = plan.TotalAllocated.Add(split.Amount)
	}

	plan.Unallocated = amount.Sub(plan.TotalAllocated)
	plan.FullyAllocated = plan.Unallocated.LessThanOrEqual(ResidualFloor)

	return plan, nil
}

// NewAllocationStrategy resolves a strategy from the requested method
func NewAllocationStrategy(method AllocationMethod, splits []ManualSplit) (AllocationStrategy, error) {
	switch method {
	case AllocationMethodFIFO:
		return NewFIFOAllocationStrategy(), nil
	case AllocationMethodManual:
		if len(splits) == 0 {
			return nil, shared.NewDomainError("INVALID_SPLITS", "Manual allocation requires split lines")
		}
		return NewManualAllocationStrategy(splits), nil
	default:
		return nil, shared.NewDomainError("INVALID_METHOD", "Unknown allocation method")
	}
}
