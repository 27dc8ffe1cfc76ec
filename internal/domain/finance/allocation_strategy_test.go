package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(number string, outstanding float64, obligationDate time.Time) AllocationCandidate {
	return AllocationCandidate{
		PayableID:      uuid.New(),
		PayableNumber:  number,
		Outstanding:    decimal.NewFromFloat(outstanding),
		ObligationDate: obligationDate,
		CreatedAt:      obligationDate,
	}
}

func day(offset int) time.Time {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestFIFOAllocateSpansObligations(t *testing.T) {
	// 120 against [100, 50]: the older obligation settles in full,
	// the newer gets the remaining 20.
	older := candidate("AP-1", 100, day(0))
	newer := candidate("AP-2", 50, day(5))

	plan, err := NewFIFOAllocationStrategy().Allocate(decimal.NewFromInt(120), []AllocationCandidate{newer, older})
	require.NoError(t, err)

	require.Len(t, plan.Allocations, 2)
	assert.Equal(t, older.PayableID, plan.Allocations[0].PayableID)
	assert.True(t, plan.Allocations[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, AllocationStatusFull, plan.Allocations[0].Status)

	assert.Equal(t, newer.PayableID, plan.Allocations[1].PayableID)
	assert.True(t, plan.Allocations[1].Amount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, AllocationStatusPartial, plan.Allocations[1].Status)

	assert.True(t, plan.Unallocated.IsZero())
	assert.True(t, plan.FullyAllocated)
}

func TestFIFOAllocateReportsRemainder(t *testing.T) {
	// 50 against a single 30 obligation: 20 stays unallocated.
	only := candidate("AP-1", 30, day(0))

	plan, err := NewFIFOAllocationStrategy().Allocate(decimal.NewFromInt(50), []AllocationCandidate{only})
	require.NoError(t, err)

	require.Len(t, plan.Allocations, 1)
	assert.True(t, plan.Allocations[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, AllocationStatusFull, plan.Allocations[0].Status)
	assert.True(t, plan.Unallocated.Equal(decimal.NewFromInt(20)))
	assert.False(t, plan.FullyAllocated)
}

func TestFIFOAllocateOrdering(t *testing.T) {
	a := candidate("AP-A", 10, day(3))
	b := candidate("AP-B", 10, day(1))
	c := candidate("AP-C", 10, day(2))

	plan, err := NewFIFOAllocationStrategy().Allocate(decimal.NewFromInt(25), []AllocationCandidate{a, b, c})
	require.NoError(t, err)

	require.Len(t, plan.Allocations, 3)
	assert.Equal(t, "AP-B", plan.Allocations[0].PayableNumber)
	assert.Equal(t, "AP-C", plan.Allocations[1].PayableNumber)
	assert.Equal(t, "AP-A", plan.Allocations[2].PayableNumber)
	assert.Equal(t, AllocationStatusPartial, plan.Allocations[2].Status)
}

func TestFIFOAllocateTieBreakByCreation(t *testing.T) {
	sameDay := day(0)
	first := AllocationCandidate{
		PayableID: uuid.New(), PayableNumber: "AP-1",
		Outstanding:    decimal.NewFromInt(10),
		ObligationDate: sameDay,
		CreatedAt:      sameDay.Add(1 * time.Hour),
	}
	second := AllocationCandidate{
		PayableID: uuid.New(), PayableNumber: "AP-2",
		Outstanding:    decimal.NewFromInt(10),
		ObligationDate: sameDay,
		CreatedAt:      sameDay.Add(2 * time.Hour),
	}

	plan, err := NewFIFOAllocationStrategy().Allocate(decimal.NewFromInt(5), []AllocationCandidate{second, first})
	require.NoError(t, err)

	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, "AP-1", plan.Allocations[0].PayableNumber)
}

func TestFIFOAllocateSkipsSettledCandidates(t *testing.T) {
	settled := candidate("AP-1", 0, day(0))
	open := candidate("AP-2", 40, day(1))

	plan, err := NewFIFOAllocationStrategy().Allocate(decimal.NewFromInt(40), []AllocationCandidate{settled, open})
	require.NoError(t, err)

	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, open.PayableID, plan.Allocations[0].PayableID)
}

func TestFIFOAllocateEmptyCandidates(t *testing.T) {
	plan, err := NewFIFOAllocationStrategy().Allocate(decimal.NewFromInt(75), nil)
	require.NoError(t, err)

	assert.Empty(t, plan.Allocations)
	assert.True(t, plan.Unallocated.Equal(decimal.NewFromInt(75)))
	assert.False(t, plan.FullyAllocated)
}

func TestFIFOAllocateZeroAmount(t *testing.T) {
	plan, err := NewFIFOAllocationStrategy().Allocate(decimal.Zero, []AllocationCandidate{candidate("AP-1", 10, day(0))})
	require.NoError(t, err)
	assert.Empty(t, plan.Allocations)
	assert.True(t, plan.FullyAllocated)

	_, err = NewFIFOAllocationStrategy().Allocate(decimal.NewFromInt(-1), nil)
	assert.Error(t, err)
}

func TestFIFOAllocateNearSettledTolerance(t *testing.T) {
	// 99.995 against 100 outstanding: within the 0.01 tolerance, Full.
	near := candidate("AP-1", 100, day(0))

	plan, err := NewFIFOAllocationStrategy().Allocate(decimal.NewFromFloat(99.995), []AllocationCandidate{near})
	require.NoError(t, err)

	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, AllocationStatusFull, plan.Allocations[0].Status)
}

func TestFIFOAllocateStopsAtResidualFloor(t *testing.T) {
	first := candidate("AP-1", 99.995, day(0))
	second := candidate("AP-2", 50, day(1))

	plan, err := NewFIFOAllocationStrategy().Allocate(decimal.NewFromInt(100), []AllocationCandidate{first, second})
	require.NoError(t, err)

	// 0.005 is left after the first obligation; below the floor,
	// so nothing dribbles onto the second one.
	require.Len(t, plan.Allocations, 1)
	assert.True(t, plan.Unallocated.Equal(decimal.NewFromFloat(0.005)))
	assert.True(t, plan.FullyAllocated)
}

func TestManualAllocateExactSplit(t *testing.T) {
	a := candidate("AP-1", 100, day(0))
	b := candidate("AP-2", 50, day(1))

	strategy := NewManualAllocationStrategy([]ManualSplit{
		{PayableID: a.PayableID, Amount: decimal.NewFromInt(70)},
		{PayableID: b.PayableID, Amount: decimal.NewFromInt(50)},
	})

	plan, err := strategy.Allocate(decimal.NewFromInt(120), []AllocationCandidate{a, b})
	require.NoError(t, err)

	require.Len(t, plan.Allocations, 2)
	assert.Equal(t, AllocationStatusPartial, plan.Allocations[0].Status)
	assert.Equal(t, AllocationStatusFull, plan.Allocations[1].Status)
	assert.True(t, plan.Unallocated.IsZero())
	assert.True(t, plan.FullyAllocated)
}

func TestManualAllocateSumMismatchRejected(t *testing.T) {
	a := candidate("AP-1", 100, day(0))

	strategy := NewManualAllocationStrategy([]ManualSplit{
		{PayableID: a.PayableID, Amount: decimal.NewFromInt(90)},
	})

	_, err := strategy.Allocate(decimal.NewFromInt(120), []AllocationCandidate{a})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum")
}

func TestManualAllocateSumWithinFloatTolerance(t *testing.T) {
	a := candidate("AP-1", 100, day(0))

	strategy := NewManualAllocationStrategy([]ManualSplit{
		{PayableID: a.PayableID, Amount: decimal.NewFromFloat(99.9999996)},
	})

	plan, err := strategy.Allocate(decimal.NewFromInt(100), []AllocationCandidate{a})
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, AllocationStatusFull, plan.Allocations[0].Status)
}

func TestManualAllocateExceedsOutstandingRejected(t *testing.T) {
	a := candidate("AP-1", 30, day(0))

	strategy := NewManualAllocationStrategy([]ManualSplit{
		{PayableID: a.PayableID, Amount: decimal.NewFromInt(50)},
	})

	_, err := strategy.Allocate(decimal.NewFromInt(50), []AllocationCandidate{a})
	assert.Error(t, err)
}

func TestManualAllocateUnknownPayableRejected(t *testing.T) {
	a := candidate("AP-1", 100, day(0))

	strategy := NewManualAllocationStrategy([]ManualSplit{
		{PayableID: uuid.New(), Amount: decimal.NewFromInt(100)},
	})

	_, err := strategy.Allocate(decimal.NewFromInt(100), []AllocationCandidate{a})
	assert.Error(t, err)
}

func TestManualAllocateNegativeSplitRejected(t *testing.T) {
	a := candidate("AP-1", 100, day(0))
	b := candidate("AP-2", 100, day(1))

	strategy := NewManualAllocationStrategy([]ManualSplit{
		{PayableID: a.PayableID, Amount: decimal.NewFromInt(150)},
		{PayableID: b.PayableID, Amount: decimal.NewFromInt(-50)},
	})

	_, err := strategy.Allocate(decimal.NewFromInt(100), []AllocationCandidate{a, b})
	assert.Error(t, err)
}

func TestManualAllocateDropsZeroLines(t *testing.T) {
	a := candidate("AP-1", 100, day(0))
	b := candidate("AP-2", 50, day(1))

	strategy := NewManualAllocationStrategy([]ManualSplit{
		{PayableID: a.PayableID, Amount: decimal.NewFromInt(100)},
		{PayableID: b.PayableID, Amount: decimal.Zero},
	})

	plan, err := strategy.Allocate(decimal.NewFromInt(100), []AllocationCandidate{a, b})
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, a.PayableID, plan.Allocations[0].PayableID)
}

func TestManualAllocateDuplicateTargetRejected(t *testing.T) {
	a := candidate("AP-1", 100, day(0))

	strategy := NewManualAllocationStrategy([]ManualSplit{
		{PayableID: a.PayableID, Amount: decimal.NewFromInt(50)},
		{PayableID: a.PayableID, Amount: decimal.NewFromInt(50)},
	})

	_, err := strategy.Allocate(decimal.NewFromInt(100), []AllocationCandidate{a})
	assert.Error(t, err)
}

func TestNewAllocationStrategy(t *testing.T) {
	s, err := NewAllocationStrategy(AllocationMethodFIFO, nil)
	require.NoError(t, err)
	assert.Equal(t, AllocationMethodFIFO, s.Method())

	_, err = NewAllocationStrategy(AllocationMethodManual, nil)
	assert.Error(t, err, "manual without splits is invalid")

	s, err = NewAllocationStrategy(AllocationMethodManual, []ManualSplit{{PayableID: uuid.New(), Amount: decimal.NewFromInt(1)}})
	require.NoError(t, err)
	assert.Equal(t, AllocationMethodManual, s.Method())

	_, err = NewAllocationStrategy("ROUND_ROBIN", nil)
	assert.Error(t, err)
}
