package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayable(t *testing.T) {
	sourceID := uuid.New()
	p, err := NewPayable("AP-20260830-00001", uuid.New(), "Al-Hikma Pharma",
		PayableSourceTypePurchaseOrder, &sourceID, "PO-1",
		decimal.NewFromInt(500), day(0), nil)
	require.NoError(t, err)

	assert.Equal(t, PayableStatusPending, p.Status)
	assert.True(t, p.Outstanding().Equal(decimal.NewFromInt(500)))
	assert.False(t, p.IsSettled())
	assert.Len(t, p.GetDomainEvents(), 1)
}

func TestNewPayableValidation(t *testing.T) {
	sourceID := uuid.New()

	_, err := NewPayable("", uuid.New(), "s", PayableSourceTypeManual, nil, "", decimal.NewFromInt(1), day(0), nil)
	assert.Error(t, err)

	_, err = NewPayable("AP-1", uuid.Nil, "s", PayableSourceTypeManual, nil, "", decimal.NewFromInt(1), day(0), nil)
	assert.Error(t, err)

	_, err = NewPayable("AP-1", uuid.New(), "s", PayableSourceTypeManual, nil, "", decimal.Zero, day(0), nil)
	assert.Error(t, err)

	_, err = NewPayable("AP-1", uuid.New(), "s", PayableSourceTypePurchaseOrder, nil, "", decimal.NewFromInt(1), day(0), nil)
	assert.Error(t, err, "purchase order payables need a source")

	_, err = NewPayable("AP-1", uuid.New(), "s", PayableSourceTypePurchaseOrder, &sourceID, "PO-1", decimal.NewFromInt(1), day(0), nil)
	assert.NoError(t, err)
}

func TestPayableApplyPayment(t *testing.T) {
	p := newTestPayable(t, "AP-1", 100, day(0))

	require.NoError(t, p.ApplyPayment(decimal.NewFromInt(40)))
	assert.Equal(t, PayableStatusPartial, p.Status)
	assert.True(t, p.Outstanding().Equal(decimal.NewFromInt(60)))

	require.NoError(t, p.ApplyPayment(decimal.NewFromInt(60)))
	assert.Equal(t, PayableStatusPaid, p.Status)
	assert.True(t, p.Outstanding().IsZero())
	require.NotNil(t, p.PaidAt)

	assert.Error(t, p.ApplyPayment(decimal.NewFromInt(1)), "settled payables reject further payments")
}

func TestPayableApplyPaymentWithinTolerance(t *testing.T) {
	p := newTestPayable(t, "AP-1", 100, day(0))

	// 99.995 leaves 0.005 outstanding, inside the settlement tolerance
	require.NoError(t, p.ApplyPayment(decimal.NewFromFloat(99.995)))
	assert.Equal(t, PayableStatusPaid, p.Status)
	assert.True(t, p.IsSettled())
}

func TestPayableApplyPaymentValidation(t *testing.T) {
	p := newTestPayable(t, "AP-1", 100, day(0))

	assert.Error(t, p.ApplyPayment(decimal.Zero))
	assert.Error(t, p.ApplyPayment(decimal.NewFromInt(-5)))
	assert.Error(t, p.ApplyPayment(decimal.NewFromFloat(100.02)), "beyond outstanding plus tolerance")
	assert.NoError(t, p.ApplyPayment(decimal.NewFromFloat(100.005)), "inside tolerance")
}

func TestPayableApplyPaymentBumpsVersion(t *testing.T) {
	p := newTestPayable(t, "AP-1", 100, day(0))
	v := p.Version

	require.NoError(t, p.ApplyPayment(decimal.NewFromInt(10)))
	assert.Equal(t, v+1, p.Version)
}

func TestPayableReversePayment(t *testing.T) {
	p := newTestPayable(t, "AP-1", 100, day(0))
	require.NoError(t, p.ApplyPayment(decimal.NewFromInt(100)))
	require.Equal(t, PayableStatusPaid, p.Status)

	require.NoError(t, p.ReversePayment(decimal.NewFromInt(40)))
	assert.Equal(t, PayableStatusPartial, p.Status)
	assert.True(t, p.Outstanding().Equal(decimal.NewFromInt(40)))
	assert.Nil(t, p.PaidAt)

	require.NoError(t, p.ReversePayment(decimal.NewFromInt(60)))
	assert.Equal(t, PayableStatusPending, p.Status)

	assert.Error(t, p.ReversePayment(decimal.NewFromInt(1)), "nothing left to reverse")
}

func TestPayableCancel(t *testing.T) {
	p := newTestPayable(t, "AP-1", 100, day(0))
	require.NoError(t, p.Cancel("entered in error"))
	assert.Equal(t, PayableStatusCancelled, p.Status)
	assert.Error(t, p.Cancel("again"))

	paid := newTestPayable(t, "AP-2", 100, day(0))
	require.NoError(t, paid.ApplyPayment(decimal.NewFromInt(10)))
	assert.Error(t, paid.Cancel("x"), "cannot cancel once payments applied")
}

func TestPayableIsOverdue(t *testing.T) {
	now := time.Now()
	p := newTestPayable(t, "AP-1", 100, now.AddDate(0, 0, -45))

	assert.True(t, p.IsOverdue(30*24*time.Hour, now))
	assert.False(t, p.IsOverdue(60*24*time.Hour, now))

	require.NoError(t, p.ApplyPayment(decimal.NewFromInt(100)))
	assert.False(t, p.IsOverdue(30*24*time.Hour, now), "settled payables are never overdue")
}
