package finance

import (
	"context"
	"testing"
	"time"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSupplier(t *testing.T) *partner.Supplier {
	t.Helper()
	s, err := partner.NewSupplier("Al-Hikma Pharma")
	require.NoError(t, err)
	s.ClearDomainEvents()
	return s
}

func testPayable(t *testing.T, supplierID uuid.UUID, number string, amount float64, obligationDate time.Time) finance.Payable {
	t.Helper()
	p, err := finance.NewPayable(number, supplierID, "Al-Hikma Pharma",
		finance.PayableSourceTypeManual, nil, "",
		decimal.NewFromFloat(amount), obligationDate, nil)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return *p
}

func newPaymentService(
	payableRepo *MockPayableRepository,
	paymentRepo *MockSupplierPaymentRepository,
	supplierRepo *MockSupplierRepository,
	idempotency *fakeIdempotencyStore,
) (*PaymentService, *capturingPublisher) {
	publisher := &capturingPublisher{}
	svc := NewPaymentService(
		payableRepo, paymentRepo, supplierRepo,
		finance.NewSettlementService(),
		fakeTxManager{}, publisher, idempotency,
		zap.NewNop(),
	)
	return svc, publisher
}

func TestRecordPaymentFIFOSpansObligations(t *testing.T) {
	supplier := testSupplier(t)
	older := testPayable(t, supplier.ID, "AP-1", 100, time.Now().AddDate(0, 0, -10))
	newer := testPayable(t, supplier.ID, "AP-2", 50, time.Now().AddDate(0, 0, -5))

	payableRepo := new(MockPayableRepository)
	paymentRepo := new(MockSupplierPaymentRepository)
	supplierRepo := new(MockSupplierRepository)

	supplierRepo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
	payableRepo.On("FindOutstandingBySupplier", mock.Anything, supplier.ID, true).
		Return([]finance.Payable{older, newer}, nil)
	paymentRepo.On("GeneratePaymentNumber", mock.Anything).Return("PAY-20260830-00001", nil)
	paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*finance.SupplierPayment")).Return(nil)
	payableRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*finance.Payable")).Return(nil)

	svc, publisher := newPaymentService(payableRepo, paymentRepo, supplierRepo, nil)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		SupplierID:       supplier.ID,
		Amount:           decimal.NewFromInt(120),
		Method:           finance.PaymentMethodCash,
		AllocationMethod: finance.AllocationMethodFIFO,
	})
	require.NoError(t, err)

	require.Len(t, result.Allocations, 2)
	assert.Equal(t, "AP-1", result.Allocations[0].PayableNumber)
	assert.True(t, result.Allocations[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, finance.AllocationStatusFull, result.Allocations[0].Status)
	assert.Equal(t, "AP-2", result.Allocations[1].PayableNumber)
	assert.True(t, result.Allocations[1].Amount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, finance.AllocationStatusPartial, result.Allocations[1].Status)
	assert.True(t, result.Unallocated.IsZero())

	payableRepo.AssertNumberOfCalls(t, "SaveWithLock", 2)
	paymentRepo.AssertCalled(t, "Save", mock.Anything, mock.Anything)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, finance.EventTypePaymentAllocated, publisher.events[0].EventType())
}

func TestRecordPaymentReportsRemainder(t *testing.T) {
	supplier := testSupplier(t)
	only := testPayable(t, supplier.ID, "AP-1", 30, time.Now().AddDate(0, 0, -3))

	payableRepo := new(MockPayableRepository)
	paymentRepo := new(MockSupplierPaymentRepository)
	supplierRepo := new(MockSupplierRepository)

	supplierRepo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
	payableRepo.On("FindOutstandingBySupplier", mock.Anything, supplier.ID, true).
		Return([]finance.Payable{only}, nil)
	paymentRepo.On("GeneratePaymentNumber", mock.Anything).Return("PAY-20260830-00002", nil)
	paymentRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	payableRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

	svc, _ := newPaymentService(payableRepo, paymentRepo, supplierRepo, nil)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		SupplierID:       supplier.ID,
		Amount:           decimal.NewFromInt(50),
		Method:           finance.PaymentMethodTransfer,
		AllocationMethod: finance.AllocationMethodFIFO,
	})
	require.NoError(t, err)

	require.Len(t, result.Allocations, 1)
	assert.True(t, result.Allocations[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, finance.AllocationStatusFull, result.Allocations[0].Status)
	assert.True(t, result.Unallocated.Equal(decimal.NewFromInt(20)), "leftover is reported, not dropped")
}

func TestRecordPaymentManualSplit(t *testing.T) {
	supplier := testSupplier(t)
	a := testPayable(t, supplier.ID, "AP-1", 100, time.Now().AddDate(0, 0, -10))
	b := testPayable(t, supplier.ID, "AP-2", 50, time.Now().AddDate(0, 0, -5))

	payableRepo := new(MockPayableRepository)
	paymentRepo := new(MockSupplierPaymentRepository)
	supplierRepo := new(MockSupplierRepository)

	supplierRepo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
	payableRepo.On("FindOutstandingBySupplier", mock.Anything, supplier.ID, true).
		Return([]finance.Payable{a, b}, nil)
	paymentRepo.On("GeneratePaymentNumber", mock.Anything).Return("PAY-20260830-00003", nil)
	paymentRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	payableRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

	svc, _ := newPaymentService(payableRepo, paymentRepo, supplierRepo, nil)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		SupplierID:       supplier.ID,
		Amount:           decimal.NewFromInt(60),
		Method:           finance.PaymentMethodCash,
		AllocationMethod: finance.AllocationMethodManual,
		Splits: []finance.ManualSplit{
			{PayableID: a.ID, Amount: decimal.NewFromInt(10)},
			{PayableID: b.ID, Amount: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Allocations, 2)
	assert.True(t, result.TotalAllocated.Equal(decimal.NewFromInt(60)))
}

func TestRecordPaymentManualSplitMismatchRejected(t *testing.T) {
	supplier := testSupplier(t)
	a := testPayable(t, supplier.ID, "AP-1", 100, time.Now())

	payableRepo := new(MockPayableRepository)
	paymentRepo := new(MockSupplierPaymentRepository)
	supplierRepo := new(MockSupplierRepository)

	supplierRepo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
	payableRepo.On("FindOutstandingBySupplier", mock.Anything, supplier.ID, true).
		Return([]finance.Payable{a}, nil)

	svc, _ := newPaymentService(payableRepo, paymentRepo, supplierRepo, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		SupplierID:       supplier.ID,
		Amount:           decimal.NewFromInt(60),
		Method:           finance.PaymentMethodCash,
		AllocationMethod: finance.AllocationMethodManual,
		Splits: []finance.ManualSplit{
			{PayableID: a.ID, Amount: decimal.NewFromInt(40)},
		},
	})
	require.Error(t, err)
	paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	payableRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestRecordPaymentValidation(t *testing.T) {
	svc, _ := newPaymentService(new(MockPayableRepository), new(MockSupplierPaymentRepository), new(MockSupplierRepository), nil)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		SupplierID: uuid.Nil, Amount: decimal.NewFromInt(10),
		Method: finance.PaymentMethodCash, AllocationMethod: finance.AllocationMethodFIFO,
	})
	assert.Error(t, err)

	_, err = svc.RecordPayment(ctx, RecordPaymentRequest{
		SupplierID: uuid.New(), Amount: decimal.Zero,
		Method: finance.PaymentMethodCash, AllocationMethod: finance.AllocationMethodFIFO,
	})
	assert.Error(t, err)

	_, err = svc.RecordPayment(ctx, RecordPaymentRequest{
		SupplierID: uuid.New(), Amount: decimal.NewFromInt(10),
		Method: finance.PaymentMethodReturnCredit, AllocationMethod: finance.AllocationMethodFIFO,
	})
	assert.Error(t, err, "return credits come from return approval only")

	_, err = svc.RecordPayment(ctx, RecordPaymentRequest{
		SupplierID: uuid.New(), Amount: decimal.NewFromInt(10),
		Method: finance.PaymentMethodCash, AllocationMethod: finance.AllocationMethodManual,
	})
	assert.Error(t, err, "manual allocation needs split lines")
}

func TestRecordPaymentSupplierNotFound(t *testing.T) {
	supplierRepo := new(MockSupplierRepository)
	supplierRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

	svc, _ := newPaymentService(new(MockPayableRepository), new(MockSupplierPaymentRepository), supplierRepo, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		SupplierID:       uuid.New(),
		Amount:           decimal.NewFromInt(10),
		Method:           finance.PaymentMethodCash,
		AllocationMethod: finance.AllocationMethodFIFO,
	})
	assert.Error(t, err)
}

func TestRecordPaymentIdempotentRetry(t *testing.T) {
	supplier := testSupplier(t)

	original, err := finance.NewSupplierPayment("PAY-20260830-00007", supplier.ID, supplier.Name,
		decimal.NewFromInt(120), finance.PaymentMethodCash, "", time.Now())
	require.NoError(t, err)

	store := newFakeIdempotencyStore()
	store.values["retry-key"] = original.ID.String()

	payableRepo := new(MockPayableRepository)
	paymentRepo := new(MockSupplierPaymentRepository)
	supplierRepo := new(MockSupplierRepository)

	supplierRepo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
	paymentRepo.On("FindByID", mock.Anything, original.ID).Return(original, nil)

	svc, _ := newPaymentService(payableRepo, paymentRepo, supplierRepo, store)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		SupplierID:       supplier.ID,
		Amount:           decimal.NewFromInt(120),
		Method:           finance.PaymentMethodCash,
		AllocationMethod: finance.AllocationMethodFIFO,
		IdempotencyKey:   "retry-key",
	})
	require.NoError(t, err)

	assert.Equal(t, original.ID, result.PaymentID)
	assert.Equal(t, "PAY-20260830-00007", result.PaymentNumber)
	payableRepo.AssertNotCalled(t, "FindOutstandingBySupplier", mock.Anything, mock.Anything, mock.Anything)
	paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRecordPaymentStaleIdempotencyKey(t *testing.T) {
	supplier := testSupplier(t)
	open := testPayable(t, supplier.ID, "AP-1", 100, time.Now().AddDate(0, 0, -10))

	// the key points at a payment that no longer exists
	store := newFakeIdempotencyStore()
	staleID := uuid.New()
	store.values["retry-key"] = staleID.String()

	payableRepo := new(MockPayableRepository)
	paymentRepo := new(MockSupplierPaymentRepository)
	supplierRepo := new(MockSupplierRepository)

	supplierRepo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
	paymentRepo.On("FindByID", mock.Anything, staleID).Return(nil, nil)
	payableRepo.On("FindOutstandingBySupplier", mock.Anything, supplier.ID, true).
		Return([]finance.Payable{open}, nil)
	paymentRepo.On("GeneratePaymentNumber", mock.Anything).Return("PAY-20260830-00008", nil)
	paymentRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	payableRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

	svc, _ := newPaymentService(payableRepo, paymentRepo, supplierRepo, store)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		SupplierID:       supplier.ID,
		Amount:           decimal.NewFromInt(40),
		Method:           finance.PaymentMethodCash,
		AllocationMethod: finance.AllocationMethodFIFO,
		IdempotencyKey:   "retry-key",
	})
	require.NoError(t, err, "a stale key is treated as a fresh request")

	assert.Equal(t, "PAY-20260830-00008", result.PaymentNumber)
	paymentRepo.AssertCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestVoidPaymentReversesAllocations(t *testing.T) {
	supplier := testSupplier(t)
	paid := testPayable(t, supplier.ID, "AP-1", 100, time.Now().AddDate(0, 0, -10))
	require.NoError(t, paid.ApplyPayment(decimal.NewFromInt(100)))

	payment, err := finance.NewSupplierPayment("PAY-1", supplier.ID, supplier.Name,
		decimal.NewFromInt(100), finance.PaymentMethodCash, "", time.Now())
	require.NoError(t, err)
	require.NoError(t, payment.AddAllocation(paid.ID, "AP-1", decimal.NewFromInt(100), finance.AllocationStatusFull, nil))

	payableRepo := new(MockPayableRepository)
	paymentRepo := new(MockSupplierPaymentRepository)

	paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
	payableRepo.On("FindByID", mock.Anything, paid.ID).Return(&paid, nil)
	payableRepo.On("SaveWithLock", mock.Anything, &paid).Return(nil)
	paymentRepo.On("SaveWithLock", mock.Anything, payment).Return(nil)

	svc, publisher := newPaymentService(payableRepo, paymentRepo, new(MockSupplierRepository), nil)

	require.NoError(t, svc.VoidPayment(context.Background(), payment.ID, "entered twice"))

	assert.Equal(t, finance.PaymentStatusVoided, payment.Status)
	assert.Equal(t, finance.PayableStatusPending, paid.Status)
	assert.True(t, paid.Outstanding().Equal(decimal.NewFromInt(100)))

	require.Len(t, publisher.events, 1)
	assert.Equal(t, finance.EventTypePaymentVoided, publisher.events[0].EventType())
}

func TestPreviewAllocationPersistsNothing(t *testing.T) {
	supplier := testSupplier(t)
	a := testPayable(t, supplier.ID, "AP-1", 100, time.Now().AddDate(0, 0, -10))
	b := testPayable(t, supplier.ID, "AP-2", 50, time.Now().AddDate(0, 0, -5))

	payableRepo := new(MockPayableRepository)
	paymentRepo := new(MockSupplierPaymentRepository)

	payableRepo.On("FindOutstandingBySupplier", mock.Anything, supplier.ID, false).
		Return([]finance.Payable{a, b}, nil)

	svc, _ := newPaymentService(payableRepo, paymentRepo, new(MockSupplierRepository), nil)

	plan, err := svc.PreviewAllocation(context.Background(), PreviewRequest{
		SupplierID:       supplier.ID,
		Amount:           decimal.NewFromInt(120),
		AllocationMethod: finance.AllocationMethodFIFO,
	})
	require.NoError(t, err)

	require.Len(t, plan.Allocations, 2)
	assert.True(t, plan.TotalAllocated.Equal(decimal.NewFromInt(120)))
	paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	payableRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	assert.True(t, a.Outstanding().Equal(decimal.NewFromInt(100)), "preview leaves balances untouched")
}
