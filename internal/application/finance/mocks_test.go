package finance

import (
	"context"
	"time"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/partner"
	"github.com/amas/backend/internal/domain/purchase"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockPayableRepository is a mock implementation of finance.PayableRepository
type MockPayableRepository struct {
	mock.Mock
}

func (m *MockPayableRepository) Save(ctx context.Context, payable *finance.Payable) error {
	args := m.Called(ctx, payable)
	return args.Error(0)
}

func (m *MockPayableRepository) SaveWithLock(ctx context.Context, payable *finance.Payable) error {
	args := m.Called(ctx, payable)
	return args.Error(0)
}

func (m *MockPayableRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payable, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payable), args.Error(1)
}

func (m *MockPayableRepository) FindOutstandingBySupplier(ctx context.Context, supplierID uuid.UUID, lock bool) ([]finance.Payable, error) {
	args := m.Called(ctx, supplierID, lock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Payable), args.Error(1)
}

func (m *MockPayableRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]finance.Payable, int64, error) {
	args := m.Called(ctx, supplierID, filter)
	return args.Get(0).([]finance.Payable), args.Get(1).(int64), args.Error(2)
}

func (m *MockPayableRepository) FindBySource(ctx context.Context, sourceType finance.PayableSourceType, sourceID uuid.UUID) (*finance.Payable, error) {
	args := m.Called(ctx, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payable), args.Error(1)
}

func (m *MockPayableRepository) ExistsBySource(ctx context.Context, sourceType finance.PayableSourceType, sourceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sourceType, sourceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayableRepository) FindOverdue(ctx context.Context, olderThan time.Time) ([]finance.Payable, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Payable), args.Error(1)
}

func (m *MockPayableRepository) SumOutstandingBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, supplierID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPayableRepository) DebtSummaries(ctx context.Context) ([]finance.SupplierDebtSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.SupplierDebtSummary), args.Error(1)
}

func (m *MockPayableRepository) GeneratePayableNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockSupplierPaymentRepository is a mock implementation of finance.SupplierPaymentRepository
type MockSupplierPaymentRepository struct {
	mock.Mock
}

func (m *MockSupplierPaymentRepository) Save(ctx context.Context, payment *finance.SupplierPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockSupplierPaymentRepository) SaveWithLock(ctx context.Context, payment *finance.SupplierPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockSupplierPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.SupplierPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.SupplierPayment), args.Error(1)
}

func (m *MockSupplierPaymentRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]finance.SupplierPayment, int64, error) {
	args := m.Called(ctx, supplierID, filter)
	return args.Get(0).([]finance.SupplierPayment), args.Get(1).(int64), args.Error(2)
}

func (m *MockSupplierPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.SupplierPayment, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.SupplierPayment), args.Get(1).(int64), args.Error(2)
}

func (m *MockSupplierPaymentRepository) ExistsReturnCredit(ctx context.Context, returnID uuid.UUID) (bool, error) {
	args := m.Called(ctx, returnID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSupplierPaymentRepository) GeneratePaymentNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockSupplierRepository is a mock implementation of partner.SupplierRepository
type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByName(ctx context.Context, name string) (*partner.Supplier, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Supplier, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Supplier), args.Get(1).(int64), args.Error(2)
}

func (m *MockSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReturnRepository is a mock implementation of purchase.ReturnRepository
type MockReturnRepository struct {
	mock.Mock
}

func (m *MockReturnRepository) Save(ctx context.Context, ret *purchase.SupplierReturn) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *MockReturnRepository) SaveWithLock(ctx context.Context, ret *purchase.SupplierReturn) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *MockReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchase.SupplierReturn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchase.SupplierReturn), args.Error(1)
}

func (m *MockReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]purchase.SupplierReturn, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]purchase.SupplierReturn), args.Get(1).(int64), args.Error(2)
}

func (m *MockReturnRepository) GenerateReturnNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// fakeTxManager runs the unit of work directly, without a database
type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeIdempotencyStore keeps processed keys in a map
type fakeIdempotencyStore struct {
	values map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: make(map[string]string)}
}

func (s *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *fakeIdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.values[key] = value
	return nil
}

// capturingPublisher records every published event
type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}
