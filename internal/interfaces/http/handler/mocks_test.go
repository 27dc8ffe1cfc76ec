package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/partner"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/amas/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer wires a handler into a fresh engine the same way the
// server does, under /api/v1
func newTestServer(registrars ...router.RouteRegistrar) *gin.Engine {
	engine := gin.New()
	r := router.NewRouter(engine)
	for _, registrar := range registrars {
		r.Register(registrar)
	}
	r.Setup()
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func testSupplier(t *testing.T, name string) *partner.Supplier {
	t.Helper()
	s, err := partner.NewSupplier(name)
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

// fakeTxManager runs the unit of work directly, without a database
type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// nopPublisher discards published events
type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return nil
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
