package purchase

import (
	"context"

	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository defines the persistence contract for purchase orders
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	SaveWithLock(ctx context.Context, order *Order) error
	// FindByID returns the order, or nil when none exists
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error)
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, int64, error)
	GenerateOrderNumber(ctx context.Context) (string, error)
}

// ReturnRepository defines the persistence contract for supplier returns
type ReturnRepository interface {
	Save(ctx context.Context, ret *SupplierReturn) error
	SaveWithLock(ctx context.Context, ret *SupplierReturn) error
	// FindByID returns the return, or nil when none exists
	FindByID(ctx context.Context, id uuid.UUID) (*SupplierReturn, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]SupplierReturn, int64, error)
	GenerateReturnNumber(ctx context.Context) (string, error)
}
