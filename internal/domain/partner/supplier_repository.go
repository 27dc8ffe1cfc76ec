package partner

import (
	"context"

	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SupplierRepository defines the persistence contract for suppliers
type SupplierRepository interface {
	Save(ctx context.Context, supplier *Supplier) error
	// FindByID and FindByName return the supplier, or nil when none
	// exists
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	FindByName(ctx context.Context, name string) (*Supplier, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Supplier, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
