package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amas/backend/internal/domain/purchase"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/amas/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements purchase.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save creates an order together with its lines
func (r *GormOrderRepository) Save(ctx context.Context, order *purchase.Order) error {
	model := models.PurchaseOrderModelFromDomain(order)
	return session(ctx, r.db).Create(model).Error
}

// SaveWithLock updates an order with an optimistic version check.
// Lines are fixed at creation and not touched.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *purchase.Order) error {
	model := models.PurchaseOrderModelFromDomain(order)
	result := session(ctx, r.db).
		Model(model).
		Select("*").
		Omit("Lines").
		Where("id = ? AND version = ?", order.ID, order.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds an order by its ID. A miss returns nil without an
// error.
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchase.Order, error) {
	var model models.PurchaseOrderModel
	if err := session(ctx, r.db).
		Preload("Lines").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the orders matching the given IDs. Missing IDs are
// simply absent from the result.
func (r *GormOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]purchase.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var orderModels []models.PurchaseOrderModel
	if err := session(ctx, r.db).
		Preload("Lines").
		Where("id IN ?", ids).
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// FindBySupplier returns the supplier's orders with paging
func (r *GormOrderRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]purchase.Order, int64, error) {
	query := session(ctx, r.db).
		Model(&models.PurchaseOrderModel{}).
		Where("supplier_id = ?", supplierID)
	return r.findOrders(query, filter)
}

// FindAll returns all orders with paging
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]purchase.Order, int64, error) {
	query := session(ctx, r.db).Model(&models.PurchaseOrderModel{})
	return r.findOrders(query, filter)
}

func (r *GormOrderRepository) findOrders(query *gorm.DB, filter shared.Filter) ([]purchase.Order, int64, error) {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(supplier_name) LIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orderModels []models.PurchaseOrderModel
	if err := applyPaging(query, filter).
		Preload("Lines").
		Find(&orderModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainOrders(orderModels), total, nil
}

// GenerateOrderNumber generates the next order number, format
// PO-YYYYMMDD-XXXXX
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	return generateNumber(session(ctx, r.db), &models.PurchaseOrderModel{}, "order_number", "PO")
}

func toDomainOrders(orderModels []models.PurchaseOrderModel) []purchase.Order {
	orders := make([]purchase.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders
}

var _ purchase.OrderRepository = (*GormOrderRepository)(nil)
