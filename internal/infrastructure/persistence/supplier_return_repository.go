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

// GormReturnRepository implements purchase.ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// Save creates a return together with its lines
func (r *GormReturnRepository) Save(ctx context.Context, ret *purchase.SupplierReturn) error {
	model := models.SupplierReturnModelFromDomain(ret)
	return session(ctx, r.db).Create(model).Error
}

// SaveWithLock updates a return with an optimistic version check.
// Lines are fixed at creation and not touched.
func (r *GormReturnRepository) SaveWithLock(ctx context.Context, ret *purchase.SupplierReturn) error {
	model := models.SupplierReturnModelFromDomain(ret)
	result := session(ctx, r.db).
		Model(model).
		Select("*").
		Omit("Lines").
		Where("id = ? AND version = ?", ret.ID, ret.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a return by its ID. A miss returns nil without an
// error.
func (r *GormReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchase.SupplierReturn, error) {
	var model models.SupplierReturnModel
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

// FindAll returns supplier returns with paging
func (r *GormReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]purchase.SupplierReturn, int64, error) {
	query := session(ctx, r.db).Model(&models.SupplierReturnModel{})
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(return_number) LIKE ? OR LOWER(supplier_name) LIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var returnModels []models.SupplierReturnModel
	if err := applyPaging(query, filter).
		Preload("Lines").
		Find(&returnModels).Error; err != nil {
		return nil, 0, err
	}

	returns := make([]purchase.SupplierReturn, len(returnModels))
	for i := range returnModels {
		returns[i] = *returnModels[i].ToDomain()
	}
	return returns, total, nil
}

// GenerateReturnNumber generates the next return number, format
// SR-YYYYMMDD-XXXXX
func (r *GormReturnRepository) GenerateReturnNumber(ctx context.Context) (string, error) {
	return generateNumber(session(ctx, r.db), &models.SupplierReturnModel{}, "return_number", "SR")
}

var _ purchase.ReturnRepository = (*GormReturnRepository)(nil)
