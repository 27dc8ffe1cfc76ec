package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/amas/backend/internal/infrastructure/persistence/models"
)

// GormSupplierPaymentRepository implements finance.SupplierPaymentRepository
// using GORM
type GormSupplierPaymentRepository struct {
	db *gorm.DB
}

// NewGormSupplierPaymentRepository creates a new GormSupplierPaymentRepository
func NewGormSupplierPaymentRepository(db *gorm.DB) *GormSupplierPaymentRepository {
	return &GormSupplierPaymentRepository{db: db}
}

// Save creates a payment together with its allocations
func (r *GormSupplierPaymentRepository) Save(ctx context.Context, payment *finance.SupplierPayment) error {
	model := models.SupplierPaymentModelFromDomain(payment)
	return session(ctx, r.db).Create(model).Error
}

// SaveWithLock updates a payment with an optimistic version check.
// Allocations are immutable and not touched.
func (r *GormSupplierPaymentRepository) SaveWithLock(ctx context.Context, payment *finance.SupplierPayment) error {
	model := models.SupplierPaymentModelFromDomain(payment)
	result := session(ctx, r.db).
		Model(model).
		Select("*").
		Omit("Allocations").
		Where("id = ? AND version = ?", payment.ID, payment.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a payment by its ID. A miss returns nil without an
// error.
func (r *GormSupplierPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.SupplierPayment, error) {
	var model models.SupplierPaymentModel
	if err := session(ctx, r.db).
		Preload("Allocations").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySupplier returns the supplier's payments with paging
func (r *GormSupplierPaymentRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]finance.SupplierPayment, int64, error) {
	query := session(ctx, r.db).
		Model(&models.SupplierPaymentModel{}).
		Where("supplier_id = ?", supplierID)
	return r.findPayments(query, filter)
}

// FindAll returns all payments with paging
func (r *GormSupplierPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.SupplierPayment, int64, error) {
	query := session(ctx, r.db).Model(&models.SupplierPaymentModel{})
	return r.findPayments(query, filter)
}

func (r *GormSupplierPaymentRepository) findPayments(query *gorm.DB, filter shared.Filter) ([]finance.SupplierPayment, int64, error) {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(payment_number) LIKE ? OR LOWER(reference) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var paymentModels []models.SupplierPaymentModel
	if err := applyPaging(query, filter).
		Preload("Allocations").
		Find(&paymentModels).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]finance.SupplierPayment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, total, nil
}

// ExistsReturnCredit reports whether a return-credit payment was already
// created for the given return. Return-credit payments carry the return
// number as their reference.
func (r *GormSupplierPaymentRepository) ExistsReturnCredit(ctx context.Context, returnID uuid.UUID) (bool, error) {
	var count int64
	if err := session(ctx, r.db).
		Model(&models.SupplierPaymentModel{}).
		Joins("JOIN supplier_returns ON supplier_returns.return_number = supplier_payments.reference").
		Where("supplier_payments.method = ? AND supplier_returns.id = ?", finance.PaymentMethodReturnCredit, returnID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GeneratePaymentNumber generates the next payment number, format
// PAY-YYYYMMDD-XXXXX
func (r *GormSupplierPaymentRepository) GeneratePaymentNumber(ctx context.Context) (string, error) {
	return generateNumber(session(ctx, r.db), &models.SupplierPaymentModel{}, "payment_number", "PAY")
}

var _ finance.SupplierPaymentRepository = (*GormSupplierPaymentRepository)(nil)
