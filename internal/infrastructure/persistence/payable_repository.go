package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/amas/backend/internal/infrastructure/persistence/models"
)

// openPayableStatuses are the statuses that still carry an unpaid balance
var openPayableStatuses = []finance.PayableStatus{
	finance.PayableStatusPending,
	finance.PayableStatusPartial,
}

// GormPayableRepository implements finance.PayableRepository using GORM
type GormPayableRepository struct {
	db *gorm.DB
}

// NewGormPayableRepository creates a new GormPayableRepository
func NewGormPayableRepository(db *gorm.DB) *GormPayableRepository {
	return &GormPayableRepository{db: db}
}

// Save creates or updates a payable
func (r *GormPayableRepository) Save(ctx context.Context, payable *finance.Payable) error {
	model := models.PayableModelFromDomain(payable)
	return session(ctx, r.db).Save(model).Error
}

// SaveWithLock persists a payable with an optimistic version check
func (r *GormPayableRepository) SaveWithLock(ctx context.Context, payable *finance.Payable) error {
	model := models.PayableModelFromDomain(payable)
	result := session(ctx, r.db).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", payable.ID, payable.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a payable by its ID. A miss returns nil without an error.
func (r *GormPayableRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payable, error) {
	var model models.PayableModel
	if err := session(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOutstandingBySupplier returns the supplier's open payables ordered
// oldest obligation first. With lock=true the rows are locked for update
// so balances cannot move while a settlement runs.
func (r *GormPayableRepository) FindOutstandingBySupplier(ctx context.Context, supplierID uuid.UUID, lock bool) ([]finance.Payable, error) {
	query := session(ctx, r.db).
		Where("supplier_id = ? AND status IN ?", supplierID, openPayableStatuses).
		Order("obligation_date ASC, created_at ASC")
	// SQLite has no row locks; the optimistic version check on save
	// still fences concurrent updates there.
	if lock && query.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var payableModels []models.PayableModel
	if err := query.Find(&payableModels).Error; err != nil {
		return nil, err
	}
	return toDomainPayables(payableModels), nil
}

// FindBySupplier returns the supplier's payables with paging
func (r *GormPayableRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]finance.Payable, int64, error) {
	query := session(ctx, r.db).
		Model(&models.PayableModel{}).
		Where("supplier_id = ?", supplierID)
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(payable_number) LIKE ? OR LOWER(source_number) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payableModels []models.PayableModel
	if err := applyPaging(query, filter).Find(&payableModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainPayables(payableModels), total, nil
}

// FindBySource finds the payable created by a source document. A miss
// returns nil without an error.
func (r *GormPayableRepository) FindBySource(ctx context.Context, sourceType finance.PayableSourceType, sourceID uuid.UUID) (*finance.Payable, error) {
	var model models.PayableModel
	if err := session(ctx, r.db).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsBySource reports whether a payable exists for the given source
func (r *GormPayableRepository) ExistsBySource(ctx context.Context, sourceType finance.PayableSourceType, sourceID uuid.UUID) (bool, error) {
	var count int64
	if err := session(ctx, r.db).
		Model(&models.PayableModel{}).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindOverdue returns open payables whose obligation date is before the cutoff
func (r *GormPayableRepository) FindOverdue(ctx context.Context, olderThan time.Time) ([]finance.Payable, error) {
	var payableModels []models.PayableModel
	if err := session(ctx, r.db).
		Where("obligation_date < ? AND status IN ?", olderThan, openPayableStatuses).
		Order("obligation_date ASC").
		Find(&payableModels).Error; err != nil {
		return nil, err
	}
	return toDomainPayables(payableModels), nil
}

// SumOutstandingBySupplier totals the supplier's unpaid balance
func (r *GormPayableRepository) SumOutstandingBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := session(ctx, r.db).
		Model(&models.PayableModel{}).
		Select("COALESCE(SUM(amount - paid_amount), 0) as total").
		Where("supplier_id = ? AND status IN ?", supplierID, openPayableStatuses).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// DebtSummaries aggregates the outstanding position per supplier,
// largest debt first
func (r *GormPayableRepository) DebtSummaries(ctx context.Context) ([]finance.SupplierDebtSummary, error) {
	var rows []struct {
		SupplierID       uuid.UUID
		SupplierName     string
		TotalPayable     decimal.Decimal
		TotalPaid        decimal.Decimal
		Outstanding      decimal.Decimal
		OpenPayables     int
		OldestObligation *time.Time
	}
	if err := session(ctx, r.db).
		Model(&models.PayableModel{}).
		Select(`supplier_id,
			supplier_name,
			COALESCE(SUM(amount), 0) as total_payable,
			COALESCE(SUM(paid_amount), 0) as total_paid,
			COALESCE(SUM(amount - paid_amount), 0) as outstanding,
			COUNT(*) as open_payables,
			MIN(obligation_date) as oldest_obligation`).
		Where("status IN ?", openPayableStatuses).
		Group("supplier_id, supplier_name").
		Order("outstanding DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	summaries := make([]finance.SupplierDebtSummary, len(rows))
	for i, row := range rows {
		summaries[i] = finance.SupplierDebtSummary{
			SupplierID:       row.SupplierID,
			SupplierName:     row.SupplierName,
			TotalPayable:     row.TotalPayable,
			TotalPaid:        row.TotalPaid,
			Outstanding:      row.Outstanding,
			OpenPayables:     row.OpenPayables,
			OldestObligation: row.OldestObligation,
		}
	}
	return summaries, nil
}

// GeneratePayableNumber generates the next payable number, format
// AP-YYYYMMDD-XXXXX
func (r *GormPayableRepository) GeneratePayableNumber(ctx context.Context) (string, error) {
	return generateNumber(session(ctx, r.db), &models.PayableModel{}, "payable_number", "AP")
}

func toDomainPayables(payableModels []models.PayableModel) []finance.Payable {
	payables := make([]finance.Payable, len(payableModels))
	for i := range payableModels {
		payables[i] = *payableModels[i].ToDomain()
	}
	return payables
}

// applyPaging applies pagination and ordering from a filter. Only
// whitelisted order columns are interpolated into the query.
func applyPaging(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	orderBy := "created_at"
	if isSortableColumn(filter.OrderBy) {
		orderBy = filter.OrderBy
	}
	direction := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		direction = "ASC"
	}
	return query.Order(orderBy + " " + direction)
}

// isSortableColumn guards against SQL injection through order-by input
func isSortableColumn(column string) bool {
	switch column {
	case "created_at", "updated_at", "obligation_date", "due_date", "order_date", "paid_at", "amount", "status":
		return true
	}
	return false
}

// generateNumber produces the next sequential document number for
// today, format PREFIX-YYYYMMDD-XXXXX
func generateNumber(db *gorm.DB, model any, column, prefix string) (string, error) {
	datePrefix := fmt.Sprintf("%s-%s-", prefix, time.Now().Format("20060102"))

	var maxNumber string
	if err := db.
		Model(model).
		Where(column+" LIKE ?", datePrefix+"%").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", datePrefix, nextNum), nil
}

var _ finance.PayableRepository = (*GormPayableRepository)(nil)
