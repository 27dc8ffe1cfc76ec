package partner

import (
	"context"
	"fmt"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/partner"
	"github.com/amas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SupplierService manages suppliers
type SupplierService struct {
	supplierRepo partner.SupplierRepository
	payableRepo  finance.PayableRepository
	logger       *zap.Logger
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(
	supplierRepo partner.SupplierRepository,
	payableRepo finance.PayableRepository,
	logger *zap.Logger,
) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
		payableRepo:  payableRepo,
		logger:       logger,
	}
}

// CreateSupplierRequest represents a request to create a supplier
type CreateSupplierRequest struct {
	Name        string
	ContactName string
	Phone       string
	Email       string
	Address     string
	CreditDays  int
	Notes       string
}

// CreateSupplier creates a new supplier. Supplier names are unique.
func (s *SupplierService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*partner.Supplier, error) {
	existing, err := s.supplierRepo.FindByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check supplier name: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A supplier with this name already exists")
	}

	supplier, err := partner.NewSupplier(req.Name)
	if err != nil {
		return nil, err
	}
	supplier.ContactName = req.ContactName
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address
	supplier.Notes = req.Notes
	if req.CreditDays > 0 {
		if err := supplier.SetCreditDays(req.CreditDays); err != nil {
			return nil, err
		}
	}

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to save supplier: %w", err)
	}

	s.logger.Info("supplier created",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("name", supplier.Name),
	)

	return supplier, nil
}

// UpdateSupplierRequest represents a request to update a supplier
type UpdateSupplierRequest struct {
	Name        string
	ContactName string
	Phone       string
	Email       string
	Address     string
	CreditDays  int
	Notes       string
}

// UpdateSupplier updates a supplier's details and payment terms
func (s *SupplierService) UpdateSupplier(ctx context.Context, supplierID uuid.UUID, req UpdateSupplierRequest) (*partner.Supplier, error) {
	supplier, err := s.getSupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	if req.Name != supplier.Name {
		existing, err := s.supplierRepo.FindByName(ctx, req.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check supplier name: %w", err)
		}
		if existing != nil && existing.ID != supplierID {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "A supplier with this name already exists")
		}
	}

	if err := supplier.Update(req.Name, req.ContactName, req.Phone, req.Email, req.Address); err != nil {
		return nil, err
	}
	if err := supplier.SetCreditDays(req.CreditDays); err != nil {
		return nil, err
	}
	supplier.Notes = req.Notes

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to save supplier: %w", err)
	}

	return supplier, nil
}

// DeactivateSupplier deactivates a supplier. Outstanding obligations
// remain payable; only new orders are blocked.
func (s *SupplierService) DeactivateSupplier(ctx context.Context, supplierID uuid.UUID) error {
	supplier, err := s.getSupplier(ctx, supplierID)
	if err != nil {
		return err
	}
	if err := supplier.Deactivate(); err != nil {
		return err
	}
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}
	return nil
}

// ActivateSupplier re-activates a supplier
func (s *SupplierService) ActivateSupplier(ctx context.Context, supplierID uuid.UUID) error {
	supplier, err := s.getSupplier(ctx, supplierID)
	if err != nil {
		return err
	}
	if err := supplier.Activate(); err != nil {
		return err
	}
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}
	return nil
}

// DeleteSupplier removes a supplier that owes nothing
func (s *SupplierService) DeleteSupplier(ctx context.Context, supplierID uuid.UUID) error {
	supplier, err := s.getSupplier(ctx, supplierID)
	if err != nil {
		return err
	}

	outstanding, err := s.payableRepo.SumOutstandingBySupplier(ctx, supplierID)
	if err != nil {
		return fmt.Errorf("failed to check outstanding debt: %w", err)
	}
	if outstanding.IsPositive() {
		return shared.NewDomainError("HAS_OUTSTANDING_DEBT", "Cannot delete a supplier with outstanding debt")
	}

	if err := s.supplierRepo.Delete(ctx, supplier.ID); err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}

	s.logger.Info("supplier deleted",
		zap.String("supplier_id", supplierID.String()),
		zap.String("name", supplier.Name),
	)

	return nil
}

// GetSupplier returns a supplier by ID
func (s *SupplierService) GetSupplier(ctx context.Context, supplierID uuid.UUID) (*partner.Supplier, error) {
	return s.getSupplier(ctx, supplierID)
}

// ListSuppliers returns suppliers matching the filter
func (s *SupplierService) ListSuppliers(ctx context.Context, filter shared.Filter) (shared.Paginated[partner.Supplier], error) {
	suppliers, total, err := s.supplierRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[partner.Supplier]{}, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return shared.NewPaginated(suppliers, total, filter.Page, filter.PageSize), nil
}

func (s *SupplierService) getSupplier(ctx context.Context, supplierID uuid.UUID) (*partner.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	if supplier == nil {
		return nil, shared.NewDomainError("SUPPLIER_NOT_FOUND", "Supplier not found")
	}
	return supplier, nil
}
