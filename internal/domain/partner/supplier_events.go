package partner

import (
	"github.com/amas/backend/internal/domain/shared"
)

// Event types for the partner context
const (
	EventTypeSupplierCreated = "partner.supplier.created"
)

// SupplierCreatedEvent is raised when a new supplier is registered
type SupplierCreatedEvent struct {
	shared.BaseDomainEvent
	SupplierName string `json:"supplier_name"`
}

// NewSupplierCreatedEvent creates a new SupplierCreatedEvent
func NewSupplierCreatedEvent(s *Supplier) *SupplierCreatedEvent {
	return &SupplierCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierCreated, "Supplier", s.ID),
		SupplierName:    s.Name,
	}
}
