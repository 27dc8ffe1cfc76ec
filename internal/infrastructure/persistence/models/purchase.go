package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amas/backend/internal/domain/purchase"
)

// PurchaseOrderModel is the persistence model for the Order aggregate root
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber    string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID     uuid.UUID                `gorm:"type:uuid;not null;index"`
	SupplierName   string                   `gorm:"type:varchar(200);not null"`
	Status         purchase.OrderStatus     `gorm:"type:varchar(20);not null;default:'ORDERED';index"`
	OrderDate      time.Time                `gorm:"not null;index"`
	ReceivedAt     *time.Time
	TotalAmount    decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	ReceivedAmount decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Note           string                   `gorm:"type:text"`
	Lines          []PurchaseOrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *PurchaseOrderModel) ToDomain() *purchase.Order {
	order := &purchase.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		SupplierID:        m.SupplierID,
		SupplierName:      m.SupplierName,
		Status:            m.Status,
		OrderDate:         m.OrderDate,
		ReceivedAt:        m.ReceivedAt,
		TotalAmount:       m.TotalAmount,
		ReceivedAmount:    m.ReceivedAmount,
		Note:              m.Note,
		Lines:             make([]purchase.OrderLine, len(m.Lines)),
	}
	for i := range m.Lines {
		order.Lines[i] = m.Lines[i].ToDomainLine()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order
func (m *PurchaseOrderModel) FromDomain(o *purchase.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.SupplierID = o.SupplierID
	m.SupplierName = o.SupplierName
	m.Status = o.Status
	m.OrderDate = o.OrderDate
	m.ReceivedAt = o.ReceivedAt
	m.TotalAmount = o.TotalAmount
	m.ReceivedAmount = o.ReceivedAmount
	m.Note = o.Note
	m.Lines = make([]PurchaseOrderLineModel, len(o.Lines))
	for i := range o.Lines {
		m.Lines[i].FromDomainLine(o.Lines[i])
	}
}

// PurchaseOrderModelFromDomain creates a persistence model from a domain Order
func PurchaseOrderModelFromDomain(o *purchase.Order) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// PurchaseOrderLineModel is the persistence model for one order line
type PurchaseOrderLineModel struct {
	BaseModel
	OrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemName string          `gorm:"type:varchar(200);not null"`
	Quantity int             `gorm:"not null"`
	UnitCost decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}

// ToDomainLine converts the persistence model to a domain OrderLine
func (m *PurchaseOrderLineModel) ToDomainLine() purchase.OrderLine {
	return purchase.OrderLine{
		BaseEntity: m.BaseModel.ToDomain(),
		OrderID:    m.OrderID,
		ItemName:   m.ItemName,
		Quantity:   m.Quantity,
		UnitCost:   m.UnitCost,
	}
}

// FromDomainLine populates the persistence model from a domain OrderLine
func (m *PurchaseOrderLineModel) FromDomainLine(l purchase.OrderLine) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.OrderID = l.OrderID
	m.ItemName = l.ItemName
	m.Quantity = l.Quantity
	m.UnitCost = l.UnitCost
}

// SupplierReturnModel is the persistence model for the SupplierReturn
// aggregate root
type SupplierReturnModel struct {
	AggregateModel
	ReturnNumber string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	SupplierName string                `gorm:"type:varchar(200);not null"`
	Status       purchase.ReturnStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	TotalCredit  decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Reason       string                `gorm:"type:text"`
	ApprovedAt   *time.Time
	SettledAt    *time.Time
	Lines        []ReturnLineModel `gorm:"foreignKey:ReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (SupplierReturnModel) TableName() string {
	return "supplier_returns"
}

// ToDomain converts the persistence model to a domain SupplierReturn
func (m *SupplierReturnModel) ToDomain() *purchase.SupplierReturn {
	ret := &purchase.SupplierReturn{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ReturnNumber:      m.ReturnNumber,
		SupplierID:        m.SupplierID,
		SupplierName:      m.SupplierName,
		Status:            m.Status,
		TotalCredit:       m.TotalCredit,
		Reason:            m.Reason,
		ApprovedAt:        m.ApprovedAt,
		SettledAt:         m.SettledAt,
		Lines:             make([]purchase.ReturnLine, len(m.Lines)),
	}
	for i := range m.Lines {
		ret.Lines[i] = m.Lines[i].ToDomainLine()
	}
	return ret
}

// FromDomain populates the persistence model from a domain SupplierReturn
func (m *SupplierReturnModel) FromDomain(r *purchase.SupplierReturn) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ReturnNumber = r.ReturnNumber
	m.SupplierID = r.SupplierID
	m.SupplierName = r.SupplierName
	m.Status = r.Status
	m.TotalCredit = r.TotalCredit
	m.Reason = r.Reason
	m.ApprovedAt = r.ApprovedAt
	m.SettledAt = r.SettledAt
	m.Lines = make([]ReturnLineModel, len(r.Lines))
	for i := range r.Lines {
		m.Lines[i].FromDomainLine(r.Lines[i])
	}
}

// SupplierReturnModelFromDomain creates a persistence model from a
// domain SupplierReturn
func SupplierReturnModelFromDomain(r *purchase.SupplierReturn) *SupplierReturnModel {
	m := &SupplierReturnModel{}
	m.FromDomain(r)
	return m
}

// ReturnLineModel is the persistence model for one return line
type ReturnLineModel struct {
	BaseModel
	ReturnID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	PurchaseOrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	PurchaseOrderNumber string          `gorm:"type:varchar(50);not null"`
	Amount              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ReturnLineModel) TableName() string {
	return "supplier_return_lines"
}

// ToDomainLine converts the persistence model to a domain ReturnLine
func (m *ReturnLineModel) ToDomainLine() purchase.ReturnLine {
	return purchase.ReturnLine{
		BaseEntity:          m.BaseModel.ToDomain(),
		ReturnID:            m.ReturnID,
		PurchaseOrderID:     m.PurchaseOrderID,
		PurchaseOrderNumber: m.PurchaseOrderNumber,
		Amount:              m.Amount,
	}
}

// FromDomainLine populates the persistence model from a domain ReturnLine
func (m *ReturnLineModel) FromDomainLine(l purchase.ReturnLine) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.ReturnID = l.ReturnID
	m.PurchaseOrderID = l.PurchaseOrderID
	m.PurchaseOrderNumber = l.PurchaseOrderNumber
	m.Amount = l.Amount
}
