package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amas/backend/internal/domain/finance"
)

// PayableModel is the persistence model for the Payable aggregate root.
// The outstanding balance is derived in the domain and never stored.
type PayableModel struct {
	AggregateModel
	PayableNumber  string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID     uuid.UUID                 `gorm:"type:uuid;not null;index"`
	SupplierName   string                    `gorm:"type:varchar(200);not null"`
	SourceType     finance.PayableSourceType `gorm:"type:varchar(30);not null;index"`
	SourceID       *uuid.UUID                `gorm:"type:uuid;index"`
	SourceNumber   string                    `gorm:"type:varchar(50)"`
	Amount         decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Status         finance.PayableStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ObligationDate time.Time                 `gorm:"not null;index"`
	DueDate        *time.Time                `gorm:"index"`
	Remark         string                    `gorm:"type:text"`
	PaidAt         *time.Time
}

// TableName returns the table name for GORM
func (PayableModel) TableName() string {
	return "account_payables"
}

// ToDomain converts the persistence model to a domain Payable
func (m *PayableModel) ToDomain() *finance.Payable {
	return &finance.Payable{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PayableNumber:     m.PayableNumber,
		SupplierID:        m.SupplierID,
		SupplierName:      m.SupplierName,
		SourceType:        m.SourceType,
		SourceID:          m.SourceID,
		SourceNumber:      m.SourceNumber,
		Amount:            m.Amount,
		PaidAmount:        m.PaidAmount,
		Status:            m.Status,
		ObligationDate:    m.ObligationDate,
		DueDate:           m.DueDate,
		Remark:            m.Remark,
		PaidAt:            m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Payable
func (m *PayableModel) FromDomain(p *finance.Payable) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.PayableNumber = p.PayableNumber
	m.SupplierID = p.SupplierID
	m.SupplierName = p.SupplierName
	m.SourceType = p.SourceType
	m.SourceID = p.SourceID
	m.SourceNumber = p.SourceNumber
	m.Amount = p.Amount
	m.PaidAmount = p.PaidAmount
	m.Status = p.Status
	m.ObligationDate = p.ObligationDate
	m.DueDate = p.DueDate
	m.Remark = p.Remark
	m.PaidAt = p.PaidAt
}

// PayableModelFromDomain creates a persistence model from a domain Payable
func PayableModelFromDomain(p *finance.Payable) *PayableModel {
	m := &PayableModel{}
	m.FromDomain(p)
	return m
}

// SupplierPaymentModel is the persistence model for the SupplierPayment
// aggregate root.
type SupplierPaymentModel struct {
	AggregateModel
	PaymentNumber   string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID      uuid.UUID                `gorm:"type:uuid;not null;index"`
	SupplierName    string                   `gorm:"type:varchar(200);not null"`
	Amount          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	AllocatedAmount decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Method          finance.PaymentMethod    `gorm:"type:varchar(20);not null;index"`
	Reference       string                   `gorm:"type:varchar(100);index"`
	Note            string                   `gorm:"type:text"`
	PaidAt          time.Time                `gorm:"not null;index"`
	Status          finance.PaymentStatus    `gorm:"type:varchar(20);not null;default:'COMPLETED';index"`
	VoidedAt        *time.Time
	VoidReason      string                   `gorm:"type:varchar(500)"`
	Allocations     []PaymentAllocationModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (SupplierPaymentModel) TableName() string {
	return "supplier_payments"
}

// ToDomain converts the persistence model to a domain SupplierPayment
func (m *SupplierPaymentModel) ToDomain() *finance.SupplierPayment {
	payment := &finance.SupplierPayment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PaymentNumber:     m.PaymentNumber,
		SupplierID:        m.SupplierID,
		SupplierName:      m.SupplierName,
		Amount:            m.Amount,
		AllocatedAmount:   m.AllocatedAmount,
		Method:            m.Method,
		Reference:         m.Reference,
		Note:              m.Note,
		PaidAt:            m.PaidAt,
		Status:            m.Status,
		VoidedAt:          m.VoidedAt,
		VoidReason:        m.VoidReason,
		Allocations:       make([]finance.PaymentAllocation, len(m.Allocations)),
	}
	for i := range m.Allocations {
		payment.Allocations[i] = m.Allocations[i].ToDomainAllocation()
	}
	return payment
}

// FromDomain populates the persistence model from a domain SupplierPayment
func (m *SupplierPaymentModel) FromDomain(p *finance.SupplierPayment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.SupplierID = p.SupplierID
	m.SupplierName = p.SupplierName
	m.Amount = p.Amount
	m.AllocatedAmount = p.AllocatedAmount
	m.Method = p.Method
	m.Reference = p.Reference
	m.Note = p.Note
	m.PaidAt = p.PaidAt
	m.Status = p.Status
	m.VoidedAt = p.VoidedAt
	m.VoidReason = p.VoidReason
	m.Allocations = make([]PaymentAllocationModel, len(p.Allocations))
	for i := range p.Allocations {
		m.Allocations[i].FromDomainAllocation(p.Allocations[i])
	}
}

// SupplierPaymentModelFromDomain creates a persistence model from a
// domain SupplierPayment
func SupplierPaymentModelFromDomain(p *finance.SupplierPayment) *SupplierPaymentModel {
	m := &SupplierPaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentAllocationModel is the persistence model for one allocation of
// a payment to a payable.
type PaymentAllocationModel struct {
	BaseModel
	PaymentID     uuid.UUID                `gorm:"type:uuid;not null;index"`
	PayableID     uuid.UUID                `gorm:"type:uuid;not null;index"`
	PayableNumber string                   `gorm:"type:varchar(50);not null"`
	Amount        decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Status        finance.AllocationStatus `gorm:"type:varchar(20);not null"`
	ReturnID      *uuid.UUID               `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomainAllocation converts the persistence model to a domain PaymentAllocation
func (m *PaymentAllocationModel) ToDomainAllocation() finance.PaymentAllocation {
	return finance.PaymentAllocation{
		BaseEntity:    m.BaseModel.ToDomain(),
		PaymentID:     m.PaymentID,
		PayableID:     m.PayableID,
		PayableNumber: m.PayableNumber,
		Amount:        m.Amount,
		Status:        m.Status,
		ReturnID:      m.ReturnID,
	}
}

// FromDomainAllocation populates the persistence model from a domain PaymentAllocation
func (m *PaymentAllocationModel) FromDomainAllocation(a finance.PaymentAllocation) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.PaymentID = a.PaymentID
	m.PayableID = a.PayableID
	m.PayableNumber = a.PayableNumber
	m.Amount = a.Amount
	m.Status = a.Status
	m.ReturnID = a.ReturnID
}
