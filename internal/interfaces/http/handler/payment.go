package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	financeapp "github.com/amas/backend/internal/application/finance"
	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/interfaces/http/dto"
)

// idempotencyKeyHeader lets clients retry a payment safely
const idempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles supplier payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *financeapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *financeapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers all payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/finance/payments")
	{
		payments.POST("", h.Record)
		payments.POST("/preview", h.Preview)
		payments.GET("", h.List)
		payments.GET("/:id", h.Get)
		payments.POST("/:id/void", h.Void)
	}
	rg.GET("/finance/suppliers/:id/payments", h.ListBySupplier)
}

// ManualSplitRequest is one caller-proposed allocation line
type ManualSplitRequest struct {
	PayableID uuid.UUID       `json:"payable_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// RecordPaymentRequest represents a request to record a supplier payment
type RecordPaymentRequest struct {
	SupplierID       uuid.UUID            `json:"supplier_id" binding:"required"`
	Amount           decimal.Decimal      `json:"amount" binding:"required,gt=0"`
	Method           string               `json:"method" binding:"required,oneof=CASH TRANSFER CHEQUE"`
	AllocationMethod string               `json:"allocation_method" binding:"required,oneof=FIFO MANUAL"`
	Splits           []ManualSplitRequest `json:"splits" binding:"omitempty,dive"`
	Reference        string               `json:"reference" binding:"max=200"`
	Note             string               `json:"note" binding:"max=1000"`
	PaidAt           *time.Time           `json:"paid_at"`
}

// PreviewAllocationRequest represents a request to preview how a
// payment would be allocated without recording anything
type PreviewAllocationRequest struct {
	SupplierID       uuid.UUID            `json:"supplier_id" binding:"required"`
	Amount           decimal.Decimal      `json:"amount" binding:"required,gt=0"`
	AllocationMethod string               `json:"allocation_method" binding:"required,oneof=FIFO MANUAL"`
	Splits           []ManualSplitRequest `json:"splits" binding:"omitempty,dive"`
}

// VoidPaymentRequest represents a request to void a payment
type VoidPaymentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

func toManualSplits(splits []ManualSplitRequest) []finance.ManualSplit {
	if len(splits) == 0 {
		return nil
	}
	out := make([]finance.ManualSplit, len(splits))
	for i, s := range splits {
		out[i] = finance.ManualSplit{PayableID: s.PayableID, Amount: s.Amount}
	}
	return out
}

// Record records a payment and settles it against the supplier's
// outstanding payables
func (h *PaymentHandler) Record(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	paidAt := time.Time{}
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), financeapp.RecordPaymentRequest{
		SupplierID:       req.SupplierID,
		Amount:           req.Amount,
		Method:           finance.PaymentMethod(req.Method),
		AllocationMethod: finance.AllocationMethod(req.AllocationMethod),
		Splits:           toManualSplits(req.Splits),
		Reference:        req.Reference,
		Note:             req.Note,
		PaidAt:           paidAt,
		IdempotencyKey:   c.GetHeader(idempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Preview plans an allocation against current balances without
// persisting anything
func (h *PaymentHandler) Preview(c *gin.Context) {
	var req PreviewAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	plan, err := h.paymentService.PreviewAllocation(c.Request.Context(), financeapp.PreviewRequest{
		SupplierID:       req.SupplierID,
		Amount:           req.Amount,
		AllocationMethod: finance.AllocationMethod(req.AllocationMethod),
		Splits:           toManualSplits(req.Splits),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, plan)
}

// List returns payments with paging
func (h *PaymentHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListBySupplier returns one supplier's payments with paging
func (h *PaymentHandler) ListBySupplier(c *gin.Context) {
	supplierID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.paymentService.ListSupplierPayments(c.Request.Context(), supplierID, req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns one payment with its allocations
func (h *PaymentHandler) Get(c *gin.Context) {
	paymentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// Void voids a payment and reverses its allocations
func (h *PaymentHandler) Void(c *gin.Context) {
	paymentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	var req VoidPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.paymentService.VoidPayment(c.Request.Context(), paymentID, req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
