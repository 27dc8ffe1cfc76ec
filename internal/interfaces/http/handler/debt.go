package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	financeapp "github.com/amas/backend/internal/application/finance"
	"github.com/amas/backend/internal/interfaces/http/dto"
)

// DebtHandler answers questions about supplier debt positions
type DebtHandler struct {
	BaseHandler
	debtService      *financeapp.DebtService
	overdueThreshold time.Duration
}

// NewDebtHandler creates a new DebtHandler. The overdue threshold is
// the default used when the request does not name one.
func NewDebtHandler(debtService *financeapp.DebtService, overdueThreshold time.Duration) *DebtHandler {
	return &DebtHandler{
		debtService:      debtService,
		overdueThreshold: overdueThreshold,
	}
}

// RegisterRoutes registers all debt reporting routes
func (h *DebtHandler) RegisterRoutes(rg *gin.RouterGroup) {
	debts := rg.Group("/finance/debts")
	{
		debts.GET("", h.Summaries)
		debts.GET("/overdue", h.Overdue)
		debts.GET("/:id", h.SupplierDebt)
	}
	rg.GET("/finance/suppliers/:id/payables", h.ListSupplierPayables)
	rg.GET("/finance/payables/:id", h.GetPayable)
}

// Summaries returns the per-supplier debt position across all
// suppliers with open obligations
func (h *DebtHandler) Summaries(c *gin.Context) {
	summaries, err := h.debtService.DebtSummaries(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summaries)
}

// SupplierDebt returns one supplier's outstanding total and open
// payables
func (h *DebtHandler) SupplierDebt(c *gin.Context) {
	supplierID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID")
		return
	}

	detail, err := h.debtService.SupplierDebt(c.Request.Context(), supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, detail)
}

// Overdue returns payables older than the threshold. The "days" query
// parameter overrides the configured default.
func (h *DebtHandler) Overdue(c *gin.Context) {
	threshold := h.overdueThreshold
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			h.BadRequest(c, "Invalid days parameter")
			return
		}
		threshold = time.Duration(days) * 24 * time.Hour
	}

	overdue, err := h.debtService.OverdueReport(c.Request.Context(), threshold)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, overdue)
}

// ListSupplierPayables returns one supplier's payables with paging
func (h *DebtHandler) ListSupplierPayables(c *gin.Context) {
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

	result, err := h.debtService.ListSupplierPayables(c.Request.Context(), supplierID, req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetPayable returns one payable
func (h *DebtHandler) GetPayable(c *gin.Context) {
	payableID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payable ID")
		return
	}

	payable, err := h.debtService.GetPayable(c.Request.Context(), payableID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payable)
}
