package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	purchaseapp "github.com/amas/backend/internal/application/purchase"
	"github.com/amas/backend/internal/interfaces/http/dto"
)

// PurchaseReturnHandler handles supplier return API endpoints
type PurchaseReturnHandler struct {
	BaseHandler
	returnService *purchaseapp.ReturnService
}

// NewPurchaseReturnHandler creates a new PurchaseReturnHandler
func NewPurchaseReturnHandler(returnService *purchaseapp.ReturnService) *PurchaseReturnHandler {
	return &PurchaseReturnHandler{returnService: returnService}
}

// RegisterRoutes registers all supplier return routes
func (h *PurchaseReturnHandler) RegisterRoutes(rg *gin.RouterGroup) {
	returns := rg.Group("/purchase/returns")
	{
		returns.POST("", h.Create)
		returns.GET("", h.List)
		returns.GET("/:id", h.Get)
		returns.POST("/:id/approve", h.Approve)
		returns.POST("/:id/reject", h.Reject)
	}
}

// ReturnLineRequest is one line of a create return request
type ReturnLineRequest struct {
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required,gt=0"`
}

// CreateReturnRequest represents a request to create a supplier return
type CreateReturnRequest struct {
	SupplierID uuid.UUID           `json:"supplier_id" binding:"required"`
	Reason     string              `json:"reason" binding:"required,min=1,max=500"`
	Lines      []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// Create creates a draft supplier return
func (h *PurchaseReturnHandler) Create(c *gin.Context) {
	var req CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lines := make([]purchaseapp.ReturnLineRequest, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = purchaseapp.ReturnLineRequest{
			PurchaseOrderID: line.PurchaseOrderID,
			Amount:          line.Amount,
		}
	}

	ret, err := h.returnService.CreateReturn(c.Request.Context(), purchaseapp.CreateReturnRequest{
		SupplierID: req.SupplierID,
		Reason:     req.Reason,
		Lines:      lines,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ret)
}

// List returns supplier returns with paging
func (h *PurchaseReturnHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.returnService.ListReturns(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns one supplier return with its lines
func (h *PurchaseReturnHandler) Get(c *gin.Context) {
	returnID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid return ID")
		return
	}

	ret, err := h.returnService.GetReturn(c.Request.Context(), returnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ret)
}

// Approve approves a draft return and settles its credit against the
// supplier's outstanding payables
func (h *PurchaseReturnHandler) Approve(c *gin.Context) {
	returnID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid return ID")
		return
	}

	ret, err := h.returnService.ApproveReturn(c.Request.Context(), returnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ret)
}

// Reject rejects a draft return
func (h *PurchaseReturnHandler) Reject(c *gin.Context) {
	returnID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid return ID")
		return
	}

	if err := h.returnService.RejectReturn(c.Request.Context(), returnID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
