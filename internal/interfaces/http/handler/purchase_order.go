package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	purchaseapp "github.com/amas/backend/internal/application/purchase"
	"github.com/amas/backend/internal/interfaces/http/dto"
)

// PurchaseOrderHandler handles purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService *purchaseapp.OrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService *purchaseapp.OrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

// RegisterRoutes registers all purchase order routes
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/purchase/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/receive", h.Receive)
		orders.POST("/:id/cancel", h.Cancel)
	}
	rg.GET("/purchase/suppliers/:id/orders", h.ListBySupplier)
}

// OrderLineRequest is one item line in a create order request
type OrderLineRequest struct {
	ItemName string          `json:"item_name" binding:"required,min=1,max=200"`
	Quantity int             `json:"quantity" binding:"required,min=1"`
	UnitCost decimal.Decimal `json:"unit_cost" binding:"required,gt=0"`
}

// CreateOrderRequest represents a request to create a purchase order
type CreateOrderRequest struct {
	SupplierID uuid.UUID          `json:"supplier_id" binding:"required"`
	OrderDate  *time.Time         `json:"order_date"`
	Lines      []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
	Note       string             `json:"note" binding:"max=1000"`
}

// ReceiveOrderRequest represents a request to mark an order received.
// A missing amount receives the full order total.
type ReceiveOrderRequest struct {
	ReceivedAmount *decimal.Decimal `json:"received_amount"`
}

// Create creates a purchase order for an active supplier
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lines := make([]purchaseapp.OrderLineRequest, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = purchaseapp.OrderLineRequest{
			ItemName: line.ItemName,
			Quantity: line.Quantity,
			UnitCost: line.UnitCost,
		}
	}

	orderDate := time.Time{}
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), purchaseapp.CreateOrderRequest{
		SupplierID: req.SupplierID,
		OrderDate:  orderDate,
		Lines:      lines,
		Note:       req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// List returns orders with paging
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.ListOrders(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListBySupplier returns one supplier's orders with paging
func (h *PurchaseOrderHandler) ListBySupplier(c *gin.Context) {
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

	result, err := h.orderService.ListSupplierOrders(c.Request.Context(), supplierID, req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns one order with its lines
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Receive marks an order as received and raises the matching payable
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req ReceiveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receivedAmount := decimal.Zero
	if req.ReceivedAmount != nil {
		receivedAmount = *req.ReceivedAmount
	}

	order, err := h.orderService.ReceiveOrder(c.Request.Context(), orderID, receivedAmount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Cancel cancels an order that has not been received
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	if err := h.orderService.CancelOrder(c.Request.Context(), orderID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
