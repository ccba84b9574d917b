package handler

import (
	"time"

	orderapp "github.com/fincore/backend/internal/application/order"
	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderHandler handles financial order API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders", h.Create)
	rg.GET("/orders/:id", h.GetByID)
	rg.POST("/orders/:id/items", h.AddItem)
	rg.DELETE("/orders/:id/items/:item_id", h.RemoveItem)
	rg.PUT("/orders/:id/items/:item_id/price", h.UpdateItemPrice)
	rg.PUT("/orders/:id/tax-rates", h.SetTaxRates)
	rg.PUT("/orders/:id/discount", h.ApplyDiscount)
	rg.POST("/orders/:id/lock", h.Lock)
	rg.POST("/orders/:id/fail", h.Fail)
	rg.POST("/orders/:id/refunds", h.Refund)
}

// TaxRateRequest is one named tax rate
type TaxRateRequest struct {
	Name string `json:"name" binding:"required"`
	Rate string `json:"rate" binding:"required"`
}

// CreateOrderRequest describes a draft order
type CreateOrderRequest struct {
	CustomerID  string           `json:"customer_id" binding:"required,uuid"`
	OrderNumber string           `json:"order_number" binding:"required"`
	Currency    string           `json:"currency" binding:"required,len=3"`
	TaxRates    []TaxRateRequest `json:"tax_rates" binding:"dive"`
}

// AddItemRequest describes a priced order line
type AddItemRequest struct {
	ProductID      string `json:"product_id" binding:"required,uuid"`
	Description    string `json:"description" binding:"required"`
	Quantity       string `json:"quantity" binding:"required"`
	UnitPriceMinor int64  `json:"unit_price_minor" binding:"required,gt=0"`
}

// UpdateItemPriceRequest reprices an order line
type UpdateItemPriceRequest struct {
	UnitPriceMinor int64 `json:"unit_price_minor" binding:"required,gt=0"`
}

// SetTaxRatesRequest replaces the order tax rates
type SetTaxRatesRequest struct {
	TaxRates []TaxRateRequest `json:"tax_rates" binding:"required,dive"`
}

// ApplyDiscountRequest sets the order-level discount
type ApplyDiscountRequest struct {
	DiscountMinor int64 `json:"discount_minor" binding:"min=0"`
}

// FailOrderRequest records a capture failure
type FailOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RefundOrderRequest requests a partial or full refund
type RefundOrderRequest struct {
	AmountMinor int64  `json:"amount_minor" binding:"required,gt=0"`
	Reason      string `json:"reason"`
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	Description    string `json:"description"`
	Quantity       string `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	LineTotalMinor int64  `json:"line_total_minor"`
}

// TaxLineResponse represents one computed tax component
type TaxLineResponse struct {
	Name        string `json:"name"`
	Rate        string `json:"rate"`
	AmountMinor int64  `json:"amount_minor"`
}

// OrderResponse represents a financial order in API responses
type OrderResponse struct {
	ID            string              `json:"id"`
	TenantID      string              `json:"tenant_id"`
	OrderNumber   string              `json:"order_number"`
	CustomerID    string              `json:"customer_id"`
	Status        string              `json:"status"`
	Currency      string              `json:"currency"`
	Items         []OrderItemResponse `json:"items"`
	TaxLines      []TaxLineResponse   `json:"tax_lines,omitempty"`
	SubtotalMinor int64               `json:"subtotal_minor"`
	TaxTotalMinor int64               `json:"tax_total_minor"`
	DiscountMinor int64               `json:"discount_minor"`
	TotalMinor    int64               `json:"total_minor"`
	RefundedMinor int64               `json:"refunded_minor"`
	ProviderRef   string              `json:"provider_ref,omitempty"`
	FailureReason string              `json:"failure_reason,omitempty"`
	LockedAt      *time.Time          `json:"locked_at,omitempty"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	Version       int                 `json:"version"`
}

// RefundResponse represents a refund in API responses
type RefundResponse struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	AmountMinor int64      `json:"amount_minor"`
	Currency    string     `json:"currency"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	ProviderRef string     `json:"provider_ref,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Create creates a draft order
func (h *OrderHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer_id")
		return
	}
	rates, err := parseTaxRates(req.TaxRates)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.orderService.CreateDraft(c.Request.Context(), orderapp.CreateDraftCommand{
		TenantID:    tenantID,
		CustomerID:  customerID,
		OrderNumber: req.OrderNumber,
		Currency:    valueobject.Currency(req.Currency),
		TaxRates:    rates,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toOrderResponse(o))
}

// GetByID returns an order
func (h *OrderHandler) GetByID(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndOrder(c)
	if !ok {
		return
	}

	o, err := h.orderService.FindByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// AddItem adds a priced line to a draft order
func (h *OrderHandler) AddItem(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndOrder(c)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product_id")
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		h.BadRequest(c, "Invalid quantity")
		return
	}

	o, err := h.orderService.AddItem(c.Request.Context(), tenantID, orderID, productID, req.Description, quantity, req.UnitPriceMinor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// RemoveItem removes a line from a draft order
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndOrder(c)
	if !ok {
		return
	}
	itemID, err := parseIDParam(c, "item_id")
	if err != nil {
		h.BadRequest(c, "Invalid item_id")
		return
	}

	o, err := h.orderService.RemoveItem(c.Request.Context(), tenantID, orderID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// UpdateItemPrice reprices a line on a draft order
func (h *OrderHandler) UpdateItemPrice(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndOrder(c)
	if !ok {
		return
	}
	itemID, err := parseIDParam(c, "item_id")
	if err != nil {
		h.BadRequest(c, "Invalid item_id")
		return
	}

	var req UpdateItemPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.orderService.UpdateItemPrice(c.Request.Context(), tenantID, orderID, itemID, req.UnitPriceMinor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// SetTaxRates replaces the tax rates on a draft order
func (h *OrderHandler) SetTaxRates(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndOrder(c)
	if !ok {
		return
	}

	var req SetTaxRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	rates, err := parseTaxRates(req.TaxRates)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.orderService.SetTaxRates(c.Request.Context(), tenantID, orderID, rates)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// ApplyDiscount sets the order-level discount on a draft order
func (h *OrderHandler) ApplyDiscount(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndOrder(c)
	if !ok {
		return
	}

	var req ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.orderService.ApplyDiscount(c.Request.Context(), tenantID, orderID, req.DiscountMinor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// Lock freezes the order financials and moves it to PENDING
func (h *OrderHandler) Lock(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndOrder(c)
	if !ok {
		return
	}

	o, err := h.orderService.Lock(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// Fail records a capture failure for a pending order
func (h *OrderHandler) Fail(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndOrder(c)
	if !ok {
		return
	}

	var req FailOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.orderService.Fail(c.Request.Context(), tenantID, orderID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// Refund refunds part or all of a paid order
func (h *OrderHandler) Refund(c *gin.Context) {
	tenantID, orderID, ok := h.tenantAndOrder(c)
	if !ok {
		return
	}

	var req RefundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	r, err := h.orderService.Refund(c.Request.Context(), tenantID, orderID, req.AmountMinor, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toRefundResponse(r))
}

func (h *OrderHandler) tenantAndOrder(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, orderID, true
}

func parseTaxRates(reqs []TaxRateRequest) ([]order.TaxRate, error) {
	rates := make([]order.TaxRate, 0, len(reqs))
	for _, r := range reqs {
		rate, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return nil, err
		}
		rates = append(rates, order.TaxRate{Name: r.Name, Rate: rate})
	}
	return rates, nil
}

func toOrderResponse(o *order.FinancialOrder) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ID:             item.ID.String(),
			ProductID:      item.ProductID.String(),
			Description:    item.Description,
			Quantity:       item.Quantity.String(),
			UnitPriceMinor: item.UnitPriceMinor,
			LineTotalMinor: item.LineTotalMinor,
		})
	}
	taxLines := make([]TaxLineResponse, 0, len(o.TaxLines))
	for _, tl := range o.TaxLines {
		taxLines = append(taxLines, TaxLineResponse{
			Name:        tl.Name,
			Rate:        tl.Rate.String(),
			AmountMinor: tl.AmountMinor,
		})
	}
	return OrderResponse{
		ID:            o.ID.String(),
		TenantID:      o.TenantID.String(),
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID.String(),
		Status:        string(o.Status),
		Currency:      string(o.Currency),
		Items:         items,
		TaxLines:      taxLines,
		SubtotalMinor: o.SubtotalMinor,
		TaxTotalMinor: o.TaxTotalMinor,
		DiscountMinor: o.DiscountMinor,
		TotalMinor:    o.TotalMinor,
		RefundedMinor: o.RefundedMinor,
		ProviderRef:   o.ProviderRef,
		FailureReason: o.FailureReason,
		LockedAt:      o.LockedAt,
		PaidAt:        o.PaidAt,
		Version:       o.GetVersion(),
	}
}

func toRefundResponse(r *order.Refund) RefundResponse {
	return RefundResponse{
		ID:          r.ID.String(),
		OrderID:     r.OrderID.String(),
		AmountMinor: r.AmountMinor,
		Currency:    string(r.Currency),
		Reason:      r.Reason,
		Status:      string(r.Status),
		ProviderRef: r.ProviderRef,
		CompletedAt: r.CompletedAt,
	}
}
