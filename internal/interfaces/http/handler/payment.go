package handler

import (
	"time"

	paymentapp "github.com/fincore/backend/internal/application/payment"
	"github.com/fincore/backend/internal/domain/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.Service
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.Create)
	rg.POST("/payments/confirm", h.Confirm)
	rg.POST("/payments/:id/fail", h.Fail)
	rg.POST("/payments/:id/cancel", h.Cancel)
	rg.POST("/payments/:id/refunds", h.Refund)
}

// CreatePaymentRequest starts a payment attempt for a locked order
type CreatePaymentRequest struct {
	OrderID string `json:"order_id" binding:"required,uuid"`
}

// ConfirmPaymentRequest records a capture reported by the provider
type ConfirmPaymentRequest struct {
	ProviderPaymentID string `json:"provider_payment_id" binding:"required"`
}

// FailPaymentRequest records a capture failure
type FailPaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RefundPaymentRequest refunds part or all of a captured payment
type RefundPaymentRequest struct {
	AmountMinor int64  `json:"amount_minor" binding:"required,gt=0"`
	Reason      string `json:"reason"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                string     `json:"id"`
	TenantID          string     `json:"tenant_id"`
	OrderID           string     `json:"order_id"`
	AmountMinor       int64      `json:"amount_minor"`
	Currency          string     `json:"currency"`
	Status            string     `json:"status"`
	ProviderPaymentID string     `json:"provider_payment_id,omitempty"`
	FailureReason     string     `json:"failure_reason,omitempty"`
	AuthorizedAt      *time.Time `json:"authorized_at,omitempty"`
	SucceededAt       *time.Time `json:"succeeded_at,omitempty"`
	Version           int        `json:"version"`
}

// CreatePaymentResponse includes the client secret needed to complete the
// payment on the client side
type CreatePaymentResponse struct {
	Payment      PaymentResponse `json:"payment"`
	ClientSecret string          `json:"client_secret,omitempty"`
}

// Create starts a payment attempt for a locked order
func (h *PaymentHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order_id")
		return
	}

	result, err := h.paymentService.CreatePayment(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, CreatePaymentResponse{
		Payment:      toPaymentResponse(result.Payment),
		ClientSecret: result.ClientSecret,
	})
}

// Confirm records a successful capture. Idempotent on the provider
// payment ID; a replay returns the already-succeeded payment.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.paymentService.Confirm(c.Request.Context(), tenantID, req.ProviderPaymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(p))
}

// Fail records a capture failure and moves the order to FAILED
func (h *PaymentHandler) Fail(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}

	var req FailPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.paymentService.Fail(c.Request.Context(), tenantID, paymentID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(p))
}

// Cancel voids a pending payment
func (h *PaymentHandler) Cancel(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}

	p, err := h.paymentService.Cancel(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(p))
}

// Refund refunds part or all of a captured payment through the provider
func (h *PaymentHandler) Refund(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndPayment(c)
	if !ok {
		return
	}

	var req RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.paymentService.Refund(c.Request.Context(), tenantID, paymentID, req.AmountMinor, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(p))
}

func (h *PaymentHandler) tenantAndPayment(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return uuid.Nil, uuid.Nil, false
	}
	paymentID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, paymentID, true
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID.String(),
		TenantID:          p.TenantID.String(),
		OrderID:           p.OrderID.String(),
		AmountMinor:       p.AmountMinor,
		Currency:          string(p.Currency),
		Status:            string(p.Status),
		ProviderPaymentID: p.ProviderPaymentID,
		FailureReason:     p.FailureReason,
		AuthorizedAt:      p.AuthorizedAt,
		SucceededAt:       p.SucceededAt,
		Version:           p.GetVersion(),
	}
}
