package handler

import (
	"time"

	invoiceapp "github.com/fincore/backend/internal/application/invoice"
	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *invoiceapp.Service
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *invoiceapp.Service) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/invoices", h.Create)
	rg.GET("/invoices/:id", h.GetByID)
	rg.POST("/invoices/:id/issue", h.Issue)
	rg.POST("/invoices/:id/payments", h.ApplyPayment)
	rg.POST("/invoices/:id/credit-notes", h.CreateCreditNote)
	rg.POST("/invoices/:id/void", h.Void)
}

// InvoiceLineRequest is one billable line of a draft invoice
type InvoiceLineRequest struct {
	Description    string `json:"description" binding:"required"`
	Quantity       string `json:"quantity" binding:"required"`
	UnitPriceMinor int64  `json:"unit_price_minor" binding:"required,gt=0"`
}

// CreateInvoiceRequest describes a standalone draft invoice
type CreateInvoiceRequest struct {
	CustomerID   string               `json:"customer_id" binding:"required,uuid"`
	Currency     string               `json:"currency" binding:"required,len=3"`
	Lines        []InvoiceLineRequest `json:"lines" binding:"dive"`
	AllowOverpay bool                 `json:"allow_overpay"`
}

// ApplyInvoicePaymentRequest applies a payment to an issued invoice
type ApplyInvoicePaymentRequest struct {
	PaymentID   string `json:"payment_id" binding:"required,uuid"`
	AmountMinor int64  `json:"amount_minor" binding:"required,gt=0"`
}

// CreateCreditNoteRequest issues a credit note against an invoice
type CreateCreditNoteRequest struct {
	AmountMinor int64  `json:"amount_minor" binding:"required,gt=0"`
	Reason      string `json:"reason" binding:"required"`
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Quantity       string `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	LineTotalMinor int64  `json:"line_total_minor"`
}

// InvoicePaymentResponse represents an applied payment
type InvoicePaymentResponse struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"payment_id"`
	AmountMinor int64     `json:"amount_minor"`
	AppliedAt   time.Time `json:"applied_at"`
}

// CreditNoteResponse represents a credit note in API responses
type CreditNoteResponse struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	AmountMinor int64     `json:"amount_minor"`
	Reason      string    `json:"reason,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID              string                   `json:"id"`
	TenantID        string                   `json:"tenant_id"`
	InvoiceNumber   string                   `json:"invoice_number"`
	OrderID         string                   `json:"order_id,omitempty"`
	CustomerID      string                   `json:"customer_id"`
	Status          string                   `json:"status"`
	Currency        string                   `json:"currency"`
	Lines           []InvoiceLineResponse    `json:"lines"`
	TotalMinor      int64                    `json:"total_minor"`
	PaidMinor       int64                    `json:"paid_minor"`
	CreditedMinor   int64                    `json:"credited_minor"`
	BalanceDueMinor int64                    `json:"balance_due_minor"`
	OverpaidMinor   int64                    `json:"overpaid_minor,omitempty"`
	AllowOverpay    bool                     `json:"allow_overpay"`
	Payments        []InvoicePaymentResponse `json:"payments,omitempty"`
	CreditNotes     []CreditNoteResponse     `json:"credit_notes,omitempty"`
	IssuedAt        *time.Time               `json:"issued_at,omitempty"`
	PaidAt          *time.Time               `json:"paid_at,omitempty"`
	VoidedAt        *time.Time               `json:"voided_at,omitempty"`
	Version         int                      `json:"version"`
}

// Create creates a standalone draft invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer_id")
		return
	}

	lines := make([]invoiceapp.LineCommand, 0, len(req.Lines))
	for _, l := range req.Lines {
		quantity, err := decimal.NewFromString(l.Quantity)
		if err != nil {
			h.BadRequest(c, "Invalid line quantity")
			return
		}
		lines = append(lines, invoiceapp.LineCommand{
			Description:    l.Description,
			Quantity:       quantity,
			UnitPriceMinor: l.UnitPriceMinor,
		})
	}

	inv, err := h.invoiceService.CreateDraft(c.Request.Context(), invoiceapp.CreateDraftCommand{
		TenantID:     tenantID,
		CustomerID:   customerID,
		Currency:     valueobject.Currency(req.Currency),
		Lines:        lines,
		AllowOverpay: req.AllowOverpay,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(inv))
}

// GetByID returns an invoice
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.FindByID(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// Issue locks the invoice lines and opens it for payment
func (h *InvoiceHandler) Issue(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.Issue(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// ApplyPayment applies a payment to an issued invoice
func (h *InvoiceHandler) ApplyPayment(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	var req ApplyInvoicePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		h.BadRequest(c, "Invalid payment_id")
		return
	}

	inv, err := h.invoiceService.ApplyPayment(c.Request.Context(), tenantID, invoiceID, paymentID, req.AmountMinor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// CreateCreditNote issues a credit note against an issued invoice
func (h *InvoiceHandler) CreateCreditNote(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	var req CreateCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	note, err := h.invoiceService.CreateCreditNote(c.Request.Context(), tenantID, invoiceID, req.AmountMinor, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCreditNoteResponse(*note))
}

// Void voids an invoice under the configured void policy
func (h *InvoiceHandler) Void(c *gin.Context) {
	tenantID, invoiceID, ok := h.tenantAndInvoice(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.Void(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

func (h *InvoiceHandler) tenantAndInvoice(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return uuid.Nil, uuid.Nil, false
	}
	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, invoiceID, true
}

func toInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, InvoiceLineResponse{
			ID:             l.ID.String(),
			Description:    l.Description,
			Quantity:       l.Quantity.String(),
			UnitPriceMinor: l.UnitPriceMinor,
			LineTotalMinor: l.LineTotalMinor,
		})
	}
	payments := make([]InvoicePaymentResponse, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		payments = append(payments, InvoicePaymentResponse{
			ID:          p.ID.String(),
			PaymentID:   p.PaymentID.String(),
			AmountMinor: p.AmountMinor,
			AppliedAt:   p.AppliedAt,
		})
	}
	notes := make([]CreditNoteResponse, 0, len(inv.CreditNotes))
	for _, n := range inv.CreditNotes {
		notes = append(notes, toCreditNoteResponse(n))
	}

	orderID := ""
	if inv.OrderID != uuid.Nil {
		orderID = inv.OrderID.String()
	}
	return InvoiceResponse{
		ID:              inv.ID.String(),
		TenantID:        inv.TenantID.String(),
		InvoiceNumber:   inv.InvoiceNumber,
		OrderID:         orderID,
		CustomerID:      inv.CustomerID.String(),
		Status:          string(inv.Status),
		Currency:        string(inv.Currency),
		Lines:           lines,
		TotalMinor:      inv.TotalMinor,
		PaidMinor:       inv.PaidMinor,
		CreditedMinor:   inv.CreditedMinor,
		BalanceDueMinor: inv.BalanceDueMinor(),
		OverpaidMinor:   inv.OverpaidMinor,
		AllowOverpay:    inv.AllowOverpay,
		Payments:        payments,
		CreditNotes:     notes,
		IssuedAt:        inv.IssuedAt,
		PaidAt:          inv.PaidAt,
		VoidedAt:        inv.VoidedAt,
		Version:         inv.GetVersion(),
	}
}

func toCreditNoteResponse(n invoice.CreditNote) CreditNoteResponse {
	return CreditNoteResponse{
		ID:          n.ID.String(),
		Number:      n.Number,
		AmountMinor: n.AmountMinor,
		Reason:      n.Reason,
		IssuedAt:    n.IssuedAt,
	}
}
