package handler

import (
	"time"

	ledgerapp "github.com/fincore/backend/internal/application/ledger"
	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *ledgerapp.Service
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *ledgerapp.Service) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ledger/provision", h.Provision)
	rg.GET("/ledger", h.Get)
	rg.POST("/ledger/transactions", h.Post)
	rg.GET("/ledger/transactions", h.ListByReference)
	rg.GET("/ledger/balances/:code", h.Balance)
}

// ProvisionRequest describes a tenant ledger provisioning call
type ProvisionRequest struct {
	Name     string `json:"name" binding:"required"`
	Currency string `json:"currency" binding:"required,len=3"`
}

// LedgerResponse represents a ledger in API responses
type LedgerResponse struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// EntryRequest is one side of a posting
type EntryRequest struct {
	AccountCode string `json:"account_code" binding:"required"`
	Direction   string `json:"direction" binding:"required,oneof=DEBIT CREDIT"`
	AmountMinor int64  `json:"amount_minor" binding:"required,gt=0"`
	Memo        string `json:"memo"`
}

// PostRequest describes a balanced transaction to post
type PostRequest struct {
	ReferenceType string         `json:"reference_type" binding:"required"`
	ReferenceID   string         `json:"reference_id" binding:"required,uuid"`
	Description   string         `json:"description"`
	Currency      string         `json:"currency" binding:"required,len=3"`
	Entries       []EntryRequest `json:"entries" binding:"required,min=2,dive"`
}

// EntryResponse represents one ledger entry in API responses
type EntryResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Direction   string `json:"direction"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Memo        string `json:"memo,omitempty"`
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID            string          `json:"id"`
	LedgerID      string          `json:"ledger_id"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Description   string          `json:"description,omitempty"`
	TransactionAt time.Time       `json:"transaction_at"`
	Currency      string          `json:"currency"`
	Entries       []EntryResponse `json:"entries"`
}

// BalanceResponse represents a derived account balance
type BalanceResponse struct {
	AccountCode string     `json:"account_code"`
	AmountMinor int64      `json:"amount_minor"`
	Currency    string     `json:"currency"`
	AsOf        *time.Time `json:"as_of,omitempty"`
}

// Provision creates the tenant ledger with the standard chart of accounts
func (h *LedgerHandler) Provision(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	l, err := h.ledgerService.ProvisionTenant(c.Request.Context(), tenantID, req.Name, valueobject.Currency(req.Currency))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toLedgerResponse(l))
}

// Get returns the tenant's ledger
func (h *LedgerHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	l, err := h.ledgerService.LedgerFor(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toLedgerResponse(l))
}

// Post posts a balanced transaction against the tenant ledger
func (h *LedgerHandler) Post(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	referenceID, err := uuid.Parse(req.ReferenceID)
	if err != nil {
		h.BadRequest(c, "Invalid reference_id")
		return
	}

	l, err := h.ledgerService.LedgerFor(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	entries := make([]ledgerapp.EntryCommand, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, ledgerapp.EntryCommand{
			AccountCode: e.AccountCode,
			Direction:   ledger.EntryDirection(e.Direction),
			AmountMinor: e.AmountMinor,
			Memo:        e.Memo,
		})
	}

	txn, err := h.ledgerService.Post(c.Request.Context(), ledgerapp.PostCommand{
		TenantID:      tenantID,
		LedgerID:      l.ID,
		ReferenceType: req.ReferenceType,
		ReferenceID:   referenceID,
		Description:   req.Description,
		TransactionAt: time.Now(),
		Currency:      valueobject.Currency(req.Currency),
		Entries:       entries,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTransactionResponse(txn))
}

// ListByReference returns the transactions posted for a business reference
func (h *LedgerHandler) ListByReference(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	referenceType := c.Query("reference_type")
	referenceID, err := uuid.Parse(c.Query("reference_id"))
	if referenceType == "" || err != nil {
		h.BadRequest(c, "reference_type and reference_id query parameters are required")
		return
	}

	txns, err := h.ledgerService.TransactionsFor(c.Request.Context(), tenantID, referenceType, referenceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionResponse(txn))
	}
	h.Success(c, out)
}

// Balance returns the derived balance of an account, optionally as of a
// point in time
func (h *LedgerHandler) Balance(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	code := c.Param("code")
	var asOf *time.Time
	if raw := c.Query("as_of"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "as_of must be RFC3339")
			return
		}
		asOf = &t
	}

	l, err := h.ledgerService.LedgerFor(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	balance, err := h.ledgerService.BalanceOf(c.Request.Context(), tenantID, l.ID, code, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BalanceResponse{
		AccountCode: code,
		AmountMinor: balance.AmountMinor(),
		Currency:    string(balance.Currency()),
		AsOf:        asOf,
	})
}

func toLedgerResponse(l *ledger.Ledger) LedgerResponse {
	return LedgerResponse{
		ID:       l.ID.String(),
		TenantID: l.TenantID.String(),
		Name:     l.Name,
		Currency: string(l.Currency),
	}
}

func toTransactionResponse(txn *ledger.Transaction) TransactionResponse {
	entries := make([]EntryResponse, 0, len(txn.Entries))
	for _, e := range txn.Entries {
		entries = append(entries, EntryResponse{
			ID:          e.ID.String(),
			AccountID:   e.AccountID.String(),
			Direction:   string(e.Direction),
			AmountMinor: e.AmountMinor,
			Currency:    string(e.Currency),
			Memo:        e.Memo,
		})
	}
	return TransactionResponse{
		ID:            txn.ID.String(),
		LedgerID:      txn.LedgerID.String(),
		ReferenceType: txn.ReferenceType,
		ReferenceID:   txn.ReferenceID.String(),
		Description:   txn.Description,
		TransactionAt: txn.TransactionAt,
		Currency:      string(txn.Currency),
		Entries:       entries,
	}
}
