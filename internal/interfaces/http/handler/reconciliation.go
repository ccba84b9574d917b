package handler

import (
	"time"

	reconciliationapp "github.com/fincore/backend/internal/application/reconciliation"
	"github.com/fincore/backend/internal/domain/reconciliation"
	"github.com/gin-gonic/gin"
)

// ReconciliationHandler handles drift sweep API endpoints
type ReconciliationHandler struct {
	BaseHandler
	reconciliationService *reconciliationapp.Service
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciliationService *reconciliationapp.Service) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

// RegisterRoutes registers reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reconciliation/sweep", h.Sweep)
	rg.GET("/reconciliation/report", h.LatestReport)
}

// FindingResponse represents one drift finding
type FindingResponse struct {
	Code          string `json:"code"`
	Severity      string `json:"severity"`
	AggregateType string `json:"aggregate_type"`
	AggregateID   string `json:"aggregate_id"`
	ExpectedMinor int64  `json:"expected_minor"`
	ActualMinor   int64  `json:"actual_minor"`
	DriftMinor    int64  `json:"drift_minor"`
	Detail        string `json:"detail,omitempty"`
}

// ReportResponse represents a sweep report in API responses
type ReportResponse struct {
	ID               string            `json:"id"`
	TenantID         string            `json:"tenant_id"`
	GeneratedAt      time.Time         `json:"generated_at"`
	TransactionsSeen int               `json:"transactions_seen"`
	OrdersChecked    int               `json:"orders_checked"`
	InvoicesChecked  int               `json:"invoices_checked"`
	Clean            bool              `json:"clean"`
	Findings         []FindingResponse `json:"findings"`
}

// Sweep runs an on-demand reconciliation sweep for the caller's tenant.
// The sweep reports drift; it never writes corrections.
func (h *ReconciliationHandler) Sweep(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	report, err := h.reconciliationService.ReconcileTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReportResponse(report))
}

// LatestReport returns the most recent sweep report for the tenant
func (h *ReconciliationHandler) LatestReport(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	report, err := h.reconciliationService.LatestReport(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReportResponse(report))
}

func toReportResponse(report *reconciliation.Report) ReportResponse {
	findings := make([]FindingResponse, 0, len(report.Findings))
	for _, f := range report.Findings {
		findings = append(findings, FindingResponse{
			Code:          f.Code,
			Severity:      string(f.Severity),
			AggregateType: f.AggregateType,
			AggregateID:   f.AggregateID.String(),
			ExpectedMinor: f.ExpectedMinor,
			ActualMinor:   f.ActualMinor,
			DriftMinor:    f.DriftMinor(),
			Detail:        f.Detail,
		})
	}
	return ReportResponse{
		ID:               report.ID.String(),
		TenantID:         report.TenantID.String(),
		GeneratedAt:      report.GeneratedAt,
		TransactionsSeen: report.TransactionsSeen,
		OrdersChecked:    report.OrdersChecked,
		InvoicesChecked:  report.InvoicesChecked,
		Clean:            report.Clean(),
		Findings:         findings,
	}
}
