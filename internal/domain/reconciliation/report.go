package reconciliation

import (
	"context"
	"time"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Severity grades a reconciliation finding
type Severity string

const (
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Finding check codes
const (
	CheckUnbalancedTransaction = "UNBALANCED_TRANSACTION"
	CheckCashDrift             = "CASH_DRIFT"
	CheckTaxDrift              = "TAX_DRIFT"
	CheckOrderRefundOverrun    = "ORDER_REFUND_OVERRUN"
	CheckOrderStatusMismatch   = "ORDER_STATUS_MISMATCH"
	CheckInvoiceBalanceLaw     = "INVOICE_BALANCE_LAW"
	CheckInvoiceStatusMismatch = "INVOICE_STATUS_MISMATCH"
)

// Finding is one detected inconsistency. Reconciliation only reports;
// correction is a human decision backed by an offsetting posting.
type Finding struct {
	Code          string    `json:"code"`
	Severity      Severity  `json:"severity"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
	ExpectedMinor int64     `json:"expected_minor"`
	ActualMinor   int64     `json:"actual_minor"`
	Detail        string    `json:"detail"`
}

// DriftMinor returns the signed difference between actual and expected
func (f Finding) DriftMinor() int64 {
	return f.ActualMinor - f.ExpectedMinor
}

// Report is the outcome of one reconciliation sweep over a tenant
type Report struct {
	shared.TenantAggregateRoot
	GeneratedAt      time.Time
	TransactionsSeen int
	OrdersChecked    int
	InvoicesChecked  int
	Findings         []Finding
}

// NewReport creates an empty report for a tenant sweep
func NewReport(tenantID uuid.UUID) *Report {
	return &Report{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		GeneratedAt:         time.Now(),
		Findings:            []Finding{},
	}
}

// AddFinding records one inconsistency
func (r *Report) AddFinding(f Finding) {
	r.Findings = append(r.Findings, f)
}

// Clean reports whether the sweep found no drift
func (r *Report) Clean() bool {
	return len(r.Findings) == 0
}

// HasCritical reports whether any finding is critical
func (r *Report) HasCritical() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// ReportRepository persists reconciliation reports
type ReportRepository interface {
	Save(ctx context.Context, r *Report) error
	FindLatest(ctx context.Context, tenantID uuid.UUID) (*Report, error)
	FindSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*Report, error)
}
