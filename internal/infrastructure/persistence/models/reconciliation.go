package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/fincore/backend/internal/domain/reconciliation"
)

// FindingList stores reconciliation findings as a jsonb column
type FindingList []reconciliation.Finding

// Value implements driver.Valuer
func (l FindingList) Value() (driver.Value, error) {
	return json.Marshal([]reconciliation.Finding(l))
}

// Scan implements sql.Scanner
func (l *FindingList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// ReconciliationReportModel is the GORM model for reconciliation reports
type ReconciliationReportModel struct {
	TenantAggregateModel
	GeneratedAt      time.Time   `gorm:"not null;index"`
	TransactionsSeen int         `gorm:"not null;default:0"`
	OrdersChecked    int         `gorm:"not null;default:0"`
	InvoicesChecked  int         `gorm:"not null;default:0"`
	Findings         FindingList `gorm:"type:jsonb"`
}

// TableName specifies the table name
func (ReconciliationReportModel) TableName() string {
	return "reconciliation_reports"
}

// ToDomain converts the model to a domain entity
func (m *ReconciliationReportModel) ToDomain() *reconciliation.Report {
	r := &reconciliation.Report{
		GeneratedAt:      m.GeneratedAt,
		TransactionsSeen: m.TransactionsSeen,
		OrdersChecked:    m.OrdersChecked,
		InvoicesChecked:  m.InvoicesChecked,
		Findings:         append([]reconciliation.Finding(nil), m.Findings...),
	}
	m.PopulateTenantAggregateRoot(&r.TenantAggregateRoot)
	return r
}

// FromDomain updates the model from a domain entity
func (m *ReconciliationReportModel) FromDomain(r *reconciliation.Report) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.GeneratedAt = r.GeneratedAt
	m.TransactionsSeen = r.TransactionsSeen
	m.OrdersChecked = r.OrdersChecked
	m.InvoicesChecked = r.InvoicesChecked
	m.Findings = FindingList(r.Findings)
}

// ReconciliationReportModelFromDomain creates a new model from a domain entity
func ReconciliationReportModelFromDomain(r *reconciliation.Report) *ReconciliationReportModel {
	m := &ReconciliationReportModel{}
	m.FromDomain(r)
	return m
}
