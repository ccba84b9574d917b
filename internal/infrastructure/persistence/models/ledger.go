package models

import (
	"time"

	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// LedgerModel is the GORM model for ledgers
type LedgerModel struct {
	TenantAggregateModel
	Name     string `gorm:"type:varchar(255);not null"`
	Currency string `gorm:"type:varchar(3);not null"`
}

// TableName specifies the table name
func (LedgerModel) TableName() string {
	return "ledgers"
}

// ToDomain converts the model to a domain entity
func (m *LedgerModel) ToDomain() *ledger.Ledger {
	l := &ledger.Ledger{
		Name:     m.Name,
		Currency: valueobject.Currency(m.Currency),
	}
	m.PopulateTenantAggregateRoot(&l.TenantAggregateRoot)
	return l
}

// FromDomain updates the model from a domain entity
func (m *LedgerModel) FromDomain(l *ledger.Ledger) {
	m.FromDomainTenantAggregateRoot(l.TenantAggregateRoot)
	m.Name = l.Name
	m.Currency = string(l.Currency)
}

// LedgerModelFromDomain creates a new model from a domain entity
func LedgerModelFromDomain(l *ledger.Ledger) *LedgerModel {
	m := &LedgerModel{}
	m.FromDomain(l)
	return m
}

// AccountModel is the GORM model for ledger accounts
type AccountModel struct {
	TenantAggregateModel
	LedgerID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_account_ledger_code,priority:1"`
	Code     string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_account_ledger_code,priority:2"`
	Name     string    `gorm:"type:varchar(255);not null"`
	Type     string    `gorm:"type:varchar(32);not null"`
	Active   bool      `gorm:"not null;default:true"`
}

// TableName specifies the table name
func (AccountModel) TableName() string {
	return "ledger_accounts"
}

// ToDomain converts the model to a domain entity
func (m *AccountModel) ToDomain() *ledger.Account {
	a := &ledger.Account{
		LedgerID: m.LedgerID,
		Code:     m.Code,
		Name:     m.Name,
		Type:     ledger.AccountType(m.Type),
		Active:   m.Active,
	}
	m.PopulateTenantAggregateRoot(&a.TenantAggregateRoot)
	return a
}

// FromDomain updates the model from a domain entity
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.LedgerID = a.LedgerID
	m.Code = a.Code
	m.Name = a.Name
	m.Type = string(a.Type)
	m.Active = a.Active
}

// AccountModelFromDomain creates a new model from a domain entity
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// TransactionModel is the GORM model for posted ledger transactions.
// Rows are append-only: the repository never updates or deletes them.
type TransactionModel struct {
	TenantAggregateModel
	LedgerID      uuid.UUID    `gorm:"type:uuid;not null;index"`
	ReferenceType string       `gorm:"type:varchar(64);not null;index:idx_tx_reference,priority:2"`
	ReferenceID   uuid.UUID    `gorm:"type:uuid;not null;index:idx_tx_reference,priority:3"`
	Description   string       `gorm:"type:varchar(512)"`
	TransactionAt time.Time    `gorm:"not null;index"`
	Currency      string       `gorm:"type:varchar(3);not null"`
	Entries       []EntryModel `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName specifies the table name
func (TransactionModel) TableName() string {
	return "ledger_transactions"
}

// EntryModel is the GORM model for individual debit/credit lines
type EntryModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index:idx_entry_tenant_account,priority:1"`
	AccountID     uuid.UUID `gorm:"type:uuid;not null;index:idx_entry_tenant_account,priority:2"`
	Direction     string    `gorm:"type:varchar(8);not null"`
	AmountMinor   int64     `gorm:"not null"`
	Currency      string    `gorm:"type:varchar(3);not null"`
	Memo          string    `gorm:"type:varchar(255)"`
	TransactionAt time.Time `gorm:"not null"`
}

// TableName specifies the table name
func (EntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the model to a domain entity
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	tx := &ledger.Transaction{
		LedgerID:      m.LedgerID,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Description:   m.Description,
		TransactionAt: m.TransactionAt,
		Currency:      valueobject.Currency(m.Currency),
		Entries:       make([]ledger.Entry, len(m.Entries)),
	}
	for i, e := range m.Entries {
		tx.Entries[i] = ledger.Entry{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			AccountID:     e.AccountID,
			Direction:     ledger.EntryDirection(e.Direction),
			AmountMinor:   e.AmountMinor,
			Currency:      valueobject.Currency(e.Currency),
			Memo:          e.Memo,
			TransactionAt: e.TransactionAt,
		}
	}
	m.PopulateTenantAggregateRoot(&tx.TenantAggregateRoot)
	return tx
}

// FromDomain updates the model from a domain entity
func (m *TransactionModel) FromDomain(tx *ledger.Transaction) {
	m.FromDomainTenantAggregateRoot(tx.TenantAggregateRoot)
	m.LedgerID = tx.LedgerID
	m.ReferenceType = tx.ReferenceType
	m.ReferenceID = tx.ReferenceID
	m.Description = tx.Description
	m.TransactionAt = tx.TransactionAt
	m.Currency = string(tx.Currency)
	m.Entries = make([]EntryModel, len(tx.Entries))
	for i, e := range tx.Entries {
		m.Entries[i] = EntryModel{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			TenantID:      tx.TenantID,
			AccountID:     e.AccountID,
			Direction:     string(e.Direction),
			AmountMinor:   e.AmountMinor,
			Currency:      string(e.Currency),
			Memo:          e.Memo,
			TransactionAt: e.TransactionAt,
		}
	}
}

// TransactionModelFromDomain creates a new model from a domain entity
func TransactionModelFromDomain(tx *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(tx)
	return m
}
