package ledger

import (
	"time"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TransactionPostedEvent is raised when a balanced transaction is committed
type TransactionPostedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	LedgerID      uuid.UUID `json:"ledger_id"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   uuid.UUID `json:"reference_id"`
	DebitTotal    int64     `json:"debit_total"`
	Currency      string    `json:"currency"`
	TransactionAt time.Time `json:"transaction_at"`
}

// EventType returns the event type name
func (e *TransactionPostedEvent) EventType() string {
	return "LedgerTransactionPosted"
}

// NewTransactionPostedEvent creates a new TransactionPostedEvent
func NewTransactionPostedEvent(t *Transaction) *TransactionPostedEvent {
	return &TransactionPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LedgerTransactionPosted", "LedgerTransaction", t.ID, t.TenantID),
		TransactionID:   t.ID,
		LedgerID:        t.LedgerID,
		ReferenceType:   t.ReferenceType,
		ReferenceID:     t.ReferenceID,
		DebitTotal:      t.DebitTotal(),
		Currency:        string(t.Currency),
		TransactionAt:   t.TransactionAt,
	}
}
