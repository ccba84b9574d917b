package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LedgerRepository persists tenant ledgers
type LedgerRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Ledger, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*Ledger, error)
	// ListTenants returns every tenant that owns a ledger
	ListTenants(ctx context.Context) ([]uuid.UUID, error)
	Save(ctx context.Context, l *Ledger) error
}

// AccountRepository persists ledger accounts. Accounts are created by setup
// migrations; engines only read them.
type AccountRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	FindByCode(ctx context.Context, tenantID, ledgerID uuid.UUID, code string) (*Account, error)
	FindByLedger(ctx context.Context, tenantID, ledgerID uuid.UUID) ([]*Account, error)
	Save(ctx context.Context, a *Account) error
}

// TransactionRepository persists ledger transactions. The interface is
// deliberately insert-only: there is no update or delete entry point for
// transactions or entries, which keeps the ledger append-only at the API
// level rather than relying on database permissions.
type TransactionRepository interface {
	// Save inserts the transaction header and all entries atomically
	Save(ctx context.Context, t *Transaction) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)
	FindByReference(ctx context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID) ([]*Transaction, error)
	FindByLedger(ctx context.Context, tenantID, ledgerID uuid.UUID) ([]*Transaction, error)
	// EntriesForAccount returns all committed entries for an account,
	// optionally bounded by an as-of time, ordered by transaction time
	EntriesForAccount(ctx context.Context, tenantID, accountID uuid.UUID, asOf *time.Time) ([]Entry, error)
}
