package ledger

import (
	"context"
	"time"

	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EntryCommand is one line of a posting request, addressed by account code
type EntryCommand struct {
	AccountCode string
	Direction   ledger.EntryDirection
	AmountMinor int64
	Memo        string
}

// PostCommand describes a balanced transaction to post against a tenant
// ledger
type PostCommand struct {
	TenantID      uuid.UUID
	LedgerID      uuid.UUID
	ReferenceType string
	ReferenceID   uuid.UUID
	Description   string
	TransactionAt time.Time
	Currency      valueobject.Currency
	Entries       []EntryCommand
}

// Service is the application service for the double-entry ledger. It is
// the only write path into the ledger; every posting goes through the
// domain balance checks before anything reaches storage.
type Service struct {
	ledgers      ledger.LedgerRepository
	accounts     ledger.AccountRepository
	transactions ledger.TransactionRepository
	outbox       shared.OutboxEventSaver
	tx           shared.TxManager
	logger       *zap.Logger
}

// NewService creates a new ledger service
func NewService(
	ledgers ledger.LedgerRepository,
	accounts ledger.AccountRepository,
	transactions ledger.TransactionRepository,
	outbox shared.OutboxEventSaver,
	tx shared.TxManager,
	logger *zap.Logger,
) *Service {
	return &Service{
		ledgers:      ledgers,
		accounts:     accounts,
		transactions: transactions,
		outbox:       outbox,
		tx:           tx,
		logger:       logger,
	}
}

// ProvisionTenant creates a ledger with the standard chart of accounts for
// a new tenant
func (s *Service) ProvisionTenant(ctx context.Context, tenantID uuid.UUID, name string, currency valueobject.Currency) (*ledger.Ledger, error) {
	l, err := ledger.NewLedger(tenantID, name, currency)
	if err != nil {
		return nil, err
	}

	chart := []struct {
		code        string
		name        string
		accountType ledger.AccountType
	}{
		{ledger.AccountCodeCash, "Cash", ledger.AccountTypeCash},
		{ledger.AccountCodeAccountsReceivable, "Accounts Receivable", ledger.AccountTypeAccountsReceivable},
		{ledger.AccountCodeTaxPayable, "Tax Payable", ledger.AccountTypeTaxPayable},
		{ledger.AccountCodeRefundLiability, "Refund Liability", ledger.AccountTypeRefundLiability},
		{ledger.AccountCodeRevenue, "Revenue", ledger.AccountTypeRevenue},
		{ledger.AccountCodePlatformCommission, "Platform Commission", ledger.AccountTypePlatformCommission},
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ledgers.Save(ctx, l); err != nil {
			return err
		}
		for _, entry := range chart {
			account, err := ledger.NewAccount(tenantID, l.ID, entry.code, entry.name, entry.accountType)
			if err != nil {
				return err
			}
			if err := s.accounts.Save(ctx, account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tenant ledger provisioned",
		zap.String("tenant_id", tenantID.String()),
		zap.String("ledger_id", l.ID.String()),
		zap.String("currency", string(currency)))
	return l, nil
}

// LedgerFor returns the tenant's ledger
func (s *Service) LedgerFor(ctx context.Context, tenantID uuid.UUID) (*ledger.Ledger, error) {
	return s.ledgers.FindByTenant(ctx, tenantID)
}

// Post validates and commits a balanced transaction. Account codes are
// resolved within the tenant ledger; unknown or inactive accounts reject
// the whole posting. The transaction header, all entries and the outbox
// facts commit atomically.
func (s *Service) Post(ctx context.Context, cmd PostCommand) (*ledger.Transaction, error) {
	inputs := make([]ledger.EntryInput, 0, len(cmd.Entries))
	for _, e := range cmd.Entries {
		account, err := s.accounts.FindByCode(ctx, cmd.TenantID, cmd.LedgerID, e.AccountCode)
		if err != nil {
			return nil, ledger.ErrUnknownAccount
		}
		if !account.Active {
			return nil, ledger.ErrInactiveAccount
		}
		amount, err := valueobject.NewMoney(e.AmountMinor, cmd.Currency)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, ledger.EntryInput{
			AccountID: account.ID,
			Direction: e.Direction,
			Amount:    amount,
			Memo:      e.Memo,
		})
	}

	at := cmd.TransactionAt
	if at.IsZero() {
		at = time.Now()
	}

	txn, err := ledger.NewTransaction(cmd.TenantID, cmd.LedgerID, cmd.ReferenceType, cmd.ReferenceID, cmd.Description, at, inputs)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.transactions.Save(ctx, txn); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, txn.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	txn.ClearDomainEvents()

	s.logger.Info("ledger transaction posted",
		zap.String("tenant_id", cmd.TenantID.String()),
		zap.String("transaction_id", txn.ID.String()),
		zap.String("reference_type", cmd.ReferenceType),
		zap.String("reference_id", cmd.ReferenceID.String()),
		zap.Int64("debit_total", txn.DebitTotal()))
	return txn, nil
}

// BalanceOf folds committed entries into the account balance as of the
// given time. The balance is always derived from entries, never read from
// a stored column.
func (s *Service) BalanceOf(ctx context.Context, tenantID, ledgerID uuid.UUID, accountCode string, asOf *time.Time) (valueobject.Money, error) {
	account, err := s.accounts.FindByCode(ctx, tenantID, ledgerID, accountCode)
	if err != nil {
		return valueobject.Money{}, ledger.ErrUnknownAccount
	}
	l, err := s.ledgers.FindByID(ctx, tenantID, ledgerID)
	if err != nil {
		return valueobject.Money{}, err
	}
	entries, err := s.transactions.EntriesForAccount(ctx, tenantID, account.ID, asOf)
	if err != nil {
		return valueobject.Money{}, err
	}
	return account.BalanceFromEntries(entries, l.Currency, asOf), nil
}

// TransactionsFor returns all transactions recorded for a reference, e.g.
// every posting made for one financial order
func (s *Service) TransactionsFor(ctx context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID) ([]*ledger.Transaction, error) {
	return s.transactions.FindByReference(ctx, tenantID, referenceType, referenceID)
}
