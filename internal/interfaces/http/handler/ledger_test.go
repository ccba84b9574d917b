package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func provisionLedger(t *testing.T, f *fixture) LedgerResponse {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/v1/ledger/provision", ProvisionRequest{
		Name:     "Main Ledger",
		Currency: "EUR",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp LedgerResponse
	decodeData(t, w, &resp)
	return resp
}

func TestLedgerProvisionAndGet(t *testing.T) {
	f := newFixture(t)

	created := provisionLedger(t, f)
	assert.Equal(t, f.tenantID.String(), created.TenantID)
	assert.Equal(t, "EUR", created.Currency)

	w := f.do(t, http.MethodGet, "/api/v1/ledger", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got LedgerResponse
	decodeData(t, w, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Main Ledger", got.Name)
}

func TestLedgerGet_NotProvisioned(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/ledger", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
}

func TestLedgerPostTransaction(t *testing.T) {
	f := newFixture(t)
	provisionLedger(t, f)
	referenceID := uuid.New()

	w := f.do(t, http.MethodPost, "/api/v1/ledger/transactions", PostRequest{
		ReferenceType: "manual",
		ReferenceID:   referenceID.String(),
		Description:   "opening balance",
		Currency:      "EUR",
		Entries: []EntryRequest{
			{AccountCode: "1000", Direction: "DEBIT", AmountMinor: 5000},
			{AccountCode: "4000", Direction: "CREDIT", AmountMinor: 5000},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var txn TransactionResponse
	decodeData(t, w, &txn)
	assert.Equal(t, "manual", txn.ReferenceType)
	assert.Equal(t, referenceID.String(), txn.ReferenceID)
	assert.Len(t, txn.Entries, 2)

	// Derived balance reflects the posting
	w = f.do(t, http.MethodGet, "/api/v1/ledger/balances/1000", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var balance BalanceResponse
	decodeData(t, w, &balance)
	assert.Equal(t, int64(5000), balance.AmountMinor)
	assert.Equal(t, "EUR", balance.Currency)

	// Listing by reference finds the transaction
	w = f.do(t, http.MethodGet, "/api/v1/ledger/transactions?reference_type=manual&reference_id="+referenceID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var txns []TransactionResponse
	decodeData(t, w, &txns)
	require.Len(t, txns, 1)
	assert.Equal(t, txn.ID, txns[0].ID)
}

func TestLedgerPostTransaction_Unbalanced(t *testing.T) {
	f := newFixture(t)
	provisionLedger(t, f)

	w := f.do(t, http.MethodPost, "/api/v1/ledger/transactions", PostRequest{
		ReferenceType: "manual",
		ReferenceID:   uuid.New().String(),
		Currency:      "EUR",
		Entries: []EntryRequest{
			{AccountCode: "1000", Direction: "DEBIT", AmountMinor: 5000},
			{AccountCode: "4000", Direction: "CREDIT", AmountMinor: 4000},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "UNBALANCED_TRANSACTION", decodeError(t, w).Code)
}

func TestLedgerPostTransaction_UnknownAccount(t *testing.T) {
	f := newFixture(t)
	provisionLedger(t, f)

	w := f.do(t, http.MethodPost, "/api/v1/ledger/transactions", PostRequest{
		ReferenceType: "manual",
		ReferenceID:   uuid.New().String(),
		Currency:      "EUR",
		Entries: []EntryRequest{
			{AccountCode: "9999", Direction: "DEBIT", AmountMinor: 100},
			{AccountCode: "4000", Direction: "CREDIT", AmountMinor: 100},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "UNKNOWN_ACCOUNT", decodeError(t, w).Code)
}

func TestLedgerRoutes_RequireTenantHeader(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger", nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
