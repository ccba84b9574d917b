package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliationSweep_CleanAfterSettledOrder(t *testing.T) {
	f := newFixture(t)
	o := lockOrder(t, f)
	created := createPayment(t, f, o.ID)

	w := f.do(t, http.MethodPost, "/api/v1/payments/confirm", ConfirmPaymentRequest{
		ProviderPaymentID: created.Payment.ProviderPaymentID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/reconciliation/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report ReportResponse
	decodeData(t, w, &report)
	assert.True(t, report.Clean)
	assert.Empty(t, report.Findings)
	assert.Equal(t, 1, report.OrdersChecked)
	assert.Equal(t, f.tenantID.String(), report.TenantID)
}

func TestReconciliationLatestReport(t *testing.T) {
	f := newFixture(t)
	provisionLedger(t, f)

	w := f.do(t, http.MethodPost, "/api/v1/reconciliation/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var swept ReportResponse
	decodeData(t, w, &swept)

	w = f.do(t, http.MethodGet, "/api/v1/reconciliation/report", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var latest ReportResponse
	decodeData(t, w, &latest)
	assert.Equal(t, swept.ID, latest.ID)
}

func TestReconciliationLatestReport_NoSweepYet(t *testing.T) {
	f := newFixture(t)
	provisionLedger(t, f)

	w := f.do(t, http.MethodGet, "/api/v1/reconciliation/report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
}
