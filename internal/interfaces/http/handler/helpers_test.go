package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fincore/backend/internal/application/apptest"
	invoiceapp "github.com/fincore/backend/internal/application/invoice"
	ledgerapp "github.com/fincore/backend/internal/application/ledger"
	orderapp "github.com/fincore/backend/internal/application/order"
	paymentapp "github.com/fincore/backend/internal/application/payment"
	reconciliationapp "github.com/fincore/backend/internal/application/reconciliation"
	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/interfaces/http/dto"
	"github.com/fincore/backend/internal/interfaces/http/middleware"
	"github.com/fincore/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fixture wires real application services over in-memory repositories
// behind a tenant-guarded test router
type fixture struct {
	engine   *gin.Engine
	tenantID uuid.UUID
	gateway  *apptest.FakeGateway

	paymentService *paymentapp.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := zap.NewNop()
	tx := apptest.PassthroughTx{}
	outbox := &apptest.OutboxCollector{}
	ledgers := apptest.NewLedgerRepo()
	accounts := apptest.NewAccountRepo()
	transactions := apptest.NewTransactionRepo()
	orders := apptest.NewOrderRepo()
	refunds := apptest.NewRefundRepo()
	payments := apptest.NewPaymentRepo()
	invoices := apptest.NewInvoiceRepo()
	reports := apptest.NewReportRepo()
	gw := &apptest.FakeGateway{}

	ledgerService := ledgerapp.NewService(ledgers, accounts, transactions, outbox, tx, log)
	orderService := orderapp.NewService(orders, refunds, ledgers, ledgerService, outbox, tx, log)
	paymentService := paymentapp.NewService(
		payments, orderService, gw, apptest.NewMemoryIdempotency(),
		shared.IdempotencyConfig{TTL: time.Hour, Enabled: true}, outbox, tx, log)
	invoiceService := invoiceapp.NewService(invoices, ledgers, ledgerService, outbox, tx, invoice.VoidPolicyStrict, log)
	reconciliationService := reconciliationapp.NewService(ledgers, accounts, transactions, orders, invoices, reports, log)

	engine := gin.New()
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(NewLedgerHandler(ledgerService)).
		Register(NewOrderHandler(orderService)).
		Register(NewPaymentHandler(paymentService)).
		Register(NewInvoiceHandler(invoiceService)).
		Register(NewReconciliationHandler(reconciliationService))
	r.Setup(middleware.RequireTenant())

	return &fixture{
		engine:         engine,
		tenantID:       uuid.New(),
		gateway:        gw,
		paymentService: paymentService,
	}
}

// do performs a tenant-scoped request against the test router
func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeader, f.tenantID.String())

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

// decodeData unmarshals the data payload of a success envelope
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success, "expected success envelope, got: %s", w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

// decodeError unmarshals the error payload of a failure envelope
func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.False(t, env.Success, "expected error envelope, got: %s", w.Body.String())
	require.NotNil(t, env.Error)
	return env.Error
}
