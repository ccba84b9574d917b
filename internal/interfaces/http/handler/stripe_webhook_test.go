package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	paymentapp "github.com/fincore/backend/internal/application/payment"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newWebhookEngine(t *testing.T) *gin.Engine {
	t.Helper()

	f := newFixture(t)
	webhookService := paymentapp.NewWebhookService(f.paymentService, "whsec_test", zap.NewNop())
	engine := gin.New()
	engine.POST("/webhooks/stripe", NewStripeWebhookHandler(webhookService).HandleStripeWebhook)
	return engine
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	engine := newWebhookEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"type":"payment_intent.succeeded"}`))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Missing Stripe-Signature")
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	engine := newWebhookEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"type":"payment_intent.succeeded"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "signature verification failed")
}

func TestStripeWebhook_PayloadTooLarge(t *testing.T) {
	engine := newWebhookEngine(t)

	body := strings.NewReader(strings.Repeat("x", maxWebhookPayloadSize+1))
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", body)
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
