package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fincore/backend/internal/domain/payment"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// WebhookResult summarizes the handling of one provider event
type WebhookResult struct {
	EventID   string
	EventType string
	Processed bool
	Message   string
}

// WebhookService verifies and applies Stripe webhook events. Capture
// confirmations and failures arrive here; the underlying service calls
// are idempotent on the provider payment ID, so replayed deliveries are
// harmless.
type WebhookService struct {
	payments      *Service
	webhookSecret string
	logger        *zap.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(payments *Service, webhookSecret string, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		payments:      payments,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// ProcessWebhook verifies the event signature and dispatches by type
func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		s.logger.Error("webhook signature verification failed", zap.Error(err))
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	s.logger.Info("processing provider webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	switch event.Type {
	case "payment_intent.succeeded":
		err = s.handlePaymentIntentSucceeded(ctx, event)
	case "payment_intent.payment_failed":
		err = s.handlePaymentIntentFailed(ctx, event)
	default:
		s.logger.Debug("unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		result.Processed = false
		result.Message = "Event type not handled"
		return result, nil
	}

	if err != nil {
		// A replayed confirmation for an already-settled payment is not
		// an error worth retrying
		if errors.Is(err, payment.ErrPaymentAlreadyProcessed) {
			result.Message = "Payment already processed"
			return result, nil
		}
		result.Processed = false
		return result, err
	}

	result.Message = "Webhook processed successfully"
	return result, nil
}

func (s *WebhookService) handlePaymentIntentSucceeded(ctx context.Context, event stripe.Event) error {
	pi, tenantID, err := s.parsePaymentIntent(event)
	if err != nil {
		return err
	}
	_, err = s.payments.Confirm(ctx, tenantID, pi.ID)
	return err
}

func (s *WebhookService) handlePaymentIntentFailed(ctx context.Context, event stripe.Event) error {
	pi, tenantID, err := s.parsePaymentIntent(event)
	if err != nil {
		return err
	}
	reason := "payment failed"
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		reason = pi.LastPaymentError.Msg
	}
	_, err = s.payments.FailByProviderRef(ctx, tenantID, pi.ID, reason)
	return err
}

// parsePaymentIntent unmarshals the event payload and resolves the tenant
// from the intent metadata written at creation time
func (s *WebhookService) parsePaymentIntent(event stripe.Event) (*stripe.PaymentIntent, uuid.UUID, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, uuid.Nil, fmt.Errorf("failed to parse payment intent: %w", err)
	}
	raw, ok := pi.Metadata["tenant_id"]
	if !ok {
		return nil, uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Payment intent has no tenant metadata")
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return nil, uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Payment intent tenant metadata is malformed")
	}
	return &pi, tenantID, nil
}
