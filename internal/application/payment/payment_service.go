package payment

import (
	"context"

	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/payment"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const confirmKeyPrefix = "payment:confirm:"

// OrderTransitioner is the slice of the order service the payment engine
// drives on capture outcomes
type OrderTransitioner interface {
	MarkPaid(ctx context.Context, tenantID, orderID uuid.UUID, providerRef string) (*order.FinancialOrder, error)
	Fail(ctx context.Context, tenantID, orderID uuid.UUID, reason string) (*order.FinancialOrder, error)
	Refund(ctx context.Context, tenantID, orderID uuid.UUID, amountMinor int64, reason string) (*order.Refund, error)
	FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*order.FinancialOrder, error)
}

// Service orchestrates payment attempts against the external provider.
// Provider calls happen outside the storage transaction; state only
// advances after the provider reports success.
type Service struct {
	payments    payment.PaymentRepository
	orders      OrderTransitioner
	gateway     payment.Gateway
	idempotency shared.IdempotencyStore
	idemCfg     shared.IdempotencyConfig
	outbox      shared.OutboxEventSaver
	tx          shared.TxManager
	logger      *zap.Logger
}

// NewService creates a new payment service
func NewService(
	payments payment.PaymentRepository,
	orders OrderTransitioner,
	gateway payment.Gateway,
	idempotency shared.IdempotencyStore,
	idemCfg shared.IdempotencyConfig,
	outbox shared.OutboxEventSaver,
	tx shared.TxManager,
	logger *zap.Logger,
) *Service {
	return &Service{
		payments:    payments,
		orders:      orders,
		gateway:     gateway,
		idempotency: idempotency,
		idemCfg:     idemCfg,
		outbox:      outbox,
		tx:          tx,
		logger:      logger,
	}
}

// CreatePaymentResult carries the provider handle back to the caller
type CreatePaymentResult struct {
	Payment      *payment.Payment
	ClientSecret string
}

// CreatePayment starts a payment attempt for a locked order. A provider
// intent is created for the order total and the payment is authorized
// against it.
func (s *Service) CreatePayment(ctx context.Context, tenantID, orderID uuid.UUID) (*CreatePaymentResult, error) {
	o, err := s.orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.OrderStatusPending {
		return nil, order.ErrInvalidOrderState
	}

	p, err := payment.NewPayment(tenantID, orderID, o.Total())
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, o.Total(), map[string]string{
		"tenant_id":    tenantID.String(),
		"order_id":     orderID.String(),
		"order_number": o.OrderNumber,
	})
	if err != nil {
		return nil, err
	}
	if err := p.Authorize(intent.ProviderPaymentID); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.payments.Save(ctx, p); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, p.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	p.ClearDomainEvents()

	s.logger.Info("payment created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("provider_payment_id", intent.ProviderPaymentID))
	return &CreatePaymentResult{Payment: p, ClientSecret: intent.ClientSecret}, nil
}

// Confirm records a successful capture reported by the provider. The call
// is idempotent on the provider payment ID: a replayed confirmation
// returns the already-succeeded payment without touching the order or the
// ledger again.
func (s *Service) Confirm(ctx context.Context, tenantID uuid.UUID, providerPaymentID string) (*payment.Payment, error) {
	p, err := s.payments.FindByProviderPaymentID(ctx, tenantID, providerPaymentID)
	if err != nil {
		return nil, err
	}

	if s.idemCfg.Enabled {
		fresh, err := s.idempotency.MarkProcessed(ctx, confirmKeyPrefix+providerPaymentID, s.idemCfg.TTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			if p.Status == payment.PaymentStatusSucceeded {
				return p, nil
			}
			return nil, payment.ErrPaymentAlreadyProcessed
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		expected := p.GetVersion()
		already, err := p.Confirm(providerPaymentID)
		if err != nil {
			return err
		}
		if already {
			return nil
		}
		if _, err := s.orders.MarkPaid(ctx, tenantID, p.OrderID, providerPaymentID); err != nil {
			return err
		}
		if err := s.payments.SaveWithLock(ctx, p, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, p.GetDomainEvents()...)
	})
	if err != nil {
		if s.idemCfg.Enabled {
			if unmarkErr := s.idempotency.Unmark(ctx, confirmKeyPrefix+providerPaymentID); unmarkErr != nil {
				s.logger.Warn("failed to release confirm claim",
					zap.String("provider_payment_id", providerPaymentID),
					zap.Error(unmarkErr))
			}
		}
		return nil, err
	}
	p.ClearDomainEvents()

	s.logger.Info("payment confirmed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", p.ID.String()),
		zap.String("provider_payment_id", providerPaymentID))
	return p, nil
}

// Fail records a capture failure and moves the order to FAILED
func (s *Service) Fail(ctx context.Context, tenantID, paymentID uuid.UUID, reason string) (*payment.Payment, error) {
	var p *payment.Payment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.payments.FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		expected := p.GetVersion()
		if err := p.Fail(reason); err != nil {
			return err
		}
		if _, err := s.orders.Fail(ctx, tenantID, p.OrderID, reason); err != nil {
			return err
		}
		if err := s.payments.SaveWithLock(ctx, p, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, p.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	p.ClearDomainEvents()
	return p, nil
}

// FailByProviderRef records a capture failure reported by the provider
func (s *Service) FailByProviderRef(ctx context.Context, tenantID uuid.UUID, providerPaymentID, reason string) (*payment.Payment, error) {
	p, err := s.payments.FindByProviderPaymentID(ctx, tenantID, providerPaymentID)
	if err != nil {
		return nil, err
	}
	return s.Fail(ctx, tenantID, p.ID, reason)
}

// Cancel voids a pending payment with the provider and locally
func (s *Service) Cancel(ctx context.Context, tenantID, paymentID uuid.UUID) (*payment.Payment, error) {
	p, err := s.payments.FindByID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if p.ProviderPaymentID != "" {
		if err := s.gateway.CancelPayment(ctx, p.ProviderPaymentID); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		expected := p.GetVersion()
		if err := p.Cancel(); err != nil {
			return err
		}
		if err := s.payments.SaveWithLock(ctx, p, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, p.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	p.ClearDomainEvents()
	return p, nil
}

// Refund asks the provider to refund part or all of a succeeded payment.
// The provider call comes first; no local state changes unless it
// succeeds. On success the order records the refund and posts the ledger
// reversal, and the payment flips to REFUNDED once fully refunded.
func (s *Service) Refund(ctx context.Context, tenantID, paymentID uuid.UUID, amountMinor int64, reason string) (*payment.Payment, error) {
	p, err := s.payments.FindByID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != payment.PaymentStatusSucceeded {
		return nil, payment.ErrPaymentNotRefundable
	}

	refundAmount, err := valueobject.NewMoney(amountMinor, p.Currency)
	if err != nil {
		return nil, err
	}

	gwRefund, err := s.gateway.Refund(ctx, p.ProviderPaymentID, refundAmount)
	if err != nil {
		s.logger.Warn("gateway refund failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("payment_id", paymentID.String()),
			zap.Error(err))
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		expected := p.GetVersion()
		if _, err := s.orders.Refund(ctx, tenantID, p.OrderID, amountMinor, reason); err != nil {
			return err
		}
		refreshed, err := s.orders.FindByID(ctx, tenantID, p.OrderID)
		if err != nil {
			return err
		}
		if refreshed.Status == order.OrderStatusRefunded {
			if err := p.MarkRefunded(); err != nil {
				return err
			}
		}
		if err := s.payments.SaveWithLock(ctx, p, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, p.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	p.ClearDomainEvents()

	s.logger.Info("payment refunded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.String("provider_refund_id", gwRefund.ProviderRefundID),
		zap.Int64("amount_minor", amountMinor))
	return p, nil
}
