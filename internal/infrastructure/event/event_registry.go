package event

import (
	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/payment"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Ledger events
	serializer.Register("LedgerTransactionPosted", &ledger.TransactionPostedEvent{})

	// Financial order events
	serializer.Register("FinancialOrderCreated", &order.OrderCreatedEvent{})
	serializer.Register("FinancialOrderLocked", &order.OrderLockedEvent{})
	serializer.Register("FinancialOrderPaid", &order.OrderPaidEvent{})
	serializer.Register("FinancialOrderRefunded", &order.OrderRefundedEvent{})
	serializer.Register("FinancialOrderFailed", &order.OrderFailedEvent{})

	// Payment events
	serializer.Register("PaymentCreated", &payment.PaymentCreatedEvent{})
	serializer.Register("PaymentAuthorized", &payment.PaymentAuthorizedEvent{})
	serializer.Register("PaymentSucceeded", &payment.PaymentSucceededEvent{})
	serializer.Register("PaymentFailed", &payment.PaymentFailedEvent{})
	serializer.Register("PaymentCancelled", &payment.PaymentCancelledEvent{})
	serializer.Register("PaymentRefunded", &payment.PaymentRefundedEvent{})

	// Invoice events
	serializer.Register("InvoiceCreated", &invoice.InvoiceCreatedEvent{})
	serializer.Register("InvoiceIssued", &invoice.InvoiceIssuedEvent{})
	serializer.Register("InvoicePartiallyPaid", &invoice.InvoicePartiallyPaidEvent{})
	serializer.Register("InvoicePaid", &invoice.InvoicePaidEvent{})
	serializer.Register("CreditNoteIssued", &invoice.CreditNoteIssuedEvent{})
	serializer.Register("InvoiceVoided", &invoice.InvoiceVoidedEvent{})
}
