package event

import (
	"context"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// OutboxPublisher writes domain events to the outbox table within the
// transaction carried by the context. The outbox row commits or rolls back
// together with the aggregate change that produced the event
type OutboxPublisher struct {
	db         *gorm.DB
	serializer *EventSerializer
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(db *gorm.DB, serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{
		db:         db,
		serializer: serializer,
	}
}

// SaveEvents implements the shared.OutboxEventSaver interface.
// Events are written using the transaction in the context when one is active
func (p *OutboxPublisher) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}

		entries = append(entries, shared.NewOutboxEntry(event.TenantID(), event, payload))
	}

	tx := persistence.DBFromContext(ctx, p.db)
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// Ensure OutboxPublisher implements OutboxEventSaver
var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
