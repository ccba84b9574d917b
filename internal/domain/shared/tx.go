package shared

import "context"

// TxManager runs a function inside one storage transaction. The transaction
// is carried in the returned context; repositories called with that context
// join it, so a multi-aggregate state change commits or rolls back as a
// unit.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
