package recipient

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Recipient records.
// The dispatch engine only ever reads; writes come from the management API.
type Repository interface {
	// Upsert inserts a recipient or, when the email already exists, replaces
	// the stored name and date of birth (last write wins).
	Upsert(ctx context.Context, r *Recipient) error
	GetByEmail(ctx context.Context, email string) (*Recipient, error)
	ListAll(ctx context.Context) ([]*Recipient, error)
	Count(ctx context.Context) (int, error)
}
