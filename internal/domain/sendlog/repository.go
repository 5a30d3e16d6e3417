package sendlog

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyClaimed is returned by TryClaim when a record for the same
// (email, day) pair already exists. It is not a failure: it means another
// invocation got there first and the recipient must not be notified again.
var ErrAlreadyClaimed = errors.New("send already claimed for this recipient and day")

// Repository defines operations on the send-history store.
//
// TryClaim must be atomic at the storage layer (unique-constraint conditional
// insert or equivalent). It is the sole correctness mechanism for the
// at-most-once-per-day guarantee; everything else in the engine is
// optimization on top of it.
type Repository interface {
	// TryClaim atomically inserts rec keyed on (rec.Email, rec.SentDay).
	// On success rec.ID is populated and the caller owns the send.
	// Returns ErrAlreadyClaimed if the slot is taken.
	TryClaim(ctx context.Context, rec *Record) error

	// Rollback removes a claim previously inserted by TryClaim so a later
	// cycle can retry the recipient. Removing a non-existent claim is not
	// an error.
	Rollback(ctx context.Context, email string, day time.Time) error

	ListForDay(ctx context.Context, day time.Time) ([]*Record, error)
	CountForDay(ctx context.Context, day time.Time) (int, error)
	ListRecent(ctx context.Context, limit int) ([]*Record, error)

	// ClearAll wipes the entire send history. Administrative use only.
	ClearAll(ctx context.Context) error
}
