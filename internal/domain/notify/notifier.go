package notify

import (
	"context"
	"errors"
)

// ErrQuotaExceeded marks a send failure caused by the outbound channel's
// rate or volume limit. Callers detect it with errors.Is; unlike a transient
// failure it aborts the remainder of the dispatch cycle, since further sends
// would only pile up more failures.
var ErrQuotaExceeded = errors.New("send quota exceeded")

// Notifier delivers a congratulatory message to a single contact address.
// This decouples the dispatch engine from the concrete transport (SMTP in
// production, fakes in tests).
type Notifier interface {
	Send(ctx context.Context, email, name string) error
}

// Alerter is a best-effort operational alert channel (e.g. a Telegram chat
// watched by an admin). Implementations must tolerate being a no-op; alert
// delivery failures are logged, never propagated.
type Alerter interface {
	Alert(text string) error
}
