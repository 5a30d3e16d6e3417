package sendlog

import "time"

// Record is an immutable entry in the send history: one notification sent to
// one contact address on one calendar day.
//
// SentDay is the calendar date (in the deployment timezone) the send logically
// belongs to, as distinct from SentAt, the physical instant of the send.
// The pair (Email, SentDay) is unique in the store and is what serializes
// concurrent dispatch attempts: whoever inserts the row first owns the send.
type Record struct {
	ID          int64
	Email       string
	Name        string
	DateOfBirth time.Time
	SentAt      time.Time
	SentDay     time.Time // Date part only, normalized to midnight.
}

// Day normalizes a timestamp to the calendar date used as the SentDay key.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
