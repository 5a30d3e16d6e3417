package recipient

import (
	"time"
)

// Recipient represents a person registered for birthday notifications.
type Recipient struct {
	ID          int64
	Name        string
	Email       string    // Unique contact address; identity key of the record.
	DateOfBirth time.Time // Only month and day are significant for matching.
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasBirthdayOn reports whether the recipient's birthday falls on the given
// reference date. The comparison is literal month/day equality with the birth
// year ignored, so a Feb-29 birthday only matches on an actual Feb 29.
// The reference date must already be expressed in the deployment timezone;
// this function never consults the wall clock.
func (r *Recipient) HasBirthdayOn(ref time.Time) bool {
	return r.DateOfBirth.Month() == ref.Month() && r.DateOfBirth.Day() == ref.Day()
}

// DeduplicateByEmail collapses duplicate entries sharing a contact address.
// The last occurrence in source order wins; the relative order of the
// surviving entries is preserved.
func DeduplicateByEmail(recipients []*Recipient) []*Recipient {
	seen := make(map[string]int, len(recipients))
	unique := make([]*Recipient, 0, len(recipients))
	for _, r := range recipients {
		if idx, ok := seen[r.Email]; ok {
			unique[idx] = r
			continue
		}
		seen[r.Email] = len(unique)
		unique = append(unique, r)
	}
	return unique
}
