package recipient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHasBirthdayOn(t *testing.T) {
	tests := []struct {
		name        string
		dateOfBirth time.Time
		ref         time.Time
		want        bool
	}{
		{
			name:        "matches same month and day",
			dateOfBirth: date(1990, time.March, 15),
			ref:         date(2024, time.March, 15),
			want:        true,
		},
		{
			name:        "matches regardless of reference year",
			dateOfBirth: date(1990, time.March, 15),
			ref:         date(2030, time.March, 15),
			want:        true,
		},
		{
			name:        "does not match different day",
			dateOfBirth: date(1990, time.March, 15),
			ref:         date(2024, time.March, 14),
			want:        false,
		},
		{
			name:        "does not match different month",
			dateOfBirth: date(1990, time.March, 15),
			ref:         date(2024, time.April, 15),
			want:        false,
		},
		{
			name:        "feb 29 matches on leap day",
			dateOfBirth: date(1996, time.February, 29),
			ref:         date(2024, time.February, 29),
			want:        true,
		},
		{
			name:        "feb 29 does not match feb 28 of a non-leap year",
			dateOfBirth: date(1996, time.February, 29),
			ref:         date(2023, time.February, 28),
			want:        false,
		},
		{
			name:        "feb 29 does not match mar 1 of a non-leap year",
			dateOfBirth: date(1996, time.February, 29),
			ref:         date(2023, time.March, 1),
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Recipient{Name: "Test", Email: "test@example.com", DateOfBirth: tt.dateOfBirth}
			assert.Equal(t, tt.want, r.HasBirthdayOn(tt.ref))
		})
	}
}

func TestHasBirthdayOnIsDeterministic(t *testing.T) {
	r := &Recipient{DateOfBirth: date(2000, time.June, 1)}
	ref := date(2024, time.June, 1)

	first := r.HasBirthdayOn(ref)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.HasBirthdayOn(ref))
	}
}

func TestDeduplicateByEmail(t *testing.T) {
	a1 := &Recipient{Name: "Alice Old", Email: "alice@example.com", DateOfBirth: date(2000, time.June, 1)}
	a2 := &Recipient{Name: "Alice New", Email: "alice@example.com", DateOfBirth: date(2000, time.June, 2)}
	b := &Recipient{Name: "Bob", Email: "bob@example.com", DateOfBirth: date(1999, time.June, 2)}

	unique := DeduplicateByEmail([]*Recipient{a1, b, a2})

	assert.Len(t, unique, 2)
	assert.Equal(t, "Alice New", unique[0].Name, "last occurrence should win")
	assert.Equal(t, "Bob", unique[1].Name, "order of surviving entries is preserved")
}

func TestDeduplicateByEmailNoDuplicates(t *testing.T) {
	a := &Recipient{Email: "a@example.com"}
	b := &Recipient{Email: "b@example.com"}

	unique := DeduplicateByEmail([]*Recipient{a, b})
	assert.Equal(t, []*Recipient{a, b}, unique)
}
