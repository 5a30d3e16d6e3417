package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"birthday_notifier/internal/domain/recipient"
	"birthday_notifier/internal/domain/sendlog"
	idb "birthday_notifier/internal/infra/database"
)

// Custom application-level errors for admin operations
var ErrInvalidEmail = fmt.Errorf("recipient email is empty or malformed")
var ErrInvalidName = fmt.Errorf("recipient name is empty")
var ErrInvalidDateOfBirth = fmt.Errorf("date of birth must be in YYYY-MM-DD format")
var ErrRecipientNotFound = fmt.Errorf("recipient not found")

// AdminService covers the management surface: recipient imports and
// send-history queries for the dashboard.
type AdminService struct {
	recipientRepo recipient.Repository
	sendLog       sendlog.Repository
}

func NewAdminService(rr recipient.Repository, sl sendlog.Repository) *AdminService {
	return &AdminService{
		recipientRepo: rr,
		sendLog:       sl,
	}
}

// UpsertRecipient validates and stores a recipient record. Importing an
// email that already exists overwrites the stored name and date of birth.
func (s *AdminService) UpsertRecipient(ctx context.Context, name, email, dateOfBirth string) (*recipient.Recipient, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	dob, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return nil, ErrInvalidDateOfBirth
	}

	rec := &recipient.Recipient{
		Name:        name,
		Email:       email,
		DateOfBirth: dob,
	}
	if err := s.recipientRepo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to upsert recipient: %w", err)
	}
	return rec, nil
}

func (s *AdminService) GetRecipient(ctx context.Context, email string) (*recipient.Recipient, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	rec, err := s.recipientRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == idb.ErrRecipientNotFound {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	return rec, nil
}

func (s *AdminService) ListRecipients(ctx context.Context) ([]*recipient.Recipient, error) {
	recipients, err := s.recipientRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	return recipients, nil
}

// SendRecordsForDay returns the full send history of one calendar day.
func (s *AdminService) SendRecordsForDay(ctx context.Context, day time.Time) ([]*sendlog.Record, error) {
	records, err := s.sendLog.ListForDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list send records for day: %w", err)
	}
	return records, nil
}

func (s *AdminService) RecentSendRecords(ctx context.Context, limit int) ([]*sendlog.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	records, err := s.sendLog.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list send records: %w", err)
	}
	return records, nil
}

// ClearSendHistory wipes the send log. After this, the next cycle will
// re-notify anyone whose birthday is today.
func (s *AdminService) ClearSendHistory(ctx context.Context) error {
	if err := s.sendLog.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear send history: %w", err)
	}
	return nil
}
