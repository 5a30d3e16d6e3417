package database

import (
	"context"
	"database/sql"
	"fmt"

	"birthday_notifier/internal/domain/recipient"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrRecipientNotFound = fmt.Errorf("recipient not found")

type PostgresRecipientRepository struct {
	db *sql.DB
}

func NewPostgresRecipientRepository(db *sql.DB) *PostgresRecipientRepository {
	return &PostgresRecipientRepository{db: db}
}

// Upsert inserts a recipient keyed on email. A re-import of an existing
// address overwrites name and date of birth: the most recently seen record
// wins, matching the dedup policy of the dispatch engine.
func (r *PostgresRecipientRepository) Upsert(ctx context.Context, rec *recipient.Recipient) error {
	query := `INSERT INTO recipients (email, name, date_of_birth)
               VALUES ($1, $2, $3)
               ON CONFLICT (email) DO UPDATE
               SET name = EXCLUDED.name, date_of_birth = EXCLUDED.date_of_birth, updated_at = NOW()
               RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, rec.Email, rec.Name, rec.DateOfBirth).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting recipient: %w", err)
	}
	return nil
}

func (r *PostgresRecipientRepository) GetByEmail(ctx context.Context, email string) (*recipient.Recipient, error) {
	query := `SELECT id, email, name, date_of_birth, created_at, updated_at
               FROM recipients WHERE email = $1`
	rec := &recipient.Recipient{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&rec.ID, &rec.Email, &rec.Name, &rec.DateOfBirth, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("error getting recipient by email: %w", err)
	}
	return rec, nil
}

func (r *PostgresRecipientRepository) ListAll(ctx context.Context) ([]*recipient.Recipient, error) {
	query := `SELECT id, email, name, date_of_birth, created_at, updated_at
               FROM recipients ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing recipients: %w", err)
	}
	defer rows.Close()

	recipients := make([]*recipient.Recipient, 0)
	for rows.Next() {
		rec := &recipient.Recipient{}
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Name, &rec.DateOfBirth, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning recipient: %w", err)
		}
		recipients = append(recipients, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipients: %w", err)
	}
	return recipients, nil
}

func (r *PostgresRecipientRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipients`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting recipients: %w", err)
	}
	return count, nil
}
