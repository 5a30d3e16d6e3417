package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"birthday_notifier/internal/domain/sendlog"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type PostgresSendLogRepository struct {
	db *sql.DB
}

func NewPostgresSendLogRepository(db *sql.DB) *PostgresSendLogRepository {
	return &PostgresSendLogRepository{db: db}
}

// TryClaim atomically inserts a send record for (email, sent_day). The
// UNIQUE (email, sent_day) constraint on the table makes this the
// serialization point for concurrent dispatch cycles: ON CONFLICT DO NOTHING
// returns no row when another invocation already owns the slot, which is
// surfaced as sendlog.ErrAlreadyClaimed.
func (r *PostgresSendLogRepository) TryClaim(ctx context.Context, rec *sendlog.Record) error {
	query := `INSERT INTO send_log (email, name, date_of_birth, sent_at, sent_day)
               VALUES ($1, $2, $3, $4, $5)
               ON CONFLICT (email, sent_day) DO NOTHING
               RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		rec.Email, rec.Name, rec.DateOfBirth, rec.SentAt, rec.SentDay).Scan(&rec.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return sendlog.ErrAlreadyClaimed
		}
		return fmt.Errorf("error claiming send slot for %s on %s: %w",
			rec.Email, rec.SentDay.Format("2006-01-02"), err)
	}
	return nil
}

// Rollback deletes a claim so the recipient can be retried on a later cycle.
func (r *PostgresSendLogRepository) Rollback(ctx context.Context, email string, day time.Time) error {
	query := `DELETE FROM send_log WHERE email = $1 AND sent_day = $2`
	_, err := r.db.ExecContext(ctx, query, email, sendlog.Day(day))
	if err != nil {
		return fmt.Errorf("error rolling back claim for %s on %s: %w",
			email, day.Format("2006-01-02"), err)
	}
	return nil
}

func (r *PostgresSendLogRepository) ListForDay(ctx context.Context, day time.Time) ([]*sendlog.Record, error) {
	query := `SELECT id, email, name, date_of_birth, sent_at, sent_day
               FROM send_log WHERE sent_day = $1 ORDER BY sent_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sendlog.Day(day))
	if err != nil {
		return nil, fmt.Errorf("error listing send records for day: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresSendLogRepository) CountForDay(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM send_log WHERE sent_day = $1`, sendlog.Day(day)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting send records for day: %w", err)
	}
	return count, nil
}

func (r *PostgresSendLogRepository) ListRecent(ctx context.Context, limit int) ([]*sendlog.Record, error) {
	query := `SELECT id, email, name, date_of_birth, sent_at, sent_day
               FROM send_log ORDER BY sent_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing recent send records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresSendLogRepository) ClearAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM send_log`); err != nil {
		return fmt.Errorf("error clearing send log: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]*sendlog.Record, error) {
	records := make([]*sendlog.Record, 0)
	for rows.Next() {
		rec := &sendlog.Record{}
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Name, &rec.DateOfBirth, &rec.SentAt, &rec.SentDay); err != nil {
			return nil, fmt.Errorf("error scanning send record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating send records: %w", err)
	}
	return records, nil
}
