// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"deferred_notifier/internal/domain/notification"
	"deferred_notifier/internal/domain/notifytype"
	"deferred_notifier/internal/timeutil"

	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// --- Notification Methods ---

func (r *PostgresNotificationRepository) InsertNotification(ctx context.Context, n *notification.Notification) error {
	argsJSON, err := json.Marshal(n.Arguments)
	if err != nil {
		return fmt.Errorf("error encoding notification arguments: %w", err)
	}
	query := `INSERT INTO notifications (id, kind, arguments, active, created_at)
               VALUES ($1, $2, $3, $4, $5)`
	_, err = r.db.ExecContext(ctx, query, n.ID, string(n.Kind), string(argsJSON), n.Active, timeutil.Normalize(n.CreatedAt))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
			return fmt.Errorf("notification %s already exists: %w", n.ID, err)
		}
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) GetNotification(ctx context.Context, id string) (*notification.Notification, error) {
	query := `SELECT id, kind, arguments, active, created_at FROM notifications WHERE id = $1`
	n, err := scanPostgresNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error getting notification by ID: %w", err)
	}
	return n, nil
}

func (r *PostgresNotificationRepository) ListNotifications(ctx context.Context, activeOnly bool) ([]*notification.Notification, error) {
	query := `SELECT id, kind, arguments, active, created_at FROM notifications
               WHERE ($1 = FALSE OR active = TRUE) ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0)
	for rows.Next() {
		n, err := scanPostgresNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return out, nil
}

func (r *PostgresNotificationRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("error updating notification active flag: %w", err)
	}
	return requireAffected(res, id)
}

// DeleteNotification relies on ON DELETE CASCADE for the sent_occurrences rows.
func (r *PostgresNotificationRepository) DeleteNotification(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting notification %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// --- SentOccurrence Methods ---

func (r *PostgresNotificationRepository) HasSentOccurrence(ctx context.Context, id string, instant time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM sent_occurrences WHERE notification_id = $1 AND occurrence_at = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id, timeutil.Normalize(instant)).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking sent occurrence: %w", err)
	}
	return exists, nil
}

func (r *PostgresNotificationRepository) InsertSentOccurrence(ctx context.Context, so *notification.SentOccurrence) error {
	return r.InsertSentOccurrences(ctx, []*notification.SentOccurrence{so})
}

// InsertSentOccurrences skips rows whose notification no longer exists.
func (r *PostgresNotificationRepository) InsertSentOccurrences(ctx context.Context, batch []*notification.SentOccurrence) error {
	if len(batch) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for sent occurrences: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO sent_occurrences (notification_id, occurrence_at, content, delivery_response)
                                         SELECT $1::text, $2::timestamptz, $3::text, $4::text
                                         WHERE EXISTS (SELECT 1 FROM notifications WHERE id = $1::text)
                                         ON CONFLICT ON CONSTRAINT sent_occurrences_pkey DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for sent occurrences: %w", err)
	}
	defer stmt.Close()

	for _, so := range batch {
		if _, err := stmt.ExecContext(ctx, so.NotificationID, timeutil.Normalize(so.Instant), so.Content, so.DeliveryResponse); err != nil {
			return fmt.Errorf("error inserting sent occurrence (N:%s, T:%s): %w", so.NotificationID, timeutil.FormatUTC(so.Instant), err)
		}
	}
	return txn.Commit()
}

func (r *PostgresNotificationRepository) ListSentOccurrences(ctx context.Context, id string) ([]*notification.SentOccurrence, error) {
	query := `SELECT notification_id, occurrence_at, content, delivery_response
               FROM sent_occurrences
               WHERE ($1 = '' OR notification_id = $1)
               ORDER BY occurrence_at ASC, notification_id`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("error querying sent occurrences: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.SentOccurrence, 0)
	for rows.Next() {
		var so notification.SentOccurrence
		if err := rows.Scan(&so.NotificationID, &so.Instant, &so.Content, &so.DeliveryResponse); err != nil {
			return nil, fmt.Errorf("error scanning sent occurrence row: %w", err)
		}
		so.Instant = timeutil.Normalize(so.Instant)
		out = append(out, &so)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sent occurrence rows: %w", err)
	}
	return out, nil
}

func scanPostgresNotification(s rowScanner) (*notification.Notification, error) {
	var n notification.Notification
	var kind string
	var argsJSON []byte
	if err := s.Scan(&n.ID, &kind, &argsJSON, &n.Active, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Kind = notifytype.Kind(kind)
	n.CreatedAt = timeutil.Normalize(n.CreatedAt)

	args, err := notifytype.DecodeArguments(argsJSON)
	if err != nil {
		return nil, err
	}
	n.Arguments = args
	return &n, nil
}
