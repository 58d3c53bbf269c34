// internal/infra/database/sqlite_notification_repository.go
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
)

// SQLiteNotificationRepository stores instants as canonical UTC text, which sorts chronologically.
type SQLiteNotificationRepository struct {
	db *sql.DB
}

func NewSQLiteNotificationRepository(db *sql.DB) *SQLiteNotificationRepository {
	return &SQLiteNotificationRepository{db: db}
}

// --- Notification Methods ---

func (r *SQLiteNotificationRepository) InsertNotification(ctx context.Context, n *notification.Notification) error {
	argsJSON, err := json.Marshal(n.Arguments)
	if err != nil {
		return fmt.Errorf("error encoding notification arguments: %w", err)
	}
	query := `INSERT INTO notifications (id, kind, arguments_json, active, created_at)
               VALUES (?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, n.ID, string(n.Kind), string(argsJSON), n.Active, timeutil.FormatUTC(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *SQLiteNotificationRepository) GetNotification(ctx context.Context, id string) (*notification.Notification, error) {
	query := `SELECT id, kind, arguments_json, active, created_at FROM notifications WHERE id = ?`
	n, err := scanSQLiteNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error getting notification by ID: %w", err)
	}
	return n, nil
}

func (r *SQLiteNotificationRepository) ListNotifications(ctx context.Context, activeOnly bool) ([]*notification.Notification, error) {
	query := `SELECT id, kind, arguments_json, active, created_at FROM notifications ORDER BY created_at, id`
	if activeOnly {
		query = `SELECT id, kind, arguments_json, active, created_at FROM notifications WHERE active = 1 ORDER BY created_at, id`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0)
	for rows.Next() {
		n, err := scanSQLiteNotification(rows)
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

func (r *SQLiteNotificationRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("error updating notification active flag: %w", err)
	}
	return requireAffected(res, id)
}

func (r *SQLiteNotificationRepository) DeleteNotification(ctx context.Context, id string) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for delete: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	if _, err := txn.ExecContext(ctx, `DELETE FROM sent_occurrences WHERE notification_id = ?`, id); err != nil {
		return fmt.Errorf("error deleting sent occurrences of %s: %w", id, err)
	}
	res, err := txn.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting notification %s: %w", id, err)
	}
	if err := requireAffected(res, id); err != nil {
		return err
	}
	return txn.Commit()
}

// --- SentOccurrence Methods ---

func (r *SQLiteNotificationRepository) HasSentOccurrence(ctx context.Context, id string, instant time.Time) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM sent_occurrences WHERE notification_id = ? AND occurrence_at = ?`,
		id, timeutil.FormatUTC(instant),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking sent occurrence: %w", err)
	}
	return true, nil
}

func (r *SQLiteNotificationRepository) InsertSentOccurrence(ctx context.Context, so *notification.SentOccurrence) error {
	return r.InsertSentOccurrences(ctx, []*notification.SentOccurrence{so})
}

func (r *SQLiteNotificationRepository) InsertSentOccurrences(ctx context.Context, batch []*notification.SentOccurrence) error {
	if len(batch) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for sent occurrences: %w", err)
	}
	defer txn.Rollback()

	stmt, err := txn.PrepareContext(ctx, `INSERT OR IGNORE INTO sent_occurrences (notification_id, occurrence_at, content, delivery_response)
                                         VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for sent occurrences: %w", err)
	}
	defer stmt.Close()

	for _, so := range batch {
		if _, err := stmt.ExecContext(ctx, so.NotificationID, timeutil.FormatUTC(so.Instant), so.Content, so.DeliveryResponse); err != nil {
			return fmt.Errorf("error inserting sent occurrence (N:%s, T:%s): %w", so.NotificationID, timeutil.FormatUTC(so.Instant), err)
		}
	}
	return txn.Commit()
}

func (r *SQLiteNotificationRepository) ListSentOccurrences(ctx context.Context, id string) ([]*notification.SentOccurrence, error) {
	query := `SELECT notification_id, occurrence_at, content, delivery_response
               FROM sent_occurrences ORDER BY occurrence_at ASC, notification_id`
	args := []any{}
	if id != "" {
		query = `SELECT notification_id, occurrence_at, content, delivery_response
               FROM sent_occurrences WHERE notification_id = ? ORDER BY occurrence_at ASC`
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying sent occurrences: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.SentOccurrence, 0)
	for rows.Next() {
		var so notification.SentOccurrence
		var at string
		if err := rows.Scan(&so.NotificationID, &at, &so.Content, &so.DeliveryResponse); err != nil {
			return nil, fmt.Errorf("error scanning sent occurrence row: %w", err)
		}
		if so.Instant, err = timeutil.ParseUTC(at); err != nil {
			return nil, fmt.Errorf("error parsing stored instant %q: %w", at, err)
		}
		out = append(out, &so)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sent occurrence rows: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteNotification(s rowScanner) (*notification.Notification, error) {
	var n notification.Notification
	var kind, argsJSON, createdAt string
	if err := s.Scan(&n.ID, &kind, &argsJSON, &n.Active, &createdAt); err != nil {
		return nil, err
	}
	n.Kind = notifytype.Kind(kind)

	args, err := notifytype.DecodeArguments([]byte(argsJSON))
	if err != nil {
		return nil, err
	}
	n.Arguments = args

	if n.CreatedAt, err = timeutil.ParseUTC(createdAt); err != nil {
		return nil, fmt.Errorf("error parsing created_at %q: %w", createdAt, err)
	}
	return &n, nil
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows for %s: %w", id, err)
	}
	if affected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}
