// internal/domain/notification/repository.go
package notification

import (
	"context"
	"errors"
	"time"
)

// ErrNotificationNotFound is returned when no notification has the requested ID.
var ErrNotificationNotFound = errors.New("notification not found")

// Repository defines persistence for notifications and their delivery history.
type Repository interface {
	// Notification methods
	InsertNotification(ctx context.Context, n *Notification) error
	GetNotification(ctx context.Context, id string) (*Notification, error)
	ListNotifications(ctx context.Context, activeOnly bool) ([]*Notification, error)
	SetActive(ctx context.Context, id string, active bool) error
	// DeleteNotification also removes the notification's sent occurrences.
	DeleteNotification(ctx context.Context, id string) error

	// SentOccurrence methods. Inserts are idempotent per (notification, instant).
	HasSentOccurrence(ctx context.Context, id string, instant time.Time) (bool, error)
	InsertSentOccurrence(ctx context.Context, so *SentOccurrence) error
	InsertSentOccurrences(ctx context.Context, batch []*SentOccurrence) error
	// ListSentOccurrences returns history ordered by instant; an empty id lists all notifications.
	ListSentOccurrences(ctx context.Context, id string) ([]*SentOccurrence, error)
}
