// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"deferred_notifier/internal/domain/notification"
	"deferred_notifier/internal/domain/notifytype"
	"deferred_notifier/internal/timeutil"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// sentRowName labels history rows in the global list view.
const sentRowName = "sent"

// NotificationService implements the operations behind the HTTP and Telegram surfaces.
type NotificationService struct {
	repo   notification.Repository
	clock  timeutil.Clock
	logger *logrus.Entry
}

func NewNotificationService(repo notification.Repository, clock timeutil.Clock, logger *logrus.Entry) *NotificationService {
	return &NotificationService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// ListTypes returns the schema of every supported notification type.
func (s *NotificationService) ListTypes() []notifytype.Info {
	return notifytype.List()
}

// Create validates a decoded creation payload and stores a new active notification.
// Rejections are returned as *notifytype.ValidationError.
func (s *NotificationService) Create(ctx context.Context, payload any) (string, error) {
	now := s.clock.Now()
	kind, args, err := notifytype.ValidatePayload(payload, now)
	if err != nil {
		s.logger.WithError(err).Debug("Rejected creation payload")
		return "", err
	}

	n := &notification.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Arguments: args,
		Active:    true,
		CreatedAt: timeutil.Normalize(now),
	}
	if err := s.repo.InsertNotification(ctx, n); err != nil {
		return "", fmt.Errorf("failed to store notification: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"kind":            n.Kind,
	}).Info("Notification created")
	return n.ID, nil
}

// Get returns a single notification.
func (s *NotificationService) Get(ctx context.Context, id string) (*notification.Notification, error) {
	return s.repo.GetNotification(ctx, id)
}

// List returns all notifications, or only active ones.
func (s *NotificationService) List(ctx context.Context, activeOnly bool) ([]*notification.Notification, error) {
	return s.repo.ListNotifications(ctx, activeOnly)
}

// Info returns a notification together with its delivery history and, while it is
// active, its projected schedule, merged and sorted by instant.
func (s *NotificationService) Info(ctx context.Context, id string) (*notification.Notification, []notification.Row, error) {
	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	sent, err := s.repo.ListSentOccurrences(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list history of %s: %w", id, err)
	}

	rows := make([]notification.Row, 0, len(sent))
	for _, so := range sent {
		rows = append(rows, sentRow(so, fmt.Sprintf("%s (sent)", n.Kind)))
	}
	rows = append(rows, s.projectedRows(n, sentInstants(sent))...)
	sortRows(rows)
	return n, rows, nil
}

// ListRows merges history and projected schedules across notifications.
// A non-empty id restricts the view to that notification.
func (s *NotificationService) ListRows(ctx context.Context, id string) ([]notification.Row, error) {
	sent, err := s.repo.ListSentOccurrences(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	notifs, err := s.repo.ListNotifications(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	rows := make([]notification.Row, 0, len(sent))
	for _, so := range sent {
		rows = append(rows, sentRow(so, sentRowName))
	}
	history := sentInstants(sent)
	for _, n := range notifs {
		if id != "" && n.ID != id {
			continue
		}
		rows = append(rows, s.projectedRows(n, history)...)
	}
	sortRows(rows)
	return rows, nil
}

// Delete removes a notification and its history.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteNotification(ctx, id); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	s.logger.WithField("notification_id", id).Info("Notification deleted")
	return nil
}

// SetActive switches a notification on or off. This is the only way to re-activate a
// notification the reconciler has retired.
func (s *NotificationService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			return err
		}
		return fmt.Errorf("failed to update notification %s: %w", id, err)
	}
	s.logger.WithFields(logrus.Fields{
		"notification_id": id,
		"active":          active,
	}).Info("Notification activation changed")
	return nil
}

// projectedRows expands an active notification, leaving out occurrences already in history.
func (s *NotificationService) projectedRows(n *notification.Notification, history map[string]bool) []notification.Row {
	if !n.Active {
		return nil
	}
	typ, ok := notifytype.Lookup(string(n.Kind))
	if !ok {
		return nil
	}

	schedule := typ.Expand(n.ID, n.Arguments, s.clock.Now())
	rows := make([]notification.Row, 0, len(schedule))
	for _, occ := range schedule {
		if history[historyKey(n.ID, occ.Instant.Unix())] {
			continue
		}
		rows = append(rows, notification.Row{
			Name:           string(n.Kind),
			NotificationID: n.ID,
			Content:        occ.Content,
			Instant:        occ.Instant,
		})
	}
	return rows
}

func sentRow(so *notification.SentOccurrence, name string) notification.Row {
	return notification.Row{
		Name:           name,
		NotificationID: so.NotificationID,
		Content:        so.Content,
		Instant:        so.Instant,
		Sent:           true,
	}
}

func sentInstants(sent []*notification.SentOccurrence) map[string]bool {
	out := make(map[string]bool, len(sent))
	for _, so := range sent {
		out[historyKey(so.NotificationID, so.Instant.Unix())] = true
	}
	return out
}

func historyKey(id string, unix int64) string {
	return fmt.Sprintf("%s@%d", id, unix)
}

// sortRows orders by instant; on ties history comes before projections.
func sortRows(rows []notification.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Instant.Equal(rows[j].Instant) {
			return rows[i].Instant.Before(rows[j].Instant)
		}
		return rows[i].Sent && !rows[j].Sent
	})
}
