// internal/app/reconciler.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deferred_notifier/internal/domain/notification"
	"deferred_notifier/internal/domain/notifytype"
	"deferred_notifier/internal/domain/push"
	"deferred_notifier/internal/timeutil"

	"github.com/sirupsen/logrus"
)

const defaultWriteTimeout = 30 * time.Second

// TickReport summarizes one reconciliation tick.
type TickReport struct {
	Active      int    // active notifications examined
	Deactivated int    // notifications switched off this tick
	Failed      int    // notifications skipped because of an error
	Delivered   int    // occurrences covered by the outbound message
	Response    string // transport descriptor, empty when nothing was sent
}

// pendingDelivery is the one occurrence a notification contributes to this tick's message.
type pendingDelivery struct {
	notificationID string
	occurrence     notifytype.Occurrence
	// exhaustsAfterSend is set when this delivery is the notification's last unsent occurrence.
	exhaustsAfterSend bool
}

// Reconciler expands active notifications, sends everything due in one message and
// retires exhausted notifications. It is the only writer of sent occurrences and of
// active=false transitions made by the system.
type Reconciler struct {
	repo         notification.Repository
	sender       push.Sender
	clock        timeutil.Clock
	logger       *logrus.Entry
	writeTimeout time.Duration
}

func NewReconciler(repo notification.Repository, sender push.Sender, clock timeutil.Clock, logger *logrus.Entry) *Reconciler {
	return &Reconciler{
		repo:         repo,
		sender:       sender,
		clock:        clock,
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
	}
}

// RunTick performs one reconciliation pass.
// Cancellation is honoured up to the point the message is sent. After that the send and
// the history writes complete on a detached context so a delivery is never left unrecorded
// by a shutdown; a crash in between leads to a resend, which history dedup tolerates.
func (r *Reconciler) RunTick(ctx context.Context) (TickReport, error) {
	var report TickReport

	active, err := r.repo.ListNotifications(ctx, true)
	if err != nil {
		return report, fmt.Errorf("failed to list active notifications: %w", err)
	}
	report.Active = len(active)
	if len(active) == 0 {
		return report, nil
	}

	now := r.clock.Now()

	var pending []pendingDelivery
	for _, n := range active {
		if err := ctx.Err(); err != nil {
			r.logger.WithError(err).Info("Tick abandoned before delivery")
			return report, err
		}

		nLogger := r.logger.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"kind":            n.Kind,
		})
		delivery, deactivated, err := r.processOne(ctx, n, now, nLogger)
		if err != nil {
			report.Failed++
			nLogger.WithError(err).Error("Failed to reconcile notification")
			continue
		}
		if deactivated {
			report.Deactivated++
		}
		if delivery != nil {
			pending = append(pending, *delivery)
		}
	}

	if len(pending) == 0 {
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		r.logger.WithError(err).Info("Tick abandoned before delivery")
		return report, err
	}

	contents := make([]string, len(pending))
	for i, p := range pending {
		contents[i] = p.occurrence.Content
	}

	detached := context.WithoutCancel(ctx)
	report.Response = r.sender.SendMessage(detached, strings.Join(contents, "\n"))
	report.Delivered = len(pending)
	r.logger.WithFields(logrus.Fields{
		"occurrences": len(pending),
		"response":    report.Response,
	}).Info("Sent due notifications")

	writeCtx, cancel := context.WithTimeout(detached, r.writeTimeout)
	defer cancel()

	batch := make([]*notification.SentOccurrence, len(pending))
	for i, p := range pending {
		batch[i] = &notification.SentOccurrence{
			NotificationID:   p.notificationID,
			Instant:          p.occurrence.Instant,
			Content:          p.occurrence.Content,
			DeliveryResponse: report.Response,
		}
	}
	if err := r.repo.InsertSentOccurrences(writeCtx, batch); err != nil {
		return report, fmt.Errorf("failed to record %d sent occurrences: %w", len(batch), err)
	}

	for _, p := range pending {
		if !p.exhaustsAfterSend {
			continue
		}
		if err := r.repo.SetActive(writeCtx, p.notificationID, false); err != nil {
			r.logger.WithError(err).WithField("notification_id", p.notificationID).Error("Failed to deactivate exhausted notification")
			continue
		}
		report.Deactivated++
		r.logger.WithField("notification_id", p.notificationID).Info("Notification exhausted after final delivery")
	}

	return report, nil
}

// processOne decides the due occurrence and exhaustion of a single notification.
// A panic inside a handler is turned into an error so the rest of the tick proceeds.
func (r *Reconciler) processOne(ctx context.Context, n *notification.Notification, now time.Time, logger *logrus.Entry) (delivery *pendingDelivery, deactivated bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			delivery, deactivated = nil, false
			err = fmt.Errorf("panic while reconciling: %v", rec)
		}
	}()

	typ, ok := notifytype.Lookup(string(n.Kind))
	if !ok {
		logger.Warn("Unknown notification type, deactivating")
		return nil, true, r.deactivate(ctx, n.ID)
	}

	schedule := typ.Expand(n.ID, n.Arguments, now)
	if len(schedule) == 0 {
		logger.Warn("Notification produced no occurrences, deactivating")
		return nil, true, r.deactivate(ctx, n.ID)
	}

	var due *notifytype.Occurrence
	unsentRemaining := 0 // occurrences that are in the future or past but not yet sent
	for i := range schedule {
		occ := schedule[i]
		if occ.Instant.After(now) {
			unsentRemaining++
			continue
		}
		sent, err := r.repo.HasSentOccurrence(ctx, n.ID, occ.Instant)
		if err != nil {
			return nil, false, fmt.Errorf("failed to check history at %s: %w", timeutil.FormatUTC(occ.Instant), err)
		}
		if sent {
			continue
		}
		unsentRemaining++
		if due == nil || occ.Instant.Before(due.Instant) {
			due = &occ
		}
	}

	if unsentRemaining == 0 {
		logger.Info("All occurrences delivered, deactivating")
		return nil, true, r.deactivate(ctx, n.ID)
	}
	if due == nil {
		return nil, false, nil
	}

	logger.WithField("occurrence", timeutil.FormatUTC(due.Instant)).Debug("Occurrence due")
	return &pendingDelivery{
		notificationID:    n.ID,
		occurrence:        *due,
		exhaustsAfterSend: unsentRemaining == 1,
	}, false, nil
}

func (r *Reconciler) deactivate(ctx context.Context, id string) error {
	if err := r.repo.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("failed to deactivate notification %s: %w", id, err)
	}
	return nil
}
