package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"deferred_notifier/internal/domain/notification"
	"deferred_notifier/internal/domain/notifytype"
	"deferred_notifier/internal/timeutil"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	msgUnauthorized = "Error: you are not allowed to run this command."
	upcomingLimit   = 10
)

// NotificationOps is the part of the notification service exposed to admins.
type NotificationOps interface {
	ListTypes() []notifytype.Info
	List(ctx context.Context, activeOnly bool) ([]*notification.Notification, error)
	ListRows(ctx context.Context, id string) ([]notification.Row, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// AdminCommands answers admin commands. Replies are plain text.
type AdminCommands struct {
	svc     NotificationOps
	adminID int64
	clock   timeutil.Clock
	logger  *logrus.Entry
}

func NewAdminCommands(svc NotificationOps, adminID int64, clock timeutil.Clock, logger *logrus.Entry) *AdminCommands {
	return &AdminCommands{svc: svc, adminID: adminID, clock: clock, logger: logger}
}

// RegisterAdminHandlers registers handlers for admin commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, cmds *AdminCommands) {
	routes := map[string]func(context.Context, int64, []string) string{
		"/types":    cmds.Types,
		"/list":     cmds.List,
		"/upcoming": cmds.Upcoming,
		"/delete":   cmds.Delete,
		"/pause":    cmds.Pause,
		"/resume":   cmds.Resume,
	}
	for command, fn := range routes {
		fn := fn
		b.Handle(command, func(c telebot.Context) error {
			return c.Send(fn(ctx, c.Sender().ID, c.Args()))
		})
	}
}

// authorize logs the command and reports whether the sender is the admin.
func (a *AdminCommands) authorize(command string, senderID int64) (*logrus.Entry, bool) {
	handlerLogger := a.logger.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": senderID,
	})
	handlerLogger.Info("Command received")
	if a.adminID == 0 || senderID != a.adminID {
		handlerLogger.Warn("Unauthorized access attempt")
		return handlerLogger, false
	}
	return handlerLogger, true
}

// Types lists the supported notification types with their arguments.
func (a *AdminCommands) Types(_ context.Context, senderID int64, _ []string) string {
	if _, ok := a.authorize("/types", senderID); !ok {
		return msgUnauthorized
	}

	var sb strings.Builder
	sb.WriteString("Notification types:\n")
	for _, info := range a.svc.ListTypes() {
		sb.WriteString(fmt.Sprintf("\n%s\n", info.Type))
		for i, arg := range info.Arguments {
			sb.WriteString(fmt.Sprintf("  %d. %s (%s)\n", i+1, arg.Label, arg.Type))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// List shows active notifications, or all of them with "all".
func (a *AdminCommands) List(ctx context.Context, senderID int64, args []string) string {
	handlerLogger, ok := a.authorize("/list", senderID)
	if !ok {
		return msgUnauthorized
	}

	activeOnly := true
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "all":
			activeOnly = false
		case "active":
		default:
			return "Invalid format. Use: /list [active|all]"
		}
	}

	notifs, err := a.svc.List(ctx, activeOnly)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to list notifications")
		return "An error occurred while listing notifications."
	}
	if len(notifs) == 0 {
		if activeOnly {
			return "No active notifications."
		}
		return "No notifications."
	}

	var sb strings.Builder
	if activeOnly {
		sb.WriteString("Active notifications:\n")
	} else {
		sb.WriteString("All notifications:\n")
	}
	for _, n := range notifs {
		status := "active"
		if !n.Active {
			status = "inactive"
		}
		sb.WriteString(fmt.Sprintf("\n%s\n  %s, %s, created %s", n.ID, n.Kind, status, timeutil.FormatUTC(n.CreatedAt)))
	}
	return sb.String()
}

// Upcoming shows the next projected occurrences across all active notifications.
func (a *AdminCommands) Upcoming(ctx context.Context, senderID int64, _ []string) string {
	handlerLogger, ok := a.authorize("/upcoming", senderID)
	if !ok {
		return msgUnauthorized
	}

	rows, err := a.svc.ListRows(ctx, "")
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to build schedule")
		return "An error occurred while building the schedule."
	}

	now := a.clock.Now()
	var upcoming []notification.Row
	for _, row := range rows {
		if row.Sent || row.Instant.Before(now.Truncate(time.Second)) {
			continue
		}
		upcoming = append(upcoming, row)
		if len(upcoming) == upcomingLimit {
			break
		}
	}
	if len(upcoming) == 0 {
		return "Nothing scheduled."
	}

	var sb strings.Builder
	sb.WriteString("Upcoming:\n")
	for _, row := range upcoming {
		sb.WriteString(fmt.Sprintf("\n%s  %s\n  %s", timeutil.FormatUTC(row.Instant), shortID(row.NotificationID), row.Content))
	}
	return sb.String()
}

// Delete removes a notification and its history.
func (a *AdminCommands) Delete(ctx context.Context, senderID int64, args []string) string {
	return a.mutate("/delete", senderID, args, func(id string) error { return a.svc.Delete(ctx, id) }, "deleted")
}

// Pause deactivates a notification.
func (a *AdminCommands) Pause(ctx context.Context, senderID int64, args []string) string {
	return a.mutate("/pause", senderID, args, func(id string) error { return a.svc.SetActive(ctx, id, false) }, "paused")
}

// Resume re-activates a notification.
func (a *AdminCommands) Resume(ctx context.Context, senderID int64, args []string) string {
	return a.mutate("/resume", senderID, args, func(id string) error { return a.svc.SetActive(ctx, id, true) }, "resumed")
}

func (a *AdminCommands) mutate(command string, senderID int64, args []string, op func(string) error, verb string) string {
	handlerLogger, ok := a.authorize(command, senderID)
	if !ok {
		return msgUnauthorized
	}
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return fmt.Sprintf("Invalid format. Use: %s <uuid>", command)
	}

	id := strings.TrimSpace(args[0])
	handlerLogger = handlerLogger.WithField("notification_id", id)
	if err := op(id); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			handlerLogger.Warn("Notification not found")
			return fmt.Sprintf("Notification %s not found.", id)
		}
		handlerLogger.WithError(err).Error("Command failed")
		return fmt.Sprintf("An error occurred: %s", err.Error())
	}

	handlerLogger.Info("Command completed")
	return fmt.Sprintf("Notification %s %s.", id, verb)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
