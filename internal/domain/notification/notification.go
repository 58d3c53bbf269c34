// internal/domain/notification/notification.go
package notification

import (
	"time"

	"deferred_notifier/internal/domain/notifytype"
)

// Notification is a registered reminder. Corresponds to the 'notifications' table.
type Notification struct {
	ID        string // UUID, generated at creation
	Kind      notifytype.Kind
	Arguments notifytype.Arguments
	Active    bool // flipped off by the reconciler once exhausted
	CreatedAt time.Time
}

// SentOccurrence records one delivered occurrence. Corresponds to the 'sent_occurrences' table.
// (NotificationID, Instant) is unique.
type SentOccurrence struct {
	NotificationID   string
	Instant          time.Time
	Content          string
	DeliveryResponse string // descriptor returned by the push transport
}

// Row is one line of a merged schedule view: either a projected occurrence or a sent one.
type Row struct {
	Name           string
	NotificationID string
	Content        string
	Instant        time.Time
	Sent           bool
}
