package push

import "context"

// Sender delivers one text message through a push provider.
// It never fails: any problem is reported in the returned descriptor, which is
// persisted alongside the occurrences it covered.
type Sender interface {
	SendMessage(ctx context.Context, text string) string
}
