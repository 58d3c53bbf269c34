// internal/domain/notifytype/once.go
package notifytype

import (
	"fmt"
	"time"

	"deferred_notifier/internal/timeutil"
)

// onceType fires a single message at the given instant.
type onceType struct{}

func (onceType) sealed() {}

func (onceType) Kind() Kind { return KindOnce }

func (onceType) Arguments() []ArgSpec {
	return []ArgSpec{
		{Type: ArgDateTime, Label: "Send time (UTC)", Desc: "UTC ISO time; client will send UTC."},
		{Type: ArgTextArea, Label: "Message", Desc: "Notification content to send."},
	}
}

func (onceType) Validate(args Arguments, now time.Time) error {
	if len(args) != 2 {
		return fmt.Errorf("%s requires exactly 2 arguments.", KindOnce)
	}
	if _, err := timeutil.FutureDateTime(args[0], now); err != nil {
		return err
	}
	return timeutil.StringMinLength(args[1], 1)
}

func (onceType) Expand(_ string, args Arguments, _ time.Time) []Occurrence {
	if len(args) != 2 {
		return nil
	}
	sendTime, ok := parseArgTime(args[0])
	if !ok {
		return nil
	}
	return []Occurrence{{Instant: sendTime, Content: argString(args[1])}}
}

func parseArgTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := timeutil.ParseUTC(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func argString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
