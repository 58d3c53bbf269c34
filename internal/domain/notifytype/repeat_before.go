// internal/domain/notifytype/repeat_before.go
package notifytype

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"deferred_notifier/internal/timeutil"
)

// Reminder offsets before the target time, in minutes.
var beforeOffsets = []int{30, 25, 20, 15, 10, 5}

const (
	minTargetLead = time.Minute
	week          = 7 * 24 * time.Hour
	keepaliveLead = 30 * time.Minute

	// Keeps weeks*step well inside time.Duration range.
	maxWeeksBetween = 5200
)

// repeatBefore30Type sends the message six times in the half hour before a target instant.
type repeatBefore30Type struct{}

func (repeatBefore30Type) sealed() {}

func (repeatBefore30Type) Kind() Kind { return KindRepeatBefore30 }

func (repeatBefore30Type) Arguments() []ArgSpec {
	return []ArgSpec{
		{Type: ArgDateTime, Label: "Target time (UTC)", Desc: "We will send reminders before this UTC time."},
		{Type: ArgTextArea, Label: "Message", Desc: "Content to send for each reminder."},
	}
}

func (repeatBefore30Type) Validate(args Arguments, now time.Time) error {
	if len(args) != 2 {
		return fmt.Errorf("%s requires exactly 2 arguments.", KindRepeatBefore30)
	}
	target, err := timeutil.FutureDateTime(args[0], now)
	if err != nil {
		return err
	}
	if err := timeutil.StringMinLength(args[1], 1); err != nil {
		return err
	}
	if !target.After(now.Add(minTargetLead)) {
		return errors.New("Target time must be at least 1 minute in the future (UTC).")
	}
	return nil
}

func (repeatBefore30Type) Expand(_ string, args Arguments, _ time.Time) []Occurrence {
	if len(args) != 2 {
		return nil
	}
	target, ok := parseArgTime(args[0])
	if !ok {
		return nil
	}
	return remindersBefore(target, argString(args[1]))
}

// repeatBefore30WeeklyType repeats the six reminders every N weeks from a base instant.
// Each expansion also carries a keepalive reminder for the following cycle so the
// notification never looks exhausted between cycles.
type repeatBefore30WeeklyType struct{}

func (repeatBefore30WeeklyType) sealed() {}

func (repeatBefore30WeeklyType) Kind() Kind { return KindRepeatBefore30Weekly }

func (repeatBefore30WeeklyType) Arguments() []ArgSpec {
	return []ArgSpec{
		{Type: ArgDateTime, Label: "First time (UTC)", Desc: "First occurrence; later ones repeat from this UTC time."},
		{Type: ArgInteger, Label: "Weeks between", Desc: "Number of weeks between occurrences (1 = every week)."},
		{Type: ArgTextArea, Label: "Message", Desc: "Content to send for each reminder."},
	}
}

func (repeatBefore30WeeklyType) Validate(args Arguments, now time.Time) error {
	if len(args) != 3 {
		return fmt.Errorf("%s requires exactly 3 arguments.", KindRepeatBefore30Weekly)
	}
	if _, err := timeutil.FutureDateTime(args[0], now); err != nil {
		return err
	}
	if err := timeutil.IntMinValue(args[1], 1); err != nil {
		return err
	}
	if weeks, _ := timeutil.AsInt(args[1]); weeks > maxWeeksBetween {
		return fmt.Errorf("Integer must be <= %d.", maxWeeksBetween)
	}
	return timeutil.StringMinLength(args[2], 1)
}

func (repeatBefore30WeeklyType) Expand(_ string, args Arguments, now time.Time) []Occurrence {
	if len(args) != 3 {
		return nil
	}
	base, ok := parseArgTime(args[0])
	if !ok {
		return nil
	}
	weeks, ok := timeutil.AsInt(args[1])
	if !ok || weeks < 1 || weeks > maxWeeksBetween {
		return nil
	}
	msg := argString(args[2])

	step := time.Duration(weeks) * week
	next := base
	if !next.After(now) {
		// Jump close to now first instead of stepping through every elapsed cycle.
		skipped := now.Sub(next) / step
		next = next.Add(skipped * step)
		for !next.After(now) {
			next = next.Add(step)
		}
	}

	out := remindersBefore(next, msg)
	out = append(out, Occurrence{Instant: next.Add(step).Add(-keepaliveLead), Content: msg})
	sortOccurrences(out)
	return out
}

func remindersBefore(target time.Time, msg string) []Occurrence {
	out := make([]Occurrence, 0, len(beforeOffsets)+1)
	for _, m := range beforeOffsets {
		out = append(out, Occurrence{
			Instant: target.Add(-time.Duration(m) * time.Minute).UTC(),
			Content: msg,
		})
	}
	sortOccurrences(out)
	return out
}

func sortOccurrences(occ []Occurrence) {
	sort.SliceStable(occ, func(i, j int) bool { return occ[i].Instant.Before(occ[j].Instant) })
}
