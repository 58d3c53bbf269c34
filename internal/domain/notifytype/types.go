// internal/domain/notifytype/types.go
package notifytype

import "time"

// Kind identifies a notification type at the system boundary (API payloads, storage).
type Kind string

const (
	KindOnce                 Kind = "ONCE"
	KindRepeatBefore30       Kind = "REPEAT_BEFORE_30"
	KindRepeatBefore30Weekly Kind = "REPEAT_BEFORE_30_WEEKLY"
)

// ArgType is the primitive type tag of a positional argument.
type ArgType string

const (
	ArgDateTime ArgType = "DATETIME"
	ArgText     ArgType = "TEXT"
	ArgTextArea ArgType = "TEXTAREA"
	ArgInteger  ArgType = "INTEGER"
	ArgFloat    ArgType = "FLOAT"
	ArgBoolean  ArgType = "BOOLEAN"
)

// ArgSpec describes one positional argument of a type.
type ArgSpec struct {
	Type  ArgType `json:"type"`
	Label string  `json:"label"`
	Desc  string  `json:"desc"`
}

// Arguments are the ordered argument values of a notification, as decoded from JSON.
type Arguments []any

// Occurrence is one concrete (instant, content) pair of a schedule.
type Occurrence struct {
	Instant time.Time
	Content string
}

// Type is the behavior contract every notification kind fulfils.
// The set is closed: only this package provides implementations.
type Type interface {
	Kind() Kind
	Arguments() []ArgSpec
	// Validate runs the type's semantic checks. Shape and primitive checks already passed.
	Validate(args Arguments, now time.Time) error
	// Expand returns the full schedule in non-decreasing time order.
	// An empty result means the notification is exhausted or its arguments are unusable.
	Expand(id string, args Arguments, now time.Time) []Occurrence

	sealed()
}

// Info is the client-facing schema of a type.
type Info struct {
	Type      Kind      `json:"type"`
	Arguments []ArgSpec `json:"arguments"`
}
