// internal/timeutil/validators.go
package timeutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// FutureDateTime checks that v is a parseable instant strictly after now.
func FutureDateTime(v any, now time.Time) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, errors.New("DATETIME must be a UTC ISO string.")
	}
	t, err := ParseUTC(s)
	if err != nil {
		return time.Time{}, errors.New("Invalid DATETIME format. Use ISO 8601 UTC (e.g. 2026-01-12T21:30:00Z).")
	}
	if !t.After(now) {
		return time.Time{}, errors.New("DATETIME must be in the future (UTC).")
	}
	return t, nil
}

// StringMinLength checks that v is a string with at least minLen characters after trimming.
func StringMinLength(v any, minLen int) error {
	s, ok := v.(string)
	if !ok {
		return errors.New("Value must be a string.")
	}
	if len([]rune(strings.TrimSpace(s))) < minLen {
		return fmt.Errorf("String must be at least %d characters.", minLen)
	}
	return nil
}

// IntMinValue checks that v is an integer no smaller than minValue.
func IntMinValue(v any, minValue int64) error {
	n, ok := AsInt(v)
	if !ok {
		return errors.New("Value must be an integer.")
	}
	if n < minValue {
		return fmt.Errorf("Integer must be >= %d.", minValue)
	}
	return nil
}

// AsInt extracts an integer from a decoded JSON value.
// Numbers decoded with UseNumber arrive as json.Number; fractional values are rejected.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// IsNumber reports whether v is an integer or floating point JSON value.
func IsNumber(v any) bool {
	switch n := v.(type) {
	case json.Number:
		_, err := n.Float64()
		return err == nil
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}
