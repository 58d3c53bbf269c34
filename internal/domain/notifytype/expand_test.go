package notifytype

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instants(occ []Occurrence) []time.Time {
	out := make([]time.Time, len(occ))
	for i, o := range occ {
		out[i] = o.Instant
	}
	return out
}

func TestOnceExpand(t *testing.T) {
	typ, _ := Lookup("ONCE")

	occ := typ.Expand("id", Arguments{" 2026-03-02T14:00:00+02:00 ", "hi"}, testNow)

	require.Len(t, occ, 1)
	assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), occ[0].Instant)
	assert.Equal(t, "hi", occ[0].Content)
}

func TestOnceExpand_CorruptArguments(t *testing.T) {
	typ, _ := Lookup("ONCE")

	assert.Empty(t, typ.Expand("id", Arguments{"garbage", "hi"}, testNow))
	assert.Empty(t, typ.Expand("id", Arguments{"2026-03-02T14:00:00Z"}, testNow))
}

func TestRepeatBefore30Expand(t *testing.T) {
	typ, _ := Lookup("REPEAT_BEFORE_30")
	target := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	occ := typ.Expand("id", Arguments{"2026-03-02T15:00:00Z", "meeting"}, testNow)

	require.Len(t, occ, 6)
	want := []time.Time{
		target.Add(-30 * time.Minute),
		target.Add(-25 * time.Minute),
		target.Add(-20 * time.Minute),
		target.Add(-15 * time.Minute),
		target.Add(-10 * time.Minute),
		target.Add(-5 * time.Minute),
	}
	assert.Equal(t, want, instants(occ))
	for _, o := range occ {
		assert.Equal(t, "meeting", o.Content)
	}
}

func TestRepeatBefore30Expand_UnparseableTarget(t *testing.T) {
	typ, _ := Lookup("REPEAT_BEFORE_30")
	assert.Empty(t, typ.Expand("id", Arguments{"not a time", "meeting"}, testNow))
}

func TestWeeklyExpand(t *testing.T) {
	typ, _ := Lookup("REPEAT_BEFORE_30_WEEKLY")
	base := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		weeks    any
		wantNext time.Time
		wantStep time.Duration
	}{
		{
			name:     "before base",
			now:      testNow,
			weeks:    json.Number("1"),
			wantNext: base,
			wantStep: week,
		},
		{
			name:     "exactly at base rolls forward",
			now:      base,
			weeks:    json.Number("1"),
			wantNext: base.Add(week),
			wantStep: week,
		},
		{
			name:     "several cycles later every two weeks",
			now:      base.Add(5*week + time.Hour),
			weeks:    2,
			wantNext: base.Add(6 * week),
			wantStep: 2 * week,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ := typ.Expand("id", Arguments{"2026-03-09T09:00:00Z", tt.weeks, "gym"}, tt.now)

			require.Len(t, occ, 7)
			assert.Equal(t, tt.wantNext.Add(-30*time.Minute), occ[0].Instant)
			assert.Equal(t, tt.wantNext.Add(-5*time.Minute), occ[5].Instant)
			assert.Equal(t, tt.wantNext.Add(tt.wantStep).Add(-30*time.Minute), occ[6].Instant)
			for i := 1; i < len(occ); i++ {
				assert.True(t, occ[i-1].Instant.Before(occ[i].Instant))
			}
		})
	}
}

func TestWeeklyExpand_InvalidStoredArguments(t *testing.T) {
	typ, _ := Lookup("REPEAT_BEFORE_30_WEEKLY")

	assert.Empty(t, typ.Expand("id", Arguments{"2026-03-09T09:00:00Z", json.Number("0"), "gym"}, testNow))
	assert.Empty(t, typ.Expand("id", Arguments{"bad", json.Number("1"), "gym"}, testNow))
}
