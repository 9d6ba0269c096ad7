package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsReportWindow(t *testing.T) {
	// 2026-02-15 is a Sunday.
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "sunday 17:00 triggers", now: time.Date(2026, 2, 15, 17, 0, 0, 0, time.UTC), want: true},
		{name: "sunday 17:00:59 still inside window", now: time.Date(2026, 2, 15, 17, 0, 59, 0, time.UTC), want: true},
		{name: "sunday 16:59 misses window", now: time.Date(2026, 2, 15, 16, 59, 0, 0, time.UTC), want: false},
		{name: "sunday 17:01 misses window", now: time.Date(2026, 2, 15, 17, 1, 0, 0, time.UTC), want: false},
		{name: "monday 17:00 misses window", now: time.Date(2026, 2, 16, 17, 0, 0, 0, time.UTC), want: false},
		{name: "saturday 17:00 misses window", now: time.Date(2026, 2, 14, 17, 0, 0, 0, time.UTC), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReportWindow(tt.now))
		})
	}
}

func TestWeeklyReportAccumulatesInAppendOrder(t *testing.T) {
	report := &WeeklyReport{}
	assert.True(t, report.Empty())

	report.Append("Cabin Bedroom is 72.41°F, battery is 84%")
	report.Append("Cabin Kitchen is 68.00°F, battery is 91%")

	assert.False(t, report.Empty())
	assert.Equal(t, "Weekly Report\nCabin Bedroom is 72.41°F, battery is 84%\nCabin Kitchen is 68.00°F, battery is 91%", report.Message())
}
