package domain

import (
	"strings"
	"sync"
	"time"
)

// IsReportWindow reports whether a run starting at now should flush the
// weekly digest. The window is a single minute; the external scheduler must
// invoke runs often enough that one lands inside it.
func IsReportWindow(now time.Time) bool {
	return now.Weekday() == time.Sunday && now.Hour() == 17 && now.Minute() == 0
}

// WeeklyReport accumulates one summary line per processed device for the
// duration of a single run. Appends are mutex-guarded so device processing
// may fan out without corrupting the accumulator.
type WeeklyReport struct {
	mu    sync.Mutex
	lines []string
}

func (r *WeeklyReport) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, line)
}

func (r *WeeklyReport) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.lines) == 0
}

// Message renders the digest body with lines in append order.
func (r *WeeklyReport) Message() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return "Weekly Report\n" + strings.Join(r.lines, "\n")
}
