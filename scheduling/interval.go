package scheduling

import (
	"fmt"
	"time"
)

// Interval is a half-open [Start, End) range of minutes since midnight.
// Touching endpoints do not count as an overlap.
type Interval struct {
	Start int
	End   int
}

func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

func (a Interval) Contains(inner Interval) bool {
	return a.Start <= inner.Start && inner.End <= a.End
}

// ParseClock parses a 24h "HH:MM" value into minutes since midnight.
// "24:00" is accepted as an exclusive end-of-day bound so a window can run
// until midnight.
func ParseClock(s string) (int, error) {
	if s == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// WeekdayIndex maps a date to the canonical day-of-week convention used by
// availability rules: Monday=0 .. Sunday=6.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the English name for a Monday=0 .. Sunday=6 index.
func DayName(dayOfWeek int) string {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return ""
	}
	return dayNames[dayOfWeek]
}
