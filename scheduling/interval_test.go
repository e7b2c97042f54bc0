package scheduling

import (
	"testing"
	"time"
)

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", Interval{540, 600}, Interval{660, 720}, false},
		{"touching endpoints", Interval{540, 600}, Interval{600, 660}, false},
		{"partial overlap", Interval{540, 630}, Interval{600, 660}, true},
		{"contained", Interval{540, 720}, Interval{570, 600}, true},
		{"identical", Interval{540, 600}, Interval{540, 600}, true},
	}
	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%s: Overlaps(%v, %v) = %v, want %v", tt.name, tt.a, tt.b, got, tt.want)
		}
		if got := tt.b.Overlaps(tt.a); got != tt.want {
			t.Errorf("%s: Overlaps is not symmetric for %v, %v", tt.name, tt.a, tt.b)
		}
	}
}

func TestIntervalContains(t *testing.T) {
	outer := Interval{540, 1020}
	tests := []struct {
		name  string
		inner Interval
		want  bool
	}{
		{"inside", Interval{600, 660}, true},
		{"equal", Interval{540, 1020}, true},
		{"starts before", Interval{500, 600}, false},
		{"ends after", Interval{900, 1080}, false},
	}
	for _, tt := range tests {
		if got := outer.Contains(tt.inner); got != tt.want {
			t.Errorf("%s: Contains(%v, %v) = %v, want %v", tt.name, outer, tt.inner, got, tt.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("09:30")
	if err != nil {
		t.Fatalf("ParseClock(09:30) returned error: %v", err)
	}
	if got != 570 {
		t.Fatalf("ParseClock(09:30) = %d, want 570", got)
	}

	// Exclusive end-of-day bound for windows running until midnight.
	got, err = ParseClock("24:00")
	if err != nil {
		t.Fatalf("ParseClock(24:00) returned error: %v", err)
	}
	if got != 1440 {
		t.Fatalf("ParseClock(24:00) = %d, want 1440", got)
	}

	for _, bad := range []string{"9:30:00", "25:00", "24:30", "noon", ""} {
		if _, err := ParseClock(bad); err == nil {
			t.Errorf("ParseClock(%q) should fail", bad)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(570); got != "09:30" {
		t.Errorf("FormatClock(570) = %q, want 09:30", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Errorf("FormatClock(0) = %q, want 00:00", got)
	}
	if got := FormatClock(1440); got != "24:00" {
		t.Errorf("FormatClock(1440) = %q, want 24:00", got)
	}
}

func TestWeekdayIndex(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2025-12-22", 0}, // Monday
		{"2025-12-25", 3}, // Thursday
		{"2025-12-27", 5}, // Saturday
		{"2025-12-28", 6}, // Sunday
	}
	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		if err != nil {
			t.Fatalf("bad test date %s: %v", tt.date, err)
		}
		if got := WeekdayIndex(d); got != tt.want {
			t.Errorf("WeekdayIndex(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestDayName(t *testing.T) {
	if got := DayName(0); got != "Monday" {
		t.Errorf("DayName(0) = %q, want Monday", got)
	}
	if got := DayName(6); got != "Sunday" {
		t.Errorf("DayName(6) = %q, want Sunday", got)
	}
	if got := DayName(7); got != "" {
		t.Errorf("DayName(7) = %q, want empty", got)
	}
}
