package scheduling

import "sort"

// SlotStepMinutes is the fixed walking step between candidate start times.
const SlotStepMinutes = 30

// Window is a single recurring availability window on one day, with an
// optional break carved out of it.
type Window struct {
	Start int
	End   int
	Break *Interval
}

// DailySlots walks every window at a fixed step and returns the deduplicated,
// ascending "HH:MM" start times at which a booking of durationMinutes fits
// entirely inside the window without crossing the break.
//
// The result does not subtract existing bookings; that check belongs to the
// booking-creation path, which re-validates against the booking store.
func DailySlots(windows []Window, durationMinutes int) []string {
	if durationMinutes <= 0 {
		return []string{}
	}
	seen := make(map[int]bool)
	starts := []int{}
	for _, w := range windows {
		for t := w.Start; t+durationMinutes <= w.End; t += SlotStepMinutes {
			candidate := Interval{Start: t, End: t + durationMinutes}
			if w.Break != nil && candidate.Overlaps(*w.Break) {
				continue
			}
			if !seen[t] {
				seen[t] = true
				starts = append(starts, t)
			}
		}
	}
	sort.Ints(starts)
	out := make([]string, 0, len(starts))
	for _, t := range starts {
		out = append(out, FormatClock(t))
	}
	return out
}
