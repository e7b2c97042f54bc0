package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/sgweb1/localservices-v3-sub002/httperr"
	"github.com/sgweb1/localservices-v3-sub002/scheduling"
)

const (
	// DateLayout is the wire and storage format for calendar dates.
	DateLayout = "2006-01-02"

	maxReasonLength      = 255
	maxDescriptionLength = 1000

	// Horizon for the rule-deletion guard: only upcoming bookings within this
	// window block the delete, not all history.
	deleteGuardHorizonDays = 90
)

// AvailabilityRule is a recurring weekly availability window for one provider.
// DayOfWeek uses the canonical convention Monday=0 .. Sunday=6.
type AvailabilityRule struct {
	gorm.Model
	ProviderID  uint    `json:"provider_id"`
	Provider    User    `json:"-" gorm:"foreignKey:ProviderID"`
	DayOfWeek   int     `json:"day_of_week"`
	StartTime   string  `json:"start_time"` // "HH:MM" 24h local time
	EndTime     string  `json:"end_time"`
	BreakStart  *string `json:"break_start"`
	BreakEnd    *string `json:"break_end"`
	MaxBookings int     `json:"max_bookings" gorm:"default:1"`
	IsAvailable bool    `json:"is_available" gorm:"default:true"`
}

func (r *AvailabilityRule) BeforeCreate(tx *gorm.DB) error {
	if r.MaxBookings < 1 {
		r.MaxBookings = 1
	}
	return nil
}

// Validate checks the interval invariants: start < end, break bounds inside
// the window, break fields set both-or-neither.
func (r *AvailabilityRule) Validate() error {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return httperr.NewValidation("day_of_week", "day_of_week must be between 0 (Monday) and 6 (Sunday)")
	}
	start, err := scheduling.ParseClock(r.StartTime)
	if err != nil {
		return httperr.NewValidation("start_time", err.Error())
	}
	end, err := scheduling.ParseClock(r.EndTime)
	if err != nil {
		return httperr.NewValidation("end_time", err.Error())
	}
	if end <= start {
		return httperr.NewValidation("end_time", "end_time must be after start_time")
	}
	if (r.BreakStart == nil) != (r.BreakEnd == nil) {
		return httperr.NewValidation("break_start", "break_start and break_end must be set together")
	}
	if r.BreakStart != nil {
		bs, err := scheduling.ParseClock(*r.BreakStart)
		if err != nil {
			return httperr.NewValidation("break_start", err.Error())
		}
		be, err := scheduling.ParseClock(*r.BreakEnd)
		if err != nil {
			return httperr.NewValidation("break_end", err.Error())
		}
		if bs >= be || bs < start || be > end {
			return httperr.NewValidation("break_start", "break must fall inside the availability window")
		}
	}
	return nil
}

// Window returns the rule's time-of-day interval. The rule must have passed
// Validate; malformed times collapse to an empty interval.
func (r *AvailabilityRule) Window() scheduling.Interval {
	start, _ := scheduling.ParseClock(r.StartTime)
	end, _ := scheduling.ParseClock(r.EndTime)
	return scheduling.Interval{Start: start, End: end}
}

func (r *AvailabilityRule) BreakInterval() *scheduling.Interval {
	if r.BreakStart == nil || r.BreakEnd == nil {
		return nil
	}
	bs, _ := scheduling.ParseClock(*r.BreakStart)
	be, _ := scheduling.ParseClock(*r.BreakEnd)
	return &scheduling.Interval{Start: bs, End: be}
}

func (r *AvailabilityRule) SlotWindow() scheduling.Window {
	w := r.Window()
	return scheduling.Window{Start: w.Start, End: w.End, Break: r.BreakInterval()}
}

// RuleOverlaps reports whether the rule's window collides with another active
// rule for the same provider and day. Disabled rules do not count.
func RuleOverlaps(dbh *gorm.DB, r *AvailabilityRule) (bool, error) {
	var siblings []AvailabilityRule
	q := dbh.Where("provider_id = ? AND day_of_week = ? AND is_available = ?",
		r.ProviderID, r.DayOfWeek, true)
	if r.ID != 0 {
		q = q.Where("id != ?", r.ID)
	}
	if err := q.Find(&siblings).Error; err != nil {
		return false, err
	}
	w := r.Window()
	for _, s := range siblings {
		if w.Overlaps(s.Window()) {
			return true, nil
		}
	}
	return false, nil
}

// RuleHasActiveBookings reports whether any non-terminal booking falls inside
// this rule's recurring window within the look-ahead horizon. Such rules must
// not be deleted.
func RuleHasActiveBookings(dbh *gorm.DB, r *AvailabilityRule, now time.Time) (bool, error) {
	today := now.Format(DateLayout)
	horizon := now.AddDate(0, 0, deleteGuardHorizonDays).Format(DateLayout)

	var bookings []Booking
	err := dbh.Where("provider_id = ? AND status IN ?", r.ProviderID, ActiveStatuses).
		Where("booking_date >= ? AND booking_date <= ?", today, horizon).
		Where("start_time >= ? AND end_time <= ?", r.StartTime, r.EndTime).
		Find(&bookings).Error
	if err != nil {
		return false, err
	}
	for _, b := range bookings {
		d, err := time.Parse(DateLayout, b.BookingDate)
		if err != nil {
			continue
		}
		if scheduling.WeekdayIndex(d) == r.DayOfWeek {
			return true, nil
		}
	}
	return false, nil
}

// RulesForProvider returns all rules for a provider grouped by day-of-week.
func RulesForProvider(dbh *gorm.DB, providerID uint) ([]AvailabilityRule, error) {
	var rules []AvailabilityRule
	err := dbh.Where("provider_id = ?", providerID).
		Order("day_of_week asc, start_time asc").
		Find(&rules).Error
	return rules, err
}

// RulesForDay returns the active rules for one provider and day-of-week.
func RulesForDay(dbh *gorm.DB, providerID uint, dayOfWeek int) ([]AvailabilityRule, error) {
	var rules []AvailabilityRule
	err := dbh.Where("provider_id = ? AND day_of_week = ? AND is_available = ?",
		providerID, dayOfWeek, true).
		Order("start_time asc").
		Find(&rules).Error
	return rules, err
}

// AvailabilityException is a date-range block (vacation, illness) that fully
// cancels slot generation for every date in the inclusive range, regardless of
// rule state. Overlapping exceptions are legal; they all just block.
type AvailabilityException struct {
	gorm.Model
	ProviderID  uint   `json:"provider_id"`
	Provider    User   `json:"-" gorm:"foreignKey:ProviderID"`
	StartDate   string `json:"start_date"` // inclusive, "YYYY-MM-DD"
	EndDate     string `json:"end_date"`   // inclusive
	Reason      string `json:"reason"`
	Description string `json:"description"`
	IsApproved  bool   `json:"is_approved"`
}

func (e *AvailabilityException) BeforeCreate(tx *gorm.DB) error {
	if e.Reason == "" {
		e.Reason = "Vacation"
	}
	// Vestigial flag kept for forward compatibility; there is no approval
	// workflow, every exception is approved on creation.
	e.IsApproved = true
	return nil
}

func (e *AvailabilityException) Validate() error {
	start, err := time.Parse(DateLayout, e.StartDate)
	if err != nil {
		return httperr.NewValidation("start_date", "start_date must be formatted YYYY-MM-DD")
	}
	end, err := time.Parse(DateLayout, e.EndDate)
	if err != nil {
		return httperr.NewValidation("end_date", "end_date must be formatted YYYY-MM-DD")
	}
	if end.Before(start) {
		return httperr.NewValidation("end_date", "end_date must not be before start_date")
	}
	if len(e.Reason) > maxReasonLength {
		return httperr.NewValidation("reason", "reason must be at most 255 characters")
	}
	if len(e.Description) > maxDescriptionLength {
		return httperr.NewValidation("description", "description must be at most 1000 characters")
	}
	return nil
}

// Blocks reports whether the exception covers the given date. ISO dates
// compare correctly as strings.
func (e *AvailabilityException) Blocks(date string) bool {
	return e.StartDate <= date && date <= e.EndDate
}

// ExceptionsForProvider returns a provider's exceptions sorted ascending by
// start date.
func ExceptionsForProvider(dbh *gorm.DB, providerID uint) ([]AvailabilityException, error) {
	var exceptions []AvailabilityException
	err := dbh.Where("provider_id = ?", providerID).
		Order("start_date asc").
		Find(&exceptions).Error
	return exceptions, err
}

// DateBlocked reports whether any exception covers the given date for the
// provider.
func DateBlocked(dbh *gorm.DB, providerID uint, date string) (bool, error) {
	var count int64
	err := dbh.Model(&AvailabilityException{}).
		Where("provider_id = ? AND start_date <= ? AND end_date >= ?", providerID, date, date).
		Count(&count).Error
	return count > 0, err
}

// AvailableSlots produces the bookable "HH:MM" start times for a provider on
// one date: exceptions block the whole date, otherwise every active rule for
// the date's day-of-week is walked at the fixed slot step with its break
// carved out. Existing bookings are not subtracted here; the booking-creation
// path re-checks conflicts against the booking store.
func AvailableSlots(dbh *gorm.DB, providerID uint, date string, durationMinutes int) ([]string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, httperr.NewValidation("date", "date must be formatted YYYY-MM-DD")
	}
	if durationMinutes <= 0 {
		return nil, httperr.NewValidation("duration_minutes", "duration_minutes must be positive")
	}

	blocked, err := DateBlocked(dbh, providerID, date)
	if err != nil {
		return nil, err
	}
	if blocked {
		return []string{}, nil
	}

	rules, err := RulesForDay(dbh, providerID, scheduling.WeekdayIndex(d))
	if err != nil {
		return nil, err
	}
	windows := make([]scheduling.Window, 0, len(rules))
	for _, r := range rules {
		windows = append(windows, r.SlotWindow())
	}
	return scheduling.DailySlots(windows, durationMinutes), nil
}
