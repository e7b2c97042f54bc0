package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sgweb1/localservices-v3-sub002/httperr"
	"github.com/sgweb1/localservices-v3-sub002/scheduling"
)

type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusQuoteSent  BookingStatus = "quote_sent"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusRejected   BookingStatus = "rejected"
	StatusCancelled  BookingStatus = "cancelled"
)

// ActiveStatuses are the non-terminal states that occupy provider time and
// participate in conflict detection.
var ActiveStatuses = []BookingStatus{
	StatusPending, StatusQuoteSent, StatusConfirmed, StatusInProgress,
}

func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

// Booking is a proposed or confirmed occupation of provider time. Bookings
// are never hard-deleted by the provider; HiddenByProvider soft-hides them
// from default listings.
type Booking struct {
	gorm.Model
	ProviderID       uint          `json:"provider_id"`
	Provider         User          `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
	CustomerID       uint          `json:"customer_id"`
	Customer         User          `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	ServiceID        uint          `json:"service_id"`
	Service          Service       `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	BookingDate      string        `json:"booking_date"` // "YYYY-MM-DD"
	StartTime        string        `json:"start_time"`   // "HH:MM" 24h
	EndTime          string        `json:"end_time"`
	DurationMinutes  int           `json:"duration_minutes"`
	Status           BookingStatus `json:"status"`
	StatusReason     string        `json:"status_reason,omitempty"`
	ServicePrice     float64       `json:"service_price"`
	Notes            string        `json:"notes"`
	StartedAt        *time.Time    `json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at"`
	HiddenByProvider bool          `json:"hidden_by_provider"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.Status == "" {
		b.Status = StatusPending
	}
	return nil
}

// Accept confirms a pending or quoted booking.
func (b *Booking) Accept(tx *gorm.DB) error {
	if b.Status != StatusPending && b.Status != StatusQuoteSent {
		return httperr.NewInvalidState("accept", string(b.Status))
	}
	b.Status = StatusConfirmed
	return tx.Save(b).Error
}

// Decline rejects a pending booking, storing the provider's reason.
func (b *Booking) Decline(tx *gorm.DB, reason string) error {
	if b.Status != StatusPending {
		return httperr.NewInvalidState("decline", string(b.Status))
	}
	b.Status = StatusRejected
	b.StatusReason = reason
	return tx.Save(b).Error
}

// SendQuote moves a pending booking to quote_sent with the proposed price and
// an optional revised duration in hours.
func (b *Booking) SendQuote(tx *gorm.DB, price float64, durationHours float64) error {
	if b.Status != StatusPending {
		return httperr.NewInvalidState("send a quote for", string(b.Status))
	}
	if durationHours > 0 {
		revised := int(durationHours * 60)
		start, err := scheduling.ParseClock(b.StartTime)
		if err == nil && start+revised > 24*60 {
			return httperr.NewValidation("duration_hours", "booking must end within the same day")
		}
		b.DurationMinutes = revised
		if err == nil {
			b.EndTime = scheduling.FormatClock(start + revised)
		}
	}
	b.Status = StatusQuoteSent
	b.ServicePrice = price
	return tx.Save(b).Error
}

// Start begins work on a booking. Only a confirmed booking can be started.
func (b *Booking) Start(tx *gorm.DB, now time.Time) error {
	if b.Status != StatusConfirmed {
		return httperr.NewInvalidState("start", string(b.Status))
	}
	b.Status = StatusInProgress
	b.StartedAt = &now
	return tx.Save(b).Error
}

// Complete finishes an in-progress booking, optionally overwriting the price
// with the final amount charged.
func (b *Booking) Complete(tx *gorm.DB, now time.Time, finalPrice *float64) error {
	if b.Status != StatusInProgress {
		return httperr.NewInvalidState("complete", string(b.Status))
	}
	b.Status = StatusCompleted
	b.CompletedAt = &now
	if finalPrice != nil {
		b.ServicePrice = *finalPrice
	}
	return tx.Save(b).Error
}

// Cancel is the customer-initiated terminal transition. Acting on someone
// else's booking reports not-found rather than forbidden.
func (b *Booking) Cancel(tx *gorm.DB, customerID uint, reason string) error {
	if b.CustomerID != customerID {
		return httperr.NewNotFound("booking")
	}
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return httperr.NewInvalidState("cancel", string(b.Status))
	}
	b.Status = StatusCancelled
	b.StatusReason = reason
	return tx.Save(b).Error
}

// Hide soft-hides the booking from the provider's default listings without
// touching its status. Restore undoes it.
func (b *Booking) Hide(tx *gorm.DB) error {
	b.HiddenByProvider = true
	return tx.Model(b).Update("hidden_by_provider", true).Error
}

func (b *Booking) Restore(tx *gorm.DB) error {
	b.HiddenByProvider = false
	return tx.Model(b).Update("hidden_by_provider", false).Error
}

// FindConflicting returns the non-terminal bookings for a provider and date
// whose [start_time, end_time) interval overlaps the given one. Zero-padded
// HH:MM strings compare correctly in SQL. On postgres the rows are locked so
// the caller's check-then-insert is race free; sqlite serializes writes on
// its own.
func FindConflicting(tx *gorm.DB, providerID uint, date, startTime, endTime string, excludeID uint) ([]Booking, error) {
	q := tx.Where("provider_id = ? AND booking_date = ?", providerID, date).
		Where("status IN ?", ActiveStatuses).
		Where("start_time < ? AND end_time > ?", endTime, startTime)
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var conflicts []Booking
	if err := q.Find(&conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}

// CreateBookingInput carries everything the creation path needs; the caller
// resolves the service beforehand so defaults (duration, price) come from the
// catalog.
type CreateBookingInput struct {
	CustomerID      uint
	ProviderID      uint
	ServiceID       uint
	BookingDate     string
	StartTime       string
	DurationMinutes int
	ServicePrice    float64
	Notes           string
}

// CreateBooking validates the request against availability rules, exceptions
// and existing bookings, then inserts the booking in pending state. The
// conflict check and insert run in one transaction so two racing requests for
// the same slot produce exactly one success.
func CreateBooking(dbh *gorm.DB, in CreateBookingInput) (*Booking, error) {
	if in.CustomerID == in.ProviderID {
		return nil, httperr.NewValidation("provider_id", "providers cannot book their own services")
	}
	date, err := time.Parse(DateLayout, in.BookingDate)
	if err != nil {
		return nil, httperr.NewValidation("booking_date", "booking_date must be formatted YYYY-MM-DD")
	}
	start, err := scheduling.ParseClock(in.StartTime)
	if err != nil {
		return nil, httperr.NewValidation("start_time", err.Error())
	}
	if in.DurationMinutes <= 0 {
		return nil, httperr.NewValidation("duration_minutes", "duration_minutes must be positive")
	}
	end := start + in.DurationMinutes
	if end > 24*60 {
		return nil, httperr.NewValidation("duration_minutes", "booking must end within the same day")
	}
	requested := scheduling.Interval{Start: start, End: end}

	booking := &Booking{
		ProviderID:      in.ProviderID,
		CustomerID:      in.CustomerID,
		ServiceID:       in.ServiceID,
		BookingDate:     in.BookingDate,
		StartTime:       scheduling.FormatClock(start),
		EndTime:         scheduling.FormatClock(end),
		DurationMinutes: in.DurationMinutes,
		ServicePrice:    in.ServicePrice,
		Notes:           in.Notes,
		Status:          StatusPending,
	}

	err = dbh.Transaction(func(tx *gorm.DB) error {
		// Serialize creates per provider-date. Row locking alone cannot: when
		// the slot is empty the conflict SELECT returns no rows, so FOR UPDATE
		// locks nothing and two racing inserts would both pass the capacity
		// check. The advisory lock is released automatically at commit or
		// rollback. sqlite permits a single writer, so a racing transaction
		// there fails outright instead of double-booking.
		if tx.Dialector.Name() == "postgres" {
			key := fmt.Sprintf("%d:%s", in.ProviderID, in.BookingDate)
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
				return err
			}
		}

		blocked, err := DateBlocked(tx, in.ProviderID, in.BookingDate)
		if err != nil {
			return err
		}
		if blocked {
			return httperr.NewConflict("provider is not available on this date")
		}

		rules, err := RulesForDay(tx, in.ProviderID, scheduling.WeekdayIndex(date))
		if err != nil {
			return err
		}
		covering := coveringRule(rules, requested)
		if covering == nil {
			return httperr.NewConflict("requested time is outside the provider's availability")
		}

		conflicts, err := FindConflicting(tx, in.ProviderID, in.BookingDate, booking.StartTime, booking.EndTime, 0)
		if err != nil {
			return err
		}
		if len(conflicts) >= covering.MaxBookings {
			return httperr.NewConflict("time slot not available")
		}

		return tx.Create(booking).Error
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// coveringRule picks the first active rule whose window contains the
// requested interval without the interval crossing the rule's break.
func coveringRule(rules []AvailabilityRule, requested scheduling.Interval) *AvailabilityRule {
	for i := range rules {
		r := &rules[i]
		if !r.Window().Contains(requested) {
			continue
		}
		if br := r.BreakInterval(); br != nil && requested.Overlaps(*br) {
			continue
		}
		return r
	}
	return nil
}

// BookingFilters is the typed listing filter; sort columns are whitelisted at
// normalization time.
type BookingFilters struct {
	Status     BookingStatus
	CustomerID uint
	ServiceID  uint
	Hidden     string // "visible" (default), "hidden", "all"
	Search     string // matches customer name or service title
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

var sortableColumns = map[string]bool{
	"booking_date":  true,
	"start_time":    true,
	"status":        true,
	"service_price": true,
	"created_at":    true,
}

func (f *BookingFilters) Normalize() {
	if !sortableColumns[f.SortBy] {
		f.SortBy = "booking_date"
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		f.SortOrder = "desc"
	}
	switch f.Hidden {
	case "hidden", "all":
	default:
		f.Hidden = "visible"
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

// ListBookings returns one page of a provider's bookings plus the total
// matching count.
func ListBookings(dbh *gorm.DB, providerID uint, f BookingFilters) ([]Booking, int64, error) {
	f.Normalize()

	q := dbh.Model(&Booking{}).Where("bookings.provider_id = ?", providerID)
	switch f.Hidden {
	case "hidden":
		q = q.Where("bookings.hidden_by_provider = ?", true)
	case "visible":
		q = q.Where("bookings.hidden_by_provider = ?", false)
	}
	if f.Status != "" {
		q = q.Where("bookings.status = ?", f.Status)
	}
	if f.CustomerID != 0 {
		q = q.Where("bookings.customer_id = ?", f.CustomerID)
	}
	if f.ServiceID != 0 {
		q = q.Where("bookings.service_id = ?", f.ServiceID)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Joins("JOIN users ON users.id = bookings.customer_id").
			Joins("JOIN services ON services.id = bookings.service_id").
			Where("users.name LIKE ? OR services.title LIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []Booking
	err := q.Order("bookings." + f.SortBy + " " + f.SortOrder).
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Preload("Service").
		Preload("Customer").
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CompleteOverdue bulk-completes a provider's confirmed bookings dated before
// today. Idempotent: a second run matches zero rows, and future-dated
// confirmed bookings are untouched.
func CompleteOverdue(dbh *gorm.DB, providerID uint, now time.Time) (int64, error) {
	res := dbh.Model(&Booking{}).
		Where("provider_id = ? AND status = ? AND booking_date < ?",
			providerID, StatusConfirmed, now.Format(DateLayout)).
		Updates(map[string]interface{}{
			"status":       StatusCompleted,
			"completed_at": now,
		})
	return res.RowsAffected, res.Error
}

// CompleteAllOverdue is the scheduled-job variant sweeping every provider.
func CompleteAllOverdue(dbh *gorm.DB, now time.Time) (int64, error) {
	res := dbh.Model(&Booking{}).
		Where("status = ? AND booking_date < ?", StatusConfirmed, now.Format(DateLayout)).
		Updates(map[string]interface{}{
			"status":       StatusCompleted,
			"completed_at": now,
		})
	return res.RowsAffected, res.Error
}

// BookingStatistics summarizes a provider's booking set. CompletionRate is
// completed over all non-deleted bookings, terminal and active alike.
type BookingStatistics struct {
	Total          int64   `json:"total"`
	Pending        int64   `json:"pending"`
	QuoteSent      int64   `json:"quote_sent"`
	Confirmed      int64   `json:"confirmed"`
	InProgress     int64   `json:"in_progress"`
	Completed      int64   `json:"completed"`
	Cancelled      int64   `json:"cancelled"`
	Rejected       int64   `json:"rejected"`
	CompletionRate float64 `json:"completion_rate"`
}

func ProviderStatistics(dbh *gorm.DB, providerID uint) (*BookingStatistics, error) {
	stats := &BookingStatistics{}
	base := func() *gorm.DB {
		return dbh.Model(&Booking{}).Where("provider_id = ?", providerID)
	}
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	counts := []struct {
		status BookingStatus
		dest   *int64
	}{
		{StatusPending, &stats.Pending},
		{StatusQuoteSent, &stats.QuoteSent},
		{StatusConfirmed, &stats.Confirmed},
		{StatusInProgress, &stats.InProgress},
		{StatusCompleted, &stats.Completed},
		{StatusCancelled, &stats.Cancelled},
		{StatusRejected, &stats.Rejected},
	}
	for _, c := range counts {
		if err := base().Where("status = ?", c.status).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats, nil
}
