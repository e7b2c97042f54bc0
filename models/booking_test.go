package models

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sgweb1/localservices-v3-sub002/httperr"
)

func mondayRule(providerID uint, maxBookings int) *AvailabilityRule {
	return &AvailabilityRule{
		ProviderID:  providerID,
		DayOfWeek:   0, // Monday
		StartTime:   "09:00",
		EndTime:     "17:00",
		MaxBookings: maxBookings,
		IsAvailable: true,
	}
}

// 2025-12-22 is a Monday.
const monday = "2025-12-22"

func TestCreateBooking(t *testing.T) {
	dbh := testDB(t)
	if err := dbh.Create(mondayRule(1, 1)).Error; err != nil {
		t.Fatalf("failed to create rule: %v", err)
	}

	booking, err := CreateBooking(dbh, CreateBookingInput{
		CustomerID:      2,
		ProviderID:      1,
		ServiceID:       5,
		BookingDate:     monday,
		StartTime:       "10:00",
		DurationMinutes: 60,
		ServicePrice:    150,
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	if booking.Status != StatusPending {
		t.Errorf("new booking status = %s, want pending", booking.Status)
	}
	if booking.EndTime != "11:00" {
		t.Errorf("end time = %s, want 11:00", booking.EndTime)
	}

	// Same slot again: rule capacity is 1, so the second request conflicts.
	_, err = CreateBooking(dbh, CreateBookingInput{
		CustomerID:      3,
		ProviderID:      1,
		ServiceID:       5,
		BookingDate:     monday,
		StartTime:       "10:30",
		DurationMinutes: 60,
	})
	var conflict *httperr.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("overlapping booking: got %v, want ConflictError", err)
	}

	// Adjacent slot is fine: [11:00, 12:00) only touches [10:00, 11:00).
	_, err = CreateBooking(dbh, CreateBookingInput{
		CustomerID:      3,
		ProviderID:      1,
		ServiceID:       5,
		BookingDate:     monday,
		StartTime:       "11:00",
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("adjacent booking should succeed: %v", err)
	}
}

func TestCreateBooking_SelfBooking(t *testing.T) {
	dbh := testDB(t)

	_, err := CreateBooking(dbh, CreateBookingInput{
		CustomerID:      1,
		ProviderID:      1,
		ServiceID:       5,
		BookingDate:     monday,
		StartTime:       "10:00",
		DurationMinutes: 60,
	})
	var validation *httperr.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("self booking: got %v, want ValidationError", err)
	}
}

func TestCreateBooking_OutsideAvailability(t *testing.T) {
	dbh := testDB(t)
	if err := dbh.Create(mondayRule(1, 1)).Error; err != nil {
		t.Fatalf("failed to create rule: %v", err)
	}

	// Before opening hours.
	_, err := CreateBooking(dbh, CreateBookingInput{
		CustomerID:      2,
		ProviderID:      1,
		ServiceID:       5,
		BookingDate:     monday,
		StartTime:       "07:00",
		DurationMinutes: 60,
	})
	var conflict *httperr.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("outside hours: got %v, want ConflictError", err)
	}

	// Tuesday has no rule at all.
	_, err = CreateBooking(dbh, CreateBookingInput{
		CustomerID:      2,
		ProviderID:      1,
		ServiceID:       5,
		BookingDate:     "2025-12-23",
		StartTime:       "10:00",
		DurationMinutes: 60,
	})
	if !errors.As(err, &conflict) {
		t.Fatalf("no rule for day: got %v, want ConflictError", err)
	}
}

func TestCreateBooking_BreakCrossing(t *testing.T) {
	dbh := testDB(t)
	rule := mondayRule(1, 1)
	rule.BreakStart = strPtr("12:00")
	rule.BreakEnd = strPtr("13:00")
	if err := dbh.Create(rule).Error; err != nil {
		t.Fatalf("failed to create rule: %v", err)
	}

	_, err := CreateBooking(dbh, CreateBookingInput{
		CustomerID:      2,
		ProviderID:      1,
		ServiceID:       5,
		BookingDate:     monday,
		StartTime:       "11:30",
		DurationMinutes: 60,
	})
	var conflict *httperr.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("break-crossing booking: got %v, want ConflictError", err)
	}
}

func TestCreateBooking_ExceptionBlocks(t *testing.T) {
	dbh := testDB(t)
	if err := dbh.Create(mondayRule(1, 1)).Error; err != nil {
		t.Fatalf("failed to create rule: %v", err)
	}
	exception := &AvailabilityException{
		ProviderID: 1,
		StartDate:  "2025-12-20",
		EndDate:    "2025-12-30",
	}
	if err := dbh.Create(exception).Error; err != nil {
		t.Fatalf("failed to create exception: %v", err)
	}

	_, err := CreateBooking(dbh, CreateBookingInput{
		CustomerID:      2,
		ProviderID:      1,
		ServiceID:       5,
		BookingDate:     monday,
		StartTime:       "10:00",
		DurationMinutes: 60,
	})
	var conflict *httperr.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("exception-blocked booking: got %v, want ConflictError", err)
	}
}

func TestCreateBooking_CapacityAllowsConcurrency(t *testing.T) {
	dbh := testDB(t)
	if err := dbh.Create(mondayRule(1, 2)).Error; err != nil {
		t.Fatalf("failed to create rule: %v", err)
	}

	in := CreateBookingInput{
		CustomerID:      2,
		ProviderID:      1,
		ServiceID:       5,
		BookingDate:     monday,
		StartTime:       "10:00",
		DurationMinutes: 60,
	}
	if _, err := CreateBooking(dbh, in); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	in.CustomerID = 3
	if _, err := CreateBooking(dbh, in); err != nil {
		t.Fatalf("second booking within capacity failed: %v", err)
	}
	in.CustomerID = 4
	_, err := CreateBooking(dbh, in)
	var conflict *httperr.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("third booking over capacity: got %v, want ConflictError", err)
	}
}

func TestCreateBooking_RacingRequests(t *testing.T) {
	dbh := testDB(t)
	// sqlite cannot express the per-provider-date advisory lock postgres
	// takes, so the pool is pinned to one connection: the check-then-insert
	// transactions serialize the same way and the capacity invariant must
	// hold no matter how the goroutines interleave.
	sqlDB, err := dbh.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := dbh.Create(mondayRule(1, 2)).Error; err != nil {
		t.Fatalf("failed to create rule: %v", err)
	}

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = CreateBooking(dbh, CreateBookingInput{
				CustomerID:      uint(10 + i),
				ProviderID:      1,
				ServiceID:       5,
				BookingDate:     monday,
				StartTime:       "10:00",
				DurationMinutes: 60,
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var conflict *httperr.ConflictError
		if !errors.As(err, &conflict) {
			t.Errorf("attempt %d: got %v, want ConflictError", i, err)
		}
	}
	if successes != 2 {
		t.Fatalf("%d racing requests succeeded for a capacity-2 slot, want exactly 2", successes)
	}

	var persisted int64
	if err := dbh.Model(&Booking{}).
		Where("provider_id = ? AND booking_date = ? AND start_time = ?", 1, monday, "10:00").
		Count(&persisted).Error; err != nil {
		t.Fatalf("failed to count bookings: %v", err)
	}
	if persisted != 2 {
		t.Fatalf("%d bookings persisted, want 2", persisted)
	}
}

func TestBookingLifecycle(t *testing.T) {
	dbh := testDB(t)
	booking := &Booking{
		ProviderID:  1,
		CustomerID:  2,
		ServiceID:   5,
		BookingDate: monday,
		StartTime:   "10:00",
		EndTime:     "11:00",
	}
	if err := dbh.Create(booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
	if booking.Status != StatusPending {
		t.Fatalf("initial status = %s, want pending", booking.Status)
	}

	// Starting a pending booking must fail and report the current state.
	err := booking.Start(dbh, time.Now())
	var invalid *httperr.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("start from pending: got %v, want InvalidStateError", err)
	}
	if invalid.CurrentStatus != "pending" {
		t.Errorf("current_status = %q, want pending", invalid.CurrentStatus)
	}

	if err := booking.Accept(dbh); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if booking.Status != StatusConfirmed {
		t.Fatalf("status after accept = %s, want confirmed", booking.Status)
	}

	// Completing before starting must fail.
	err = booking.Complete(dbh, time.Now(), nil)
	if !errors.As(err, &invalid) {
		t.Fatalf("complete from confirmed: got %v, want InvalidStateError", err)
	}
	if invalid.CurrentStatus != "confirmed" {
		t.Errorf("current_status = %q, want confirmed", invalid.CurrentStatus)
	}

	if err := booking.Start(dbh, time.Now()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if booking.StartedAt == nil {
		t.Error("started_at not set")
	}

	finalPrice := 200.0
	if err := booking.Complete(dbh, time.Now(), &finalPrice); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if booking.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if booking.ServicePrice != 200 {
		t.Errorf("service price = %.2f, want 200", booking.ServicePrice)
	}

	// Terminal: nothing else is allowed.
	if err := booking.Accept(dbh); !errors.As(err, &invalid) {
		t.Fatalf("accept from completed: got %v, want InvalidStateError", err)
	}
}

func TestBookingQuoteFlow(t *testing.T) {
	dbh := testDB(t)
	booking := &Booking{
		ProviderID:      1,
		CustomerID:      2,
		ServiceID:       5,
		BookingDate:     monday,
		StartTime:       "10:00",
		EndTime:         "11:00",
		DurationMinutes: 60,
	}
	if err := dbh.Create(booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	if err := booking.SendQuote(dbh, 350, 2); err != nil {
		t.Fatalf("send quote failed: %v", err)
	}
	if booking.Status != StatusQuoteSent {
		t.Fatalf("status = %s, want quote_sent", booking.Status)
	}
	if booking.ServicePrice != 350 {
		t.Errorf("service price = %.2f, want 350", booking.ServicePrice)
	}
	if booking.DurationMinutes != 120 {
		t.Errorf("duration = %d, want 120", booking.DurationMinutes)
	}
	if booking.EndTime != "12:00" {
		t.Errorf("end time = %s, want 12:00", booking.EndTime)
	}

	// Quoted bookings can still be accepted.
	if err := booking.Accept(dbh); err != nil {
		t.Fatalf("accept after quote failed: %v", err)
	}

	// But not quoted again.
	err := booking.SendQuote(dbh, 400, 0)
	var invalid *httperr.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("quote from confirmed: got %v, want InvalidStateError", err)
	}
}

func TestBookingQuotePastMidnight(t *testing.T) {
	dbh := testDB(t)
	booking := &Booking{
		ProviderID:      1,
		CustomerID:      2,
		ServiceID:       5,
		BookingDate:     monday,
		StartTime:       "23:00",
		EndTime:         "23:30",
		DurationMinutes: 30,
	}
	if err := dbh.Create(booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	// A revised two-hour duration would push the end time past midnight.
	err := booking.SendQuote(dbh, 100, 2)
	var validation *httperr.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("quote past midnight: got %v, want ValidationError", err)
	}
	if booking.Status != StatusPending {
		t.Errorf("status = %s, want pending (rejected quote must not transition)", booking.Status)
	}
	if booking.EndTime != "23:30" {
		t.Errorf("end time = %s, want 23:30 (unchanged)", booking.EndTime)
	}

	// Ending exactly at midnight is still within the day.
	if err := booking.SendQuote(dbh, 100, 1); err != nil {
		t.Fatalf("quote ending at midnight failed: %v", err)
	}
	if booking.EndTime != "24:00" {
		t.Errorf("end time = %s, want 24:00", booking.EndTime)
	}
}

func TestBookingCancel(t *testing.T) {
	dbh := testDB(t)
	booking := &Booking{
		ProviderID:  1,
		CustomerID:  2,
		ServiceID:   5,
		BookingDate: monday,
		StartTime:   "10:00",
		EndTime:     "11:00",
	}
	if err := dbh.Create(booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	// Another customer's cancel attempt reports not-found, never forbidden.
	err := booking.Cancel(dbh, 3, "changed my mind")
	var notFound *httperr.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("foreign cancel: got %v, want NotFoundError", err)
	}

	if err := booking.Cancel(dbh, 2, "changed my mind"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if booking.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", booking.Status)
	}
	if booking.StatusReason != "changed my mind" {
		t.Errorf("status reason = %q", booking.StatusReason)
	}

	// Cancelled is terminal.
	err = booking.Cancel(dbh, 2, "again")
	var invalid *httperr.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("cancel from cancelled: got %v, want InvalidStateError", err)
	}
}

func TestCompleteOverdue(t *testing.T) {
	dbh := testDB(t)
	now := time.Date(2025, 12, 24, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		b := &Booking{
			ProviderID:  1,
			CustomerID:  uint(2 + i),
			ServiceID:   5,
			BookingDate: "2025-12-23", // yesterday
			StartTime:   "10:00",
			EndTime:     "11:00",
			Status:      StatusConfirmed,
		}
		if err := dbh.Create(b).Error; err != nil {
			t.Fatalf("failed to create booking: %v", err)
		}
	}
	future := &Booking{
		ProviderID:  1,
		CustomerID:  9,
		ServiceID:   5,
		BookingDate: "2025-12-25", // tomorrow
		StartTime:   "10:00",
		EndTime:     "11:00",
		Status:      StatusConfirmed,
	}
	if err := dbh.Create(future).Error; err != nil {
		t.Fatalf("failed to create future booking: %v", err)
	}

	count, err := CompleteOverdue(dbh, 1, now)
	if err != nil {
		t.Fatalf("CompleteOverdue failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("first run count = %d, want 3", count)
	}

	// Idempotent: the second run matches nothing.
	count, err = CompleteOverdue(dbh, 1, now)
	if err != nil {
		t.Fatalf("second CompleteOverdue failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("second run count = %d, want 0", count)
	}

	var reloaded Booking
	if err := dbh.First(&reloaded, future.ID).Error; err != nil {
		t.Fatalf("failed to reload future booking: %v", err)
	}
	if reloaded.Status != StatusConfirmed {
		t.Errorf("future booking status = %s, want confirmed", reloaded.Status)
	}
}

func TestHiddenBookingsExcludedNotDeleted(t *testing.T) {
	dbh := testDB(t)
	visible := &Booking{
		ProviderID: 1, CustomerID: 2, ServiceID: 5,
		BookingDate: monday, StartTime: "09:00", EndTime: "10:00",
		Status: StatusConfirmed,
	}
	hidden := &Booking{
		ProviderID: 1, CustomerID: 3, ServiceID: 5,
		BookingDate: monday, StartTime: "11:00", EndTime: "12:00",
		Status: StatusConfirmed,
	}
	for _, b := range []*Booking{visible, hidden} {
		if err := dbh.Create(b).Error; err != nil {
			t.Fatalf("failed to create booking: %v", err)
		}
	}

	if err := hidden.Hide(dbh); err != nil {
		t.Fatalf("hide failed: %v", err)
	}

	list, total, err := ListBookings(dbh, 1, BookingFilters{})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != visible.ID {
		t.Fatalf("default listing = %d rows (total %d), want only the visible booking", len(list), total)
	}

	_, total, err = ListBookings(dbh, 1, BookingFilters{Hidden: "all"})
	if err != nil {
		t.Fatalf("ListBookings(all) failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("hidden=all total = %d, want 2", total)
	}

	list, _, err = ListBookings(dbh, 1, BookingFilters{Hidden: "hidden"})
	if err != nil {
		t.Fatalf("ListBookings(hidden) failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != hidden.ID {
		t.Fatalf("hidden=hidden listing should hold only the hidden booking")
	}
	if list[0].Status != StatusConfirmed {
		t.Errorf("hidden booking status = %s, want confirmed (unchanged)", list[0].Status)
	}

	if err := hidden.Restore(dbh); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	_, total, err = ListBookings(dbh, 1, BookingFilters{})
	if err != nil {
		t.Fatalf("ListBookings after restore failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("total after restore = %d, want 2", total)
	}
}

func TestListBookingsSearchAndSort(t *testing.T) {
	dbh := testDB(t)
	users := []User{
		{ID: 2, Name: "Anna Kowalska", Email: "anna@example.com"},
		{ID: 3, Name: "Piotr Nowak", Email: "piotr@example.com"},
	}
	for i := range users {
		if err := dbh.Create(&users[i]).Error; err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
	}
	service := Service{Title: "Hydraulika", DurationMinutes: 60, ProviderID: 1}
	if err := dbh.Create(&service).Error; err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	b1 := &Booking{
		ProviderID: 1, CustomerID: 2, ServiceID: service.ID,
		BookingDate: "2025-12-22", StartTime: "09:00", EndTime: "10:00",
	}
	b2 := &Booking{
		ProviderID: 1, CustomerID: 3, ServiceID: service.ID,
		BookingDate: "2025-12-23", StartTime: "11:00", EndTime: "12:00",
	}
	for _, b := range []*Booking{b1, b2} {
		if err := dbh.Create(b).Error; err != nil {
			t.Fatalf("failed to create booking: %v", err)
		}
	}

	list, total, err := ListBookings(dbh, 1, BookingFilters{Search: "Kowalska"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 || list[0].CustomerID != 2 {
		t.Fatalf("search by customer name: total = %d, want 1 row for customer 2", total)
	}

	_, total, err = ListBookings(dbh, 1, BookingFilters{Search: "Hydraulika"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("search by service title: total = %d, want 2", total)
	}

	// Default sort is booking_date desc; unknown sort columns fall back.
	list, _, err = ListBookings(dbh, 1, BookingFilters{SortBy: "evil; DROP TABLE bookings"})
	if err != nil {
		t.Fatalf("listing with bad sort failed: %v", err)
	}
	if list[0].BookingDate != "2025-12-23" {
		t.Fatalf("first row date = %s, want 2025-12-23 (desc)", list[0].BookingDate)
	}
}

func TestProviderStatistics(t *testing.T) {
	dbh := testDB(t)
	statuses := []BookingStatus{
		StatusCompleted, StatusCompleted, StatusPending, StatusCancelled,
	}
	for i, s := range statuses {
		b := &Booking{
			ProviderID: 1, CustomerID: uint(2 + i), ServiceID: 5,
			BookingDate: monday, StartTime: "09:00", EndTime: "10:00",
			Status: s,
		}
		if err := dbh.Create(b).Error; err != nil {
			t.Fatalf("failed to create booking: %v", err)
		}
	}
	// Another provider's bookings must not leak into the stats.
	other := &Booking{
		ProviderID: 2, CustomerID: 9, ServiceID: 5,
		BookingDate: monday, StartTime: "09:00", EndTime: "10:00",
		Status: StatusCompleted,
	}
	if err := dbh.Create(other).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	stats, err := ProviderStatistics(dbh, 1)
	if err != nil {
		t.Fatalf("ProviderStatistics failed: %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("total = %d, want 4", stats.Total)
	}
	if stats.Completed != 2 {
		t.Errorf("completed = %d, want 2", stats.Completed)
	}
	if stats.CompletionRate != 50 {
		t.Errorf("completion rate = %.2f, want 50", stats.CompletionRate)
	}
}
