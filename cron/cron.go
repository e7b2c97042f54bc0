package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sgweb1/localservices-v3-sub002/db"
	"github.com/sgweb1/localservices-v3-sub002/models"
	"github.com/sgweb1/localservices-v3-sub002/utils"
)

// StartCronJobs initializes the scheduler for the overdue-completion sweep
// and booking reminders
func StartCronJobs() {
	c := cron.New()

	// Sweep confirmed bookings whose date has passed. The update is
	// idempotent, so a missed or repeated run is harmless.
	_, err := c.AddFunc("30 0 * * *", completeOverdueBookings)
	if err != nil {
		log.Fatalf("Failed to add overdue cron job: %v", err)
	}

	// Check every few minutes for bookings starting in roughly an hour.
	_, err = c.AddFunc("*/5 * * * *", sendBookingReminders)
	if err != nil {
		log.Fatalf("Failed to add reminder cron job: %v", err)
	}

	c.Start()
	log.Println("Cron job scheduler started")
}

func completeOverdueBookings() {
	count, err := models.CompleteAllOverdue(db.DB, time.Now())
	if err != nil {
		log.Printf("Error completing overdue bookings: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Completed %d overdue bookings", count)
	}
}

// sendBookingReminders emails customers whose confirmed booking starts in
// about an hour.
func sendBookingReminders() {
	now := time.Now()
	today := now.Format(models.DateLayout)
	windowStart := now.Add(55 * time.Minute).Format("15:04")
	windowEnd := now.Add(65 * time.Minute).Format("15:04")
	if windowEnd < windowStart {
		// Window wraps past midnight; tomorrow's pass will catch those.
		return
	}

	var bookings []models.Booking
	err := db.DB.Preload("Customer").Preload("Service").Preload("Provider").
		Where("status = ? AND booking_date = ?", models.StatusConfirmed, today).
		Where("start_time >= ? AND start_time <= ?", windowStart, windowEnd).
		Find(&bookings).Error
	if err != nil {
		log.Printf("Error fetching bookings for reminders: %v", err)
		return
	}

	for _, booking := range bookings {
		if err := sendReminderEmail(&booking); err != nil {
			log.Printf("Failed to send reminder for booking %d: %v", booking.ID, err)
			continue
		}
		log.Printf("Sent reminder for booking %d to %s", booking.ID, booking.Customer.Email)
	}
}

func sendReminderEmail(booking *models.Booking) error {
	subject := fmt.Sprintf("Reminder: Upcoming Booking - %s", booking.Service.Title)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder for your upcoming booking scheduled in one hour.</p>
		<p><strong>Details:</strong></p>
		<ul>
			<li><strong>Service:</strong> %s</li>
			<li><strong>Provider:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s - %s</li>
		</ul>
		<p>Please be available on time. If you need to cancel, do so as soon as possible.</p>
	`, booking.Customer.Name, booking.Service.Title, booking.Provider.Name,
		booking.BookingDate, booking.StartTime, booking.EndTime)

	return utils.SendEmail(booking.Customer.Email, subject, body)
}
