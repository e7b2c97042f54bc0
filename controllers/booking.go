package controllers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/sgweb1/localservices-v3-sub002/db"
	"github.com/sgweb1/localservices-v3-sub002/httperr"
	"github.com/sgweb1/localservices-v3-sub002/models"
	"github.com/sgweb1/localservices-v3-sub002/redis"
	"github.com/sgweb1/localservices-v3-sub002/utils"
)

// CreateBooking books a provider's time on behalf of the authenticated
// customer. The slot is re-validated against availability and existing
// bookings inside one transaction, so racing requests cannot double-book.
func CreateBooking(c *fiber.Ctx) error {
	customerID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	var req struct {
		ServiceID       uint    `json:"service_id"`
		ProviderID      uint    `json:"provider_id"`
		BookingDate     string  `json:"booking_date"`
		StartTime       string  `json:"start_time"`
		DurationMinutes int     `json:"duration_minutes"`
		Notes           string  `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	var service models.Service
	if err := db.DB.First(&service, req.ServiceID).Error; err != nil {
		return httperr.Respond(c, httperr.NewNotFound("service"))
	}
	if req.ProviderID == 0 {
		req.ProviderID = service.ProviderID
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = service.DurationMinutes
	}

	booking, err := models.CreateBooking(db.DB, models.CreateBookingInput{
		CustomerID:      customerID,
		ProviderID:      req.ProviderID,
		ServiceID:       req.ServiceID,
		BookingDate:     req.BookingDate,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		ServicePrice:    service.Price,
		Notes:           req.Notes,
	})
	if err != nil {
		return httperr.Respond(c, err)
	}
	redis.InvalidateProviderSlots(req.ProviderID)

	// Notifications are fire-and-forget; the booking stands either way.
	go notifyBookingCreated(booking.ID, service.Title)

	return c.Status(fiber.StatusCreated).JSON(booking)
}

// GetBooking returns a single booking, visible only to its customer or
// provider.
func GetBooking(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	var booking models.Booking
	if err := db.DB.
		Preload("Service").
		Preload("Provider").
		Preload("Customer").
		Where("id = ? AND (customer_id = ? OR provider_id = ?)", c.Params("id"), userID, userID).
		First(&booking).Error; err != nil {
		return httperr.Respond(c, httperr.NewNotFound("booking"))
	}
	return c.JSON(booking)
}

// GetMyBookings lists the authenticated customer's bookings.
func GetMyBookings(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	q := db.DB.
		Preload("Service").
		Preload("Provider").
		Where("customer_id = ?", userID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var bookings []models.Booking
	if err := q.Order("booking_date desc, start_time desc").Find(&bookings).Error; err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// CancelBooking is the customer-initiated terminal transition.
func CancelBooking(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional for cancellation.
	_ = c.BodyParser(&req)

	var booking models.Booking
	if err := db.DB.First(&booking, c.Params("id")).Error; err != nil {
		return httperr.Respond(c, httperr.NewNotFound("booking"))
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return booking.Cancel(tx, userID, req.Reason)
	})
	if err != nil {
		return httperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Booking cancelled",
		"booking": booking,
	})
}

// notifyBookingCreated emails both parties about a new booking. Runs in its
// own goroutine; failures are logged, never surfaced.
func notifyBookingCreated(bookingID uint, serviceTitle string) {
	var booking models.Booking
	if err := db.DB.Preload("Customer").Preload("Provider").First(&booking, bookingID).Error; err != nil {
		log.Printf("notify: booking %d not found: %v", bookingID, err)
		return
	}

	customerBody := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your booking request has been submitted.</p>
		<ul>
			<li><strong>Service:</strong> %s</li>
			<li><strong>Provider:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s - %s</li>
		</ul>
		<p>You will be notified once the provider responds.</p>
	`, booking.Customer.Name, serviceTitle, booking.Provider.Name,
		booking.BookingDate, booking.StartTime, booking.EndTime)
	if err := utils.SendEmail(booking.Customer.Email, "Booking Submitted", customerBody); err != nil {
		log.Printf("notify: failed to email customer for booking %d: %v", bookingID, err)
	}

	providerBody := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have a new booking request.</p>
		<ul>
			<li><strong>Service:</strong> %s</li>
			<li><strong>Customer:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s - %s</li>
		</ul>
	`, booking.Provider.Name, serviceTitle, booking.Customer.Name,
		booking.BookingDate, booking.StartTime, booking.EndTime)
	if err := utils.SendEmail(booking.Provider.Email, "New Booking Request", providerBody); err != nil {
		log.Printf("notify: failed to email provider for booking %d: %v", bookingID, err)
	}
}
