package provider

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/sgweb1/localservices-v3-sub002/db"
	"github.com/sgweb1/localservices-v3-sub002/httperr"
	"github.com/sgweb1/localservices-v3-sub002/models"
	"github.com/sgweb1/localservices-v3-sub002/utils"
)

// requireProvider extracts the authenticated provider from the request
// context. Customers hitting provider endpoints get a genuine authorization
// error, not a not-found.
func requireProvider(c *fiber.Ctx) (uint, error) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return 0, httperr.NewAuthorization("authentication required")
	}
	role, ok := c.Locals("role").(string)
	if !ok || (role != "provider" && role != "admin") {
		return 0, httperr.NewAuthorization("only providers can access this endpoint")
	}
	return userID, nil
}

// loadOwnBooking fetches a booking owned by the acting provider. Bookings of
// other providers report not-found so existence does not leak.
func loadOwnBooking(c *fiber.Ctx, providerID uint) (*models.Booking, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return nil, httperr.NewValidation("id", "invalid booking ID")
	}
	var booking models.Booking
	if err := db.DB.Where("id = ? AND provider_id = ?", id, providerID).
		First(&booking).Error; err != nil {
		return nil, httperr.NewNotFound("booking")
	}
	return &booking, nil
}

// ListBookings returns a filtered, paginated page of the provider's bookings.
func ListBookings(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}

	filters := models.BookingFilters{
		Status:     models.BookingStatus(c.Query("status")),
		CustomerID: uint(c.QueryInt("customer_id")),
		ServiceID:  uint(c.QueryInt("service_id")),
		Hidden:     c.Query("hidden"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 20),
	}

	bookings, total, err := models.ListBookings(db.DB, providerID, filters)
	if err != nil {
		return httperr.Respond(c, err)
	}

	filters.Normalize()
	return c.JSON(fiber.Map{
		"bookings": bookings,
		"total":    total,
		"page":     filters.Page,
		"limit":    filters.Limit,
		"pages":    (total + int64(filters.Limit) - 1) / int64(filters.Limit),
	})
}

// AcceptBooking confirms a pending or quoted booking.
func AcceptBooking(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	booking, err := loadOwnBooking(c, providerID)
	if err != nil {
		return httperr.Respond(c, err)
	}

	if err := db.DB.Transaction(func(tx *gorm.DB) error {
		return booking.Accept(tx)
	}); err != nil {
		return httperr.Respond(c, err)
	}

	go notifyStatusChange(booking.ID, "Booking Confirmed",
		"Your booking has been confirmed by the provider.")

	return c.JSON(fiber.Map{
		"message": "Booking accepted",
		"booking": booking,
	})
}

// DeclineBooking rejects a pending booking with a reason.
func DeclineBooking(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	booking, err := loadOwnBooking(c, providerID)
	if err != nil {
		return httperr.Respond(c, err)
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req)

	if err := db.DB.Transaction(func(tx *gorm.DB) error {
		return booking.Decline(tx, req.Reason)
	}); err != nil {
		return httperr.Respond(c, err)
	}

	go notifyStatusChange(booking.ID, "Booking Declined",
		"Unfortunately the provider declined your booking request.")

	return c.JSON(fiber.Map{
		"message": "Booking declined",
		"booking": booking,
	})
}

// SendQuote proposes a price (and optionally a revised duration) for a
// pending booking.
func SendQuote(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	booking, err := loadOwnBooking(c, providerID)
	if err != nil {
		return httperr.Respond(c, err)
	}

	var req struct {
		ServicePrice  float64 `json:"service_price"`
		DurationHours float64 `json:"duration_hours"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	if req.ServicePrice <= 0 {
		return httperr.Respond(c, httperr.NewValidation("service_price", "service_price must be positive"))
	}

	if err := db.DB.Transaction(func(tx *gorm.DB) error {
		return booking.SendQuote(tx, req.ServicePrice, req.DurationHours)
	}); err != nil {
		return httperr.Respond(c, err)
	}

	go notifyStatusChange(booking.ID, "Quote Received",
		fmt.Sprintf("The provider sent you a quote of %.2f for your booking.", req.ServicePrice))

	return c.JSON(fiber.Map{
		"message": "Quote sent",
		"booking": booking,
	})
}

// StartBooking begins work; only valid from confirmed.
func StartBooking(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	booking, err := loadOwnBooking(c, providerID)
	if err != nil {
		return httperr.Respond(c, err)
	}

	if err := db.DB.Transaction(func(tx *gorm.DB) error {
		return booking.Start(tx, time.Now())
	}); err != nil {
		return httperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Booking started",
		"booking": booking,
	})
}

// CompleteBooking finishes an in-progress booking, optionally recording the
// final price charged.
func CompleteBooking(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	booking, err := loadOwnBooking(c, providerID)
	if err != nil {
		return httperr.Respond(c, err)
	}

	var req struct {
		FinalPrice *float64 `json:"final_price"`
	}
	_ = c.BodyParser(&req)

	if err := db.DB.Transaction(func(tx *gorm.DB) error {
		return booking.Complete(tx, time.Now(), req.FinalPrice)
	}); err != nil {
		return httperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Booking completed",
		"booking": booking,
	})
}

// CompleteOverdueBookings bulk-completes confirmed bookings dated before
// today. Safe to invoke repeatedly.
func CompleteOverdueBookings(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}

	count, err := models.CompleteOverdue(db.DB, providerID, time.Now())
	if err != nil {
		return httperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   count,
	})
}

// HideBooking soft-hides a booking from the provider's default listings. The
// record and its status survive untouched.
func HideBooking(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	booking, err := loadOwnBooking(c, providerID)
	if err != nil {
		return httperr.Respond(c, err)
	}

	if err := booking.Hide(db.DB); err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Booking hidden",
		"booking": booking,
	})
}

// RestoreBooking undoes HideBooking.
func RestoreBooking(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	booking, err := loadOwnBooking(c, providerID)
	if err != nil {
		return httperr.Respond(c, err)
	}

	if err := booking.Restore(db.DB); err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Booking restored",
		"booking": booking,
	})
}

// notifyStatusChange emails the customer about a lifecycle transition.
// Fire-and-forget; the transition has already been committed.
func notifyStatusChange(bookingID uint, subject, message string) {
	var booking models.Booking
	if err := db.DB.Preload("Customer").Preload("Service").First(&booking, bookingID).Error; err != nil {
		log.Printf("notify: booking %d not found: %v", bookingID, err)
		return
	}

	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>%s</p>
		<ul>
			<li><strong>Service:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s - %s</li>
			<li><strong>Status:</strong> %s</li>
		</ul>
	`, booking.Customer.Name, message, booking.Service.Title,
		booking.BookingDate, booking.StartTime, booking.EndTime, booking.Status)

	if err := utils.SendEmail(booking.Customer.Email, subject, body); err != nil {
		log.Printf("notify: failed to email customer for booking %d: %v", bookingID, err)
	}
}
