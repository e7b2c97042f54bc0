package provider

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sgweb1/localservices-v3-sub002/db"
	"github.com/sgweb1/localservices-v3-sub002/httperr"
	"github.com/sgweb1/localservices-v3-sub002/models"
)

// GetBookingStatistics summarizes the provider's booking set, including the
// completion rate over all non-deleted bookings.
func GetBookingStatistics(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}

	stats, err := models.ProviderStatistics(db.DB, providerID)
	if err != nil {
		return httperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"statistics":   stats,
		"last_updated": time.Now(),
	})
}

// GetUpcomingBookings returns the provider's next active bookings, soonest
// first.
func GetUpcomingBookings(c *fiber.Ctx) error {
	providerID, err := requireProvider(c)
	if err != nil {
		return httperr.Respond(c, err)
	}

	limit := c.QueryInt("limit", 10)
	if limit < 1 {
		limit = 10
	}
	today := time.Now().Format(models.DateLayout)

	var bookings []models.Booking
	if err := db.DB.
		Preload("Service").
		Preload("Customer").
		Where("provider_id = ? AND booking_date >= ?", providerID, today).
		Where("status IN ?", models.ActiveStatuses).
		Where("hidden_by_provider = ?", false).
		Order("booking_date asc, start_time asc").
		Limit(limit).
		Find(&bookings).Error; err != nil {
		return httperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"bookings": bookings,
		"count":    len(bookings),
	})
}
