package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sgweb1/localservices-v3-sub002/db"
	"github.com/sgweb1/localservices-v3-sub002/httperr"
	"github.com/sgweb1/localservices-v3-sub002/models"
	"github.com/sgweb1/localservices-v3-sub002/redis"
)

// GetAvailableSlots lists the bookable "HH:MM" start times for a provider on
// a date. This is the advertised schedule preview: existing bookings are not
// subtracted here, so the result is cacheable; booking creation re-validates
// the chosen slot against the booking store.
func GetAvailableSlots(c *fiber.Ctx) error {
	providerID, err := providerParam(c)
	if err != nil {
		return httperr.Respond(c, err)
	}

	date := c.Query("date")
	if date == "" {
		return httperr.Respond(c, httperr.NewValidation("date", "date is required"))
	}

	durationMinutes := c.QueryInt("duration_minutes")
	if durationMinutes <= 0 {
		// Fall back to the service's catalog duration when a service is named.
		if serviceID := c.QueryInt("service_id"); serviceID > 0 {
			var service models.Service
			if err := db.DB.First(&service, serviceID).Error; err != nil {
				return httperr.Respond(c, httperr.NewNotFound("service"))
			}
			durationMinutes = service.DurationMinutes
		} else {
			durationMinutes = 60
		}
	}

	cacheKey := redis.SlotsCacheKey(providerID, date, durationMinutes)
	if slots, ok := redis.GetCachedSlots(cacheKey); ok {
		return c.JSON(fiber.Map{
			"date":             date,
			"duration_minutes": durationMinutes,
			"slots":            slots,
		})
	}

	slots, err := models.AvailableSlots(db.DB, providerID, date, durationMinutes)
	if err != nil {
		return httperr.Respond(c, err)
	}
	redis.CacheSlots(cacheKey, slots)

	return c.JSON(fiber.Map{
		"date":             date,
		"duration_minutes": durationMinutes,
		"slots":            slots,
	})
}
