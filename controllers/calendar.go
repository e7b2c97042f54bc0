package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sgweb1/localservices-v3-sub002/db"
	"github.com/sgweb1/localservices-v3-sub002/httperr"
	"github.com/sgweb1/localservices-v3-sub002/models"
	"github.com/sgweb1/localservices-v3-sub002/redis"
	"github.com/sgweb1/localservices-v3-sub002/scheduling"
)

// providerParam parses the :id route param.
func providerParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, httperr.NewValidation("id", "invalid provider ID")
	}
	return uint(id), nil
}

// requireCalendarOwner ensures the authenticated user manages their own
// calendar. Admins may manage any.
func requireCalendarOwner(c *fiber.Ctx, providerID uint) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return httperr.NewAuthorization("authentication required")
	}
	role, _ := c.Locals("role").(string)
	if userID != providerID && role != "admin" {
		return httperr.NewAuthorization("you can only manage your own calendar")
	}
	return nil
}

// GetProviderCalendar returns the provider's recurring slots plus the
// bookings falling inside the requested date range (default: next 7 days).
func GetProviderCalendar(c *fiber.Ctx) error {
	providerID, err := providerParam(c)
	if err != nil {
		return httperr.Respond(c, err)
	}

	now := time.Now()
	startDate := c.Query("start_date", now.Format(models.DateLayout))
	endDate := c.Query("end_date", now.AddDate(0, 0, 7).Format(models.DateLayout))

	rules, err := models.RulesForProvider(db.DB, providerID)
	if err != nil {
		return httperr.Respond(c, err)
	}

	slots := make([]fiber.Map, 0, len(rules))
	for _, r := range rules {
		slots = append(slots, fiber.Map{
			"id":           r.ID,
			"day_of_week":  r.DayOfWeek,
			"day_name":     scheduling.DayName(r.DayOfWeek),
			"start_time":   r.StartTime,
			"end_time":     r.EndTime,
			"break_start":  r.BreakStart,
			"break_end":    r.BreakEnd,
			"max_bookings": r.MaxBookings,
			"is_available": r.IsAvailable,
		})
	}

	// The calendar is publicly browsable, so bookings are reduced to busy
	// intervals without customer or pricing data.
	var bookings []models.Booking
	if err := db.DB.
		Where("provider_id = ? AND booking_date >= ? AND booking_date <= ?", providerID, startDate, endDate).
		Where("status IN ?", models.ActiveStatuses).
		Order("booking_date asc, start_time asc").
		Find(&bookings).Error; err != nil {
		return httperr.Respond(c, err)
	}
	busy := make([]fiber.Map, 0, len(bookings))
	for _, b := range bookings {
		busy = append(busy, fiber.Map{
			"booking_date": b.BookingDate,
			"start_time":   b.StartTime,
			"end_time":     b.EndTime,
			"status":       b.Status,
		})
	}

	return c.JSON(fiber.Map{
		"slots":    slots,
		"bookings": busy,
		"date_range": fiber.Map{
			"start": startDate,
			"end":   endDate,
		},
	})
}

// CreateCalendarSlot adds a recurring availability window.
func CreateCalendarSlot(c *fiber.Ctx) error {
	providerID, err := providerParam(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	if err := requireCalendarOwner(c, providerID); err != nil {
		return httperr.Respond(c, err)
	}

	rule := new(models.AvailabilityRule)
	if err := c.BodyParser(rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	rule.ID = 0
	rule.ProviderID = providerID
	if rule.MaxBookings < 1 {
		rule.MaxBookings = 1
	}
	rule.IsAvailable = true

	if err := rule.Validate(); err != nil {
		return httperr.Respond(c, err)
	}

	overlaps, err := models.RuleOverlaps(db.DB, rule)
	if err != nil {
		return httperr.Respond(c, err)
	}
	if overlaps {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Konflikt czasowy z istniejącym slotem",
		})
	}

	if err := db.DB.Create(rule).Error; err != nil {
		return httperr.Respond(c, err)
	}
	redis.InvalidateProviderSlots(providerID)

	return c.Status(fiber.StatusCreated).JSON(rule)
}

// UpdateCalendarSlot patches a rule; time-field changes are re-validated
// against the interval invariants and sibling rules.
func UpdateCalendarSlot(c *fiber.Ctx) error {
	providerID, err := providerParam(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	if err := requireCalendarOwner(c, providerID); err != nil {
		return httperr.Respond(c, err)
	}

	var rule models.AvailabilityRule
	if err := db.DB.Where("id = ? AND provider_id = ?", c.Params("slotId"), providerID).
		First(&rule).Error; err != nil {
		return httperr.Respond(c, httperr.NewNotFound("slot"))
	}

	var patch struct {
		DayOfWeek   *int    `json:"day_of_week"`
		StartTime   *string `json:"start_time"`
		EndTime     *string `json:"end_time"`
		BreakStart  *string `json:"break_start"`
		BreakEnd    *string `json:"break_end"`
		MaxBookings *int    `json:"max_bookings"`
		IsAvailable *bool   `json:"is_available"`
	}
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if patch.DayOfWeek != nil {
		rule.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartTime != nil {
		rule.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		rule.EndTime = *patch.EndTime
	}
	if patch.BreakStart != nil {
		// An empty string clears the break.
		if *patch.BreakStart == "" {
			rule.BreakStart = nil
		} else {
			rule.BreakStart = patch.BreakStart
		}
	}
	if patch.BreakEnd != nil {
		if *patch.BreakEnd == "" {
			rule.BreakEnd = nil
		} else {
			rule.BreakEnd = patch.BreakEnd
		}
	}
	if patch.MaxBookings != nil && *patch.MaxBookings >= 1 {
		rule.MaxBookings = *patch.MaxBookings
	}
	if patch.IsAvailable != nil {
		rule.IsAvailable = *patch.IsAvailable
	}

	if err := rule.Validate(); err != nil {
		return httperr.Respond(c, err)
	}

	overlaps, err := models.RuleOverlaps(db.DB, &rule)
	if err != nil {
		return httperr.Respond(c, err)
	}
	if overlaps {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Konflikt czasowy z istniejącym slotem",
		})
	}

	if err := db.DB.Save(&rule).Error; err != nil {
		return httperr.Respond(c, err)
	}
	redis.InvalidateProviderSlots(providerID)

	return c.JSON(rule)
}

// DeleteCalendarSlot removes a rule unless an upcoming non-terminal booking
// still falls inside its recurring window.
func DeleteCalendarSlot(c *fiber.Ctx) error {
	providerID, err := providerParam(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	if err := requireCalendarOwner(c, providerID); err != nil {
		return httperr.Respond(c, err)
	}

	var rule models.AvailabilityRule
	if err := db.DB.Where("id = ? AND provider_id = ?", c.Params("slotId"), providerID).
		First(&rule).Error; err != nil {
		return httperr.Respond(c, httperr.NewNotFound("slot"))
	}

	busy, err := models.RuleHasActiveBookings(db.DB, &rule, time.Now())
	if err != nil {
		return httperr.Respond(c, err)
	}
	if busy {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Nie można usunąć slotu z aktywnymi rezerwacjami",
		})
	}

	if err := db.DB.Delete(&rule).Error; err != nil {
		return httperr.Respond(c, err)
	}
	redis.InvalidateProviderSlots(providerID)

	return c.JSON(fiber.Map{"success": true})
}

// ListCalendarExceptions returns the provider's date-range blocks sorted by
// start date.
func ListCalendarExceptions(c *fiber.Ctx) error {
	providerID, err := providerParam(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	if err := requireCalendarOwner(c, providerID); err != nil {
		return httperr.Respond(c, err)
	}

	exceptions, err := models.ExceptionsForProvider(db.DB, providerID)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"exceptions": exceptions})
}

// CreateCalendarException blocks a date range (vacation, illness).
func CreateCalendarException(c *fiber.Ctx) error {
	providerID, err := providerParam(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	if err := requireCalendarOwner(c, providerID); err != nil {
		return httperr.Respond(c, err)
	}

	exception := new(models.AvailabilityException)
	if err := c.BodyParser(exception); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}
	exception.ID = 0
	exception.ProviderID = providerID

	if err := exception.Validate(); err != nil {
		return httperr.Respond(c, err)
	}

	if err := db.DB.Create(exception).Error; err != nil {
		return httperr.Respond(c, err)
	}
	redis.InvalidateProviderSlots(providerID)

	return c.Status(fiber.StatusCreated).JSON(exception)
}

// DeleteCalendarException removes a block; not-owned reports not-found.
func DeleteCalendarException(c *fiber.Ctx) error {
	providerID, err := providerParam(c)
	if err != nil {
		return httperr.Respond(c, err)
	}
	if err := requireCalendarOwner(c, providerID); err != nil {
		return httperr.Respond(c, err)
	}

	var exception models.AvailabilityException
	if err := db.DB.Where("id = ? AND provider_id = ?", c.Params("exceptionId"), providerID).
		First(&exception).Error; err != nil {
		return httperr.Respond(c, httperr.NewNotFound("exception"))
	}

	if err := db.DB.Delete(&exception).Error; err != nil {
		return httperr.Respond(c, err)
	}
	redis.InvalidateProviderSlots(providerID)

	return c.JSON(fiber.Map{"success": true})
}
