package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sgweb1/localservices-v3-sub002/controllers"
	"github.com/sgweb1/localservices-v3-sub002/middleware"
)

// SetupCalendarRoutes configures provider calendar, exception and
// availability routes
func SetupCalendarRoutes(app *fiber.App) {
	providers := app.Group("/providers")

	// Public: browsing a provider's schedule
	providers.Get("/:id/calendar", controllers.GetProviderCalendar)
	providers.Get("/:id/availability/slots", controllers.GetAvailableSlots)

	// Provider-managed recurring slots
	providers.Post("/:id/calendar/slots", middleware.Protected(), controllers.CreateCalendarSlot)
	providers.Put("/:id/calendar/slots/:slotId", middleware.Protected(), controllers.UpdateCalendarSlot)
	providers.Delete("/:id/calendar/slots/:slotId", middleware.Protected(), controllers.DeleteCalendarSlot)

	// Date-range exceptions (vacations)
	providers.Get("/:id/calendar/exceptions", middleware.Protected(), controllers.ListCalendarExceptions)
	providers.Post("/:id/calendar/exceptions", middleware.Protected(), controllers.CreateCalendarException)
	providers.Delete("/:id/calendar/exceptions/:exceptionId", middleware.Protected(), controllers.DeleteCalendarException)
}
