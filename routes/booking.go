package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sgweb1/localservices-v3-sub002/controllers"
	"github.com/sgweb1/localservices-v3-sub002/controllers/provider"
	"github.com/sgweb1/localservices-v3-sub002/middleware"
)

// SetupBookingRoutes configures customer booking routes
func SetupBookingRoutes(app *fiber.App) {
	booking := app.Group("/bookings", middleware.Protected())
	booking.Post("/", controllers.CreateBooking)
	booking.Get("/", controllers.GetMyBookings)
	booking.Get("/:id", controllers.GetBooking)
	booking.Patch("/:id/cancel", controllers.CancelBooking)
}

// SetupProviderRoutes configures provider booking management routes
func SetupProviderRoutes(app *fiber.App) {
	p := app.Group("/provider", middleware.Protected())

	p.Get("/bookings", provider.ListBookings)
	p.Get("/bookings/upcoming", provider.GetUpcomingBookings)
	p.Get("/bookings/statistics", provider.GetBookingStatistics)
	p.Post("/bookings/complete-overdue", provider.CompleteOverdueBookings)

	p.Post("/bookings/:id/accept", provider.AcceptBooking)
	p.Post("/bookings/:id/decline", provider.DeclineBooking)
	p.Post("/bookings/:id/send-quote", provider.SendQuote)
	p.Post("/bookings/:id/start", provider.StartBooking)
	p.Post("/bookings/:id/complete", provider.CompleteBooking)

	p.Delete("/bookings/:id", provider.HideBooking)
	p.Post("/bookings/:id/restore", provider.RestoreBooking)
}
