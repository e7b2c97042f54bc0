package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sgweb1/localservices-v3-sub002/controllers"
	"github.com/sgweb1/localservices-v3-sub002/middleware"
)

// SetupServiceRoutes configures the service catalog routes
func SetupServiceRoutes(app *fiber.App) {
	service := app.Group("/services")
	service.Get("/", controllers.GetAllServices)
	service.Get("/:id", controllers.GetService)
	service.Post("/", middleware.Protected(), middleware.RequireRole("provider"), controllers.CreateService)
	service.Put("/:id", middleware.Protected(), middleware.RequireRole("provider"), controllers.UpdateService)
	service.Delete("/:id", middleware.Protected(), middleware.RequireRole("provider"), controllers.DeleteService)
}
