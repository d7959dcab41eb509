package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahayoghq/sahayog/app/controllers"
)

// Setup registers all HTTP routes.
func Setup(app *fiber.App) {
	api := app.Group("/api")

	user := api.Group("/user")
	user.Post("/unsubscribe", controllers.HandleUnsubscribe)

	creators := api.Group("/creators")
	creators.Get("/:id/stats", controllers.HandleCreatorStats)

	webhooks := api.Group("/webhooks")
	webhooks.Post("/:gateway/cancel", controllers.HandleGatewayCancellation)

	internal := api.Group("/internal")
	internal.Post("/expiry/check", controllers.HandleExpiryCheck)
	internal.Post("/grants", controllers.HandleGrant)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
