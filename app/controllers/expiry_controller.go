package controllers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/sahayoghq/sahayog/internal/pkg/env"
)

// HandleExpiryCheck triggers one scheduler pass manually. The route is
// operator-only: the caller must present the configured operator key.
func HandleExpiryCheck(c *fiber.Ctx) error {
	operatorKey := env.GetEnv("OPERATOR_API_KEY", "")
	if operatorKey == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Operator key not configured"})
	}

	provided := c.Get("X-Operator-Key")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(operatorKey)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid operator key"})
	}

	if expiryScheduler == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Scheduler not initialized"})
	}

	result := expiryScheduler.CheckExpiry(c.Context())
	return c.JSON(result)
}
