package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// HandleCreatorStats serves a creator's aggregate supporter count, preferring
// the cached value over a fresh recount.
func HandleCreatorStats(c *fiber.Ctx) error {
	creatorID, err := c.ParamsInt("id")
	if err != nil || creatorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid creator id"})
	}

	if supporterCounter == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Counter not initialized"})
	}

	count, err := supporterCounter.CachedSupporterCount(uint(creatorID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
	}
	return c.JSON(fiber.Map{"creator_id": creatorID, "supporter_count": count})
}
