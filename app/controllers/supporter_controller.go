package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahayoghq/sahayog/internal/pkg/unsubscribe"
)

type unsubscribeRequest struct {
	SubscriberID uint `json:"subscriber_id" validate:"required"`
	CreatorID    uint `json:"creator_id" validate:"required"`
}

// HandleUnsubscribe revokes the authenticated subscriber's access to a
// creator. The gateway in front of this service authenticates the caller
// and injects the subscriber id.
func HandleUnsubscribe(c *fiber.Ctx) error {
	var req unsubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if unsubscribeCoord == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Coordinator not initialized"})
	}

	result, err := unsubscribeCoord.Cancel(c.Context(), req.SubscriberID, req.CreatorID, unsubscribe.ReasonUserRequest)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error(), "result": result})
	}
	return c.JSON(result)
}

// HandleGatewayCancellation is the normalized intake for push-driven gateway
// cancellation webhooks. Signature verification happens in the webhook layer
// in front of this route; by the time we are called, the event is trusted.
func HandleGatewayCancellation(c *fiber.Ctx) error {
	var req unsubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if unsubscribeCoord == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Coordinator not initialized"})
	}

	result, err := unsubscribeCoord.Cancel(c.Context(), req.SubscriberID, req.CreatorID, unsubscribe.ReasonGateway)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error(), "result": result})
	}
	return c.JSON(result)
}
