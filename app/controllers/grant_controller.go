package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahayoghq/sahayog/internal/pkg/grant"
)

type grantRequest struct {
	SubscriberID   uint   `json:"subscriber_id" validate:"required"`
	CreatorID      uint   `json:"creator_id" validate:"required"`
	TierLevel      int    `json:"tier_level" validate:"omitempty,min=1"`
	Amount         int64  `json:"amount" validate:"min=0"`
	Currency       string `json:"currency" validate:"omitempty,len=3"`
	Gateway        string `json:"gateway" validate:"required,oneof=esewa khalti fonepay stripe"`
	Recurring      bool   `json:"recurring"`
	PeriodDays     int    `json:"period_days" validate:"omitempty,min=1,max=366"`
	WelcomeMessage string `json:"welcome_message" validate:"max=500"`
}

// HandleGrant opens or upgrades supporter access after the payment layer
// confirms a charge.
func HandleGrant(c *fiber.Ctx) error {
	var req grantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if grantCoord == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Coordinator not initialized"})
	}

	outcome, err := grantCoord.Grant(c.Context(), grant.Input{
		SubscriberID:   req.SubscriberID,
		CreatorID:      req.CreatorID,
		TierLevel:      req.TierLevel,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Gateway:        req.Gateway,
		Recurring:      req.Recurring,
		PeriodDays:     req.PeriodDays,
		WelcomeMessage: req.WelcomeMessage,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
	}
	return c.JSON(outcome)
}
