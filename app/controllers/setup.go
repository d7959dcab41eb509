package controllers

import (
	"github.com/go-playground/validator/v10"

	"github.com/sahayoghq/sahayog/internal/pkg/expiry"
	"github.com/sahayoghq/sahayog/internal/pkg/grant"
	"github.com/sahayoghq/sahayog/internal/pkg/statistics"
	"github.com/sahayoghq/sahayog/internal/pkg/unsubscribe"
)

var (
	expiryScheduler  *expiry.Scheduler
	unsubscribeCoord *unsubscribe.Coordinator
	grantCoord       *grant.Coordinator
	supporterCounter *statistics.SupporterCounter

	validate = validator.New()
)

// SetServices wires the domain services used by the HTTP handlers. Called
// once from application startup.
func SetServices(scheduler *expiry.Scheduler, coordinator *unsubscribe.Coordinator, grants *grant.Coordinator, counter *statistics.SupporterCounter) {
	expiryScheduler = scheduler
	unsubscribeCoord = coordinator
	grantCoord = grants
	supporterCounter = counter
}
