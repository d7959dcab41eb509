package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/sahayoghq/sahayog/app/controllers"
	"github.com/sahayoghq/sahayog/app/repository"
	"github.com/sahayoghq/sahayog/internal/pkg/cache"
	"github.com/sahayoghq/sahayog/internal/pkg/channelsync"
	"github.com/sahayoghq/sahayog/internal/pkg/chat"
	"github.com/sahayoghq/sahayog/internal/pkg/database"
	"github.com/sahayoghq/sahayog/internal/pkg/env"
	"github.com/sahayoghq/sahayog/internal/pkg/expiry"
	"github.com/sahayoghq/sahayog/internal/pkg/grant"
	"github.com/sahayoghq/sahayog/internal/pkg/router"
	"github.com/sahayoghq/sahayog/internal/pkg/statistics"
	"github.com/sahayoghq/sahayog/internal/pkg/unsubscribe"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repos := repository.InitGlobalFactory(database.GetDB()).GetRepositories()

	chatSvc, err := chat.NewStreamService()
	if err != nil {
		log.Fatalf("chat service init failed: %v", err)
	}

	syncEngine := channelsync.NewEngine(repos.Channel, repos.User, chatSvc)
	counter := statistics.NewSupporterCounter(repos.Supporter, repos.User)
	unsubCoord := unsubscribe.NewCoordinator(repos.Supporter, repos.Subscription, repos.Channel, repos.Transaction, syncEngine, counter)
	grantCoord := grant.NewCoordinator(repos.Supporter, repos.Subscription, repos.Transaction, syncEngine, counter)
	scheduler := expiry.NewScheduler(repos.Subscription, repos.User, repos.NotificationJob, unsubCoord, env.GetEnv("APP_BASE_URL", "https://sahayog.app"))

	controllers.SetServices(scheduler, unsubCoord, grantCoord, counter)

	// Background expiry sweep for poll-driven gateways.
	intervalMin, _ := strconv.Atoi(env.GetEnv("EXPIRY_CHECK_INTERVAL_MINUTES", "60"))
	go scheduler.Run(context.Background(), time.Duration(intervalMin)*time.Minute)

	app := fiber.New(fiber.Config{
		AppName: "sahayog",
	})

	app.Use(recover.New(), logger.New())

	router.Setup(app)

	return app
}
