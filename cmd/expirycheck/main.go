// Command expirycheck runs a single expiry scheduler pass and prints the
// aggregate result as JSON. Meant for cron-style invocation and for
// exercising the sweep by hand against a real database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/log"

	"github.com/sahayoghq/sahayog/app/repository"
	"github.com/sahayoghq/sahayog/internal/pkg/channelsync"
	"github.com/sahayoghq/sahayog/internal/pkg/chat"
	"github.com/sahayoghq/sahayog/internal/pkg/database"
	"github.com/sahayoghq/sahayog/internal/pkg/env"
	"github.com/sahayoghq/sahayog/internal/pkg/expiry"
	"github.com/sahayoghq/sahayog/internal/pkg/statistics"
	"github.com/sahayoghq/sahayog/internal/pkg/unsubscribe"
)

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()

	repos := repository.InitGlobalFactory(database.GetDB()).GetRepositories()

	chatSvc, err := chat.NewStreamService()
	if err != nil {
		log.Fatalf("chat service init failed: %v", err)
	}

	syncEngine := channelsync.NewEngine(repos.Channel, repos.User, chatSvc)
	counter := statistics.NewSupporterCounter(repos.Supporter, repos.User)
	coordinator := unsubscribe.NewCoordinator(repos.Supporter, repos.Subscription, repos.Channel, repos.Transaction, syncEngine, counter)
	scheduler := expiry.NewScheduler(repos.Subscription, repos.User, repos.NotificationJob, coordinator, env.GetEnv("APP_BASE_URL", "https://sahayog.app"))

	result := scheduler.CheckExpiry(context.Background())

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(out))

	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
