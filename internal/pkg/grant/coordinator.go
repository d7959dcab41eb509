// Package grant is the write path that opens or upgrades supporter access.
// Together with the unsubscribe coordinator it forms the only two legitimate
// writers of membership state: grant writes the grant direction, unsubscribe
// writes the revoke direction.
package grant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/sahayoghq/sahayog/app/models"
	"github.com/sahayoghq/sahayog/app/repository"
	"github.com/sahayoghq/sahayog/internal/pkg/channelsync"
	"github.com/sahayoghq/sahayog/internal/pkg/statistics"
)

// Input describes one confirmed payment that should open or extend access.
type Input struct {
	SubscriberID uint
	CreatorID    uint
	TierLevel    int
	Amount       int64
	Currency     string
	Gateway      string
	// Recurring creates a Subscription row; one-time support has none.
	Recurring  bool
	PeriodDays int
	// WelcomeMessage is posted as the creator into each joined channel.
	WelcomeMessage string
}

// Outcome reports what the grant call did.
type Outcome struct {
	SupporterID      uint
	SubscriptionID   *uint
	JoinedChannelIDs []uint
	ChannelErrors    []string
}

// Coordinator grants and renews supporter access.
type Coordinator struct {
	supporters    repository.SupporterRepository
	subscriptions repository.SubscriptionRepository
	transactions  repository.TransactionRepository
	sync          *channelsync.Engine
	counter       *statistics.SupporterCounter
}

// NewCoordinator creates the grant coordinator.
func NewCoordinator(
	supporters repository.SupporterRepository,
	subscriptions repository.SubscriptionRepository,
	transactions repository.TransactionRepository,
	syncEngine *channelsync.Engine,
	counter *statistics.SupporterCounter,
) *Coordinator {
	return &Coordinator{
		supporters:    supporters,
		subscriptions: subscriptions,
		transactions:  transactions,
		sync:          syncEngine,
		counter:       counter,
	}
}

// Grant opens (or reactivates/upgrades) access after a confirmed payment and
// syncs the subscriber into every channel the tier unlocks.
func (c *Coordinator) Grant(ctx context.Context, in Input) (*Outcome, error) {
	if in.TierLevel < 1 {
		in.TierLevel = 1
	}

	var subscriptionID *uint
	if in.Recurring {
		sub, err := c.openSubscription(in)
		if err != nil {
			return nil, err
		}
		subscriptionID = &sub.ID
	}

	supporter, err := c.upsertGrant(in, subscriptionID)
	if err != nil {
		return nil, err
	}

	c.recordTransaction(in, subscriptionID)

	if _, err := c.counter.Recalculate(in.CreatorID); err != nil {
		log.Warnf("[Grant] Supporter count recalculation failed for creator %d: %v", in.CreatorID, err)
	}

	outcome := &Outcome{SupporterID: supporter.ID, SubscriptionID: subscriptionID}

	syncRes, err := c.sync.SyncSubscriberAcrossCreatorChannels(ctx, in.SubscriberID, in.CreatorID, in.TierLevel, channelsync.SyncOptions{
		Announce:       true,
		WelcomeMessage: in.WelcomeMessage,
	})
	if err != nil {
		outcome.ChannelErrors = append(outcome.ChannelErrors, err.Error())
		return outcome, nil
	}
	outcome.JoinedChannelIDs = syncRes.JoinedChannelIDs
	for _, cerr := range syncRes.Errors {
		outcome.ChannelErrors = append(outcome.ChannelErrors, cerr.Error())
	}
	return outcome, nil
}

// Renew advances the billing period of an active subscription, bumping the
// renewal counter and opening a fresh reminder log for the new period.
func (c *Coordinator) Renew(subscriptionID uint, periodDays int) error {
	sub, err := c.subscriptions.GetByID(subscriptionID)
	if err != nil {
		return fmt.Errorf("load subscription %d: %w", subscriptionID, err)
	}
	if sub.Status != models.SubscriptionStatusActive {
		return fmt.Errorf("subscription %d is %s, not renewable", sub.ID, sub.Status)
	}
	if periodDays <= 0 {
		periodDays = 30
	}

	start := time.Now()
	if sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.After(start) {
		start = *sub.CurrentPeriodEnd
	}
	end := start.AddDate(0, 0, periodDays)

	sub.CurrentPeriodStart = &start
	sub.CurrentPeriodEnd = &end
	sub.RenewalCount++
	sub.RemindersSent = models.ReminderLog{}

	if err := c.subscriptions.Update(sub); err != nil {
		return fmt.Errorf("save renewed subscription %d: %w", sub.ID, err)
	}
	log.Infof("[Grant] Subscription %d renewed until %s (renewal #%d)", sub.ID, end.Format(time.RFC3339), sub.RenewalCount)
	return nil
}

func (c *Coordinator) openSubscription(in Input) (*models.Subscription, error) {
	periodDays := in.PeriodDays
	if periodDays <= 0 {
		periodDays = 30
	}
	start := time.Now()
	end := start.AddDate(0, 0, periodDays)

	sub := &models.Subscription{
		SubscriberID:       in.SubscriberID,
		CreatorID:          in.CreatorID,
		TierLevel:          in.TierLevel,
		Amount:             in.Amount,
		Currency:           in.Currency,
		Gateway:            in.Gateway,
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		RemindersSent:      models.ReminderLog{},
		AutoRenew:          true,
	}
	if err := c.subscriptions.Create(sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

func (c *Coordinator) upsertGrant(in Input, subscriptionID *uint) (*models.Supporter, error) {
	supporter, err := c.supporters.GetBySubscriberAndCreator(in.SubscriberID, in.CreatorID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load grant: %w", err)
		}
		supporter = &models.Supporter{
			SubscriberID:   in.SubscriberID,
			CreatorID:      in.CreatorID,
			TierLevel:      in.TierLevel,
			IsActive:       true,
			SubscriptionID: subscriptionID,
		}
		if err := c.supporters.Create(supporter); err != nil {
			return nil, fmt.Errorf("create grant: %w", err)
		}
		return supporter, nil
	}

	supporter.TierLevel = in.TierLevel
	supporter.IsActive = true
	if subscriptionID != nil {
		supporter.SubscriptionID = subscriptionID
	}
	if err := c.supporters.Update(supporter); err != nil {
		return nil, fmt.Errorf("update grant: %w", err)
	}
	return supporter, nil
}

func (c *Coordinator) recordTransaction(in Input, subscriptionID *uint) {
	tx := &models.Transaction{
		SubscriberID:         in.SubscriberID,
		CreatorID:            in.CreatorID,
		SubscriptionID:       subscriptionID,
		Amount:               in.Amount,
		Currency:             in.Currency,
		Gateway:              in.Gateway,
		Status:               models.TransactionStatusCompleted,
		NotificationsEnabled: true,
	}
	if err := c.transactions.Create(tx); err != nil {
		log.Warnf("[Grant] Transaction record failed for subscriber %d / creator %d: %v", in.SubscriberID, in.CreatorID, err)
	}
}
