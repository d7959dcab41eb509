// Package unsubscribe holds the single authorized path for revoking a
// supporter's access to a creator. User-initiated cancellations, push-gateway
// webhooks and the expiry scheduler all funnel through the same coordinator.
package unsubscribe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/sahayoghq/sahayog/app/models"
	"github.com/sahayoghq/sahayog/app/repository"
	"github.com/sahayoghq/sahayog/internal/pkg/channelsync"
)

// Reason classifies what triggered the revocation. It decides the terminal
// billing status: user-driven cancellations end as cancelled, time-based
// lapses as expired.
type Reason string

const (
	ReasonUserRequest Reason = "user_request"
	ReasonExpired     Reason = "expired"
	ReasonGateway     Reason = "gateway_cancelled"
)

// terminalStatus maps the trigger to the subscription's final status.
func (r Reason) terminalStatus() string {
	if r == ReasonExpired {
		return models.SubscriptionStatusExpired
	}
	return models.SubscriptionStatusCancelled
}

// Result is the structured breakdown a revocation call returns. Success
// covers the whole operation; individual step failures land in Errors and
// the per-step fields without flipping Success off.
type Result struct {
	Success               bool     `json:"success"`
	WasActive             bool     `json:"was_active"`
	GrantFound            bool     `json:"grant_found"`
	SubscriptionCancelled bool     `json:"subscription_cancelled"`
	RemovedChannelIDs     []uint   `json:"removed_channel_ids"`
	ChannelErrors         []string `json:"channel_errors,omitempty"`
	NotificationsDisabled int64    `json:"notifications_disabled"`
	SupporterCount        int64    `json:"supporter_count"`
	Errors                []string `json:"errors,omitempty"`
}

// SupporterCounter recomputes a creator's aggregate supporter count from
// authoritative rows.
type SupporterCounter interface {
	Recalculate(creatorID uint) (int64, error)
}

// Coordinator performs the five revocation steps, each independently
// fault-tolerant.
type Coordinator struct {
	supporters    repository.SupporterRepository
	subscriptions repository.SubscriptionRepository
	channels      repository.ChannelRepository
	transactions  repository.TransactionRepository
	sync          *channelsync.Engine
	counter       SupporterCounter

	// pairLocks serializes revocations per (subscriber, creator) pair.
	pairLocks sync.Map
}

// NewCoordinator creates the revocation coordinator.
func NewCoordinator(
	supporters repository.SupporterRepository,
	subscriptions repository.SubscriptionRepository,
	channels repository.ChannelRepository,
	transactions repository.TransactionRepository,
	syncEngine *channelsync.Engine,
	counter SupporterCounter,
) *Coordinator {
	return &Coordinator{
		supporters:    supporters,
		subscriptions: subscriptions,
		channels:      channels,
		transactions:  transactions,
		sync:          syncEngine,
		counter:       counter,
	}
}

// Cancel revokes the subscriber's access to the creator. Grant deactivation
// failure aborts the call; every later step is best-effort and reported in
// the result instead of failing it. Calling Cancel for an already-revoked or
// missing grant is a no-op success with WasActive=false.
func (c *Coordinator) Cancel(ctx context.Context, subscriberID, creatorID uint, reason Reason) (*Result, error) {
	lock := c.lockFor(subscriberID, creatorID)
	lock.Lock()
	defer lock.Unlock()

	result := &Result{}

	// Step 1: deactivate the grant. This is the only fatal step; everything
	// after it assumes access is already revoked.
	supporter, err := c.supporters.GetBySubscriberAndCreator(subscriberID, creatorID)
	switch {
	case err == nil:
		result.GrantFound = true
		result.WasActive = supporter.IsActive
		if supporter.IsActive {
			if derr := c.supporters.Deactivate(supporter.ID); derr != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("deactivate grant: %v", derr))
				log.Errorf("[Unsubscribe] Grant deactivation failed for subscriber %d / creator %d: %v", subscriberID, creatorID, derr)
				return result, fmt.Errorf("deactivate grant: %w", derr)
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Infof("[Unsubscribe] No grant for subscriber %d / creator %d, continuing cleanup", subscriberID, creatorID)
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("load grant: %v", err))
		return result, fmt.Errorf("load grant: %w", err)
	}

	// Step 2: cancel the linked billing record, if any is still active.
	// Cancellation is immediate, not deferred to the period end.
	if supporter != nil && supporter.SubscriptionID != nil {
		c.cancelSubscription(result, *supporter.SubscriptionID, reason)
	}

	// Step 3: remove remote channel membership across all creator channels.
	c.removeFromChannels(ctx, result, subscriberID, creatorID)

	// Step 4: suppress future notification emails.
	if n, err := c.transactions.DisableNotifications(subscriberID, creatorID); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("disable notifications: %v", err))
		log.Errorf("[Unsubscribe] Notification suppression failed for subscriber %d / creator %d: %v", subscriberID, creatorID, err)
	} else {
		result.NotificationsDisabled = n
	}

	// Step 5: recompute the supporter count from source rows.
	if count, err := c.counter.Recalculate(creatorID); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("recalculate supporter count: %v", err))
		log.Errorf("[Unsubscribe] Supporter count recalculation failed for creator %d: %v", creatorID, err)
	} else {
		result.SupporterCount = count
	}

	result.Success = true
	log.Infof("[Unsubscribe] Revoked subscriber %d from creator %d (reason=%s, wasActive=%t, channels=%d, errors=%d)",
		subscriberID, creatorID, reason, result.WasActive, len(result.RemovedChannelIDs), len(result.Errors)+len(result.ChannelErrors))
	return result, nil
}

func (c *Coordinator) cancelSubscription(result *Result, subscriptionID uint, reason Reason) {
	sub, err := c.subscriptions.GetByID(subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return
		}
		result.Errors = append(result.Errors, fmt.Sprintf("load subscription %d: %v", subscriptionID, err))
		return
	}
	if sub.Status != models.SubscriptionStatusActive {
		return
	}

	if err := c.subscriptions.Terminate(sub.ID, reason.terminalStatus(), time.Now()); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("terminate subscription %d: %v", sub.ID, err))
		log.Errorf("[Unsubscribe] Subscription %d termination failed: %v", sub.ID, err)
		return
	}
	result.SubscriptionCancelled = true
}

// removeFromChannels walks every creator channel, not just the ones the
// subscriber's last tier unlocked, since earlier tiers may have granted more.
func (c *Coordinator) removeFromChannels(ctx context.Context, result *Result, subscriberID, creatorID uint) {
	channels, err := c.channels.ListByCreator(creatorID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list creator channels: %v", err))
		log.Errorf("[Unsubscribe] Listing channels of creator %d failed: %v", creatorID, err)
		return
	}

	for _, channel := range channels {
		if !channel.IsProvisioned() {
			continue
		}
		if err := c.sync.RemoveMember(ctx, channel.ID, subscriberID); err != nil {
			result.ChannelErrors = append(result.ChannelErrors, fmt.Sprintf("channel %d: %v", channel.ID, err))
			log.Warnf("[Unsubscribe] Remote removal from channel %d failed for subscriber %d: %v", channel.ID, subscriberID, err)
			continue
		}
		if err := c.channels.RemoveLocalMember(channel.ID, subscriberID); err != nil {
			result.ChannelErrors = append(result.ChannelErrors, fmt.Sprintf("channel %d roster: %v", channel.ID, err))
			continue
		}
		result.RemovedChannelIDs = append(result.RemovedChannelIDs, channel.ID)
	}
}

func (c *Coordinator) lockFor(subscriberID, creatorID uint) *sync.Mutex {
	key := fmt.Sprintf("%d:%d", subscriberID, creatorID)
	lock, _ := c.pairLocks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
