// Package expiry implements the reconciliation sweep for subscriptions on
// poll-driven payment gateways. Those gateways never push lifecycle events,
// so expiry is inferred by comparing stored period ends against the clock.
// The sweep is safe to re-run arbitrarily often: reminders are guarded by
// per-period markers and revocation is idempotent.
package expiry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/sahayoghq/sahayog/app/models"
	"github.com/sahayoghq/sahayog/app/repository"
	"github.com/sahayoghq/sahayog/internal/pkg/unsubscribe"
)

// Revoker is the slice of the unsubscribe coordinator the scheduler needs.
type Revoker interface {
	Cancel(ctx context.Context, subscriberID, creatorID uint, reason unsubscribe.Reason) (*unsubscribe.Result, error)
}

// Result aggregates one scheduler pass. Callers decide whether to alert
// based on the error list, not on a thrown error.
type Result struct {
	Checked          int      `json:"checked"`
	RemindersTwoDays int      `json:"reminders_two_days"`
	RemindersOneDay  int      `json:"reminders_one_day"`
	Expired          int      `json:"expired"`
	Errors           []string `json:"errors,omitempty"`
}

// Scheduler scans active poll-driven subscriptions and queues reminders or
// triggers revocation.
type Scheduler struct {
	subscriptions repository.SubscriptionRepository
	users         repository.UserRepository
	jobs          repository.NotificationJobRepository
	revoker       Revoker
	renewBaseURL  string

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

// NewScheduler creates the expiry scheduler.
func NewScheduler(
	subscriptions repository.SubscriptionRepository,
	users repository.UserRepository,
	jobs repository.NotificationJobRepository,
	revoker Revoker,
	renewBaseURL string,
) *Scheduler {
	return &Scheduler{
		subscriptions: subscriptions,
		users:         users,
		jobs:          jobs,
		revoker:       revoker,
		renewBaseURL:  strings.TrimRight(renewBaseURL, "/"),
		now:           time.Now,
	}
}

// SetNowFunc overrides the scheduler clock; tests only.
func (s *Scheduler) SetNowFunc(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CheckExpiry runs one full pass. Only the initial scan query is fatal;
// every per-record failure is captured and retried naturally on the next
// run, because the pass is driven by wall-clock comparison against stored
// timestamps rather than any progress cursor.
func (s *Scheduler) CheckExpiry(ctx context.Context) *Result {
	result := &Result{}

	subs, err := s.subscriptions.ListActivePollDriven()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("scan subscriptions: %v", err))
		log.Errorf("[Expiry] Scan failed: %v", err)
		return result
	}

	now := s.now()
	for i := range subs {
		sub := &subs[i]
		result.Checked++
		if err := s.checkOne(ctx, sub, now, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("subscription %d: %v", sub.ID, err))
			log.Errorf("[Expiry] Subscription %d check failed: %v", sub.ID, err)
		}
	}

	log.Infof("[Expiry] Pass done: checked=%d reminders2d=%d reminders1d=%d expired=%d errors=%d",
		result.Checked, result.RemindersTwoDays, result.RemindersOneDay, result.Expired, len(result.Errors))
	return result
}

func (s *Scheduler) checkOne(ctx context.Context, sub *models.Subscription, now time.Time, result *Result) error {
	days, err := sub.DaysUntilExpiry(now)
	if err != nil {
		return err
	}

	switch {
	case days == 2:
		queued, err := s.queueReminder(sub, models.ReminderTwoDays, days, now)
		if err != nil {
			return err
		}
		if queued {
			result.RemindersTwoDays++
		}
	case days == 1:
		queued, err := s.queueReminder(sub, models.ReminderOneDay, days, now)
		if err != nil {
			return err
		}
		if queued {
			result.RemindersOneDay++
		}
	case days <= 0:
		if err := s.expire(ctx, sub, days, now); err != nil {
			return err
		}
		result.Expired++
	}

	return nil
}

// queueReminder appends one reminder job, guarded by the subscription's
// per-period reminder marker. The marker is written only after the job is
// queued; a marker write failure is logged but never retries the queue,
// since at-least-once delivery is the contract.
func (s *Scheduler) queueReminder(sub *models.Subscription, reminderType string, days int, now time.Time) (bool, error) {
	if sub.ReminderSent(reminderType) {
		return false, nil
	}

	if err := s.queueJob(sub, models.NotificationJobTypeExpiringReminder, days, now); err != nil {
		return false, fmt.Errorf("queue %s reminder: %w", reminderType, err)
	}

	if err := s.subscriptions.MarkReminderSent(sub, reminderType, now); err != nil {
		log.Warnf("[Expiry] Reminder %s queued for subscription %d but marker write failed: %v", reminderType, sub.ID, err)
	}
	return true, nil
}

// expire delegates to the unsubscribe coordinator; the subscription leaves
// the active status there, so an expired record is never re-scanned. On
// failure the record stays active and the next pass retries.
func (s *Scheduler) expire(ctx context.Context, sub *models.Subscription, days int, now time.Time) error {
	res, err := s.revoker.Cancel(ctx, sub.SubscriberID, sub.CreatorID, unsubscribe.ReasonExpired)
	if err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("revoke access: coordinator reported failure: %s", strings.Join(res.Errors, "; "))
	}

	// No idempotency marker needed: the record just left the active set.
	if err := s.queueJob(sub, models.NotificationJobTypeExpired, days, now); err != nil {
		log.Warnf("[Expiry] Subscription %d 'expired' notification not queued: %v", sub.ID, err)
	}

	log.Infof("[Expiry] Subscription %d expired (subscriber=%d creator=%d)", sub.ID, sub.SubscriberID, sub.CreatorID)
	return nil
}

func (s *Scheduler) queueJob(sub *models.Subscription, jobType string, days int, now time.Time) error {
	creatorName := fmt.Sprintf("creator %d", sub.CreatorID)
	if creator, err := s.users.GetByID(sub.CreatorID); err == nil {
		creatorName = creator.DisplayNameOrUsername()
	}

	expiry := now
	if sub.CurrentPeriodEnd != nil {
		expiry = *sub.CurrentPeriodEnd
	}

	payload := models.ExpiryNotificationPayload{
		RecipientID:     sub.SubscriberID,
		CreatorID:       sub.CreatorID,
		CreatorName:     creatorName,
		TierLevel:       sub.TierLevel,
		ExpiryDate:      expiry,
		DaysUntilExpiry: days,
		RenewalURL:      fmt.Sprintf("%s/renew/%d", s.renewBaseURL, sub.ID),
		SubscriptionID:  sub.ID,
	}
	encoded, err := payload.Encode()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	return s.jobs.Enqueue(&models.NotificationJob{
		Type:        jobType,
		RecipientID: sub.SubscriberID,
		PayloadJSON: encoded,
		ScheduledAt: now,
	})
}

// Run drives CheckExpiry on a fixed interval until the context is cancelled.
// Overlap protection is the process manager's job; overlapping passes are
// wasteful but harmless.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	log.Infof("[Expiry] Scheduler running every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("[Expiry] Scheduler stopping")
			return
		case <-ticker.C:
			s.CheckExpiry(ctx)
		}
	}
}
