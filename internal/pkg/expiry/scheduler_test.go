package expiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahayoghq/sahayog/app/models"
	"github.com/sahayoghq/sahayog/app/repository"
	"github.com/sahayoghq/sahayog/internal/pkg/testutil"
	"github.com/sahayoghq/sahayog/internal/pkg/unsubscribe"
)

// fakeRevoker stands in for the unsubscribe coordinator.
type fakeRevoker struct {
	subscriptions *testutil.FakeSubscriptionRepo
	supporters    *testutil.FakeSupporterRepo
	err           error
	calls         int
}

func (f *fakeRevoker) Cancel(_ context.Context, subscriberID, creatorID uint, reason unsubscribe.Reason) (*unsubscribe.Result, error) {
	f.calls++
	if f.err != nil {
		return &unsubscribe.Result{}, f.err
	}
	// Mirror the real coordinator: deactivate the grant and terminate the
	// linked subscription so it leaves the active scan set.
	if s, err := f.supporters.GetBySubscriberAndCreator(subscriberID, creatorID); err == nil {
		_ = f.supporters.Deactivate(s.ID)
		if s.SubscriptionID != nil {
			_ = f.subscriptions.Terminate(*s.SubscriptionID, models.SubscriptionStatusExpired, time.Now())
		}
	}
	return &unsubscribe.Result{Success: true, WasActive: true}, nil
}

type schedulerFixture struct {
	scheduler     *Scheduler
	subscriptions *testutil.FakeSubscriptionRepo
	supporters    *testutil.FakeSupporterRepo
	users         *testutil.FakeUserRepo
	jobs          *testutil.FakeNotificationJobRepo
	revoker       *fakeRevoker
	now           time.Time
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	subscriptions := testutil.NewFakeSubscriptionRepo()
	supporters := testutil.NewFakeSupporterRepo()
	users := testutil.NewFakeUserRepo()
	jobs := testutil.NewFakeNotificationJobRepo()
	revoker := &fakeRevoker{subscriptions: subscriptions, supporters: supporters}

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	scheduler := NewScheduler(subscriptions, users, jobs, revoker, "https://sahayog.app")
	scheduler.SetNowFunc(func() time.Time { return now })

	return &schedulerFixture{
		scheduler:     scheduler,
		subscriptions: subscriptions,
		supporters:    supporters,
		users:         users,
		jobs:          jobs,
		revoker:       revoker,
		now:           now,
	}
}

// seedSubscription creates an active esewa subscription expiring at
// now + daysAhead days, with a grant linking back to it.
func (f *schedulerFixture) seedSubscription(t *testing.T, subscriberID, creatorID uint, daysAhead int) *models.Subscription {
	t.Helper()

	require.NoError(t, f.users.Create(&models.User{ID: creatorID, Username: "creator", DisplayName: "The Creator"}))
	require.NoError(t, f.users.Create(&models.User{ID: subscriberID, Username: "subscriber"}))

	end := f.now.Add(time.Duration(daysAhead) * 24 * time.Hour)
	sub := &models.Subscription{
		SubscriberID:     subscriberID,
		CreatorID:        creatorID,
		TierLevel:        2,
		Gateway:          models.GatewayEsewa,
		Status:           models.SubscriptionStatusActive,
		CurrentPeriodEnd: &end,
		RemindersSent:    models.ReminderLog{},
	}
	require.NoError(t, f.subscriptions.Create(sub))

	require.NoError(t, f.supporters.Create(&models.Supporter{
		SubscriberID:   subscriberID,
		CreatorID:      creatorID,
		TierLevel:      2,
		IsActive:       true,
		SubscriptionID: &sub.ID,
	}))
	return sub
}

func TestCheckExpiryQueuesTwoDayReminderOnce(t *testing.T) {
	f := newSchedulerFixture(t)
	sub := f.seedSubscription(t, 1, 2, 2)

	first := f.scheduler.CheckExpiry(context.Background())
	assert.Equal(t, 1, first.Checked)
	assert.Equal(t, 1, first.RemindersTwoDays)
	assert.Equal(t, 0, first.Expired)
	assert.Empty(t, first.Errors)

	// Marker written, record still active.
	stored := f.subscriptions.Subs[sub.ID]
	assert.True(t, stored.ReminderSent(models.ReminderTwoDays))
	assert.Equal(t, models.SubscriptionStatusActive, stored.Status)

	// Second pass the same day queues nothing new.
	second := f.scheduler.CheckExpiry(context.Background())
	assert.Equal(t, 0, second.RemindersTwoDays)
	assert.Equal(t, 1, f.jobs.CountByType(models.NotificationJobTypeExpiringReminder))
}

func TestCheckExpiryReminderPayload(t *testing.T) {
	f := newSchedulerFixture(t)
	sub := f.seedSubscription(t, 1, 2, 2)

	f.scheduler.CheckExpiry(context.Background())

	require.Len(t, f.jobs.Jobs, 1)
	job := f.jobs.Jobs[0]
	assert.Equal(t, models.NotificationJobTypeExpiringReminder, job.Type)
	assert.Equal(t, uint(1), job.RecipientID)
	assert.Contains(t, job.PayloadJSON, `"days_until_expiry":2`)
	assert.Contains(t, job.PayloadJSON, `"creator_name":"The Creator"`)
	assert.Contains(t, job.PayloadJSON, `"tier_level":2`)
	assert.Contains(t, job.PayloadJSON, "https://sahayog.app/renew/")
	_ = sub
}

func TestCheckExpiryOneDayReminder(t *testing.T) {
	f := newSchedulerFixture(t)
	sub := f.seedSubscription(t, 1, 2, 1)

	result := f.scheduler.CheckExpiry(context.Background())

	assert.Equal(t, 1, result.RemindersOneDay)
	assert.Equal(t, 0, result.Expired)
	assert.Equal(t, 0, f.revoker.calls)
	assert.True(t, f.subscriptions.Subs[sub.ID].ReminderSent(models.ReminderOneDay))
}

func TestCheckExpiryNoPrematureAction(t *testing.T) {
	f := newSchedulerFixture(t)
	sub := f.seedSubscription(t, 1, 2, 3)

	result := f.scheduler.CheckExpiry(context.Background())

	assert.Equal(t, 1, result.Checked)
	assert.Equal(t, 0, result.RemindersTwoDays)
	assert.Equal(t, 0, result.RemindersOneDay)
	assert.Equal(t, 0, result.Expired)
	assert.Empty(t, f.jobs.Jobs)
	assert.Equal(t, models.SubscriptionStatusActive, f.subscriptions.Subs[sub.ID].Status)
}

func TestCheckExpiryRevokesAtBoundary(t *testing.T) {
	f := newSchedulerFixture(t)
	sub := f.seedSubscription(t, 1, 2, 0)

	result := f.scheduler.CheckExpiry(context.Background())

	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, f.revoker.calls)
	assert.Equal(t, models.SubscriptionStatusExpired, f.subscriptions.Subs[sub.ID].Status)
	assert.Equal(t, 1, f.jobs.CountByType(models.NotificationJobTypeExpired))
}

func TestCheckExpiryRevokesOverdueRecords(t *testing.T) {
	f := newSchedulerFixture(t)
	f.seedSubscription(t, 1, 2, -5)

	result := f.scheduler.CheckExpiry(context.Background())

	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, f.revoker.calls)
}

func TestCheckExpiryLeavesRecordActiveWhenRevocationFails(t *testing.T) {
	f := newSchedulerFixture(t)
	sub := f.seedSubscription(t, 1, 2, 0)
	f.revoker.err = errors.New("coordinator unavailable")

	result := f.scheduler.CheckExpiry(context.Background())

	assert.Equal(t, 0, result.Expired)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "revoke access")
	// Still active: the next run retries.
	assert.Equal(t, models.SubscriptionStatusActive, f.subscriptions.Subs[sub.ID].Status)
	assert.Equal(t, 0, f.jobs.CountByType(models.NotificationJobTypeExpired))
}

func TestCheckExpiryIsolatesPerRecordFailures(t *testing.T) {
	f := newSchedulerFixture(t)
	failing := f.seedSubscription(t, 1, 2, 0)
	fine := f.seedSubscription(t, 3, 2, 2)

	// Only the expiring record hits the revoker; make it fail.
	f.revoker.err = errors.New("boom")

	result := f.scheduler.CheckExpiry(context.Background())

	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.RemindersTwoDays)
	require.Len(t, result.Errors, 1)
	assert.True(t, f.subscriptions.Subs[fine.ID].ReminderSent(models.ReminderTwoDays))
	assert.Equal(t, models.SubscriptionStatusActive, f.subscriptions.Subs[failing.ID].Status)
}

func TestCheckExpiryScanFailureIsFatal(t *testing.T) {
	f := newSchedulerFixture(t)
	f.subscriptions.ListErr = errors.New("database unreachable")

	result := f.scheduler.CheckExpiry(context.Background())

	assert.Equal(t, 0, result.Checked)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "scan subscriptions")
}

func TestCheckExpiryMarkerFailureDoesNotDuplicateQueue(t *testing.T) {
	f := newSchedulerFixture(t)
	f.seedSubscription(t, 1, 2, 2)
	f.subscriptions.MarkReminderErr = errors.New("write failed")

	result := f.scheduler.CheckExpiry(context.Background())

	// The reminder is queued once; the marker failure is only a warning.
	assert.Equal(t, 1, result.RemindersTwoDays)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, f.jobs.CountByType(models.NotificationJobTypeExpiringReminder))
}

// Compile-time check that the real coordinator satisfies the scheduler's
// revoker dependency.
var _ Revoker = (*unsubscribe.Coordinator)(nil)

// Compile-time check that the fakes satisfy the repository contracts the
// scheduler consumes.
var (
	_ repository.SubscriptionRepository    = (*testutil.FakeSubscriptionRepo)(nil)
	_ repository.NotificationJobRepository = (*testutil.FakeNotificationJobRepo)(nil)
)
