package grant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahayoghq/sahayog/app/models"
	"github.com/sahayoghq/sahayog/internal/pkg/channelsync"
	"github.com/sahayoghq/sahayog/internal/pkg/statistics"
	"github.com/sahayoghq/sahayog/internal/pkg/testutil"
)

type fixture struct {
	coordinator   *Coordinator
	supporters    *testutil.FakeSupporterRepo
	subscriptions *testutil.FakeSubscriptionRepo
	transactions  *testutil.FakeTransactionRepo
	channels      *testutil.FakeChannelRepo
	users         *testutil.FakeUserRepo
	chat          *testutil.FakeChat
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	supporters := testutil.NewFakeSupporterRepo()
	subscriptions := testutil.NewFakeSubscriptionRepo()
	transactions := testutil.NewFakeTransactionRepo()
	channels := testutil.NewFakeChannelRepo()
	users := testutil.NewFakeUserRepo()
	fakeChat := testutil.NewFakeChat()

	engine := channelsync.NewEngine(channels, users, fakeChat)
	counter := statistics.NewSupporterCounter(supporters, users)
	counter.DisableCache()
	coordinator := NewCoordinator(supporters, subscriptions, transactions, engine, counter)

	return &fixture{
		coordinator:   coordinator,
		supporters:    supporters,
		subscriptions: subscriptions,
		transactions:  transactions,
		channels:      channels,
		users:         users,
		chat:          fakeChat,
	}
}

func (f *fixture) seedCreator(t *testing.T, creatorID uint) *models.Channel {
	t.Helper()
	require.NoError(t, f.users.Create(&models.User{ID: creatorID, Username: "creator", DisplayName: "The Creator"}))
	require.NoError(t, f.users.SaveCreatorProfile(&models.CreatorProfile{UserID: creatorID, Slug: "creator"}))

	channel := &models.Channel{CreatorID: creatorID, Name: "supporters lounge", MinTierLevel: 1}
	require.NoError(t, f.channels.Create(channel))
	return channel
}

func TestGrantOpensSubscriptionAndSyncsChannels(t *testing.T) {
	f := newFixture(t)
	channel := f.seedCreator(t, 2)
	require.NoError(t, f.users.Create(&models.User{ID: 1, Username: "subscriber", DisplayName: "Sita"}))

	outcome, err := f.coordinator.Grant(context.Background(), Input{
		SubscriberID:   1,
		CreatorID:      2,
		TierLevel:      2,
		Amount:         50000,
		Currency:       "NPR",
		Gateway:        models.GatewayEsewa,
		Recurring:      true,
		PeriodDays:     30,
		WelcomeMessage: "welcome aboard!",
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.SubscriptionID)
	assert.Equal(t, []uint{channel.ID}, outcome.JoinedChannelIDs)
	assert.Empty(t, outcome.ChannelErrors)

	sub := f.subscriptions.Subs[*outcome.SubscriptionID]
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.AutoRenew)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *sub.CurrentPeriodEnd, time.Minute)

	supporter, err := f.supporters.GetBySubscriberAndCreator(1, 2)
	require.NoError(t, err)
	assert.True(t, supporter.IsActive)
	assert.Equal(t, 2, supporter.TierLevel)
	require.NotNil(t, supporter.SubscriptionID)
	assert.Equal(t, *outcome.SubscriptionID, *supporter.SubscriptionID)

	require.Len(t, f.transactions.Transactions, 1)
	assert.Equal(t, models.TransactionStatusCompleted, f.transactions.Transactions[0].Status)
	assert.True(t, f.transactions.Transactions[0].NotificationsEnabled)

	streamID := channelsync.DeriveStreamChannelID(2, channel.ID)
	assert.True(t, f.chat.IsMember(streamID, channelsync.StreamUserID(1)))
	assert.Contains(t, f.chat.Messages[streamID], "welcome aboard!")
}

func TestGrantReactivatesDeactivatedSupporter(t *testing.T) {
	f := newFixture(t)
	f.seedCreator(t, 2)
	require.NoError(t, f.users.Create(&models.User{ID: 1, Username: "subscriber"}))
	require.NoError(t, f.supporters.Create(&models.Supporter{
		SubscriberID: 1,
		CreatorID:    2,
		TierLevel:    1,
		IsActive:     false,
	}))

	outcome, err := f.coordinator.Grant(context.Background(), Input{
		SubscriberID: 1,
		CreatorID:    2,
		TierLevel:    2,
		Amount:       20000,
		Currency:     "NPR",
		Gateway:      models.GatewayKhalti,
	})
	require.NoError(t, err)
	assert.Nil(t, outcome.SubscriptionID)

	supporter, err := f.supporters.GetBySubscriberAndCreator(1, 2)
	require.NoError(t, err)
	assert.True(t, supporter.IsActive)
	assert.Equal(t, 2, supporter.TierLevel)

	// The aggregate count was recomputed from rows, not incremented.
	profile, err := f.users.GetCreatorProfile(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.SupporterCount)
}

func TestRenewClearsReminderMarkersAndAdvancesPeriod(t *testing.T) {
	f := newFixture(t)

	end := time.Now().AddDate(0, 0, 2)
	sub := &models.Subscription{
		SubscriberID:     1,
		CreatorID:        2,
		Gateway:          models.GatewayEsewa,
		Status:           models.SubscriptionStatusActive,
		CurrentPeriodEnd: &end,
		RemindersSent:    models.ReminderLog{models.ReminderTwoDays: time.Now()},
	}
	require.NoError(t, f.subscriptions.Create(sub))

	require.NoError(t, f.coordinator.Renew(sub.ID, 30))

	renewed := f.subscriptions.Subs[sub.ID]
	assert.Equal(t, 1, renewed.RenewalCount)
	// A fresh period starts with an empty reminder log, otherwise the old
	// markers would suppress every reminder of the new period.
	assert.Empty(t, renewed.RemindersSent)
	assert.False(t, renewed.ReminderSent(models.ReminderTwoDays))

	// The new period extends from the still-future period end, not from now.
	require.NotNil(t, renewed.CurrentPeriodStart)
	assert.True(t, renewed.CurrentPeriodStart.Equal(end))
	require.NotNil(t, renewed.CurrentPeriodEnd)
	assert.True(t, renewed.CurrentPeriodEnd.Equal(end.AddDate(0, 0, 30)))
}

func TestRenewLapsedPeriodStartsNow(t *testing.T) {
	f := newFixture(t)

	end := time.Now().AddDate(0, 0, -3)
	sub := &models.Subscription{
		SubscriberID:     1,
		CreatorID:        2,
		Gateway:          models.GatewayEsewa,
		Status:           models.SubscriptionStatusActive,
		CurrentPeriodEnd: &end,
		RemindersSent:    models.ReminderLog{},
	}
	require.NoError(t, f.subscriptions.Create(sub))

	require.NoError(t, f.coordinator.Renew(sub.ID, 30))

	renewed := f.subscriptions.Subs[sub.ID]
	require.NotNil(t, renewed.CurrentPeriodEnd)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *renewed.CurrentPeriodEnd, time.Minute)
}

func TestRenewRejectsNonActiveSubscription(t *testing.T) {
	f := newFixture(t)

	sub := &models.Subscription{
		SubscriberID: 1,
		CreatorID:    2,
		Gateway:      models.GatewayEsewa,
		Status:       models.SubscriptionStatusCancelled,
	}
	require.NoError(t, f.subscriptions.Create(sub))

	err := f.coordinator.Renew(sub.ID, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not renewable")
	assert.Equal(t, 0, f.subscriptions.Subs[sub.ID].RenewalCount)
}
