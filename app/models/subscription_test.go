package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysUntilExpiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		until time.Duration
		want  int
	}{
		{"exactly two days", 48 * time.Hour, 2},
		{"partial day rounds up", 36 * time.Hour, 2},
		{"just under one day", 23 * time.Hour, 1},
		{"exactly one day", 24 * time.Hour, 1},
		{"expiring now", 0, 0},
		{"expired earlier today", -6 * time.Hour, 0},
		{"expired yesterday", -36 * time.Hour, -1},
		{"long overdue", -10 * 24 * time.Hour, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := now.Add(tt.until)
			sub := &Subscription{CurrentPeriodEnd: &end}
			got, err := sub.DaysUntilExpiry(now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaysUntilExpiryWithoutPeriodEnd(t *testing.T) {
	sub := &Subscription{}
	_, err := sub.DaysUntilExpiry(time.Now())
	assert.Error(t, err)
}

func TestIsPollDrivenGateway(t *testing.T) {
	assert.True(t, IsPollDrivenGateway(GatewayEsewa))
	assert.True(t, IsPollDrivenGateway(GatewayKhalti))
	assert.True(t, IsPollDrivenGateway(GatewayFonepay))
	assert.False(t, IsPollDrivenGateway(GatewayStripe))
	assert.False(t, IsPollDrivenGateway("paypal"))
}

func TestReminderLogScanValue(t *testing.T) {
	sent := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	original := ReminderLog{ReminderTwoDays: sent}

	value, err := original.Value()
	require.NoError(t, err)

	var restored ReminderLog
	require.NoError(t, restored.Scan(value))
	require.Contains(t, restored, ReminderTwoDays)
	assert.True(t, restored[ReminderTwoDays].Equal(sent))
}

func TestReminderLogScanEmptyAndNil(t *testing.T) {
	var fromNil ReminderLog
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)

	var fromEmpty ReminderLog
	require.NoError(t, fromEmpty.Scan([]byte("{}")))
	assert.Empty(t, fromEmpty)

	var bad ReminderLog
	assert.Error(t, bad.Scan(42))
}

func TestReminderLogValueEmpty(t *testing.T) {
	value, err := ReminderLog{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", value)
}

func TestReminderSent(t *testing.T) {
	sub := &Subscription{}
	assert.False(t, sub.ReminderSent(ReminderTwoDays))

	sub.RemindersSent = ReminderLog{ReminderTwoDays: time.Now()}
	assert.True(t, sub.ReminderSent(ReminderTwoDays))
	assert.False(t, sub.ReminderSent(ReminderOneDay))
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{SubscriptionStatusCancelled, SubscriptionStatusExpired, SubscriptionStatusFailed} {
		sub := &Subscription{Status: status}
		assert.True(t, sub.IsTerminal(), status)
	}
	for _, status := range []string{SubscriptionStatusPending, SubscriptionStatusActive} {
		sub := &Subscription{Status: status}
		assert.False(t, sub.IsTerminal(), status)
	}
}
