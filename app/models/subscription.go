package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusFailed    = "failed"
)

const (
	GatewayEsewa   = "esewa"
	GatewayKhalti  = "khalti"
	GatewayFonepay = "fonepay"
	GatewayStripe  = "stripe"
)

const (
	ReminderTwoDays = "2_days"
	ReminderOneDay  = "1_day"
)

// PollDrivenGateways lists gateways that never push subscription lifecycle
// events; their expiry is inferred by the scheduler from stored period ends.
func PollDrivenGateways() []string {
	return []string{GatewayEsewa, GatewayKhalti, GatewayFonepay}
}

// IsPollDrivenGateway reports whether the gateway lacks push-based cancellation.
func IsPollDrivenGateway(gateway string) bool {
	for _, g := range PollDrivenGateways() {
		if g == gateway {
			return true
		}
	}
	return false
}

// ReminderLog maps a reminder type to the time that reminder was sent for the
// current billing period. Keys are written at most once per period; the grant
// coordinator clears the map when a renewal opens a new period.
type ReminderLog map[string]time.Time

// Value serializes the log as JSON for storage.
func (r ReminderLog) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes the JSON column back into the map.
func (r *ReminderLog) Scan(src interface{}) error {
	if src == nil {
		*r = ReminderLog{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported reminder log source type %T", src)
	}
	if len(data) == 0 {
		*r = ReminderLog{}
		return nil
	}
	return json.Unmarshal(data, r)
}

// Subscription is the recurring-billing record behind a supporter grant.
// One-time (direct) support has no Subscription row at all.
type Subscription struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	SubscriberID       uint        `gorm:"not null;index" json:"subscriber_id"`
	CreatorID          uint        `gorm:"not null;index" json:"creator_id"`
	TierLevel          int         `gorm:"not null;default:1" json:"tier_level"`
	Amount             int64       `gorm:"not null" json:"amount"` // minor currency units
	Currency           string      `gorm:"type:varchar(8);not null;default:'NPR'" json:"currency"`
	Gateway            string      `gorm:"type:varchar(20);not null;index:idx_subscriptions_gateway_status,priority:1" json:"gateway"`
	Status             string      `gorm:"type:varchar(20);not null;default:'pending';index:idx_subscriptions_gateway_status,priority:2" json:"status"`
	CurrentPeriodStart *time.Time  `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time  `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	RemindersSent      ReminderLog `gorm:"type:json" json:"reminders_sent"`
	RenewalCount       int         `gorm:"not null;default:0" json:"renewal_count"`
	AutoRenew          bool        `gorm:"not null;default:true" json:"auto_renew"`
	CancelledAt        *time.Time  `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the subscription can never become active again.
func (s *Subscription) IsTerminal() bool {
	switch s.Status {
	case SubscriptionStatusCancelled, SubscriptionStatusExpired, SubscriptionStatusFailed:
		return true
	}
	return false
}

// ReminderSent reports whether the given reminder type was already recorded
// for the current billing period.
func (s *Subscription) ReminderSent(reminderType string) bool {
	if s.RemindersSent == nil {
		return false
	}
	_, ok := s.RemindersSent[reminderType]
	return ok
}

// MarkReminderSent records the idempotency marker for one reminder type. The
// log is append-only per period: an existing key is never overwritten.
func (s *Subscription) MarkReminderSent(db *gorm.DB, reminderType string, at time.Time) error {
	if s.ReminderSent(reminderType) {
		return nil
	}
	if s.RemindersSent == nil {
		s.RemindersSent = ReminderLog{}
	}
	s.RemindersSent[reminderType] = at
	return db.Model(s).Update("reminders_sent", s.RemindersSent).Error
}

// DaysUntilExpiry computes ceil((periodEnd - now) / 24h). Negative when the
// period end already passed; errors when no period end is stored.
func (s *Subscription) DaysUntilExpiry(now time.Time) (int, error) {
	if s.CurrentPeriodEnd == nil {
		return 0, errors.New("subscription has no current period end")
	}
	until := s.CurrentPeriodEnd.Sub(now)
	days := int(until / (24 * time.Hour))
	if until > 0 && until%(24*time.Hour) != 0 {
		days++
	}
	return days, nil
}
