package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationJobTypeExpiringReminder = "subscription_expiring_reminder"
	NotificationJobTypeExpired          = "subscription_expired"
)

// NotificationJob is one queued outbound email. Rows are append-only: this
// service only writes them, the delivery worker owns everything after that.
type NotificationJob struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        string    `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Type        string    `gorm:"type:varchar(50);not null;index" json:"type"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	PayloadJSON string    `gorm:"type:longtext" json:"payload_json"`
	ScheduledAt time.Time `gorm:"type:timestamp;not null" json:"scheduled_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (j *NotificationJob) BeforeCreate(_ *gorm.DB) error {
	if j.UUID == "" {
		j.UUID = uuid.New().String()
	}
	return nil
}

// ExpiryNotificationPayload is the payload shape consumed by the delivery
// worker for both reminder and expired notifications.
type ExpiryNotificationPayload struct {
	RecipientID     uint      `json:"recipient_id"`
	CreatorID       uint      `json:"creator_id"`
	CreatorName     string    `json:"creator_name"`
	TierLevel       int       `json:"tier_level"`
	ExpiryDate      time.Time `json:"expiry_date"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	RenewalURL      string    `json:"renewal_url"`
	SubscriptionID  uint      `json:"subscription_id"`
}

// Encode marshals the payload for storage on a NotificationJob row.
func (p ExpiryNotificationPayload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
