package models

import "time"

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusRefunded  = "refunded"
)

// Transaction is one settled support payment (recurring charge or one-time
// support). NotificationsEnabled gates future supporter emails tied to this
// payment relationship; revocation switches it off.
type Transaction struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	SubscriberID         uint      `gorm:"not null;index:idx_transactions_subscriber_creator,priority:1" json:"subscriber_id"`
	CreatorID            uint      `gorm:"not null;index:idx_transactions_subscriber_creator,priority:2" json:"creator_id"`
	SubscriptionID       *uint     `gorm:"default:null;index" json:"subscription_id,omitempty"`
	Amount               int64     `gorm:"not null" json:"amount"`
	Currency             string    `gorm:"type:varchar(8);not null;default:'NPR'" json:"currency"`
	Gateway              string    `gorm:"type:varchar(20);not null" json:"gateway"`
	GatewayTransactionID string    `gorm:"type:varchar(191);index" json:"gateway_transaction_id"`
	Status               string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	NotificationsEnabled bool      `gorm:"not null;default:true" json:"notifications_enabled"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
