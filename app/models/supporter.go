package models

import (
	"time"

	"gorm.io/gorm"
)

// Supporter is the access-control record for one (subscriber, creator) pair.
// It decides whether the subscriber sees gated content and which tier-gated
// channels they may join. Rows are deactivated on revocation, never deleted.
type Supporter struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	SubscriberID   uint          `gorm:"not null;uniqueIndex:ux_supporters_subscriber_creator,priority:1" json:"subscriber_id"`
	Subscriber     User          `gorm:"foreignKey:SubscriberID" json:"subscriber,omitempty"`
	CreatorID      uint          `gorm:"not null;uniqueIndex:ux_supporters_subscriber_creator,priority:2;index" json:"creator_id"`
	Creator        User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	TierLevel      int           `gorm:"not null;default:1" json:"tier_level"`
	IsActive       bool          `gorm:"not null;default:true;index" json:"is_active"`
	SubscriptionID *uint         `gorm:"default:null;index" json:"subscription_id,omitempty"`
	Subscription   *Subscription `gorm:"foreignKey:SubscriptionID" json:"subscription,omitempty"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindSupporter loads the grant for a (subscriber, creator) pair.
func FindSupporter(db *gorm.DB, subscriberID, creatorID uint) (*Supporter, error) {
	var supporter Supporter
	err := db.Where("subscriber_id = ? AND creator_id = ?", subscriberID, creatorID).
		First(&supporter).Error
	if err != nil {
		return nil, err
	}
	return &supporter, nil
}

// Deactivate flips the active flag off. The row stays behind for audit history.
func (s *Supporter) Deactivate(db *gorm.DB) error {
	s.IsActive = false
	return db.Model(s).Update("is_active", false).Error
}

// EntitledToTier reports whether this grant unlocks content gated at minTier.
func (s *Supporter) EntitledToTier(minTier int) bool {
	return s.IsActive && s.TierLevel >= minTier
}
