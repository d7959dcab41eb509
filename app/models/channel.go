package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ChannelCategoryGeneral       = "general"
	ChannelCategoryAnnouncements = "announcements"
	ChannelCategorySupporters    = "supporters"
)

// Channel is a tier-gated community space owned by a creator. StreamChannelID
// stays null until the channel is lazily provisioned on the chat service; once
// set it is immutable and is the only key used for remote member operations.
type Channel struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatorID       uint      `gorm:"not null;index" json:"creator_id"`
	Creator         User      `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Name            string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=1,max=150"`
	Category        string    `gorm:"type:varchar(50);not null;default:'general'" json:"category"`
	MinTierLevel    int       `gorm:"not null;default:1" json:"min_tier_level"`
	StreamChannelID *string   `gorm:"type:varchar(191);default:null;index" json:"stream_channel_id,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsProvisioned reports whether the channel already has its remote counterpart.
func (c *Channel) IsProvisioned() bool {
	return c.StreamChannelID != nil && *c.StreamChannelID != ""
}

// ChannelMember is the local roster row mirroring remote channel membership.
type ChannelMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChannelID uint      `gorm:"not null;uniqueIndex:ux_channel_members_channel_user,priority:1" json:"channel_id"`
	Channel   Channel   `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_channel_members_channel_user,priority:2;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// FindChannelsByCreator lists every channel a creator owns.
func FindChannelsByCreator(db *gorm.DB, creatorID uint) ([]Channel, error) {
	var channels []Channel
	err := db.Where("creator_id = ?", creatorID).Order("id ASC").Find(&channels).Error
	return channels, err
}
