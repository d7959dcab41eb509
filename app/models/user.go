package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ROLE_USER    = "user"
	ROLE_CREATOR = "creator"
	ROLE_ADMIN   = "admin"

	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"uniqueIndex;type:varchar(100)" json:"username" validate:"required,min=3,max=100"`
	DisplayName string         `gorm:"type:varchar(150)" json:"display_name" validate:"max=150"`
	Email       string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password    string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role        string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user creator admin"`
	Status      string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	AvatarURL   string         `gorm:"type:varchar(255);default:null" json:"avatar_url" validate:"max=255"`
	LastLoginAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// CreatorProfile holds the public creator page data, including the aggregate
// supporter count that is recomputed from supporter rows (never decremented).
type CreatorProfile struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Slug           string    `gorm:"uniqueIndex;type:varchar(100)" json:"slug" validate:"required,min=3,max=100"`
	Headline       string    `gorm:"type:varchar(255)" json:"headline" validate:"max=255"`
	About          string    `gorm:"type:text" json:"about"`
	SupporterCount int64     `gorm:"default:0" json:"supporter_count"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DisplayNameOrUsername falls back to the username when no display name is set.
func (u *User) DisplayNameOrUsername() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// FindCreatorProfile loads the creator profile for a creator user id.
func FindCreatorProfile(db *gorm.DB, creatorID uint) (*CreatorProfile, error) {
	var profile CreatorProfile
	if err := db.Where("user_id = ?", creatorID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}
