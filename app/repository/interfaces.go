package repository

import (
	"time"

	"github.com/sahayoghq/sahayog/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	Update(user *models.User) error
	GetCreatorProfile(creatorID uint) (*models.CreatorProfile, error)
	SaveCreatorProfile(profile *models.CreatorProfile) error
}

// SupporterRepository defines the interface for membership grant operations
type SupporterRepository interface {
	Create(supporter *models.Supporter) error
	GetByID(id uint) (*models.Supporter, error)
	GetBySubscriberAndCreator(subscriberID, creatorID uint) (*models.Supporter, error)
	Update(supporter *models.Supporter) error
	Deactivate(id uint) error
	ListActiveByCreator(creatorID uint) ([]models.Supporter, error)
	ListActiveByCreatorWithMinTier(creatorID uint, minTier int) ([]models.Supporter, error)
	CountActiveByCreator(creatorID uint) (int64, error)
}

// SubscriptionRepository defines the interface for billing record operations
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByID(id uint) (*models.Subscription, error)
	Update(sub *models.Subscription) error
	// ListActivePollDriven returns active subscriptions on gateways without
	// push-based cancellation that have a stored period end.
	ListActivePollDriven() ([]models.Subscription, error)
	// Terminate moves an active subscription to a terminal status and records
	// the cancellation time. Already-terminal rows are left untouched.
	Terminate(id uint, status string, at time.Time) error
	MarkReminderSent(sub *models.Subscription, reminderType string, at time.Time) error
}

// ChannelRepository defines the interface for channel and roster operations
type ChannelRepository interface {
	Create(channel *models.Channel) error
	GetByID(id uint) (*models.Channel, error)
	ListByCreator(creatorID uint) ([]models.Channel, error)
	ListByCreatorMaxTier(creatorID uint, tierLevel int) ([]models.Channel, error)
	// SetStreamChannelID persists the derived remote id. The column is only
	// written while still null unless force is set.
	SetStreamChannelID(id uint, streamChannelID string, force bool) error
	AddLocalMember(channelID, userID uint) error
	RemoveLocalMember(channelID, userID uint) error
	ListLocalMembers(channelID uint) ([]models.ChannelMember, error)
}

// TransactionRepository defines the interface for support payment operations
type TransactionRepository interface {
	Create(tx *models.Transaction) error
	ListCompletedBySubscriberAndCreator(subscriberID, creatorID uint) ([]models.Transaction, error)
	// DisableNotifications flags all completed transactions between the pair
	// as notification-disabled and returns how many rows changed.
	DisableNotifications(subscriberID, creatorID uint) (int64, error)
}

// NotificationJobRepository defines the append-only email job queue contract.
// This service only writes jobs; listing and delivery belong to the worker.
type NotificationJobRepository interface {
	Enqueue(job *models.NotificationJob) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User            UserRepository
	Supporter       SupporterRepository
	Subscription    SubscriptionRepository
	Channel         ChannelRepository
	Transaction     TransactionRepository
	NotificationJob NotificationJobRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		Supporter:       NewSupporterRepository(db),
		Subscription:    NewSubscriptionRepository(db),
		Channel:         NewChannelRepository(db),
		Transaction:     NewTransactionRepository(db),
		NotificationJob: NewNotificationJobRepository(db),
	}
}
