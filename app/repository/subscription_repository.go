package repository

import (
	"time"

	"github.com/sahayoghq/sahayog/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *subscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *subscriptionRepository) ListActivePollDriven() ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("status = ? AND gateway IN ? AND current_period_end IS NOT NULL",
			models.SubscriptionStatusActive, models.PollDrivenGateways()).
		Order("current_period_end ASC").
		Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) Terminate(id uint, status string, at time.Time) error {
	return r.db.Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, models.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":       status,
			"cancelled_at": &at,
			"auto_renew":   false,
		}).Error
}

func (r *subscriptionRepository) MarkReminderSent(sub *models.Subscription, reminderType string, at time.Time) error {
	return sub.MarkReminderSent(r.db, reminderType, at)
}
