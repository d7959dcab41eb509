package repository

import (
	"time"

	"github.com/sahayoghq/sahayog/app/models"
	"gorm.io/gorm"
)

// notificationJobRepository implements the NotificationJobRepository interface
type notificationJobRepository struct {
	db *gorm.DB
}

// NewNotificationJobRepository creates a new notification job repository instance
func NewNotificationJobRepository(db *gorm.DB) NotificationJobRepository {
	return &notificationJobRepository{db: db}
}

func (r *notificationJobRepository) Enqueue(job *models.NotificationJob) error {
	if job.ScheduledAt.IsZero() {
		job.ScheduledAt = time.Now()
	}
	return r.db.Create(job).Error
}
