package repository

import (
	"github.com/sahayoghq/sahayog/app/models"
	"gorm.io/gorm"
)

// transactionRepository implements the TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(tx *models.Transaction) error {
	return r.db.Create(tx).Error
}

func (r *transactionRepository) ListCompletedBySubscriberAndCreator(subscriberID, creatorID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.
		Where("subscriber_id = ? AND creator_id = ? AND status = ?",
			subscriberID, creatorID, models.TransactionStatusCompleted).
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) DisableNotifications(subscriberID, creatorID uint) (int64, error) {
	tx := r.db.Model(&models.Transaction{}).
		Where("subscriber_id = ? AND creator_id = ? AND status = ? AND notifications_enabled = ?",
			subscriberID, creatorID, models.TransactionStatusCompleted, true).
		Update("notifications_enabled", false)
	return tx.RowsAffected, tx.Error
}
