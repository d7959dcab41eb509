package repository

import (
	"github.com/sahayoghq/sahayog/app/models"
	"gorm.io/gorm"
)

// supporterRepository implements the SupporterRepository interface
type supporterRepository struct {
	db *gorm.DB
}

// NewSupporterRepository creates a new supporter repository instance
func NewSupporterRepository(db *gorm.DB) SupporterRepository {
	return &supporterRepository{db: db}
}

func (r *supporterRepository) Create(supporter *models.Supporter) error {
	return r.db.Create(supporter).Error
}

func (r *supporterRepository) GetByID(id uint) (*models.Supporter, error) {
	var supporter models.Supporter
	if err := r.db.First(&supporter, id).Error; err != nil {
		return nil, err
	}
	return &supporter, nil
}

func (r *supporterRepository) GetBySubscriberAndCreator(subscriberID, creatorID uint) (*models.Supporter, error) {
	return models.FindSupporter(r.db, subscriberID, creatorID)
}

func (r *supporterRepository) Update(supporter *models.Supporter) error {
	return r.db.Save(supporter).Error
}

func (r *supporterRepository) Deactivate(id uint) error {
	return r.db.Model(&models.Supporter{}).Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *supporterRepository) ListActiveByCreator(creatorID uint) ([]models.Supporter, error) {
	var supporters []models.Supporter
	err := r.db.Where("creator_id = ? AND is_active = ?", creatorID, true).
		Find(&supporters).Error
	return supporters, err
}

func (r *supporterRepository) ListActiveByCreatorWithMinTier(creatorID uint, minTier int) ([]models.Supporter, error) {
	var supporters []models.Supporter
	err := r.db.Where("creator_id = ? AND is_active = ? AND tier_level >= ?", creatorID, true, minTier).
		Find(&supporters).Error
	return supporters, err
}

func (r *supporterRepository) CountActiveByCreator(creatorID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Supporter{}).
		Where("creator_id = ? AND is_active = ?", creatorID, true).
		Count(&count).Error
	return count, err
}
