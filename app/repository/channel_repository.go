package repository

import (
	"github.com/sahayoghq/sahayog/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// channelRepository implements the ChannelRepository interface
type channelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new channel repository instance
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) Create(channel *models.Channel) error {
	return r.db.Create(channel).Error
}

func (r *channelRepository) GetByID(id uint) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.First(&channel, id).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *channelRepository) ListByCreator(creatorID uint) ([]models.Channel, error) {
	return models.FindChannelsByCreator(r.db, creatorID)
}

func (r *channelRepository) ListByCreatorMaxTier(creatorID uint, tierLevel int) ([]models.Channel, error) {
	var channels []models.Channel
	err := r.db.Where("creator_id = ? AND min_tier_level <= ?", creatorID, tierLevel).
		Order("id ASC").
		Find(&channels).Error
	return channels, err
}

func (r *channelRepository) SetStreamChannelID(id uint, streamChannelID string, force bool) error {
	query := r.db.Model(&models.Channel{}).Where("id = ?", id)
	if !force {
		// The remote id is immutable once set.
		query = query.Where("stream_channel_id IS NULL OR stream_channel_id = ''")
	}
	return query.Update("stream_channel_id", streamChannelID).Error
}

func (r *channelRepository) AddLocalMember(channelID, userID uint) error {
	member := &models.ChannelMember{ChannelID: channelID, UserID: userID}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "channel_id"},
			{Name: "user_id"},
		},
		DoNothing: true,
	}).Create(member).Error
}

func (r *channelRepository) RemoveLocalMember(channelID, userID uint) error {
	return r.db.Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&models.ChannelMember{}).Error
}

func (r *channelRepository) ListLocalMembers(channelID uint) ([]models.ChannelMember, error) {
	var members []models.ChannelMember
	err := r.db.Where("channel_id = ?", channelID).Find(&members).Error
	return members, err
}
