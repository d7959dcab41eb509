package repository

import (
	"github.com/sahayoghq/sahayog/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) GetCreatorProfile(creatorID uint) (*models.CreatorProfile, error) {
	return models.FindCreatorProfile(r.db, creatorID)
}

func (r *userRepository) SaveCreatorProfile(profile *models.CreatorProfile) error {
	return r.db.Save(profile).Error
}
