package repositories

import (
	"errors"

	"meetspace_backend/internal/models"

	"gorm.io/gorm"
)

var ErrMediaNotFound = errors.New("media not found")

type MediaRepository interface {
	Create(db *gorm.DB, media *models.Media) error
	FindByID(db *gorm.DB, id string) (*models.Media, error)
	Delete(db *gorm.DB, id string) error
}

type mediaRepository struct{}

func NewMediaRepository() MediaRepository {
	return &mediaRepository{}
}

func (r *mediaRepository) Create(db *gorm.DB, media *models.Media) error {
	return db.Create(media).Error
}

func (r *mediaRepository) FindByID(db *gorm.DB, id string) (*models.Media, error) {
	if !isUUID(id) {
		return nil, ErrMediaNotFound
	}
	var media models.Media
	if err := db.First(&media, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	return &media, nil
}

func (r *mediaRepository) Delete(db *gorm.DB, id string) error {
	return db.Delete(&models.Media{}, "id = ?", id).Error
}
