package repositories

import (
	"errors"
	"time"

	"meetspace_backend/internal/models"

	"gorm.io/gorm"
)

var ErrMeetingNotFound = errors.New("meeting not found")

type MeetingRepository interface {
	Create(db *gorm.DB, meeting *models.Meeting) error
	// FindByIDAndCustomer не различает "нет такой встречи" и "встреча
	// другого клиента": в обоих случаях ErrMeetingNotFound.
	FindByIDAndCustomer(db *gorm.DB, id, customerID string) (*models.Meeting, error)
	Update(db *gorm.DB, meeting *models.Meeting) error
	Delete(db *gorm.DB, id, customerID string) error
	ListByCustomer(db *gorm.DB, customerID string, page, pageSize int) ([]models.Meeting, int64, error)
	// MarkFinished переводит в stopped запланированные и идущие встречи,
	// закончившиеся до before.
	MarkFinished(db *gorm.DB, before time.Time) (int64, error)
}

type meetingRepository struct{}

func NewMeetingRepository() MeetingRepository {
	return &meetingRepository{}
}

func (r *meetingRepository) Create(db *gorm.DB, meeting *models.Meeting) error {
	return db.Omit("Customer", "Subscription").Create(meeting).Error
}

func (r *meetingRepository) FindByIDAndCustomer(db *gorm.DB, id, customerID string) (*models.Meeting, error) {
	if !isUUID(id) {
		return nil, ErrMeetingNotFound
	}
	var meeting models.Meeting
	err := db.Where("id = ? AND customer_id = ?", id, customerID).First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepository) Update(db *gorm.DB, meeting *models.Meeting) error {
	result := db.Model(meeting).
		Select("name", "start_time", "end_time", "duration", "status", "participant_emails").
		Updates(meeting)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

func (r *meetingRepository) Delete(db *gorm.DB, id, customerID string) error {
	if !isUUID(id) {
		return ErrMeetingNotFound
	}
	result := db.Where("id = ? AND customer_id = ?", id, customerID).Delete(&models.Meeting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

func (r *meetingRepository) ListByCustomer(db *gorm.DB, customerID string, page, pageSize int) ([]models.Meeting, int64, error) {
	query := db.Model(&models.Meeting{}).Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var meetings []models.Meeting
	err := query.Scopes(paginate(page, pageSize)).Order("start_time DESC").Find(&meetings).Error
	return meetings, total, err
}

func (r *meetingRepository) MarkFinished(db *gorm.DB, before time.Time) (int64, error) {
	result := db.Model(&models.Meeting{}).
		Where("status IN ? AND end_time < ?", []models.MeetingStatus{models.MeetingStatusScheduled, models.MeetingStatusStarted}, before).
		Update("status", models.MeetingStatusStopped)
	return result.RowsAffected, result.Error
}
