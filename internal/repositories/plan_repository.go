package repositories

import (
	"errors"

	"meetspace_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPlanNotFound  = errors.New("plan not found")
	ErrPlanNameTaken = errors.New("plan name already exists")
	ErrPlanInUse     = errors.New("plan is referenced by subscriptions")
)

type PlanRepository interface {
	Create(db *gorm.DB, plan *models.Plan) error
	FindByID(db *gorm.DB, id string) (*models.Plan, error)
	List(db *gorm.DB, activeOnly bool) ([]models.Plan, error)
	Update(db *gorm.DB, plan *models.Plan) error
	Delete(db *gorm.DB, id string) error
}

type planRepository struct{}

func NewPlanRepository() PlanRepository {
	return &planRepository{}
}

func (r *planRepository) Create(db *gorm.DB, plan *models.Plan) error {
	if err := db.Create(plan).Error; err != nil {
		if isDuplicate(err) {
			return ErrPlanNameTaken
		}
		return err
	}
	return nil
}

func (r *planRepository) FindByID(db *gorm.DB, id string) (*models.Plan, error) {
	if !isUUID(id) {
		return nil, ErrPlanNotFound
	}
	var plan models.Plan
	if err := db.First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) List(db *gorm.DB, activeOnly bool) ([]models.Plan, error) {
	query := db.Model(&models.Plan{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var plans []models.Plan
	err := query.Order("price ASC, name ASC").Find(&plans).Error
	return plans, err
}

// Update сохраняет все поля, включая нулевые (Select("*")).
func (r *planRepository) Update(db *gorm.DB, plan *models.Plan) error {
	result := db.Model(plan).Select("*").Omit("created_at").Updates(plan)
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return ErrPlanNameTaken
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *planRepository) Delete(db *gorm.DB, id string) error {
	if !isUUID(id) {
		return ErrPlanNotFound
	}
	result := db.Delete(&models.Plan{}, "id = ?", id)
	if result.Error != nil {
		if isForeignKeyViolation(result.Error) {
			return ErrPlanInUse
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}
