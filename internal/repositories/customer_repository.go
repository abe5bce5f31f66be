package repositories

import (
	"errors"
	"strings"

	"meetspace_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCustomerEmailTaken = errors.New("customer email already exists")
)

type CustomerRepository interface {
	Create(db *gorm.DB, customer *models.Customer) error
	FindByID(db *gorm.DB, id string) (*models.Customer, error)
	FindByEmail(db *gorm.DB, email string) (*models.Customer, error)
	// UpdateFields обновляет только переданные колонки
	UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) error
	List(db *gorm.DB, search string, page, pageSize int) ([]models.Customer, int64, error)
}

type customerRepository struct{}

func NewCustomerRepository() CustomerRepository {
	return &customerRepository{}
}

func (r *customerRepository) Create(db *gorm.DB, customer *models.Customer) error {
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	if err := db.Create(customer).Error; err != nil {
		if isDuplicate(err) {
			return ErrCustomerEmailTaken
		}
		return err
	}
	return nil
}

func (r *customerRepository) FindByID(db *gorm.DB, id string) (*models.Customer, error) {
	if !isUUID(id) {
		return nil, ErrCustomerNotFound
	}
	var customer models.Customer
	if err := db.First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByEmail(db *gorm.DB, email string) (*models.Customer, error) {
	var customer models.Customer
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) error {
	result := db.Model(&models.Customer{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *customerRepository) List(db *gorm.DB, search string, page, pageSize int) ([]models.Customer, int64, error) {
	query := db.Model(&models.Customer{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ? OR LOWER(organization) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customers []models.Customer
	err := query.Scopes(paginate(page, pageSize)).Order("created_at DESC").Find(&customers).Error
	return customers, total, err
}
