package repositories

import (
	"errors"
	"time"

	"meetspace_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrInvoiceNumberTaken = errors.New("invoice number already exists")
)

type InvoiceRepository interface {
	Create(db *gorm.DB, invoice *models.Invoice) error
	FindByID(db *gorm.DB, id string) (*models.Invoice, error)
	FindByIDAndCustomer(db *gorm.DB, id, customerID string) (*models.Invoice, error)
	List(db *gorm.DB, customerID, status string, page, pageSize int) ([]models.Invoice, int64, error)
	// AllByCustomer - все счета клиента для выгрузки, новые сначала
	AllByCustomer(db *gorm.DB, customerID string) ([]models.Invoice, error)
	UpdateStatus(db *gorm.DB, id string, status models.InvoiceStatus, paidDate *time.Time) error
}

type invoiceRepository struct{}

func NewInvoiceRepository() InvoiceRepository {
	return &invoiceRepository{}
}

func (r *invoiceRepository) Create(db *gorm.DB, invoice *models.Invoice) error {
	if err := db.Omit("Customer", "Subscription").Create(invoice).Error; err != nil {
		if isDuplicate(err) {
			return ErrInvoiceNumberTaken
		}
		return err
	}
	return nil
}

func (r *invoiceRepository) FindByID(db *gorm.DB, id string) (*models.Invoice, error) {
	if !isUUID(id) {
		return nil, ErrInvoiceNotFound
	}
	var invoice models.Invoice
	if err := db.First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDAndCustomer(db *gorm.DB, id, customerID string) (*models.Invoice, error) {
	if !isUUID(id) {
		return nil, ErrInvoiceNotFound
	}
	var invoice models.Invoice
	if err := db.Where("id = ? AND customer_id = ?", id, customerID).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(db *gorm.DB, customerID, status string, page, pageSize int) ([]models.Invoice, int64, error) {
	query := db.Model(&models.Invoice{})
	if customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []models.Invoice
	err := query.Scopes(paginate(page, pageSize)).Order("created_at DESC").Find(&invoices).Error
	return invoices, total, err
}

func (r *invoiceRepository) AllByCustomer(db *gorm.DB, customerID string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := db.Where("customer_id = ?", customerID).Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) UpdateStatus(db *gorm.DB, id string, status models.InvoiceStatus, paidDate *time.Time) error {
	result := db.Model(&models.Invoice{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":    status,
		"paid_date": paidDate,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}
