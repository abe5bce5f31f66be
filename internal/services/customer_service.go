package services

import (
	"errors"
	"strings"

	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/models"
	"meetspace_backend/internal/repositories"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type CustomerService interface {
	GetCustomer(db *gorm.DB, customerID string) (*models.Customer, error)
	// EnsureCustomer находит клиента по email или создает его при первом входе.
	EnsureCustomer(db *gorm.DB, emailAddr, name, flatUserUUID string) (*models.Customer, error)
	CreateCustomer(db *gorm.DB, req *dto.CreateCustomerRequest) (*models.Customer, error)
	UpdateProfile(db *gorm.DB, customerID string, req *dto.UpdateCustomerRequest) (*models.Customer, error)
	RotateSecretKey(db *gorm.DB, customerID string) (*dto.SecretKeyResponse, error)
	GetClientKey(db *gorm.DB, customerID string) (*dto.ClientKeyResponse, error)
	ListCustomers(db *gorm.DB, filter *dto.CustomerFilter) (*dto.PaginatedResponse, error)
}

type customerService struct {
	customerRepo  repositories.CustomerRepository
	clientKeySalt string
}

func NewCustomerService(customerRepo repositories.CustomerRepository, clientKeySalt string) CustomerService {
	return &customerService{
		customerRepo:  customerRepo,
		clientKeySalt: clientKeySalt,
	}
}

func (s *customerService) GetCustomer(db *gorm.DB, customerID string) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByID(db, customerID)
	if err != nil {
		return nil, handleCustomerError(err)
	}
	return customer, nil
}

func (s *customerService) EnsureCustomer(db *gorm.DB, emailAddr, name, flatUserUUID string) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByEmail(db, emailAddr)
	if err == nil {
		fields := map[string]interface{}{}
		if flatUserUUID != "" && customer.FlatUserUUID != flatUserUUID {
			fields["flat_user_uuid"] = flatUserUUID
			customer.FlatUserUUID = flatUserUUID
		}
		if customer.Name == "" && name != "" {
			fields["name"] = name
			customer.Name = name
		}
		if len(fields) > 0 {
			if err := s.customerRepo.UpdateFields(db, customer.ID, fields); err != nil {
				return nil, handleCustomerError(err)
			}
		}
		return customer, nil
	}
	if !errors.Is(err, repositories.ErrCustomerNotFound) {
		return nil, apperrors.InternalError(err)
	}

	customer, err = s.newCustomer(emailAddr, name, "")
	if err != nil {
		return nil, err
	}
	customer.FlatUserUUID = flatUserUUID

	if err := s.customerRepo.Create(db, customer); err != nil {
		// параллельный первый вход того же клиента
		if errors.Is(err, repositories.ErrCustomerEmailTaken) {
			existing, findErr := s.customerRepo.FindByEmail(db, emailAddr)
			if findErr != nil {
				return nil, handleCustomerError(findErr)
			}
			return existing, nil
		}
		return nil, handleCustomerError(err)
	}
	return customer, nil
}

func (s *customerService) CreateCustomer(db *gorm.DB, req *dto.CreateCustomerRequest) (*models.Customer, error) {
	customer, err := s.newCustomer(req.Email, req.Name, req.Organization)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(db, customer); err != nil {
		return nil, handleCustomerError(err)
	}
	return customer, nil
}

func (s *customerService) UpdateProfile(db *gorm.DB, customerID string, req *dto.UpdateCustomerRequest) (*models.Customer, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Organization != nil {
		fields["organization"] = strings.TrimSpace(*req.Organization)
	}

	if len(fields) > 0 {
		if err := s.customerRepo.UpdateFields(db, customerID, fields); err != nil {
			return nil, handleCustomerError(err)
		}
	}
	return s.GetCustomer(db, customerID)
}

// RotateSecretKey выдает новый секрет. Ключи клиента, выведенные из старого
// секрета, перестают совпадать.
func (s *customerService) RotateSecretKey(db *gorm.DB, customerID string) (*dto.SecretKeyResponse, error) {
	secret, err := auth.GenerateSecretKey()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.customerRepo.UpdateFields(db, customerID, map[string]interface{}{"secret_key": secret}); err != nil {
		return nil, handleCustomerError(err)
	}
	return &dto.SecretKeyResponse{SecretKey: secret}, nil
}

func (s *customerService) GetClientKey(db *gorm.DB, customerID string) (*dto.ClientKeyResponse, error) {
	customer, err := s.customerRepo.FindByID(db, customerID)
	if err != nil {
		return nil, handleCustomerError(err)
	}
	return &dto.ClientKeyResponse{
		ClientKey: auth.DeriveClientKey(s.clientKeySalt, customer.SecretKey, customer.Email),
	}, nil
}

func (s *customerService) ListCustomers(db *gorm.DB, filter *dto.CustomerFilter) (*dto.PaginatedResponse, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	customers, total, err := s.customerRepo.List(db, filter.Search, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(customers, total, page, pageSize), nil
}

func (s *customerService) newCustomer(emailAddr, name, organization string) (*models.Customer, error) {
	secret, err := auth.GenerateSecretKey()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &models.Customer{
		Email:        strings.ToLower(strings.TrimSpace(emailAddr)),
		Name:         strings.TrimSpace(name),
		Organization: strings.TrimSpace(organization),
		SecretKey:    secret,
	}, nil
}

func handleCustomerError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrCustomerNotFound):
		return apperrors.ErrCustomerNotFound.WithError(err)
	case errors.Is(err, repositories.ErrCustomerEmailTaken):
		return apperrors.ErrAlreadyExists(err, "customer", "Customer with this email already exists")
	}
	return apperrors.InternalError(err)
}
