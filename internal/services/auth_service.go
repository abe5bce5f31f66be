package services

import (
	"context"
	"errors"
	"strings"

	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/flat"
	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/models"
	"meetspace_backend/internal/repositories"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	// Login - вход клиента через Flat; клиент создается при первом входе.
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	SendCode(ctx context.Context, req *dto.SendCodeRequest) error
	AdminLogin(db *gorm.DB, req *dto.AdminLoginRequest) (*dto.AuthResponse, error)
	Me(db *gorm.DB, subjectID, role string) (*dto.MeResponse, error)
	// SeedAdmin создает первого администратора, если в системе нет ни одного.
	SeedAdmin(db *gorm.DB, emailAddr, password string) (bool, error)
}

type authService struct {
	flatAuth  FlatAuth
	customers CustomerService
	userRepo  repositories.UserRepository
	jwt       *auth.JWTManager
}

func NewAuthService(
	flatAuth FlatAuth,
	customers CustomerService,
	userRepo repositories.UserRepository,
	jwt *auth.JWTManager,
) AuthService {
	return &authService{
		flatAuth:  flatAuth,
		customers: customers,
		userRepo:  userRepo,
		jwt:       jwt,
	}
}

func (s *authService) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	result, err := s.flatAuth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if flat.IsUnauthorized(err) {
			return nil, apperrors.ErrInvalidCredentials.WithError(err)
		}
		return nil, handleUpstreamError(err, "Login failed")
	}

	customer, err := s.customers.EnsureCustomer(db, req.Email, result.Name, result.UserUUID)
	if err != nil {
		return nil, err
	}

	return s.customerSession(customer, result.Token)
}

func (s *authService) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	result, err := s.flatAuth.Register(ctx, flat.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Code:     req.Code,
		Name:     req.Name,
	})
	if err != nil {
		switch {
		case flat.IsAlreadyRegistered(err):
			return nil, apperrors.ErrEmailAlreadyRegistered.WithError(err)
		case flat.HasCode(err, flat.CodeCodeInvalid):
			return nil, apperrors.NewBadRequestError("Invalid or expired verification code")
		}
		return nil, handleUpstreamError(err, "Registration failed")
	}

	customer, err := s.customers.EnsureCustomer(db, req.Email, req.Name, result.UserUUID)
	if err != nil {
		return nil, err
	}
	if org := strings.TrimSpace(req.Organization); org != "" && customer.Organization == "" {
		customer, err = s.customers.UpdateProfile(db, customer.ID, &dto.UpdateCustomerRequest{Organization: &org})
		if err != nil {
			return nil, err
		}
	}

	return s.customerSession(customer, result.Token)
}

func (s *authService) SendCode(ctx context.Context, req *dto.SendCodeRequest) error {
	language := req.Language
	if language == "" {
		language = "en"
	}
	if err := s.flatAuth.SendVerificationCode(ctx, req.Email, language); err != nil {
		switch {
		case flat.HasCode(err, flat.CodeCodeSendTooFast):
			return apperrors.ErrTooManyRequests.WithError(err)
		case flat.IsAlreadyRegistered(err):
			return apperrors.ErrEmailAlreadyRegistered.WithError(err)
		}
		return handleUpstreamError(err, "Failed to send verification code")
	}
	return nil
}

func (s *authService) AdminLogin(db *gorm.DB, req *dto.AdminLoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !auth.IsStaff(string(user.Role)) {
		return nil, apperrors.ErrInsufficientPermissions
	}

	token, expiresAt, err := s.jwt.GenerateToken(user.ID, string(user.Role), "")
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Unix(),
		User:        user,
	}, nil
}

func (s *authService) Me(db *gorm.DB, subjectID, role string) (*dto.MeResponse, error) {
	resp := &dto.MeResponse{ID: subjectID, Role: models.UserRole(role)}

	if auth.IsStaff(role) {
		user, err := s.userRepo.FindByID(db, subjectID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, apperrors.ErrInvalidToken
			}
			return nil, apperrors.InternalError(err)
		}
		resp.User = user
		return resp, nil
	}

	customer, err := s.customers.GetCustomer(db, subjectID)
	if err != nil {
		return nil, err
	}
	resp.Customer = customer
	return resp, nil
}

func (s *authService) SeedAdmin(db *gorm.DB, emailAddr, password string) (bool, error) {
	if emailAddr == "" || password == "" {
		return false, nil
	}

	count, err := s.userRepo.CountByRole(db, models.UserRoleAdmin)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := auth.ValidatePassword(password); err != nil {
		return false, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(emailAddr)),
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			logger.Warn("first admin email is taken by a non-admin user", "email", user.Email)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *authService) customerSession(customer *models.Customer, flatToken string) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.jwt.GenerateToken(customer.ID, auth.RoleCustomer, flatToken)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Unix(),
		Customer:    customer,
	}, nil
}
