package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/flat"
	"meetspace_backend/internal/models"
	"meetspace_backend/internal/repositories"
	"meetspace_backend/internal/services/dto"
	"meetspace_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users map[string]*models.User
}

func (r *fakeUserRepo) FindByID(_ *gorm.DB, id string) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(_ *gorm.DB, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ *gorm.DB, u *models.User) error {
	u.ID = "user-" + u.Email
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) CountByRole(_ *gorm.DB, role models.UserRole) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func newTestAuthService(flatAuth *fakeFlatAuth) (AuthService, *fakeCustomerRepo, *fakeUserRepo, *auth.JWTManager) {
	customers := newFakeCustomerRepo()
	users := &fakeUserRepo{users: map[string]*models.User{}}
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	svc := NewAuthService(flatAuth, NewCustomerService(customers, "salt"), users, jwt)
	return svc, customers, users, jwt
}

func TestLogin_CreatesCustomerOnFirstLogin(t *testing.T) {
	svc, customers, _, jwt := newTestAuthService(&fakeFlatAuth{})

	resp, err := svc.Login(context.Background(), nil, &dto.LoginRequest{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	require.NotNil(t, resp.Customer)
	assert.Equal(t, "flat-user-1", resp.Customer.FlatUserUUID)
	assert.Len(t, resp.Customer.SecretKey, 64)

	claims, err := jwt.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Customer.ID, claims.UserID)
	assert.Equal(t, auth.RoleCustomer, claims.Role)
	assert.Equal(t, "flat-token", claims.FlatToken)

	// повторный вход не создает второго клиента
	again, err := svc.Login(context.Background(), nil, &dto.LoginRequest{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, resp.Customer.ID, again.Customer.ID)
	assert.Len(t, customers.customers, 1)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _, _ := newTestAuthService(&fakeFlatAuth{
		loginErr: &flat.APIError{Status: 1, Code: flat.CodeUserPasswordIncorrect, HTTPStatus: 200},
	})

	_, err := svc.Login(context.Background(), nil, &dto.LoginRequest{Email: "a@example.com", Password: "bad"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRegister_AlreadyRegisteredByCode(t *testing.T) {
	svc, _, _, _ := newTestAuthService(&fakeFlatAuth{
		registerErr: &flat.APIError{Status: 1, Code: flat.CodeUserAlreadyExists, HTTPStatus: 200},
	})

	_, err := svc.Register(context.Background(), nil, &dto.RegisterRequest{
		Email: "a@example.com", Password: "password1", Code: "123456", Name: "A",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.HTTPCode)
}

func TestRegister_StoresOrganization(t *testing.T) {
	svc, _, _, _ := newTestAuthService(&fakeFlatAuth{})

	resp, err := svc.Register(context.Background(), nil, &dto.RegisterRequest{
		Email: "b@example.com", Password: "password1", Code: "123456", Name: "Bob", Organization: "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", resp.Customer.Organization)
	assert.Equal(t, "Bob", resp.Customer.Name)
}

func TestSendCode_TooFast(t *testing.T) {
	svc, _, _, _ := newTestAuthService(&fakeFlatAuth{
		sendErr: &flat.APIError{Status: 1, Code: flat.CodeCodeSendTooFast, HTTPStatus: 200},
	})
	err := svc.SendCode(context.Background(), &dto.SendCodeRequest{Email: "a@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrTooManyRequests)
}

func TestSeedAdminAndAdminLogin(t *testing.T) {
	svc, _, users, jwt := newTestAuthService(&fakeFlatAuth{})

	created, err := svc.SeedAdmin(nil, "Admin@Example.com", "supersecret")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.SeedAdmin(nil, "other@example.com", "supersecret")
	require.NoError(t, err)
	assert.False(t, created, "второй администратор не создается")
	assert.Len(t, users.users, 1)

	resp, err := svc.AdminLogin(nil, &dto.AdminLoginRequest{Email: "admin@example.com", Password: "supersecret"})
	require.NoError(t, err)
	claims, err := jwt.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)

	_, err = svc.AdminLogin(nil, &dto.AdminLoginRequest{Email: "admin@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	me, err := svc.Me(nil, claims.UserID, claims.Role)
	require.NoError(t, err)
	require.NotNil(t, me.User)
	assert.Equal(t, "admin@example.com", me.User.Email)
}
