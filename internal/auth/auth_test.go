package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, exp, err := m.GenerateToken("cust-1", RoleCustomer, "flat-tok")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", claims.UserID)
	assert.Equal(t, RoleCustomer, claims.Role)
	assert.Equal(t, "flat-tok", claims.FlatToken)
}

func TestJWTManager_RejectsForeignSignature(t *testing.T) {
	token, _, err := NewJWTManager("other", time.Hour).GenerateToken("cust-1", RoleAdmin, "")
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Hour).ParseToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestRoomTokenSigner_ExpiresAfter24h(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	s := NewRoomTokenSigner("private")
	s.now = func() time.Time { return now }

	token, exp, err := s.Sign(RoomTokenClaims{
		CustomerID: "cust-1",
		Title:      "Lesson",
		BeginTime:  now.Add(time.Hour),
		EndTime:    now.Add(2 * time.Hour),
		Emails:     []string{"a@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), exp)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "Lesson", claims.Title)
	assert.Equal(t, []string{"a@example.com"}, claims.Emails)
	assert.True(t, claims.BeginTime.Equal(now.Add(time.Hour)))

	now = now.Add(24*time.Hour + time.Second)
	_, err = s.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	t.Logf("Токен комнаты истек через 24 часа")
}

func TestRoomTokenSigner_RejectsOtherKey(t *testing.T) {
	token, _, err := NewRoomTokenSigner("a").Sign(RoomTokenClaims{CustomerID: "c"})
	require.NoError(t, err)

	_, err = NewRoomTokenSigner("b").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDeriveClientKey(t *testing.T) {
	k1 := DeriveClientKey("salt", "secret", "User@Example.com")
	k2 := DeriveClientKey("salt", "secret", "user@example.com")
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)

	assert.NotEqual(t, k1, DeriveClientKey("salt", "other-secret", "user@example.com"))
	assert.NotEqual(t, k1, DeriveClientKey("pepper", "secret", "user@example.com"))
}

func TestPasswordAndSecrets(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))

	assert.Error(t, ValidatePassword("short"))

	s1, err := GenerateSecretKey()
	require.NoError(t, err)
	s2, _ := GenerateSecretKey()
	assert.Len(t, s1, 64)
	assert.NotEqual(t, s1, s2)
}

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, PermInvoicesWrite))
	assert.False(t, HasPermission(RoleEditor, PermInvoicesWrite))
	assert.False(t, HasPermission(RoleCustomer, PermCustomersRead))
	assert.False(t, HasPermission("ghost", PermCustomersRead))
}
