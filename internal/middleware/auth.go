package middleware

import (
	"errors"
	"strings"

	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/logger"
	"meetspace_backend/pkg/apperrors"
	"meetspace_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// ErrorWriter пишет ошибку в ответ в формате конкретной группы маршрутов.
type ErrorWriter func(c *gin.Context, err error)

// RoomTokenVerifier проверяет токен параметров комнаты.
type RoomTokenVerifier interface {
	Verify(token string) (*auth.RoomTokenClaims, error)
}

// AuthMiddleware - middleware проверки JWT сессии. Кладет в контекст
// userID, role и токен Flat клиента.
func AuthMiddleware(jwt *auth.JWTManager, writeErr ErrorWriter) gin.HandlerFunc {
	if writeErr == nil {
		writeErr = apperrors.HandleError
	}
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			writeErr(c, apperrors.ErrMissingToken)
			return
		}

		claims, err := jwt.ParseToken(tokenStr)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeErr(c, apperrors.ErrTokenExpired)
				return
			}
			writeErr(c, apperrors.ErrInvalidToken.WithError(err))
			return
		}

		c.Set(contextkeys.UserIDKey, claims.UserID)
		c.Set(contextkeys.RoleKey, claims.Role)
		c.Set(contextkeys.FlatTokenKey, claims.FlatToken)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// RoomTokenMiddleware пропускает запросы LMS с токеном параметров комнаты
// (заголовок Authorization или параметр token).
func RoomTokenMiddleware(verifier RoomTokenVerifier, writeErr ErrorWriter) gin.HandlerFunc {
	if writeErr == nil {
		writeErr = apperrors.HandleError
	}
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			tokenStr = c.Query("token")
		}
		if tokenStr == "" {
			writeErr(c, apperrors.ErrMissingToken)
			return
		}

		claims, err := verifier.Verify(tokenStr)
		if err != nil {
			writeErr(c, err)
			return
		}

		c.Set(contextkeys.RoomClaimsKey, claims)
		c.Set(contextkeys.UserIDKey, claims.CustomerID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.CustomerID))
		c.Next()
	}
}

// RoleMiddleware - middleware ограничения по ролям
func RoleMiddleware(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: no role"))
			return
		}
		if !roleSet[role] {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// RequirePermission проверяет разрешение роли по таблице auth.Permissions.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.HasPermission(GetRole(c), permission) {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions.WithDetails(map[string]string{
				"required": permission,
			}))
			return
		}
		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	return c.GetString(contextkeys.UserIDKey)
}

func GetRole(c *gin.Context) string {
	return c.GetString(contextkeys.RoleKey)
}

// GetFlatToken возвращает токен Flat клиента из сессии.
func GetFlatToken(c *gin.Context) string {
	return c.GetString(contextkeys.FlatTokenKey)
}

func GetRoomClaims(c *gin.Context) *auth.RoomTokenClaims {
	v, ok := c.Get(contextkeys.RoomClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.RoomTokenClaims)
	return claims
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
