package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/metrics"
	"meetspace_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Hour)
	router := gin.New()
	router.GET("/me", AuthMiddleware(jwt, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetRole(c), "ft": GetFlatToken(c)})
	})

	t.Run("без заголовка", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(apperrors.CodeUnauthorized), decodeError(t, w).Error.Code)
	})

	t.Run("чужая подпись", func(t *testing.T) {
		other := auth.NewJWTManager("other", time.Hour)
		token, _, err := other.GenerateToken("cust-1", auth.RoleCustomer, "")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(apperrors.CodeInvalidToken), decodeError(t, w).Error.Code)
	})

	t.Run("валидный токен", func(t *testing.T) {
		token, _, err := jwt.GenerateToken("cust-1", auth.RoleCustomer, "flat-token")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var got map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "cust-1", got["id"])
		assert.Equal(t, auth.RoleCustomer, got["role"])
		assert.Equal(t, "flat-token", got["ft"])
	})
}

func TestRoleAndPermission(t *testing.T) {
	setRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set("role", role) }
	}
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	router := gin.New()
	router.GET("/editor-admin", setRole(auth.RoleCustomer), RoleMiddleware(auth.RoleAdmin, auth.RoleEditor), ok)
	router.GET("/invoices", setRole(auth.RoleEditor), RequirePermission(auth.PermInvoicesWrite), ok)
	router.GET("/plans", setRole(auth.RoleEditor), RequirePermission(auth.PermPlansWrite), ok)

	cases := map[string]int{
		"/editor-admin": http.StatusForbidden,
		"/invoices":     http.StatusForbidden,
		"/plans":        http.StatusNoContent,
	}
	for path, code := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, w.Code, path)
	}
}

type stubVerifier struct{ err error }

func (s stubVerifier) Verify(token string) (*auth.RoomTokenClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.RoomTokenClaims{CustomerID: "cust-1", Title: token}, nil
}

func TestRoomTokenMiddleware_QueryFallback(t *testing.T) {
	router := gin.New()
	router.GET("/rooms", RoomTokenMiddleware(stubVerifier{}, nil), func(c *gin.Context) {
		claims := GetRoomClaims(c)
		c.String(http.StatusOK, claims.CustomerID+":"+claims.Title)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms?token=abc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cust-1:abc", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	router := gin.New()
	router.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	rl.evict(time.Now().Add(visitorTTL + time.Second))
	assert.Empty(t, rl.visitors)
}

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware("https://app.example.com/"))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/rooms/:roomUUID", func(c *gin.Context) { c.Status(http.StatusOK) })

	route := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/rooms/:roomUUID", "200")
	unmatched := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404")
	before, beforeUnmatched := testutil.ToFloat64(route), testutil.ToFloat64(unmatched)

	for _, path := range []string{"/rooms/a", "/rooms/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, before+2, testutil.ToFloat64(route), "разные uuid попадают в одну серию")
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
}
