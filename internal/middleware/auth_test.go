package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func guardedRouter(guard gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/guarded", guard, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"adminId": c.GetString("admin_id"),
		})
	})
	return r
}

func get(r *gin.Engine, headers map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestCronAuth_AcceptsSharedSecret(t *testing.T) {
	r := guardedRouter(CronAuth("cron-secret"))

	w := get(r, map[string]string{"Authorization": "Bearer cron-secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCronAuth_RejectsWrongSecret(t *testing.T) {
	r := guardedRouter(CronAuth("cron-secret"))

	w := get(r, map[string]string{"Authorization": "Bearer guessed"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCronAuth_DisabledWithoutSecret(t *testing.T) {
	r := guardedRouter(CronAuth(""))

	w := get(r, map[string]string{"Authorization": "Bearer anything"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminAuth_AcceptsBearerToken(t *testing.T) {
	token := signedToken(t, "jwt-secret", jwt.MapClaims{
		"admin_id": "admin-1",
		"email":    "dean@wou.example.edu",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	r := guardedRouter(AdminAuth("jwt-secret"))

	w := get(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin-1")
}

func TestAdminAuth_AcceptsCookie(t *testing.T) {
	token := signedToken(t, "jwt-secret", jwt.MapClaims{
		"admin_id": "admin-1",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	r := guardedRouter(AdminAuth("jwt-secret"))

	w := get(r, nil, &http.Cookie{Name: "admin_token", Value: token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuth_RejectsExpiredToken(t *testing.T) {
	token := signedToken(t, "jwt-secret", jwt.MapClaims{
		"admin_id": "admin-1",
		"exp":      time.Now().Add(-time.Hour).Unix(),
	})
	r := guardedRouter(AdminAuth("jwt-secret"))

	w := get(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token expired")
}

func TestAdminAuth_RejectsWrongSignature(t *testing.T) {
	token := signedToken(t, "other-secret", jwt.MapClaims{
		"admin_id": "admin-1",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	r := guardedRouter(AdminAuth("jwt-secret"))

	w := get(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuth_RejectsTokenWithoutAdminID(t *testing.T) {
	token := signedToken(t, "jwt-secret", jwt.MapClaims{
		"email": "dean@wou.example.edu",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	r := guardedRouter(AdminAuth("jwt-secret"))

	w := get(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuth_MissingCredentials(t *testing.T) {
	r := guardedRouter(AdminAuth("jwt-secret"))

	w := get(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
