package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/config"
	"foodshare/internal/models"
)

func setupProtectedRouter(manager *JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", JWTMiddleware(manager), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no user id"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	manager := NewJWTManager(config.JWTConfig{Secret: "test-secret", ExpiresIn: "1h"})
	router := setupProtectedRouter(manager)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareMalformedHeader(t *testing.T) {
	manager := NewJWTManager(config.JWTConfig{Secret: "test-secret", ExpiresIn: "1h"})
	router := setupProtectedRouter(manager)

	for _, header := range []string{"Bearer", "Basic abc", "Bearer "} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestJWTMiddlewareInvalidToken(t *testing.T) {
	manager := NewJWTManager(config.JWTConfig{Secret: "test-secret", ExpiresIn: "1h"})
	router := setupProtectedRouter(manager)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	manager := NewJWTManager(config.JWTConfig{Secret: "test-secret", ExpiresIn: "1h"})
	router := setupProtectedRouter(manager)

	token, err := manager.GenerateToken(&models.User{ID: 7, Email: "bob@example.com"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 7}`, w.Body.String())
}
