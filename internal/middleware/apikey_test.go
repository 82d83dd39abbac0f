package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAuthenticate_NoKeysConfiguredGrantsDefaultPermissions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Authenticate(KeyTable{}))
	router.GET("/test", func(c *gin.Context) {
		assert.ElementsMatch(t, DefaultPermissions, Permissions(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_MissingKeyRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	table := NewKeyTable("admin-secret", "")
	router := gin.New()
	router.Use(Authenticate(table))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_ValidHeaderKeyGrantsPermissions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	table := NewKeyTable("admin-secret", "user-secret")
	router := gin.New()
	router.Use(Authenticate(table))
	router.GET("/test", func(c *gin.Context) {
		assert.Contains(t, Permissions(c), PermissionAdmin)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-API-Key", "admin-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_ValidQueryKeyGrantsPermissions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	table := NewKeyTable("", "user-secret")
	router := gin.New()
	router.Use(Authenticate(table))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test?api_key=user-secret", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermission_RejectsMissingAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	table := NewKeyTable("", "user-secret")
	router := gin.New()
	router.Use(Authenticate(table))
	router.POST("/admin", RequirePermission(PermissionAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("X-API-Key", "user-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
