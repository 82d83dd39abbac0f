package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithHeaders(mw gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_ProductionVariant(t *testing.T) {
	w := runWithHeaders(SecurityHeaders())

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Contains(t, w.Header().Get("Referrer-Policy"), "strict-origin-when-cross-origin")
}

func TestSecurityHeaders_RelaxedVariantLoosensFrameAndCSP(t *testing.T) {
	w := runWithHeaders(SecurityHeadersRelaxed())

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestSecurityHeaders_HSTSCoversSubdomains(t *testing.T) {
	w := runWithHeaders(SecurityHeaders())

	hsts := w.Header().Get("Strict-Transport-Security")
	require.NotEmpty(t, hsts)
	assert.Contains(t, hsts, "max-age=31536000")
	assert.Contains(t, hsts, "includeSubDomains")
}

func TestSecurityHeaders_CSPCarriesPerRequestNonce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/test", func(c *gin.Context) {
		nonce, exists := c.Get("csp_nonce")
		assert.True(t, exists, "handler should see the nonce stashed by the middleware")
		assert.NotEmpty(t, nonce)
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	csp := w.Header().Get("Content-Security-Policy")
	require.NotEmpty(t, csp)
	assert.Contains(t, csp, "nonce-")
	assert.Contains(t, csp, "default-src 'self'")
}

func TestSecurityHeaders_NoncesDoNotRepeatAcrossRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeaders())

	seen := make(map[string]bool)
	router.GET("/test", func(c *gin.Context) {
		nonce, _ := c.Get("csp_nonce")
		nonceStr, _ := nonce.(string)
		assert.NotEmpty(t, nonceStr)
		assert.False(t, seen[nonceStr], "nonce %q reused across requests", nonceStr)
		seen[nonceStr] = true
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}

	require.Len(t, seen, 10)
}

func TestSecurityHeaders_PermissionsPolicyDisablesSensorAPIs(t *testing.T) {
	w := runWithHeaders(SecurityHeaders())

	pp := w.Header().Get("Permissions-Policy")
	require.NotEmpty(t, pp)
	assert.Contains(t, pp, "geolocation=()")
	assert.Contains(t, pp, "microphone=()")
	assert.Contains(t, pp, "camera=()")
}

func TestSecurityHeaders_SetsEveryExpectedHeader(t *testing.T) {
	w := runWithHeaders(SecurityHeaders())

	for _, header := range []string{
		"Strict-Transport-Security",
		"X-Content-Type-Options",
		"X-Frame-Options",
		"X-XSS-Protection",
		"Content-Security-Policy",
		"Referrer-Policy",
		"Permissions-Policy",
	} {
		assert.NotEmpty(t, w.Header().Get(header), "missing header %s", header)
	}
}
