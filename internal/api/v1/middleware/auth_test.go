package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flexprice/flexprice/internal/config"
	"github.com/flexprice/flexprice/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Configuration {
	cfg := &config.Configuration{}
	cfg.Auth.Header = "X-API-Key"
	cfg.Auth.Keys = map[string]config.APIKeyDetails{
		"good-key": {TenantID: "tenant-1", Name: "test", IsActive: true},
		"inactive-key": {TenantID: "tenant-2", Name: "inactive", IsActive: false},
	}
	return cfg
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil)
	return c, w
}

func TestExtractAPIKey_ConfiguredHeaderTakesPriority(t *testing.T) {
	cfg := testConfig()
	c, _ := newTestContext()
	c.Request.Header.Set("X-API-Key", "from-header")
	c.Request.Header.Set("Authorization", "Bearer from-bearer")

	assert.Equal(t, "from-header", extractAPIKey(c, cfg))
}

func TestExtractAPIKey_FallsBackToBearer(t *testing.T) {
	cfg := testConfig()
	c, _ := newTestContext()
	c.Request.Header.Set("Authorization", "Bearer from-bearer")

	assert.Equal(t, "from-bearer", extractAPIKey(c, cfg))
}

func TestExtractAPIKey_AbsentReturnsEmpty(t *testing.T) {
	cfg := testConfig()
	c, _ := newTestContext()

	assert.Equal(t, "", extractAPIKey(c, cfg))
}

func TestValidateAPIKey(t *testing.T) {
	cfg := testConfig()

	tenantID, valid := validateAPIKey(cfg, "good-key")
	assert.True(t, valid)
	assert.Equal(t, "tenant-1", tenantID)

	_, valid = validateAPIKey(cfg, "inactive-key")
	assert.False(t, valid)

	_, valid = validateAPIKey(cfg, "unknown-key")
	assert.False(t, valid)

	_, valid = validateAPIKey(cfg, "")
	assert.False(t, valid)
}

func TestAPIKeyAuthMiddleware_MissingKeyIs401AuthRequired(t *testing.T) {
	cfg := testConfig()
	log, err := logger.NewLogger(&config.Configuration{Logging: config.LoggingConfig{Level: "info", Format: "json"}})
	require.NoError(t, err)

	c, w := newTestContext()
	APIKeyAuthMiddleware(cfg, log)(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication_required")
}

func TestAPIKeyAuthMiddleware_InvalidKeyIs401InvalidAPIKey(t *testing.T) {
	cfg := testConfig()
	log, err := logger.NewLogger(&config.Configuration{Logging: config.LoggingConfig{Level: "info", Format: "json"}})
	require.NoError(t, err)

	c, w := newTestContext()
	c.Request.Header.Set("X-API-Key", "unknown-key")
	APIKeyAuthMiddleware(cfg, log)(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_api_key")
}

func TestAPIKeyAuthMiddleware_ValidKeySetsTenantAndContinues(t *testing.T) {
	cfg := testConfig()
	log, err := logger.NewLogger(&config.Configuration{Logging: config.LoggingConfig{Level: "info", Format: "json"}})
	require.NoError(t, err)

	c, w := newTestContext()
	c.Request.Header.Set("X-API-Key", "good-key")
	APIKeyAuthMiddleware(cfg, log)(c)

	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code) // recorder default, nothing written yet
}
