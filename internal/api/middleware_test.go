package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketsmith/internal/tenant"
)

func signTenantToken(t *testing.T, issuer, secret string, expiresAt time.Time) string {
	t.Helper()

	claims := &tenant.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/enhance?issueKey=DIGI-894", nil)
	if token != "" {
		req.Header.Set("Authorization", "JWT "+token)
	}
	return req
}

func TestEnhanceRejectsMissingToken(t *testing.T) {
	h := newHarness(t, true)

	rec := h.do(authedRequest(""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing or invalid JWT token")
	assert.Zero(t, h.generator.calls)
}

func TestEnhanceRejectsUnknownTenant(t *testing.T) {
	h := newHarness(t, true)

	token := signTenantToken(t, "ghost", "ghost-secret", time.Now().Add(5*time.Minute))
	rec := h.do(authedRequest(token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "App not installed for this tenant")
}

func TestEnhanceRejectsExpiredToken(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.registry.Install("tenant-a", "secret-a", "https://a.atlassian.net"))

	token := signTenantToken(t, "tenant-a", "secret-a", time.Now().Add(-5*time.Minute))
	rec := h.do(authedRequest(token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token expired")
}

func TestEnhanceRejectsBadSignature(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.registry.Install("tenant-a", "secret-a", "https://a.atlassian.net"))

	token := signTenantToken(t, "tenant-a", "wrong-secret", time.Now().Add(5*time.Minute))
	rec := h.do(authedRequest(token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
}

func TestEnhanceAcceptsValidTokenAndUsesTenantBaseURL(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.registry.Install("tenant-a", "secret-a", "https://a.atlassian.net"))

	token := signTenantToken(t, "tenant-a", "secret-a", time.Now().Add(5*time.Minute))
	rec := h.do(authedRequest(token))

	require.Equal(t, http.StatusOK, rec.Code)
	// The tenant's own instance overrides the configured default.
	assert.Equal(t, "https://a.atlassian.net", h.lastURL)
}

func TestEnhanceAcceptsTokenFromQueryParam(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.registry.Install("tenant-a", "secret-a", "https://a.atlassian.net"))

	token := signTenantToken(t, "tenant-a", "secret-a", time.Now().Add(5*time.Minute))
	req := httptest.NewRequest(http.MethodGet, "/enhance?issueKey=DIGI-894&jwt="+token, nil)
	rec := h.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthDoesNotRequireAuth(t *testing.T) {
	h := newHarness(t, true)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
