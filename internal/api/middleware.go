package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ticketsmith/internal/tenant"
)

// tenantContextKey is the echo context key carrying the authenticated
// tenant's AuthContext.
const tenantContextKey = "tenant"

// RequireTenant validates the Connect JWT on incoming requests. Jira
// sends it as "Authorization: JWT <token>" or as a jwt query parameter.
// The three failure modes stay distinguishable in the response body.
func RequireTenant(registry *tenant.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing or invalid JWT token")
			}

			result := registry.Authenticate(token)
			switch result.Status {
			case tenant.AuthOK:
				c.Set(tenantContextKey, result.Context)
				return next(c)
			case tenant.AuthUnknownTenant:
				return echo.NewHTTPError(http.StatusUnauthorized, "App not installed for this tenant")
			case tenant.AuthExpired:
				return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
		}
	}
}

func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "JWT ") {
		return strings.TrimPrefix(authHeader, "JWT ")
	}
	return c.QueryParam("jwt")
}

// GetTenant extracts the authenticated tenant from the echo context.
// Returns nil when the route ran without the auth middleware.
func GetTenant(c echo.Context) *tenant.AuthContext {
	value := c.Get(tenantContextKey)
	if value == nil {
		return nil
	}
	authCtx, ok := value.(*tenant.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}
