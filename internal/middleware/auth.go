package middleware

import (
	"net/http"
	"strings"

	"jewelry-service/pkg/jwtutil"
	"jewelry-service/pkg/logger"
	"jewelry-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// identityKey is the echo context key the resolved Identity is stored under.
const identityKey = "identity"

// RequireAdmin gates a route on a valid admin token.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident, ok, err := resolve(c)
		if !ok {
			return err
		}
		if _, isAdmin := ident.(jwtutil.AdminIdentity); !isAdmin {
			prometheus.RecordAuthError("wrong_role")
			return forbidden(c)
		}
		c.Set(identityKey, ident)
		return next(c)
	}
}

// RequireClient gates a route on a valid client token. The resolved
// TenantIdentity carries the database identifier the handlers use to select
// the tenant connection.
func RequireClient(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident, ok, err := resolve(c)
		if !ok {
			return err
		}
		tenant, isClient := ident.(jwtutil.TenantIdentity)
		if !isClient {
			prometheus.RecordAuthError("wrong_role")
			return forbidden(c)
		}
		c.Set(identityKey, tenant)

		log := logger.FromContext(c)
		log.Debug("Request authenticated with tenant context",
			zap.String("db_name", tenant.DBName),
			zap.String("business_name", tenant.BusinessName))
		return next(c)
	}
}

// TenantFrom returns the TenantIdentity stored by RequireClient.
func TenantFrom(c echo.Context) (jwtutil.TenantIdentity, bool) {
	tenant, ok := c.Get(identityKey).(jwtutil.TenantIdentity)
	return tenant, ok
}

// AdminFrom returns the AdminIdentity stored by RequireAdmin.
func AdminFrom(c echo.Context) (jwtutil.AdminIdentity, bool) {
	admin, ok := c.Get(identityKey).(jwtutil.AdminIdentity)
	return admin, ok
}

// resolve extracts and verifies the bearer token. When ok is false the
// response has already been written and the handler chain must stop. Every
// verification failure gets the same generic response.
func resolve(c echo.Context) (jwtutil.Identity, bool, error) {
	log := logger.FromContext(c)

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		log.Error("Missing Authorization header")
		prometheus.RecordAuthError("missing_token")
		return nil, false, unauthorized(c, "Authentication token missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		log.Error("Invalid Authorization header format")
		prometheus.RecordAuthError("invalid_auth_format")
		return nil, false, unauthorized(c, "Not authorized")
	}

	ident, err := jwtutil.Verify(parts[1])
	if err != nil {
		log.Error("Invalid JWT token", zap.Error(err))
		prometheus.RecordAuthError("invalid_token")
		return nil, false, unauthorized(c, "Not authorized")
	}

	return ident, true, nil
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false,
		"message": message,
	})
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{
		"success": false,
		"message": "Not authorized",
	})
}
