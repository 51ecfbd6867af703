package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"YourWheels/apperr"
	"YourWheels/models"
	"YourWheels/utils"
)

const (
	keyClaims = "claims"
	keyUserID = "user_id"
	keyEmail  = "user_email"
	keyRole   = "user_role"
)

// Authenticate requires a valid bearer token. When roles are given the
// token's role must be one of them.
func Authenticate(authority *utils.TokenAuthority, roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return apperr.E(apperr.Unauthorized, "Authorization header is required", nil)
			}

			tokenParts := strings.Fields(authHeader)
			if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
				return apperr.E(apperr.Unauthorized, "Invalid authorization header format", nil)
			}

			claims, err := authority.VerifyToken(tokenParts[1])
			if err != nil {
				return apperr.E(apperr.Unauthorized, "Invalid token", err)
			}
			if len(roles) > 0 && !lo.Contains(roles, claims.Role) {
				return apperr.E(apperr.Forbidden, "Access denied for role "+string(claims.Role), nil)
			}

			c.Set(keyClaims, claims)
			c.Set(keyUserID, claims.AccountID)
			c.Set(keyEmail, claims.Email)
			c.Set(keyRole, claims.Role)
			return next(c)
		}
	}
}

func RequireAdmin(authority *utils.TokenAuthority) echo.MiddlewareFunc {
	return Authenticate(authority, models.RoleAdmin)
}

// RequireOwner rejects callers whose token id differs from the path
// parameter param. Role does not matter. It must run after Authenticate.
func RequireOwner(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil {
				return apperr.E(apperr.Unauthorized, "Authentication required", nil)
			}
			if utils.CanonicalID(claims.AccountID) != utils.CanonicalID(c.Param(param)) {
				return apperr.E(apperr.Forbidden, "You can only access your own account", nil)
			}
			return next(c)
		}
	}
}

// Claims returns the verified token claims, or nil on unauthenticated routes.
func Claims(c echo.Context) *utils.JWTClaims {
	claims, _ := c.Get(keyClaims).(*utils.JWTClaims)
	return claims
}

func CallerID(c echo.Context) string {
	id, _ := c.Get(keyUserID).(string)
	return id
}

func CallerRole(c echo.Context) models.Role {
	role, _ := c.Get(keyRole).(models.Role)
	return role
}
