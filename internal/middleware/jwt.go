package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"  // context bounds the user lookup
	"errors"   // errors tells credential failures from server failures
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming
	"time"     // lookup timeout

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/contacts-api/internal/model"   // user record stored in the context
	"github.com/iliyamo/contacts-api/internal/service" // error kinds returned by the resolver
)

// ContextUserKey is the echo context key holding the authenticated
// model.User.
const ContextUserKey = "user"

// UserResolver turns an access token into the user it was issued for.
// service.AuthService implements it.
type UserResolver interface {
	CurrentUser(ctx context.Context, accessToken string) (model.User, error)
}

// BearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is missing or uses another scheme.
func BearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// JWTAuth returns an Echo middleware that requires a valid access token.
// The token's user is loaded through resolver and stored under
// ContextUserKey so handlers never re-parse the token.  Refresh, email and
// reset tokens are rejected here because their scope differs.
func JWTAuth(resolver UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := BearerToken(c)
			if raw == "" {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := resolver.CurrentUser(ctx, raw)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
					return c.JSON(http.StatusUnauthorized, echo.Map{"detail": service.Detail(err, "Could not validate credentials")})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "internal error"})
			}
			c.Set(ContextUserKey, u)
			return next(c)
		}
	}
}
