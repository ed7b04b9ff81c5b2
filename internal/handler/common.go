package handler // handler defines http handlers

import (
	"errors"   // errors matches service and repository sentinels
	"net/http" // net/http provides status codes
	"strconv"  // strconv converts query and path values

	"github.com/labstack/echo/v4" // echo defines request context types
	"go.uber.org/zap"             // zap logs unexpected failures

	"github.com/iliyamo/contacts-api/internal/middleware" // middleware stores the authenticated user
	"github.com/iliyamo/contacts-api/internal/model"      // model holds the user record
	"github.com/iliyamo/contacts-api/internal/repository" // repository sentinels
	"github.com/iliyamo/contacts-api/internal/service"    // service error kinds
)

// detail writes the error body used by every endpoint.
func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"detail": msg})
}

// writeError maps a service or repository error to its HTTP status.  Errors
// without a known kind are logged and returned as 500.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	kinds := []struct {
		kind   error
		status int
	}{
		{service.ErrBadRequest, http.StatusBadRequest},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrConflict, http.StatusConflict},
	}
	for _, k := range kinds {
		if errors.Is(err, k.kind) {
			if k.status == http.StatusUnauthorized {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			}
			return detail(c, k.status, service.Detail(err, http.StatusText(k.status)))
		}
	}
	if errors.Is(err, repository.ErrContactNotFound) {
		return detail(c, http.StatusNotFound, "Contact not found")
	}
	if log != nil {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return detail(c, http.StatusInternalServerError, "internal error")
}

// currentUser returns the user JWTAuth stored on the context.
func currentUser(c echo.Context) (model.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return model.User{}, &service.Error{Kind: service.ErrUnauthorized, Detail: "Not authenticated"}
	}
	return u, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// queryInt reads an integer query parameter within [min, max], returning def
// when it is absent.
func queryInt(c echo.Context, name string, def, min, max int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.Error{Kind: service.ErrBadRequest, Detail: name + " must be an integer"}
	}
	if n < min || n > max {
		return 0, &service.Error{Kind: service.ErrBadRequest,
			Detail: name + " must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max)}
	}
	return n, nil
}

const (
	defaultLimit = 10
	minLimit     = 10
	maxLimit     = 500
)

// pagination reads limit (default 10, 10..500) and offset (default 0, >= 0).
func pagination(c echo.Context) (limit, offset int, err error) {
	if limit, err = queryInt(c, "limit", defaultLimit, minLimit, maxLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(c, "offset", 0, 0, int(^uint32(0)>>1)); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
