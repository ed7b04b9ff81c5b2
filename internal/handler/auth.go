package handler

import (
	"context"  // provides context with cancellation for service calls
	"io"       // avatar uploads are streamed
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for service calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"             // structured logging of unexpected errors

	"github.com/iliyamo/contacts-api/internal/middleware" // bearer token extraction
	"github.com/iliyamo/contacts-api/internal/model"      // user and token pair types
	"github.com/iliyamo/contacts-api/internal/service"    // authentication flows
)

// AuthFlows is implemented by service.AuthService.
type AuthFlows interface {
	Signup(ctx context.Context, in service.SignupInput) (model.User, error)
	Login(ctx context.Context, email, password string) (model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	ConfirmEmail(ctx context.Context, token string) (string, error)
	RequestEmail(ctx context.Context, email string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPasswordForm(token string) (string, error)
	ResetPassword(ctx context.Context, email, token, newPassword string) (string, error)
	UpdateAvatar(ctx context.Context, u model.User, body io.Reader, contentType string) (model.User, error)
}

// AuthHandler bundles dependencies for auth and user endpoints.
type AuthHandler struct {
	Auth AuthFlows
	Log  *zap.Logger
}

func NewAuthHandler(a AuthFlows, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Auth: a, Log: log}
}

// requestTimeout bounds every service call made from a handler.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

type emailReq struct {
	Email string `json:"email" validate:"required,email"`
}

type messageResp struct {
	Message string `json:"message"`
}

// Signup: create an unconfirmed user; the confirmation email goes out in the
// background.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req service.SignupInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Signup(ctx, req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, u.Response())
}

// Login: form fields username (the email) and password.
func (h *AuthHandler) Login(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if email == "" || password == "" {
		return detail(c, http.StatusBadRequest, "username and password are required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.Login(ctx, email, password)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// RefreshToken: the refresh token arrives as the bearer credential.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	raw := middleware.BearerToken(c)
	if raw == "" {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return detail(c, http.StatusUnauthorized, "Not authenticated")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, raw)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// ConfirmedEmail: target of the link in the confirmation email.
func (h *AuthHandler) ConfirmedEmail(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	msg, err := h.Auth.ConfirmEmail(ctx, c.Param("token"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, messageResp{Message: msg})
}

// RequestEmail: resend the confirmation email.
func (h *AuthHandler) RequestEmail(c echo.Context) error {
	var req emailReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	msg, err := h.Auth.RequestEmail(ctx, req.Email)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, messageResp{Message: msg})
}

// RequestPasswordReset: POST /auth/reset-password?email=...
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return detail(c, http.StatusBadRequest, "email is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	msg, err := h.Auth.RequestPasswordReset(ctx, email)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, messageResp{Message: msg})
}

// ResetPasswordForm renders the page the reset email links to.
func (h *AuthHandler) ResetPasswordForm(c echo.Context) error {
	token := c.Param("token")
	email, err := h.Auth.ResetPasswordForm(token)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var buf strings.Builder
	if err := resetPage.Execute(&buf, resetPageData{Email: email, Token: token}); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.HTML(http.StatusOK, buf.String())
}

// ResetPassword: the form posts new_password and token to
// /auth/reset-password/:email.  The token field is required on top of
// new_password so that knowing an address is not enough to reset its
// password; the page served by ResetPasswordForm always posts it.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	email := c.Param("email")
	token := c.FormValue("token")
	password := c.FormValue("new_password")
	if token == "" || password == "" {
		return detail(c, http.StatusBadRequest, "new_password and token are required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	msg, err := h.Auth.ResetPassword(ctx, email, token, password)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, messageResp{Message: msg})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u.Response())
}

// maxAvatarBytes caps avatar uploads.
const maxAvatarBytes = 5 << 20

// UpdateAvatar stores a multipart "file" as the user's avatar.
func (h *AuthHandler) UpdateAvatar(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return detail(c, http.StatusBadRequest, "file is required")
	}
	if fh.Size > maxAvatarBytes {
		return detail(c, http.StatusBadRequest, "file is too large")
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return detail(c, http.StatusBadRequest, "file must be an image")
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, h.Log, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	updated, err := h.Auth.UpdateAvatar(ctx, u, f, contentType)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, updated.Response())
}
