// Package service holds the authentication flows: signup, login, token
// refresh, email confirmation and password reset.  HTTP handlers call it and
// translate its errors; it never touches echo.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/repository"
	"github.com/iliyamo/contacts-api/internal/utils"
)

// UserStore is the part of repository.UserRepo the flows need.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	UpdateRefreshToken(ctx context.Context, userID uint64, digest *string) error
	Confirm(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, email, hash string) error
	UpdateAvatar(ctx context.Context, email, url string) (model.User, error)
}

// SessionStore caches serialized login responses.
type SessionStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Mailer sends the two outbound messages.  mail.SMTPSender and
// queue.Publisher both implement it.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, username, token string) error
	SendPasswordReset(ctx context.Context, to, username, token string) error
}

// TaskRunner runs work after the response has been sent.
type TaskRunner interface {
	Submit(name string, fn func(ctx context.Context) error)
}

// AvatarStore uploads avatar images.
type AvatarStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// AuthDeps groups the collaborators of AuthService.  Sessions, Avatars and
// AvatarKey may be nil.
type AuthDeps struct {
	Users      UserStore
	Tokens     *utils.TokenService
	Sessions   SessionStore
	Mailer     Mailer
	Tasks      TaskRunner
	Avatars    AvatarStore
	AvatarKey  func(userID uint64) string
	Log        *zap.Logger
	BcryptCost int
	SessionTTL time.Duration
}

// AuthService implements the authentication state machine of a user:
// created unconfirmed, confirmed once, holding at most one refresh token.
type AuthService struct {
	AuthDeps
}

func NewAuthService(d AuthDeps) *AuthService {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.AvatarKey == nil {
		d.AvatarKey = func(id uint64) string { return fmt.Sprintf("users/%d/avatar", id) }
	}
	return &AuthService{AuthDeps: d}
}

// SignupInput is the body of POST /auth/signup.
type SignupInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=150"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

const bearer = "bearer"

// Signup creates an unconfirmed user and queues the confirmation email.  A
// failed send does not undo the signup.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (model.User, error) {
	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{Username: strings.TrimSpace(in.Username), Email: in.Email, PasswordHash: hash}
	if err := s.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, fail(ErrConflict, "Account already exists")
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	s.sendConfirmation(u)
	return u, nil
}

// Login returns a token pair for email/password.  A cached pair for the same
// username is returned as is, without checking the password.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if pair, ok := s.cachedPair(ctx, key); ok {
		return pair, nil
	}

	u, err := s.Users.GetByEmail(ctx, key)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.TokenPair{}, fail(ErrUnauthorized, "Invalid email or password")
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if !u.Confirmed {
		return model.TokenPair{}, fail(ErrForbidden, "Email not confirmed")
	}
	ok, err := utils.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		s.Log.Error("stored password hash is unreadable", zap.Uint64("user_id", u.ID), zap.Error(err))
		return model.TokenPair{}, err
	}
	if !ok {
		return model.TokenPair{}, fail(ErrUnauthorized, "Invalid email or password")
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return model.TokenPair{}, err
	}
	s.cachePair(ctx, key, pair)
	return pair, nil
}

// Refresh rotates the refresh token.  A token that verifies but is not the
// one on record means it was already rotated or revoked; the stored token is
// then cleared, which logs every client of that user out.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	email, err := s.Tokens.Verify(refreshToken, utils.RefreshTokenType)
	if err != nil {
		return model.TokenPair{}, fail(ErrUnauthorized, "Could not validate credentials")
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.TokenPair{}, fail(ErrUnauthorized, "Could not validate credentials")
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if u.RefreshTokenHash == nil || *u.RefreshTokenHash != utils.HashRefreshRaw(refreshToken) {
		if err := s.Users.UpdateRefreshToken(ctx, u.ID, nil); err != nil {
			return model.TokenPair{}, fmt.Errorf("clear refresh token: %w", err)
		}
		return model.TokenPair{}, fail(ErrUnauthorized, "Invalid refresh token")
	}
	return s.issuePair(ctx, u)
}

// ConfirmEmail marks the token's subject as confirmed.  Confirming twice is
// not an error.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (string, error) {
	email, err := s.Tokens.Verify(token, utils.EmailTokenType)
	if err != nil {
		return "", fail(ErrBadRequest, "Invalid token for email verification")
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", fail(ErrBadRequest, "Verification error")
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if u.Confirmed {
		return "Your email is already confirmed", nil
	}
	if err := s.Users.Confirm(ctx, u.Email); err != nil {
		return "", fmt.Errorf("confirm user: %w", err)
	}
	return "Email confirmed", nil
}

// RequestEmail resends the confirmation email.  Unknown addresses get the
// same answer as known ones.
func (s *AuthService) RequestEmail(ctx context.Context, email string) (string, error) {
	const msg = "Check your email for confirmation."
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return msg, nil
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if u.Confirmed {
		return "Your email is already confirmed", nil
	}
	s.sendConfirmation(u)
	return msg, nil
}

// RequestPasswordReset mails a reset link to a registered address.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", fail(ErrBadRequest, "User with this email does not exist")
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	token, err := s.Tokens.IssueReset(u.Email)
	if err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}
	s.Tasks.Submit("send-password-reset", func(ctx context.Context) error {
		return s.Mailer.SendPasswordReset(ctx, u.Email, u.Username, token)
	})
	return "Check your email to reset your password.", nil
}

// ResetPasswordForm checks a reset token and returns the address it was
// issued for, which the reset form posts back.
func (s *AuthService) ResetPasswordForm(token string) (string, error) {
	email, err := s.Tokens.Verify(token, utils.ResetTokenType)
	if err != nil {
		return "", fail(ErrBadRequest, "Invalid or expired reset link")
	}
	return email, nil
}

// ResetPassword sets a new password.  token must be a reset token issued
// for email; a bare email plus password is rejected.
func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) (string, error) {
	subject, err := s.Tokens.Verify(token, utils.ResetTokenType)
	if err != nil || !strings.EqualFold(subject, strings.TrimSpace(email)) {
		return "", fail(ErrBadRequest, "Invalid or expired reset link")
	}
	if len(newPassword) < 6 || len(newPassword) > 72 {
		return "", fail(ErrBadRequest, "Password must be 6 to 72 characters")
	}
	if _, err := s.Users.GetByEmail(ctx, subject); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", fail(ErrBadRequest, "User with this email does not exist")
		}
		return "", fmt.Errorf("load user: %w", err)
	}
	hash, err := utils.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.UpdatePassword(ctx, subject, hash); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	return "Password has been reset", nil
}

// CurrentUser resolves an access token to its user.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (model.User, error) {
	email, err := s.Tokens.Verify(accessToken, utils.AccessTokenType)
	if err != nil {
		return model.User{}, fail(ErrUnauthorized, "Could not validate credentials")
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, fail(ErrUnauthorized, "Could not validate credentials")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// UpdateAvatar uploads a new avatar for u and returns the updated user.
func (s *AuthService) UpdateAvatar(ctx context.Context, u model.User, body io.Reader, contentType string) (model.User, error) {
	if s.Avatars == nil {
		return model.User{}, fail(ErrBadRequest, "Avatar storage is not configured")
	}
	url, err := s.Avatars.Upload(ctx, s.AvatarKey(u.ID), body, contentType)
	if err != nil {
		return model.User{}, fmt.Errorf("upload avatar: %w", err)
	}
	updated, err := s.Users.UpdateAvatar(ctx, u.Email, url)
	if err != nil {
		return model.User{}, fmt.Errorf("save avatar: %w", err)
	}
	return updated, nil
}

func (s *AuthService) issuePair(ctx context.Context, u model.User) (model.TokenPair, error) {
	access, err := s.Tokens.IssueAccess(u.Email)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Tokens.IssueRefresh(u.Email)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	digest := utils.HashRefreshRaw(refresh)
	if err := s.Users.UpdateRefreshToken(ctx, u.ID, &digest); err != nil {
		return model.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: bearer}, nil
}

func (s *AuthService) sendConfirmation(u model.User) {
	token, err := s.Tokens.IssueEmail(u.Email)
	if err != nil {
		s.Log.Error("issue email token", zap.String("email", u.Email), zap.Error(err))
		return
	}
	s.Tasks.Submit("send-confirmation", func(ctx context.Context) error {
		return s.Mailer.SendConfirmation(ctx, u.Email, u.Username, token)
	})
}

// cachedPair reads the session cache.  Cache failures count as misses.
func (s *AuthService) cachedPair(ctx context.Context, key string) (model.TokenPair, bool) {
	if s.Sessions == nil {
		return model.TokenPair{}, false
	}
	raw, ok, err := s.Sessions.Get(ctx, key)
	if err != nil {
		s.Log.Warn("session cache get failed", zap.Error(err))
		return model.TokenPair{}, false
	}
	if !ok {
		return model.TokenPair{}, false
	}
	var pair model.TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil || pair.AccessToken == "" {
		return model.TokenPair{}, false
	}
	return pair, true
}

func (s *AuthService) cachePair(ctx context.Context, key string, pair model.TokenPair) {
	if s.Sessions == nil {
		return
	}
	raw, err := json.Marshal(pair)
	if err != nil {
		return
	}
	if err := s.Sessions.Put(ctx, key, raw, s.SessionTTL); err != nil {
		s.Log.Warn("session cache put failed", zap.Error(err))
	}
}
