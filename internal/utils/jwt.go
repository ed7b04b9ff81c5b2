package utils // package utils provides helpers for password hashing and token handling

import (
	"crypto/sha256" // SHA‑256 digest of refresh tokens before they are stored
	"encoding/hex"  // hex encoding of the digest
	"errors"        // sentinel errors returned by Verify
	"time"          // expirations and the injectable clock

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
	"github.com/google/uuid"       // random token IDs
)

// TokenType is the scope claim that tells one token kind from another.  All
// kinds share one secret and algorithm; the scope is what stops an access
// token from being replayed as a refresh token.
type TokenType string

const (
	AccessTokenType  TokenType = "access_token"
	RefreshTokenType TokenType = "refresh_token"
	EmailTokenType   TokenType = "email_token"
	ResetTokenType   TokenType = "reset_token"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrTokenTypeMismatch = errors.New("token type mismatch")
)

// Claims is the payload of every token issued by TokenService.  Subject
// holds the user's email.
type Claims struct {
	Scope TokenType `json:"scope"`
	jwt.RegisteredClaims
}

// TokenTTLs groups the lifetime of each token kind.
type TokenTTLs struct {
	Access  time.Duration
	Refresh time.Duration
	Email   time.Duration
	Reset   time.Duration
}

// TokenService issues and verifies HS256 tokens.  It is constructed with the
// signing secret instead of reading global configuration so tests can build
// their own.
type TokenService struct {
	secret []byte
	ttls   TokenTTLs
	now    func() time.Time
}

// NewTokenService builds a TokenService.  A nil clock means time.Now.
func NewTokenService(secret string, ttls TokenTTLs, now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: []byte(secret), ttls: ttls, now: now}
}

// Issue signs a token for subject with the given type and lifetime and
// returns it with its expiry.
func (s *TokenService) Issue(subject string, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := s.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Scope: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(), // two tokens issued in the same second still differ
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses token, checks the signature, expiry and scope, and returns
// the subject.  Errors are ErrTokenExpired, ErrTokenTypeMismatch or
// ErrTokenInvalid.
func (s *TokenService) Verify(token string, expected TokenType) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	// jwt accepts now == exp; a token is expired at its expiry instant.
	if !s.now().Before(claims.ExpiresAt.Time) {
		return "", ErrTokenExpired
	}
	if claims.Scope != expected {
		return "", ErrTokenTypeMismatch
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

// IssueAccess returns a short-lived access token for email.
func (s *TokenService) IssueAccess(email string) (string, error) {
	t, _, err := s.Issue(email, AccessTokenType, s.ttls.Access)
	return t, err
}

// IssueRefresh returns a long-lived refresh token for email.
func (s *TokenService) IssueRefresh(email string) (string, error) {
	t, _, err := s.Issue(email, RefreshTokenType, s.ttls.Refresh)
	return t, err
}

// IssueEmail returns an email confirmation token.
func (s *TokenService) IssueEmail(email string) (string, error) {
	t, _, err := s.Issue(email, EmailTokenType, s.ttls.Email)
	return t, err
}

// IssueReset returns a password reset token.
func (s *TokenService) IssueReset(email string) (string, error) {
	t, _, err := s.Issue(email, ResetTokenType, s.ttls.Reset)
	return t, err
}

// HashRefreshRaw returns the SHA‑256 hash of a refresh token as a hex
// string.  Only the digest is stored on the user row so a leaked database
// dump cannot be replayed against the refresh endpoint.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
