package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(clock *fakeClock) *TokenService {
	return NewTokenService("test-secret", TokenTTLs{
		Access:  15 * time.Minute,
		Refresh: 7 * 24 * time.Hour,
		Email:   24 * time.Hour,
		Reset:   time.Hour,
	}, clock.Now)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(clock)

	access, err := svc.IssueAccess("alice@example.com")
	require.NoError(t, err)
	refresh, err := svc.IssueRefresh("alice@example.com")
	require.NoError(t, err)

	sub, err := svc.Verify(access, AccessTokenType)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", sub)

	sub, err = svc.Verify(refresh, RefreshTokenType)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", sub)
}

func TestTokenService_TypeMismatch(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(clock)

	access, err := svc.IssueAccess("bob@example.com")
	require.NoError(t, err)
	refresh, err := svc.IssueRefresh("bob@example.com")
	require.NoError(t, err)
	email, err := svc.IssueEmail("bob@example.com")
	require.NoError(t, err)

	_, err = svc.Verify(access, RefreshTokenType)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
	_, err = svc.Verify(refresh, AccessTokenType)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
	_, err = svc.Verify(email, ResetTokenType)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(clock)

	access, err := svc.IssueAccess("carol@example.com")
	require.NoError(t, err)

	clock.Advance(15*time.Minute - time.Second)
	_, err = svc.Verify(access, AccessTokenType)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = svc.Verify(access, AccessTokenType)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_Invalid(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(clock)
	other := NewTokenService("other-secret", TokenTTLs{Access: time.Minute}, clock.Now)

	foreign, err := other.IssueAccess("mallory@example.com")
	require.NoError(t, err)
	_, err = svc.Verify(foreign, AccessTokenType)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.Verify("not-a-jwt", AccessTokenType)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	good, err := svc.IssueAccess("alice@example.com")
	require.NoError(t, err)
	parts := strings.Split(good, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	_, err = svc.Verify(tampered, AccessTokenType)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(clock)

	claims := Claims{
		Scope: AccessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Verify(raw, AccessTokenType)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_TokensAreUnique(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(clock)

	a, err := svc.IssueRefresh("dave@example.com")
	require.NoError(t, err)
	b, err := svc.IssueRefresh("dave@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, HashRefreshRaw(a), HashRefreshRaw(b))
}

func TestHashRefreshRaw(t *testing.T) {
	h := HashRefreshRaw("token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRefreshRaw("token"))
}
