package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newSessionService(t *testing.T, ttl time.Duration) *SessionService {
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewSessionService(testSecret, string(hash), ttl, false)
}

func TestCheckLoginCode(t *testing.T) {
	svc := newSessionService(t, time.Hour)

	assert.True(t, svc.CheckLoginCode("open sesame"))
	assert.False(t, svc.CheckLoginCode("wrong code"))
	assert.False(t, svc.CheckLoginCode(""))
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newSessionService(t, time.Hour)

	token, err := svc.GenerateToken()
	require.NoError(t, err)
	assert.NoError(t, svc.ValidateToken(token))
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newSessionService(t, -time.Minute)

	token, err := svc.GenerateToken()
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ValidateToken(token), ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newSessionService(t, time.Hour)
	other := NewSessionService("another-secret-another-secret-32", svc.loginCodeHash, time.Hour, false)

	token, err := other.GenerateToken()
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ValidateToken(token), ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newSessionService(t, time.Hour)

	assert.ErrorIs(t, svc.ValidateToken("not.a.token"), ErrInvalidToken)
	assert.ErrorIs(t, svc.ValidateToken(""), ErrInvalidToken)
}

func TestSessionCookieFlags(t *testing.T) {
	svc := newSessionService(t, time.Hour)

	c := svc.SessionCookie("tok")
	assert.Equal(t, SessionCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)

	cleared := svc.ClearedCookie()
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Empty(t, cleared.Value)
}
