package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const SessionCookieName = "mediarr_session"

var ErrInvalidToken = errors.New("invalid session token")

type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionService mints and validates the cookie-borne session token.
// There is one shared login code, not per-user accounts, so the token
// carries no identity beyond its validity window.
type SessionService struct {
	secret        []byte
	loginCodeHash string
	ttl           time.Duration
	secureCookie  bool
}

func NewSessionService(secret, loginCodeHash string, ttl time.Duration, secureCookie bool) *SessionService {
	return &SessionService{
		secret:        []byte(secret),
		loginCodeHash: loginCodeHash,
		ttl:           ttl,
		secureCookie:  secureCookie,
	}
}

// CheckLoginCode compares the submitted code against the configured
// bcrypt hash.
func (s *SessionService) CheckLoginCode(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(s.loginCodeHash), []byte(code)) == nil
}

func (s *SessionService) GenerateToken() (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mediarr",
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *SessionService) ValidateToken(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// SessionCookie builds the HttpOnly cookie carrying the token.
func (s *SessionService) SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearedCookie expires the session cookie.
func (s *SessionService) ClearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
