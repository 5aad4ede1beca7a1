package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultResetTokenExpiry is the lifetime of a password reset token.
const DefaultResetTokenExpiry = 1800 * time.Second

const resetTokenSubject = "password_reset"

// ErrEmptySecret is returned when a TokenService is built without a key.
var ErrEmptySecret = errors.New("token secret is empty")

type resetClaims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// TokenService issues and verifies signed password reset tokens. Nothing is
// stored server side: a token is valid until its exp claim passes, and the
// only way to revoke outstanding tokens is to rotate the secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	s := &TokenService{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a reset token for userID that expires after expiry. A
// non-positive expiry falls back to DefaultResetTokenExpiry.
func (s *TokenService) Issue(userID int, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = DefaultResetTokenExpiry
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   resetTokenSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		UserID: userID,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id bound to token, or false when the token is
// malformed, forged, expired or was not issued for password reset.
func (s *TokenService) Verify(token string) (int, bool) {
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(resetTokenSubject),
	)
	if err != nil || !parsed.Valid || claims.UserID <= 0 {
		return 0, false
	}
	return claims.UserID, true
}
