package service

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTokens(t *testing.T, c *fakeClock) *TokenService {
	t.Helper()
	s, err := NewTokenService("test-secret", WithClock(c.Now))
	require.NoError(t, err)
	return s
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	s, err := NewTokenService("")
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, ErrEmptySecret))
}

func TestTokenService_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	s := newTestTokens(t, clock)

	for _, id := range []int{1, 42, 999999} {
		tok, err := s.Issue(id, DefaultResetTokenExpiry)
		require.NoError(t, err)

		got, ok := s.Verify(tok)
		assert.True(t, ok)
		assert.Equal(t, id, got)
	}
}

func TestTokenService_ExpiryWindow(t *testing.T) {
	clock := newFakeClock()
	s := newTestTokens(t, clock)

	tok, err := s.Issue(42, 1800*time.Second)
	require.NoError(t, err)

	clock.Advance(1799 * time.Second)
	id, ok := s.Verify(tok)
	assert.True(t, ok, "token must still be valid at t=1799")
	assert.Equal(t, 42, id)

	clock.Advance(2 * time.Second)
	id, ok = s.Verify(tok)
	assert.False(t, ok, "token must be invalid at t=1801")
	assert.Zero(t, id)
}

func TestTokenService_DefaultExpiryOnNonPositive(t *testing.T) {
	clock := newFakeClock()
	s := newTestTokens(t, clock)

	tok, err := s.Issue(7, 0)
	require.NoError(t, err)

	clock.Advance(DefaultResetTokenExpiry - time.Second)
	_, ok := s.Verify(tok)
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = s.Verify(tok)
	assert.False(t, ok)
}

func TestTokenService_SignatureBitFlip(t *testing.T) {
	s := newTestTokens(t, newFakeClock())
	tok, err := s.Issue(42, DefaultResetTokenExpiry)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	for bit := 0; bit < len(sig)*8; bit++ {
		flipped := append([]byte(nil), sig...)
		flipped[bit/8] ^= 1 << (bit % 8)
		forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(flipped)

		if _, ok := s.Verify(forged); ok {
			t.Fatalf("token with bit %d flipped verified", bit)
		}
	}
}

func TestTokenService_RejectsInvalid(t *testing.T) {
	clock := newFakeClock()
	s := newTestTokens(t, clock)
	other, err := NewTokenService("other-secret", WithClock(clock.Now))
	require.NoError(t, err)

	foreign, err := other.Issue(42, DefaultResetTokenExpiry)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return tok
	}
	now := clock.Now()
	valid := jwt.RegisteredClaims{
		Subject:   resetTokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	cases := map[string]string{
		"empty":         "",
		"garbage":       "not-a-token",
		"two segments":  "a.b",
		"other secret":  foreign,
		"alg none":      sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &resetClaims{RegisteredClaims: valid, UserID: 42}),
		"wrong subject": sign(jwt.SigningMethodHS256, []byte("test-secret"), &resetClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "session", ExpiresAt: valid.ExpiresAt}, UserID: 42}),
		"no expiry":     sign(jwt.SigningMethodHS256, []byte("test-secret"), &resetClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: resetTokenSubject}, UserID: 42}),
		"zero user":     sign(jwt.SigningMethodHS256, []byte("test-secret"), &resetClaims{RegisteredClaims: valid}),
		"hs512":         sign(jwt.SigningMethodHS512, []byte("test-secret"), &resetClaims{RegisteredClaims: valid, UserID: 42}),
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			id, ok := s.Verify(tok)
			assert.False(t, ok)
			assert.Zero(t, id)
		})
	}
}
