package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newValidator(t *testing.T) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{SecretKey: testSecret, Issuer: "priorify", Audience: []string{"priorify-api"}})
	require.NoError(t, err)
	return v
}

func TestJWT_RoundTrip(t *testing.T) {
	gen, err := NewJWTGenerator(testSecret, "priorify", []string{"priorify-api"}, time.Hour)
	require.NoError(t, err)

	token, err := gen.GenerateToken("u1", "u1@example.com", []string{"admin"})
	require.NoError(t, err)

	claims, err := newValidator(t).ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Equal(t, []string{"admin"}, claims.Roles)
}

func TestJWT_Rejections(t *testing.T) {
	sign := func(secret string, claims *Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := func() *Claims {
		return &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "priorify",
			Audience:  jwt.ClaimStrings{"priorify-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := valid()
	wrongAudience.Audience = jwt.ClaimStrings{"other-api"}
	noSubject := valid()
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"expired", sign(testSecret, expired), ErrExpiredToken},
		{"bad signature", sign("other-secret", valid()), ErrInvalidSignature},
		{"wrong issuer", sign(testSecret, wrongIssuer), ErrInvalidClaims},
		{"wrong audience", sign(testSecret, wrongAudience), ErrInvalidClaims},
		{"missing subject", sign(testSecret, noSubject), ErrInvalidClaims},
		{"garbage", "not-a-token", ErrInvalidToken},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewJWTValidator_Config(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256"})
	assert.Error(t, err)
	_, err = NewJWTValidator(JWTConfig{SigningMethod: "RS256"})
	assert.Error(t, err)
	_, err = NewJWTValidator(JWTConfig{SigningMethod: "ES512", SecretKey: "x"})
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u1", Roles: []string{"admin"}})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
	assert.True(t, user.HasRole("admin"))
	assert.False(t, user.HasRole("owner"))
}

func TestSlidingWindowLimiter(t *testing.T) {
	l := NewSlidingWindowLimiter(2, time.Minute)
	now := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "k")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "other")
	assert.True(t, ok)

	now = now.Add(61 * time.Second)
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)

	require.NoError(t, l.Reset(ctx, "k"))
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
}

func TestKeyedLimiterNamespaces(t *testing.T) {
	ip := NewIPRateLimiter(1)
	ok, _ := ip.Allow(context.Background(), "10.0.0.1")
	assert.True(t, ok)
	ok, _ = ip.Allow(context.Background(), "10.0.0.1")
	assert.False(t, ok)
	ok, _ = ip.Allow(context.Background(), "10.0.0.2")
	assert.True(t, ok)
}
