package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Claims are the token claims the API relies on. The subject is the user id.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject
func (c *Claims) UserID() string {
	return c.Subject
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningMethod string // RS256 or HS256
	PublicKey     string // PEM, for RS256
	SecretKey     string // for HS256
	Issuer        string
	Audience      []string
	Leeway        time.Duration
}

// JWTValidator validates bearer tokens
type JWTValidator struct {
	key      interface{}
	method   jwt.SigningMethod
	issuer   string
	audience []string
	leeway   time.Duration
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(cfg JWTConfig) (*JWTValidator, error) {
	v := &JWTValidator{issuer: cfg.Issuer, audience: cfg.Audience, leeway: cfg.Leeway}

	switch cfg.SigningMethod {
	case "RS256":
		if cfg.PublicKey == "" {
			return nil, errors.New("public key required for RS256")
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		v.key, v.method = key, jwt.SigningMethodRS256
	case "HS256", "":
		if cfg.SecretKey == "" {
			return nil, errors.New("secret key required for HS256")
		}
		v.key, v.method = []byte(cfg.SecretKey), jwt.SigningMethodHS256
	default:
		return nil, fmt.Errorf("unsupported signing method: %s", cfg.SigningMethod)
	}
	return v, nil
}

// ValidateToken parses and verifies a token, with or without the Bearer prefix
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, fmt.Errorf("%w: invalid issuer", ErrInvalidClaims)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidClaims
	}

	if len(v.audience) > 0 && !slices.ContainsFunc(v.audience, func(aud string) bool {
		return slices.Contains(claims.Audience, aud)
	}) {
		return nil, fmt.Errorf("%w: invalid audience", ErrInvalidClaims)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	}
	return claims, nil
}

// JWTGenerator issues HS256 tokens. It backs local tooling and tests; in
// production tokens come from the identity provider.
type JWTGenerator struct {
	secret   []byte
	issuer   string
	audience []string
	ttl      time.Duration
}

// NewJWTGenerator creates a new generator
func NewJWTGenerator(secret, issuer string, audience []string, ttl time.Duration) (*JWTGenerator, error) {
	if secret == "" {
		return nil, errors.New("secret key required for HS256")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTGenerator{secret: []byte(secret), issuer: issuer, audience: audience, ttl: ttl}, nil
}

// GenerateToken signs a token for userID
func (g *JWTGenerator) GenerateToken(userID, email string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   userID,
			Audience:  g.audience,
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// UserContext is the authenticated caller
type UserContext struct {
	UserID string
	Email  string
	Name   string
	Roles  []string
}

// HasRole reports whether the caller holds role
func (u *UserContext) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

type contextKey struct{}

// GetUserFromContext extracts the caller from ctx
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(contextKey{}).(*UserContext)
	if !ok || user == nil {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}

// SetUserInContext stores the caller in ctx
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}
