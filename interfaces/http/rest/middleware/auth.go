package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"priorify/pkg/auth"
	pkgerrors "priorify/pkg/errors"

	"go.uber.org/zap"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Limiter admits or rejects a keyed request
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Headers set by the Lambda entry point from the API Gateway authorizer
const (
	HeaderGatewayAuthorized = "X-API-Gateway-Authorized"
	HeaderUserID            = "X-User-ID"
	HeaderUserEmail         = "X-User-Email"
	HeaderUserRoles         = "X-User-Roles"
)

// AuthOptions configures Authenticate
type AuthOptions struct {
	Validator    TokenValidator
	IPLimiter    Limiter
	UserLimiter  Limiter
	TrustGateway bool
}

// Authenticate resolves the caller from a bearer token, or from the
// authorizer headers when the request came through API Gateway, and rate
// limits per client IP and per user.
func Authenticate(opts AuthOptions, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := ClientIP(r)
			if !allow(r.Context(), opts.IPLimiter, clientIP, logger) {
				errs.HandleStatus(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			user, status, message := resolveUser(r, opts)
			if user == nil {
				logger.Warn("Authentication failed",
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
					zap.String("reason", message),
				)
				errs.HandleStatus(w, r, status, message)
				return
			}

			if !allow(r.Context(), opts.UserLimiter, user.UserID, logger) {
				errs.HandleStatus(w, r, http.StatusTooManyRequests, "User rate limit exceeded")
				return
			}

			logger.Debug("Request authenticated",
				zap.String("userID", user.UserID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

func resolveUser(r *http.Request, opts AuthOptions) (*auth.UserContext, int, string) {
	if opts.TrustGateway && r.Header.Get(HeaderGatewayAuthorized) == "true" {
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			return nil, http.StatusUnauthorized, "Missing user context from API Gateway"
		}
		roles := []string{"authenticated"}
		if raw := r.Header.Get(HeaderUserRoles); raw != "" {
			roles = splitRoles(raw)
		}
		return &auth.UserContext{UserID: userID, Email: r.Header.Get(HeaderUserEmail), Roles: roles}, 0, ""
	}

	if opts.Validator == nil {
		return nil, http.StatusUnauthorized, "Request not authorized by API Gateway"
	}

	token := extractToken(r)
	if token == "" {
		return nil, http.StatusUnauthorized, "Missing authentication token"
	}
	claims, err := opts.Validator.ValidateToken(token)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrExpiredToken):
		return nil, http.StatusUnauthorized, "Token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return nil, http.StatusUnauthorized, "Invalid token signature"
	default:
		return nil, http.StatusUnauthorized, "Invalid token"
	}
	return &auth.UserContext{
		UserID: claims.UserID(),
		Email:  claims.Email,
		Name:   claims.Name,
		Roles:  claims.Roles,
	}, 0, ""
}

// allow fails open when the limiter errors
func allow(ctx context.Context, limiter Limiter, key string, logger *zap.Logger) bool {
	if limiter == nil {
		return true
	}
	ok, err := limiter.Allow(ctx, key)
	if err != nil {
		logger.Error("Rate limiter error", zap.Error(err))
		return true
	}
	return ok
}

// RequireRole rejects callers without any of roles
func RequireRole(errs *pkgerrors.ErrorHandler, roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errs.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, role := range roles {
				if user.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			errs.HandleStatus(w, r, http.StatusForbidden, "Insufficient permissions")
		})
	}
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		if cookie, err := r.Cookie("auth_token"); err == nil {
			return cookie.Value
		}
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}

// ClientIP returns the first forwarded address, or the peer address
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

func splitRoles(raw string) []string {
	var roles []string
	for _, role := range strings.Split(raw, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
