package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFrom returns the authenticated user stored in the request context.
func UserFrom(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userContextKey).(model.User)
	return u, ok
}

// WithUser returns a context carrying the given user. Exposed for handler
// tests.
func WithUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// Auth validates the request's bearer token and resolves the caller's
// identity into the request context. Tokens are issued by the external
// identity service and carry user_id and role claims.
func Auth(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health and metrics stay reachable without a token
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("missing bearer token")
				writeUnauthorised(w, "missing bearer token")
				return
			}

			user, err := parseToken(token, secret)
			if err != nil {
				logger.Warn().Str("path", r.URL.Path).Err(err).Msg("invalid bearer token")
				writeUnauthorised(w, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func parseToken(tokenString, secret string) (model.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.User{}, err
	}
	if !token.Valid {
		return model.User{}, fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.User{}, fmt.Errorf("unexpected claims type %T", token.Claims)
	}

	rawID, ok := claims["user_id"].(string)
	if !ok {
		return model.User{}, fmt.Errorf("missing user_id claim")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return model.User{}, fmt.Errorf("malformed user_id claim: %w", err)
	}

	role := model.RoleCustomer
	if rawRole, ok := claims["role"].(string); ok && model.Role(strings.ToUpper(rawRole)) == model.RoleAdmin {
		role = model.RoleAdmin
	}

	return model.User{ID: userID, Role: role}, nil
}

func writeUnauthorised(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error": %q, "message": %q}`, model.ErrCodeUnauthorised, message)
}
