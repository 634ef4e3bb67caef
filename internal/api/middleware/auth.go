package middleware

import (
	"context"
	"net/http"

	"fieldtrack/internal/api/util"
)

type contextKey string

// ClaimsContextKey holds the verified operator claims on the request.
const ClaimsContextKey contextKey = "user_claims"

type AuthMiddleware struct{}

func NewAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{}
}

// Authenticate verifies the operator JWT and attaches the claims to the
// request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := util.GetUserClaims(r)
		if err != nil {
			http.Error(w, "Invalid authorization token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
