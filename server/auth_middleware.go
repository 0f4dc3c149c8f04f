package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/maintops/go-maint-auth/identity"
	"github.com/maintops/go-maint-auth/token"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// RequireAuth verifies the bearer token and stores the claims on the request context.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.controller.VerifyAccessToken(raw)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims)))
	}
}

// RequireOperation gates a handler behind the permission matrix.
func (s *Server) RequireOperation(op identity.Operation, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		_, role, err := claims.Identity()
		if err != nil || !identity.Can(role, op) {
			writeJSONError(w, http.StatusForbidden, "operation not permitted")
			return
		}
		next(w, r)
	}
}

func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*token.Claims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
