package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/maintops/go-maint-auth/credential"
	"github.com/maintops/go-maint-auth/internal/obs"
	"github.com/maintops/go-maint-auth/session"
)

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	OldSecret string `json:"old_password"`
	NewSecret string `json:"new_password"`
}

type introspectResponse struct {
	Active    bool   `json:"active"`
	Subject   string `json:"sub,omitempty"`
	Role      string `json:"role,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Reasons []string `json:"reasons,omitempty"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		pair, err := s.controller.Login(r.Context(), req.Email, req.Secret, clientIP(r))
		if err != nil {
			var locked *session.LockedError
			switch {
			case errors.As(err, &locked):
				obs.LoginsTotal.WithLabelValues("locked").Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(locked.RetryAfter/time.Second)))
				writeJSONError(w, http.StatusTooManyRequests, "account temporarily locked")
			case errors.Is(err, session.ErrUnavailable):
				obs.LoginsTotal.WithLabelValues("failed").Inc()
				writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
			default:
				obs.LoginsTotal.WithLabelValues("failed").Inc()
				writeJSONError(w, http.StatusUnauthorized, "authentication failed")
			}
			return
		}
		obs.LoginsTotal.WithLabelValues("success").Inc()
		writeJSON(w, http.StatusOK, pair)
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
			writeJSONError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		pair, err := s.controller.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			if errors.Is(err, session.ErrUnavailable) {
				obs.RefreshesTotal.WithLabelValues("failed").Inc()
				writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
				return
			}
			obs.RefreshesTotal.WithLabelValues("failed").Inc()
			writeJSONError(w, http.StatusUnauthorized, "authentication failed")
			return
		}
		obs.RefreshesTotal.WithLabelValues("success").Inc()
		writeJSON(w, http.StatusOK, pair)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		identityID, _, err := claims.Identity()
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if err := s.controller.Logout(r.Context(), identityID); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		identityID, _, err := claims.Identity()
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		var req changePasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if err := s.controller.ChangePassword(r.Context(), identityID, req.OldSecret, req.NewSecret); err != nil {
			var policyErr *credential.PolicyError
			switch {
			case errors.As(err, &policyErr):
				writeJSON(w, http.StatusBadRequest, errorResponse{
					Error:   "password does not meet policy",
					Reasons: policyErr.Reasons,
				})
			case errors.Is(err, session.ErrUnavailable):
				writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
			default:
				writeJSONError(w, http.StatusUnauthorized, "authentication failed")
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// IntrospectHandler reports whether a presented access token is live.
// Unlike the authenticated endpoints it never returns 401 for a bad
// token, so callers can distinguish "token is dead" from "you may not ask".
func (s *Server) IntrospectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusOK, introspectResponse{Active: false})
			return
		}
		claims, err := s.controller.VerifyAccessToken(raw)
		if err != nil {
			writeJSON(w, http.StatusOK, introspectResponse{Active: false})
			return
		}
		// A deactivated identity goes inactive immediately, without waiting
		// for its unexpired tokens to run out.
		ident, err := s.identities.GetByID(r.Context(), claims.Subject)
		if err != nil || !ident.CanAuthenticate() {
			writeJSON(w, http.StatusOK, introspectResponse{Active: false})
			return
		}
		resp := introspectResponse{
			Active:  true,
			Subject: claims.Subject,
			Role:    claims.Role,
		}
		if claims.ExpiresAt != nil {
			resp.ExpiresAt = claims.ExpiresAt.Unix()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
