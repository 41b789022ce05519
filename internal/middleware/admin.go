package middleware

import (
	"errors"
	"net/http"
	"strings"

	"costume-vote-backend/internal/services"
)

// AdminMiddleware gates administrative routes. It accepts either the raw
// shared secret in X-Admin-Secret or a session token from /admin/login in
// the Authorization header. An unconfigured server-side secret fails
// closed with a distinct response so operators can spot the
// misconfiguration.
func AdminMiddleware(adminService *services.AdminService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret := r.Header.Get("X-Admin-Secret"); secret != "" {
				if err := adminService.Authorize(secret); err != nil {
					respondAuthError(w, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "admin credentials required", http.StatusUnauthorized)
				return
			}
			if err := adminService.ValidateToken(parts[1]); err != nil {
				respondAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrSecretNotConfigured) {
		respondError(w, "admin secret not configured on server", http.StatusServiceUnavailable)
		return
	}
	respondError(w, "invalid admin credentials", http.StatusUnauthorized)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
