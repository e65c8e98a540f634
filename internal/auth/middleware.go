package auth

import (
	"net/http"
	"strings"

	"github.com/BrunoPirard/gtro-pricing/internal/common"
)

// Middleware guards admin routes with bearer token validation.
type Middleware struct {
	Validator TokenValidator
}

// RequireAdmin rejects requests without a valid admin-scoped bearer token.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
			return
		}
		if _, err := m.Validator.ValidateAdmin(token); err != nil {
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "invalid or insufficient token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearer(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
