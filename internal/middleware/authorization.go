package middleware

import (
	"net/http"
	"slices"

	"catalog-sync/internal/domain"

	"go.uber.org/zap"
)

// RequireAdmin admits only administrators
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{domain.RoleAdmin}, logger)
}

// RequireReporter admits the roles allowed to read reports
func RequireReporter(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{domain.RoleReporter, domain.RoleAdmin}, logger)
}

// RequireRole answers 403 unless the authenticated role is one of allowedRoles.
// It must run after AuthMiddleware.
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := GetUserRole(r.Context())
			if slices.Contains(allowedRoles, role) {
				next.ServeHTTP(w, r)
				return
			}

			username, _ := GetUsername(r.Context())
			logger.Warn("Role not permitted for route",
				zap.String("username", username),
				zap.String("role", role),
				zap.Strings("allowed_roles", allowedRoles),
				zap.String("path", r.URL.Path),
			)
			RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}
