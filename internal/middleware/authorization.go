package middleware

import (
	"net/http"
	"slices"

	"compucobano/internal/service"

	"go.uber.org/zap"
)

// AdminGuard protects the admin surface. A nil validator leaves the routes
// open; the server only passes nil outside production.
func AdminGuard(tokens TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	if tokens == nil {
		logger.Warn("Admin guard disabled: no token secret configured")
		return func(next http.Handler) http.Handler { return next }
	}

	auth := AuthMiddleware(tokens, logger)
	admin := RequireRole([]string{service.RoleAdmin}, logger)
	return func(next http.Handler) http.Handler {
		return auth(admin(next))
	}
}

// RequireRole middleware ensures the caller has one of the specified roles
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if !slices.Contains(allowedRoles, role) {
				subject, _ := GetSubject(r.Context())
				logger.Warn("Role not authorized",
					zap.String("subject", subject),
					zap.String("role", role),
					zap.Strings("allowed_roles", allowedRoles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
