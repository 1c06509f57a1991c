package middleware

import (
	"net/http"
	"slices"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/utils"
)

// RequireRole lets the request through only for the listed roles.
// MUST be used AFTER AuthMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
			if !ok || user == nil {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: No user found in context")
				return
			}

			if !slices.Contains(roles, user.Role) {
				utils.WriteError(w, http.StatusForbidden, "Forbidden: insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AdminMiddleware ensures the authenticated user has the 'admin' role.
func AdminMiddleware(next http.Handler) http.Handler {
	return RequireRole(domain.RoleAdmin)(next)
}

// SellerMiddleware admits sellers. Admins act on seller routes too.
func SellerMiddleware(next http.Handler) http.Handler {
	return RequireRole(domain.RoleSeller, domain.RoleAdmin)(next)
}
