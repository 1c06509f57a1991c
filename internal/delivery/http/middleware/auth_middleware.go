package middleware

import (
	"context"
	"net/http"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/logger"
	"bazaar-dashboard/pkg/utils"
)

// AuthMiddleware reads the marketplace access token and puts the user, raw
// token included, in the request context for the upstream client.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := utils.ExtractClaims(r)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing token")
			return
		}
		if claims.UserID == "" {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: Token has no subject")
			return
		}

		user := &domain.User{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  claims.Role,
			Token: claims.Token,
		}

		setRequestUser(r, user.ID)
		ctx := context.WithValue(r.Context(), domain.UserContextKey, user)
		l := logger.WithUserID(*logger.WithContext(ctx), user.ID)
		ctx = logger.NewContext(ctx, &l)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(domain.UserContextKey).(*domain.User)
	return user, ok && user != nil
}
