package v1

import (
	"errors"
	"net/http"
	"strings"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/logger"
	"bazaar-dashboard/pkg/utils"

	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid input")
		return false
	}
	return true
}

// currentUser returns the user set by AuthMiddleware, writing 401 when absent.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	if !ok || user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return user, true
}

// owns reports whether user may act on a record owned by ownerID. Admins act
// on everything; an unknown owner is left to the upstream API to enforce.
func owns(user *domain.User, ownerID string) bool {
	return user.Role == domain.RoleAdmin || ownerID == "" || ownerID == user.ID
}

func pageParams(r *http.Request) (int, int) {
	page := utils.ParseInt(r.URL.Query().Get("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := utils.ParseInt(r.URL.Query().Get("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// statusFor maps the error taxonomy onto HTTP.
func statusFor(err error) int {
	var (
		invalid    *domain.InvalidTransitionError
		validation *domain.ValidationError
		rejected   *domain.ServerRejectedError
		network    *domain.NetworkFailureError
		partial    *domain.PartialFailureError
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &validation), errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConflictingUpdate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &partial):
		return http.StatusMultiStatus
	case errors.As(err, &rejected):
		if rejected.StatusCode >= 400 && rejected.StatusCode < 600 {
			return rejected.StatusCode
		}
		return http.StatusBadGateway
	case errors.As(err, &network):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError answers with the mapped status and the most specific message,
// preferring the server's own text over fallback.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusFor(err)
	l := logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
	} else {
		l.Debug().Err(err).Str("path", r.URL.Path).Msg(fallback)
	}

	msg := domain.UserMessage(err, fallback)
	if errors.Is(err, domain.ErrNotFound) {
		msg = strings.TrimSuffix(err.Error(), ": "+domain.ErrNotFound.Error()) + " not found"
	}
	utils.WriteError(w, status, msg)
}
