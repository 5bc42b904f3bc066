package auth

import (
	"net/http"

	"github.com/isdelr/routines-api/internal/api/respond"
	"github.com/isdelr/routines-api/internal/apperrors"
)

// RequireUser rejects requests that Authenticate left anonymous.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			respond.Error(w, r, apperrors.MissingUser(), 0)
			return
		}
		next.ServeHTTP(w, r)
	})
}
