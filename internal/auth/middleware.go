package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/isdelr/routines-api/internal/models"
	"github.com/rs/zerolog/log"
)

// TokenCookieName is the cookie consulted when no Authorization header is sent.
const TokenCookieName = "token"

type contextKey struct{}

// UserLookup resolves the user a token was issued to.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*models.User)
	return user, ok && user != nil
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// Authenticate resolves the request's token into a user and attaches it to the
// request context. Requests without a usable token pass through anonymously.
func Authenticate(issuer *TokenIssuer, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := issuer.Parse(tokenStr)
			if err != nil {
				log.Debug().Err(err).Msg("Ignoring invalid auth token")
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.ID)
			if err != nil {
				log.Error().Err(err).Int64("user_id", claims.ID).Msg("Failed to resolve token user")
				next.ServeHTTP(w, r)
				return
			}
			if user == nil || user.Username != claims.Username {
				log.Debug().Int64("user_id", claims.ID).Msg("Token user no longer matches an account")
				next.ServeHTTP(w, r)
				return
			}

			user.PasswordHash = ""
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// tokenFromRequest reads the bearer token, falling back to the token cookie.
func tokenFromRequest(r *http.Request) string {
	const prefix = "Bearer "
	if header := r.Header.Get("Authorization"); len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
