package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

// AuthTokenHeaderName is the header carrying the session token.
const AuthTokenHeaderName = "auth-token"

// requestLogMiddleware tags every request with a generated id and logs its
// outcome.
func (s *Server) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := s.logger.With("request_id", uuid.NewString())

		next.ServeHTTP(w, r)

		log.Info(r.Context(), "request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

// authMiddleware resolves the auth-token header to a user and stores it in
// the request context. Requests without a resolvable token get 401; the
// client cannot tell a revoked token from an expired or unknown one.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenValue := r.Header.Get(AuthTokenHeaderName)
		if tokenValue == "" {
			writeError(w, http.StatusUnauthorized, "Missing auth-token header")
			return
		}

		user, err := s.auth.FindUserByToken(r.Context(), tokenValue)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext returns the authenticated user stored by authMiddleware.
func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
