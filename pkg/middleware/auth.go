package middleware

import (
	"net/http"
	"roomres/pkg/auth"
	apperrors "roomres/pkg/errors"
	httputil "roomres/pkg/http"
	"roomres/pkg/logger"
)

// Authenticate verifies the bearer token and stores the caller identity in
// the request context. Requests without a valid token are rejected with 401.
func Authenticate(verifier *auth.Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))

			identity, err := verifier.Verify(token)
			if err != nil {
				log.Warn("Authentication failed",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or missing bearer token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}
