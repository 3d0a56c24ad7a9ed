package middleware

import (
	"mime"
	"net/http"
	apperrors "roomres/pkg/errors"
	httputil "roomres/pkg/http"
	"roomres/pkg/logger"
)

const jsonMediaType = "application/json"

// ContentTypeValidation rejects request bodies that are not JSON with 415.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !carriesBody(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(header)
			if err != nil || mediaType != jsonMediaType {
				log.Warn("Invalid Content-Type header",
					"request_id", RequestIDFromContext(r.Context()),
					"content_type", header,
					"path", r.URL.Path,
					"method", r.Method,
				)
				_ = httputil.WriteError(w, apperrors.New(apperrors.CodeBadRequest,
					"Content-Type must be application/json", http.StatusUnsupportedMediaType))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
