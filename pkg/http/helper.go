package http

import (
	"net/http"
	apperrors "roomres/pkg/errors"
	"roomres/pkg/model"
	"strconv"
	"time"
)

// QueryDay parses a required YYYY-MM-DD query parameter.
func QueryDay(r *http.Request, key string) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return time.Time{}, apperrors.InvalidInput("missing " + key + " parameter")
	}
	day, err := model.ParseDay(s)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + key + " parameter, expected YYYY-MM-DD: " + s)
	}
	return day, nil
}

// ParseID parses a positive integer path parameter.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput("invalid reservation id: " + s)
	}
	return id, nil
}
