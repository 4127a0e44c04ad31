package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/errbook/internal/domain"
)

// getPathID extracts a record id from the URL path and returns it in
// canonical form.
func getPathID(r *http.Request, paramName string) (string, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidID, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return "", fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}

	return id.String(), nil
}

// queryInt reads an integer query parameter in [lo, hi], or def when absent.
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be an integer between %d and %d", domain.ErrValidation, name, lo, hi)
	}
	return n, nil
}

// queryTime reads an RFC 3339 query parameter. ok is false when absent.
func queryTime(r *http.Request, name string) (t time.Time, ok bool, err error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, false, nil
	}

	t, err = time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %s must be an RFC 3339 time", domain.ErrValidation, name)
	}
	return t, true, nil
}
