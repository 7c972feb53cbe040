package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/draft"
	"github.com/Veraticus/haulbook/internal/storage"
	"github.com/go-chi/chi/v5"
)

var errBadRequest = errors.New("malformed request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and logs server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		common.LoggerFrom(r.Context()).Error(msg, "error", err, "path", r.URL.Path)
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateEntry),
		errors.Is(err, common.ErrReferenceInUse),
		errors.Is(err, draft.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalidReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, draft.ErrInvalidValue),
		errors.Is(err, storage.ErrInvalidTransaction),
		errors.Is(err, storage.ErrInvalidPage),
		errors.Is(err, storage.ErrInvalidDateRange),
		errors.Is(err, storage.ErrEmptyString),
		errors.Is(err, storage.ErrNilParameter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func pathInt(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: %s %q", errBadRequest, name, chi.URLParam(r, name))
	}
	return v, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
