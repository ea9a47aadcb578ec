package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hostpool/internal/store"
	"hostpool/internal/util"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes: malformed input and
// invariant violations are 400, unknown references 404, schedule overlaps
// 409, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		parseErr      *util.ParseError
		notFoundErr   *store.NotFoundError
		conflictErr   *store.ConflictError
		validationErr *store.ValidationError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &parseErr), errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &conflictErr):
		status = http.StatusConflict
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// queryDate parses the optional "date" query parameter. A missing parameter
// yields the zero time, which the service layer treats as "now".
func queryDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Time{}, nil
	}
	return util.ParseStamp(raw)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &store.ValidationError{Reason: "invalid request body: " + err.Error()}
	}
	return nil
}
