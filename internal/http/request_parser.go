package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"transcoop/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the body. Malformed input is a
// validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Validationf("request body is empty")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return core.Validationf("request body too large")
		}
		return core.Validationf("invalid JSON body: %v", err)
	}
	if dec.More() {
		return core.Validationf("request body must contain a single JSON object")
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Validationf("invalid id %q", raw)
	}
	return id, nil
}

// parsePeriod reads month and year from the query string, defaulting each to
// the current month.
func parsePeriod(r *http.Request, now time.Time) (core.Period, error) {
	p := core.Period{Month: int(now.Month()), Year: now.Year()}
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return p, core.Validationf("invalid month %q", v)
		}
		p.Month = m
	}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return p, core.Validationf("invalid year %q", v)
		}
		p.Year = y
	}
	return p, p.Validate()
}
