// Package http exposes the services as a JSON API.
//
// This file builds the response envelope every endpoint returns:
//
//	{"success": true,  "data": ...}
//	{"success": false, "error": {"kind": "not_found_error", "message": "..."}}
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"transcoop/internal/core"
	applog "transcoop/internal/log"
)

const kindRateLimited = "rate_limit_error"

// statusClientClosedRequest is answered when the client gave up before the
// result was ready.
const statusClientClosedRequest = 499

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// JSONResponseBuilder provides a fluent API for writing envelopes.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       envelope
}

// NewJSONResponse creates a successful response with status 200.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		body:       envelope{Success: true},
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.body.Data = v
	return b
}

// Error turns the response into a failure envelope.
func (b *JSONResponseBuilder) Error(kind, message string) *JSONResponseBuilder {
	b.body.Success = false
	b.body.Data = nil
	b.body.Error = &errorBody{Kind: kind, Message: message}
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// statusFor maps an error kind onto the HTTP status of the failure envelope.
func statusFor(kind string) int {
	switch kind {
	case core.KindValidation:
		return http.StatusUnprocessableEntity
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	case core.KindTimeout:
		return http.StatusGatewayTimeout
	case core.KindCanceled:
		return statusClientClosedRequest
	case kindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse classifies err. Storage and unknown failures are logged in
// full and reported with a generic message.
func ErrorResponse(r *http.Request, err error) *JSONResponseBuilder {
	kind := core.KindOf(err)
	msg := err.Error()
	logger := applog.FromContext(r.Context())

	switch kind {
	case core.KindStorage, core.KindInternal:
		logger.ErrorContext(r.Context(), "Request failed",
			applog.FieldErrorKind, kind, applog.FieldError, err,
			applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
		msg = "internal error, please retry"
		if errors.Is(err, core.ErrStorage) {
			msg = "storage failure, please retry"
		}
	default:
		logger.WarnContext(r.Context(), "Request rejected",
			applog.FieldErrorKind, kind, applog.FieldError, err,
			applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
	}

	return NewJSONResponse().Status(statusFor(kind)).Error(kind, msg)
}

// RateLimitedError is written when a client exceeds the login limit.
func RateLimitedError(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Status(http.StatusTooManyRequests).
		Error(kindRateLimited, "too many attempts, try again later").
		Write(w)
}

// NotFoundRoute answers unknown API paths with the standard envelope.
func NotFoundRoute(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Status(http.StatusNotFound).
		Error(core.KindNotFound, "no such endpoint: "+r.Method+" "+r.URL.Path).
		Write(w)
}
