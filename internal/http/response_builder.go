// Package http exposes the ledger service as a JSON API.
//
// This file implements the builder used by every handler to write JSON and
// file responses, and the mapping from service errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	raw        []byte
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewFileResponse prepares a download with the given content type and
// attachment filename.
func NewFileResponse(contentType, filename string, body []byte) *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers: map[string]string{
			"Content-Type":        contentType,
			"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
		},
		raw: body,
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

// Body sets the value encoded as the JSON body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)

	if b.raw != nil {
		_, _ = w.Write(b.raw)
		return
	}
	if b.payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.payload); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "failed to encode response", applog.FieldError, err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(field, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(errorBody{Error: message, Field: field})
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ServiceError maps an error returned by the ledger service onto a response.
//
//	*services.ValidationError -> 422
//	*services.LoadError       -> 503, nothing can be shown without the ledger
//	*services.SaveError       -> 502, the entry was not stored
//	anything else             -> 500
func ServiceError(err error) *JSONResponseBuilder {
	var (
		verr *services.ValidationError
		lerr *services.LoadError
		serr *services.SaveError
	)
	switch {
	case errors.As(err, &verr):
		return UnprocessableEntityError(verr.Field, verr.Error())
	case errors.As(err, &lerr):
		return ErrorResponse(http.StatusServiceUnavailable, "could not load the ledger: "+lerr.Err.Error())
	case errors.As(err, &serr):
		return ErrorResponse(http.StatusBadGateway, "could not save the ledger: "+serr.Err.Error())
	case errors.Is(err, core.ErrInvalidKind):
		return UnprocessableEntityError("kind", err.Error())
	default:
		return InternalServerError("internal error")
	}
}
