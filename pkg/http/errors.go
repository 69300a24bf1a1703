package http

import (
	"fmt"
	"net/http"
)

// AppError is a client-facing failure. Status picks the HTTP code; Cause is
// kept for logs and never serialized.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Cause   error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithParam attaches a value the client can use to correct the request.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = map[string]interface{}{}
	}
	e.Params[key] = value
	return e
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return &AppError{
		Code:    "ERR_BAD_REQUEST",
		Message: fmt.Sprintf(format, a...),
		Status:  http.StatusBadRequest,
	}
}

// InvalidRangeError reports a date window whose end precedes its start.
func InvalidRangeError(start, end string) *AppError {
	e := BadRequestErrorf("end_date %s is before start_date %s", end, start)
	e.Code = "ERR_INVALID_RANGE"
	return e.WithParam("start_date", start).WithParam("end_date", end)
}
