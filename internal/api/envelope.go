package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// envelope is the uniform response wrapper the backend uses on every endpoint.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
	Quota   json.RawMessage `json:"quota,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

// decodeEnvelope parses and validates a response body. Malformed envelopes are
// rejected as protocol errors rather than propagating undefined fields.
func decodeEnvelope(httpStatus int, body []byte) (*envelope, *Error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &Error{
			Kind:       KindProtocol,
			Message:    "malformed response envelope",
			HTTPStatus: httpStatus,
			Err:        err,
		}
	}

	if env.Status != statusSuccess && env.Status != statusError {
		return nil, &Error{
			Kind:       KindProtocol,
			Message:    fmt.Sprintf("unexpected envelope status %q", env.Status),
			HTTPStatus: httpStatus,
		}
	}

	return &env, nil
}

// mapFailure converts a non-success response into a domain error. The server
// message and code are carried through when present.
func mapFailure(httpStatus int, env *envelope) *Error {
	e := &Error{HTTPStatus: httpStatus}
	if env != nil {
		e.Message = env.Message
		e.Code = env.Code
	}

	switch httpStatus {
	case http.StatusBadRequest:
		e.Kind = KindValidation
	case http.StatusUnauthorized:
		e.Kind = KindAuthRequired
		if e.Message == "" {
			e.Message = "sign in required"
		}
	case http.StatusForbidden:
		if e.Code == quotaExceededCode {
			e.Kind = KindQuotaExceeded
			if e.Message == "" {
				e.Message = "scan quota exceeded"
			}
		} else {
			e.Kind = KindForbidden
		}
	case http.StatusNotFound:
		e.Kind = KindNotFound
	case http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		if e.Message == "" {
			e.Message = "too many requests, slow down"
		}
	default:
		e.Kind = KindServer
	}

	if e.Message == "" {
		e.Message = fmt.Sprintf("server returned status %d", httpStatus)
	}
	return e
}
