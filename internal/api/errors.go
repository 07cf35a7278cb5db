package api

import (
	"errors"
	"fmt"
)

// Kind classifies an API failure into the domain taxonomy. Callers branch on
// kinds instead of raw HTTP status codes or transport errors.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors that did not originate here.
	KindUnknown Kind = iota

	// KindNetwork covers transport failures: DNS, connect, TLS, resets.
	KindNetwork

	// KindTimeout covers deadline/cancellation failures and exhausted polls.
	KindTimeout

	// KindAuthRequired is a 401 that survived the one refresh-and-retry.
	KindAuthRequired

	// KindQuotaExceeded is a 403 carrying the QUOTA_EXCEEDED code.
	KindQuotaExceeded

	// KindForbidden is any other 403.
	KindForbidden

	// KindValidation is a 400; the server message is surfaced verbatim.
	KindValidation

	// KindNotFound is a 404.
	KindNotFound

	// KindRateLimited is a 429.
	KindRateLimited

	// KindProtocol marks a malformed response envelope.
	KindProtocol

	// KindServer is any 5xx or an envelope-level error without a better match.
	KindServer
)

// quotaExceededCode is the envelope code the backend sets on quota rejections.
const quotaExceededCode = "QUOTA_EXCEEDED"

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindAuthRequired:
		return "auth_required"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindProtocol:
		return "protocol"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the single error type crossing the API client boundary.
type Error struct {
	Kind       Kind
	Message    string // server-supplied or synthesized human message
	Code       string // server-supplied machine code, e.g. QUOTA_EXCEEDED
	HTTPStatus int    // zero when the failure happened before a response
	Err        error  // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
