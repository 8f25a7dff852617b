package github

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the closed classification every transport failure falls into.
// Callers branch on Kind, never on HTTP status codes.
type Kind int

const (
	// KindNetworkError means the request never produced an HTTP response.
	// Retried automatically up to the transport's bound.
	KindNetworkError Kind = iota

	// KindRateLimited means the API quota is exhausted. ResetAt carries the
	// instant the quota window reopens.
	KindRateLimited

	// KindTokenExpired means the credential was rejected (401). Requires
	// re-authentication; never retried transparently.
	KindTokenExpired

	// KindPermissionDenied means the caller is authenticated but lacks
	// rights (403 with quota remaining). Aborts the rest of a batch.
	KindPermissionDenied

	// KindNotFound means the addressed resource does not exist (404).
	KindNotFound

	// KindAPIError covers every other non-2xx response, including stale
	// content-SHA conflicts on writes.
	KindAPIError
)

func (k Kind) String() string {
	switch k {
	case KindNetworkError:
		return "network_error"
	case KindRateLimited:
		return "rate_limited"
	case KindTokenExpired:
		return "token_expired"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindAPIError:
		return "api_error"
	default:
		return "unknown"
	}
}

// APIError is the only error type the transport returns. Already-classified
// errors pass through intermediate layers unchanged.
type APIError struct {
	Kind    Kind
	Message string

	// Status is the HTTP status for KindAPIError/KindPermissionDenied/
	// KindNotFound responses, zero otherwise.
	Status int

	// ResetAt is set for KindRateLimited.
	ResetAt time.Time

	err error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("github: %s", e.Kind)
}

func (e *APIError) Unwrap() error { return e.err }

// KindOf extracts the classification from err. ok is false when err does not
// wrap an *APIError, which means some layer leaked an unclassified error.
func KindOf(err error) (Kind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}
