package datasource

import (
	"errors"
	"fmt"
	"net/http"
)

// FetchError describes a failed upstream request. StatusCode is zero when
// the failure happened before an HTTP status was received (network error,
// malformed body).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth serving stale cached data
// for: rate limiting and gateway timeouts are transient upstream states,
// not bad requests.
func (e *FetchError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusGatewayTimeout
}

// IsRetryable reports whether err is (or wraps) a retryable FetchError.
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable()
}

// MalformedResponseError marks an upstream response that arrived with a
// success status but could not be decoded into the expected shape.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
