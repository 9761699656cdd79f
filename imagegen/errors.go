package imagegen

import "errors"

// Failure taxonomy for provider calls. The gateway retries anything that is
// not an auth failure; timeouts from the async poll path are transient at
// the retry layer.
var (
	// ErrAuth marks authentication, authorization, or billing failures.
	// Never retried; surfaces to the caller in strict mode.
	ErrAuth = errors.New("provider authentication failed")

	// ErrTransient marks rate limiting, upstream unavailability, and
	// network-level failures.
	ErrTransient = errors.New("transient provider failure")

	// ErrTimeout marks an async job exceeding its poll ceiling.
	ErrTimeout = errors.New("provider timed out")
)

// retryable reports whether the gateway should spend another attempt on err.
func retryable(err error) bool {
	return !errors.Is(err, ErrAuth)
}
