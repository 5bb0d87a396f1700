package ai

import (
	"context"
	"errors"
	"net"
	"strings"
)

var (
	// ErrModelUnavailable marks transient model failures such as rate limits,
	// resource exhaustion, timeouts and refused connections. Callers may retry,
	// possibly with a smaller batch.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrMalformedResponse marks responses that can never be used: wrong vector
	// count, empty vectors or inconsistent dimensions. Retrying will not help.
	ErrMalformedResponse = errors.New("malformed embedding response")

	// ErrModelRejected marks requests the model service refused permanently,
	// such as authentication failures or unknown models.
	ErrModelRejected = errors.New("embedding request rejected")
)

// IsRetriable reports whether err is a transient model failure.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}

// IsFatal reports whether err is a model failure that retries cannot fix.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrModelRejected)
}

// retriableMarkers are fragments of transport errors that indicate a
// transient condition on the model server.
var retriableMarkers = []string{
	"status code: 429",
	"status code: 500",
	"status code: 502",
	"status code: 503",
	"status code: 504",
	"rate limit",
	"connection refused",
	"connection reset",
	"out of memory",
}

// Classify wraps a raw model client error with the matching failure kind.
// Errors already carrying a kind, and context cancellation, are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsRetriable(err) || IsFatal(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrModelUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Join(ErrModelUnavailable, err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range retriableMarkers {
		if strings.Contains(msg, marker) {
			return errors.Join(ErrModelUnavailable, err)
		}
	}
	return errors.Join(ErrModelRejected, err)
}
