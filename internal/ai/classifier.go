package ai

import (
	"context"
	"errors"
	"strings"
)

// IsTransient reports errors worth trying again on another provider and that
// should put the failing provider into cooldown.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if IsRateLimited(err) || IsContentRefused(err) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 500 && httpErr.StatusCode < 600 {
			return true
		}
		if httpErr.StatusCode == 429 {
			return true
		}
	}

	// Network errors (connection issues, timeouts)
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "eof") {
		return true
	}

	return false
}

// IsFatal reports errors that retrying the same request cannot fix.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != 429 {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "invalid request") ||
		strings.Contains(errStr, "validation failed") ||
		strings.Contains(errStr, "bad request") ||
		strings.Contains(errStr, "malformed") {
		return true
	}

	return false
}

// Classify names an error for metrics labels.
func Classify(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsUnavailable(err):
		return "unavailable"
	case IsRateLimited(err):
		return "rate_limited"
	case IsTransient(err):
		return "transient"
	case IsFatal(err):
		return "fatal"
	}
	return "unknown"
}
