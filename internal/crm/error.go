package crm

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError indicates the external system is throttling us. The run
// records it and surfaces it to the operator instead of retrying in-pass.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by CRM, retry after %s", e.RetryAfter)
	}
	return "rate limited by CRM"
}

// APIError is any non-2xx response from the external system.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("CRM API error (status %d): %s", e.StatusCode, e.Message)
}

func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
