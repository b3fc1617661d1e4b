package utils

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
)

const (
	retryBaseDelay  = time.Second
	retryMultiplier = 1.6
	retryAttempts   = 3
)

// IsTransient reports whether an error is worth retrying: connection or read
// timeouts, and gateway-side 5xx responses. Permission and not-found errors
// are permanent and must surface immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// WithRetries runs fn, retrying transient failures with exponential backoff
// (base delay x 1.6 per attempt, 3 attempts total). A non-transient failure
// is returned immediately without consuming a retry.
func WithRetries(fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryBaseDelay
	bo.Multiplier = retryMultiplier
	bo.RandomizationFactor = 0

	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithMaxRetries(bo, retryAttempts-1))
}
