package download

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/ytget/ytgrab/internal/transfer"
)

// RetryPolicy configures caller-side retries of failed transfers.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy returns the defaults for network retries
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   2,
		InitialDelay: 2 * time.Second,
		MaxDelay:     1 * time.Minute,
		Multiplier:   2.0,
	}
}

// Delay returns the wait before retry number n (1-based)
func (p RetryPolicy) Delay(n int) time.Duration {
	delay := p.InitialDelay
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	for i := 1; i < n; i++ {
		delay = time.Duration(float64(delay) * mult)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// ShouldRetry reports whether a failure after the given number of attempts
// gets another one.
func (p RetryPolicy) ShouldRetry(err error, attempts int) bool {
	if attempts > p.MaxRetries {
		return false
	}
	if errors.Is(err, transfer.ErrInvalidRequest) || errors.Is(err, transfer.ErrAlreadyStarted) {
		return false
	}
	return IsNetworkError(err)
}

// networkIndicators are substrings of engine messages caused by the network
var networkIndicators = []string{
	"connection refused",
	"no such host",
	"timeout",
	"timed out",
	"network is unreachable",
	"no route to host",
	"host is down",
	"dial tcp",
	"dial udp",
	"i/o timeout",
	"connection reset",
	"connection aborted",
	"remote end closed connection",
	"temporary failure in name resolution",
}

// IsNetworkError checks if an error is likely due to network unavailability.
func IsNetworkError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	var dnsErr *net.DNSError
	if errors.As(err, &netErr) || errors.As(err, &dnsErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range networkIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}
