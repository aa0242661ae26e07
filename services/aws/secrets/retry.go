package secrets

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"
)

var _ aws.Retryer = (*CustomRetryer)(nil)

// CustomRetryer retries throttled Secrets Manager calls with exponential
// backoff and jitter.
type CustomRetryer struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewRetryer returns a retryer allowing maxAttempts attempts in total.
func NewRetryer(maxAttempts int, baseDelay, maxDelay time.Duration) *CustomRetryer {
	return &CustomRetryer{maxAttempts: maxAttempts, baseDelay: baseDelay, maxDelay: maxDelay}
}

func defaultRetryer() *CustomRetryer {
	return NewRetryer(10, 100*time.Millisecond, 30*time.Second)
}

// MaxAttempts returns the maximum number of attempts.
func (r *CustomRetryer) MaxAttempts() int {
	return r.maxAttempts
}

// RetryDelay returns baseDelay * 2^(attempt-1) with ±25% jitter, capped at maxDelay.
func (r *CustomRetryer) RetryDelay(attempt int, _ error) (time.Duration, error) {
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * r.baseDelay

	if jitterRange := int64(float64(delay) * 0.25); jitterRange > 0 {
		delay += time.Duration(rand.Int63n(2*jitterRange) - jitterRange)
	}
	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay, nil
}

// IsErrorRetryable reports true only for throttling errors.
func (r *CustomRetryer) IsErrorRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException",
			"ProvisionedThroughputExceededException",
			"RequestLimitExceeded",
			"TooManyRequestsException":
			return true
		}
	}
	return false
}

// GetRetryToken always grants a retry.
func (r *CustomRetryer) GetRetryToken(context.Context, error) (func(error) error, error) {
	return func(error) error { return nil }, nil
}

// GetInitialToken returns a no-op release function.
func (r *CustomRetryer) GetInitialToken() func(error) error {
	return func(error) error { return nil }
}
