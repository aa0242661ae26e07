package engine

import (
	"context"
	"time"

	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

// retry calls fn up to attempts times while it fails with a retryable code,
// waiting wait(attempt) between calls. The last error is returned.
func retry[T any](ctx context.Context, attempts int, wait func(attempt int) time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var (
		out T
		err error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err = fn(ctx)
		if err == nil || !errors.IsRetryable(err) || attempt == attempts {
			return out, err
		}
		if serr := sleep(ctx, wait(attempt)); serr != nil {
			return out, err
		}
	}
	return out, err
}

func fixed(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

func linear(d time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration { return d * time.Duration(attempt) }
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
