package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{name: "success first try", errs: nil, attempts: 3, wantCalls: 1},
		{name: "transient then success", errs: []error{errors.New(errors.CodeTimeout, "t")}, attempts: 3, wantCalls: 2},
		{
			name:      "budget exhausted",
			errs:      []error{errors.New(errors.CodeNetwork, "a"), errors.New(errors.CodeNetwork, "b"), errors.New(errors.CodeNetwork, "c")},
			attempts:  3,
			wantCalls: 3,
			wantErr:   true,
		},
		{name: "permanent stops", errs: []error{errors.New(errors.CodeNotFound, "x")}, attempts: 3, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := retry(context.Background(), tt.attempts, fixed(time.Microsecond), func(context.Context) (int, error) {
				calls++
				if calls <= len(tt.errs) {
					return 0, tt.errs[calls-1]
				}
				return 42, nil
			})
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := retry(ctx, 5, fixed(time.Hour), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New(errors.CodeRateLimit, "slow")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestLinearBackoff(t *testing.T) {
	wait := linear(time.Second)
	assert.Equal(t, time.Second, wait(1))
	assert.Equal(t, 3*time.Second, wait(3))
}
