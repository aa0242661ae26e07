package metrics

import (
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjy612/ManifestAutoUpdate-bak/applock"
	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.AccountFinished(domain.AccountStateIdle)
	m.AccountFinished(domain.AccountStateIdle)
	m.AccountFinished(domain.AccountStateDisabled)
	m.AuthAttempt("")
	m.AuthAttempt(errors.CodeRateLimit)
	m.TaskFinished(domain.TaskOutcomeCaptured, 120*time.Millisecond)
	m.PushFinished("tag", nil)
	m.PushFinished("tag", stderrors.New("rejected"))
	m.FlushObserved(time.Millisecond, stderrors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.accounts.WithLabelValues("IDLE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.accounts.WithLabelValues("DISABLED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authAttempts.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authAttempts.WithLabelValues(string(errors.CodeRateLimit))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("CAPTURED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushes.WithLabelValues("tag", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushes.WithLabelValues("tag", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushErrors))
}

func TestLockObserver(t *testing.T) {
	m := New()
	tb := applock.New(applock.WithObserver(m.LockObserver()))

	require.True(t, tb.TryAcquire("alice", 730, 731))
	require.True(t, tb.TryAcquire("alice", 730, 732))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.depotsInFlight))

	unlock, err := tb.Lock(t.Context(), 730)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.appsLocked))
	unlock()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.appsLocked))

	tb.Release(730, 731)
	tb.Release(730, 732)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.depotsInFlight))
}

func TestHandler(t *testing.T) {
	m := New()
	m.TaskFinished(domain.TaskOutcomeDuplicate, time.Second)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `manifestsync_tasks_total{outcome="DUPLICATE"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
