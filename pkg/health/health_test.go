package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysUp() CheckFunc {
	return func(context.Context) error { return nil }
}

func alwaysDown(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func serveLive(t *Tracker) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	t.HandleLive(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	return w
}

func serveReady(t *Tracker) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	t.HandleReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	return w
}

func TestHandleLive_AllUp(t *testing.T) {
	tr := NewTracker()
	tr.Liveness("goroutines", time.Second, alwaysUp())
	tr.Liveness("gc", time.Second, alwaysUp())

	w := serveLive(tr)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body probeStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}

func TestHandleLive_DownAfterThreshold(t *testing.T) {
	tr := NewTracker()
	tr.Liveness("db", time.Second, alwaysDown("connection refused"))
	p := tr.live[0]

	ctx := context.Background()
	p.observe(ctx)
	p.observe(ctx)
	assert.Equal(t, http.StatusOK, serveLive(tr).Code, "two failures stay below the threshold")

	p.observe(ctx)
	w := serveLive(tr)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body probeStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestHandleReady_AcceptingFlag(t *testing.T) {
	tr := NewTracker()
	tr.Readiness("postgres", time.Second, alwaysUp())

	w := serveReady(tr)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "not accepting until flagged")

	var body probeStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Contains(t, body.Checks, "_accepting")

	tr.SetAccepting(true)
	assert.Equal(t, http.StatusOK, serveReady(tr).Code)

	tr.SetAccepting(false)
	assert.Equal(t, http.StatusServiceUnavailable, serveReady(tr).Code)
}

func TestHandleReady_OneProbeDown(t *testing.T) {
	tr := NewTracker()
	tr.Readiness("postgres", time.Second, alwaysUp())
	tr.Readiness("warmup", time.Second, alwaysDown("cache cold"))
	tr.SetAccepting(true)

	ctx := context.Background()
	for range defaultFailAfter {
		tr.ready[1].observe(ctx)
	}

	w := serveReady(tr)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body probeStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Contains(t, body.Checks, "warmup")
	assert.NotContains(t, body.Checks, "postgres")
}

func TestAccepting(t *testing.T) {
	tr := NewTracker()
	tr.Readiness("postgres", time.Second, alwaysUp())

	assert.False(t, tr.Accepting())
	tr.SetAccepting(true)
	assert.True(t, tr.Accepting())

	for range defaultFailAfter {
		tr.ready[0].fails++
	}
	tr.ready[0].down.Store(true)
	assert.False(t, tr.Accepting(), "down readiness probe blocks accepting")
}

func TestProbeRecovery(t *testing.T) {
	failing := true
	tr := NewTracker()
	tr.Liveness("flaky", time.Second, func(context.Context) error {
		if failing {
			return errors.New("down")
		}
		return nil
	})
	p := tr.live[0]
	ctx := context.Background()

	for range defaultFailAfter {
		p.observe(ctx)
	}
	assert.True(t, p.down.Load())

	failing = false
	p.observe(ctx)
	assert.False(t, p.down.Load(), "one pass recovers the probe")
}

func TestNoProbes(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, http.StatusOK, serveLive(tr).Code)

	tr.SetAccepting(true)
	assert.Equal(t, http.StatusOK, serveReady(tr).Code)
}

func TestWatchAndClose(t *testing.T) {
	tr := NewTracker()
	tr.Liveness("goroutines", time.Second, alwaysUp())

	tr.Watch(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	tr.Close()
	tr.Close() // idempotent
}

func TestConcurrentHandlers(t *testing.T) {
	tr := NewTracker()
	tr.Liveness("flaky", time.Second, alwaysDown("err"))
	tr.Readiness("postgres", time.Second, alwaysUp())
	tr.SetAccepting(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr.Watch(ctx, 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tr.Accepting()
				serveLive(tr)
				serveReady(tr)
			}
		}()
	}
	wg.Wait()
	tr.Close()
}

func TestGoroutineCeiling(t *testing.T) {
	assert.NoError(t, GoroutineCeiling(100000)(context.Background()))

	err := GoroutineCeiling(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ceiling")
}

func TestGCPauseCeiling(t *testing.T) {
	assert.NoError(t, GCPauseCeiling(time.Hour)(context.Background()))
}
