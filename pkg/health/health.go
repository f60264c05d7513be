// Package health tracks probe state behind the /livez and /readyz endpoints.
//
// Probes run on a shared ticker in background goroutines. State changes are
// damped Kubernetes-style: a probe flips to down only after failAfter
// consecutive failures and back up after recoverAfter consecutive passes, so
// a single slow ping does not bounce the service out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const (
	defaultFailAfter    = 3
	defaultRecoverAfter = 1
)

// probe is one registered check plus its damped state. The fail/pass counters
// are touched only by the single watch goroutine driving this probe; down and
// lastErr are also read by HTTP handlers, hence atomic.
type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	down    atomic.Bool
	lastErr atomic.Pointer[error]

	fails  int
	passes int
}

func (p *probe) observe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passes = 0
		if p.fails++; p.fails >= defaultFailAfter {
			p.down.Store(true)
		}
		return
	}
	p.fails = 0
	if p.passes++; p.passes >= defaultRecoverAfter {
		p.down.Store(false)
	}
}

func (p *probe) failure() error {
	if !p.down.Load() {
		return nil
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return *e
	}
	return errProbeDown
}

var errProbeDown = &probeDownError{}

type probeDownError struct{}

func (*probeDownError) Error() string { return "probe is down" }

// Tracker owns the liveness and readiness probe sets for one service.
//
// Readiness combines two signals: the accepting flag, toggled explicitly
// around startup and drain, and the readiness probes themselves. Both must
// hold for /readyz to answer 200.
type Tracker struct {
	accepting atomic.Bool

	mu     sync.Mutex
	live   []*probe
	ready  []*probe
	cancel context.CancelFunc
}

// NewTracker returns a Tracker in the not-accepting state.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Liveness registers a probe that gates /livez. Liveness probes answer "is
// this process wedged": goroutine leaks, GC stalls.
func (t *Tracker) Liveness(name string, timeout time.Duration, fn CheckFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live = append(t.live, &probe{name: name, timeout: timeout, fn: fn})
}

// Readiness registers a probe that gates /readyz. Readiness probes answer
// "can this process serve traffic": database connectivity, warmed caches.
func (t *Tracker) Readiness(name string, timeout time.Duration, fn CheckFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ready = append(t.ready, &probe{name: name, timeout: timeout, fn: fn})
}

// Watch starts one goroutine per registered probe, each re-running its check
// at the given interval until ctx is cancelled or Close is called. Register
// every probe before calling Watch.
func (t *Tracker) Watch(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.cancel = cancel
	probes := append(append([]*probe(nil), t.live...), t.ready...)
	t.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.observe(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.observe(ctx)
				}
			}
		}(p)
	}
}

// Close stops the probe goroutines. Safe to call more than once.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// SetAccepting toggles the explicit readiness flag: true once startup
// finishes, false at the start of a graceful drain.
func (t *Tracker) SetAccepting(v bool) {
	t.accepting.Store(v)
}

// Accepting reports whether the service should receive traffic: the flag is
// set and every readiness probe is up.
func (t *Tracker) Accepting() bool {
	if !t.accepting.Load() {
		return false
	}
	t.mu.Lock()
	probes := t.ready
	t.mu.Unlock()
	for _, p := range probes {
		if p.down.Load() {
			return false
		}
	}
	return true
}

// probeStatus is the body served by both endpoints.
type probeStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleLive serves /livez: 200 while every liveness probe is up, 503 with
// the failing probes otherwise.
func (t *Tracker) HandleLive(w http.ResponseWriter, _ *http.Request) {
	t.mu.Lock()
	probes := append([]*probe(nil), t.live...)
	t.mu.Unlock()

	t.respond(w, failures(probes))
}

// HandleReady serves /readyz: 200 while the service is accepting and every
// readiness probe is up, 503 with details otherwise.
func (t *Tracker) HandleReady(w http.ResponseWriter, _ *http.Request) {
	t.mu.Lock()
	probes := append([]*probe(nil), t.ready...)
	t.mu.Unlock()

	failed := failures(probes)
	if !t.accepting.Load() {
		failed["_accepting"] = "service is not accepting traffic"
	}
	t.respond(w, failed)
}

func failures(probes []*probe) map[string]string {
	failed := make(map[string]string)
	for _, p := range probes {
		if err := p.failure(); err != nil {
			failed[p.name] = err.Error()
		}
	}
	return failed
}

func (t *Tracker) respond(w http.ResponseWriter, failed map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	body := probeStatus{Status: "ok"}
	code := http.StatusOK
	if len(failed) > 0 {
		body.Status = "unhealthy"
		body.Checks = failed
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
