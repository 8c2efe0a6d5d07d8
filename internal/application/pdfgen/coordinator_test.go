package pdfgen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testWindow = 30 * time.Millisecond
	testSettle = 10 * time.Millisecond
	waitFor    = 2 * time.Second
	tick       = 5 * time.Millisecond
)

// recordingRunner records every cycle and tracks per-invoice concurrency
type recordingRunner struct {
	mu        sync.Mutex
	calls     []Request
	active    map[string]int
	maxActive map[string]int
	run       func(ctx context.Context, req Request) Result
}

func newRecordingRunner(run func(ctx context.Context, req Request) Result) *recordingRunner {
	return &recordingRunner{
		active:    make(map[string]int),
		maxActive: make(map[string]int),
		run:       run,
	}
}

func (r *recordingRunner) Run(ctx context.Context, req Request) Result {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.active[req.InvoiceID]++
	if r.active[req.InvoiceID] > r.maxActive[req.InvoiceID] {
		r.maxActive[req.InvoiceID] = r.active[req.InvoiceID]
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.active[req.InvoiceID]--
		r.mu.Unlock()
	}()

	if r.run != nil {
		return r.run(ctx, req)
	}
	return Result{Request: req, Outcome: OutcomeGenerated}
}

func (r *recordingRunner) count(invoiceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.InvoiceID == invoiceID {
			n++
		}
	}
	return n
}

func (r *recordingRunner) last() Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func (r *recordingRunner) peak(invoiceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxActive[invoiceID]
}

// resultLog collects results delivered to the hook
type resultLog struct {
	mu      sync.Mutex
	results []Result
}

func (l *resultLog) add(r Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, r)
}

func (l *resultLog) all() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Result(nil), l.results...)
}

func newTestCoordinator(t *testing.T, runner Runner, cfg Config, log *resultLog) *Coordinator {
	t.Helper()
	opts := []Option{WithLogger(zaptest.NewLogger(t))}
	if log != nil {
		opts = append(opts, WithResultHook(log.add))
	}
	c := NewCoordinator(runner, cfg, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = c.Stop(ctx)
	})
	return c
}

func testConfig() Config {
	return Config{
		DebounceWindow:       testWindow,
		SettleDelay:          testSettle,
		CycleTimeout:         time.Second,
		MaxConsecutiveReruns: 5,
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{SettleDelay: -1, MaxConsecutiveReruns: -3}.withDefaults()

	assert.Equal(t, 800*time.Millisecond, cfg.DebounceWindow)
	assert.Equal(t, 200*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 60*time.Second, cfg.CycleTimeout)
	assert.Equal(t, 0, cfg.MaxConsecutiveReruns)

	zeroSettle := Config{SettleDelay: 0}.withDefaults()
	assert.Equal(t, time.Duration(0), zeroSettle.SettleDelay)
}

func TestCoordinator_DebounceCollapsesBurst(t *testing.T) {
	runner := newRecordingRunner(nil)
	cfg := testConfig()
	cfg.DebounceWindow = 150 * time.Millisecond
	c := newTestCoordinator(t, runner, cfg, nil)

	c.Trigger("inv-1", "user-a")
	time.Sleep(20 * time.Millisecond)
	c.Trigger("inv-1", "user-b")
	time.Sleep(20 * time.Millisecond)
	c.Trigger("inv-1", "user-c")

	assert.Equal(t, 1, c.Stats().Scheduled)
	assert.Equal(t, 0, runner.count("inv-1"), "no cycle may start inside the debounce window")

	require.Eventually(t, func() bool { return runner.count("inv-1") == 1 }, waitFor, tick)
	time.Sleep(2 * cfg.DebounceWindow)

	assert.Equal(t, 1, runner.count("inv-1"))
	assert.Equal(t, "user-c", runner.last().UserID, "latest trigger payload wins")
	assert.Equal(t, Stats{}, c.Stats())
}

func TestCoordinator_PendingRerunAfterSlowCycle(t *testing.T) {
	release := make(chan struct{})
	var first sync.Once
	runner := newRecordingRunner(func(ctx context.Context, req Request) Result {
		first.Do(func() { <-release })
		return Result{Request: req, Outcome: OutcomeGenerated}
	})
	log := &resultLog{}
	c := newTestCoordinator(t, runner, testConfig(), log)

	c.Trigger("inv-1", "user-1")
	require.Eventually(t, func() bool { return c.Stats().Running == 1 }, waitFor, tick)

	// Several triggers while rendering: each fires and marks pending.
	for i := 0; i < 3; i++ {
		c.Trigger("inv-1", "user-1")
		require.Eventually(t, func() bool {
			s := c.Stats()
			return s.Pending == 1 && s.Scheduled == 0
		}, waitFor, tick)
	}
	assert.Equal(t, 1, runner.count("inv-1"), "no parallel cycle while one is running")

	close(release)

	require.Eventually(t, func() bool { return runner.count("inv-1") == 2 }, waitFor, tick)
	time.Sleep(4 * (testWindow + testSettle))

	assert.Equal(t, 2, runner.count("inv-1"), "exactly one follow-up cycle")
	assert.Equal(t, 1, runner.peak("inv-1"))
	assert.Len(t, log.all(), 2)
	assert.Equal(t, Stats{}, c.Stats())
}

func TestCoordinator_IndependentInvoices(t *testing.T) {
	release := make(chan struct{})
	runner := newRecordingRunner(func(ctx context.Context, req Request) Result {
		if req.InvoiceID == "inv-1" {
			<-release
		}
		return Result{Request: req, Outcome: OutcomeGenerated}
	})
	log := &resultLog{}
	c := newTestCoordinator(t, runner, testConfig(), log)

	c.Trigger("inv-1", "user-1")
	c.Trigger("inv-2", "user-1")

	require.Eventually(t, func() bool {
		for _, r := range log.all() {
			if r.InvoiceID == "inv-2" {
				return true
			}
		}
		return false
	}, waitFor, tick, "inv-2 must not wait for inv-1")
	require.Eventually(t, func() bool { return c.Stats().Running == 1 }, waitFor, tick)
	assert.Len(t, log.all(), 1, "inv-1 is still rendering")

	close(release)
	require.Eventually(t, func() bool { return len(log.all()) == 2 }, waitFor, tick)
	assert.Equal(t, 1, runner.count("inv-1"))
	assert.Equal(t, 1, runner.count("inv-2"))
}

func TestCoordinator_Busy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	runner := newRecordingRunner(func(ctx context.Context, req Request) Result {
		started <- struct{}{}
		<-release
		return Result{Request: req, Outcome: OutcomeGenerated}
	})
	c := newTestCoordinator(t, runner, testConfig(), nil)

	assert.False(t, c.Busy("inv-1"))

	c.Trigger("inv-1", "user-1")
	assert.True(t, c.Busy("inv-1"), "scheduled")
	assert.False(t, c.Busy("inv-2"))

	<-started
	assert.True(t, c.Busy("inv-1"), "running")

	close(release)
	require.Eventually(t, func() bool { return !c.Busy("inv-1") }, waitFor, tick)
}

func TestCoordinator_BusyWhileRerunSettles(t *testing.T) {
	release := make(chan struct{})
	var first sync.Once
	runner := newRecordingRunner(func(ctx context.Context, req Request) Result {
		first.Do(func() { <-release })
		return Result{Request: req, Outcome: OutcomeGenerated}
	})
	cfg := testConfig()
	cfg.SettleDelay = 300 * time.Millisecond
	c := newTestCoordinator(t, runner, cfg, nil)

	c.Trigger("inv-1", "user-1")
	require.Eventually(t, func() bool { return c.Stats().Running == 1 }, waitFor, tick)
	c.Trigger("inv-1", "user-1")
	require.Eventually(t, func() bool { return c.Stats().Pending == 1 }, waitFor, tick)

	close(release)

	// Nothing is armed, running or pending during the settle delay, yet the
	// stored PDF is already known to be stale.
	require.Eventually(t, func() bool { return c.Stats() == Stats{} }, waitFor, tick)
	assert.Equal(t, 1, runner.count("inv-1"))
	assert.True(t, c.Busy("inv-1"))

	require.Eventually(t, func() bool { return runner.count("inv-1") == 2 }, waitFor, tick)
	require.Eventually(t, func() bool { return !c.Busy("inv-1") }, waitFor, tick)
}

func TestCoordinator_FailureReleasesRunningMarker(t *testing.T) {
	runner := newRecordingRunner(func(ctx context.Context, req Request) Result {
		return Result{Request: req}.missing(StageFetchInvoice, assert.AnError)
	})
	log := &resultLog{}
	c := newTestCoordinator(t, runner, testConfig(), log)

	c.Trigger("inv-1", "user-1")
	require.Eventually(t, func() bool { return len(log.all()) == 1 }, waitFor, tick)
	require.Eventually(t, func() bool { return c.Stats().Running == 0 }, waitFor, tick)

	assert.Equal(t, OutcomeMissingData, log.all()[0].Outcome)

	c.Trigger("inv-1", "user-1")
	require.Eventually(t, func() bool { return runner.count("inv-1") == 2 }, waitFor, tick)
}

func TestCoordinator_CycleTimeoutForcesRelease(t *testing.T) {
	unblock := make(chan struct{})
	defer close(unblock)
	var calls sync.WaitGroup
	calls.Add(1)
	var once sync.Once
	runner := newRecordingRunner(func(ctx context.Context, req Request) Result {
		hang := false
		once.Do(func() { hang = true })
		if hang {
			calls.Done()
			<-unblock // ignores ctx on purpose
		}
		return Result{Request: req, Outcome: OutcomeGenerated}
	})
	cfg := testConfig()
	cfg.CycleTimeout = 50 * time.Millisecond
	log := &resultLog{}
	c := newTestCoordinator(t, runner, cfg, log)

	c.Trigger("inv-1", "user-1")
	calls.Wait()

	require.Eventually(t, func() bool { return len(log.all()) == 1 }, waitFor, tick)
	assert.Equal(t, OutcomeTimedOut, log.all()[0].Outcome)
	require.Eventually(t, func() bool { return c.Stats().Running == 0 }, waitFor, tick)

	c.Trigger("inv-1", "user-1")
	require.Eventually(t, func() bool { return len(log.all()) == 2 }, waitFor, tick)
	assert.Equal(t, OutcomeGenerated, log.all()[1].Outcome)
}

func TestCoordinator_RerunCapDelaysInsteadOfDropping(t *testing.T) {
	var c *Coordinator
	var mu sync.Mutex
	cycles := 0
	runner := newRecordingRunner(func(ctx context.Context, req Request) Result {
		mu.Lock()
		cycles++
		n := cycles
		mu.Unlock()
		// The invoice changes during the first two cycles only.
		if n <= 2 {
			c.Trigger(req.InvoiceID, req.UserID)
			time.Sleep(3 * testWindow)
		}
		return Result{Request: req, Outcome: OutcomeGenerated}
	})
	cfg := testConfig()
	cfg.MaxConsecutiveReruns = 1
	c = newTestCoordinator(t, runner, cfg, nil)

	c.Trigger("inv-1", "user-1")

	require.Eventually(t, func() bool { return runner.count("inv-1") == 2 }, waitFor, tick)
	// The change made during the second cycle still produces a third one,
	// after the back-off.
	require.Eventually(t, func() bool { return runner.count("inv-1") == 3 }, waitFor, tick)
	require.Eventually(t, func() bool { return c.Stats() == Stats{} }, waitFor, tick)
	time.Sleep(4 * (testWindow + testSettle))

	assert.Equal(t, 3, runner.count("inv-1"))
	assert.Equal(t, 1, runner.peak("inv-1"))
}

func TestCoordinator_RerunCapBackoff(t *testing.T) {
	var c *Coordinator
	var mu sync.Mutex
	var starts []time.Time
	runner := newRecordingRunner(func(ctx context.Context, req Request) Result {
		mu.Lock()
		starts = append(starts, time.Now())
		n := len(starts)
		mu.Unlock()
		if n <= 2 {
			c.Trigger(req.InvoiceID, req.UserID)
			time.Sleep(2 * testWindow)
		}
		return Result{Request: req, Outcome: OutcomeGenerated}
	})
	cfg := testConfig()
	cfg.MaxConsecutiveReruns = 1
	c = newTestCoordinator(t, runner, cfg, nil)

	c.Trigger("inv-1", "user-1")
	require.Eventually(t, func() bool { return runner.count("inv-1") == 3 }, waitFor, tick)

	mu.Lock()
	defer mu.Unlock()
	// Without the back-off the third cycle starts after the second one's
	// run time, the settle delay and one debounce window.
	gap := starts[2].Sub(starts[1])
	assert.GreaterOrEqual(t, gap, 2*testWindow+testSettle+2*testWindow)
}

func TestCoordinator_Stop(t *testing.T) {
	started := make(chan struct{})
	runner := newRecordingRunner(func(ctx context.Context, req Request) Result {
		if req.InvoiceID == "inv-running" {
			close(started)
			<-ctx.Done()
			return Result{Request: req, Outcome: OutcomeCancelled, Err: ctx.Err()}
		}
		return Result{Request: req, Outcome: OutcomeGenerated}
	})
	c := newTestCoordinator(t, runner, testConfig(), nil)

	c.Trigger("inv-running", "user-1")
	<-started
	c.Trigger("inv-scheduled", "user-1")

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, c.Stop(ctx))

	c.Trigger("inv-after", "user-1")
	time.Sleep(3 * testWindow)

	assert.Equal(t, 0, runner.count("inv-scheduled"))
	assert.Equal(t, 0, runner.count("inv-after"))
	assert.Equal(t, Stats{}, c.Stats())
	assert.NoError(t, c.Stop(ctx), "stop is idempotent")
}

func TestCoordinator_StopWaitsForTimedOutRunner(t *testing.T) {
	unblock := make(chan struct{})
	started := make(chan struct{})
	runner := newRecordingRunner(func(ctx context.Context, req Request) Result {
		close(started)
		<-unblock // ignores ctx on purpose
		return Result{Request: req, Outcome: OutcomeGenerated}
	})
	cfg := testConfig()
	cfg.CycleTimeout = 20 * time.Millisecond
	log := &resultLog{}
	c := NewCoordinator(runner, cfg, WithLogger(zaptest.NewLogger(t)), WithResultHook(log.add))

	c.Trigger("inv-1", "user-1")
	<-started
	require.Eventually(t, func() bool { return len(log.all()) == 1 }, waitFor, tick)
	assert.Equal(t, OutcomeTimedOut, log.all()[0].Outcome)

	stopped := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		stopped <- c.Stop(ctx)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the runner was still working")
	case <-time.After(3 * testWindow):
	}

	close(unblock)
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Stop did not return after the runner finished")
	}
}

func TestCoordinator_IgnoresEmptyInvoiceID(t *testing.T) {
	runner := newRecordingRunner(nil)
	c := newTestCoordinator(t, runner, testConfig(), nil)

	c.Trigger("", "user-1")

	assert.Equal(t, Stats{}, c.Stats())
}

// Three triggers within 500ms of each other yield exactly one cycle once the
// default-sized window elapses.
func TestCoordinator_BurstScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("uses the production debounce window")
	}
	runner := newRecordingRunner(nil)
	cfg := DefaultConfig()
	c := newTestCoordinator(t, runner, cfg, nil)

	c.Trigger("inv-1", "user-1")
	time.Sleep(200 * time.Millisecond)
	c.Trigger("inv-1", "user-1")
	time.Sleep(200 * time.Millisecond)
	c.Trigger("inv-1", "user-1")

	require.Eventually(t, func() bool { return runner.count("inv-1") == 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(cfg.DebounceWindow + cfg.SettleDelay)
	assert.Equal(t, 1, runner.count("inv-1"))
}
