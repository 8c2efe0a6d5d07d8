// Package pdfgen coalesces invoice PDF regeneration requests.
//
// Triggers for the same invoice are debounced, at most one generation cycle
// runs per invoice at a time, and a trigger that fires while a cycle is
// running schedules exactly one follow-up cycle once it finishes.
package pdfgen

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Config tunes the coordinator
type Config struct {
	// DebounceWindow is the quiet period after the last trigger before a cycle starts
	DebounceWindow time.Duration
	// SettleDelay is waited before re-triggering a pending invoice
	SettleDelay time.Duration
	// CycleTimeout bounds one cycle; the running marker is released when it expires
	CycleTimeout time.Duration
	// MaxConsecutiveReruns is the number of back-to-back pending re-runs per
	// invoice before the next one is delayed by DebounceWindow per re-run
	// (0 = never delay)
	MaxConsecutiveReruns int
}

// DefaultConfig returns the default coordinator configuration
func DefaultConfig() Config {
	return Config{
		DebounceWindow:       800 * time.Millisecond,
		SettleDelay:          200 * time.Millisecond,
		CycleTimeout:         60 * time.Second,
		MaxConsecutiveReruns: 5,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = def.DebounceWindow
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = def.SettleDelay
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = def.CycleTimeout
	}
	if c.MaxConsecutiveReruns < 0 {
		c.MaxConsecutiveReruns = 0
	}
	return c
}

// Stats is a snapshot of the coordinator state
type Stats struct {
	Scheduled int `json:"scheduled"`
	Running   int `json:"running"`
	Pending   int `json:"pending"`
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithResultHook registers a callback invoked after every cycle
func WithResultHook(fn func(Result)) Option {
	return func(c *Coordinator) {
		c.onResult = fn
	}
}

type debounceTimer struct {
	timer  *time.Timer
	userID string
}

// Coordinator owns the per-invoice debounce timers, the running set and the
// pending markers. Its maps are guarded by mu, which is never held while a
// cycle does I/O.
type Coordinator struct {
	runner   Runner
	config   Config
	logger   *zap.Logger
	metrics  *cycleMetrics
	onResult func(Result)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup // cycles holding a running marker

	// runners tracks Runner.Run calls, which may outlive their cycle after a timeout
	runners sync.WaitGroup

	mu       sync.Mutex
	timers   map[string]*debounceTimer
	running  map[string]struct{}
	pending  map[string]string   // invoice id -> latest user id
	requeued map[string]struct{} // pending re-runs waiting out the settle delay
	streaks  map[string]int      // consecutive pending re-runs
	stopped  bool
}

// NewCoordinator creates a coordinator that executes cycles with runner.
// Metrics are recorded on the global OTel meter provider.
func NewCoordinator(runner Runner, config Config, opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		runner:   runner,
		config:   config.withDefaults(),
		logger:   zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		timers:   make(map[string]*debounceTimer),
		running:  make(map[string]struct{}),
		pending:  make(map[string]string),
		requeued: make(map[string]struct{}),
		streaks:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}

	metrics, err := newCycleMetrics(otel.GetMeterProvider().Meter(instrumentationName))
	if err != nil {
		c.logger.Warn("Failed to create PDF generation metrics", zap.Error(err))
		metrics = noopCycleMetrics()
	}
	c.metrics = metrics

	return c
}

// Trigger requests regeneration of an invoice PDF. It returns immediately.
// A trigger for an invoice that already has a pending timer replaces it,
// so only the latest userID is used.
func (c *Coordinator) Trigger(invoiceID, userID string) {
	if invoiceID == "" {
		c.logger.Warn("Ignoring PDF trigger without invoice id", zap.String("user_id", userID))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		c.logger.Debug("Ignoring PDF trigger after stop", zap.String("invoice_id", invoiceID))
		return
	}

	if prev, ok := c.timers[invoiceID]; ok {
		prev.timer.Stop()
	}
	entry := &debounceTimer{userID: userID}
	entry.timer = time.AfterFunc(c.config.DebounceWindow, func() {
		c.fire(invoiceID, entry)
	})
	c.timers[invoiceID] = entry

	c.metrics.triggers.Add(c.ctx, 1)
}

// fire runs when a debounce timer expires
func (c *Coordinator) fire(invoiceID string, entry *debounceTimer) {
	c.mu.Lock()
	// Timer.Stop cannot recall a callback that has already started.
	if c.timers[invoiceID] != entry {
		c.mu.Unlock()
		return
	}
	delete(c.timers, invoiceID)

	if _, busy := c.running[invoiceID]; busy {
		c.pending[invoiceID] = entry.userID
		c.mu.Unlock()
		c.logger.Debug("PDF generation in progress, marked pending",
			zap.String("invoice_id", invoiceID),
		)
		return
	}

	c.running[invoiceID] = struct{}{}
	c.wg.Add(1)
	c.mu.Unlock()

	c.execute(Request{InvoiceID: invoiceID, UserID: entry.userID})
}

// execute runs one cycle under the cycle timeout
func (c *Coordinator) execute(req Request) {
	defer c.wg.Done()
	defer c.release(req.InvoiceID)

	ctx, cancel := context.WithTimeout(c.ctx, c.config.CycleTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan Result, 1)
	c.runners.Add(1)
	go func() {
		defer c.runners.Done()
		done <- c.runner.Run(ctx, req)
	}()

	var result Result
	select {
	case result = <-done:
	case <-ctx.Done():
		// The runner may still be working; its result is discarded and the
		// running marker is released so later triggers are not starved.
		result = Result{Request: req, Outcome: OutcomeCancelled, Err: ctx.Err()}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Outcome = OutcomeTimedOut
		}
	}
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}

	c.report(result)
}

// release clears the running marker and schedules the pending re-run, if any
func (c *Coordinator) release(invoiceID string) {
	c.mu.Lock()
	delete(c.running, invoiceID)
	userID, rerun := c.pending[invoiceID]
	delete(c.pending, invoiceID)

	if !rerun || c.stopped {
		delete(c.streaks, invoiceID)
		c.mu.Unlock()
		return
	}

	c.streaks[invoiceID]++
	streak := c.streaks[invoiceID]
	delay := c.config.SettleDelay
	limit := c.config.MaxConsecutiveReruns
	backoff := limit > 0 && streak > limit
	if backoff {
		// The re-run still happens so the PDF ends up matching the latest
		// invoice state; only its start is pushed out.
		delay += c.config.DebounceWindow * time.Duration(streak)
		delete(c.streaks, invoiceID)
	}
	c.requeued[invoiceID] = struct{}{}
	c.mu.Unlock()

	if backoff {
		c.logger.Warn("Consecutive PDF re-run limit reached, delaying re-run",
			zap.String("invoice_id", invoiceID),
			zap.Int("limit", limit),
			zap.Duration("delay", delay),
		)
		c.metrics.rerunsDeferred.Add(c.ctx, 1)
	} else {
		c.logger.Debug("Scheduling pending PDF re-run",
			zap.String("invoice_id", invoiceID),
			zap.Int("streak", streak),
			zap.Duration("settle_delay", delay),
		)
	}
	time.AfterFunc(delay, func() {
		c.Trigger(invoiceID, userID)
		c.mu.Lock()
		delete(c.requeued, invoiceID)
		c.mu.Unlock()
	})
}

func (c *Coordinator) report(result Result) {
	fields := []zap.Field{
		zap.String("invoice_id", result.InvoiceID),
		zap.String("user_id", result.UserID),
		zap.String("outcome", string(result.Outcome)),
		zap.Duration("duration", result.Duration),
	}

	switch result.Outcome {
	case OutcomeGenerated:
		c.logger.Info("Invoice PDF generated and uploaded",
			append(fields, zap.String("url", result.URL), zap.Int("bytes", result.Bytes))...)
	case OutcomeMissingData:
		c.logger.Warn("PDF generation skipped, missing invoice or user",
			append(fields, zap.String("stage", string(result.Stage)), zap.Error(result.Err))...)
	default:
		c.logger.Error("Invoice PDF generation failed",
			append(fields, zap.String("stage", string(result.Stage)), zap.Error(result.Err))...)
	}

	c.metrics.recordResult(context.Background(), result)

	if c.onResult != nil {
		c.onResult(result)
	}
}

// Stats returns the number of armed timers, running cycles and pending re-runs
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Scheduled: len(c.timers),
		Running:   len(c.running),
		Pending:   len(c.pending),
	}
}

// Busy reports whether a cycle for the invoice is scheduled, running or
// waiting to re-run. While busy, its stored PDF may not reflect the latest
// invoice state.
func (c *Coordinator) Busy(invoiceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, scheduled := c.timers[invoiceID]
	_, running := c.running[invoiceID]
	_, pending := c.pending[invoiceID]
	_, requeued := c.requeued[invoiceID]
	return scheduled || running || pending || requeued
}

// Stop cancels armed timers and in-flight cycles, then waits until every
// Runner.Run call has returned or ctx expires. That includes runs whose cycle
// already timed out. Triggers after Stop are ignored.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	for id, t := range c.timers {
		t.timer.Stop()
		delete(c.timers, id)
	}
	for id := range c.pending {
		delete(c.pending, id)
	}
	for id := range c.requeued {
		delete(c.requeued, id)
	}
	c.mu.Unlock()

	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		c.runners.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("PDF generation coordinator stopped")
		return nil
	case <-ctx.Done():
		c.logger.Warn("PDF generation coordinator stop timed out")
		return ctx.Err()
	}
}
