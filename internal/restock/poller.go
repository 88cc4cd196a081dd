package restock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"medrestock/internal/config"
	"medrestock/pkg/metrics"
)

// Trigger names why a cycle ran.
type Trigger string

const (
	TriggerStart    Trigger = "start"
	TriggerInterval Trigger = "interval"
	TriggerFocus    Trigger = "focus"
	TriggerMutation Trigger = "mutation"
	TriggerManual   Trigger = "manual"
)

const cycleKey = "reconcile"

// Poller keeps the board fresh. It is an owned background task: Start binds
// it to a scope and Stop tears it down; nothing is applied after Stop returns.
//
// Concurrent triggers share one outstanding cycle. A mutation trigger never
// joins a cycle that started before the mutation.
type Poller struct {
	rec     *Reconciler
	board   *Board
	cfg     config.PollConfig
	metrics *metrics.Collector
	logger  *zap.Logger

	group singleflight.Group
	seq   atomic.Uint64
	focus *rate.Limiter

	mu       sync.Mutex
	running  bool
	base     context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	inflight sync.WaitGroup
}

func NewPoller(rec *Reconciler, board *Board, cfg config.PollConfig, m *metrics.Collector, logger *zap.Logger) *Poller {
	limit := rate.Inf
	if cfg.FocusMinInterval > 0 {
		limit = rate.Every(cfg.FocusMinInterval)
	}
	return &Poller{
		rec:     rec,
		board:   board,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		focus:   rate.NewLimiter(limit, 1),
	}
}

// Start runs one cycle right away and then one per interval until Stop or
// until ctx is done. Starting a running poller is a no-op; once ctx is done
// the poller can be started again with a new scope.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active() {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.base, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.running = true
	go p.loop(p.base, p.done)
	p.logger.Info("restock poller started", zap.Duration("interval", p.cfg.Interval))
}

// Stop cancels the loop and waits for any cycle in progress to finish
// without applying its result.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	done := p.done
	p.mu.Unlock()

	<-done
	p.inflight.Wait()
	p.logger.Info("restock poller stopped")
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active()
}

// active reports whether a loop is bound to a live scope. Callers hold mu.
func (p *Poller) active() bool {
	return p.running && p.base.Err() == nil
}

// release marks the poller stopped when the loop that owns done exits on its
// own, so the next Start binds a fresh scope.
func (p *Poller) release(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == done {
		p.running = false
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer p.release(done)

	_ = p.Refresh(ctx, TriggerStart)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.Refresh(ctx, TriggerInterval)
		}
	}
}

// Refresh runs a cycle, or joins the one already outstanding. ctx bounds how
// long the caller waits, not the cycle itself.
func (p *Poller) Refresh(ctx context.Context, trigger Trigger) error {
	p.mu.Lock()
	if !p.active() {
		p.mu.Unlock()
		return ErrStopped
	}
	base := p.base
	p.mu.Unlock()

	if trigger == TriggerMutation {
		p.group.Forget(cycleKey)
	}
	ch := p.group.DoChan(cycleKey, func() (any, error) {
		return nil, p.cycle(base, trigger)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Focus refreshes when the board becomes visible again, at most once per
// FocusMinInterval.
func (p *Poller) Focus(ctx context.Context) error {
	if !p.focus.Allow() {
		return ErrThrottled
	}
	return p.Refresh(ctx, TriggerFocus)
}

func (p *Poller) cycle(base context.Context, trigger Trigger) error {
	p.mu.Lock()
	if !p.running || base.Err() != nil {
		p.mu.Unlock()
		return ErrStopped
	}
	p.inflight.Add(1)
	p.mu.Unlock()
	defer p.inflight.Done()

	seq := p.seq.Add(1)
	ctx, cancel := context.WithTimeout(base, p.cfg.CycleTimeout)
	defer cancel()

	start := time.Now()
	snap, err := p.rec.Fetch(ctx)
	p.metrics.ReconcileDuration.Observe(time.Since(start).Seconds())

	p.mu.Lock()
	defer p.mu.Unlock()
	if base.Err() != nil {
		p.metrics.ReconcileCyclesTotal.WithLabelValues(string(trigger), "cancelled").Inc()
		return ErrStopped
	}
	if err != nil {
		p.board.Fail(seq, err)
		p.metrics.ReconcileCyclesTotal.WithLabelValues(string(trigger), "error").Inc()
		p.logger.Warn("reconciliation failed, keeping previous board",
			zap.String("trigger", string(trigger)),
			zap.Uint64("seq", seq),
			zap.Error(err),
		)
		return err
	}
	if !p.board.Apply(seq, snap, time.Now()) {
		p.metrics.StaleCyclesDiscarded.Inc()
		p.metrics.ReconcileCyclesTotal.WithLabelValues(string(trigger), "stale").Inc()
		p.logger.Debug("discarded stale reconciliation", zap.Uint64("seq", seq))
		return nil
	}
	p.metrics.ReconcileCyclesTotal.WithLabelValues(string(trigger), "success").Inc()
	p.logger.Debug("board refreshed",
		zap.String("trigger", string(trigger)),
		zap.Uint64("seq", seq),
		zap.Int("needs_restock", len(snap.NeedsRestock)),
		zap.Int("processing", len(snap.Processing)),
		zap.Int("completed", len(snap.Completed)),
	)
	return nil
}
