package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nezhatop/nezhatop/internal/nezha"
	"github.com/nezhatop/nezhatop/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

var errStreamEnded = errors.New("live feed ended")

// Feed selects how the monitor receives server updates.
type Feed string

const (
	FeedPoll   Feed = "poll"
	FeedStream Feed = "stream"
)

// SnapshotFunc is called after every published successful result.
type SnapshotFunc func(at time.Time, servers []nezha.Server)

// Options configure a Monitor.
type Options struct {
	Fetcher    nezha.ServerFetcher
	Store      *state.Store
	Interval   time.Duration
	Feed       Feed
	Logger     *zap.Logger
	OnSnapshot SnapshotFunc
}

// Monitor keeps a state.Store fresh by polling the dashboard or following
// its live feed.
type Monitor struct {
	fetcher    nezha.ServerFetcher
	store      *state.Store
	interval   time.Duration
	feed       Feed
	logger     *zap.Logger
	onSnapshot SnapshotFunc
	now        func() time.Time

	mu       sync.Mutex
	gen      uint64
	runCtx   context.Context
	cancel   context.CancelFunc
	redial   chan struct{}
	inflight sync.WaitGroup
}

// New builds a Monitor. It does nothing until Start.
func New(opts Options) *Monitor {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	feed := opts.Feed
	if feed != FeedStream {
		feed = FeedPoll
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	return &Monitor{
		fetcher:    opts.Fetcher,
		store:      store,
		interval:   interval,
		feed:       feed,
		logger:     logger.Named("monitor"),
		onSnapshot: opts.OnSnapshot,
		now:        time.Now,
	}
}

// Store returns the store the monitor publishes to.
func (m *Monitor) Store() *state.Store { return m.store }

// Start stops any running loop, fetches once immediately and then keeps
// refreshing until Stop or until ctx ends.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.gen++
	startGen := m.gen
	runCtx, cancel := context.WithCancel(ctx)
	m.runCtx, m.cancel = runCtx, cancel
	m.redial = make(chan struct{}, 1)
	redial := m.redial
	m.mu.Unlock()

	m.store.Reset(startGen, state.Event{Kind: state.EventFetch})
	m.logger.Info("monitor started",
		zap.String("feed", string(m.feed)),
		zap.Duration("interval", m.interval),
		zap.Uint64("generation", startGen))

	m.spawn(runCtx)
	if m.feed == FeedStream {
		m.inflight.Add(1)
		go func() {
			defer m.inflight.Done()
			m.follow(runCtx, redial)
		}()
		return
	}
	go m.poll(runCtx)
}

// Stop cancels future ticks and drops results of fetches still in flight.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
		m.runCtx = nil
	}
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.store.Reset(gen, state.Event{Kind: state.EventStop})
	m.logger.Info("monitor stopped", zap.Uint64("generation", gen))
}

// Retry fetches immediately within the current run and, in stream mode,
// redials without waiting for the backoff. It is a no-op when stopped.
func (m *Monitor) Retry() {
	m.mu.Lock()
	ctx, redial := m.runCtx, m.redial
	m.mu.Unlock()
	if ctx == nil {
		return
	}
	m.spawn(ctx)
	select {
	case redial <- struct{}{}:
	default:
	}
}

// Wait blocks until every fetch started so far has completed. In stream mode
// it also waits for the feed reader, which only exits after Stop.
func (m *Monitor) Wait() {
	m.inflight.Wait()
}

// Running reports whether Start has been called without a matching Stop and
// the context passed to Start is still live.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runCtx != nil && m.runCtx.Err() == nil
}

func (m *Monitor) next() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.gen
}

func (m *Monitor) poll(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.spawn(ctx)
		}
	}
}

// spawn starts one independent fetch. Overlapping fetches are allowed; the
// store drops results that complete out of order.
func (m *Monitor) spawn(ctx context.Context) {
	m.mu.Lock()
	if ctx.Err() != nil {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen
	m.inflight.Add(1)
	m.mu.Unlock()

	m.store.Begin(gen)
	go func() {
		defer m.inflight.Done()
		m.fetch(ctx, gen)
	}()
}

func (m *Monitor) fetch(ctx context.Context, gen uint64) {
	servers, err := m.fetcher.ServerDetails(ctx)
	at := m.now()
	if err != nil {
		if !m.store.Fail(gen, err, at) {
			m.logger.Debug("dropped stale failure", zap.Uint64("generation", gen), zap.Error(err))
			return
		}
		m.logger.Warn("server fetch failed", zap.Uint64("generation", gen), zap.Error(err))
		return
	}
	m.publish(gen, servers, at)
}

func (m *Monitor) publish(gen uint64, servers []nezha.Server, at time.Time) bool {
	if !m.store.Succeed(gen, servers, at) {
		m.logger.Debug("dropped stale result", zap.Uint64("generation", gen))
		return false
	}
	m.logger.Debug("published snapshot", zap.Uint64("generation", gen), zap.Int("servers", len(servers)))
	if m.onSnapshot != nil {
		m.onSnapshot(at, servers)
	}
	return true
}

// follow reads the live feed and redials with backoff after a failure.
func (m *Monitor) follow(ctx context.Context, redial <-chan struct{}) {
	failures := 0
	for {
		err := m.fetcher.StreamServers(ctx, func(frame nezha.StreamFrame) {
			at := frame.Time()
			if at.IsZero() {
				at = m.now()
			}
			if m.publish(m.next(), frame.Servers, at) {
				failures = 0
			}
		})
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = &nezha.NetworkError{Err: errStreamEnded}
		}

		failures++
		m.store.Fail(m.next(), err, m.now())
		delay := calculateBackoff(failures-1, m.interval)
		m.logger.Warn("stream interrupted",
			zap.Error(err),
			zap.Int("failures", failures),
			zap.Duration("redial_in", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-redial:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	if failures > 16 {
		return maxBackoff
	}
	delay := base << failures
	if delay > maxBackoff || delay <= 0 {
		return maxBackoff
	}
	return delay
}
