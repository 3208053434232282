package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"media-explorer/internal/api"
	"media-explorer/internal/logging"
	"media-explorer/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// Lister fetches the status of every registered directory.
type Lister interface {
	ListDirectories(ctx context.Context) ([]api.DirectoryStatus, error)
}

// Update is published whenever the status list is replaced.
type Update struct {
	Directories []api.DirectoryStatus
	// Empty is set when the service reports no directories at all, in which
	// case the browsing surface falls back to its "no directories" state.
	Empty bool
}

// flight is the request shared by every caller waiting on one status fetch.
// Its context is cancelled when the last waiter leaves, so no single caller
// can abort the request for the others.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option configures a Poller.
type Option func(*Poller)

// WithRequestTimeout bounds each status fetch. Zero means no timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(p *Poller) { p.requestTimeout = d }
}

// Poller refreshes directory statuses while any directory is still
// initializing. It is Idle until Track or Upsert introduces an in-progress
// directory, then polls every interval until none remain.
//
// A failed poll is treated as transient and always rescheduled. Stop is
// terminal: it cancels the timer and any in-flight request, and a result
// that still arrives afterwards is discarded.
type Poller struct {
	lister         Lister
	interval       time.Duration
	requestTimeout time.Duration
	group          singleflight.Group

	flightMu sync.Mutex
	flight   *flight

	mu         sync.Mutex
	statuses   []api.DirectoryStatus
	timer      *time.Timer
	inFlight   bool
	cancelPoll context.CancelFunc
	stopped    bool

	subs    map[int]chan Update
	nextSub int
}

// New creates an idle Poller.
func New(lister Lister, interval time.Duration, opts ...Option) *Poller {
	p := &Poller{
		lister:   lister,
		interval: interval,
		subs:     make(map[int]chan Update),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Track replaces the tracked list and starts polling if any entry is in
// progress and no poll is already scheduled or running.
func (p *Poller) Track(dirs []api.DirectoryStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.statuses = cloneStatuses(dirs)
	p.recordStates()
	p.maybeSchedule()
}

// Upsert adds or replaces one directory, as after a registration.
func (p *Poller) Upsert(dir api.DirectoryStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	replaced := false
	for i := range p.statuses {
		if p.statuses[i].Name == dir.Name {
			p.statuses[i] = dir
			replaced = true
			break
		}
	}
	if !replaced {
		p.statuses = append(p.statuses, dir)
	}
	p.recordStates()
	p.maybeSchedule()
}

// Remove drops one directory, as after an unregistration.
func (p *Poller) Remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.statuses {
		if p.statuses[i].Name == name {
			p.statuses = append(p.statuses[:i], p.statuses[i+1:]...)
			break
		}
	}
	p.recordStates()
}

// Statuses returns a copy of the current list.
func (p *Poller) Statuses() []api.DirectoryStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneStatuses(p.statuses)
}

// Status returns the named directory's status.
func (p *Poller) Status(name string) (api.DirectoryStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.statuses {
		if s.Name == name {
			return s, true
		}
	}
	return api.DirectoryStatus{}, false
}

// Polling reports whether a poll is scheduled or in flight.
func (p *Poller) Polling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil || p.inFlight
}

// Refresh fetches statuses immediately, outside the polling cycle, and
// applies them. Concurrent refreshes and an overlapping poll share a single
// request, bounded by the request timeout; each caller stops waiting when
// its own ctx is done.
func (p *Poller) Refresh(ctx context.Context) ([]api.DirectoryStatus, error) {
	dirs, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return dirs, nil
	}
	p.apply(dirs)
	p.maybeSchedule()
	return cloneStatuses(dirs), nil
}

// Subscribe returns a channel of updates and a function that cancels the
// subscription. Updates are dropped rather than blocking the poller when the
// subscriber falls behind. The channel is closed by Stop.
func (p *Poller) Subscribe() (<-chan Update, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	ch := make(chan Update, 8)
	if p.stopped {
		close(ch)
		return ch, func() {}
	}
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(sub)
			}
		})
	}
}

// Stop cancels the scheduled poll and abandons the poll's request, which is
// cancelled unless a Refresh is still waiting on it. It is idempotent and no
// poll is scheduled after it returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancelPoll != nil {
		p.cancelPoll()
	}
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
	metrics.PollerPolling.Set(0)
	logging.Debug("poller: stopped")
}

// maybeSchedule must be called with mu held.
func (p *Poller) maybeSchedule() {
	if p.stopped || p.timer != nil || p.inFlight {
		return
	}
	if !anyInProgress(p.statuses) {
		metrics.PollerPolling.Set(0)
		return
	}
	p.schedule()
}

// schedule must be called with mu held.
func (p *Poller) schedule() {
	p.timer = time.AfterFunc(p.interval, p.poll)
	metrics.PollerPolling.Set(1)
	logging.Debug("poller: next poll in %v", p.interval)
}

func (p *Poller) poll() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.inFlight = true
	ctx, cancel := context.WithCancel(context.Background())
	p.cancelPoll = cancel
	p.mu.Unlock()

	dirs, err := p.fetch(ctx)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.inFlight = false
	p.cancelPoll = nil

	if p.stopped {
		metrics.PollerPollsTotal.WithLabelValues("discarded").Inc()
		logging.Debug("poller: discarding result that arrived after stop")
		return
	}

	if err != nil {
		metrics.PollerPollsTotal.WithLabelValues("error").Inc()
		logging.Warn("poller: status fetch failed, retrying in %v: %v", p.interval, err)
		p.schedule()
		return
	}

	metrics.PollerPollsTotal.WithLabelValues("success").Inc()
	p.apply(dirs)
	p.maybeSchedule()
}

func (p *Poller) fetch(ctx context.Context) ([]api.DirectoryStatus, error) {
	p.flightMu.Lock()
	f := p.flight
	if f == nil {
		f = &flight{}
		if p.requestTimeout > 0 {
			f.ctx, f.cancel = context.WithTimeout(context.Background(), p.requestTimeout)
		} else {
			f.ctx, f.cancel = context.WithCancel(context.Background())
		}
		p.flight = f
	}
	f.waiters++
	results := p.group.DoChan("directories", func() (interface{}, error) {
		defer func() {
			p.flightMu.Lock()
			if p.flight == f {
				p.flight = nil
			}
			p.flightMu.Unlock()
			f.cancel()
		}()
		return p.lister.ListDirectories(f.ctx)
	})
	p.flightMu.Unlock()
	defer p.leave(f)

	select {
	case r := <-results:
		if r.Err != nil {
			return nil, fmt.Errorf("poll directory status: %w", r.Err)
		}
		if r.Shared {
			logging.Debug("poller: shared an in-flight status fetch")
		}
		return cloneStatuses(r.Val.([]api.DirectoryStatus)), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("poll directory status: %w", ctx.Err())
	}
}

// leave drops one waiter and cancels the shared request once nobody is
// waiting for it.
func (p *Poller) leave(f *flight) {
	p.flightMu.Lock()
	defer p.flightMu.Unlock()
	f.waiters--
	if f.waiters == 0 {
		f.cancel()
		if p.flight == f {
			p.flight = nil
			p.group.Forget("directories")
		}
	}
}

// apply must be called with mu held.
func (p *Poller) apply(dirs []api.DirectoryStatus) {
	p.statuses = cloneStatuses(dirs)
	p.recordStates()

	update := Update{Directories: cloneStatuses(dirs), Empty: len(dirs) == 0}
	for _, ch := range p.subs {
		select {
		case ch <- update:
		default:
		}
	}
	logging.Debug("poller: applied %d statuses", len(dirs))
}

func (p *Poller) recordStates() {
	var ready, failed, initializing int
	for _, s := range p.statuses {
		switch {
		case s.Ready:
			ready++
		case s.Failed:
			failed++
		default:
			initializing++
		}
	}
	metrics.PollerDirectories.WithLabelValues("ready").Set(float64(ready))
	metrics.PollerDirectories.WithLabelValues("failed").Set(float64(failed))
	metrics.PollerDirectories.WithLabelValues("initializing").Set(float64(initializing))
}

func anyInProgress(dirs []api.DirectoryStatus) bool {
	for _, d := range dirs {
		if d.InProgress() {
			return true
		}
	}
	return false
}

func cloneStatuses(dirs []api.DirectoryStatus) []api.DirectoryStatus {
	out := make([]api.DirectoryStatus, len(dirs))
	copy(out, dirs)
	return out
}
